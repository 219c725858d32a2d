// internal/server/handler_test.go
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookstore/internal/catalog"
	"bookstore/internal/orders"
)

func seedBooks() []catalog.Book {
	return []catalog.Book{
		{ISBN: "9780141439518", Title: "Pride and Prejudice", Author: "Jane Austen", PublishYear: 1813, Stock: 5, Price: 9.99},
		{ISBN: "9780743273565", Title: "The Great Gatsby", Author: "F. Scott Fitzgerald", PublishYear: 1925, Stock: 2, Price: 11.5},
	}
}

func newTestServer(t *testing.T) (*httptest.Server, *MemoryStorage) {
	t.Helper()
	storage := NewMemoryStorage(seedBooks())
	srv := httptest.NewServer(NewHandler(storage, NewHub()).Routes())
	t.Cleanup(srv.Close)
	return srv, storage
}

func postOrder(t *testing.T, url string, items []orders.Item) *http.Response {
	t.Helper()
	body, err := json.Marshal(map[string]any{"books": items})
	require.NoError(t, err)
	resp, err := http.Post(url+"/api/orders", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	return resp
}

func TestListBooks(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/books")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var books []catalog.Book
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&books))
	require.Len(t, books, 2)
	assert.Equal(t, "Pride and Prejudice", books[0].Title)
}

func TestGetBook(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/books/9780743273565")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var book catalog.Book
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&book))
	assert.Equal(t, 2, book.Stock)

	resp, err = http.Get(srv.URL + "/api/books/unknown")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateOrderDecrementsStock(t *testing.T) {
	srv, storage := newTestServer(t)

	resp := postOrder(t, srv.URL, []orders.Item{{BookID: "9780141439518", Quantity: 3}})
	defer resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		OrderID string `json:"orderId"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.NotEmpty(t, created.OrderID)

	book, err := storage.GetBook(context.Background(), "9780141439518")
	require.NoError(t, err)
	assert.Equal(t, 2, book.Stock)

	all, err := storage.ListOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, created.OrderID, all[0].ID)
}

func TestCreateOrderInsufficientStock(t *testing.T) {
	srv, storage := newTestServer(t)

	resp := postOrder(t, srv.URL, []orders.Item{{BookID: "9780743273565", Quantity: 3}})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// Rejection mutates nothing.
	book, err := storage.GetBook(context.Background(), "9780743273565")
	require.NoError(t, err)
	assert.Equal(t, 2, book.Stock)
}

func TestCreateOrderValidation(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postOrder(t, srv.URL, []orders.Item{{BookID: "unknown", Quantity: 1}})
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = postOrder(t, srv.URL, []orders.Item{
		{BookID: "9780141439518", Quantity: 1},
		{BookID: "9780141439518", Quantity: 2},
	})
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postOrder(t, srv.URL, nil)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestPartialValidationFailureMutatesNothing(t *testing.T) {
	srv, storage := newTestServer(t)

	// First book is fulfillable, second is not; neither stock may change.
	resp := postOrder(t, srv.URL, []orders.Item{
		{BookID: "9780141439518", Quantity: 1},
		{BookID: "9780743273565", Quantity: 99},
	})
	resp.Body.Close()
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	book, err := storage.GetBook(context.Background(), "9780141439518")
	require.NoError(t, err)
	assert.Equal(t, 5, book.Stock)
}

func TestDeleteOrderRestoresStock(t *testing.T) {
	srv, storage := newTestServer(t)

	resp := postOrder(t, srv.URL, []orders.Item{{BookID: "9780743273565", Quantity: 2}})
	var created struct {
		OrderID string `json:"orderId"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	resp.Body.Close()

	req, err := http.NewRequest(http.MethodDelete, fmt.Sprintf("%s/api/orders/%s", srv.URL, created.OrderID), nil)
	require.NoError(t, err)
	del, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	del.Body.Close()
	require.Equal(t, http.StatusNoContent, del.StatusCode)

	book, err := storage.GetBook(context.Background(), "9780743273565")
	require.NoError(t, err)
	assert.Equal(t, 2, book.Stock)

	all, err := storage.ListOrders(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestDeleteUnknownOrderIsNoOp(t *testing.T) {
	srv, _ := newTestServer(t)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/orders/nope", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestListOrdersEmptyIsValidJSON(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/orders")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var all []orders.Order
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&all))
	assert.NotNil(t, all)
	assert.Empty(t, all)
}
