// internal/api/client.go
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"bookstore/internal/catalog"
	"bookstore/internal/orders"
)

// ErrNotFound is returned when the server reports 404 for a resource.
var ErrNotFound = errors.New("not found")

// Client talks to the bookstore server of record. All calls go through a
// circuit breaker so a dead server fails fast instead of queueing timeouts;
// a breaker-open result is indistinguishable from any other transport
// failure to callers.
type Client struct {
	baseURL string
	httpc   *http.Client
	breaker *gobreaker.CircuitBreaker
	tracer  trace.Tracer
}

// NewClient creates an API client for the server at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpc:   http.DefaultClient,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{Name: "bookstore-api"}),
		tracer:  otel.Tracer("bookstore/api"),
	}
}

// ListBooks fetches the full catalog.
func (c *Client) ListBooks(ctx context.Context) ([]catalog.Book, error) {
	ctx, span := c.tracer.Start(ctx, "api.list_books")
	defer span.End()

	var books []catalog.Book
	if err := c.getJSON(ctx, "/api/books", &books); err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}

	span.SetAttributes(attribute.Int("books.count", len(books)))
	return books, nil
}

// GetBook fetches a single book by ISBN.
func (c *Client) GetBook(ctx context.Context, isbn string) (*catalog.Book, error) {
	ctx, span := c.tracer.Start(ctx, "api.get_book",
		trace.WithAttributes(attribute.String("book.isbn", isbn)),
	)
	defer span.End()

	var book catalog.Book
	if err := c.getJSON(ctx, "/api/books/"+isbn, &book); err != nil {
		return nil, fmt.Errorf("get book %s: %w", isbn, err)
	}
	return &book, nil
}

// ListOrders fetches all orders.
func (c *Client) ListOrders(ctx context.Context) ([]orders.Order, error) {
	ctx, span := c.tracer.Start(ctx, "api.list_orders")
	defer span.End()

	var out []orders.Order
	if err := c.getJSON(ctx, "/api/orders", &out); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	span.SetAttributes(attribute.Int("orders.count", len(out)))
	return out, nil
}

// CreateOrder submits a new order and returns the server-assigned order id.
// Any non-2xx response is a submission failure.
func (c *Client) CreateOrder(ctx context.Context, items []orders.Item) (string, error) {
	ctx, span := c.tracer.Start(ctx, "api.create_order",
		trace.WithAttributes(attribute.Int("order.items", len(items))),
	)
	defer span.End()

	payload := struct {
		Books []orders.Item `json:"books"`
	}{Books: items}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("encode order: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, "/api/orders", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create order: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("create order rejected: status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	var created struct {
		OrderID string `json:"orderId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return "", fmt.Errorf("decode order response: %w", err)
	}

	span.SetAttributes(attribute.String("order.id", created.OrderID))
	return created.OrderID, nil
}

// DeleteOrder requests deletion of an order. The response body carries
// nothing meaningful; the order_update notification is the confirmation.
func (c *Client) DeleteOrder(ctx context.Context, id string) error {
	ctx, span := c.tracer.Start(ctx, "api.delete_order",
		trace.WithAttributes(attribute.String("order.id", id)),
	)
	defer span.End()

	resp, err := c.do(ctx, http.MethodDelete, "/api/orders/"+id, nil)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	resp, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// do runs one round trip through the breaker. Only transport errors trip the
// breaker; a reachable server returning an error status is not an outage.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.breaker.Execute(func() (interface{}, error) {
		return c.httpc.Do(req)
	})
	if err != nil {
		return nil, err
	}
	return resp.(*http.Response), nil
}
