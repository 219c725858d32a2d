// internal/server/memory.go
package server

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"bookstore/internal/catalog"
	"bookstore/internal/orders"
)

// MemoryStorage keeps books and orders in process memory. It backs the dev
// server when no database is configured, and the tests.
type MemoryStorage struct {
	mu        sync.Mutex
	books     map[string]catalog.Book
	bookOrder []string
	orders    map[string]orders.Order
	orderIDs  []string
}

// NewMemoryStorage creates a storage seeded with the given books.
func NewMemoryStorage(seed []catalog.Book) *MemoryStorage {
	s := &MemoryStorage{
		books:  make(map[string]catalog.Book, len(seed)),
		orders: make(map[string]orders.Order),
	}
	for _, b := range seed {
		if _, dup := s.books[b.ISBN]; !dup {
			s.bookOrder = append(s.bookOrder, b.ISBN)
		}
		s.books[b.ISBN] = b
	}
	return s
}

func (s *MemoryStorage) ListBooks(ctx context.Context) ([]catalog.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]catalog.Book, 0, len(s.bookOrder))
	for _, isbn := range s.bookOrder {
		out = append(out, s.books[isbn])
	}
	return out, nil
}

func (s *MemoryStorage) GetBook(ctx context.Context, isbn string) (catalog.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	book, ok := s.books[isbn]
	if !ok {
		return catalog.Book{}, fmt.Errorf("%w: %s", ErrBookNotFound, isbn)
	}
	return book, nil
}

func (s *MemoryStorage) ListOrders(ctx context.Context) ([]orders.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]orders.Order, 0, len(s.orderIDs))
	for _, id := range s.orderIDs {
		out = append(out, s.orders[id])
	}
	return out, nil
}

func (s *MemoryStorage) CreateOrder(ctx context.Context, items []orders.Item) (orders.Order, []StockChange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate the whole order before mutating anything.
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		if seen[item.BookID] {
			return orders.Order{}, nil, fmt.Errorf("%w: %s", ErrDuplicateBook, item.BookID)
		}
		seen[item.BookID] = true

		book, ok := s.books[item.BookID]
		if !ok {
			return orders.Order{}, nil, fmt.Errorf("%w: %s", ErrBookNotFound, item.BookID)
		}
		if book.Stock < item.Quantity {
			return orders.Order{}, nil, fmt.Errorf("%w: book %s has %d, order wants %d",
				ErrInsufficientStock, item.BookID, book.Stock, item.Quantity)
		}
	}

	changes := make([]StockChange, 0, len(items))
	for _, item := range items {
		book := s.books[item.BookID]
		book.Stock -= item.Quantity
		s.books[item.BookID] = book
		changes = append(changes, StockChange{ISBN: item.BookID, NewStock: book.Stock})
	}

	order := orders.Order{ID: uuid.NewString(), Books: append([]orders.Item(nil), items...)}
	s.orders[order.ID] = order
	s.orderIDs = append(s.orderIDs, order.ID)
	return order, changes, nil
}

func (s *MemoryStorage) DeleteOrder(ctx context.Context, id string) (bool, []StockChange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.orders[id]
	if !ok {
		return false, nil, nil
	}

	changes := make([]StockChange, 0, len(order.Books))
	for _, item := range order.Books {
		book := s.books[item.BookID]
		book.Stock += item.Quantity
		s.books[item.BookID] = book
		changes = append(changes, StockChange{ISBN: item.BookID, NewStock: book.Stock})
	}

	delete(s.orders, id)
	for i, oid := range s.orderIDs {
		if oid == id {
			s.orderIDs = append(s.orderIDs[:i], s.orderIDs[i+1:]...)
			break
		}
	}
	return true, changes, nil
}
