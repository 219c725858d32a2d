// internal/server/storage.go
package server

import (
	"context"
	"errors"

	"bookstore/internal/catalog"
	"bookstore/internal/orders"
)

var (
	ErrBookNotFound      = errors.New("book not found")
	ErrDuplicateBook     = errors.New("order already contains book")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// StockChange reports the authoritative stock of one book after an order was
// created or deleted; each change becomes a stock_update broadcast.
type StockChange struct {
	ISBN     string
	NewStock int
}

// Storage is the server-side book and order store. CreateOrder validates and
// decrements stock atomically; DeleteOrder restores it. Both return the
// resulting stock changes for broadcasting.
type Storage interface {
	ListBooks(ctx context.Context) ([]catalog.Book, error)
	GetBook(ctx context.Context, isbn string) (catalog.Book, error)
	ListOrders(ctx context.Context) ([]orders.Order, error)
	CreateOrder(ctx context.Context, items []orders.Item) (orders.Order, []StockChange, error)
	// DeleteOrder reports found=false for an unknown id; that is a no-op,
	// not an error.
	DeleteOrder(ctx context.Context, id string) (found bool, changes []StockChange, err error)
}
