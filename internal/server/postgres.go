// internal/server/postgres.go
package server

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"bookstore/internal/catalog"
	"bookstore/internal/orders"
)

// PostgresStorage is the durable storage for a long-running dev server.
type PostgresStorage struct {
	db *sql.DB
}

// NewPostgresStorage wraps an open database handle.
func NewPostgresStorage(db *sql.DB) *PostgresStorage {
	return &PostgresStorage{db: db}
}

// Migrate creates the schema when it does not exist yet.
func (s *PostgresStorage) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS books (
			isbn TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			author TEXT NOT NULL,
			publish_year INT NOT NULL DEFAULT 0,
			stock INT NOT NULL CHECK (stock >= 0),
			price DOUBLE PRECISION NOT NULL DEFAULT 0,
			cover_url TEXT NOT NULL DEFAULT ''
		);
		CREATE TABLE IF NOT EXISTS orders (
			id TEXT PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE TABLE IF NOT EXISTS order_items (
			order_id TEXT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
			book_id TEXT NOT NULL REFERENCES books(isbn),
			quantity INT NOT NULL CHECK (quantity > 0),
			position INT NOT NULL,
			PRIMARY KEY (order_id, book_id)
		);
	`)
	if err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}

// Seed inserts books that are not present yet. Existing rows win, so a
// restart never resets live stock.
func (s *PostgresStorage) Seed(ctx context.Context, books []catalog.Book) error {
	for _, b := range books {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO books (isbn, title, author, publish_year, stock, price, cover_url)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (isbn) DO NOTHING
		`, b.ISBN, b.Title, b.Author, b.PublishYear, b.Stock, b.Price, b.CoverURL)
		if err != nil {
			return fmt.Errorf("seed book %s: %w", b.ISBN, err)
		}
	}
	return nil
}

func (s *PostgresStorage) ListBooks(ctx context.Context) ([]catalog.Book, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT isbn, title, author, publish_year, stock, price, cover_url
		FROM books
		ORDER BY title
	`)
	if err != nil {
		return nil, fmt.Errorf("query books: %w", err)
	}
	defer rows.Close()

	var books []catalog.Book
	for rows.Next() {
		var b catalog.Book
		if err := rows.Scan(&b.ISBN, &b.Title, &b.Author, &b.PublishYear, &b.Stock, &b.Price, &b.CoverURL); err != nil {
			return nil, fmt.Errorf("scan book: %w", err)
		}
		books = append(books, b)
	}
	return books, rows.Err()
}

func (s *PostgresStorage) GetBook(ctx context.Context, isbn string) (catalog.Book, error) {
	var b catalog.Book
	err := s.db.QueryRowContext(ctx, `
		SELECT isbn, title, author, publish_year, stock, price, cover_url
		FROM books
		WHERE isbn = $1
	`, isbn).Scan(&b.ISBN, &b.Title, &b.Author, &b.PublishYear, &b.Stock, &b.Price, &b.CoverURL)
	if err == sql.ErrNoRows {
		return catalog.Book{}, fmt.Errorf("%w: %s", ErrBookNotFound, isbn)
	}
	if err != nil {
		return catalog.Book{}, fmt.Errorf("query book: %w", err)
	}
	return b, nil
}

func (s *PostgresStorage) ListOrders(ctx context.Context) ([]orders.Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT o.id, i.book_id, i.quantity
		FROM orders o
		JOIN order_items i ON i.order_id = o.id
		ORDER BY o.created_at, o.id, i.position
	`)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var out []orders.Order
	index := make(map[string]int)
	for rows.Next() {
		var id string
		var item orders.Item
		if err := rows.Scan(&id, &item.BookID, &item.Quantity); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		i, ok := index[id]
		if !ok {
			index[id] = len(out)
			out = append(out, orders.Order{ID: id})
			i = index[id]
		}
		out[i].Books = append(out[i].Books, item)
	}
	return out, rows.Err()
}

func (s *PostgresStorage) CreateOrder(ctx context.Context, items []orders.Item) (orders.Order, []StockChange, error) {
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		if seen[item.BookID] {
			return orders.Order{}, nil, fmt.Errorf("%w: %s", ErrDuplicateBook, item.BookID)
		}
		seen[item.BookID] = true
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return orders.Order{}, nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	changes := make([]StockChange, 0, len(items))
	for _, item := range items {
		var stock int
		err := tx.QueryRowContext(ctx, `SELECT stock FROM books WHERE isbn = $1 FOR UPDATE`, item.BookID).Scan(&stock)
		if err == sql.ErrNoRows {
			return orders.Order{}, nil, fmt.Errorf("%w: %s", ErrBookNotFound, item.BookID)
		}
		if err != nil {
			return orders.Order{}, nil, fmt.Errorf("query stock: %w", err)
		}
		if stock < item.Quantity {
			return orders.Order{}, nil, fmt.Errorf("%w: book %s has %d, order wants %d",
				ErrInsufficientStock, item.BookID, stock, item.Quantity)
		}

		if _, err := tx.ExecContext(ctx, `UPDATE books SET stock = stock - $1 WHERE isbn = $2`,
			item.Quantity, item.BookID); err != nil {
			return orders.Order{}, nil, fmt.Errorf("decrement stock: %w", err)
		}
		changes = append(changes, StockChange{ISBN: item.BookID, NewStock: stock - item.Quantity})
	}

	order := orders.Order{ID: uuid.NewString(), Books: append([]orders.Item(nil), items...)}
	if _, err := tx.ExecContext(ctx, `INSERT INTO orders (id) VALUES ($1)`, order.ID); err != nil {
		return orders.Order{}, nil, fmt.Errorf("insert order: %w", err)
	}
	for pos, item := range items {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, book_id, quantity, position)
			VALUES ($1, $2, $3, $4)
		`, order.ID, item.BookID, item.Quantity, pos); err != nil {
			return orders.Order{}, nil, fmt.Errorf("insert order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return orders.Order{}, nil, fmt.Errorf("commit order: %w", err)
	}
	return order, changes, nil
}

func (s *PostgresStorage) DeleteOrder(ctx context.Context, id string) (bool, []StockChange, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return false, nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `
		SELECT book_id, quantity FROM order_items WHERE order_id = $1 ORDER BY position
	`, id)
	if err != nil {
		return false, nil, fmt.Errorf("query order items: %w", err)
	}

	var items []orders.Item
	for rows.Next() {
		var item orders.Item
		if err := rows.Scan(&item.BookID, &item.Quantity); err != nil {
			rows.Close()
			return false, nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return false, nil, err
	}
	if len(items) == 0 {
		return false, nil, nil
	}

	changes := make([]StockChange, 0, len(items))
	for _, item := range items {
		var stock int
		err := tx.QueryRowContext(ctx, `
			UPDATE books SET stock = stock + $1 WHERE isbn = $2 RETURNING stock
		`, item.Quantity, item.BookID).Scan(&stock)
		if err != nil {
			return false, nil, fmt.Errorf("restore stock: %w", err)
		}
		changes = append(changes, StockChange{ISBN: item.BookID, NewStock: stock})
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM orders WHERE id = $1`, id); err != nil {
		return false, nil, fmt.Errorf("delete order: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, nil, fmt.Errorf("commit delete: %w", err)
	}
	return true, changes, nil
}
