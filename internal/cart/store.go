// internal/cart/store.go
package cart

import (
	"fmt"
	"sync"

	"bookstore/internal/catalog"
)

// Store holds the local, not-yet-submitted order. It is a pure ordered
// container: it performs no stock clamping and never talks to the network.
// Every mutation is synchronously persisted through the vault before it
// returns, and the constructor loads the last persisted state, so the cart
// survives process restarts independently of catalog freshness.
type Store struct {
	mu    sync.Mutex
	lines []Line
	vault Vault
}

// NewStore creates a cart store backed by the given vault, loading whatever
// was persisted by a previous run.
func NewStore(vault Vault) (*Store, error) {
	lines, err := vault.Load()
	if err != nil {
		return nil, err
	}
	return &Store{lines: lines, vault: vault}, nil
}

// Upsert sets the quantity for a book. Quantity zero removes the book's line
// if one exists and is a no-op otherwise. A new book with a positive quantity
// appends a line at the end; an existing line is updated in place so the
// display order stays stable. The caller is responsible for clamping quantity
// to the current stock.
func (s *Store) Upsert(book catalog.Book, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, line := range s.lines {
		if line.Book.ISBN != book.ISBN {
			continue
		}
		if quantity == 0 {
			s.lines = append(s.lines[:i], s.lines[i+1:]...)
		} else {
			if line.Quantity == quantity && line.Book == book {
				return nil
			}
			s.lines[i] = Line{Book: book, Quantity: quantity}
		}
		return s.persistLocked()
	}

	if quantity == 0 {
		return nil
	}

	s.lines = append(s.lines, Line{Book: book, Quantity: quantity})
	return s.persistLocked()
}

// Clear empties the cart unconditionally.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.lines) == 0 {
		return nil
	}
	s.lines = nil
	return s.persistLocked()
}

// Lines returns the cart contents in insertion order.
func (s *Store) Lines() []Line {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Line, len(s.lines))
	copy(out, s.lines)
	return out
}

// Len returns the number of lines in the cart.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines)
}

// Display joins the cart against the catalog cache. Lines whose book is not
// cached yet come back with Pending set and the stored snapshot as fallback,
// so a cart loaded before the first catalog fetch still renders.
func (s *Store) Display(cache *catalog.Cache) []Display {
	lines := s.Lines()

	out := make([]Display, 0, len(lines))
	for _, line := range lines {
		if book, ok := cache.Get(line.Book.ISBN); ok {
			out = append(out, Display{Book: book, Quantity: line.Quantity})
		} else {
			out = append(out, Display{Book: line.Book, Quantity: line.Quantity, Pending: true})
		}
	}
	return out
}

func (s *Store) persistLocked() error {
	if err := s.vault.Save(s.lines); err != nil {
		return fmt.Errorf("persist cart: %w", err)
	}
	return nil
}
