// internal/catalog/cache.go
package catalog

import "sync"

// Cache is the client-side view of the server's catalog, keyed by ISBN.
// It is mutated only by fetch results (ReplaceAll) and by stock notifications
// (PatchStock). There is one Cache per running client, shared by every
// consumer, so it is safe for concurrent use.
type Cache struct {
	mu    sync.RWMutex
	books map[string]Book
	order []string
}

// NewCache creates an empty catalog cache.
func NewCache() *Cache {
	return &Cache{books: make(map[string]Book)}
}

// Get returns the cached book for the given ISBN, if present.
func (c *Cache) Get(isbn string) (Book, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	book, ok := c.books[isbn]
	return book, ok
}

// List returns all cached books in the order the server last sent them.
func (c *Cache) List() []Book {
	c.mu.RLock()
	defer c.mu.RUnlock()

	books := make([]Book, 0, len(c.order))
	for _, isbn := range c.order {
		books = append(books, c.books[isbn])
	}
	return books
}

// Len returns the number of cached books.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.books)
}

// ReplaceAll swaps the entire cache contents for the result of a full
// catalog fetch. Books absent from the new set are forgotten.
func (c *Cache) ReplaceAll(books []Book) {
	next := make(map[string]Book, len(books))
	order := make([]string, 0, len(books))
	for _, b := range books {
		if _, dup := next[b.ISBN]; !dup {
			order = append(order, b.ISBN)
		}
		next[b.ISBN] = b
	}

	c.mu.Lock()
	c.books = next
	c.order = order
	c.mu.Unlock()
}

// PatchStock applies a targeted stock update to one book. It reports false
// when the ISBN is not cached yet; that is a no-op, not an error, since the
// next full refresh supersedes it. Concurrent patches for the same ISBN are
// last-write-wins on arrival order: the notification feed carries no sequence
// numbers, so a reordered delivery leaves a stale value until the next full
// refresh. That staleness window is accepted.
func (c *Cache) PatchStock(isbn string, newStock int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	book, ok := c.books[isbn]
	if !ok {
		return false
	}

	book.Stock = newStock
	c.books[isbn] = book
	return true
}
