// internal/orders/domain.go
package orders

// Item is one (book, quantity) pair of a submitted order, frozen at
// submission time and decoupled from later catalog changes.
type Item struct {
	BookID   string `json:"bookId"`
	Quantity int    `json:"quantity"`
}

// Order is a server-side order of record. The ID is server-assigned; the
// client never mutates an order in place.
type Order struct {
	ID    string `json:"id"`
	Books []Item `json:"books"`
}
