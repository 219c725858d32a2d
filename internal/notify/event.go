// internal/notify/event.go
package notify

// Server-sent event names on the notification feed.
const (
	EventStockUpdate = "stock_update"
	EventOrderUpdate = "order_update"

	// eventHeartbeat keep-alives arrive every 30s and carry no information.
	eventHeartbeat = "heartbeat"
)

// StockUpdate announces the new authoritative stock for one book.
type StockUpdate struct {
	BookID   string `json:"bookId"`
	NewStock int    `json:"newStock"`
}

// Sink receives decoded notification events. Order updates carry no payload:
// order deltas are not delivered incrementally, the event only says that the
// server-side order set changed. Events are transient and never persisted.
type Sink interface {
	OnStockUpdate(update StockUpdate)
	OnOrderUpdate()
}
