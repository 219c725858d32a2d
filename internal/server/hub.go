// internal/server/hub.go
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// heartbeatInterval keeps idle notification connections alive.
const heartbeatInterval = 30 * time.Second

type frame struct {
	event string
	data  string
}

// Hub fans notification events out to every connected client. Slow or dead
// connections drop frames rather than blocking the publisher; a dropped
// client reconnects and resynchronizes with a full fetch anyway.
type Hub struct {
	mu   sync.Mutex
	subs map[chan frame]struct{}
}

// NewHub creates an empty notification hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[chan frame]struct{})}
}

// PublishStockUpdate announces the new stock of one book.
func (h *Hub) PublishStockUpdate(isbn string, newStock int) {
	payload, _ := json.Marshal(map[string]any{"bookId": isbn, "newStock": newStock})
	h.broadcast(frame{event: "stock_update", data: string(payload)})
}

// PublishOrderUpdate announces that the order set changed. It covers both new
// and deleted orders; clients refetch the list either way.
func (h *Hub) PublishOrderUpdate(orderID string) {
	payload, _ := json.Marshal(map[string]any{"orderId": orderID})
	h.broadcast(frame{event: "order_update", data: string(payload)})
}

func (h *Hub) broadcast(f frame) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- f:
		default:
		}
	}
}

// ServeHTTP streams events to one client until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := make(chan frame, 16)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
	}()

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case f := <-ch:
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", f.event, f.data)
			flusher.Flush()
		case <-heartbeat.C:
			fmt.Fprint(w, "event: heartbeat\ndata: ping\n\n")
			flusher.Flush()
		}
	}
}
