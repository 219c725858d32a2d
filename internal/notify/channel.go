// internal/notify/channel.go
package notify

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/r3labs/sse/v2"
)

// Channel is a long-lived subscription factory for the server's notification
// feed. The underlying SSE transport reconnects on its own backoff; nothing
// is layered on top of that. Transport errors are logged and never surfaced
// to consumers, and no single failure terminates a subscription permanently.
type Channel struct {
	url string
}

// NewChannel creates a channel for the server at baseURL.
func NewChannel(baseURL string) *Channel {
	return &Channel{url: baseURL + "/api/notifications"}
}

// Subscription is an open notification subscription. Close stops delivery;
// it is safe to call on every exit path, any number of times.
type Subscription struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Close tears the subscription down and waits until no further events can be
// delivered.
func (s *Subscription) Close() {
	s.once.Do(s.cancel)
	<-s.done
}

// Open starts delivering feed events to sink until the subscription is
// closed or ctx is cancelled. Events of one subscription arrive in server
// order, one at a time.
func (c *Channel) Open(ctx context.Context, sink Sink) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	sub := &Subscription{cancel: cancel, done: make(chan struct{})}

	client := sse.NewClient(c.url)

	go func() {
		defer close(sub.done)
		for {
			err := client.SubscribeRawWithContext(ctx, func(msg *sse.Event) {
				dispatch(msg, sink)
			})
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				log.Printf("notification channel %s: %v", c.url, err)
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
		}
	}()

	return sub
}

// dispatch decodes one feed event. An unparseable payload is dropped and
// logged; it must never take the dispatch loop down with it.
func dispatch(msg *sse.Event, sink Sink) {
	switch string(msg.Event) {
	case EventStockUpdate:
		var update StockUpdate
		if err := json.Unmarshal(msg.Data, &update); err != nil {
			log.Printf("dropping malformed stock_update %q: %v", msg.Data, err)
			return
		}
		sink.OnStockUpdate(update)
	case EventOrderUpdate:
		// Payload (the order id) is intentionally ignored.
		sink.OnOrderUpdate()
	case eventHeartbeat, "":
		// Keep-alive.
	default:
		log.Printf("ignoring unknown notification event %q", msg.Event)
	}
}
