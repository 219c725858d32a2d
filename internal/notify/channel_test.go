// internal/notify/channel_test.go
package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookstore/internal/catalog"
	"bookstore/internal/orders"
	"golang.org/x/time/rate"
)

// recordingSink collects dispatched events.
type recordingSink struct {
	mu           sync.Mutex
	stockUpdates []StockUpdate
	orderUpdates int
}

func (s *recordingSink) OnStockUpdate(update StockUpdate) {
	s.mu.Lock()
	s.stockUpdates = append(s.stockUpdates, update)
	s.mu.Unlock()
}

func (s *recordingSink) OnOrderUpdate() {
	s.mu.Lock()
	s.orderUpdates++
	s.mu.Unlock()
}

func (s *recordingSink) stocks() []StockUpdate {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]StockUpdate, len(s.stockUpdates))
	copy(out, s.stockUpdates)
	return out
}

func (s *recordingSink) orders() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orderUpdates
}

// feedServer serves /api/notifications, writing the given raw SSE frames and
// then holding the connection open until the client goes away.
func feedServer(t *testing.T, frames ...string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/notifications", func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		require.True(t, ok)

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		for _, frame := range frames {
			fmt.Fprint(w, frame)
			flusher.Flush()
		}

		<-r.Context().Done()
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestChannelDispatchesTypedEvents(t *testing.T) {
	srv := feedServer(t,
		"event: stock_update\ndata: {\"bookId\":\"X\",\"newStock\":0}\n\n",
		"event: order_update\ndata: {\"orderId\":\"o-1\"}\n\n",
		"event: heartbeat\ndata: ping\n\n",
		"event: stock_update\ndata: {\"bookId\":\"Y\",\"newStock\":4}\n\n",
	)

	sink := &recordingSink{}
	sub := NewChannel(srv.URL).Open(context.Background(), sink)
	defer sub.Close()

	require.Eventually(t, func() bool {
		return len(sink.stocks()) == 2 && sink.orders() == 1
	}, 3*time.Second, 10*time.Millisecond)

	assert.Equal(t, []StockUpdate{
		{BookID: "X", NewStock: 0},
		{BookID: "Y", NewStock: 4},
	}, sink.stocks(), "events of one channel arrive in server order")
}

func TestMalformedPayloadIsDroppedNotFatal(t *testing.T) {
	srv := feedServer(t,
		"event: stock_update\ndata: {not json}\n\n",
		"event: stock_update\ndata: {\"bookId\":\"Z\",\"newStock\":1}\n\n",
	)

	sink := &recordingSink{}
	sub := NewChannel(srv.URL).Open(context.Background(), sink)
	defer sub.Close()

	require.Eventually(t, func() bool {
		return len(sink.stocks()) == 1
	}, 3*time.Second, 10*time.Millisecond)
	assert.Equal(t, StockUpdate{BookID: "Z", NewStock: 1}, sink.stocks()[0])
}

func TestCloseStopsDeliveryAndIsIdempotent(t *testing.T) {
	srv := feedServer(t, "event: order_update\ndata: {}\n\n")

	sink := &recordingSink{}
	sub := NewChannel(srv.URL).Open(context.Background(), sink)

	require.Eventually(t, func() bool { return sink.orders() == 1 }, 3*time.Second, 10*time.Millisecond)

	sub.Close()
	sub.Close()

	count := sink.orders()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, count, sink.orders(), "no events after Close")
}

func TestBusFansOutAndDeregisters(t *testing.T) {
	bus := NewBus()
	a := &recordingSink{}
	b := &recordingSink{}

	idA := bus.Register(a)
	bus.Register(b)

	bus.OnStockUpdate(StockUpdate{BookID: "X", NewStock: 2})
	bus.OnOrderUpdate()

	assert.Len(t, a.stocks(), 1)
	assert.Len(t, b.stocks(), 1)
	assert.Equal(t, 1, a.orders())

	bus.Deregister(idA)
	bus.OnOrderUpdate()

	assert.Equal(t, 1, a.orders())
	assert.Equal(t, 2, b.orders())
}

func TestReconcilerBindsCaches(t *testing.T) {
	cache := catalog.NewCache()
	cache.ReplaceAll([]catalog.Book{{ISBN: "X", Stock: 10}})

	fetches := 0
	list := orders.NewListCache(func(ctx context.Context) ([]orders.Order, error) {
		fetches++
		return nil, nil
	}, rate.NewLimiter(rate.Inf, 0))

	_, err := list.Orders(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, fetches)

	r := NewReconciler(cache, list)

	r.OnStockUpdate(StockUpdate{BookID: "X", NewStock: 0})
	book, ok := cache.Get("X")
	require.True(t, ok)
	assert.Equal(t, 0, book.Stock)

	// Unknown book: quiet no-op, next refresh supersedes.
	r.OnStockUpdate(StockUpdate{BookID: "unknown", NewStock: 9})
	assert.Equal(t, 1, cache.Len())

	// Order update marks stale only; the fetch happens on the next read.
	r.OnOrderUpdate()
	assert.True(t, list.Stale())
	assert.Equal(t, 1, fetches)

	_, err = list.Orders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, fetches)
}
