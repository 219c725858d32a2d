// internal/orders/cache.go
package orders

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// rateWindow is the default minimum spacing between refetches triggered by
// staleness, so a burst of order_update notifications costs one round trip.
const rateWindow = time.Second

// FetchFunc retrieves the full order list from the server of record.
type FetchFunc func(ctx context.Context) ([]Order, error)

// ListCache is the client-side order list with explicit two-step
// invalidation: MarkStale is a pure state transition (called when an
// order_update notification arrives), and the refetch happens on the next
// Orders read. Order deltas are not delivered incrementally, so invalidation
// is always whole-list.
type ListCache struct {
	fetch   FetchFunc
	limiter *rate.Limiter

	mu     sync.Mutex
	orders []Order
	loaded bool
	stale  bool
}

// NewListCache creates an order-list cache around the given fetcher. A nil
// limiter applies a default that coalesces notification storms into roughly
// one refetch per second while always allowing the first read through.
func NewListCache(fetch FetchFunc, limiter *rate.Limiter) *ListCache {
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Every(rateWindow), 1)
	}
	return &ListCache{fetch: fetch, limiter: limiter, stale: true}
}

// MarkStale records that the server-side order set changed. It never fetches.
func (c *ListCache) MarkStale() {
	c.mu.Lock()
	c.stale = true
	c.mu.Unlock()
}

// Stale reports whether the next read wants a refetch.
func (c *ListCache) Stale() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stale
}

// Orders returns the order list, refetching first when the cache is stale and
// the limiter admits a refresh. A failed refetch serves the previously cached
// list when one exists (a stale read, retried on the next call); it is an
// error only when the cache has never been filled.
func (c *ListCache) Orders(ctx context.Context) ([]Order, error) {
	c.mu.Lock()
	needsFetch := c.stale && (!c.loaded || c.limiter.Allow())
	c.mu.Unlock()

	if needsFetch {
		fetched, err := c.fetch(ctx)
		c.mu.Lock()
		if err == nil {
			c.orders = fetched
			c.loaded = true
			c.stale = false
		} else if !c.loaded {
			c.mu.Unlock()
			return nil, err
		}
		c.mu.Unlock()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Order, len(c.orders))
	copy(out, c.orders)
	return out, nil
}
