// internal/orders/cache_test.go
package orders

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

// countingFetch returns the given pages in sequence and counts calls.
type countingFetch struct {
	calls  int
	orders []Order
	err    error
}

func (f *countingFetch) fetch(ctx context.Context) ([]Order, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.orders, nil
}

func unlimited() *rate.Limiter {
	return rate.NewLimiter(rate.Inf, 0)
}

func TestFirstReadFetches(t *testing.T) {
	f := &countingFetch{orders: []Order{{ID: "o1"}}}
	c := NewListCache(f.fetch, unlimited())

	got, err := c.Orders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Order{{ID: "o1"}}, got)
	assert.Equal(t, 1, f.calls)
}

func TestFreshReadsDoNotRefetch(t *testing.T) {
	f := &countingFetch{orders: []Order{{ID: "o1"}}}
	c := NewListCache(f.fetch, unlimited())

	_, err := c.Orders(context.Background())
	require.NoError(t, err)
	_, err = c.Orders(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, f.calls)
	assert.False(t, c.Stale())
}

func TestMarkStaleTriggersRefetchOnNextRead(t *testing.T) {
	f := &countingFetch{orders: []Order{{ID: "o1"}}}
	c := NewListCache(f.fetch, unlimited())

	_, err := c.Orders(context.Background())
	require.NoError(t, err)

	f.orders = []Order{{ID: "o1"}, {ID: "o2"}}
	c.MarkStale()
	assert.True(t, c.Stale())

	got, err := c.Orders(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, 2, f.calls)
	assert.False(t, c.Stale())
}

func TestThrottledStaleReadServesCachedList(t *testing.T) {
	f := &countingFetch{orders: []Order{{ID: "o1"}}}
	// One refetch admitted, then the window closes.
	c := NewListCache(f.fetch, rate.NewLimiter(rate.Every(rateWindow), 1))

	_, err := c.Orders(context.Background())
	require.NoError(t, err)

	c.MarkStale()
	_, err = c.Orders(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, f.calls)

	// Still inside the window: stays stale, serves cache, no round trip.
	c.MarkStale()
	got, err := c.Orders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Order{{ID: "o1"}}, got)
	assert.Equal(t, 2, f.calls)
	assert.True(t, c.Stale())
}

func TestColdCacheFetchErrorSurfaces(t *testing.T) {
	f := &countingFetch{err: errors.New("boom")}
	c := NewListCache(f.fetch, unlimited())

	_, err := c.Orders(context.Background())
	assert.Error(t, err)
}

func TestWarmCacheFetchErrorServesStaleList(t *testing.T) {
	f := &countingFetch{orders: []Order{{ID: "o1"}}}
	c := NewListCache(f.fetch, unlimited())

	_, err := c.Orders(context.Background())
	require.NoError(t, err)

	f.err = errors.New("server down")
	c.MarkStale()

	got, err := c.Orders(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Order{{ID: "o1"}}, got)
	assert.True(t, c.Stale(), "failed refresh must keep the cache stale")
}
