// internal/notify/bus.go
package notify

import (
	"sync"

	"github.com/google/uuid"
)

// Bus fans one notification subscription out to any number of local
// consumers, so a process opens exactly one connection to the feed no matter
// how many views care about it. Bus itself implements Sink: open the channel
// once with the bus as sink, then register consumers against the bus.
type Bus struct {
	mu    sync.RWMutex
	sinks map[uuid.UUID]Sink
}

// NewBus creates an empty fan-out bus.
func NewBus() *Bus {
	return &Bus{sinks: make(map[uuid.UUID]Sink)}
}

// Register adds a consumer and returns the handle to drop it with.
func (b *Bus) Register(sink Sink) uuid.UUID {
	id := uuid.New()
	b.mu.Lock()
	b.sinks[id] = sink
	b.mu.Unlock()
	return id
}

// Deregister removes a consumer. Unknown handles are a no-op.
func (b *Bus) Deregister(id uuid.UUID) {
	b.mu.Lock()
	delete(b.sinks, id)
	b.mu.Unlock()
}

// OnStockUpdate delivers the update to every registered consumer.
func (b *Bus) OnStockUpdate(update StockUpdate) {
	for _, sink := range b.snapshot() {
		sink.OnStockUpdate(update)
	}
}

// OnOrderUpdate delivers the invalidation to every registered consumer.
func (b *Bus) OnOrderUpdate() {
	for _, sink := range b.snapshot() {
		sink.OnOrderUpdate()
	}
}

func (b *Bus) snapshot() []Sink {
	b.mu.RLock()
	defer b.mu.RUnlock()

	sinks := make([]Sink, 0, len(b.sinks))
	for _, s := range b.sinks {
		sinks = append(sinks, s)
	}
	return sinks
}
