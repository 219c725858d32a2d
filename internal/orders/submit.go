// internal/orders/submit.go
package orders

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"bookstore/internal/cart"
)

var (
	// ErrEmptyCart means submission was requested with nothing to submit.
	// It is the entry guard firing, not a submission failure: the flow state
	// does not change.
	ErrEmptyCart = errors.New("cart is empty")

	// ErrSubmitInFlight means a submission is already running. Resubmission
	// is an explicit user action taken after the previous one settles.
	ErrSubmitInFlight = errors.New("submission already in flight")
)

// State is the submission flow state.
type State int

const (
	StateIdle State = iota
	StateSubmitting
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// API is the slice of the server boundary the submission flow needs.
type API interface {
	CreateOrder(ctx context.Context, items []Item) (string, error)
	DeleteOrder(ctx context.Context, id string) error
}

// Submitter converts the cart into a server order. One submission runs at a
// time; on success the cart is cleared in full, on failure it is left
// untouched so the user can retry explicitly.
type Submitter struct {
	api  API
	cart *cart.Store

	mu    sync.Mutex
	state State
}

// NewSubmitter creates a submission flow over the given cart and API client.
func NewSubmitter(api API, store *cart.Store) *Submitter {
	return &Submitter{api: api, cart: store, state: StateIdle}
}

// State returns the current flow state.
func (s *Submitter) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Submit snapshots the cart as a frozen (bookId, quantity) list and posts it
// to the server. The returned error is the single user-visible failure
// signal. Stock is not re-validated locally on success: the server validated
// and decremented it, and the stock_update notifications reconcile the
// catalog cache.
func (s *Submitter) Submit(ctx context.Context) (string, error) {
	lines := s.cart.Lines()
	if len(lines) == 0 {
		return "", ErrEmptyCart
	}

	s.mu.Lock()
	if s.state == StateSubmitting {
		s.mu.Unlock()
		return "", ErrSubmitInFlight
	}
	s.state = StateSubmitting
	s.mu.Unlock()

	items := make([]Item, 0, len(lines))
	for _, line := range lines {
		items = append(items, Item{BookID: line.Book.ISBN, Quantity: line.Quantity})
	}

	orderID, err := s.api.CreateOrder(ctx, items)
	if err != nil {
		s.setState(StateFailed)
		return "", fmt.Errorf("submit order: %w", err)
	}

	s.setState(StateSucceeded)
	if err := s.cart.Clear(); err != nil {
		// The order exists on the server; a failed local clear only leaves
		// the cart populated, which the user can clear by hand.
		log.Printf("order %s placed but clearing cart failed: %v", orderID, err)
	}
	return orderID, nil
}

// Delete requests removal of an existing order. It is fire-and-forget: the
// displayed order list changes only when the server's order_update
// notification confirms the deletion, not when this call returns.
func (s *Submitter) Delete(ctx context.Context, id string) error {
	if err := s.api.DeleteOrder(ctx, id); err != nil {
		return fmt.Errorf("delete order %s: %w", id, err)
	}
	return nil
}

func (s *Submitter) setState(state State) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}
