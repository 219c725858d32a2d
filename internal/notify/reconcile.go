// internal/notify/reconcile.go
package notify

import (
	"bookstore/internal/catalog"
	"bookstore/internal/orders"
)

// Reconciler is the policy binding feed events to the local caches. It never
// touches the cart: the cart stores references by identity plus a user-chosen
// quantity, and its display re-resolves against the catalog cache on read,
// so a patched stock reaches dependent reads without any cart mutation.
type Reconciler struct {
	catalog *catalog.Cache
	orders  *orders.ListCache
}

// NewReconciler creates the canonical sink over the two caches.
func NewReconciler(cache *catalog.Cache, list *orders.ListCache) *Reconciler {
	return &Reconciler{catalog: cache, orders: list}
}

// OnStockUpdate patches the catalog cache. A book the cache has not fetched
// yet is skipped; the next full refresh supersedes the missed patch.
func (r *Reconciler) OnStockUpdate(update StockUpdate) {
	r.catalog.PatchStock(update.BookID, update.NewStock)
}

// OnOrderUpdate marks the order list stale so the next read refetches.
func (r *Reconciler) OnOrderUpdate() {
	r.orders.MarkStale()
}
