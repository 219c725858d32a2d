// cmd/bookstore/main.go
//
// Headless bookstore client: builds the full synchronization stack against a
// running server, prints the catalog and the persisted cart, then follows the
// notification feed until interrupted. This is the single creation point for
// the process-wide cache, cart, and subscription.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"bookstore/internal/api"
	"bookstore/internal/cart"
	"bookstore/internal/catalog"
	"bookstore/internal/notify"
	"bookstore/internal/orders"
)

func main() {
	baseURL := getEnv("BOOKSTORE_URL", "http://localhost:8080")
	cartPath := getEnv("BOOKSTORE_CART", "cart.db")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	vault, err := cart.OpenBoltVault(cartPath)
	if err != nil {
		log.Fatalf("Failed to open cart at %s: %v", cartPath, err)
	}
	defer vault.Close()

	store, err := cart.NewStore(vault)
	if err != nil {
		log.Fatalf("Failed to load cart: %v", err)
	}

	client := api.NewClient(baseURL)
	cache := catalog.NewCache()
	list := orders.NewListCache(client.ListOrders, nil)

	// One subscription per process, fanned out to local consumers.
	bus := notify.NewBus()
	bus.Register(notify.NewReconciler(cache, list))
	bus.Register(logSink{})
	sub := notify.NewChannel(baseURL).Open(ctx, bus)
	defer sub.Close()

	books, err := client.ListBooks(ctx)
	if err != nil {
		// No data yet; the catalog stays empty until the server comes back.
		log.Printf("catalog fetch failed: %v", err)
	} else {
		cache.ReplaceAll(books)
	}

	fmt.Printf("📚 Catalog (%d books)\n", cache.Len())
	for _, book := range cache.List() {
		fmt.Printf("  %-14s %-35s stock %d\n", book.ISBN, book.Title, book.Stock)
	}

	display := store.Display(cache)
	fmt.Printf("🛒 Cart (%d lines)\n", len(display))
	for _, line := range display {
		title := line.Book.Title
		if line.Pending {
			title = "(loading)"
		}
		fmt.Printf("  %-14s %-35s x%d\n", line.Book.ISBN, title, line.Quantity)
	}

	log.Printf("watching %s/api/notifications, Ctrl-C to stop", baseURL)
	<-ctx.Done()
}

// logSink mirrors feed traffic to the log, next to the reconciler on the bus.
type logSink struct{}

func (logSink) OnStockUpdate(update notify.StockUpdate) {
	log.Printf("stock_update: book %s now has %d", update.BookID, update.NewStock)
}

func (logSink) OnOrderUpdate() {
	log.Printf("order_update: order list is stale")
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
