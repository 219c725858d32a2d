// cmd/bookstored/main.go
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/lib/pq"

	"bookstore/internal/catalog"
	"bookstore/internal/server"
)

// defaultCatalog seeds a fresh store.
var defaultCatalog = []catalog.Book{
	{ISBN: "9780141439518", Title: "Pride and Prejudice", Author: "Jane Austen", PublishYear: 1813, Stock: 12, Price: 9.99, CoverURL: "/covers/9780141439518.jpg"},
	{ISBN: "9780743273565", Title: "The Great Gatsby", Author: "F. Scott Fitzgerald", PublishYear: 1925, Stock: 7, Price: 11.50, CoverURL: "/covers/9780743273565.jpg"},
	{ISBN: "9780451524935", Title: "1984", Author: "George Orwell", PublishYear: 1949, Stock: 20, Price: 8.25, CoverURL: "/covers/9780451524935.jpg"},
	{ISBN: "9780060883287", Title: "One Hundred Years of Solitude", Author: "Gabriel García Márquez", PublishYear: 1967, Stock: 5, Price: 13.00, CoverURL: "/covers/9780060883287.jpg"},
	{ISBN: "9780141187761", Title: "Brave New World", Author: "Aldous Huxley", PublishYear: 1932, Stock: 9, Price: 10.40, CoverURL: "/covers/9780141187761.jpg"},
}

func main() {
	ctx := context.Background()

	var storage server.Storage
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		db, err := sql.Open("postgres", dbURL)
		if err != nil {
			log.Fatalf("Failed to open database: %v", err)
		}
		defer db.Close()

		// The database may still be coming up alongside us.
		err = backoff.Retry(func() error {
			return db.PingContext(ctx)
		}, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 8))
		if err != nil {
			log.Fatalf("Failed to reach database: %v", err)
		}

		pg := server.NewPostgresStorage(db)
		if err := pg.Migrate(ctx); err != nil {
			log.Fatalf("Failed to migrate: %v", err)
		}
		if err := pg.Seed(ctx, defaultCatalog); err != nil {
			log.Fatalf("Failed to seed catalog: %v", err)
		}
		storage = pg
	} else {
		storage = server.NewMemoryStorage(defaultCatalog)
		log.Printf("DATABASE_URL not set, using in-memory storage")
	}

	handler := server.NewHandler(storage, server.NewHub())

	port := getEnv("PORT", "8080")
	httpServer := &http.Server{
		Addr:              ":" + port,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	fmt.Printf("🚀 Starting Bookstore Server on port %s\n", port)
	log.Fatal(httpServer.ListenAndServe())
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
