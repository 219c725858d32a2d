// internal/server/handler.go
package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"bookstore/internal/orders"
)

// Handler exposes the bookstore REST API and the notification feed.
type Handler struct {
	storage Storage
	hub     *Hub
}

// NewHandler creates a handler over the given storage and hub.
func NewHandler(storage Storage, hub *Hub) *Handler {
	return &Handler{storage: storage, hub: hub}
}

// Routes builds the router for the full server API.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/api/books", h.listBooks)
	r.Get("/api/books/{isbn}", h.getBook)
	r.Get("/api/orders", h.listOrders)
	r.Post("/api/orders", h.createOrder)
	r.Delete("/api/orders/{id}", h.deleteOrder)
	r.Get("/api/notifications", h.hub.ServeHTTP)

	return r
}

func (h *Handler) listBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.storage.ListBooks(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, books)
}

func (h *Handler) getBook(w http.ResponseWriter, r *http.Request) {
	book, err := h.storage.GetBook(r.Context(), chi.URLParam(r, "isbn"))
	if errors.Is(err, ErrBookNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, book)
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	all, err := h.storage.ListOrders(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if all == nil {
		all = []orders.Order{}
	}
	writeJSON(w, all)
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Books []orders.Item `json:"books"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.Books) == 0 {
		http.Error(w, "order has no books", http.StatusBadRequest)
		return
	}

	order, changes, err := h.storage.CreateOrder(r.Context(), req.Books)
	switch {
	case errors.Is(err, ErrBookNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	case errors.Is(err, ErrDuplicateBook):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, ErrInsufficientStock):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	log.Printf("created order %s with %d books", order.ID, len(order.Books))
	h.hub.PublishOrderUpdate(order.ID)
	for _, change := range changes {
		h.hub.PublishStockUpdate(change.ISBN, change.NewStock)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]string{"orderId": order.ID})
}

func (h *Handler) deleteOrder(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	found, changes, err := h.storage.DeleteOrder(r.Context(), id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if found {
		log.Printf("deleted order %s", id)
		h.hub.PublishOrderUpdate(id)
		for _, change := range changes {
			h.hub.PublishStockUpdate(change.ISBN, change.NewStock)
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
