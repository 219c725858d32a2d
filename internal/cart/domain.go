// internal/cart/domain.go
package cart

import "bookstore/internal/catalog"

// Line is one entry of the not-yet-submitted order. Its identity is the ISBN
// of the referenced book; a cart never holds two lines for the same ISBN and
// never holds a line with quantity zero. The embedded book value is a
// snapshot taken at upsert time: reads re-join against the catalog cache, the
// snapshot only keeps the persisted form lossless and serves as a display
// fallback before the first catalog fetch completes.
type Line struct {
	Book     catalog.Book `json:"book"`
	Quantity int          `json:"quantity"`
}

// Display is a cart line joined against the catalog cache for rendering.
// When the cache cannot resolve the ISBN yet, Pending is true and Book holds
// the stored snapshot; the line is shown as loading, never dropped.
type Display struct {
	Book     catalog.Book
	Quantity int
	Pending  bool
}

// ClampQuantity bounds a requested quantity to [0, stock]. Callers clamp
// before Upsert; the store itself never consults the catalog.
func ClampQuantity(quantity, stock int) int {
	if quantity < 0 {
		return 0
	}
	if quantity > stock {
		return stock
	}
	return quantity
}
