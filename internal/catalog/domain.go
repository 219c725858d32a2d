// internal/catalog/domain.go
package catalog

// Book represents a single title in the store catalog. Books are created and
// updated only from server responses and stock notifications, never locally.
type Book struct {
	ISBN        string  `json:"isbn"`
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	PublishYear int     `json:"publishYear"`
	Stock       int     `json:"stock"`
	Price       float64 `json:"price"`
	CoverURL    string  `json:"coverUrl"`
}
