package model

// CatalogEntry is a row in one of the read-only reference tables
// (categories, game_types).  Entries are keyed by a short code that
// mutating operations validate before accepting.
type CatalogEntry struct {
	Code string // <catalog>.code
	Name string // <catalog>.name
}

// Catalog table names accepted by the catalog repository.
const (
	CatalogCategories = "categories"
	CatalogGameTypes  = "game_types"
)
