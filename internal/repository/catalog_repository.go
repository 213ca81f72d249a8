package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/tournament-ticketing/internal/model"
)

// CatalogRepo answers existence checks against the read-only reference
// tables (categories, game_types). The table name is validated against
// a fixed allow-list; it is never interpolated from user input.
type CatalogRepo struct {
	db *sql.DB
}

// NewCatalogRepo returns a new CatalogRepo bound to the given database.
func NewCatalogRepo(db *sql.DB) *CatalogRepo { return &CatalogRepo{db: db} }

var catalogTables = map[string]bool{
	model.CatalogCategories: true,
	model.CatalogGameTypes:  true,
}

// Exists reports whether code is present in the named catalog. It is a
// point lookup on the catalog's primary key, used as a precondition
// gate before mutations that reference the code.
func (r *CatalogRepo) Exists(ctx context.Context, catalog, code string) (bool, error) {
	if !catalogTables[catalog] {
		return false, fmt.Errorf("unknown catalog %q", catalog)
	}
	q := `SELECT 1 FROM ` + catalog + ` WHERE code = ? LIMIT 1`
	var one int
	err := r.db.QueryRowContext(ctx, q, code).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, wrapStorage("catalog lookup", err)
	}
	return true, nil
}

// List returns all entries of the named catalog ordered by code.
func (r *CatalogRepo) List(ctx context.Context, catalog string) ([]model.CatalogEntry, error) {
	if !catalogTables[catalog] {
		return nil, fmt.Errorf("unknown catalog %q", catalog)
	}
	q := `SELECT code, name FROM ` + catalog + ` ORDER BY code`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, wrapStorage("catalog list", err)
	}
	defer rows.Close()
	out := make([]model.CatalogEntry, 0)
	for rows.Next() {
		var e model.CatalogEntry
		if err := rows.Scan(&e.Code, &e.Name); err != nil {
			return nil, wrapStorage("catalog scan", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStorage("catalog rows", err)
	}
	return out, nil
}
