package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/tournament-ticketing/internal/model"
)

// PriceWindowRepo provides persistence for tournament price windows.
// Lookups on the purchase hot path are targeted at a single tournament
// id over the (tournament_id, valid_from) index; there is no scan over
// all windows.
type PriceWindowRepo struct {
	db *sql.DB
}

// NewPriceWindowRepo returns a new PriceWindowRepo bound to the given database.
func NewPriceWindowRepo(db *sql.DB) *PriceWindowRepo { return &PriceWindowRepo{db: db} }

// Create inserts a new price window and populates its generated ID.
func (r *PriceWindowRepo) Create(ctx context.Context, w *model.PriceWindow) error {
	const q = `INSERT INTO price_windows (tournament_id, valid_from, valid_until, unit_price_cents)
	           VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, w.TournamentID, w.ValidFrom.UTC(), w.ValidUntil.UTC(), w.UnitPriceCents)
	if err != nil {
		return wrapStorage("price window create", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return wrapStorage("price window create id", err)
	}
	w.ID = uint64(id)
	return nil
}

// WindowsAt returns the windows of a tournament whose half-open
// interval contains the instant at, ordered by valid_from ascending so
// the resolver's tie-break is deterministic. Zero results means no
// price applies right now.
func (r *PriceWindowRepo) WindowsAt(ctx context.Context, tournamentID uint64, at time.Time) ([]model.PriceWindow, error) {
	const q = `SELECT id, tournament_id, valid_from, valid_until, unit_price_cents, created_at
	           FROM price_windows
	           WHERE tournament_id = ? AND valid_from <= ? AND ? < valid_until
	           ORDER BY valid_from ASC, id ASC`
	rows, err := r.db.QueryContext(ctx, q, tournamentID, at.UTC(), at.UTC())
	if err != nil {
		return nil, wrapStorage("price window lookup", err)
	}
	defer rows.Close()
	return scanWindows(rows)
}

// ListByTournament returns every window configured for a tournament,
// newest interval first. Used by browse endpoints only.
func (r *PriceWindowRepo) ListByTournament(ctx context.Context, tournamentID uint64) ([]model.PriceWindow, error) {
	const q = `SELECT id, tournament_id, valid_from, valid_until, unit_price_cents, created_at
	           FROM price_windows
	           WHERE tournament_id = ?
	           ORDER BY valid_from DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, tournamentID)
	if err != nil {
		return nil, wrapStorage("price window list", err)
	}
	defer rows.Close()
	return scanWindows(rows)
}

func scanWindows(rows *sql.Rows) ([]model.PriceWindow, error) {
	out := make([]model.PriceWindow, 0)
	for rows.Next() {
		var w model.PriceWindow
		if err := rows.Scan(&w.ID, &w.TournamentID, &w.ValidFrom, &w.ValidUntil, &w.UnitPriceCents, &w.CreatedAt); err != nil {
			return nil, wrapStorage("price window scan", err)
		}
		w.ValidFrom = w.ValidFrom.UTC()
		w.ValidUntil = w.ValidUntil.UTC()
		out = append(out, w)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStorage("price window rows", err)
	}
	return out, nil
}
