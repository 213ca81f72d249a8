package model

import "time"

// PriceWindow defines the unit ticket price for a tournament during a
// half-open time interval [ValidFrom, ValidUntil).  Windows for one
// tournament should not overlap; when they do, the resolver picks the
// window with the earliest ValidFrom.  A window referenced by a
// completed sale is never edited.
type PriceWindow struct {
	ID             uint64    // price_windows.id
	TournamentID   uint64    // price_windows.tournament_id
	ValidFrom      time.Time // price_windows.valid_from (inclusive)
	ValidUntil     time.Time // price_windows.valid_until (exclusive)
	UnitPriceCents uint64    // price_windows.unit_price_cents
	CreatedAt      time.Time // price_windows.created_at
}

// Contains reports whether the instant t falls inside the window's
// half-open interval.
func (w PriceWindow) Contains(t time.Time) bool {
	return !t.Before(w.ValidFrom) && t.Before(w.ValidUntil)
}
