package service

import (
	"context"
	"time"

	"github.com/iliyamo/tournament-ticketing/internal/model"
)

// WindowStore is the targeted lookup the resolver needs: the windows of
// one tournament whose half-open interval contains the instant. The
// MySQL implementation answers it with an indexed query, never a scan.
type WindowStore interface {
	WindowsAt(ctx context.Context, tournamentID uint64, at time.Time) ([]model.PriceWindow, error)
}

// PriceResolver finds the unit price that applies to a tournament at a
// given instant. Resolution is read-only and idempotent for a fixed
// (tournament, instant) pair absent configuration changes.
type PriceResolver struct {
	Windows WindowStore
}

// NewPriceResolver returns a resolver over the given window store.
func NewPriceResolver(windows WindowStore) *PriceResolver {
	return &PriceResolver{Windows: windows}
}

// Resolve returns the applicable price window for the tournament at
// instant at. When several windows overlap the instant, the one with
// the earliest ValidFrom wins; ids break exact ValidFrom ties so the
// choice is stable. ErrNoActiveWindow is returned when nothing
// matches; callers must treat that as "sale unavailable now".
func (r *PriceResolver) Resolve(ctx context.Context, tournamentID uint64, at time.Time) (model.PriceWindow, error) {
	windows, err := r.Windows.WindowsAt(ctx, tournamentID, at)
	if err != nil {
		return model.PriceWindow{}, err
	}
	var best model.PriceWindow
	found := false
	for _, w := range windows {
		// The store filters by interval, but a fake (or a future store)
		// may return extra candidates; re-check the half-open bounds.
		if !w.Contains(at) {
			continue
		}
		if !found || w.ValidFrom.Before(best.ValidFrom) ||
			(w.ValidFrom.Equal(best.ValidFrom) && w.ID < best.ID) {
			best = w
			found = true
		}
	}
	if !found {
		return model.PriceWindow{}, ErrNoActiveWindow
	}
	return best, nil
}
