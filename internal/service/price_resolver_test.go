package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iliyamo/tournament-ticketing/internal/model"
)

// fakeWindowStore answers WindowsAt from a fixed slice, filtering by
// the half-open interval the way the real indexed query does.
type fakeWindowStore struct {
	windows []model.PriceWindow
	err     error
}

func (f *fakeWindowStore) WindowsAt(_ context.Context, tournamentID uint64, at time.Time) ([]model.PriceWindow, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []model.PriceWindow
	for _, w := range f.windows {
		if w.TournamentID == tournamentID && w.Contains(at) {
			out = append(out, w)
		}
	}
	return out, nil
}

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return ts.UTC()
}

func TestResolvePicksEarliestValidFromOnOverlap(t *testing.T) {
	// Early-bird 10:00-11:00 at $10, flash sale 10:30-12:00 at $5. A
	// purchase at 10:45 sits in both; the earlier window wins even
	// though it is more expensive.
	store := &fakeWindowStore{windows: []model.PriceWindow{
		{ID: 2, TournamentID: 7, UnitPriceCents: 500, ValidFrom: mustTime(t, "2026-06-01T10:30:00Z"), ValidUntil: mustTime(t, "2026-06-01T12:00:00Z")},
		{ID: 1, TournamentID: 7, UnitPriceCents: 1000, ValidFrom: mustTime(t, "2026-06-01T10:00:00Z"), ValidUntil: mustTime(t, "2026-06-01T11:00:00Z")},
	}}
	r := NewPriceResolver(store)

	w, err := r.Resolve(context.Background(), 7, mustTime(t, "2026-06-01T10:45:00Z"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if w.ID != 1 || w.UnitPriceCents != 1000 {
		t.Fatalf("got window %d price %d, want window 1 price 1000", w.ID, w.UnitPriceCents)
	}
}

func TestResolveTieBreaksOnID(t *testing.T) {
	from := mustTime(t, "2026-06-01T10:00:00Z")
	until := mustTime(t, "2026-06-01T11:00:00Z")
	store := &fakeWindowStore{windows: []model.PriceWindow{
		{ID: 9, TournamentID: 7, UnitPriceCents: 700, ValidFrom: from, ValidUntil: until},
		{ID: 3, TournamentID: 7, UnitPriceCents: 300, ValidFrom: from, ValidUntil: until},
	}}
	r := NewPriceResolver(store)

	w, err := r.Resolve(context.Background(), 7, mustTime(t, "2026-06-01T10:30:00Z"))
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if w.ID != 3 {
		t.Fatalf("got window %d, want lowest id 3", w.ID)
	}
}

func TestResolveHalfOpenBoundaries(t *testing.T) {
	store := &fakeWindowStore{windows: []model.PriceWindow{
		{ID: 1, TournamentID: 7, UnitPriceCents: 500, ValidFrom: mustTime(t, "2026-06-01T10:00:00Z"), ValidUntil: mustTime(t, "2026-06-01T11:00:00Z")},
	}}
	r := NewPriceResolver(store)

	// Exactly valid_from is inside.
	if _, err := r.Resolve(context.Background(), 7, mustTime(t, "2026-06-01T10:00:00Z")); err != nil {
		t.Fatalf("at valid_from: %v", err)
	}
	// Exactly valid_until is outside.
	if _, err := r.Resolve(context.Background(), 7, mustTime(t, "2026-06-01T11:00:00Z")); !errors.Is(err, ErrNoActiveWindow) {
		t.Fatalf("at valid_until: got %v, want ErrNoActiveWindow", err)
	}
}

func TestResolveNoWindow(t *testing.T) {
	r := NewPriceResolver(&fakeWindowStore{})
	_, err := r.Resolve(context.Background(), 7, mustTime(t, "2026-06-01T10:00:00Z"))
	if !errors.Is(err, ErrNoActiveWindow) {
		t.Fatalf("got %v, want ErrNoActiveWindow", err)
	}
}

func TestResolveIsStableForFixedInstant(t *testing.T) {
	store := &fakeWindowStore{windows: []model.PriceWindow{
		{ID: 2, TournamentID: 7, UnitPriceCents: 500, ValidFrom: mustTime(t, "2026-06-01T09:30:00Z"), ValidUntil: mustTime(t, "2026-06-01T12:00:00Z")},
		{ID: 1, TournamentID: 7, UnitPriceCents: 1000, ValidFrom: mustTime(t, "2026-06-01T10:00:00Z"), ValidUntil: mustTime(t, "2026-06-01T11:00:00Z")},
	}}
	r := NewPriceResolver(store)
	at := mustTime(t, "2026-06-01T10:45:00Z")

	first, err := r.Resolve(context.Background(), 7, at)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	for i := 0; i < 10; i++ {
		w, err := r.Resolve(context.Background(), 7, at)
		if err != nil {
			t.Fatalf("Resolve #%d: %v", i, err)
		}
		if w.ID != first.ID {
			t.Fatalf("resolution flapped: got %d then %d", first.ID, w.ID)
		}
	}
}
