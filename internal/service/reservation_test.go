package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/iliyamo/tournament-ticketing/internal/model"
	"github.com/iliyamo/tournament-ticketing/internal/repository"
)

// fixedPrice satisfies PriceSource with one constant window.
type fixedPrice struct {
	priceCents uint64
	err        error
}

func (f fixedPrice) Resolve(context.Context, uint64, time.Time) (model.PriceWindow, error) {
	if f.err != nil {
		return model.PriceWindow{}, f.err
	}
	return model.PriceWindow{ID: 1, UnitPriceCents: f.priceCents}, nil
}

// fakeCapacity mirrors the conditional increment of the tournament
// repository: admit only when the new total stays within the limit,
// mutate nothing on rejection.
type fakeCapacity struct {
	mu         sync.Mutex
	limit      *uint64 // nil = unbounded
	sold       uint64
	missing    bool  // simulate an unknown tournament
	releaseErr error // forced failure of ReleaseCapacity
	releases   int
}

func (f *fakeCapacity) ReserveCapacity(_ context.Context, _ uint64, quantity uint64) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.missing {
		return 0, repository.ErrTournamentNotFound
	}
	if f.limit != nil && f.sold+quantity > *f.limit {
		return 0, &repository.CapacityExceededError{TournamentID: 1, Current: f.sold, Limit: *f.limit}
	}
	f.sold += quantity
	return f.sold, nil
}

func (f *fakeCapacity) ReleaseCapacity(_ context.Context, _ uint64, quantity uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.releases++
	if f.releaseErr != nil {
		return f.releaseErr
	}
	if quantity > f.sold {
		f.sold = 0
		return nil
	}
	f.sold -= quantity
	return nil
}

// fakeSales stores sales in memory. failNext injects errors for the
// next writes; used to drive the compensation paths.
type fakeSales struct {
	mu       sync.Mutex
	sales    []model.Sale
	failNext []error
}

func (f *fakeSales) Create(_ context.Context, s *model.Sale) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.failNext) > 0 {
		err := f.failNext[0]
		f.failNext = f.failNext[1:]
		return err
	}
	s.ID = uint64(len(f.sales) + 1)
	s.CreatedAt = time.Now().UTC()
	f.sales = append(f.sales, *s)
	return nil
}

var codeSeq atomic.Uint64

func seqCode() (string, error) {
	return fmt.Sprintf("code%04d", codeSeq.Add(1)), nil
}

func newTestReservation(capacity *fakeCapacity, sales *fakeSales) *ReservationService {
	return NewReservationService(fixedPrice{priceCents: 1000}, capacity, sales, seqCode, 500)
}

func u64(v uint64) *uint64 { return &v }

func TestReserveComputesMoneySnapshot(t *testing.T) {
	capacity := &fakeCapacity{limit: u64(100)}
	sales := &fakeSales{}
	svc := newTestReservation(capacity, sales)

	sale, err := svc.Reserve(context.Background(), ReserveInput{TournamentID: 1, BuyerID: 2, Quantity: 3})
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if sale.SubtotalCents != 3000 {
		t.Fatalf("subtotal = %d, want 3000", sale.SubtotalCents)
	}
	if sale.FeeCents != 150 { // 5% of 3000
		t.Fatalf("fee = %d, want 150", sale.FeeCents)
	}
	if sale.TotalCents != 3150 {
		t.Fatalf("total = %d, want 3150", sale.TotalCents)
	}
	if sale.AccessCode == "" {
		t.Fatal("access code not set")
	}
	if capacity.sold != 3 {
		t.Fatalf("sold = %d, want 3", capacity.sold)
	}
}

func TestReserveRejectsZeroQuantity(t *testing.T) {
	capacity := &fakeCapacity{limit: u64(100)}
	sales := &fakeSales{}
	svc := newTestReservation(capacity, sales)

	_, err := svc.Reserve(context.Background(), ReserveInput{TournamentID: 1, BuyerID: 2, Quantity: 0})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("got %v, want ErrValidation", err)
	}
	if capacity.sold != 0 || len(sales.sales) != 0 {
		t.Fatal("rejected purchase mutated state")
	}
}

func TestReserveNoActiveWindow(t *testing.T) {
	capacity := &fakeCapacity{limit: u64(100)}
	svc := NewReservationService(fixedPrice{err: ErrNoActiveWindow}, capacity, &fakeSales{}, seqCode, 500)

	_, err := svc.Reserve(context.Background(), ReserveInput{TournamentID: 1, BuyerID: 2, Quantity: 1})
	if !errors.Is(err, ErrNoActiveWindow) {
		t.Fatalf("got %v, want ErrNoActiveWindow", err)
	}
	if capacity.sold != 0 {
		t.Fatal("capacity consumed without a price window")
	}
}

func TestReserveCapacityFullIsAllOrNothing(t *testing.T) {
	capacity := &fakeCapacity{limit: u64(5), sold: 3}
	sales := &fakeSales{}
	svc := newTestReservation(capacity, sales)

	// 3 sold of 5; a request for 3 more must not partially admit.
	_, err := svc.Reserve(context.Background(), ReserveInput{TournamentID: 1, BuyerID: 2, Quantity: 3})
	var exceeded *repository.CapacityExceededError
	if !errors.As(err, &exceeded) {
		t.Fatalf("got %v, want CapacityExceededError", err)
	}
	if exceeded.Current != 3 || exceeded.Limit != 5 {
		t.Fatalf("error state = %d/%d, want 3/5", exceeded.Current, exceeded.Limit)
	}
	if capacity.sold != 3 || len(sales.sales) != 0 {
		t.Fatal("rejected purchase mutated state")
	}
	// A smaller request still fits.
	if _, err := svc.Reserve(context.Background(), ReserveInput{TournamentID: 1, BuyerID: 2, Quantity: 2}); err != nil {
		t.Fatalf("Reserve remainder: %v", err)
	}
	if capacity.sold != 5 {
		t.Fatalf("sold = %d, want 5", capacity.sold)
	}
}

func TestReserveUnknownTournament(t *testing.T) {
	svc := newTestReservation(&fakeCapacity{missing: true}, &fakeSales{})
	_, err := svc.Reserve(context.Background(), ReserveInput{TournamentID: 99, BuyerID: 2, Quantity: 1})
	if !errors.Is(err, repository.ErrTournamentNotFound) {
		t.Fatalf("got %v, want ErrTournamentNotFound", err)
	}
}

func TestReserveNeverOversellsUnderConcurrency(t *testing.T) {
	const limit = 100
	const buyers = 250
	capacity := &fakeCapacity{limit: u64(limit)}
	sales := &fakeSales{}
	svc := newTestReservation(capacity, sales)

	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func(buyer uint64) {
			defer wg.Done()
			_, err := svc.Reserve(context.Background(), ReserveInput{TournamentID: 1, BuyerID: buyer, Quantity: 1})
			if err == nil {
				mu.Lock()
				admitted++
				mu.Unlock()
				return
			}
			var exceeded *repository.CapacityExceededError
			if !errors.As(err, &exceeded) {
				t.Errorf("buyer %d: unexpected error %v", buyer, err)
			}
		}(uint64(i + 1))
	}
	wg.Wait()

	// Demand exceeds capacity, so the counter must land exactly on the
	// limit with one sale per admission.
	if admitted != limit {
		t.Fatalf("admitted = %d, want %d", admitted, limit)
	}
	if capacity.sold != limit {
		t.Fatalf("sold = %d, want %d", capacity.sold, limit)
	}
	if len(sales.sales) != limit {
		t.Fatalf("sales = %d, want %d", len(sales.sales), limit)
	}
}

func TestReserveCompensatesFailedSaleWrite(t *testing.T) {
	capacity := &fakeCapacity{limit: u64(10)}
	boom := errors.New("insert failed")
	sales := &fakeSales{failNext: []error{boom}}
	svc := newTestReservation(capacity, sales)

	_, err := svc.Reserve(context.Background(), ReserveInput{TournamentID: 1, BuyerID: 2, Quantity: 4})
	if !errors.Is(err, boom) {
		t.Fatalf("got %v, want the sale error", err)
	}
	if capacity.sold != 0 {
		t.Fatalf("sold = %d after compensation, want 0", capacity.sold)
	}
	if capacity.releases != 1 {
		t.Fatalf("releases = %d, want 1", capacity.releases)
	}
}

func TestReserveSurfacesPartialCommit(t *testing.T) {
	relErr := errors.New("release failed")
	capacity := &fakeCapacity{limit: u64(10), releaseErr: relErr}
	saleErr := errors.New("insert failed")
	sales := &fakeSales{failNext: []error{saleErr}}
	svc := newTestReservation(capacity, sales)

	_, err := svc.Reserve(context.Background(), ReserveInput{TournamentID: 1, BuyerID: 2, Quantity: 4})
	var partial *PartialCommitError
	if !errors.As(err, &partial) {
		t.Fatalf("got %v, want PartialCommitError", err)
	}
	if partial.TournamentID != 1 || partial.Quantity != 4 {
		t.Fatalf("partial = %+v, want tournament 1 quantity 4", partial)
	}
	if !errors.Is(partial.SaleErr, saleErr) || !errors.Is(partial.ReleaseErr, relErr) {
		t.Fatalf("partial wraps %v / %v", partial.SaleErr, partial.ReleaseErr)
	}
}

func TestReserveRetriesAccessCodeCollision(t *testing.T) {
	capacity := &fakeCapacity{limit: u64(10)}
	sales := &fakeSales{failNext: []error{repository.ErrAccessCodeExists, repository.ErrAccessCodeExists}}
	svc := newTestReservation(capacity, sales)

	sale, err := svc.Reserve(context.Background(), ReserveInput{TournamentID: 1, BuyerID: 2, Quantity: 1})
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if sale.AccessCode == "" {
		t.Fatal("access code not set after retries")
	}
	if capacity.sold != 1 {
		t.Fatalf("sold = %d, want 1", capacity.sold)
	}
}

func TestReservePinnedClockPricesDeterministically(t *testing.T) {
	// Two calls with the clock pinned to the same instant must produce
	// identical unit prices.
	capacity := &fakeCapacity{limit: u64(10)}
	sales := &fakeSales{}
	svc := newTestReservation(capacity, sales)
	at := time.Date(2026, 6, 1, 10, 45, 0, 0, time.UTC)
	svc.Now = func() time.Time { return at }

	a, err := svc.Reserve(context.Background(), ReserveInput{TournamentID: 1, BuyerID: 2, Quantity: 1})
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	b, err := svc.Reserve(context.Background(), ReserveInput{TournamentID: 1, BuyerID: 3, Quantity: 1})
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if a.UnitPriceCents != b.UnitPriceCents {
		t.Fatalf("prices differ at one instant: %d vs %d", a.UnitPriceCents, b.UnitPriceCents)
	}
}
