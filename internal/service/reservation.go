package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/iliyamo/tournament-ticketing/internal/model"
	"github.com/iliyamo/tournament-ticketing/internal/repository"
)

// PriceSource resolves the unit price for a tournament at an instant.
// Implemented by PriceResolver.
type PriceSource interface {
	Resolve(ctx context.Context, tournamentID uint64, at time.Time) (model.PriceWindow, error)
}

// CapacityStore is the capacity side of the tournament store.
// ReserveCapacity must be a single atomic conditional increment: it
// admits quantity only if the resulting total stays within the
// tournament's capacity limit (absent limit = unbounded) and mutates
// nothing on rejection. ReleaseCapacity is the compensating decrement.
type CapacityStore interface {
	ReserveCapacity(ctx context.Context, tournamentID, quantity uint64) (newTotal uint64, err error)
	ReleaseCapacity(ctx context.Context, tournamentID, quantity uint64) error
}

// SaleStore persists accepted sales.
type SaleStore interface {
	Create(ctx context.Context, s *model.Sale) error
}

// AccessCodeFunc generates the opaque code attached to a sale.
type AccessCodeFunc func() (string, error)

// ReserveInput carries a purchase request into the reservation core.
type ReserveInput struct {
	TournamentID uint64
	BuyerID      uint64
	Quantity     uint64
}

// ReservationService admits or rejects ticket purchases. The order of
// operations is fixed: validate, resolve price, atomically reserve
// capacity, then persist the sale snapshot. The capacity increment and
// the sale write are separate store writes; if the sale write fails the
// service releases the reserved capacity, and if even that fails it
// surfaces a PartialCommitError for reconciliation instead of silently
// abandoning the consumed capacity.
type ReservationService struct {
	Prices     PriceSource
	Capacity   CapacityStore
	Sales      SaleStore
	AccessCode AccessCodeFunc
	FeeRateBps uint64

	// Now is the clock used to resolve prices; tests pin it.
	Now func() time.Time
}

// NewReservationService wires the reservation core. feeRateBps is the
// service fee in basis points (500 = 5%).
func NewReservationService(prices PriceSource, capacity CapacityStore, sales SaleStore, accessCode AccessCodeFunc, feeRateBps uint64) *ReservationService {
	return &ReservationService{
		Prices:     prices,
		Capacity:   capacity,
		Sales:      sales,
		AccessCode: accessCode,
		FeeRateBps: feeRateBps,
		Now:        time.Now,
	}
}

// Reserve runs the full purchase flow and returns the recorded sale.
// Rejections come back as the taxonomy errors: ErrValidation,
// ErrNoActiveWindow, *repository.CapacityExceededError,
// repository.ErrTournamentNotFound, repository.ErrStorageUnavailable or
// *PartialCommitError.
func (s *ReservationService) Reserve(ctx context.Context, in ReserveInput) (*model.Sale, error) {
	if in.Quantity == 0 {
		return nil, validationf("quantity must be positive")
	}
	if in.TournamentID == 0 || in.BuyerID == 0 {
		return nil, validationf("tournament and buyer are required")
	}

	now := s.Now().UTC()
	window, err := s.Prices.Resolve(ctx, in.TournamentID, now)
	if err != nil {
		return nil, err
	}

	// Admission control. A success here durably consumed capacity; from
	// this point the reservation must either complete or be compensated.
	if _, err := s.Capacity.ReserveCapacity(ctx, in.TournamentID, in.Quantity); err != nil {
		return nil, err
	}

	subtotal := in.Quantity * window.UnitPriceCents
	fee := subtotal * s.FeeRateBps / 10000

	// Access codes are short, so an insert can collide with an existing
	// one. Retry with a fresh code a few times before giving up.
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		code, err := s.AccessCode()
		if err != nil {
			return nil, s.compensate(ctx, in, err)
		}
		sale := &model.Sale{
			TournamentID:   in.TournamentID,
			BuyerID:        in.BuyerID,
			Quantity:       in.Quantity,
			UnitPriceCents: window.UnitPriceCents,
			SubtotalCents:  subtotal,
			FeeCents:       fee,
			TotalCents:     subtotal + fee,
			AccessCode:     code,
		}
		if err := s.Sales.Create(ctx, sale); err != nil {
			if errors.Is(err, repository.ErrAccessCodeExists) {
				lastErr = err
				continue
			}
			return nil, s.compensate(ctx, in, err)
		}
		return sale, nil
	}
	return nil, s.compensate(ctx, in, lastErr)
}

// compensate releases capacity reserved for a purchase whose sale write
// failed. When the release itself fails the consumed capacity has no
// sale record; that state is logged with scope and amount and reported
// as a partial commit so a reconciliation job can repair it.
func (s *ReservationService) compensate(ctx context.Context, in ReserveInput, saleErr error) error {
	if relErr := s.Capacity.ReleaseCapacity(ctx, in.TournamentID, in.Quantity); relErr != nil {
		log.Printf("reservation: partial commit: tournament=%d buyer=%d quantity=%d sale_err=%v release_err=%v",
			in.TournamentID, in.BuyerID, in.Quantity, saleErr, relErr)
		return &PartialCommitError{
			TournamentID: in.TournamentID,
			Quantity:     in.Quantity,
			SaleErr:      saleErr,
			ReleaseErr:   relErr,
		}
	}
	log.Printf("reservation: sale write failed, capacity released: tournament=%d buyer=%d quantity=%d err=%v",
		in.TournamentID, in.BuyerID, in.Quantity, saleErr)
	return saleErr
}
