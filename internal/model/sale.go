package model

import "time"

// Sale records an accepted ticket purchase.  Every money field is a
// snapshot taken at purchase time; the unit price is never re-resolved
// and the row is never mutated after insertion.  AccessCode is the
// opaque token the buyer presents at the event gate.
//
// Fields:
//
//	ID             – primary key identifier.
//	TournamentID   – tournament the tickets belong to (lookup by id, not a live link).
//	BuyerID        – user who bought the tickets.
//	Quantity       – number of tickets, always > 0.
//	UnitPriceCents – price per ticket at the instant of purchase.
//	SubtotalCents  – Quantity * UnitPriceCents.
//	FeeCents       – service fee, SubtotalCents * fee rate.
//	TotalCents     – SubtotalCents + FeeCents.
//	AccessCode     – unique opaque code granting event access.
//	CreatedAt      – purchase timestamp.
type Sale struct {
	ID             uint64    // sales.id
	TournamentID   uint64    // sales.tournament_id
	BuyerID        uint64    // sales.buyer_id
	Quantity       uint64    // sales.quantity
	UnitPriceCents uint64    // sales.unit_price_cents
	SubtotalCents  uint64    // sales.subtotal_cents
	FeeCents       uint64    // sales.fee_cents
	TotalCents     uint64    // sales.total_cents
	AccessCode     string    // sales.access_code
	CreatedAt      time.Time // sales.created_at
}
