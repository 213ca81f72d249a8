// Package queue defines message payloads exchanged over the message broker.
package queue

// SaleCompletedEvent is published when a ticket sale is recorded. It
// carries enough information for downstream consumers (notifications,
// QR generation workers) to act without querying the primary database.
// AccessURL is the link a QR worker would encode for event entry.
type SaleCompletedEvent struct {
	SaleID         uint64 `json:"sale_id"`
	TournamentID   uint64 `json:"tournament_id"`
	TournamentName string `json:"tournament_name"`
	BuyerID        uint64 `json:"buyer_id"`
	Quantity       uint64 `json:"quantity"`
	UnitPriceCents uint64 `json:"unit_price_cents"`
	TotalCents     uint64 `json:"total_cents"`
	FeeCents       uint64 `json:"fee_cents"`
	AccessCode     string `json:"access_code"`
	AccessURL      string `json:"access_url"`
	CompletedAt    string `json:"completed_at"`
}
