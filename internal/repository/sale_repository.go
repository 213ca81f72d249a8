package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/tournament-ticketing/internal/model"
)

// ErrSaleNotFound is returned when a sale lookup finds no row.
var ErrSaleNotFound = errors.New("sale not found")

// ErrAccessCodeExists is returned when a generated access code collides
// with an existing sale. Callers regenerate and retry.
var ErrAccessCodeExists = errors.New("access code already exists")

// SaleRepo persists accepted ticket sales. A sale row is a snapshot:
// it is inserted exactly once per admitted reservation and never
// updated afterwards.
type SaleRepo struct {
	db *sql.DB
}

// NewSaleRepo returns a new SaleRepo bound to the given database.
func NewSaleRepo(db *sql.DB) *SaleRepo { return &SaleRepo{db: db} }

// Create inserts a sale and populates its generated ID and timestamp.
func (r *SaleRepo) Create(ctx context.Context, s *model.Sale) error {
	const q = `INSERT INTO sales
	           (tournament_id, buyer_id, quantity, unit_price_cents, subtotal_cents, fee_cents, total_cents, access_code)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		s.TournamentID, s.BuyerID, s.Quantity, s.UnitPriceCents,
		s.SubtotalCents, s.FeeCents, s.TotalCents, s.AccessCode)
	if err != nil {
		if isMySQLErr(err, mysqlErrDupEntry) {
			return ErrAccessCodeExists
		}
		return wrapStorage("sale create", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return wrapStorage("sale create id", err)
	}
	s.ID = uint64(id)
	s.CreatedAt = time.Now().UTC()
	return nil
}

// ListByBuyer returns the buyer's sales, newest first.
func (r *SaleRepo) ListByBuyer(ctx context.Context, buyerID uint64) ([]model.Sale, error) {
	const q = `SELECT id, tournament_id, buyer_id, quantity, unit_price_cents,
	                  subtotal_cents, fee_cents, total_cents, access_code, created_at
	           FROM sales WHERE buyer_id = ? ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, buyerID)
	if err != nil {
		return nil, wrapStorage("sale list", err)
	}
	defer rows.Close()
	return scanSales(rows)
}

// ListByTournamentForOrganizer returns all sales for a tournament after
// verifying that the caller organizes it. ErrForbidden is returned for
// someone else's tournament.
func (r *SaleRepo) ListByTournamentForOrganizer(ctx context.Context, tournamentID, organizerID uint64) ([]model.Sale, error) {
	const checkQ = `SELECT organizer_id FROM tournaments WHERE id = ?`
	var owner uint64
	err := r.db.QueryRowContext(ctx, checkQ, tournamentID).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTournamentNotFound
	}
	if err != nil {
		return nil, wrapStorage("sale list check", err)
	}
	if owner != organizerID {
		return nil, ErrForbidden
	}
	const q = `SELECT id, tournament_id, buyer_id, quantity, unit_price_cents,
	                  subtotal_cents, fee_cents, total_cents, access_code, created_at
	           FROM sales WHERE tournament_id = ? ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, tournamentID)
	if err != nil {
		return nil, wrapStorage("sale list", err)
	}
	defer rows.Close()
	return scanSales(rows)
}

// GetByAccessCode fetches a sale by its opaque access code.
func (r *SaleRepo) GetByAccessCode(ctx context.Context, code string) (*model.Sale, error) {
	const q = `SELECT id, tournament_id, buyer_id, quantity, unit_price_cents,
	                  subtotal_cents, fee_cents, total_cents, access_code, created_at
	           FROM sales WHERE access_code = ? LIMIT 1`
	var s model.Sale
	err := r.db.QueryRowContext(ctx, q, code).Scan(
		&s.ID, &s.TournamentID, &s.BuyerID, &s.Quantity, &s.UnitPriceCents,
		&s.SubtotalCents, &s.FeeCents, &s.TotalCents, &s.AccessCode, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSaleNotFound
	}
	if err != nil {
		return nil, wrapStorage("sale get", err)
	}
	return &s, nil
}

func scanSales(rows *sql.Rows) ([]model.Sale, error) {
	out := make([]model.Sale, 0)
	for rows.Next() {
		var s model.Sale
		if err := rows.Scan(
			&s.ID, &s.TournamentID, &s.BuyerID, &s.Quantity, &s.UnitPriceCents,
			&s.SubtotalCents, &s.FeeCents, &s.TotalCents, &s.AccessCode, &s.CreatedAt); err != nil {
			return nil, wrapStorage("sale scan", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStorage("sale rows", err)
	}
	return out, nil
}
