package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/tournament-ticketing/internal/model"
)

// ErrTournamentNotFound is returned when a tournament id does not exist.
var ErrTournamentNotFound = errors.New("tournament not found")

// TournamentRepo provides persistence for tournaments, their ticket
// capacity counter and their bounded sub-admin set. The capacity
// counter (tickets_sold) lives on the tournament row next to its limit,
// so the conditional increment evaluates both in one statement.
type TournamentRepo struct {
	db *sql.DB
}

// NewTournamentRepo returns a new TournamentRepo bound to the given database.
func NewTournamentRepo(db *sql.DB) *TournamentRepo { return &TournamentRepo{db: db} }

// Create inserts a new tournament and populates the generated ID and
// timestamps on the provided record.
func (r *TournamentRepo) Create(ctx context.Context, t *model.Tournament) error {
	const q = `INSERT INTO tournaments
	           (name, description, organizer_id, category_code, game_type_code, is_paid, capacity_limit, starts_at, ends_at)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q,
		t.Name, t.Description, t.OrganizerID, t.CategoryCode, t.GameTypeCode,
		t.IsPaid, t.CapacityLimit, t.StartsAt, t.EndsAt)
	if err != nil {
		return wrapStorage("tournament create", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return wrapStorage("tournament create id", err)
	}
	t.ID = uint64(id)
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	return nil
}

// GetByID fetches a tournament by primary key. Returns
// ErrTournamentNotFound when no row exists.
func (r *TournamentRepo) GetByID(ctx context.Context, id uint64) (*model.Tournament, error) {
	const q = `SELECT id, name, description, organizer_id, category_code, game_type_code,
	                  is_paid, capacity_limit, tickets_sold, starts_at, ends_at, created_at, updated_at
	           FROM tournaments WHERE id = ?`
	var t model.Tournament
	var capacity sql.NullInt64
	var startsAt, endsAt sql.NullTime
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&t.ID, &t.Name, &t.Description, &t.OrganizerID, &t.CategoryCode, &t.GameTypeCode,
		&t.IsPaid, &capacity, &t.TicketsSold, &startsAt, &endsAt, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTournamentNotFound
	}
	if err != nil {
		return nil, wrapStorage("tournament get", err)
	}
	if capacity.Valid {
		c := uint64(capacity.Int64)
		t.CapacityLimit = &c
	}
	if startsAt.Valid {
		s := startsAt.Time.UTC()
		t.StartsAt = &s
	}
	if endsAt.Valid {
		e := endsAt.Time.UTC()
		t.EndsAt = &e
	}
	return &t, nil
}

// ReserveCapacity admits quantity tickets against the tournament's
// capacity in a single conditional increment. A NULL capacity_limit
// means unbounded and is resolved inside the same statement, so no
// separate limit read is needed. On admission the new tickets_sold
// total is returned. On rejection nothing is mutated and the caller
// receives either ErrTournamentNotFound or a *CapacityExceededError
// carrying the observed counter.
func (r *TournamentRepo) ReserveCapacity(ctx context.Context, tournamentID, quantity uint64) (uint64, error) {
	const q = `UPDATE tournaments
	           SET tickets_sold = tickets_sold + ?
	           WHERE id = ? AND (capacity_limit IS NULL OR tickets_sold + ? <= capacity_limit)`
	res, err := r.db.ExecContext(ctx, q, quantity, tournamentID, quantity)
	if err != nil {
		return 0, wrapStorage("capacity reserve", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, wrapStorage("capacity reserve result", err)
	}
	if affected > 0 {
		// Read back the new total for the caller; the admission itself
		// already happened atomically above.
		t, err := r.GetByID(ctx, tournamentID)
		if err != nil {
			return 0, err
		}
		return t.TicketsSold, nil
	}

	// Zero rows means either an unknown id or a full tournament.
	// Classify by a point read; this read is for reporting only and
	// plays no part in admission.
	t, err := r.GetByID(ctx, tournamentID)
	if err != nil {
		return 0, err
	}
	limit := uint64(0)
	if t.CapacityLimit != nil {
		limit = *t.CapacityLimit
	}
	return 0, &CapacityExceededError{TournamentID: tournamentID, Current: t.TicketsSold, Limit: limit}
}

// ReleaseCapacity is the compensating decrement for a reservation whose
// sale record failed to persist. It floors at zero and never rejects.
func (r *TournamentRepo) ReleaseCapacity(ctx context.Context, tournamentID, quantity uint64) error {
	const q = `UPDATE tournaments
	           SET tickets_sold = tickets_sold - ?
	           WHERE id = ? AND tickets_sold >= ?`
	if _, err := r.db.ExecContext(ctx, q, quantity, tournamentID, quantity); err != nil {
		return wrapStorage("capacity release", err)
	}
	return nil
}

// AddSubAdmin inserts userID into the tournament's sub-admin set.
// It returns true when the member was newly added and false when the
// member was already present. The set's size bound is not enforced
// here: a membership-count guard inside the statement is only safe
// under serializing isolation, so admission goes through the quota
// ledger before this insert. The statement itself only guarantees
// uniqueness.
func (r *TournamentRepo) AddSubAdmin(ctx context.Context, tournamentID, userID uint64) (bool, error) {
	const q = `INSERT IGNORE INTO tournament_sub_admins (tournament_id, sub_admin_id) VALUES (?, ?)`
	res, err := r.db.ExecContext(ctx, q, tournamentID, userID)
	if err != nil {
		return false, wrapStorage("sub-admin add", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, wrapStorage("sub-admin add result", err)
	}
	return affected == 1, nil
}

// IsSubAdmin reports membership with a point read.
func (r *TournamentRepo) IsSubAdmin(ctx context.Context, tournamentID, userID uint64) (bool, error) {
	const q = `SELECT 1 FROM tournament_sub_admins WHERE tournament_id = ? AND sub_admin_id = ? LIMIT 1`
	var one int
	err := r.db.QueryRowContext(ctx, q, tournamentID, userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, wrapStorage("sub-admin membership", err)
	}
	return true, nil
}

// ListSubAdmins returns the sub-admin user IDs for a tournament in
// insertion order.
func (r *TournamentRepo) ListSubAdmins(ctx context.Context, tournamentID uint64) ([]uint64, error) {
	const q = `SELECT sub_admin_id FROM tournament_sub_admins WHERE tournament_id = ? ORDER BY created_at, sub_admin_id`
	rows, err := r.db.QueryContext(ctx, q, tournamentID)
	if err != nil {
		return nil, wrapStorage("sub-admin list", err)
	}
	defer rows.Close()
	ids := make([]uint64, 0)
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, wrapStorage("sub-admin list scan", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStorage("sub-admin list rows", err)
	}
	return ids, nil
}

// List returns tournaments ordered newest first, optionally filtered by
// organizer (organizerID 0 = all). Used by browse and dashboard
// endpoints; never on the purchase hot path.
func (r *TournamentRepo) List(ctx context.Context, organizerID uint64) ([]model.Tournament, error) {
	q := `SELECT id, name, description, organizer_id, category_code, game_type_code,
	             is_paid, capacity_limit, tickets_sold, starts_at, ends_at, created_at, updated_at
	      FROM tournaments`
	args := make([]interface{}, 0, 1)
	if organizerID != 0 {
		q += ` WHERE organizer_id = ?`
		args = append(args, organizerID)
	}
	q += ` ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, wrapStorage("tournament list", err)
	}
	defer rows.Close()
	out := make([]model.Tournament, 0)
	for rows.Next() {
		var t model.Tournament
		var capacity sql.NullInt64
		var startsAt, endsAt sql.NullTime
		if err := rows.Scan(
			&t.ID, &t.Name, &t.Description, &t.OrganizerID, &t.CategoryCode, &t.GameTypeCode,
			&t.IsPaid, &capacity, &t.TicketsSold, &startsAt, &endsAt, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, wrapStorage("tournament list scan", err)
		}
		if capacity.Valid {
			c := uint64(capacity.Int64)
			t.CapacityLimit = &c
		}
		if startsAt.Valid {
			s := startsAt.Time.UTC()
			t.StartsAt = &s
		}
		if endsAt.Valid {
			e := endsAt.Time.UTC()
			t.EndsAt = &e
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStorage("tournament list rows", err)
	}
	return out, nil
}

// Delete removes a tournament owned by organizerID. Tournaments with
// recorded sales cannot be deleted; ErrConflict is returned instead.
func (r *TournamentRepo) Delete(ctx context.Context, id, organizerID uint64) error {
	const ownerQ = `SELECT organizer_id, tickets_sold FROM tournaments WHERE id = ?`
	var owner, sold uint64
	err := r.db.QueryRowContext(ctx, ownerQ, id).Scan(&owner, &sold)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrTournamentNotFound
	}
	if err != nil {
		return wrapStorage("tournament delete check", err)
	}
	if owner != organizerID {
		return ErrForbidden
	}
	if sold > 0 {
		return ErrConflict
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM tournaments WHERE id = ?`, id); err != nil {
		if isMySQLErr(err, mysqlErrRowReferenced) {
			return ErrConflict
		}
		return wrapStorage("tournament delete", err)
	}
	return nil
}
