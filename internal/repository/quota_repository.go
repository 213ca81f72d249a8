package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// QuotaRepo is the generic bounded-counter ledger. Each (subject, kind)
// pair owns an independent counter row in quota_counters. Admission is
// a single conditional UPDATE that carries the bound in its WHERE
// clause, so two concurrent callers can never jointly push a counter
// past its limit: the store serializes the statements and the second
// one sees the incremented value when it evaluates the predicate.
//
// The limit itself is not stored; it arrives from immutable per-process
// configuration and is embedded in the atomic request. A limit change
// therefore requires a restart, which is the one accepted narrowing of
// atomicity for this ledger.
type QuotaRepo struct {
	db *sql.DB
}

// NewQuotaRepo returns a QuotaRepo bound to the given database.
func NewQuotaRepo(db *sql.DB) *QuotaRepo { return &QuotaRepo{db: db} }

// TryConsume atomically increases the counter for (subject, kind) by
// amount, but only if the resulting total stays within limit. On
// admission it returns the new total. On rejection nothing is mutated
// and a *QuotaExceededError with the observed total is returned.
// amount must be positive.
func (r *QuotaRepo) TryConsume(ctx context.Context, subject uint64, kind string, amount, limit uint64) (uint64, error) {
	if amount == 0 {
		return 0, fmt.Errorf("quota: amount must be positive")
	}

	// Ensure the scope row exists. A zero row is not a consumption and
	// the IGNORE makes concurrent creation races harmless.
	const ensure = `INSERT IGNORE INTO quota_counters (subject_id, kind, consumed) VALUES (?, ?, 0)`
	if _, err := r.db.ExecContext(ctx, ensure, subject, kind); err != nil {
		return 0, wrapStorage("quota ensure scope", err)
	}

	// The admission check and the increment are one statement. This is
	// the only write path for the counter; a separate read followed by
	// a write would let two callers both observe headroom and both
	// succeed. LAST_INSERT_ID(expr) carries the incremented value back
	// on the same statement's result, so the new total is exact even
	// when other callers increment the counter concurrently.
	const consume = `UPDATE quota_counters
	                 SET consumed = LAST_INSERT_ID(consumed + ?)
	                 WHERE subject_id = ? AND kind = ? AND consumed + ? <= ?`
	res, err := r.db.ExecContext(ctx, consume, amount, subject, kind, amount, limit)
	if err != nil {
		return 0, wrapStorage("quota consume", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, wrapStorage("quota consume result", err)
	}
	if affected == 0 {
		// The rejection report reads the counter in a separate
		// statement, so the observed total is advisory; admission was
		// already decided above.
		current, err := r.Current(ctx, subject, kind)
		if err != nil {
			return 0, err
		}
		return 0, &QuotaExceededError{
			Scope:   fmt.Sprintf("%d/%s", subject, kind),
			Current: current,
			Limit:   limit,
		}
	}
	newTotal, err := res.LastInsertId()
	if err != nil {
		return 0, wrapStorage("quota consume total", err)
	}
	return uint64(newTotal), nil
}

// Release decrements the counter by amount, flooring at zero. It is the
// compensating action for a consumption whose dependent write failed;
// it must not be used as a general-purpose mutation.
func (r *QuotaRepo) Release(ctx context.Context, subject uint64, kind string, amount uint64) error {
	const q = `UPDATE quota_counters
	           SET consumed = consumed - ?
	           WHERE subject_id = ? AND kind = ? AND consumed >= ?`
	if _, err := r.db.ExecContext(ctx, q, amount, subject, kind, amount); err != nil {
		return wrapStorage("quota release", err)
	}
	return nil
}

// Current returns the consumed total for (subject, kind), zero when the
// scope has never been touched.
func (r *QuotaRepo) Current(ctx context.Context, subject uint64, kind string) (uint64, error) {
	const q = `SELECT consumed FROM quota_counters WHERE subject_id = ? AND kind = ? LIMIT 1`
	var consumed uint64
	err := r.db.QueryRowContext(ctx, q, subject, kind).Scan(&consumed)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, wrapStorage("quota read", err)
	}
	return consumed, nil
}
