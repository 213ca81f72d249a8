// Package repository defines error values that are reused across multiple
// repositories. These sentinel and typed values form a closed set so that
// higher layers distinguish failure classes without inspecting error text:
// a quota rejection, a lost race, a missing reference and an unreachable
// store all surface as distinct values decided here, at the store adapter.
package repository

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an update cannot be performed because
// of conflicting state. Handlers should translate this into an HTTP
// 409 response.
var ErrConflict = errors.New("conflict")

// ErrNotFound is returned when a point lookup finds no row for the
// given key. Repositories wrap it with the entity name for context.
var ErrNotFound = errors.New("not found")

// ErrStorageUnavailable marks transient store failures (timeouts,
// connection loss). Eligible for bounded retry with backoff. Never
// returned for business rejections.
var ErrStorageUnavailable = errors.New("storage unavailable")

// QuotaExceededError reports that a bounded counter could not admit the
// requested amount. Current and Limit are the values observed after the
// conditional write was rejected, for user-facing messaging.
type QuotaExceededError struct {
	Scope   string
	Current uint64
	Limit   uint64
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("quota exceeded for %s: %d of %d used", e.Scope, e.Current, e.Limit)
}

// CapacityExceededError reports that a tournament's ticket capacity
// could not admit the requested quantity.
type CapacityExceededError struct {
	TournamentID uint64
	Current      uint64
	Limit        uint64
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("tournament %d capacity exceeded: %d of %d sold", e.TournamentID, e.Current, e.Limit)
}

// MySQL server error numbers the repositories react to.
const (
	mysqlErrDupEntry      = 1062 // unique key violation
	mysqlErrRowReferenced = 1451 // FK restricts the delete
)

// isMySQLErr reports whether err is a MySQL server error with the given
// number. The driver returns *mysql.MySQLError for server-side failures;
// everything else (I/O, context) never matches.
func isMySQLErr(err error, number uint16) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == number
}

// wrapStorage classifies a raw driver error as transient. Context
// cancellation and deadline expiry flow through here too, so timeouts
// propagate as storage-unavailable instead of being swallowed or
// mistaken for business failures. sql.ErrNoRows never reaches this
// helper; repositories map it to ErrNotFound first.
func wrapStorage(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrStorageUnavailable, err)
}
