// Package service holds the admission-control core: price resolution,
// quota enforcement and the purchase orchestration built on top of the
// repository layer's atomic conditional writes. Services depend on
// narrow store interfaces so that the conditional behavior can be
// exercised deterministically with in-memory fakes.
package service

import (
	"errors"
	"fmt"
)

// ErrValidation marks malformed or missing input. The client must fix
// the request; retrying the same payload is pointless.
var ErrValidation = errors.New("validation error")

// ErrNoActiveWindow means no price window covers the purchase instant.
// It is "sale unavailable now", never a zero price.
var ErrNoActiveWindow = errors.New("no active price window")

// ErrReferenceNotFound marks an unknown catalog code or resource id.
var ErrReferenceNotFound = errors.New("reference not found")

// PartialCommitError reports that capacity was consumed but the
// dependent sale record failed to persist and the compensating release
// also failed. It must be surfaced for reconciliation, never dropped.
type PartialCommitError struct {
	TournamentID uint64
	Quantity     uint64
	SaleErr      error
	ReleaseErr   error
}

func (e *PartialCommitError) Error() string {
	return fmt.Sprintf("partial commit: tournament %d consumed %d tickets without a sale record (sale: %v, release: %v)",
		e.TournamentID, e.Quantity, e.SaleErr, e.ReleaseErr)
}

func validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrValidation}, args...)...)
}
