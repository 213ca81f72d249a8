package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/iliyamo/tournament-ticketing/internal/repository"
	"github.com/iliyamo/tournament-ticketing/internal/service"
)

func TestPurchaseFailureStatuses(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", fmt.Errorf("%w: quantity must be positive", service.ErrValidation), http.StatusBadRequest},
		{"unknown tournament", repository.ErrTournamentNotFound, http.StatusNotFound},
		{"no active window", service.ErrNoActiveWindow, http.StatusConflict},
		{"partial commit", &service.PartialCommitError{TournamentID: 1, Quantity: 2, SaleErr: errors.New("down")}, http.StatusInternalServerError},
		{"storage unavailable", fmt.Errorf("capacity reserve: %w: timeout", repository.ErrStorageUnavailable), http.StatusServiceUnavailable},
		{"unclassified", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := purchaseFailure(tc.err)
			if status != tc.status {
				t.Fatalf("status = %d, want %d", status, tc.status)
			}
			if body["error"] == "" {
				t.Fatal("empty error body")
			}
		})
	}
}

func TestPurchaseFailureCapacityBody(t *testing.T) {
	err := fmt.Errorf("reserve: %w", &repository.CapacityExceededError{TournamentID: 7, Current: 98, Limit: 100})
	status, body := purchaseFailure(err)
	if status != http.StatusConflict {
		t.Fatalf("status = %d, want %d", status, http.StatusConflict)
	}
	if body["tickets_sold"] != uint64(98) || body["capacity"] != uint64(100) {
		t.Fatalf("body = %v, want observed counter and limit", body)
	}
}
