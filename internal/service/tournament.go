package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/iliyamo/tournament-ticketing/internal/model"
	"github.com/iliyamo/tournament-ticketing/internal/repository"
)

// Ledger kinds. Free-tournament counters are keyed by organizer,
// sub-admin counters by tournament.
const (
	QuotaKindFreeTournaments = "free-tournament-count"
	QuotaKindSubAdmins       = "sub-admin-count"
)

// RoleSource resolves a principal's role, defaulting to the least
// privileged one for unknown identities.
type RoleSource interface {
	RoleOf(ctx context.Context, id uint64) (string, error)
}

// CatalogSource answers point existence checks against reference tables.
type CatalogSource interface {
	Exists(ctx context.Context, catalog, code string) (bool, error)
}

// QuotaSource is the generic bounded-counter ledger.
type QuotaSource interface {
	TryConsume(ctx context.Context, subject uint64, kind string, amount, limit uint64) (uint64, error)
	Release(ctx context.Context, subject uint64, kind string, amount uint64) error
}

// TournamentStore is the slice of the tournament repository the
// creation and sub-admin use cases need.
type TournamentStore interface {
	Create(ctx context.Context, t *model.Tournament) error
	GetByID(ctx context.Context, id uint64) (*model.Tournament, error)
	AddSubAdmin(ctx context.Context, tournamentID, userID uint64) (bool, error)
	IsSubAdmin(ctx context.Context, tournamentID, userID uint64) (bool, error)
	ListSubAdmins(ctx context.Context, tournamentID uint64) ([]uint64, error)
}

// QuotaPolicy fixes the per-role free-tournament limits and the
// sub-admin cap. Built once from config and immutable afterwards.
type QuotaPolicy struct {
	FreeTournamentLimits map[string]uint64 // role -> limit
	MaxSubAdmins         uint64
}

// FreeLimitFor returns the free-tournament limit for a role, falling
// back to the participant limit (zero unless configured) for roles
// without an entry.
func (p QuotaPolicy) FreeLimitFor(role string) uint64 {
	if l, ok := p.FreeTournamentLimits[role]; ok {
		return l
	}
	return p.FreeTournamentLimits[model.RoleParticipant]
}

// CreateTournamentInput carries a creation request.
type CreateTournamentInput struct {
	Name          string
	Description   string
	OrganizerID   uint64
	CategoryCode  string
	GameTypeCode  string
	IsPaid        bool
	CapacityLimit *uint64
	StartsAt      *time.Time
	EndsAt        *time.Time
}

// TournamentService implements tournament creation under the
// free-tournament quota and sub-admin addition under the bounded set.
type TournamentService struct {
	Roles       RoleSource
	Catalogs    CatalogSource
	Quotas      QuotaSource
	Tournaments TournamentStore
	Policy      QuotaPolicy
}

// NewTournamentService wires the tournament use cases.
func NewTournamentService(roles RoleSource, catalogs CatalogSource, quotas QuotaSource, tournaments TournamentStore, policy QuotaPolicy) *TournamentService {
	return &TournamentService{Roles: roles, Catalogs: catalogs, Quotas: quotas, Tournaments: tournaments, Policy: policy}
}

// Create validates the request, consumes one unit of the organizer's
// free-tournament quota when the tournament is free, and persists the
// record. Paid tournaments bypass the quota entirely. If the insert
// fails after the quota was consumed, the consumption is released so
// the organizer is not charged for a tournament that does not exist.
func (s *TournamentService) Create(ctx context.Context, in CreateTournamentInput) (*model.Tournament, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" || in.OrganizerID == 0 || in.CategoryCode == "" || in.GameTypeCode == "" {
		return nil, validationf("name, organizer, category and game type are required")
	}
	if in.CapacityLimit != nil && *in.CapacityLimit == 0 {
		return nil, validationf("capacity limit must be positive when set")
	}
	if in.StartsAt != nil && in.EndsAt != nil && !in.EndsAt.After(*in.StartsAt) {
		return nil, validationf("ends_at must be after starts_at")
	}

	ok, err := s.Catalogs.Exists(ctx, model.CatalogCategories, in.CategoryCode)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: unknown category %q", ErrReferenceNotFound, in.CategoryCode)
	}
	ok, err = s.Catalogs.Exists(ctx, model.CatalogGameTypes, in.GameTypeCode)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: unknown game type %q", ErrReferenceNotFound, in.GameTypeCode)
	}

	consumed := false
	if !in.IsPaid {
		role, err := s.Roles.RoleOf(ctx, in.OrganizerID)
		if err != nil {
			return nil, err
		}
		limit := s.Policy.FreeLimitFor(role)
		if _, err := s.Quotas.TryConsume(ctx, in.OrganizerID, QuotaKindFreeTournaments, 1, limit); err != nil {
			return nil, err
		}
		consumed = true
	}

	t := &model.Tournament{
		Name:          in.Name,
		Description:   in.Description,
		OrganizerID:   in.OrganizerID,
		CategoryCode:  in.CategoryCode,
		GameTypeCode:  in.GameTypeCode,
		IsPaid:        in.IsPaid,
		CapacityLimit: in.CapacityLimit,
		StartsAt:      in.StartsAt,
		EndsAt:        in.EndsAt,
	}
	if err := s.Tournaments.Create(ctx, t); err != nil {
		if consumed {
			if relErr := s.Quotas.Release(ctx, in.OrganizerID, QuotaKindFreeTournaments, 1); relErr != nil {
				log.Printf("tournament create: quota release failed: organizer=%d kind=%s err=%v",
					in.OrganizerID, QuotaKindFreeTournaments, relErr)
			}
		}
		return nil, err
	}
	return t, nil
}

// AddSubAdmin adds userID to the tournament's bounded sub-admin set on
// behalf of the organizer. Only the tournament's organizer may add
// sub-admins. Re-adding a present member is an idempotent success; a
// full set rejects with a quota error carrying the observed size. The
// size bound is admitted through the quota ledger keyed by tournament,
// so concurrent adds contend on one conditional increment instead of
// racing a membership count.
func (s *TournamentService) AddSubAdmin(ctx context.Context, tournamentID, callerID, userID uint64) ([]uint64, error) {
	if tournamentID == 0 || userID == 0 {
		return nil, validationf("tournament and sub-admin are required")
	}
	t, err := s.Tournaments.GetByID(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if t.OrganizerID != callerID {
		return nil, repository.ErrForbidden
	}
	if userID == t.OrganizerID {
		return nil, validationf("organizer cannot be their own sub-admin")
	}

	// Membership first: a present member must not compete for a slot.
	member, err := s.Tournaments.IsSubAdmin(ctx, tournamentID, userID)
	if err != nil {
		return nil, err
	}
	if !member {
		if _, err := s.Quotas.TryConsume(ctx, tournamentID, QuotaKindSubAdmins, 1, s.Policy.MaxSubAdmins); err != nil {
			var exceeded *repository.QuotaExceededError
			if errors.As(err, &exceeded) {
				return nil, &repository.QuotaExceededError{
					Scope:   "sub-admins",
					Current: exceeded.Current,
					Limit:   exceeded.Limit,
				}
			}
			return nil, err
		}
		added, err := s.Tournaments.AddSubAdmin(ctx, tournamentID, userID)
		if err != nil || !added {
			// The insert failed or a concurrent call added the same
			// member; either way this call holds a slot it did not use.
			if relErr := s.Quotas.Release(ctx, tournamentID, QuotaKindSubAdmins, 1); relErr != nil {
				log.Printf("sub-admin add: slot release failed: tournament=%d kind=%s err=%v",
					tournamentID, QuotaKindSubAdmins, relErr)
			}
			if err != nil {
				return nil, err
			}
		}
	}
	return s.Tournaments.ListSubAdmins(ctx, tournamentID)
}
