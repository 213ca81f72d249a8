package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/iliyamo/tournament-ticketing/internal/model"
	"github.com/iliyamo/tournament-ticketing/internal/repository"
)

type fakeRoles map[uint64]string

func (f fakeRoles) RoleOf(_ context.Context, id uint64) (string, error) {
	if r, ok := f[id]; ok {
		return r, nil
	}
	return model.RoleParticipant, nil
}

type fakeCatalogs map[string]bool

func (f fakeCatalogs) Exists(_ context.Context, catalog, code string) (bool, error) {
	return f[catalog+"/"+code], nil
}

// fakeQuotas mirrors the conditional increment of the quota ledger.
type fakeQuotas struct {
	mu       sync.Mutex
	consumed map[string]uint64
}

func newFakeQuotas() *fakeQuotas { return &fakeQuotas{consumed: map[string]uint64{}} }

func quotaKey(subject uint64, kind string) string {
	return fmt.Sprintf("%s/%d", kind, subject)
}

func (f *fakeQuotas) TryConsume(_ context.Context, subject uint64, kind string, amount, limit uint64) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := quotaKey(subject, kind)
	cur := f.consumed[k]
	if cur+amount > limit {
		return 0, &repository.QuotaExceededError{Scope: kind, Current: cur, Limit: limit}
	}
	f.consumed[k] = cur + amount
	return cur + amount, nil
}

func (f *fakeQuotas) Release(_ context.Context, subject uint64, kind string, amount uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := quotaKey(subject, kind)
	if amount > f.consumed[k] {
		f.consumed[k] = 0
		return nil
	}
	f.consumed[k] -= amount
	return nil
}

// fakeTournaments stores tournaments and their sub-admin sets with the
// same insert-if-absent semantics as the MySQL repository. The size
// bound is not enforced here; it comes from the quota ledger.
type fakeTournaments struct {
	mu          sync.Mutex
	nextID      uint64
	tournaments map[uint64]*model.Tournament
	subAdmins   map[uint64][]uint64
	createErr   error
}

func newFakeTournaments() *fakeTournaments {
	return &fakeTournaments{nextID: 1, tournaments: map[uint64]*model.Tournament{}, subAdmins: map[uint64][]uint64{}}
}

func (f *fakeTournaments) Create(_ context.Context, t *model.Tournament) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	t.ID = f.nextID
	f.nextID++
	cp := *t
	f.tournaments[t.ID] = &cp
	return nil
}

func (f *fakeTournaments) GetByID(_ context.Context, id uint64) (*model.Tournament, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tournaments[id]
	if !ok {
		return nil, repository.ErrTournamentNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTournaments) AddSubAdmin(_ context.Context, tournamentID, userID uint64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.subAdmins[tournamentID] {
		if m == userID {
			return false, nil
		}
	}
	f.subAdmins[tournamentID] = append(f.subAdmins[tournamentID], userID)
	return true, nil
}

func (f *fakeTournaments) IsSubAdmin(_ context.Context, tournamentID, userID uint64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.subAdmins[tournamentID] {
		if m == userID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeTournaments) ListSubAdmins(_ context.Context, tournamentID uint64) ([]uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uint64(nil), f.subAdmins[tournamentID]...), nil
}

func testPolicy() QuotaPolicy {
	return QuotaPolicy{
		FreeTournamentLimits: map[string]uint64{
			model.RoleOrganizer:   2,
			model.RoleGlobalAdmin: 5,
		},
		MaxSubAdmins: 2,
	}
}

func newTestTournamentService(roles fakeRoles, store *fakeTournaments, quotas *fakeQuotas) *TournamentService {
	catalogs := fakeCatalogs{
		"categories/esports": true,
		"game_types/moba":    true,
	}
	return NewTournamentService(roles, catalogs, quotas, store, testPolicy())
}

func freeInput(organizer uint64) CreateTournamentInput {
	return CreateTournamentInput{
		Name:         "Summer Cup",
		OrganizerID:  organizer,
		CategoryCode: "esports",
		GameTypeCode: "moba",
	}
}

func TestCreateFreeTournamentQuota(t *testing.T) {
	store := newFakeTournaments()
	quotas := newFakeQuotas()
	svc := newTestTournamentService(fakeRoles{1: model.RoleOrganizer}, store, quotas)
	ctx := context.Background()

	// The organizer limit is 2: two frees succeed, the third rejects.
	for i := 0; i < 2; i++ {
		if _, err := svc.Create(ctx, freeInput(1)); err != nil {
			t.Fatalf("free create #%d: %v", i+1, err)
		}
	}
	_, err := svc.Create(ctx, freeInput(1))
	var exceeded *repository.QuotaExceededError
	if !errors.As(err, &exceeded) {
		t.Fatalf("third free create: got %v, want QuotaExceededError", err)
	}
	if exceeded.Current != 2 || exceeded.Limit != 2 {
		t.Fatalf("quota state = %d/%d, want 2/2", exceeded.Current, exceeded.Limit)
	}
	if len(store.tournaments) != 2 {
		t.Fatalf("stored %d tournaments, want 2", len(store.tournaments))
	}
}

func TestCreateGlobalAdminHasHigherLimit(t *testing.T) {
	store := newFakeTournaments()
	svc := newTestTournamentService(fakeRoles{9: model.RoleGlobalAdmin}, store, newFakeQuotas())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := svc.Create(ctx, freeInput(9)); err != nil {
			t.Fatalf("free create #%d: %v", i+1, err)
		}
	}
	var exceeded *repository.QuotaExceededError
	if _, err := svc.Create(ctx, freeInput(9)); !errors.As(err, &exceeded) {
		t.Fatalf("sixth free create: got %v, want QuotaExceededError", err)
	}
}

func TestCreatePaidBypassesQuota(t *testing.T) {
	store := newFakeTournaments()
	quotas := newFakeQuotas()
	svc := newTestTournamentService(fakeRoles{1: model.RoleOrganizer}, store, quotas)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		in := freeInput(1)
		in.IsPaid = true
		if _, err := svc.Create(ctx, in); err != nil {
			t.Fatalf("paid create #%d: %v", i+1, err)
		}
	}
	if len(quotas.consumed) != 0 {
		t.Fatalf("paid creates touched the quota ledger: %v", quotas.consumed)
	}
}

func TestCreateRejectsUnknownCatalogCodes(t *testing.T) {
	svc := newTestTournamentService(fakeRoles{1: model.RoleOrganizer}, newFakeTournaments(), newFakeQuotas())
	in := freeInput(1)
	in.CategoryCode = "cooking"
	if _, err := svc.Create(context.Background(), in); !errors.Is(err, ErrReferenceNotFound) {
		t.Fatalf("unknown category: got %v, want ErrReferenceNotFound", err)
	}
	in = freeInput(1)
	in.GameTypeCode = "chess"
	if _, err := svc.Create(context.Background(), in); !errors.Is(err, ErrReferenceNotFound) {
		t.Fatalf("unknown game type: got %v, want ErrReferenceNotFound", err)
	}
}

func TestCreateReleasesQuotaWhenInsertFails(t *testing.T) {
	store := newFakeTournaments()
	store.createErr = errors.New("insert failed")
	quotas := newFakeQuotas()
	svc := newTestTournamentService(fakeRoles{1: model.RoleOrganizer}, store, quotas)

	if _, err := svc.Create(context.Background(), freeInput(1)); err == nil {
		t.Fatal("expected create to fail")
	}
	if got := quotas.consumed[quotaKey(1, QuotaKindFreeTournaments)]; got != 0 {
		t.Fatalf("quota left consumed after failed insert: %d", got)
	}
}

func TestCreateValidatesInput(t *testing.T) {
	svc := newTestTournamentService(fakeRoles{1: model.RoleOrganizer}, newFakeTournaments(), newFakeQuotas())
	ctx := context.Background()

	in := freeInput(1)
	in.Name = "   "
	if _, err := svc.Create(ctx, in); !errors.Is(err, ErrValidation) {
		t.Fatalf("blank name: got %v, want ErrValidation", err)
	}
	in = freeInput(1)
	zero := uint64(0)
	in.CapacityLimit = &zero
	if _, err := svc.Create(ctx, in); !errors.Is(err, ErrValidation) {
		t.Fatalf("zero capacity: got %v, want ErrValidation", err)
	}
}

func TestAddSubAdminBoundedSet(t *testing.T) {
	store := newFakeTournaments()
	quotas := newFakeQuotas()
	svc := newTestTournamentService(fakeRoles{1: model.RoleOrganizer}, store, quotas)
	ctx := context.Background()

	created, err := svc.Create(ctx, freeInput(1))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.AddSubAdmin(ctx, created.ID, 1, 10); err != nil {
		t.Fatalf("first sub-admin: %v", err)
	}
	if _, err := svc.AddSubAdmin(ctx, created.ID, 1, 11); err != nil {
		t.Fatalf("second sub-admin: %v", err)
	}

	// The set is full at 2; a third distinct user is rejected.
	_, err = svc.AddSubAdmin(ctx, created.ID, 1, 12)
	var exceeded *repository.QuotaExceededError
	if !errors.As(err, &exceeded) {
		t.Fatalf("third sub-admin: got %v, want QuotaExceededError", err)
	}
	if exceeded.Current != 2 || exceeded.Limit != 2 {
		t.Fatalf("set state = %d/%d, want 2/2", exceeded.Current, exceeded.Limit)
	}

	// Re-adding a present member is an idempotent success and does not
	// grow the set or touch the ledger.
	members, err := svc.AddSubAdmin(ctx, created.ID, 1, 11)
	if err != nil {
		t.Fatalf("re-add: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("set grew on re-add: %v", members)
	}
	if got := quotas.consumed[quotaKey(created.ID, QuotaKindSubAdmins)]; got != 2 {
		t.Fatalf("ledger = %d after re-add, want 2", got)
	}
}

func TestAddSubAdminBoundHoldsUnderConcurrency(t *testing.T) {
	store := newFakeTournaments()
	quotas := newFakeQuotas()
	svc := newTestTournamentService(fakeRoles{1: model.RoleOrganizer}, store, quotas)
	ctx := context.Background()

	created, err := svc.Create(ctx, freeInput(1))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Each slot is claimed through the ledger's conditional increment,
	// so concurrent adds of distinct users can never jointly exceed the
	// bound the way a racing membership count could.
	const callers = 16
	var wg sync.WaitGroup
	var admitted atomic.Uint64
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(user uint64) {
			defer wg.Done()
			if _, err := svc.AddSubAdmin(ctx, created.ID, 1, user); err == nil {
				admitted.Add(1)
			}
		}(uint64(100 + i))
	}
	wg.Wait()

	if got := admitted.Load(); got != 2 {
		t.Fatalf("admitted %d adds, want 2", got)
	}
	members, _ := store.ListSubAdmins(ctx, created.ID)
	if len(members) != 2 {
		t.Fatalf("set holds %d members, want 2", len(members))
	}
	if got := quotas.consumed[quotaKey(created.ID, QuotaKindSubAdmins)]; got != 2 {
		t.Fatalf("ledger = %d, want 2", got)
	}
}

func TestAddSubAdminDuplicateRaceReleasesSlot(t *testing.T) {
	store := newFakeTournaments()
	quotas := newFakeQuotas()
	svc := newTestTournamentService(fakeRoles{1: model.RoleOrganizer}, store, quotas)
	ctx := context.Background()

	created, err := svc.Create(ctx, freeInput(1))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Concurrent adds of the same user: only one insert lands, and the
	// loser gives its slot back so a later distinct user still fits.
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.AddSubAdmin(ctx, created.ID, 1, 10); err != nil {
				t.Errorf("same-user add: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := quotas.consumed[quotaKey(created.ID, QuotaKindSubAdmins)]; got != 1 {
		t.Fatalf("ledger = %d after duplicate race, want 1", got)
	}
	if _, err := svc.AddSubAdmin(ctx, created.ID, 1, 11); err != nil {
		t.Fatalf("second distinct user: %v", err)
	}
	members, _ := store.ListSubAdmins(ctx, created.ID)
	if len(members) != 2 {
		t.Fatalf("set holds %v, want two members", members)
	}
}

func TestAddSubAdminAuthorization(t *testing.T) {
	store := newFakeTournaments()
	svc := newTestTournamentService(fakeRoles{1: model.RoleOrganizer}, store, newFakeQuotas())
	ctx := context.Background()

	created, err := svc.Create(ctx, freeInput(1))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.AddSubAdmin(ctx, created.ID, 2, 10); !errors.Is(err, repository.ErrForbidden) {
		t.Fatalf("non-organizer: got %v, want ErrForbidden", err)
	}
	if _, err := svc.AddSubAdmin(ctx, created.ID, 1, 1); !errors.Is(err, ErrValidation) {
		t.Fatalf("organizer as own sub-admin: got %v, want ErrValidation", err)
	}
	if _, err := svc.AddSubAdmin(ctx, 999, 1, 10); !errors.Is(err, repository.ErrTournamentNotFound) {
		t.Fatalf("missing tournament: got %v, want ErrTournamentNotFound", err)
	}
}
