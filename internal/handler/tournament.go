package handler

import (
	"errors"   // for errors.Is / errors.As comparisons
	"net/http" // HTTP status codes
	"time"     // parsing schedule timestamps

	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/tournament-ticketing/internal/model"      // domain models
	"github.com/iliyamo/tournament-ticketing/internal/repository" // repository layer
	"github.com/iliyamo/tournament-ticketing/internal/service"    // admission-control services
)

// OrganizerHandler groups the services and repositories organizers use
// to create tournaments, manage their sub-admin set, configure price
// windows and inspect sales.  All methods assume JWT authentication
// and role validation have already been performed by middleware.
type OrganizerHandler struct {
	Tournaments *service.TournamentService // creation under quota, sub-admin set
	Windows     *repository.PriceWindowRepo
	Sales       *repository.SaleRepo
	Repo        *repository.TournamentRepo // direct reads and owner-scoped deletes
}

// NewOrganizerHandler constructs an OrganizerHandler.  All dependencies
// must be non-nil.
func NewOrganizerHandler(svc *service.TournamentService, windows *repository.PriceWindowRepo, sales *repository.SaleRepo, repo *repository.TournamentRepo) *OrganizerHandler {
	if svc == nil || windows == nil || sales == nil || repo == nil {
		panic("nil dependency passed to NewOrganizerHandler")
	}
	return &OrganizerHandler{Tournaments: svc, Windows: windows, Sales: sales, Repo: repo}
}

// ----- DTOs -----

type createTournamentReq struct {
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	CategoryCode  string  `json:"category_code"`
	GameTypeCode  string  `json:"game_type_code"`
	IsPaid        bool    `json:"is_paid"`
	CapacityLimit *uint64 `json:"capacity_limit"` // omit or null for unbounded
	StartsAt      string  `json:"starts_at"`      // RFC3339, optional
	EndsAt        string  `json:"ends_at"`        // RFC3339, optional
}

type createWindowReq struct {
	PriceCents uint64 `json:"price_cents"`
	ValidFrom  string `json:"valid_from"`  // RFC3339
	ValidUntil string `json:"valid_until"` // RFC3339, exclusive
}

type tournamentResp struct {
	ID            uint64     `json:"id"`
	Name          string     `json:"name"`
	Description   string     `json:"description,omitempty"`
	CategoryCode  string     `json:"category_code"`
	GameTypeCode  string     `json:"game_type_code"`
	IsPaid        bool       `json:"is_paid"`
	CapacityLimit *uint64    `json:"capacity_limit,omitempty"`
	TicketsSold   uint64     `json:"tickets_sold"`
	StartsAt      *time.Time `json:"starts_at,omitempty"`
	EndsAt        *time.Time `json:"ends_at,omitempty"`
}

func toTournamentResp(t *model.Tournament) tournamentResp {
	return tournamentResp{
		ID:            t.ID,
		Name:          t.Name,
		Description:   t.Description,
		CategoryCode:  t.CategoryCode,
		GameTypeCode:  t.GameTypeCode,
		IsPaid:        t.IsPaid,
		CapacityLimit: t.CapacityLimit,
		TicketsSold:   t.TicketsSold,
		StartsAt:      t.StartsAt,
		EndsAt:        t.EndsAt,
	}
}

// parseOptionalTime parses an optional RFC3339 timestamp.  An empty
// string yields nil; a malformed one yields ok=false.
func parseOptionalTime(s string) (*time.Time, bool) {
	if s == "" {
		return nil, true
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, false
	}
	u := t.UTC()
	return &u, true
}

// CreateTournament handles POST /v1/tournaments.  Free tournaments
// consume one unit of the caller's free-tournament quota; paid ones do
// not.  A 403 with the quota state is returned when the quota is
// exhausted.
func (h *OrganizerHandler) CreateTournament(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createTournamentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	startsAt, ok := parseOptionalTime(req.StartsAt)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "starts_at must be RFC3339"})
	}
	endsAt, ok := parseOptionalTime(req.EndsAt)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ends_at must be RFC3339"})
	}

	t, err := h.Tournaments.Create(c.Request().Context(), service.CreateTournamentInput{
		Name:          req.Name,
		Description:   req.Description,
		OrganizerID:   userID,
		CategoryCode:  req.CategoryCode,
		GameTypeCode:  req.GameTypeCode,
		IsPaid:        req.IsPaid,
		CapacityLimit: req.CapacityLimit,
		StartsAt:      startsAt,
		EndsAt:        endsAt,
	})
	if err != nil {
		var quota *repository.QuotaExceededError
		switch {
		case errors.Is(err, service.ErrValidation):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		case errors.Is(err, service.ErrReferenceNotFound):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		case errors.As(err, &quota):
			return c.JSON(http.StatusForbidden, echo.Map{
				"error":   "free tournament quota exhausted",
				"current": quota.Current,
				"limit":   quota.Limit,
			})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create tournament failed"})
	}
	return c.JSON(http.StatusCreated, toTournamentResp(t))
}

// AddSubAdmin handles POST /v1/tournaments/:id/sub-admins.  Only the
// tournament's organizer may call it.  Adding a user already in the set
// succeeds without growing it; a full set is rejected with 409.
func (h *OrganizerHandler) AddSubAdmin(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	tournamentID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tournament id"})
	}
	var body struct {
		UserID uint64 `json:"user_id"`
	}
	if err := c.Bind(&body); err != nil || body.UserID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id is required"})
	}

	members, err := h.Tournaments.AddSubAdmin(c.Request().Context(), tournamentID, userID, body.UserID)
	if err != nil {
		var quota *repository.QuotaExceededError
		switch {
		case errors.Is(err, service.ErrValidation):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		case errors.Is(err, repository.ErrTournamentNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tournament not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "only the organizer may add sub-admins"})
		case errors.As(err, &quota):
			return c.JSON(http.StatusConflict, echo.Map{
				"error":   "sub-admin limit reached",
				"current": quota.Current,
				"limit":   quota.Limit,
			})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "add sub-admin failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"tournament_id": tournamentID, "sub_admins": members})
}

// ListSubAdmins handles GET /v1/tournaments/:id/sub-admins for the
// tournament's organizer.
func (h *OrganizerHandler) ListSubAdmins(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	tournamentID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tournament id"})
	}
	ctx := c.Request().Context()
	t, err := h.Repo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repository.ErrTournamentNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tournament not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if t.OrganizerID != userID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	members, err := h.Repo.ListSubAdmins(ctx, tournamentID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"tournament_id": tournamentID, "sub_admins": members})
}

// CreatePriceWindow handles POST /v1/tournaments/:id/price-windows.
// Windows are half-open [valid_from, valid_until) and may overlap;
// resolution at purchase time picks the earliest valid_from.
func (h *OrganizerHandler) CreatePriceWindow(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	tournamentID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tournament id"})
	}
	var req createWindowReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	from, err := time.Parse(time.RFC3339, req.ValidFrom)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "valid_from must be RFC3339"})
	}
	until, err := time.Parse(time.RFC3339, req.ValidUntil)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "valid_until must be RFC3339"})
	}
	if !until.After(from) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "valid_until must be after valid_from"})
	}

	ctx := c.Request().Context()
	t, err := h.Repo.GetByID(ctx, tournamentID)
	if err != nil {
		if errors.Is(err, repository.ErrTournamentNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tournament not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if t.OrganizerID != userID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "only the organizer may configure prices"})
	}

	w := &model.PriceWindow{
		TournamentID:   tournamentID,
		UnitPriceCents: req.PriceCents,
		ValidFrom:      from.UTC(),
		ValidUntil:     until.UTC(),
	}
	if err := h.Windows.Create(ctx, w); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create price window failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"id":          w.ID,
		"price_cents": w.UnitPriceCents,
		"valid_from":  w.ValidFrom,
		"valid_until": w.ValidUntil,
	})
}

// ListTournamentSales handles GET /v1/tournaments/:id/sales.  Only the
// organizer of the tournament sees its sales.
func (h *OrganizerHandler) ListTournamentSales(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	tournamentID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tournament id"})
	}
	sales, err := h.Sales.ListByTournamentForOrganizer(c.Request().Context(), tournamentID, userID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrTournamentNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tournament not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": toSaleResps(sales)})
}

// ListMyTournaments handles GET /v1/my-tournaments, returning the
// tournaments the caller organizes.
func (h *OrganizerHandler) ListMyTournaments(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	list, err := h.Repo.List(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]tournamentResp, 0, len(list))
	for i := range list {
		out = append(out, toTournamentResp(&list[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// DeleteTournament handles DELETE /v1/tournaments/:id.  A tournament
// with recorded sales cannot be deleted.
func (h *OrganizerHandler) DeleteTournament(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	tournamentID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tournament id"})
	}
	if err := h.Repo.Delete(c.Request().Context(), tournamentID, userID); err != nil {
		switch {
		case errors.Is(err, repository.ErrTournamentNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tournament not found"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "tournament has recorded sales"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
	}
	return c.NoContent(http.StatusNoContent)
}
