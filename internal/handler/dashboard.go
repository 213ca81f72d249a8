package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tournament-ticketing/internal/repository"
	"github.com/iliyamo/tournament-ticketing/internal/service"
)

// AdminHandler serves the GLOBAL_ADMIN dashboard. Admins see every
// tournament with its organizer and counters, unlike the sanitized
// public listing.
type AdminHandler struct {
	Tournaments *repository.TournamentRepo
	Quotas      *repository.QuotaRepo
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(tournaments *repository.TournamentRepo, quotas *repository.QuotaRepo) *AdminHandler {
	if tournaments == nil || quotas == nil {
		panic("nil dependency passed to NewAdminHandler")
	}
	return &AdminHandler{Tournaments: tournaments, Quotas: quotas}
}

// ListAllTournaments handles GET /v1/admin/tournaments.  It returns
// every tournament including organizer IDs and sold counters along with
// aggregate totals.
func (h *AdminHandler) ListAllTournaments(c echo.Context) error {
	list, err := h.Tournaments.List(c.Request().Context(), 0)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	type item struct {
		tournamentResp
		OrganizerID uint64 `json:"organizer_id"`
	}
	out := make([]item, 0, len(list))
	var totalSold uint64
	for i := range list {
		t := &list[i]
		out = append(out, item{tournamentResp: toTournamentResp(t), OrganizerID: t.OrganizerID})
		totalSold += t.TicketsSold
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items":              out,
		"total_tournaments":  len(out),
		"total_tickets_sold": totalSold,
	})
}

// OrganizerQuota handles GET /v1/admin/organizers/:id/quota, showing an
// organizer's consumed free-tournament quota.
func (h *AdminHandler) OrganizerQuota(c echo.Context) error {
	organizerID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid organizer id"})
	}
	current, err := h.Quotas.Current(c.Request().Context(), organizerID, service.QuotaKindFreeTournaments)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"organizer_id": organizerID,
		"kind":         service.QuotaKindFreeTournaments,
		"consumed":     current,
	})
}
