// Package handler exposes HTTP handlers for both authenticated and public endpoints.
// This file defines handlers for the public browsing API. These routes allow
// unauthenticated users to browse tournaments, their price windows and the
// reference catalogs without requiring authentication. Sensitive fields
// (organizer IDs, buyer data) are filtered from responses.

package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tournament-ticketing/internal/model"
	"github.com/iliyamo/tournament-ticketing/internal/repository"
	"github.com/iliyamo/tournament-ticketing/internal/service"
)

// PublicHandler aggregates repositories needed for unauthenticated browsing.
// It produces sanitized responses suitable for public consumption.
type PublicHandler struct {
	Tournaments *repository.TournamentRepo // provides access to tournament data
	Windows     *repository.PriceWindowRepo
	Catalogs    *repository.CatalogRepo
	Prices      *service.PriceResolver // current-price lookups
}

// PublicTournament represents a tournament exposed via the public API.
// It contains only safe fields; remaining capacity is derived so the
// raw sold counter is not exposed for unbounded tournaments.
type PublicTournament struct {
	ID           uint64     `json:"id"`
	Name         string     `json:"name"`
	Description  string     `json:"description,omitempty"`
	CategoryCode string     `json:"category_code"`
	GameTypeCode string     `json:"game_type_code"`
	IsPaid       bool       `json:"is_paid"`
	Remaining    *uint64    `json:"remaining_capacity,omitempty"` // nil = unbounded
	SoldOut      bool       `json:"sold_out"`
	StartsAt     *time.Time `json:"starts_at,omitempty"`
	EndsAt       *time.Time `json:"ends_at,omitempty"`
}

// PublicPriceWindow represents one pricing interval. The interval is
// half-open: a purchase at exactly valid_until falls outside it.
type PublicPriceWindow struct {
	PriceCents uint64    `json:"price_cents"`
	ValidFrom  time.Time `json:"valid_from"`
	ValidUntil time.Time `json:"valid_until"`
}

func toPublicTournament(t *model.Tournament) PublicTournament {
	out := PublicTournament{
		ID:           t.ID,
		Name:         t.Name,
		Description:  t.Description,
		CategoryCode: t.CategoryCode,
		GameTypeCode: t.GameTypeCode,
		IsPaid:       t.IsPaid,
		StartsAt:     t.StartsAt,
		EndsAt:       t.EndsAt,
	}
	if t.CapacityLimit != nil {
		var remaining uint64
		if *t.CapacityLimit > t.TicketsSold {
			remaining = *t.CapacityLimit - t.TicketsSold
		}
		out.Remaining = &remaining
		out.SoldOut = remaining == 0
	}
	return out
}

// ListTournaments returns every tournament for unauthenticated browsing.
// Response JSON contains an "items" array of PublicTournament.
func (h *PublicHandler) ListTournaments(c echo.Context) error {
	list, err := h.Tournaments.List(c.Request().Context(), 0)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]PublicTournament, 0, len(list))
	for i := range list {
		out = append(out, toPublicTournament(&list[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// GetTournament returns one tournament with its current price, when a
// price window covers the request instant.
func (h *PublicHandler) GetTournament(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tournament id"})
	}
	ctx := c.Request().Context()
	t, err := h.Tournaments.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrTournamentNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tournament not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	resp := echo.Map{"tournament": toPublicTournament(t)}
	if w, err := h.Prices.Resolve(ctx, id, time.Now().UTC()); err == nil {
		resp["current_price_cents"] = w.UnitPriceCents
	} else if errors.Is(err, service.ErrNoActiveWindow) {
		resp["on_sale"] = false
	}
	return c.JSON(http.StatusOK, resp)
}

// ListPriceWindows returns the configured pricing schedule of a
// tournament so buyers can see upcoming price changes.
func (h *PublicHandler) ListPriceWindows(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tournament id"})
	}
	ctx := c.Request().Context()
	if _, err := h.Tournaments.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrTournamentNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "tournament not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	windows, err := h.Windows.ListByTournament(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]PublicPriceWindow, 0, len(windows))
	for _, w := range windows {
		out = append(out, PublicPriceWindow{PriceCents: w.UnitPriceCents, ValidFrom: w.ValidFrom, ValidUntil: w.ValidUntil})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// ListCategories returns the category reference catalog.
func (h *PublicHandler) ListCategories(c echo.Context) error {
	return h.listCatalog(c, model.CatalogCategories)
}

// ListGameTypes returns the game type reference catalog.
func (h *PublicHandler) ListGameTypes(c echo.Context) error {
	return h.listCatalog(c, model.CatalogGameTypes)
}

func (h *PublicHandler) listCatalog(c echo.Context, catalog string) error {
	entries, err := h.Catalogs.List(c.Request().Context(), catalog)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	type item struct {
		Code string `json:"code"`
		Name string `json:"name"`
	}
	out := make([]item, 0, len(entries))
	for _, e := range entries {
		out = append(out, item{Code: e.Code, Name: e.Name})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}
