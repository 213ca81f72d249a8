package handler

import (
	"context"  // detached context for best-effort event publishing
	"errors"   // for errors.Is / errors.As comparisons
	"log"      // best-effort publish failures are logged, not surfaced
	"net/http" // HTTP status codes
	"strings"  // access code normalization
	"time"     // sale timestamps in responses

	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/tournament-ticketing/internal/model"      // domain models
	"github.com/iliyamo/tournament-ticketing/internal/queue"      // sale.completed events
	"github.com/iliyamo/tournament-ticketing/internal/repository" // repository layer
	"github.com/iliyamo/tournament-ticketing/internal/service"    // reservation core
)

// ParticipantHandler serves ticket purchases and ticket lookups for
// authenticated buyers.  The purchase path delegates admission control
// to the reservation service; this handler only translates its error
// taxonomy into HTTP statuses and emits the sale.completed event.
type ParticipantHandler struct {
	Reservations *service.ReservationService
	Sales        *repository.SaleRepo
	Repo         *repository.TournamentRepo // tournament names for events
	Events       *queue.Publisher           // nil-safe, no-op without a broker
	AccessBase   string                     // base URL for access links
}

// NewParticipantHandler constructs a ParticipantHandler.
func NewParticipantHandler(reservations *service.ReservationService, sales *repository.SaleRepo, repo *repository.TournamentRepo, events *queue.Publisher, accessBase string) *ParticipantHandler {
	if reservations == nil || sales == nil || repo == nil {
		panic("nil dependency passed to NewParticipantHandler")
	}
	return &ParticipantHandler{Reservations: reservations, Sales: sales, Repo: repo, Events: events, AccessBase: accessBase}
}

type purchaseReq struct {
	Quantity uint64 `json:"quantity"`
}

type saleResp struct {
	ID             uint64    `json:"id"`
	TournamentID   uint64    `json:"tournament_id"`
	Quantity       uint64    `json:"quantity"`
	UnitPriceCents uint64    `json:"unit_price_cents"`
	SubtotalCents  uint64    `json:"subtotal_cents"`
	FeeCents       uint64    `json:"fee_cents"`
	TotalCents     uint64    `json:"total_cents"`
	AccessCode     string    `json:"access_code"`
	CreatedAt      time.Time `json:"created_at"`
}

func toSaleResp(s *model.Sale) saleResp {
	return saleResp{
		ID:             s.ID,
		TournamentID:   s.TournamentID,
		Quantity:       s.Quantity,
		UnitPriceCents: s.UnitPriceCents,
		SubtotalCents:  s.SubtotalCents,
		FeeCents:       s.FeeCents,
		TotalCents:     s.TotalCents,
		AccessCode:     s.AccessCode,
		CreatedAt:      s.CreatedAt,
	}
}

func toSaleResps(sales []model.Sale) []saleResp {
	out := make([]saleResp, 0, len(sales))
	for i := range sales {
		out = append(out, toSaleResp(&sales[i]))
	}
	return out
}

// Purchase handles POST /v1/tournaments/:id/tickets.  Admission is
// all-or-nothing for the requested quantity: either every ticket fits
// under the capacity limit or the whole request is rejected with 409.
func (h *ParticipantHandler) Purchase(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	tournamentID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid tournament id"})
	}
	var req purchaseReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	ctx := c.Request().Context()
	sale, err := h.Reservations.Reserve(ctx, service.ReserveInput{
		TournamentID: tournamentID,
		BuyerID:      userID,
		Quantity:     req.Quantity,
	})
	if err != nil {
		status, body := purchaseFailure(err)
		return c.JSON(status, body)
	}

	h.publishCompleted(sale)

	resp := toSaleResp(sale)
	return c.JSON(http.StatusCreated, echo.Map{
		"sale":       resp,
		"access_url": h.accessURL(sale.AccessCode),
	})
}

// purchaseFailure maps a reservation error to its HTTP status and body.
// Transient storage failures are 503 so clients can retry with backoff;
// everything unclassified stays a terminal 500.
func purchaseFailure(err error) (int, echo.Map) {
	var capacity *repository.CapacityExceededError
	var partial *service.PartialCommitError
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest, echo.Map{"error": err.Error()}
	case errors.Is(err, repository.ErrTournamentNotFound):
		return http.StatusNotFound, echo.Map{"error": "tournament not found"}
	case errors.Is(err, service.ErrNoActiveWindow):
		return http.StatusConflict, echo.Map{"error": "tickets are not on sale right now"}
	case errors.As(err, &capacity):
		return http.StatusConflict, echo.Map{
			"error":        "not enough capacity",
			"tickets_sold": capacity.Current,
			"capacity":     capacity.Limit,
		}
	case errors.As(err, &partial):
		// Capacity was consumed but neither the sale nor the
		// compensating release landed.  The buyer got nothing.
		log.Printf("purchase: partial commit: %v", partial)
		return http.StatusInternalServerError, echo.Map{"error": "purchase failed"}
	case errors.Is(err, repository.ErrStorageUnavailable):
		return http.StatusServiceUnavailable, echo.Map{"error": "temporarily unavailable, retry shortly"}
	}
	return http.StatusInternalServerError, echo.Map{"error": "purchase failed"}
}

// MyTickets handles GET /v1/my-tickets, listing the caller's sales
// newest first.
func (h *ParticipantHandler) MyTickets(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	sales, err := h.Sales.ListByBuyer(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": toSaleResps(sales)})
}

// TicketByAccessCode handles GET /v1/tickets/:code.  The caller must be
// the buyer of the sale the code belongs to.
func (h *ParticipantHandler) TicketByAccessCode(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	code := strings.ToLower(strings.TrimSpace(c.Param("code")))
	if code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "access code required"})
	}
	sale, err := h.Sales.GetByAccessCode(c.Request().Context(), code)
	if err != nil {
		if errors.Is(err, repository.ErrSaleNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if sale.BuyerID != userID {
		// The tournament's organizer may look up codes presented at the
		// gate; everyone else sees not-found so codes cannot be enumerated.
		t, err := h.Repo.GetByID(c.Request().Context(), sale.TournamentID)
		if err != nil || t.OrganizerID != userID {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "ticket not found"})
		}
	}
	return c.JSON(http.StatusOK, toSaleResp(sale))
}

func (h *ParticipantHandler) accessURL(code string) string {
	base := strings.TrimRight(h.AccessBase, "/")
	if base == "" {
		return code
	}
	return base + "/" + code
}

// publishCompleted emits the sale.completed event.  Publishing is best
// effort; the sale is already durable and a broker outage must not fail
// the purchase.
func (h *ParticipantHandler) publishCompleted(sale *model.Sale) {
	if h.Events == nil {
		return
	}
	name := ""
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if t, err := h.Repo.GetByID(ctx, sale.TournamentID); err == nil {
		name = t.Name
	}
	event := queue.SaleCompletedEvent{
		SaleID:         sale.ID,
		TournamentID:   sale.TournamentID,
		TournamentName: name,
		BuyerID:        sale.BuyerID,
		Quantity:       sale.Quantity,
		UnitPriceCents: sale.UnitPriceCents,
		TotalCents:     sale.TotalCents,
		FeeCents:       sale.FeeCents,
		AccessCode:     sale.AccessCode,
		AccessURL:      h.accessURL(sale.AccessCode),
		CompletedAt:    sale.CreatedAt.UTC().Format(time.RFC3339),
	}
	if err := h.Events.PublishSaleCompleted(ctx, event); err != nil {
		log.Printf("purchase: publish sale.completed failed: sale=%d err=%v", sale.ID, err)
	}
}
