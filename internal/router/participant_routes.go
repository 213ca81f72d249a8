package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tournament-ticketing/internal/handler"    // participant handlers
	"github.com/iliyamo/tournament-ticketing/internal/middleware" // JWT + role middlewares
	"github.com/iliyamo/tournament-ticketing/internal/model"      // role constants
)

// RegisterParticipant registers ticket purchase and lookup endpoints
// under /v1.  Every authenticated role may buy tickets.
func RegisterParticipant(e *echo.Echo, p *handler.ParticipantHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleParticipant, model.RoleOrganizer, model.RoleGlobalAdmin),
	)

	// ---- Purchases ----
	g.POST("/tournaments/:id/tickets", p.Purchase)

	// ---- Tickets ----
	g.GET("/my-tickets", p.MyTickets)
	g.GET("/tickets/:code", p.TicketByAccessCode)
}
