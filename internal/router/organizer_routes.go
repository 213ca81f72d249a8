package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tournament-ticketing/internal/handler"    // organizer handlers
	"github.com/iliyamo/tournament-ticketing/internal/middleware" // JWT + role middlewares
	"github.com/iliyamo/tournament-ticketing/internal/model"      // role constants
)

// RegisterOrganizer registers ORGANIZER-scoped endpoints under /v1.
// All routes require a valid JWT and the ORGANIZER role; GLOBAL_ADMIN
// is accepted as well since admins may organize tournaments.
func RegisterOrganizer(e *echo.Echo, o *handler.OrganizerHandler, jwtSecret string) {
	// Attach middlewares at group construction time for clarity.
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleOrganizer, model.RoleGlobalAdmin),
	)

	// ---- Tournaments ----
	g.POST("/tournaments", o.CreateTournament)
	// NOTE: Listing tournaments is handled by the public browse API.  The
	// organizer-scoped list lives at /v1/my-tournaments to avoid route
	// conflicts with the public /v1/tournaments handler.
	g.GET("/my-tournaments", o.ListMyTournaments)
	g.DELETE("/tournaments/:id", o.DeleteTournament)

	// ---- Sub-admins ----
	g.POST("/tournaments/:id/sub-admins", o.AddSubAdmin)
	g.GET("/tournaments/:id/sub-admins", o.ListSubAdmins)

	// ---- Price windows ----
	g.POST("/tournaments/:id/price-windows", o.CreatePriceWindow)

	// ---- Sales ----
	g.GET("/tournaments/:id/sales", o.ListTournamentSales)
}
