package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tournament-ticketing/internal/handler" // public browse handlers
)

// RegisterPublic registers unauthenticated browse endpoints on the
// provided Echo instance.  The provided PublicHandler exposes handlers
// that return sanitized data for tournaments, price schedules and
// reference catalogs.  These routes carry no JWT or role middleware.
//
// The response cache is applied here and nowhere else: every other
// route group serves per-user data that must never be replayed across
// callers.  A nil cache leaves the routes uncached.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, cache echo.MiddlewareFunc) {
	g := e.Group("/v1")
	if cache != nil {
		g.Use(cache)
	}
	// Expose list of all tournaments
	g.GET("/tournaments", p.ListTournaments)
	// Tournament details by id, including the currently applicable price
	g.GET("/tournaments/:id", p.GetTournament)
	// Publicly view a tournament's pricing schedule so guests can see
	// upcoming price changes before registering
	g.GET("/tournaments/:id/price-windows", p.ListPriceWindows)
	// Reference catalogs used when creating tournaments
	g.GET("/catalogs/categories", p.ListCategories)
	g.GET("/catalogs/game-types", p.ListGameTypes)
}
