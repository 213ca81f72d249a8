package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/tournament-ticketing/internal/handler"    // admin handlers
	"github.com/iliyamo/tournament-ticketing/internal/middleware" // JWT + role middlewares
	"github.com/iliyamo/tournament-ticketing/internal/model"      // role constants
)

// RegisterAdmin registers GLOBAL_ADMIN-only endpoints under /v1/admin.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RoleGlobalAdmin),
	)

	g.GET("/tournaments", a.ListAllTournaments)
	g.GET("/organizers/:id/quota", a.OrganizerQuota)
}
