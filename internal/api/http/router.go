package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/transfer-service/internal/api/http/handlers"
	"github.com/spec-kit/transfer-service/internal/auth"
	"github.com/spec-kit/transfer-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Transfers      *handlers.TransfersHandler
	Stats          *handlers.StatsHandler
	Export         *handlers.ExportHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/auth/login", cfg.Auth.Login)

	protected := app.Group("", cfg.AuthMiddleware.Handle)
	protected.Get("/auth/me", cfg.Auth.Me)
	protected.Post("/auth/password/change", cfg.Auth.ChangePassword)

	protected.Get("/transfers", cfg.Transfers.List)
	protected.Post("/transfers", auth.RequireRole(domain.RoleBranch), cfg.Transfers.Create)
	protected.Post("/transfers/:transferID/pickup", auth.RequireRole(domain.RoleDriver), cfg.Transfers.PickUp)
	protected.Post("/transfers/:transferID/receive", auth.RequireRole(domain.RoleBranch), cfg.Transfers.Receive)

	protected.Get("/stats/overview", cfg.Stats.Overview)
	protected.Get("/stats/branches",
		auth.RequireRole(domain.RoleSupervisor, domain.RoleManager, domain.RoleOwner), cfg.Stats.Branches)
	protected.Get("/alerts",
		auth.RequireRole(domain.RoleSupervisor, domain.RoleManager, domain.RoleOwner), cfg.Stats.Alerts)

	protected.Get("/export/workbook", auth.RequireRole(domain.RoleOwner), cfg.Export.Workbook)
}
