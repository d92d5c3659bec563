package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/spec-kit/bless-tracker/internal/api/http/handlers"
	"github.com/spec-kit/bless-tracker/internal/auth"
	"github.com/spec-kit/bless-tracker/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Residents      *handlers.ResidentsHandler
	Dashboard      *handlers.DashboardHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, cfg.Auth.Me)
	authGroup.Post("/logout", cfg.AuthMiddleware.Handle, cfg.Auth.Logout)

	residents := app.Group("/residents", cfg.AuthMiddleware.Handle)
	residents.Get("/", cfg.Residents.List)
	residents.Post("/", cfg.Residents.Create)
	residents.Get("/:id", cfg.Residents.Get)
	residents.Patch("/:id", cfg.Residents.Update)
	residents.Delete("/:id", cfg.Residents.Delete)
	residents.Post("/:id/interactions", cfg.Residents.LogInteraction)

	app.Get("/dashboard", cfg.AuthMiddleware.Handle, cfg.Dashboard.Dashboard)
	app.Get("/sync/failures", cfg.AuthMiddleware.Handle, cfg.Dashboard.SyncFailures)

	notifications := app.Group("/notifications", cfg.AuthMiddleware.Handle)
	notifications.Get("/", cfg.Dashboard.Notifications)
	notifications.Post("/toggle", cfg.Dashboard.ToggleNotifications)
}
