package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/portal-gateway/internal/api/http/handlers"
	"github.com/spec-kit/portal-gateway/internal/auth"
	"github.com/spec-kit/portal-gateway/internal/cache"
	"github.com/spec-kit/portal-gateway/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health   *handlers.HealthHandler
	Auth     *handlers.AuthHandler
	Sessions *handlers.SessionsHandler
	Gate     *auth.Gate
	Dedup    *cache.Dedup
	Metrics  *observability.Metrics
}

// RegisterRoutes wires HTTP routes. The dedup middleware sits after the gate
// so cached responses stay scoped to one principal.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/refresh_token", cfg.Auth.Refresh)

	protected := authGroup.Group("", cfg.Gate.Handle, cache.Middleware(cfg.Dedup, cfg.Metrics))
	protected.Post("/logout", cfg.Auth.Logout)
	protected.Post("/logout_all", cfg.Auth.LogoutAll)
	protected.Get("/validate", cfg.Auth.Validate)
	protected.Get("/me", cfg.Auth.Me)

	sessions := app.Group("/sessions", cfg.Gate.Handle, auth.RequirePermission("system:admin"), cache.Middleware(cfg.Dedup, cfg.Metrics))
	sessions.Get("/stats", cfg.Sessions.Stats)
}
