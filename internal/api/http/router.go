package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/concierge-portal/internal/api/http/handlers"
	"github.com/spec-kit/concierge-portal/internal/auth"
	"github.com/spec-kit/concierge-portal/internal/config"
	"github.com/spec-kit/concierge-portal/internal/service"
)

// Page is one entry of the portal's static route table.
type Page struct {
	Path      string
	Name      string
	Protected bool
}

// Pages lists every browser-facing page. The auth entry page is handled separately.
var Pages = []Page{
	{Path: auth.PathHome, Name: "home"},
	{Path: auth.PathClientDashboard, Name: "client-dashboard", Protected: true},
	{Path: auth.PathAdminDashboard, Name: "admin-dashboard", Protected: true},
	{Path: auth.PathDevAdminDashboard, Name: "dev-admin-dashboard", Protected: true},
	{Path: auth.PathPersonnelDashboard, Name: "personnel-dashboard", Protected: true},
}

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Portal       *service.Portal
	PortalConfig config.PortalConfig
	Health       *handlers.HealthHandler
	Auth         *handlers.AuthHandler
	Pages        *handlers.PagesHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	visitor := app.Group("", handlers.VisitorMiddleware(cfg.Portal, cfg.PortalConfig))

	for _, page := range Pages {
		if page.Protected {
			visitor.Get(page.Path, cfg.Pages.Protected(page.Name))
			continue
		}
		visitor.Get(page.Path, cfg.Pages.Public(page.Name))
	}
	visitor.Get("/me", cfg.Pages.Me)

	authGroup := visitor.Group(auth.PathAuth)
	authGroup.Get("", cfg.Auth.Entry)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/logout", cfg.Auth.Logout)
	authGroup.Post("/switch-role", cfg.Auth.SwitchRole)
}
