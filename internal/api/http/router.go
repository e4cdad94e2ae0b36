package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/ticket-escalation/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health     *handlers.HealthHandler
	Escalation *handlers.EscalationHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	group := app.Group("/escalation")
	group.Post("/check-now", cfg.Escalation.CheckNow)
	group.Get("/history", cfg.Escalation.ListHistory)
	group.Get("/tickets/:id/history", cfg.Escalation.TicketHistory)
	group.Get("/tickets/:id/sla", cfg.Escalation.TicketSLA)
	group.Post("/tickets/:id/reset", cfg.Escalation.ResetLevel)
	group.Post("/rules/validate", cfg.Escalation.ValidateRule)
}
