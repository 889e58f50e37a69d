package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/nixolabs/triage-service/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health          *handlers.HealthHandler
	Slack           *handlers.SlackHandler
	Tickets         *handlers.TicketsHandler
	SlackMiddleware fiber.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/slack/events", cfg.SlackMiddleware, cfg.Slack.Events)

	api := app.Group("/api")
	api.Get("/tickets", cfg.Tickets.ListTickets)
	api.Get("/tickets/:id/messages", cfg.Tickets.ListMessages)
	api.Patch("/tickets/:id", cfg.Tickets.UpdateTicket)
	api.Delete("/tickets/:id", cfg.Tickets.DeleteTicket)
}
