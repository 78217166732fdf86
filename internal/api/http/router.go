package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/facility-ops/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health      *handlers.HealthHandler
	Tickets     *handlers.TicketsHandler
	Assets      *handlers.AssetsHandler
	Technicians *handlers.TechniciansHandler
	SLA         *handlers.SLAHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	tickets := app.Group("/tickets")
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Get("/:id/assessment", cfg.Tickets.AssessTicket)
	tickets.Patch("/:id/status", cfg.Tickets.UpdateStatus)
	tickets.Post("/:id/assignment", cfg.Tickets.AssignTicket)

	assets := app.Group("/assets")
	assets.Post("/", cfg.Assets.CreateAsset)
	assets.Get("/", cfg.Assets.ListAssets)
	assets.Get("/:id", cfg.Assets.GetAsset)
	assets.Post("/:id/status", cfg.Assets.ChangeStatus)

	technicians := app.Group("/technicians")
	technicians.Post("/", cfg.Technicians.CreateTechnician)
	technicians.Get("/", cfg.Technicians.ListTechnicians)

	sla := app.Group("/sla")
	sla.Get("/matrix", cfg.SLA.GetMatrix)
	sla.Get("/summary", cfg.SLA.GetSummary)
	sla.Get("/metrics", cfg.SLA.GetMetrics)
}
