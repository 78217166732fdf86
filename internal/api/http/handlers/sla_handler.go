package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/facility-ops/internal/api/dto"
	"github.com/spec-kit/facility-ops/internal/observability"
	"github.com/spec-kit/facility-ops/internal/service"
	"github.com/spec-kit/facility-ops/internal/sla"
)

// SLAHandler exposes the matrix, the dashboard summary and the engine
// counters.
type SLAHandler struct {
	matrix  *sla.Matrix
	tickets *service.TicketService
	metrics *observability.Metrics
}

// NewSLAHandler constructs handler.
func NewSLAHandler(matrix *sla.Matrix, tickets *service.TicketService, metrics *observability.Metrics) *SLAHandler {
	return &SLAHandler{matrix: matrix, tickets: tickets, metrics: metrics}
}

// GetMatrix GET /sla/matrix.
func (h *SLAHandler) GetMatrix(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": dto.NewMatrixResponse(h.matrix)})
}

// GetSummary GET /sla/summary.
func (h *SLAHandler) GetSummary(c *fiber.Ctx) error {
	summary, err := h.tickets.Summary(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": summary})
}

// GetMetrics GET /sla/metrics.
func (h *SLAHandler) GetMetrics(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.metrics.Snapshot()})
}
