package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/facility-ops/internal/api/dto"
	"github.com/spec-kit/facility-ops/internal/domain"
	"github.com/spec-kit/facility-ops/internal/repository"
	apperrors "github.com/spec-kit/facility-ops/pkg/util"
)

// TechniciansHandler manages the responder roster.
type TechniciansHandler struct {
	technicians repository.TechnicianRepository
}

// NewTechniciansHandler constructs handler.
func NewTechniciansHandler(technicians repository.TechnicianRepository) *TechniciansHandler {
	return &TechniciansHandler{technicians: technicians}
}

// CreateTechnician POST /technicians.
func (h *TechniciansHandler) CreateTechnician(c *fiber.Ctx) error {
	var req dto.CreateTechnicianRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}

	tech := &domain.Technician{
		Name:     req.Name,
		Email:    req.Email,
		Trade:    req.Trade,
		Building: req.Building,
		OnCall:   req.OnCall,
		Active:   true,
	}
	if tech.Trade == "" {
		tech.Trade = domain.TradeGeneral
	}
	if err := h.technicians.Create(c.UserContext(), tech); err != nil {
		return apperrors.MapError(err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewTechnicianResponse(tech)})
}

// ListTechnicians GET /technicians.
func (h *TechniciansHandler) ListTechnicians(c *fiber.Ctx) error {
	filter := repository.TechnicianFilter{}
	if building := c.Query("building"); building != "" {
		filter.Building = &building
	}
	if trade := c.Query("trade"); trade != "" {
		t := domain.TechnicianTrade(trade)
		filter.Trade = &t
	}
	if onCall := c.Query("on_call"); onCall != "" {
		v := onCall == "true"
		filter.OnCall = &v
	}
	if active := c.Query("active"); active != "" {
		v := active == "true"
		filter.Active = &v
	}

	techs, err := h.technicians.List(c.UserContext(), filter)
	if err != nil {
		return apperrors.MapError(err)
	}
	items := make([]dto.TechnicianResponse, 0, len(techs))
	for i := range techs {
		items = append(items, dto.NewTechnicianResponse(&techs[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}
