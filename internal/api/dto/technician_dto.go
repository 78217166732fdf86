package dto

import (
	"time"

	"github.com/spec-kit/facility-ops/internal/domain"
)

// CreateTechnicianRequest payload.
type CreateTechnicianRequest struct {
	Name     string                 `json:"name" validate:"required,max=200"`
	Email    string                 `json:"email" validate:"required,email"`
	Trade    domain.TechnicianTrade `json:"trade" validate:"omitempty,oneof=GENERAL ELECTRICAL HVAC PLUMBING"`
	Building *string                `json:"building" validate:"omitempty,max=100"`
	OnCall   bool                   `json:"on_call"`
}

// TechnicianResponse mirrors one technician record.
type TechnicianResponse struct {
	ID        string                 `json:"id"`
	Name      string                 `json:"name"`
	Email     string                 `json:"email"`
	Trade     domain.TechnicianTrade `json:"trade"`
	Building  *string                `json:"building,omitempty"`
	OnCall    bool                   `json:"on_call"`
	Active    bool                   `json:"active"`
	CreatedAt time.Time              `json:"created_at"`
}

// NewTechnicianResponse maps a technician.
func NewTechnicianResponse(tech *domain.Technician) TechnicianResponse {
	return TechnicianResponse{
		ID:        tech.ID,
		Name:      tech.Name,
		Email:     tech.Email,
		Trade:     tech.Trade,
		Building:  tech.Building,
		OnCall:    tech.OnCall,
		Active:    tech.Active,
		CreatedAt: tech.CreatedAt,
	}
}
