package dto

import (
	"github.com/spec-kit/facility-ops/internal/sla"
)

// MatrixTierResponse is one display row of the SLA matrix.
type MatrixTierResponse struct {
	Level             int    `json:"level"`
	Label             string `json:"label"`
	ResponseMinutes   int    `json:"response_minutes"`
	ResolutionMinutes int    `json:"resolution_minutes"`
	ResponseDisplay   string `json:"response_display"`
	ResolutionDisplay string `json:"resolution_display"`
}

// MatrixResponse is the full matrix plus the escalation boundaries derived
// from it.
type MatrixResponse struct {
	Tiers      []MatrixTierResponse `json:"tiers"`
	Boundaries []int                `json:"escalation_boundaries"`
}

// NewMatrixResponse renders the matrix with compact duration strings.
func NewMatrixResponse(matrix *sla.Matrix) MatrixResponse {
	tiers := matrix.Tiers()
	out := MatrixResponse{
		Tiers:      make([]MatrixTierResponse, 0, len(tiers)),
		Boundaries: matrix.EscalationBoundaries(),
	}
	for _, tier := range tiers {
		out.Tiers = append(out.Tiers, MatrixTierResponse{
			Level:             tier.Level,
			Label:             tier.Label(),
			ResponseMinutes:   tier.ResponseMinutes,
			ResolutionMinutes: tier.ResolutionMinutes,
			ResponseDisplay:   sla.FormatMinutes(tier.ResponseMinutes),
			ResolutionDisplay: sla.FormatMinutes(tier.ResolutionMinutes),
		})
	}
	return out
}
