package dto

import (
	"time"

	"github.com/spec-kit/facility-ops/internal/domain"
	"github.com/spec-kit/facility-ops/internal/sla"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string                `json:"title" validate:"required,min=3,max=200"`
	Description string                `json:"description" validate:"max=4000"`
	Priority    domain.TicketPriority `json:"priority" validate:"omitempty,oneof=P1 P2 P3 P4"`
	Building    string                `json:"building" validate:"required,max=100"`
	Location    string                `json:"location" validate:"max=200"`
	AssetID     *string               `json:"asset_id" validate:"omitempty,uuid"`
}

// UpdateTicketStatusRequest payload.
type UpdateTicketStatusRequest struct {
	Status  domain.TicketStatus `json:"status" validate:"required,oneof=OPEN IN_PROGRESS ON_HOLD RESOLVED CLOSED LAPSED"`
	Comment string              `json:"comment" validate:"max=1000"`
}

// AssignTicketRequest payload. An empty technician_id requests auto routing.
type AssignTicketRequest struct {
	TechnicianID string `json:"technician_id" validate:"omitempty,uuid"`
}

// AssessmentResponse is the derived SLA standing rendered for the console.
type AssessmentResponse struct {
	ElapsedMinutes     int     `json:"elapsed_minutes"`
	ElapsedDisplay     string  `json:"elapsed_display"`
	Tier               int     `json:"tier"`
	TierLabel          string  `json:"tier_label"`
	ResponseBreached   bool    `json:"response_breached"`
	ResolutionBreached bool    `json:"resolution_breached"`
	Classification     string  `json:"classification"`
	ProgressPercent    float64 `json:"progress_percent"`
	MinutesToNextTier  int     `json:"minutes_to_next_tier"`
	NextTierDisplay    string  `json:"next_tier_display"`
}

// TicketResponse pairs the ticket with its assessment.
type TicketResponse struct {
	ID            string                `json:"id"`
	ReferenceCode string                `json:"reference_code"`
	Title         string                `json:"title"`
	Description   string                `json:"description,omitempty"`
	Status        domain.TicketStatus   `json:"status"`
	Priority      domain.TicketPriority `json:"priority"`
	CurrentTier   int                   `json:"current_tier"`
	TierEnteredAt time.Time             `json:"tier_entered_at"`
	Building      string                `json:"building"`
	Location      string                `json:"location,omitempty"`
	AssetID       *string               `json:"asset_id,omitempty"`
	AssigneeID    *string               `json:"assignee_id,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
	ResolvedAt    *time.Time            `json:"resolved_at,omitempty"`
	Assessment    *AssessmentResponse   `json:"assessment,omitempty"`
}

// TicketHistoryResponse is one audit entry.
type TicketHistoryResponse struct {
	ID            string            `json:"id"`
	ChangeType    domain.TicketChangeType `json:"change_type"`
	ChangedByKind domain.ActorKind  `json:"changed_by_kind"`
	ChangedByID   *string           `json:"changed_by_id,omitempty"`
	OldValue      map[string]any    `json:"old_value,omitempty"`
	NewValue      map[string]any    `json:"new_value,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}

// TicketDetailResponse bundles ticket, assessment and audit trail.
type TicketDetailResponse struct {
	TicketResponse
	History []TicketHistoryResponse `json:"history"`
}

// NewAssessmentResponse renders an assessment with display strings.
func NewAssessmentResponse(a sla.Assessment) AssessmentResponse {
	return AssessmentResponse{
		ElapsedMinutes:     a.ElapsedMinutes,
		ElapsedDisplay:     sla.FormatMinutes(a.ElapsedMinutes),
		Tier:               a.Tier,
		TierLabel:          sla.Tier{Level: a.Tier}.Label(),
		ResponseBreached:   a.ResponseBreached,
		ResolutionBreached: a.ResolutionBreached,
		Classification:     string(a.Classification),
		ProgressPercent:    a.ProgressPercent,
		MinutesToNextTier:  a.MinutesToNextTier,
		NextTierDisplay:    sla.FormatMinutes(a.MinutesToNextTier),
	}
}

// NewTicketResponse maps a ticket without an assessment.
func NewTicketResponse(ticket *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:            ticket.ID,
		ReferenceCode: ticket.ReferenceCode,
		Title:         ticket.Title,
		Description:   ticket.Description,
		Status:        ticket.Status,
		Priority:      ticket.Priority,
		CurrentTier:   ticket.CurrentTier,
		TierEnteredAt: ticket.TierEnteredAt,
		Building:      ticket.Building,
		Location:      ticket.Location,
		AssetID:       ticket.AssetID,
		AssigneeID:    ticket.AssigneeID,
		CreatedAt:     ticket.CreatedAt,
		UpdatedAt:     ticket.UpdatedAt,
		ResolvedAt:    ticket.ResolvedAt,
	}
}

// NewAssessedTicketResponse maps a ticket with its assessment attached.
func NewAssessedTicketResponse(ticket *domain.Ticket, assessment sla.Assessment) TicketResponse {
	resp := NewTicketResponse(ticket)
	a := NewAssessmentResponse(assessment)
	resp.Assessment = &a
	return resp
}

// NewTicketHistoryResponses maps audit entries.
func NewTicketHistoryResponses(entries []domain.TicketHistory) []TicketHistoryResponse {
	out := make([]TicketHistoryResponse, 0, len(entries))
	for _, entry := range entries {
		out = append(out, TicketHistoryResponse{
			ID:            entry.ID,
			ChangeType:    entry.ChangeType,
			ChangedByKind: entry.ChangedByKind,
			ChangedByID:   entry.ChangedByID,
			OldValue:      entry.OldValue,
			NewValue:      entry.NewValue,
			CreatedAt:     entry.CreatedAt,
		})
	}
	return out
}
