package events

import (
	"time"

	"github.com/spec-kit/facility-ops/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventTicketEscalated     EventType = "ticket_escalated"
	EventAssetStatusChanged  EventType = "asset_status_changed"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	Kind       domain.ActorKind `json:"kind"`
	OperatorID *string          `json:"operator_id,omitempty"`
}

// Event represents a domain event emitted by services and the escalation
// worker.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id,omitempty"`
	AssetID   string      `json:"asset_id,omitempty"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	ReferenceCode string                `json:"reference_code"`
	Priority      domain.TicketPriority `json:"priority"`
	Building      string                `json:"building"`
	Title         string                `json:"title"`
	AssetID       *string               `json:"asset_id,omitempty"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	Comment   string              `json:"comment,omitempty"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	TechnicianID *string `json:"technician_id,omitempty"`
}

// TicketEscalatedPayload payload.
type TicketEscalatedPayload struct {
	FromTier       int    `json:"from_tier"`
	ToTier         int    `json:"to_tier"`
	ElapsedMinutes int    `json:"elapsed_minutes"`
	Classification string `json:"classification"`
}

// AssetStatusChangedPayload payload.
type AssetStatusChangedPayload struct {
	AssetTag        string             `json:"asset_tag"`
	PreviousStatus  domain.AssetStatus `json:"previous_status"`
	NewStatus       domain.AssetStatus `json:"new_status"`
	CreatedTicketID *string            `json:"created_ticket_id,omitempty"`
}
