package domain

import "time"

// TicketStatus enumerates lifecycle states for helpdesk tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "OPEN"
	TicketStatusInProgress TicketStatus = "IN_PROGRESS"
	TicketStatusOnHold     TicketStatus = "ON_HOLD"
	TicketStatusResolved   TicketStatus = "RESOLVED"
	TicketStatusClosed     TicketStatus = "CLOSED"
	TicketStatusLapsed     TicketStatus = "LAPSED"
)

// IsTerminal reports whether the status ends the ticket lifecycle. Terminal
// tickets are never physically deleted and never escalate further.
func (s TicketStatus) IsTerminal() bool {
	return s == TicketStatusClosed || s == TicketStatusLapsed
}

// IsSettled reports whether the ticket no longer counts toward breaches.
// Resolved tickets are settled but not yet terminal: they can still reopen.
func (s TicketStatus) IsSettled() bool {
	return s == TicketStatusResolved || s == TicketStatusClosed
}

// TicketPriority classifies severity. Priority feeds initial technician
// assignment only; escalation timing is driven by the SLA tier.
type TicketPriority string

const (
	TicketPriorityP1 TicketPriority = "P1"
	TicketPriorityP2 TicketPriority = "P2"
	TicketPriorityP3 TicketPriority = "P3"
	TicketPriorityP4 TicketPriority = "P4"
)

// Ticket is the aggregate for facility work orders and helpdesk requests.
// CurrentTier advances monotonically; only the escalation worker commits it.
type Ticket struct {
	ID            string
	ReferenceCode string
	Title         string
	Description   string
	Status        TicketStatus
	Priority      TicketPriority
	CurrentTier   int
	TierEnteredAt time.Time
	Building      string
	Location      string
	AssetID       *string
	AssigneeID    *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	ResolvedAt    *time.Time
}
