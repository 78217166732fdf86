package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/facility-ops/internal/domain"
	"github.com/spec-kit/facility-ops/internal/events"
	"github.com/spec-kit/facility-ops/internal/repository"
	"github.com/spec-kit/facility-ops/internal/sla"
	apperrors "github.com/spec-kit/facility-ops/pkg/util"
)

// TicketService coordinates ticket workflows and composes SLA assessments
// for the console.
type TicketService struct {
	tickets    repository.TicketRepository
	history    repository.TicketHistoryRepository
	dispatcher events.Dispatcher
	evaluator  *sla.Evaluator
	now        func() time.Time
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	HistoryRepo repository.TicketHistoryRepository
	Dispatcher  events.Dispatcher
	Evaluator   *sla.Evaluator
	Now         func() time.Time
}

// TicketCreateInput describes ticket intake payload.
type TicketCreateInput struct {
	Title       string
	Description string
	Priority    domain.TicketPriority
	Building    string
	Location    string
	AssetID     *string
}

// TicketListFilter describes console listing filters.
type TicketListFilter struct {
	Statuses    []domain.TicketStatus
	Priorities  []domain.TicketPriority
	Building    *string
	AssetID     *string
	AssigneeID  *string
	SearchTerm  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// AssessedTicket pairs a ticket with its derived SLA standing.
type AssessedTicket struct {
	Ticket     domain.Ticket
	Assessment sla.Assessment
}

// SLASummary aggregates classification counts for the dashboard.
type SLASummary struct {
	Total    int `json:"total"`
	OnTrack  int `json:"on_track"`
	AtRisk   int `json:"at_risk"`
	Breached int `json:"breached"`
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		history:    deps.HistoryRepo,
		dispatcher: deps.Dispatcher,
		evaluator:  deps.Evaluator,
		now:        now,
	}
}

// CreateTicket opens a ticket at tier 0. Intake never chooses a tier:
// escalation is time-driven and owned by the worker.
func (s *TicketService) CreateTicket(ctx context.Context, input TicketCreateInput) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title required", nil)
	}
	if strings.TrimSpace(input.Building) == "" {
		return nil, apperrors.NewValidationError("building required", nil)
	}

	ticket := &domain.Ticket{
		ReferenceCode: generateTicketReference(),
		Title:         title,
		Description:   strings.TrimSpace(input.Description),
		Status:        domain.TicketStatusOpen,
		Priority:      input.Priority,
		CurrentTier:   0,
		Building:      strings.TrimSpace(input.Building),
		Location:      strings.TrimSpace(input.Location),
		AssetID:       input.AssetID,
	}
	if ticket.Priority == "" {
		ticket.Priority = domain.TicketPriorityP3
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Actor:    events.Actor{Kind: domain.ActorKindOperator},
		Payload: events.TicketCreatedPayload{
			ReferenceCode: ticket.ReferenceCode,
			Priority:      ticket.Priority,
			Building:      ticket.Building,
			Title:         ticket.Title,
			AssetID:       ticket.AssetID,
		},
	})
	return ticket, nil
}

// ListTickets returns tickets with their current assessments.
func (s *TicketService) ListTickets(ctx context.Context, filter TicketListFilter) ([]AssessedTicket, error) {
	repoFilter := repository.TicketFilter{
		Statuses:    filter.Statuses,
		Priorities:  filter.Priorities,
		Building:    filter.Building,
		AssetID:     filter.AssetID,
		AssigneeID:  filter.AssigneeID,
		SearchTerm:  filter.SearchTerm,
		CreatedFrom: filter.CreatedFrom,
		CreatedTo:   filter.CreatedTo,
		Limit:       filter.Limit,
		Offset:      filter.Offset,
	}
	tickets, err := s.tickets.ListWithFilter(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	now := s.now()
	assessed := make([]AssessedTicket, 0, len(tickets))
	for _, ticket := range tickets {
		assessed = append(assessed, AssessedTicket{
			Ticket:     ticket,
			Assessment: s.evaluator.Evaluate(EvaluationState(&ticket), now),
		})
	}
	return assessed, nil
}

// GetTicket fetches one ticket with assessment and audit history.
func (s *TicketService) GetTicket(ctx context.Context, ticketID string) (*AssessedTicket, []domain.TicketHistory, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, nil, apperrors.MapError(err)
	}
	history, err := s.history.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	return &AssessedTicket{
		Ticket:     *ticket,
		Assessment: s.evaluator.Evaluate(EvaluationState(ticket), s.now()),
	}, history, nil
}

// AssessTicket recomputes the SLA standing of one ticket on demand.
func (s *TicketService) AssessTicket(ctx context.Context, ticketID string) (sla.Assessment, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return sla.Assessment{}, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return sla.Assessment{}, apperrors.MapError(err)
	}
	return s.evaluator.Evaluate(EvaluationState(ticket), s.now()), nil
}

// UpdateStatus moves a ticket through the workflow state machine.
func (s *TicketService) UpdateStatus(ctx context.Context, operatorID, ticketID string, newStatus domain.TicketStatus, comment string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	if ticket.Status == newStatus {
		// repeating a transition is a no-op, not an error
		return ticket, nil
	}
	if !isValidTransition(ticket.Status, newStatus) {
		return nil, apperrors.NewConflict("invalid status transition", map[string]any{
			"from": ticket.Status,
			"to":   newStatus,
		})
	}

	oldStatus := ticket.Status
	switch newStatus {
	case domain.TicketStatusResolved:
		now := s.now()
		ticket.ResolvedAt = &now
	case domain.TicketStatusInProgress:
		if oldStatus == domain.TicketStatusResolved {
			ticket.ResolvedAt = nil
		}
	}
	ticket.Status = newStatus

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.recordStatusChange(ctx, operatorID, ticket.ID, oldStatus, newStatus, comment); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		Actor:    operatorActor(operatorID),
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: newStatus,
			Comment:   comment,
		},
	})
	return ticket, nil
}

// Summary aggregates classifications across all non-terminal tickets.
// Settled tickets are excluded from breach counts by the evaluator's
// short-circuit, so listing only active tickets keeps the two views aligned.
func (s *TicketService) Summary(ctx context.Context) (SLASummary, error) {
	tickets, err := s.tickets.ListActive(ctx)
	if err != nil {
		return SLASummary{}, apperrors.MapError(err)
	}
	now := s.now()
	summary := SLASummary{Total: len(tickets)}
	for _, ticket := range tickets {
		switch s.evaluator.Evaluate(EvaluationState(&ticket), now).Classification {
		case sla.ClassificationBreached:
			summary.Breached++
		case sla.ClassificationAtRisk:
			summary.AtRisk++
		default:
			summary.OnTrack++
		}
	}
	return summary, nil
}

// EvaluationState maps a ticket onto the evaluator's input.
func EvaluationState(ticket *domain.Ticket) sla.TicketState {
	state := sla.TicketState{
		CreatedAt:     ticket.CreatedAt,
		TierEnteredAt: ticket.TierEnteredAt,
		CurrentTier:   ticket.CurrentTier,
	}
	switch {
	case ticket.Status.IsSettled():
		state.Status = sla.StatusSettled
	case ticket.Status == domain.TicketStatusLapsed:
		state.Status = sla.StatusLapsed
	default:
		state.Status = sla.StatusActive
	}
	return state
}

func generateTicketReference() string {
	return "FAC-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

var allowedTransitions = map[domain.TicketStatus][]domain.TicketStatus{
	domain.TicketStatusOpen:       {domain.TicketStatusInProgress, domain.TicketStatusOnHold, domain.TicketStatusLapsed},
	domain.TicketStatusInProgress: {domain.TicketStatusOnHold, domain.TicketStatusResolved, domain.TicketStatusLapsed},
	domain.TicketStatusOnHold:     {domain.TicketStatusInProgress, domain.TicketStatusLapsed},
	domain.TicketStatusResolved:   {domain.TicketStatusClosed, domain.TicketStatusInProgress},
	domain.TicketStatusClosed:     {},
	domain.TicketStatusLapsed:     {},
}

func isValidTransition(current, next domain.TicketStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

func (s *TicketService) recordStatusChange(ctx context.Context, operatorID, ticketID string, oldStatus, newStatus domain.TicketStatus, comment string) error {
	if s.history == nil {
		return nil
	}
	entry := &domain.TicketHistory{
		TicketID:      ticketID,
		ChangedByKind: domain.ActorKindOperator,
		ChangedByID:   &operatorID,
		ChangeType:    domain.ChangeTypeStatus,
		OldValue: map[string]any{
			"status": oldStatus,
		},
		NewValue: map[string]any{
			"status":  newStatus,
			"comment": comment,
		},
	}
	return s.history.Create(ctx, entry)
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func operatorActor(operatorID string) events.Actor {
	return events.Actor{
		Kind:       domain.ActorKindOperator,
		OperatorID: &operatorID,
	}
}
