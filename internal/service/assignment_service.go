package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/facility-ops/internal/domain"
	"github.com/spec-kit/facility-ops/internal/events"
	"github.com/spec-kit/facility-ops/internal/repository"
	apperrors "github.com/spec-kit/facility-ops/pkg/util"
)

// AssignmentService routes tickets to technicians. Severity influences who
// picks up the ticket (P1 goes to the on-call pool), never how fast it
// escalates.
type AssignmentService struct {
	tickets     repository.TicketRepository
	technicians repository.TechnicianRepository
	history     repository.TicketHistoryRepository
	dispatcher  events.Dispatcher
	now         func() time.Time
}

// AssignmentDependencies bundles repositories.
type AssignmentDependencies struct {
	TicketRepo     repository.TicketRepository
	TechnicianRepo repository.TechnicianRepository
	HistoryRepo    repository.TicketHistoryRepository
	Dispatcher     events.Dispatcher
	Now            func() time.Time
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &AssignmentService{
		tickets:     deps.TicketRepo,
		technicians: deps.TechnicianRepo,
		history:     deps.HistoryRepo,
		dispatcher:  deps.Dispatcher,
		now:         now,
	}
}

// AssignTicket assigns a ticket to the given technician.
func (s *AssignmentService) AssignTicket(ctx context.Context, operatorID, ticketID, technicianID string) (*domain.Ticket, error) {
	tech, err := s.technicians.GetByID(ctx, technicianID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("technician", map[string]any{"technician_id": technicianID})
		}
		return nil, apperrors.MapError(err)
	}
	if !tech.Active {
		return nil, apperrors.NewConflict("technician inactive", map[string]any{"technician_id": technicianID})
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	if ticket.Status.IsTerminal() {
		return nil, apperrors.NewConflict("ticket is terminal", map[string]any{"status": ticket.Status})
	}
	return s.commitAssignment(ctx, operatorID, ticket, &tech.ID)
}

// AutoAssign selects a technician for a ticket by building and severity.
// P1 tickets draw from the on-call pool first; selection is deterministic in
// the ticket id so repeated calls pick the same responder.
func (s *AssignmentService) AutoAssign(ctx context.Context, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	if ticket.Status.IsTerminal() {
		return nil, apperrors.NewConflict("ticket is terminal", map[string]any{"status": ticket.Status})
	}

	pool, err := s.candidatePool(ctx, ticket)
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return nil, apperrors.NewConflict("no eligible technician", map[string]any{"building": ticket.Building})
	}
	assignee := pool[selectIndex(ticket.ID, len(pool))]
	return s.commitAssignment(ctx, "", ticket, &assignee.ID)
}

func (s *AssignmentService) candidatePool(ctx context.Context, ticket *domain.Ticket) ([]domain.Technician, error) {
	active := true
	filter := repository.TechnicianFilter{
		Building: &ticket.Building,
		Active:   &active,
	}
	if ticket.Priority == domain.TicketPriorityP1 {
		onCall := true
		filter.OnCall = &onCall
		pool, err := s.technicians.List(ctx, filter)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		if len(pool) > 0 {
			return pool, nil
		}
		filter.OnCall = nil
	}
	pool, err := s.technicians.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return pool, nil
}

func (s *AssignmentService) commitAssignment(ctx context.Context, operatorID string, ticket *domain.Ticket, technicianID *string) (*domain.Ticket, error) {
	oldAssignee := ticket.AssigneeID
	ticket.AssigneeID = technicianID
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.recordAssigneeChange(ctx, operatorID, ticket.ID, oldAssignee, technicianID); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishAssignmentEvent(ctx, operatorID, ticket.ID, technicianID)
	return ticket, nil
}

func selectIndex(key string, length int) int {
	if length == 0 {
		return 0
	}
	sum := 0
	for _, ch := range key {
		sum += int(ch)
	}
	return sum % length
}

func (s *AssignmentService) recordAssigneeChange(ctx context.Context, operatorID, ticketID string, oldAssignee, newAssignee *string) error {
	if s.history == nil {
		return nil
	}
	entry := &domain.TicketHistory{
		TicketID:   ticketID,
		ChangeType: domain.ChangeTypeAssignee,
		OldValue: map[string]any{
			"technician_id": oldAssignee,
		},
		NewValue: map[string]any{
			"technician_id": newAssignee,
		},
	}
	if operatorID != "" {
		entry.ChangedByKind = domain.ActorKindOperator
		entry.ChangedByID = &operatorID
	} else {
		entry.ChangedByKind = domain.ActorKindSystem
	}
	return s.history.Create(ctx, entry)
}

func (s *AssignmentService) publishAssignmentEvent(ctx context.Context, operatorID, ticketID string, technicianID *string) {
	if s.dispatcher == nil {
		return
	}
	actor := events.Actor{Kind: domain.ActorKindSystem}
	if operatorID != "" {
		actor = operatorActor(operatorID)
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventTicketAssigned,
		TicketID:  ticketID,
		Actor:     actor,
		Timestamp: s.now(),
		Payload: events.TicketAssignedPayload{
			TechnicianID: technicianID,
		},
	}
	_ = s.dispatcher.Publish(ctx, event)
}
