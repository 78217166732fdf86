package worker

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/facility-ops/internal/domain"
	"github.com/spec-kit/facility-ops/internal/events"
	"github.com/spec-kit/facility-ops/internal/observability"
	"github.com/spec-kit/facility-ops/internal/repository"
	"github.com/spec-kit/facility-ops/internal/service"
	"github.com/spec-kit/facility-ops/internal/sla"
)

// EscalationWorker is the periodic driver of the SLA engine: it evaluates
// every non-terminal ticket and commits tier advancements. It is the single
// writer of current_tier; the repository's conditional update keeps the tier
// monotonic even if a second instance ever runs.
type EscalationWorker struct {
	tickets    repository.TicketRepository
	history    repository.TicketHistoryRepository
	dispatcher events.Dispatcher
	evaluator  *sla.Evaluator
	metrics    *observability.Metrics
	logger     *zap.Logger
	interval   time.Duration
	now        func() time.Time
}

// WorkerDependencies bundles collaborators for the escalation worker.
type WorkerDependencies struct {
	TicketRepo  repository.TicketRepository
	HistoryRepo repository.TicketHistoryRepository
	Dispatcher  events.Dispatcher
	Evaluator   *sla.Evaluator
	Metrics     *observability.Metrics
	Logger      *zap.Logger
	Interval    time.Duration
	Now         func() time.Time
}

// NewEscalationWorker constructs the worker.
func NewEscalationWorker(deps WorkerDependencies) *EscalationWorker {
	interval := deps.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &EscalationWorker{
		tickets:    deps.TicketRepo,
		history:    deps.HistoryRepo,
		dispatcher: deps.Dispatcher,
		evaluator:  deps.Evaluator,
		metrics:    deps.Metrics,
		logger:     deps.Logger,
		interval:   interval,
		now:        now,
	}
}

// Run ticks until the context is cancelled.
func (w *EscalationWorker) Run(ctx context.Context) {
	w.logger.Info("escalation worker started", zap.Duration("interval", w.interval))
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("escalation worker stopped")
			return
		case <-ticker.C:
			if _, err := w.Tick(ctx); err != nil {
				w.logger.Error("escalation tick failed", zap.Error(err))
			}
		}
	}
}

// Tick evaluates all active tickets once and returns how many escalated.
// Re-running a tick with no time passed is a no-op: the effective tier then
// equals the committed tier for every ticket.
func (w *EscalationWorker) Tick(ctx context.Context) (int, error) {
	tickets, err := w.tickets.ListActive(ctx)
	if err != nil {
		return 0, err
	}
	now := w.now()
	w.metrics.RecordEvaluations(len(tickets))

	escalated := 0
	for i := range tickets {
		ticket := &tickets[i]
		assessment := w.evaluator.Evaluate(service.EvaluationState(ticket), now)
		if assessment.Tier <= ticket.CurrentTier {
			continue
		}
		committed, err := w.tickets.CommitEscalation(ctx, ticket.ID, assessment.Tier, now)
		if err != nil {
			w.logger.Error("escalation commit failed",
				zap.String("ticket_id", ticket.ID), zap.Error(err))
			continue
		}
		if !committed {
			// lost the race to a concurrent tick or the ticket settled mid-scan
			continue
		}
		escalated++
		w.metrics.RecordEscalation(assessment.Tier)
		w.metrics.RecordBreach()
		w.recordEscalation(ctx, ticket, assessment)
		w.publishEscalation(ctx, ticket, assessment)
		w.logger.Info("ticket escalated",
			zap.String("ticket_reference", ticket.ReferenceCode),
			zap.Int("from_tier", ticket.CurrentTier),
			zap.Int("to_tier", assessment.Tier),
			zap.Int("elapsed_minutes", assessment.ElapsedMinutes))
	}
	return escalated, nil
}

func (w *EscalationWorker) recordEscalation(ctx context.Context, ticket *domain.Ticket, assessment sla.Assessment) {
	if w.history == nil {
		return
	}
	entry := &domain.TicketHistory{
		TicketID:      ticket.ID,
		ChangedByKind: domain.ActorKindSystem,
		ChangeType:    domain.ChangeTypeEscalation,
		OldValue: map[string]any{
			"tier": ticket.CurrentTier,
		},
		NewValue: map[string]any{
			"tier":            assessment.Tier,
			"elapsed_minutes": assessment.ElapsedMinutes,
		},
	}
	if err := w.history.Create(ctx, entry); err != nil {
		w.logger.Error("escalation history write failed",
			zap.String("ticket_id", ticket.ID), zap.Error(err))
	}
}

func (w *EscalationWorker) publishEscalation(ctx context.Context, ticket *domain.Ticket, assessment sla.Assessment) {
	if w.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventTicketEscalated,
		TicketID:  ticket.ID,
		Actor:     events.Actor{Kind: domain.ActorKindSystem},
		Timestamp: w.now(),
		Payload: events.TicketEscalatedPayload{
			FromTier:       ticket.CurrentTier,
			ToTier:         assessment.Tier,
			ElapsedMinutes: assessment.ElapsedMinutes,
			Classification: string(assessment.Classification),
		},
	}
	_ = w.dispatcher.Publish(ctx, event)
}
