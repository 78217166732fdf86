package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/facility-ops/internal/domain"
	"github.com/spec-kit/facility-ops/internal/events"
	"github.com/spec-kit/facility-ops/internal/observability"
	"github.com/spec-kit/facility-ops/internal/repository"
	"github.com/spec-kit/facility-ops/internal/sla"
)

type memoryTicketRepo struct {
	mu      sync.Mutex
	tickets map[string]*domain.Ticket
}

func newMemoryTicketRepo() *memoryTicketRepo {
	return &memoryTicketRepo{tickets: map[string]*domain.Ticket{}}
}

func (r *memoryTicketRepo) put(ticket *domain.Ticket) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *ticket
	r.tickets[ticket.ID] = &copied
}

func (r *memoryTicketRepo) get(id string) domain.Ticket {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.tickets[id]
}

func (r *memoryTicketRepo) Create(ctx context.Context, ticket *domain.Ticket) error {
	r.put(ticket)
	return nil
}

func (r *memoryTicketRepo) Update(ctx context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *ticket
	r.tickets[ticket.ID] = &copied
	return nil
}

func (r *memoryTicketRepo) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *ticket
	return &copied, nil
}

func (r *memoryTicketRepo) GetByReference(ctx context.Context, reference string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ticket := range r.tickets {
		if ticket.ReferenceCode == reference {
			copied := *ticket
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memoryTicketRepo) ListWithFilter(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	return r.ListActive(ctx)
}

func (r *memoryTicketRepo) ListActive(ctx context.Context) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Ticket
	for _, ticket := range r.tickets {
		switch ticket.Status {
		case domain.TicketStatusResolved, domain.TicketStatusClosed, domain.TicketStatusLapsed:
			continue
		}
		result = append(result, *ticket)
	}
	return result, nil
}

// CommitEscalation mirrors the conditional update: the tier only moves up,
// and never on a settled ticket.
func (r *memoryTicketRepo) CommitEscalation(ctx context.Context, ticketID string, toTier int, enteredAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[ticketID]
	if !ok {
		return false, nil
	}
	switch ticket.Status {
	case domain.TicketStatusResolved, domain.TicketStatusClosed, domain.TicketStatusLapsed:
		return false, nil
	}
	if ticket.CurrentTier >= toTier {
		return false, nil
	}
	ticket.CurrentTier = toTier
	ticket.TierEnteredAt = enteredAt
	return true, nil
}

type memoryHistoryRepo struct {
	mu      sync.Mutex
	entries []domain.TicketHistory
}

func (r *memoryHistoryRepo) Create(ctx context.Context, history *domain.TicketHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *history)
	return nil
}

func (r *memoryHistoryRepo) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.TicketHistory
	for _, entry := range r.entries {
		if entry.TicketID == ticketID {
			result = append(result, entry)
		}
	}
	return result, nil
}

func newTestWorker(t *testing.T, repo *memoryTicketRepo, history *memoryHistoryRepo, now time.Time) (*EscalationWorker, events.Dispatcher) {
	t.Helper()
	dispatcher := events.NewInMemoryDispatcher()
	return NewEscalationWorker(WorkerDependencies{
		TicketRepo:  repo,
		HistoryRepo: history,
		Dispatcher:  dispatcher,
		Evaluator:   sla.NewEvaluator(sla.Default()),
		Metrics:     observability.NewMetrics(),
		Logger:      zap.NewNop(),
		Now:         func() time.Time { return now },
	}), dispatcher
}

func activeTicket(id string, createdAt time.Time, tier int) *domain.Ticket {
	return &domain.Ticket{
		ID:            id,
		ReferenceCode: "FAC-" + id,
		Title:         "chiller fault",
		Status:        domain.TicketStatusOpen,
		Priority:      domain.TicketPriorityP3,
		CurrentTier:   tier,
		TierEnteredAt: createdAt,
		Building:      "B1",
		CreatedAt:     createdAt,
	}
}

func TestTickEscalatesOverdueTicket(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := newMemoryTicketRepo()
	history := &memoryHistoryRepo{}
	repo.put(activeTicket("T1", now.Add(-1441*time.Minute), 0))

	worker, dispatcher := newTestWorker(t, repo, history, now)

	var published []events.Event
	dispatcher.Subscribe(events.EventTicketEscalated, func(ctx context.Context, event events.Event) error {
		published = append(published, event)
		return nil
	})

	escalated, err := worker.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, escalated)

	got := repo.get("T1")
	assert.Equal(t, 1, got.CurrentTier)
	assert.Equal(t, now, got.TierEnteredAt)

	require.Len(t, published, 1)
	payload, ok := published[0].Payload.(events.TicketEscalatedPayload)
	require.True(t, ok)
	assert.Equal(t, 0, payload.FromTier)
	assert.Equal(t, 1, payload.ToTier)

	entries, err := history.ListByTicket(context.Background(), "T1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domain.ChangeTypeEscalation, entries[0].ChangeType)
	assert.Equal(t, domain.ActorKindSystem, entries[0].ChangedByKind)
}

func TestTickIsIdempotent(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := newMemoryTicketRepo()
	repo.put(activeTicket("T1", now.Add(-1500*time.Minute), 0))

	worker, _ := newTestWorker(t, repo, &memoryHistoryRepo{}, now)

	escalated, err := worker.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, escalated)

	escalated, err = worker.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, escalated)
	assert.Equal(t, 1, repo.get("T1").CurrentTier)
}

func TestTickNeverLowersTier(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := newMemoryTicketRepo()
	// committed tier is ahead of what elapsed time alone implies
	repo.put(activeTicket("T1", now.Add(-100*time.Minute), 3))

	worker, _ := newTestWorker(t, repo, &memoryHistoryRepo{}, now)

	escalated, err := worker.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, escalated)
	assert.Equal(t, 3, repo.get("T1").CurrentTier)
}

func TestTickSkipsSettledAndLapsedTickets(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := newMemoryTicketRepo()

	resolved := activeTicket("T1", now.Add(-5000*time.Minute), 1)
	resolved.Status = domain.TicketStatusResolved
	repo.put(resolved)

	lapsed := activeTicket("T2", now.Add(-9000*time.Minute), 2)
	lapsed.Status = domain.TicketStatusLapsed
	repo.put(lapsed)

	worker, _ := newTestWorker(t, repo, &memoryHistoryRepo{}, now)

	escalated, err := worker.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, escalated)
	assert.Equal(t, 1, repo.get("T1").CurrentTier)
	assert.Equal(t, 2, repo.get("T2").CurrentTier)
}

func TestTickEscalatesToCeilingAndStops(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	repo := newMemoryTicketRepo()
	repo.put(activeTicket("T1", now.Add(-9000*time.Minute), 0))

	worker, _ := newTestWorker(t, repo, &memoryHistoryRepo{}, now)

	escalated, err := worker.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, escalated)
	assert.Equal(t, 5, repo.get("T1").CurrentTier)

	escalated, err = worker.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, escalated)
	assert.Equal(t, 5, repo.get("T1").CurrentTier)
}
