package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/facility-ops/internal/domain"
	"github.com/spec-kit/facility-ops/internal/repository"
)

// In-memory repository fakes mirroring the conditional-update semantics of
// the postgres implementations.

type fakeTicketRepo struct {
	mu        sync.Mutex
	tickets   map[string]*domain.Ticket
	now       func() time.Time
	createErr error
}

func newFakeTicketRepo(now func() time.Time) *fakeTicketRepo {
	if now == nil {
		now = time.Now
	}
	return &fakeTicketRepo{tickets: map[string]*domain.Ticket{}, now: now}
}

func (r *fakeTicketRepo) put(ticket *domain.Ticket) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *ticket
	r.tickets[ticket.ID] = &copied
}

func (r *fakeTicketRepo) get(id string) domain.Ticket {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.tickets[id]
}

func (r *fakeTicketRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tickets)
}

func (r *fakeTicketRepo) Create(ctx context.Context, ticket *domain.Ticket) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if ticket.ID == "" {
		ticket.ID = uuid.NewString()
	}
	stamp := r.now()
	ticket.CreatedAt = stamp
	ticket.TierEnteredAt = stamp
	ticket.UpdatedAt = stamp
	copied := *ticket
	r.tickets[ticket.ID] = &copied
	return nil
}

func (r *fakeTicketRepo) Update(ctx context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	ticket.UpdatedAt = r.now()
	copied := *ticket
	r.tickets[ticket.ID] = &copied
	return nil
}

func (r *fakeTicketRepo) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *ticket
	return &copied, nil
}

func (r *fakeTicketRepo) GetByReference(ctx context.Context, reference string) (*domain.Ticket, error) {
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

func (r *fakeTicketRepo) ListWithFilter(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Ticket
	for _, ticket := range r.tickets {
		if filter.Building != nil && ticket.Building != *filter.Building {
			continue
		}
		if len(filter.Statuses) > 0 && !containsStatus(filter.Statuses, ticket.Status) {
			continue
		}
		result = append(result, *ticket)
	}
	return result, nil
}

func (r *fakeTicketRepo) ListActive(ctx context.Context) ([]domain.Ticket, error) {
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

func (r *fakeTicketRepo) CommitEscalation(ctx context.Context, ticketID string, toTier int, enteredAt time.Time) (bool, error) {
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

func containsStatus(statuses []domain.TicketStatus, status domain.TicketStatus) bool {
	for _, candidate := range statuses {
		if candidate == status {
			return true
		}
	}
	return false
}

type fakeHistoryRepo struct {
	mu      sync.Mutex
	entries []domain.TicketHistory
}

func (r *fakeHistoryRepo) Create(ctx context.Context, history *domain.TicketHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	history.ID = uuid.NewString()
	r.entries = append(r.entries, *history)
	return nil
}

func (r *fakeHistoryRepo) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketHistory, error) {
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

type fakeAssetRepo struct {
	mu     sync.Mutex
	assets map[string]*domain.Asset
}

func newFakeAssetRepo() *fakeAssetRepo {
	return &fakeAssetRepo{assets: map[string]*domain.Asset{}}
}

func (r *fakeAssetRepo) put(asset *domain.Asset) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *asset
	r.assets[asset.ID] = &copied
}

func (r *fakeAssetRepo) get(id string) domain.Asset {
	r.mu.Lock()
	defer r.mu.Unlock()
	return *r.assets[id]
}

func (r *fakeAssetRepo) Create(ctx context.Context, asset *domain.Asset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if asset.ID == "" {
		asset.ID = uuid.NewString()
	}
	now := time.Now()
	asset.StatusChangedAt = now
	asset.CreatedAt = now
	asset.UpdatedAt = now
	copied := *asset
	r.assets[asset.ID] = &copied
	return nil
}

func (r *fakeAssetRepo) Update(ctx context.Context, asset *domain.Asset) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.assets[asset.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *asset
	r.assets[asset.ID] = &copied
	return nil
}

func (r *fakeAssetRepo) GetByID(ctx context.Context, id string) (*domain.Asset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	asset, ok := r.assets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *asset
	return &copied, nil
}

func (r *fakeAssetRepo) GetByTag(ctx context.Context, tag string) (*domain.Asset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, asset := range r.assets {
		if asset.Tag == tag {
			copied := *asset
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *fakeAssetRepo) List(ctx context.Context, filter repository.AssetFilter) ([]domain.Asset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Asset
	for _, asset := range r.assets {
		if filter.Building != nil && asset.Building != *filter.Building {
			continue
		}
		result = append(result, *asset)
	}
	return result, nil
}

func (r *fakeAssetRepo) TransitionStatus(ctx context.Context, id string, from, to domain.AssetStatus, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	asset, ok := r.assets[id]
	if !ok || asset.Status != from {
		return false, nil
	}
	asset.Status = to
	asset.StatusChangedAt = at
	return true, nil
}

type fakeTechnicianRepo struct {
	mu    sync.Mutex
	techs map[string]*domain.Technician
}

func newFakeTechnicianRepo() *fakeTechnicianRepo {
	return &fakeTechnicianRepo{techs: map[string]*domain.Technician{}}
}

func (r *fakeTechnicianRepo) put(tech *domain.Technician) {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *tech
	r.techs[tech.ID] = &copied
}

func (r *fakeTechnicianRepo) Create(ctx context.Context, tech *domain.Technician) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if tech.ID == "" {
		tech.ID = uuid.NewString()
	}
	copied := *tech
	r.techs[tech.ID] = &copied
	return nil
}

func (r *fakeTechnicianRepo) Update(ctx context.Context, tech *domain.Technician) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.techs[tech.ID]; !ok {
		return pgx.ErrNoRows
	}
	copied := *tech
	r.techs[tech.ID] = &copied
	return nil
}

func (r *fakeTechnicianRepo) GetByID(ctx context.Context, id string) (*domain.Technician, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tech, ok := r.techs[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *tech
	return &copied, nil
}

func (r *fakeTechnicianRepo) List(ctx context.Context, filter repository.TechnicianFilter) ([]domain.Technician, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.Technician
	for _, tech := range r.techs {
		if filter.Building != nil && tech.Building != nil && *tech.Building != *filter.Building {
			continue
		}
		if filter.OnCall != nil && tech.OnCall != *filter.OnCall {
			continue
		}
		if filter.Active != nil && tech.Active != *filter.Active {
			continue
		}
		if filter.Trade != nil && tech.Trade != *filter.Trade {
			continue
		}
		result = append(result, *tech)
	}
	return result, nil
}

// fakeOnceGuard mimics the redis SETNX guard.
type fakeOnceGuard struct {
	mu   sync.Mutex
	seen map[string]bool
	err  error
}

func newFakeOnceGuard() *fakeOnceGuard {
	return &fakeOnceGuard{seen: map[string]bool{}}
}

func (g *fakeOnceGuard) AcquireOnce(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return false, g.err
	}
	if g.seen[key] {
		return false, nil
	}
	g.seen[key] = true
	return true, nil
}

// passthroughTxManager runs the function without a real transaction.
type passthroughTxManager struct {
	calls int
}

func (m *passthroughTxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	return fn(ctx)
}
