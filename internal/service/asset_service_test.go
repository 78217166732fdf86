package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/facility-ops/internal/domain"
	"github.com/spec-kit/facility-ops/internal/events"
	"github.com/spec-kit/facility-ops/internal/observability"
	apperrors "github.com/spec-kit/facility-ops/pkg/util"
)

func newAssetService(assets *fakeAssetRepo, tickets *fakeTicketRepo, now time.Time) (*AssetService, events.Dispatcher, *passthroughTxManager) {
	dispatcher := events.NewInMemoryDispatcher()
	txm := &passthroughTxManager{}
	svc := NewAssetService(AssetDependencies{
		AssetRepo:  assets,
		Reaction:   NewReactionRule(tickets, newFakeOnceGuard(), time.Hour, zap.NewNop()),
		TxManager:  txm,
		Dispatcher: dispatcher,
		Metrics:    observability.NewMetrics(),
		Now:        func() time.Time { return now },
	})
	return svc, dispatcher, txm
}

func seedAsset(repo *fakeAssetRepo, status domain.AssetStatus) *domain.Asset {
	asset := &domain.Asset{
		ID:       "A1",
		Tag:      "AHU-07",
		Name:     "Air Handler 7",
		Category: "HVAC",
		Building: "B3",
		Location: "level 2",
		Status:   status,
	}
	repo.put(asset)
	return asset
}

func TestCreateAssetDefaultsOperational(t *testing.T) {
	assets := newFakeAssetRepo()
	svc, _, _ := newAssetService(assets, newFakeTicketRepo(nil), testNow)

	asset, err := svc.CreateAsset(context.Background(), AssetCreateInput{
		Tag:      " AHU-07 ",
		Name:     "Air Handler 7",
		Category: "HVAC",
		Building: "B3",
	})
	require.NoError(t, err)
	assert.Equal(t, "AHU-07", asset.Tag)
	assert.Equal(t, domain.AssetStatusOperational, asset.Status)
}

func TestCreateAssetValidation(t *testing.T) {
	assets := newFakeAssetRepo()
	svc, _, _ := newAssetService(assets, newFakeTicketRepo(nil), testNow)

	_, err := svc.CreateAsset(context.Background(), AssetCreateInput{Name: "no tag"})
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "VALIDATION_FAILED", domainErr.Code)

	_, err = svc.CreateAsset(context.Background(), AssetCreateInput{Tag: "X-1"})
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "VALIDATION_FAILED", domainErr.Code)
}

func TestChangeStatusBreakdownOpensTicketInTx(t *testing.T) {
	assets := newFakeAssetRepo()
	tickets := newFakeTicketRepo(func() time.Time { return testNow })
	seedAsset(assets, domain.AssetStatusOperational)
	svc, dispatcher, txm := newAssetService(assets, tickets, testNow)

	var assetEvents, ticketEvents []events.Event
	dispatcher.Subscribe(events.EventAssetStatusChanged, func(ctx context.Context, event events.Event) error {
		assetEvents = append(assetEvents, event)
		return nil
	})
	dispatcher.Subscribe(events.EventTicketCreated, func(ctx context.Context, event events.Event) error {
		ticketEvents = append(ticketEvents, event)
		return nil
	})

	result, err := svc.ChangeStatus(context.Background(), "op-1", "A1", domain.AssetStatusBreakdown)
	require.NoError(t, err)
	require.NotNil(t, result.Ticket)

	assert.Equal(t, domain.AssetStatusBreakdown, result.Asset.Status)
	assert.Equal(t, domain.AssetStatusBreakdown, assets.get("A1").Status)
	assert.Equal(t, domain.TicketPriorityP1, result.Ticket.Priority)
	assert.Equal(t, 1, txm.calls)

	require.Len(t, assetEvents, 1)
	payload, ok := assetEvents[0].Payload.(events.AssetStatusChangedPayload)
	require.True(t, ok)
	assert.Equal(t, domain.AssetStatusOperational, payload.PreviousStatus)
	assert.Equal(t, domain.AssetStatusBreakdown, payload.NewStatus)
	require.NotNil(t, payload.CreatedTicketID)
	assert.Equal(t, result.Ticket.ID, *payload.CreatedTicketID)
	require.Len(t, ticketEvents, 1)
}

func TestChangeStatusMaintenanceOpensP2(t *testing.T) {
	assets := newFakeAssetRepo()
	tickets := newFakeTicketRepo(func() time.Time { return testNow })
	seedAsset(assets, domain.AssetStatusOperational)
	svc, _, _ := newAssetService(assets, tickets, testNow)

	result, err := svc.ChangeStatus(context.Background(), "op-1", "A1", domain.AssetStatusInMaintenance)
	require.NoError(t, err)
	require.NotNil(t, result.Ticket)
	assert.Equal(t, domain.TicketPriorityP2, result.Ticket.Priority)
}

func TestChangeStatusRecoveryOpensNoTicket(t *testing.T) {
	assets := newFakeAssetRepo()
	tickets := newFakeTicketRepo(func() time.Time { return testNow })
	seedAsset(assets, domain.AssetStatusBreakdown)
	svc, _, _ := newAssetService(assets, tickets, testNow)

	result, err := svc.ChangeStatus(context.Background(), "op-1", "A1", domain.AssetStatusOperational)
	require.NoError(t, err)
	assert.Nil(t, result.Ticket)
	assert.Equal(t, domain.AssetStatusOperational, result.Asset.Status)
	assert.Equal(t, 0, tickets.count())
}

func TestChangeStatusSameStatusIsLocalNoOp(t *testing.T) {
	assets := newFakeAssetRepo()
	tickets := newFakeTicketRepo(func() time.Time { return testNow })
	seedAsset(assets, domain.AssetStatusBreakdown)
	svc, dispatcher, txm := newAssetService(assets, tickets, testNow)

	var published []events.Event
	dispatcher.Subscribe(events.EventAssetStatusChanged, func(ctx context.Context, event events.Event) error {
		published = append(published, event)
		return nil
	})

	result, err := svc.ChangeStatus(context.Background(), "op-1", "A1", domain.AssetStatusBreakdown)
	require.NoError(t, err)
	assert.Nil(t, result.Ticket)
	assert.Equal(t, 0, tickets.count())
	assert.Equal(t, 0, txm.calls)
	assert.Empty(t, published)
}

func TestChangeStatusRedeliveryCreatesOneTicket(t *testing.T) {
	assets := newFakeAssetRepo()
	tickets := newFakeTicketRepo(func() time.Time { return testNow })
	seedAsset(assets, domain.AssetStatusOperational)
	svc, _, _ := newAssetService(assets, tickets, testNow)

	result, err := svc.ChangeStatus(context.Background(), "op-1", "A1", domain.AssetStatusBreakdown)
	require.NoError(t, err)
	require.NotNil(t, result.Ticket)

	// the second identical request hits the same-status check
	result, err = svc.ChangeStatus(context.Background(), "op-1", "A1", domain.AssetStatusBreakdown)
	require.NoError(t, err)
	assert.Nil(t, result.Ticket)
	assert.Equal(t, 1, tickets.count())
}

func TestChangeStatusMissingAsset(t *testing.T) {
	assets := newFakeAssetRepo()
	svc, _, _ := newAssetService(assets, newFakeTicketRepo(nil), testNow)

	_, err := svc.ChangeStatus(context.Background(), "op-1", "missing", domain.AssetStatusBreakdown)
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "NOT_FOUND", domainErr.Code)
}

// contestedAssetRepo simulates a concurrent writer flipping the status
// between the service's read and its guarded update.
type contestedAssetRepo struct {
	*fakeAssetRepo
	intruder domain.AssetStatus
}

func (r *contestedAssetRepo) TransitionStatus(ctx context.Context, id string, from, to domain.AssetStatus, at time.Time) (bool, error) {
	asset := r.get(id)
	asset.Status = r.intruder
	r.put(&asset)
	return r.fakeAssetRepo.TransitionStatus(ctx, id, from, to, at)
}

func TestChangeStatusConcurrentEditConflicts(t *testing.T) {
	inner := newFakeAssetRepo()
	seedAsset(inner, domain.AssetStatusOperational)
	assets := &contestedAssetRepo{fakeAssetRepo: inner, intruder: domain.AssetStatusStandby}

	tickets := newFakeTicketRepo(func() time.Time { return testNow })
	dispatcher := events.NewInMemoryDispatcher()
	svc := NewAssetService(AssetDependencies{
		AssetRepo:  assets,
		Reaction:   NewReactionRule(tickets, newFakeOnceGuard(), time.Hour, zap.NewNop()),
		TxManager:  &passthroughTxManager{},
		Dispatcher: dispatcher,
		Metrics:    observability.NewMetrics(),
		Now:        func() time.Time { return testNow },
	})

	_, err := svc.ChangeStatus(context.Background(), "op-1", "A1", domain.AssetStatusBreakdown)
	var domainErr *apperrors.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "CONFLICT", domainErr.Code)
	assert.Equal(t, 0, tickets.count())
}
