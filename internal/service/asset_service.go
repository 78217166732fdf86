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
	"github.com/spec-kit/facility-ops/internal/observability"
	"github.com/spec-kit/facility-ops/internal/repository"
	apperrors "github.com/spec-kit/facility-ops/pkg/util"
)

// AssetService owns asset records and their status transitions. A status
// change and the ticket the reaction rule opens for it commit as one unit of
// work.
type AssetService struct {
	assets     repository.AssetRepository
	reaction   *ReactionRule
	txm        repository.TxManager
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	now        func() time.Time
}

// AssetDependencies bundles collaborators for the asset service.
type AssetDependencies struct {
	AssetRepo  repository.AssetRepository
	Reaction   *ReactionRule
	TxManager  repository.TxManager
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	Now        func() time.Time
}

// AssetCreateInput describes asset registration payload.
type AssetCreateInput struct {
	Tag      string
	Name     string
	Category string
	Building string
	Location string
}

// StatusChangeResult reports the outcome of a status transition. Ticket is
// non-nil when the reaction rule opened one; its reference code is surfaced
// to the status-changing actor.
type StatusChangeResult struct {
	Asset  *domain.Asset
	Ticket *domain.Ticket
}

// NewAssetService constructs the service.
func NewAssetService(deps AssetDependencies) *AssetService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &AssetService{
		assets:     deps.AssetRepo,
		reaction:   deps.Reaction,
		txm:        deps.TxManager,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		now:        now,
	}
}

// CreateAsset registers a monitored asset, operational by default.
func (s *AssetService) CreateAsset(ctx context.Context, input AssetCreateInput) (*domain.Asset, error) {
	tag := strings.TrimSpace(input.Tag)
	if tag == "" {
		return nil, apperrors.NewValidationError("tag required", nil)
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, apperrors.NewValidationError("name required", nil)
	}
	asset := &domain.Asset{
		Tag:      tag,
		Name:     strings.TrimSpace(input.Name),
		Category: strings.TrimSpace(input.Category),
		Building: strings.TrimSpace(input.Building),
		Location: strings.TrimSpace(input.Location),
		Status:   domain.AssetStatusOperational,
	}
	if err := s.assets.Create(ctx, asset); err != nil {
		return nil, apperrors.MapError(err)
	}
	return asset, nil
}

// GetAsset fetches one asset.
func (s *AssetService) GetAsset(ctx context.Context, assetID string) (*domain.Asset, error) {
	asset, err := s.assets.GetByID(ctx, assetID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("asset", map[string]any{"asset_id": assetID})
		}
		return nil, apperrors.MapError(err)
	}
	return asset, nil
}

// ListAssets returns assets matching the filter.
func (s *AssetService) ListAssets(ctx context.Context, filter repository.AssetFilter) ([]domain.Asset, error) {
	assets, err := s.assets.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return assets, nil
}

// ChangeStatus transitions an asset and runs the reaction rule. A write that
// does not change the status is rejected locally (no event, no ticket, no
// error). The status update and any reaction ticket share one transaction:
// either both land or neither does.
func (s *AssetService) ChangeStatus(ctx context.Context, operatorID, assetID string, newStatus domain.AssetStatus) (*StatusChangeResult, error) {
	asset, err := s.assets.GetByID(ctx, assetID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("asset", map[string]any{"asset_id": assetID})
		}
		return nil, apperrors.MapError(err)
	}
	if asset.Status == newStatus {
		return &StatusChangeResult{Asset: asset}, nil
	}

	occurredAt := s.now()
	change := domain.AssetStatusChange{
		AssetID:        asset.ID,
		AssetTag:       asset.Tag,
		AssetName:      asset.Name,
		Building:       asset.Building,
		Location:       asset.Location,
		PreviousStatus: asset.Status,
		NewStatus:      newStatus,
		OccurredAt:     occurredAt,
	}

	var created *domain.Ticket
	err = s.withinTx(ctx, func(ctx context.Context) error {
		ok, err := s.assets.TransitionStatus(ctx, asset.ID, change.PreviousStatus, newStatus, occurredAt)
		if err != nil {
			return apperrors.MapError(err)
		}
		if !ok {
			return apperrors.NewConflict("asset status changed concurrently", map[string]any{"asset_id": asset.ID})
		}
		ticket, _, err := s.reaction.React(ctx, change)
		if err != nil {
			return err
		}
		created = ticket
		return nil
	})
	if err != nil {
		return nil, err
	}

	asset.Status = newStatus
	asset.StatusChangedAt = occurredAt

	var createdID *string
	if created != nil {
		createdID = &created.ID
		s.metrics.RecordReactionTicket(string(newStatus))
		s.publishEvent(ctx, events.Event{
			Type:     events.EventTicketCreated,
			TicketID: created.ID,
			Actor:    events.Actor{Kind: domain.ActorKindSystem},
			Payload: events.TicketCreatedPayload{
				ReferenceCode: created.ReferenceCode,
				Priority:      created.Priority,
				Building:      created.Building,
				Title:         created.Title,
				AssetID:       created.AssetID,
			},
		})
	}
	s.publishEvent(ctx, events.Event{
		Type:    events.EventAssetStatusChanged,
		AssetID: asset.ID,
		Actor:   operatorActor(operatorID),
		Payload: events.AssetStatusChangedPayload{
			AssetTag:        asset.Tag,
			PreviousStatus:  change.PreviousStatus,
			NewStatus:       newStatus,
			CreatedTicketID: createdID,
		},
	})

	return &StatusChangeResult{Asset: asset, Ticket: created}, nil
}

func (s *AssetService) withinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.txm == nil {
		return fn(ctx)
	}
	return s.txm.WithinTx(ctx, fn)
}

func (s *AssetService) publishEvent(ctx context.Context, event events.Event) {
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
