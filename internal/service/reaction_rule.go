package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/facility-ops/internal/domain"
	"github.com/spec-kit/facility-ops/internal/repository"
	apperrors "github.com/spec-kit/facility-ops/pkg/util"
)

// OnceGuard claims a key exactly once within a retention window. Used to
// suppress redelivered asset-status events.
type OnceGuard interface {
	AcquireOnce(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

// ReactionRule auto-opens a ticket when an asset degrades. It is the only
// place the asset and ticket domains interact.
type ReactionRule struct {
	tickets  repository.TicketRepository
	guard    OnceGuard
	guardTTL time.Duration
	logger   *zap.Logger
}

// NewReactionRule constructs the rule. guard may be nil when the event
// source already guarantees exactly-once delivery.
func NewReactionRule(tickets repository.TicketRepository, guard OnceGuard, guardTTL time.Duration, logger *zap.Logger) *ReactionRule {
	return &ReactionRule{
		tickets:  tickets,
		guard:    guard,
		guardTTL: guardTTL,
		logger:   logger,
	}
}

// reactionPriority maps the degraded status to ticket severity. Statuses
// outside this table never open tickets.
func reactionPriority(status domain.AssetStatus) (domain.TicketPriority, bool) {
	switch status {
	case domain.AssetStatusBreakdown:
		return domain.TicketPriorityP1, true
	case domain.AssetStatusInMaintenance:
		return domain.TicketPriorityP2, true
	default:
		return "", false
	}
}

// React synthesizes at most one ticket for a qualifying transition and
// returns it. A transition that did not actually change status, a
// non-qualifying target status, or a redelivered event all return created
// false with no error.
func (r *ReactionRule) React(ctx context.Context, change domain.AssetStatusChange) (*domain.Ticket, bool, error) {
	if change.PreviousStatus == change.NewStatus {
		return nil, false, nil
	}
	priority, ok := reactionPriority(change.NewStatus)
	if !ok {
		return nil, false, nil
	}

	if r.guard != nil {
		key := fmt.Sprintf("asset-reaction:%s:%s:%s:%d",
			change.AssetID, change.PreviousStatus, change.NewStatus, change.OccurredAt.Unix())
		first, err := r.guard.AcquireOnce(ctx, key, r.guardTTL)
		if err != nil {
			// the guard is a local recoverable check; losing it must not
			// block breakdown tickets
			r.logger.Warn("reaction dedup guard unavailable", zap.Error(err), zap.String("asset_id", change.AssetID))
		} else if !first {
			r.logger.Info("duplicate asset status event suppressed",
				zap.String("asset_id", change.AssetID),
				zap.String("new_status", string(change.NewStatus)))
			return nil, false, nil
		}
	}

	ticket := &domain.Ticket{
		ReferenceCode: generateTicketReference(),
		Title:         fmt.Sprintf("%s: %s (%s)", reactionTitle(change.NewStatus), change.AssetName, change.AssetTag),
		Description: fmt.Sprintf("Auto-opened by asset status change: %s (%s) moved from %s to %s.",
			change.AssetName, change.AssetTag, change.PreviousStatus, change.NewStatus),
		Status:      domain.TicketStatusOpen,
		Priority:    priority,
		CurrentTier: 0,
		Building:    change.Building,
		Location:    change.Location,
		AssetID:     &change.AssetID,
	}
	if err := r.tickets.Create(ctx, ticket); err != nil {
		return nil, false, apperrors.MapError(err)
	}

	r.logger.Info("reaction ticket created",
		zap.String("ticket_reference", ticket.ReferenceCode),
		zap.String("asset_id", change.AssetID),
		zap.String("priority", string(priority)))
	return ticket, true, nil
}

func reactionTitle(status domain.AssetStatus) string {
	if status == domain.AssetStatusBreakdown {
		return "Breakdown reported"
	}
	return "Maintenance started"
}
