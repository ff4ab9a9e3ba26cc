package service

import (
	"context"
	"fmt"
	"time"

	"storefront-service/internal/broker"
	"storefront-service/internal/models"
	"storefront-service/internal/store"
	"storefront-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RewardsOrchestrator applies the loyalty and referral side effects of a
// completed order. It runs off the event stream so approval latency stays
// independent of rewards accounting, and every step is idempotent: replayed
// events are dropped by the processed-events gate, a duplicate earn is a
// no-op per order, and referral completion is a one-shot check-and-set.
type RewardsOrchestrator struct {
	store          *store.Store
	loyalty        *LoyaltyService
	referrals      *ReferralService
	eventPublisher *broker.EventPublisher
	logger         *zap.Logger
}

// NewRewardsOrchestrator creates a new rewards orchestrator
func NewRewardsOrchestrator(
	store *store.Store,
	loyalty *LoyaltyService,
	referrals *ReferralService,
	eventPublisher *broker.EventPublisher,
) *RewardsOrchestrator {
	return &RewardsOrchestrator{
		store:          store,
		loyalty:        loyalty,
		referrals:      referrals,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}
}

// HandleOrderCompleted handles an order completion event
func (ro *RewardsOrchestrator) HandleOrderCompleted(ctx context.Context, event *models.OrderCompletedEvent) error {
	ctx, span := util.StartSpan(ctx, "RewardsOrchestrator.HandleOrderCompleted")
	defer span.End()

	processed, err := ro.store.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return fmt.Errorf("failed to check event processed: %w", err)
	}
	if processed {
		ro.logger.Info("Event already processed", zap.String("event_id", event.EventID))
		return nil
	}

	ro.logger.Info("Applying rewards for completed order",
		zap.Int64("order_id", event.OrderID),
		zap.Int64("user_id", event.UserID))

	account, points, err := ro.loyalty.EarnOrderPoints(ctx, event.UserID, event.OrderID, event.TotalAmount)
	if err != nil {
		return fmt.Errorf("failed to earn points: %w", err)
	}

	if points > 0 {
		pointsEvent := &models.PointsEarnedEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypePointsEarned,
				Timestamp: time.Now(),
			},
			UserID:  event.UserID,
			Points:  points,
			Tier:    account.Tier,
			OrderID: event.OrderID,
		}
		if err := ro.eventPublisher.PublishPointsEarned(ctx, pointsEvent); err != nil {
			ro.logger.Error("Failed to publish PointsEarned event", zap.Error(err))
		}
	}

	// Referral completion triggers only on the user's first completed order.
	completedOrders, err := ro.store.CountCompletedOrders(ctx, event.UserID)
	if err != nil {
		return fmt.Errorf("failed to count completed orders: %w", err)
	}
	if completedOrders <= 1 {
		ref, err := ro.referrals.CompleteForUser(ctx, event.UserID)
		if err != nil {
			return err
		}
		if ref != nil {
			refEvent := &models.ReferralCompletedEvent{
				BaseEvent: models.BaseEvent{
					EventID:   uuid.New().String(),
					EventType: models.EventTypeReferralCompleted,
					Timestamp: time.Now(),
				},
				ReferralID: ref.ID,
				ReferrerID: ref.ReferrerID,
				ReferredID: ref.ReferredID,
			}
			if err := ro.eventPublisher.PublishReferralCompleted(ctx, refEvent); err != nil {
				ro.logger.Error("Failed to publish ReferralCompleted event", zap.Error(err))
			}
		}
	}

	if err := ro.store.MarkEventProcessed(ctx, event.EventID, event.EventType); err != nil {
		ro.logger.Error("Failed to mark event processed", zap.Error(err))
	}

	return nil
}
