package worker

import (
	"context"
	"time"

	"storefront-service/internal/broker"
	"storefront-service/internal/models"
	"storefront-service/internal/redisclient"
	"storefront-service/internal/service"
	"storefront-service/internal/util"

	"go.uber.org/zap"
)

// RewardsWorker consumes order-completion events and applies loyalty and
// referral side effects through the orchestrator.
type RewardsWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	logger       *zap.Logger
}

// NewRewardsWorker creates a new rewards worker
func NewRewardsWorker(
	consumer *broker.Consumer,
	orchestrator *service.RewardsOrchestrator,
) *RewardsWorker {
	eventHandler := broker.NewEventHandler()
	eventHandler.OnOrderCompleted(orchestrator.HandleOrderCompleted)

	return &RewardsWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
		logger:       util.GetLogger(),
	}
}

// Start starts the worker
func (w *RewardsWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting rewards worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *RewardsWorker) Stop() error {
	w.logger.Info("Stopping rewards worker")
	return w.consumer.Close()
}

// NotificationWorker consumes order outcome events and emits one user
// notification per order, deduplicated through Redis.
type NotificationWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	redis        *redisclient.Client
	logger       *zap.Logger
}

// notifiedTTL bounds how long dedup markers are kept
const notifiedTTL = 7 * 24 * time.Hour

// NewNotificationWorker creates a new notification worker
func NewNotificationWorker(consumer *broker.Consumer, redis *redisclient.Client) *NotificationWorker {
	nw := &NotificationWorker{
		consumer: consumer,
		redis:    redis,
		logger:   util.GetLogger(),
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnOrderCompleted(func(ctx context.Context, event *models.OrderCompletedEvent) error {
		return nw.notify(ctx, event.UserID, event.OrderID, "order completed")
	})
	eventHandler.OnOrderCancelled(func(ctx context.Context, event *models.OrderCancelledEvent) error {
		return nw.notify(ctx, event.UserID, event.OrderID, "order cancelled: "+event.Reason)
	})
	nw.eventHandler = eventHandler

	return nw
}

// notify records delivery intent once per user/order pair. Delivery itself is
// out of scope; downstream channels hang off the log stream.
func (nw *NotificationWorker) notify(ctx context.Context, userID, orderID int64, message string) error {
	first, err := nw.redis.MarkNotified(ctx, userID, orderID, notifiedTTL)
	if err != nil {
		return err
	}
	if !first {
		return nil
	}

	nw.logger.Info("User notification",
		zap.Int64("user_id", userID),
		zap.Int64("order_id", orderID),
		zap.String("message", message))
	return nil
}

// Start starts the notification worker
func (nw *NotificationWorker) Start(ctx context.Context) error {
	nw.logger.Info("Starting notification worker")
	return nw.consumer.StartConsuming(ctx, nw.eventHandler.HandleMessage)
}

// Stop stops the notification worker
func (nw *NotificationWorker) Stop() error {
	nw.logger.Info("Stopping notification worker")
	return nw.consumer.Close()
}

// MembershipSweeper expires premium memberships past their expiry timestamp
type MembershipSweeper struct {
	memberships *service.MembershipService
	interval    time.Duration
	logger      *zap.Logger
}

// NewMembershipSweeper creates a new sweeper
func NewMembershipSweeper(memberships *service.MembershipService, interval time.Duration) *MembershipSweeper {
	return &MembershipSweeper{
		memberships: memberships,
		interval:    interval,
		logger:      util.GetLogger(),
	}
}

// Start runs the sweep loop until the context is cancelled
func (s *MembershipSweeper) Start(ctx context.Context) error {
	s.logger.Info("Starting membership sweeper", zap.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Membership sweeper stopping")
			return ctx.Err()
		case <-ticker.C:
			count, err := s.memberships.ExpireDue(ctx, time.Now())
			if err != nil {
				s.logger.Error("Membership sweep failed", zap.Error(err))
				continue
			}
			if count > 0 {
				s.logger.Info("Memberships expired", zap.Int("count", count))
			}
		}
	}
}
