package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront-service/internal/broker"
	"storefront-service/internal/models"
	"storefront-service/internal/store"
	"storefront-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FulfillmentService runs the order approval workflow. Each side effect is
// gated by a persisted fulfillment step, so a retried approval resumes where
// it stopped instead of double-applying stock claims.
type FulfillmentService struct {
	store          *store.Store
	stockClient    *StockClient
	eventPublisher *broker.EventPublisher
	logger         *zap.Logger
	fulfillers     map[string]fulfillFunc
}

// fulfillFunc claims whatever stock a delivery type consumes and returns the
// credentials payload to attach, plus a compensation to run if the approval
// fails afterwards.
type fulfillFunc func(ctx context.Context, order *models.Order, product *models.Product) (credentials string, compensate func(), err error)

// NewFulfillmentService creates a new fulfillment service
func NewFulfillmentService(
	store *store.Store,
	stockClient *StockClient,
	eventPublisher *broker.EventPublisher,
) *FulfillmentService {
	fs := &FulfillmentService{
		store:          store,
		stockClient:    stockClient,
		eventPublisher: eventPublisher,
		logger:         util.GetLogger(),
	}

	// Closed dispatch table over delivery types: key-backed deliveries
	// consume a stock key, manual activation only a manual counter.
	fs.fulfillers = map[string]fulfillFunc{
		models.DeliveryCredentials:      fs.fulfillWithKey,
		models.DeliveryCouponCode:       fs.fulfillWithKey,
		models.DeliveryInstantKey:       fs.fulfillWithKey,
		models.DeliveryManualActivation: fs.fulfillManual,
	}

	return fs
}

// ApproveOrder completes an order: claims stock per the product's delivery
// type, attaches credentials and transitions to COMPLETED. When no stock is
// available the approval fails with ErrOutOfStock and the order stays put —
// an order is never completed without its stock effect.
func (fs *FulfillmentService) ApproveOrder(ctx context.Context, orderID int64, adminCredentials string) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "FulfillmentService.ApproveOrder")
	defer span.End()

	start := time.Now()
	defer func() {
		util.FulfillmentLatency.Observe(time.Since(start).Seconds())
	}()

	order, err := fs.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !models.ValidOrderTransition(order.Status, models.OrderStatusCompleted) {
		return nil, fmt.Errorf("order %d is %s: %w", orderID, order.Status, models.ErrInvalidTransition)
	}

	credentials := adminCredentials
	compensate := func() {}

	if order.ProductID.Valid {
		product, err := fs.store.GetProductByID(ctx, order.ProductID.Int64)
		if err != nil {
			return nil, err
		}

		fulfill, ok := fs.fulfillers[product.DeliveryType]
		if !ok {
			return nil, fmt.Errorf("unknown delivery type %q: %w", product.DeliveryType, models.ErrValidation)
		}

		keyCredentials, comp, err := fulfill(ctx, order, product)
		if err != nil {
			util.OrdersFailedTotal.WithLabelValues("stock_unavailable").Inc()
			return nil, err
		}
		compensate = comp
		if credentials == "" {
			credentials = keyCredentials
		}
	}

	if credentials != "" {
		if err := fs.store.SetOrderCredentials(ctx, orderID, credentials); err != nil {
			compensate()
			return nil, fmt.Errorf("failed to attach credentials: %w", err)
		}
	}

	if err := fs.store.TransitionOrderStatus(ctx, orderID, order.Status, models.OrderStatusCompleted); err != nil {
		compensate()
		return nil, err
	}

	if _, err := fs.store.MarkFulfillmentStep(ctx, orderID, models.StepOrderComplete); err != nil {
		fs.logger.Error("Failed to record completion step", zap.Error(err))
	}

	util.OrdersCompletedTotal.Inc()
	fs.logger.Info("Order approved",
		zap.Int64("order_id", orderID),
		zap.Int64("user_id", order.UserID))

	event := &models.OrderCompletedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderCompleted,
			Timestamp: time.Now(),
		},
		OrderID:     orderID,
		UserID:      order.UserID,
		ProductID:   order.ProductID.Int64,
		TotalAmount: order.TotalAmount,
	}

	if err := fs.eventPublisher.PublishOrderCompleted(ctx, event); err != nil {
		fs.logger.Error("Failed to publish OrderCompleted event", zap.Error(err))
	}

	return fs.store.GetOrderByID(ctx, orderID)
}

// fulfillWithKey claims one stock key for the order
func (fs *FulfillmentService) fulfillWithKey(ctx context.Context, order *models.Order, product *models.Product) (string, func(), error) {
	fresh, err := fs.store.MarkFulfillmentStep(ctx, order.ID, models.StepKeyAssigned)
	if err != nil {
		return "", nil, err
	}
	if !fresh {
		// Resumed approval: reuse the key claimed on a previous attempt.
		key, err := fs.store.GetStockKeyByOrderID(ctx, order.ID)
		if err == nil {
			return key.Payload, func() {}, nil
		}
		if !errors.Is(err, models.ErrNotFound) {
			return "", nil, err
		}
		// Step was recorded but the claim never landed (crash between the
		// two writes). Claim now; SKIP LOCKED keeps the assignment unique
		// regardless.
	}

	key, err := fs.stockClient.ClaimKey(ctx, product.ID, order.ID, order.UserID)
	if err != nil {
		if cerr := fs.store.ClearFulfillmentStep(ctx, order.ID, models.StepKeyAssigned); cerr != nil {
			fs.logger.Error("Failed to clear key step", zap.Error(cerr))
		}
		return "", nil, err
	}

	compensate := func() {
		if err := fs.stockClient.ReleaseKey(ctx, key.ID); err != nil {
			fs.logger.Error("Failed to release key during compensation",
				zap.Int64("key_id", key.ID),
				zap.Error(err))
		}
		if err := fs.store.ClearFulfillmentStep(ctx, order.ID, models.StepKeyAssigned); err != nil {
			fs.logger.Error("Failed to clear key step", zap.Error(err))
		}
	}
	return key.Payload, compensate, nil
}

// fulfillManual decrements the manual stock counter when the product uses one
func (fs *FulfillmentService) fulfillManual(ctx context.Context, order *models.Order, product *models.Product) (string, func(), error) {
	if !product.UseManualStock {
		return "", func() {}, nil
	}

	fresh, err := fs.store.MarkFulfillmentStep(ctx, order.ID, models.StepStockClaimed)
	if err != nil {
		return "", nil, err
	}
	if !fresh {
		return "", func() {}, nil
	}

	if err := fs.stockClient.ClaimManualStock(ctx, product.ID); err != nil {
		if cerr := fs.store.ClearFulfillmentStep(ctx, order.ID, models.StepStockClaimed); cerr != nil {
			fs.logger.Error("Failed to clear stock step", zap.Error(cerr))
		}
		return "", nil, err
	}

	compensate := func() {
		if err := fs.stockClient.ReleaseManualStock(ctx, product.ID); err != nil {
			fs.logger.Error("Failed to release stock during compensation",
				zap.Int64("product_id", product.ID),
				zap.Error(err))
		}
		if err := fs.store.ClearFulfillmentStep(ctx, order.ID, models.StepStockClaimed); err != nil {
			fs.logger.Error("Failed to clear stock step", zap.Error(err))
		}
	}
	return "", compensate, nil
}
