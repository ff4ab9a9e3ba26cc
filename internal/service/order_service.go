package service

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"time"

	"storefront-service/internal/broker"
	"storefront-service/internal/models"
	"storefront-service/internal/storage"
	"storefront-service/internal/store"
	"storefront-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderService drives an order from checkout to submission. Approval and
// rejection live in the fulfillment service.
type OrderService struct {
	store          *store.Store
	eventPublisher *broker.EventPublisher
	flashSale      *FlashSaleService
	uploader       storage.Uploader
	maxUploadSize  int64
	logger         *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(
	store *store.Store,
	eventPublisher *broker.EventPublisher,
	flashSale *FlashSaleService,
	uploader storage.Uploader,
	maxUploadSize int64,
) *OrderService {
	return &OrderService{
		store:          store,
		eventPublisher: eventPublisher,
		flashSale:      flashSale,
		uploader:       uploader,
		maxUploadSize:  maxUploadSize,
		logger:         util.GetLogger(),
	}
}

// CreateOrderRequest represents a checkout request
type CreateOrderRequest struct {
	UserID         int64  `json:"user_id" binding:"required"`
	ProductID      int64  `json:"product_id"`
	VariantID      int64  `json:"variant_id"`
	BundleID       int64  `json:"bundle_id"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// CreateOrderResponse represents the response after creating an order
type CreateOrderResponse struct {
	OrderID     int64  `json:"order_id"`
	Status      string `json:"status"`
	TotalAmount int64  `json:"total_amount"`
}

// CreateOrder validates the product or bundle, resolves the price (variant
// over product, flash discount applied server-side) and inserts a PENDING
// order. The total is fixed at creation and never recomputed.
func (os *OrderService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*CreateOrderResponse, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CreateOrder")
	defer span.End()

	if req.ProductID == 0 && req.BundleID == 0 {
		return nil, fmt.Errorf("product_id or bundle_id required: %w", models.ErrValidation)
	}

	if req.IdempotencyKey == "" {
		req.IdempotencyKey = uuid.New().String()
	}

	existingOrder, err := os.store.GetOrderByIdempotencyKey(ctx, req.IdempotencyKey)
	if err != nil {
		return nil, fmt.Errorf("failed to check idempotency: %w", err)
	}
	if existingOrder != nil {
		os.logger.Info("Duplicate order request detected",
			zap.String("idempotency_key", req.IdempotencyKey),
			zap.Int64("order_id", existingOrder.ID))
		return &CreateOrderResponse{
			OrderID:     existingOrder.ID,
			Status:      existingOrder.Status,
			TotalAmount: existingOrder.TotalAmount,
		}, nil
	}

	order := &models.Order{
		UserID: req.UserID,
		Status: models.OrderStatusPending,
	}

	switch {
	case req.BundleID != 0:
		bundle, err := os.store.GetBundleByID(ctx, req.BundleID)
		if err != nil {
			return nil, err
		}
		if !bundle.IsActive {
			return nil, fmt.Errorf("bundle %d inactive: %w", bundle.ID, models.ErrNotFound)
		}
		if bundle.ValidUntil.Valid && time.Now().After(bundle.ValidUntil.Time) {
			return nil, fmt.Errorf("bundle %d expired: %w", bundle.ID, models.ErrValidation)
		}
		order.BundleID = sql.NullInt64{Int64: bundle.ID, Valid: true}
		order.TotalAmount = bundle.SalePrice

	default:
		product, err := os.store.GetProductByID(ctx, req.ProductID)
		if err != nil {
			return nil, err
		}
		if !product.IsActive {
			return nil, fmt.Errorf("product %d inactive: %w", product.ID, models.ErrNotFound)
		}
		order.ProductID = sql.NullInt64{Int64: product.ID, Valid: true}

		// Variant price overrides the product sale price; the product's
		// active flash discount applies to either base.
		basePrice := product.SalePrice
		if req.VariantID != 0 {
			variant, err := os.store.GetVariantByID(ctx, req.VariantID)
			if err != nil {
				return nil, err
			}
			if variant.ProductID != product.ID {
				return nil, fmt.Errorf("variant %d not of product %d: %w",
					variant.ID, product.ID, models.ErrValidation)
			}
			order.VariantID = sql.NullInt64{Int64: variant.ID, Valid: true}
			basePrice = variant.Price
		}

		price, err := os.flashSale.PriceFor(ctx, product.ID, basePrice, time.Now())
		if err != nil {
			os.logger.Warn("Flash sale lookup failed, using base price", zap.Error(err))
			price = basePrice
		}
		order.TotalAmount = price
	}

	order.IdempotencyKey = req.IdempotencyKey
	if err := os.store.CreateOrder(ctx, order); err != nil {
		util.OrdersFailedTotal.WithLabelValues("db_error").Inc()
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	util.OrdersCreatedTotal.Inc()
	os.logger.Info("Order created",
		zap.Int64("order_id", order.ID),
		zap.Int64("user_id", order.UserID),
		zap.Int64("total_amount", order.TotalAmount))

	event := &models.OrderCreatedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderCreated,
			Timestamp: time.Now(),
		},
		OrderID:     order.ID,
		UserID:      order.UserID,
		ProductID:   order.ProductID.Int64,
		BundleID:    order.BundleID.Int64,
		TotalAmount: order.TotalAmount,
	}

	if err := os.eventPublisher.PublishOrderCreated(ctx, event); err != nil {
		os.logger.Error("Failed to publish OrderCreated event", zap.Error(err))
	}

	return &CreateOrderResponse{
		OrderID:     order.ID,
		Status:      order.Status,
		TotalAmount: order.TotalAmount,
	}, nil
}

// AttachPaymentProof validates and stores the payment screenshot, then moves
// the order PENDING -> SUBMITTED.
func (os *OrderService) AttachPaymentProof(ctx context.Context, orderID int64, filename, contentType string, size int64, r io.Reader) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.AttachPaymentProof")
	defer span.End()

	order, err := os.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderStatusPending {
		return nil, fmt.Errorf("order %d is %s: %w", orderID, order.Status, models.ErrInvalidTransition)
	}

	if err := storage.ValidateUpload(contentType, size, os.maxUploadSize); err != nil {
		util.UploadsTotal.WithLabelValues(storage.KindPaymentProof, "rejected").Inc()
		return nil, err
	}

	url, err := os.uploader.Save(ctx, storage.KindPaymentProof, filename, contentType, size, r)
	if err != nil {
		util.UploadsTotal.WithLabelValues(storage.KindPaymentProof, "error").Inc()
		return nil, err
	}
	util.UploadsTotal.WithLabelValues(storage.KindPaymentProof, "stored").Inc()

	if err := os.store.SetOrderPaymentScreenshot(ctx, orderID, url); err != nil {
		return nil, fmt.Errorf("failed to record payment proof: %w", err)
	}

	if err := os.store.TransitionOrderStatus(ctx, orderID,
		models.OrderStatusPending, models.OrderStatusSubmitted); err != nil {
		return nil, err
	}

	util.OrdersSubmittedTotal.Inc()
	os.logger.Info("Payment proof submitted",
		zap.Int64("order_id", orderID),
		zap.String("url", url))

	event := &models.OrderSubmittedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderSubmitted,
			Timestamp: time.Now(),
		},
		OrderID:  orderID,
		UserID:   order.UserID,
		ProofURL: url,
	}

	if err := os.eventPublisher.PublishOrderSubmitted(ctx, event); err != nil {
		os.logger.Error("Failed to publish OrderSubmitted event", zap.Error(err))
	}

	return os.store.GetOrderByID(ctx, orderID)
}

// RejectOrder moves a PENDING or SUBMITTED order to CANCELLED with a reason.
// No other ledger is touched.
func (os *OrderService) RejectOrder(ctx context.Context, orderID int64, reason string) error {
	ctx, span := util.StartSpan(ctx, "OrderService.RejectOrder")
	defer span.End()

	order, err := os.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return err
	}

	if err := os.store.TransitionOrderStatus(ctx, orderID, order.Status, models.OrderStatusCancelled); err != nil {
		return err
	}
	if err := os.store.SetOrderCancellationReason(ctx, orderID, reason); err != nil {
		return fmt.Errorf("failed to record cancellation reason: %w", err)
	}

	util.OrdersCancelledTotal.Inc()
	os.logger.Info("Order rejected",
		zap.Int64("order_id", orderID),
		zap.String("reason", reason))

	event := &models.OrderCancelledEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderCancelled,
			Timestamp: time.Now(),
		},
		OrderID: orderID,
		UserID:  order.UserID,
		Reason:  reason,
	}

	if err := os.eventPublisher.PublishOrderCancelled(ctx, event); err != nil {
		os.logger.Error("Failed to publish OrderCancelled event", zap.Error(err))
	}

	return nil
}

// DeleteOrder removes an order outright, any status
func (os *OrderService) DeleteOrder(ctx context.Context, orderID int64) error {
	return os.store.DeleteOrder(ctx, orderID)
}

// GetOrder retrieves an order by ID
func (os *OrderService) GetOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	return os.store.GetOrderByID(ctx, orderID)
}

// ListUserOrders retrieves a user's orders, newest first
func (os *OrderService) ListUserOrders(ctx context.Context, userID int64) ([]models.Order, error) {
	return os.store.GetOrdersByUserID(ctx, userID)
}
