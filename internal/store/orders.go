package store

import (
	"context"
	"database/sql"
	"fmt"

	"storefront-service/internal/models"
)

// CreateOrder creates a new order
func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	query := `
		INSERT INTO orders (user_id, product_id, variant_id, bundle_id, status, total_amount, idempotency_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	return s.db.GetContext(ctx, order, query,
		order.UserID, order.ProductID, order.VariantID, order.BundleID,
		order.Status, order.TotalAmount, order.IdempotencyKey)
}

// GetOrderByID retrieves an order by ID
func (s *Store) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("order %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderByIdempotencyKey retrieves an order by idempotency key
func (s *Store) GetOrderByIdempotencyKey(ctx context.Context, key string) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE idempotency_key = $1", key)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrdersByUserID retrieves orders for a user
func (s *Store) GetOrdersByUserID(ctx context.Context, userID int64) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders WHERE user_id = $1 ORDER BY created_at DESC", userID)
	return orders, err
}

// TransitionOrderStatus moves an order between statuses only along the legal
// edge. The compare-and-set WHERE clause makes concurrent transitions of the
// same order race-safe: exactly one caller wins, the rest see zero rows.
func (s *Store) TransitionOrderStatus(ctx context.Context, orderID int64, from, to string) error {
	if !models.ValidOrderTransition(from, to) {
		return fmt.Errorf("order %d: %s -> %s: %w", orderID, from, to, models.ErrInvalidTransition)
	}

	res, err := s.db.ExecContext(ctx,
		"UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3",
		to, orderID, from)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("order %d no longer %s: %w", orderID, from, models.ErrInvalidTransition)
	}
	return nil
}

// SetOrderPaymentScreenshot records the stored proof URL
func (s *Store) SetOrderPaymentScreenshot(ctx context.Context, orderID int64, url string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE orders SET payment_screenshot = $1, updated_at = NOW() WHERE id = $2",
		url, orderID)
	return err
}

// SetOrderCredentials attaches the fulfillment credentials payload
func (s *Store) SetOrderCredentials(ctx context.Context, orderID int64, credentials string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE orders SET credentials = $1, updated_at = NOW() WHERE id = $2",
		credentials, orderID)
	return err
}

// SetOrderCancellationReason records why an order was rejected
func (s *Store) SetOrderCancellationReason(ctx context.Context, orderID int64, reason string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE orders SET cancellation_reason = $1, updated_at = NOW() WHERE id = $2",
		reason, orderID)
	return err
}

// DeleteOrder removes an order
func (s *Store) DeleteOrder(ctx context.Context, orderID int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM orders WHERE id = $1", orderID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("order %d: %w", orderID, models.ErrNotFound)
	}
	return nil
}

// CountCompletedOrders counts a user's COMPLETED orders
func (s *Store) CountCompletedOrders(ctx context.Context, userID int64) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM orders WHERE user_id = $1 AND status = $2",
		userID, models.OrderStatusCompleted)
	return count, err
}

// IsEventProcessed checks if an event has been processed
func (s *Store) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM processed_events WHERE event_id = $1)", eventID)
	return exists, err
}

// MarkEventProcessed marks an event as processed
func (s *Store) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO processed_events (event_id, event_type) VALUES ($1, $2) ON CONFLICT (event_id) DO NOTHING",
		eventID, eventType)
	return err
}

// MarkFulfillmentStep records a completed approval step. Returns false when
// the step was already recorded, which tells a replayed approval to skip it.
func (s *Store) MarkFulfillmentStep(ctx context.Context, orderID int64, step string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO fulfillment_steps (order_id, step) VALUES ($1, $2) ON CONFLICT (order_id, step) DO NOTHING",
		orderID, step)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ClearFulfillmentStep removes a step record after compensation
func (s *Store) ClearFulfillmentStep(ctx context.Context, orderID int64, step string) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM fulfillment_steps WHERE order_id = $1 AND step = $2", orderID, step)
	return err
}
