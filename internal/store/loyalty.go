package store

import (
	"context"
	"database/sql"
	"fmt"

	"storefront-service/internal/models"
)

// GetLoyaltyAccount retrieves a user's loyalty account
func (s *Store) GetLoyaltyAccount(ctx context.Context, userID int64) (*models.LoyaltyAccount, error) {
	var account models.LoyaltyAccount
	err := s.db.GetContext(ctx, &account,
		"SELECT * FROM loyalty_accounts WHERE user_id = $1", userID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("loyalty account for user %d: %w", userID, models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// CreditPoints adds points to a user's balance and lifetime total, creating
// the account lazily on first earn, and records the signed transaction. The
// tier is recomputed from the resulting lifetime total.
func (s *Store) CreditPoints(ctx context.Context, txn *models.PointTransaction, tierFor func(lifetime int64) string) (*models.LoyaltyAccount, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var account models.LoyaltyAccount
	err = tx.GetContext(ctx, &account, `
		INSERT INTO loyalty_accounts (user_id, total_points, lifetime_points, tier)
		VALUES ($1, $2, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET total_points = loyalty_accounts.total_points + $2,
			lifetime_points = loyalty_accounts.lifetime_points + $2,
			updated_at = NOW()
		RETURNING *`,
		txn.UserID, txn.Points, models.TierBronze)
	if err != nil {
		return nil, fmt.Errorf("failed to credit points: %w", err)
	}

	account.Tier = tierFor(account.LifetimePoints)
	_, err = tx.ExecContext(ctx,
		"UPDATE loyalty_accounts SET tier = $1 WHERE user_id = $2",
		account.Tier, txn.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to update tier: %w", err)
	}

	err = tx.GetContext(ctx, &txn.ID, `
		INSERT INTO point_transactions (user_id, points, type, description, order_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		txn.UserID, txn.Points, txn.Type, txn.Description, txn.OrderID)
	if err != nil {
		return nil, fmt.Errorf("failed to record point transaction: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &account, nil
}

// DebitPoints deducts points only when the balance covers the cost. Zero rows
// affected means insufficient balance; the balance can never go negative.
func (s *Store) DebitPoints(ctx context.Context, txn *models.PointTransaction) error {
	if txn.Points >= 0 {
		return fmt.Errorf("debit must be negative: %w", models.ErrValidation)
	}
	cost := -txn.Points

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE loyalty_accounts
		SET total_points = total_points - $1, updated_at = NOW()
		WHERE user_id = $2 AND total_points >= $1`,
		cost, txn.UserID)
	if err != nil {
		return fmt.Errorf("failed to debit points: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("user %d needs %d points: %w", txn.UserID, cost, models.ErrInsufficientPoints)
	}

	err = tx.GetContext(ctx, &txn.ID, `
		INSERT INTO point_transactions (user_id, points, type, description, order_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		txn.UserID, txn.Points, txn.Type, txn.Description, txn.OrderID)
	if err != nil {
		return fmt.Errorf("failed to record point transaction: %w", err)
	}

	return tx.Commit()
}

// GetPointTransactions retrieves a user's point history, newest first
func (s *Store) GetPointTransactions(ctx context.Context, userID int64) ([]models.PointTransaction, error) {
	var txns []models.PointTransaction
	err := s.db.SelectContext(ctx, &txns,
		"SELECT * FROM point_transactions WHERE user_id = $1 ORDER BY created_at DESC", userID)
	return txns, err
}

// HasEarnTransactionForOrder reports whether an earn was already recorded for
// an order, gating replayed order-completed events.
func (s *Store) HasEarnTransactionForOrder(ctx context.Context, orderID int64) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM point_transactions WHERE order_id = $1 AND type = $2)",
		orderID, models.PointTypeEarned)
	return exists, err
}

// CreateCoupon issues a coupon
func (s *Store) CreateCoupon(ctx context.Context, coupon *models.Coupon) error {
	query := `
		INSERT INTO coupons (user_id, code, value)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	return s.db.GetContext(ctx, coupon, query, coupon.UserID, coupon.Code, coupon.Value)
}

// GetCouponsByUserID retrieves a user's coupons
func (s *Store) GetCouponsByUserID(ctx context.Context, userID int64) ([]models.Coupon, error) {
	var coupons []models.Coupon
	err := s.db.SelectContext(ctx, &coupons,
		"SELECT * FROM coupons WHERE user_id = $1 ORDER BY created_at DESC", userID)
	return coupons, err
}
