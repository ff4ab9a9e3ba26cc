package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"storefront-service/internal/models"
)

// CreateMembership inserts a pending premium membership request
func (s *Store) CreateMembership(ctx context.Context, m *models.PremiumMembership) error {
	query := `
		INSERT INTO premium_memberships (user_id, plan_type, status, price_paid, payment_proof)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`

	return s.db.GetContext(ctx, m, query,
		m.UserID, m.PlanType, models.MembershipStatusPending, m.PricePaid, m.PaymentProof)
}

// GetMembershipByID retrieves a membership by ID
func (s *Store) GetMembershipByID(ctx context.Context, id int64) (*models.PremiumMembership, error) {
	var m models.PremiumMembership
	err := s.db.GetContext(ctx, &m, "SELECT * FROM premium_memberships WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("membership %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// GetMembershipsByUserID retrieves a user's memberships
func (s *Store) GetMembershipsByUserID(ctx context.Context, userID int64) ([]models.PremiumMembership, error) {
	var ms []models.PremiumMembership
	err := s.db.SelectContext(ctx, &ms,
		"SELECT * FROM premium_memberships WHERE user_id = $1 ORDER BY created_at DESC", userID)
	return ms, err
}

// UpdateMembershipStatus sets status and optional rejection reason
func (s *Store) UpdateMembershipStatus(ctx context.Context, id int64, status, reason string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE premium_memberships
		SET status = $1, rejection_reason = NULLIF($2, ''), updated_at = NOW()
		WHERE id = $3`,
		status, reason, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("membership %d: %w", id, models.ErrNotFound)
	}
	return nil
}

// SetMembershipExpiry sets the expiry timestamp
func (s *Store) SetMembershipExpiry(ctx context.Context, id int64, expiresAt time.Time) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE premium_memberships SET expires_at = $1, updated_at = NOW() WHERE id = $2",
		expiresAt, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("membership %d: %w", id, models.ErrNotFound)
	}
	return nil
}

// DeleteMembership removes a membership
func (s *Store) DeleteMembership(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM premium_memberships WHERE id = $1", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("membership %d: %w", id, models.ErrNotFound)
	}
	return nil
}

// ExpireMemberships flips approved memberships past their expiry to expired
// and returns them so the sweeper can publish events.
func (s *Store) ExpireMemberships(ctx context.Context, now time.Time) ([]models.PremiumMembership, error) {
	var expired []models.PremiumMembership
	err := s.db.SelectContext(ctx, &expired, `
		UPDATE premium_memberships
		SET status = $1, updated_at = NOW()
		WHERE status = $2 AND expires_at IS NOT NULL AND expires_at < $3
		RETURNING *`,
		models.MembershipStatusExpired, models.MembershipStatusApproved, now)
	return expired, err
}
