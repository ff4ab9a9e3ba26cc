package store

import (
	"context"
	"database/sql"
	"fmt"

	"storefront-service/internal/models"

	"github.com/lib/pq"
)

// CreateReferral records a pending referral at signup. The unique index on
// referred_id makes a second referral of the same user a conflict.
func (s *Store) CreateReferral(ctx context.Context, ref *models.Referral) error {
	query := `
		INSERT INTO referrals (referrer_id, referred_id, code, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, status, created_at`

	err := s.db.GetContext(ctx, ref, query,
		ref.ReferrerID, ref.ReferredID, ref.Code, models.ReferralStatusPending)
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
		return fmt.Errorf("user %d already referred: %w", ref.ReferredID, models.ErrConflict)
	}
	return err
}

// GetPendingReferralByReferredID finds the pending referral for a user, if any
func (s *Store) GetPendingReferralByReferredID(ctx context.Context, referredID int64) (*models.Referral, error) {
	var ref models.Referral
	err := s.db.GetContext(ctx, &ref,
		"SELECT * FROM referrals WHERE referred_id = $1 AND status = $2",
		referredID, models.ReferralStatusPending)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ref, nil
}

// CompleteReferral marks a pending referral completed with its reward given.
// The check-and-set WHERE clause makes completion idempotent: a second caller
// sees zero rows and gets ok=false.
func (s *Store) CompleteReferral(ctx context.Context, referredID int64) (*models.Referral, bool, error) {
	var ref models.Referral
	err := s.db.GetContext(ctx, &ref, `
		UPDATE referrals
		SET status = $1, reward_given = TRUE, completed_at = NOW()
		WHERE referred_id = $2 AND status = $3 AND NOT reward_given
		RETURNING *`,
		models.ReferralStatusCompleted, referredID, models.ReferralStatusPending)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &ref, true, nil
}

// GetReferralsByReferrerID retrieves all referrals made by a user
func (s *Store) GetReferralsByReferrerID(ctx context.Context, referrerID int64) ([]models.Referral, error) {
	var refs []models.Referral
	err := s.db.SelectContext(ctx, &refs,
		"SELECT * FROM referrals WHERE referrer_id = $1 ORDER BY created_at DESC", referrerID)
	return refs, err
}
