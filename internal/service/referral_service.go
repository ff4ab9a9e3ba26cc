package service

import (
	"context"
	"fmt"

	"storefront-service/internal/models"
	"storefront-service/internal/store"
	"storefront-service/internal/util"

	"go.uber.org/zap"
)

// ReferralService manages referral registration and completion rewards
type ReferralService struct {
	store   *store.Store
	loyalty *LoyaltyService
	logger  *zap.Logger
}

// NewReferralService creates a new referral service
func NewReferralService(store *store.Store, loyalty *LoyaltyService) *ReferralService {
	return &ReferralService{
		store:   store,
		loyalty: loyalty,
		logger:  util.GetLogger(),
	}
}

// Register records a pending referral at signup. A user can be referred at
// most once and never by themselves.
func (rs *ReferralService) Register(ctx context.Context, referrerID, referredID int64, code string) (*models.Referral, error) {
	ctx, span := util.StartSpan(ctx, "ReferralService.Register")
	defer span.End()

	if referrerID == referredID {
		return nil, fmt.Errorf("self-referral: %w", models.ErrConflict)
	}

	ref := &models.Referral{
		ReferrerID: referrerID,
		ReferredID: referredID,
		Code:       code,
	}
	if err := rs.store.CreateReferral(ctx, ref); err != nil {
		return nil, err
	}

	rs.logger.Info("Referral registered",
		zap.Int64("referrer_id", referrerID),
		zap.Int64("referred_id", referredID),
		zap.String("code", code))

	return ref, nil
}

// CompleteForUser fires on the referred user's first completed order. The
// store performs a check-and-set on reward_given, so calling this any number
// of times awards the points exactly once.
func (rs *ReferralService) CompleteForUser(ctx context.Context, referredID int64) (*models.Referral, error) {
	ctx, span := util.StartSpan(ctx, "ReferralService.CompleteForUser")
	defer span.End()

	ref, completed, err := rs.store.CompleteReferral(ctx, referredID)
	if err != nil {
		return nil, fmt.Errorf("failed to complete referral: %w", err)
	}
	if !completed {
		return nil, nil
	}

	if _, err := rs.loyalty.AwardBonusPoints(ctx, ref.ReferrerID, referrerRewardPoints,
		fmt.Sprintf("Referral reward for inviting user #%d", ref.ReferredID)); err != nil {
		rs.logger.Error("Failed to award referrer points",
			zap.Int64("referral_id", ref.ID),
			zap.Error(err))
	}

	if _, err := rs.loyalty.AwardBonusPoints(ctx, ref.ReferredID, referredBonusPoints,
		"Welcome bonus for joining via referral"); err != nil {
		rs.logger.Error("Failed to award referred bonus",
			zap.Int64("referral_id", ref.ID),
			zap.Error(err))
	}

	util.ReferralsCompletedTotal.Inc()
	rs.logger.Info("Referral completed",
		zap.Int64("referral_id", ref.ID),
		zap.Int64("referrer_id", ref.ReferrerID),
		zap.Int64("referred_id", ref.ReferredID))

	return ref, nil
}

// ListByReferrer retrieves a user's referrals
func (rs *ReferralService) ListByReferrer(ctx context.Context, referrerID int64) ([]models.Referral, error) {
	return rs.store.GetReferralsByReferrerID(ctx, referrerID)
}
