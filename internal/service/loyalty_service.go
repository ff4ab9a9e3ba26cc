package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"storefront-service/internal/models"
	"storefront-service/internal/store"
	"storefront-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Points accrue at one point per ten currency units of order value.
const pointsDivisor = 10

// Tier thresholds on lifetime points
const (
	tierSilverMin   = 500
	tierGoldMin     = 1500
	tierPlatinumMin = 5000
)

// Referral rewards
const (
	referrerRewardPoints = 100
	referredBonusPoints  = 50
)

// LoyaltyService handles point accounting and coupon redemption
type LoyaltyService struct {
	store            *store.Store
	logger           *zap.Logger
	couponPointsCost int64
	couponValue      int64
}

// NewLoyaltyService creates a new loyalty service
func NewLoyaltyService(store *store.Store, couponPointsCost, couponValue int64) *LoyaltyService {
	return &LoyaltyService{
		store:            store,
		logger:           util.GetLogger(),
		couponPointsCost: couponPointsCost,
		couponValue:      couponValue,
	}
}

// PointsForAmount returns the points earned for an order amount
func PointsForAmount(amount int64) int64 {
	if amount <= 0 {
		return 0
	}
	return amount / pointsDivisor
}

// TierFor derives the loyalty tier from lifetime points. Lifetime points only
// grow, so the tier is monotonic non-decreasing.
func TierFor(lifetimePoints int64) string {
	switch {
	case lifetimePoints >= tierPlatinumMin:
		return models.TierPlatinum
	case lifetimePoints >= tierGoldMin:
		return models.TierGold
	case lifetimePoints >= tierSilverMin:
		return models.TierSilver
	}
	return models.TierBronze
}

// EarnOrderPoints credits points for a completed order. Replays are no-ops:
// at most one earn transaction exists per order.
func (ls *LoyaltyService) EarnOrderPoints(ctx context.Context, userID, orderID, amount int64) (*models.LoyaltyAccount, int64, error) {
	ctx, span := util.StartSpan(ctx, "LoyaltyService.EarnOrderPoints")
	defer span.End()

	points := PointsForAmount(amount)
	if points == 0 {
		return nil, 0, nil
	}

	earned, err := ls.store.HasEarnTransactionForOrder(ctx, orderID)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to check earn transaction: %w", err)
	}
	if earned {
		ls.logger.Info("Points already earned for order", zap.Int64("order_id", orderID))
		return nil, 0, nil
	}

	txn := &models.PointTransaction{
		UserID:      userID,
		Points:      points,
		Type:        models.PointTypeEarned,
		Description: fmt.Sprintf("Points for order #%d", orderID),
		OrderID:     sql.NullInt64{Int64: orderID, Valid: true},
	}

	account, err := ls.store.CreditPoints(ctx, txn, TierFor)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to credit points: %w", err)
	}

	util.PointsEarnedTotal.Add(float64(points))
	ls.logger.Info("Points earned",
		zap.Int64("user_id", userID),
		zap.Int64("order_id", orderID),
		zap.Int64("points", points),
		zap.String("tier", account.Tier))

	return account, points, nil
}

// AwardBonusPoints credits a fixed referral bonus
func (ls *LoyaltyService) AwardBonusPoints(ctx context.Context, userID, points int64, description string) (*models.LoyaltyAccount, error) {
	txn := &models.PointTransaction{
		UserID:      userID,
		Points:      points,
		Type:        models.PointTypeReferral,
		Description: description,
	}

	account, err := ls.store.CreditPoints(ctx, txn, TierFor)
	if err != nil {
		return nil, fmt.Errorf("failed to award bonus points: %w", err)
	}

	util.PointsEarnedTotal.Add(float64(points))
	return account, nil
}

// RedeemPointsForCoupon deducts the coupon cost and issues a coupon. The
// deduction is a conditional decrement, so a balance below the cost fails
// with ErrInsufficientPoints and nothing is written.
func (ls *LoyaltyService) RedeemPointsForCoupon(ctx context.Context, userID int64) (*models.Coupon, error) {
	ctx, span := util.StartSpan(ctx, "LoyaltyService.RedeemPointsForCoupon")
	defer span.End()

	txn := &models.PointTransaction{
		UserID:      userID,
		Points:      -ls.couponPointsCost,
		Type:        models.PointTypeRedeemed,
		Description: fmt.Sprintf("Redeemed %d points for coupon", ls.couponPointsCost),
	}

	if err := ls.store.DebitPoints(ctx, txn); err != nil {
		util.RedemptionsFailedTotal.Inc()
		return nil, err
	}

	coupon := &models.Coupon{
		UserID: userID,
		Code:   couponCode(),
		Value:  ls.couponValue,
	}

	if err := ls.store.CreateCoupon(ctx, coupon); err != nil {
		return nil, fmt.Errorf("failed to issue coupon: %w", err)
	}

	util.PointsRedeemedTotal.Add(float64(ls.couponPointsCost))
	ls.logger.Info("Coupon issued",
		zap.Int64("user_id", userID),
		zap.String("code", coupon.Code))

	return coupon, nil
}

// GetAccount retrieves a user's loyalty account. Users who never earned
// points get a zero-value bronze account.
func (ls *LoyaltyService) GetAccount(ctx context.Context, userID int64) (*models.LoyaltyAccount, error) {
	account, err := ls.store.GetLoyaltyAccount(ctx, userID)
	if err == nil {
		return account, nil
	}
	if errors.Is(err, models.ErrNotFound) {
		return &models.LoyaltyAccount{UserID: userID, Tier: models.TierBronze}, nil
	}
	return nil, err
}

// ListTransactions retrieves a user's point history
func (ls *LoyaltyService) ListTransactions(ctx context.Context, userID int64) ([]models.PointTransaction, error) {
	return ls.store.GetPointTransactions(ctx, userID)
}

// ListCoupons retrieves a user's redeemed coupons
func (ls *LoyaltyService) ListCoupons(ctx context.Context, userID int64) ([]models.Coupon, error) {
	return ls.store.GetCouponsByUserID(ctx, userID)
}

func couponCode() string {
	return "CPN-" + strings.ToUpper(uuid.New().String()[:8])
}
