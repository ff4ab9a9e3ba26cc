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

// Plan durations applied at approval. Unknown plan types get no expiry and
// stay active until revoked or extended.
var planDurations = map[string]time.Duration{
	"monthly":   30 * 24 * time.Hour,
	"quarterly": 90 * 24 * time.Hour,
	"yearly":    365 * 24 * time.Hour,
}

// MembershipService handles premium membership requests and admin actions
type MembershipService struct {
	store          *store.Store
	eventPublisher *broker.EventPublisher
	uploader       storage.Uploader
	maxUploadSize  int64
	logger         *zap.Logger
}

// NewMembershipService creates a new membership service
func NewMembershipService(
	store *store.Store,
	eventPublisher *broker.EventPublisher,
	uploader storage.Uploader,
	maxUploadSize int64,
) *MembershipService {
	return &MembershipService{
		store:          store,
		eventPublisher: eventPublisher,
		uploader:       uploader,
		maxUploadSize:  maxUploadSize,
		logger:         util.GetLogger(),
	}
}

// Request creates a pending membership with an optional payment proof upload
func (ms *MembershipService) Request(ctx context.Context, userID int64, planType string, pricePaid int64, filename, contentType string, size int64, proof io.Reader) (*models.PremiumMembership, error) {
	ctx, span := util.StartSpan(ctx, "MembershipService.Request")
	defer span.End()

	if planType == "" {
		return nil, fmt.Errorf("plan type required: %w", models.ErrValidation)
	}

	m := &models.PremiumMembership{
		UserID:    userID,
		PlanType:  planType,
		PricePaid: pricePaid,
	}

	if proof != nil {
		if err := storage.ValidateUpload(contentType, size, ms.maxUploadSize); err != nil {
			util.UploadsTotal.WithLabelValues(storage.KindPremiumProof, "rejected").Inc()
			return nil, err
		}
		url, err := ms.uploader.Save(ctx, storage.KindPremiumProof, filename, contentType, size, proof)
		if err != nil {
			util.UploadsTotal.WithLabelValues(storage.KindPremiumProof, "error").Inc()
			return nil, err
		}
		util.UploadsTotal.WithLabelValues(storage.KindPremiumProof, "stored").Inc()
		m.PaymentProof = sql.NullString{String: url, Valid: true}
	}

	if err := ms.store.CreateMembership(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to create membership request: %w", err)
	}

	ms.logger.Info("Membership requested",
		zap.Int64("membership_id", m.ID),
		zap.Int64("user_id", userID),
		zap.String("plan_type", planType))

	return m, nil
}

// Approve grants a pending membership and stamps its expiry from the plan
func (ms *MembershipService) Approve(ctx context.Context, id int64) (*models.PremiumMembership, error) {
	ctx, span := util.StartSpan(ctx, "MembershipService.Approve")
	defer span.End()

	m, err := ms.store.GetMembershipByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.Status != models.MembershipStatusPending {
		return nil, fmt.Errorf("membership %d is %s: %w", id, m.Status, models.ErrInvalidTransition)
	}

	if err := ms.store.UpdateMembershipStatus(ctx, id, models.MembershipStatusApproved, ""); err != nil {
		return nil, err
	}

	var expiresAt time.Time
	if d, ok := planDurations[m.PlanType]; ok {
		expiresAt = time.Now().Add(d)
		if err := ms.store.SetMembershipExpiry(ctx, id, expiresAt); err != nil {
			return nil, err
		}
	}

	ms.logger.Info("Membership approved",
		zap.Int64("membership_id", id),
		zap.Int64("user_id", m.UserID))

	event := &models.MembershipApprovedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeMembershipApproved,
			Timestamp: time.Now(),
		},
		MembershipID: id,
		UserID:       m.UserID,
		PlanType:     m.PlanType,
		ExpiresAt:    expiresAt,
	}
	if err := ms.eventPublisher.PublishMembershipApproved(ctx, event); err != nil {
		ms.logger.Error("Failed to publish MembershipApproved event", zap.Error(err))
	}

	return ms.store.GetMembershipByID(ctx, id)
}

// Reject declines a pending membership with a reason
func (ms *MembershipService) Reject(ctx context.Context, id int64, reason string) error {
	m, err := ms.store.GetMembershipByID(ctx, id)
	if err != nil {
		return err
	}
	if m.Status != models.MembershipStatusPending {
		return fmt.Errorf("membership %d is %s: %w", id, m.Status, models.ErrInvalidTransition)
	}
	return ms.store.UpdateMembershipStatus(ctx, id, models.MembershipStatusRejected, reason)
}

// Revoke withdraws an approved membership. Orders already fulfilled under the
// membership are untouched.
func (ms *MembershipService) Revoke(ctx context.Context, id int64, reason string) error {
	m, err := ms.store.GetMembershipByID(ctx, id)
	if err != nil {
		return err
	}
	if m.Status != models.MembershipStatusApproved {
		return fmt.Errorf("membership %d is %s: %w", id, m.Status, models.ErrInvalidTransition)
	}
	return ms.store.UpdateMembershipStatus(ctx, id, models.MembershipStatusRevoked, reason)
}

// Extend pushes the expiry out by the given number of days. An unset expiry
// extends from now.
func (ms *MembershipService) Extend(ctx context.Context, id int64, days int) (*models.PremiumMembership, error) {
	if days <= 0 {
		return nil, fmt.Errorf("days must be positive: %w", models.ErrValidation)
	}

	m, err := ms.store.GetMembershipByID(ctx, id)
	if err != nil {
		return nil, err
	}

	newExpiry := ExtendedExpiry(m.ExpiresAt, days, time.Now())
	if err := ms.store.SetMembershipExpiry(ctx, id, newExpiry); err != nil {
		return nil, err
	}

	ms.logger.Info("Membership extended",
		zap.Int64("membership_id", id),
		zap.Int("days", days),
		zap.Time("expires_at", newExpiry))

	return ms.store.GetMembershipByID(ctx, id)
}

// ExtendedExpiry computes the new expiry for an extension of the given days
func ExtendedExpiry(current sql.NullTime, days int, now time.Time) time.Time {
	base := now
	if current.Valid {
		base = current.Time
	}
	return base.Add(time.Duration(days) * 24 * time.Hour)
}

// Delete removes a membership outright
func (ms *MembershipService) Delete(ctx context.Context, id int64) error {
	return ms.store.DeleteMembership(ctx, id)
}

// Get retrieves a membership by ID
func (ms *MembershipService) Get(ctx context.Context, id int64) (*models.PremiumMembership, error) {
	return ms.store.GetMembershipByID(ctx, id)
}

// ListByUser retrieves a user's memberships
func (ms *MembershipService) ListByUser(ctx context.Context, userID int64) ([]models.PremiumMembership, error) {
	return ms.store.GetMembershipsByUserID(ctx, userID)
}

// ExpireDue flips approved memberships past their expiry and publishes an
// event per expired row. The sweeper worker calls this on a ticker.
func (ms *MembershipService) ExpireDue(ctx context.Context, now time.Time) (int, error) {
	expired, err := ms.store.ExpireMemberships(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to expire memberships: %w", err)
	}

	for _, m := range expired {
		util.MembershipsExpiredTotal.Inc()
		event := &models.MembershipExpiredEvent{
			BaseEvent: models.BaseEvent{
				EventID:   uuid.New().String(),
				EventType: models.EventTypeMembershipExpired,
				Timestamp: now,
			},
			MembershipID: m.ID,
			UserID:       m.UserID,
		}
		if err := ms.eventPublisher.PublishMembershipExpired(ctx, event); err != nil {
			ms.logger.Error("Failed to publish MembershipExpired event", zap.Error(err))
		}
	}

	return len(expired), nil
}
