package models

import "time"

// Event types
const (
	EventTypeOrderCreated       = "ORDER_CREATED"
	EventTypeOrderSubmitted     = "ORDER_SUBMITTED"
	EventTypeOrderCompleted     = "ORDER_COMPLETED"
	EventTypeOrderCancelled     = "ORDER_CANCELLED"
	EventTypePointsEarned       = "POINTS_EARNED"
	EventTypeReferralCompleted  = "REFERRAL_COMPLETED"
	EventTypeMembershipApproved = "MEMBERSHIP_APPROVED"
	EventTypeMembershipExpired  = "MEMBERSHIP_EXPIRED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderCreatedEvent published when a checkout creates a PENDING order
type OrderCreatedEvent struct {
	BaseEvent
	OrderID     int64 `json:"order_id"`
	UserID      int64 `json:"user_id"`
	ProductID   int64 `json:"product_id,omitempty"`
	BundleID    int64 `json:"bundle_id,omitempty"`
	TotalAmount int64 `json:"total_amount"`
}

// OrderSubmittedEvent published when payment proof is attached
type OrderSubmittedEvent struct {
	BaseEvent
	OrderID  int64  `json:"order_id"`
	UserID   int64  `json:"user_id"`
	ProofURL string `json:"proof_url"`
}

// OrderCompletedEvent published on admin approval; drives the rewards worker
type OrderCompletedEvent struct {
	BaseEvent
	OrderID     int64 `json:"order_id"`
	UserID      int64 `json:"user_id"`
	ProductID   int64 `json:"product_id,omitempty"`
	TotalAmount int64 `json:"total_amount"`
}

// OrderCancelledEvent published on admin rejection
type OrderCancelledEvent struct {
	BaseEvent
	OrderID int64  `json:"order_id"`
	UserID  int64  `json:"user_id"`
	Reason  string `json:"reason"`
}

// PointsEarnedEvent published after loyalty accrual
type PointsEarnedEvent struct {
	BaseEvent
	UserID  int64  `json:"user_id"`
	Points  int64  `json:"points"`
	Tier    string `json:"tier"`
	OrderID int64  `json:"order_id,omitempty"`
}

// ReferralCompletedEvent published when a referred user's first order completes
type ReferralCompletedEvent struct {
	BaseEvent
	ReferralID int64 `json:"referral_id"`
	ReferrerID int64 `json:"referrer_id"`
	ReferredID int64 `json:"referred_id"`
}

// MembershipApprovedEvent published when an admin approves a premium request
type MembershipApprovedEvent struct {
	BaseEvent
	MembershipID int64     `json:"membership_id"`
	UserID       int64     `json:"user_id"`
	PlanType     string    `json:"plan_type"`
	ExpiresAt    time.Time `json:"expires_at,omitempty"`
}

// MembershipExpiredEvent published by the expiry sweeper
type MembershipExpiredEvent struct {
	BaseEvent
	MembershipID int64 `json:"membership_id"`
	UserID       int64 `json:"user_id"`
}
