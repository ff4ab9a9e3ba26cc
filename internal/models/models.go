package models

import (
	"database/sql"
	"time"
)

// Product represents a subscription product in the catalog
type Product struct {
	ID               int64     `db:"id" json:"id"`
	SKU              string    `db:"sku" json:"sku"`
	Name             string    `db:"name" json:"name"`
	Description      string    `db:"description" json:"description,omitempty"`
	SalePrice        int64     `db:"sale_price" json:"sale_price"`
	CostPrice        int64     `db:"cost_price" json:"cost_price"`
	DeliveryType     string    `db:"delivery_type" json:"delivery_type"`
	UseManualStock   bool      `db:"use_manual_stock" json:"use_manual_stock"`
	ManualStockCount int       `db:"manual_stock_count" json:"manual_stock_count"`
	IsActive         bool      `db:"is_active" json:"is_active"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// ProductVariant represents a plan/duration variant of a product.
// A variant price overrides the product sale price at order creation.
type ProductVariant struct {
	ID        int64  `db:"id" json:"id"`
	ProductID int64  `db:"product_id" json:"product_id"`
	Name      string `db:"name" json:"name"`
	Price     int64  `db:"price" json:"price"`
	IsActive  bool   `db:"is_active" json:"is_active"`
}

// StockKey is a single-use credential consumable by exactly one order
type StockKey struct {
	ID              int64         `db:"id" json:"id"`
	ProductID       int64         `db:"product_id" json:"product_id"`
	Payload         string        `db:"payload" json:"payload"`
	Status          string        `db:"status" json:"status"`
	AssignedOrderID sql.NullInt64 `db:"assigned_order_id" json:"assigned_order_id,omitempty"`
	UsedBy          sql.NullInt64 `db:"used_by" json:"used_by,omitempty"`
	UsedAt          sql.NullTime  `db:"used_at" json:"used_at,omitempty"`
	CreatedAt       time.Time     `db:"created_at" json:"created_at"`
}

// Order represents a customer order
type Order struct {
	ID                 int64          `db:"id" json:"id"`
	UserID             int64          `db:"user_id" json:"user_id"`
	ProductID          sql.NullInt64  `db:"product_id" json:"product_id,omitempty"`
	VariantID          sql.NullInt64  `db:"variant_id" json:"variant_id,omitempty"`
	BundleID           sql.NullInt64  `db:"bundle_id" json:"bundle_id,omitempty"`
	Status             string         `db:"status" json:"status"`
	TotalAmount        int64          `db:"total_amount" json:"total_amount"`
	PaymentScreenshot  sql.NullString `db:"payment_screenshot" json:"payment_screenshot,omitempty"`
	Credentials        sql.NullString `db:"credentials" json:"credentials,omitempty"`
	CancellationReason sql.NullString `db:"cancellation_reason" json:"cancellation_reason,omitempty"`
	IdempotencyKey     string         `db:"idempotency_key" json:"idempotency_key,omitempty"`
	CreatedAt          time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at" json:"updated_at"`
}

// LoyaltyAccount tracks a user's point balance and tier
type LoyaltyAccount struct {
	UserID         int64     `db:"user_id" json:"user_id"`
	TotalPoints    int64     `db:"total_points" json:"total_points"`
	LifetimePoints int64     `db:"lifetime_points" json:"lifetime_points"`
	Tier           string    `db:"tier" json:"tier"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// PointTransaction is an append-only, signed point movement
type PointTransaction struct {
	ID          int64         `db:"id" json:"id"`
	UserID      int64         `db:"user_id" json:"user_id"`
	Points      int64         `db:"points" json:"points"`
	Type        string        `db:"type" json:"type"`
	Description string        `db:"description" json:"description"`
	OrderID     sql.NullInt64 `db:"order_id" json:"order_id,omitempty"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
}

// Coupon is issued when a user redeems points
type Coupon struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	Code      string    `db:"code" json:"code"`
	Value     int64     `db:"value" json:"value"`
	Redeemed  bool      `db:"redeemed" json:"redeemed"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Referral links a referrer to a referred user
type Referral struct {
	ID          int64        `db:"id" json:"id"`
	ReferrerID  int64        `db:"referrer_id" json:"referrer_id"`
	ReferredID  int64        `db:"referred_id" json:"referred_id"`
	Code        string       `db:"code" json:"code"`
	Status      string       `db:"status" json:"status"`
	RewardGiven bool         `db:"reward_given" json:"reward_given"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	CompletedAt sql.NullTime `db:"completed_at" json:"completed_at,omitempty"`
}

// PremiumMembership represents a user's premium plan request/grant
type PremiumMembership struct {
	ID              int64          `db:"id" json:"id"`
	UserID          int64          `db:"user_id" json:"user_id"`
	PlanType        string         `db:"plan_type" json:"plan_type"`
	Status          string         `db:"status" json:"status"`
	PricePaid       int64          `db:"price_paid" json:"price_paid"`
	PaymentProof    sql.NullString `db:"payment_proof" json:"payment_proof,omitempty"`
	RejectionReason sql.NullString `db:"rejection_reason" json:"rejection_reason,omitempty"`
	ExpiresAt       sql.NullTime   `db:"expires_at" json:"expires_at,omitempty"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}

// FlashSaleConfig is the single server-owned flash sale record.
// Admin saves overwrite it wholesale and bump the version.
type FlashSaleConfig struct {
	Enabled   bool      `db:"enabled" json:"enabled"`
	EndTime   time.Time `db:"end_time" json:"end_time"`
	Version   int64     `db:"version" json:"version"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// FlashSaleDiscount is a per-product fixed discount in the active config
type FlashSaleDiscount struct {
	ConfigVersion  int64 `db:"config_version" json:"-"`
	ProductID      int64 `db:"product_id" json:"product_id"`
	DiscountAmount int64 `db:"discount_amount" json:"discount_amount"`
}

// Bundle groups products under a combined price
type Bundle struct {
	ID            int64        `db:"id" json:"id"`
	Name          string       `db:"name" json:"name"`
	OriginalPrice int64        `db:"original_price" json:"original_price"`
	SalePrice     int64        `db:"sale_price" json:"sale_price"`
	IsActive      bool         `db:"is_active" json:"is_active"`
	ValidUntil    sql.NullTime `db:"valid_until" json:"valid_until,omitempty"`
	ProductIDs    []int64      `db:"-" json:"product_ids,omitempty"`
}

// Order statuses
const (
	OrderStatusPending   = "PENDING"
	OrderStatusSubmitted = "SUBMITTED"
	OrderStatusCompleted = "COMPLETED"
	OrderStatusCancelled = "CANCELLED"
)

// Delivery types
const (
	DeliveryCredentials      = "CREDENTIALS"
	DeliveryCouponCode       = "COUPON_CODE"
	DeliveryInstantKey       = "INSTANT_KEY"
	DeliveryManualActivation = "MANUAL_ACTIVATION"
)

// Stock key statuses
const (
	StockKeyAvailable = "AVAILABLE"
	StockKeyAssigned  = "ASSIGNED"
	StockKeyUsed      = "USED"
)

// Loyalty tiers, derived from lifetime points
const (
	TierBronze   = "bronze"
	TierSilver   = "silver"
	TierGold     = "gold"
	TierPlatinum = "platinum"
)

// Point transaction types
const (
	PointTypeEarned   = "earned"
	PointTypeRedeemed = "redeemed"
	PointTypeReferral = "referral"
)

// Referral statuses
const (
	ReferralStatusPending   = "pending"
	ReferralStatusCompleted = "completed"
)

// Membership statuses
const (
	MembershipStatusPending  = "pending"
	MembershipStatusApproved = "approved"
	MembershipStatusRejected = "rejected"
	MembershipStatusRevoked  = "revoked"
	MembershipStatusExpired  = "expired"
)

// ProcessedEvent for worker idempotency
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}

// FulfillmentStep records a completed step of an order approval so a
// replayed approval never re-applies a side effect
type FulfillmentStep struct {
	OrderID     int64     `db:"order_id"`
	Step        string    `db:"step"`
	CompletedAt time.Time `db:"completed_at"`
}

// Fulfillment step names
const (
	StepStockClaimed  = "stock_claimed"
	StepKeyAssigned   = "key_assigned"
	StepOrderComplete = "order_completed"
)

// KeyDelivery reports whether a delivery type consumes stock keys
func KeyDelivery(deliveryType string) bool {
	switch deliveryType {
	case DeliveryCredentials, DeliveryCouponCode, DeliveryInstantKey:
		return true
	}
	return false
}

// ValidOrderTransition reports whether an order may move from one status
// to another. Terminal statuses admit no further transitions.
func ValidOrderTransition(from, to string) bool {
	switch from {
	case OrderStatusPending:
		return to == OrderStatusSubmitted || to == OrderStatusCompleted || to == OrderStatusCancelled
	case OrderStatusSubmitted:
		return to == OrderStatusCompleted || to == OrderStatusCancelled
	}
	return false
}
