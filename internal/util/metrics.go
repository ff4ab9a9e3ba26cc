package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Total number of orders created",
	})

	OrdersSubmittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_submitted_total",
		Help: "Total number of orders with payment proof submitted",
	})

	OrdersCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_completed_total",
		Help: "Total number of orders approved and fulfilled",
	})

	OrdersCancelledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_cancelled_total",
		Help: "Total number of rejected orders",
	})

	OrdersFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_failed_total",
		Help: "Total number of failed order operations",
	}, []string{"reason"})

	StockClaimsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_claims_total",
		Help: "Total number of stock claim attempts",
	}, []string{"kind", "result"})

	StockClaimLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "stock_claim_latency_seconds",
		Help:    "Latency of stock claim operations",
		Buckets: prometheus.DefBuckets,
	})

	PointsEarnedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "loyalty_points_earned_total",
		Help: "Total loyalty points earned",
	})

	PointsRedeemedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "loyalty_points_redeemed_total",
		Help: "Total loyalty points redeemed for coupons",
	})

	RedemptionsFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "loyalty_redemptions_failed_total",
		Help: "Total redemptions rejected for insufficient balance",
	})

	ReferralsCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "referrals_completed_total",
		Help: "Total number of completed referrals",
	})

	UploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "uploads_total",
		Help: "Total number of file uploads",
	}, []string{"kind", "result"})

	MembershipsExpiredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "memberships_expired_total",
		Help: "Total memberships flipped to expired by the sweeper",
	})

	FulfillmentLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "order_fulfillment_latency_seconds",
		Help:    "Latency of the order approval workflow",
		Buckets: prometheus.DefBuckets,
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
