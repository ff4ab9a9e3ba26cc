package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidOrderTransition(t *testing.T) {
	allowed := []struct{ from, to string }{
		{OrderStatusPending, OrderStatusSubmitted},
		{OrderStatusPending, OrderStatusCompleted},
		{OrderStatusPending, OrderStatusCancelled},
		{OrderStatusSubmitted, OrderStatusCompleted},
		{OrderStatusSubmitted, OrderStatusCancelled},
	}
	for _, tt := range allowed {
		assert.True(t, ValidOrderTransition(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}

	// Terminal statuses admit nothing
	for _, terminal := range []string{OrderStatusCompleted, OrderStatusCancelled} {
		for _, to := range []string{OrderStatusPending, OrderStatusSubmitted, OrderStatusCompleted, OrderStatusCancelled} {
			assert.False(t, ValidOrderTransition(terminal, to), "%s -> %s", terminal, to)
		}
	}

	// No backwards edge
	assert.False(t, ValidOrderTransition(OrderStatusSubmitted, OrderStatusPending))
}

func TestKeyDelivery(t *testing.T) {
	assert.True(t, KeyDelivery(DeliveryCredentials))
	assert.True(t, KeyDelivery(DeliveryCouponCode))
	assert.True(t, KeyDelivery(DeliveryInstantKey))
	assert.False(t, KeyDelivery(DeliveryManualActivation))
	assert.False(t, KeyDelivery("UNKNOWN"))
}
