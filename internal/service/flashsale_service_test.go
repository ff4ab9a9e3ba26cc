package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEffectivePrice(t *testing.T) {
	now := time.Now()
	end := now.Add(time.Hour)

	// Active sale: 599 - 100 = 499
	assert.Equal(t, int64(499), EffectivePrice(599, 100, true, end, now))

	// After the window closes the base price is back, at the exact
	// boundary included.
	assert.Equal(t, int64(599), EffectivePrice(599, 100, true, end, end))
	assert.Equal(t, int64(599), EffectivePrice(599, 100, true, end, end.Add(time.Second)))

	// Disabled sale never discounts
	assert.Equal(t, int64(599), EffectivePrice(599, 100, false, end, now))

	// No discount entry for the product
	assert.Equal(t, int64(599), EffectivePrice(599, 0, true, end, now))
}

func TestEffectivePriceFloor(t *testing.T) {
	now := time.Now()
	end := now.Add(time.Hour)

	// A discount larger than the base price floors at zero
	assert.Equal(t, int64(0), EffectivePrice(99, 100, true, end, now))
	assert.Equal(t, int64(0), EffectivePrice(100, 100, true, end, now))
	assert.Equal(t, int64(1), EffectivePrice(101, 100, true, end, now))
}
