package service

import (
	"testing"

	"storefront-service/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestPointsForAmount(t *testing.T) {
	assert.Equal(t, int64(99), PointsForAmount(999))
	assert.Equal(t, int64(10), PointsForAmount(100))
	assert.Equal(t, int64(0), PointsForAmount(9))
	assert.Equal(t, int64(0), PointsForAmount(0))
	assert.Equal(t, int64(0), PointsForAmount(-500))
}

func TestTierFor(t *testing.T) {
	tests := []struct {
		lifetime int64
		tier     string
	}{
		{0, models.TierBronze},
		{499, models.TierBronze},
		{500, models.TierSilver},
		{1499, models.TierSilver},
		{1500, models.TierGold},
		{4999, models.TierGold},
		{5000, models.TierPlatinum},
		{100000, models.TierPlatinum},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.tier, TierFor(tt.lifetime), "lifetime=%d", tt.lifetime)
	}
}

func TestTierMonotonic(t *testing.T) {
	rank := map[string]int{
		models.TierBronze:   0,
		models.TierSilver:   1,
		models.TierGold:     2,
		models.TierPlatinum: 3,
	}

	prev := TierFor(0)
	for lifetime := int64(0); lifetime <= 6000; lifetime += 50 {
		cur := TierFor(lifetime)
		assert.GreaterOrEqual(t, rank[cur], rank[prev],
			"tier dropped at lifetime=%d", lifetime)
		prev = cur
	}
}

func TestEarnCrossesSilverThreshold(t *testing.T) {
	// An order of 999 earns 99 points; a user at 450 lifetime crosses 500.
	earned := PointsForAmount(999)
	assert.Equal(t, int64(99), earned)
	assert.Equal(t, models.TierSilver, TierFor(450+earned))
}
