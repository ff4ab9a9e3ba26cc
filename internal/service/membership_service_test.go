package service

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExtendedExpiry(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	// Extending a set expiry adds from the current expiry
	current := sql.NullTime{
		Time:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Valid: true,
	}
	got := ExtendedExpiry(current, 30, now)
	assert.Equal(t, time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC), got)

	// Unset expiry extends from now
	got = ExtendedExpiry(sql.NullTime{}, 7, now)
	assert.Equal(t, now.Add(7*24*time.Hour), got)
}
