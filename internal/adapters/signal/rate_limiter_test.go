package signal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterBudgetsPerAddress(t *testing.T) {
	rl := NewRoomRateLimiter(2, time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	assert.True(t, rl.allowAt("10.0.0.1", now))
	assert.True(t, rl.allowAt("10.0.0.1", now))
	assert.False(t, rl.allowAt("10.0.0.1", now))
	assert.True(t, rl.allowAt("10.0.0.2", now), "budgets are per address")

	assert.True(t, rl.allowAt("10.0.0.1", now.Add(30*time.Second)), "one attempt refills per interval/limit")
	assert.False(t, rl.allowAt("10.0.0.1", now.Add(30*time.Second)))
}

func TestRateLimiterEvictsIdleVisitors(t *testing.T) {
	rl := NewRoomRateLimiter(2, time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	rl.allowAt("a", now)
	rl.allowAt("b", now)
	assert.Equal(t, 2, rl.size())

	rl.allowAt("c", now.Add(3*time.Minute))
	assert.Equal(t, 1, rl.size())
}
