package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestLimiter(clock *fakeClock) *RateLimiter {
	rl := NewRateLimiter(RateLimitConfig{
		MaxAttempts:     3,
		WindowDuration:  time.Minute,
		LockoutDuration: 5 * time.Minute,
	})
	rl.now = clock.Now
	return rl
}

func TestRateLimiter_LocksOutAfterMaxAttempts(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	rl := newTestLimiter(clock)

	assert.False(t, rl.RecordFailure("10.0.0.1", "alice"))
	assert.False(t, rl.RecordFailure("10.0.0.1", "alice"))
	allowed, _ := rl.Allow("10.0.0.1", "alice")
	assert.True(t, allowed)

	assert.True(t, rl.RecordFailure("10.0.0.1", "alice"))
	allowed, retry := rl.Allow("10.0.0.1", "alice")
	assert.False(t, allowed)
	assert.Equal(t, 5*time.Minute, retry)

	// Other pairs are unaffected
	allowed, _ = rl.Allow("10.0.0.2", "alice")
	assert.True(t, allowed)
	allowed, _ = rl.Allow("10.0.0.1", "bob")
	assert.True(t, allowed)

	clock.Advance(5*time.Minute + time.Second)
	allowed, _ = rl.Allow("10.0.0.1", "alice")
	assert.True(t, allowed)
}

func TestRateLimiter_WindowResets(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	rl := newTestLimiter(clock)

	rl.RecordFailure("10.0.0.1", "alice")
	rl.RecordFailure("10.0.0.1", "alice")

	clock.Advance(2 * time.Minute)
	assert.False(t, rl.RecordFailure("10.0.0.1", "alice"), "old failures fall out of the window")
}

func TestRateLimiter_SuccessClears(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	rl := newTestLimiter(clock)

	rl.RecordFailure("10.0.0.1", "alice")
	rl.RecordFailure("10.0.0.1", "alice")
	rl.RecordSuccess("10.0.0.1", "alice")

	assert.False(t, rl.RecordFailure("10.0.0.1", "alice"))
	assert.False(t, rl.RecordFailure("10.0.0.1", "alice"))
}

func TestNewRateLimiter_Defaults(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{})

	assert.Equal(t, 5, rl.maxAttempts)
	assert.Equal(t, 15*time.Minute, rl.windowDuration)
	assert.Equal(t, 30*time.Minute, rl.lockoutDuration)
}
