package ratelimit

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type manualClock struct {
	t time.Time
}

func (c *manualClock) now() time.Time { return c.t }

func newTestLimiter(t *testing.T, max int, window time.Duration) (*RateLimiter, *manualClock) {
	t.Helper()
	clock := &manualClock{t: time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(&RateLimiterConfig{MaxRequests: max, WindowSize: window})
	rl.now = clock.now
	t.Cleanup(rl.Stop)
	return rl, clock
}

func TestRateLimiter_SlidingWindow(t *testing.T) {
	rl, clock := newTestLimiter(t, 2, 10*time.Second)

	assert.True(t, rl.Allow("1.2.3.4"))
	clock.t = clock.t.Add(4 * time.Second)
	assert.True(t, rl.Allow("1.2.3.4"))
	assert.False(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("5.6.7.8"), "keys are independent")

	assert.Equal(t, 6*time.Second, rl.RetryAfter("1.2.3.4"))

	clock.t = clock.t.Add(6 * time.Second)
	assert.Zero(t, rl.RetryAfter("1.2.3.4"), "oldest request left the window")
	assert.True(t, rl.Allow("1.2.3.4"))
	assert.Zero(t, rl.RetryAfter("5.6.7.8"))
}

func TestRateLimiter_ResetAndCleanup(t *testing.T) {
	rl, clock := newTestLimiter(t, 1, time.Second)

	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	rl.Reset("a")
	assert.True(t, rl.Allow("a"))

	clock.t = clock.t.Add(2 * time.Second)
	rl.cleanup()
	rl.mu.Lock()
	assert.Empty(t, rl.requests)
	rl.mu.Unlock()

	rl.Stop()
	rl.Stop()
}

func TestTipRateLimiter(t *testing.T) {
	trl := NewTipRateLimiter(&RateLimiterConfig{MaxRequests: 1, WindowSize: time.Minute})
	defer trl.Stop()

	require.NoError(t, trl.AllowTip("ip1", "walletA"))

	err := trl.AllowTip("ip2", "walletA")
	var rlErr *RateLimitError
	require.True(t, errors.As(err, &rlErr))
	assert.Equal(t, "wallet", rlErr.Type)

	err = trl.AllowIP("ip1")
	require.True(t, errors.As(err, &rlErr))
	assert.Equal(t, "ip", rlErr.Type)
	assert.Contains(t, err.Error(), "rate limit exceeded for ip 'ip1'")

	assert.NoError(t, trl.AllowTip("ip3", ""))
}
