package middleware

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type manualClock struct{ now time.Time }

func (c *manualClock) Now() time.Time { return c.now }

func (c *manualClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func TestRateLimiter_SlidingWindow(t *testing.T) {
	clk := &manualClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter(3, time.Minute)
	rl.now = clk.Now

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("1.2.3.4"), "request %d", i)
	}
	assert.False(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("5.6.7.8"), "other keys are independent")

	clk.advance(61 * time.Second)
	assert.True(t, rl.Allow("1.2.3.4"))

	clk.advance(2 * time.Minute)
	assert.Equal(t, 2, rl.Cleanup())
	assert.Zero(t, rl.Len())
}

func TestFailureTracker_ProgressiveDelay(t *testing.T) {
	clk := &manualClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	ft := NewFailureTracker(200*time.Millisecond, 2*time.Second, 10*time.Minute, 100)
	ft.now = clk.Now

	assert.Zero(t, ft.Delay("ip"))

	for i := 1; i <= 4; i++ {
		assert.Equal(t, i, ft.Fail("ip"))
	}
	assert.Equal(t, 800*time.Millisecond, ft.Delay("ip"))

	for i := 0; i < 20; i++ {
		ft.Fail("ip")
	}
	assert.Equal(t, 2*time.Second, ft.Delay("ip"), "delay is capped")

	clk.advance(10*time.Minute + time.Second)
	assert.Zero(t, ft.Failures("ip"), "window expired")
	assert.Equal(t, 1, ft.Fail("ip"), "counter restarts after the window")

	ft.Reset("ip")
	assert.Zero(t, ft.Len())
}

func TestFailureTracker_BoundedAndPurged(t *testing.T) {
	clk := &manualClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	ft := NewFailureTracker(time.Millisecond, time.Second, time.Minute, 3)
	ft.now = clk.Now

	for i := 0; i < 5; i++ {
		ft.Fail(fmt.Sprintf("client-%d", i))
		clk.advance(time.Second)
	}
	assert.Equal(t, 3, ft.Len())
	assert.Zero(t, ft.Failures("client-0"), "oldest evicted first")
	assert.Equal(t, 1, ft.Failures("client-4"))

	clk.advance(2 * time.Minute)
	assert.Equal(t, 3, ft.Purge())
	assert.Zero(t, ft.Len())
}

func TestFailureTracker_WaitHonoursContext(t *testing.T) {
	ft := NewFailureTracker(time.Hour, time.Hour, time.Hour, 10)
	ft.Fail("slow")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := ft.Wait(ctx, "slow")
	require.ErrorIs(t, err, context.Canceled)

	require.NoError(t, ft.Wait(context.Background(), "unknown"))
}

func TestRecoverFromPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		defer RecoverFromPanic("test")
		panic("boom")
	})
}
