package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock lets tests move time forward without sleeping.
type fakeClock struct {
	t time.Time
}

func (f *fakeClock) now() time.Time {
	return f.t
}

func (f *fakeClock) advance(d time.Duration) {
	f.t = f.t.Add(d)
}

func newTestLimiter(limit int, window time.Duration) (*MemoryLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	l := NewMemoryLimiter(limit, window)
	l.now = clock.now
	return l, clock
}

func TestMemoryLimiter_DeniesOverLimit(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLimiter(10, time.Minute)

	for i := 0; i < 10; i++ {
		allowed, err := l.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.True(t, allowed, "request %d should be allowed", i+1)
	}

	allowed, err := l.Allow(ctx, "1.2.3.4")
	require.NoError(t, err)
	assert.False(t, allowed, "11th request in the window should be denied")
}

func TestMemoryLimiter_NewWindowAfterExpiry(t *testing.T) {
	ctx := context.Background()
	l, clock := newTestLimiter(5, 5*time.Minute)

	for i := 0; i < 6; i++ {
		l.Allow(ctx, "client")
	}

	clock.advance(5*time.Minute + time.Second)

	allowed, err := l.Allow(ctx, "client")
	require.NoError(t, err)
	assert.True(t, allowed, "request after the window elapsed should start a fresh window")

	remaining, err := l.Remaining(ctx, "client")
	require.NoError(t, err)
	assert.Equal(t, 4, remaining, "fresh window should have consumed exactly one slot")
}

func TestMemoryLimiter_CountIncrementsByOne(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLimiter(10, time.Minute)

	for i := 0; i < 10; i++ {
		remaining, err := l.Remaining(ctx, "client")
		require.NoError(t, err)
		assert.Equal(t, 10-i, remaining)
		l.Allow(ctx, "client")
	}
}

func TestMemoryLimiter_DenialDoesNotMutate(t *testing.T) {
	ctx := context.Background()
	l, clock := newTestLimiter(2, time.Minute)

	l.Allow(ctx, "client")
	l.Allow(ctx, "client")
	resetBefore, _ := l.Reset(ctx, "client")

	for i := 0; i < 5; i++ {
		allowed, _ := l.Allow(ctx, "client")
		assert.False(t, allowed)
	}

	resetAfter, _ := l.Reset(ctx, "client")
	assert.Equal(t, resetBefore, resetAfter, "denied requests must not extend the window")

	// The original window still expires on schedule.
	clock.advance(61 * time.Second)
	allowed, _ := l.Allow(ctx, "client")
	assert.True(t, allowed)
}

func TestMemoryLimiter_KeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLimiter(1, time.Minute)

	allowed, _ := l.Allow(ctx, "a")
	assert.True(t, allowed)

	allowed, _ = l.Allow(ctx, "a")
	assert.False(t, allowed)

	allowed, _ = l.Allow(ctx, "b")
	assert.True(t, allowed, "a saturated key must not affect other keys")
}

func TestMemoryLimiter_ResetReportsWindowEnd(t *testing.T) {
	ctx := context.Background()
	l, clock := newTestLimiter(3, time.Minute)

	start := clock.now()
	l.Allow(ctx, "client")

	reset, err := l.Reset(ctx, "client")
	require.NoError(t, err)
	assert.Equal(t, start.Add(time.Minute), reset)
}
