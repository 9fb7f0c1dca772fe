package ratelimit

import (
	"context"
	"sync"
	"time"
)

type window struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter is a process-local fixed-window limiter. Each identity gets a
// counter that is replaced, not incremented, once its window has expired.
// State is never evicted and never shared across processes, so running
// multiple instances multiplies the effective limit. That is acceptable for
// abuse damping; use the Redis limiter where the limit has to hold globally.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*window
	limit   int
	window  time.Duration

	now func() time.Time
}

func NewMemoryLimiter(limit int, windowDur time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		windows: make(map[string]*window),
		limit:   limit,
		window:  windowDur,
		now:     time.Now,
	}
}

func (m *MemoryLimiter) Allow(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()

	w, exists := m.windows[key]
	if !exists || now.After(w.resetAt) {
		m.windows[key] = &window{count: 1, resetAt: now.Add(m.window)}
		return true, nil
	}

	if w.count >= m.limit {
		// Denied requests do not mutate the window.
		return false, nil
	}

	w.count++
	return true, nil
}

func (m *MemoryLimiter) Remaining(ctx context.Context, key string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, exists := m.windows[key]
	if !exists || m.now().After(w.resetAt) {
		return m.limit, nil
	}

	remaining := m.limit - w.count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

func (m *MemoryLimiter) Limit() int {
	return m.limit
}

func (m *MemoryLimiter) Window() time.Duration {
	return m.window
}

// Returns the time at which the current window for key resets
func (m *MemoryLimiter) Reset(ctx context.Context, key string) (time.Time, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, exists := m.windows[key]
	if !exists || m.now().After(w.resetAt) {
		return m.now(), nil
	}
	return w.resetAt, nil
}
