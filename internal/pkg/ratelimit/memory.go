package ratelimit

import (
	"context"
	"sync"
	"time"
)

type window struct {
	count   int64
	resetAt time.Time
}

// Memory is a single-process fixed-window limiter.
type Memory struct {
	mu      sync.Mutex
	now     func() time.Time
	policy  Policy
	windows map[string]*window
}

// NewMemory reads time from now, usually a clock.Clocker's Now.
func NewMemory(now func() time.Time, policy Policy) *Memory {
	return &Memory{now: now, policy: policy, windows: make(map[string]*window)}
}

func (m *Memory) Allow(_ context.Context, key string) (Decision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	w, ok := m.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(m.policy.Window)}
		m.windows[key] = w
		m.sweep(now)
	}
	w.count++

	return m.policy.decide(w.count, w.resetAt.Sub(now)), nil
}

func (m *Memory) Reset(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.windows, key)
	m.mu.Unlock()
	return nil
}

// sweep drops elapsed windows; called only when a new window opens.
func (m *Memory) sweep(now time.Time) {
	for k, w := range m.windows {
		if !now.Before(w.resetAt) {
			delete(m.windows, k)
		}
	}
}
