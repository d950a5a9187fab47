package cache

import (
	"context"
	"sync"
	"time"

	"github.com/shandysiswandi/twostep/internal/identity/entity"
	"github.com/shandysiswandi/twostep/internal/pkg/goerror"
	"github.com/shandysiswandi/twostep/internal/pkg/instrument"
)

type pendingItem struct {
	value     entity.PendingEnrollment
	expiresAt time.Time
}

// Memory keeps scratch state in process. It suits a single replica and tests.
type Memory struct {
	tracer
	now func() time.Time

	mu      sync.Mutex
	pending map[int64]pendingItem
	used    map[string]time.Time
}

// NewMemory reads time from now, usually a clock.Clocker's Now.
func NewMemory(now func() time.Time, ins instrument.Instrumentation) *Memory {
	return &Memory{
		tracer:  tracer{ins: ins},
		now:     now,
		pending: make(map[int64]pendingItem),
		used:    make(map[string]time.Time),
	}
}

func (m *Memory) GetPending(ctx context.Context, accountID int64) (*entity.PendingEnrollment, error) {
	_, span := m.startSpan(ctx, "GetPending")
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.pending[accountID]
	if !ok || expired(item.expiresAt, m.now()) {
		delete(m.pending, accountID)
		return nil, goerror.ErrNotFound
	}

	p := item.value
	p.BackupCodes = append([]string(nil), item.value.BackupCodes...)
	return &p, nil
}

func (m *Memory) SetPending(ctx context.Context, p entity.PendingEnrollment, ttl time.Duration) error {
	_, span := m.startSpan(ctx, "SetPending")
	defer span.End()

	item := pendingItem{value: p}
	item.value.BackupCodes = append([]string(nil), p.BackupCodes...)
	if ttl > 0 {
		item.expiresAt = m.now().Add(ttl)
	}

	m.mu.Lock()
	m.pending[p.AccountID] = item
	m.mu.Unlock()
	return nil
}

func (m *Memory) DeletePending(ctx context.Context, accountID int64) error {
	_, span := m.startSpan(ctx, "DeletePending")
	defer span.End()

	m.mu.Lock()
	delete(m.pending, accountID)
	m.mu.Unlock()
	return nil
}

func (m *Memory) MarkCodeUsed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	_, span := m.startSpan(ctx, "MarkCodeUsed")
	defer span.End()

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for k, exp := range m.used {
		if expired(exp, now) {
			delete(m.used, k)
		}
	}

	if _, ok := m.used[key]; ok {
		return false, nil
	}

	var exp time.Time
	if ttl > 0 {
		exp = now.Add(ttl)
	}
	m.used[key] = exp
	return true, nil
}

// expired treats a zero expiry as never.
func expired(at, now time.Time) bool {
	return !at.IsZero() && !now.Before(at)
}
