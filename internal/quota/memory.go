package quota

import (
	"context"
	"sync"
	"time"
)

const sweepEvery = 1024

type memEntry struct {
	count     int64
	expiresAt time.Time
}

// Memory is a process-local Counter.
type Memory struct {
	mu      sync.Mutex
	entries map[string]*memEntry
	now     func() time.Time
	ops     int
}

// NewMemory builds an in-memory counter. A nil clock uses time.Now.
func NewMemory(now func() time.Time) *Memory {
	if now == nil {
		now = time.Now
	}
	return &Memory{entries: make(map[string]*memEntry), now: now}
}

func (m *Memory) Get(_ context.Context, key string) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.lookup(key, m.now())
	if e == nil {
		return Entry{}, nil
	}
	return Entry{Count: e.count, ExpiresAt: e.expiresAt}, nil
}

func (m *Memory) Incr(ctx context.Context, key string, expireAt time.Time) (Entry, error) {
	e, _, err := m.IncrBelow(ctx, key, NoLimit, expireAt)
	return e, err
}

func (m *Memory) IncrBelow(_ context.Context, key string, limit int64, expireAt time.Time) (Entry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	m.maybeSweep(now)
	e := m.lookup(key, now)
	if e == nil {
		if limit == 0 {
			return Entry{}, false, nil
		}
		e = &memEntry{expiresAt: expireAt}
		m.entries[key] = e
	}
	if limit >= 0 && e.count >= limit {
		return Entry{Count: e.count, ExpiresAt: e.expiresAt}, false, nil
	}
	e.count++
	return Entry{Count: e.count, ExpiresAt: e.expiresAt}, true, nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// lookup returns the live entry for key, dropping it when expired.
func (m *Memory) lookup(key string, now time.Time) *memEntry {
	e, ok := m.entries[key]
	if !ok {
		return nil
	}
	if !e.expiresAt.IsZero() && !now.Before(e.expiresAt) {
		delete(m.entries, key)
		return nil
	}
	return e
}

func (m *Memory) maybeSweep(now time.Time) {
	m.ops++
	if m.ops < sweepEvery {
		return
	}
	m.ops = 0
	for k, e := range m.entries {
		if !e.expiresAt.IsZero() && !now.Before(e.expiresAt) {
			delete(m.entries, k)
		}
	}
}

var _ Counter = (*Memory)(nil)
