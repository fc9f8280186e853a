// Package ratelimit counts attempts per key in fixed time windows.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

const (
	DefaultLimit  = 3
	DefaultWindow = 10 * time.Minute
)

// Counter decides whether one more attempt for key fits in the current window.
// A denied attempt is not counted.
type Counter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type window struct {
	count int
	start time.Time
}

// MemoryCounter is process-local: counts are lost on restart and are not
// shared between instances.
type MemoryCounter struct {
	mu        sync.Mutex
	limit     int
	window    time.Duration
	now       func() time.Time
	entries   map[string]*window
	maxMemory int
}

func NewMemoryCounter(limit int, w time.Duration) *MemoryCounter {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if w <= 0 {
		w = DefaultWindow
	}
	return &MemoryCounter{
		limit:     limit,
		window:    w,
		now:       time.Now,
		entries:   make(map[string]*window),
		maxMemory: 10000,
	}
}

// WithClock replaces the time source. Used by tests.
func (m *MemoryCounter) WithClock(now func() time.Time) *MemoryCounter {
	m.now = now
	return m
}

func (m *MemoryCounter) Allow(_ context.Context, key string) (bool, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		e = &window{start: now}
		m.entries[key] = e
	}
	if now.Sub(e.start) > m.window {
		e.count = 0
		e.start = now
	}
	if e.count >= m.limit {
		return false, nil
	}
	e.count++

	if len(m.entries) > m.maxMemory {
		for k, v := range m.entries {
			if now.Sub(v.start) > m.window {
				delete(m.entries, k)
			}
		}
	}
	return true, nil
}
