package exportguard

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type memoryEntry struct {
	kind    Kind
	token   string
	expires time.Time
}

// Memory is a Guard for a single server instance.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// MemoryOption configures a Memory guard.
type MemoryOption func(*Memory)

// WithMemoryTTL sets how long an unreleased lease lasts.
func WithMemoryTTL(ttl time.Duration) MemoryOption {
	return func(m *Memory) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithMemoryClock overrides the time source.
func WithMemoryClock(now func() time.Time) MemoryOption {
	return func(m *Memory) {
		if now != nil {
			m.now = now
		}
	}
}

func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		entries: make(map[string]memoryEntry),
		ttl:     DefaultTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Memory) Acquire(_ context.Context, key string, kind Kind) (*Lease, error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("cannot acquire export guard for %q", kind)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if e, ok := m.entries[key]; ok && now.Before(e.expires) {
		return nil, conflict(key, e.kind)
	}
	token := newToken()
	m.entries[key] = memoryEntry{kind: kind, token: token, expires: now.Add(m.ttl)}
	return &Lease{Key: key, Kind: kind, token: token}, nil
}

// Release frees the slot if the lease still owns it.
func (m *Memory) Release(_ context.Context, lease *Lease) error {
	if lease == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[lease.Key]; ok && e.token == lease.token {
		delete(m.entries, lease.Key)
	}
	return nil
}

func (m *Memory) Status(_ context.Context, key string) (Kind, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return KindIdle, nil
	}
	if !m.now().Before(e.expires) {
		delete(m.entries, key)
		return KindIdle, nil
	}
	return e.kind, nil
}
