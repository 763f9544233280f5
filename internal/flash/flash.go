// Package flash stores one-shot notifications shown on the next page render.
package flash

import (
	"context"
	"sync"
	"time"
)

// Flash is the notification pair rendered under props.flash.
type Flash struct {
	Message  string `json:"message,omitempty"`
	ErrorMsg string `json:"errorMsg,omitempty"`
}

// Empty reports whether neither field is set.
func (f Flash) Empty() bool {
	return f.Message == "" && f.ErrorMsg == ""
}

// Store keeps at most one pending flash per key.
type Store interface {
	// Put replaces the pending flash for key.
	Put(ctx context.Context, key string, f Flash) error
	// Pop returns the pending flash for key and removes it. A missing or expired
	// entry yields an empty Flash.
	Pop(ctx context.Context, key string) (Flash, error)
}

type entry struct {
	flash   Flash
	expires time.Time
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]entry
	now     func() time.Time
}

// NewMemoryStore constructs a MemoryStore whose entries live for ttl.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Put implements Store.
func (m *MemoryStore) Put(ctx context.Context, key string, f Flash) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = entry{flash: f, expires: m.now().Add(m.ttl)}
	return nil
}

// Pop implements Store.
func (m *MemoryStore) Pop(ctx context.Context, key string) (Flash, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return Flash{}, nil
	}
	delete(m.entries, key)
	if !m.now().Before(e.expires) {
		return Flash{}, nil
	}
	return e.flash, nil
}

// Len reports how many entries, expired or not, are held.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Sweep drops expired entries. The server calls it periodically so abandoned
// flashes do not accumulate.
func (m *MemoryStore) Sweep() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for k, e := range m.entries {
		if !now.Before(e.expires) {
			delete(m.entries, k)
		}
	}
}
