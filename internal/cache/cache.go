// Package cache keeps recent list responses so switching filters back and forth
// does not refetch within the stale time.
package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Cache stores opaque values under string keys with a TTL.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	// DeletePrefix drops every key starting with prefix.
	DeletePrefix(ctx context.Context, prefix string) error
	Close() error
}

// New picks the implementation for a cache.driver value.
func New(driver, redisURL string) (Cache, error) {
	switch driver {
	case "", "memory":
		return NewMemory(), nil
	case "redis":
		return NewRedis(redisURL)
	case "none":
		return Nop{}, nil
	}
	return nil, fmt.Errorf("unknown cache driver %q", driver)
}

type entry struct {
	val     []byte
	expires time.Time
}

// Memory is a process-local cache.
type Memory struct {
	mu   sync.Mutex
	data map[string]entry
	now  func() time.Time
}

func NewMemory() *Memory { return &Memory{data: map[string]entry{}, now: time.Now} }

// NewMemoryWithClock is NewMemory with an injectable clock.
func NewMemoryWithClock(now func() time.Time) *Memory {
	return &Memory{data: map[string]entry{}, now: now}
}

func (m *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		delete(m.data, key)
		return nil, false, nil
	}
	return e.val, true, nil
}

func (m *Memory) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := entry{val: val}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.data[key] = e
	return nil
}

func (m *Memory) DeletePrefix(_ context.Context, prefix string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			delete(m.data, k)
		}
	}
	return nil
}

func (m *Memory) Close() error { return nil }

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, bool, error)        { return nil, false, nil }
func (Nop) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (Nop) DeletePrefix(context.Context, string) error               { return nil }
func (Nop) Close() error                                             { return nil }
