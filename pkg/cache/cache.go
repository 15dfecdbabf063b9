// Package cache provides a small key/value cache used by the note
// service for first-page list results. Values are opaque byte slices,
// typically JSON. The in-memory implementation expires entries lazily
// on access; there is no background sweeper.
package cache

import (
	"sync"
	"time"
)

// Cache is the contract services cache through. Implementations must be
// safe for concurrent use.
type Cache interface {
	// Get returns the cached value and whether the key was present and
	// not expired.
	Get(key string) ([]byte, bool)

	// Set stores a value under key for the given lifetime. A
	// non-positive ttl stores nothing.
	Set(key string, value []byte, ttl time.Duration)

	// Delete removes a key. Deleting an absent key is a no-op.
	Delete(key string)
}

// entry holds a cached value and its expiry.
type entry struct {
	value     []byte
	expiresAt time.Time
}

// Memory is an in-process Cache backed by a map.
type Memory struct {
	mu      sync.Mutex
	entries map[string]entry
}

// Ensure Memory implements Cache at compile time.
var _ Cache = (*Memory)(nil)

// NewMemory creates an empty in-process cache.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string]entry)}
}

// Get returns the value for key if it is present and fresh. Expired
// entries are dropped on access.
func (m *Memory) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		delete(m.entries, key)
		return nil, false
	}
	return e.value, true
}

// Set stores value under key until ttl elapses.
func (m *Memory) Set(key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[key] = entry{value: value, expiresAt: time.Now().Add(ttl)}
}

// Delete removes key from the cache.
func (m *Memory) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, key)
}
