package journal

import (
	"context"
	"sync"
)

// DefaultMemoryCapacity bounds the in-memory journal when no capacity is
// given.
var DefaultMemoryCapacity = 1000

// Memory is a bounded in-memory journal. When full, the oldest entries
// are discarded. Safe for concurrent use.
type Memory struct {
	mu       sync.RWMutex
	entries  []*Entry
	capacity int
}

// NewMemory creates an in-memory journal retaining at most capacity
// entries. capacity <= 0 uses DefaultMemoryCapacity.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &Memory{capacity: capacity}
}

// Append stores one entry, discarding the oldest when at capacity.
func (m *Memory) Append(ctx context.Context, e *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.entries) >= m.capacity {
		drop := len(m.entries) - m.capacity + 1
		m.entries = append(m.entries[:0], m.entries[drop:]...)
	}
	m.entries = append(m.entries, e)
	return nil
}

// List returns the most recent entries, newest first.
func (m *Memory) List(ctx context.Context, limit int64) ([]*Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := int64(len(m.entries))
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]*Entry, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, m.entries[i])
	}
	return out, nil
}

// Count returns the number of retained entries.
func (m *Memory) Count(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.entries)), nil
}

// Clear removes all entries.
func (m *Memory) Clear(ctx context.Context) error {
	m.mu.Lock()
	m.entries = nil
	m.mu.Unlock()
	return nil
}

// Compile-time check
var _ Store = (*Memory)(nil)
