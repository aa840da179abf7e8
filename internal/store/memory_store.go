package store

import (
	"context"
	"sync"
)

// MemoryStore is a process-local Store, used by tests and the "memory"
// driver.
type MemoryStore struct {
	mu    sync.Mutex
	slots map[string][]byte
	puts  int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{slots: make(map[string][]byte)}
}

// Get returns a copy of the blob stored in slot.
func (m *MemoryStore) Get(_ context.Context, slot string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.slots[slot]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// Put overwrites slot with a copy of data.
func (m *MemoryStore) Put(_ context.Context, slot string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[slot] = append([]byte(nil), data...)
	m.puts++
	return nil
}

// Delete removes slot.
func (m *MemoryStore) Delete(_ context.Context, slot string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.slots, slot)
	return nil
}

// Puts returns how many writes the store has accepted.
func (m *MemoryStore) Puts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.puts
}

// Close is a no-op.
func (m *MemoryStore) Close() error { return nil }
