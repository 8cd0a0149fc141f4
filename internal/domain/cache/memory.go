package cache

import (
	"context"
	"sync"
)

// Memory is the in-process Store used by default and in tests.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]Entry)}
}

func (m *Memory) Get(ctx context.Context, key string) (Entry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.entries[key]
	return entry, ok, nil
}

func (m *Memory) Set(ctx context.Context, key string, entry Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = entry
	return nil
}

func (m *Memory) Close() error {
	return nil
}

// Len reports the number of stored entries, for tests.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
