package keychain

import (
	"bytes"
	"context"
	"sync"
)

// MemoryBackend keeps items in process memory.
// Two stores built on the same MemoryBackend see each other's writes.
type MemoryBackend struct {
	mu    sync.RWMutex
	items map[string][]byte
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{items: make(map[string][]byte)}
}

func (m *MemoryBackend) Get(ctx context.Context, item Item) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.items[item.ID()]
	if !ok {
		return nil, ErrNotFound
	}
	return bytes.Clone(value), nil
}

func (m *MemoryBackend) Put(ctx context.Context, item Item, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.items[item.ID()] = bytes.Clone(value)
	return nil
}

func (m *MemoryBackend) Delete(ctx context.Context, item Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.items, item.ID())
	return nil
}

func (m *MemoryBackend) Create(ctx context.Context, item Item, value []byte) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.items[item.ID()]; exists {
		return false, nil
	}
	m.items[item.ID()] = bytes.Clone(value)
	return true, nil
}

// Len returns the number of stored items.
func (m *MemoryBackend) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}
