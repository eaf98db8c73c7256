package storage

import (
	"sort"
	"sync"
)

// Memory is a thread-safe in-memory store with an optional byte quota.
// Usage is measured as the sum of key and value lengths, the way browser
// origin storage accounts for it.
type Memory struct {
	items map[string]string
	used  int64
	quota int64
	mu    sync.RWMutex
}

// NewMemory creates a new in-memory store with the specified quota in bytes.
// If quotaBytes is 0 or negative, the store is unbounded.
func NewMemory(quotaBytes int64) *Memory {
	if quotaBytes < 0 {
		quotaBytes = 0
	}
	return &Memory{
		items: make(map[string]string),
		quota: quotaBytes,
	}
}

// Get retrieves a value from the store. It never fails.
func (m *Memory) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	val, ok := m.items[key]
	return val, ok, nil
}

// Set stores a value, failing with a *QuotaError if it would not fit.
func (m *Memory) Set(key string, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	size := m.used + itemSize(key, value)
	if old, ok := m.items[key]; ok {
		size -= itemSize(key, old)
	}

	if m.quota > 0 && size > m.quota {
		return &QuotaError{Key: key, Size: size, Limit: m.quota}
	}

	m.items[key] = value
	m.used = size
	return nil
}

// Remove deletes a key from the store.
func (m *Memory) Remove(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if old, ok := m.items[key]; ok {
		m.used -= itemSize(key, old)
		delete(m.items, key)
	}
	return nil
}

// Used returns the number of bytes currently held.
func (m *Memory) Used() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.used
}

// Quota returns the configured quota in bytes (0 = unbounded).
func (m *Memory) Quota() int64 {
	return m.quota
}

// Keys returns all stored keys in sorted order.
func (m *Memory) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.items))
	for k := range m.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clear removes all keys from the store.
func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = make(map[string]string)
	m.used = 0
}

func itemSize(key, value string) int64 {
	return int64(len(key) + len(value))
}

// Verify Memory implements Adapter
var _ Adapter = (*Memory)(nil)
