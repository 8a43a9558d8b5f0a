// file: internal/legacy/backend.go
// version: 1.0.0
// guid: 2b8d5f61-0c4e-4a97-b3e2-8f1a6d9c0e75

package legacy

import (
	"errors"
	"sort"
	"sync"
)

// ErrUnavailable is returned when the backing key-value store cannot be used.
var ErrUnavailable = errors.New("legacy storage unavailable")

// Backend is a flat string key-value store. Implementations must be safe for
// concurrent use.
type Backend interface {
	// Name identifies the backend in logs and metrics.
	Name() string
	// Get returns the value and whether the key exists.
	Get(key string) (string, bool, error)
	Set(key, value string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(key string) error
	// Keys lists every key in the backend.
	Keys() ([]string, error)
	Close() error
}

// MemoryBackend keeps everything in a map. It is the default backend and the
// one used by tests.
type MemoryBackend struct {
	mu     sync.RWMutex
	data   map[string]string
	closed bool
}

// NewMemoryBackend creates an empty in-memory backend
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string]string)}
}

func (m *MemoryBackend) Name() string { return "memory" }

func (m *MemoryBackend) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return "", false, ErrUnavailable
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryBackend) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrUnavailable
	}
	m.data[key] = value
	return nil
}

func (m *MemoryBackend) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrUnavailable
	}
	delete(m.data, key)
	return nil
}

// Keys returns the keys in sorted order.
func (m *MemoryBackend) Keys() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrUnavailable
	}
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Close marks the backend unusable. Subsequent calls return ErrUnavailable.
func (m *MemoryBackend) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}
