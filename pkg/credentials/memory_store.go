package credentials

import (
	"sync"
)

// MemoryStore keeps secrets in memory, for tests and one-off runs
type MemoryStore struct {
	secrets map[string]string
	mu      sync.RWMutex

	// Error injection for testing
	GetError error
	SetError error
}

// NewMemoryStore creates a store seeded with values
func NewMemoryStore(values map[string]string) *MemoryStore {
	m := &MemoryStore{secrets: make(map[string]string)}
	for k, v := range values {
		m.secrets[k] = v
	}
	return m
}

func (m *MemoryStore) Name() string { return "memory" }

func (m *MemoryStore) Get(name string) (string, error) {
	if m.GetError != nil {
		return "", m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.secrets[name]
	if !ok {
		return "", ErrCredentialsNotFound
	}
	return value, nil
}

func (m *MemoryStore) Set(name, value string) error {
	if m.SetError != nil {
		return m.SetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.secrets[name] = value
	return nil
}

func (m *MemoryStore) Delete(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.secrets[name]; !ok {
		return ErrCredentialsNotFound
	}
	delete(m.secrets, name)
	return nil
}

// Count returns the number of stored secrets
func (m *MemoryStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.secrets)
}
