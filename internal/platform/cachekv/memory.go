package cachekv

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type entry struct {
	raw     []byte
	expires time.Time
}

// InMemory is a process-local Store for tests and the demo binary.
type InMemory struct {
	mu   sync.Mutex
	data map[string]entry
}

func NewInMemory() *InMemory {
	return &InMemory{data: map[string]entry{}}
}

func (m *InMemory) Get(_ context.Context, key string, dest any) (bool, error) {
	m.mu.Lock()
	e, ok := m.data[key]
	m.mu.Unlock()
	if !ok {
		return false, nil
	}
	if !e.expires.IsZero() && time.Now().After(e.expires) {
		m.mu.Lock()
		delete(m.data, key)
		m.mu.Unlock()
		return false, nil
	}
	if err := json.Unmarshal(e.raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (m *InMemory) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	var expires time.Time
	if ttl > 0 {
		expires = time.Now().Add(ttl)
	}
	m.mu.Lock()
	m.data[key] = entry{raw: raw, expires: expires}
	m.mu.Unlock()
	return nil
}

func (m *InMemory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()
	return nil
}
