package eventbus

import (
	"context"
	"encoding/json"
	"sync"
)

// InMemory is a process-local Bus for tests and the cmd/infobar demo
// binary, where no redis instance is available.
type InMemory struct {
	mu   sync.Mutex
	subs []func(Message)
}

// NewInMemory builds a Bus with no external dependency.
func NewInMemory() *InMemory {
	return &InMemory{}
}

func (b *InMemory) Publish(_ context.Context, event string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	msg := Message{Event: event, Payload: raw}
	b.mu.Lock()
	subs := append([]func(Message){}, b.subs...)
	b.mu.Unlock()
	for _, s := range subs {
		s(msg)
	}
	return nil
}

func (b *InMemory) Subscribe(_ context.Context, onMsg func(Message)) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = append(b.subs, onMsg)
	return nil
}

func (b *InMemory) Close() error { return nil }
