package host

import (
	"context"
	"fmt"
	"sync"
)

// InMemory is a minimal HostContext fake for local/dev use and tests.
// It stands in for the real chat platform integration, which is out of
// this module's scope (§6).
type InMemory struct {
	mu        sync.Mutex
	chatID    string
	prompts   map[string]string
	handlers  map[string][]EventHandler
}

// NewInMemory builds an InMemory host bound to a fixed chat id.
func NewInMemory(chatID string) *InMemory {
	return &InMemory{
		chatID:   chatID,
		prompts:  map[string]string{},
		handlers: map[string][]EventHandler{},
	}
}

func (h *InMemory) GetChatID(ctx context.Context) (string, error) {
	if h.chatID == "" {
		return "", fmt.Errorf("host: no chat id bound")
	}
	return h.chatID, nil
}

func (h *InMemory) SetExtensionPrompt(ctx context.Context, identifier, text string, priority int, position Anchor) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if identifier == "" {
		return fmt.Errorf("host: missing extension prompt identifier")
	}
	if text == "" {
		delete(h.prompts, identifier)
		return nil
	}
	h.prompts[identifier] = text
	return nil
}

// Prompt returns the text currently stashed under identifier, for test
// assertions and for the "injection hook absent" fallback slot (§7).
func (h *InMemory) Prompt(identifier string) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	text, ok := h.prompts[identifier]
	return text, ok
}

func (h *InMemory) On(event string, handler EventHandler) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handlers[event] = append(h.handlers[event], handler)
	idx := len(h.handlers[event]) - 1
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		handlers := h.handlers[event]
		if idx < len(handlers) {
			handlers[idx] = nil
		}
	}
}

func (h *InMemory) Emit(event string, payload any) {
	h.mu.Lock()
	handlers := append([]EventHandler(nil), h.handlers[event]...)
	h.mu.Unlock()
	for _, handler := range handlers {
		if handler != nil {
			handler(payload)
		}
	}
}
