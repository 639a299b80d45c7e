package retrieval

import (
	"sync"

	"github.com/neurobridge-labs/infobar-core/internal/domain/infobar"
)

// MemoryLayers is the external deep-memory collaborator's read surface:
// memory-layer maps owned and mutated outside this package (§5:
// "Memory-layer maps are owned by the external deep-memory
// collaborator"). The keyword path scans these directly.
type MemoryLayers interface {
	AllLayers(chatID string) map[string][]infobar.MemoryRecord
}

// InMemoryLayers is a MemoryLayers for tests and the demo binary.
type InMemoryLayers struct {
	mu     sync.RWMutex
	byChat map[string]map[string][]infobar.MemoryRecord
}

func NewInMemoryLayers() *InMemoryLayers {
	return &InMemoryLayers{byChat: map[string]map[string][]infobar.MemoryRecord{}}
}

func (m *InMemoryLayers) Add(chatID, layer string, rec infobar.MemoryRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	chat, ok := m.byChat[chatID]
	if !ok {
		chat = map[string][]infobar.MemoryRecord{}
		m.byChat[chatID] = chat
	}
	chat[layer] = append(chat[layer], rec)
}

func (m *InMemoryLayers) AllLayers(chatID string) map[string][]infobar.MemoryRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string][]infobar.MemoryRecord, len(m.byChat[chatID]))
	for layer, recs := range m.byChat[chatID] {
		cp := make([]infobar.MemoryRecord, len(recs))
		copy(cp, recs)
		out[layer] = cp
	}
	return out
}
