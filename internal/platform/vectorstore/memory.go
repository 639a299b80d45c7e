package vectorstore

import (
	"context"
	"math"
	"sort"
	"sync"
)

// InMemory is a brute-force cosine-similarity Store for tests and the
// demo binary, avoiding any network dependency.
type InMemory struct {
	mu   sync.Mutex
	data map[string]map[string]Vector // namespace -> id -> vector
}

func NewInMemory() *InMemory {
	return &InMemory{data: map[string]map[string]Vector{}}
}

func (m *InMemory) Upsert(_ context.Context, namespace string, vectors []Vector) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ns, ok := m.data[namespace]
	if !ok {
		ns = map[string]Vector{}
		m.data[namespace] = ns
	}
	for _, v := range vectors {
		ns[v.ID] = v
	}
	return nil
}

func (m *InMemory) QueryMatches(_ context.Context, namespace string, query []float32, topK int, filter map[string]any) ([]Match, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ns := m.data[namespace]
	matches := make([]Match, 0, len(ns))
	for _, v := range ns {
		if !matchesFilter(v.Metadata, filter) {
			continue
		}
		matches = append(matches, Match{ID: v.ID, Score: cosine(query, v.Values)})
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })
	if topK > 0 && len(matches) > topK {
		matches = matches[:topK]
	}
	return matches, nil
}

func (m *InMemory) QueryIDs(ctx context.Context, namespace string, query []float32, topK int, filter map[string]any) ([]string, error) {
	matches, err := m.QueryMatches(ctx, namespace, query, topK, filter)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(matches))
	for i, mt := range matches {
		ids[i] = mt.ID
	}
	return ids, nil
}

func (m *InMemory) DeleteIDs(_ context.Context, namespace string, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ns, ok := m.data[namespace]
	if !ok {
		return nil
	}
	for _, id := range ids {
		delete(ns, id)
	}
	return nil
}

func matchesFilter(metadata map[string]any, filter map[string]any) bool {
	for k, want := range filter {
		if metadata[k] != want {
			return false
		}
	}
	return true
}

func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
