package graphdb

import "context"

// LayerScanSource implements Source directly over memory-layer maps, no
// graph database required. This is what hybridSearch falls back to (and
// what tests/the demo binary use) when no graphdb.Client is wired.
type LayerScanSource struct {
	Layers func() map[string][]Neighbor
}

func NewLayerScanSource(layers func() map[string][]Neighbor) *LayerScanSource {
	return &LayerScanSource{Layers: layers}
}

func (s *LayerScanSource) ImportantNeighbors(_ context.Context, _ string, minImportance float64, limit int) ([]Neighbor, error) {
	var candidates []Neighbor
	for _, layer := range s.Layers() {
		for _, n := range layer {
			if n.Importance >= minImportance {
				candidates = append(candidates, n)
			}
		}
	}
	sortByRecency(candidates)
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

func sortByRecency(ns []Neighbor) {
	for i := 1; i < len(ns); i++ {
		for j := i; j > 0 && ns[j].Timestamp.After(ns[j-1].Timestamp); j-- {
			ns[j], ns[j-1] = ns[j-1], ns[j]
		}
	}
}
