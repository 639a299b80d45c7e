// Package retrieval implements ContextualRetrieval (C9): hybridSearch
// fans a query out to vector, keyword, and graph retrieval paths, fuses
// and reranks their hits, filters for diversity, and caches the result
// under a semantic (embedding-similarity) key.
package retrieval

import (
	"time"

	"github.com/neurobridge-labs/infobar-core/internal/domain/infobar"
)

// Weights controls fusion's weighted sum (§4.9 step 4).
type Weights struct {
	Vector  float64
	Keyword float64
	Graph   float64
}

// Options configures one hybridSearch call. Zero-valued numeric fields
// (other than MinRelevanceScore) and an all-zero Weights fall back to
// the package defaults in DefaultOptions; the Enable* booleans are
// used as given.
type Options struct {
	ChatID string

	EnableCache               bool
	CacheSimilarityThreshold  float64
	CacheSize                 int
	EnableQueryEnhancement    bool
	ContextWindowSize         int
	ConversationHistory       []string
	MaxResults                int
	MinRelevanceScore         float64
	EnableRerank              bool
	DiversityFactor           float64
	Weights                   Weights
	MinGraphImportance        float64
}

// DefaultOptions returns the spec's defaults (§4.9).
func DefaultOptions() Options {
	return Options{
		EnableCache:              true,
		CacheSimilarityThreshold: 0.95,
		CacheSize:                100,
		EnableQueryEnhancement:   true,
		ContextWindowSize:        3,
		MaxResults:               10,
		MinRelevanceScore:        0,
		EnableRerank:             true,
		DiversityFactor:          0.3,
		Weights:                  Weights{Vector: 0.5, Keyword: 0.3, Graph: 0.2},
		MinGraphImportance:       0.6,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.CacheSimilarityThreshold == 0 {
		o.CacheSimilarityThreshold = d.CacheSimilarityThreshold
	}
	if o.CacheSize == 0 {
		o.CacheSize = d.CacheSize
	}
	if o.ContextWindowSize == 0 {
		o.ContextWindowSize = d.ContextWindowSize
	}
	if o.MaxResults == 0 {
		o.MaxResults = d.MaxResults
	}
	if o.DiversityFactor == 0 {
		o.DiversityFactor = d.DiversityFactor
	}
	if o.Weights == (Weights{}) {
		o.Weights = d.Weights
	}
	if o.MinGraphImportance == 0 {
		o.MinGraphImportance = d.MinGraphImportance
	}
	return o
}

// MemoryWriter is the optional write side of MemoryLayers, satisfied by
// InMemoryLayers. It lets a collaborator outside the external
// deep-memory store (for example the ai_memory_summary ingestion path,
// §9) add a record directly rather than through that store's own
// write path.
type MemoryWriter interface {
	Add(chatID, layer string, rec infobar.MemoryRecord)
}

// SearchResult is hybridSearch's return value.
type SearchResult struct {
	Results       []infobar.RetrievalResult
	Query         string
	EnhancedQuery string
	RetrievalTime time.Duration
	Method        string
	Stats         map[string]any
}
