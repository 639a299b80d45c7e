package infobar

import "time"

// MemoryRecord is a layered, durable memory item owned by the external
// deep-memory collaborator; ContextualRetrieval (C9) reads these but
// never mutates the layer store directly.
type MemoryRecord struct {
	ID         string
	Content    string
	Timestamp  time.Time
	Importance float64 // 0..1
	Tags       []string
	Category   string
	Layer      string
	Metadata   map[string]any
}

// RetrievalSource names which retrieval path surfaced a result.
type RetrievalSource string

const (
	SourceVector  RetrievalSource = "vector"
	SourceKeyword RetrievalSource = "keyword"
	SourceGraph   RetrievalSource = "graph"
)

// RetrievalResult is the unified shape every C9 retrieval path maps
// its hits into before fusion.
type RetrievalResult struct {
	ID          string
	Content     string
	Score       float64
	Source      RetrievalSource
	Sources     []RetrievalSource // populated post-fusion when results merge across paths
	FusedScore  float64
	RerankScore float64
	Metadata    map[string]any
}
