package retrieval

import (
	"math"
	"sync"
)

type cacheEntry struct {
	chatID    string
	query     string
	embedding []float32
	result    SearchResult
}

// semanticCache is hybridSearch's step 1/8 cache: probed by embedding
// cosine similarity, evicted FIFO once full (§4.9, §5). Entries are
// tagged with the chatID they were produced for and scoped to it on
// probe, and the whole cache is cleared wholesale on a chat switch
// (§3 "Semantic cache: owned by C9; flushed on chat switch", §5).
type semanticCache struct {
	mu      sync.Mutex
	entries []cacheEntry
	maxSize int
}

func newSemanticCache(maxSize int) *semanticCache {
	if maxSize <= 0 {
		maxSize = 100
	}
	return &semanticCache{maxSize: maxSize}
}

// probe returns the cached result for the closest same-chat entry
// whose similarity with embedding meets threshold, if any.
func (c *semanticCache) probe(chatID string, embedding []float32, threshold float64) (SearchResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var best *cacheEntry
	bestScore := -1.0
	for i := range c.entries {
		if c.entries[i].chatID != chatID {
			continue
		}
		score := cosineSimilarity(embedding, c.entries[i].embedding)
		if score >= threshold && score > bestScore {
			bestScore = score
			best = &c.entries[i]
		}
	}
	if best == nil {
		return SearchResult{}, false
	}
	return best.result, true
}

// store appends an entry, evicting the oldest once over capacity.
func (c *semanticCache) store(chatID, query string, embedding []float32, result SearchResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = append(c.entries, cacheEntry{chatID: chatID, query: query, embedding: embedding, result: result})
	for len(c.entries) > c.maxSize {
		c.entries = c.entries[1:]
	}
}

// flush wholesale-clears the cache, used on a host chat:changed event.
func (c *semanticCache) flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = nil
}

func cosineSimilarity(a, b []float32) float64 {
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

// queryHistory is the N=10 ring buffer recorded by step 9 and consumed
// by step 5's context factor.
type queryHistory struct {
	mu   sync.Mutex
	buf  []string
	size int
}

func newQueryHistory(size int) *queryHistory {
	if size <= 0 {
		size = 10
	}
	return &queryHistory{size: size}
}

// reset wholesale-clears the history, used on a host chat:changed event.
func (h *queryHistory) reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.buf = nil
}

func (h *queryHistory) record(query string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.buf = append(h.buf, query)
	for len(h.buf) > h.size {
		h.buf = h.buf[1:]
	}
}

// recentContext joins the buffered queries into one string for the
// rerank context-factor's Jaccard comparison.
func (h *queryHistory) recentContext() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := ""
	for i, q := range h.buf {
		if i > 0 {
			out += " "
		}
		out += q
	}
	return out
}
