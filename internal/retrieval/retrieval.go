package retrieval

import (
	"context"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/neurobridge-labs/infobar-core/internal/domain/infobar"
	"github.com/neurobridge-labs/infobar-core/internal/platform/embedding"
	"github.com/neurobridge-labs/infobar-core/internal/platform/graphdb"
	"github.com/neurobridge-labs/infobar-core/internal/platform/logger"
	"github.com/neurobridge-labs/infobar-core/internal/platform/tracing"
	"github.com/neurobridge-labs/infobar-core/internal/platform/vectorstore"
)

// Retriever runs hybridSearch. Any of embedder, vector, or graph may be
// nil, in which case that path contributes nothing rather than erroring.
type Retriever struct {
	log      *logger.Logger
	embedder embedding.Embedder
	vector   vectorstore.Store
	graph    graphdb.Source
	layers   MemoryLayers

	cache   *semanticCache
	history *queryHistory
}

func New(log *logger.Logger, embedder embedding.Embedder, vector vectorstore.Store, graph graphdb.Source, layers MemoryLayers) *Retriever {
	return &Retriever{
		log:      log.With("component", "ContextualRetrieval"),
		embedder: embedder,
		vector:   vector,
		graph:    graph,
		layers:   layers,
		cache:    newSemanticCache(100),
		history:  newQueryHistory(10),
	}
}

// HybridSearch never throws: every internal failure degrades to an
// empty contribution, a vector-only fallback, or an empty result (§4.9,
// §7 "Retrieval subpath failure" / "Whole retrieval failure").
func (r *Retriever) HybridSearch(ctx context.Context, query string, opts Options) SearchResult {
	ctx, span := tracing.Start(ctx, "hybridSearch", attribute.String("chatId", opts.ChatID))
	defer span.End()

	start := time.Now()
	opts = opts.withDefaults()
	if r.cache.maxSize != opts.CacheSize {
		r.cache.maxSize = opts.CacheSize
	}

	var queryEmbedding []float32
	if opts.EnableCache {
		queryEmbedding = r.embedQuery(ctx, query)
	}

	if opts.EnableCache && queryEmbedding != nil {
		if cached, ok := r.cache.probe(opts.ChatID, queryEmbedding, opts.CacheSimilarityThreshold); ok {
			cached.Method = "cache"
			cached.RetrievalTime = time.Since(start)
			span.SetAttributes(attribute.String("method", "cache"), attribute.Int("resultCount", len(cached.Results)))
			return cached
		}
	}

	enhanced := query
	if opts.EnableQueryEnhancement {
		enhanced = enhanceQuery(query, opts.ConversationHistory, opts.ContextWindowSize)
	}

	vector, keyword, graph, method := r.retrieveAll(ctx, opts, enhanced)

	fused := fuse(vector, keyword, graph, opts.Weights)
	fused = r.enrich(opts.ChatID, fused)

	if opts.EnableRerank && len(fused) > 0 {
		fused = rerank(fused, time.Now(), r.history.recentContext())
	} else {
		for i := range fused {
			fused[i].RerankScore = fused[i].FusedScore
		}
		sort.SliceStable(fused, func(i, j int) bool { return fused[i].RerankScore > fused[j].RerankScore })
	}

	diverse := diversityFilter(fused, opts.DiversityFactor)

	var final []infobar.RetrievalResult
	for _, res := range diverse {
		if res.RerankScore >= opts.MinRelevanceScore {
			final = append(final, res)
		}
		if len(final) >= opts.MaxResults {
			break
		}
	}

	result := SearchResult{
		Results:       final,
		Query:         query,
		EnhancedQuery: enhanced,
		RetrievalTime: time.Since(start),
		Method:        method,
		Stats: map[string]any{
			"vectorHits":  len(vector),
			"keywordHits": len(keyword),
			"graphHits":   len(graph),
			"fusedCount":  len(fused),
		},
	}

	if opts.EnableCache && queryEmbedding != nil {
		r.cache.store(opts.ChatID, query, queryEmbedding, result)
	}
	r.history.record(query)

	span.SetAttributes(
		attribute.String("method", result.Method),
		attribute.Int64("retrievalTimeMs", result.RetrievalTime.Milliseconds()),
		attribute.Int("resultCount", len(result.Results)),
	)
	return result
}

// Reset wholesale-clears the semantic cache and query history, called
// on a host chat:changed event (§3 "Semantic cache: owned by C9;
// flushed on chat switch", §5).
func (r *Retriever) Reset() {
	r.cache.flush()
	r.history.reset()
}

// IngestMemory adds rec directly to the chat's memory layers, if the
// configured MemoryLayers also satisfies MemoryWriter. This is the
// bridge for records this package's own callers produce outside the
// external deep-memory collaborator's own write path, such as C7's
// ai_memory_summary extraction (§9).
func (r *Retriever) IngestMemory(chatID string, rec infobar.MemoryRecord) {
	w, ok := r.layers.(MemoryWriter)
	if !ok {
		return
	}
	layer := rec.Layer
	if layer == "" {
		layer = rec.Category
	}
	w.Add(chatID, layer, rec)
}

func (r *Retriever) embedQuery(ctx context.Context, query string) []float32 {
	if r.embedder == nil {
		return nil
	}
	vecs, err := r.embedder.Embed(ctx, []string{query})
	if err != nil || len(vecs) == 0 {
		if err != nil {
			r.log.Warn("query embedding failed, skipping semantic cache this turn", "error", err)
		}
		return nil
	}
	return vecs[0]
}

// retrieveAll dispatches the three retrieval paths concurrently via
// errgroup.WithContext + SetLimit, the same fan-out shape the teacher
// uses to embed chunk batches concurrently. A subpath's own error never
// reaches the group error; it degrades that path to an empty
// contribution and is logged. If the group fails or the context is
// cancelled mid-flight, hybridSearch falls back to a vector-only
// retrieval and, failing that, returns nothing.
func (r *Retriever) retrieveAll(ctx context.Context, opts Options, enhancedQuery string) (vector, keyword, graph []infobar.RetrievalResult, method string) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(3)

	g.Go(func() error {
		v, err := r.vectorSearch(gctx, opts, enhancedQuery)
		if err != nil {
			r.log.Warn("vector retrieval failed, substituting empty contribution", "error", err)
			v = nil
		}
		vector = v
		return nil
	})
	g.Go(func() error {
		k, err := r.keywordSearch(opts, enhancedQuery)
		if err != nil {
			r.log.Warn("keyword retrieval failed, substituting empty contribution", "error", err)
			k = nil
		}
		keyword = k
		return nil
	})
	g.Go(func() error {
		gr, err := r.graphSearch(gctx, opts)
		if err != nil {
			r.log.Warn("graph retrieval failed, substituting empty contribution", "error", err)
			gr = nil
		}
		graph = gr
		return nil
	})

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		r.log.Warn("retrieval fan-out aborted, falling back to vector-only", "error", err)
		v, verr := r.vectorSearch(ctx, opts, enhancedQuery)
		if verr != nil {
			return nil, nil, nil, "empty"
		}
		return v, nil, nil, "vector-only"
	}
	return vector, keyword, graph, "hybrid"
}

func (r *Retriever) vectorSearch(ctx context.Context, opts Options, query string) ([]infobar.RetrievalResult, error) {
	if r.vector == nil || r.embedder == nil {
		return nil, nil
	}
	vecs, err := r.embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(vecs) == 0 {
		return nil, nil
	}
	matches, err := r.vector.QueryMatches(ctx, opts.ChatID, vecs[0], 2*opts.MaxResults, nil)
	if err != nil {
		return nil, err
	}
	out := make([]infobar.RetrievalResult, len(matches))
	for i, m := range matches {
		out[i] = infobar.RetrievalResult{ID: m.ID, Score: m.Score, Source: infobar.SourceVector}
	}
	return out, nil
}

// keywordSearch implements §4.9 step 3's keyword path: split the query
// into length > 1 tokens, score each memory by matches-per-word / 10
// capped at 1, keep those with at least one match.
func (r *Retriever) keywordSearch(opts Options, query string) ([]infobar.RetrievalResult, error) {
	if r.layers == nil {
		return nil, nil
	}
	var tokens []string
	for _, w := range strings.Fields(strings.ToLower(query)) {
		if len(w) > 1 {
			tokens = append(tokens, w)
		}
	}
	if len(tokens) == 0 {
		return nil, nil
	}

	var out []infobar.RetrievalResult
	for _, recs := range r.layers.AllLayers(opts.ChatID) {
		for _, rec := range recs {
			content := strings.ToLower(rec.Content)
			matches := 0
			for _, t := range tokens {
				if strings.Contains(content, t) {
					matches++
				}
			}
			if matches < 1 {
				continue
			}
			score := float64(matches) / 10
			if score > 1 {
				score = 1
			}
			out = append(out, infobar.RetrievalResult{
				ID:      rec.ID,
				Content: rec.Content,
				Score:   score,
				Source:  infobar.SourceKeyword,
				Metadata: map[string]any{
					"timestamp":  rec.Timestamp,
					"importance": rec.Importance,
				},
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if limit := 2 * opts.MaxResults; len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// graphSearch implements §4.9 step 3's graph path: top-N memories
// across layers by importance >= threshold, sorted by recency.
func (r *Retriever) graphSearch(ctx context.Context, opts Options) ([]infobar.RetrievalResult, error) {
	if r.graph == nil {
		return nil, nil
	}
	neighbors, err := r.graph.ImportantNeighbors(ctx, opts.ChatID, opts.MinGraphImportance, 2*opts.MaxResults)
	if err != nil {
		return nil, err
	}
	out := make([]infobar.RetrievalResult, len(neighbors))
	for i, n := range neighbors {
		out[i] = infobar.RetrievalResult{
			ID:      n.ID,
			Content: n.Content,
			Score:   n.Importance,
			Source:  infobar.SourceGraph,
			Metadata: map[string]any{
				"timestamp":  n.Timestamp,
				"importance": n.Importance,
				"layer":      n.Layer,
			},
		}
	}
	return out, nil
}

// enrich fills in content/metadata for results whose only source left
// them empty (the vector path returns bare ids/scores), by looking the
// id up across memory layers, since all three paths address the same
// underlying memory records.
func (r *Retriever) enrich(chatID string, results []infobar.RetrievalResult) []infobar.RetrievalResult {
	if r.layers == nil {
		return results
	}
	byID := map[string]infobar.MemoryRecord{}
	for _, recs := range r.layers.AllLayers(chatID) {
		for _, rec := range recs {
			byID[rec.ID] = rec
		}
	}
	for i := range results {
		if results[i].Content != "" {
			continue
		}
		if rec, ok := byID[results[i].ID]; ok {
			results[i].Content = rec.Content
			if results[i].Metadata == nil {
				results[i].Metadata = map[string]any{
					"timestamp":  rec.Timestamp,
					"importance": rec.Importance,
				}
			}
		}
	}
	return results
}
