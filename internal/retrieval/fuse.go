package retrieval

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/neurobridge-labs/infobar-core/internal/domain/infobar"
)

// fuse implements §4.9 step 4: weighted sum across paths, merging
// results that share an id and recording every contributing source.
func fuse(vector, keyword, graph []infobar.RetrievalResult, w Weights) []infobar.RetrievalResult {
	type acc struct {
		result  infobar.RetrievalResult
		sources map[infobar.RetrievalSource]bool
	}
	byID := map[string]*acc{}
	order := []string{}

	add := func(results []infobar.RetrievalResult, weight float64) {
		for _, r := range results {
			a, ok := byID[r.ID]
			if !ok {
				a = &acc{result: r, sources: map[infobar.RetrievalSource]bool{}}
				byID[r.ID] = a
				order = append(order, r.ID)
			}
			a.result.FusedScore += weight * r.Score
			a.sources[r.Source] = true
			if a.result.Content == "" {
				a.result.Content = r.Content
			}
			if a.result.Metadata == nil {
				a.result.Metadata = r.Metadata
			}
		}
	}

	add(vector, w.Vector)
	add(keyword, w.Keyword)
	add(graph, w.Graph)

	out := make([]infobar.RetrievalResult, 0, len(order))
	for _, id := range order {
		a := byID[id]
		a.result.Sources = sourceList(a.sources)
		out = append(out, a.result)
	}
	return out
}

func sourceList(set map[infobar.RetrievalSource]bool) []infobar.RetrievalSource {
	out := make([]infobar.RetrievalSource, 0, len(set))
	for _, s := range []infobar.RetrievalSource{infobar.SourceVector, infobar.SourceKeyword, infobar.SourceGraph} {
		if set[s] {
			out = append(out, s)
		}
	}
	return out
}

// rerank implements §4.9 step 5's four multiplicative factors.
func rerank(results []infobar.RetrievalResult, now time.Time, recentQueryContext string) []infobar.RetrievalResult {
	for i := range results {
		r := &results[i]
		multiSourceBoost := 1 + 0.2*float64(len(r.Sources))

		ageDays := 0.0
		if ts, ok := r.Metadata["timestamp"].(time.Time); ok {
			ageDays = now.Sub(ts).Hours() / 24
		}
		recencyFactor := 0.7 + 0.3*math.Exp(-ageDays/30)

		importance := 0.0
		if v, ok := r.Metadata["importance"].(float64); ok {
			importance = v
		}
		importanceFactor := 0.8 + 0.2*importance

		contextFactor := 0.9 + 0.1*jaccard(recentQueryContext, r.Content)

		r.RerankScore = r.FusedScore * multiSourceBoost * recencyFactor * importanceFactor * contextFactor
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].RerankScore > results[j].RerankScore })
	return results
}

// jaccard computes token-set Jaccard similarity over whitespace-split,
// lowercased words.
func jaccard(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}
	intersection := 0
	for t := range setA {
		if setB[t] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func tokenSet(s string) map[string]bool {
	out := map[string]bool{}
	for _, w := range strings.Fields(strings.ToLower(s)) {
		out[w] = true
	}
	return out
}

// diversityFilter implements §4.9 step 6: greedy selection, rejecting a
// candidate whose Jaccard similarity with any already-selected content
// exceeds 1 - diversityFactor.
func diversityFilter(results []infobar.RetrievalResult, diversityFactor float64) []infobar.RetrievalResult {
	threshold := 1 - diversityFactor
	var selected []infobar.RetrievalResult
	for _, r := range results {
		tooSimilar := false
		for _, s := range selected {
			if jaccard(r.Content, s.Content) > threshold {
				tooSimilar = true
				break
			}
		}
		if !tooSimilar {
			selected = append(selected, r)
		}
	}
	return selected
}
