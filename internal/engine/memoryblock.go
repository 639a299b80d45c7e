package engine

import (
	"fmt"
	"strings"

	"github.com/neurobridge-labs/infobar-core/internal/domain/infobar"
)

// formatMemoryBlock renders hybridSearch results into the memory
// enhancement block promptcompose.Options.MemoryBlock interpolates
// under the "=== MEMORY ENHANCEMENT ===" header.
func formatMemoryBlock(results []infobar.RetrievalResult) string {
	if len(results) == 0 {
		return ""
	}
	var b strings.Builder
	for _, r := range results {
		fmt.Fprintf(&b, "- %s (relevance %.2f)\n", strings.TrimSpace(r.Content), r.RerankScore)
	}
	return b.String()
}
