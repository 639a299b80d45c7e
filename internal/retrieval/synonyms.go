package retrieval

import "strings"

// synonyms is a static lookup consulted by query enhancement (§4.9
// step 2). Deliberately small and domain-flavored rather than a full
// thesaurus; synonym expansion here is a recall nudge, not a rewrite.
var synonyms = map[string][]string{
	"name":     {"identity", "called"},
	"age":      {"years", "old"},
	"location": {"place", "where"},
	"time":     {"when", "clock"},
	"item":     {"object", "thing"},
	"health":   {"hp", "condition"},
	"quest":    {"mission", "task"},
	"enemy":    {"foe", "opponent"},
	"skill":    {"ability", "power"},
	"level":    {"rank", "tier"},
}

// enhanceQuery implements §4.9 step 2: prefix with recent conversation
// context (each turn truncated to 100 chars), then append up to 3
// synonyms drawn from the static map.
func enhanceQuery(query string, history []string, contextWindowSize int) string {
	var b strings.Builder

	if contextWindowSize > 0 && len(history) > 0 {
		start := len(history) - contextWindowSize
		if start < 0 {
			start = 0
		}
		recent := history[start:]
		b.WriteString("conversation context: ")
		for i, turn := range recent {
			if i > 0 {
				b.WriteString(" ")
			}
			b.WriteString(truncate(turn, 100))
		}
		b.WriteString(". ")
	}

	b.WriteString(query)

	added := 0
	for _, word := range strings.Fields(strings.ToLower(query)) {
		syns, ok := synonyms[word]
		if !ok {
			continue
		}
		for _, s := range syns {
			if added >= 3 {
				return b.String()
			}
			b.WriteString(" ")
			b.WriteString(s)
			added++
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
