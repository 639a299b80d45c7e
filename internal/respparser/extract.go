package respparser

import "strings"

// Extraction is the raw, still-unclassified result of locating the
// reply's delimited tags.
type Extraction struct {
	ThinkProcess  string
	HasThink      bool
	DataBody      string
	HasData       bool
	MemorySummary string
	HasMemory     bool
}

// Extract scans reply for the three recognized tags using a linear
// scan rather than a greedy regex, so nested or HTML-wrapped tags
// don't confuse extraction (§4.7). Each body is comment-unwrapped if
// it is, in its entirety, a single HTML comment.
func Extract(reply string) Extraction {
	var ex Extraction

	if body, ok := findTag(reply, "infobar_data"); ok {
		ex.DataBody = unwrapComment(body)
		ex.HasData = true
	}
	if body, ok := findTag(reply, "aiThinkProcess"); ok {
		ex.ThinkProcess = unwrapComment(body)
		ex.HasThink = true
	}
	if body, ok := findTag(reply, "ai_memory_summary"); ok {
		ex.MemorySummary = unwrapComment(body)
		ex.HasMemory = true
	}
	return ex
}

// findTag performs a linear scan for the first <tag>...</tag> span,
// returning the inner text. Only the outermost span is returned: once
// an opening tag is found, the scan looks for the next matching close
// tag without trying to balance nested same-name tags, since the wire
// format never nests a tag inside itself.
func findTag(s, tag string) (string, bool) {
	open := "<" + tag + ">"
	closeTag := "</" + tag + ">"

	startIdx := indexFold(s, open)
	if startIdx == -1 {
		return "", false
	}
	bodyStart := startIdx + len(open)

	endIdx := indexFoldFrom(s, closeTag, bodyStart)
	if endIdx == -1 {
		return "", false
	}
	return s[bodyStart:endIdx], true
}

// indexFold finds the first case-insensitive occurrence of sub in s.
func indexFold(s, sub string) int {
	return indexFoldFrom(s, sub, 0)
}

func indexFoldFrom(s, sub string, from int) int {
	if from > len(s) {
		return -1
	}
	idx := strings.Index(strings.ToLower(s[from:]), strings.ToLower(sub))
	if idx == -1 {
		return -1
	}
	return from + idx
}

// unwrapComment strips a single enclosing HTML comment from body, if
// the trimmed body is exactly one comment span.
func unwrapComment(body string) string {
	trimmed := strings.TrimSpace(body)
	if strings.HasPrefix(trimmed, "<!--") && strings.HasSuffix(trimmed, "-->") {
		inner := trimmed[len("<!--") : len(trimmed)-len("-->")]
		return strings.TrimSpace(inner)
	}
	return trimmed
}
