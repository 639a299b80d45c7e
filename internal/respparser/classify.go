package respparser

import (
	"regexp"
	"strings"

	"github.com/neurobridge-labs/infobar-core/internal/domain/infobar"
)

var operationLineRe = regexp.MustCompile(`(?im)^\s*(add|update|delete)\s+\w+\s*\(`)

// forbiddenPatterns catch unambiguous legacy/JSON/XML syntaxes that
// must reject the whole block rather than be leniently parsed (§4.7).
var forbiddenPatterns = []*regexp.Regexp{
	// JSON-ish dotted-key object: {"1.name":"Alice"}
	regexp.MustCompile(`"[A-Za-z0-9_]+\.[A-Za-z0-9_]+"\s*:`),
	// bare JSON object key: value pair anywhere in the body
	regexp.MustCompile(`"[^"]+"\s*:\s*"[^"]*"`),
	// key=value with a quoted value
	regexp.MustCompile(`\b[A-Za-z_][A-Za-z0-9_]*\s*=\s*"[^"]*"`),
	// legacy "npc0.field=" style assignment
	regexp.MustCompile(`\bnpc\d+\.[A-Za-z0-9_]+\s*=`),
	// XML-nested panel tags: <panel>...</panel>
	regexp.MustCompile(`<[A-Za-z_][\w-]*>[^<]*<[A-Za-z_][\w-]*>`),
	// row number written outside the parentheses: "add p 1 {"
	regexp.MustCompile(`(?i)^\s*(add|update|delete)\s+\w+\s+\d+\s*\{`),
	// data pairs with unquoted columns: {1,"v",2,"v"}
	regexp.MustCompile(`\{\s*\d+\s*,`),
	// operation command missing a row argument: add p({"1","v"})
	regexp.MustCompile(`(?i)^\s*(add|update|delete)\s+\w+\s*\(\s*\{`),
}

// legacyKeyValueRe recognizes a lenient "key: value" textual line with
// none of the forbidden markers — accepted leniently as a value-only,
// no-operation legacy form.
var legacyKeyValueRe = regexp.MustCompile(`^[^:=\n]{1,80}[:：][^\n]*$`)

// ClassifyFormat inspects the unwrapped <infobar_data> body and
// classifies it in the priority order fixed by §4.7.
func ClassifyFormat(body string) infobar.Format {
	trimmed := strings.TrimSpace(body)
	if trimmed == "" {
		return infobar.FormatUnknown
	}

	if operationLineRe.MatchString(trimmed) {
		return infobar.FormatOperationCommands
	}

	for _, re := range forbiddenPatterns {
		if re.MatchString(trimmed) {
			return infobar.FormatForbidden
		}
	}

	lines := strings.Split(trimmed, "\n")
	legacyLines := 0
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if legacyKeyValueRe.MatchString(line) {
			legacyLines++
		}
	}
	if legacyLines > 0 && legacyLines == nonBlankLineCount(lines) {
		return infobar.FormatLegacyTextual
	}

	return infobar.FormatUnknown
}

func nonBlankLineCount(lines []string) int {
	n := 0
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			n++
		}
	}
	return n
}

// StrictForbiddenGuard runs before grammar parsing and independently
// re-checks the unambiguous forbidden markers, matching §4.7's
// requirement that this guard runs "before grammar parsing" as a
// distinct step from ClassifyFormat's own forbidden-pattern check.
func StrictForbiddenGuard(body string) bool {
	trimmed := strings.TrimSpace(body)
	for _, re := range forbiddenPatterns {
		if re.MatchString(trimmed) {
			return true
		}
	}
	return false
}
