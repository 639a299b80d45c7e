package respparser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/width"

	"github.com/neurobridge-labs/infobar-core/internal/domain/infobar"
	ierrors "github.com/neurobridge-labs/infobar-core/internal/pkg/errors"
)

var (
	lineRe       = regexp.MustCompile(`(?i)^\s*(add|update|delete)\s+([A-Za-z0-9_\-]+)\s*\(\s*([^{}]*?)\s*(?:\{(.*)\})?\s*\)\s*$`)
	digitGroupRe = regexp.MustCompile(`\d+`)
)

// normalizeCommas folds fullwidth punctuation (including the fullwidth
// comma used by the wire grammar) down to its ASCII form, so the rest
// of the parser only ever has to handle one separator.
func normalizeCommas(s string) string {
	folded, err := width.Fold.String(s)
	if err != nil {
		return s
	}
	return folded
}

// ParseLine parses a single operation-command line. Comments (// or #
// to end of line) are stripped first. Returns (zero, false, nil) for a
// blank or comment-only line, which callers must skip rather than
// treat as a failure.
func ParseLine(line string) (infobar.OperationCommand, bool, error) {
	stripped := stripComment(line)
	stripped = strings.TrimSpace(stripped)
	if stripped == "" {
		return infobar.OperationCommand{}, false, nil
	}

	normalized := normalizeCommas(stripped)
	m := lineRe.FindStringSubmatch(normalized)
	if m == nil {
		return infobar.OperationCommand{}, false, fmt.Errorf("respparser: unparseable operation line %q", line)
	}

	op := infobar.Op(strings.ToLower(m[1]))
	panel := m[2]
	rowTok := strings.TrimSpace(m[3])
	dataBlock := m[4]

	row, err := parseRowToken(rowTok)
	if err != nil {
		return infobar.OperationCommand{}, false, fmt.Errorf("respparser: line %q: %w", line, err)
	}

	data, err := parseDataBlock(dataBlock)
	if err != nil {
		return infobar.OperationCommand{}, false, fmt.Errorf("respparser: line %q: %w", line, err)
	}

	return infobar.OperationCommand{Op: op, Panel: panel, Row: row, Data: data}, true, nil
}

func stripComment(line string) string {
	if idx := strings.Index(line, "//"); idx != -1 {
		line = line[:idx]
	}
	if idx := strings.Index(line, "#"); idx != -1 {
		line = line[:idx]
	}
	return line
}

// parseRowToken accepts a bare digit string, keeping a minus sign that
// directly precedes the digits. A negative row is rejected later by
// validate; row 0 is left to the caller (DataUpdater) to normalize per
// §4.8. This function only rejects tokens that contain no digits at all.
func parseRowToken(tok string) (int, error) {
	tok = strings.Trim(tok, `"`)
	m := digitGroupRe.FindString(tok)
	if m == "" {
		return 0, fmt.Errorf("%w: no row number found in %q", ierrors.ErrRowInvalid, tok)
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ierrors.ErrRowInvalid, err)
	}
	if i := strings.Index(tok, m); i > 0 && tok[i-1] == '-' {
		n = -n
	}
	return n, nil
}

// parseDataBlock splits a `"col","val","col","val"` body into pairs,
// accepting ASCII or fullwidth commas interchangeably (already folded
// by normalizeCommas by the time this runs). Column tokens normalize
// leniently: col_3, "3", and any token containing a digit all resolve
// to the first integer found; a token with no digit is skipped rather
// than failing the whole line.
func parseDataBlock(block string) (map[int]string, error) {
	block = strings.TrimSpace(block)
	if block == "" {
		return nil, nil
	}

	tokens := splitQuotedTokens(block)
	if len(tokens)%2 != 0 {
		return nil, fmt.Errorf("respparser: odd number of data tokens in %q", block)
	}

	data := make(map[int]string, len(tokens)/2)
	for i := 0; i+1 < len(tokens); i += 2 {
		colTok := tokens[i]
		val := tokens[i+1]
		m := digitGroupRe.FindString(colTok)
		if m == "" {
			continue
		}
		col, err := strconv.Atoi(m)
		if err != nil {
			continue
		}
		data[col] = val
	}
	return data, nil
}

// splitQuotedTokens extracts the quoted string literals from a data
// block, in order, ignoring the comma separators between them.
func splitQuotedTokens(block string) []string {
	var tokens []string
	var cur strings.Builder
	inQuote := false
	for _, r := range block {
		switch {
		case r == '"':
			if inQuote {
				tokens = append(tokens, cur.String())
				cur.Reset()
			}
			inQuote = !inQuote
		case inQuote:
			cur.WriteRune(r)
		default:
			// outside quotes: separators and whitespace, ignored
		}
	}
	return tokens
}
