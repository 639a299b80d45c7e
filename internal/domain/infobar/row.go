package infobar

import "time"

// Row is a 1-based entry in a panel's table: a mapping from column
// number to a string value. A missing column key is "empty", and so is
// an explicit empty string.
type Row map[int]string

// IsEmptyAt reports whether column col is blank in this row.
func (r Row) IsEmptyAt(col int) bool {
	v, ok := r[col]
	return !ok || v == ""
}

// HasAnyData reports whether any of the row's configured columns
// (1..colCount) carries a non-empty value.
func (r Row) HasAnyData(colCount int) bool {
	for col := 1; col <= colCount; col++ {
		if !r.IsEmptyAt(col) {
			return true
		}
	}
	return false
}

// Clone returns a shallow copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// PanelTable is the in-memory representation of a single panel's rows
// for one chat, in insertion order. Index 0 corresponds to row 1.
type PanelTable struct {
	ChatID      string
	PanelID     string
	Rows        []Row
	LastUpdated time.Time
}

// RowCount returns the number of rows currently stored.
func (t PanelTable) RowCount() int {
	if t.Rows == nil {
		return 0
	}
	return len(t.Rows)
}

// CurrentData is the full per-chat snapshot of every enabled panel's
// table, keyed by panel id. It is the shape StrategyAnalyzer,
// MissingFieldDetector, and PromptComposer all read.
type CurrentData map[string]PanelTable
