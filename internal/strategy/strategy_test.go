package strategy

import (
	"testing"

	"github.com/neurobridge-labs/infobar-core/internal/domain/infobar"
)

func panels(ids ...string) []infobar.Panel {
	out := make([]infobar.Panel, 0, len(ids))
	for _, id := range ids {
		out = append(out, infobar.Panel{
			ID: id,
			SubItems: []infobar.SubItem{
				{Key: "1", DisplayName: "one", Enabled: true},
				{Key: "2", DisplayName: "two", Enabled: true},
			},
		})
	}
	return out
}

func TestAnalyze_NoDataIsFullWithZeroCoverage(t *testing.T) {
	s := Analyze(panels("personal", "world"), infobar.CurrentData{})
	if s.Type != infobar.StrategyFull {
		t.Fatalf("expected full strategy, got %s", s.Type)
	}
	if s.Coverage != 0 {
		t.Fatalf("expected 0%% coverage, got %d", s.Coverage)
	}
}

func TestAnalyze_HighCoverageIsIncremental(t *testing.T) {
	current := infobar.CurrentData{
		"personal": {Rows: []infobar.Row{{1: "Alice", 2: "30"}}},
		"world":    {Rows: []infobar.Row{{1: "City", 2: "Morning"}}},
	}
	s := Analyze(panels("personal", "world"), current)
	if s.Coverage != 100 {
		t.Fatalf("expected 100%% coverage, got %d", s.Coverage)
	}
	if s.Type != infobar.StrategyIncremental {
		t.Fatalf("expected incremental, got %s", s.Type)
	}
	if s.Reason != "coverage above 60%" {
		t.Fatalf("unexpected reason: %s", s.Reason)
	}
}

func TestAnalyze_MidCoverageFullWhenMostPanelsEmpty(t *testing.T) {
	current := infobar.CurrentData{
		"a": {Rows: []infobar.Row{{1: "x", 2: "y"}}},
	}
	ps := panels("a", "b", "c")
	s := Analyze(ps, current)
	if s.Type != infobar.StrategyFull {
		t.Fatalf("expected full because 2/3 panels empty, got %s (coverage=%d)", s.Type, s.Coverage)
	}
}

func TestAnalyze_PureFunctionSameInputsSameOutput(t *testing.T) {
	current := infobar.CurrentData{
		"personal": {Rows: []infobar.Row{{1: "Alice"}}},
	}
	ps := panels("personal")
	a := Analyze(ps, current)
	b := Analyze(ps, current)
	if a != b {
		t.Fatalf("expected pure function, got %+v vs %+v", a, b)
	}
}

func TestAnalyze_ExistingNeverExceedsTotal(t *testing.T) {
	current := infobar.CurrentData{
		"personal": {Rows: []infobar.Row{{1: "Alice", 2: "30"}, {1: "Bob", 2: "40"}}},
	}
	s := Analyze(panels("personal"), current)
	if s.ExistingFields > s.TotalFields {
		t.Fatalf("existingFields %d > totalFields %d", s.ExistingFields, s.TotalFields)
	}
	if s.Coverage < 0 || s.Coverage > 100 {
		t.Fatalf("coverage out of bounds: %d", s.Coverage)
	}
}
