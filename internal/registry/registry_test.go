package registry

import (
	"testing"

	"github.com/neurobridge-labs/infobar-core/internal/config"
)

func boolPtr(b bool) *bool { return &b }

func TestListEnabled_FiltersDisabledPanels(t *testing.T) {
	ext := config.Extension{
		Panels: map[string]config.PanelConfig{
			"personal": {DisplayName: "Personal", Enabled: boolPtr(true)},
			"world":    {DisplayName: "World", Enabled: boolPtr(false)},
		},
	}
	panels := New(ext).ListEnabled()
	if len(panels) != 1 || panels[0].ID != "personal" {
		t.Fatalf("expected only personal panel enabled, got %+v", panels)
	}
}

func TestListEnabled_Deterministic(t *testing.T) {
	ext := config.Extension{
		Panels: map[string]config.PanelConfig{
			"personal": {
				DisplayName: "Personal",
				SubItems: []config.SubItemConfig{
					{Key: "name", DisplayName: "Name"},
					{Key: "age", DisplayName: "Age"},
				},
			},
		},
	}
	r := New(ext)
	a := r.ListEnabled()
	b := r.ListEnabled()
	if len(a) != len(b) || len(a) != 1 {
		t.Fatalf("expected stable single panel output")
	}
	for i := range a[0].SubItems {
		if a[0].SubItems[i] != b[0].SubItems[i] {
			t.Fatalf("non-deterministic sub-item order: %+v vs %+v", a, b)
		}
	}
}

func TestListEnabled_ListSourceWinsOverCheckbox(t *testing.T) {
	ext := config.Extension{
		Panels: map[string]config.PanelConfig{
			"world": {
				DisplayName: "World",
				SubItems: []config.SubItemConfig{
					{Key: "name", DisplayName: "List Name"},
				},
				Checkboxes: map[string]config.SubItemConfig{
					"name": {DisplayName: "Checkbox Name", Enabled: boolPtr(true)},
					"time": {DisplayName: "Time", Enabled: boolPtr(true)},
				},
			},
		},
	}
	panels := New(ext).ListEnabled()
	if len(panels) != 1 {
		t.Fatalf("expected 1 panel, got %d", len(panels))
	}
	sub := panels[0].SubItems
	if len(sub) != 2 {
		t.Fatalf("expected name+time deduped, got %+v", sub)
	}
	if sub[0].Key != "name" || sub[0].DisplayName != "List Name" {
		t.Fatalf("expected list source to win for 'name', got %+v", sub[0])
	}
}

func TestListEnabled_NoConfigReturnsEmpty(t *testing.T) {
	panels := New(config.Extension{}).ListEnabled()
	if len(panels) != 0 {
		t.Fatalf("expected empty panel list, got %+v", panels)
	}
}

func TestListEnabled_NilRegistryNeverPanics(t *testing.T) {
	var r *Registry
	panels := r.ListEnabled()
	if panels == nil || len(panels) != 0 {
		t.Fatalf("expected empty non-nil slice from nil registry")
	}
}
