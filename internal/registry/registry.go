// Package registry implements PanelRegistry (C1): resolving the set of
// enabled panels and their ordered sub-items from configuration.
package registry

import (
	"sort"

	"github.com/neurobridge-labs/infobar-core/internal/config"
	"github.com/neurobridge-labs/infobar-core/internal/domain/infobar"
)

// Registry resolves Panel definitions from a read-only Extension
// configuration snapshot. Two calls against the same Extension value
// always produce byte-identical output.
type Registry struct {
	ext config.Extension
}

// New builds a Registry over a decoded extension configuration. A zero
// value Extension is valid and yields an empty panel set.
func New(ext config.Extension) *Registry {
	return &Registry{ext: ext}
}

// ListEnabled enumerates every configured panel (basic + custom),
// filters out disabled ones, and returns each with its ordered,
// deduplicated, enabled sub-items. Never returns an error: missing or
// empty configuration degrades to an empty slice.
func (r *Registry) ListEnabled() []infobar.Panel {
	if r == nil {
		return []infobar.Panel{}
	}

	out := make([]infobar.Panel, 0, len(r.ext.Panels)+len(r.ext.CustomPanels))
	out = append(out, resolvePanels(r.ext.Panels, infobar.PanelTypeBasic)...)
	out = append(out, resolvePanels(r.ext.CustomPanels, infobar.PanelTypeCustom)...)

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func resolvePanels(cfgs map[string]config.PanelConfig, kind infobar.PanelType) []infobar.Panel {
	ids := make([]string, 0, len(cfgs))
	for id := range cfgs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]infobar.Panel, 0, len(ids))
	for _, id := range ids {
		pc := cfgs[id]
		if pc.Enabled != nil && !*pc.Enabled {
			continue
		}
		panel := infobar.Panel{
			ID:           id,
			DisplayName:  pc.DisplayName,
			Type:         kind,
			Enabled:      true,
			MemoryInject: pc.MemoryInject,
			SubItems:     resolveSubItems(pc),
		}
		if panel.DisplayName == "" {
			panel.DisplayName = id
		}
		out = append(out, panel)
	}
	return out
}

// resolveSubItems merges list-source sub-items with checkbox-source
// sub-items, deduplicating by Key with the list source winning.
func resolveSubItems(pc config.PanelConfig) []infobar.SubItem {
	seen := make(map[string]bool, len(pc.SubItems)+len(pc.Checkboxes))
	out := make([]infobar.SubItem, 0, len(pc.SubItems)+len(pc.Checkboxes))

	for _, si := range pc.SubItems {
		if si.Key == "" || seen[si.Key] {
			continue
		}
		if si.Enabled != nil && !*si.Enabled {
			seen[si.Key] = true
			continue
		}
		seen[si.Key] = true
		out = append(out, infobar.SubItem{
			Key:         si.Key,
			DisplayName: displayNameOrKey(si.DisplayName, si.Key),
			Enabled:     true,
		})
	}

	checkboxKeys := make([]string, 0, len(pc.Checkboxes))
	for k := range pc.Checkboxes {
		checkboxKeys = append(checkboxKeys, k)
	}
	sort.Strings(checkboxKeys)
	for _, k := range checkboxKeys {
		if seen[k] {
			continue
		}
		si := pc.Checkboxes[k]
		if si.Enabled != nil && !*si.Enabled {
			continue
		}
		seen[k] = true
		out = append(out, infobar.SubItem{
			Key:         k,
			DisplayName: displayNameOrKey(si.DisplayName, k),
			Enabled:     true,
		})
	}
	return out
}

func displayNameOrKey(displayName, key string) string {
	if displayName != "" {
		return displayName
	}
	return key
}
