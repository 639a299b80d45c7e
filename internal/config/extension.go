package config

import (
	"gopkg.in/yaml.v3"
)

// SubItemConfig is one configured column, whether it arrived via the
// ordered "subItems" list or as a checkbox-style object field.
type SubItemConfig struct {
	Key         string `yaml:"key"`
	DisplayName string `yaml:"displayName"`
	Enabled     *bool  `yaml:"enabled"`
}

func (s SubItemConfig) enabled() bool {
	return s.Enabled == nil || *s.Enabled
}

// knownPanelFields lists the PanelConfig keys that are NOT
// checkbox-style sub-items, so UnmarshalYAML can tell the two apart.
var knownPanelFields = map[string]bool{
	"displayname":  true,
	"enabled":      true,
	"memoryinject": true,
	"subitems":     true,
}

// PanelConfig is the read-only configuration for one basic or custom
// panel, as recognized under "<extension>.<panelId>" or
// "<extension>.customPanels[<key>]" (§6). Any object field not in
// knownPanelFields is a checkbox-style sub-item whose value carries
// ".enabled" (and optionally ".displayName").
type PanelConfig struct {
	DisplayName  string                   `yaml:"displayName"`
	Enabled      *bool                    `yaml:"enabled"`
	MemoryInject bool                     `yaml:"memoryInject"`
	SubItems     []SubItemConfig          `yaml:"subItems"`
	Checkboxes   map[string]SubItemConfig `yaml:"-"`
}

func (p PanelConfig) enabled() bool {
	return p.Enabled == nil || *p.Enabled
}

// UnmarshalYAML decodes the known fields normally and stashes every
// remaining mapping key as a checkbox-style SubItemConfig keyed by
// field name.
func (p *PanelConfig) UnmarshalYAML(value *yaml.Node) error {
	type plain PanelConfig
	var tmp plain
	if err := value.Decode(&tmp); err != nil {
		return err
	}
	*p = PanelConfig(tmp)

	if value.Kind != yaml.MappingNode {
		return nil
	}
	p.Checkboxes = map[string]SubItemConfig{}
	for i := 0; i+1 < len(value.Content); i += 2 {
		keyNode := value.Content[i]
		valNode := value.Content[i+1]
		key := keyNode.Value
		if knownPanelFields[normalizeFieldName(key)] {
			continue
		}
		if valNode.Kind != yaml.MappingNode {
			continue
		}
		var sub SubItemConfig
		if err := valNode.Decode(&sub); err != nil {
			continue
		}
		sub.Key = key
		if sub.DisplayName == "" {
			sub.DisplayName = key
		}
		p.Checkboxes[key] = sub
	}
	return nil
}

func normalizeFieldName(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r >= 'A' && r <= 'Z' {
			r = r + ('a' - 'A')
		}
		out = append(out, r)
	}
	return string(out)
}

// APIConfig is "<extension>.apiConfig".
type APIConfig struct {
	Enabled             bool   `yaml:"enabled"`
	APIKey              string `yaml:"apiKey"`
	Model               string `yaml:"model"`
	Provider            string `yaml:"provider"`
	EnableArmorBreaking bool   `yaml:"enableArmorBreaking"`
	ArmorBreakingPrompt string `yaml:"armorBreakingPrompt"`
}

// APIMode selects which API surface a feature targets.
type APIMode string

const (
	APIModeMain   APIMode = "main"
	APIModeCustom APIMode = "custom"
	APIModeAuto   APIMode = "auto"
)

// TableRecordsConfig is "<extension>.basic.tableRecords".
type TableRecordsConfig struct {
	Enabled bool    `yaml:"enabled"`
	APIMode APIMode `yaml:"apiMode"`
}

// MemoryEnhancementConfig is "<extension>.memoryEnhancement.ai".
type MemoryEnhancementConfig struct {
	Enabled bool    `yaml:"enabled"`
	APIMode APIMode `yaml:"apiMode"`
}

// Anchor is one of the five supported prompt-injection anchors (§4.6).
type Anchor string

const (
	AnchorBeforeCharacter Anchor = "beforeCharacter"
	AnchorAfterCharacter  Anchor = "afterCharacter"
	AnchorAtDepthSystem   Anchor = "atDepthSystem"
	AnchorAtDepthUser     Anchor = "atDepthUser"
	AnchorAtDepthAssistant Anchor = "atDepthAssistant"
)

// PromptPositionConfig is "<extension>.promptPosition".
type PromptPositionConfig struct {
	Mode  Anchor `yaml:"mode"`
	Depth int    `yaml:"depth"`
}

// Extension is the full read-only configuration tree the core
// recognizes (§6). The app decodes it once at startup; a replacement
// reaches the engine only through Engine.UpdateExtension, and no
// "panel:config:changed" subscriber re-reads it.
type Extension struct {
	Panels              map[string]PanelConfig `yaml:"panels"`
	CustomPanels         map[string]PanelConfig `yaml:"customPanels"`
	APIConfig            APIConfig              `yaml:"apiConfig"`
	Basic                struct {
		TableRecords TableRecordsConfig `yaml:"tableRecords"`
	} `yaml:"basic"`
	MemoryEnhancement struct {
		AI MemoryEnhancementConfig `yaml:"ai"`
	} `yaml:"memoryEnhancement"`
	PromptPosition     PromptPositionConfig `yaml:"promptPosition"`
	PromptTemplatePath string               `yaml:"promptTemplatePath"`
	GlobalCustomAPIEnabled bool             `yaml:"globalCustomApiEnabled"`
}

// ParseExtension decodes a YAML document into an Extension. A nil or
// empty document decodes to the zero value (§4.1: missing configuration
// degrades to an empty panel set, never an error).
func ParseExtension(doc []byte) (Extension, error) {
	var ext Extension
	if len(doc) == 0 {
		return ext, nil
	}
	if err := yaml.Unmarshal(doc, &ext); err != nil {
		return Extension{}, err
	}
	return ext, nil
}
