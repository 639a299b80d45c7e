// Package rules implements the RuleCatalog (C10): a cached,
// human-readable rendering of panel-level and field-level rules
// collected from an external rule-manager collaborator, invalidated on
// rule-change events with a five-minute soft TTL (spec §4.10).
package rules

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/neurobridge-labs/infobar-core/internal/domain/infobar"
	"github.com/neurobridge-labs/infobar-core/internal/events"
	"github.com/neurobridge-labs/infobar-core/internal/platform/eventbus"
	"github.com/neurobridge-labs/infobar-core/internal/platform/logger"
)

const softTTL = 5 * time.Minute

// Source is the external rule-manager collaborator the catalog reads
// from. The core never writes rules; authoring lives elsewhere.
type Source interface {
	PanelRules(ctx context.Context) ([]infobar.PanelRule, error)
	FieldRules(ctx context.Context) ([]infobar.FieldRule, error)
}

// Catalog caches the rendered rule set and refreshes it lazily on a
// soft TTL or on an invalidation event, matching the teacher's
// ConditionCache's compiled-program reuse for expr filters.
type Catalog struct {
	mu sync.RWMutex

	source Source
	log    *logger.Logger

	fetchedAt  time.Time
	panelRules []infobar.PanelRule
	fieldRules []infobar.FieldRule

	programs map[string]*vm.Program
}

// New builds a Catalog and, if bus is non-nil, subscribes to the
// invalidation events named in spec §4.10 so a stale cache is dropped
// as soon as the rule manager reports a change.
func New(source Source, bus eventbus.Bus, log *logger.Logger) *Catalog {
	c := &Catalog{
		source:   source,
		log:      log.With("component", "RuleCatalog"),
		programs: map[string]*vm.Program{},
	}
	if bus != nil {
		_ = bus.Subscribe(context.Background(), func(msg eventbus.Message) {
			switch msg.Event {
			case events.PanelRuleUpdated, events.PanelRuleDeleted,
				events.FieldRuleUpdated, events.FieldRuleDeleted:
				c.Invalidate()
			}
		})
	}
	return c
}

// Invalidate drops the cached rule set unconditionally; the next
// Render call refetches from Source.
func (c *Catalog) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetchedAt = time.Time{}
}

func (c *Catalog) stale() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fetchedAt.IsZero() || time.Since(c.fetchedAt) > softTTL
}

func (c *Catalog) refresh(ctx context.Context) error {
	panelRules, err := c.source.PanelRules(ctx)
	if err != nil {
		return fmt.Errorf("rules: fetch panel rules: %w", err)
	}
	fieldRules, err := c.source.FieldRules(ctx)
	if err != nil {
		return fmt.Errorf("rules: fetch field rules: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.panelRules = panelRules
	c.fieldRules = fieldRules
	c.fetchedAt = time.Now()
	return nil
}

// Render produces the human-readable rules section for §4.5's
// composer, one block per enabled panel that has at least one
// applicable rule. Panels are rendered in enabledPanels order.
func (c *Catalog) Render(ctx context.Context, enabledPanels []infobar.Panel, evalCtx infobar.RuleContext) (string, error) {
	if c.stale() {
		if err := c.refresh(ctx); err != nil {
			c.log.Warn("rule catalog refresh failed, serving stale cache", "error", err)
		}
	}

	c.mu.RLock()
	panelRules := append([]infobar.PanelRule{}, c.panelRules...)
	fieldRules := append([]infobar.FieldRule{}, c.fieldRules...)
	c.mu.RUnlock()

	var b strings.Builder
	for _, p := range enabledPanels {
		rc := evalCtx
		rc.PanelID = p.ID

		var applicable []infobar.PanelRule
		for _, r := range panelRules {
			if r.PanelID != p.ID {
				continue
			}
			ok, err := c.matches(r.Filter, rc)
			if err != nil {
				c.log.Warn("rule filter evaluation failed, including rule", "panel", p.ID, "error", err)
				ok = true
			}
			if ok {
				applicable = append(applicable, r)
			}
		}

		var fields []infobar.FieldRule
		for _, fr := range fieldRules {
			if fr.PanelID == p.ID {
				fields = append(fields, fr)
			}
		}

		if len(applicable) == 0 && len(fields) == 0 {
			continue
		}

		fmt.Fprintf(&b, "Rules for panel %s:\n", p.ID)
		for _, r := range applicable {
			if r.Description != "" {
				fmt.Fprintf(&b, "  - %s\n", r.Description)
			}
			if r.AddRule != "" {
				fmt.Fprintf(&b, "    add: %s\n", r.AddRule)
			}
			if r.UpdateRule != "" {
				fmt.Fprintf(&b, "    update: %s\n", r.UpdateRule)
			}
			if r.DeleteRule != "" {
				fmt.Fprintf(&b, "    delete: %s\n", r.DeleteRule)
			}
		}
		sort.Slice(fields, func(i, j int) bool { return fields[i].FieldKey < fields[j].FieldKey })
		for _, fr := range fields {
			fmt.Fprintf(&b, "  - field %s", fr.FieldKey)
			if fr.Type != "" {
				fmt.Fprintf(&b, " (type: %s)", fr.Type)
			}
			if fr.Range != "" {
				fmt.Fprintf(&b, " (range: %s)", fr.Range)
			}
			if len(fr.Examples) > 0 {
				fmt.Fprintf(&b, " examples: %s", strings.Join(fr.Examples, ", "))
			}
			b.WriteString("\n")
		}
	}
	return b.String(), nil
}

// matches compiles (and caches) filter as an expr program and
// evaluates it against evalCtx. An empty filter always matches.
func (c *Catalog) matches(filter string, evalCtx infobar.RuleContext) (bool, error) {
	if strings.TrimSpace(filter) == "" {
		return true, nil
	}

	c.mu.RLock()
	program, ok := c.programs[filter]
	c.mu.RUnlock()

	if !ok {
		env := map[string]any{
			"panelId":  evalCtx.PanelID,
			"coverage": evalCtx.Coverage,
			"rowCount": evalCtx.RowCount,
		}
		compiled, err := expr.Compile(filter, expr.Env(env), expr.AsBool())
		if err != nil {
			return false, fmt.Errorf("rules: compile filter %q: %w", filter, err)
		}
		c.mu.Lock()
		c.programs[filter] = compiled
		c.mu.Unlock()
		program = compiled
	}

	env := map[string]any{
		"panelId":  evalCtx.PanelID,
		"coverage": evalCtx.Coverage,
		"rowCount": evalCtx.RowCount,
	}
	out, err := expr.Run(program, env)
	if err != nil {
		return false, fmt.Errorf("rules: evaluate filter %q: %w", filter, err)
	}
	result, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("rules: filter %q did not evaluate to a boolean", filter)
	}
	return result, nil
}
