package rules

import (
	"context"
	"sync"

	"github.com/neurobridge-labs/infobar-core/internal/domain/infobar"
)

// StaticSource is a Source backed by an in-process rule set rather
// than a remote rule-manager collaborator, useful wherever no such
// collaborator is deployed: tests, demos, and single-binary setups
// that configure rules alongside panels instead of through a separate
// service.
type StaticSource struct {
	mu         sync.RWMutex
	panelRules []infobar.PanelRule
	fieldRules []infobar.FieldRule
}

// NewStaticSource builds a StaticSource from a fixed rule set.
func NewStaticSource(panelRules []infobar.PanelRule, fieldRules []infobar.FieldRule) *StaticSource {
	return &StaticSource{panelRules: panelRules, fieldRules: fieldRules}
}

// Replace swaps in a new rule set, picked up on the catalog's next
// refresh once its soft TTL lapses or Invalidate is called.
func (s *StaticSource) Replace(panelRules []infobar.PanelRule, fieldRules []infobar.FieldRule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.panelRules = panelRules
	s.fieldRules = fieldRules
}

func (s *StaticSource) PanelRules(ctx context.Context) ([]infobar.PanelRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]infobar.PanelRule{}, s.panelRules...), nil
}

func (s *StaticSource) FieldRules(ctx context.Context) ([]infobar.FieldRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]infobar.FieldRule{}, s.fieldRules...), nil
}
