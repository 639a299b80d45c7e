package rules

import (
	"context"
	"strings"
	"testing"

	"github.com/neurobridge-labs/infobar-core/internal/domain/infobar"
	"github.com/neurobridge-labs/infobar-core/internal/platform/eventbus"
	"github.com/neurobridge-labs/infobar-core/internal/platform/logger"
)

type fakeSource struct {
	panelRules []infobar.PanelRule
	fieldRules []infobar.FieldRule
	calls      int
}

func (f *fakeSource) PanelRules(ctx context.Context) ([]infobar.PanelRule, error) {
	f.calls++
	return f.panelRules, nil
}

func (f *fakeSource) FieldRules(ctx context.Context) ([]infobar.FieldRule, error) {
	return f.fieldRules, nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func TestRender_IncludesUnfilteredPanelRule(t *testing.T) {
	src := &fakeSource{
		panelRules: []infobar.PanelRule{
			{PanelID: "personal", Description: "keep names consistent", AddRule: "use full name"},
		},
	}
	c := New(src, nil, testLogger(t))

	out, err := c.Render(context.Background(), []infobar.Panel{{ID: "personal"}}, infobar.RuleContext{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "keep names consistent") {
		t.Fatalf("expected rule text, got: %q", out)
	}
}

func TestRender_FilterExcludesNonMatchingRule(t *testing.T) {
	src := &fakeSource{
		panelRules: []infobar.PanelRule{
			{PanelID: "personal", Description: "only for low coverage", Filter: "coverage < 20"},
		},
	}
	c := New(src, nil, testLogger(t))

	out, err := c.Render(context.Background(), []infobar.Panel{{ID: "personal"}}, infobar.RuleContext{Coverage: 80})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(out, "only for low coverage") {
		t.Fatalf("expected rule to be filtered out, got: %q", out)
	}
}

func TestRender_FilterIncludesMatchingRule(t *testing.T) {
	src := &fakeSource{
		panelRules: []infobar.PanelRule{
			{PanelID: "personal", Description: "only for low coverage", Filter: "coverage < 20"},
		},
	}
	c := New(src, nil, testLogger(t))

	out, err := c.Render(context.Background(), []infobar.Panel{{ID: "personal"}}, infobar.RuleContext{Coverage: 5})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "only for low coverage") {
		t.Fatalf("expected rule to be included, got: %q", out)
	}
}

func TestInvalidate_ForcesRefetchOnNextRender(t *testing.T) {
	src := &fakeSource{}
	c := New(src, nil, testLogger(t))

	_, _ = c.Render(context.Background(), nil, infobar.RuleContext{})
	if src.calls != 1 {
		t.Fatalf("expected 1 fetch, got %d", src.calls)
	}
	_, _ = c.Render(context.Background(), nil, infobar.RuleContext{})
	if src.calls != 1 {
		t.Fatalf("expected cache hit, got %d fetches", src.calls)
	}

	c.Invalidate()
	_, _ = c.Render(context.Background(), nil, infobar.RuleContext{})
	if src.calls != 2 {
		t.Fatalf("expected refetch after invalidate, got %d fetches", src.calls)
	}
}

func TestNew_SubscribesToInvalidationEvents(t *testing.T) {
	src := &fakeSource{}
	bus := eventbus.NewInMemory()
	c := New(src, bus, testLogger(t))

	_, _ = c.Render(context.Background(), nil, infobar.RuleContext{})
	_ = bus.Publish(context.Background(), "panelRule:updated", map[string]string{"panelId": "personal"})

	c.mu.RLock()
	stale := c.fetchedAt.IsZero()
	c.mu.RUnlock()
	if !stale {
		t.Fatalf("expected cache to be invalidated by panelRule:updated event")
	}
}
