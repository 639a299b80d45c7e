package engine

import (
	"context"
	"testing"

	"github.com/neurobridge-labs/infobar-core/internal/config"
	"github.com/neurobridge-labs/infobar-core/internal/domain/infobar"
	"github.com/neurobridge-labs/infobar-core/internal/host"
	"github.com/neurobridge-labs/infobar-core/internal/pkg/dbctx"
	"github.com/neurobridge-labs/infobar-core/internal/platform/eventbus"
	"github.com/neurobridge-labs/infobar-core/internal/platform/logger"
	"github.com/neurobridge-labs/infobar-core/internal/retrieval"
	"github.com/neurobridge-labs/infobar-core/internal/rules"
)

type fakeRetriever struct {
	resetCount   int
	ingested     []infobar.MemoryRecord
	searchResult retrieval.SearchResult
}

func (f *fakeRetriever) HybridSearch(context.Context, string, retrieval.Options) retrieval.SearchResult {
	return f.searchResult
}

func (f *fakeRetriever) IngestMemory(_ string, rec infobar.MemoryRecord) {
	f.ingested = append(f.ingested, rec)
}

func (f *fakeRetriever) Reset() {
	f.resetCount++
}

type fakeStore struct {
	rows map[string]map[string][]infobar.Row
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: map[string]map[string][]infobar.Row{}}
}

func (f *fakeStore) ReadChat(dbc dbctx.Context, chatID string) (infobar.CurrentData, error) {
	out := infobar.CurrentData{}
	for panelID, rows := range f.rows[chatID] {
		out[panelID] = infobar.PanelTable{ChatID: chatID, PanelID: panelID, Rows: rows}
	}
	return out, nil
}

func (f *fakeStore) WriteChat(dbctx.Context, string, infobar.CurrentData) error { return nil }

func (f *fakeStore) GetPanelRows(_ dbctx.Context, chatID, panelID string) ([]infobar.Row, error) {
	return f.rows[chatID][panelID], nil
}

func (f *fakeStore) PutPanelRows(_ dbctx.Context, chatID, panelID string, rows []infobar.Row) error {
	if f.rows[chatID] == nil {
		f.rows[chatID] = map[string][]infobar.Row{}
	}
	f.rows[chatID][panelID] = rows
	return nil
}

func (f *fakeStore) DeleteChat(_ dbctx.Context, chatID string) error {
	delete(f.rows, chatID)
	return nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func testExtension() config.Extension {
	enabled := true
	return config.Extension{
		Panels: map[string]config.PanelConfig{
			"personal": {
				DisplayName: "Personal",
				Enabled:     &enabled,
				SubItems: []config.SubItemConfig{
					{Key: "name", DisplayName: "Name"},
					{Key: "age", DisplayName: "Age"},
				},
			},
		},
	}
}

func TestHandleGenerationStarted_InjectsComposedPrompt(t *testing.T) {
	st := newFakeStore()
	h := host.NewInMemory("chat-1")
	catalog := rules.New(rules.NewStaticSource(nil, nil), nil, testLogger(t))

	e := New(testLogger(t), h, st, nil, catalog, nil, testExtension())

	if err := e.HandleGenerationStarted(context.Background(), "chat-1"); err != nil {
		t.Fatalf("HandleGenerationStarted: %v", err)
	}

	prompt, ok := h.Prompt("infobar:composed-prompt")
	if !ok || prompt == "" {
		t.Fatalf("expected a composed prompt to be injected")
	}
}

func TestHandleMessageReceived_AppliesParsedOperations(t *testing.T) {
	st := newFakeStore()
	h := host.NewInMemory("chat-1")
	bus := eventbus.NewInMemory()
	catalog := rules.New(rules.NewStaticSource(nil, nil), nil, testLogger(t))

	e := New(testLogger(t), h, st, bus, catalog, nil, testExtension())

	reply := "<aiThinkProcess>steps</aiThinkProcess>\n<infobar_data>\nadd personal(1 {\"1\",\"Alice\", \"2\",\"30\"})\n</infobar_data>"
	if err := e.HandleMessageReceived(context.Background(), "chat-1", reply, "msg-1"); err != nil {
		t.Fatalf("HandleMessageReceived: %v", err)
	}

	rows, _ := st.GetPanelRows(dbctx.Context{}, "chat-1", "personal")
	if len(rows) != 1 || rows[0][1] != "Alice" || rows[0][2] != "30" {
		t.Fatalf("expected parsed operation to apply, got %+v", rows)
	}
}

func TestNew_ChatChangedHostEventResetsRetriever(t *testing.T) {
	st := newFakeStore()
	h := host.NewInMemory("chat-1")
	catalog := rules.New(rules.NewStaticSource(nil, nil), nil, testLogger(t))
	retriever := &fakeRetriever{}

	New(testLogger(t), h, st, nil, catalog, retriever, testExtension())

	if retriever.resetCount != 0 {
		t.Fatalf("expected no reset before any chat:changed event, got %d", retriever.resetCount)
	}
	h.Emit(host.EventChatChanged, nil)
	if retriever.resetCount != 1 {
		t.Fatalf("expected chat:changed to reset the retriever once, got %d", retriever.resetCount)
	}
}

func TestHandleMessageReceived_IngestsAiMemorySummary(t *testing.T) {
	st := newFakeStore()
	h := host.NewInMemory("chat-1")
	catalog := rules.New(rules.NewStaticSource(nil, nil), nil, testLogger(t))
	retriever := &fakeRetriever{}

	e := New(testLogger(t), h, st, nil, catalog, retriever, testExtension())

	reply := "<ai_memory_summary>user prefers dark mode</ai_memory_summary>\n" +
		"<infobar_data>\nadd personal(1 {\"1\",\"Alice\"})\n</infobar_data>"
	if err := e.HandleMessageReceived(context.Background(), "chat-1", reply, "msg-1"); err != nil {
		t.Fatalf("HandleMessageReceived: %v", err)
	}

	if len(retriever.ingested) != 1 {
		t.Fatalf("expected one ingested memory record, got %+v", retriever.ingested)
	}
	rec := retriever.ingested[0]
	if rec.Content != "user prefers dark mode" || rec.Category != "ai_memory" {
		t.Fatalf("unexpected ingested record: %+v", rec)
	}
}

func TestHandleMessageReceived_NoDataBlockIsAnError(t *testing.T) {
	st := newFakeStore()
	h := host.NewInMemory("chat-1")
	catalog := rules.New(rules.NewStaticSource(nil, nil), nil, testLogger(t))

	e := New(testLogger(t), h, st, nil, catalog, nil, testExtension())

	err := e.HandleMessageReceived(context.Background(), "chat-1", "just a plain reply", "msg-1")
	if err == nil {
		t.Fatalf("expected an error for a reply with no data block")
	}
}
