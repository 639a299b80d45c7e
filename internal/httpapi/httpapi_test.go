package httpapi

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/neurobridge-labs/infobar-core/internal/config"
	"github.com/neurobridge-labs/infobar-core/internal/domain/infobar"
	"github.com/neurobridge-labs/infobar-core/internal/engine"
	"github.com/neurobridge-labs/infobar-core/internal/host"
	"github.com/neurobridge-labs/infobar-core/internal/pkg/dbctx"
	"github.com/neurobridge-labs/infobar-core/internal/platform/logger"
	"github.com/neurobridge-labs/infobar-core/internal/rules"
)

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
				SubItems:    []config.SubItemConfig{{Key: "name", DisplayName: "Name"}},
			},
		},
	}
}

func TestGenerationStartedWebhook_ReturnsOK(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	log := testLogger(t)
	hostCtx := host.NewInMemory("chat-1")
	st := newFakeStore()
	catalog := rules.New(rules.NewStaticSource(nil, nil), nil, log)
	eng := engine.New(log, hostCtx, st, nil, catalog, nil, testExtension())

	Register(router, Dependencies{Log: log, Engine: eng, Host: hostCtx})

	req := httptest.NewRequest(http.MethodPost, "/webhooks/generation_started", bytes.NewBufferString(`{"chatId":"chat-1"}`))
	req = req.WithContext(context.Background())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestMessageReceivedWebhook_RejectsMissingFields(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	log := testLogger(t)
	hostCtx := host.NewInMemory("chat-1")
	st := newFakeStore()
	catalog := rules.New(rules.NewStaticSource(nil, nil), nil, log)
	eng := engine.New(log, hostCtx, st, nil, catalog, nil, testExtension())

	Register(router, Dependencies{Log: log, Engine: eng, Host: hostCtx})

	req := httptest.NewRequest(http.MethodPost, "/webhooks/message_received", bytes.NewBufferString(`{"chatId":""}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
