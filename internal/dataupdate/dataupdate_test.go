package dataupdate

import (
	"context"
	"testing"

	"github.com/neurobridge-labs/infobar-core/internal/domain/infobar"
	"github.com/neurobridge-labs/infobar-core/internal/pkg/dbctx"
	"github.com/neurobridge-labs/infobar-core/internal/platform/eventbus"
	"github.com/neurobridge-labs/infobar-core/internal/platform/logger"
)

type fakeStore struct {
	rows map[string]map[string][]infobar.Row
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: map[string]map[string][]infobar.Row{}}
}

func (f *fakeStore) ReadChat(dbctx.Context, string) (infobar.CurrentData, error) {
	return infobar.CurrentData{}, nil
}
func (f *fakeStore) WriteChat(dbctx.Context, string, infobar.CurrentData) error { return nil }

func (f *fakeStore) GetPanelRows(_ dbctx.Context, chatID, panelID string) ([]infobar.Row, error) {
	panels, ok := f.rows[chatID]
	if !ok {
		return nil, nil
	}
	rows := panels[panelID]
	out := make([]infobar.Row, len(rows))
	for i, r := range rows {
		out[i] = r.Clone()
	}
	return out, nil
}

func (f *fakeStore) PutPanelRows(_ dbctx.Context, chatID, panelID string, rows []infobar.Row) error {
	if f.rows[chatID] == nil {
		f.rows[chatID] = map[string][]infobar.Row{}
	}
	cp := make([]infobar.Row, len(rows))
	for i, r := range rows {
		cp[i] = r.Clone()
	}
	f.rows[chatID][panelID] = cp
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

func TestApply_AddCreatesRow(t *testing.T) {
	st := newFakeStore()
	u := New(st, nil, testLogger(t))

	err := u.Apply(context.Background(), "chat-1", []infobar.OperationCommand{
		{Op: infobar.OpAdd, Panel: "personal", Row: 1, Data: map[int]string{1: "Alice", 2: "30"}},
	}, "", "")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}

	rows, _ := st.GetPanelRows(dbctx.Context{}, "chat-1", "personal")
	if len(rows) != 1 || rows[0][1] != "Alice" || rows[0][2] != "30" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestApply_UpdateMergesIntoExistingRow(t *testing.T) {
	st := newFakeStore()
	st.rows["chat-1"] = map[string][]infobar.Row{"personal": {{1: "Alice", 2: "30"}}}
	u := New(st, nil, testLogger(t))

	err := u.Apply(context.Background(), "chat-1", []infobar.OperationCommand{
		{Op: infobar.OpUpdate, Panel: "personal", Row: 1, Data: map[int]string{2: "31"}},
	}, "", "")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	rows, _ := st.GetPanelRows(dbctx.Context{}, "chat-1", "personal")
	if rows[0][1] != "Alice" || rows[0][2] != "31" {
		t.Fatalf("expected merged update, got %+v", rows[0])
	}
}

func TestApply_AddNeverOverwritesNonEmptyCellInExistingRow(t *testing.T) {
	st := newFakeStore()
	st.rows["chat-1"] = map[string][]infobar.Row{"personal": {{1: "Alice", 2: ""}}}
	u := New(st, nil, testLogger(t))

	err := u.Apply(context.Background(), "chat-1", []infobar.OperationCommand{
		{Op: infobar.OpAdd, Panel: "personal", Row: 1, Data: map[int]string{1: "Eve", 2: "30"}},
	}, "", "")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	rows, _ := st.GetPanelRows(dbctx.Context{}, "chat-1", "personal")
	if rows[0][1] != "Alice" {
		t.Fatalf("expected add to leave the non-empty existing cell alone, got %+v", rows[0])
	}
	if rows[0][2] != "30" {
		t.Fatalf("expected add to still fill the empty cell, got %+v", rows[0])
	}
}

func TestApply_RowZeroOnAddAppends(t *testing.T) {
	st := newFakeStore()
	st.rows["chat-1"] = map[string][]infobar.Row{"personal": {{1: "Alice"}}}
	u := New(st, nil, testLogger(t))

	err := u.Apply(context.Background(), "chat-1", []infobar.OperationCommand{
		{Op: infobar.OpAdd, Panel: "personal", Row: 0, Data: map[int]string{1: "Bob"}},
	}, "", "")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	rows, _ := st.GetPanelRows(dbctx.Context{}, "chat-1", "personal")
	if len(rows) != 2 || rows[1][1] != "Bob" {
		t.Fatalf("expected append as row 2, got %+v", rows)
	}
}

func TestApply_DeleteSplicesRow(t *testing.T) {
	st := newFakeStore()
	st.rows["chat-1"] = map[string][]infobar.Row{"inventory": {{1: "Sword"}, {1: "Shield"}}}
	u := New(st, nil, testLogger(t))

	err := u.Apply(context.Background(), "chat-1", []infobar.OperationCommand{
		{Op: infobar.OpDelete, Panel: "inventory", Row: 0},
	}, "", "")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	rows, _ := st.GetPanelRows(dbctx.Context{}, "chat-1", "inventory")
	if len(rows) != 1 || rows[0][1] != "Shield" {
		t.Fatalf("expected Shield to shift to row 1, got %+v", rows)
	}
}

func TestApply_DeleteNonExistentRowIsNoOp(t *testing.T) {
	st := newFakeStore()
	st.rows["chat-1"] = map[string][]infobar.Row{"inventory": {{1: "Sword"}}}
	u := New(st, nil, testLogger(t))

	err := u.Apply(context.Background(), "chat-1", []infobar.OperationCommand{
		{Op: infobar.OpDelete, Panel: "inventory", Row: 5},
	}, "", "")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	rows, _ := st.GetPanelRows(dbctx.Context{}, "chat-1", "inventory")
	if len(rows) != 1 {
		t.Fatalf("expected no-op delete, got %+v", rows)
	}
}

func TestApply_AddThenDeleteRestoresPriorState(t *testing.T) {
	st := newFakeStore()
	u := New(st, nil, testLogger(t))

	_ = u.Apply(context.Background(), "chat-1", []infobar.OperationCommand{
		{Op: infobar.OpAdd, Panel: "personal", Row: 1, Data: map[int]string{1: "Alice"}},
	}, "", "")
	_ = u.Apply(context.Background(), "chat-1", []infobar.OperationCommand{
		{Op: infobar.OpDelete, Panel: "personal", Row: 1},
	}, "", "")

	rows, _ := st.GetPanelRows(dbctx.Context{}, "chat-1", "personal")
	if len(rows) != 0 {
		t.Fatalf("expected empty rows after add+delete, got %+v", rows)
	}
}

func TestApply_EmitsDataUpdatedEvent(t *testing.T) {
	st := newFakeStore()
	bus := eventbus.NewInMemory()
	var received []eventbus.Message
	_ = bus.Subscribe(context.Background(), func(m eventbus.Message) { received = append(received, m) })

	u := New(st, bus, testLogger(t))
	err := u.Apply(context.Background(), "chat-1", []infobar.OperationCommand{
		{Op: infobar.OpAdd, Panel: "personal", Row: 1, Data: map[int]string{1: "Alice"}},
	}, "msg-1", "operation_commands")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(received) != 1 || received[0].Event != "data:updated" {
		t.Fatalf("expected one data:updated event, got %+v", received)
	}
}
