package store

import (
	"context"
	"testing"

	"github.com/neurobridge-labs/infobar-core/internal/domain/infobar"
	"github.com/neurobridge-labs/infobar-core/internal/pkg/dbctx"
	"github.com/neurobridge-labs/infobar-core/internal/store/testutil"
)

func TestPutAndGetPanelRows_RoundTrips(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)
	s := New(db, log)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	rows := []infobar.Row{
		{1: "Alice", 2: "30"},
		{1: "Bob", 2: "40"},
	}
	if err := s.PutPanelRows(dbc, "chat-1", "personal", rows); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := s.GetPanelRows(dbc, "chat-1", "personal")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}
	if got[0][1] != "Alice" || got[1][2] != "40" {
		t.Fatalf("unexpected rows: %+v", got)
	}
}

func TestPutPanelRows_OverwritesEntirely(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)
	s := New(db, log)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	_ = s.PutPanelRows(dbc, "chat-2", "world", []infobar.Row{{1: "a"}, {1: "b"}, {1: "c"}})
	if err := s.PutPanelRows(dbc, "chat-2", "world", []infobar.Row{{1: "only"}}); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := s.GetPanelRows(dbc, "chat-2", "world")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 1 || got[0][1] != "only" {
		t.Fatalf("expected overwrite to shrink to 1 row, got %+v", got)
	}
}

func TestReadChat_ReturnsAllPanels(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)
	s := New(db, log)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	_ = s.PutPanelRows(dbc, "chat-3", "personal", []infobar.Row{{1: "Alice"}})
	_ = s.PutPanelRows(dbc, "chat-3", "world", []infobar.Row{{1: "City"}})

	data, err := s.ReadChat(dbc, "chat-3")
	if err != nil {
		t.Fatalf("read chat: %v", err)
	}
	if len(data) != 2 {
		t.Fatalf("expected 2 panels, got %d", len(data))
	}
	if data["personal"].Rows[0][1] != "Alice" {
		t.Fatalf("unexpected personal data: %+v", data["personal"])
	}
}

func TestDeleteChat_RemovesAllRows(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	log := testutil.Logger(t)
	s := New(db, log)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	_ = s.PutPanelRows(dbc, "chat-4", "personal", []infobar.Row{{1: "Alice"}})
	if err := s.DeleteChat(dbc, "chat-4"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err := s.GetPanelRows(dbc, "chat-4", "personal")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no rows after delete, got %+v", got)
	}
}
