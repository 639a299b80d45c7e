// Package store implements the DataStore adapter (C2): atomic,
// per-panel reads and writes of a chat's panel tables.
package store

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/neurobridge-labs/infobar-core/internal/domain/infobar"
	"github.com/neurobridge-labs/infobar-core/internal/pkg/dbctx"
	"github.com/neurobridge-labs/infobar-core/internal/platform/logger"
)

// DataStore is the external-collaborator surface §4.2 describes. It is
// the only authoritative panel store; callers never keep an in-memory
// mirror outside a single operation's scratch array.
// DataStore's getChatId() (§4.2) is deliberately not reimplemented
// here: chat identity is owned by the host chat platform
// (host.Context.GetChatID), and this adapter only ever receives a
// chatID the caller already resolved from there.
type DataStore interface {
	ReadChat(dbc dbctx.Context, chatID string) (infobar.CurrentData, error)
	WriteChat(dbc dbctx.Context, chatID string, data infobar.CurrentData) error
	GetPanelRows(dbc dbctx.Context, chatID, panelID string) ([]infobar.Row, error)
	PutPanelRows(dbc dbctx.Context, chatID, panelID string, rows []infobar.Row) error
	DeleteChat(dbc dbctx.Context, chatID string) error
}

type gormStore struct {
	db  *gorm.DB
	log *logger.Logger
}

// New builds a DataStore backed by gorm (postgres, or sqlite as the
// app's fallback when no postgres DSN is set; the tests use postgres),
// mirroring the teacher's repo constructors.
func New(db *gorm.DB, log *logger.Logger) DataStore {
	return &gormStore{db: db, log: log.With("repo", "InfobarDataStore")}
}

func (s *gormStore) ReadChat(dbc dbctx.Context, chatID string) (infobar.CurrentData, error) {
	if chatID == "" {
		return infobar.CurrentData{}, fmt.Errorf("infobar store: missing chat id")
	}
	tx := s.tx(dbc)

	var models []PanelRowModel
	if err := tx.WithContext(dbc.Ctx).
		Where("chat_id = ?", chatID).
		Order("panel_id ASC, row_no ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("infobar store: read chat: %w", err)
	}

	out := infobar.CurrentData{}
	for _, m := range models {
		table := out[m.PanelID]
		table.ChatID = chatID
		table.PanelID = m.PanelID
		for len(table.Rows) < m.RowNo {
			table.Rows = append(table.Rows, infobar.Row{})
		}
		row, err := decodeRow(m.Data)
		if err != nil {
			return nil, fmt.Errorf("infobar store: decode row %d of panel %s: %w", m.RowNo, m.PanelID, err)
		}
		table.Rows[m.RowNo-1] = row
		if m.LastUpdated.After(table.LastUpdated) {
			table.LastUpdated = m.LastUpdated
		}
		out[m.PanelID] = table
	}
	return out, nil
}

func (s *gormStore) WriteChat(dbc dbctx.Context, chatID string, data infobar.CurrentData) error {
	for panelID, table := range data {
		if err := s.PutPanelRows(dbc, chatID, panelID, table.Rows); err != nil {
			return err
		}
	}
	return nil
}

func (s *gormStore) GetPanelRows(dbc dbctx.Context, chatID, panelID string) ([]infobar.Row, error) {
	if chatID == "" || panelID == "" {
		return nil, fmt.Errorf("infobar store: missing chat id or panel id")
	}
	tx := s.tx(dbc)

	var models []PanelRowModel
	if err := tx.WithContext(dbc.Ctx).
		Where("chat_id = ? AND panel_id = ?", chatID, panelID).
		Order("row_no ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("infobar store: get panel rows: %w", err)
	}

	rows := make([]infobar.Row, 0, len(models))
	for _, m := range models {
		for len(rows) < m.RowNo {
			rows = append(rows, infobar.Row{})
		}
		row, err := decodeRow(m.Data)
		if err != nil {
			return nil, fmt.Errorf("infobar store: decode row %d: %w", m.RowNo, err)
		}
		rows[m.RowNo-1] = row
	}
	return rows, nil
}

// PutPanelRows overwrites the entire panel table atomically: delete
// then bulk-insert inside a single transaction, matching the
// teacher's "one clause.OnConflict transaction per write" idiom.
func (s *gormStore) PutPanelRows(dbc dbctx.Context, chatID, panelID string, rows []infobar.Row) error {
	if chatID == "" || panelID == "" {
		return fmt.Errorf("infobar store: missing chat id or panel id")
	}
	tx := s.tx(dbc)
	now := time.Now().UTC()

	return tx.WithContext(dbc.Ctx).Transaction(func(txn *gorm.DB) error {
		if err := txn.Where("chat_id = ? AND panel_id = ?", chatID, panelID).
			Delete(&PanelRowModel{}).Error; err != nil {
			return fmt.Errorf("infobar store: clear panel rows: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}
		models := make([]*PanelRowModel, 0, len(rows))
		for i, row := range rows {
			encoded, err := encodeRow(row)
			if err != nil {
				return fmt.Errorf("infobar store: encode row %d: %w", i+1, err)
			}
			models = append(models, &PanelRowModel{
				ChatID:      chatID,
				PanelID:     panelID,
				RowNo:       i + 1,
				Data:        encoded,
				LastUpdated: now,
			})
		}
		return txn.Clauses(clause.OnConflict{DoNothing: false}).Create(&models).Error
	})
}

func (s *gormStore) DeleteChat(dbc dbctx.Context, chatID string) error {
	if chatID == "" {
		return fmt.Errorf("infobar store: missing chat id")
	}
	tx := s.tx(dbc)
	return tx.WithContext(dbc.Ctx).Where("chat_id = ?", chatID).Delete(&PanelRowModel{}).Error
}

func (s *gormStore) tx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx
	}
	return s.db
}

// encodeRow/decodeRow translate between infobar.Row (map[int]string)
// and the JSON-object-with-string-keys shape required by jsonb storage
// (JSON object keys must be strings).
func encodeRow(row infobar.Row) ([]byte, error) {
	strMap := make(map[string]string, len(row))
	for col, val := range row {
		strMap[strconv.Itoa(col)] = val
	}
	return json.Marshal(strMap)
}

func decodeRow(raw []byte) (infobar.Row, error) {
	if len(raw) == 0 {
		return infobar.Row{}, nil
	}
	var strMap map[string]string
	if err := json.Unmarshal(raw, &strMap); err != nil {
		return nil, err
	}
	row := make(infobar.Row, len(strMap))
	for k, v := range strMap {
		col, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		row[col] = v
	}
	return row, nil
}
