package store

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PanelRowModel is the gorm-persisted shape of one panel row: a dense,
// 1-based array per (chatID, panelID) backed by a postgres/sqlite
// table. RowNo is authoritative; Data maps column number (as a string
// key, since JSON object keys are always strings) to its cell value.
type PanelRowModel struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ChatID      string         `gorm:"type:text;not null;index:idx_panel_row_chat_panel" json:"chat_id"`
	PanelID     string         `gorm:"type:text;not null;index:idx_panel_row_chat_panel" json:"panel_id"`
	RowNo       int            `gorm:"not null" json:"row_no"`
	Data        datatypes.JSON `gorm:"type:jsonb;not null;default:'{}'" json:"data"`
	LastUpdated time.Time      `gorm:"not null;default:now()" json:"last_updated"`
}

func (PanelRowModel) TableName() string { return "infobar_panel_row" }

// BeforeCreate fills ID client-side so the model is portable across
// postgres (uuid_generate_v4() default) and sqlite (no such default).
func (m *PanelRowModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
