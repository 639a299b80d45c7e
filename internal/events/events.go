// Package events defines the typed payloads the core publishes over
// eventbus (§6) and small helpers to publish them without callers
// hand-building the wire shape each time.
package events

import (
	"context"
	"time"

	"github.com/neurobridge-labs/infobar-core/internal/platform/eventbus"
)

const (
	SmartPromptInitialized     = "smart-prompt:initialized"
	SmartPromptDataUpdated     = "smart-prompt:data-updated"
	SmartPromptTemplateUpdated = "smart-prompt:template-updated"
	SmartPromptError           = "smart-prompt:error"
	DataUpdated                = "data:updated"
	ContextualRetrievalInit    = "contextual-retrieval:initialized"
	ContextualRetrievalError   = "contextual-retrieval:error"
	PanelRuleUpdated           = "panelRule:updated"
	PanelRuleDeleted           = "panelRule:deleted"
	FieldRuleUpdated           = "fieldRule:updated"
	FieldRuleDeleted           = "fieldRule:deleted"
)

type Initialized struct {
	Timestamp time.Time `json:"timestamp"`
}

type DataUpdatedPayload struct {
	Data           any       `json:"data"`
	Timestamp      time.Time `json:"timestamp"`
	MessageID      string    `json:"messageId,omitempty"`
	Source         string    `json:"source,omitempty"`
	AffectedPanels []string  `json:"affectedPanels"`
}

type TemplateUpdated struct {
	Timestamp time.Time `json:"timestamp"`
	Reason    string    `json:"reason"`
}

type Error struct {
	Error      string    `json:"error"`
	Timestamp  time.Time `json:"timestamp"`
	ErrorCount int       `json:"errorCount"`
}

type RetrievalInitialized struct {
	Timestamp time.Time `json:"timestamp"`
}

type RetrievalError struct {
	Timestamp  time.Time `json:"timestamp"`
	Error      string    `json:"error"`
	ErrorCount int       `json:"errorCount"`
}

// PublishDataUpdated emits the data:updated event after a batch of
// DataUpdater operations applies (§4.8).
func PublishDataUpdated(ctx context.Context, bus eventbus.Bus, affected []string, data any, messageID, source string) error {
	return bus.Publish(ctx, DataUpdated, DataUpdatedPayload{
		Data:           data,
		Timestamp:      time.Now().UTC(),
		MessageID:      messageID,
		Source:         source,
		AffectedPanels: affected,
	})
}

// PublishError emits smart-prompt:error (§7) for any turn-aborting failure.
func PublishError(ctx context.Context, bus eventbus.Bus, err error, errorCount int) error {
	return bus.Publish(ctx, SmartPromptError, Error{
		Error:      err.Error(),
		Timestamp:  time.Now().UTC(),
		ErrorCount: errorCount,
	})
}
