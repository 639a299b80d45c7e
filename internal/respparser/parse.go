// Package respparser implements the ResponseParser (C7): extracts the
// delimited data block from the model's reply, classifies its format,
// tokenizes the operation-command grammar, and validates operations
// against the currently enabled panel snapshot.
package respparser

import (
	"fmt"
	"strings"
	"time"

	"github.com/neurobridge-labs/infobar-core/internal/domain/infobar"
	ierrors "github.com/neurobridge-labs/infobar-core/internal/pkg/errors"
)

// Metadata accompanies a successful parse.
type Metadata struct {
	Timestamp      time.Time
	Source         string
	OperationCount int
}

// Result is the full output of Parse.
type Result struct {
	Format     infobar.Format
	Operations []infobar.OperationCommand
	Metadata   Metadata
}

// Parse extracts and validates the reply's operation-command block
// against enabledPanels. A strict-format rejection or any per-line
// validation failure aborts the whole block: Operations is nil and err
// is non-nil, but Result.Format still reports what was seen so the
// caller can emit an accurate smart-prompt:error payload.
func Parse(reply string, enabledPanels []infobar.Panel) (Result, error) {
	ex := Extract(reply)
	if !ex.HasData {
		return Result{Format: infobar.FormatUnknown}, ierrors.ErrNoDataBlock
	}

	format := ClassifyFormat(ex.DataBody)

	switch format {
	case infobar.FormatForbidden:
		return Result{Format: format}, fmt.Errorf("respparser: %w", ierrors.ErrForbiddenFormat)

	case infobar.FormatLegacyTextual:
		return Result{
			Format: format,
			Metadata: Metadata{
				Timestamp:      time.Now().UTC(),
				Source:         "legacy_textual",
				OperationCount: 0,
			},
		}, nil

	case infobar.FormatUnknown:
		return Result{Format: format}, fmt.Errorf("respparser: unrecognized response format")

	case infobar.FormatOperationCommands:
		if StrictForbiddenGuard(ex.DataBody) {
			return Result{Format: infobar.FormatForbidden}, fmt.Errorf("respparser: %w", ierrors.ErrForbiddenFormat)
		}
		ops, err := parseAndValidate(ex.DataBody, enabledPanels)
		if err != nil {
			return Result{Format: format}, err
		}
		return Result{
			Format:     format,
			Operations: ops,
			Metadata: Metadata{
				Timestamp:      time.Now().UTC(),
				Source:         "operation_commands",
				OperationCount: len(ops),
			},
		}, nil
	}

	return Result{Format: infobar.FormatUnknown}, fmt.Errorf("respparser: unrecognized response format")
}

// panelIndex resolves a panel by id and exposes its column count for
// bounds validation, built fresh from each call's enabledPanels
// snapshot so it always reflects the composing turn's panel set.
type panelIndex map[string]infobar.Panel

func buildPanelIndex(panels []infobar.Panel) panelIndex {
	idx := make(panelIndex, len(panels))
	for _, p := range panels {
		idx[p.ID] = p
	}
	return idx
}

// parseAndValidate tokenizes every non-blank, non-comment line and
// validates it against enabledPanels. A single failing line rejects
// the entire block (§4.7: "rejections are per-line and abort the
// whole block").
func parseAndValidate(body string, enabledPanels []infobar.Panel) ([]infobar.OperationCommand, error) {
	idx := buildPanelIndex(enabledPanels)

	var ops []infobar.OperationCommand
	for _, line := range strings.Split(body, "\n") {
		cmd, ok, err := ParseLine(line)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if err := validate(cmd, idx); err != nil {
			return nil, err
		}
		ops = append(ops, cmd)
	}
	return ops, nil
}

func validate(cmd infobar.OperationCommand, idx panelIndex) error {
	panel, ok := idx[cmd.Panel]
	if !ok {
		return fmt.Errorf("respparser: %w: %q (allowed: %s)", ierrors.ErrPanelUnknown, cmd.Panel, allowedPanels(idx))
	}
	for col := range cmd.Data {
		if col < 1 || col > panel.ColumnCount() {
			return fmt.Errorf("respparser: %w: column %d for panel %q (allowed: 1..%d)", ierrors.ErrColumnOutOfRange, col, cmd.Panel, panel.ColumnCount())
		}
	}
	// Row bounds below zero are invalid; 0 is permitted here and
	// normalized downstream by DataUpdater (§4.8).
	if cmd.Row < 0 {
		return fmt.Errorf("respparser: %w: row %d", ierrors.ErrRowInvalid, cmd.Row)
	}
	return nil
}

func allowedPanels(idx panelIndex) string {
	ids := make([]string, 0, len(idx))
	for id := range idx {
		ids = append(ids, id)
	}
	return strings.Join(ids, ", ")
}
