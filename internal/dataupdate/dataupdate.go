// Package dataupdate implements the DataUpdater (C8): normalizes row
// indices, applies add/update/delete operations to panel tables, and
// emits data:updated once a batch has applied. A single apply call is
// serialized per chat so rapid-fire replies never interleave partial
// writes to the same panel (§5).
package dataupdate

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/neurobridge-labs/infobar-core/internal/domain/infobar"
	"github.com/neurobridge-labs/infobar-core/internal/events"
	"github.com/neurobridge-labs/infobar-core/internal/pkg/dbctx"
	"github.com/neurobridge-labs/infobar-core/internal/platform/eventbus"
	"github.com/neurobridge-labs/infobar-core/internal/platform/logger"
	"github.com/neurobridge-labs/infobar-core/internal/store"
)

// Updater applies parsed operation commands to per-chat panel tables.
//
// This package only deals with the dense form that
// store.DataStore.GetPanelRows returns. The store keeps one record per
// row holding a JSON object keyed by column number; on read, keys that
// are not integers are dropped, and a panel stored as a JSON array,
// an integer-keyed object of rows, or a legacy flat object is not read
// or converted.
type Updater struct {
	store store.DataStore
	bus   eventbus.Bus
	log   *logger.Logger

	queueMu sync.Mutex
	queues  map[string]*sync.Mutex
}

// New builds an Updater. bus may be nil, in which case data:updated is
// never published (useful for tests that only assert on stored rows).
func New(st store.DataStore, bus eventbus.Bus, log *logger.Logger) *Updater {
	return &Updater{
		store:  st,
		bus:    bus,
		log:    log.With("component", "DataUpdater"),
		queues: map[string]*sync.Mutex{},
	}
}

func (u *Updater) chatLock(chatID string) *sync.Mutex {
	u.queueMu.Lock()
	defer u.queueMu.Unlock()
	m, ok := u.queues[chatID]
	if !ok {
		m = &sync.Mutex{}
		u.queues[chatID] = m
	}
	return m
}

// Apply executes every operation against chatID's panel tables,
// serialized per chat, and emits data:updated for the batch. A single
// operation's store failure aborts the remaining operations in this
// batch, preserving prior state (§7: DataStore I/O failure policy).
func (u *Updater) Apply(ctx context.Context, chatID string, ops []infobar.OperationCommand, messageID, source string) error {
	if len(ops) == 0 {
		return nil
	}

	lock := u.chatLock(chatID)
	lock.Lock()
	defer lock.Unlock()

	dbc := dbctx.Context{Ctx: ctx}
	affected := map[string]bool{}

	for _, op := range ops {
		rows, err := u.store.GetPanelRows(dbc, chatID, op.Panel)
		if err != nil {
			u.publishError(ctx, fmt.Errorf("dataupdate: read panel %q: %w", op.Panel, err))
			return fmt.Errorf("dataupdate: read panel %q: %w", op.Panel, err)
		}

		row := op.Row
		if row < 1 {
			if op.Op == infobar.OpAdd {
				row = len(rows) + 1
			} else {
				row = 1
			}
		}

		newRows, err := applyOne(rows, op, row)
		if err != nil {
			u.publishError(ctx, fmt.Errorf("dataupdate: apply %s on %q: %w", op.Op, op.Panel, err))
			return err
		}

		if err := u.store.PutPanelRows(dbc, chatID, op.Panel, newRows); err != nil {
			u.publishError(ctx, fmt.Errorf("dataupdate: write panel %q: %w", op.Panel, err))
			return fmt.Errorf("dataupdate: write panel %q: %w", op.Panel, err)
		}
		affected[op.Panel] = true
	}

	panelList := make([]string, 0, len(affected))
	for p := range affected {
		panelList = append(panelList, p)
	}
	sort.Strings(panelList)

	if u.bus != nil {
		if err := events.PublishDataUpdated(ctx, u.bus, panelList, nil, messageID, source); err != nil {
			u.log.Warn("failed to publish data:updated", "error", err)
		}
	}
	return nil
}

func (u *Updater) publishError(ctx context.Context, err error) {
	if u.bus == nil {
		u.log.Error("dataupdate failure", "error", err)
		return
	}
	if pubErr := events.PublishError(ctx, u.bus, err, 1); pubErr != nil {
		u.log.Warn("failed to publish smart-prompt:error", "error", pubErr)
	}
}

// applyOne executes a single normalized operation against rows,
// returning the new dense row array (§4.8 step 4). add and update both
// extend the array with empty rows up to the target row, but differ in
// how they merge into an existing row: update always overwrites, while
// add never overwrites a non-empty cell in an existing row (§3
// invariant; the target row's own newly-appended emptiness doesn't
// count as "existing" for this purpose, so add still fills a brand new
// row normally).
func applyOne(rows []infobar.Row, op infobar.OperationCommand, row int) ([]infobar.Row, error) {
	switch op.Op {
	case infobar.OpAdd, infobar.OpUpdate:
		for len(rows) < row {
			rows = append(rows, infobar.Row{})
		}
		target := rows[row-1]
		if target == nil {
			target = infobar.Row{}
		}
		for col, val := range op.Data {
			if op.Op == infobar.OpAdd && target[col] != "" {
				continue
			}
			target[col] = val
		}
		rows[row-1] = target
		return rows, nil

	case infobar.OpDelete:
		if row < 1 || row > len(rows) {
			return rows, nil
		}
		return append(rows[:row-1], rows[row:]...), nil

	default:
		return nil, fmt.Errorf("dataupdate: unknown operation %q", op.Op)
	}
}
