// Package engine wires the ten components behind the two control-flow
// paths a host turn drives: generation_started composes and injects a
// prompt, message_received parses a reply and applies it to storage
// (spec §2 system overview).
package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/neurobridge-labs/infobar-core/internal/config"
	"github.com/neurobridge-labs/infobar-core/internal/dataupdate"
	"github.com/neurobridge-labs/infobar-core/internal/domain/infobar"
	"github.com/neurobridge-labs/infobar-core/internal/events"
	"github.com/neurobridge-labs/infobar-core/internal/host"
	"github.com/neurobridge-labs/infobar-core/internal/inject"
	"github.com/neurobridge-labs/infobar-core/internal/missingfield"
	"github.com/neurobridge-labs/infobar-core/internal/pkg/dbctx"
	"github.com/neurobridge-labs/infobar-core/internal/platform/eventbus"
	"github.com/neurobridge-labs/infobar-core/internal/platform/logger"
	"github.com/neurobridge-labs/infobar-core/internal/promptcompose"
	"github.com/neurobridge-labs/infobar-core/internal/registry"
	"github.com/neurobridge-labs/infobar-core/internal/respparser"
	"github.com/neurobridge-labs/infobar-core/internal/retrieval"
	"github.com/neurobridge-labs/infobar-core/internal/rules"
	"github.com/neurobridge-labs/infobar-core/internal/platform/tracing"
	"github.com/neurobridge-labs/infobar-core/internal/store"
	"github.com/neurobridge-labs/infobar-core/internal/strategy"
)

// Retriever is the subset of retrieval.Retriever the engine consumes,
// so tests can substitute a fake without standing up real collaborators.
type Retriever interface {
	HybridSearch(ctx context.Context, query string, opts retrieval.Options) retrieval.SearchResult
	IngestMemory(chatID string, rec infobar.MemoryRecord)
	Reset()
}

// Engine holds every collaborator the two control-flow paths need.
// Retriever may be nil: generation_started then composes without a
// memory enhancement block.
type Engine struct {
	log        *logger.Logger
	host       host.Context
	store      store.DataStore
	bus        eventbus.Bus
	rules      *rules.Catalog
	retriever  Retriever
	dispatcher *inject.Dispatcher
	updater    *dataupdate.Updater

	mu  sync.RWMutex
	ext config.Extension
}

// New builds an Engine bound to a fixed host.Context and prompt-position
// configuration. UpdateExtension may be called afterward to react to a
// panel:config:changed event without rebuilding the rest of the wiring.
func New(
	log *logger.Logger,
	hostCtx host.Context,
	st store.DataStore,
	bus eventbus.Bus,
	ruleCatalog *rules.Catalog,
	retriever Retriever,
	ext config.Extension,
) *Engine {
	anchor := ext.PromptPosition.Mode
	if anchor == "" {
		anchor = config.AnchorAfterCharacter
	}
	e := &Engine{
		log:        log.With("component", "Engine"),
		host:       hostCtx,
		store:      st,
		bus:        bus,
		rules:      ruleCatalog,
		retriever:  retriever,
		dispatcher: inject.New(hostCtx, anchor, ext.PromptPosition.Depth),
		updater:    dataupdate.New(st, bus, log),
		ext:        ext,
	}
	if hostCtx != nil && retriever != nil {
		hostCtx.On(host.EventChatChanged, func(any) {
			retriever.Reset()
		})
	}
	return e
}

// UpdateExtension swaps in a freshly parsed configuration snapshot. The
// injection dispatcher keeps whatever anchor/depth it was built with;
// a moved prompt position takes effect on the next New.
func (e *Engine) UpdateExtension(ext config.Extension) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ext = ext
}

func (e *Engine) currentExtension() config.Extension {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ext
}

// HandleGenerationStarted runs the full composition path: list enabled
// panels, read current data, analyze strategy and missing fields,
// render rules, compose the prompt, and inject it (spec §2).
func (e *Engine) HandleGenerationStarted(ctx context.Context, chatID string) error {
	ctx, span := tracing.Start(ctx, "compose", attribute.String("chatId", chatID))
	defer span.End()

	ext := e.currentExtension()
	enabled := registry.New(ext).ListEnabled()

	dbc := dbctx.Context{Ctx: ctx}
	current, err := e.store.ReadChat(dbc, chatID)
	if err != nil {
		e.publishError(ctx, fmt.Errorf("engine: read current data: %w", err))
		return fmt.Errorf("engine: read current data: %w", err)
	}

	strat := strategy.Analyze(enabled, current)
	missing := missingfield.Detect(enabled, current)

	rulesText := ""
	if e.rules != nil {
		rulesText, err = e.rules.Render(ctx, enabled, infobar.RuleContext{
			PanelID:  "",
			Coverage: strat.Coverage,
			RowCount: totalRows(enabled, current),
		})
		if err != nil {
			e.log.Warn("rule catalog render failed, composing without rules section", "error", err)
			rulesText = ""
		}
	}

	memoryBlock := ""
	if e.retriever != nil {
		opts := retrieval.DefaultOptions()
		opts.ChatID = chatID
		result := e.retriever.HybridSearch(ctx, memoryQuery(chatID, enabled), opts)
		memoryBlock = formatMemoryBlock(result.Results)
	}

	effectiveMode := inject.ResolveMode(ext.Basic.TableRecords.APIMode, ext.GlobalCustomAPIEnabled)

	prompt := promptcompose.Compose(enabled, current, strat, missing, promptcompose.Options{
		EnableArmorBreaking: ext.APIConfig.EnableArmorBreaking,
		ArmorBreakingPrompt: ext.APIConfig.ArmorBreakingPrompt,
		MemoryBlock:         memoryBlock,
		RulesSection:        rulesText,
		OutputMode:          mapOutputMode(effectiveMode),
	})

	if err := e.dispatcher.InjectMain(ctx, prompt); err != nil {
		e.log.Warn("prompt injection fell back to stash", "error", err)
	}
	if err := e.dispatcher.RouteRules(ctx, ext.Basic.TableRecords.Enabled, effectiveMode); err != nil {
		e.log.Warn("rule routing failed", "error", err)
	}
	span.SetAttributes(attribute.Int("coverage", strat.Coverage), attribute.Int("panelCount", len(enabled)))
	return nil
}

// HandleMessageReceived runs the reply path: parse the model's reply
// against the currently enabled panels and apply the resulting
// operations to storage (spec §2).
func (e *Engine) HandleMessageReceived(ctx context.Context, chatID, reply, messageID string) error {
	ctx, span := tracing.Start(ctx, "parse", attribute.String("chatId", chatID))
	defer span.End()

	ext := e.currentExtension()
	enabled := registry.New(ext).ListEnabled()

	if e.retriever != nil {
		if ex := respparser.Extract(reply); ex.HasMemory && strings.TrimSpace(ex.MemorySummary) != "" {
			e.retriever.IngestMemory(chatID, infobar.MemoryRecord{
				ID:         messageID,
				Content:    ex.MemorySummary,
				Timestamp:  time.Now().UTC(),
				Importance: 0.5,
				Category:   "ai_memory",
				Layer:      "ai_memory",
			})
		}
	}

	result, err := respparser.Parse(reply, enabled)
	if err != nil {
		e.publishError(ctx, fmt.Errorf("engine: parse reply: %w", err))
		return fmt.Errorf("engine: parse reply: %w", err)
	}
	span.SetAttributes(attribute.String("format", string(result.Format)), attribute.Int("operationCount", result.Metadata.OperationCount))
	if len(result.Operations) == 0 {
		return nil
	}
	return e.updater.Apply(ctx, chatID, result.Operations, messageID, result.Metadata.Source)
}

func (e *Engine) publishError(ctx context.Context, err error) {
	if e.bus == nil {
		e.log.Error("turn aborted", "error", err)
		return
	}
	if pubErr := events.PublishError(ctx, e.bus, err, 1); pubErr != nil {
		e.log.Warn("failed to publish smart-prompt:error", "error", pubErr)
	}
}

func totalRows(enabled []infobar.Panel, current infobar.CurrentData) int {
	total := 0
	for _, p := range enabled {
		total += current[p.ID].RowCount()
	}
	return total
}

func memoryQuery(chatID string, enabled []infobar.Panel) string {
	ids := make([]string, len(enabled))
	for i, p := range enabled {
		ids[i] = p.ID
	}
	return chatID + " " + joinSpace(ids)
}

func joinSpace(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += " "
		}
		out += p
	}
	return out
}

func mapOutputMode(mode config.APIMode) promptcompose.OutputMode {
	if mode == config.APIModeCustom {
		return promptcompose.OutputModeCustom
	}
	return promptcompose.OutputModeMain
}
