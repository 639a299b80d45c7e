// Package inject implements the InjectionDispatcher (C6): routes the
// composed prompt to the host's prompt-injection surface at a chosen
// anchor/depth, and manages the main-API "must-output" vs "prohibition"
// rule blocks depending on which API surface table-records targets.
package inject

import (
	"context"
	"fmt"
	"sync"

	"github.com/neurobridge-labs/infobar-core/internal/config"
	"github.com/neurobridge-labs/infobar-core/internal/host"
)

const (
	identifierComposedPrompt = "infobar:composed-prompt"
	identifierMustOutput     = "infobar:must-output-rules"
	identifierProhibition    = "infobar:prohibition-rules"
)

var mustOutputRules = "The main API response MUST include <aiThinkProcess> and <infobar_data> tags per the output contract."

var prohibitionRules = "The main API response MUST NOT include <aiThinkProcess> or <infobar_data> tags; table records are handled on the custom API."

// fallbackStash is the process-wide slot a caller may consume when the
// host has no injection hook (§7 "injection hook absent").
var (
	fallbackMu    sync.Mutex
	fallbackStash = map[string]string{}
)

// Stash returns whatever text was stashed under identifier by a prior
// fallback write, clearing it.
func Stash(identifier string) (string, bool) {
	fallbackMu.Lock()
	defer fallbackMu.Unlock()
	text, ok := fallbackStash[identifier]
	delete(fallbackStash, identifier)
	return text, ok
}

func stash(identifier, text string) {
	fallbackMu.Lock()
	defer fallbackMu.Unlock()
	fallbackStash[identifier] = text
}

// ResolveMode derives the effective API mode per §4.6: custom iff
// explicit custom, or auto and global custom is enabled; else main.
func ResolveMode(apiMode config.APIMode, globalCustomEnabled bool) config.APIMode {
	if apiMode == config.APIModeCustom {
		return config.APIModeCustom
	}
	if apiMode == config.APIModeAuto && globalCustomEnabled {
		return config.APIModeCustom
	}
	return config.APIModeMain
}

// Dispatcher routes composed prompts through a host.Context, falling
// back to the process-wide stash slot when injection fails or the hook
// is absent (§7).
type Dispatcher struct {
	hostCtx host.Context
	anchor  host.Anchor
	depth   int
}

// New builds a Dispatcher bound to a host.Context and the configured
// anchor/depth from <extension>.promptPosition.
func New(hostCtx host.Context, anchor config.Anchor, depth int) *Dispatcher {
	return &Dispatcher{
		hostCtx: hostCtx,
		anchor:  host.Anchor(anchor),
		depth:   depth,
	}
}

// InjectMain inserts the composed prompt at the configured anchor. On
// failure (or a nil host), it stashes the prompt instead of erroring.
func (d *Dispatcher) InjectMain(ctx context.Context, prompt string) error {
	if d.hostCtx == nil {
		stash(identifierComposedPrompt, prompt)
		return nil
	}
	if err := d.hostCtx.SetExtensionPrompt(ctx, identifierComposedPrompt, prompt, d.depth, d.anchor); err != nil {
		stash(identifierComposedPrompt, prompt)
		return fmt.Errorf("inject: fell back to stash: %w", err)
	}
	return nil
}

// RouteRules applies the routing rules from §4.6: if table-records
// targets the main API, inject a must-output block; if it targets the
// custom API, clear the must-output block and inject a prohibition
// block; if table-records is disabled entirely, clear both.
func (d *Dispatcher) RouteRules(ctx context.Context, tableRecordsEnabled bool, effectiveMode config.APIMode) error {
	if d.hostCtx == nil {
		if !tableRecordsEnabled {
			return nil
		}
		if effectiveMode == config.APIModeCustom {
			stash(identifierProhibition, prohibitionRules)
		} else {
			stash(identifierMustOutput, mustOutputRules)
		}
		return nil
	}

	if !tableRecordsEnabled {
		_ = d.hostCtx.SetExtensionPrompt(ctx, identifierMustOutput, "", 0, d.anchor)
		_ = d.hostCtx.SetExtensionPrompt(ctx, identifierProhibition, "", 0, d.anchor)
		return nil
	}

	if effectiveMode == config.APIModeCustom {
		if err := d.hostCtx.SetExtensionPrompt(ctx, identifierMustOutput, "", 0, d.anchor); err != nil {
			return fmt.Errorf("inject: clear must-output rules: %w", err)
		}
		if err := d.hostCtx.SetExtensionPrompt(ctx, identifierProhibition, prohibitionRules, 0, d.anchor); err != nil {
			return fmt.Errorf("inject: set prohibition rules: %w", err)
		}
		return nil
	}

	if err := d.hostCtx.SetExtensionPrompt(ctx, identifierProhibition, "", 0, d.anchor); err != nil {
		return fmt.Errorf("inject: clear prohibition rules: %w", err)
	}
	if err := d.hostCtx.SetExtensionPrompt(ctx, identifierMustOutput, mustOutputRules, 0, d.anchor); err != nil {
		return fmt.Errorf("inject: set must-output rules: %w", err)
	}
	return nil
}
