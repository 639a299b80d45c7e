// Package host defines the single interface the core uses to reach the
// external host chat platform (§6, §9 Design Notes: "encapsulate access
// behind a single interface"). Everything outside this package treats
// the platform as a named collaborator through Context.
package host

import "context"

// Anchor mirrors config.Anchor without importing the config package,
// keeping host free of a dependency on the rest of the module.
type Anchor string

const (
	AnchorBeforeCharacter  Anchor = "beforeCharacter"
	AnchorAfterCharacter   Anchor = "afterCharacter"
	AnchorAtDepthSystem    Anchor = "atDepthSystem"
	AnchorAtDepthUser      Anchor = "atDepthUser"
	AnchorAtDepthAssistant Anchor = "atDepthAssistant"
)

// EventChatChanged is the per-chat event emitter name the host platform
// fires when the active chat switches (§6 glossary). C9's semantic
// cache and query history are cleared wholesale on this event (§3, §5).
const EventChatChanged = "chat:changed"

// EventHandler receives an event payload; Context.On returns an
// unsubscribe func the caller must invoke to stop receiving events.
type EventHandler func(payload any)

// Context is the host chat platform surface: the message store, the
// prompt-injection hook, and per-chat event emitters, all behind one
// interface so tests only need to satisfy this (§9 Design Notes).
type Context interface {
	GetChatID(ctx context.Context) (string, error)
	SetExtensionPrompt(ctx context.Context, identifier, text string, priority int, position Anchor) error
	On(event string, handler EventHandler) (unsubscribe func())
	Emit(event string, payload any)
}
