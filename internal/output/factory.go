// Package output delivers a completed transcript to the user: either onto
// the clipboard, or typed directly into the focused window via a paste
// shortcut (GUI apps) or synthesized keystrokes (terminal apps, which often
// run an intermediate multiplexer that swallows clipboard-paste shortcuts).
package output

import (
	"context"
	"log/slog"
)

// Adapter delivers transcript text to the user. Implementations are
// invoked only from the orchestrator's OnComplete, never concurrently with
// themselves.
type Adapter interface {
	Deliver(ctx context.Context, text string) error
}

// Config configures the clipboard and type adapters. Defaults() returns a
// Wayland-native set; NewFactory uses a Config as given and does not fill in
// its zero-value fields.
type Config struct {
	ClipboardArgv []string
	PasteArgv     []string
	PasteShortcut string
	TypeArgv      []string
}

// Defaults returns the built-in Wayland clipboard/paste command set.
func Defaults() Config {
	return Config{
		ClipboardArgv: []string{"wl-copy", "--trim-newline"},
		PasteShortcut: "CTRL,V",
		TypeArgv:      []string{"wtype"},
	}
}

// Factory builds the Adapter for a given output method tag, using the
// caller's terminal classification of the target window to choose between
// a paste shortcut and synthesized keystrokes.
type Factory struct {
	config Config
	logger *slog.Logger
}

// NewFactory constructs a Factory from runtime configuration.
func NewFactory(cfg Config, logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{config: cfg, logger: logger}
}

// Make returns the Adapter for methodTag. isTerminal is supplied by the
// caller (the Core facade), which owns the app-classification logic so
// adapters themselves stay stateless with respect to window context.
func (f *Factory) Make(methodTag string, isTerminal bool) Adapter {
	switch methodTag {
	case "type":
		return &typeAdapter{config: f.config, logger: f.logger, isTerminal: isTerminal}
	default:
		return &clipboardAdapter{config: f.config, logger: f.logger}
	}
}
