package config

import (
	"fmt"
	"strings"
)

var validOutputMethods = map[string]bool{
	"clipboard": true,
	"type":      true,
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if strings.TrimSpace(cfg.Backend.URL) == "" {
		return nil, fmt.Errorf("backend.url must not be empty")
	}
	if strings.TrimSpace(cfg.Backend.Language) == "" {
		return nil, fmt.Errorf("backend.language must not be empty")
	}
	if cfg.Backend.TimeoutSeconds <= 0 {
		return nil, fmt.Errorf("backend.timeout_seconds must be > 0")
	}

	if cfg.Audio.SampleRate <= 0 {
		return nil, fmt.Errorf("audio.sample_rate must be > 0")
	}
	if cfg.Audio.MaxSeconds <= 0 {
		return nil, fmt.Errorf("audio.max_seconds must be > 0")
	}

	method := strings.ToLower(strings.TrimSpace(cfg.Output.DefaultMethod))
	if !validOutputMethods[method] {
		return nil, fmt.Errorf("output.default_method must be one of: clipboard, type")
	}
	if strings.TrimSpace(cfg.Output.ClipboardCmd) == "" {
		return nil, fmt.Errorf("output.clipboard_cmd must not be empty")
	}
	if cfg.Output.PasteEnable && strings.TrimSpace(cfg.Output.PasteShortcut) == "" {
		return nil, fmt.Errorf("output.paste_shortcut must not be empty when output.paste_enable=true")
	}
	if len(cfg.Output.TerminalApps) == 0 {
		warnings = append(warnings, Warning{Message: "output.terminal_apps is empty; keystroke typing for terminals will never trigger"})
	}

	if cfg.Window.PollIntervalMS < 0 {
		return nil, fmt.Errorf("window.poll_interval_ms must be >= 0")
	}

	if cfg.History.Enable && strings.TrimSpace(cfg.History.DSN) == "" {
		return nil, fmt.Errorf("history.dsn must not be empty when history.enable=true")
	}

	level := strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	if !validLogLevels[level] {
		return nil, fmt.Errorf("log.level must be one of: debug, info, warn, error")
	}

	return warnings, nil
}
