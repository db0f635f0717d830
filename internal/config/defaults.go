package config

// Default returns the canonical runtime configuration used when no config
// file is present, and as the base a present file's keys are merged onto.
func Default() Config {
	return Config{
		Audio: AudioConfig{
			Fallback:   true,
			SampleRate: 16000,
			MaxSeconds: 120,
		},
		Backend: BackendConfig{
			URL:            "http://127.0.0.1:8000/v1/transcribe",
			HealthGRPC:     "127.0.0.1:50051",
			TimeoutSeconds: 30,
			Language:       "en-US",
		},
		Output: OutputConfig{
			DefaultMethod: "clipboard",
			ClipboardCmd:  "wl-copy --trim-newline",
			PasteEnable:   true,
			PasteShortcut: "SUPER,V",
			TypeCmd:       "wtype",
			TerminalApps:  []string{"kitty", "alacritty", "foot", "wezterm"},
		},
		Window: WindowConfig{
			Backend:        "hyprland",
			PollIntervalMS: 150,
		},
		Agents: []string{"claude", "codex", "aider", "cursor-agent", "gemini"},
		History: HistoryConfig{
			DSN:    "postgres://speak_anywhere@localhost:5432/speak_anywhere",
			Enable: true,
		},
		Log: LogConfig{Level: "info"},
	}
}
