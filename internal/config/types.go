// Package config resolves, parses, defaults, and validates the daemon's
// YAML configuration file.
package config

// Config is the fully materialized runtime configuration.
type Config struct {
	SocketPath string        `yaml:"socket_path"`
	Audio      AudioConfig   `yaml:"audio"`
	Backend    BackendConfig `yaml:"backend"`
	Output     OutputConfig  `yaml:"output"`
	Window     WindowConfig  `yaml:"window"`
	Agents     []string      `yaml:"agents"`
	History    HistoryConfig `yaml:"history"`
	Log        LogConfig     `yaml:"log"`
}

// AudioConfig controls capture device selection and the ring buffer's size
// (ring capacity in bytes is the derived quantity max_seconds*sample_rate*2).
type AudioConfig struct {
	Input      string `yaml:"input"`
	Fallback   bool   `yaml:"fallback"`
	SampleRate int    `yaml:"sample_rate"`
	MaxSeconds int    `yaml:"max_seconds"`
}

// BackendConfig points at the transcription service.
type BackendConfig struct {
	URL            string `yaml:"url"`
	HealthGRPC     string `yaml:"health_grpc"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	Language       string `yaml:"language"`
}

// OutputConfig controls how a completed transcript is delivered.
type OutputConfig struct {
	DefaultMethod string   `yaml:"default_method"`
	ClipboardCmd  string   `yaml:"clipboard_cmd"`
	PasteEnable   bool     `yaml:"paste_enable"`
	PasteShortcut string   `yaml:"paste_shortcut"`
	TypeCmd       string   `yaml:"type_cmd"`
	TerminalApps  []string `yaml:"terminal_apps"`
}

// WindowConfig controls the focus-tracking source.
type WindowConfig struct {
	Backend        string `yaml:"backend"`
	PollIntervalMS int    `yaml:"poll_interval_ms"`
}

// HistoryConfig controls the Postgres-backed transcription history store.
type HistoryConfig struct {
	DSN    string `yaml:"dsn"`
	Enable bool   `yaml:"enable"`
}

// LogConfig controls the structured logger.
type LogConfig struct {
	Level string `yaml:"level"`
}

// Warning is a non-fatal load/validation message.
type Warning struct {
	Line    int
	Message string
}
