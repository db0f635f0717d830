// Package doctor runs runtime readiness diagnostics for config, tools,
// audio, and the transcription backend.
package doctor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/speakanywhere/speakanywhere/internal/audio"
	"github.com/speakanywhere/speakanywhere/internal/config"
	"github.com/speakanywhere/speakanywhere/internal/transcriber"
)

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Run executes environment/config/runtime checks for a loaded config.
func Run(cfg config.Loaded) Report {
	checks := []Check{}

	checks = append(checks, Check{
		Name:    "config",
		Pass:    true,
		Message: fmt.Sprintf("loaded %q", cfg.Path),
	})

	checks = append(checks, checkEnv("XDG_SESSION_TYPE", func(v string) bool {
		return strings.EqualFold(strings.TrimSpace(v), "wayland")
	}, "session type is wayland", "expected XDG_SESSION_TYPE=wayland"))

	if strings.EqualFold(cfg.Config.Window.Backend, "hyprland") {
		checks = append(checks, checkEnv("HYPRLAND_INSTANCE_SIGNATURE", func(v string) bool {
			return strings.TrimSpace(v) != ""
		}, "Hyprland session detected", "HYPRLAND_INSTANCE_SIGNATURE is empty"))
	}

	checks = append(checks, checkArgvCommand(cfg.Config.Output.ClipboardCmd, "clipboard_cmd"))

	if cfg.Config.Output.PasteEnable {
		if strings.TrimSpace(cfg.Config.Output.PasteShortcut) != "" {
			checks = append(checks, checkBinary("hyprctl", "paste shortcut requires hyprctl to dispatch sendshortcut"))
		} else {
			checks = append(checks, Check{Name: "output.paste_shortcut", Pass: false, Message: "paste_enable is set but paste_shortcut is empty"})
		}
	}
	checks = append(checks, checkArgvCommand(cfg.Config.Output.TypeCmd, "type_cmd"))

	checks = append(checks, checkAudioSelection(cfg.Config))
	checks = append(checks, checkBackendReady(cfg.Config))

	return Report{Checks: checks}
}

// checkEnv validates an environment variable through a caller-supplied predicate.
func checkEnv(name string, predicate func(string) bool, okMsg, failMsg string) Check {
	value := os.Getenv(name)
	if predicate(value) {
		return Check{Name: name, Pass: true, Message: okMsg}
	}
	return Check{Name: name, Pass: false, Message: failMsg}
}

// checkArgvCommand parses raw as a shell-style command string and validates
// the resulting argv's first token is runnable.
func checkArgvCommand(raw string, name string) Check {
	argv, err := config.ParseArgv(raw)
	if err != nil {
		return Check{Name: name, Pass: false, Message: err.Error()}
	}
	return checkCommand(argv, name)
}

// checkCommand validates that argv contains a runnable command.
func checkCommand(argv []string, name string) Check {
	if len(argv) == 0 {
		return Check{Name: name, Pass: false, Message: "command is empty"}
	}
	return checkBinary(argv[0], fmt.Sprintf("%s command is available", name))
}

// checkBinary validates that a binary exists in PATH.
func checkBinary(bin string, okMsg string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: bin, Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", bin)}
	}
	return Check{Name: bin, Pass: true, Message: fmt.Sprintf("found at %s (%s)", path, okMsg)}
}

// checkAudioSelection runs live device selection to surface selection/fallback issues.
func checkAudioSelection(cfg config.Config) Check {
	selection, err := audio.SelectDevice(context.Background(), cfg.Audio.Input, cfg.Audio.Fallback)
	if err != nil {
		return Check{Name: "audio.device", Pass: false, Message: err.Error()}
	}
	message := fmt.Sprintf("selected %q", selection.Device.ID)
	if selection.Warning != "" {
		message = message + " (" + selection.Warning + ")"
	}
	return Check{Name: "audio.device", Pass: true, Message: message}
}

// checkBackendReady probes the configured transcription backend's gRPC
// health-check endpoint.
func checkBackendReady(cfg config.Config) Check {
	target := strings.TrimSpace(cfg.Backend.HealthGRPC)
	if target == "" {
		return Check{Name: "backend.ready", Pass: false, Message: "backend.health_grpc is empty"}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	probe := transcriber.NewReadinessProbe(target)
	if err := probe.Ready(ctx); err != nil {
		return Check{Name: "backend.ready", Pass: false, Message: err.Error()}
	}
	return Check{Name: "backend.ready", Pass: true, Message: fmt.Sprintf("serving at %s", target)}
}
