package output

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/speakanywhere/speakanywhere/internal/hypr"
)

// typeAdapter delivers a transcript to the currently focused window: it
// always sets the clipboard first (so a failed paste still leaves the
// text recoverable), then either sends a paste shortcut to the focused
// window (GUI apps) or synthesizes literal keystrokes via wtype (terminal
// apps, where a paste shortcut is frequently intercepted by a multiplexer
// or shell instead of reaching the input buffer).
type typeAdapter struct {
	config     Config
	logger     *slog.Logger
	isTerminal bool
}

func (a *typeAdapter) Deliver(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}

	clipCtx, clipCancel := context.WithTimeout(ctx, 2*time.Second)
	err := runCommandWithInput(clipCtx, a.config.ClipboardArgv, text)
	clipCancel()
	if err != nil {
		return fmt.Errorf("set clipboard: %w", err)
	}

	insertCtx, insertCancel := context.WithTimeout(ctx, 1200*time.Millisecond)
	defer insertCancel()

	if a.isTerminal {
		if err := a.typeKeystrokes(insertCtx, text); err != nil {
			a.logInsertFailure(err)
		}
		return nil
	}

	if err := a.sendPasteShortcut(insertCtx); err != nil {
		a.logInsertFailure(err)
	}
	return nil
}

func (a *typeAdapter) typeKeystrokes(ctx context.Context, text string) error {
	argv := a.config.TypeArgv
	if len(argv) == 0 {
		return fmt.Errorf("type command is not configured")
	}
	argv = append(append([]string{}, argv...), text)
	return runCommandWithInput(ctx, argv, "")
}

func (a *typeAdapter) sendPasteShortcut(ctx context.Context) error {
	window, err := activeWindowWithRetry(ctx, 5, 10*time.Millisecond)
	if err != nil {
		return err
	}
	payload, err := buildPasteShortcut(a.config.PasteShortcut, strings.TrimSpace(window.Address))
	if err != nil {
		return err
	}
	return hypr.SendShortcut(ctx, payload)
}

func (a *typeAdapter) logInsertFailure(err error) {
	if a.logger == nil || err == nil {
		return
	}
	a.logger.Error("transcript insertion failed; clipboard remains set", "error", err.Error())
}

func buildPasteShortcut(shortcut string, windowAddress string) (string, error) {
	shortcut = strings.TrimSpace(shortcut)
	if shortcut == "" {
		return "", fmt.Errorf("paste shortcut cannot be empty")
	}

	address := strings.TrimSpace(windowAddress)
	if address == "" {
		return "", fmt.Errorf("active window address is required")
	}

	return fmt.Sprintf("%s,address:%s", shortcut, address), nil
}

func activeWindowWithRetry(ctx context.Context, attempts int, delay time.Duration) (hypr.ActiveWindow, error) {
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		window, err := hypr.QueryActiveWindow(ctx)
		if err == nil {
			return window, nil
		}
		lastErr = err
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return hypr.ActiveWindow{}, ctx.Err()
		case <-time.After(delay):
		}
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("active window unavailable")
	}
	return hypr.ActiveWindow{}, fmt.Errorf("resolve active window: %w", lastErr)
}
