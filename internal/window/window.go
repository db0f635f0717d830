// Package window tracks the currently focused window and reports each focus
// change to the dispatcher; the latest reported window is what becomes the
// window-context snapshot at the start of a recording turn
// (Idle->Recording).
package window

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/speakanywhere/speakanywhere/internal/hypr"
	"github.com/speakanywhere/speakanywhere/internal/model"
)

// Source polls hyprctl for the focused window on an interval and emits a
// snapshot on Events() whenever the focused window's address changes. This
// is a liveness-preserving, dependency-light substitute for a native
// Hyprland IPC event subscription socket: the spec only requires a
// readable focus-change source, not a specific transport.
type Source struct {
	interval time.Duration
	events   chan model.WindowSnapshot
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewSource constructs a Source that polls every interval (a sensible
// default is 250ms: frequent enough that the cached snapshot is rarely
// more than one poll stale, cheap enough not to matter).
func NewSource(interval time.Duration) *Source {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	return &Source{interval: interval, events: make(chan model.WindowSnapshot, 1)}
}

// Connect validates that hyprctl is reachable on PATH before the daemon
// commits to this window source.
func Connect(ctx context.Context) error {
	if _, err := exec.LookPath("hyprctl"); err != nil {
		return fmt.Errorf("hyprctl not found on PATH: %w", err)
	}
	return nil
}

// InitialFocused fetches the focused window once, synchronously, for the
// dispatcher's startup snapshot.
func InitialFocused(ctx context.Context) (model.WindowSnapshot, error) {
	window, err := hypr.QueryActiveWindow(ctx)
	if err != nil {
		return model.WindowSnapshot{}, err
	}
	return snapshotFromWindow(window), nil
}

// Events returns the channel the dispatcher selects on for focus-change
// notifications. Start must be called first.
func (s *Source) Events() <-chan model.WindowSnapshot { return s.events }

// Start launches the background polling goroutine. It returns immediately;
// Stop ends the goroutine.
func (s *Source) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.poll(ctx)
}

// Stop ends the polling goroutine and waits for it to exit.
func (s *Source) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
}

func (s *Source) poll(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	var lastAddress string
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			window, err := hypr.QueryActiveWindow(ctx)
			if err != nil {
				continue
			}
			if window.Address == lastAddress {
				continue
			}
			lastAddress = window.Address

			snapshot := snapshotFromWindow(window)
			select {
			case s.events <- snapshot:
			case <-ctx.Done():
				return
			default:
				// drop the stale pending snapshot, keep only the latest
				select {
				case <-s.events:
				default:
				}
				select {
				case s.events <- snapshot:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

func snapshotFromWindow(window hypr.ActiveWindow) model.WindowSnapshot {
	appID := window.InitialClass
	if appID == "" {
		appID = window.Class
	}
	return model.WindowSnapshot{
		AppID:       appID,
		WindowClass: window.Class,
		Title:       window.Title,
		PID:         window.PID,
	}
}
