// Package core implements command routing: it turns one decoded ipc.Request
// into a session/orchestrator operation and an ipc.Response, including
// window-context enrichment and output-method classification. It is driven
// exclusively from the dispatcher goroutine.
package core

import (
	"context"
	"log/slog"
	"strings"

	"github.com/speakanywhere/speakanywhere/internal/detector"
	"github.com/speakanywhere/speakanywhere/internal/fsm"
	"github.com/speakanywhere/speakanywhere/internal/ipc"
	"github.com/speakanywhere/speakanywhere/internal/model"
	"github.com/speakanywhere/speakanywhere/internal/orchestrator"
	"github.com/speakanywhere/speakanywhere/internal/output"
	"github.com/speakanywhere/speakanywhere/internal/session"
)

// HistoryReader fetches recent history records for the "history" command.
type HistoryReader interface {
	Recent(ctx context.Context, limit int) ([]model.HistoryRecord, error)
}

// Facade routes decoded commands to the session and orchestrator and
// builds their responses.
type Facade struct {
	session      *session.Session
	orchestrator *orchestrator.Orchestrator
	detector     *detector.Detector
	history      HistoryReader

	defaultOutputMethod string
	terminalApps        []string

	focused             model.WindowSnapshot
	pendingOutputMethod string
	logger              *slog.Logger
}

// New constructs a Facade.
func New(
	sess *session.Session,
	orch *orchestrator.Orchestrator,
	det *detector.Detector,
	hist HistoryReader,
	defaultOutputMethod string,
	terminalApps []string,
	logger *slog.Logger,
) *Facade {
	if logger == nil {
		logger = slog.Default()
	}
	return &Facade{
		session:             sess,
		orchestrator:        orch,
		detector:            det,
		history:             hist,
		defaultOutputMethod: defaultOutputMethod,
		terminalApps:        terminalApps,
		logger:              logger,
	}
}

// SetFocused replaces the focused-window cache, called by the dispatcher
// whenever the window source reports a focus change.
func (f *Facade) SetFocused(snapshot model.WindowSnapshot) {
	f.focused = snapshot
}

// Shutdown stops an in-flight recording so the audio producer is never
// left running past process exit. The captured samples are discarded
// rather than handed to the orchestrator: a recording truncated by
// shutdown was never going to be a complete utterance. A worker already in
// flight is joined separately, by the orchestrator's own Shutdown.
func (f *Facade) Shutdown() {
	if f.session.State() == fsm.StateRecording {
		_, _ = f.session.StopRecording()
	}
}

// Handle routes req to the matching operation and returns the response to
// send. When the response carries the internal StatusTranscribing
// sentinel, the caller (the dispatcher) must not write it to the
// connection; it must register the connection as a waiter instead.
func (f *Facade) Handle(ctx context.Context, req ipc.Request) ipc.Response {
	switch req.Cmd {
	case "start":
		return f.handleStart(req)
	case "stop":
		return f.handleStop(req)
	case "cancel":
		return f.handleCancel()
	case "toggle":
		return f.handleToggle(req)
	case "status":
		return f.handleStatus()
	case "history":
		return f.handleHistory(ctx, req)
	default:
		return ipc.Response{Status: ipc.StatusError, Message: "unknown command"}
	}
}

func (f *Facade) handleStart(req ipc.Request) ipc.Response {
	if f.session.State() != fsm.StateIdle {
		return ipc.Response{Status: ipc.StatusError, Message: "already recording or transcribing"}
	}

	snapshot := f.enrichWindow(f.focused)
	if err := f.session.StartRecording(snapshot); err != nil {
		return ipc.Response{Status: ipc.StatusError, Message: err.Error()}
	}

	method := req.Output
	if method == "" {
		method = f.defaultOutputMethod
	}
	f.pendingOutputMethod = method

	return ipc.Response{Status: ipc.StatusOK, State: "recording", Message: "recording"}
}

func (f *Facade) handleStop(req ipc.Request) ipc.Response {
	if f.session.State() != fsm.StateRecording {
		return ipc.Response{Status: ipc.StatusError, Message: "not recording"}
	}

	samples, err := f.session.StopRecording()
	if err != nil {
		return ipc.Response{Status: ipc.StatusError, Message: err.Error()}
	}
	if len(samples) == 0 {
		f.session.SetIdle()
		return ipc.Response{Status: ipc.StatusError, Message: "no audio captured"}
	}

	method := req.Output
	if method == "" {
		method = f.pendingOutputMethod
	}
	if method == "" {
		method = f.defaultOutputMethod
	}

	duration := float64(len(samples)) / float64(f.session.SampleRate())
	f.orchestrator.Start(samples, f.session.WindowSnapshot(), method)
	return ipc.Response{Status: ipc.StatusTranscribing, Duration: ipc.Duration(duration)}
}

// handleCancel discards an in-flight recording without handing it to the
// orchestrator: unlike stop, cancel never produces a transcript.
func (f *Facade) handleCancel() ipc.Response {
	if f.session.State() != fsm.StateRecording {
		return ipc.Response{Status: ipc.StatusError, Message: "not recording"}
	}

	if _, err := f.session.StopRecording(); err != nil {
		return ipc.Response{Status: ipc.StatusError, Message: err.Error()}
	}
	f.session.SetIdle()
	f.pendingOutputMethod = ""

	return ipc.Response{Status: ipc.StatusOK, State: "idle", Message: "cancelled"}
}

func (f *Facade) handleToggle(req ipc.Request) ipc.Response {
	if f.session.State() == fsm.StateRecording {
		return f.handleStop(req)
	}
	return f.handleStart(req)
}

func (f *Facade) handleStatus() ipc.Response {
	resp := ipc.Response{Status: ipc.StatusOK, State: string(f.session.State())}
	if f.session.State() == fsm.StateRecording {
		resp.Duration = ipc.Duration(f.session.RecordingDuration())
	}
	return resp
}

func (f *Facade) handleHistory(ctx context.Context, req ipc.Request) ipc.Response {
	limit := 10
	if req.Limit != nil && *req.Limit > 0 {
		limit = *req.Limit
	}

	records, err := f.history.Recent(ctx, limit)
	if err != nil {
		return ipc.Response{Status: ipc.StatusError, Message: err.Error()}
	}

	entries := make([]ipc.HistoryEntry, 0, len(records))
	for _, r := range records {
		entries = append(entries, ipc.HistoryEntry{
			ID:             r.ID,
			Timestamp:      r.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
			Text:           r.Text,
			AudioDuration:  r.AudioDuration,
			ProcessingTime: r.ProcessingTime,
			AppContext:     r.AppContext,
		})
	}
	return ipc.Response{Status: ipc.StatusOK, Entries: entries}
}

// enrichWindow consults the agent detector when the snapshot carries a
// PID, setting Agent, WorkingDir, and a human-readable Context string.
func (f *Facade) enrichWindow(snapshot model.WindowSnapshot) model.WindowSnapshot {
	app := snapshot.App()

	if snapshot.PID > 0 && f.detector != nil {
		result := f.detector.Detect(snapshot.PID)
		if result.Found() {
			snapshot.Agent = result.Agent
			snapshot.WorkingDir = result.WorkingDir
			snapshot.Context = result.Agent + " code on " + app
			return snapshot
		}
	}

	snapshot.Context = app
	return snapshot
}

// OutputSelector adapts an output.Factory into orchestrator.OutputSelector: it
// computes the is_terminal classification here so output adapters stay
// stateless with respect to window context.
type OutputSelector struct {
	factory      *output.Factory
	terminalApps []string
}

// NewOutputSelector constructs an OutputSelector backed by factory,
// classifying terminalApps (lower-cased substrings) as terminal emulators.
func NewOutputSelector(factory *output.Factory, terminalApps []string) *OutputSelector {
	return &OutputSelector{factory: factory, terminalApps: terminalApps}
}

// Select implements orchestrator.OutputSelector.
func (s *OutputSelector) Select(methodTag string, snapshot model.WindowSnapshot) orchestrator.OutputAdapter {
	return s.factory.Make(methodTag, IsTerminalApp(snapshot.App(), s.terminalApps))
}

// IsTerminalApp reports whether app matches (by case-insensitive substring)
// any of the configured terminal application identifiers.
func IsTerminalApp(app string, terminalApps []string) bool {
	lowered := strings.ToLower(app)
	for _, candidate := range terminalApps {
		if candidate == "" {
			continue
		}
		if strings.Contains(lowered, strings.ToLower(candidate)) {
			return true
		}
	}
	return false
}
