// Package orchestrator runs exactly one transcription worker at a time: it
// hands recorded samples to the Transcriber collaborator off the dispatcher
// goroutine, then joins the worker, delivers the result to the configured
// output adapter, inserts a history record on success, replies to every
// client that called "stop" or "toggle" while the worker was in flight, and
// returns the session to Idle.
package orchestrator

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/speakanywhere/speakanywhere/internal/ipc"
	"github.com/speakanywhere/speakanywhere/internal/model"
	"github.com/speakanywhere/speakanywhere/internal/session"
)

// Transcriber sends recorded samples to the speech-to-text backend.
type Transcriber interface {
	Transcribe(ctx context.Context, samples []int16, sampleRate int) (model.TranscriptResult, error)
}

// HistoryStore persists a completed transcription.
type HistoryStore interface {
	Insert(ctx context.Context, record model.HistoryRecord) error
}

// OutputAdapter delivers the final transcript text to the user.
type OutputAdapter interface {
	Deliver(ctx context.Context, text string) error
}

// OutputSelector picks the OutputAdapter for a completed turn. Implementations
// are expected to classify the window snapshot (e.g. terminal vs GUI app)
// before choosing the adapter.
type OutputSelector interface {
	Select(methodTag string, snapshot model.WindowSnapshot) OutputAdapter
}

// Waiter is a client connection queued on a deferred "stop" or "toggle"
// response, satisfied by *ipc.Conn.
type Waiter interface {
	WriteResponse(resp ipc.Response) error
}

// Wakeup is signalled once the worker publishes its result, so the
// dispatcher knows to call OnComplete.
type Wakeup interface {
	Signal()
}

// Orchestrator owns the single in-flight transcription worker and the
// bookkeeping needed to deliver its result once.
type Orchestrator struct {
	transcriber Transcriber
	history     HistoryStore
	outputs     OutputSelector
	session     *session.Session
	wakeup      Wakeup
	backendTag  string
	timeout     time.Duration
	logger      *slog.Logger

	running atomic.Bool
	wg      sync.WaitGroup

	// result is the single-writer slot: the worker goroutine writes it
	// exactly once before calling wakeup.Signal(); OnComplete only reads it
	// after Wait() returns, which happens-after the worker's write.
	result model.TranscriptResult

	pending pendingDelivery
}

type pendingDelivery struct {
	outputMethod string
	snapshot     model.WindowSnapshot
	waiters      []Waiter
}

// New constructs an Orchestrator. backendTag is recorded on every history
// entry (e.g. the configured transcription backend name); timeout bounds
// each call into the Transcriber.
func New(
	transcriber Transcriber,
	history HistoryStore,
	outputs OutputSelector,
	sess *session.Session,
	wakeup Wakeup,
	backendTag string,
	timeout time.Duration,
	logger *slog.Logger,
) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		transcriber: transcriber,
		history:     history,
		outputs:     outputs,
		session:     sess,
		wakeup:      wakeup,
		backendTag:  backendTag,
		timeout:     timeout,
		logger:      logger,
	}
}

// Running reports whether a worker is currently in flight.
func (o *Orchestrator) Running() bool { return o.running.Load() }

// Start spawns the single transcription worker for this turn. The caller
// (the dispatcher, via the Core facade) must already have transitioned the
// session out of Recording; Start returns false, spawning nothing, only if a
// worker is already in flight, which the caller should treat as a bug rather than a
// routine condition since the session FSM already prevents concurrent
// recordings.
func (o *Orchestrator) Start(samples []int16, snapshot model.WindowSnapshot, outputMethod string) bool {
	if !o.running.CompareAndSwap(false, true) {
		return false
	}

	o.pending = pendingDelivery{outputMethod: outputMethod, snapshot: snapshot}

	o.wg.Add(1)
	go o.run(samples)
	return true
}

func (o *Orchestrator) run(samples []int16) {
	defer o.wg.Done()

	ctx, cancel := context.WithTimeout(context.Background(), o.timeout)
	defer cancel()

	result, err := o.transcriber.Transcribe(ctx, samples, o.session.SampleRate())
	if err != nil {
		result = model.TranscriptResult{ErrorKind: "transcriber_failure", Message: err.Error()}
	}
	result.InputDurationSeconds = float64(len(samples)) / float64(o.session.SampleRate())

	o.result = result
	o.wakeup.Signal()
}

// AddWaiter queues a client connection to receive the eventual response
// instead of the immediate "transcribing" acknowledgement. It is a no-op
// once OnComplete has already fired for this turn.
func (o *Orchestrator) AddWaiter(w Waiter) {
	if !o.running.Load() {
		return
	}
	o.pending.waiters = append(o.pending.waiters, w)
}

// RemoveWaiter drops a connection from the waiting list, used when a
// waiting client disconnects before the worker completes. Delivery to a
// disconnected waiter is otherwise harmless (WriteResponse simply errors
// and is logged), so this is a best-effort cleanup, not a correctness
// requirement.
func (o *Orchestrator) RemoveWaiter(w Waiter) {
	kept := o.pending.waiters[:0]
	for _, existing := range o.pending.waiters {
		if existing != w {
			kept = append(kept, existing)
		}
	}
	o.pending.waiters = kept
}

// OnComplete joins the worker, builds the response frame, replies to every
// queued waiter, delivers the transcript via the selected output adapter,
// inserts a history record on success, and returns the session to Idle. It
// must be called from the dispatcher goroutine only after observing the
// wakeup token.
func (o *Orchestrator) OnComplete(ctx context.Context) {
	o.wg.Wait()
	result := o.result

	resp := responseFromResult(result)
	waiters := o.pending.waiters
	o.pending.waiters = nil

	for _, w := range waiters {
		if err := w.WriteResponse(resp); err != nil {
			o.logger.Debug("waiting client delivery failed", "error", err)
		}
	}

	if result.OK() {
		o.deliverAndRecord(ctx, result)
	} else {
		o.logger.Warn("transcription failed", "error_kind", result.ErrorKind, "message", result.Message)
	}

	o.session.SetIdle()
	o.running.Store(false)
}

func (o *Orchestrator) deliverAndRecord(ctx context.Context, result model.TranscriptResult) {
	if result.Text != "" {
		adapter := o.outputs.Select(o.pending.outputMethod, o.pending.snapshot)
		if err := adapter.Deliver(ctx, result.Text); err != nil {
			o.logger.Warn("output delivery failed", "error", err)
		}
	}

	snapshot := o.pending.snapshot
	record := model.HistoryRecord{
		Text:           result.Text,
		AudioDuration:  result.InputDurationSeconds,
		ProcessingTime: result.ProcessingDurationSeconds,
		AppContext:     snapshot.Context,
		AppID:          snapshot.AppID,
		WindowClass:    snapshot.WindowClass,
		WindowTitle:    snapshot.Title,
		Agent:          snapshot.Agent,
		WorkingDir:     snapshot.WorkingDir,
		Backend:        o.backendTag,
	}
	if err := o.history.Insert(ctx, record); err != nil {
		o.logger.Warn("history insert failed", "error", err)
	}
}

// Shutdown blocks until any in-flight worker finishes and runs OnComplete
// for it, so a graceful shutdown never drops a transcription result on the
// floor. It is a no-op if no worker is running.
func (o *Orchestrator) Shutdown(ctx context.Context) {
	if !o.running.Load() {
		return
	}
	o.OnComplete(ctx)
}

func responseFromResult(result model.TranscriptResult) ipc.Response {
	if !result.OK() {
		return ipc.Response{
			Status:  ipc.StatusError,
			Message: result.Message,
		}
	}
	return ipc.Response{
		Status:         ipc.StatusOK,
		Text:           result.Text,
		Duration:       ipc.Duration(result.InputDurationSeconds),
		ProcessingTime: ipc.Duration(result.ProcessingDurationSeconds),
	}
}
