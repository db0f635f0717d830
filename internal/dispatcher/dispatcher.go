// Package dispatcher runs the single-goroutine event loop that ties the
// command listener, the orchestrator's completion wakeup, and the
// focus-change source together. It is the idiomatic substitute for a
// readiness multiplexer: exactly one goroutine ever touches the session,
// the orchestrator, or the core facade, so none of them need locking.
package dispatcher

import (
	"context"
	"log/slog"

	"github.com/speakanywhere/speakanywhere/internal/core"
	"github.com/speakanywhere/speakanywhere/internal/ipc"
	"github.com/speakanywhere/speakanywhere/internal/model"
	"github.com/speakanywhere/speakanywhere/internal/orchestrator"
	"github.com/speakanywhere/speakanywhere/internal/wakeup"
)

// Orchestrator is the slice of the orchestrator the dispatcher drives
// directly; satisfied by *orchestrator.Orchestrator.
type Orchestrator interface {
	AddWaiter(w orchestrator.Waiter)
	RemoveWaiter(w orchestrator.Waiter)
	OnComplete(ctx context.Context)
	Shutdown(ctx context.Context)
}

// WindowSource is the focus-change notifier; satisfied by *window.Source.
type WindowSource interface {
	Events() <-chan model.WindowSnapshot
}

// Dispatcher owns the event loop. Every field it reads or writes is
// reached only from Run's goroutine.
type Dispatcher struct {
	server       *ipc.Server
	facade       *core.Facade
	orchestrator Orchestrator
	window       WindowSource
	wakeup       *wakeup.Token
	logger       *slog.Logger

	batchSize int
}

// New constructs a Dispatcher. wakeup must be the same token the
// orchestrator was constructed with, so the dispatcher observes every
// worker completion.
func New(
	server *ipc.Server,
	facade *core.Facade,
	orch Orchestrator,
	window WindowSource,
	wakeupToken *wakeup.Token,
	logger *slog.Logger,
) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		server:       server,
		facade:       facade,
		orchestrator: orch,
		window:       window,
		wakeup:       wakeupToken,
		logger:       logger,
		batchSize:    16,
	}
}

// Run drives the event loop until ctx is cancelled, then runs the
// shutdown sequence and returns. It blocks for the lifetime of the daemon.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			d.shutdown()
			return

		case conn, ok := <-d.server.Accepted:
			if !ok {
				// listener closed; keep servicing already-open connections
				// and wait for ctx.Done to drive shutdown.
				continue
			}
			_ = conn // the per-connection reader goroutine is already running

		case snapshot := <-d.window.Events():
			d.facade.SetFocused(snapshot)

		case <-d.wakeup.C():
			d.orchestrator.OnComplete(context.Background())

		case ev := <-d.server.Inbox:
			d.drainInbox(ev)
		}
	}
}

// drainInbox services ev and then, up to batchSize-1 more times, any
// further frames already queued on the shared inbox channel without
// blocking — this is the loop's only multi-event tick, bounded so a burst
// of client traffic cannot starve the other sources.
func (d *Dispatcher) drainInbox(ev ipc.Event) {
	d.handleEvent(ev)

	for i := 1; i < d.batchSize; i++ {
		select {
		case next := <-d.server.Inbox:
			d.handleEvent(next)
		default:
			return
		}
	}
}

func (d *Dispatcher) handleEvent(ev ipc.Event) {
	switch ev.Kind {
	case ipc.EventFrame:
		resp := d.facade.Handle(context.Background(), ev.Req)
		if resp.IsDeferred() {
			d.orchestrator.AddWaiter(ev.Conn)
			return
		}
		if err := ev.Conn.WriteResponse(resp); err != nil {
			d.logger.Debug("write response failed", "conn", ev.Conn.ID, "error", err)
		}

	case ipc.EventMalformed, ipc.EventClosed:
		d.orchestrator.RemoveWaiter(ev.Conn)
	}
}

// shutdown runs the exit-path sequencing: stop a still-Recording session's
// audio producer first, then join any in-flight worker so a
// completed-but-undelivered transcript is never dropped.
func (d *Dispatcher) shutdown() {
	d.facade.Shutdown()
	d.orchestrator.Shutdown(context.Background())
}
