package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/speakanywhere/speakanywhere/internal/ipc"
	"github.com/speakanywhere/speakanywhere/internal/model"
	"github.com/speakanywhere/speakanywhere/internal/ring"
	"github.com/speakanywhere/speakanywhere/internal/session"
)

type fakeProducer struct{}

func (fakeProducer) Start() error { return nil }
func (fakeProducer) Stop()        {}

type fakeTranscriber struct {
	result model.TranscriptResult
	err    error
	delay  time.Duration
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, samples []int16, sampleRate int) (model.TranscriptResult, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return model.TranscriptResult{}, ctx.Err()
		}
	}
	if f.err != nil {
		return model.TranscriptResult{}, f.err
	}
	return f.result, nil
}

type fakeHistory struct {
	mu      sync.Mutex
	inserts []model.HistoryRecord
}

func (h *fakeHistory) Insert(ctx context.Context, record model.HistoryRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.inserts = append(h.inserts, record)
	return nil
}

type fakeAdapter struct {
	mu        sync.Mutex
	delivered []string
}

func (a *fakeAdapter) Deliver(ctx context.Context, text string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.delivered = append(a.delivered, text)
	return nil
}

type fakeSelector struct{ adapter *fakeAdapter }

func (s *fakeSelector) Select(methodTag string, snapshot model.WindowSnapshot) OutputAdapter {
	return s.adapter
}

type fakeWakeup struct {
	mu      sync.Mutex
	signals int
	ch      chan struct{}
}

func newFakeWakeup() *fakeWakeup { return &fakeWakeup{ch: make(chan struct{}, 1)} }

func (w *fakeWakeup) Signal() {
	w.mu.Lock()
	w.signals++
	w.mu.Unlock()
	select {
	case w.ch <- struct{}{}:
	default:
	}
}

type fakeWaiter struct {
	mu   sync.Mutex
	resp ipc.Response
	got  bool
}

func (w *fakeWaiter) WriteResponse(resp ipc.Response) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.resp = resp
	w.got = true
	return nil
}

func newTestSession() *session.Session {
	return session.New(ring.New(4096), fakeProducer{}, 16000)
}

func TestStartRejectsWhileAlreadyRunning(t *testing.T) {
	transcriber := &fakeTranscriber{delay: 50 * time.Millisecond, result: model.TranscriptResult{Text: "hi"}}
	sess := newTestSession()
	o := New(transcriber, &fakeHistory{}, &fakeSelector{adapter: &fakeAdapter{}}, sess, newFakeWakeup(), "test-backend", time.Second, nil)

	require.True(t, o.Start([]int16{1, 2, 3, 4}, model.WindowSnapshot{}, "clipboard"))
	require.False(t, o.Start([]int16{1}, model.WindowSnapshot{}, "clipboard"))
	o.OnComplete(context.Background())
}

func TestOnCompleteDeliversOutputAndRecordsHistoryOnSuccess(t *testing.T) {
	transcriber := &fakeTranscriber{result: model.TranscriptResult{Text: "hello world", ProcessingDurationSeconds: 0.5}}
	history := &fakeHistory{}
	adapter := &fakeAdapter{}
	sess := newTestSession()
	w := newFakeWakeup()
	o := New(transcriber, history, &fakeSelector{adapter: adapter}, sess, w, "whisper", time.Second, nil)

	require.True(t, o.Start([]int16{1, 2, 3, 4}, model.WindowSnapshot{AppID: "kitty"}, "type"))
	<-w.ch
	o.OnComplete(context.Background())

	require.Equal(t, []string{"hello world"}, adapter.delivered)
	require.Len(t, history.inserts, 1)
	require.Equal(t, "hello world", history.inserts[0].Text)
	require.Equal(t, "whisper", history.inserts[0].Backend)
	require.False(t, o.Running())
}

func TestOnCompleteSkipsOutputAndHistoryOnFailure(t *testing.T) {
	transcriber := &fakeTranscriber{err: errors.New("backend unreachable")}
	history := &fakeHistory{}
	adapter := &fakeAdapter{}
	sess := newTestSession()
	w := newFakeWakeup()
	o := New(transcriber, history, &fakeSelector{adapter: adapter}, sess, w, "whisper", time.Second, nil)

	require.True(t, o.Start([]int16{1, 2}, model.WindowSnapshot{}, "clipboard"))
	<-w.ch
	o.OnComplete(context.Background())

	require.Empty(t, adapter.delivered)
	require.Empty(t, history.inserts)
}

func TestWaitersAreNotifiedInQueueOrder(t *testing.T) {
	transcriber := &fakeTranscriber{delay: 20 * time.Millisecond, result: model.TranscriptResult{Text: "done"}}
	sess := newTestSession()
	w := newFakeWakeup()
	o := New(transcriber, &fakeHistory{}, &fakeSelector{adapter: &fakeAdapter{}}, sess, w, "test", time.Second, nil)

	require.True(t, o.Start([]int16{1, 2}, model.WindowSnapshot{}, "clipboard"))

	first := &fakeWaiter{}
	second := &fakeWaiter{}
	o.AddWaiter(first)
	o.AddWaiter(second)

	<-w.ch
	o.OnComplete(context.Background())

	require.True(t, first.got)
	require.True(t, second.got)
	require.Equal(t, ipc.StatusOK, first.resp.Status)
	require.Equal(t, "done", first.resp.Text)
}

func TestRemoveWaiterDropsDisconnectedClient(t *testing.T) {
	transcriber := &fakeTranscriber{result: model.TranscriptResult{Text: "done"}}
	sess := newTestSession()
	w := newFakeWakeup()
	o := New(transcriber, &fakeHistory{}, &fakeSelector{adapter: &fakeAdapter{}}, sess, w, "test", time.Second, nil)

	require.True(t, o.Start([]int16{1, 2}, model.WindowSnapshot{}, "clipboard"))

	gone := &fakeWaiter{}
	stays := &fakeWaiter{}
	o.AddWaiter(gone)
	o.AddWaiter(stays)
	o.RemoveWaiter(gone)

	<-w.ch
	o.OnComplete(context.Background())

	require.False(t, gone.got)
	require.True(t, stays.got)
}

func TestShutdownJoinsInFlightWorker(t *testing.T) {
	transcriber := &fakeTranscriber{delay: 30 * time.Millisecond, result: model.TranscriptResult{Text: "flushed"}}
	history := &fakeHistory{}
	sess := newTestSession()
	o := New(transcriber, history, &fakeSelector{adapter: &fakeAdapter{}}, sess, newFakeWakeup(), "test", time.Second, nil)

	require.True(t, o.Start([]int16{1, 2}, model.WindowSnapshot{}, "clipboard"))
	o.Shutdown(context.Background())

	require.False(t, o.Running())
	require.Len(t, history.inserts, 1)
}

func TestShutdownIsNoopWhenIdle(t *testing.T) {
	sess := newTestSession()
	o := New(&fakeTranscriber{}, &fakeHistory{}, &fakeSelector{adapter: &fakeAdapter{}}, sess, newFakeWakeup(), "test", time.Second, nil)
	o.Shutdown(context.Background())
	require.False(t, o.Running())
}
