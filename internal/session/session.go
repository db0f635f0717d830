// Package session implements the recording session state machine: it owns
// the ring buffer, the audio producer handle, and the window snapshot
// captured at the start of each recording turn. It is driven exclusively
// from the dispatcher goroutine, so it carries no internal locking.
package session

import (
	"errors"
	"time"

	"github.com/speakanywhere/speakanywhere/internal/fsm"
	"github.com/speakanywhere/speakanywhere/internal/model"
	"github.com/speakanywhere/speakanywhere/internal/ring"
)

// ErrAlreadyActive is returned by StartRecording when the session is not Idle.
var ErrAlreadyActive = errors.New("session: already recording or transcribing")

// ErrNotRecording is returned by StopRecording when the session is not Recording.
var ErrNotRecording = errors.New("session: not recording")

// AudioProducer is the real-time capture collaborator. Start/Stop are
// called only from the dispatcher goroutine; the producer's own callback
// runs on a separate, real-time-priority thread and is not part of this
// interface.
type AudioProducer interface {
	Start() error
	Stop()
}

// Session is the single owner of the current recording turn: the FSM
// state, the ring buffer, the audio producer, and the snapshot captured at
// recording start.
type Session struct {
	ring       *ring.Ring
	producer   AudioProducer
	sampleRate int

	state     fsm.State
	startedAt time.Time
	snapshot  model.WindowSnapshot
}

// New constructs a Session bound to the given ring and audio producer.
func New(r *ring.Ring, producer AudioProducer, sampleRate int) *Session {
	return &Session{
		ring:       r,
		producer:   producer,
		sampleRate: sampleRate,
		state:      fsm.StateIdle,
	}
}

// StartRecording transitions Idle->Recording: resets the ring, starts the
// producer, captures the snapshot, and records the start time. If the
// producer fails to start the session remains Idle and the error is
// returned to the caller.
func (s *Session) StartRecording(snapshot model.WindowSnapshot) error {
	if s.state != fsm.StateIdle {
		return ErrAlreadyActive
	}

	s.ring.Reset()
	if err := s.producer.Start(); err != nil {
		return err
	}

	next, err := fsm.Transition(s.state, fsm.EventStart)
	if err != nil {
		return err
	}

	s.snapshot = snapshot
	s.startedAt = time.Now()
	s.state = next
	return nil
}

// StopRecording transitions Recording->Transcribing, stopping the producer
// and draining the ring regardless of sample count. Called outside
// Recording, it returns nil samples and ErrNotRecording without changing
// state.
func (s *Session) StopRecording() ([]int16, error) {
	if s.state != fsm.StateRecording {
		return nil, ErrNotRecording
	}

	s.producer.Stop()
	samples := s.ring.DrainSamples()

	next, err := fsm.Transition(s.state, fsm.EventStop)
	if err != nil {
		return samples, err
	}
	s.state = next
	return samples, nil
}

// SetTranscribing forces the Transcribing state. The daemon itself does
// not call it: StopRecording already performs Recording->Transcribing.
func (s *Session) SetTranscribing() {
	s.state = fsm.StateTranscribing
}

// SetIdle forces the Idle state, used by the orchestrator on completion
// and by shutdown handling.
func (s *Session) SetIdle() {
	s.state = fsm.StateIdle
}

// State returns the current session state.
func (s *Session) State() fsm.State { return s.state }

// RecordingDuration returns elapsed recording time in seconds, or 0 when
// not Recording.
func (s *Session) RecordingDuration() float64 {
	if s.state != fsm.StateRecording {
		return 0
	}
	return time.Since(s.startedAt).Seconds()
}

// WindowSnapshot returns the snapshot captured at the start of the current
// (or most recent) recording turn.
func (s *Session) WindowSnapshot() model.WindowSnapshot { return s.snapshot }

// SampleRate returns the fixed sample rate for this session's lifetime.
func (s *Session) SampleRate() int { return s.sampleRate }
