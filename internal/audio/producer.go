package audio

import (
	"fmt"
	"io"
	"sync/atomic"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"
)

// RingTarget is the single-writer destination a Producer copies captured
// PCM bytes into; satisfied by *ring.Ring.
type RingTarget interface {
	Write(data []byte) int
}

// Producer is the session.AudioProducer implementation backed by a
// PulseAudio record stream. Its PCM callback runs on Pulse's own
// real-time-priority thread and is held to a strict budget: a single
// atomic load to check whether capture is active, and a single copy into
// the ring. No allocation, no locking, no channel send — every one of
// those would be a real-time hazard on that thread.
type Producer struct {
	device     Device
	sampleRate int
	target     RingTarget

	client *pulse.Client
	stream *pulse.RecordStream

	capturing atomic.Bool
}

// NewProducer constructs a Producer for the given device, writing captured
// frames into target at sampleRate (mono, 16-bit signed PCM).
func NewProducer(device Device, sampleRate int, target RingTarget) *Producer {
	return &Producer{device: device, sampleRate: sampleRate, target: target}
}

// Start connects to PulseAudio and begins streaming into the ring. It is
// synchronous: by the time it returns, PCM frames are already flowing.
func (p *Producer) Start() error {
	client, err := pulse.NewClient(
		pulse.ClientApplicationName("speak-anywhere"),
		pulse.ClientApplicationIconName("audio-input-microphone"),
	)
	if err != nil {
		return fmt.Errorf("connect pulse server: %w", err)
	}

	source, err := client.SourceByID(p.device.ID)
	if err != nil {
		client.Close()
		return fmt.Errorf("resolve source %q: %w", p.device.ID, err)
	}

	p.capturing.Store(true)

	writer := pulse.NewWriter(writerFunc(p.onPCM), pulseproto.FormatInt16LE)
	stream, err := client.NewRecord(
		writer,
		pulse.RecordSource(source),
		pulse.RecordMono,
		pulse.RecordSampleRate(p.sampleRate),
		pulse.RecordMediaName("speak-anywhere dictation"),
	)
	if err != nil {
		p.capturing.Store(false)
		client.Close()
		return fmt.Errorf("create pulse record stream: %w", err)
	}

	p.client = client
	p.stream = stream
	stream.Start()
	return nil
}

// Stop flips the capturing flag so the in-flight callback (if any) exits
// on its next invocation, then tears down the stream and client. Safe to
// call even if Start never ran or already failed.
func (p *Producer) Stop() {
	p.capturing.Store(false)

	if p.stream != nil {
		p.stream.Stop()
		p.stream.Close()
		p.stream = nil
	}
	if p.client != nil {
		p.client.Close()
		p.client = nil
	}
}

// onPCM is the hot path: it never allocates and never takes a lock. It is
// called on Pulse's own goroutine, not the dispatcher's.
func (p *Producer) onPCM(buffer []byte) (int, error) {
	if !p.capturing.Load() {
		return 0, io.EOF
	}
	p.target.Write(buffer)
	return len(buffer), nil
}
