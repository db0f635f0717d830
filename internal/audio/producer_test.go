package audio

import (
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeRingTarget struct {
	written []byte
}

func (f *fakeRingTarget) Write(data []byte) int {
	f.written = append(f.written, data...)
	return len(data)
}

func TestProducerOnPCMCopiesIntoTargetWhileCapturing(t *testing.T) {
	target := &fakeRingTarget{}
	p := NewProducer(Device{ID: "mic-1"}, 16000, target)
	p.capturing.Store(true)

	n, err := p.onPCM([]byte{1, 2, 3, 4})
	require.NoError(t, err)
	require.Equal(t, 4, n)
	require.Equal(t, []byte{1, 2, 3, 4}, target.written)
}

func TestProducerOnPCMReturnsEOFOnceStopped(t *testing.T) {
	target := &fakeRingTarget{}
	p := NewProducer(Device{ID: "mic-1"}, 16000, target)
	p.capturing.Store(true)

	p.Stop()

	n, err := p.onPCM([]byte{1, 2, 3})
	require.Equal(t, 0, n)
	require.ErrorIs(t, err, io.EOF)
	require.Empty(t, target.written)
}

func TestProducerStopIsSafeBeforeStart(t *testing.T) {
	p := NewProducer(Device{ID: "mic-1"}, 16000, &fakeRingTarget{})
	require.NotPanics(t, func() { p.Stop() })
}
