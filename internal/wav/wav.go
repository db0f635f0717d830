// Package wav packages raw PCM samples into an in-memory RIFF/WAVE
// container for upload to the transcription backend.
package wav

import "encoding/binary"

const (
	channels      = 1
	bitsPerSample = 16
	headerSize    = 44
)

// Encode produces a canonical 44-byte RIFF/WAVE header for mono 16-bit PCM
// followed by the little-endian sample bytes. Empty input yields a
// header-only file with a zero data size.
func Encode(samples []int16, sampleRate int) []byte {
	dataSize := len(samples) * 2
	out := make([]byte, headerSize+dataSize)

	byteRate := uint32(sampleRate * channels * bitsPerSample / 8)
	blockAlign := uint16(channels * bitsPerSample / 8)

	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], uint32(36+dataSize))
	copy(out[8:12], "WAVE")
	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], 16) // subchunk1 size
	binary.LittleEndian.PutUint16(out[20:22], 1)  // PCM format
	binary.LittleEndian.PutUint16(out[22:24], channels)
	binary.LittleEndian.PutUint32(out[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:32], byteRate)
	binary.LittleEndian.PutUint16(out[32:34], blockAlign)
	binary.LittleEndian.PutUint16(out[34:36], bitsPerSample)
	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], uint32(dataSize))

	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[headerSize+2*i:headerSize+2*i+2], uint16(s))
	}

	return out
}

// Decode parses a WAV byte slice produced by Encode back into its samples
// and sample rate. It is used by tests to assert the encode round trip and
// is intentionally minimal: it does not validate exotic WAV variants.
func Decode(data []byte) (samples []int16, sampleRate int, ok bool) {
	if len(data) < headerSize {
		return nil, 0, false
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" || string(data[36:40]) != "data" {
		return nil, 0, false
	}

	sampleRate = int(binary.LittleEndian.Uint32(data[24:28]))
	dataSize := int(binary.LittleEndian.Uint32(data[40:44]))
	if headerSize+dataSize > len(data) {
		return nil, 0, false
	}

	payload := data[headerSize : headerSize+dataSize]
	samples = make([]int16, len(payload)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(payload[2*i : 2*i+2]))
	}
	return samples, sampleRate, true
}
