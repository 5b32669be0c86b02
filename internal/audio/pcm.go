package audio

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"
)

const (
	// ReferenceSampleRate is the rate of synthesized reference speech
	ReferenceSampleRate = 24000

	// RecordingSampleRate is the rate the microphone is captured at
	RecordingSampleRate = 16000
)

// ErrOddLength is returned when PCM16 data ends in half a sample
var ErrOddLength = errors.New("pcm16 data has an odd number of bytes")

// Buffer holds decoded mono samples normalized to [-1.0, 1.0)
type Buffer struct {
	SampleRate int
	Channels   int
	Samples    []float32
}

// Frames returns the number of sample frames in the buffer
func (b *Buffer) Frames() int {
	if b.Channels <= 0 {
		return 0
	}
	return len(b.Samples) / b.Channels
}

// Duration returns the playback length of the buffer
func (b *Buffer) Duration() time.Duration {
	if b.SampleRate <= 0 {
		return 0
	}
	return time.Duration(b.Frames()) * time.Second / time.Duration(b.SampleRate)
}

// DecodePCM16 decodes base64 encoded signed 16-bit little endian mono PCM
// into a playable buffer at the given sample rate.
func DecodePCM16(b64 string, sampleRate int) (*Buffer, error) {
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 audio: %w", err)
	}
	return DecodePCM16Bytes(data, sampleRate)
}

// DecodePCM16Bytes is DecodePCM16 for data that is already raw bytes
func DecodePCM16Bytes(data []byte, sampleRate int) (*Buffer, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate: %d", sampleRate)
	}
	if len(data)%2 != 0 {
		return nil, ErrOddLength
	}

	samples := make([]float32, len(data)/2)
	for i := range samples {
		s := int16(binary.LittleEndian.Uint16(data[2*i:]))
		samples[i] = float32(s) / 32768.0
	}

	return &Buffer{
		SampleRate: sampleRate,
		Channels:   1,
		Samples:    samples,
	}, nil
}

// FloatToPCM16 converts float samples to signed 16-bit little endian bytes.
// Values outside [-1.0, 1.0] are clipped.
func FloatToPCM16(samples []float32) []byte {
	out := make([]byte, 2*len(samples))
	for i, s := range samples {
		v := math.Round(float64(s) * 32768.0)
		if v > math.MaxInt16 {
			v = math.MaxInt16
		} else if v < math.MinInt16 {
			v = math.MinInt16
		}
		binary.LittleEndian.PutUint16(out[2*i:], uint16(int16(v)))
	}
	return out
}
