// Package device plays and records audio on the default PortAudio devices.
// It is only linked into the terminal client.
package device

import (
	"context"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"

	"codeberg.org/snonux/parrot/internal/audio"
)

const framesPerBuffer = 1024

// Speaker plays decoded buffers on the default output device
type Speaker struct {
	mu sync.Mutex
}

// NewSpeaker creates a speaker for the default output device
func NewSpeaker() *Speaker {
	return &Speaker{}
}

// Play blocks until buf has been played or ctx is cancelled
func (s *Speaker) Play(ctx context.Context, buf *audio.Buffer) error {
	if buf == nil || len(buf.Samples) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize PortAudio: %w", err)
	}
	defer portaudio.Terminate()

	channels := buf.Channels
	if channels <= 0 {
		channels = 1
	}
	out := make([]float32, framesPerBuffer*channels)
	stream, err := portaudio.OpenDefaultStream(0, channels, float64(buf.SampleRate), framesPerBuffer, &out)
	if err != nil {
		return fmt.Errorf("failed to open output stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("failed to start output stream: %w", err)
	}
	defer stream.Stop()

	for pos := 0; pos < len(buf.Samples); pos += len(out) {
		if err := ctx.Err(); err != nil {
			return err
		}
		n := copy(out, buf.Samples[pos:])
		clear(out[n:])
		if err := stream.Write(); err != nil {
			return fmt.Errorf("failed to write audio: %w", err)
		}
	}
	return nil
}

// Microphone captures mono audio from the default input device
type Microphone struct {
	SampleRate int
}

// NewMicrophone creates a microphone capturing at audio.RecordingSampleRate
func NewMicrophone() *Microphone {
	return &Microphone{SampleRate: audio.RecordingSampleRate}
}

// Start opens the default input device and calls onChunk with PCM16 data
// for every captured buffer until the returned Capture is stopped. onChunk
// runs on the audio thread and must not block.
func (m *Microphone) Start(onChunk func([]byte)) (audio.Capture, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize PortAudio: %w", err)
	}

	stream, err := portaudio.OpenDefaultStream(1, 0, float64(m.SampleRate), framesPerBuffer, func(in []float32) {
		onChunk(audio.FloatToPCM16(in))
	})
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to open input stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("failed to start input stream: %w", err)
	}

	return &streamCapture{stream: stream}, nil
}

type streamCapture struct {
	once   sync.Once
	stream *portaudio.Stream
	err    error
}

func (c *streamCapture) Stop() error {
	c.once.Do(func() {
		if err := c.stream.Stop(); err != nil {
			c.err = fmt.Errorf("failed to stop input stream: %w", err)
		}
		if err := c.stream.Close(); err != nil && c.err == nil {
			c.err = fmt.Errorf("failed to close input stream: %w", err)
		}
		portaudio.Terminate()
	})
	return c.err
}
