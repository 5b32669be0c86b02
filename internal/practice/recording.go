package practice

import (
	"sync"

	"codeberg.org/snonux/parrot/internal/audio"
)

// Recording accumulates microphone chunks for one practice attempt
type Recording struct {
	mu         sync.Mutex
	sampleRate int
	chunks     [][]byte
}

// NewRecording starts an empty recording at sampleRate
func NewRecording(sampleRate int) *Recording {
	return &Recording{sampleRate: sampleRate}
}

// Add appends a PCM16 chunk. It is safe to call from the capture callback.
func (r *Recording) Add(chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	c := make([]byte, len(chunk))
	copy(c, chunk)

	r.mu.Lock()
	r.chunks = append(r.chunks, c)
	r.mu.Unlock()
}

// Len returns the number of bytes recorded so far
func (r *Recording) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.chunks {
		n += len(c)
	}
	return n
}

// Blob concatenates the chunks into one WAV blob
func (r *Recording) Blob() (audio.Blob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return audio.Assemble(r.chunks, r.sampleRate)
}
