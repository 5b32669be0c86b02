package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAVMIMEType is the media type of EncodeWAV output
const WAVMIMEType = "audio/wav"

const bitsPerSample = 16

// writeWAV encodes little endian PCM16 into w with a RIFF/WAVE header
func writeWAV(w io.WriteSeeker, pcm []byte, sampleRate, channels int) error {
	if len(pcm)%2 != 0 {
		return ErrOddLength
	}
	if channels <= 0 {
		channels = 1
	}

	enc := wav.NewEncoder(w, sampleRate, bitsPerSample, channels, 1)
	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: channels,
			SampleRate:  sampleRate,
		},
		Data:           make([]int, len(pcm)/2),
		SourceBitDepth: bitsPerSample,
	}
	for i := range buf.Data {
		buf.Data[i] = int(int16(binary.LittleEndian.Uint16(pcm[2*i:])))
	}
	if err := enc.Write(buf); err != nil {
		enc.Close()
		return fmt.Errorf("failed to encode WAV: %w", err)
	}
	return enc.Close()
}

// EncodeWAV wraps PCM16 in an in-memory WAV container
func EncodeWAV(pcm []byte, sampleRate, channels int) ([]byte, error) {
	var sb seekBuffer
	if err := writeWAV(&sb, pcm, sampleRate, channels); err != nil {
		return nil, err
	}
	return sb.Bytes(), nil
}

// WriteWAVFile writes PCM16 data as a WAV file, creating parent directories
func WriteWAVFile(path string, pcm []byte, sampleRate, channels int) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create WAV file: %w", err)
	}
	if err := writeWAV(f, pcm, sampleRate, channels); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

// Assemble joins captured PCM16 chunks in order into a single WAV blob
func Assemble(chunks [][]byte, sampleRate int) (Blob, error) {
	data, err := EncodeWAV(bytes.Join(chunks, nil), sampleRate, 1)
	if err != nil {
		return Blob{}, fmt.Errorf("failed to assemble recording: %w", err)
	}
	return Blob{Data: data, MIMEType: WAVMIMEType}, nil
}

// seekBuffer is an in-memory io.WriteSeeker; the WAV encoder seeks back to
// patch the chunk sizes when it is closed.
type seekBuffer struct {
	buf []byte
	pos int
}

func (s *seekBuffer) Write(p []byte) (int, error) {
	if end := s.pos + len(p); end > len(s.buf) {
		s.buf = append(s.buf, make([]byte, end-len(s.buf))...)
	}
	n := copy(s.buf[s.pos:], p)
	s.pos += n
	return n, nil
}

func (s *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		base = int64(s.pos)
	case io.SeekEnd:
		base = int64(len(s.buf))
	default:
		return 0, errors.New("invalid whence")
	}
	pos := base + offset
	if pos < 0 {
		return 0, errors.New("negative position")
	}
	s.pos = int(pos)
	return pos, nil
}

func (s *seekBuffer) Bytes() []byte {
	return s.buf
}
