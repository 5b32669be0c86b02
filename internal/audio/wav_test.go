package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"
)

const wavHeaderSize = 44

func TestEncodeWAVHeader(t *testing.T) {
	pcm := []byte{1, 2, 3, 4, 5, 6}
	data, err := EncodeWAV(pcm, 16000, 1)
	if err != nil {
		t.Fatalf("EncodeWAV() error: %v", err)
	}

	if len(data) != wavHeaderSize+len(pcm) {
		t.Fatalf("len = %d, want %d", len(data), wavHeaderSize+len(pcm))
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" || string(data[36:40]) != "data" {
		t.Errorf("bad chunk ids in header: %q", data[:44])
	}

	checks := []struct {
		name string
		got  uint32
		want uint32
	}{
		{"riff size", binary.LittleEndian.Uint32(data[4:8]), uint32(36 + len(pcm))},
		{"channels", uint32(binary.LittleEndian.Uint16(data[22:24])), 1},
		{"sample rate", binary.LittleEndian.Uint32(data[24:28]), 16000},
		{"byte rate", binary.LittleEndian.Uint32(data[28:32]), 32000},
		{"block align", uint32(binary.LittleEndian.Uint16(data[32:34])), 2},
		{"bits per sample", uint32(binary.LittleEndian.Uint16(data[34:36])), 16},
		{"data size", binary.LittleEndian.Uint32(data[40:44]), uint32(len(pcm))},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %d, want %d", c.name, c.got, c.want)
		}
	}

	if !bytes.Equal(data[wavHeaderSize:], pcm) {
		t.Error("payload does not match input PCM")
	}
}

func TestEncodeWAVDecodes(t *testing.T) {
	pcm := FloatToPCM16([]float32{0, 0.5, -0.5, 1})
	data, err := EncodeWAV(pcm, ReferenceSampleRate, 1)
	if err != nil {
		t.Fatal(err)
	}

	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		t.Fatal("decoder rejected the file")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("FullPCMBuffer() error: %v", err)
	}
	if buf.Format.SampleRate != ReferenceSampleRate || buf.Format.NumChannels != 1 {
		t.Errorf("format = %+v", buf.Format)
	}
	if len(buf.Data) != 4 {
		t.Fatalf("decoded %d samples, want 4", len(buf.Data))
	}
	for i, v := range buf.Data {
		want := int(int16(binary.LittleEndian.Uint16(pcm[2*i:])))
		if v != want {
			t.Errorf("sample %d = %d, want %d", i, v, want)
		}
	}
}

func TestEncodeWAVEmpty(t *testing.T) {
	data, err := EncodeWAV(nil, RecordingSampleRate, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != wavHeaderSize {
		t.Errorf("len = %d, want a bare header", len(data))
	}
}

func TestEncodeWAVRejectsOddLength(t *testing.T) {
	if _, err := EncodeWAV([]byte{1, 2, 3}, RecordingSampleRate, 1); !errors.Is(err, ErrOddLength) {
		t.Errorf("error = %v, want ErrOddLength", err)
	}
	if _, err := Assemble([][]byte{{1}}, RecordingSampleRate); !errors.Is(err, ErrOddLength) {
		t.Errorf("Assemble error = %v, want ErrOddLength", err)
	}
}

func TestWriteWAVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "serendipity", "1_Kore.wav")
	if err := WriteWAVFile(path, []byte{0, 0}, ReferenceSampleRate, 1); err != nil {
		t.Fatalf("WriteWAVFile() error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back failed: %v", err)
	}
	if len(data) != wavHeaderSize+2 {
		t.Errorf("file size = %d, want %d", len(data), wavHeaderSize+2)
	}
}

func TestWriteWAVFileOddLengthLeavesNoFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.wav")
	if err := WriteWAVFile(path, []byte{0}, ReferenceSampleRate, 1); err == nil {
		t.Fatal("expected error")
	}
	if _, err := os.Stat(path); err == nil {
		t.Error("partial file left behind")
	}
}

func TestSeekBuffer(t *testing.T) {
	var sb seekBuffer
	sb.Write([]byte("abcdef"))

	if _, err := sb.Seek(1, io.SeekStart); err != nil {
		t.Fatal(err)
	}
	sb.Write([]byte("XY"))
	if pos, _ := sb.Seek(0, io.SeekEnd); pos != 6 {
		t.Errorf("end = %d, want 6", pos)
	}
	sb.Write([]byte("g"))

	if got := string(sb.Bytes()); got != "aXYdefg" {
		t.Errorf("contents = %q", got)
	}
	if _, err := sb.Seek(-10, io.SeekCurrent); err == nil {
		t.Error("expected error for negative position")
	}
}
