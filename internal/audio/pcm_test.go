package audio

import (
	"encoding/base64"
	"errors"
	"testing"
	"time"
)

func TestDecodePCM16(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		want    []float32
		wantErr error
	}{
		{
			name: "zero and extremes",
			data: []byte{0x00, 0x00, 0xff, 0x7f, 0x00, 0x80},
			want: []float32{0, 32767.0 / 32768.0, -1},
		},
		{
			name: "half scale",
			data: []byte{0x00, 0x40, 0x00, 0xc0},
			want: []float32{0.5, -0.5},
		},
		{
			name: "empty",
			data: []byte{},
			want: []float32{},
		},
		{
			name:    "odd length",
			data:    []byte{0x00, 0x00, 0x01},
			wantErr: ErrOddLength,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf, err := DecodePCM16(base64.StdEncoding.EncodeToString(tt.data), ReferenceSampleRate)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("DecodePCM16() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodePCM16() unexpected error: %v", err)
			}
			if buf.SampleRate != ReferenceSampleRate || buf.Channels != 1 {
				t.Errorf("got rate %d channels %d, want %d and 1", buf.SampleRate, buf.Channels, ReferenceSampleRate)
			}
			if len(buf.Samples) != len(tt.want) {
				t.Fatalf("got %d samples, want %d", len(buf.Samples), len(tt.want))
			}
			for i := range tt.want {
				if buf.Samples[i] != tt.want[i] {
					t.Errorf("sample %d = %v, want %v", i, buf.Samples[i], tt.want[i])
				}
			}
		})
	}
}

func TestDecodePCM16Range(t *testing.T) {
	data := make([]byte, 0, 2*65536)
	for v := 0; v < 65536; v++ {
		data = append(data, byte(v), byte(v>>8))
	}

	buf, err := DecodePCM16Bytes(data, ReferenceSampleRate)
	if err != nil {
		t.Fatalf("DecodePCM16Bytes() unexpected error: %v", err)
	}
	for i, s := range buf.Samples {
		if s < -1.0 || s >= 1.0 {
			t.Fatalf("sample %d = %v is outside [-1, 1)", i, s)
		}
	}
}

func TestDecodePCM16Errors(t *testing.T) {
	if _, err := DecodePCM16("not base64!", ReferenceSampleRate); err == nil {
		t.Error("expected error for invalid base64")
	}
	if _, err := DecodePCM16("AAAA", 0); err == nil {
		t.Error("expected error for zero sample rate")
	}
}

func TestBufferDuration(t *testing.T) {
	buf := &Buffer{SampleRate: 24000, Channels: 1, Samples: make([]float32, 12000)}
	if got := buf.Duration(); got != 500*time.Millisecond {
		t.Errorf("Duration() = %v, want 500ms", got)
	}
	if got := buf.Frames(); got != 12000 {
		t.Errorf("Frames() = %d, want 12000", got)
	}

	empty := &Buffer{}
	if empty.Duration() != 0 || empty.Frames() != 0 {
		t.Error("zero buffer should have zero duration and frames")
	}
}

func TestFloatToPCM16RoundTrip(t *testing.T) {
	in := []float32{0, 0.5, -0.5, -1}
	buf, err := DecodePCM16Bytes(FloatToPCM16(in), RecordingSampleRate)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	for i := range in {
		if buf.Samples[i] != in[i] {
			t.Errorf("sample %d = %v, want %v", i, buf.Samples[i], in[i])
		}
	}
}

func TestFloatToPCM16Clips(t *testing.T) {
	out := FloatToPCM16([]float32{2, -2})
	want := []byte{0xff, 0x7f, 0x00, 0x80}
	for i := range want {
		if out[i] != want[i] {
			t.Fatalf("FloatToPCM16 clipped bytes = %v, want %v", out, want)
		}
	}
}
