package audio

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
)

// Blob is an encoded audio payload with its media type
type Blob struct {
	Data     []byte
	MIMEType string
}

// EncodeToBase64 reads r to the end and returns its contents as standard
// base64 without a data URI prefix. Empty input yields "".
func EncodeToBase64(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read audio data: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// Base64 returns the blob contents as standard base64
func (b Blob) Base64() (string, error) {
	return EncodeToBase64(bytes.NewReader(b.Data))
}
