package internal

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"unicode"
)

// Version is the parrot release reported by --version and /healthz
const Version = "0.3.0"

// ContentKey returns a short stable hash for a piece of text. It is used to
// name cached speech rows and exported audio files.
func ContentKey(parts ...string) string {
	hash := md5.Sum([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(hash[:])
}

// SanitizeFilename creates a safe filename from a string
func SanitizeFilename(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}
