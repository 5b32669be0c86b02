package audio

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxSpeechTextLength bounds the text sent for synthesis in runes
const MaxSpeechTextLength = 4096

// ValidateText validates that text can be sent for speech synthesis
func ValidateText(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("text cannot be empty")
	}
	if n := utf8.RuneCountInString(text); n > MaxSpeechTextLength {
		return fmt.Errorf("text too long: %d characters (max %d)", n, MaxSpeechTextLength)
	}
	return nil
}
