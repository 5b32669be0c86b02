package gateway

import "strings"

// Voice names understood by the speech endpoint
const (
	VoiceFenrir = "Fenrir"
	VoiceZephyr = "Zephyr"
	VoiceKore   = "Kore"
	VoicePuck   = "Puck"
)

// VoiceForTone picks the reference voice for a sentence. The first matching
// rule wins; matching is case-insensitive on substrings.
func VoiceForTone(tone, contextType string) string {
	t := strings.ToLower(tone)
	c := strings.ToLower(contextType)

	switch {
	case strings.Contains(t, "serious") || strings.Contains(c, "business"):
		return VoiceFenrir
	case strings.Contains(t, "calm") || strings.Contains(c, "academic"):
		return VoiceZephyr
	case strings.Contains(t, "excited") || strings.Contains(t, "cheerful"):
		return VoiceKore
	default:
		return VoicePuck
	}
}
