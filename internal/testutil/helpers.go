package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"codeberg.org/snonux/parrot/internal/models"
)

// CreateTestFile creates a test file with content
func CreateTestFile(t *testing.T, path string, content []byte) {
	t.Helper()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("Failed to create directory for test file: %v", err)
	}

	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("Failed to create test file %s: %v", path, err)
	}
}

// AssertFileExists checks if a file exists
func AssertFileExists(t *testing.T, path string) {
	t.Helper()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("Expected file to exist: %s", path)
	}
}

// AssertFileNotExists checks if a file does not exist
func AssertFileNotExists(t *testing.T, path string) {
	t.Helper()

	if _, err := os.Stat(path); err == nil {
		t.Errorf("Expected file to not exist: %s", path)
	}
}

// AssertFileContains checks if a file contains a substring
func AssertFileContains(t *testing.T, path string, substring string) {
	t.Helper()

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}

	if !strings.Contains(string(content), substring) {
		t.Errorf("File %s does not contain expected substring: %q", path, substring)
	}
}

// SampleSentences returns three valid sentences for the word "serendipity",
// one per context type
func SampleSentences() []models.SentenceContext {
	return []models.SentenceContext{
		{
			ID:          "daily-1",
			English:     "Finding this cafe was pure serendipity.",
			Chinese:     "发现这家咖啡馆纯属意外之喜。",
			ContextType: "Daily Life",
			Difficulty:  models.Beginner,
			Tone:        "Cheerful",
		},
		{
			ID:          "business-1",
			English:     "Our partnership began through serendipity at a conference.",
			Chinese:     "我们的合作始于一次会议上的偶然相遇。",
			ContextType: "Business",
			Difficulty:  models.Intermediate,
			Tone:        "Serious",
		},
		{
			ID:          "academic-1",
			English:     "Many scientific discoveries owe much to serendipity.",
			Chinese:     "许多科学发现在很大程度上归功于机缘巧合。",
			ContextType: "Academic",
			Difficulty:  models.Advanced,
			Tone:        "Calm",
		},
	}
}

// SampleFeedback returns a feedback flagging the second word
func SampleFeedback() *models.PronunciationFeedback {
	return &models.PronunciationFeedback{
		Score:                  72,
		Accuracy:               "Good",
		PhonemeIssues:          []string{"th"},
		Advice:                 "注意 th 的发音，舌尖轻触上齿。",
		HighlightedWordIndices: []int{1},
	}
}

// SamplePCM returns n frames of 16-bit PCM with a recognizable ramp
func SamplePCM(n int) []byte {
	pcm := make([]byte, 2*n)
	for i := 0; i < n; i++ {
		v := int16(i * 64)
		pcm[2*i] = byte(v)
		pcm[2*i+1] = byte(v >> 8)
	}
	return pcm
}
