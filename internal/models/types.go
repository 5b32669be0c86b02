package models

import (
	"fmt"
	"strings"
)

// Difficulty is the learner level a sentence targets
type Difficulty string

// Sentence difficulty levels
const (
	Beginner     Difficulty = "Beginner"
	Intermediate Difficulty = "Intermediate"
	Advanced     Difficulty = "Advanced"
)

// Difficulties lists every valid difficulty in schema order
var Difficulties = []Difficulty{Beginner, Intermediate, Advanced}

// Valid reports whether d is one of the schema enum values
func (d Difficulty) Valid() bool {
	for _, v := range Difficulties {
		if d == v {
			return true
		}
	}
	return false
}

// DifficultyNames returns the enum values as plain strings for schemas
func DifficultyNames() []string {
	names := make([]string, len(Difficulties))
	for i, d := range Difficulties {
		names[i] = string(d)
	}
	return names
}

// SentenceContext is one generated example sentence for the searched word
type SentenceContext struct {
	ID          string     `json:"id"`
	English     string     `json:"english"`
	Chinese     string     `json:"chinese"`
	ContextType string     `json:"contextType"` // e.g. "Daily Life", "Business", "Academic"
	Difficulty  Difficulty `json:"difficulty"`
	Tone        string     `json:"tone"` // e.g. "Cheerful", "Serious", "Calm"
}

// Validate checks that every required field is present
func (s SentenceContext) Validate() error {
	var missing []string
	if strings.TrimSpace(s.ID) == "" {
		missing = append(missing, "id")
	}
	if strings.TrimSpace(s.English) == "" {
		missing = append(missing, "english")
	}
	if strings.TrimSpace(s.Chinese) == "" {
		missing = append(missing, "chinese")
	}
	if strings.TrimSpace(s.ContextType) == "" {
		missing = append(missing, "contextType")
	}
	if !s.Difficulty.Valid() {
		missing = append(missing, "difficulty")
	}
	if strings.TrimSpace(s.Tone) == "" {
		missing = append(missing, "tone")
	}
	if len(missing) > 0 {
		return fmt.Errorf("sentence %q: missing or invalid fields: %s", s.ID, strings.Join(missing, ", "))
	}
	return nil
}

// PronunciationFeedback is the scored analysis of one recording
type PronunciationFeedback struct {
	Score                  int      `json:"score"`    // 0-100
	Accuracy               string   `json:"accuracy"` // "Excellent", "Good", "Needs Improvement"
	PhonemeIssues          []string `json:"phonemeIssues"`
	Advice                 string   `json:"advice"` // Simplified Chinese
	HighlightedWordIndices []int    `json:"highlightedWordIndices"`
}

// IsHighlighted reports whether the word at index i was flagged
func (f *PronunciationFeedback) IsHighlighted(i int) bool {
	if f == nil {
		return false
	}
	for _, idx := range f.HighlightedWordIndices {
		if idx == i {
			return true
		}
	}
	return false
}

// Words splits text on single spaces. The result defines the index space of
// HighlightedWordIndices, so it must stay a plain split without punctuation
// or whitespace normalization.
func Words(text string) []string {
	return strings.Split(text, " ")
}
