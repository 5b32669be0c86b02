package models

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestDifficultyValid(t *testing.T) {
	tests := []struct {
		value Difficulty
		want  bool
	}{
		{Beginner, true},
		{Intermediate, true},
		{Advanced, true},
		{"Expert", false},
		{"beginner", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.value), func(t *testing.T) {
			if got := tt.value.Valid(); got != tt.want {
				t.Errorf("Difficulty(%q).Valid() = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestSentenceContextJSONNames(t *testing.T) {
	s := SentenceContext{
		ID:          "1",
		English:     "What a serendipity!",
		Chinese:     "真是意外之喜！",
		ContextType: "Daily Life",
		Difficulty:  Beginner,
		Tone:        "Cheerful",
	}

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	for _, key := range []string{`"id"`, `"english"`, `"chinese"`, `"contextType"`, `"difficulty"`, `"tone"`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("encoded sentence %s missing key %s", data, key)
		}
	}
}

func TestSentenceContextValidate(t *testing.T) {
	valid := SentenceContext{
		ID: "a", English: "Hello there", Chinese: "你好", ContextType: "Business",
		Difficulty: Advanced, Tone: "Serious",
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("Validate() on complete sentence returned %v", err)
	}

	broken := valid
	broken.Chinese = " "
	broken.Difficulty = "Hard"
	err := broken.Validate()
	if err == nil {
		t.Fatal("Expected error for missing fields")
	}
	if !strings.Contains(err.Error(), "chinese") || !strings.Contains(err.Error(), "difficulty") {
		t.Errorf("error %q should name chinese and difficulty", err)
	}
}

func TestWordsSplitsOnSingleSpaces(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"simple", "I love serendipity", []string{"I", "love", "serendipity"}},
		{"punctuation stays attached", "Hello, world.", []string{"Hello,", "world."}},
		{"double space yields empty word", "a  b", []string{"a", "", "b"}},
		{"empty", "", []string{""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Words(tt.text); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Words(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestIsHighlighted(t *testing.T) {
	f := &PronunciationFeedback{HighlightedWordIndices: []int{0, 2}}

	for i, want := range []bool{true, false, true, false} {
		if got := f.IsHighlighted(i); got != want {
			t.Errorf("IsHighlighted(%d) = %v, want %v", i, got, want)
		}
	}

	var nilFeedback *PronunciationFeedback
	if nilFeedback.IsHighlighted(0) {
		t.Error("nil feedback should flag nothing")
	}
}
