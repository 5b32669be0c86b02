package practice

import (
	"reflect"
	"strings"
	"testing"

	"codeberg.org/snonux/parrot/internal/models"
	"codeberg.org/snonux/parrot/internal/testutil"
)

func TestHighlightWords(t *testing.T) {
	tests := []struct {
		name     string
		english  string
		feedback *models.PronunciationFeedback
		want     []Word
	}{
		{
			name:    "no feedback",
			english: "I love it",
			want:    []Word{{Text: "I"}, {Text: "love"}, {Text: "it"}},
		},
		{
			name:     "flag by index",
			english:  "I love it",
			feedback: &models.PronunciationFeedback{HighlightedWordIndices: []int{1}},
			want:     []Word{{Text: "I"}, {Text: "love", Flagged: true}, {Text: "it"}},
		},
		{
			name:     "out of range ignored",
			english:  "Hello world",
			feedback: &models.PronunciationFeedback{HighlightedWordIndices: []int{-1, 2, 7}},
			want:     []Word{{Text: "Hello"}, {Text: "world"}},
		},
		{
			name:     "punctuation stays attached",
			english:  "Well, done.",
			feedback: &models.PronunciationFeedback{HighlightedWordIndices: []int{0}},
			want:     []Word{{Text: "Well,", Flagged: true}, {Text: "done."}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HighlightWords(tt.english, tt.feedback); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("HighlightWords() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRenderShowsSentenceAndFeedback(t *testing.T) {
	s := testutil.SampleSentences()[0]
	card := NewCard(s, 0, &fakeGateway{feedback: testutil.SampleFeedback()}, &fakePlayer{}, &fakeMic{})

	out := card.Render()
	for _, want := range []string{"#1", s.Chinese, s.ContextType} {
		if !strings.Contains(out, want) {
			t.Errorf("Render() missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Score") {
		t.Error("no score before an attempt")
	}

	_ = card.StartRecording(t.Context())
	_ = card.StopRecording(t.Context())
	if out := card.Render(); !strings.Contains(out, "Score 72/100") {
		t.Errorf("Render() missing score:\n%s", out)
	}
}
