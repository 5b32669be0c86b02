package practice

import "codeberg.org/snonux/parrot/internal/models"

// Word is one space separated token of a sentence
type Word struct {
	Text    string
	Flagged bool
}

// HighlightWords splits english on single spaces and flags the words whose
// index appears in feedback. Indices outside the sentence are ignored. With
// nil feedback nothing is flagged.
func HighlightWords(english string, feedback *models.PronunciationFeedback) []Word {
	tokens := models.Words(english)
	words := make([]Word, len(tokens))
	for i, t := range tokens {
		words[i] = Word{Text: t}
	}
	if feedback == nil {
		return words
	}
	for _, idx := range feedback.HighlightedWordIndices {
		if idx >= 0 && idx < len(words) {
			words[idx].Flagged = true
		}
	}
	return words
}

// Highlight applies the card's current feedback to its sentence
func (c *Card) Highlight() []Word {
	return HighlightWords(c.sentence.English, c.Feedback())
}
