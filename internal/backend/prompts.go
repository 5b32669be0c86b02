package backend

import (
	"fmt"

	"google.golang.org/genai"

	"codeberg.org/snonux/parrot/internal/models"
)

// User text is embedded verbatim. Prompt injection is not mitigated.

func contextsPrompt(query string) string {
	return fmt.Sprintf(`
You are an expert English pronunciation coach for Chinese speakers.
The user wants to practice the word or phrase: "%s".

Generate 3 distinct sentences containing this word/phrase in different contexts:
1. Daily Life / Casual (Casual tone)
2. Business / Professional (Serious/Confident tone)
3. Academic / Formal (Calm/informative tone)

For each sentence, provide a natural Chinese translation and specify the tone (e.g., Cheerful, Serious, Calm).
`, query)
}

func pronunciationPrompt(targetText string) string {
	return fmt.Sprintf(`
Analyze the pronunciation of the audio.
Target text: "%s".
Target Audience: Chinese English learner.

Provide feedback in JSON format:
- score: 0 to 100 integer.
- accuracy: "Excellent", "Good", or "Needs Improvement".
- phonemeIssues: list of specific sounds that were unclear (e.g. "th", "r", "v").
- advice: Brief, helpful advice in CHINESE (Simplified) on how to improve.
- highlightedWordIndices: array of indices (0-based) of words in the target text that were mispronounced.
`, targetText)
}

func videoPrompt(promptText string) string {
	return "Cinematic, realistic video of a person speaking. Context: " + promptText
}

// sentenceSchema constrains generate-contexts output to an array of
// complete SentenceContext objects
func sentenceSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"id":          {Type: genai.TypeString},
				"english":     {Type: genai.TypeString},
				"chinese":     {Type: genai.TypeString},
				"contextType": {Type: genai.TypeString},
				"difficulty":  {Type: genai.TypeString, Enum: models.DifficultyNames()},
				"tone":        {Type: genai.TypeString},
			},
			Required: []string{"id", "english", "chinese", "contextType", "difficulty", "tone"},
		},
	}
}

// feedbackSchema constrains analyze-pronunciation output
func feedbackSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"score":                  {Type: genai.TypeInteger},
			"accuracy":               {Type: genai.TypeString},
			"phonemeIssues":          {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
			"advice":                 {Type: genai.TypeString},
			"highlightedWordIndices": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeInteger}},
		},
		Required: []string{"score", "accuracy", "phonemeIssues", "advice", "highlightedWordIndices"},
	}
}
