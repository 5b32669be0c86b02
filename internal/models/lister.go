package models

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"google.golang.org/genai"
)

// Lister handles listing available Gemini models
type Lister struct {
	apiKey  string
	baseURL string
}

// NewLister creates a new model lister
func NewLister(apiKey string) *Lister {
	return &Lister{apiKey: apiKey}
}

// WithBaseURL points the lister at a different Gemini endpoint (tests).
func (l *Lister) WithBaseURL(url string) *Lister {
	l.baseURL = url
	return l
}

// ModelGroups holds model names bucketed by what parrot uses them for
type ModelGroups struct {
	Text   []string
	Speech []string
	Video  []string
}

// Categorize sorts model names into text, speech and video groups. Names
// that fit none of them are dropped.
func Categorize(names []string) ModelGroups {
	var g ModelGroups
	for _, name := range names {
		id := strings.TrimPrefix(name, "models/")
		switch {
		case strings.Contains(id, "tts"):
			g.Speech = append(g.Speech, id)
		case strings.Contains(id, "veo"):
			g.Video = append(g.Video, id)
		case strings.Contains(id, "gemini"):
			g.Text = append(g.Text, id)
		}
	}
	sort.Strings(g.Text)
	sort.Strings(g.Speech)
	sort.Strings(g.Video)
	return g
}

// ListAvailableModels writes the Gemini models available to the key to w
func (l *Lister) ListAvailableModels(ctx context.Context, w io.Writer) error {
	if l.apiKey == "" {
		return fmt.Errorf("Gemini API key not found. Set GENAI_API_KEY environment variable or configure genai.api_key in .parrot.yaml")
	}

	cfg := &genai.ClientConfig{
		APIKey:  l.apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if l.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: l.baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create Gemini client: %w", err)
	}

	var names []string
	for m, err := range client.Models.All(ctx) {
		if err != nil {
			return fmt.Errorf("failed to list models: %w", err)
		}
		names = append(names, m.Name)
	}

	groups := Categorize(names)
	printGroup(w, "Text models (sentence generation, pronunciation analysis):", groups.Text)
	printGroup(w, "\nSpeech models (reference audio):", groups.Speech)
	printGroup(w, "\nVideo models:", groups.Video)
	return nil
}

func printGroup(w io.Writer, title string, names []string) {
	fmt.Fprintln(w, title)
	if len(names) == 0 {
		fmt.Fprintln(w, "  none found")
		return
	}
	for _, name := range names {
		fmt.Fprintf(w, "  %s\n", name)
	}
}
