package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"google.golang.org/genai"

	"codeberg.org/snonux/parrot/internal/models"
	"codeberg.org/snonux/parrot/internal/testutil"
)

func newTestGemini(t *testing.T, fake *testutil.FakeGemini) *Gemini {
	t.Helper()
	cfg := DefaultConfig()
	cfg.APIKey = "test-key"
	cfg.BaseURL = fake.URL
	cfg.BreakerFailures = 2
	cfg.BreakerTimeout = time.Minute
	g, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return g
}

func sentencesJSON(t *testing.T, sentences []models.SentenceContext) string {
	t.Helper()
	data, err := json.Marshal(sentences)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return string(data)
}

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := New(context.Background(), DefaultConfig()); err == nil {
		t.Fatal("expected error without API key")
	}
}

func TestGenerateContexts(t *testing.T) {
	fake := testutil.NewFakeGemini(t)
	want := testutil.SampleSentences()
	fake.RespondText("gemini-2.5-flash", sentencesJSON(t, want))

	got, err := newTestGemini(t, fake).GenerateContexts(context.Background(), "serendipity")
	if err != nil {
		t.Fatalf("GenerateContexts: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("got %d sentences, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("sentence %d = %+v, want %+v", i, got[i], want[i])
		}
	}

	reqs := fake.Requests()
	if len(reqs) != 1 || reqs[0].Method != "generateContent" {
		t.Fatalf("unexpected requests: %+v", reqs)
	}
	body, _ := json.Marshal(reqs[0].Body)
	if !strings.Contains(string(body), `\"serendipity\"`) {
		t.Errorf("prompt should embed the query verbatim: %s", body)
	}
	if !strings.Contains(string(body), "application/json") {
		t.Errorf("request should ask for JSON output: %s", body)
	}
}

func TestGenerateContextsRepairsIDs(t *testing.T) {
	fake := testutil.NewFakeGemini(t)
	sentences := testutil.SampleSentences()
	sentences[0].ID = ""
	sentences[2].ID = sentences[1].ID
	fake.RespondText("gemini-2.5-flash", sentencesJSON(t, sentences))

	got, err := newTestGemini(t, fake).GenerateContexts(context.Background(), "serendipity")
	if err != nil {
		t.Fatalf("GenerateContexts: %v", err)
	}

	seen := map[string]bool{}
	for _, s := range got {
		if s.ID == "" || seen[s.ID] {
			t.Errorf("IDs not unique and non-empty: %+v", got)
		}
		seen[s.ID] = true
	}
	if got[1].ID != "business-1" {
		t.Errorf("first occurrence of an ID should be kept, got %q", got[1].ID)
	}
}

func TestGenerateContextsNoData(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*testutil.FakeGemini)
	}{
		{"empty text", func(f *testutil.FakeGemini) { f.RespondText("gemini-2.5-flash", "") }},
		{"no candidates", func(f *testutil.FakeGemini) { f.RespondEmpty("gemini-2.5-flash") }},
		{"empty array", func(f *testutil.FakeGemini) { f.RespondText("gemini-2.5-flash", "[]") }},
		{"only incomplete sentences", func(f *testutil.FakeGemini) {
			f.RespondText("gemini-2.5-flash", `[{"id":"1","english":"Hi"}]`)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := testutil.NewFakeGemini(t)
			tt.setup(fake)

			_, err := newTestGemini(t, fake).GenerateContexts(context.Background(), "serendipity")
			if !errors.Is(err, ErrNoData) {
				t.Errorf("error = %v, want ErrNoData", err)
			}
		})
	}
}

func TestGenerateContextsAPIError(t *testing.T) {
	fake := testutil.NewFakeGemini(t)
	fake.RespondError("gemini-2.5-flash", http.StatusBadRequest, "API key not valid. Please pass a valid API key.")

	_, err := newTestGemini(t, fake).GenerateContexts(context.Background(), "serendipity")

	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want genai.APIError", err)
	}
	if apiErr.Message != "API key not valid. Please pass a valid API key." {
		t.Errorf("message = %q", apiErr.Message)
	}
}

func TestSynthesize(t *testing.T) {
	fake := testutil.NewFakeGemini(t)
	pcm := testutil.SamplePCM(16)
	fake.RespondAudio("gemini-2.5-flash-preview-tts", pcm)

	g := newTestGemini(t, fake)
	got, err := g.Synthesize(context.Background(), "Finding this cafe was pure serendipity.", "")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if string(got) != string(pcm) {
		t.Errorf("audio mismatch: got %d bytes, want %d", len(got), len(pcm))
	}

	body, _ := json.Marshal(fake.Requests()[0].Body)
	if !strings.Contains(string(body), `"Kore"`) {
		t.Errorf("default voice Kore not requested: %s", body)
	}
	if !strings.Contains(string(body), "AUDIO") {
		t.Errorf("audio modality not requested: %s", body)
	}
	if g.Name() != "gemini" {
		t.Errorf("Name() = %q", g.Name())
	}
}

func TestSynthesizeNoAudio(t *testing.T) {
	fake := testutil.NewFakeGemini(t)
	fake.RespondText("gemini-2.5-flash-preview-tts", "I cannot speak")

	_, err := newTestGemini(t, fake).Synthesize(context.Background(), "Hello", "Puck")
	if !errors.Is(err, ErrNoData) {
		t.Errorf("error = %v, want ErrNoData", err)
	}
}

func TestAnalyzePronunciation(t *testing.T) {
	fake := testutil.NewFakeGemini(t)
	fake.RespondText("gemini-2.5-flash", `{"score":140,"accuracy":"Excellent","phonemeIssues":[],"advice":"很好","highlightedWordIndices":[2]}`)

	got, err := newTestGemini(t, fake).AnalyzePronunciation(context.Background(), []byte("RIFF"), "I love serendipity", "audio/wav")
	if err != nil {
		t.Fatalf("AnalyzePronunciation: %v", err)
	}
	if got.Score != 100 {
		t.Errorf("score = %d, want clamped 100", got.Score)
	}
	if !got.IsHighlighted(2) {
		t.Errorf("word 2 should be highlighted: %+v", got)
	}

	body, _ := json.Marshal(fake.Requests()[0].Body)
	for _, want := range []string{"inlineData", "audio/wav", "I love serendipity", "highlightedWordIndices"} {
		if !strings.Contains(string(body), want) {
			t.Errorf("request missing %q: %s", want, body)
		}
	}
}

func TestAnalyzePronunciationMalformed(t *testing.T) {
	fake := testutil.NewFakeGemini(t)
	fake.RespondText("gemini-2.5-flash", "{not json")

	_, err := newTestGemini(t, fake).AnalyzePronunciation(context.Background(), []byte("RIFF"), "Hello", "audio/webm")
	if err == nil || errors.Is(err, ErrNoData) {
		t.Errorf("error = %v, want parse error", err)
	}
}

func TestBreakerOpensOnServerErrors(t *testing.T) {
	fake := testutil.NewFakeGemini(t)
	fake.RespondError("gemini-2.5-flash", http.StatusInternalServerError, "internal")
	g := newTestGemini(t, fake)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := g.GenerateContexts(ctx, "word"); err == nil {
			t.Fatal("expected error")
		}
	}
	if g.BreakerState() != gobreaker.StateOpen {
		t.Fatalf("breaker state = %v, want open", g.BreakerState())
	}
	if err := g.Check(ctx); err == nil {
		t.Error("Check should fail while the breaker is open")
	}

	before := fake.Calls("gemini-2.5-flash")
	_, err := g.GenerateContexts(ctx, "word")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("error = %v, want ErrUnavailable", err)
	}
	if fake.Calls("gemini-2.5-flash") != before {
		t.Error("open breaker must not reach Gemini")
	}
}

func TestBreakerIgnoresClientErrorsAndNoData(t *testing.T) {
	fake := testutil.NewFakeGemini(t)
	g := newTestGemini(t, fake)
	ctx := context.Background()

	fake.RespondError("gemini-2.5-flash", http.StatusBadRequest, "bad request")
	for i := 0; i < 3; i++ {
		_, _ = g.GenerateContexts(ctx, "word")
	}
	fake.RespondText("gemini-2.5-flash", "")
	for i := 0; i < 3; i++ {
		_, _ = g.GenerateContexts(ctx, "word")
	}

	if g.BreakerState() != gobreaker.StateClosed {
		t.Errorf("breaker state = %v, want closed", g.BreakerState())
	}
}

func TestIsSuccessful(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, true},
		{"no data", ErrNoData, true},
		{"canceled", context.Canceled, true},
		{"bad request", genai.APIError{Code: 400}, true},
		{"rate limited", genai.APIError{Code: 429}, false},
		{"server error", genai.APIError{Code: 503}, false},
		{"transport", errors.New("connection refused"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isSuccessful(tt.err); got != tt.want {
				t.Errorf("isSuccessful(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestGemini_Integration(t *testing.T) {
	apiKey := os.Getenv("GENAI_API_KEY")
	if apiKey == "" {
		t.Skip("Skipping integration test: GENAI_API_KEY not set")
	}

	cfg := DefaultConfig()
	cfg.APIKey = apiKey
	g, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	sentences, err := g.GenerateContexts(context.Background(), "serendipity")
	if err != nil {
		t.Fatalf("GenerateContexts: %v", err)
	}
	for _, s := range sentences {
		t.Logf("%s [%s/%s/%s] %s", s.English, s.ContextType, s.Difficulty, s.Tone, s.Chinese)
	}
}
