package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/genai"

	"codeberg.org/snonux/parrot/internal/models"
	"codeberg.org/snonux/parrot/internal/observe"
)

var (
	// ErrNoData is returned when Gemini answered without a usable payload
	ErrNoData = errors.New("no data returned from Gemini")

	// ErrUnavailable is returned while the circuit breaker is open
	ErrUnavailable = errors.New("Gemini is temporarily unavailable")
)

// DefaultVoice is the prebuilt voice used when none is requested
const DefaultVoice = "Kore"

// Config holds the Gemini client settings
type Config struct {
	APIKey  string
	BaseURL string // empty means the public endpoint

	TextModel   string
	SpeechModel string
	VideoModel  string

	HTTPClient *http.Client
	Metrics    *observe.Metrics

	// Breaker tuning; zero values use the defaults below
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

// DefaultConfig returns the models parrot was built against
func DefaultConfig() Config {
	return Config{
		TextModel:       "gemini-2.5-flash",
		SpeechModel:     "gemini-2.5-flash-preview-tts",
		VideoModel:      "veo-3.1-fast-generate-preview",
		BreakerFailures: 5,
		BreakerTimeout:  30 * time.Second,
	}
}

// Gemini wraps a genai client with prompts, schemas and a circuit breaker
type Gemini struct {
	client  *genai.Client
	cfg     Config
	breaker *gobreaker.CircuitBreaker
	metrics *observe.Metrics
}

// New creates a Gemini backend. The API key is required.
func New(ctx context.Context, cfg Config) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	defaults := DefaultConfig()
	if cfg.TextModel == "" {
		cfg.TextModel = defaults.TextModel
	}
	if cfg.SpeechModel == "" {
		cfg.SpeechModel = defaults.SpeechModel
	}
	if cfg.VideoModel == "" {
		cfg.VideoModel = defaults.VideoModel
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = defaults.BreakerFailures
	}
	if cfg.BreakerTimeout == 0 {
		cfg.BreakerTimeout = defaults.BreakerTimeout
	}

	clientConfig := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: cfg.HTTPClient,
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	g := &Gemini{
		client:  client,
		cfg:     cfg,
		metrics: cfg.Metrics,
	}
	g.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "gemini",
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
		IsSuccessful: isSuccessful,
	})
	return g, nil
}

// isSuccessful decides what counts against the breaker: only transport
// failures and server side API errors do.
func isSuccessful(err error) bool {
	if err == nil || errors.Is(err, ErrNoData) || errors.Is(err, context.Canceled) {
		return true
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code >= 400 && apiErr.Code < 500 && apiErr.Code != http.StatusTooManyRequests
	}
	return false
}

// BreakerState returns the current circuit breaker state
func (g *Gemini) BreakerState() gobreaker.State {
	return g.breaker.State()
}

// Check reports an error while the breaker is open. It fits health.Checker.
func (g *Gemini) Check(context.Context) error {
	if g.breaker.State() == gobreaker.StateOpen {
		return fmt.Errorf("circuit breaker is open")
	}
	return nil
}

// call runs fn through the breaker inside a span and records its outcome
func call[T any](ctx context.Context, g *Gemini, operation string, fn func(ctx context.Context) (T, error)) (T, error) {
	ctx, span := observe.StartSpan(ctx, "gemini."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("gemini.operation", operation)),
	)
	defer span.End()

	start := time.Now()
	out, err := g.breaker.Execute(func() (interface{}, error) {
		return fn(ctx)
	})

	status := "ok"
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		status = "rejected"
		err = fmt.Errorf("%w: %v", ErrUnavailable, err)
	case errors.Is(err, ErrNoData):
		status = "no_data"
	case err != nil:
		status = "error"
	}
	g.metrics.RecordBackend(ctx, operation, status, time.Since(start))

	var zero T
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, status)
		observe.Logger(ctx).Warn("Gemini call failed", "operation", operation, "status", status, "err", err)
		return zero, err
	}
	return out.(T), nil
}

// GenerateContexts asks for three example sentences using query
func (g *Gemini) GenerateContexts(ctx context.Context, query string) ([]models.SentenceContext, error) {
	return call(ctx, g, "generate_contexts", func(ctx context.Context) ([]models.SentenceContext, error) {
		resp, err := g.client.Models.GenerateContent(ctx, g.cfg.TextModel, genai.Text(contextsPrompt(query)), &genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   sentenceSchema(),
		})
		if err != nil {
			return nil, err
		}

		text := strings.TrimSpace(resp.Text())
		if text == "" {
			return nil, ErrNoData
		}

		var sentences []models.SentenceContext
		if err := json.Unmarshal([]byte(text), &sentences); err != nil {
			return nil, fmt.Errorf("failed to parse sentences: %w", err)
		}
		sentences = repairSentences(ctx, sentences)
		if len(sentences) == 0 {
			return nil, ErrNoData
		}
		return sentences, nil
	})
}

// repairSentences gives every sentence a unique ID and drops sentences that
// lack required fields
func repairSentences(ctx context.Context, in []models.SentenceContext) []models.SentenceContext {
	seen := make(map[string]bool, len(in))
	out := make([]models.SentenceContext, 0, len(in))
	for _, s := range in {
		s.ID = strings.TrimSpace(s.ID)
		if s.ID == "" || seen[s.ID] {
			s.ID = uuid.NewString()
		}
		if err := s.Validate(); err != nil {
			observe.Logger(ctx).Warn("dropping incomplete sentence", "err", err)
			continue
		}
		seen[s.ID] = true
		out = append(out, s)
	}
	return out
}

// Synthesize returns raw 24 kHz PCM16 speech for text. It implements
// audio.Provider.
func (g *Gemini) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	if voice == "" {
		voice = DefaultVoice
	}
	return call(ctx, g, "synthesize", func(ctx context.Context) ([]byte, error) {
		resp, err := g.client.Models.GenerateContent(ctx, g.cfg.SpeechModel, genai.Text(text), &genai.GenerateContentConfig{
			ResponseModalities: []string{string(genai.ModalityAudio)},
			SpeechConfig: &genai.SpeechConfig{
				VoiceConfig: &genai.VoiceConfig{
					PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: voice},
				},
			},
		})
		if err != nil {
			return nil, err
		}

		data := firstInlineData(resp)
		if len(data) == 0 {
			return nil, ErrNoData
		}
		return data, nil
	})
}

func firstInlineData(resp *genai.GenerateContentResponse) []byte {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil
	}
	content := resp.Candidates[0].Content
	if content == nil || len(content.Parts) == 0 || content.Parts[0].InlineData == nil {
		return nil
	}
	return content.Parts[0].InlineData.Data
}

// Name returns the provider name
func (g *Gemini) Name() string {
	return "gemini"
}

// IsAvailable reports whether speech can currently be requested
func (g *Gemini) IsAvailable() error {
	return g.Check(context.Background())
}

// AnalyzePronunciation scores a recording of targetText
func (g *Gemini) AnalyzePronunciation(ctx context.Context, audio []byte, targetText, mimeType string) (*models.PronunciationFeedback, error) {
	return call(ctx, g, "analyze_pronunciation", func(ctx context.Context) (*models.PronunciationFeedback, error) {
		parts := []*genai.Part{
			genai.NewPartFromBytes(audio, mimeType),
			genai.NewPartFromText(pronunciationPrompt(targetText)),
		}
		contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

		resp, err := g.client.Models.GenerateContent(ctx, g.cfg.TextModel, contents, &genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   feedbackSchema(),
		})
		if err != nil {
			return nil, err
		}

		text := strings.TrimSpace(resp.Text())
		if text == "" {
			return nil, ErrNoData
		}

		var feedback models.PronunciationFeedback
		if err := json.Unmarshal([]byte(text), &feedback); err != nil {
			return nil, fmt.Errorf("failed to parse pronunciation feedback: %w", err)
		}
		feedback.Score = min(max(feedback.Score, 0), 100)
		return &feedback, nil
	})
}
