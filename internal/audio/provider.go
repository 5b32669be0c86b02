package audio

import (
	"context"
	"fmt"
	"log/slog"
)

// Provider defines the interface for text-to-speech providers
type Provider interface {
	// Synthesize returns raw PCM16 mono audio at ReferenceSampleRate
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)

	// Name returns the provider name
	Name() string

	// IsAvailable checks if the provider is properly configured and available
	IsAvailable() error
}

// Config holds configuration for the OpenAI speech provider
type Config struct {
	Provider string // Provider name: "openai"

	OpenAIKey         string
	OpenAIBaseURL     string  // empty means the public API
	OpenAIModel       string  // "tts-1", "tts-1-hd", or "gpt-4o-mini-tts"
	OpenAISpeed       float64 // 0.25 to 4.0
	OpenAIInstruction string  // Voice instructions for gpt-4o-mini-tts model
}

// DefaultProviderConfig returns default configuration
func DefaultProviderConfig() *Config {
	return &Config{
		Provider:          "openai",
		OpenAIModel:       "gpt-4o-mini-tts",
		OpenAISpeed:       1.0,
		OpenAIInstruction: "Speak natural American English clearly and at a moderate pace for language learners.",
	}
}

// NewProvider creates the appropriate audio provider based on configuration
func NewProvider(config *Config) (Provider, error) {
	if config == nil {
		config = DefaultProviderConfig()
	}

	switch config.Provider {
	case "openai":
		if config.OpenAIKey == "" {
			return nil, fmt.Errorf("OpenAI API key is required")
		}
		return NewOpenAIProvider(config)

	default:
		return nil, fmt.Errorf("unknown audio provider: %s", config.Provider)
	}
}

// ProviderWithFallback wraps a primary provider with a fallback option
type ProviderWithFallback struct {
	primary  Provider
	fallback Provider
}

// NewProviderWithFallback creates a provider that falls back to secondary if primary fails
func NewProviderWithFallback(primary, fallback Provider) Provider {
	return &ProviderWithFallback{
		primary:  primary,
		fallback: fallback,
	}
}

// Synthesize tries the primary provider first and falls back to the
// secondary on error. A cancelled context is returned as is.
func (p *ProviderWithFallback) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	pcm, err := p.primary.Synthesize(ctx, text, voice)
	if err == nil {
		return pcm, nil
	}
	if ctx.Err() != nil {
		return nil, err
	}

	slog.WarnContext(ctx, "primary speech provider failed, falling back",
		"primary", p.primary.Name(),
		"fallback", p.fallback.Name(),
		"err", err,
	)

	pcm, fallbackErr := p.fallback.Synthesize(ctx, text, voice)
	if fallbackErr != nil {
		return nil, fmt.Errorf("both speech providers failed: primary=%v, fallback: %w", err, fallbackErr)
	}
	return pcm, nil
}

// Name returns the provider name
func (p *ProviderWithFallback) Name() string {
	return fmt.Sprintf("%s (fallback: %s)", p.primary.Name(), p.fallback.Name())
}

// IsAvailable checks if at least one provider is available
func (p *ProviderWithFallback) IsAvailable() error {
	primaryErr := p.primary.IsAvailable()
	if primaryErr == nil {
		return nil
	}

	fallbackErr := p.fallback.IsAvailable()
	if fallbackErr == nil {
		return nil
	}

	return fmt.Errorf("both providers unavailable: primary=%v, fallback=%v",
		primaryErr, fallbackErr)
}
