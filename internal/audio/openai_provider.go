package audio

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// openAIVoices maps the Gemini prebuilt voices chosen by tone to the closest
// OpenAI voice
var openAIVoices = map[string]openai.SpeechVoice{
	"Fenrir": openai.VoiceOnyx,
	"Zephyr": openai.SpeechVoice("sage"),
	"Kore":   openai.VoiceCoral,
	"Puck":   openai.VoiceAlloy,
}

// OpenAIProvider implements Provider interface for OpenAI TTS
type OpenAIProvider struct {
	client *openai.Client
	config *Config
}

// NewOpenAIProvider creates a new OpenAI TTS provider
func NewOpenAIProvider(config *Config) (Provider, error) {
	if config.OpenAIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(config.OpenAIKey)
	if config.OpenAIBaseURL != "" {
		clientConfig.BaseURL = config.OpenAIBaseURL
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// OpenAIVoice returns the OpenAI voice used for a Gemini voice name
func OpenAIVoice(voice string) openai.SpeechVoice {
	if v, ok := openAIVoices[voice]; ok {
		return v
	}
	return openai.VoiceAlloy
}

// Synthesize generates raw 24 kHz PCM16 speech using OpenAI TTS
func (p *OpenAIProvider) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	if err := ValidateText(text); err != nil {
		return nil, err
	}

	req := openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(p.config.OpenAIModel),
		Input:          strings.TrimSpace(text),
		Voice:          OpenAIVoice(voice),
		ResponseFormat: openai.SpeechResponseFormatPcm,
		Speed:          p.config.OpenAISpeed,
	}

	if p.config.OpenAIInstruction != "" && supportsInstructions(p.config.OpenAIModel) {
		req.Instructions = p.config.OpenAIInstruction
	}

	response, err := p.client.CreateSpeech(ctx, req)
	if err != nil {
		if strings.Contains(err.Error(), "does not have access to model") && supportsInstructions(p.config.OpenAIModel) {
			return nil, fmt.Errorf("OpenAI TTS API error: %w\nNote: The %s model requires access. Try setting speech.openai_model to tts-1-hd instead", err, p.config.OpenAIModel)
		}
		return nil, fmt.Errorf("OpenAI TTS API error: %w", err)
	}
	defer response.Close()

	pcm, err := io.ReadAll(response)
	if err != nil {
		return nil, fmt.Errorf("failed to read OpenAI audio: %w", err)
	}
	if len(pcm) == 0 {
		return nil, fmt.Errorf("no audio data received from OpenAI")
	}
	// The pcm format is whole 16-bit samples; drop a torn trailing byte.
	return pcm[:len(pcm)&^1], nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// IsAvailable checks if the OpenAI API is accessible
func (p *OpenAIProvider) IsAvailable() error {
	if p.config.OpenAIKey == "" {
		return fmt.Errorf("OpenAI API key not configured")
	}
	return nil
}

func supportsInstructions(model string) bool {
	return model == "gpt-4o-mini-tts" || model == "gpt-4o-mini-audio-preview"
}
