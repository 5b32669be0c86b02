package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"codeberg.org/snonux/parrot/internal/models"
)

const (
	// DefaultBaseURL is the API root of a locally running proxy
	DefaultBaseURL = "http://localhost:8080/api"

	// defaultTimeout covers the proxy's video polling budget
	defaultTimeout = 3 * time.Minute
)

// KeySelector is the host's API key picker. It is only consulted for video
// generation.
type KeySelector interface {
	HasSelectedAPIKey(ctx context.Context) (bool, error)
	OpenSelectKey(ctx context.Context) error
}

// VideoResult is the outcome of a video request. Pending means the proxy gave
// up waiting; the caller may ask again later.
type VideoResult struct {
	URI     string
	Pending bool
	Message string
}

// Client talks to the parrot proxy
type Client struct {
	baseURL     string
	httpClient  *http.Client
	keySelector KeySelector
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithKeySelector installs the API key picker used before video requests
func WithKeySelector(ks KeySelector) Option {
	return func(c *Client) { c.keySelector = ks }
}

// WithTimeout sets the per-request timeout of the HTTP client
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// New creates a Client for baseURL, e.g. "http://localhost:8080/api"
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// envelope is the proxy's success body
type envelope struct {
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// post sends body to endpoint and returns the decoded envelope together with
// the status code. Non-2xx answers become *ServerError.
func (c *Client) post(ctx context.Context, endpoint string, body any) (*envelope, int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, &ServerError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, &ServerError{StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, resp.StatusCode, &ServerError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, resp.StatusCode, &InvalidResponseError{Reason: "body is not JSON: " + err.Error()}
	}
	return &env, resp.StatusCode, nil
}

// decodeData unmarshals the data member into v, rejecting absent or null data
func decodeData(env *envelope, v any) error {
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return &InvalidResponseError{Reason: "missing data"}
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		return &InvalidResponseError{Reason: "unexpected data: " + err.Error()}
	}
	return nil
}

// GenerateContexts asks for example sentences for query
func (c *Client) GenerateContexts(ctx context.Context, query string) ([]models.SentenceContext, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	env, _, err := c.post(ctx, "generate-contexts", map[string]string{"query": query})
	if err != nil {
		return nil, err
	}
	var sentences []models.SentenceContext
	if err := decodeData(env, &sentences); err != nil {
		return nil, err
	}
	return sentences, nil
}

// GenerateSpeech returns base64 encoded 24 kHz PCM16 audio for text
func (c *Client) GenerateSpeech(ctx context.Context, text, voice string) (string, error) {
	body := map[string]string{"text": text}
	if voice != "" {
		body["voiceName"] = voice
	}

	env, _, err := c.post(ctx, "generate-speech", body)
	if err != nil {
		return "", err
	}
	var audio string
	if err := decodeData(env, &audio); err != nil {
		return "", err
	}
	return audio, nil
}

// AnalyzePronunciation scores a base64 recording against targetText. Word
// indices in the result are passed through unchecked.
func (c *Client) AnalyzePronunciation(ctx context.Context, audioBase64, targetText, mimeType string) (*models.PronunciationFeedback, error) {
	body := map[string]string{"audioBase64": audioBase64, "targetText": targetText}
	if mimeType != "" {
		body["mimeType"] = mimeType
	}

	env, _, err := c.post(ctx, "analyze-pronunciation", body)
	if err != nil {
		return nil, err
	}
	var feedback models.PronunciationFeedback
	if err := decodeData(env, &feedback); err != nil {
		return nil, err
	}
	return &feedback, nil
}

// GenerateContextVideo requests an illustrative video for promptText
func (c *Client) GenerateContextVideo(ctx context.Context, promptText string) (*VideoResult, error) {
	if c.keySelector != nil {
		selected, err := c.keySelector.HasSelectedAPIKey(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to check API key selection: %w", err)
		}
		if !selected {
			if err := c.keySelector.OpenSelectKey(ctx); err != nil {
				return nil, fmt.Errorf("failed to open API key selection: %w", err)
			}
		}
	}

	env, status, err := c.post(ctx, "generate-context-video", map[string]string{"promptText": promptText})
	if err != nil {
		var se *ServerError
		if errors.As(err, &se) && strings.Contains(se.Body, keyNotFoundMarker) {
			if c.keySelector != nil {
				if kerr := c.keySelector.OpenSelectKey(ctx); kerr != nil {
					return nil, fmt.Errorf("%w (reopening key selection: %v)", ErrKeySessionExpired, kerr)
				}
			}
			return nil, ErrKeySessionExpired
		}
		return nil, err
	}

	if status == http.StatusAccepted {
		return &VideoResult{Pending: true, Message: env.Message}, nil
	}

	var uri string
	if err := decodeData(env, &uri); err != nil {
		return nil, err
	}
	return &VideoResult{URI: uri}, nil
}
