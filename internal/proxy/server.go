// Package proxy is the HTTP service that holds the Gemini credential and
// exposes sentence generation, speech, pronunciation analysis and video
// generation to practice clients.
package proxy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"codeberg.org/snonux/parrot/internal/backend"
	"codeberg.org/snonux/parrot/internal/health"
	"codeberg.org/snonux/parrot/internal/models"
	"codeberg.org/snonux/parrot/internal/observe"
)

const (
	// DefaultAddr is the listen address when none is configured
	DefaultAddr = ":8080"

	// DefaultVideoPoll is the interval between video operation polls
	DefaultVideoPoll = 3 * time.Second

	// DefaultVideoMaxWait bounds how long a video request polls before it
	// answers 202
	DefaultVideoMaxWait = 2 * time.Minute

	// DefaultAnalyzeMIMEType is assumed for recordings sent without a
	// mimeType
	DefaultAnalyzeMIMEType = "audio/webm"

	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
)

// ContextGenerator produces example sentences for a word or phrase
type ContextGenerator interface {
	GenerateContexts(ctx context.Context, query string) ([]models.SentenceContext, error)
}

// SpeechSynthesizer returns raw 24 kHz PCM16 mono audio for text
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text, voice string) ([]byte, error)
}

// PronunciationAnalyzer scores a recording against its target sentence
type PronunciationAnalyzer interface {
	AnalyzePronunciation(ctx context.Context, audio []byte, targetText, mimeType string) (*models.PronunciationFeedback, error)
}

// VideoGenerator runs asynchronous video generations
type VideoGenerator interface {
	StartVideo(ctx context.Context, promptText string) (*backend.VideoJob, error)
	PollVideo(ctx context.Context, job *backend.VideoJob) (*backend.VideoJob, error)
}

// Backend groups the collaborators behind the four endpoints. A nil Backend
// means the server has no Gemini credential.
type Backend struct {
	Contexts ContextGenerator
	Speech   SpeechSynthesizer
	Analyzer PronunciationAnalyzer
	Video    VideoGenerator
}

// FromGemini uses g for every endpoint and speech for synthesis when set
func FromGemini(g *backend.Gemini, speech SpeechSynthesizer) *Backend {
	if g == nil {
		return nil
	}
	if speech == nil {
		speech = g
	}
	return &Backend{Contexts: g, Speech: speech, Analyzer: g, Video: g}
}

// Server is the proxy HTTP service
type Server struct {
	backend      *Backend
	addr         string
	version      string
	metrics      *observe.Metrics
	checkers     []health.Checker
	pollInterval time.Duration
	maxWait      time.Duration

	httpServer *http.Server
}

// Option configures a Server
type Option func(*Server)

// WithAddr sets the listen address used by Run
func WithAddr(addr string) Option {
	return func(s *Server) { s.addr = addr }
}

// WithMetrics sets the instruments used by the request middleware
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithVideoPolling sets how often a running video is polled and how long a
// request may wait before answering 202.
func WithVideoPolling(interval, maxWait time.Duration) Option {
	return func(s *Server) {
		if interval > 0 {
			s.pollInterval = interval
		}
		if maxWait > 0 {
			s.maxWait = maxWait
		}
	}
}

// WithHealthChecks adds readiness checks served on /readyz
func WithHealthChecks(checkers ...health.Checker) Option {
	return func(s *Server) { s.checkers = append(s.checkers, checkers...) }
}

// WithVersion sets the version reported by /healthz
func WithVersion(v string) Option {
	return func(s *Server) { s.version = v }
}

// New creates a Server. b may be nil, in which case every endpoint answers
// with a misconfiguration error after request validation.
func New(b *Backend, opts ...Option) *Server {
	s := &Server{
		backend:      b,
		addr:         DefaultAddr,
		pollInterval: DefaultVideoPoll,
		maxWait:      DefaultVideoMaxWait,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	s.checkers = append([]health.Checker{{
		Name: "credential",
		Check: func(context.Context) error {
			if s.backend == nil {
				return &ConfigurationError{Reason: credentialMissingLog}
			}
			return nil
		},
	}}, s.checkers...)
	return s
}

// Handler returns the routed and instrumented HTTP handler
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/generate-contexts", s.handleGenerateContexts)
	mux.HandleFunc("/api/generate-speech", s.handleGenerateSpeech)
	mux.HandleFunc("/api/analyze-pronunciation", s.handleAnalyzePronunciation)
	mux.HandleFunc("/api/generate-context-video", s.handleGenerateContextVideo)
	mux.Handle("GET /metrics", promhttp.Handler())
	health.New(s.version, s.checkers...).Register(mux)

	return observe.Middleware(s.metrics)(mux)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("proxy listening", "addr", ln.Addr().String())
		errCh <- s.httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("proxy server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	slog.Info("shutting down proxy")
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("proxy shutdown: %w", err)
	}
	return nil
}

// Run listens on the configured address and serves until ctx is cancelled
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}
