package practice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"codeberg.org/snonux/parrot/internal/audio"
	"codeberg.org/snonux/parrot/internal/gateway"
	"codeberg.org/snonux/parrot/internal/models"
)

// User facing card messages
const (
	MsgPlaybackFailed = "Failed to play audio. Please try again."
	MsgMicUnavailable = "Microphone access denied or not available."
	MsgAnalyzeFailed  = "Failed to analyze pronunciation. Please try again."
	MsgVideoFailed    = "Failed to generate video. Veo might be busy."
)

var (
	// ErrBusy is returned when an action needs the idle phase
	ErrBusy = errors.New("card is busy")

	// ErrNotRecording is returned by StopRecording outside a recording
	ErrNotRecording = errors.New("card is not recording")

	// ErrVideoInFlight is returned when a video request is already running
	ErrVideoInFlight = errors.New("video generation already in progress")
)

// Phase is the card's mutually exclusive activity
type Phase int

// Card phases
const (
	PhaseIdle             Phase = iota // ready for any action
	PhasePlayingReference              // fetching or playing the reference audio
	PhaseRecording                     // microphone capture running
	PhaseAnalyzing                     // recording submitted, waiting for feedback
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhasePlayingReference:
		return "playing"
	case PhaseRecording:
		return "recording"
	case PhaseAnalyzing:
		return "analyzing"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// VideoStatus tracks the card's video independently of its phase
type VideoStatus int

// Video states
const (
	VideoNone    VideoStatus = iota // nothing requested, or the proxy asked to retry later
	VideoPending                    // request in flight
	VideoReady                      // URI available
	VideoFailed                     // last request failed, may be retried
)

func (v VideoStatus) String() string {
	switch v {
	case VideoNone:
		return "none"
	case VideoPending:
		return "pending"
	case VideoReady:
		return "ready"
	case VideoFailed:
		return "failed"
	default:
		return fmt.Sprintf("VideoStatus(%d)", int(v))
	}
}

// Gateway is the subset of the proxy client a card needs
type Gateway interface {
	GenerateSpeech(ctx context.Context, text, voice string) (string, error)
	AnalyzePronunciation(ctx context.Context, audioBase64, targetText, mimeType string) (*models.PronunciationFeedback, error)
	GenerateContextVideo(ctx context.Context, promptText string) (*gateway.VideoResult, error)
}

// Player plays decoded audio and blocks until it finished
type Player interface {
	Play(ctx context.Context, buf *audio.Buffer) error
}

// Microphone opens a capture session delivering PCM16 chunks
type Microphone interface {
	Start(onChunk func([]byte)) (audio.Capture, error)
}

// Controls says which card actions are currently available
type Controls struct {
	ListenEnabled   bool
	PracticeEnabled bool
	StopEnabled     bool
	VideoEnabled    bool
}

// Card is the practice controller for one sentence
type Card struct {
	sentence models.SentenceContext
	index    int

	gw         Gateway
	player     Player
	mic        Microphone
	sampleRate int

	mu        sync.Mutex
	phase     Phase
	video     VideoStatus
	videoURI  string
	feedback  *models.PronunciationFeedback
	message   string
	recording *Recording
	capture   audio.Capture
	starting  bool // microphone still opening
}

// NewCard creates an idle card for sentence at position index
func NewCard(sentence models.SentenceContext, index int, gw Gateway, player Player, mic Microphone) *Card {
	return &Card{
		sentence:   sentence,
		index:      index,
		gw:         gw,
		player:     player,
		mic:        mic,
		sampleRate: audio.RecordingSampleRate,
	}
}

// Sentence returns the card's sentence
func (c *Card) Sentence() models.SentenceContext { return c.sentence }

// Index returns the card's zero based position
func (c *Card) Index() int { return c.index }

// Voice returns the reference voice chosen for the sentence
func (c *Card) Voice() string {
	return gateway.VoiceForTone(c.sentence.Tone, c.sentence.ContextType)
}

// Phase returns the current phase
func (c *Card) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Video returns the video status and, when ready, its URI
func (c *Card) Video() (VideoStatus, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.video, c.videoURI
}

// Feedback returns the latest analysis or nil
func (c *Card) Feedback() *models.PronunciationFeedback {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.feedback
}

// Message returns the latest user facing message, if any
func (c *Card) Message() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.message
}

// Controls derives the enabled actions from the current state
func (c *Card) Controls() Controls {
	c.mu.Lock()
	defer c.mu.Unlock()
	idle := c.phase == PhaseIdle
	return Controls{
		ListenEnabled:   idle,
		PracticeEnabled: idle,
		StopEnabled:     c.phase == PhaseRecording && !c.starting,
		VideoEnabled:    c.video == VideoNone || c.video == VideoFailed,
	}
}

// transition moves from one phase to another, failing when the card is not
// in from.
func (c *Card) transition(from, to Phase) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase != from {
		return false
	}
	c.phase = to
	return true
}

func (c *Card) finish(message string) {
	c.mu.Lock()
	c.phase = PhaseIdle
	c.message = message
	c.mu.Unlock()
}

// Listen fetches and plays the reference audio. It blocks until playback
// ends.
func (c *Card) Listen(ctx context.Context) error {
	if !c.transition(PhaseIdle, PhasePlayingReference) {
		return ErrBusy
	}
	c.mu.Lock()
	c.message = ""
	c.mu.Unlock()

	err := c.playReference(ctx)
	if err != nil {
		slog.WarnContext(ctx, "reference playback failed", "card", c.index, "error", err)
		c.finish(MsgPlaybackFailed)
		return err
	}
	c.finish("")
	return nil
}

func (c *Card) playReference(ctx context.Context) error {
	b64, err := c.gw.GenerateSpeech(ctx, c.sentence.English, c.Voice())
	if err != nil {
		return fmt.Errorf("failed to fetch reference audio: %w", err)
	}
	buf, err := audio.DecodePCM16(b64, audio.ReferenceSampleRate)
	if err != nil {
		return fmt.Errorf("failed to decode reference audio: %w", err)
	}
	if err := c.player.Play(ctx, buf); err != nil {
		return fmt.Errorf("failed to play reference audio: %w", err)
	}
	return nil
}

// StartRecording opens the microphone and begins a practice attempt. The
// attempt cannot be stopped until the microphone is open.
func (c *Card) StartRecording(ctx context.Context) error {
	c.mu.Lock()
	if c.phase != PhaseIdle {
		c.mu.Unlock()
		return ErrBusy
	}
	c.phase = PhaseRecording
	c.starting = true
	c.mu.Unlock()

	rec := NewRecording(c.sampleRate)
	capture, err := c.mic.Start(rec.Add)
	if err != nil {
		slog.WarnContext(ctx, "microphone unavailable", "card", c.index, "error", err)
		c.mu.Lock()
		c.starting = false
		c.mu.Unlock()
		c.finish(MsgMicUnavailable)
		return fmt.Errorf("failed to start microphone: %w", err)
	}

	c.mu.Lock()
	c.starting = false
	c.feedback = nil
	c.message = ""
	c.recording = rec
	c.capture = capture
	c.mu.Unlock()
	return nil
}

// StopRecording ends the attempt and submits it for analysis. It blocks
// until the analysis finished.
func (c *Card) StopRecording(ctx context.Context) error {
	c.mu.Lock()
	if c.phase != PhaseRecording || c.starting {
		c.mu.Unlock()
		return ErrNotRecording
	}
	c.phase = PhaseAnalyzing
	rec, capture := c.recording, c.capture
	c.recording, c.capture = nil, nil
	c.mu.Unlock()

	if capture != nil {
		if err := capture.Stop(); err != nil {
			slog.WarnContext(ctx, "failed to stop capture", "card", c.index, "error", err)
		}
	}

	feedback, err := c.analyze(ctx, rec)
	if err != nil {
		slog.WarnContext(ctx, "pronunciation analysis failed", "card", c.index, "error", err)
		c.finish(MsgAnalyzeFailed)
		return err
	}

	c.mu.Lock()
	c.feedback = feedback
	c.mu.Unlock()
	c.finish("")
	return nil
}

func (c *Card) analyze(ctx context.Context, rec *Recording) (*models.PronunciationFeedback, error) {
	if rec == nil {
		return nil, errors.New("no recording")
	}
	blob, err := rec.Blob()
	if err != nil {
		return nil, err
	}
	b64, err := blob.Base64()
	if err != nil {
		return nil, fmt.Errorf("failed to encode recording: %w", err)
	}
	feedback, err := c.gw.AnalyzePronunciation(ctx, b64, c.sentence.English, blob.MIMEType)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze recording: %w", err)
	}
	return feedback, nil
}

// ClearFeedback discards the latest analysis so the user can try again
func (c *Card) ClearFeedback() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.feedback = nil
	c.message = ""
}

// GenerateVideo requests a video for the sentence. While a request is in
// flight it returns ErrVideoInFlight, and once a video exists it returns nil
// without a request. It blocks until the proxy answered.
func (c *Card) GenerateVideo(ctx context.Context) error {
	c.mu.Lock()
	switch c.video {
	case VideoPending:
		c.mu.Unlock()
		return ErrVideoInFlight
	case VideoReady:
		c.mu.Unlock()
		return nil
	}
	c.video = VideoPending
	c.message = ""
	c.mu.Unlock()

	result, err := c.gw.GenerateContextVideo(ctx, c.sentence.English)

	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case err != nil:
		slog.WarnContext(ctx, "video generation failed", "card", c.index, "error", err)
		c.video = VideoFailed
		c.message = videoFailureMessage(err)
		return err
	case result.Pending:
		c.video = VideoNone
		c.message = result.Message
	default:
		c.video = VideoReady
		c.videoURI = result.URI
	}
	return nil
}

// videoFailureMessage prefers the proxy's own error text over the generic
// message.
func videoFailureMessage(err error) string {
	if errors.Is(err, gateway.ErrKeySessionExpired) {
		return err.Error()
	}
	var se *gateway.ServerError
	if errors.As(err, &se) {
		var body struct {
			Error string `json:"error"`
		}
		if json.Unmarshal([]byte(se.Body), &body) == nil && body.Error != "" {
			return body.Error
		}
	}
	return MsgVideoFailed
}
