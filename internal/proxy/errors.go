package proxy

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"codeberg.org/snonux/parrot/internal/backend"
)

const (
	msgMethodNotAllowed  = "Method not allowed"
	msgMisconfiguration  = "Server misconfiguration"
	msgUnknownUpstream   = "Unknown error from Gemini"
	msgUnavailable       = "Gemini is temporarily unavailable. Please try again later."
	msgBodyTooLarge      = "Request body too large"
	msgProcessing        = "Processing, try again later"
	msgNoData            = "No data returned from Gemini"
	msgNoAudio           = "Failed to generate audio"
	msgNoVideo           = "No video generated"
	credentialMissingLog = "GENAI_API_KEY not set"
)

// ValidationError reports request fields that are missing or malformed
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 1 {
		return fmt.Sprintf("Missing or invalid '%s' in request body", e.Fields[0])
	}
	return fmt.Sprintf("Missing or invalid request body (%s)", strings.Join(e.Fields, ", "))
}

// ConfigurationError means the server cannot serve requests as configured.
// Its reason is logged, never sent to clients.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "server misconfiguration: " + e.Reason
}

// UpstreamError is a failed or unusable Gemini call mapped to an HTTP status
type UpstreamError struct {
	Status  int
	Message string
	Err     error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %d: %s", e.Status, e.Message)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// ErrVideoPending means the video was not ready within the polling budget.
// It is answered with 202 and is not a failure.
var ErrVideoPending = errors.New("video still processing")

// upstreamError maps a backend error to its HTTP answer. noData is the
// message used when Gemini answered without a usable payload.
func upstreamError(err error, noData string) *UpstreamError {
	switch {
	case errors.Is(err, backend.ErrNoData):
		return &UpstreamError{Status: http.StatusBadGateway, Message: noData, Err: err}
	case errors.Is(err, backend.ErrUnavailable):
		return &UpstreamError{Status: http.StatusServiceUnavailable, Message: msgUnavailable, Err: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &UpstreamError{Status: http.StatusGatewayTimeout, Message: "Gemini request timed out", Err: err}
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if msg == "" {
			msg = msgUnknownUpstream
		}
		return &UpstreamError{Status: http.StatusInternalServerError, Message: msg, Err: err}
	}

	msg := msgUnknownUpstream
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return &UpstreamError{Status: http.StatusInternalServerError, Message: msg, Err: err}
}
