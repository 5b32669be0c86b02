package proxy

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"google.golang.org/genai"

	"codeberg.org/snonux/parrot/internal/backend"
)

func TestValidationErrorMessage(t *testing.T) {
	tests := []struct {
		fields []string
		want   string
	}{
		{[]string{"query"}, "Missing or invalid 'query' in request body"},
		{[]string{"audioBase64", "targetText"}, "Missing or invalid request body (audioBase64, targetText)"},
	}
	for _, tt := range tests {
		if got := (&ValidationError{Fields: tt.fields}).Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestUpstreamErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"no data", fmt.Errorf("wrapped: %w", backend.ErrNoData), http.StatusBadGateway, "custom"},
		{"unavailable", backend.ErrUnavailable, http.StatusServiceUnavailable, msgUnavailable},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, "Gemini request timed out"},
		{"api error", genai.APIError{Code: 400, Message: "bad request"}, http.StatusInternalServerError, "bad request"},
		{"api error without message", genai.APIError{Code: 500}, http.StatusInternalServerError, msgUnknownUpstream},
		{"plain", errors.New("boom"), http.StatusInternalServerError, "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := upstreamError(tt.err, "custom")
			if got.Status != tt.wantStatus || got.Message != tt.wantMsg {
				t.Errorf("upstreamError() = %d %q, want %d %q", got.Status, got.Message, tt.wantStatus, tt.wantMsg)
			}
			if errors.Unwrap(got) == nil {
				t.Error("UpstreamError should unwrap to the cause")
			}
		})
	}
}
