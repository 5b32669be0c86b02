package proxy

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"time"

	"codeberg.org/snonux/parrot/internal/audio"
	"codeberg.org/snonux/parrot/internal/backend"
	"codeberg.org/snonux/parrot/internal/observe"
)

// begin runs the checks shared by every endpoint: method, body, credential.
// It writes the error response itself and returns ok=false when the request
// must not proceed.
func (s *Server) begin(w http.ResponseWriter, r *http.Request, fields ...field) (map[string]string, bool) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
		return nil, false
	}

	values, err := decodeBody(w, r, fields...)
	if err != nil {
		var verr *ValidationError
		switch {
		case errors.Is(err, errBodyTooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, msgBodyTooLarge)
		case errors.As(err, &verr):
			writeError(w, http.StatusBadRequest, verr.Error())
		default:
			writeError(w, http.StatusBadRequest, err.Error())
		}
		return nil, false
	}

	if s.backend == nil {
		observe.Logger(r.Context()).Error(credentialMissingLog, "path", r.URL.Path)
		writeError(w, http.StatusInternalServerError, msgMisconfiguration)
		return nil, false
	}
	return values, true
}

func (s *Server) misconfigured(w http.ResponseWriter, r *http.Request, reason string) {
	err := &ConfigurationError{Reason: reason}
	observe.Logger(r.Context()).Error("cannot serve request", "path", r.URL.Path, "error", err)
	writeError(w, http.StatusInternalServerError, msgMisconfiguration)
}

func (s *Server) upstreamFailed(w http.ResponseWriter, r *http.Request, err error, noData string) {
	uerr := upstreamError(err, noData)
	observe.Logger(r.Context()).Error("Gemini request failed", "path", r.URL.Path, "status", uerr.Status, "error", err)
	writeError(w, uerr.Status, uerr.Message)
}

func (s *Server) handleGenerateContexts(w http.ResponseWriter, r *http.Request) {
	values, ok := s.begin(w, r, field{name: "query", required: true})
	if !ok {
		return
	}
	if s.backend.Contexts == nil {
		s.misconfigured(w, r, "no context generator")
		return
	}

	sentences, err := s.backend.Contexts.GenerateContexts(r.Context(), values["query"])
	if err != nil {
		s.upstreamFailed(w, r, err, msgNoData)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: sentences})
}

func (s *Server) handleGenerateSpeech(w http.ResponseWriter, r *http.Request) {
	values, ok := s.begin(w, r,
		field{name: "text", required: true},
		field{name: "voiceName"},
	)
	if !ok {
		return
	}
	if s.backend.Speech == nil {
		s.misconfigured(w, r, "no speech synthesizer")
		return
	}

	voice := values["voiceName"]
	if voice == "" {
		voice = backend.DefaultVoice
	}

	pcm, err := s.backend.Speech.Synthesize(r.Context(), values["text"], voice)
	if err == nil && len(pcm) == 0 {
		err = backend.ErrNoData
	}
	if err != nil {
		s.upstreamFailed(w, r, err, msgNoAudio)
		return
	}

	encoded, err := audio.EncodeToBase64(bytes.NewReader(pcm))
	if err != nil {
		s.upstreamFailed(w, r, err, msgNoAudio)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: encoded})
}

func (s *Server) handleAnalyzePronunciation(w http.ResponseWriter, r *http.Request) {
	values, ok := s.begin(w, r,
		field{name: "audioBase64", required: true, base64: true},
		field{name: "targetText", required: true},
		field{name: "mimeType"},
	)
	if !ok {
		return
	}
	if s.backend.Analyzer == nil {
		s.misconfigured(w, r, "no pronunciation analyzer")
		return
	}

	mimeType := values["mimeType"]
	if mimeType == "" {
		mimeType = DefaultAnalyzeMIMEType
	}
	// Already validated by decodeBody.
	recording, _ := base64.StdEncoding.DecodeString(values["audioBase64"])

	feedback, err := s.backend.Analyzer.AnalyzePronunciation(r.Context(), recording, values["targetText"], mimeType)
	if err != nil {
		s.upstreamFailed(w, r, err, msgNoData)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: feedback})
}

func (s *Server) handleGenerateContextVideo(w http.ResponseWriter, r *http.Request) {
	values, ok := s.begin(w, r, field{name: "promptText", required: true})
	if !ok {
		return
	}
	if s.backend.Video == nil {
		s.misconfigured(w, r, "no video generator")
		return
	}

	uri, err := s.awaitVideo(r.Context(), values["promptText"])
	switch {
	case errors.Is(err, ErrVideoPending):
		observe.Logger(r.Context()).Info("video still processing", "max_wait", s.maxWait.String())
		writeJSON(w, http.StatusAccepted, pendingResponse{Data: nil, Message: msgProcessing})
	case err != nil:
		s.upstreamFailed(w, r, err, msgNoVideo)
	default:
		writeJSON(w, http.StatusOK, dataResponse{Data: uri})
	}
}

// awaitVideo starts a generation and polls it until it finishes, the wait
// budget is exhausted (ErrVideoPending) or ctx is done.
func (s *Server) awaitVideo(ctx context.Context, promptText string) (string, error) {
	job, err := s.backend.Video.StartVideo(ctx, promptText)
	if err != nil {
		return "", err
	}

	deadline := time.NewTimer(s.maxWait)
	defer deadline.Stop()
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for !job.Done {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-deadline.C:
			return "", ErrVideoPending
		case <-ticker.C:
		}

		job, err = s.backend.Video.PollVideo(ctx, job)
		if err != nil {
			return "", err
		}
	}

	if job.Err != nil {
		return "", job.Err
	}
	if strings.TrimSpace(job.URI) == "" {
		return "", backend.ErrNoData
	}
	return job.URI, nil
}
