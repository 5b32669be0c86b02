package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// GeminiRequest is one request received by FakeGemini
type GeminiRequest struct {
	Model  string
	Method string // e.g. "generateContent"
	Body   map[string]any
}

type geminiReply struct {
	status int
	body   string
}

// FakeGemini is an httptest server speaking enough of the Gemini REST API
// for generateContent calls. Point a genai client at it through
// HTTPOptions.BaseURL.
type FakeGemini struct {
	*httptest.Server

	mu       sync.Mutex
	replies  map[string]geminiReply
	requests []GeminiRequest
}

// NewFakeGemini starts a fake Gemini server that is closed with the test
func NewFakeGemini(t *testing.T) *FakeGemini {
	t.Helper()
	f := &FakeGemini{replies: make(map[string]geminiReply)}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Close)
	return f
}

// RespondText makes model answer with a single text part
func (f *FakeGemini) RespondText(model, text string) {
	f.respond(model, http.StatusOK, map[string]any{
		"candidates": []any{
			map[string]any{
				"content": map[string]any{
					"role":  "model",
					"parts": []any{map[string]any{"text": text}},
				},
			},
		},
	})
}

// RespondAudio makes model answer with an inline audio part. data is sent
// base64 encoded as the API does.
func (f *FakeGemini) RespondAudio(model string, data []byte) {
	f.respond(model, http.StatusOK, map[string]any{
		"candidates": []any{
			map[string]any{
				"content": map[string]any{
					"role": "model",
					"parts": []any{map[string]any{
						"inlineData": map[string]any{
							"mimeType": "audio/L16;codec=pcm;rate=24000",
							"data":     data,
						},
					}},
				},
			},
		},
	})
}

// RespondEmpty makes model answer with no candidates
func (f *FakeGemini) RespondEmpty(model string) {
	f.respond(model, http.StatusOK, map[string]any{"candidates": []any{}})
}

// RespondError makes model fail with a Google API error body
func (f *FakeGemini) RespondError(model string, code int, message string) {
	f.respond(model, code, map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": message,
			"status":  http.StatusText(code),
		},
	})
}

func (f *FakeGemini) respond(model string, status int, v any) {
	body, _ := json.Marshal(v)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies[model] = geminiReply{status: status, body: string(body)}
}

// Requests returns the requests received so far
func (f *FakeGemini) Requests() []GeminiRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]GeminiRequest(nil), f.requests...)
}

// Calls returns the number of requests received for model
func (f *FakeGemini) Calls(model string) int {
	n := 0
	for _, r := range f.Requests() {
		if r.Model == model {
			n++
		}
	}
	return n
}

// serve handles paths like /v1beta/models/gemini-2.5-flash:generateContent
func (f *FakeGemini) serve(w http.ResponseWriter, r *http.Request) {
	_, rest, ok := strings.Cut(r.URL.Path, "/models/")
	if !ok {
		http.NotFound(w, r)
		return
	}
	model, method, _ := strings.Cut(rest, ":")

	raw, _ := io.ReadAll(r.Body)
	var body map[string]any
	_ = json.Unmarshal(raw, &body)

	f.mu.Lock()
	f.requests = append(f.requests, GeminiRequest{Model: model, Method: method, Body: body})
	reply, ok := f.replies[model]
	f.mu.Unlock()

	if !ok {
		reply = geminiReply{
			status: http.StatusNotFound,
			body:   `{"error":{"code":404,"message":"model not configured in fake","status":"NOT_FOUND"}}`,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(reply.status)
	io.WriteString(w, reply.body)
}
