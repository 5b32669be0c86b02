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

// ProxyRequest is one request received by FakeProxy
type ProxyRequest struct {
	Endpoint string
	Method   string
	Body     map[string]any
}

// MockResponse is a canned proxy answer
type MockResponse struct {
	StatusCode int
	Body       string
}

// FakeProxy stands in for the parrot proxy service. Each endpoint answers
// with its configured MockResponse; unconfigured endpoints answer 404.
type FakeProxy struct {
	*httptest.Server

	mu        sync.Mutex
	responses map[string]MockResponse
	requests  []ProxyRequest
}

// NewFakeProxy starts a fake proxy. Its base URL is URL + "/api".
func NewFakeProxy(t *testing.T) *FakeProxy {
	t.Helper()
	p := &FakeProxy{responses: make(map[string]MockResponse)}
	p.Server = httptest.NewServer(http.HandlerFunc(p.serve))
	t.Cleanup(p.Close)
	return p
}

// BaseURL returns the API root clients should use
func (p *FakeProxy) BaseURL() string {
	return p.URL + "/api"
}

// Respond sets the raw answer of an endpoint such as "generate-speech"
func (p *FakeProxy) Respond(endpoint string, status int, body string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.responses[endpoint] = MockResponse{StatusCode: status, Body: body}
}

// RespondData answers 200 with {"data": v}
func (p *FakeProxy) RespondData(endpoint string, v any) {
	body, _ := json.Marshal(map[string]any{"data": v})
	p.Respond(endpoint, http.StatusOK, string(body))
}

// RespondError answers status with {"error": message}
func (p *FakeProxy) RespondError(endpoint string, status int, message string) {
	body, _ := json.Marshal(map[string]string{"error": message})
	p.Respond(endpoint, status, string(body))
}

// Requests returns the requests received so far
func (p *FakeProxy) Requests() []ProxyRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ProxyRequest(nil), p.requests...)
}

// Calls returns the number of requests received for endpoint
func (p *FakeProxy) Calls(endpoint string) int {
	n := 0
	for _, r := range p.Requests() {
		if r.Endpoint == endpoint {
			n++
		}
	}
	return n
}

func (p *FakeProxy) serve(w http.ResponseWriter, r *http.Request) {
	endpoint := strings.TrimPrefix(r.URL.Path, "/api/")

	raw, _ := io.ReadAll(r.Body)
	var body map[string]any
	_ = json.Unmarshal(raw, &body)

	p.mu.Lock()
	p.requests = append(p.requests, ProxyRequest{Endpoint: endpoint, Method: r.Method, Body: body})
	resp, ok := p.responses[endpoint]
	p.mu.Unlock()

	if !ok {
		resp = MockResponse{StatusCode: http.StatusNotFound, Body: `{"error":"not found"}`}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.StatusCode)
	io.WriteString(w, resp.Body)
}
