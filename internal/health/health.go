// Package health serves the liveness and readiness endpoints of the proxy.
//
//   - /healthz always answers 200 with the running version.
//   - /readyz answers 503 when a required Checker fails, for example when
//     the Gemini credential is missing or the circuit breaker is open. A
//     failing optional Checker, such as the OpenAI speech fallback, only
//     marks the proxy "degraded" and still answers 200.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

const checkTimeout = 5 * time.Second

// Readiness states reported in the "status" field
const (
	StatusOK       = "ok"
	StatusDegraded = "degraded" // an optional check failed
	StatusFail     = "fail"     // a required check failed
)

// Checker is a named readiness check. Check returns nil when healthy.
type Checker struct {
	Name     string
	Check    func(ctx context.Context) error
	Optional bool
}

type result struct {
	Status  string            `json:"status"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// Handler serves /healthz and /readyz. The checker list is fixed at
// construction.
type Handler struct {
	version  string
	checkers []Checker
}

// New creates a Handler evaluating checkers in order on every /readyz
func New(version string, checkers ...Checker) *Handler {
	c := make([]Checker, len(checkers))
	copy(c, checkers)
	return &Handler{version: version, checkers: c}
}

// Healthz answers while the process can serve HTTP
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, result{Status: StatusOK, Version: h.version})
}

// Readyz runs every checker with its own timeout derived from the request
// context.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	res := result{Status: StatusOK, Version: h.version, Checks: make(map[string]string, len(h.checkers))}

	for _, c := range h.checkers {
		ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
		err := c.Check(ctx)
		cancel()

		switch {
		case err == nil:
			res.Checks[c.Name] = "ok"
		case c.Optional:
			res.Checks[c.Name] = "degraded: " + err.Error()
			if res.Status == StatusOK {
				res.Status = StatusDegraded
			}
		default:
			res.Checks[c.Name] = "fail: " + err.Error()
			res.Status = StatusFail
		}
	}

	status := http.StatusOK
	if res.Status == StatusFail {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, res)
}

// Register adds GET /healthz and GET /readyz to mux
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
