package observe

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func testSetup(t *testing.T) (*Metrics, *sdkmetric.ManualReader, *tracetest.InMemoryExporter) {
	t.Helper()

	m, reader := newTestMetrics(t)

	exp := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	origTP := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(origTP) })

	return m, reader, exp
}

func TestMiddleware_SetsCorrelationID(t *testing.T) {
	m, _, _ := testSetup(t)

	var capturedCID string
	handler := Middleware(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedCID = CorrelationID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("POST", "/api/generate-contexts", nil))

	if len(capturedCID) != 32 {
		t.Fatalf("correlation ID %q should be a 32 char trace ID", capturedCID)
	}
	if got := rec.Header().Get("X-Correlation-ID"); got != capturedCID {
		t.Errorf("response X-Correlation-ID = %q, want %q", got, capturedCID)
	}
}

func spanAttr(t *testing.T, span tracetest.SpanStub, key string) attribute.Value {
	t.Helper()
	for _, a := range span.Attributes {
		if string(a.Key) == key {
			return a.Value
		}
	}
	t.Fatalf("span %q has no %s attribute", span.Name, key)
	return attribute.Value{}
}

func TestMiddleware_CreatesSpanWithStatus(t *testing.T) {
	m, _, exp := testSetup(t)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/generate-speech", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"error":"upstream"}`))
	})
	Middleware(m)(mux).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/api/generate-speech", nil))

	spans := exp.GetSpans()
	if len(spans) == 0 {
		t.Fatal("middleware did not create a span")
	}
	if spans[0].Name != "HTTP POST /api/generate-speech" {
		t.Errorf("span name = %q", spans[0].Name)
	}
	if v := spanAttr(t, spans[0], "http.response.status_code"); v.AsInt64() != 502 {
		t.Errorf("status code attribute = %d, want 502", v.AsInt64())
	}
	if v := spanAttr(t, spans[0], "http.route"); v.AsString() != "/api/generate-speech" {
		t.Errorf("route attribute = %q", v.AsString())
	}
	if v := spanAttr(t, spans[0], "http.response.body.size"); v.AsInt64() != 20 {
		t.Errorf("body size attribute = %d, want 20", v.AsInt64())
	}
}

func TestMiddleware_RecordsDurationByRoute(t *testing.T) {
	tests := []struct {
		name       string
		path       string
		wantRoute  string
		wantStatus int64
	}{
		{"health", "/healthz", "/healthz", 200},
		{"unknown path", "/wp-login.php", unmatchedRoute, 404},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, reader, exp := testSetup(t)

			mux := http.NewServeMux()
			mux.HandleFunc("GET /healthz", func(http.ResponseWriter, *http.Request) {})
			Middleware(m)(mux).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", tt.path, nil))

			met := findMetric(collect(t, reader), "parrot.http.request.duration")
			if met == nil {
				t.Fatal("metric not found")
			}
			hist, ok := met.Data.(metricdata.Histogram[float64])
			if !ok || len(hist.DataPoints) != 1 {
				t.Fatalf("want exactly one data point, got %+v", met.Data)
			}
			dp := hist.DataPoints[0]
			if dp.Count != 1 {
				t.Errorf("sample count = %d, want 1", dp.Count)
			}
			if v, ok := dp.Attributes.Value("route"); !ok || v.AsString() != tt.wantRoute {
				t.Errorf("route attribute = %v, want %s", v, tt.wantRoute)
			}
			if v, ok := dp.Attributes.Value("status"); !ok || v.AsInt64() != tt.wantStatus {
				t.Errorf("status attribute = %v, want %d", v, tt.wantStatus)
			}
			if spans := exp.GetSpans(); len(spans) == 0 || spans[0].Name != "HTTP GET "+tt.wantRoute {
				t.Errorf("spans = %v", spans)
			}
		})
	}
}

func TestRoute(t *testing.T) {
	tests := []struct {
		pattern string
		want    string
	}{
		{"", unmatchedRoute},
		{"/api/generate-contexts", "/api/generate-contexts"},
		{"GET /readyz", "/readyz"},
	}
	for _, tt := range tests {
		r := httptest.NewRequest("GET", "/", nil)
		r.Pattern = tt.pattern
		if got := Route(r); got != tt.want {
			t.Errorf("Route(%q) = %q, want %q", tt.pattern, got, tt.want)
		}
	}
}

func TestLogLevel(t *testing.T) {
	tests := []struct {
		route  string
		status int
		want   slog.Level
	}{
		{"/api/generate-contexts", 200, slog.LevelInfo},
		{"/healthz", 200, slog.LevelDebug},
		{"/metrics", 200, slog.LevelDebug},
		{"/readyz", 503, slog.LevelError},
		{"/api/analyze-pronunciation", 400, slog.LevelWarn},
		{"/api/generate-speech", 500, slog.LevelError},
	}
	for _, tt := range tests {
		if got := logLevel(tt.route, tt.status); got != tt.want {
			t.Errorf("logLevel(%s, %d) = %v, want %v", tt.route, tt.status, got, tt.want)
		}
	}
}

func TestMiddleware_PropagatesW3CTraceContext(t *testing.T) {
	m, _, _ := testSetup(t)

	var capturedCID string
	handler := Middleware(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedCID = CorrelationID(r.Context())
	}))

	req := httptest.NewRequest("GET", "/readyz", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if capturedCID != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("correlation ID = %q, want incoming trace ID", capturedCID)
	}
}
