// Package observe provides the observability primitives for parrot:
// OpenTelemetry metrics, tracing, structured logging and the HTTP middleware
// that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API and scraped
// through the Prometheus exporter installed by [InitProvider]. Tests should
// build their own [Metrics] with [NewMetrics] and a ManualReader.
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "codeberg.org/snonux/parrot"

// Metrics holds all OpenTelemetry instruments for the proxy service.
// All fields are safe for concurrent use.
type Metrics struct {
	// HTTPRequestDuration tracks request processing time by method, route and status
	HTTPRequestDuration metric.Float64Histogram

	// BackendDuration tracks Gemini call latency by operation
	BackendDuration metric.Float64Histogram

	// BackendRequests counts Gemini calls by operation and status
	BackendRequests metric.Int64Counter

	// VideoPolls counts video operation status polls
	VideoPolls metric.Int64Counter

	// SpeechCache counts speech cache lookups by result (hit, miss, error)
	SpeechCache metric.Int64Counter
}

// latencyBuckets are histogram boundaries in seconds. Video generation can
// run for minutes, so the range is wide.
var latencyBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120,
}

// NewMetrics creates all instruments on the given MeterProvider
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.HTTPRequestDuration, err = m.Float64Histogram("parrot.http.request.duration",
		metric.WithDescription("HTTP request latency by method, route and status."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.BackendDuration, err = m.Float64Histogram("parrot.backend.duration",
		metric.WithDescription("Latency of Gemini calls by operation."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.BackendRequests, err = m.Int64Counter("parrot.backend.requests",
		metric.WithDescription("Total Gemini calls by operation and status."),
	); err != nil {
		return nil, err
	}
	if met.VideoPolls, err = m.Int64Counter("parrot.video.polls",
		metric.WithDescription("Total video operation status polls."),
	); err != nil {
		return nil, err
	}
	if met.SpeechCache, err = m.Int64Counter("parrot.speech.cache",
		metric.WithDescription("Speech cache lookups by result."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level Metrics created from the global
// MeterProvider on first use.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordBackend records one Gemini call. A nil receiver is a no-op.
func (m *Metrics) RecordBackend(ctx context.Context, operation, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.BackendDuration.Record(ctx, d.Seconds(),
		metric.WithAttributes(attribute.String("operation", operation)),
	)
	m.BackendRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("status", status),
		),
	)
}

// RecordVideoPoll counts one video status poll. A nil receiver is a no-op.
func (m *Metrics) RecordVideoPoll(ctx context.Context) {
	if m == nil {
		return
	}
	m.VideoPolls.Add(ctx, 1)
}

// RecordSpeechCache counts one cache lookup. A nil receiver is a no-op.
func (m *Metrics) RecordSpeechCache(ctx context.Context, result string) {
	if m == nil {
		return
	}
	m.SpeechCache.Add(ctx, 1,
		metric.WithAttributes(attribute.String("result", result)),
	)
}
