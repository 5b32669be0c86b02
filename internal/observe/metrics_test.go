package observe

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// newTestMetrics returns Metrics backed by a ManualReader for inspection
func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func sumByAttr(t *testing.T, met *metricdata.Metrics, key, value string) int64 {
	t.Helper()
	sum, ok := met.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("%s is not an int64 sum", met.Name)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		if v, ok := dp.Attributes.Value(attribute.Key(key)); ok && v.AsString() == value {
			total += dp.Value
		}
	}
	return total
}

func TestRecordBackend(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordBackend(ctx, "generate_contexts", "ok", 250*time.Millisecond)
	m.RecordBackend(ctx, "generate_contexts", "error", time.Second)
	m.RecordBackend(ctx, "synthesize", "ok", 2*time.Second)

	rm := collect(t, reader)

	requests := findMetric(rm, "parrot.backend.requests")
	if requests == nil {
		t.Fatal("parrot.backend.requests not found")
	}
	if got := sumByAttr(t, requests, "operation", "generate_contexts"); got != 2 {
		t.Errorf("generate_contexts requests = %d, want 2", got)
	}
	if got := sumByAttr(t, requests, "status", "error"); got != 1 {
		t.Errorf("error requests = %d, want 1", got)
	}

	duration := findMetric(rm, "parrot.backend.duration")
	if duration == nil {
		t.Fatal("parrot.backend.duration not found")
	}
	hist, ok := duration.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatal("parrot.backend.duration is not a histogram")
	}
	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
	}
	if count != 3 {
		t.Errorf("duration samples = %d, want 3", count)
	}
}

func TestRecordVideoPollAndCache(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordVideoPoll(ctx)
	m.RecordVideoPoll(ctx)
	m.RecordSpeechCache(ctx, "hit")
	m.RecordSpeechCache(ctx, "miss")
	m.RecordSpeechCache(ctx, "hit")

	rm := collect(t, reader)

	polls := findMetric(rm, "parrot.video.polls")
	if polls == nil {
		t.Fatal("parrot.video.polls not found")
	}
	sum := polls.Data.(metricdata.Sum[int64])
	if len(sum.DataPoints) != 1 || sum.DataPoints[0].Value != 2 {
		t.Errorf("video polls = %+v, want one point with value 2", sum.DataPoints)
	}

	cache := findMetric(rm, "parrot.speech.cache")
	if cache == nil {
		t.Fatal("parrot.speech.cache not found")
	}
	if got := sumByAttr(t, cache, "result", "hit"); got != 2 {
		t.Errorf("cache hits = %d, want 2", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	m.RecordBackend(ctx, "synthesize", "ok", time.Second)
	m.RecordVideoPoll(ctx)
	m.RecordSpeechCache(ctx, "hit")
}
