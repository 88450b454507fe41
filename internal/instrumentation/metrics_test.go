package instrumentation

import (
	"context"
	"net/http"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m, err := NewMetrics(provider.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	return rm
}

func metricNames(rm metricdata.ResourceMetrics) map[string]bool {
	names := make(map[string]bool)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			names[m.Name] = true
		}
	}
	return names
}

func TestRecordHTTPRequest(t *testing.T) {
	m, reader := newTestMetrics(t)

	m.RecordHTTPRequest(context.Background(), http.MethodGet, "/calendar/four-days", 200, 42*time.Millisecond)

	names := metricNames(collect(t, reader))
	if !names["http_requests_total"] {
		t.Error("http_requests_total not recorded")
	}
	if !names["http_request_duration_seconds"] {
		t.Error("http_request_duration_seconds not recorded")
	}
}

func TestRecordDomainMetrics(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordCalendarOperation(ctx, "four_day_view", StatusSuccess, 120*time.Millisecond)
	m.RecordOAuthAuth(ctx, StatusSuccess)
	m.RecordAnnotationRequest(ctx, ResultHit)
	m.RecordGeneration(ctx, StatusSuccess, time.Second)
	m.IncrementActiveSessions(ctx)
	m.DecrementActiveSessions(ctx)

	names := metricNames(collect(t, reader))
	for _, want := range []string{
		"calendar_operations_total",
		"calendar_operation_duration_seconds",
		"oauth_auth_total",
		"annotation_requests_total",
		"generation_duration_seconds",
		"active_sessions",
	} {
		if !names[want] {
			t.Errorf("metric %s not recorded", want)
		}
	}
}

func TestNoOpMetricsDoNotPanic(t *testing.T) {
	m := &Metrics{}
	ctx := context.Background()

	m.RecordHTTPRequest(ctx, http.MethodPost, "/ai", 500, time.Millisecond)
	m.RecordCalendarOperation(ctx, "window", StatusError, time.Millisecond)
	m.RecordOAuthAuth(ctx, "failure")
	m.RecordAnnotationRequest(ctx, ResultError)
	m.RecordGeneration(ctx, StatusError, time.Millisecond)
	m.IncrementActiveSessions(ctx)
	m.DecrementActiveSessions(ctx)
}
