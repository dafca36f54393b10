package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

func TestSetupDisabledReturnsNoHandler(t *testing.T) {
	rec, handler, shutdown, err := Setup(context.Background(), TelemetryConfig{
		Enabled: false,
	})
	if err != nil {
		t.Fatalf("expected no error when disabled, got %v", err)
	}
	if rec == nil {
		t.Fatalf("expected recorder")
	}
	if handler != nil {
		t.Fatalf("expected nil handler when disabled")
	}
	if shutdown == nil {
		t.Fatalf("expected shutdown function")
	}
}

func TestSetupEnabledExportsThroughPrometheus(t *testing.T) {
	rec, handler, shutdown, err := Setup(context.Background(), TelemetryConfig{
		Enabled:     true,
		ServiceName: "nfl-scoreboard-service",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	defer func() { _ = shutdown(context.Background()) }()
	if rec == nil || handler == nil {
		t.Fatalf("expected recorder and handler when enabled")
	}

	rec.RecordHTTPRequest("GET", "/health", 200, time.Millisecond)
	rec.RecordFetch("scoreboard", time.Millisecond, errors.New("boom"))
	rec.RecordStrategy("api", "cache")
	rec.RecordLifecycle("active")
	rec.RecordLiveTick(time.Millisecond, nil)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rr.Body.String()
	for _, name := range []string{"scoreboard_fetches_total", "offline_cache_responses_total", "live_refresh_ticks_total"} {
		if !strings.Contains(body, name) {
			t.Fatalf("expected %s in exposition, got:\n%s", name, body)
		}
	}
}

func TestSetupPropagatesReaderErrors(t *testing.T) {
	orig := promReaderFactory
	defer func() { promReaderFactory = orig }()
	promReaderFactory = func() (sdkmetric.Reader, http.Handler, error) {
		return nil, nil, errors.New("registry broken")
	}

	if _, _, _, err := Setup(context.Background(), TelemetryConfig{Enabled: true}); err == nil {
		t.Fatalf("expected setup error")
	}
}
