package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHealthHandlersHealthz(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	now := start.Add(30 * time.Second)
	handlers := NewHealthHandlers(
		WithHealthBuildInfo(BuildInfo{Version: "1.0.0", Environment: "prod", StartedAt: start}),
		WithHealthClock(func() time.Time { return now }),
	)

	rr := httptest.NewRecorder()
	handlers.Healthz(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var body map[string]any
	decodeJSON(t, rr, &body)
	if body["status"] != healthStatusOK {
		t.Fatalf("expected status ok, got %v", body["status"])
	}
	if body["version"] != "1.0.0" {
		t.Fatalf("expected version 1.0.0, got %v", body["version"])
	}
	if body["environment"] != "prod" {
		t.Fatalf("expected environment prod, got %v", body["environment"])
	}
	if body["uptime"] != "30s" {
		t.Fatalf("expected uptime 30s, got %v", body["uptime"])
	}
}

func TestHealthHandlersReadyzSuccess(t *testing.T) {
	handlers := NewHealthHandlers(
		WithHealthCheck("persistence", func(context.Context) error { return nil }),
		WithHealthCheck("catalog", func(context.Context) error { return nil }),
	)

	rr := httptest.NewRecorder()
	handlers.Readyz(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var body readyzResponse
	decodeJSON(t, rr, &body)
	if body.Status != healthStatusOK || len(body.Checks) != 2 {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestHealthHandlersReadyzFailure(t *testing.T) {
	handlers := NewHealthHandlers(
		WithHealthCheck("persistence", func(context.Context) error { return errors.New("redis down") }),
		WithHealthCheck("catalog", func(context.Context) error { return nil }),
		WithReadinessTimeout(time.Second),
	)

	rr := httptest.NewRecorder()
	handlers.Readyz(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rr.Code)
	}
	var body readyzResponse
	decodeJSON(t, rr, &body)
	if body.Status != healthStatusDegraded {
		t.Fatalf("expected degraded, got %q", body.Status)
	}
	if body.Checks["persistence"].Error != "redis down" {
		t.Fatalf("expected persistence error, got %+v", body.Checks["persistence"])
	}
	if body.Checks["catalog"].Status != healthStatusOK {
		t.Fatalf("expected catalog ok, got %+v", body.Checks["catalog"])
	}
	if len(body.Details) != 1 || body.Details[0] != "persistence: redis down" {
		t.Fatalf("unexpected details %v", body.Details)
	}
}

func TestHealthHandlersReadyzBoundsChecks(t *testing.T) {
	handlers := NewHealthHandlers(
		WithHealthCheck("slow", func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}),
		WithReadinessTimeout(10*time.Millisecond),
	)

	rr := httptest.NewRecorder()
	handlers.Readyz(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rr.Code)
	}
}
