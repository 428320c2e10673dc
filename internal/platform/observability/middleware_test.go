package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hanko-field/storefront/internal/platform/auth"
	"github.com/hanko-field/storefront/internal/platform/requestctx"
)

func TestRequestLoggerRecordsStatusAndUser(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	authn := auth.NewAuthenticator(auth.VerifierFunc(func(context.Context, string) (*auth.Identity, error) {
		return &auth.Identity{UID: "user-5"}, nil
	}))
	handler := InjectLoggerMiddleware(logger)(RequestLoggerMiddleware()(authn.RequireAuth()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte("ok"))
	}))))

	req := httptest.NewRequest(http.MethodPost, "/cart/items", nil)
	req.Header.Set("Authorization", "Bearer tok")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	completed := logs.FilterMessage("request completed").All()
	if len(completed) != 1 {
		t.Fatalf("expected one completion entry, got %d", len(completed))
	}
	fields := completed[0].ContextMap()
	if fields["status"] != int64(http.StatusAccepted) {
		t.Fatalf("unexpected status field %v", fields["status"])
	}
	if fields["user_id"] != "user-5" {
		t.Fatalf("unexpected user_id field %v", fields["user_id"])
	}
	if fields["bytes"] != int64(2) {
		t.Fatalf("unexpected bytes field %v", fields["bytes"])
	}
}

func TestRecoveryMiddlewareWritesJSON500(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	handler := RecoveryMiddleware(zap.New(core))(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if logs.FilterMessage("panic recovered").Len() != 1 {
		t.Fatal("expected panic to be logged")
	}
}

func TestTraceMiddlewareContinuesIncomingTrace(t *testing.T) {
	const traceID = "4bf92f3577b34da6a3ce929d0e0e4736"
	var seen string
	handler := TraceMiddleware("storefront")(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = requestctx.TraceID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	req.Header.Set("traceparent", "00-"+traceID+"-00f067aa0ba902b7-01")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if seen != traceID {
		t.Fatalf("expected trace id %s, got %q", traceID, seen)
	}
}

func TestEventLoggerEmitsFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	hook := EventLogger(zap.New(core), "cart log")
	hook(context.Background(), "cart.add", map[string]any{"userId": "u1"})

	entries := logs.FilterMessage("cart log").All()
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	if entries[0].ContextMap()["event"] != "cart.add" || entries[0].ContextMap()["userId"] != "u1" {
		t.Fatalf("unexpected fields %v", entries[0].ContextMap())
	}
}
