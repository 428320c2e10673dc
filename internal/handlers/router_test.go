package handlers

import (
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestNewRouter_DefaultMounts(t *testing.T) {
	router := NewRouter()

	t.Run("healthz", func(t *testing.T) {
		rr := serve(t, router, http.MethodGet, "/healthz", "", nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rr.Code)
		}
	})

	t.Run("readyz without checks", func(t *testing.T) {
		rr := serve(t, router, http.MethodGet, "/readyz", "", nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rr.Code)
		}
	})

	for _, path := range []string{"/api/v1/auth/login", "/api/v1/products", "/api/v1/cart/items", "/api/v1/search"} {
		t.Run("not implemented "+path, func(t *testing.T) {
			rr := serve(t, router, http.MethodGet, path, "", nil)
			if rr.Code != http.StatusNotImplemented {
				t.Fatalf("expected status 501, got %d", rr.Code)
			}
			if code := errorCode(t, rr); code != "not_implemented" {
				t.Fatalf("expected not_implemented, got %q", code)
			}
		})
	}

	t.Run("unknown route", func(t *testing.T) {
		rr := serve(t, router, http.MethodGet, "/nope", "", nil)
		if rr.Code != http.StatusNotFound {
			t.Fatalf("expected status 404, got %d", rr.Code)
		}
		if code := errorCode(t, rr); code != errorNotFoundCode {
			t.Fatalf("expected %s, got %q", errorNotFoundCode, code)
		}
	})
}

func TestNewRouter_CustomRegistrar(t *testing.T) {
	called := false
	router := NewRouter(WithSearchRoutes(func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			called = true
			w.WriteHeader(http.StatusNoContent)
		})
	}))

	rr := serve(t, router, http.MethodGet, "/api/v1/search", "", nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", rr.Code)
	}
	if !called {
		t.Fatal("expected custom registrar to handle the request")
	}
}

func TestNewRouter_AppliesMiddlewares(t *testing.T) {
	router := NewRouter(WithMiddlewares(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Test", "yes")
			next.ServeHTTP(w, r)
		})
	}))

	rr := serve(t, router, http.MethodGet, "/healthz", "", nil)
	if got := rr.Header().Get("X-Test"); got != "yes" {
		t.Fatalf("expected middleware header, got %q", got)
	}
}
