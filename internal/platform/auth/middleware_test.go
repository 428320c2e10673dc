package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRequireAuthRejectsMissingHeader(t *testing.T) {
	a := NewAuthenticator(VerifierFunc(func(context.Context, string) (*Identity, error) {
		t.Fatal("verifier should not be called")
		return nil, nil
	}))

	rr := httptest.NewRecorder()
	a.RequireAuth()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler should not be called")
	})).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/cart", nil))

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestRequireAuthAttachesIdentity(t *testing.T) {
	a := NewAuthenticator(VerifierFunc(func(_ context.Context, token string) (*Identity, error) {
		if token != "tok-1" {
			t.Fatalf("unexpected token %q", token)
		}
		return &Identity{UID: "user-1", Roles: []string{RoleUser}}, nil
	}))

	var seen string
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set("Authorization", "bearer tok-1")
	a.RequireAuth()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = UserID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})).ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	if seen != "user-1" {
		t.Fatalf("expected identity user-1, got %q", seen)
	}
}

func TestRequireAuthEnforcesRoles(t *testing.T) {
	a := NewAuthenticator(VerifierFunc(func(context.Context, string) (*Identity, error) {
		return &Identity{UID: "user-1", Roles: []string{RoleUser}}, nil
	}))

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/products", nil)
	req.Header.Set("Authorization", "Bearer tok")
	a.RequireAuth(RoleAdmin)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler should not be called")
	})).ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
}

func TestRequireAuthMapsExpiredTokens(t *testing.T) {
	a := NewAuthenticator(VerifierFunc(func(context.Context, string) (*Identity, error) {
		return nil, ErrTokenExpired
	}))

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req.Header.Set("Authorization", "Bearer tok")
	a.RequireAuth()(http.NotFoundHandler()).ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestOptionalAuthContinuesAnonymously(t *testing.T) {
	a := NewAuthenticator(VerifierFunc(func(context.Context, string) (*Identity, error) {
		return nil, errors.New("boom")
	}))

	called := false
	req := httptest.NewRequest(http.MethodGet, "/search", nil)
	req.Header.Set("Authorization", "Bearer broken")
	a.OptionalAuth()(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		called = true
		if _, ok := IdentityFromContext(r.Context()); ok {
			t.Fatal("expected no identity")
		}
	})).ServeHTTP(httptest.NewRecorder(), req)

	if !called {
		t.Fatal("expected handler to run")
	}
}

func TestTokensRoundTrip(t *testing.T) {
	tokens, err := NewTokens("secret", WithTokenIssuer("test"))
	if err != nil {
		t.Fatalf("new tokens: %v", err)
	}
	raw, expires, err := tokens.Issue("42", "a@intimetec.com", []string{RoleUser, RoleAdmin})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if time.Until(expires) <= 23*time.Hour {
		t.Fatalf("expected roughly one day lifetime, got %s", time.Until(expires))
	}

	identity, err := tokens.Parse(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if identity.UID != "42" || !identity.IsAdmin() || identity.Token != raw {
		t.Fatalf("unexpected identity %+v", identity)
	}
}

func TestTokensRejectExpiredAndForeign(t *testing.T) {
	past := func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }
	tokens, _ := NewTokens("secret", WithTokenClock(past))
	raw, _, err := tokens.Issue("42", "", nil)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := tokens.Parse(raw); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}

	other, _ := NewTokens("other-secret")
	foreign, _, _ := other.Issue("42", "", nil)
	if _, err := tokens.Parse(foreign); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}

func TestNewTokensRequiresSecret(t *testing.T) {
	if _, err := NewTokens("  "); err == nil {
		t.Fatal("expected error for empty secret")
	}
}
