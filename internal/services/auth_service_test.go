package services

import (
	"context"
	"errors"
	"testing"

	"github.com/hanko-field/storefront/internal/catalog"
	"github.com/hanko-field/storefront/internal/platform/auth"
	"github.com/hanko-field/storefront/internal/platform/persistence"
	"github.com/hanko-field/storefront/internal/state"
)

func newTestAuthService(t *testing.T, cat *stubCatalog, store persistence.Store) AuthService {
	t.Helper()
	tokens, err := auth.NewTokens("test-secret")
	if err != nil {
		t.Fatalf("new tokens: %v", err)
	}
	svc, err := NewAuthService(AuthServiceDeps{
		Catalog:     cat,
		Store:       store,
		Tokens:      tokens,
		AdminDomain: "@intimetec.com",
	})
	if err != nil {
		t.Fatalf("new auth service: %v", err)
	}
	return svc
}

func usersByEmail(users ...User) func(context.Context, string) ([]User, error) {
	return func(_ context.Context, email string) ([]User, error) {
		out := []User{}
		for _, u := range users {
			if u.Email == email {
				out = append(out, u)
			}
		}
		return out, nil
	}
}

func TestAuthServiceLoginAdmin(t *testing.T) {
	store := persistence.NewMemoryStore()
	cat := &stubCatalog{findUser: usersByEmail(User{ID: "u1", Name: "Admin", Email: "Admin@InTimeTec.com", Password: "secret"})}
	svc := newTestAuthService(t, cat, store)
	ctx := context.Background()

	session, err := svc.Login(ctx, Credentials{Email: " Admin@InTimeTec.com ", Password: "secret"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !session.IsAuthenticated || !session.IsAdmin || session.Token == "" {
		t.Fatalf("unexpected session %+v", session)
	}
	if session.User.Password != "" {
		t.Fatal("password leaked into session")
	}

	identity, err := svc.Verify(ctx, session.Token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if identity.UID != "u1" || !identity.IsAdmin() {
		t.Fatalf("unexpected identity %+v", identity)
	}

	var stored User
	key, _ := persistence.UserKey("u1")
	if found, err := store.Load(ctx, key, &stored); err != nil || !found {
		t.Fatalf("expected persisted user record, found=%v err=%v", found, err)
	}
	if stored.Password != "" || !stored.IsAdmin {
		t.Fatalf("unexpected persisted user %+v", stored)
	}

	restored, err := svc.Session(ctx, identity)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	if !restored.IsAuthenticated || restored.User.ID != "u1" || !restored.IsAdmin {
		t.Fatalf("unexpected restored session %+v", restored)
	}
}

func TestAuthServiceLoginKeepsEmailCasing(t *testing.T) {
	var queried string
	lookup := usersByEmail(User{ID: "u7", Email: "Alice@Example.com", Password: "pw"})
	cat := &stubCatalog{findUser: func(ctx context.Context, email string) ([]User, error) {
		queried = email
		return lookup(ctx, email)
	}}
	svc := newTestAuthService(t, cat, persistence.NewMemoryStore())

	session, err := svc.Login(context.Background(), Credentials{Email: " Alice@Example.com ", Password: "pw"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if queried != "Alice@Example.com" {
		t.Fatalf("expected the email as typed, got %q", queried)
	}
	if !session.IsAuthenticated || session.User.ID != "u7" || session.IsAdmin {
		t.Fatalf("unexpected session %+v", session)
	}
}

func TestAuthServiceLoginFailures(t *testing.T) {
	cat := &stubCatalog{findUser: usersByEmail(User{ID: "u2", Email: "shopper@example.com", Password: "hunter2"})}
	svc := newTestAuthService(t, cat, persistence.NewMemoryStore())
	ctx := context.Background()

	cases := []struct {
		name    string
		creds   Credentials
		wantErr error
		wantMsg string
	}{
		{"unknown email", Credentials{Email: "nobody@example.com", Password: "x"}, ErrAuthUserNotFound, state.MessageUserNotFound},
		{"wrong password", Credentials{Email: "shopper@example.com", Password: "nope"}, ErrAuthIncorrectPassword, state.MessageIncorrectPassword},
		{"malformed email", Credentials{Email: "not-an-email", Password: "x"}, ErrAuthInvalidInput, state.MessageLoginFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			session, err := svc.Login(ctx, tc.creds)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
			if session.IsAuthenticated || session.Error != tc.wantMsg {
				t.Fatalf("unexpected session %+v", session)
			}
		})
	}
}

func TestAuthServiceLoginRemoteFailure(t *testing.T) {
	cat := &stubCatalog{findUser: func(context.Context, string) ([]User, error) {
		return nil, &catalog.RemoteError{Op: "find_user", Status: 502, Message: "upstream down"}
	}}
	session, err := newTestAuthService(t, cat, persistence.NewMemoryStore()).Login(context.Background(), Credentials{Email: "a@b.co", Password: "x"})
	if !errors.Is(err, ErrAuthFailed) {
		t.Fatalf("expected ErrAuthFailed, got %v", err)
	}
	if session.Error != "upstream down" {
		t.Fatalf("expected server message, got %q", session.Error)
	}
}

func TestAuthServiceSignup(t *testing.T) {
	var received Credentials
	cat := &stubCatalog{createUser: func(_ context.Context, creds Credentials) (User, error) {
		received = creds
		return User{ID: "u9", Name: creds.Name, Email: creds.Email}, nil
	}}
	svc := newTestAuthService(t, cat, persistence.NewMemoryStore())

	session, err := svc.Signup(context.Background(), Credentials{Name: " Grace ", Email: "Grace@Example.com", Password: "pw"})
	if err != nil {
		t.Fatalf("signup: %v", err)
	}
	if received.Email != "Grace@Example.com" || received.Name != "Grace" {
		t.Fatalf("expected normalised credentials, got %+v", received)
	}
	if !session.IsAuthenticated || session.IsAdmin || session.User.ID != "u9" {
		t.Fatalf("unexpected session %+v", session)
	}

	failing := newTestAuthService(t, &stubCatalog{}, persistence.NewMemoryStore())
	failed, err := failing.Signup(context.Background(), Credentials{Name: "G", Email: "g@example.com", Password: "pw"})
	if !errors.Is(err, ErrAuthFailed) || failed.Error != state.MessageSignupFailed {
		t.Fatalf("expected signup failure, got %+v / %v", failed, err)
	}
}

func TestAuthServiceLogoutRevokesToken(t *testing.T) {
	store := persistence.NewMemoryStore()
	cat := &stubCatalog{findUser: usersByEmail(User{ID: "u2", Email: "shopper@example.com", Password: "hunter2"})}
	svc := newTestAuthService(t, cat, store)
	ctx := context.Background()

	session, err := svc.Login(ctx, Credentials{Email: "shopper@example.com", Password: "hunter2"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	identity, err := svc.Verify(ctx, session.Token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}

	signedOut, err := svc.Logout(ctx, identity)
	if err != nil {
		t.Fatalf("logout: %v", err)
	}
	if signedOut.IsAuthenticated || signedOut.Token != "" {
		t.Fatalf("expected signed-out sentinel, got %+v", signedOut)
	}
	if _, err := svc.Verify(ctx, session.Token); !errors.Is(err, ErrAuthSessionRevoked) {
		t.Fatalf("expected ErrAuthSessionRevoked, got %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("expected session keys removed, %d remain", store.Len())
	}
}

func TestAuthServiceVerifyRejectsGarbage(t *testing.T) {
	svc := newTestAuthService(t, &stubCatalog{}, persistence.NewMemoryStore())
	if _, err := svc.Verify(context.Background(), "not-a-token"); !errors.Is(err, auth.ErrTokenInvalid) {
		t.Fatalf("expected ErrTokenInvalid, got %v", err)
	}
}
