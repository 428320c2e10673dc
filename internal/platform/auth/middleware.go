package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/hanko-field/storefront/internal/platform/httpx"
)

const defaultVerifyTimeout = 5 * time.Second

// Verifier resolves a bearer token into an identity. Implementations typically check the
// token signature and that the session has not been logged out.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// VerifierFunc adapts a function to Verifier.
type VerifierFunc func(ctx context.Context, token string) (*Identity, error)

// Verify implements Verifier.
func (f VerifierFunc) Verify(ctx context.Context, token string) (*Identity, error) {
	return f(ctx, token)
}

// Authenticator turns bearer tokens into request identities.
type Authenticator struct {
	verifier Verifier
	timeout  time.Duration
}

// Option customises Authenticator.
type Option func(*Authenticator)

// WithVerifyTimeout bounds the time spent verifying a token.
func WithVerifyTimeout(d time.Duration) Option {
	return func(a *Authenticator) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// NewAuthenticator constructs an Authenticator backed by verifier.
func NewAuthenticator(verifier Verifier, opts ...Option) *Authenticator {
	a := &Authenticator{verifier: verifier, timeout: defaultVerifyTimeout}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

// RequireAuth rejects requests without a valid session. When roles are given the identity
// must carry at least one of them.
func (a *Authenticator) RequireAuth(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "authorization header missing or invalid", http.StatusUnauthorized))
				return
			}
			identity, err := a.verify(ctx, token)
			if err != nil {
				writeVerifyError(ctx, w, err)
				return
			}
			if len(roles) > 0 && !hasAnyRole(identity, roles) {
				httpx.WriteError(ctx, w, httpx.NewError("insufficient_role", "identity does not have required role", http.StatusForbidden))
				return
			}
			if sink, ok := w.(IdentitySink); ok {
				sink.RecordIdentity(identity)
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, identity)))
		})
	}
}

// OptionalAuth attaches an identity when a valid bearer token is present and otherwise
// continues anonymously.
func (a *Authenticator) OptionalAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				next.ServeHTTP(w, r)
				return
			}
			identity, err := a.verify(r.Context(), token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			if sink, ok := w.(IdentitySink); ok {
				sink.RecordIdentity(identity)
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

func (a *Authenticator) verify(ctx context.Context, token string) (*Identity, error) {
	if a == nil || a.verifier == nil {
		return nil, errors.New("auth: verifier not configured")
	}
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}
	identity, err := a.verifier.Verify(ctx, token)
	if err != nil {
		return nil, err
	}
	if identity == nil || strings.TrimSpace(identity.UID) == "" {
		return nil, ErrTokenInvalid
	}
	return identity, nil
}

func writeVerifyError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrTokenExpired):
		httpx.WriteError(ctx, w, httpx.NewError("token_expired", "session token expired", http.StatusUnauthorized))
	case errors.Is(err, ErrTokenInvalid):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_token", "session token invalid", http.StatusUnauthorized))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("unauthenticated", "session could not be verified", http.StatusUnauthorized))
	}
}

func bearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	if len(header) < len("Bearer ") || !strings.EqualFold(header[:len("Bearer ")], "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(header[len("Bearer "):])
	return token, token != ""
}

func hasAnyRole(identity *Identity, roles []string) bool {
	for _, role := range roles {
		if identity.HasRole(role) {
			return true
		}
	}
	return false
}
