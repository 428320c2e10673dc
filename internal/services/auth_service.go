package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/hanko-field/storefront/internal/platform/auth"
	"github.com/hanko-field/storefront/internal/platform/persistence"
	"github.com/hanko-field/storefront/internal/state"
)

var (
	// ErrAuthInvalidInput indicates malformed credentials.
	ErrAuthInvalidInput = errors.New("auth service: invalid input")
	// ErrAuthUserNotFound indicates no account matches the email.
	ErrAuthUserNotFound = errors.New("auth service: user not found")
	// ErrAuthIncorrectPassword indicates the password did not match.
	ErrAuthIncorrectPassword = errors.New("auth service: incorrect password")
	// ErrAuthFailed indicates the remote user API could not complete the request.
	ErrAuthFailed = errors.New("auth service: request failed")
	// ErrAuthSessionRevoked indicates the token is valid but its session was signed out.
	ErrAuthSessionRevoked = errors.New("auth service: session revoked")
	// ErrAuthUnavailable indicates session state could not be read or written.
	ErrAuthUnavailable = errors.New("auth service: unavailable")
)

// AuthServiceDeps bundles collaborators required to construct an AuthService.
type AuthServiceDeps struct {
	Catalog     Catalog
	Store       persistence.Store
	Tokens      *auth.Tokens
	AdminDomain string
	Expiry      Expiry
	Logger      func(context.Context, string, map[string]any)
}

type authService struct {
	catalog     Catalog
	effects     effectRunner
	tokens      *auth.Tokens
	adminDomain string
	logger      func(context.Context, string, map[string]any)
}

// NewAuthService wires dependencies into an AuthService implementation.
func NewAuthService(deps AuthServiceDeps) (AuthService, error) {
	if deps.Catalog == nil {
		return nil, errors.New("auth service: catalog is required")
	}
	if deps.Store == nil {
		return nil, errors.New("auth service: store is required")
	}
	if deps.Tokens == nil {
		return nil, errors.New("auth service: tokens are required")
	}
	expiry := deps.Expiry
	if expiry.Session <= 0 {
		expiry.Session = deps.Tokens.TTL()
	}
	logger := deps.Logger
	if logger == nil {
		logger = noopLogger
	}
	return &authService{
		catalog:     deps.Catalog,
		effects:     newEffectRunner(deps.Store, expiry),
		tokens:      deps.Tokens,
		adminDomain: strings.TrimSpace(deps.AdminDomain),
		logger:      logger,
	}, nil
}

func (s *authService) Login(ctx context.Context, creds Credentials) (state.Auth, error) {
	email, err := normalizeEmail(creds.Email)
	if err != nil {
		return state.AuthFailed(state.MessageLoginFailed), err
	}
	if creds.Password == "" {
		return state.AuthFailed(state.MessageLoginFailed), fmt.Errorf("%w: password is required", ErrAuthInvalidInput)
	}

	users, err := s.catalog.FindUserByEmail(ctx, email)
	if err != nil {
		s.logger(ctx, "auth.login_failed", map[string]any{"error": err.Error()})
		return state.AuthFailed(failureMessage(err, state.MessageLoginFailed)), fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	if len(users) == 0 {
		return state.AuthFailed(state.MessageUserNotFound), ErrAuthUserNotFound
	}
	user := users[0]
	if subtle.ConstantTimeCompare([]byte(user.Password), []byte(creds.Password)) != 1 {
		return state.AuthFailed(state.MessageIncorrectPassword), ErrAuthIncorrectPassword
	}
	return s.startSession(ctx, user, state.MessageLoginFailed)
}

func (s *authService) Signup(ctx context.Context, creds Credentials) (state.Auth, error) {
	email, err := normalizeEmail(creds.Email)
	if err != nil {
		return state.AuthFailed(state.MessageSignupFailed), err
	}
	creds.Email = email
	creds.Name = strings.TrimSpace(creds.Name)
	if creds.Name == "" {
		return state.AuthFailed(state.MessageSignupFailed), fmt.Errorf("%w: name is required", ErrAuthInvalidInput)
	}
	if creds.Password == "" {
		return state.AuthFailed(state.MessageSignupFailed), fmt.Errorf("%w: password is required", ErrAuthInvalidInput)
	}

	user, err := s.catalog.CreateUser(ctx, creds)
	if err != nil {
		s.logger(ctx, "auth.signup_failed", map[string]any{"error": err.Error()})
		return state.AuthFailed(failureMessage(err, state.MessageSignupFailed)), fmt.Errorf("%w: %v", ErrAuthFailed, err)
	}
	return s.startSession(ctx, user, state.MessageSignupFailed)
}

func (s *authService) startSession(ctx context.Context, user User, failure string) (state.Auth, error) {
	if strings.TrimSpace(user.ID) == "" {
		return state.AuthFailed(failure), fmt.Errorf("%w: user record has no id", ErrAuthFailed)
	}
	roles := []string{auth.RoleUser}
	if state.IsAdminEmail(user.Email, s.adminDomain) {
		roles = append(roles, auth.RoleAdmin)
	}
	token, _, err := s.tokens.Issue(user.ID, user.Email, roles)
	if err != nil {
		return state.AuthFailed(failure), fmt.Errorf("%w: issue token: %v", ErrAuthFailed, err)
	}

	session, effects := state.LoginSucceeded(user, token, s.adminDomain)
	if err := s.effects.apply(ctx, effects); err != nil {
		return state.AuthFailed(failure), translateStoreError(err, ErrAuthUnavailable, nil)
	}
	s.logger(ctx, "auth.session_started", map[string]any{"userId": user.ID, "admin": session.IsAdmin})
	return session, nil
}

func (s *authService) Logout(ctx context.Context, identity *auth.Identity) (state.Auth, error) {
	if identity == nil || strings.TrimSpace(identity.UID) == "" {
		return state.Auth{}, nil
	}
	next, effects := state.Logout(state.Auth{IsAuthenticated: true, User: User{ID: identity.UID}})
	if err := s.effects.apply(ctx, effects); err != nil {
		return state.Auth{}, translateStoreError(err, ErrAuthUnavailable, nil)
	}
	s.logger(ctx, "auth.logout", map[string]any{"userId": identity.UID})
	return next, nil
}

// Session rebuilds the signed-in state from the persisted user record.
func (s *authService) Session(ctx context.Context, identity *auth.Identity) (state.Auth, error) {
	if identity == nil || strings.TrimSpace(identity.UID) == "" {
		return state.Auth{}, nil
	}
	key, _ := persistence.UserKey(identity.UID)
	var user User
	found, err := s.effects.load(ctx, key, &user)
	if err != nil {
		return state.Auth{}, translateStoreError(err, ErrAuthUnavailable, nil)
	}
	if !found {
		return state.Auth{}, ErrAuthSessionRevoked
	}
	return state.Auth{
		IsAuthenticated: true,
		User:            user.Public(),
		Token:           identity.Token,
		IsAdmin:         user.IsAdmin,
	}, nil
}

// Verify parses the bearer token and requires it to match the persisted session token.
func (s *authService) Verify(ctx context.Context, raw string) (*auth.Identity, error) {
	identity, err := s.tokens.Parse(raw)
	if err != nil {
		return nil, err
	}
	key, err := persistence.TokenKey(identity.UID)
	if err != nil {
		return nil, auth.ErrTokenInvalid
	}
	var stored string
	found, err := s.effects.load(ctx, key, &stored)
	if err != nil {
		return nil, translateStoreError(err, ErrAuthUnavailable, nil)
	}
	if !found || subtle.ConstantTimeCompare([]byte(stored), []byte(identity.Token)) != 1 {
		return nil, ErrAuthSessionRevoked
	}
	return identity, nil
}

// normalizeEmail trims and validates raw. Casing is kept because the user API matches
// emails exactly.
func normalizeEmail(raw string) (string, error) {
	email := strings.TrimSpace(raw)
	if email == "" {
		return "", fmt.Errorf("%w: email is required", ErrAuthInvalidInput)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", fmt.Errorf("%w: email is invalid", ErrAuthInvalidInput)
	}
	return email, nil
}
