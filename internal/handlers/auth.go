package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hanko-field/storefront/internal/platform/auth"
	"github.com/hanko-field/storefront/internal/platform/httpx"
	"github.com/hanko-field/storefront/internal/services"
	"github.com/hanko-field/storefront/internal/state"
)

const maxAuthBodySize = 4 * 1024

// AuthHandlers exposes login, signup and session endpoints.
type AuthHandlers struct {
	authn *auth.Authenticator
	auth  services.AuthService
}

// NewAuthHandlers constructs the session handlers.
func NewAuthHandlers(authn *auth.Authenticator, svc services.AuthService) *AuthHandlers {
	return &AuthHandlers{authn: authn, auth: svc}
}

// Routes wires the /auth endpoints onto the provided router.
func (h *AuthHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/login", h.login)
	r.Post("/signup", h.signup)
	r.Group(func(private chi.Router) {
		if h.authn != nil {
			private.Use(h.authn.RequireAuth())
		}
		private.Post("/logout", h.logout)
		private.Get("/me", h.me)
	})
}

type credentialsRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandlers) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.auth == nil {
		writeServiceUnavailable(ctx, w, "auth")
		return
	}
	var req credentialsRequest
	if !decodeBody(w, r, maxAuthBodySize, &req) {
		return
	}
	session, err := h.auth.Login(ctx, services.Credentials{Email: req.Email, Password: req.Password})
	if err != nil {
		writeAuthError(ctx, w, session, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, session)
}

func (h *AuthHandlers) signup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.auth == nil {
		writeServiceUnavailable(ctx, w, "auth")
		return
	}
	var req credentialsRequest
	if !decodeBody(w, r, maxAuthBodySize, &req) {
		return
	}
	session, err := h.auth.Signup(ctx, services.Credentials{Name: req.Name, Email: req.Email, Password: req.Password})
	if err != nil {
		writeAuthError(ctx, w, session, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, session)
}

func (h *AuthHandlers) logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.auth == nil {
		writeServiceUnavailable(ctx, w, "auth")
		return
	}
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}
	session, err := h.auth.Logout(ctx, identity)
	if err != nil {
		writeAuthError(ctx, w, session, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, session)
}

func (h *AuthHandlers) me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.auth == nil {
		writeServiceUnavailable(ctx, w, "auth")
		return
	}
	identity, ok := requireIdentity(ctx, w)
	if !ok {
		return
	}
	session, err := h.auth.Session(ctx, identity)
	if err != nil {
		writeAuthError(ctx, w, session, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, session)
}

func writeAuthError(ctx context.Context, w http.ResponseWriter, session state.Auth, err error) {
	message := session.Error
	if message == "" {
		message = err.Error()
	}
	switch {
	case errors.Is(err, services.ErrAuthInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrAuthUserNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("user_not_found", message, http.StatusNotFound))
	case errors.Is(err, services.ErrAuthIncorrectPassword):
		httpx.WriteError(ctx, w, httpx.NewError("incorrect_password", message, http.StatusUnauthorized))
	case errors.Is(err, services.ErrAuthSessionRevoked):
		httpx.WriteError(ctx, w, httpx.NewError("session_revoked", "session has been signed out", http.StatusUnauthorized))
	case errors.Is(err, services.ErrAuthFailed):
		httpx.WriteError(ctx, w, httpx.NewError("auth_failed", message, http.StatusBadGateway))
	case errors.Is(err, services.ErrAuthUnavailable):
		writeServiceUnavailable(ctx, w, "auth")
	default:
		httpx.WriteError(ctx, w, httpx.NewError("auth_error", "authentication failed", http.StatusInternalServerError))
	}
}
