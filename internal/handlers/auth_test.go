package handlers

import (
	"net/http"
	"testing"
)

func TestAuthHandlersLoginAdmin(t *testing.T) {
	stack := newTestStack(t)

	rr := stack.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    " admin@intimetec.com ",
		"password": "secret",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var session struct {
		IsAuthenticated bool   `json:"isAuthenticated"`
		IsAdmin         bool   `json:"isAdmin"`
		Token           string `json:"token"`
		User            struct {
			ID       string `json:"id"`
			Password string `json:"password"`
		} `json:"user"`
	}
	decodeJSON(t, rr, &session)
	if !session.IsAuthenticated || !session.IsAdmin || session.Token == "" {
		t.Fatalf("unexpected session %+v", session)
	}
	if session.User.ID != "u1" {
		t.Fatalf("expected user u1, got %q", session.User.ID)
	}
	if session.User.Password != "" {
		t.Fatal("password must not be returned")
	}
}

func TestAuthHandlersLoginFailures(t *testing.T) {
	stack := newTestStack(t)

	cases := []struct {
		name    string
		body    any
		status  int
		code    string
		message string
	}{
		{name: "unknown user", body: map[string]string{"email": "ghost@example.com", "password": "x"}, status: http.StatusNotFound, code: "user_not_found", message: "User not found"},
		{name: "wrong password", body: map[string]string{"email": "shopper@example.com", "password": "nope"}, status: http.StatusUnauthorized, code: "incorrect_password", message: "Incorrect password"},
		{name: "missing email", body: map[string]string{"password": "x"}, status: http.StatusBadRequest, code: "invalid_request"},
		{name: "unknown field", body: `{"email":"a@b.c","password":"x","admin":true}`, status: http.StatusBadRequest, code: "invalid_request"},
		{name: "empty body", body: "", status: http.StatusBadRequest, code: "invalid_request"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rr := stack.do(t, http.MethodPost, "/api/v1/auth/login", "", tc.body)
			if rr.Code != tc.status {
				t.Fatalf("expected status %d, got %d: %s", tc.status, rr.Code, rr.Body.String())
			}
			var payload map[string]any
			decodeJSON(t, rr, &payload)
			if payload["error"] != tc.code {
				t.Fatalf("expected code %q, got %v", tc.code, payload["error"])
			}
			if tc.message != "" && payload["message"] != tc.message {
				t.Fatalf("expected message %q, got %v", tc.message, payload["message"])
			}
		})
	}
}

func TestAuthHandlersSignupThenMe(t *testing.T) {
	stack := newTestStack(t)

	rr := stack.do(t, http.MethodPost, "/api/v1/auth/signup", "", map[string]string{
		"name":     "  New Shopper ",
		"email":    "New@Example.com",
		"password": "pw",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}
	var session struct {
		Token   string `json:"token"`
		IsAdmin bool   `json:"isAdmin"`
	}
	decodeJSON(t, rr, &session)
	if session.IsAdmin {
		t.Fatal("signup must not grant admin")
	}

	rr = stack.do(t, http.MethodGet, "/api/v1/auth/me", session.Token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var me struct {
		User struct {
			Name  string `json:"name"`
			Email string `json:"email"`
		} `json:"user"`
	}
	decodeJSON(t, rr, &me)
	if me.User.Name != "New Shopper" || me.User.Email != "New@Example.com" {
		t.Fatalf("unexpected user %+v", me.User)
	}
}

func TestAuthHandlersLogoutRevokesToken(t *testing.T) {
	stack := newTestStack(t)
	token := stack.login(t, "shopper@example.com", "hunter2")

	rr := stack.do(t, http.MethodPost, "/api/v1/auth/logout", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var session struct {
		IsAuthenticated bool   `json:"isAuthenticated"`
		Token           string `json:"token"`
	}
	decodeJSON(t, rr, &session)
	if session.IsAuthenticated || session.Token != "" {
		t.Fatalf("expected cleared session, got %+v", session)
	}

	rr = stack.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 after logout, got %d", rr.Code)
	}
}

func TestAuthHandlersMeRequiresToken(t *testing.T) {
	stack := newTestStack(t)

	rr := stack.do(t, http.MethodGet, "/api/v1/auth/me", "", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rr.Code)
	}
	rr = stack.do(t, http.MethodGet, "/api/v1/auth/me", "not-a-jwt", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rr.Code)
	}
}
