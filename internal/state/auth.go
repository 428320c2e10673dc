package state

import (
	"strings"

	"github.com/hanko-field/storefront/internal/domain"
)

// Auth messages surfaced to users.
const (
	MessageUserNotFound      = "User not found"
	MessageIncorrectPassword = "Incorrect password"
	MessageLoginFailed       = "Login failed"
	MessageSignupFailed      = "Signup failed"
)

// Auth is the session slice. The zero value is the signed-out sentinel.
type Auth struct {
	IsAuthenticated bool        `json:"isAuthenticated"`
	User            domain.User `json:"user"`
	Token           string      `json:"token"`
	IsAdmin         bool        `json:"isAdmin"`
	Error           string      `json:"error"`
}

// IsAdminEmail reports whether email ends with the administrator domain suffix.
func IsAdminEmail(email, suffix string) bool {
	suffix = strings.ToLower(strings.TrimSpace(suffix))
	if suffix == "" {
		return false
	}
	return strings.HasSuffix(strings.ToLower(strings.TrimSpace(email)), suffix)
}

// LoginSucceeded binds the session and persists the token and the password-free user record.
func LoginSucceeded(user domain.User, token, adminSuffix string) (Auth, []Effect) {
	public := user.Public()
	public.IsAdmin = IsAdminEmail(public.Email, adminSuffix)
	next := Auth{
		IsAuthenticated: true,
		User:            public,
		Token:           token,
		IsAdmin:         public.IsAdmin,
	}
	if strings.TrimSpace(public.ID) == "" {
		return next, nil
	}
	return next, []Effect{
		saveSession(tokenKey(public.ID), token),
		saveSession(userRecordKey(public.ID), public),
	}
}

// AuthFailed records message and leaves the session signed out.
func AuthFailed(message string) Auth {
	return Auth{Error: message}
}

// Logout returns the signed-out sentinel and removes the persisted session of a.
func Logout(a Auth) (Auth, []Effect) {
	userID := strings.TrimSpace(a.User.ID)
	if userID == "" {
		return Auth{}, nil
	}
	return Auth{}, []Effect{remove(tokenKey(userID)), remove(userRecordKey(userID))}
}
