package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const (
	defaultTokenTTL    = 24 * time.Hour
	defaultTokenIssuer = "storefront"
)

var (
	// ErrTokenExpired signals an expired session token.
	ErrTokenExpired = errors.New("auth: session token expired")
	// ErrTokenInvalid signals a malformed or wrongly signed session token.
	ErrTokenInvalid = errors.New("auth: session token invalid")

	errSecretRequired = errors.New("auth: token secret is required")
)

// Claims is the session token payload. Subject carries the user id.
type Claims struct {
	Email string   `json:"email,omitempty"`
	Roles []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// Tokens issues and parses HS256 session tokens.
type Tokens struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

// TokenOption customises Tokens.
type TokenOption func(*Tokens)

// WithTokenIssuer overrides the iss claim.
func WithTokenIssuer(issuer string) TokenOption {
	return func(t *Tokens) {
		if issuer = strings.TrimSpace(issuer); issuer != "" {
			t.issuer = issuer
		}
	}
}

// WithTokenTTL overrides the token lifetime.
func WithTokenTTL(ttl time.Duration) TokenOption {
	return func(t *Tokens) {
		if ttl > 0 {
			t.ttl = ttl
		}
	}
}

// WithTokenClock overrides the clock used for iat/exp.
func WithTokenClock(clock func() time.Time) TokenOption {
	return func(t *Tokens) {
		if clock != nil {
			t.now = clock
		}
	}
}

// NewTokens constructs a token issuer/parser for the shared secret.
func NewTokens(secret string, opts ...TokenOption) (*Tokens, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errSecretRequired
	}
	t := &Tokens{
		secret: []byte(secret),
		issuer: defaultTokenIssuer,
		ttl:    defaultTokenTTL,
		now:    time.Now,
		parser: jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	return t, nil
}

// TTL returns the token lifetime.
func (t *Tokens) TTL() time.Duration { return t.ttl }

// Issue signs a token for uid.
func (t *Tokens) Issue(uid, email string, roles []string) (string, time.Time, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return "", time.Time{}, fmt.Errorf("%w: subject is required", ErrTokenInvalid)
	}
	now := t.now().UTC()
	expires := now.Add(t.ttl)
	claims := Claims{
		Email: strings.TrimSpace(email),
		Roles: append([]string(nil), roles...),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, expires, nil
}

// Parse validates the signature, issuer and expiry and returns the identity it carries.
func (t *Tokens) Parse(raw string) (*Identity, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrTokenInvalid
	}
	claims := &Claims{}
	_, err := t.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if claims.Issuer != t.issuer {
		return nil, fmt.Errorf("%w: unexpected issuer %q", ErrTokenInvalid, claims.Issuer)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}
	return &Identity{
		UID:   claims.Subject,
		Email: claims.Email,
		Roles: claims.Roles,
		Token: raw,
	}, nil
}
