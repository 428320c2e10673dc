package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	// DefaultTTL is how long per-user state survives without being rewritten.
	DefaultTTL = 7 * 24 * time.Hour
	// TokenTTL bounds persisted session tokens.
	TokenTTL = 24 * time.Hour
)

// Store persists JSON-serialisable values under string keys with an expiry.
// Load reports false for keys that were never set or have expired.
type Store interface {
	Save(ctx context.Context, key string, value any, ttl time.Duration) error
	Load(ctx context.Context, key string, dest any) (bool, error)
	Remove(ctx context.Context, key string) error
}

// Sweeper is implemented by backends that need explicit expiry cleanup.
type Sweeper interface {
	CleanupExpired(ctx context.Context, now time.Time, limit int) (int, error)
}

// Pinger is implemented by backends that can report readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

var (
	// ErrInvalidKey is returned when a key or user id is blank.
	ErrInvalidKey = errors.New("persistence: invalid key")
)

const (
	cartPrefix         = "cart_"
	wishlistPrefix     = "wishlist_"
	adminHistoryPrefix = "adminHistory_"
	addressPrefix      = "userAddress_"
	ordersPrefix       = "orders_"
	tokenPrefix        = "token_"
	userPrefix         = "user_"
)

// CartKey returns the key holding a user's cart items.
func CartKey(userID string) (string, error) { return userKey(cartPrefix, userID) }

// WishlistKey returns the key holding a user's wishlist.
func WishlistKey(userID string) (string, error) { return userKey(wishlistPrefix, userID) }

// AdminHistoryKey returns the key holding an admin's product history.
func AdminHistoryKey(userID string) (string, error) { return userKey(adminHistoryPrefix, userID) }

// AddressKey returns the key holding a user's saved address.
func AddressKey(userID string) (string, error) { return userKey(addressPrefix, userID) }

// OrdersKey returns the key holding a user's order list.
func OrdersKey(userID string) (string, error) { return userKey(ordersPrefix, userID) }

// TokenKey returns the key holding a user's session token.
func TokenKey(userID string) (string, error) { return userKey(tokenPrefix, userID) }

// UserKey returns the key holding a user's public record.
func UserKey(userID string) (string, error) { return userKey(userPrefix, userID) }

func userKey(prefix, userID string) (string, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return "", fmt.Errorf("%w: user id is required", ErrInvalidKey)
	}
	return prefix + userID, nil
}

func normalizeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", ErrInvalidKey
	}
	return key, nil
}

func normalizeTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return DefaultTTL
	}
	return ttl
}

func encode(op string, value any) ([]byte, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, &Error{Op: op, Err: fmt.Errorf("encode value: %w", err)}
	}
	return data, nil
}

func decode(op string, data []byte, dest any) error {
	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return &Error{Op: op, Err: fmt.Errorf("decode value: %w", err)}
	}
	return nil
}

// Error wraps backend failures with the operation that produced them.
type Error struct {
	Op          string
	Err         error
	Unavailable bool
	Conflict    bool
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return "persistence: " + e.Op
	}
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsNotFound is always false; absent keys are reported by Load, not as errors.
func (e *Error) IsNotFound() bool { return false }

// IsConflict reports a write conflict in the backend.
func (e *Error) IsConflict() bool { return e != nil && e.Conflict }

// IsUnavailable reports a transient backend failure.
func (e *Error) IsUnavailable() bool { return e != nil && e.Unavailable }
