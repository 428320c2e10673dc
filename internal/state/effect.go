// Package state holds the pure transition functions for every storefront store.
// Transitions never perform I/O: persistence is described by the returned effects,
// which the caller applies after a successful transition.
package state

import (
	"github.com/hanko-field/storefront/internal/platform/persistence"
)

// EffectOp is the persistence action an Effect asks for.
type EffectOp int

const (
	EffectSave EffectOp = iota + 1
	EffectRemove
)

func (op EffectOp) String() string {
	switch op {
	case EffectSave:
		return "save"
	case EffectRemove:
		return "remove"
	default:
		return "unknown"
	}
}

// Lifetime selects the expiry policy applied to a saved value.
type Lifetime int

const (
	// LifetimeState is used for carts, wishlists, history, addresses and orders (7 days by default).
	LifetimeState Lifetime = iota
	// LifetimeSession is used for tokens and the signed-in user record (1 day by default).
	LifetimeSession
)

// Effect is a persistence side effect produced by a transition.
type Effect struct {
	Op       EffectOp
	Key      string
	Value    any
	Lifetime Lifetime
}

func save(key string, value any) Effect {
	return Effect{Op: EffectSave, Key: key, Value: value, Lifetime: LifetimeState}
}

func saveSession(key string, value any) Effect {
	return Effect{Op: EffectSave, Key: key, Value: value, Lifetime: LifetimeSession}
}

func remove(key string) Effect {
	return Effect{Op: EffectRemove, Key: key}
}

// Key helpers below are only called with a bound, non-empty user id.

func cartKey(userID string) string {
	key, _ := persistence.CartKey(userID)
	return key
}

func wishlistKey(userID string) string {
	key, _ := persistence.WishlistKey(userID)
	return key
}

func historyKey(userID string) string {
	key, _ := persistence.AdminHistoryKey(userID)
	return key
}

func addressKey(userID string) string {
	key, _ := persistence.AddressKey(userID)
	return key
}

func ordersKey(userID string) string {
	key, _ := persistence.OrdersKey(userID)
	return key
}

func tokenKey(userID string) string {
	key, _ := persistence.TokenKey(userID)
	return key
}

func userRecordKey(userID string) string {
	key, _ := persistence.UserKey(userID)
	return key
}
