package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hanko-field/storefront/internal/platform/persistence"
	"github.com/hanko-field/storefront/internal/state"
)

// StoreError mirrors the classification methods exposed by persistence backends.
type StoreError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// Expiry maps effect lifetimes to store TTLs.
type Expiry struct {
	State   time.Duration
	Session time.Duration
}

func (e Expiry) ttl(lifetime state.Lifetime) time.Duration {
	switch lifetime {
	case state.LifetimeSession:
		if e.Session > 0 {
			return e.Session
		}
		return persistence.TokenTTL
	default:
		if e.State > 0 {
			return e.State
		}
		return persistence.DefaultTTL
	}
}

// effectRunner applies transition effects to the store in order.
type effectRunner struct {
	store  persistence.Store
	expiry Expiry
}

func newEffectRunner(store persistence.Store, expiry Expiry) effectRunner {
	return effectRunner{store: store, expiry: expiry}
}

func (r effectRunner) apply(ctx context.Context, effects []state.Effect) error {
	for _, effect := range effects {
		var err error
		switch effect.Op {
		case state.EffectSave:
			err = r.store.Save(ctx, effect.Key, effect.Value, r.expiry.ttl(effect.Lifetime))
		case state.EffectRemove:
			err = r.store.Remove(ctx, effect.Key)
		default:
			err = fmt.Errorf("unsupported effect %s", effect.Op)
		}
		if err != nil {
			return fmt.Errorf("%s %s: %w", effect.Op, effect.Key, err)
		}
	}
	return nil
}

// load reads key into dest, leaving dest untouched when the key is absent.
func (r effectRunner) load(ctx context.Context, key string, dest any) (bool, error) {
	return r.store.Load(ctx, key, dest)
}

// KeyLocks serialises read-modify-write cycles on the same persistence key.
// Services sharing keys must share a KeyLocks.
type KeyLocks struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	mu   sync.Mutex
	refs int
}

// NewKeyLocks returns an empty lock table.
func NewKeyLocks() *KeyLocks {
	return &KeyLocks{locks: make(map[string]*keyLock)}
}

// Lock acquires key and returns its release func.
func (l *KeyLocks) Lock(key string) func() {
	l.mu.Lock()
	entry, ok := l.locks[key]
	if !ok {
		entry = &keyLock{}
		l.locks[key] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}

func translateStoreError(err error, unavailable, conflict error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	var storeErr StoreError
	if errors.As(err, &storeErr) && storeErr.IsConflict() && conflict != nil {
		return fmt.Errorf("%w: %v", conflict, err)
	}
	return fmt.Errorf("%w: %v", unavailable, err)
}

func noopLogger(context.Context, string, map[string]any) {}
