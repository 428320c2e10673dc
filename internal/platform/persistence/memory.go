package persistence

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	value     []byte
	updatedAt time.Time
	expiresAt time.Time
}

// MemoryStore keeps values in process memory. Suitable for tests and single-instance deployments.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	clock   func() time.Time
}

// MemoryOption customises the MemoryStore.
type MemoryOption func(*MemoryStore)

// WithMemoryClock overrides the clock used for expiry.
func WithMemoryClock(clock func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewMemoryStore constructs an empty memory-backed store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]memoryEntry),
		clock:   time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Save implements Store.
func (s *MemoryStore) Save(_ context.Context, key string, value any, ttl time.Duration) error {
	key, err := normalizeKey(key)
	if err != nil {
		return err
	}
	data, err := encode("memory.save", value)
	if err != nil {
		return err
	}
	now := s.clock().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = memoryEntry{
		value:     data,
		updatedAt: now,
		expiresAt: now.Add(normalizeTTL(ttl)),
	}
	return nil
}

// Load implements Store.
func (s *MemoryStore) Load(_ context.Context, key string, dest any) (bool, error) {
	key, err := normalizeKey(key)
	if err != nil {
		return false, err
	}
	now := s.clock().UTC()

	s.mu.Lock()
	entry, ok := s.entries[key]
	if ok && !now.Before(entry.expiresAt) {
		delete(s.entries, key)
		ok = false
	}
	s.mu.Unlock()

	if !ok {
		return false, nil
	}
	if err := decode("memory.load", entry.value, dest); err != nil {
		return false, err
	}
	return true, nil
}

// Remove implements Store.
func (s *MemoryStore) Remove(_ context.Context, key string) error {
	key, err := normalizeKey(key)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// Ping always succeeds.
func (s *MemoryStore) Ping(context.Context) error { return nil }

// CleanupExpired removes up to limit expired entries. A non-positive limit removes all of them.
func (s *MemoryStore) CleanupExpired(_ context.Context, now time.Time, limit int) (int, error) {
	now = now.UTC()
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 || limit > len(s.entries) {
		limit = len(s.entries)
	}

	removed := 0
	for key, entry := range s.entries {
		if now.Before(entry.expiresAt) {
			continue
		}
		delete(s.entries, key)
		removed++
		if removed >= limit {
			break
		}
	}
	return removed, nil
}

// Len returns the number of stored entries, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
