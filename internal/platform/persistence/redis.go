package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists values in Redis with native key expiry.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// RedisOption customises the RedisStore.
type RedisOption func(*RedisStore)

// WithRedisPrefix namespaces every key written by the store.
func WithRedisPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client redis.UniversalClient, opts ...RedisOption) (*RedisStore, error) {
	if client == nil {
		return nil, errors.New("redis store: client is required")
	}
	s := &RedisStore{client: client}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// Save implements Store.
func (s *RedisStore) Save(ctx context.Context, key string, value any, ttl time.Duration) error {
	key, err := normalizeKey(key)
	if err != nil {
		return err
	}
	data, err := encode("redis.save", value)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.prefix+key, data, normalizeTTL(ttl)).Err(); err != nil {
		return wrapRedisError("redis.save", err)
	}
	return nil
}

// Load implements Store.
func (s *RedisStore) Load(ctx context.Context, key string, dest any) (bool, error) {
	key, err := normalizeKey(key)
	if err != nil {
		return false, err
	}
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, wrapRedisError("redis.load", err)
	}
	if err := decode("redis.load", data, dest); err != nil {
		return false, err
	}
	return true, nil
}

// Remove implements Store.
func (s *RedisStore) Remove(ctx context.Context, key string) error {
	key, err := normalizeKey(key)
	if err != nil {
		return err
	}
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return wrapRedisError("redis.remove", err)
	}
	return nil
}

// Ping checks connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return wrapRedisError("redis.ping", err)
	}
	return nil
}

// Close releases the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func wrapRedisError(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &Error{Op: op, Err: err, Unavailable: true}
}
