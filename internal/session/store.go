// Package session is the single source of truth for "is this browser
// currently authenticated, and as whom." Session records live in a pluggable
// key-value store (Redis in production) and expire after a fixed period of
// inactivity. This is a shared infrastructure package used by the gateway.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned by a Store when a key has no value.
var ErrNotFound = errors.New("session: key not found")

// Store defines the storage capability sessions are persisted through.
// A nil Store is legal everywhere in this package and behaves as
// "storage unavailable": reads find nothing, writes go nowhere.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// redisStore implements Store using Redis
type redisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new Redis-backed session store
func NewRedisStore(addr, password string, db int) Store {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &redisStore{
		client: client,
	}
}

// NewRedisStoreFromClient wraps an existing Redis client. Used by tests that
// provision their own container-backed client.
func NewRedisStoreFromClient(client *redis.Client) Store {
	return &redisStore{client: client}
}

// Get retrieves a value by key
func (s *redisStore) Get(ctx context.Context, key string) (string, error) {
	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	return val, err
}

// Set stores a key-value pair. Session keys carry no storage-side TTL;
// expiry is decided by the manager on read.
func (s *redisStore) Set(ctx context.Context, key, value string) error {
	return s.client.Set(ctx, key, value, 0).Err()
}

// Delete removes keys from the store
func (s *redisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}

// Health checks if Redis is reachable
func (s *redisStore) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.client.Ping(ctx).Err()
}
