package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStorage persists the session in Redis, for deployments where
// several client processes share one identity (kiosks, worker fleets).
type RedisStorage struct {
	client  *redis.Client
	key     string
	ttl     time.Duration
	timeout time.Duration
}

// RedisStorageOption customizes a RedisStorage.
type RedisStorageOption func(*RedisStorage)

// WithSessionTTL bounds how long a persisted session survives without a
// write. Zero means no expiry.
func WithSessionTTL(ttl time.Duration) RedisStorageOption {
	return func(r *RedisStorage) {
		r.ttl = ttl
	}
}

// NewRedisStorage creates a Redis-backed session storage.
func NewRedisStorage(client *redis.Client, opts ...RedisStorageOption) *RedisStorage {
	if client == nil {
		panic("redis client cannot be nil")
	}

	r := &RedisStorage{
		client:  client,
		key:     "storefront:" + StorageKey,
		timeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load implements Storage.
func (r *RedisStorage) Load() (*Session, error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	val, err := r.client.Get(ctx, r.key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get session: %w", err)
	}

	var s Session
	if err := json.Unmarshal(val, &s); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}

	return &s, nil
}

// Save implements Storage.
func (r *RedisStorage) Save(s Session) error {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	if err := r.client.Set(ctx, r.key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}

	return nil
}

// Clear implements Storage.
func (r *RedisStorage) Clear() error {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("redis del session: %w", err)
	}

	return nil
}
