package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ZaguanLabs/webproxy"
)

// RedisStore is a Redis-backed store. Each entry is a Redis hash so partial
// merges are a single HSET and whole-entry reads a single HGETALL.
type RedisStore struct {
	client    *redis.Client
	ttl       time.Duration
	keyPrefix string
}

// RedisConfig holds configuration for the Redis store.
type RedisConfig struct {
	URL       string        // Redis connection URL (e.g., "redis://localhost:6379")
	TTL       time.Duration // Per-entry expiry, refreshed on write (0 = no expiration)
	KeyPrefix string        // Prefix for all keys (default: "webproxy:")
}

// NewRedisStore creates a new Redis store with the given configuration.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return NewRedisStoreFromClient(client, cfg.TTL, cfg.KeyPrefix), nil
}

// NewRedisStoreFromClient creates a RedisStore from an existing client.
func NewRedisStoreFromClient(client *redis.Client, ttl time.Duration, keyPrefix string) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = "webproxy:"
	}
	if ttl < 0 {
		ttl = 0
	}
	return &RedisStore{
		client:    client,
		ttl:       ttl,
		keyPrefix: keyPrefix,
	}
}

// GetEntry reads the whole hash for key. A missing hash comes back as an
// empty map from HGETALL, which is exactly the miss contract.
func (s *RedisStore) GetEntry(ctx context.Context, key Key) (map[string]string, error) {
	fields, err := s.client.HGetAll(ctx, s.keyPrefix+key.String()).Result()
	if err != nil {
		return nil, &webproxy.CacheError{Message: "redis HGETALL failed", Cause: err}
	}
	if fields == nil {
		fields = map[string]string{}
	}
	return fields, nil
}

// PutEntries merges fields into the hash for key and refreshes its expiry.
func (s *RedisStore) PutEntries(ctx context.Context, key Key, fields map[string]string) error {
	if len(fields) == 0 {
		return nil
	}

	fullKey := s.keyPrefix + key.String()

	flat := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		flat = append(flat, k, v)
	}

	if err := s.client.HSet(ctx, fullKey, flat...).Err(); err != nil {
		return &webproxy.CacheError{Message: "redis HSET failed", Cause: err}
	}

	if s.ttl > 0 {
		if err := s.client.Expire(ctx, fullKey, s.ttl).Err(); err != nil {
			return &webproxy.CacheError{Message: "redis EXPIRE failed", Cause: err}
		}
	}
	return nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping tests the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

var _ Store = (*RedisStore)(nil)
