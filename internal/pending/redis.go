package pending

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/desertthunder/cdx/internal/models"
	"github.com/desertthunder/cdx/internal/shared"
)

const keyPrefix = "cdx:pending:"

// RedisStore keeps temporary credentials in Redis so any relay instance can complete a handshake.
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisStore wraps an existing client.
func NewRedisStore(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

// Connect parses url, pings the server, and returns a store backed by it.
func Connect(ctx context.Context, url string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("%w: redis url: %v", shared.ErrInvalidConfig, err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: redis: %v", shared.ErrServiceUnavailable, err)
	}
	return NewRedisStore(client, ttl), nil
}

func key(token string) string { return keyPrefix + token }

// Put stores tmp with the store TTL.
func (s *RedisStore) Put(ctx context.Context, tmp models.TemporaryCredential) error {
	if tmp.Token == "" || tmp.Secret == "" {
		return fmt.Errorf("%w: temporary credential requires token and secret", shared.ErrInvalidInput)
	}

	data, err := json.Marshal(tmp)
	if err != nil {
		return fmt.Errorf("failed to encode temporary credential: %w", err)
	}

	if err := s.client.Set(ctx, key(tmp.Token), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store temporary credential: %w", err)
	}
	return nil
}

// Take reads and deletes the entry atomically with GETDEL.
func (s *RedisStore) Take(ctx context.Context, token string) (models.TemporaryCredential, error) {
	var tmp models.TemporaryCredential

	data, err := s.client.GetDel(ctx, key(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return tmp, shared.ErrHandshakeExpired
	}
	if err != nil {
		return tmp, fmt.Errorf("failed to read temporary credential: %w", err)
	}

	if err := json.Unmarshal(data, &tmp); err != nil {
		return tmp, fmt.Errorf("failed to decode temporary credential: %w", err)
	}
	return tmp, nil
}

// Ping reports whether the Redis server is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
