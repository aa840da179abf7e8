package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/soyeahso/cftutor/internal/config"
	"github.com/soyeahso/cftutor/internal/logging"
)

const redisKeyPrefix = "cftutor:"

// RedisStore keeps slots as string keys that expire with the freshness
// window, so a stale snapshot disappears on the server as well.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	log    *logging.Logger
}

// OpenRedis connects to Redis and verifies the connection with PING.
func OpenRedis(ctx context.Context, cfg config.RedisConfig, ttl time.Duration, log *logging.Logger) (*RedisStore, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	opts.ReadTimeout = time.Duration(cfg.ReadTimeout) * time.Second
	opts.WriteTimeout = time.Duration(cfg.WriteTimeout) * time.Second
	opts.DialTimeout = time.Duration(cfg.DialTimeout) * time.Second

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return &RedisStore{client: client, ttl: ttl, log: log.Sub("store")}, nil
}

// Get returns the blob stored in slot.
func (s *RedisStore) Get(ctx context.Context, slot string) ([]byte, error) {
	b, err := s.client.Get(ctx, redisKeyPrefix+slot).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading slot %s: %w", slot, err)
	}
	return b, nil
}

// Put overwrites slot with data and resets its expiry.
func (s *RedisStore) Put(ctx context.Context, slot string, data []byte) error {
	if err := s.client.Set(ctx, redisKeyPrefix+slot, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("writing slot %s: %w", slot, err)
	}
	s.log.Debug().Str("slot", slot).Dur("ttl", s.ttl).Msg("slot written")
	return nil
}

// Delete removes slot.
func (s *RedisStore) Delete(ctx context.Context, slot string) error {
	return s.client.Del(ctx, redisKeyPrefix+slot).Err()
}

// Close closes the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
