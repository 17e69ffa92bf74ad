package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisConfig holds the configuration for the Redis client.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// CacheTTL expires slots server-side. Zero keeps them until cleared;
	// freshness is decided by Entry, not by Redis.
	CacheTTL  time.Duration
	KeyPrefix string
}

// RedisStore keeps each slot as two Redis strings, the payload and its
// timestamp, written together in a MULTI/EXEC transaction.
type RedisStore struct {
	redisClient *redis.Client
	logger      zerolog.Logger
	ttl         time.Duration
	prefix      string
}

// NewRedisStore creates and connects a new RedisStore.
// It pings the Redis server to ensure connectivity before returning.
func NewRedisStore(ctx context.Context, cfg *RedisConfig, logger zerolog.Logger) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info().Str("redis_address", cfg.Addr).Msg("Successfully connected to Redis.")

	return &RedisStore{
		redisClient: rdb,
		logger:      logger.With().Str("component", "RedisStore").Logger(),
		ttl:         cfg.CacheTTL,
		prefix:      cfg.KeyPrefix,
	}, nil
}

func (s *RedisStore) key(key string) string {
	return s.prefix + key
}

// Put writes the payload and timestamp in one transaction.
func (s *RedisStore) Put(ctx context.Context, key string, payload []byte, storedAt time.Time) error {
	stamp := storedAt.UTC().Format(time.RFC3339Nano)
	_, err := s.redisClient.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(key), payload, s.ttl)
		pipe.Set(ctx, s.key(TimestampKey(key)), stamp, s.ttl)
		return nil
	})
	if err != nil {
		s.logger.Error().Err(err).Str("key", key).Msg("Failed to set slot in Redis.")
		return storageError(key, err, "failed to set in redis")
	}
	s.logger.Debug().Str("key", key).Int("bytes", len(payload)).Msg("Successfully stored slot in Redis.")
	return nil
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, time.Time, error) {
	values, err := s.redisClient.MGet(ctx, s.key(key), s.key(TimestampKey(key))).Result()
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("redis mget for %s: %w", key, err)
	}
	raw, ok := values[0].(string)
	if !ok {
		return nil, time.Time{}, ErrMiss
	}
	var storedAt time.Time
	if stamp, ok := values[1].(string); ok {
		if storedAt, err = time.Parse(time.RFC3339Nano, stamp); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("Unreadable timestamp, treating slot as stale.")
			storedAt = time.Time{}
		}
	}
	s.logger.Debug().Str("key", key).Msg("Redis cache hit.")
	return []byte(raw), storedAt, nil
}

func (s *RedisStore) Timestamp(ctx context.Context, key string) (time.Time, error) {
	stamp, err := s.redisClient.Get(ctx, s.key(TimestampKey(key))).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return time.Time{}, ErrMiss
		}
		return time.Time{}, fmt.Errorf("redis get for %s: %w", key, err)
	}
	storedAt, err := time.Parse(time.RFC3339Nano, stamp)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp for %s: %w", key, err)
	}
	return storedAt, nil
}

func (s *RedisStore) Clear(ctx context.Context, key string) error {
	if err := s.redisClient.Del(ctx, s.key(key), s.key(TimestampKey(key))).Err(); err != nil {
		return storageError(key, err, "redis del failed for")
	}
	return nil
}

// Close closes the Redis client connection.
func (s *RedisStore) Close() error {
	if s.redisClient != nil {
		s.logger.Info().Msg("Closing Redis client connection...")
		return s.redisClient.Close()
	}
	return nil
}
