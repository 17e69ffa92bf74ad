package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisConfig holds the configuration for the Redis-backed credential store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// Key is the Redis key holding the credential.
	Key string
	// TTL expires the credential server-side. Zero keeps it until cleared.
	TTL time.Duration
}

// credential is the stored record.
type credential struct {
	Token    string    `json:"token"`
	StoredAt time.Time `json:"storedAt"`
}

// RedisCredentialStore shares one credential between processes on a host.
type RedisCredentialStore struct {
	redisClient *redis.Client
	logger      zerolog.Logger
	key         string
	ttl         time.Duration
	now         func() time.Time
}

// NewRedisCredentialStore creates and connects a new RedisCredentialStore.
func NewRedisCredentialStore(ctx context.Context, cfg *RedisConfig, logger zerolog.Logger) (*RedisCredentialStore, error) {
	if cfg.Key == "" {
		return nil, errors.New("redis credential key is required")
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis for credential store: %w", err)
	}
	logger.Info().Str("redis_address", cfg.Addr).Msg("Successfully connected to Redis for CredentialStore.")

	return &RedisCredentialStore{
		redisClient: rdb,
		logger:      logger.With().Str("component", "RedisCredentialStore").Logger(),
		key:         cfg.Key,
		ttl:         cfg.TTL,
		now:         time.Now,
	}, nil
}

// Token retrieves and unmarshals the credential from Redis.
func (s *RedisCredentialStore) Token(ctx context.Context) (string, error) {
	raw, err := s.redisClient.Get(ctx, s.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNoToken
		}
		return "", fmt.Errorf("redis get failed for credential: %w", err)
	}
	var c credential
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		s.logger.Warn().Err(err).Msg("Stored credential is unreadable, treating as absent.")
		return "", ErrNoToken
	}
	if c.Token == "" {
		return "", ErrNoToken
	}
	return c.Token, nil
}

// SetToken marshals the credential to JSON and stores it with the configured TTL.
func (s *RedisCredentialStore) SetToken(ctx context.Context, token string) error {
	data, err := json.Marshal(credential{Token: token, StoredAt: s.now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to marshal credential: %w", err)
	}
	if err := s.redisClient.Set(ctx, s.key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set credential in redis: %w", err)
	}
	s.logger.Debug().Msg("Stored credential.")
	return nil
}

// ClearToken removes the credential key.
func (s *RedisCredentialStore) ClearToken(ctx context.Context) error {
	if err := s.redisClient.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("redis del failed for credential: %w", err)
	}
	return nil
}

// Close closes the Redis client connection.
func (s *RedisCredentialStore) Close() error {
	if s.redisClient != nil {
		return s.redisClient.Close()
	}
	return nil
}
