package service

import (
	"context"
	"fmt"
	"time"

	"github.com/folio/folio/internal/clock"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// RedisRevoker keeps a revoked_session:<jti> key alive until the session's
// own expiry.
type RedisRevoker struct {
	client *redis.Client
	clock  clock.Clock
	logger *logrus.Logger
}

func NewRedisRevoker(client *redis.Client, clk clock.Clock, logger *logrus.Logger) *RedisRevoker {
	return &RedisRevoker{
		client: client,
		clock:  clk,
		logger: logger,
	}
}

func (s *RedisRevoker) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(s.clock.Now())
	if ttl <= 0 {
		return nil
	}

	key := fmt.Sprintf("revoked_session:%s", jti)
	if err := s.client.Set(ctx, key, "1", ttl).Err(); err != nil {
		s.logger.WithError(err).Error("Failed to revoke session")
		return fmt.Errorf("failed to revoke session: %w", err)
	}

	return nil
}

func (s *RedisRevoker) IsRevoked(ctx context.Context, jti string) (bool, error) {
	key := fmt.Sprintf("revoked_session:%s", jti)
	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}

// RedisThrottle admits the first caller per key and rejects the rest until
// the key expires.
type RedisThrottle struct {
	client *redis.Client
}

func NewRedisThrottle(client *redis.Client) *RedisThrottle {
	return &RedisThrottle{client: client}
}

func (t *RedisThrottle) Allow(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := t.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to set throttle key: %w", err)
	}
	return ok, nil
}

func (t *RedisThrottle) Release(ctx context.Context, key string) error {
	if err := t.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to release throttle key: %w", err)
	}
	return nil
}
