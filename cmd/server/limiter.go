package main

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/blueberrycongee/copydesk/internal/config"
	"github.com/blueberrycongee/copydesk/internal/gate"
)

// buildLimiter returns the rate limit backend. The Redis client is closed
// with the app and pinged by the readiness probe.
func buildLimiter(a *app, cfg config.RateLimitConfig) (gate.Limiter, error) {
	if cfg.Backend != "redis" {
		return gate.NewMemoryLimiter(), nil
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    cfg.Redis.Addrs,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	a.closers = append(a.closers, client.Close)
	a.ready = append(a.ready, func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
	a.logger.Info("rate limiting backed by redis", "addrs", cfg.Redis.Addrs, "fail_open", cfg.FailOpen)
	return gate.NewRedisLimiter(client, cfg.Redis.KeyPrefix), nil
}
