// Package redis owns the shared Redis connection backing the token
// revocation list. Revocation checks sit on the hot path of every
// authenticated request, so the pool is tuned for many short reads and
// the constructor fails fast when the server is unreachable rather than
// letting the first request discover it.
package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"keystone/internal/platform/config"
)

// Connect dials using cfg and verifies the server answers before
// returning. An empty URL is a wiring mistake, not a degraded mode;
// callers that want to run without Redis decide that before calling.
func Connect(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("redis URL not configured")
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns
	opts.DialTimeout = cfg.DialTimeout
	opts.ReadTimeout = cfg.ReadTimeout
	opts.WriteTimeout = cfg.WriteTimeout

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return client, nil
}
