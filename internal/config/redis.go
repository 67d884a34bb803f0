// Package config – Redis client construction.
//
// Redis backs the optional response cache for the read endpoints. The
// client parameters come from the loaded configuration. If the server is
// unreachable at startup the constructor returns nil and callers degrade
// gracefully by serving uncached.
package config

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient instantiates a Redis client from cfg. It pings the server
// with a short timeout and returns nil when Redis is disabled or cannot be
// reached, so the caller can treat a nil client as "no cache".
func NewRedisClient(cfg RedisConfig) *redis.Client {
	if !cfg.Enabled {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil
	}
	return client
}
