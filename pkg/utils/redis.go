package utils

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig tunes the go-redis client. Zero values fall back to
// conservative defaults; only Addr is required.
type RedisConfig struct {
	Addr string

	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	PoolSize     int
	MinIdleConns int
	PoolTimeout  time.Duration

	PingTimeout time.Duration
}

// OpenRedis initializes a Redis client and verifies connectivity with PING.
func OpenRedis(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis addr is required")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		DialTimeout:  durOr(cfg.DialTimeout, 3*time.Second),
		ReadTimeout:  durOr(cfg.ReadTimeout, 2*time.Second),
		WriteTimeout: durOr(cfg.WriteTimeout, 2*time.Second),
		PoolSize:     intOr(cfg.PoolSize, 20),
		MinIdleConns: cfg.MinIdleConns,
		PoolTimeout:  durOr(cfg.PoolTimeout, 4*time.Second),
	})

	pingCtx, cancel := context.WithTimeout(ctx, durOr(cfg.PingTimeout, 2*time.Second))
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}

// ActiveCallsChannel names the pub/sub channel carrying active-call change
// notifications for one tenant. Subscribers (the dashboard realtime
// transport) re-read the store on every message; the channel itself carries
// no state.
func ActiveCallsChannel(tenantID string) string {
	return "active_calls:" + tenantID
}

// NotifyChannel publishes a change marker to a pub/sub channel.
// Fire-and-forget: there may be zero subscribers.
func NotifyChannel(ctx context.Context, rdb *redis.Client, channel, message string) error {
	if rdb == nil {
		return fmt.Errorf("redis client is nil")
	}
	if channel == "" {
		return fmt.Errorf("channel is required")
	}
	return rdb.Publish(ctx, channel, message).Err()
}
