// Package sharedstore wraps the Redis-backed process-wide state every
// service instance shares: the public-key cache-aside lookup, the
// one-time subscription challenge, duplicate message_id suppression,
// and the sliding-window rate limiter. Every entry in this package is
// TTL-bounded; nothing here is a durable record (that's pkg/storage).
package sharedstore

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Client wraps a Redis connection for the shared-state operations this
// package exposes. It is safe for concurrent use — go-redis pools
// internally.
type Client struct {
	rdb *redis.Client
}

// Config configures the Redis connection.
type Config struct {
	Addr     string
	Password string
	DB       int
}

// New connects to Redis and verifies reachability with a PING.
func New(ctx context.Context, cfg Config) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping shared store: %w", err)
	}
	return &Client{rdb: rdb}, nil
}

// Close releases the underlying connection pool.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping checks Redis reachability.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}
