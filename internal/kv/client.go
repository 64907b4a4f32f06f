// Package kv wraps the shared key-value store (Redis) used for cross-process
// coordination: the leader lease, per-feed cursors, the metrics snapshot,
// and the read façade's public-to-private scroll id mapping.
package kv

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client is a thin wrapper over *redis.Client exposing only the operations
// this service needs, under names that match the per-feed KV keys the
// ingestion engine and read façade specify.
type Client struct {
	rdb *redis.Client
}

// New connects to Redis using a redis:// URI.
func New(uri string) (*Client, error) {
	opt, err := redis.ParseURL(uri)
	if err != nil {
		return nil, fmt.Errorf("kv: parse redis uri: %w", err)
	}
	return &Client{rdb: redis.NewClient(opt)}, nil
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Get returns the string value at key, and ok=false if the key is absent.
func (c *Client) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := c.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("kv: get %s: %w", key, err)
	}
	return v, true, nil
}

// Set writes key unconditionally, with an optional TTL (0 = no expiry).
func (c *Client) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := c.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("kv: set %s: %w", key, err)
	}
	return nil
}

// SetNX writes key only if absent, with the given TTL, returning whether the
// write happened. This backs the leader lease's acquisition step.
func (c *Client) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	ok, err := c.rdb.SetNX(ctx, key, value, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("kv: setnx %s: %w", key, err)
	}
	return ok, nil
}

// Expire resets key's TTL without altering its value, used by the lease
// renewer.
func (c *Client) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if err := c.rdb.Expire(ctx, key, ttl).Err(); err != nil {
		return fmt.Errorf("kv: expire %s: %w", key, err)
	}
	return nil
}

const (
	KeyLock    = "lock"
	KeyMetrics = "metrics"
)

// FeedUpdatesSeedURLKey is the key holding the URL a feed's updates loop
// should start from, written once a full ingest completes.
func FeedUpdatesSeedURLKey(feedID string) string {
	return "feed_updates_seed_url:" + feedID
}

// FeedUpdatesURLKey is the key holding the URL the updates loop last stopped
// at.
func FeedUpdatesURLKey(feedID string) string {
	return "feed_updates_url:" + feedID
}

// PrivateScrollIDKey maps a public opaque scroll token to the backend's
// private scroll cursor.
func PrivateScrollIDKey(publicScrollID string) string {
	return "private-scroll-id-" + publicScrollID
}

// PendingSentinel marks feed_updates_seed_url:<id> as "a full ingest is in
// progress but has not yet produced a starting point"; the updates loop
// treats this the same as the key being entirely absent.
const PendingSentinel = "__pending__"
