// Package cachestore is the KV store client over Redis semantics (spec §4
// component 5): GET/SET-with-TTL/DEL/KEYS/FLUSH, msgpack-encoded values,
// per-call query timeouts, and bounded linear-backoff retry. The caller
// owns the *redis.Client's lifecycle — Close here is a no-op, matching
// agentuity-go-common's own contract for its Redis-backed Cache.
//
// Grounded on agentuity-go-common/cache/redis.go: the same
// context.WithTimeout-wrapped per-call pattern (without that file's hit
// counting), generalized with the linear-backoff retry policy and
// key-prefix/KEYS/FLUSHDB operations spec §4.7 additionally requires for
// cache coordination (fingerprint lookups, table-name invalidation scans).
package cachestore

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

// Config configures prefixing, per-call timeout and retry policy.
type Config struct {
	KeyPrefix    string
	QueryTimeout time.Duration
	MaxRetries   int
	RetryDelay   time.Duration
}

// DefaultConfig matches spec §6's defaults.
func DefaultConfig() Config {
	return Config{
		KeyPrefix:    "pgcache:",
		QueryTimeout: 2 * time.Second,
		MaxRetries:   3,
		RetryDelay:   100 * time.Millisecond,
	}
}

// Client is a Redis-backed key-value store client.
type Client struct {
	redis *redis.Client
	cfg   Config
}

// New wraps an existing *redis.Client. The caller retains ownership of its
// lifecycle; Client.Close is a no-op.
func New(client *redis.Client, cfg Config) *Client {
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = DefaultConfig().QueryTimeout
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = DefaultConfig().MaxRetries
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultConfig().RetryDelay
	}
	return &Client{redis: client, cfg: cfg}
}

func (c *Client) key(k string) string { return c.cfg.KeyPrefix + k }

func (c *Client) queryCtx(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, c.cfg.QueryTimeout)
}

// withRetry runs op up to cfg.MaxRetries+1 times with linear backoff
// (attempt * RetryDelay) between tries, per spec §4.7's retry policy.
func (c *Client) withRetry(ctx context.Context, op func(context.Context) error) error {
	var err error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(time.Duration(attempt) * c.cfg.RetryDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		err = op(ctx)
		if err == nil || err == redis.Nil {
			return err
		}
	}
	return err
}

// Get retrieves a raw msgpack-encoded value, reporting found=false on a
// cache miss rather than an error.
func (c *Client) Get(ctx context.Context, key string) (found bool, data []byte, err error) {
	err = c.withRetry(ctx, func(ctx context.Context) error {
		qctx, cancel := c.queryCtx(ctx)
		defer cancel()
		b, gerr := c.redis.Get(qctx, c.key(key)).Bytes()
		if gerr == redis.Nil {
			found, data = false, nil
			return nil
		}
		if gerr != nil {
			return gerr
		}
		found, data = true, b
		return nil
	})
	return found, data, err
}

// GetValue retrieves and msgpack-decodes a value into dest.
func (c *Client) GetValue(ctx context.Context, key string, dest any) (bool, error) {
	found, data, err := c.Get(ctx, key)
	if err != nil || !found {
		return found, err
	}
	if err := msgpack.Unmarshal(data, dest); err != nil {
		return true, err
	}
	return true, nil
}

// Set msgpack-encodes val and stores it under key with the given TTL.
func (c *Client) Set(ctx context.Context, key string, val any, ttl time.Duration) error {
	data, err := msgpack.Marshal(val)
	if err != nil {
		return err
	}
	return c.withRetry(ctx, func(ctx context.Context) error {
		qctx, cancel := c.queryCtx(ctx)
		defer cancel()
		return c.redis.Set(qctx, c.key(key), data, ttl).Err()
	})
}

// Del removes one or more keys. Missing keys are not an error.
func (c *Client) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = c.key(k)
	}
	return c.withRetry(ctx, func(ctx context.Context) error {
		qctx, cancel := c.queryCtx(ctx)
		defer cancel()
		return c.redis.Del(qctx, prefixed...).Err()
	})
}

// Keys lists keys matching pattern (prefixed with KeyPrefix). Flush uses it
// to enumerate the namespace; it is not for hot paths — KEYS is O(n) over
// the keyspace.
func (c *Client) Keys(ctx context.Context, pattern string) ([]string, error) {
	var out []string
	err := c.withRetry(ctx, func(ctx context.Context) error {
		qctx, cancel := c.queryCtx(ctx)
		defer cancel()
		ks, kerr := c.redis.Keys(qctx, c.key(pattern)).Result()
		if kerr != nil {
			return kerr
		}
		out = ks
		return nil
	})
	return out, err
}

// Flush removes every key under this client's namespace.
func (c *Client) Flush(ctx context.Context) error {
	keys, err := c.Keys(ctx, "*")
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	unprefixed := make([]string, len(keys))
	for i, k := range keys {
		unprefixed[i] = trimPrefix(k, c.cfg.KeyPrefix)
	}
	return c.Del(ctx, unprefixed...)
}

func trimPrefix(s, prefix string) string {
	if len(s) >= len(prefix) && s[:len(prefix)] == prefix {
		return s[len(prefix):]
	}
	return s
}

// Close is a no-op — the caller owns the redis.Client lifecycle.
func (c *Client) Close() error { return nil }
