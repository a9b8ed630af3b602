package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOption configures a Redis cache.
type RedisOption func(*redisConfig)

type redisConfig struct {
	prefix     string
	defaultTTL time.Duration
}

// WithPrefix namespaces keys as "{prefix}:{key}".
func WithPrefix(prefix string) RedisOption {
	return func(c *redisConfig) { c.prefix = prefix }
}

// WithRedisDefaultTTL sets the lifetime applied when Set gets a zero ttl.
// Defaults to one hour.
func WithRedisDefaultTTL(d time.Duration) RedisOption {
	return func(c *redisConfig) { c.defaultTTL = d }
}

// Redis stores values in Redis so several processes share them.
// The client's lifecycle belongs to the caller; Close does not close it.
type Redis[V any] struct {
	client redis.UniversalClient
	codec  Codec[V]
	cfg    redisConfig

	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewRedis creates a Redis-backed cache. A nil codec selects JSONCodec.
//
//	client := redis.MustOpen(ctx, os.Getenv("REDIS_URL"))
//	sessions := cache.NewRedis[*session.Session](client, nil, cache.WithPrefix("sess"))
func NewRedis[V any](client redis.UniversalClient, codec Codec[V], opts ...RedisOption) *Redis[V] {
	cfg := redisConfig{defaultTTL: time.Hour}
	for _, opt := range opts {
		opt(&cfg)
	}
	if codec == nil {
		codec = JSONCodec[V]{}
	}
	return &Redis[V]{client: client, codec: codec, cfg: cfg}
}

// Get implements Cache.
func (r *Redis[V]) Get(ctx context.Context, key string) (V, error) {
	var zero V
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		r.misses.Add(1)
		return zero, ErrNotFound
	}
	if err != nil {
		return zero, err
	}
	r.hits.Add(1)
	return r.codec.Decode(data)
}

// Set implements Cache.
func (r *Redis[V]) Set(ctx context.Context, key string, value V, ttl time.Duration) error {
	data, err := r.codec.Encode(value)
	if err != nil {
		return err
	}
	var exp time.Duration // Redis keeps keys without expiration on 0
	if deadline := expiry(ttl, r.cfg.defaultTTL); !deadline.IsZero() {
		exp = time.Until(deadline)
	}
	return r.client.Set(ctx, r.key(key), data, exp).Err()
}

// Delete implements Cache.
func (r *Redis[V]) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.key(key)).Err()
}

// Stats returns the hit and miss counters of this process.
// Entries and evictions are owned by the server and left at zero.
func (r *Redis[V]) Stats() Stats {
	return Stats{Hits: r.hits.Load(), Misses: r.misses.Load()}
}

// Close implements Cache.
func (r *Redis[V]) Close() error { return nil }

func (r *Redis[V]) key(k string) string {
	if r.cfg.prefix == "" {
		return k
	}
	return r.cfg.prefix + ":" + k
}

var _ Cache[any] = (*Redis[any])(nil)
