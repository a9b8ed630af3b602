package redis

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Option tunes the client created by Open.
type Option func(*redis.Options, *dialPolicy)

type dialPolicy struct {
	attempts int
	backoff  time.Duration
}

// WithPool sets the pool size and the number of idle connections kept open.
func WithPool(size, minIdle int) Option {
	return func(o *redis.Options, _ *dialPolicy) {
		o.PoolSize = size
		o.MinIdleConns = minIdle
	}
}

// WithConnLifetime bounds how long a connection may idle and live.
func WithConnLifetime(idle, total time.Duration) Option {
	return func(o *redis.Options, _ *dialPolicy) {
		o.ConnMaxIdleTime = idle
		o.ConnMaxLifetime = total
	}
}

// WithTimeouts sets the dial, read and write timeouts.
func WithTimeouts(dial, read, write time.Duration) Option {
	return func(o *redis.Options, _ *dialPolicy) {
		o.DialTimeout = dial
		o.ReadTimeout = read
		o.WriteTimeout = write
	}
}

// WithRetry sets how many times Open pings before giving up.
// The wait grows linearly: backoff, 2*backoff, ...
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(_ *redis.Options, p *dialPolicy) {
		p.attempts = attempts
		p.backoff = backoff
	}
}

// Open parses a redis:// or rediss:// URL and returns a client that
// answered PING.
//
//	client, err := redis.Open(ctx, os.Getenv("REDIS_URL"), redis.WithRetry(5, time.Second))
func Open(ctx context.Context, url string, opts ...Option) (redis.UniversalClient, error) {
	if url == "" {
		return nil, ErrMissingURL
	}
	if !strings.HasPrefix(url, "redis://") && !strings.HasPrefix(url, "rediss://") {
		return nil, ErrInvalidURL
	}

	ro, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Join(ErrInvalidURL, err)
	}
	ro.PoolSize = 10
	ro.MinIdleConns = 2
	ro.ConnMaxIdleTime = 10 * time.Minute
	ro.ConnMaxLifetime = 30 * time.Minute
	ro.DialTimeout = 5 * time.Second
	ro.ReadTimeout = 3 * time.Second
	ro.WriteTimeout = 3 * time.Second

	policy := dialPolicy{attempts: 3, backoff: 2 * time.Second}
	for _, opt := range opts {
		opt(ro, &policy)
	}

	var lastErr error
	for i := range max(policy.attempts, 1) {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, errors.Join(ErrUnreachable, ctx.Err())
			case <-time.After(time.Duration(i) * policy.backoff):
			}
		}
		client := redis.NewClient(ro)
		if lastErr = client.Ping(ctx).Err(); lastErr == nil {
			return client, nil
		}
		_ = client.Close()
	}
	return nil, errors.Join(ErrUnreachable, lastErr)
}

// MustOpen is Open that exits the process on failure.
func MustOpen(ctx context.Context, url string, opts ...Option) redis.UniversalClient {
	client, err := Open(ctx, url, opts...)
	if err != nil {
		slog.Error("redis connection failed", slog.Any("error", err))
		os.Exit(1)
	}
	return client
}

// Healthcheck pings the server. It fits delta.WithReadinessCheck.
func Healthcheck(client redis.UniversalClient) func(context.Context) error {
	return func(ctx context.Context) error {
		if client == nil {
			return ErrPing
		}
		if err := client.Ping(ctx).Err(); err != nil {
			return errors.Join(ErrPing, err)
		}
		return nil
	}
}

// Shutdown closes the client. It fits delta.ShutdownHook.
func Shutdown(client io.Closer) func(context.Context) error {
	return func(context.Context) error {
		return client.Close()
	}
}
