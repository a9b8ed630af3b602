// Command example serves a small delta application, or runs one of its
// actions from the command line with -console.
//
//	go run ./example
//	go run ./example -console "/report?days=30"
package main

import (
	"context"
	"embed"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrymomot/delta"
	"github.com/dmitrymomot/delta/filters"
	"github.com/dmitrymomot/delta/pkg/cache"
	"github.com/dmitrymomot/delta/pkg/logger"
	"github.com/dmitrymomot/delta/pkg/redis"
	"github.com/dmitrymomot/delta/pkg/session"
)

//go:embed delta.yaml modules
var appFS embed.FS

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	console := flag.String("console", "", "run the given path in console mode and exit")
	flag.Parse()

	if err := run(*addr, *console); err != nil {
		slog.Error("example failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(addr, target string) error {
	ctx := context.Background()

	if target != "" {
		app, err := delta.New(append(actions(),
			delta.WithConfigFile(appFS, "delta.yaml"),
			delta.WithFS(appFS),
			delta.WithBootMode(delta.BootConsole),
			delta.WithCustomLogger(logger.NewConsole(slog.LevelWarn)),
		)...)
		if err != nil {
			return err
		}
		status, err := delta.Execute(ctx, app, target, os.Stdout)
		if err != nil {
			return err
		}
		if status >= http.StatusBadRequest {
			return errors.New(http.StatusText(status))
		}
		return nil
	}

	log := logger.NewWithSentry(
		logger.Config{Level: slog.LevelInfo, Format: logger.FormatJSON},
		logger.SentryConfig{DSN: os.Getenv("SENTRY_DSN"), Environment: os.Getenv("APP_ENV")},
		filters.RequestIDExtractor(),
	)

	opts := append(actions(),
		delta.WithConfigFile(appFS, "delta.yaml"),
		delta.WithFS(appFS),
		delta.WithCustomLogger(log),
		delta.WithMetrics(prometheus.NewRegistry()),
		delta.WithErrorHandler(renderError),
	)
	runOpts := []delta.RunOption{
		delta.Logger(log),
		delta.ShutdownTimeout(15 * time.Second),
		delta.ShutdownHook(logger.SentryFlush()),
	}
	health := []delta.HealthOption{delta.WithReadinessTimeout(3 * time.Second)}

	// Sessions are shared through Redis when it is configured and kept in
	// memory otherwise.
	var store *session.CacheStore
	if url := os.Getenv("REDIS_URL"); url == "" {
		store = session.NewMemoryStore()
	} else {
		client, err := redis.Open(ctx, url)
		if err != nil {
			return err
		}
		store = session.NewCacheStore(
			cache.NewRedis[*session.Session](client, nil, cache.WithPrefix("sess")),
			cache.NewRedis[string](client, nil, cache.WithPrefix("sess-id")),
		)
		health = append(health, delta.WithReadinessCheck("redis", redis.Healthcheck(client)))
		runOpts = append(runOpts, delta.ShutdownHook(redis.Shutdown(client)))
	}
	opts = append(opts,
		delta.WithSession(store, delta.WithSessionSecure(os.Getenv("APP_ENV") == "production")),
		delta.WithHealthChecks(health...),
	)

	app, err := delta.New(opts...)
	if err != nil {
		return err
	}
	return app.Run(addr, runOpts...)
}

// renderError shows fatal dispatch errors as an HTML page.
func renderError(c *delta.Context, err error) error {
	status := http.StatusInternalServerError
	message := "Something went wrong."
	if he := delta.AsHTTPError(err); he != nil {
		status, message = he.StatusCode(), he.Message
	}
	c.SetStatus(status)
	return c.Render(errorPage(status, message))
}
