package logger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
	sentryslog "github.com/getsentry/sentry-go/slog"
)

// SentryConfig holds Sentry integration configuration.
type SentryConfig struct {
	DSN         string `yaml:"dsn"`
	Environment string `yaml:"environment"`
	Release     string `yaml:"release"`
	// MinLevel selects which levels are stored as Sentry logs: warn (default) or error.
	// Errors always create issues.
	MinLevel slog.Level `yaml:"min_level"`
}

// NewWithSentry creates a logger that writes to cfg's output and to Sentry.
// With an empty DSN, or when Sentry fails to initialize, only the local
// output is used.
func NewWithSentry(base Config, cfg SentryConfig, extractors ...ContextExtractor) *slog.Logger {
	local := newHandler(base)

	if cfg.DSN == "" {
		return slog.New(WithExtractors(local, extractors...))
	}

	env := cfg.Environment
	if env == "" {
		env = "production"
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.DSN,
		Environment: env,
		Release:     cfg.Release,
		EnableLogs:  true,
	}); err != nil {
		slog.New(local).Error("failed to initialize Sentry", slog.String("error", err.Error()))
		return slog.New(WithExtractors(local, extractors...))
	}

	logLevel := []slog.Level{slog.LevelWarn, slog.LevelError}
	if cfg.MinLevel >= slog.LevelError {
		logLevel = []slog.Level{slog.LevelError}
	}

	sentryHandler := sentryslog.Option{
		EventLevel: []slog.Level{slog.LevelError},
		LogLevel:   logLevel,
	}.NewSentryHandler(context.Background())

	return slog.New(WithExtractors(newMultiHandler(local, sentryHandler), extractors...))
}

// ErrSentryFlush is returned when buffered Sentry events could not be sent in time.
var ErrSentryFlush = errors.New("logger: sentry flush timed out")

// SentryFlush returns a shutdown hook that delivers buffered Sentry events.
func SentryFlush() func(context.Context) error {
	return func(ctx context.Context) error {
		if sentry.CurrentHub().Client() == nil {
			return nil
		}
		timeout := 2 * time.Second
		if deadline, ok := ctx.Deadline(); ok {
			timeout = time.Until(deadline)
		}
		if !sentry.Flush(timeout) {
			return ErrSentryFlush
		}
		return nil
	}
}
