// Package logger builds log/slog loggers with context extraction and
// optional Sentry reporting.
//
// A ContextExtractor pulls an attribute out of the context of every log call,
// so request-scoped values such as the request ID appear without being
// passed around:
//
//	log := logger.New(logger.FromContextValue(requestIDKey{}, "request_id"))
//	log.InfoContext(ctx, "request processed", slog.Int("status", 200))
//
// Web processes usually log JSON to stdout with New. Console processes use
// NewConsole, which writes text to stderr and keeps stdout for command output.
//
// NewWithSentry additionally sends warnings and errors to Sentry; errors
// create issues. With an empty DSN it falls back to local output only, so
// the same code path works in development. Register SentryFlush as a
// shutdown hook to deliver buffered events before exit:
//
//	log := logger.NewWithSentry(logger.Config{}, logger.SentryConfig{DSN: dsn})
//	app.Run(":8080", delta.ShutdownHook(logger.SentryFlush()))
package logger
