package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/delta/pkg/logger"
)

type requestIDKey struct{}

func decode(t *testing.T, line string) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &m))
	return m
}

func TestNewWithConfig(t *testing.T) {
	t.Parallel()

	t.Run("json with extractor", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.NewWithConfig(
			logger.Config{Level: slog.LevelInfo, Format: logger.FormatJSON, Output: &buf},
			logger.FromContextValue(requestIDKey{}, "request_id"),
		)

		ctx := context.WithValue(context.Background(), requestIDKey{}, "req-1")
		log.With("component", "web").InfoContext(ctx, "dispatched", slog.Int("status", 200))
		log.DebugContext(ctx, "hidden")

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 1)
		entry := decode(t, lines[0])
		require.Equal(t, "dispatched", entry["msg"])
		require.Equal(t, "req-1", entry["request_id"])
		require.Equal(t, "web", entry["component"])
		require.InDelta(t, 200, entry["status"], 0)
	})

	t.Run("extractor skips missing values", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.NewWithConfig(
			logger.Config{Output: &buf},
			logger.FromContextValue(requestIDKey{}, "request_id"),
			nil,
		)
		log.InfoContext(context.Background(), "no id")
		require.NotContains(t, decode(t, buf.String()), "request_id")
	})

	t.Run("text format", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.NewWithConfig(logger.Config{Level: slog.LevelDebug, Format: logger.FormatText, Output: &buf})
		log.Debug("booting", slog.String("mode", "console"))
		require.Contains(t, buf.String(), "level=DEBUG")
		require.Contains(t, buf.String(), "mode=console")
	})
}

func TestWithExtractors_Groups(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.NewWithConfig(logger.Config{Output: &buf},
		logger.FromContextValue(requestIDKey{}, "request_id"))

	ctx := context.WithValue(context.Background(), requestIDKey{}, "req-2")
	log.WithGroup("dispatch").InfoContext(ctx, "forward", slog.String("action", "hello"))

	entry := decode(t, buf.String())
	group, ok := entry["dispatch"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "hello", group["action"])
	require.Equal(t, "req-2", group["request_id"])
}

func TestNewWithSentry_NoDSN(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.NewWithSentry(logger.Config{Output: &buf}, logger.SentryConfig{})
	log.Warn("local only")
	require.Equal(t, "local only", decode(t, buf.String())["msg"])

	require.NoError(t, logger.SentryFlush()(context.Background()))
}

func TestNewNope(t *testing.T) {
	t.Parallel()

	log := logger.NewNope()
	require.False(t, log.Enabled(context.Background(), slog.LevelError))
}
