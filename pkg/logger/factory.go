package logger

import (
	"io"
	"log/slog"
	"os"
)

// Format selects the output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Config describes a logger.
type Config struct {
	Level  slog.Level `yaml:"level"`
	Format Format     `yaml:"format"`
	Output io.Writer  `yaml:"-"` // defaults to os.Stdout
}

// New creates a JSON logger on stdout at info level with optional context extractors.
func New(extractors ...ContextExtractor) *slog.Logger {
	return NewWithConfig(Config{Level: slog.LevelInfo, Format: FormatJSON}, extractors...)
}

// NewConsole creates a text logger on stderr, used by console boot mode so
// that log lines do not mix with command output on stdout.
func NewConsole(level slog.Level, extractors ...ContextExtractor) *slog.Logger {
	return NewWithConfig(Config{Level: level, Format: FormatText, Output: os.Stderr}, extractors...)
}

// NewWithConfig creates a logger from cfg.
func NewWithConfig(cfg Config, extractors ...ContextExtractor) *slog.Logger {
	return slog.New(WithExtractors(newHandler(cfg), extractors...))
}

func newHandler(cfg Config) slog.Handler {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	opts := &slog.HandlerOptions{Level: cfg.Level}
	if cfg.Format == FormatText {
		return slog.NewTextHandler(out, opts)
	}
	return slog.NewJSONHandler(out, opts)
}
