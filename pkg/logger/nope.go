package logger

import "log/slog"

// NewNope creates a logger that discards all output.
// Use it as a default when logging is not configured.
func NewNope() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
