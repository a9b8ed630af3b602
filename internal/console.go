package internal

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// consoleWriter is the response writer of console dispatches.
// Headers are kept in memory; the body goes to the output stream.
type consoleWriter struct {
	out    io.Writer
	header http.Header
	status int
}

func newConsoleWriter(out io.Writer) *consoleWriter {
	return &consoleWriter{out: out, header: make(http.Header), status: http.StatusOK}
}

func (w *consoleWriter) Header() http.Header         { return w.header }
func (w *consoleWriter) WriteHeader(code int)        { w.status = code }
func (w *consoleWriter) Write(b []byte) (int, error) { return w.out.Write(b) }

// Execute dispatches one request without an HTTP server, writing the
// response body to out. It is the entry point of console boot mode.
// The returned status is the response status; a fatal dispatch error is
// returned as well and nothing more is written.
//
// Example:
//
//	status, err := app.Execute(ctx, http.MethodGet, "/reports/daily", os.Stdout)
func (a *App) Execute(ctx context.Context, method, target string, out io.Writer) (int, error) {
	r, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return 0, fmt.Errorf("console request: %w", err)
	}

	cw := newConsoleWriter(out)
	c := newContext(a.controller, NewRequest(r), NewResponse(cw), nil)
	if err := a.dispatch(c); err != nil {
		a.logger.ErrorContext(ctx, "console dispatch failed",
			"method", method,
			"target", target,
			"error", err,
		)
		return http.StatusInternalServerError, err
	}
	return cw.status, nil
}
