package internal

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// webListener is the fallback listener in web mode.
type webListener struct {
	logger *slog.Logger
}

func (webListener) BootMode() BootMode { return BootWeb }
func (webListener) ListenEvents() []Event {
	return []Event{EventPreOutput, EventPreShutdown}
}

// PreOutput defaults the content type of rendered output to HTML.
func (webListener) PreOutput(c *Context, output []byte) ([]byte, error) {
	h := c.Response().Header()
	if len(output) > 0 && h.Get("Content-Type") == "" {
		h.Set("Content-Type", "text/html; charset=utf-8")
	}
	return output, nil
}

func (l webListener) PreShutdown(ctx context.Context) error {
	l.logger.InfoContext(ctx, "kernel shutting down", slog.String("boot_mode", BootWeb.String()))
	return nil
}

// consoleListener is the fallback listener in console mode.
type consoleListener struct {
	logger *slog.Logger
}

func (consoleListener) BootMode() BootMode { return BootConsole }
func (consoleListener) ListenEvents() []Event {
	return []Event{EventPreOutput, EventPreShutdown}
}

// PreOutput terminates console output with a newline.
func (consoleListener) PreOutput(_ *Context, output []byte) ([]byte, error) {
	if n := len(output); n > 0 && output[n-1] != '\n' {
		output = append(output, '\n')
	}
	return output, nil
}

func (l consoleListener) PreShutdown(ctx context.Context) error {
	l.logger.DebugContext(ctx, "kernel shutting down", slog.String("boot_mode", BootConsole.String()))
	return nil
}

// defaultListener returns the fallback listener for mode.
func defaultListener(mode BootMode, logger *slog.Logger) Listener {
	if mode&BootWeb != 0 {
		return webListener{logger: logger}
	}
	return consoleListener{logger: logger}
}

// AccessLogListener logs one line per processed request.
type AccessLogListener struct {
	logger *slog.Logger
	level  slog.Level
}

// NewAccessLogListener returns a listener factory. The "level" param selects
// the log level (debug, info, warn, error); it defaults to info.
func NewAccessLogListener(logger *slog.Logger) ListenerFactory {
	return func(params Params) (any, error) {
		var level slog.Level
		if err := level.UnmarshalText([]byte(params.String("level", "info"))); err != nil {
			return nil, fmt.Errorf("access log level: %w", err)
		}
		return &AccessLogListener{logger: logger, level: level}, nil
	}
}

func (*AccessLogListener) BootMode() BootMode { return BootAll }
func (*AccessLogListener) ListenEvents() []Event {
	return []Event{EventPostProcess}
}

// PostProcess logs the request.
func (l *AccessLogListener) PostProcess(c *Context) error {
	attrs := []slog.Attr{
		slog.String("method", c.Request().Method()),
		slog.String("path", c.Request().Path()),
		slog.Int("status", c.Response().Status()),
		slog.Int64("size", c.Response().Size()),
		slog.Int("forwards", c.Forwards().Size()),
		slog.Duration("duration", time.Since(c.StartedAt())),
	}
	if r := c.Route(); r != nil {
		attrs = append(attrs, slog.String("route", r.Name()))
	}
	l.logger.LogAttrs(c, l.level, "request", attrs...)
	return nil
}

// HeadersListener sets fixed response headers once the route is connected.
type HeadersListener struct {
	headers http.Header
}

// NewHeadersListener is a ListenerFactory; every param becomes a header.
func NewHeadersListener(params Params) (any, error) {
	h := make(http.Header, len(params))
	for k := range params {
		h.Set(k, params.String(k, ""))
	}
	return &HeadersListener{headers: h}, nil
}

func (*HeadersListener) BootMode() BootMode { return BootWeb }
func (*HeadersListener) ListenEvents() []Event {
	return []Event{EventPostRouteConnect}
}

// PostRouteConnect copies the headers to the response.
func (l *HeadersListener) PostRouteConnect(c *Context) error {
	dst := c.Response().Header()
	for k, v := range l.headers {
		dst[k] = append([]string(nil), v...)
	}
	return nil
}
