package internal

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// RunOption configures App.Run.
type RunOption func(*server)

// server owns the HTTP listener of a web boot and the hooks around it.
type server struct {
	http            *http.Server
	logger          *slog.Logger
	baseCtx         context.Context
	shutdownTimeout time.Duration
	startup         []func(context.Context) error
	cleanup         []func(context.Context) error
}

func newServer(addr string, h http.Handler, opts ...RunOption) *server {
	if addr == "" {
		addr = ":8080"
	}
	s := &server{
		http: &http.Server{
			Addr:              addr,
			Handler:           h,
			ReadTimeout:       defaultReadTimeout,
			WriteTimeout:      defaultWriteTimeout,
			IdleTimeout:       defaultIdleTimeout,
			ReadHeaderTimeout: defaultReadHeaderTimeout,
			MaxHeaderBytes:    defaultMaxHeaderBytes,
		},
		logger:          slog.New(slog.DiscardHandler),
		baseCtx:         context.Background(),
		shutdownTimeout: defaultShutdownTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Logger sets the logger of server lifecycle messages.
func Logger(l *slog.Logger) RunOption {
	return func(s *server) {
		if l != nil {
			s.logger = l
		}
	}
}

// ShutdownTimeout bounds the graceful shutdown, hooks included. Defaults to 30s.
func ShutdownTimeout(d time.Duration) RunOption {
	return func(s *server) {
		if d > 0 {
			s.shutdownTimeout = d
		}
	}
}

// StartupHook runs fn before the listener opens. An error aborts Run.
func StartupHook(fn func(context.Context) error) RunOption {
	return func(s *server) {
		if fn != nil {
			s.startup = append(s.startup, fn)
		}
	}
}

// ShutdownHook runs fn after the server stopped accepting requests, in
// registration order and before the kernel dispatches preShutdown.
//
//	delta.ShutdownHook(redis.Shutdown(client))
func ShutdownHook(fn func(context.Context) error) RunOption {
	return func(s *server) {
		if fn != nil {
			s.cleanup = append(s.cleanup, fn)
		}
	}
}

// WithContext sets the parent of the signal context. Canceling it stops the server.
func WithContext(ctx context.Context) RunOption {
	return func(s *server) {
		if ctx != nil {
			s.baseCtx = ctx
		}
	}
}

// serve blocks until SIGINT, SIGTERM, cancellation of the base context or a
// listener failure, then shuts down. Cleanup hooks run on every exit path.
func (s *server) serve() error {
	ctx, stop := signal.NotifyContext(s.baseCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	for _, hook := range s.startup {
		if err := hook(ctx); err != nil {
			return errors.Join(err, s.stop(false))
		}
	}

	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return errors.Join(err, s.stop(false))
	}

	failed := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", slog.String("address", ln.Addr().String()))
		err := s.http.Serve(ln)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		failed <- err
	}()

	var serveErr error
	select {
	case serveErr = <-failed:
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	return errors.Join(serveErr, s.stop(true))
}

// stop shuts the HTTP server down when it was started and runs the cleanup hooks.
func (s *server) stop(started bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	var errs []error
	if started {
		if err := s.http.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	for _, hook := range s.cleanup {
		if err := hook(ctx); err != nil {
			s.logger.Error("shutdown hook failed", slog.Any("error", err))
			errs = append(errs, err)
		}
	}

	if err := errors.Join(errs...); err != nil {
		s.logger.Error("shutdown completed with errors")
		return err
	}
	s.logger.Info("shutdown completed")
	return nil
}
