package internal

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrymomot/delta/pkg/health"
	"github.com/dmitrymomot/delta/pkg/logger"
)

// Default server timeouts (hardcoded, opinionated).
const (
	defaultReadTimeout       = 15 * time.Second
	defaultWriteTimeout      = 30 * time.Second
	defaultIdleTimeout       = 120 * time.Second
	defaultReadHeaderTimeout = 5 * time.Second
	defaultMaxHeaderBytes    = 1 << 20 // 1MB
	defaultShutdownTimeout   = 30 * time.Second
)

// Default paths of the operational endpoints.
const (
	defaultLivenessPath  = "/health/live"
	defaultReadinessPath = "/health/ready"
	defaultMetricsPath   = "/metrics"
)

// ErrorHandler renders a fatal dispatch error.
// Resolution misses never reach it; they are answered with 404 directly.
type ErrorHandler func(c *Context, err error) error

// App is one delta application: the front controller with its
// collaborators, plus the operational HTTP surface around it.
// App is immutable after creation; all configuration is done via New().
type App struct {
	config          *Config
	mode            BootMode
	fsys            fs.FS
	logger          *slog.Logger
	modulePaths     ModulePaths
	actionCache     CachePolicy
	routes          []RouteConfig
	filters         []FilterConfig
	registry        *ActionRegistry
	filterClasses   map[string]FilterFactory
	listenerClasses map[string]ListenerFactory
	listeners       []namedListener
	resolver        RouteResolver
	sessionManager  *SessionManager
	errorHandler    ErrorHandler
	healthConfig    *healthConfig
	metricsRegistry prometheus.Registerer
	metricsGatherer prometheus.Gatherer
	metricsPath     string
	middlewares     []func(http.Handler) http.Handler
	staticRoutes    []staticRoute
	optErrs         []error

	loader     *ActionLoader
	controller *FrontController
	router     chi.Router
}

type namedListener struct {
	id       string
	listener Listener
}

// staticRoute represents a static file handler mount point.
type staticRoute struct {
	handler http.Handler
	pattern string
}

// New creates an application.
//
// Listeners are registered in declaration order: configured listeners
// first, then those added with WithListener. Every registration fires
// preProcess.
//
// Example:
//
//	app, err := delta.New(
//	    delta.WithConfigFile(os.DirFS("."), "delta.yaml"),
//	    delta.WithFS(os.DirFS(".")),
//	    delta.WithAction("main", "", "hello", NewHello),
//	)
func New(opts ...Option) (*App, error) {
	a := &App{
		config:          &Config{},
		mode:            BootWeb,
		logger:          logger.NewNope(),
		modulePaths:     ModulePaths{},
		registry:        NewActionRegistry(),
		filterClasses:   make(map[string]FilterFactory),
		listenerClasses: make(map[string]ListenerFactory),
		metricsPath:     defaultMetricsPath,
		router:          chi.NewRouter(),
	}

	for _, opt := range opts {
		opt(a)
	}
	if len(a.optErrs) > 0 {
		return nil, errors.Join(a.optErrs...)
	}

	cfg := *a.config
	cfg.Routes = append(append([]RouteConfig(nil), cfg.Routes...), a.routes...)
	cfg.Filters = append(append([]FilterConfig(nil), cfg.Filters...), a.filters...)
	if a.actionCache != "" {
		cfg.ActionCache = a.actionCache
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a.config = &cfg

	for name, dir := range cfg.Modules {
		if _, ok := a.modulePaths[name]; !ok {
			a.modulePaths[name] = dir
		}
	}
	if _, ok := a.listenerClasses["access_log"]; !ok {
		a.listenerClasses["access_log"] = NewAccessLogListener(a.logger)
	}
	if _, ok := a.listenerClasses["headers"]; !ok {
		a.listenerClasses["headers"] = NewHeadersListener
	}

	if a.resolver == nil {
		resolver, err := NewResolver(cfg.BaseURL, cfg.Routes)
		if err != nil {
			return nil, err
		}
		a.resolver = resolver
	}

	filters, err := NewFilterManager(cfg.Filters, a.filterClasses)
	if err != nil {
		return nil, err
	}

	a.loader = NewActionLoader(a.fsys, a.modulePaths, a.registry, a.resolver, cfg.ActionCache)
	observer := NewKernelEventObserver(a.mode, a.listenerClasses, defaultListener(a.mode, a.logger), a.logger)
	metrics := NewMetrics(a.metricsRegistry)
	metrics.watchActionCache(a.metricsRegistry, a.loader)
	a.controller = NewFrontController(a.resolver, a.loader, filters, observer, a.logger, metrics)

	if err := a.registerListeners(context.Background()); err != nil {
		_ = a.loader.Close()
		return nil, err
	}

	if a.sessionManager != nil {
		a.sessionManager.SetLogger(a.logger)
	}

	a.setupRoutes()
	return a, nil
}

func (a *App) registerListeners(ctx context.Context) error {
	observer := a.controller.Observer()
	for _, lc := range a.config.Listeners {
		if _, err := observer.AddEventListener(ctx, lc.ID, lc); err != nil {
			return err
		}
	}
	for _, nl := range a.listeners {
		if _, err := observer.AddListener(ctx, nl.id, nl.listener); err != nil {
			return err
		}
	}
	return nil
}

// Router returns the underlying chi.Router.
func (a *App) Router() chi.Router {
	return a.router
}

// Controller returns the front controller.
func (a *App) Controller() *FrontController {
	return a.controller
}

// Config returns the effective configuration.
func (a *App) Config() Config {
	return *a.config
}

// ServeHTTP implements http.Handler.
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

// Shutdown dispatches preShutdown and releases the action cache.
// Only the first call dispatches the event.
func (a *App) Shutdown(ctx context.Context) error {
	return errors.Join(
		a.controller.Observer().Shutdown(ctx),
		a.loader.Close(),
	)
}

// Run starts the HTTP server and blocks until shutdown.
// Shutdown runs on SIGINT/SIGTERM and when the server fails; it always
// dispatches preShutdown.
//
// Example:
//
//	err := app.Run(":8080", delta.Logger(log))
func (a *App) Run(addr string, opts ...RunOption) error {
	opts = append(opts, ShutdownHook(a.Shutdown))
	return newServer(addr, a, opts...).serve()
}

// setupRoutes mounts the operational endpoints and hands every other
// request to the front controller.
func (a *App) setupRoutes() {
	for _, mw := range a.middlewares {
		a.router.Use(mw)
	}

	for _, sr := range a.staticRoutes {
		a.router.Mount(sr.pattern, sr.handler)
	}

	if a.healthConfig != nil {
		a.router.Get(a.healthConfig.livenessPath, health.LivenessHandler())
		checks := health.Checks{"kernel": a.kernelCheck}
		for name, fn := range a.healthConfig.checks {
			checks[name] = fn
		}
		a.router.Get(a.healthConfig.readinessPath, health.ReadinessHandler(checks,
			health.WithLogger(a.logger),
			health.WithTimeout(a.healthConfig.timeout),
		))
	}

	if a.metricsGatherer != nil {
		a.router.Method(http.MethodGet, a.metricsPath, promhttp.HandlerFor(a.metricsGatherer, promhttp.HandlerOpts{}))
	}

	a.router.Handle("/*", http.HandlerFunc(a.serve))
}

func (a *App) serve(w http.ResponseWriter, r *http.Request) {
	c := newContext(a.controller, NewRequest(r), NewResponse(w), a.sessionManager)
	if err := a.dispatch(c); err != nil {
		a.handleError(c, err)
	}
}

// dispatch runs the front controller, turns panics into errors and records
// the request metrics.
func (a *App) dispatch(c *Context) (err error) {
	defer c.release()
	defer func() {
		if rec := recover(); rec != nil {
			err = &PanicError{Value: rec, Stack: debug.Stack()}
		}
		a.controller.Record(c, err)
	}()
	return a.controller.Dispatch(c)
}

// handleError renders a fatal dispatch error unless output was already sent.
func (a *App) handleError(c *Context, err error) {
	res := c.Response()
	level := slog.LevelError
	if he := AsHTTPError(err); he != nil && he.StatusCode() < http.StatusInternalServerError {
		level = slog.LevelWarn
	}
	a.logger.Log(c, level, "dispatch failed",
		slog.String("method", c.Request().Method()),
		slog.String("path", c.Request().Path()),
		slog.Any("error", err),
	)

	if res.IsCommitted() {
		return
	}
	res.SetStatus(errorStatus(err))
	if a.errorHandler != nil {
		herr := a.errorHandler(c, err)
		if herr == nil {
			res.Flush()
			return
		}
		a.logger.ErrorContext(c, "error handler failed", slog.Any("error", herr))
	}

	res.SendError(errorStatus(err))
}

// kernelCheck fails once the kernel has started shutting down.
func (a *App) kernelCheck(context.Context) error {
	if a.controller.Observer().IsShutdown() {
		return ErrShuttingDown
	}
	return nil
}

// healthConfig holds health check endpoint configuration.
type healthConfig struct {
	checks        health.Checks
	livenessPath  string
	readinessPath string
	timeout       time.Duration
}

// HealthOption configures health check endpoints.
type HealthOption func(*healthConfig)

// WithLivenessPath sets a custom liveness endpoint path.
// Defaults to "/health/live".
func WithLivenessPath(path string) HealthOption {
	return func(c *healthConfig) {
		if path != "" {
			c.livenessPath = path
		}
	}
}

// WithReadinessPath sets a custom readiness endpoint path.
// Defaults to "/health/ready".
func WithReadinessPath(path string) HealthOption {
	return func(c *healthConfig) {
		if path != "" {
			c.readinessPath = path
		}
	}
}

// WithReadinessTimeout bounds one readiness probe run.
func WithReadinessTimeout(d time.Duration) HealthOption {
	return func(c *healthConfig) {
		c.timeout = d
	}
}

// WithReadinessCheck adds a named readiness check.
//
// Example:
//
//	delta.WithReadinessCheck("redis", redis.Healthcheck(client))
func WithReadinessCheck(name string, fn health.CheckFunc) HealthOption {
	return func(c *healthConfig) {
		if c.checks == nil {
			c.checks = make(health.Checks)
		}
		c.checks[name] = fn
	}
}
