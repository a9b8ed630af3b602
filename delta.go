package delta

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrymomot/delta/filters"
	"github.com/dmitrymomot/delta/internal"
	"github.com/dmitrymomot/delta/pkg/health"
	"github.com/dmitrymomot/delta/pkg/logger"
	"github.com/dmitrymomot/delta/pkg/session"
)

// Type aliases - public API
type (
	// App is one application: the front controller and its HTTP surface.
	App = internal.App

	// Context is the per-request dispatch context.
	Context = internal.Context

	// Action is a unit of business logic executed for one forward.
	Action = internal.Action

	// ActionFunc adapts a function to the Action interface.
	ActionFunc = internal.ActionFunc

	// ActionFactory creates a fresh action for each forward.
	ActionFactory = internal.ActionFactory

	// ActionInstance is an action bound to its resolution metadata.
	ActionInstance = internal.ActionInstance

	// Validator is implemented by actions that validate their own input.
	Validator = internal.Validator

	// ValidateErrorHandler is implemented by actions that handle failed validation.
	ValidateErrorHandler = internal.ValidateErrorHandler

	// Behavior is the per-action configuration file.
	Behavior = internal.Behavior

	// Component is the interface for renderable templates.
	// It is compatible with templ.Component.
	Component = internal.Component

	// Filter wraps the execution of a forward.
	Filter = internal.Filter

	// FilterFunc adapts a function to the Filter interface.
	FilterFunc = internal.FilterFunc

	// FilterChain is the ordered list of filters for one forward.
	FilterChain = internal.FilterChain

	// FilterFactory builds a filter from its declaration params.
	FilterFactory = internal.FilterFactory

	// Listener is the marker every kernel event listener implements.
	Listener = internal.Listener

	// ListenerFactory builds a listener from its declaration params.
	ListenerFactory = internal.ListenerFactory

	// Per-event listener capabilities.
	PreProcessListener       = internal.PreProcessListener
	PostRouteConnectListener = internal.PostRouteConnectListener
	PreOutputListener        = internal.PreOutputListener
	PostProcessListener      = internal.PostProcessListener
	PreShutdownListener      = internal.PreShutdownListener

	// Event names a kernel lifecycle event.
	Event = internal.Event

	// EventArgs carries event arguments.
	EventArgs = internal.EventArgs

	// BootMode tells whether the process serves HTTP or runs a console task.
	BootMode = internal.BootMode

	// KernelEventObserver fans lifecycle events out to listeners.
	KernelEventObserver = internal.KernelEventObserver

	// FrontController runs the dispatch pipeline.
	FrontController = internal.FrontController

	// Route is the result of resolving a request path.
	Route = internal.Route

	// RouteResolver maps request paths to routes and back.
	RouteResolver = internal.RouteResolver

	// Forward is one dispatch hop within a request.
	Forward = internal.Forward

	// ForwardStack is the chain of forwards of one request.
	ForwardStack = internal.ForwardStack

	// Request is the inbound side of one dispatch.
	Request = internal.Request

	// Response is the buffered outbound side of one dispatch.
	Response = internal.Response

	// ActionMessages collects messages and errors of one request.
	ActionMessages = internal.ActionMessages

	// User is the identity behind a request.
	User = internal.User

	// Params is the parameter map of filter and listener declarations.
	Params = internal.Params

	// Config is the declarative part of an application.
	Config = internal.Config

	// RouteConfig declares one route.
	RouteConfig = internal.RouteConfig

	// FilterConfig declares one filter.
	FilterConfig = internal.FilterConfig

	// ListenerConfig declares one listener.
	ListenerConfig = internal.ListenerConfig

	// CachePolicy selects the lifetime of the action lookup cache.
	CachePolicy = internal.CachePolicy

	// ModulePaths maps module names to directories.
	ModulePaths = internal.ModulePaths

	// HTTPError carries a status code for the error handler.
	HTTPError = internal.HTTPError

	// NotFoundError is the outcome of a resolution miss.
	NotFoundError = internal.NotFoundError

	// ForwardLoopError reports a forward chain that exceeded MaxForwards.
	ForwardLoopError = internal.ForwardLoopError

	// ListenerContractError reports a listener that cannot honor its declaration.
	ListenerContractError = internal.ListenerContractError

	// PanicError carries a value recovered from a panic.
	PanicError = internal.PanicError

	// ErrorHandler renders fatal dispatch errors.
	ErrorHandler = internal.ErrorHandler

	// Option configures the application.
	Option = internal.Option

	// RunOption configures the server runtime.
	RunOption = internal.RunOption

	// HealthOption configures health check endpoints.
	HealthOption = internal.HealthOption

	// SessionOption configures the session manager.
	SessionOption = internal.SessionOption

	// ContextExtractor extracts a slog attribute from context.
	ContextExtractor = logger.ContextExtractor

	// Session is a server-side session.
	Session = session.Session

	// SessionStore persists sessions.
	SessionStore = session.Store
)

// Boot modes.
const (
	BootWeb     = internal.BootWeb
	BootConsole = internal.BootConsole
	BootAll     = internal.BootAll
)

// Kernel events.
const (
	EventPreProcess       = internal.EventPreProcess
	EventPostRouteConnect = internal.EventPostRouteConnect
	EventPreOutput        = internal.EventPreOutput
	EventPostProcess      = internal.EventPostProcess
	EventPreShutdown      = internal.EventPreShutdown
)

// Action cache policies.
const (
	CacheProcess = internal.CacheProcess
	CacheRequest = internal.CacheRequest
)

// MaxForwards bounds the forward chain of a single request.
const MaxForwards = internal.MaxForwards

// Errors.
var (
	ErrNotFound            = internal.ErrNotFound
	ErrForwardLoop         = internal.ErrForwardLoop
	ErrEmptyForwardStack   = internal.ErrEmptyForwardStack
	ErrListenerContract    = internal.ErrListenerContract
	ErrDuplicateMessageKey = internal.ErrDuplicateMessageKey
	ErrUnknownFilter       = internal.ErrUnknownFilter
	ErrUnknownListener     = internal.ErrUnknownListener
	ErrUnknownRoute        = internal.ErrUnknownRoute
	ErrMissingRouteParam   = internal.ErrMissingRouteParam
	ErrInvalidRouteParam   = internal.ErrInvalidRouteParam
	ErrInvalidConfig       = internal.ErrInvalidConfig
	ErrShuttingDown        = internal.ErrShuttingDown
	ErrNoDispatchContext   = internal.ErrNoDispatchContext
)

// New creates an application.
// The built-in filter classes of package filters are registered first,
// so options can override them.
//
// Example:
//
//	app, err := delta.New(
//	    delta.WithConfigFile(nil, "delta.yaml"),
//	    delta.WithFS(os.DirFS(".")),
//	    delta.WithAction("main", "", "hello", NewHello),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = app.Run(":8080", delta.Logger(log))
func New(opts ...Option) (*App, error) {
	classes := filters.Classes()
	all := make([]Option, 0, len(classes)+len(opts))
	for class, factory := range classes {
		all = append(all, internal.WithFilterClass(class, factory))
	}
	return internal.New(append(all, opts...)...)
}

// ParseConfig decodes and validates a YAML configuration document.
func ParseConfig(data []byte) (*Config, error) {
	return internal.ParseConfig(data)
}

// LoadConfig reads a YAML configuration file from fsys.
func LoadConfig(fsys fs.FS, path string) (*Config, error) {
	return internal.LoadConfig(fsys, path)
}

// NewHTTPError creates an HTTPError.
func NewHTTPError(code int, message string) *HTTPError {
	return internal.NewHTTPError(code, message)
}

// AsHTTPError extracts the HTTPError from an error chain, or returns nil.
func AsHTTPError(err error) *HTTPError {
	return internal.AsHTTPError(err)
}

// IsNotFound reports whether err is a resolution miss.
func IsNotFound(err error) bool {
	return internal.IsNotFound(err)
}

// ContextFrom returns the dispatch Context carried by ctx.
// Components receive the dispatch Context when rendered by an action.
func ContextFrom(ctx context.Context) (*Context, error) {
	return internal.ContextFrom(ctx)
}

// ContextValue retrieves a typed value from the context.
// Returns the zero value of T if the key is not found or the type doesn't match.
//
// Example:
//
//	tenant := delta.ContextValue[string](c, tenantKey{})
func ContextValue[T any](c *Context, key any) T {
	return internal.ContextValue[T](c, key)
}

// Param returns a typed route parameter.
//
// Example:
//
//	id := delta.Param[int64](c, "id")
func Param[T internal.Scalar](c *Context, name string) T {
	return internal.Param[T](c, name)
}

// Query returns a typed query string value.
func Query[T internal.Scalar](c *Context, name string) T {
	return internal.Query[T](c, name)
}

// QueryDefault returns a typed query string value or defaultValue.
//
// Example:
//
//	page := delta.QueryDefault(c, "page", 1)
func QueryDefault[T internal.Scalar](c *Context, name string, defaultValue T) T {
	return internal.QueryDefault(c, name, defaultValue)
}

// Input returns a typed POST value, falling back to the query string.
func Input[T internal.Scalar](c *Context, name string) T {
	return internal.Input[T](c, name)
}

// InputDefault returns a typed input value or defaultValue.
func InputDefault[T internal.Scalar](c *Context, name string, defaultValue T) T {
	return internal.InputDefault(c, name, defaultValue)
}

// WithConfig sets the declarative configuration.
func WithConfig(cfg *Config) Option {
	return internal.WithConfig(cfg)
}

// WithConfigFile loads the declarative configuration from a YAML file.
func WithConfigFile(fsys fs.FS, path string) Option {
	return internal.WithConfigFile(fsys, path)
}

// WithFS sets the filesystem holding module directories and behavior files.
func WithFS(fsys fs.FS) Option {
	return internal.WithFS(fsys)
}

// WithBootMode sets the process boot mode. Defaults to BootWeb.
func WithBootMode(mode BootMode) Option {
	return internal.WithBootMode(mode)
}

// WithRoutes appends route definitions.
func WithRoutes(routes ...RouteConfig) Option {
	return internal.WithRoutes(routes...)
}

// WithResolver replaces the configured route table with a custom resolver.
func WithResolver(r RouteResolver) Option {
	return internal.WithResolver(r)
}

// WithModulePath maps a module name to its directory.
func WithModulePath(module, dir string) Option {
	return internal.WithModulePath(module, dir)
}

// WithActionCache sets the lifetime of the action lookup cache.
func WithActionCache(policy CachePolicy) Option {
	return internal.WithActionCache(policy)
}

// WithAction registers an action factory.
func WithAction(module, packagePath, name string, factory ActionFactory) Option {
	return internal.WithAction(module, packagePath, name, factory)
}

// WithFilter appends a filter declaration.
func WithFilter(id, class string, params Params) Option {
	return internal.WithFilter(id, class, params)
}

// WithFilterClass registers a filter class.
func WithFilterClass(class string, factory FilterFactory) Option {
	return internal.WithFilterClass(class, factory)
}

// WithListenerClass registers a listener class.
func WithListenerClass(class string, factory ListenerFactory) Option {
	return internal.WithListenerClass(class, factory)
}

// WithListener registers a constructed listener.
func WithListener(id string, l Listener) Option {
	return internal.WithListener(id, l)
}

// WithMiddleware adds HTTP middleware in front of every endpoint.
func WithMiddleware(mw ...func(http.Handler) http.Handler) Option {
	return internal.WithMiddleware(mw...)
}

// WithStaticFiles mounts a static file handler at the given pattern.
//
// Example:
//
//	//go:embed public
//	var assets embed.FS
//
//	delta.WithStaticFiles("/static/", assets, "public")
func WithStaticFiles(pattern string, fsys fs.FS, subDir string) Option {
	return internal.WithStaticFiles(pattern, fsys, subDir)
}

// WithErrorHandler sets the renderer of fatal dispatch errors.
func WithErrorHandler(h ErrorHandler) Option {
	return internal.WithErrorHandler(h)
}

// WithHealthChecks enables health check endpoints.
// Liveness (/health/live): Always returns OK if process is running.
// Readiness (/health/ready): Runs all configured checks.
func WithHealthChecks(opts ...HealthOption) Option {
	return internal.WithHealthChecks(opts...)
}

// WithMetrics registers dispatch metrics on reg and serves them.
func WithMetrics(reg *prometheus.Registry) Option {
	return internal.WithMetrics(reg)
}

// WithMetricsPath sets the metrics endpoint path.
func WithMetricsPath(path string) Option {
	return internal.WithMetricsPath(path)
}

// WithLogger creates a logger with a component name and optional extractors.
//
// Example:
//
//	delta.New(
//	    delta.WithLogger("web", filters.RequestIDExtractor()),
//	)
func WithLogger(component string, extractors ...ContextExtractor) Option {
	return internal.WithLogger(component, extractors...)
}

// WithCustomLogger sets a fully custom logger.
func WithCustomLogger(l *slog.Logger) Option {
	return internal.WithCustomLogger(l)
}

// WithSession enables server-side sessions.
func WithSession(store SessionStore, opts ...SessionOption) Option {
	return internal.WithSession(store, opts...)
}

// WithSessionCookieName sets the session cookie name.
func WithSessionCookieName(name string) SessionOption {
	return internal.WithSessionCookieName(name)
}

// WithSessionMaxAge sets the session lifetime in seconds.
func WithSessionMaxAge(seconds int) SessionOption {
	return internal.WithSessionMaxAge(seconds)
}

// WithSessionDomain sets the session cookie domain.
func WithSessionDomain(domain string) SessionOption {
	return internal.WithSessionDomain(domain)
}

// WithSessionPath sets the session cookie path.
func WithSessionPath(path string) SessionOption {
	return internal.WithSessionPath(path)
}

// WithSessionSecure sets the Secure flag of the session cookie.
func WithSessionSecure(secure bool) SessionOption {
	return internal.WithSessionSecure(secure)
}

// WithSessionSameSite sets the SameSite mode of the session cookie.
func WithSessionSameSite(sameSite http.SameSite) SessionOption {
	return internal.WithSessionSameSite(sameSite)
}

// WithLivenessPath sets a custom liveness endpoint path.
func WithLivenessPath(path string) HealthOption {
	return internal.WithLivenessPath(path)
}

// WithReadinessPath sets a custom readiness endpoint path.
func WithReadinessPath(path string) HealthOption {
	return internal.WithReadinessPath(path)
}

// WithReadinessTimeout bounds one readiness probe run.
func WithReadinessTimeout(d time.Duration) HealthOption {
	return internal.WithReadinessTimeout(d)
}

// WithReadinessCheck adds a named readiness check.
func WithReadinessCheck(name string, fn health.CheckFunc) HealthOption {
	return internal.WithReadinessCheck(name, fn)
}

// Logger sets the runtime logger.
func Logger(l *slog.Logger) RunOption {
	return internal.Logger(l)
}

// ShutdownTimeout sets the timeout for graceful shutdown.
func ShutdownTimeout(d time.Duration) RunOption {
	return internal.ShutdownTimeout(d)
}

// StartupHook registers a function to run before the server accepts requests.
func StartupHook(fn func(context.Context) error) RunOption {
	return internal.StartupHook(fn)
}

// ShutdownHook registers a cleanup function to run during shutdown.
func ShutdownHook(fn func(context.Context) error) RunOption {
	return internal.ShutdownHook(fn)
}

// WithContext sets a custom base context for signal handling.
func WithContext(ctx context.Context) RunOption {
	return internal.WithContext(ctx)
}

// Execute is the console runner: it dispatches one GET request on app,
// writes the body to out and shuts app down, so preShutdown fires on every
// path, failed dispatches and panics included. The shutdown error is joined
// into the result. app is not usable afterwards.
func Execute(ctx context.Context, app *App, target string, out io.Writer) (status int, err error) {
	defer func() {
		err = errors.Join(err, app.Shutdown(context.WithoutCancel(ctx)))
	}()
	return app.Execute(ctx, http.MethodGet, target, out)
}
