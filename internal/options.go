package internal

import (
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrymomot/delta/pkg/logger"
	"github.com/dmitrymomot/delta/pkg/session"
)

// Option configures the application.
type Option func(*App)

// WithConfig sets the declarative configuration.
// Routes and filters added with WithRoutes and WithFilter are appended to it.
func WithConfig(cfg *Config) Option {
	return func(a *App) {
		if cfg != nil {
			a.config = cfg
		}
	}
}

// WithConfigFile loads the declarative configuration from a YAML file.
// A nil fsys reads from the working directory.
//
// Example:
//
//	delta.New(
//	    delta.WithConfigFile(nil, "config/delta.yaml"),
//	)
func WithConfigFile(fsys fs.FS, path string) Option {
	return func(a *App) {
		cfg, err := LoadConfig(fsys, path)
		if err != nil {
			a.optErrs = append(a.optErrs, err)
			return
		}
		a.config = cfg
	}
}

// WithFS sets the application filesystem holding module directories
// and behavior files.
func WithFS(fsys fs.FS) Option {
	return func(a *App) {
		a.fsys = fsys
	}
}

// WithBootMode sets the process boot mode. Defaults to BootWeb.
func WithBootMode(mode BootMode) Option {
	return func(a *App) {
		if mode != 0 {
			a.mode = mode
		}
	}
}

// WithRoutes appends route definitions. Earlier routes win on overlap.
func WithRoutes(routes ...RouteConfig) Option {
	return func(a *App) {
		a.routes = append(a.routes, routes...)
	}
}

// WithResolver replaces the configured route table with a custom resolver.
func WithResolver(r RouteResolver) Option {
	return func(a *App) {
		a.resolver = r
	}
}

// WithModulePath maps a module name to its directory in the application FS.
func WithModulePath(module, dir string) Option {
	return func(a *App) {
		a.modulePaths[module] = dir
	}
}

// WithActionCache sets the lifetime of the action lookup cache.
func WithActionCache(policy CachePolicy) Option {
	return func(a *App) {
		a.actionCache = policy
	}
}

// WithAction registers an action factory.
// packagePath is the action's location below the module ("" for the
// module root, "admin" for an admin package); it determines the package
// name checked against route allow-lists.
//
// Example:
//
//	delta.WithAction("main", "", "hello", func() delta.Action { return &Hello{} })
func WithAction(module, packagePath, name string, factory ActionFactory) Option {
	return func(a *App) {
		if err := a.registry.Register(module, packagePath, name, factory); err != nil {
			a.optErrs = append(a.optErrs, err)
		}
	}
}

// WithFilter appends a filter declaration to the chain.
func WithFilter(id, class string, params Params) Option {
	return func(a *App) {
		a.filters = append(a.filters, FilterConfig{ID: id, Class: class, Params: params})
	}
}

// WithFilterClass registers a filter class usable from declarations.
func WithFilterClass(class string, factory FilterFactory) Option {
	return func(a *App) {
		if class == "" || factory == nil {
			a.optErrs = append(a.optErrs, fmt.Errorf("%w: filter class needs a name and factory", ErrInvalidConfig))
			return
		}
		a.filterClasses[class] = factory
	}
}

// WithListenerClass registers a listener class usable from declarations.
func WithListenerClass(class string, factory ListenerFactory) Option {
	return func(a *App) {
		if class == "" || factory == nil {
			a.optErrs = append(a.optErrs, fmt.Errorf("%w: listener class needs a name and factory", ErrInvalidConfig))
			return
		}
		a.listenerClasses[class] = factory
	}
}

// WithListener registers a constructed listener after the configured ones.
func WithListener(id string, l Listener) Option {
	return func(a *App) {
		a.listeners = append(a.listeners, namedListener{id: id, listener: l})
	}
}

// WithMiddleware adds HTTP middleware in front of every endpoint,
// the front controller included.
func WithMiddleware(mw ...func(http.Handler) http.Handler) Option {
	return func(a *App) {
		a.middlewares = append(a.middlewares, mw...)
	}
}

// WithStaticFiles serves dir of fsys below prefix, outside the front
// controller. Directory paths answer 404.
//
//	//go:embed public
//	var assets embed.FS
//
//	delta.WithStaticFiles("/static/", assets, "public")
func WithStaticFiles(prefix string, fsys fs.FS, dir string) Option {
	return func(a *App) {
		root, err := fs.Sub(fsys, dir)
		if err != nil {
			a.optErrs = append(a.optErrs, fmt.Errorf("%w: static dir %q: %w", ErrInvalidConfig, dir, err))
			return
		}
		files := http.StripPrefix(strings.TrimSuffix(prefix, "/"), http.FileServerFS(root))
		a.staticRoutes = append(a.staticRoutes, staticRoute{
			pattern: prefix,
			handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if strings.HasSuffix(r.URL.Path, "/") {
					http.NotFound(w, r)
					return
				}
				h := w.Header()
				h.Set("Cache-Control", "public, max-age=3600")
				h.Set("X-Content-Type-Options", "nosniff")
				files.ServeHTTP(w, r)
			}),
		})
	}
}

// WithErrorHandler sets the renderer of fatal dispatch errors.
//
// Example:
//
//	delta.WithErrorHandler(func(c *delta.Context, err error) error {
//	    c.SetStatus(http.StatusInternalServerError)
//	    return c.Render(views.ErrorPage(err))
//	})
func WithErrorHandler(h ErrorHandler) Option {
	return func(a *App) {
		a.errorHandler = h
	}
}

// WithHealthChecks mounts the probes. Liveness answers while the process
// runs. Readiness runs the kernel check plus every WithReadinessCheck.
func WithHealthChecks(opts ...HealthOption) Option {
	return func(a *App) {
		a.healthConfig = &healthConfig{
			livenessPath:  defaultLivenessPath,
			readinessPath: defaultReadinessPath,
		}
		for _, opt := range opts {
			opt(a.healthConfig)
		}
	}
}

// WithMetrics registers dispatch metrics on reg and serves them on /metrics.
func WithMetrics(reg *prometheus.Registry) Option {
	return func(a *App) {
		if reg != nil {
			a.metricsRegistry = reg
			a.metricsGatherer = reg
		}
	}
}

// WithMetricsPath sets the metrics endpoint path. Defaults to "/metrics".
func WithMetricsPath(path string) Option {
	return func(a *App) {
		if path != "" {
			a.metricsPath = path
		}
	}
}

// WithLogger installs the JSON logger of pkg/logger tagged with component.
//
//	delta.WithLogger("web", filters.RequestIDExtractor())
func WithLogger(component string, extractors ...logger.ContextExtractor) Option {
	return func(a *App) {
		a.logger = logger.New(extractors...).With(slog.String("component", component))
	}
}

// WithCustomLogger installs l as is. Nil is ignored.
func WithCustomLogger(l *slog.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithSession enables server-side sessions for User.
// Sessions are loaded lazily and saved right before the response is committed.
//
// Example:
//
//	delta.New(
//	    delta.WithSession(session.NewMemoryStore(),
//	        delta.WithSessionCookieName("__sid"),
//	        delta.WithSessionSecure(true),
//	    ),
//	)
func WithSession(store session.Store, opts ...SessionOption) Option {
	return func(a *App) {
		a.sessionManager = NewSessionManager(store, opts...)
	}
}
