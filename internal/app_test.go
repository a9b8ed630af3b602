package internal_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/delta/internal"
)

func TestNew_OptionErrors(t *testing.T) {
	t.Parallel()

	t.Run("duplicate action", func(t *testing.T) {
		t.Parallel()
		_, err := internal.New(
			internal.WithAction("main", "", "hello", text("a")),
			internal.WithAction("main", "", "hello", text("b")),
		)
		require.Error(t, err)
	})

	t.Run("unknown filter class", func(t *testing.T) {
		t.Parallel()
		_, err := internal.New(
			internal.WithRoutes(mainRoute),
			internal.WithFilter("auth", "nope", nil),
		)
		require.ErrorIs(t, err, internal.ErrUnknownFilter)
	})

	t.Run("unknown listener class", func(t *testing.T) {
		t.Parallel()
		_, err := internal.New(internal.WithConfig(&internal.Config{
			Listeners: []internal.ListenerConfig{{ID: "x", Class: "missing"}},
		}))
		require.ErrorIs(t, err, internal.ErrUnknownListener)
	})

	t.Run("invalid filter class registration", func(t *testing.T) {
		t.Parallel()
		_, err := internal.New(internal.WithFilterClass("", nil))
		require.ErrorIs(t, err, internal.ErrInvalidConfig)
	})

	t.Run("missing config file", func(t *testing.T) {
		t.Parallel()
		_, err := internal.New(internal.WithConfigFile(fstest.MapFS{}, "delta.yaml"))
		require.Error(t, err)
	})

	t.Run("bad static dir", func(t *testing.T) {
		t.Parallel()
		_, err := internal.New(internal.WithStaticFiles("/static/", fstest.MapFS{}, "../outside"))
		require.Error(t, err)
	})

	t.Run("invalid route", func(t *testing.T) {
		t.Parallel()
		_, err := internal.New(internal.WithRoutes(internal.RouteConfig{Name: "x"}))
		require.ErrorIs(t, err, internal.ErrInvalidConfig)
	})
}

func TestNew_ConfigFile(t *testing.T) {
	t.Parallel()

	fsys := testFS()
	fsys["delta.yaml"] = &fstest.MapFile{Data: []byte(`
routes:
  - name: main
    path: /{action}
    module: main
listeners:
  - id: security
    class: headers
    params:
      X-Frame-Options: DENY
`)}

	app, err := internal.New(
		internal.WithConfigFile(fsys, "delta.yaml"),
		internal.WithFS(fsys),
		internal.WithAction("main", "", "hello", text("hi")),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Shutdown(context.Background()) })

	rec := get(app, "/hello")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "hi", rec.Body.String())
	require.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	require.Equal(t, []string{"security"}, app.Controller().Observer().Listeners())
}

func TestApp_HealthChecks(t *testing.T) {
	t.Parallel()

	var redisDown bool
	app, err := internal.New(
		internal.WithFS(testFS()),
		internal.WithRoutes(mainRoute),
		internal.WithHealthChecks(
			internal.WithReadinessCheck("redis", func(context.Context) error {
				if redisDown {
					return errors.New("connection refused")
				}
				return nil
			}),
		),
	)
	require.NoError(t, err)

	rec := get(app, "/health/live")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "OK", rec.Body.String())

	rec = get(app, "/health/ready")
	require.Equal(t, http.StatusOK, rec.Code)

	redisDown = true
	rec = get(app, "/health/ready")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Contains(t, rec.Body.String(), "redis: connection refused")

	redisDown = false
	require.NoError(t, app.Shutdown(context.Background()))
	rec = get(app, "/health/ready")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Contains(t, rec.Body.String(), "kernel: "+internal.ErrShuttingDown.Error())
}

func TestApp_HealthCustomPaths(t *testing.T) {
	t.Parallel()

	app := newApp(t, internal.WithHealthChecks(
		internal.WithLivenessPath("/livez"),
		internal.WithReadinessPath("/readyz"),
	))

	require.Equal(t, http.StatusOK, get(app, "/livez").Code)
	require.Equal(t, http.StatusOK, get(app, "/readyz").Code)
	// The default paths fall through to the front controller.
	require.Equal(t, http.StatusNotFound, get(app, "/health/live").Code)
}

func TestApp_StaticFiles(t *testing.T) {
	t.Parallel()

	assets := fstest.MapFS{
		"public/app.css":        &fstest.MapFile{Data: []byte("body{}")},
		"public/img/index.html": &fstest.MapFile{Data: []byte("x")},
	}
	app := newApp(t,
		internal.WithStaticFiles("/static/", assets, "public"),
		internal.WithAction("main", "", "hello", text("hi")),
	)

	rec := get(app, "/static/app.css")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "body{}", rec.Body.String())
	require.Equal(t, "public, max-age=3600", rec.Header().Get("Cache-Control"))
	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	require.Equal(t, http.StatusNotFound, get(app, "/static/img/").Code)
	require.Equal(t, "hi", get(app, "/hello").Body.String())
}

func TestApp_Middleware(t *testing.T) {
	t.Parallel()

	app := newApp(t,
		internal.WithAction("main", "", "hello", text("hi")),
		internal.WithMiddleware(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("X-Edge", "1")
				next.ServeHTTP(w, r)
			})
		}),
	)

	rec := get(app, "/hello")
	require.Equal(t, "1", rec.Header().Get("X-Edge"))
	require.Equal(t, "hi", rec.Body.String())
}

func TestApp_ErrorHandler(t *testing.T) {
	t.Parallel()

	t.Run("renders fatal errors", func(t *testing.T) {
		t.Parallel()

		app := newApp(t,
			internal.WithAction("main", "", "boom", func() internal.Action {
				return internal.ActionFunc(func(c *internal.Context) (internal.Component, error) {
					_ = c.String("partial")
					return nil, c.Error(http.StatusConflict, "already exists")
				})
			}),
			internal.WithErrorHandler(func(c *internal.Context, err error) error {
				return c.String("oops: " + err.Error())
			}),
		)

		rec := get(app, "/boom")
		require.Equal(t, http.StatusConflict, rec.Code)
		require.Equal(t, "oops: already exists", rec.Body.String())
	})

	t.Run("failing handler falls back", func(t *testing.T) {
		t.Parallel()

		app := newApp(t,
			internal.WithAction("main", "", "boom", func() internal.Action {
				return internal.ActionFunc(func(*internal.Context) (internal.Component, error) {
					return nil, errors.New("db down")
				})
			}),
			internal.WithErrorHandler(func(*internal.Context, error) error {
				return errors.New("template missing")
			}),
		)

		rec := get(app, "/boom")
		require.Equal(t, http.StatusInternalServerError, rec.Code)
		require.Equal(t, "Internal Server Error\n", rec.Body.String())
	})

	t.Run("misses bypass the handler", func(t *testing.T) {
		t.Parallel()

		var called bool
		app := newApp(t, internal.WithErrorHandler(func(*internal.Context, error) error {
			called = true
			return nil
		}))

		require.Equal(t, http.StatusNotFound, get(app, "/missing").Code)
		require.False(t, called)
	})
}

func TestApp_ShutdownDispatchesOnce(t *testing.T) {
	t.Parallel()

	rec := newRecorder(internal.EventPreShutdown)
	app, err := internal.New(internal.WithListener("rec", rec))
	require.NoError(t, err)

	require.False(t, app.Controller().Observer().IsShutdown())
	require.NoError(t, app.Shutdown(context.Background()))
	require.NoError(t, app.Shutdown(context.Background()))
	require.True(t, app.Controller().Observer().IsShutdown())
	require.Equal(t, []internal.Event{internal.EventPreShutdown}, rec.Events())
}

func TestApp_AccessLogListener(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	app := newApp(t,
		internal.WithCustomLogger(log),
		internal.WithConfig(&internal.Config{
			Listeners: []internal.ListenerConfig{
				{ID: "access", Class: "access_log", Params: internal.Params{"level": "warn"}},
			},
		}),
		internal.WithAction("main", "", "hello", text("hi")),
	)

	buf.Reset()
	require.Equal(t, "hi", get(app, "/hello").Body.String())
	out := buf.String()
	require.Contains(t, out, `"level":"WARN"`)
	require.Contains(t, out, `"msg":"request"`)
	require.Contains(t, out, `"path":"/hello"`)
	require.Contains(t, out, `"route":"main"`)
	require.Contains(t, out, `"forwards":1`)
}

func TestApp_AccessLogListenerBadLevel(t *testing.T) {
	t.Parallel()

	_, err := internal.New(internal.WithConfig(&internal.Config{
		Listeners: []internal.ListenerConfig{
			{ID: "access", Class: "access_log", Params: internal.Params{"level": "loud"}},
		},
	}))
	require.Error(t, err)
}

func TestApp_Router(t *testing.T) {
	t.Parallel()

	app := newApp(t)
	require.NotNil(t, app.Router())
	require.Equal(t, "main", app.Config().Routes[0].Name)
}
