package delta_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/delta"
)

const greetConfig = `
routes:
  - name: greet
    path: /greet
    module: main
    controller: greet
    action: hello
filters:
  - id: request_id
    class: request_id
  - id: recover
    class: recover
`

func newGreetApp(t *testing.T, opts ...delta.Option) *delta.App {
	t.Helper()

	cfg, err := delta.ParseConfig([]byte(greetConfig))
	require.NoError(t, err)

	app, err := delta.New(append([]delta.Option{
		delta.WithConfig(cfg),
		delta.WithFS(fstest.MapFS{"modules/main/.keep": &fstest.MapFile{}}),
		delta.WithAction("main", "", "hello", func() delta.Action {
			return delta.ActionFunc(func(c *delta.Context) (delta.Component, error) {
				return nil, c.String("Hello World!")
			})
		}),
	}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Shutdown(context.Background()) })
	return app
}

func TestApp_Greet(t *testing.T) {
	t.Parallel()

	app := newGreetApp(t)

	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/greet", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Hello World!", rec.Body.String())
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"), "built-in filter classes are registered")

	rec = httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExecute(t *testing.T) {
	t.Parallel()

	app := newGreetApp(t, delta.WithBootMode(delta.BootConsole))

	var out bytes.Buffer
	status, err := delta.Execute(context.Background(), app, "/greet", &out)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "Hello World!\n", out.String())
}

// shutdownCounter counts preShutdown dispatches.
type shutdownCounter struct{ calls atomic.Int32 }

func (*shutdownCounter) BootMode() delta.BootMode { return delta.BootAll }
func (*shutdownCounter) ListenEvents() []delta.Event {
	return []delta.Event{delta.EventPreShutdown}
}
func (s *shutdownCounter) PreShutdown(context.Context) error {
	s.calls.Add(1)
	return nil
}

func TestExecute_ShutsDown(t *testing.T) {
	t.Parallel()

	t.Run("after a successful dispatch", func(t *testing.T) {
		t.Parallel()

		counter := &shutdownCounter{}
		app := newGreetApp(t,
			delta.WithBootMode(delta.BootConsole),
			delta.WithListener("shutdown", counter),
		)

		_, err := delta.Execute(context.Background(), app, "/greet", io.Discard)
		require.NoError(t, err)
		require.EqualValues(t, 1, counter.calls.Load())
	})

	t.Run("after a fatal dispatch error", func(t *testing.T) {
		t.Parallel()

		counter := &shutdownCounter{}
		app := newGreetApp(t,
			delta.WithBootMode(delta.BootConsole),
			delta.WithListener("shutdown", counter),
			delta.WithRoutes(delta.RouteConfig{Name: "fail", Path: "/fail", Module: "main", Action: "fail"}),
			delta.WithAction("main", "", "fail", func() delta.Action {
				return delta.ActionFunc(func(*delta.Context) (delta.Component, error) {
					return nil, errors.New("disk full")
				})
			}),
		)

		status, err := delta.Execute(context.Background(), app, "/fail", io.Discard)
		require.ErrorContains(t, err, "disk full")
		require.Equal(t, http.StatusInternalServerError, status)
		require.EqualValues(t, 1, counter.calls.Load())
	})
}

func TestNew_UnknownFilterClass(t *testing.T) {
	t.Parallel()

	_, err := delta.New(delta.WithFilter("x", "missing", nil))
	require.ErrorIs(t, err, delta.ErrUnknownFilter)
}
