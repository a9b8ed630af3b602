package internal_test

import (
	"bytes"
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/delta/internal"
)

func TestApp_Execute(t *testing.T) {
	t.Parallel()

	newConsoleApp := func(t *testing.T, opts ...internal.Option) *internal.App {
		t.Helper()
		return newApp(t, append([]internal.Option{
			internal.WithBootMode(internal.BootConsole),
			internal.WithAction("main", "", "report", func() internal.Action {
				return internal.ActionFunc(func(c *internal.Context) (internal.Component, error) {
					return nil, c.String("rows=" + c.Query("limit"))
				})
			}),
			internal.WithAction("main", "", "fail", func() internal.Action {
				return internal.ActionFunc(func(c *internal.Context) (internal.Component, error) {
					return nil, c.Error(http.StatusBadRequest, "bad input")
				})
			}),
		}, opts...)...)
	}

	t.Run("writes output with trailing newline", func(t *testing.T) {
		t.Parallel()

		var out bytes.Buffer
		status, err := newConsoleApp(t).Execute(context.Background(), http.MethodGet, "/report?limit=5", &out)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, status)
		require.Equal(t, "rows=5\n", out.String())
	})

	t.Run("miss reports 404", func(t *testing.T) {
		t.Parallel()

		var out bytes.Buffer
		status, err := newConsoleApp(t).Execute(context.Background(), http.MethodGet, "/nothing", &out)
		require.NoError(t, err)
		require.Equal(t, http.StatusNotFound, status)
	})

	t.Run("fatal error is returned", func(t *testing.T) {
		t.Parallel()

		var out bytes.Buffer
		status, err := newConsoleApp(t).Execute(context.Background(), http.MethodGet, "/fail", &out)
		require.Error(t, err)
		require.Equal(t, http.StatusInternalServerError, status)
		require.NotNil(t, internal.AsHTTPError(err))
		require.Empty(t, out.String())
	})

	t.Run("web-only listeners are skipped", func(t *testing.T) {
		t.Parallel()

		web := newRecorder(dispatchEvents...)
		web.mode = internal.BootWeb
		app := newConsoleApp(t, internal.WithListener("web", web))

		var out bytes.Buffer
		_, err := app.Execute(context.Background(), http.MethodGet, "/report", &out)
		require.NoError(t, err)
		require.Empty(t, web.Events())
		require.Equal(t, "rows=\n", out.String())
	})

	t.Run("invalid target", func(t *testing.T) {
		t.Parallel()

		_, err := newConsoleApp(t).Execute(context.Background(), "BAD METHOD", "/report", &bytes.Buffer{})
		require.Error(t, err)
	})
}
