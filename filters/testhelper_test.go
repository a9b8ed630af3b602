package filters_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/delta"
)

// moduleFS holds the single "main" module used by the tests.
// The admin action requires the "admin" role.
func moduleFS() fstest.MapFS {
	return fstest.MapFS{
		"modules/main/.keep":                &fstest.MapFile{},
		"modules/main/behaviors/Admin.yaml": &fstest.MapFile{Data: []byte("roles: [admin]\n")},
	}
}

// newTestApp builds an app whose "/{action}" route dispatches to actions of
// module "main".
func newTestApp(t *testing.T, opts ...delta.Option) *delta.App {
	t.Helper()

	base := []delta.Option{
		delta.WithFS(moduleFS()),
		delta.WithRoutes(delta.RouteConfig{
			Name:   "main",
			Path:   "/{action}",
			Module: "main",
		}),
	}
	app, err := delta.New(append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Shutdown(context.Background()) })
	return app
}

// text returns an action factory writing s.
func text(s string) delta.ActionFactory {
	return func() delta.Action {
		return delta.ActionFunc(func(c *delta.Context) (delta.Component, error) {
			return nil, c.String(s)
		})
	}
}

func serve(app *delta.App, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, req)
	return rec
}
