package internal_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/delta/internal"
)

const signupBehavior = `sanitize:
  name: strict
validate:
  name: [required, "max_length:8"]
  age: [numeric]
`

// testFS holds module "main" (with an admin package behavior) and module "shop".
func testFS() fstest.MapFS {
	return fstest.MapFS{
		"modules/main/.keep":                      &fstest.MapFile{},
		"modules/shop/.keep":                      &fstest.MapFile{},
		"modules/main/behaviors/admin/Users.yaml": &fstest.MapFile{Data: []byte("roles: [admin]\n")},
		"modules/main/behaviors/Signup.yaml":      &fstest.MapFile{Data: []byte(signupBehavior)},
	}
}

// mainRoute dispatches "/{action}" to module main.
var mainRoute = internal.RouteConfig{Name: "main", Path: "/{action}", Module: "main", Controller: "index"}

func newApp(t *testing.T, opts ...internal.Option) *internal.App {
	t.Helper()

	base := []internal.Option{
		internal.WithFS(testFS()),
		internal.WithRoutes(mainRoute),
	}
	app, err := internal.New(append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Shutdown(context.Background()) })
	return app
}

func serve(app *internal.App, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	app.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func get(app *internal.App, target string) *httptest.ResponseRecorder {
	return serve(app, http.MethodGet, target)
}

// text returns an action factory writing s.
func text(s string) internal.ActionFactory {
	return func() internal.Action {
		return internal.ActionFunc(func(c *internal.Context) (internal.Component, error) {
			return nil, c.String(s)
		})
	}
}

// forwardTo returns an action factory forwarding to action.
func forwardTo(action string) internal.ActionFactory {
	return func() internal.Action {
		return internal.ActionFunc(func(c *internal.Context) (internal.Component, error) {
			return nil, c.Forward(action)
		})
	}
}

// recorder is a listener that records every event it receives.
type recorder struct {
	mode   internal.BootMode
	listen []internal.Event

	mu     sync.Mutex
	events []internal.Event
	// rewrite replaces the output on preOutput when set.
	rewrite func([]byte) []byte
}

func newRecorder(events ...internal.Event) *recorder {
	return &recorder{mode: internal.BootAll, listen: events}
}

func (r *recorder) BootMode() internal.BootMode       { return r.mode }
func (r *recorder) ListenEvents() []internal.Event    { return r.listen }
func (r *recorder) PreProcess(context.Context) error  { r.record(internal.EventPreProcess); return nil }
func (r *recorder) PreShutdown(context.Context) error { r.record(internal.EventPreShutdown); return nil }

func (r *recorder) PostRouteConnect(*internal.Context) error {
	r.record(internal.EventPostRouteConnect)
	return nil
}

func (r *recorder) PreOutput(_ *internal.Context, out []byte) ([]byte, error) {
	r.record(internal.EventPreOutput)
	if r.rewrite != nil {
		return r.rewrite(out), nil
	}
	return out, nil
}

func (r *recorder) PostProcess(*internal.Context) error {
	r.record(internal.EventPostProcess)
	return nil
}

func (r *recorder) record(e internal.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Reset returns the recorded events and starts over.
func (r *recorder) Reset() []internal.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	events := r.events
	r.events = nil
	return events
}

func (r *recorder) Events() []internal.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]internal.Event(nil), r.events...)
}

// dispatchEvents lists the request events, in order.
var dispatchEvents = []internal.Event{
	internal.EventPostRouteConnect,
	internal.EventPreOutput,
	internal.EventPostProcess,
}

// component renders a fixed string.
type component string

func (s component) Render(_ context.Context, w io.Writer) error {
	_, err := io.WriteString(w, string(s))
	return err
}
