package internal_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/delta/internal"
)

// markerOnly declares preOutput but cannot handle it.
type markerOnly struct{}

func (markerOnly) BootMode() internal.BootMode    { return internal.BootAll }
func (markerOnly) ListenEvents() []internal.Event { return []internal.Event{internal.EventPreOutput} }

func recorderClass(r *recorder) internal.ListenerFactory {
	return func(internal.Params) (any, error) { return r, nil }
}

func TestKernelEventObserver_BootModeGating(t *testing.T) {
	t.Parallel()

	web := newRecorder(internal.EventPreProcess)
	web.mode = internal.BootWeb
	console := newRecorder(internal.EventPreProcess)
	console.mode = internal.BootConsole
	both := newRecorder(internal.EventPreProcess)

	o := internal.NewKernelEventObserver(internal.BootConsole, nil, nil, nil)
	ctx := context.Background()

	ok, err := o.AddListener(ctx, "web", web)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = o.AddListener(ctx, "console", console)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = o.AddListener(ctx, "both", both)
	require.NoError(t, err)
	require.True(t, ok)

	require.Equal(t, []string{"console", "both"}, o.Listeners())
	require.Empty(t, web.Events())
}

func TestKernelEventObserver_PreProcessOnEveryRegistration(t *testing.T) {
	t.Parallel()

	first := newRecorder(internal.EventPreProcess)
	second := newRecorder(internal.EventPreProcess)
	third := newRecorder(internal.EventPreProcess)

	o := internal.NewKernelEventObserver(internal.BootWeb, map[string]internal.ListenerFactory{
		"first":  recorderClass(first),
		"second": recorderClass(second),
		"third":  recorderClass(third),
	}, nil, nil)
	ctx := context.Background()

	for _, id := range []string{"first", "second", "third"} {
		ok, err := o.AddEventListener(ctx, id, internal.ListenerConfig{ID: id, Class: id})
		require.NoError(t, err)
		require.True(t, ok)
	}

	require.Len(t, first.Events(), 3)
	require.Len(t, second.Events(), 2)
	require.Len(t, third.Events(), 1)
}

func TestKernelEventObserver_Registration(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("unknown class", func(t *testing.T) {
		t.Parallel()
		o := internal.NewKernelEventObserver(internal.BootWeb, nil, nil, nil)
		_, err := o.AddEventListener(ctx, "x", internal.ListenerConfig{Class: "missing"})
		require.ErrorIs(t, err, internal.ErrUnknownListener)
	})

	t.Run("factory error", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("boom")
		o := internal.NewKernelEventObserver(internal.BootWeb, map[string]internal.ListenerFactory{
			"bad": func(internal.Params) (any, error) { return nil, boom },
		}, nil, nil)
		_, err := o.AddEventListener(ctx, "x", internal.ListenerConfig{Class: "bad"})
		require.ErrorIs(t, err, boom)
	})

	t.Run("not a listener", func(t *testing.T) {
		t.Parallel()
		o := internal.NewKernelEventObserver(internal.BootWeb, map[string]internal.ListenerFactory{
			"str": func(internal.Params) (any, error) { return "not a listener", nil },
		}, nil, nil)
		_, err := o.AddEventListener(ctx, "x", internal.ListenerConfig{Class: "str"})
		require.ErrorIs(t, err, internal.ErrListenerContract)

		var ce *internal.ListenerContractError
		require.ErrorAs(t, err, &ce)
		require.Equal(t, "x", ce.ListenerID)
		require.Empty(t, ce.Event)
	})

	t.Run("duplicate id", func(t *testing.T) {
		t.Parallel()
		o := internal.NewKernelEventObserver(internal.BootWeb, nil, nil, nil)
		_, err := o.AddListener(ctx, "x", newRecorder())
		require.NoError(t, err)
		_, err = o.AddListener(ctx, "x", newRecorder())
		require.ErrorIs(t, err, internal.ErrInvalidConfig)
	})
}

func TestKernelEventObserver_DispatchEvent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("registration order", func(t *testing.T) {
		t.Parallel()

		var order []string
		o := internal.NewKernelEventObserver(internal.BootWeb, nil, nil, nil)
		for _, id := range []string{"a", "b", "c"} {
			_, err := o.AddListener(ctx, id, &outputAppender{tag: id, order: &order})
			require.NoError(t, err)
		}

		args := &internal.EventArgs{Output: []byte(">")}
		require.NoError(t, o.DispatchEvent(ctx, internal.EventPreOutput, args))
		require.Equal(t, ">abc", string(args.Output))
		require.Equal(t, []string{"a", "b", "c"}, order)
	})

	t.Run("contract violation", func(t *testing.T) {
		t.Parallel()

		o := internal.NewKernelEventObserver(internal.BootWeb, nil, nil, nil)
		_, err := o.AddListener(ctx, "liar", markerOnly{})
		require.NoError(t, err)

		err = o.DispatchEvent(ctx, internal.EventPreOutput, &internal.EventArgs{})
		var ce *internal.ListenerContractError
		require.ErrorAs(t, err, &ce)
		require.Equal(t, "liar", ce.ListenerID)
		require.Equal(t, internal.EventPreOutput, ce.Event)
	})

	t.Run("fallback handles uncaught events", func(t *testing.T) {
		t.Parallel()

		fallback := newRecorder(internal.EventPreOutput, internal.EventPostProcess)
		o := internal.NewKernelEventObserver(internal.BootWeb, nil, fallback, nil)
		caught := newRecorder(internal.EventPostProcess)
		_, err := o.AddListener(ctx, "caught", caught)
		require.NoError(t, err)

		require.NoError(t, o.DispatchEvent(ctx, internal.EventPreOutput, nil))
		require.NoError(t, o.DispatchEvent(ctx, internal.EventPostProcess, nil))

		// registering "caught" fired preProcess, which nobody else listens to
		require.Equal(t, []internal.Event{internal.EventPreProcess, internal.EventPreOutput}, fallback.Events())
		require.Equal(t, []internal.Event{internal.EventPostProcess}, caught.Events())
	})

	t.Run("fallback without the capability is skipped", func(t *testing.T) {
		t.Parallel()

		o := internal.NewKernelEventObserver(internal.BootWeb, nil, markerOnly{}, nil)
		require.NoError(t, o.DispatchEvent(ctx, internal.EventPostRouteConnect, nil))
	})

	t.Run("listener error is wrapped", func(t *testing.T) {
		t.Parallel()

		o := internal.NewKernelEventObserver(internal.BootWeb, nil, nil, nil)
		_, err := o.AddListener(ctx, "down", failingListener{})
		require.NoError(t, err)

		err = o.DispatchEvent(ctx, internal.EventPostRouteConnect, &internal.EventArgs{})
		require.ErrorContains(t, err, "listener down")
		require.ErrorContains(t, err, `"down"`)
	})
}

func TestKernelEventObserver_ShutdownOnce(t *testing.T) {
	t.Parallel()

	r := newRecorder(internal.EventPreShutdown)
	o := internal.NewKernelEventObserver(internal.BootWeb, nil, nil, nil)
	_, err := o.AddListener(context.Background(), "r", r)
	require.NoError(t, err)

	require.NoError(t, o.Shutdown(context.Background()))
	require.NoError(t, o.Shutdown(context.Background()))
	require.Equal(t, []internal.Event{internal.EventPreShutdown}, r.Events())
}

func TestBootMode_String(t *testing.T) {
	t.Parallel()

	require.Equal(t, "web", internal.BootWeb.String())
	require.Equal(t, "console", internal.BootConsole.String())
	require.Equal(t, "all", internal.BootAll.String())
	require.Equal(t, "BootMode(8)", internal.BootMode(8).String())
}

// outputAppender appends its tag to preOutput.
type outputAppender struct {
	tag   string
	order *[]string
}

func (*outputAppender) BootMode() internal.BootMode    { return internal.BootWeb }
func (*outputAppender) ListenEvents() []internal.Event { return []internal.Event{internal.EventPreOutput} }

func (a *outputAppender) PreOutput(_ *internal.Context, out []byte) ([]byte, error) {
	*a.order = append(*a.order, a.tag)
	return append(out, a.tag...), nil
}
