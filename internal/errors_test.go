package internal_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/delta/internal"
)

func TestNotFoundError(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("load: %w", &internal.NotFoundError{
		Reason: internal.ReasonActionMissing,
		Module: "main",
		Action: "nope",
	})
	require.True(t, internal.IsNotFound(err))
	require.ErrorIs(t, err, internal.ErrNotFound)
	require.False(t, errors.Is(err, internal.ErrForwardLoop))
	require.Contains(t, err.Error(), "action_missing")

	require.False(t, internal.IsNotFound(errors.New("plain")))
	require.False(t, internal.IsNotFound(nil))
}

func TestAsHTTPError(t *testing.T) {
	t.Parallel()

	t.Run("direct HTTPError", func(t *testing.T) {
		t.Parallel()
		httpErr := internal.NewHTTPError(http.StatusNotFound, "not found")
		got := internal.AsHTTPError(httpErr)
		require.NotNil(t, got)
		require.Equal(t, http.StatusNotFound, got.StatusCode())
		require.Equal(t, "not found", got.Message)
		require.Equal(t, "Not Found", got.StatusText())
	})

	t.Run("double-wrapped HTTPError", func(t *testing.T) {
		t.Parallel()
		httpErr := internal.ErrForbidden("forbidden")
		err := fmt.Errorf("outer: %w", fmt.Errorf("inner: %w", httpErr))
		got := internal.AsHTTPError(err)
		require.NotNil(t, got)
		require.Equal(t, http.StatusForbidden, got.Code)
	})

	t.Run("cause is unwrapped", func(t *testing.T) {
		t.Parallel()
		cause := errors.New("db down")
		err := internal.ErrInternal("try later").WithCause(cause)
		require.ErrorIs(t, err, cause)
		require.Equal(t, "try later", err.Error())
	})

	t.Run("unrelated error returns nil", func(t *testing.T) {
		t.Parallel()
		require.Nil(t, internal.AsHTTPError(errors.New("plain error")))
		require.Nil(t, internal.AsHTTPError(nil))
	})

	t.Run("constructors", func(t *testing.T) {
		t.Parallel()
		require.Equal(t, http.StatusBadRequest, internal.ErrBadRequest("x").Code)
		require.Equal(t, http.StatusUnprocessableEntity, internal.ErrUnprocessable("x").Code)
	})
}

func TestListenerContractError(t *testing.T) {
	t.Parallel()

	err := &internal.ListenerContractError{ListenerID: "audit", Event: internal.EventPostProcess}
	require.ErrorIs(t, err, internal.ErrListenerContract)
	require.Equal(t, `delta: listener "audit" listens to "postProcess" but does not implement it`, err.Error())

	err = &internal.ListenerContractError{ListenerID: "audit"}
	require.Equal(t, `delta: listener "audit" does not implement Listener`, err.Error())
}

func TestPanicError(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("sentinel")
	err := &internal.PanicError{Value: sentinel}
	require.ErrorIs(t, err, sentinel)
	require.Equal(t, "delta: panic: sentinel", err.Error())

	err = &internal.PanicError{Value: 42}
	require.NoError(t, err.Unwrap())
}
