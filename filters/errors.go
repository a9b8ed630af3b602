package filters

import (
	"errors"
	"net/http"

	"github.com/dmitrymomot/delta/internal"
)

// PanicError is the error Recover returns for a panic.
type PanicError = internal.PanicError

// ErrUnauthorized is returned by the authentication filter when a protected
// action is requested anonymously and no login action is configured.
var ErrUnauthorized = internal.NewHTTPError(http.StatusUnauthorized, "authentication required")

// AsPanicError returns the recovered panic carried by err.
func AsPanicError(err error) (*PanicError, bool) {
	var pe *PanicError
	ok := errors.As(err, &pe)
	return pe, ok
}

// IsPanicError reports whether err carries a recovered panic.
func IsPanicError(err error) bool {
	_, ok := AsPanicError(err)
	return ok
}

// nested reports whether the current forward was issued by another action.
// Filters that decorate the whole request only act on the first forward.
func nested(c *internal.Context) bool {
	return c.Forwards().Size() > 1
}
