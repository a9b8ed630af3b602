package internal

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Dispatch errors.
var (
	// ErrNotFound is the category of every resolution miss: no route,
	// missing module directory, unknown action class or denied package.
	// The front controller turns all of them into the same 404.
	ErrNotFound = errors.New("delta: not found")

	// ErrForwardLoop is returned when a request forwards more than MaxForwards times.
	ErrForwardLoop = errors.New("delta: forward loop detected")

	// ErrEmptyForwardStack is returned when the last forward is requested before any exists.
	ErrEmptyForwardStack = errors.New("delta: forward stack is empty")

	// ErrListenerContract is returned when a listener cannot serve an event it declared.
	ErrListenerContract = errors.New("delta: listener contract violation")

	// ErrDuplicateMessageKey is returned when a keyed message or error is added twice.
	ErrDuplicateMessageKey = errors.New("delta: duplicate message key")

	// ErrUnknownFilter is returned when a filter class is not registered.
	ErrUnknownFilter = errors.New("delta: unknown filter class")

	// ErrUnknownListener is returned when a listener class is not registered.
	ErrUnknownListener = errors.New("delta: unknown listener class")

	// ErrUnknownRoute is returned by reverse routing for an unknown route name.
	ErrUnknownRoute = errors.New("delta: unknown route")

	// ErrMissingRouteParam is returned by reverse routing when a pattern parameter has no value.
	ErrMissingRouteParam = errors.New("delta: missing route parameter")

	// ErrInvalidRouteParam is returned by reverse routing when a value breaks the segment's regexp.
	ErrInvalidRouteParam = errors.New("delta: route parameter does not match pattern")

	// ErrInvalidConfig is returned when the application configuration is malformed.
	ErrInvalidConfig = errors.New("delta: invalid configuration")

	// ErrShuttingDown is reported by the readiness probe after Shutdown.
	ErrShuttingDown = errors.New("delta: shutting down")

	// ErrNoDispatchContext is returned by ContextFrom outside a dispatch.
	ErrNoDispatchContext = errors.New("delta: not a dispatch context")
)

// NotFoundReason tells why a resolution step missed. It is logged, never sent to the client.
type NotFoundReason string

const (
	ReasonNoRoute       NotFoundReason = "no_route"
	ReasonModuleMissing NotFoundReason = "module_missing"
	ReasonActionMissing NotFoundReason = "action_missing"
	ReasonPackageDenied NotFoundReason = "package_denied"
)

// NotFoundError is the expected outcome of a resolution miss.
type NotFoundError struct {
	Reason NotFoundReason
	Module string
	Action string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("delta: %s (module=%q action=%q)", e.Reason, e.Module, e.Action)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// IsNotFound reports whether err is a resolution miss.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// ForwardLoopError lists the head of the forward chain that exceeded the bound.
type ForwardLoopError struct {
	Chain []string // "controller/action" identifiers, at most maxLoopChain entries
	Size  int      // number of forwards attempted
	more  bool
}

// maxLoopChain is how many hops a ForwardLoopError spells out.
const maxLoopChain = 4

func newForwardLoopError(stack []*Forward, attempted *Forward) *ForwardLoopError {
	all := append(append([]*Forward(nil), stack...), attempted)
	e := &ForwardLoopError{Size: len(all)}
	for i, f := range all {
		if i == maxLoopChain {
			e.more = true
			break
		}
		e.Chain = append(e.Chain, f.Controller+"/"+f.Action)
	}
	return e
}

func (e *ForwardLoopError) Error() string {
	chain := strings.Join(e.Chain, " -> ")
	if e.more {
		chain += " -> ..."
	}
	return fmt.Sprintf("delta: forward loop detected after %d forwards [%s]", e.Size, chain)
}

func (e *ForwardLoopError) Is(target error) bool {
	return target == ErrForwardLoop
}

// ListenerContractError reports a listener that cannot honor its declaration.
type ListenerContractError struct {
	ListenerID string
	Event      Event // empty when the listener lacks the Listener marker entirely
}

func (e *ListenerContractError) Error() string {
	if e.Event == "" {
		return fmt.Sprintf("delta: listener %q does not implement Listener", e.ListenerID)
	}
	return fmt.Sprintf("delta: listener %q listens to %q but does not implement it", e.ListenerID, e.Event)
}

func (e *ListenerContractError) Is(target error) bool {
	return target == ErrListenerContract
}

// HTTPError represents an HTTP error with all data needed for rendering.
// Actions return it to pick the status code the error handler renders.
type HTTPError struct {
	// Err is the underlying error (for logging, not exposed to users).
	Err error

	// Message is the user-facing error message.
	Message string

	// Code is the HTTP status code (e.g., 404, 500).
	Code int
}

func (e *HTTPError) Error() string {
	return e.Message
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

func (e *HTTPError) StatusCode() int {
	return e.Code
}

func (e *HTTPError) StatusText() string {
	return http.StatusText(e.Code)
}

// NewHTTPError creates a new HTTPError with the given status code and message.
func NewHTTPError(code int, message string) *HTTPError {
	return &HTTPError{
		Code:    code,
		Message: message,
	}
}

// WithCause attaches the underlying error.
func (e *HTTPError) WithCause(err error) *HTTPError {
	e.Err = err
	return e
}

func ErrBadRequest(message string) *HTTPError {
	return NewHTTPError(http.StatusBadRequest, message)
}

func ErrForbidden(message string) *HTTPError {
	return NewHTTPError(http.StatusForbidden, message)
}

func ErrUnprocessable(message string) *HTTPError {
	return NewHTTPError(http.StatusUnprocessableEntity, message)
}

func ErrInternal(message string) *HTTPError {
	return NewHTTPError(http.StatusInternalServerError, message)
}

// AsHTTPError extracts the HTTPError from an error chain if present.
// Returns nil if the error is not an HTTPError.
func AsHTTPError(err error) *HTTPError {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	return nil
}

// errorStatus returns the status a fatal error is rendered with.
func errorStatus(err error) int {
	if he := AsHTTPError(err); he != nil {
		return he.StatusCode()
	}
	return http.StatusInternalServerError
}

// PanicError carries a value recovered from a panic during dispatch.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("delta: panic: %v", e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
