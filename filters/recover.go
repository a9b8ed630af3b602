package filters

import (
	"runtime"

	"github.com/dmitrymomot/delta/internal"
)

// DefaultStackSize caps the captured stack trace, in bytes.
const DefaultStackSize = 4096

type recoverFilter struct {
	stackSize int // 0 skips stack capture
}

// RecoverOption configures the recover filter.
type RecoverOption func(*recoverFilter)

// WithRecoverStackSize caps the captured stack trace.
func WithRecoverStackSize(size int) RecoverOption {
	return func(f *recoverFilter) {
		if size > 0 {
			f.stackSize = size
		}
	}
}

// WithRecoverDisablePrintStack skips stack capture. PanicError.Stack stays empty.
func WithRecoverDisablePrintStack() RecoverOption {
	return func(f *recoverFilter) { f.stackSize = 0 }
}

// Recover returns a filter converting a panic in the rest of the chain
// into a *PanicError. The error takes the fatal path: buffered output is
// dropped and the error handler renders the response.
func Recover(opts ...RecoverOption) internal.Filter {
	f := &recoverFilter{stackSize: DefaultStackSize}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *recoverFilter) DoFilter(c *internal.Context, chain *internal.FilterChain) (err error) {
	defer func() {
		v := recover()
		if v == nil {
			return
		}
		pe := &PanicError{Value: v, Stack: f.stack()}
		attrs := []any{"panic", v}
		if len(pe.Stack) > 0 {
			attrs = append(attrs, "stack", string(pe.Stack))
		}
		c.LogError("panic recovered", attrs...)
		err = pe
	}()
	return chain.Next(c)
}

func (f *recoverFilter) stack() []byte {
	if f.stackSize == 0 {
		return nil
	}
	buf := make([]byte, f.stackSize)
	return buf[:runtime.Stack(buf, false)]
}

// RecoverFactory builds the recover filter class.
// Params: stack_size (bytes), print_stack (default true).
func RecoverFactory(params internal.Params) (internal.Filter, error) {
	opts := []RecoverOption{WithRecoverStackSize(params.Int("stack_size", DefaultStackSize))}
	if !params.Bool("print_stack", true) {
		opts = append(opts, WithRecoverDisablePrintStack())
	}
	return Recover(opts...), nil
}
