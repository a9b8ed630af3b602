package filters

import (
	"github.com/google/uuid"

	"github.com/dmitrymomot/delta/internal"
	"github.com/dmitrymomot/delta/pkg/logger"
)

type requestIDKey struct{}

// DefaultRequestIDHeaders are trusted for an incoming request ID, first match wins.
var DefaultRequestIDHeaders = []string{"X-Request-ID", "X-Correlation-ID"}

// requestIDFilter tags every request with an ID shared by all its forwards.
type requestIDFilter struct {
	trusted  []string
	echo     string
	generate func() string
}

// RequestIDOption configures the request_id filter.
type RequestIDOption func(*requestIDFilter)

// WithRequestIDHeaders replaces the trusted incoming headers.
// No headers means an ID is always generated.
func WithRequestIDHeaders(headers ...string) RequestIDOption {
	return func(f *requestIDFilter) { f.trusted = headers }
}

// WithRequestIDGenerator replaces the UUIDv4 generator.
func WithRequestIDGenerator(gen func() string) RequestIDOption {
	return func(f *requestIDFilter) {
		if gen != nil {
			f.generate = gen
		}
	}
}

// WithRequestIDResponseHeader sets the header the ID is echoed in.
func WithRequestIDResponseHeader(header string) RequestIDOption {
	return func(f *requestIDFilter) {
		if header != "" {
			f.echo = header
		}
	}
}

// RequestID returns a filter storing a request ID in the context and
// echoing it as X-Request-ID. Upstream IDs are kept so traces line up.
func RequestID(opts ...RequestIDOption) internal.Filter {
	f := &requestIDFilter{
		trusted:  DefaultRequestIDHeaders,
		echo:     "X-Request-ID",
		generate: uuid.NewString,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *requestIDFilter) DoFilter(c *internal.Context, chain *internal.FilterChain) error {
	if GetRequestID(c) == "" {
		id := f.incoming(c)
		if id == "" {
			id = f.generate()
		}
		c.Set(requestIDKey{}, id)
		c.SetHeader(f.echo, id)
	}
	return chain.Next(c)
}

func (f *requestIDFilter) incoming(c *internal.Context) string {
	for _, name := range f.trusted {
		if id := c.Request().Header(name); id != "" {
			return id
		}
	}
	return ""
}

// RequestIDFactory builds the request_id filter class.
// Params: header (the one incoming header to trust), response_header.
func RequestIDFactory(params internal.Params) (internal.Filter, error) {
	var opts []RequestIDOption
	if h := params.String("header", ""); h != "" {
		opts = append(opts, WithRequestIDHeaders(h))
	}
	opts = append(opts, WithRequestIDResponseHeader(params.String("response_header", "")))
	return RequestID(opts...), nil
}

// GetRequestID returns the request ID, or "" when none is set.
func GetRequestID(c *internal.Context) string {
	id, _ := c.Get(requestIDKey{}).(string)
	return id
}

// RequestIDExtractor adds "request_id" to every log line written with
// the request context.
//
//	delta.WithLogger("web", filters.RequestIDExtractor())
func RequestIDExtractor() logger.ContextExtractor {
	return logger.FromContextValue(requestIDKey{}, "request_id")
}
