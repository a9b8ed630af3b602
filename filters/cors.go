package filters

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrymomot/delta/internal"
)

// DefaultCORSMaxAge is how long browsers may cache a preflight answer.
const DefaultCORSMaxAge = 12 * time.Hour

// corsPolicy is the resolved configuration of one cors filter.
type corsPolicy struct {
	origins     []string
	originFunc  func(string) bool
	methods     []string
	headers     []string
	expose      []string
	credentials bool
	maxAge      time.Duration
}

// CORSOption configures the cors filter.
type CORSOption func(*corsPolicy)

// WithAllowOrigins restricts the accepted origins. "*" accepts any origin.
func WithAllowOrigins(origins ...string) CORSOption {
	return func(p *corsPolicy) { p.origins = origins }
}

// WithAllowOriginFunc decides acceptance per origin and takes precedence
// over WithAllowOrigins.
func WithAllowOriginFunc(fn func(origin string) bool) CORSOption {
	return func(p *corsPolicy) { p.originFunc = fn }
}

func WithAllowMethods(methods ...string) CORSOption {
	return func(p *corsPolicy) { p.methods = methods }
}

func WithAllowHeaders(headers ...string) CORSOption {
	return func(p *corsPolicy) { p.headers = headers }
}

func WithExposeHeaders(headers ...string) CORSOption {
	return func(p *corsPolicy) { p.expose = headers }
}

// WithAllowCredentials allows cookies on cross-origin requests. The
// request origin is echoed back since browsers reject "*" with credentials.
func WithAllowCredentials() CORSOption {
	return func(p *corsPolicy) { p.credentials = true }
}

// WithMaxAge sets the preflight cache duration. Zero omits the header.
func WithMaxAge(d time.Duration) CORSOption {
	return func(p *corsPolicy) { p.maxAge = d }
}

// CORS returns a filter answering cross-origin requests.
// It acts on the first forward only. Preflight requests get 204 and do
// not reach the action.
func CORS(opts ...CORSOption) internal.Filter {
	p := &corsPolicy{
		origins: []string{"*"},
		methods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		headers: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		maxAge:  DefaultCORSMaxAge,
	}
	for _, opt := range opts {
		opt(p)
	}

	anyOrigin := p.originFunc == nil && slices.Contains(p.origins, "*")
	methods := strings.Join(p.methods, ", ")
	headers := strings.Join(p.headers, ", ")
	expose := strings.Join(p.expose, ", ")

	return internal.FilterFunc(func(c *internal.Context, chain *internal.FilterChain) error {
		origin := c.Request().Header("Origin")
		if nested(c) || origin == "" || !p.accepts(origin, anyOrigin) {
			return chain.Next(c)
		}

		h := c.Response().Header()
		h.Add("Vary", "Origin")
		allowed := origin
		if anyOrigin && !p.credentials {
			allowed = "*"
		}
		h.Set("Access-Control-Allow-Origin", allowed)
		if p.credentials {
			h.Set("Access-Control-Allow-Credentials", "true")
		}
		if expose != "" {
			h.Set("Access-Control-Expose-Headers", expose)
		}

		if c.Request().Method() != http.MethodOptions {
			return chain.Next(c)
		}

		h.Add("Vary", "Access-Control-Request-Method")
		h.Add("Vary", "Access-Control-Request-Headers")
		h.Set("Access-Control-Allow-Methods", methods)
		h.Set("Access-Control-Allow-Headers", headers)
		if secs := int(p.maxAge / time.Second); secs > 0 {
			h.Set("Access-Control-Max-Age", strconv.Itoa(secs))
		}
		c.SetStatus(http.StatusNoContent)
		return nil
	})
}

func (p *corsPolicy) accepts(origin string, anyOrigin bool) bool {
	switch {
	case p.originFunc != nil:
		return p.originFunc(origin)
	case anyOrigin:
		return true
	default:
		return slices.Contains(p.origins, origin)
	}
}

// CORSFactory builds the cors filter class.
//
//	filters:
//	  - id: cors
//	    class: cors
//	    params:
//	      allow_origins: [https://app.example.com]
//	      allow_credentials: true
//	      max_age: 600 # seconds
//
// allow_methods, allow_headers and expose_headers take lists as well.
func CORSFactory(params internal.Params) (internal.Filter, error) {
	lists := map[string]func(...string) CORSOption{
		"allow_origins":  WithAllowOrigins,
		"allow_methods":  WithAllowMethods,
		"allow_headers":  WithAllowHeaders,
		"expose_headers": WithExposeHeaders,
	}

	var opts []CORSOption
	for key, opt := range lists {
		if v := params.Strings(key); len(v) > 0 {
			opts = append(opts, opt(v...))
		}
	}
	if params.Bool("allow_credentials", false) {
		opts = append(opts, WithAllowCredentials())
	}
	if n := params.Int("max_age", -1); n >= 0 {
		opts = append(opts, WithMaxAge(time.Duration(n)*time.Second))
	}
	return CORS(opts...), nil
}
