package internal

import (
	"net/http"
	"net/url"
)

// defaultMaxMemory is the multipart memory limit used when parsing POST bodies.
const defaultMaxMemory = 32 << 20 // 32 MB

// Request is the inbound side of one dispatch.
// It owns the resolved route and the forward stack for its lifetime.
type Request struct {
	r        *http.Request
	route    *Route
	forwards ForwardStack
	query    url.Values
	post     url.Values
	parsed   bool
}

// NewRequest wraps an HTTP request.
func NewRequest(r *http.Request) *Request {
	return &Request{
		r:     r,
		query: r.URL.Query(),
	}
}

// HTTP returns the underlying *http.Request.
func (r *Request) HTTP() *http.Request {
	return r.r
}

// Method returns the request method.
func (r *Request) Method() string {
	return r.r.Method
}

// Path returns the request path.
func (r *Request) Path() string {
	return r.r.URL.Path
}

// Route returns the resolved route, or nil before resolution.
func (r *Request) Route() *Route {
	return r.route
}

// SetRoute binds the resolved route.
func (r *Request) SetRoute(route *Route) {
	r.route = route
}

// Forwards returns the forward stack of this request.
func (r *Request) Forwards() *ForwardStack {
	return &r.forwards
}

// Param returns a route path parameter.
func (r *Request) Param(name string) string {
	if r.route == nil {
		return ""
	}
	return r.route.Param(name)
}

// Query returns a query string value.
func (r *Request) Query(name string) string {
	return r.query.Get(name)
}

// Post returns a form body value.
func (r *Request) Post(name string) string {
	r.parseForm()
	return r.post.Get(name)
}

// Input returns the POST value of name, falling back to the query string.
func (r *Request) Input(name string) string {
	r.parseForm()
	if r.post.Has(name) {
		return r.post.Get(name)
	}
	return r.query.Get(name)
}

// Header returns a request header.
func (r *Request) Header(name string) string {
	return r.r.Header.Get(name)
}

// replaceInput overwrites name in every input source that carries it.
// Sanitizers use it so actions only see cleaned values.
func (r *Request) replaceInput(name string, fn func(string) string) {
	r.parseForm()
	for _, vals := range []url.Values{r.post, r.query} {
		if list, ok := vals[name]; ok {
			for i, v := range list {
				list[i] = fn(v)
			}
		}
	}
}

func (r *Request) parseForm() {
	if r.parsed {
		return
	}
	r.parsed = true
	r.post = url.Values{}

	switch r.r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
	default:
		return
	}
	if r.r.Body == nil {
		return
	}
	if err := r.r.ParseMultipartForm(defaultMaxMemory); err != nil && err != http.ErrNotMultipart {
		return
	}
	for k, v := range r.r.PostForm {
		r.post[k] = append([]string(nil), v...)
	}
}
