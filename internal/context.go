package internal

import (
	"context"
	"log/slog"
	"time"

	"github.com/dmitrymomot/delta/pkg/cache"
)

// Context is the per-request dispatch context.
//
// It owns the request (with its route and forward stack), the buffered
// response, the action messages and the user. A fresh Context is created for
// every request and is never shared between goroutines.
// Context implements context.Context by delegating to the HTTP request's context.
type Context struct {
	ctx       context.Context
	fc        *FrontController
	request   *Request
	response  *Response
	messages  *ActionMessages
	user      *User
	logger    *slog.Logger
	values    map[any]any
	startedAt time.Time
	fatal     error // forward loop, kept even when an action drops it

	// per-request action lookups for CachePolicy "request"
	actionCache cache.Cache[*actionDescriptor]
}

func newContext(fc *FrontController, req *Request, res *Response, sm *SessionManager) *Context {
	c := &Context{
		ctx:       req.HTTP().Context(),
		fc:        fc,
		request:   req,
		response:  res,
		messages:  NewActionMessages(),
		logger:    fc.logger,
		startedAt: time.Now(),
	}
	c.user = newUser(c, sm)
	return c
}

// release frees per-request resources.
func (c *Context) release() {
	if c.actionCache != nil {
		_ = c.actionCache.Close()
		c.actionCache = nil
	}
}

func (c *Context) Deadline() (time.Time, bool) { return c.ctx.Deadline() }
func (c *Context) Done() <-chan struct{}       { return c.ctx.Done() }
func (c *Context) Err() error                  { return c.ctx.Err() }

type dispatchContextKey struct{}

// Value returns a value stored with Set, then falls back to the request context.
// The dispatch Context itself is reachable from derived contexts, see ContextFrom.
func (c *Context) Value(key any) any {
	if _, ok := key.(dispatchContextKey); ok {
		return c
	}
	if v, ok := c.values[key]; ok {
		return v
	}
	return c.ctx.Value(key)
}

// Request returns the inbound request.
func (c *Context) Request() *Request { return c.request }

// Response returns the buffered response.
func (c *Context) Response() *Response { return c.response }

// Messages returns the action messages of this request.
func (c *Context) Messages() *ActionMessages { return c.messages }

// User returns the request user.
func (c *Context) User() *User { return c.user }

// Route returns the resolved route, or nil before resolution.
func (c *Context) Route() *Route { return c.request.Route() }

// Forwards returns the forward stack.
func (c *Context) Forwards() *ForwardStack { return c.request.Forwards() }

// BootMode returns the boot mode of the process.
func (c *Context) BootMode() BootMode { return c.fc.observer.BootMode() }

// StartedAt returns when the dispatch started.
func (c *Context) StartedAt() time.Time { return c.startedAt }

// Param returns a route parameter.
func (c *Context) Param(name string) string { return c.request.Param(name) }

// Query returns a query string value.
func (c *Context) Query(name string) string { return c.request.Query(name) }

// Input returns a POST value, falling back to the query string.
func (c *Context) Input(name string) string { return c.request.Input(name) }

// Set stores a request-scoped value.
func (c *Context) Set(key, value any) {
	if c.values == nil {
		c.values = make(map[any]any)
	}
	c.values[key] = value
}

// Get returns a value stored with Set or carried by the request context.
func (c *Context) Get(key any) any {
	return c.Value(key)
}

// Forward runs another action of the current module with input validation.
// The new forward executes synchronously through the full filter chain.
func (c *Context) Forward(action string) error {
	return c.fc.Forward(c, action, true)
}

// ForwardWithoutValidation runs another action and skips input validation.
func (c *Context) ForwardWithoutValidation(action string) error {
	return c.fc.Forward(c, action, false)
}

// Write writes raw bytes to the response buffer.
func (c *Context) Write(b []byte) error {
	_, err := c.response.Write(b)
	return err
}

// String writes s to the response buffer.
func (c *Context) String(s string) error {
	_, err := c.response.WriteString(s)
	return err
}

// Render renders component into the response buffer. A nil component is a no-op.
func (c *Context) Render(component Component) error {
	if component == nil {
		return nil
	}
	return component.Render(c, c.response)
}

// SetHeader sets a response header.
func (c *Context) SetHeader(name, value string) {
	c.response.Header().Set(name, value)
}

// SetStatus sets the response status code.
func (c *Context) SetStatus(code int) {
	c.response.SetStatus(code)
}

// Redirect discards buffered output and redirects.
func (c *Context) Redirect(code int, url string) error {
	c.response.Redirect(code, url)
	return nil
}

// Error creates an HTTPError for returning from an action.
func (c *Context) Error(code int, message string) *HTTPError {
	return NewHTTPError(code, message)
}

// URL builds the path of a named route.
func (c *Context) URL(name string, params map[string]string) (string, error) {
	return c.fc.resolver.BuildRequestPath(name, params, false)
}

// AbsoluteURL builds the absolute URL of a named route.
func (c *Context) AbsoluteURL(name string, params map[string]string) (string, error) {
	return c.fc.resolver.BuildRequestPath(name, params, true)
}

// Logger returns the request logger.
func (c *Context) Logger() *slog.Logger {
	return c.logger
}

// LogDebug logs with the request context.
func (c *Context) LogDebug(msg string, attrs ...any) {
	c.logger.DebugContext(c, msg, attrs...)
}

// LogInfo logs with the request context.
func (c *Context) LogInfo(msg string, attrs ...any) {
	c.logger.InfoContext(c, msg, attrs...)
}

// LogError logs with the request context.
func (c *Context) LogError(msg string, attrs ...any) {
	c.logger.ErrorContext(c, msg, attrs...)
}

var _ context.Context = (*Context)(nil)

// ContextFrom returns the dispatch Context carried by ctx, if any.
// Components rendered by actions receive the dispatch Context as ctx;
// contexts derived from it (context.WithTimeout and the like) carry it too.
func ContextFrom(ctx context.Context) (*Context, error) {
	if c, ok := ctx.(*Context); ok {
		return c, nil
	}
	if c, ok := ctx.Value(dispatchContextKey{}).(*Context); ok {
		return c, nil
	}
	return nil, ErrNoDispatchContext
}
