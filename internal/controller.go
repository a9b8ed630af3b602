package internal

import (
	"errors"
	"log/slog"
	"net/http"
	"time"
)

// FrontController runs the dispatch pipeline of one application.
// It is built once at boot and shared by all requests; per-request state
// lives on the Context.
type FrontController struct {
	resolver RouteResolver
	loader   *ActionLoader
	filters  *FilterManager
	observer *KernelEventObserver
	logger   *slog.Logger
	metrics  *Metrics
}

// NewFrontController wires the pipeline collaborators.
func NewFrontController(resolver RouteResolver, loader *ActionLoader, filters *FilterManager, observer *KernelEventObserver, logger *slog.Logger, metrics *Metrics) *FrontController {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &FrontController{
		resolver: resolver,
		loader:   loader,
		filters:  filters,
		observer: observer,
		logger:   logger,
		metrics:  metrics,
	}
}

// Observer returns the kernel event observer.
func (fc *FrontController) Observer() *KernelEventObserver { return fc.observer }

// Resolver returns the route resolver.
func (fc *FrontController) Resolver() RouteResolver { return fc.resolver }

// Loader returns the action loader.
func (fc *FrontController) Loader() *ActionLoader { return fc.loader }

// Dispatch handles one request.
//
// A route miss is answered with 404. Otherwise the route's action runs
// inside an output buffer; unless the action committed the response itself,
// preOutput may rewrite the buffered output before it is sent.
// Returned errors are fatal for the request; buffers are released before
// Dispatch returns, also on panic.
func (fc *FrontController) Dispatch(c *Context) error {
	req := c.Request()
	res := c.Response()

	route, ok := fc.resolver.Connect(req.Method(), req.Path())
	if !ok {
		fc.notFound(c, &NotFoundError{Reason: ReasonNoRoute})
		return nil
	}
	req.SetRoute(route)

	if err := fc.dispatchEvent(c, EventPostRouteConnect, &EventArgs{Context: c}); err != nil {
		return err
	}

	output, err := fc.buffered(c, route.Action())
	if err != nil {
		return err
	}

	if !res.IsCommitted() {
		args := &EventArgs{Context: c, Output: output}
		if err := fc.dispatchEvent(c, EventPreOutput, args); err != nil {
			return err
		}
		output = args.Output
	}

	if len(output) > 0 {
		if _, err := res.Write(output); err != nil {
			return err
		}
	}
	res.Flush()

	return fc.dispatchEvent(c, EventPostProcess, &EventArgs{Context: c})
}

// buffered runs the first forward inside an output buffer and returns what
// it wrote. Buffers opened by the action and left open are folded into the
// result; on error or panic everything opened here is released.
func (fc *FrontController) buffered(c *Context, action string) (output []byte, err error) {
	res := c.Response()
	base := res.BufferLevel()
	res.StartBuffer()
	defer func() {
		for res.BufferLevel() > base {
			res.EndBuffer()
		}
	}()

	if err := fc.Forward(c, action, true); err != nil {
		return nil, err
	}
	if c.fatal != nil {
		return nil, c.fatal
	}

	for res.BufferLevel() > base+1 {
		inner := res.EndBuffer()
		_, _ = res.Write(inner)
	}
	return res.EndBuffer(), nil
}

// Forward resolves action in the current route's module, loads it and runs
// it through the filter chain. Resolution misses are answered with 404 and
// return nil. Forward may be called again from inside an action or filter;
// the forward stack bounds the recursion.
func (fc *FrontController) Forward(c *Context, action string, validate bool) error {
	route := c.Request().Route()
	if route == nil {
		fc.notFound(c, &NotFoundError{Reason: ReasonNoRoute, Action: action})
		return nil
	}

	modulePath, err := fc.loader.ModulePath(route.Module())
	if err != nil {
		return fc.loadFailed(c, err)
	}

	fwd, err := fc.loader.Load(c, action, route.Module(), modulePath, validate)
	if err != nil {
		return fc.loadFailed(c, err)
	}

	c.LogDebug("forward",
		slog.String("module", fwd.Module),
		slog.String("controller", fwd.Controller),
		slog.String("action", fwd.Action),
		slog.Int("depth", c.Forwards().Size()),
	)

	return fc.filters.DoFilters(c, fwd)
}

// Record observes the outcome of a finished dispatch. err is the fatal
// error Dispatch returned, if any; it decides the status when the response
// was not committed yet.
func (fc *FrontController) Record(c *Context, err error) {
	var route string
	if r := c.Route(); r != nil {
		route = r.Name()
	}
	status := c.Response().Status()
	if err != nil && !c.Response().IsCommitted() {
		status = errorStatus(err)
	}
	fc.metrics.observeRequest(route, status, c.Forwards().Size(), time.Since(c.StartedAt()))
}

func (fc *FrontController) loadFailed(c *Context, err error) error {
	var nf *NotFoundError
	if errors.As(err, &nf) {
		fc.notFound(c, nf)
		return nil
	}
	if errors.Is(err, ErrForwardLoop) {
		fc.metrics.forwardLoop()
		if c.fatal == nil {
			c.fatal = err
		}
	}
	return err
}

func (fc *FrontController) notFound(c *Context, nf *NotFoundError) {
	c.LogDebug("not found",
		slog.String("reason", string(nf.Reason)),
		slog.String("method", c.Request().Method()),
		slog.String("path", c.Request().Path()),
		slog.String("module", nf.Module),
		slog.String("action", nf.Action),
	)
	fc.metrics.notFound(nf.Reason)
	c.Response().SendError(http.StatusNotFound)
}

func (fc *FrontController) dispatchEvent(c *Context, event Event, args *EventArgs) error {
	err := fc.observer.DispatchEvent(c, event, args)
	if err != nil {
		fc.metrics.listenerFailure(event)
	}
	return err
}
