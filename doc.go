// Package delta is the dispatch core of a small MVC framework: a front
// controller that resolves a request to a route, loads the action behind it,
// runs it through a filter chain and renders its output, with kernel events
// around every step.
//
// # Quick Start
//
// Declare routes and register actions, then run the server:
//
//	app, err := delta.New(
//	    delta.WithFS(os.DirFS(".")),
//	    delta.WithRoutes(delta.RouteConfig{
//	        Name:   "greet",
//	        Path:   "/greet",
//	        Module: "main",
//	        Action: "greet",
//	    }),
//	    delta.WithAction("main", "", "greet", func() delta.Action {
//	        return delta.ActionFunc(func(c *delta.Context) (delta.Component, error) {
//	            return nil, c.String("Hello World!")
//	        })
//	    }),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := app.Run(":8080"); err != nil {
//	    log.Fatal(err)
//	}
//
// # Dispatch
//
// Every request walks the same pipeline:
//
//  1. The route resolver connects method and path to a route. A miss is
//     answered with 404.
//  2. postRouteConnect is dispatched.
//  3. The route's action is loaded and pushed onto the forward stack, then
//     run through the filter chain inside an output buffer.
//  4. preOutput may rewrite the buffered output, unless the action
//     committed the response itself.
//  5. Output is sent and postProcess is dispatched.
//
// Actions and filters may forward to another action of the same module with
// [Context.Forward]. A request forwards at most [MaxForwards] times; the
// next forward fails with a [ForwardLoopError].
//
// # Modules and Behaviors
//
// Modules are directories in the application FS (by default
// "modules/{name}"). A module must exist for its actions to be reachable.
// An action may have a behavior file at
// "{module}/behaviors/{package}/{Name}.yaml" declaring required roles,
// input sanitizers and validation rules.
//
// # Filters
//
// Filters are declared by class and run in declaration order for every
// forward. The classes of package filters (request_id, recover,
// authentication, cors) are available by default.
//
// # Kernel Events
//
// Listeners declare the boot modes they run in and the events they handle:
// preProcess, postRouteConnect, preOutput, postProcess and preShutdown.
// Events nobody listens to fall back to the boot mode's default listener.
//
// # Console Mode
//
// With [BootConsole], [App.Execute] dispatches a single request without an
// HTTP server and writes the body to a stream.
package delta
