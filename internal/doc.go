// Package internal provides the core types and implementation of delta.
//
// This package is internal and should not be used directly. Import
// "github.com/dmitrymomot/delta" instead, which re-exports the public API.
//
// # Core Types
//
//   - App: builds the pipeline from options and configuration and serves it over HTTP
//   - FrontController: resolves, loads, filters and renders one request
//   - Resolver: the RouteResolver backed by an ordered route table (chi patterns)
//   - ActionLoader: turns action names into fresh instances with their behavior
//   - FilterManager: builds a fresh FilterChain for every forward
//   - KernelEventObserver: boot-mode gated lifecycle listeners with a fallback
//   - Context: per-request state; it implements context.Context
//
// # Request State
//
// A Context owns the Request (route and ForwardStack), the buffered Response,
// the ActionMessages and the User. Nothing request-scoped is stored on the
// shared collaborators, so one App serves concurrent requests.
//
// # Errors
//
// Resolution misses are *NotFoundError values (errors.Is ErrNotFound); the
// front controller answers them with 404 and they never reach the error
// handler. Every other error returned by a filter, action or listener is fatal
// for the request and is rendered by the ErrorHandler, with the status taken
// from an *HTTPError in the chain when present.
package internal
