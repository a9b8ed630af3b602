package internal

import "strings"

// Param is a single path parameter captured by a route pattern.
type Param struct {
	Key   string
	Value string
}

// Route is the immutable result of resolving a request path.
// It is bound to the Request for the lifetime of the request.
type Route struct {
	name       string
	module     string
	controller string
	action     string
	params     []Param
	packages   []string
}

// Name returns the configured route name.
func (r *Route) Name() string { return r.name }

// Module returns the module that owns the resolved action.
func (r *Route) Module() string { return r.module }

// Controller returns the controller name.
func (r *Route) Controller() string { return r.controller }

// Action returns the action name the request is dispatched to first.
func (r *Route) Action() string { return r.action }

// Params returns the path parameters in pattern order.
func (r *Route) Params() []Param {
	out := make([]Param, len(r.params))
	copy(out, r.params)
	return out
}

// Param returns a path parameter by name, or empty string.
func (r *Route) Param(key string) string {
	for _, p := range r.params {
		if p.Key == key {
			return p.Value
		}
	}
	return ""
}

// Packages returns the package allow-list of the matched definition.
func (r *Route) Packages() []string {
	out := make([]string, len(r.packages))
	copy(out, r.packages)
	return out
}

// allowsPackage matches pkg against the allow-list.
// An empty list allows everything; an entry ending in "*" matches by prefix.
func (r *Route) allowsPackage(pkg string) bool {
	if len(r.packages) == 0 {
		return true
	}
	for _, allowed := range r.packages {
		if prefix, ok := strings.CutSuffix(allowed, "*"); ok {
			if strings.HasPrefix(pkg, prefix) {
				return true
			}
			continue
		}
		if allowed == pkg {
			return true
		}
	}
	return false
}
