package internal

import (
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
)

// Route parameters that override the definition's module/controller/action.
const (
	paramModule     = "module"
	paramController = "controller"
	paramAction     = "action"
)

// RouteResolver maps request paths to routes and back.
type RouteResolver interface {
	// Connect resolves method and path to a route.
	// Returns false when no definition matches; it never fails otherwise.
	Connect(method, path string) (*Route, bool)

	// IsAllowPackage reports whether actions from pkg are reachable through route.
	IsAllowPackage(route *Route, pkg string) bool

	// BuildRequestPath reverse-routes a named route.
	// Params not used by the pattern are appended as a query string.
	BuildRequestPath(name string, params map[string]string, absolute bool) (string, error)
}

// compiledRoute is a definition with its own single-pattern chi mux.
// One mux per definition keeps first-declared-wins ordering instead of
// chi's radix priority.
type compiledRoute struct {
	def RouteConfig
	mux *chi.Mux
	// constraints holds the anchored regexp of every "{name:regexp}" segment.
	constraints map[string]*regexp.Regexp
}

// Resolver is the RouteResolver backed by a configured route table.
type Resolver struct {
	baseURL string
	routes  []compiledRoute
	byName  map[string]int
}

// NewResolver compiles the route table. Definitions are matched in order.
func NewResolver(baseURL string, defs []RouteConfig) (*Resolver, error) {
	r := &Resolver{
		baseURL: strings.TrimRight(baseURL, "/"),
		byName:  make(map[string]int, len(defs)),
	}

	for _, def := range defs {
		if def.Name == "" || def.Path == "" {
			return nil, fmt.Errorf("%w: route needs name and path", ErrInvalidConfig)
		}
		if _, dup := r.byName[def.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate route name %q", ErrInvalidConfig, def.Name)
		}

		constraints, err := paramConstraints(def.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: route %q: %w", ErrInvalidConfig, def.Name, err)
		}

		mux := chi.NewMux()
		if len(def.Methods) == 0 {
			mux.Handle(def.Path, http.NotFoundHandler())
		} else {
			for _, m := range def.Methods {
				mux.Method(strings.ToUpper(m), def.Path, http.NotFoundHandler())
			}
		}

		r.byName[def.Name] = len(r.routes)
		r.routes = append(r.routes, compiledRoute{def: def, mux: mux, constraints: constraints})
	}

	return r, nil
}

// Connect implements RouteResolver.
func (r *Resolver) Connect(method, path string) (*Route, bool) {
	if path == "" {
		path = "/"
	}
	for _, cr := range r.routes {
		rctx := chi.NewRouteContext()
		if !cr.mux.Match(rctx, method, path) {
			continue
		}
		return newRoute(cr.def, rctx.URLParams), true
	}
	return nil, false
}

func newRoute(def RouteConfig, up chi.RouteParams) *Route {
	route := &Route{
		name:       def.Name,
		module:     def.Module,
		controller: def.Controller,
		action:     def.Action,
		packages:   append([]string(nil), def.Packages...),
	}
	for i, key := range up.Keys {
		value := up.Values[i]
		switch key {
		case paramModule:
			route.module = value
		case paramController:
			route.controller = value
		case paramAction:
			route.action = value
		}
		route.params = append(route.params, Param{Key: key, Value: value})
	}
	return route
}

// IsAllowPackage implements RouteResolver.
func (r *Resolver) IsAllowPackage(route *Route, pkg string) bool {
	if route == nil {
		return false
	}
	return route.allowsPackage(pkg)
}

// patternParam matches "{name}" and "{name:regexp}" segments of a chi pattern.
var patternParam = regexp.MustCompile(`\{([^}:]+)(?::([^}]*))?\}`)

func paramConstraints(pattern string) (map[string]*regexp.Regexp, error) {
	var out map[string]*regexp.Regexp
	for _, m := range patternParam.FindAllStringSubmatch(pattern, -1) {
		if m[2] == "" {
			continue
		}
		re, err := regexp.Compile("^(?:" + m[2] + ")$")
		if err != nil {
			return nil, fmt.Errorf("parameter %q: %w", m[1], err)
		}
		if out == nil {
			out = make(map[string]*regexp.Regexp)
		}
		out[m[1]] = re
	}
	return out, nil
}

// BuildRequestPath implements RouteResolver.
func (r *Resolver) BuildRequestPath(name string, params map[string]string, absolute bool) (string, error) {
	idx, ok := r.byName[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownRoute, name)
	}
	cr := r.routes[idx]
	def := cr.def

	used := make(map[string]bool, len(params))
	var failed error
	path := patternParam.ReplaceAllStringFunc(def.Path, func(seg string) string {
		key := patternParam.FindStringSubmatch(seg)[1]
		value, ok := params[key]
		if !ok {
			value, ok = r.defaultParam(def, key)
		}
		switch {
		case failed != nil:
			return seg
		case !ok:
			failed = fmt.Errorf("%w: %q in route %q", ErrMissingRouteParam, key, name)
			return seg
		case cr.constraints[key] != nil && !cr.constraints[key].MatchString(value):
			failed = fmt.Errorf("%w: %q=%q does not match route %q", ErrInvalidRouteParam, key, value, name)
			return seg
		}
		used[key] = true
		return url.PathEscape(value)
	})
	if failed != nil {
		return "", failed
	}

	if strings.HasSuffix(path, "*") {
		tail := strings.Split(params["*"], "/")
		for i, part := range tail {
			tail[i] = url.PathEscape(part)
		}
		path = strings.TrimSuffix(path, "*") + strings.Join(tail, "/")
		used["*"] = true
	}

	var keys []string
	for k := range params {
		if !used[k] {
			keys = append(keys, k)
		}
	}
	if len(keys) > 0 {
		sort.Strings(keys)
		q := make(url.Values, len(keys))
		for _, k := range keys {
			q.Set(k, params[k])
		}
		path += "?" + q.Encode()
	}

	if absolute {
		path = r.baseURL + path
	}
	return path, nil
}

// defaultParam fills module/controller/action placeholders from the definition.
func (r *Resolver) defaultParam(def RouteConfig, key string) (string, bool) {
	var v string
	switch key {
	case paramModule:
		v = def.Module
	case paramController:
		v = def.Controller
	case paramAction:
		v = def.Action
	}
	return v, v != ""
}

var _ RouteResolver = (*Resolver)(nil)
