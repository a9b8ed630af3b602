package internal

import "net/http"

// ServeContext serves one request like ServeHTTP and returns its context
// and the fatal dispatch error, if any.
func (a *App) ServeContext(w http.ResponseWriter, r *http.Request) (*Context, error) {
	c := newContext(a.controller, NewRequest(r), NewResponse(w), a.sessionManager)
	err := a.dispatch(c)
	if err != nil {
		a.handleError(c, err)
	}
	return c, err
}

// CheckRule parses raw and applies it to value.
func CheckRule(field, value, raw string) (string, error) {
	r, err := parseRule(raw)
	if err != nil {
		return "", err
	}
	return r.check(field, value), nil
}

// LoadBehavior exposes behavior file loading.
var LoadBehavior = loadBehavior
