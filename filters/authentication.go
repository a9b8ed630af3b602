package filters

import (
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/delta/internal"
)

// AuthenticationConfig configures the authentication filter.
type AuthenticationConfig struct {
	// LoginAction is forwarded to when a protected action is requested
	// anonymously. It must be reachable without roles.
	LoginAction string
	// LoginURL is redirected to instead when LoginAction is empty.
	LoginURL string
}

// AuthenticationOption configures AuthenticationConfig.
type AuthenticationOption func(*AuthenticationConfig)

// WithLoginAction forwards anonymous users to action.
func WithLoginAction(action string) AuthenticationOption {
	return func(cfg *AuthenticationConfig) {
		cfg.LoginAction = action
	}
}

// WithLoginURL redirects anonymous users to url.
func WithLoginURL(url string) AuthenticationOption {
	return func(cfg *AuthenticationConfig) {
		cfg.LoginURL = url
	}
}

// Authentication returns a filter that enforces the roles of the action's
// behavior configuration.
//
// Actions without roles pass. An anonymous user is forwarded to the login
// action (or redirected to the login URL) and the chain stops there; with
// neither configured the request fails with 401. A logged-in user that
// holds none of the roles gets 403.
func Authentication(opts ...AuthenticationOption) internal.Filter {
	cfg := &AuthenticationConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	return internal.FilterFunc(func(c *internal.Context, chain *internal.FilterChain) error {
		inst := chain.Forward().Instance()
		roles := inst.Roles()
		if len(roles) == 0 {
			return chain.Next(c)
		}

		user := c.User()
		if !user.IsLogin() {
			c.LogDebug("anonymous access to protected action",
				slog.String("action", inst.Name()),
				slog.String("package", inst.Package()),
			)
			switch {
			case cfg.LoginAction != "" && cfg.LoginAction != inst.Name():
				return c.ForwardWithoutValidation(cfg.LoginAction)
			case cfg.LoginURL != "":
				return c.Redirect(http.StatusSeeOther, cfg.LoginURL)
			}
			return ErrUnauthorized
		}

		if !user.HasRole(roles...) {
			return internal.ErrForbidden("insufficient role")
		}
		return chain.Next(c)
	})
}

// AuthenticationFactory builds the authentication filter class.
// Params: login_action, login_url.
func AuthenticationFactory(params internal.Params) (internal.Filter, error) {
	return Authentication(
		WithLoginAction(params.String("login_action", "")),
		WithLoginURL(params.String("login_url", "")),
	), nil
}
