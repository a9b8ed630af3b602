package filters

import "github.com/dmitrymomot/delta/internal"

// Filter class names usable in filter declarations.
const (
	ClassRequestID      = "request_id"
	ClassRecover        = "recover"
	ClassAuthentication = "authentication"
	ClassCORS           = "cors"
)

// Classes returns the built-in filter classes.
func Classes() map[string]internal.FilterFactory {
	return map[string]internal.FilterFactory{
		ClassRequestID:      RequestIDFactory,
		ClassRecover:        RecoverFactory,
		ClassAuthentication: AuthenticationFactory,
		ClassCORS:           CORSFactory,
	}
}
