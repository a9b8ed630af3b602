// Package filters provides the built-in filter classes of delta.
//
// Filters run for every forward, in declaration order, before the action.
// A filter continues with chain.Next or stops the chain by returning without
// calling it. Filters that decorate the whole request (request IDs, CORS)
// only act on the first forward.
//
// The classes returned by [Classes] are registered by delta.New:
//
//	filters:
//	  - id: request_id
//	    class: request_id
//	  - id: recover
//	    class: recover
//	    params:
//	      print_stack: false
//	  - id: auth
//	    class: authentication
//	    params:
//	      login_action: login
//	  - id: cors
//	    class: cors
//	    params:
//	      allow_origins: ["https://app.example.com"]
//	      allow_credentials: true
//
// Filters can also be built in code and registered as custom classes:
//
//	delta.WithFilterClass("cors", func(delta.Params) (delta.Filter, error) {
//	    return filters.CORS(filters.WithAllowOrigins("https://app.example.com")), nil
//	})
package filters
