// Package health serves liveness and readiness probes.
//
// [LivenessHandler] always answers 200 while the process is up.
// [ReadinessHandler] runs a set of named [Checks] concurrently under one
// deadline and answers 503 when any of them fails. [Run] exposes the same
// probe for callers that are not HTTP handlers.
//
//	r.Get("/health/live", health.LivenessHandler())
//	r.Get("/health/ready", health.ReadinessHandler(health.Checks{
//	    "redis": redis.Healthcheck(client),
//	}, health.WithTimeout(3*time.Second)))
//
// Responses are plain text unless the probe sends Accept: application/json
// or ?format=json:
//
//	{
//	  "status": "unhealthy",
//	  "checks": {
//	    "kernel": {"status": "healthy", "duration_ns": 1200},
//	    "redis": {"status": "unhealthy", "error": "connection refused", "duration_ns": 5000}
//	  }
//	}
package health
