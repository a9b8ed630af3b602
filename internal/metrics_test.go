package internal_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/delta/internal"
)

func TestMetrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	app := newApp(t,
		internal.WithMetrics(reg),
		internal.WithAction("main", "", "hello", text("hi")),
		internal.WithAction("main", "", "ping", forwardTo("pong")),
		internal.WithAction("main", "", "pong", forwardTo("ping")),
	)

	get(app, "/hello")
	get(app, "/hello")
	get(app, "/unknown")
	get(app, "/a/b/c")
	get(app, "/ping")

	expected := `
# HELP delta_dispatch_not_found_total Requests answered with 404, by reason
# TYPE delta_dispatch_not_found_total counter
delta_dispatch_not_found_total{reason="action_missing"} 1
delta_dispatch_not_found_total{reason="no_route"} 1
# HELP delta_dispatch_forward_loops_total Requests aborted by the forward limit
# TYPE delta_dispatch_forward_loops_total counter
delta_dispatch_forward_loops_total 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"delta_dispatch_not_found_total",
		"delta_dispatch_forward_loops_total",
	))

	res := get(app, "/metrics")
	require.Equal(t, http.StatusOK, res.Code)
	body := res.Body.String()
	require.Contains(t, body, `delta_dispatch_requests_total{route="main",status="200"} 2`)
	require.Contains(t, body, `delta_dispatch_requests_total{route="none",status="404"} 1`)
	require.Contains(t, body, `delta_dispatch_forwards_count 3`)
	require.Contains(t, body, "delta_action_cache_entries 3")
	require.Contains(t, body, "delta_action_cache_misses_total 4")
}

func TestMetrics_CustomPath(t *testing.T) {
	t.Parallel()

	app := newApp(t,
		internal.WithMetrics(prometheus.NewRegistry()),
		internal.WithMetricsPath("/internal/metrics"),
	)

	require.Equal(t, http.StatusOK, get(app, "/internal/metrics").Code)
}

func TestMetrics_Disabled(t *testing.T) {
	t.Parallel()

	require.Nil(t, internal.NewMetrics(nil))

	app := newApp(t, internal.WithAction("main", "", "metrics", text("an action")))
	res := get(app, "/metrics")
	require.Equal(t, "an action", res.Body.String())
}
