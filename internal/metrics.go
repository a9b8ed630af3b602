package internal

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors of the dispatch pipeline.
// A nil *Metrics records nothing.
type Metrics struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	notFoundTotal    *prometheus.CounterVec
	forwardsPerReq   prometheus.Histogram
	forwardLoops     prometheus.Counter
	listenerFailures *prometheus.CounterVec
}

// NewMetrics creates and registers dispatch metrics.
// It returns nil when registry is nil.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		return nil
	}

	m := &Metrics{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "delta",
				Name:      "dispatch_requests_total",
				Help:      "Total number of dispatched requests",
			},
			[]string{"route", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "delta",
				Name:      "dispatch_duration_seconds",
				Help:      "Time spent dispatching a request",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		notFoundTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "delta",
				Name:      "dispatch_not_found_total",
				Help:      "Requests answered with 404, by reason",
			},
			[]string{"reason"},
		),
		forwardsPerReq: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "delta",
				Name:      "dispatch_forwards",
				Help:      "Number of forwards executed per request",
				Buckets:   prometheus.LinearBuckets(1, 1, MaxForwards),
			},
		),
		forwardLoops: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "delta",
				Name:      "dispatch_forward_loops_total",
				Help:      "Requests aborted by the forward limit",
			},
		),
		listenerFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "delta",
				Name:      "listener_failures_total",
				Help:      "Kernel event dispatches that returned an error",
			},
			[]string{"event"},
		),
	}

	registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.notFoundTotal,
		m.forwardsPerReq,
		m.forwardLoops,
		m.listenerFailures,
	)
	return m
}

// watchActionCache exports the loader's cache counters.
func (m *Metrics) watchActionCache(registry prometheus.Registerer, l *ActionLoader) {
	if m == nil {
		return
	}
	registry.MustRegister(
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "delta",
			Name:      "action_cache_hits_total",
			Help:      "Action lookups answered from the cache",
		}, func() float64 { return float64(l.CacheStats().Hits) }),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "delta",
			Name:      "action_cache_misses_total",
			Help:      "Action lookups resolved from the registry and behavior files",
		}, func() float64 { return float64(l.CacheStats().Misses) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "delta",
			Name:      "action_cache_entries",
			Help:      "Entries in the process action cache",
		}, func() float64 { return float64(l.CacheStats().Entries) }),
	)
}

func (m *Metrics) observeRequest(route string, status, forwards int, d time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "none"
	}
	m.requestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(d.Seconds())
	if forwards > 0 {
		m.forwardsPerReq.Observe(float64(forwards))
	}
}

func (m *Metrics) notFound(reason NotFoundReason) {
	if m == nil {
		return
	}
	m.notFoundTotal.WithLabelValues(string(reason)).Inc()
}

func (m *Metrics) forwardLoop() {
	if m == nil {
		return
	}
	m.forwardLoops.Inc()
}

func (m *Metrics) listenerFailure(event Event) {
	if m == nil {
		return
	}
	m.listenerFailures.WithLabelValues(string(event)).Inc()
}
