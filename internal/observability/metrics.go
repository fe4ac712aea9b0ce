package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry *prometheus.Registry

	// HTTP request rate. Watch for: sudden drops (service down) or spikes (traffic surge).
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTP request latency per request. Watch for: p95/p99 latency increases.
	HTTPRequestDuration *prometheus.HistogramVec

	// Concurrent requests in flight. Watch for: saturation, capacity limits.
	HTTPRequestsInFlight prometheus.Gauge

	// Schedules API call rate. At most one success per calendar day per
	// process; anything more means the daily cache file is not being reused.
	SchedulesAPICallsTotal *prometheus.CounterVec

	// Schedules API latency. The call blocks dashboard startup, so watch
	// p95 here when startup is slow.
	SchedulesAPIDuration *prometheus.HistogramVec

	// Cache file reads by outcome (fresh, stale_fallback, error).
	CacheFileReadsTotal *prometheus.CounterVec

	// Cache files written (one per day on a successful fetch).
	CacheFileWritesTotal prometheus.Counter

	// Stale-cache fallbacks: API returned nothing and a prior day's file
	// was served instead. Watch for: consecutive days = dead API key.
	StaleFallbacksTotal prometheus.Counter

	// Aggregate view computations vs memo hits, by view (histogram,
	// terminals, airlines). Hit rate should approach 1 quickly given the
	// tiny key space.
	AggregateComputationsTotal *prometheus.CounterVec
	AggregateMemoHitsTotal     *prometheus.CounterVec

	// Records in the loaded dataset. Zero after startup means the load
	// path is broken.
	DatasetRecords prometheus.Gauge

	// Rate limit denials. Watch for: overload, capacity exceeded.
	RateLimitDeniedTotal prometheus.Counter
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "httpRequestsTotal",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "statusCode"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "httpRequestDurationSeconds",
			Help:    "HTTP request latency in seconds (per request)",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	HTTPRequestsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "httpRequestsInFlight",
			Help: "Number of HTTP requests currently being served",
		},
	)
	SchedulesAPICallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "schedulesApiCallsTotal",
			Help: "Total number of AirLabs schedules API calls",
		},
		[]string{"status"},
	)
	SchedulesAPIDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "schedulesApiDurationSeconds",
			Help:    "AirLabs schedules API latency in seconds (per request)",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"status"},
	)
	CacheFileReadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cacheFileReadsTotal",
			Help: "Cache file reads by outcome (fresh, stale_fallback, error)",
		},
		[]string{"outcome"},
	)
	CacheFileWritesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "cacheFileWritesTotal",
			Help: "Cache files written after a successful API fetch",
		},
	)
	StaleFallbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "staleFallbacksTotal",
			Help: "Times a prior day's cache file was served because the API returned no data",
		},
	)
	AggregateComputationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aggregateComputationsTotal",
			Help: "Derived-view computations by view (first time a key is seen)",
		},
		[]string{"view"},
	)
	AggregateMemoHitsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aggregateMemoHitsTotal",
			Help: "Derived-view requests answered from the per-argument memo",
		},
		[]string{"view"},
	)
	DatasetRecords = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "datasetRecords",
			Help: "Number of flight records in the loaded dataset",
		},
	)
	RateLimitDeniedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "rateLimitDeniedTotal",
			Help: "Total number of requests denied by rate limiter (429)",
		},
	)

	registry.MustRegister(
		HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight,
		SchedulesAPICallsTotal, SchedulesAPIDuration,
		CacheFileReadsTotal, CacheFileWritesTotal, StaleFallbacksTotal,
		AggregateComputationsTotal, AggregateMemoHitsTotal,
		DatasetRecords,
		RateLimitDeniedTotal,
	)
}

// MetricsHandler returns an http.Handler that serves application and runtime metrics.
func MetricsHandler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
