package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Namespace prefixes every metric name.
const Namespace = "shaclreport"

// Collector holds the Prometheus metrics of the service on a private registry.
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Dataset metrics
	DatasetsLoaded prometheus.Counter
	TriplesLoaded  prometheus.Counter
	LoadFailures   prometheus.Counter

	// Report metrics
	Queries      *prometheus.CounterVec
	ReportsBuilt *prometheus.CounterVec
	ReportGroups prometheus.Histogram
}

// NewCollector creates a collector with its own registry, so tests can build
// as many as they like.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		DatasetsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "datasets_loaded_total",
			Help:      "Total number of RDF documents loaded",
		}),
		TriplesLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "triples_loaded_total",
			Help:      "Total number of triples stored",
		}),
		LoadFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "load_failures_total",
			Help:      "Total number of documents that failed to load",
		}),
		Queries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "queries_total",
				Help:      "Total number of SPARQL queries by outcome",
			},
			[]string{"status"},
		),
		ReportsBuilt: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "reports_built_total",
				Help:      "Total number of validation reports rendered by format",
			},
			[]string{"format"},
		),
		ReportGroups: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "report_focus_nodes",
			Help:      "Number of focus nodes per built report",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
		}),
	}

	c.registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.DatasetsLoaded,
		c.TriplesLoaded,
		c.LoadFailures,
		c.Queries,
		c.ReportsBuilt,
		c.ReportGroups,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry exposes the collector's registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// RecordLoad counts one successfully stored document.
func (c *Collector) RecordLoad(triples int) {
	if c == nil {
		return
	}
	c.DatasetsLoaded.Inc()
	c.TriplesLoaded.Add(float64(triples))
}

// RecordLoadFailure counts one rejected document.
func (c *Collector) RecordLoadFailure() {
	if c == nil {
		return
	}
	c.LoadFailures.Inc()
}

// RecordQuery counts a query by outcome.
func (c *Collector) RecordQuery(err error) {
	if c == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.Queries.WithLabelValues(status).Inc()
}

// RecordReport counts a rendered report.
func (c *Collector) RecordReport(format string, focusNodes int) {
	if c == nil {
		return
	}
	c.ReportsBuilt.WithLabelValues(format).Inc()
	c.ReportGroups.Observe(float64(focusNodes))
}
