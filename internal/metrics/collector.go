// Package metrics exposes Prometheus instrumentation for the social service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "socialnet"

// Collector records community analyses and HTTP traffic on its own registry.
type Collector struct {
	registry *prometheus.Registry

	analyses        *prometheus.CounterVec
	analysisSeconds *prometheus.HistogramVec
	analysedUsers   *prometheus.GaugeVec
	requests        *prometheus.CounterVec
	requestSeconds  *prometheus.HistogramVec
}

// NewCollector registers every metric on a fresh registry. Go runtime and
// process collectors are included so /metrics is useful on its own.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "community_analyses_total",
			Help:      "Community analyses run, by operation and outcome.",
		}, []string{"operation", "outcome"}),
		analysisSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "community_analysis_duration_seconds",
			Help:      "Wall time of community analyses including snapshot load.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
		}, []string{"operation"}),
		analysedUsers: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "community_analysis_users",
			Help:      "Users in the snapshot of the latest analysis.",
		}, []string{"operation"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests served, by method and status code.",
		}, []string{"method", "code"}),
		requestSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.analyses,
		c.analysisSeconds,
		c.analysedUsers,
		c.requests,
		c.requestSeconds,
	)
	return c
}

// ObserveAnalysis records the outcome of one analysis.
func (c *Collector) ObserveAnalysis(operation string, users int, duration time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.analyses.WithLabelValues(operation, outcome).Inc()
	c.analysisSeconds.WithLabelValues(operation).Observe(duration.Seconds())
	if err == nil {
		c.analysedUsers.WithLabelValues(operation).Set(float64(users))
	}
}

// InstrumentHandler wraps next with request counters and latency histograms.
func (c *Collector) InstrumentHandler(next http.Handler) http.Handler {
	return promhttp.InstrumentHandlerCounter(c.requests,
		promhttp.InstrumentHandlerDuration(c.requestSeconds, next))
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

