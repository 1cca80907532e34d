// Package metrics exposes Prometheus instruments for pipeline runs and the
// read API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/albapepper/scoracle-fantasy/internal/diag"
)

// Metrics holds every instrument. Create one per registry with New.
type Metrics struct {
	registry *prometheus.Registry

	Payloads       prometheus.Counter
	PayloadsIgnore prometheus.Counter
	Records        prometheus.Counter
	Findings       *prometheus.CounterVec
	RunDuration    prometheus.Histogram
	LastRun        *prometheus.GaugeVec

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// New registers all instruments on a fresh registry, alongside the Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		Payloads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fppull", Name: "payloads_total",
			Help: "Raw stat payloads read.",
		}),
		PayloadsIgnore: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fppull", Name: "payloads_ignored_total",
			Help: "Payloads in stat groups the extractor does not handle.",
		}),
		Records: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "fppull", Name: "records_total",
			Help: "Aggregated player-weeks produced.",
		}),
		Findings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fppull", Name: "findings_total",
			Help: "Diagnostic findings by kind.",
		}, []string{"kind"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "fppull", Name: "run_duration_seconds",
			Help:    "Wall time of a pipeline run.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		LastRun: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "fppull", Name: "last_run_timestamp_seconds",
			Help: "Unix time of the last completed run per season.",
		}, []string{"season"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "api", Name: "requests_total",
			Help: "HTTP requests by route and status.",
		}, []string{"route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "api", Name: "request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}
	reg.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		m.Payloads, m.PayloadsIgnore, m.Records, m.Findings, m.RunDuration, m.LastRun,
		m.HTTPRequests, m.HTTPDuration,
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Run is what a pipeline run reports.
type Run struct {
	Season   int
	Payloads int
	Ignored  int
	Records  int
	Report   diag.Report
	Duration time.Duration
}

// ObserveRun records a completed run.
func (m *Metrics) ObserveRun(r Run) {
	m.Payloads.Add(float64(r.Payloads))
	m.PayloadsIgnore.Add(float64(r.Ignored))
	m.Records.Add(float64(r.Records))
	for kind, n := range r.Report.Counts() {
		m.Findings.WithLabelValues(string(kind)).Add(float64(n))
	}
	m.RunDuration.Observe(r.Duration.Seconds())
	m.LastRun.WithLabelValues(strconv.Itoa(r.Season)).SetToCurrentTime()
}

// WriteTextfile writes the registry for node_exporter's textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}

// Middleware counts requests per chi route pattern. Unmatched requests are
// labelled "unmatched" to keep label cardinality bounded.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil {
			if p := rc.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.HTTPRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
		m.HTTPDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}
