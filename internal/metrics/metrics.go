package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests can build as many as they like. All methods
// are safe on a nil receiver.
type Metrics struct {
	reg *prometheus.Registry

	engineRuns      *prometheus.CounterVec
	engineDuration  prometheus.Histogram
	weatherDegraded prometheus.Counter
	jobs            *prometheus.CounterVec
	outbound        *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,
		engineRuns: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lawnengine_runs_total",
			Help: "Lawn engine runs by run type and outcome.",
		}, []string{"run_type", "outcome"}),
		engineDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "lawnengine_run_duration_seconds",
			Help:    "Wall time of a lawn engine run including persistence.",
			Buckets: prometheus.DefBuckets,
		}),
		weatherDegraded: f.NewCounter(prometheus.CounterOpts{
			Name: "lawnengine_weather_degraded_total",
			Help: "Runs that fell back to the default grass potential.",
		}),
		jobs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lawnengine_jobs_total",
			Help: "Deferred engine jobs by final status.",
		}, []string{"status"}),
		outbound: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lawnengine_outbound_requests_total",
			Help: "Calls to third-party providers.",
		}, []string{"target", "outcome"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lawnengine_http_requests_total",
			Help: "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "lawnengine_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRun(runType, outcome string, elapsed time.Duration, degraded bool) {
	if m == nil {
		return
	}
	m.engineRuns.WithLabelValues(runType, outcome).Inc()
	m.engineDuration.Observe(elapsed.Seconds())
	if degraded {
		m.weatherDegraded.Inc()
	}
}

func (m *Metrics) ObserveJob(status string) {
	if m == nil {
		return
	}
	m.jobs.WithLabelValues(status).Inc()
}

func (m *Metrics) ObserveOutbound(target string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.outbound.WithLabelValues(target, outcome).Inc()
}

func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
