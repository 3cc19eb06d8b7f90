// Package metrics exposes Prometheus counters and gauges for the
// voltage query server, wrapping HTTP handlers the same way the
// reference family's internal/observability package does.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles every counter/gauge this service exposes. A nil
// *Metrics is safe to call methods on — the recording methods do
// nothing, WrapHandler returns the handler unwrapped, and Handler
// still serves the default registry — so callers that disable metrics
// don't need to special-case it.
type Metrics struct {
	httpRequestsTotal *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	pushesTotal       prometheus.Counter
	anomaliesTotal    *prometheus.CounterVec
	windowsTotal      prometheus.Counter
	activeAnomalies   prometheus.Gauge
}

// New builds and registers a Metrics instance against the default
// Prometheus registry.
func New() *Metrics {
	m := &Metrics{
		httpRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "voltage_http_requests_total",
			Help: "Total HTTP requests processed, by route and status.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "voltage_http_request_duration_seconds",
			Help:    "HTTP request duration by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		pushesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "voltage_readings_pushed_total",
			Help: "Total readings pushed into the state store.",
		}),
		anomaliesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "voltage_anomalies_total",
			Help: "Total anomalies emitted, by kind.",
		}, []string{"kind"}),
		windowsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "voltage_windows_completed_total",
			Help: "Total 10-minute RMS windows completed.",
		}),
		activeAnomalies: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "voltage_active_anomalies",
			Help: "Number of currently ongoing anomaly sub-machines.",
		}),
	}

	prometheus.MustRegister(
		m.httpRequestsTotal,
		m.httpDuration,
		m.pushesTotal,
		m.anomaliesTotal,
		m.windowsTotal,
		m.activeAnomalies,
	)
	return m
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

// WrapHandler records request count, status, and latency for route.
func (m *Metrics) WrapHandler(route string, next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		m.httpRequestsTotal.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		m.httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// Handler returns the /metrics exposition handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.Handler()
}

// ObservePush records one reading push, the anomalies it produced, and
// whether it closed a window.
func (m *Metrics) ObservePush(anomalyKinds []string, windowCompleted bool) {
	if m == nil {
		return
	}
	m.pushesTotal.Inc()
	for _, k := range anomalyKinds {
		m.anomaliesTotal.WithLabelValues(k).Inc()
	}
	if windowCompleted {
		m.windowsTotal.Inc()
	}
}

// SetActiveAnomalies updates the active-anomalies gauge.
func (m *Metrics) SetActiveAnomalies(n int) {
	if m == nil {
		return
	}
	m.activeAnomalies.Set(float64(n))
}
