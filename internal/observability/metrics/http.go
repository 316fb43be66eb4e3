package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type ServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	analysisTotal    *prometheus.CounterVec
	analysisDuration *prometheus.HistogramVec

	uploadRowsTotal *prometheus.CounterVec
	graphSyncTotal  *prometheus.CounterVec
	queryTotal      *prometheus.CounterVec
}

func NewServerMetrics(service string) *ServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wco",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "wco",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "wco",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	analysisTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wco",
			Subsystem: "analysis",
			Name:      "runs_total",
			Help:      "Total analysis runs by outcome.",
		},
		[]string{"service", "analysis", "outcome"},
	)
	analysisDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "wco",
			Subsystem: "analysis",
			Name:      "duration_seconds",
			Help:      "Analysis execution duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "analysis"},
	)
	uploadRowsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wco",
			Subsystem: "dataset",
			Name:      "upload_rows_total",
			Help:      "Total rows loaded through dataset uploads.",
		},
		[]string{"service", "category"},
	)
	graphSyncTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wco",
			Subsystem: "dataset",
			Name:      "graph_sync_total",
			Help:      "Total graph mirror syncs after uploads by status.",
		},
		[]string{"service", "category", "status"},
	)
	queryTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wco",
			Subsystem: "query",
			Name:      "requests_total",
			Help:      "Total ad-hoc SQL queries by outcome.",
		},
		[]string{"service", "outcome"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		analysisTotal,
		analysisDuration,
		uploadRowsTotal,
		graphSyncTotal,
		queryTotal,
	)

	return &ServerMetrics{
		registry:         registry,
		requestTotal:     requestTotal,
		requestDuration:  requestDuration,
		requestInFlight:  requestInFlight,
		analysisTotal:    analysisTotal,
		analysisDuration: analysisDuration,
		uploadRowsTotal:  uploadRowsTotal,
		graphSyncTotal:   graphSyncTotal,
		queryTotal:       queryTotal,
	}
}

func (m *ServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *ServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// normalizePath collapses per-resource path segments so metric cardinality
// stays bounded.
func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/analyses/"):
		return "/v1/analyses/{analysis}"
	case strings.HasPrefix(path, "/v1/datasets/"):
		return "/v1/datasets/{category}"
	default:
		return path
	}
}

func (m *ServerMetrics) RecordAnalysis(name, outcome string, seconds float64) {
	if outcome == "" {
		outcome = "unknown"
	}
	m.analysisTotal.WithLabelValues("api", name, outcome).Inc()
	m.analysisDuration.WithLabelValues("api", name).Observe(seconds)
}

func (m *ServerMetrics) RecordUpload(category string, rows int64) {
	if rows > 0 {
		m.uploadRowsTotal.WithLabelValues("api", category).Add(float64(rows))
	}
}

func (m *ServerMetrics) RecordGraphSync(category string, synced bool) {
	status := "ok"
	if !synced {
		status = "skipped"
	}
	m.graphSyncTotal.WithLabelValues("api", category, status).Inc()
}

func (m *ServerMetrics) RecordQuery(err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.queryTotal.WithLabelValues("api", outcome).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
