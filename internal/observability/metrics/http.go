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

type HTTPMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	queryTotal      *prometheus.CounterVec
	queryNoContext  prometheus.Counter
	querySources    prometheus.Histogram
	queryDuration   *prometheus.HistogramVec
	rateLimitedReqs prometheus.Counter
}

func NewHTTPMetrics() *HTTPMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "eca",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "eca",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "eca",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
		},
	)
	queryTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "eca",
			Subsystem: "rag",
			Name:      "queries_total",
			Help:      "Total answered RAG queries by inferred intent.",
		},
		[]string{"intent"},
	)
	queryNoContext := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "eca",
			Subsystem: "rag",
			Name:      "no_context_total",
			Help:      "Total RAG queries answered without retrieved sources.",
		},
	)
	querySources := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "eca",
			Subsystem: "rag",
			Name:      "retrieved_sources",
			Help:      "Distribution of sources per answered query after reranking.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		},
	)
	queryDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "eca",
			Subsystem: "rag",
			Name:      "duration_seconds",
			Help:      "End-to-end query duration in seconds by inferred intent.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"intent"},
	)
	rateLimitedReqs := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "eca",
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Total requests rejected by the rate limiter.",
		},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		queryTotal,
		queryNoContext,
		querySources,
		queryDuration,
		rateLimitedReqs,
	)

	return &HTTPMetrics{
		registry:        registry,
		requestTotal:    requestTotal,
		requestDuration: requestDuration,
		requestInFlight: requestInFlight,
		queryTotal:      queryTotal,
		queryNoContext:  queryNoContext,
		querySources:    querySources,
		queryDuration:   queryDuration,
		rateLimitedReqs: rateLimitedReqs,
	}
}

func (m *HTTPMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPMetrics) Middleware(next http.Handler) http.Handler {
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
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/documents/"):
		return "/v1/documents/{document_id}"
	default:
		return path
	}
}

// RecordQuery tracks one answered query: its inferred intent, how many
// sources survived reranking and how long the whole pipeline took.
func (m *HTTPMetrics) RecordQuery(intent string, sourceCount int, duration time.Duration) {
	if intent == "" {
		intent = "unknown"
	}
	m.queryTotal.WithLabelValues(intent).Inc()
	m.querySources.Observe(float64(sourceCount))
	m.queryDuration.WithLabelValues(intent).Observe(duration.Seconds())

	if sourceCount == 0 {
		m.queryNoContext.Inc()
	}
}

func (m *HTTPMetrics) RecordRateLimited() {
	m.rateLimitedReqs.Inc()
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
