package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors blinkhub exports. Each instance owns its own
// registry so tests and multiple servers in one process do not collide.
type Metrics struct {
	registry *prometheus.Registry

	storageOps      *prometheus.HistogramVec
	storageBytes    *prometheus.CounterVec
	batchOps        prometheus.Histogram
	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	trimDeleted     prometheus.Counter
	snapshots       prometheus.Counter
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		storageOps: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "blinkhub_storage_op_duration_seconds",
				Help:    "Latency of storage reads, writes and batch commits",
				Buckets: prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
			[]string{"op"},
		),
		storageBytes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "blinkhub_storage_bytes_total",
				Help: "Bytes read from or written to the store",
			},
			[]string{"op"},
		),
		batchOps: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "blinkhub_storage_batch_ops",
			Help:    "Operations per committed batch",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
		requestTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "blinkhub_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "blinkhub_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		trimDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "blinkhub_trim_deleted_total",
			Help: "Records removed by retention trims",
		}),
		snapshots: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "blinkhub_motion_snapshots_total",
			Help: "Motion snapshots recorded",
		}),
	}
	m.registry.MustRegister(
		m.storageOps, m.storageBytes, m.batchOps,
		m.requestTotal, m.requestDuration,
		m.trimDeleted, m.snapshots,
		collectors.NewGoCollector(),
	)
	return m
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveWrite implements pebblestore.MetricsHook.
func (m *Metrics) ObserveWrite(elapsed time.Duration, bytes int) {
	m.storageOps.WithLabelValues("write").Observe(elapsed.Seconds())
	m.storageBytes.WithLabelValues("write").Add(float64(bytes))
}

// ObserveRead implements pebblestore.MetricsHook.
func (m *Metrics) ObserveRead(elapsed time.Duration, bytes int) {
	m.storageOps.WithLabelValues("read").Observe(elapsed.Seconds())
	m.storageBytes.WithLabelValues("read").Add(float64(bytes))
}

// ObserveBatchCommit implements pebblestore.MetricsHook.
func (m *Metrics) ObserveBatchCommit(elapsed time.Duration, numOps int, bytes int) {
	m.storageOps.WithLabelValues("batch_commit").Observe(elapsed.Seconds())
	m.storageBytes.WithLabelValues("batch_commit").Add(float64(bytes))
	m.batchOps.Observe(float64(numOps))
}

// ObserveTrim records how many records a retention trim removed.
func (m *Metrics) ObserveTrim(deleted int) {
	if deleted > 0 {
		m.trimDeleted.Add(float64(deleted))
	}
}

// IncSnapshots counts one recorded motion snapshot.
func (m *Metrics) IncSnapshots() { m.snapshots.Inc() }

// Middleware records request counts and latency by method and route pattern.
func (m *Metrics) Middleware(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		m.requestTotal.WithLabelValues(r.Method, route, strconv.Itoa(sw.status)).Inc()
		m.requestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
