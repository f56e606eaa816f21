// Package observability holds the Prometheus metrics of the comparison pipeline.
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "embedding_compare"

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Metrics records batch and per-request outcomes. Callers treat a nil
// Metrics as disabled.
type Metrics interface {
	RecordBatch(outcome string, texts int, duration time.Duration)
	RecordRequest(outcome string, duration time.Duration)
	Handler() http.Handler
}

type promMetrics struct {
	registry        *prometheus.Registry
	batches         *prometheus.CounterVec
	batchTexts      prometheus.Histogram
	batchDuration   *prometheus.HistogramVec
	requests        *prometheus.CounterVec
	requestDuration prometheus.Histogram
}

// NewMetrics registers the collectors on a fresh registry, together with the
// Go runtime and process collectors.
func NewMetrics() Metrics {
	m := &promMetrics{
		registry: prometheus.NewRegistry(),
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_total",
			Help:      "Embedding batches by outcome.",
		}, []string{"outcome"}),
		batchTexts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_texts",
			Help:      "Non-empty texts submitted per batch.",
			Buckets:   []float64{1, 2, 3, 5, 8, 13, 21, 34},
		}),
		batchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_duration_seconds",
			Help:      "Wall time of an embedding batch.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_requests_total",
			Help:      "Calls to the embedding provider by outcome.",
		}, []string{"outcome"}),
		requestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "embedding_request_duration_seconds",
			Help:      "Latency of a single embedding call.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.batches,
		m.batchTexts,
		m.batchDuration,
		m.requests,
		m.requestDuration,
	)

	return m
}

func (m *promMetrics) RecordBatch(outcome string, texts int, duration time.Duration) {
	m.batches.WithLabelValues(outcome).Inc()
	m.batchTexts.Observe(float64(texts))
	m.batchDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}

func (m *promMetrics) RecordRequest(outcome string, duration time.Duration) {
	m.requests.WithLabelValues(outcome).Inc()
	m.requestDuration.Observe(duration.Seconds())
}

func (m *promMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
