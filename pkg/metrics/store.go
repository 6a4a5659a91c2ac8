package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/zarrfs/pkg/store"
)

// storeMetrics is the Prometheus implementation of store.Metrics.
//
// It collects per-backend operation counts, latency and payload volume,
// labelled by operation ("get", "put", ...) and outcome.
type storeMetrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	bytesTotal        *prometheus.CounterVec
}

// NewStoreMetrics creates a Prometheus-backed store.Metrics for the
// named backend ("filesystem", "badger", "s3", ...).
//
// Returns nil if metrics are not enabled (InitRegistry not called),
// which makes the store use its no-op implementation.
func NewStoreMetrics(backend string) store.Metrics {
	if !IsEnabled() {
		return nil
	}

	reg := GetRegistry()
	labels := prometheus.Labels{"backend": backend}

	return &storeMetrics{
		operationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name:        "zarrfs_store_operations_total",
				Help:        "Total number of store operations by operation and status",
				ConstLabels: labels,
			},
			[]string{"op", "status"},
		),
		operationDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:        "zarrfs_store_operation_duration_seconds",
				Help:        "Store operation latency by operation",
				ConstLabels: labels,
				Buckets:     prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		bytesTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name:        "zarrfs_store_bytes_total",
				Help:        "Payload bytes moved through the store by operation",
				ConstLabels: labels,
			},
			[]string{"op"},
		),
	}
}

// ObserveOp implements store.Metrics.
func (m *storeMetrics) ObserveOp(op string, duration time.Duration, bytes int, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}

	m.operationsTotal.WithLabelValues(op, status).Inc()
	m.operationDuration.WithLabelValues(op).Observe(duration.Seconds())
	if bytes > 0 {
		m.bytesTotal.WithLabelValues(op).Add(float64(bytes))
	}
}
