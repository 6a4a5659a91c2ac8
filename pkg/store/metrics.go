package store

import "time"

// Metrics receives per-operation observations from instrumented backends.
//
// Implementations must be safe for concurrent use. A Prometheus-backed
// implementation lives in pkg/metrics; backends fall back to a no-op
// when given nil so that metrics stay strictly optional.
type Metrics interface {
	// ObserveOp records one completed store operation.
	// op is the operation name ("get", "put", ...), bytes the payload
	// size moved (0 for existence checks), err the operation outcome.
	ObserveOp(op string, duration time.Duration, bytes int, err error)
}

// NopMetrics returns a Metrics implementation that discards everything.
func NopMetrics() Metrics { return nopMetrics{} }

type nopMetrics struct{}

func (nopMetrics) ObserveOp(string, time.Duration, int, error) {}

// EnsureMetrics normalizes an optional Metrics to a usable value.
func EnsureMetrics(m Metrics) Metrics {
	if m == nil {
		return NopMetrics()
	}
	return m
}
