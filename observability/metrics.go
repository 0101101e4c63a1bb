package observability

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StableMetrics records solvency-engine activity: one counter per operation
// and outcome, a latency histogram, and liquidation totals.
type StableMetrics struct {
	operations   *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	liquidations prometheus.Counter
}

var (
	stableMetricsOnce sync.Once
	stableRegistry    *StableMetrics
)

// Stable returns the lazily-initialised metrics registry used to record
// solvency-engine operations.
func Stable() *StableMetrics {
	stableMetricsOnce.Do(func() {
		stableRegistry = &StableMetrics{
			operations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "pegcore",
				Subsystem: "stable",
				Name:      "operations_total",
				Help:      "Total engine operations segmented by operation and outcome.",
			}, []string{"operation", "outcome"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "pegcore",
				Subsystem: "stable",
				Name:      "operation_duration_seconds",
				Help:      "Latency distribution for engine operations.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"operation"}),
			liquidations: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "pegcore",
				Subsystem: "stable",
				Name:      "liquidations_total",
				Help:      "Total completed liquidations.",
			}),
		}
		prometheus.MustRegister(stableRegistry.operations, stableRegistry.latency, stableRegistry.liquidations)
	})
	return stableRegistry
}

// ObserveOperation records the outcome and duration of a single engine
// operation.
func (m *StableMetrics) ObserveOperation(operation string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.operations.WithLabelValues(operation, outcome).Inc()
	m.latency.WithLabelValues(operation).Observe(duration.Seconds())
}

// ObserveLiquidation increments the liquidation counter.
func (m *StableMetrics) ObserveLiquidation() {
	if m == nil {
		return
	}
	m.liquidations.Inc()
}
