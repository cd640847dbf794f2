package devserver

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)

	return &metrics{
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "remarks",
			Subsystem: "devserver",
			Name:      "operations_total",
			Help:      "GraphQL operations handled, by operation and outcome",
		}, []string{"operation", "status"}),

		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "remarks",
			Subsystem: "devserver",
			Name:      "operation_duration_seconds",
			Help:      "GraphQL operation latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
}

// observe is a no-op on a nil receiver so the server runs without metrics.
func (m *metrics) observe(op, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(op, status).Inc()
	if status != "unknown" {
		m.duration.WithLabelValues(op).Observe(elapsed.Seconds())
	}
}
