package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics records order placement outcomes and stock reservation volume.
type OrderMetrics struct {
	duration      *prometheus.HistogramVec
	created       prometheus.Counter
	failures      *prometheus.CounterVec
	reservedUnits prometheus.Counter
}

// NewOrderMetrics registers the order metrics on the provided registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "order_create_duration_seconds",
		Help:    "Duration of order creation in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	created := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders committed successfully.",
	})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_create_failures_total",
		Help: "Failed order creations by error code.",
	}, []string{"reason"})
	reservedUnits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stock_units_reserved_total",
		Help: "Warehouse units reserved by committed orders.",
	})
	reg.MustRegister(duration, created, failures, reservedUnits)
	return &OrderMetrics{
		duration:      duration,
		created:       created,
		failures:      failures,
		reservedUnits: reservedUnits,
	}
}

// ObserveDuration records how long an order creation took for the given outcome.
func (m *OrderMetrics) ObserveDuration(outcome string, duration time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(outcome)).Observe(duration.Seconds())
}

// IncCreated counts a committed order and the units it reserved.
func (m *OrderMetrics) IncCreated(units int) {
	if m == nil || m.created == nil {
		return
	}
	m.created.Inc()
	if units > 0 {
		m.reservedUnits.Add(float64(units))
	}
}

// IncFailure counts a rejected or failed order creation.
func (m *OrderMetrics) IncFailure(reason string) {
	if m == nil || m.failures == nil {
		return
	}
	m.failures.WithLabelValues(normalizeLabel(reason)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
