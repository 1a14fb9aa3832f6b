package metrics

import "github.com/prometheus/client_golang/prometheus"

// OrderMetrics counts order placement outcomes.
type OrderMetrics struct {
	placed   prometheus.Counter
	rejected *prometheus.CounterVec
}

// NewOrderMetrics registers order placement counters on the provided registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	placed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Orders committed successfully.",
	})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_rejected_total",
		Help: "Order placement rejections by reason.",
	}, []string{"reason"})
	reg.MustRegister(placed, rejected)
	return &OrderMetrics{placed: placed, rejected: rejected}
}

// IncPlaced increments the success counter.
func (m *OrderMetrics) IncPlaced() {
	if m == nil || m.placed == nil {
		return
	}
	m.placed.Inc()
}

// IncRejected increments the rejection counter for the given reason.
func (m *OrderMetrics) IncRejected(reason string) {
	if m == nil || m.rejected == nil {
		return
	}
	m.rejected.WithLabelValues(normalizeLabel(reason)).Inc()
}
