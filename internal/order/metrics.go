package order

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	placed      *prometheus.CounterVec
	transitions *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		placed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "multimarket",
			Name:      "orders_placed_total",
			Help:      "Orders placed, by payment type.",
		}, []string{"payment_type"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "multimarket",
			Name:      "order_transitions_total",
			Help:      "Accepted order status transitions, by target status.",
		}, []string{"status"}),
	}
	reg.MustRegister(m.placed, m.transitions)
	return m
}

func (m *Metrics) orderPlaced(o *Order) {
	if m == nil {
		return
	}
	m.placed.WithLabelValues(string(o.PaymentType)).Inc()
}

// transition counts a status change; "paid" is counted under the same vector.
func (m *Metrics) transition(to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(to).Inc()
}
