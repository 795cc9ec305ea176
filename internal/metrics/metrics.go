package metrics

import "github.com/prometheus/client_golang/prometheus"

// SchedulingMetrics exposes counters for the scheduling core. All observe
// methods are nil-receiver safe so call sites never need a guard.
type SchedulingMetrics struct {
	bookingsTotal    *prometheus.CounterVec
	slotQueriesTotal prometheus.Counter
	policyDenials    *prometheus.CounterVec
}

func NewSchedulingMetrics(reg prometheus.Registerer) *SchedulingMetrics {
	m := &SchedulingMetrics{
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "scheduling",
			Name:      "bookings_total",
			Help:      "Booking attempts by outcome",
		}, []string{"outcome"}),
		slotQueriesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "scheduling",
			Name:      "slot_queries_total",
			Help:      "Slot listing requests",
		}),
		policyDenials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinic",
			Subsystem: "scheduling",
			Name:      "policy_denials_total",
			Help:      "Patient actions denied by the cutoff policy",
		}, []string{"action"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingsTotal, m.slotQueriesTotal, m.policyDenials)
	return m
}

func (m *SchedulingMetrics) ObserveBooking(outcome string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(outcome).Inc()
}

func (m *SchedulingMetrics) ObserveSlotQuery() {
	if m == nil {
		return
	}
	m.slotQueriesTotal.Inc()
}

func (m *SchedulingMetrics) ObservePolicyDenial(action string) {
	if m == nil {
		return
	}
	m.policyDenials.WithLabelValues(action).Inc()
}
