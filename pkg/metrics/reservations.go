package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ReservationMetrics records booking engine outcomes.
type ReservationMetrics struct {
	submissions     *prometheus.CounterVec
	conflicts       prometheus.Counter
	capacityUnknown prometheus.Counter
	transitions     *prometheus.CounterVec
}

// NewReservationMetrics registers the booking metrics on the provided registerer.
func NewReservationMetrics(reg prometheus.Registerer) *ReservationMetrics {
	if reg == nil {
		return &ReservationMetrics{}
	}
	submissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reservation_submissions_total",
		Help: "Reservation submissions by outcome.",
	}, []string{"outcome"})
	conflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reservation_commit_conflicts_total",
		Help: "Submissions that lost a capacity race at commit time.",
	})
	capacityUnknown := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "capacity_unknown_reads_total",
		Help: "Availability reads where the inventory service was unreachable.",
	})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reservation_transitions_total",
		Help: "Approval and lifecycle transitions by action.",
	}, []string{"action"})
	reg.MustRegister(submissions, conflicts, capacityUnknown, transitions)
	return &ReservationMetrics{
		submissions:     submissions,
		conflicts:       conflicts,
		capacityUnknown: capacityUnknown,
		transitions:     transitions,
	}
}

// ObserveSubmission records a submission outcome label.
func (m *ReservationMetrics) ObserveSubmission(outcome string) {
	if m == nil || m.submissions == nil {
		return
	}
	m.submissions.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// IncConflict counts a lost commit race.
func (m *ReservationMetrics) IncConflict() {
	if m == nil || m.conflicts == nil {
		return
	}
	m.conflicts.Inc()
}

// IncCapacityUnknown counts an inventory read that failed closed.
func (m *ReservationMetrics) IncCapacityUnknown() {
	if m == nil || m.capacityUnknown == nil {
		return
	}
	m.capacityUnknown.Inc()
}

// ObserveTransition records an approval/lifecycle transition.
func (m *ReservationMetrics) ObserveTransition(action string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(action)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
