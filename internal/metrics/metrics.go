package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	appointmentRequested = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "clinica",
			Name:      "appointment_requested_total",
			Help:      "Count of appointments created by patients.",
		},
	)

	slotConflict = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "clinica",
			Name:      "slot_conflict_total",
			Help:      "Count of booking attempts rejected because the slot was taken.",
		},
	)

	statusChanged = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clinica",
			Name:      "status_changed_total",
			Help:      "Count of appointment status transitions by target status.",
		},
		[]string{"to"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "clinica",
			Name:      "http_requests_total",
			Help:      "Count of API requests by endpoint.",
		},
		[]string{"endpoint"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(appointmentRequested, slotConflict, statusChanged, httpRequests)
	})
}

func IncAppointmentRequested() {
	appointmentRequested.Inc()
}

func IncSlotConflict() {
	slotConflict.Inc()
}

func IncStatusChanged(to string) {
	statusChanged.WithLabelValues(to).Inc()
}

func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}
