package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rentalhub",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint and status code.",
		},
		[]string{"endpoint", "status"},
	)

	rentalTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rentalhub",
			Name:      "rental_transitions_total",
			Help:      "Rental status transitions by target status.",
		},
		[]string{"status"},
	)

	sweepActivations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "rentalhub",
			Name:      "sweep_activations_total",
			Help:      "Rentals activated by the daily sweep.",
		},
	)

	notificationsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rentalhub",
			Name:      "notifications_sent_total",
			Help:      "Notification deliveries by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, rentalTransitions, sweepActivations, notificationsSent)
	})
}

// IncHTTP increments the request counter for an endpoint/status pair.
func IncHTTP(endpoint, status string) {
	httpRequests.WithLabelValues(endpoint, status).Inc()
}

// IncRentalTransition counts one transition into the given status.
func IncRentalTransition(status string) {
	rentalTransitions.WithLabelValues(status).Inc()
}

// AddSweepActivations counts rentals promoted by one sweep run.
func AddSweepActivations(n int) {
	sweepActivations.Add(float64(n))
}

// IncNotification counts one delivery attempt outcome.
func IncNotification(kind, outcome string) {
	notificationsSent.WithLabelValues(kind, outcome).Inc()
}
