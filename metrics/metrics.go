package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studiofit_requests_total",
			Help: "Number of handled HTTP requests",
		},
		[]string{"method", "status"},
	)

	RequestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name: "studiofit_request_duration_seconds",
			Help: "Time taken to handle HTTP requests",
		},
	)

	CheckoutsCompleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "studiofit_checkouts_completed_total",
			Help: "Number of carts fulfilled through a payment callback",
		},
	)

	CheckoutsDuplicate = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "studiofit_checkouts_duplicate_total",
			Help: "Number of payment callbacks ignored as duplicates",
		},
	)
)

func Register() {
	prometheus.MustRegister(RequestsTotal, RequestDuration, CheckoutsCompleted, CheckoutsDuplicate)
}
