package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Collector struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	InFlightGauge   prometheus.Gauge

	UsersRegisteredTotal prometheus.Counter
	AppointmentsTotal    *prometheus.CounterVec
	BookingConflicts     prometheus.Counter
	PaymentsTotal        prometheus.Counter

	InferenceRequests *prometheus.CounterVec
	InferenceDuration *prometheus.HistogramVec

	NotificationsSent    *prometheus.CounterVec
	NotificationsDropped prometheus.Counter

	DBConnections prometheus.Gauge
}

func NewCollector(serviceName string) *Collector {
	return &Collector{
		RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, path, and status code.",
		}, []string{"method", "path", "status"}),

		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency distribution.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"method", "path", "status"}),

		InFlightGauge: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: serviceName,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),

		UsersRegisteredTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "auth",
			Name:      "users_registered_total",
			Help:      "Total user accounts created.",
		}),

		AppointmentsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "clinic",
			Name:      "appointments_total",
			Help:      "Total appointments by status transition.",
		}, []string{"status"}),

		BookingConflicts: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "clinic",
			Name:      "booking_conflicts_total",
			Help:      "Booking attempts rejected because the slot was taken.",
		}),

		PaymentsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "clinic",
			Name:      "payments_total",
			Help:      "Total consultation payments recorded.",
		}),

		InferenceRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "inference",
			Name:      "requests_total",
			Help:      "Calls to hosted model endpoints by model and outcome.",
		}, []string{"model", "outcome"}),

		InferenceDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: serviceName,
			Subsystem: "inference",
			Name:      "request_duration_seconds",
			Help:      "Hosted model call latency distribution.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0},
		}, []string{"model"}),

		NotificationsSent: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "notify",
			Name:      "emails_sent_total",
			Help:      "Notification emails sent by kind.",
		}, []string{"kind"}),

		NotificationsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: serviceName,
			Subsystem: "notify",
			Name:      "buffer_dropped_total",
			Help:      "Notifications dropped due to full buffer. Alert if non-zero.",
		}),

		DBConnections: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: serviceName,
			Subsystem: "db",
			Name:      "open_connections",
			Help:      "Current number of open database connections.",
		}),
	}
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
