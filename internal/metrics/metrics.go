package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "huletfish_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "huletfish_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	BookingTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "huletfish_booking_transitions_total",
			Help: "Total number of bookings entering each status",
		},
		[]string{"status"},
	)

	BookingRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "huletfish_booking_rejections_total",
			Help: "Total number of booking requests refused, by reason",
		},
		[]string{"reason"},
	)

	BookingCreateRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "huletfish_booking_create_retries_total",
			Help: "Total number of booking creations retried after a concurrency conflict",
		},
	)

	BookingCreateDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "huletfish_booking_create_duration_seconds",
			Help:    "Time spent creating a booking, including retries",
			Buckets: prometheus.DefBuckets,
		},
	)

	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "huletfish_notifications_total",
			Help: "Total number of booking notifications",
		},
		[]string{"type", "status"},
	)

	EmailQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "huletfish_email_queue_length",
			Help: "Current length of email queue",
		},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordBookingTransition(status string) {
	BookingTransitionsTotal.WithLabelValues(status).Inc()
}

func RecordBookingRejection(reason string) {
	BookingRejectionsTotal.WithLabelValues(reason).Inc()
}

func RecordBookingCreateRetry() {
	BookingCreateRetriesTotal.Inc()
}

func ObserveBookingCreate(seconds float64) {
	BookingCreateDuration.Observe(seconds)
}

func RecordNotification(notificationType, status string) {
	NotificationsTotal.WithLabelValues(notificationType, status).Inc()
}
