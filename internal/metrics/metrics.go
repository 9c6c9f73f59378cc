package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookpass_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bookpass_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	BookingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookpass_bookings_total",
			Help: "Total number of bookings",
		},
		[]string{"status", "coverage"},
	)

	LedgerDecrementsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bookpass_ledger_decrements_total",
			Help: "Total number of package ledger decrements",
		},
	)

	InvoicesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookpass_invoices_total",
			Help: "Total number of invoice creation attempts",
		},
		[]string{"status"},
	)

	InvoiceDeliveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookpass_invoice_deliveries_total",
			Help: "Total number of invoice delivery attempts",
		},
		[]string{"channel", "status"},
	)

	EmailsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookpass_emails_sent_total",
			Help: "Total number of emails sent",
		},
		[]string{"type", "status"},
	)

	EmailQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bookpass_email_queue_length",
			Help: "Current length of email queue",
		},
	)

	SubscriptionsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bookpass_subscriptions_created_total",
			Help: "Total number of package subscriptions created",
		},
		[]string{"payment_method"},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// RecordBooking labels the booking by how it was covered:
// "package", "partial" or "paid".
func RecordBooking(status, coverage string) {
	BookingsTotal.WithLabelValues(status, coverage).Inc()
}

func RecordLedgerDecrement() {
	LedgerDecrementsTotal.Inc()
}

func RecordInvoice(status string) {
	InvoicesTotal.WithLabelValues(status).Inc()
}

func RecordInvoiceDelivery(channel, status string) {
	InvoiceDeliveriesTotal.WithLabelValues(channel, status).Inc()
}

func RecordEmail(emailType, status string) {
	EmailsSentTotal.WithLabelValues(emailType, status).Inc()
}

func RecordSubscription(paymentMethod string) {
	SubscriptionsCreatedTotal.WithLabelValues(paymentMethod).Inc()
}
