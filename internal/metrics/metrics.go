// Package metrics holds the Prometheus instrumentation for the checkout
// flow. Collectors are registered on the default registry and exposed via
// the /metrics endpoint in cmd/server.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	checkoutsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_requests_total",
		Help: "Completed checkout workflows by terminal result.",
	}, []string{"result"})

	paymentOutcomesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_payment_outcomes_total",
		Help: "Payment attempt outcomes by method and normalized status.",
	}, []string{"method", "status"})

	orderCreateSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "checkout_order_create_duration_seconds",
		Help:    "Latency of upstream order creation calls.",
		Buckets: prometheus.DefBuckets,
	})

	reconcileFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "checkout_reconcile_failures_total",
		Help: "Order status updates that failed after a payment attempt.",
	})
)

// RecordCheckout counts one finished checkout workflow. result is "success"
// or "error".
func RecordCheckout(result string) {
	checkoutsTotal.WithLabelValues(result).Inc()
}

// RecordPaymentOutcome counts one payment attempt outcome.
func RecordPaymentOutcome(method, status string) {
	paymentOutcomesTotal.WithLabelValues(method, status).Inc()
}

// ObserveOrderCreate records the latency of an upstream order creation.
func ObserveOrderCreate(d time.Duration) {
	orderCreateSeconds.Observe(d.Seconds())
}

// RecordReconcileFailure counts a non-fatal status-update failure.
func RecordReconcileFailure() {
	reconcileFailuresTotal.Inc()
}

// Accessors for tests.

func GetCheckoutsTotal() *prometheus.CounterVec       { return checkoutsTotal }
func GetPaymentOutcomesTotal() *prometheus.CounterVec { return paymentOutcomesTotal }
func GetOrderCreateSeconds() prometheus.Histogram     { return orderCreateSeconds }
func GetReconcileFailuresTotal() prometheus.Counter   { return reconcileFailuresTotal }
