package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// TransactionsTotal counts ledger transactions by type and final status.
	TransactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wallet_transactions_total",
			Help: "Total number of ledger transactions by type and status",
		},
		[]string{"type", "status"},
	)

	// GatewayCalls counts payment gateway calls by operation and outcome.
	GatewayCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_gateway_calls_total",
			Help: "Total number of payment gateway calls by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)

	// GatewayDuration measures payment gateway call latency.
	GatewayDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "payment_gateway_duration_seconds",
			Help:    "Duration of payment gateway calls in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
)

// Register registers the wallet metrics with the default registry. Call once
// at startup.
func Register() {
	prometheus.MustRegister(TransactionsTotal, GatewayCalls, GatewayDuration)
}

// RecordTransaction increments the transaction counter.
func RecordTransaction(txnType, status string) {
	TransactionsTotal.WithLabelValues(txnType, status).Inc()
}
