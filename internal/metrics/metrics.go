// Package metrics exposes prometheus counters for the money-moving operations.
package metrics

import (
	"time" // Timestamps and durations

	"github.com/prometheus/client_golang/prometheus"          // Prometheus metric types
	"github.com/prometheus/client_golang/prometheus/promauto" // Auto-registered metrics
)

var (
	operationTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lottery_operations_total",
			Help: "Ledger engine operations by operation and result",
		},
		[]string{"operation", "result"},
	)

	operationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "lottery_operation_duration_ms",
			Help:    "Ledger engine operation duration in milliseconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
		[]string{"operation", "result"},
	)

	txRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lottery_tx_retries_total",
			Help: "Transactions re-run after a deadlock, lock timeout or ticket number collision",
		},
		[]string{"operation"},
	)

	ticketsSold = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lottery_tickets_sold_total",
		Help: "Tickets issued",
	})
)

// RecordOperation records one engine call. result is "success", a domain
// error label such as "insufficient_funds", or "error".
func RecordOperation(operation, result string, started time.Time) {
	operationTotal.WithLabelValues(operation, result).Inc()
	operationDuration.WithLabelValues(operation, result).Observe(float64(time.Since(started).Milliseconds()))
}

// RecordRetry counts one transaction retry
func RecordRetry(operation string) { txRetries.WithLabelValues(operation).Inc() }

// RecordTicketSold counts one issued ticket
func RecordTicketSold() { ticketsSold.Inc() }
