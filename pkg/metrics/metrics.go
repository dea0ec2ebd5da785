// Package metrics exposes Prometheus collectors for the credit economy.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "marketledger"

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	creditsMoved = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "credits_moved_total",
			Help:      "Credits moved by committed ledger operations.",
		},
		[]string{"kind"},
	)

	operations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "operations_total",
			Help:      "Ledger operations by name and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	operationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "operation_duration_seconds",
			Help:      "Duration of ledger operations including the database transaction.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"operation"},
	)

	fundLoanedOut = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "fund",
			Name:      "loaned_out_credits",
			Help:      "Credits currently lent out by the micro-credit fund.",
		},
	)

	overdueLoans = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fund",
			Name:      "overdue_loans_total",
			Help:      "Loans flagged overdue by the sweep.",
		},
	)
)

func init() {
	Registry.MustRegister(
		creditsMoved,
		operations,
		operationDuration,
		fundLoanedOut,
		overdueLoans,
	)
}

// Handler returns the HTTP handler that serves the registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordOperation records the outcome and latency of a ledger operation.
func RecordOperation(operation string, started time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	operations.WithLabelValues(operation, outcome).Inc()
	operationDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

// RecordCredits adds amount credits moved under kind.
func RecordCredits(kind string, amount int64) {
	if amount <= 0 {
		return
	}
	creditsMoved.WithLabelValues(kind).Add(float64(amount))
}

// SetFundLoanedOut publishes the current loaned-out total.
func SetFundLoanedOut(amount int64) {
	fundLoanedOut.Set(float64(amount))
}

// RecordOverdue counts loans flagged overdue.
func RecordOverdue(n int64) {
	if n > 0 {
		overdueLoans.Add(float64(n))
	}
}
