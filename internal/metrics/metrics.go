// Package metrics exposes Prometheus instruments for executed statements.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the instruments one datastore reports to.
type Metrics struct {
	// StatementsTotal counts statements sent to the session by operation,
	// table and outcome.
	StatementsTotal *prometheus.CounterVec
	// StatementDuration is the session latency per operation.
	StatementDuration *prometheus.HistogramVec
	// RowsTotal counts rows returned to callers by operation and table.
	RowsTotal *prometheus.CounterVec
}

// New registers the instruments with reg. A nil reg uses
// prometheus.DefaultRegisterer; registering twice with the same registerer
// panics, as with promauto.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		StatementsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cqlc_statements_total",
				Help: "Total number of CQL statements executed",
			},
			[]string{"operation", "table", "status"},
		),
		StatementDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cqlc_statement_duration_seconds",
				Help:    "CQL statement latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		RowsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cqlc_rows_total",
				Help: "Total number of rows returned to callers",
			},
			[]string{"operation", "table"},
		),
	}
}

// ObserveStatement records one statement. A nil receiver is a no-op.
func (m *Metrics) ObserveStatement(op, table string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.StatementsTotal.WithLabelValues(op, table, status).Inc()
	m.StatementDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

// AddRows records rows handed back to a caller. A nil receiver is a no-op.
func (m *Metrics) AddRows(op, table string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.RowsTotal.WithLabelValues(op, table).Add(float64(n))
}
