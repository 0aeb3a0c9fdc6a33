package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the screening module.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	// Database lookup latencies by database and outcome
	LookupLatency *prometheus.HistogramVec

	// Lookup failures by database and error category
	LookupFailures *prometheus.CounterVec

	// Circuit state transitions by database
	BreakerTransitions *prometheus.CounterVec

	// Overall check outcomes by status
	CheckOutcome *prometheus.CounterVec

	// Full check latency including all lookups
	CheckLatency prometheus.Histogram

	// Export attempts by kind and outcome
	Exports *prometheus.CounterVec
}

// New registers all screening metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		LookupLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "exclusion_check_lookup_duration_seconds",
			Help:    "Duration of database lookups by database and outcome",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"database", "outcome"}), // outcome: "ok", "failed"

		LookupFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "exclusion_check_lookup_failures_total",
			Help: "Database lookups that degraded to a warning, by error category",
		}, []string{"database", "category"}),

		BreakerTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "exclusion_check_breaker_transitions_total",
			Help: "Circuit breaker state changes by database",
		}, []string{"database", "to"}),

		CheckOutcome: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "exclusion_check_outcomes_total",
			Help: "Completed checks by overall status",
		}, []string{"status"}),

		CheckLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "exclusion_check_duration_seconds",
			Help:    "Duration of a full exclusion check",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
		}),

		Exports: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "exclusion_check_exports_total",
			Help: "Export attempts by kind and outcome",
		}, []string{"kind", "outcome"}),
	}
}

// ObserveLookup records one database lookup.
func (m *Metrics) ObserveLookup(database string, failed bool, d time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if failed {
		outcome = "failed"
	}
	m.LookupLatency.WithLabelValues(database, outcome).Observe(d.Seconds())
}

// IncrementLookupFailure records a degraded lookup.
func (m *Metrics) IncrementLookupFailure(database, category string) {
	if m != nil {
		m.LookupFailures.WithLabelValues(database, category).Inc()
	}
}

// IncrementBreakerTransition records a circuit opening or closing.
func (m *Metrics) IncrementBreakerTransition(database, to string) {
	if m != nil {
		m.BreakerTransitions.WithLabelValues(database, to).Inc()
	}
}

// ObserveCheck records a completed check.
func (m *Metrics) ObserveCheck(status string, d time.Duration) {
	if m != nil {
		m.CheckOutcome.WithLabelValues(status).Inc()
		m.CheckLatency.Observe(d.Seconds())
	}
}

// IncrementExport records an export attempt.
func (m *Metrics) IncrementExport(kind, outcome string) {
	if m != nil {
		m.Exports.WithLabelValues(kind, outcome).Inc()
	}
}
