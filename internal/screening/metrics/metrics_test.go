package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveLookup("oig", true, time.Second)
		m.IncrementLookupFailure("oig", "timeout")
		m.IncrementBreakerTransition("oig", "open")
		m.ObserveCheck("clear", time.Second)
		m.IncrementExport("csv", "ok")
	})
}

func TestMetricsRecord(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.IncrementLookupFailure("sam", "timeout")
	m.IncrementLookupFailure("sam", "timeout")
	m.ObserveCheck("excluded", 20*time.Millisecond)
	m.IncrementExport("pdf", "conflict")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.LookupFailures.WithLabelValues("sam", "timeout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CheckOutcome.WithLabelValues("excluded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Exports.WithLabelValues("pdf", "conflict")))
}
