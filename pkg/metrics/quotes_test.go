package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestQuoteMetricsCountsTransitionsAndWarnings(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewQuoteMetrics(reg)

	m.IncTransition("draft", "presented")
	m.IncTransition("draft", "presented")
	m.IncRejected("draft", "accepted")
	m.IncWarning("")
	m.ObservePricing(3 * time.Millisecond)

	mfs, err := reg.Gather()
	require.NoError(t, err)

	got, err := fetchCounterValue(mfs, "optiquote_quote_transitions_total", "to", "presented")
	require.NoError(t, err)
	require.Equal(t, float64(2), got)

	got, err = fetchCounterValue(mfs, "optiquote_quote_transitions_rejected_total", "to", "accepted")
	require.NoError(t, err)
	require.Equal(t, float64(1), got)

	got, err = fetchCounterValue(mfs, "optiquote_quote_warnings_total", "type", "unknown")
	require.NoError(t, err)
	require.Equal(t, float64(1), got)

	mf := findMetricFamily(mfs, "optiquote_quote_pricing_seconds")
	require.NotNil(t, mf)
	require.Equal(t, uint64(1), mf.GetMetric()[0].GetHistogram().GetSampleCount())
}

func TestQuoteMetricsWithoutRegistererIsNoop(t *testing.T) {
	m := NewQuoteMetrics(nil)
	m.IncTransition("a", "b")
	m.IncWarning("x")
	m.ObservePricing(time.Second)

	var nilMetrics *QuoteMetrics
	nilMetrics.IncRejected("a", "b")
}
