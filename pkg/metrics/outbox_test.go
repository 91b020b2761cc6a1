package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestOutboxMetricsCounts(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOutboxMetrics(reg)

	m.IncPublished("quote_created")
	m.IncPublished("quote_created")
	m.IncFailed("quote_presented")
	m.IncDeadLettered("max_attempts")

	mfs, err := reg.Gather()
	require.NoError(t, err)

	got, err := fetchCounterValue(mfs, "optiquote_outbox_published_total", "event_type", "quote_created")
	require.NoError(t, err)
	require.Equal(t, float64(2), got)

	got, err = fetchCounterValue(mfs, "optiquote_outbox_publish_failures_total", "event_type", "quote_presented")
	require.NoError(t, err)
	require.Equal(t, float64(1), got)

	got, err = fetchCounterValue(mfs, "optiquote_outbox_dead_lettered_total", "reason", "max_attempts")
	require.NoError(t, err)
	require.Equal(t, float64(1), got)
}

func TestNilOutboxMetricsAreNoops(t *testing.T) {
	var m *OutboxMetrics
	m.IncPublished("x")
	m.IncFailed("x")
	m.IncDeadLettered("x")
	NewOutboxMetrics(nil).IncPublished("x")
}
