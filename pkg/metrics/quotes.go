package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// QuoteMetrics tracks lifecycle transitions and pricing passes.
type QuoteMetrics struct {
	transitions *prometheus.CounterVec
	rejected    *prometheus.CounterVec
	warnings    *prometheus.CounterVec
	pricing     prometheus.Histogram
}

// NewQuoteMetrics registers the quote metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewQuoteMetrics(reg prometheus.Registerer) *QuoteMetrics {
	if reg == nil {
		return &QuoteMetrics{}
	}
	m := &QuoteMetrics{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "optiquote",
			Name:      "quote_transitions_total",
			Help:      "Successful quote lifecycle transitions.",
		}, []string{"from", "to"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "optiquote",
			Name:      "quote_transitions_rejected_total",
			Help:      "Quote transitions rejected by a lifecycle guard.",
		}, []string{"from", "to"}),
		warnings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "optiquote",
			Name:      "quote_warnings_total",
			Help:      "Soft warnings returned with quote results.",
		}, []string{"type"}),
		pricing: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "optiquote",
			Name:      "quote_pricing_seconds",
			Help:      "Time spent computing a pricing breakdown.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05},
		}),
	}
	reg.MustRegister(m.transitions, m.rejected, m.warnings, m.pricing)
	return m
}

func (m *QuoteMetrics) IncTransition(from, to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

func (m *QuoteMetrics) IncRejected(from, to string) {
	if m == nil || m.rejected == nil {
		return
	}
	m.rejected.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

func (m *QuoteMetrics) IncWarning(kind string) {
	if m == nil || m.warnings == nil {
		return
	}
	m.warnings.WithLabelValues(normalizeLabel(kind)).Inc()
}

func (m *QuoteMetrics) ObservePricing(d time.Duration) {
	if m == nil || m.pricing == nil {
		return
	}
	m.pricing.Observe(d.Seconds())
}
