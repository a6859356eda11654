package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PricingMetrics records redemption and rebate activity.
type PricingMetrics struct {
	redemptions       *prometheus.CounterVec
	rebateTransitions *prometheus.CounterVec
	rebateDuration    *prometheus.HistogramVec
}

// NewPricingMetrics registers the pricing metrics on the provided registerer.
func NewPricingMetrics(reg prometheus.Registerer) *PricingMetrics {
	if reg == nil {
		return &PricingMetrics{}
	}
	redemptions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pricing_redemptions_total",
		Help: "Item cost redemptions computed, by cost type.",
	}, []string{"cost_type"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rebate_transitions_total",
		Help: "Rebate state transitions, by action and outcome.",
	}, []string{"action", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rebate_transition_duration_seconds",
		Help:    "Duration of rebate apply/unapply transactions.",
		Buckets: prometheus.DefBuckets,
	}, []string{"action"})
	reg.MustRegister(redemptions, transitions, duration)
	return &PricingMetrics{
		redemptions:       redemptions,
		rebateTransitions: transitions,
		rebateDuration:    duration,
	}
}

// IncRedemption counts one redemption run for the cost type.
func (p *PricingMetrics) IncRedemption(costType string) {
	if p == nil || p.redemptions == nil {
		return
	}
	p.redemptions.WithLabelValues(costType).Inc()
}

// IncRebateTransition counts one apply/unapply outcome.
func (p *PricingMetrics) IncRebateTransition(action, outcome string) {
	if p == nil || p.rebateTransitions == nil {
		return
	}
	p.rebateTransitions.WithLabelValues(action, outcome).Inc()
}

// ObserveRebateDuration records how long a rebate transaction took.
func (p *PricingMetrics) ObserveRebateDuration(action string, duration time.Duration) {
	if p == nil || p.rebateDuration == nil {
		return
	}
	p.rebateDuration.WithLabelValues(action).Observe(duration.Seconds())
}
