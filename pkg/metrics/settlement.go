package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// SettlementMetrics tracks the deposit pipeline outcomes.
type SettlementMetrics struct {
	settled      *prometheus.CounterVec
	rejected     *prometheus.CounterVec
	degraded     prometheus.Counter
	rewardAmount *prometheus.HistogramVec
	claims       *prometheus.CounterVec
}

// NewSettlementMetrics registers the settlement metrics on the provided registerer.
func NewSettlementMetrics(reg prometheus.Registerer) *SettlementMetrics {
	if reg == nil {
		return &SettlementMetrics{}
	}
	settled := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "deposits_settled_total",
		Help: "Deposits settled with a credited reward.",
	}, []string{"category"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "deposits_rejected_total",
		Help: "Deposits rejected during settlement.",
	}, []string{"reason"})
	degraded := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "classifier_degraded_total",
		Help: "Classification calls that fell back to the degraded default.",
	})
	rewardAmount := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "deposit_reward_amount",
		Help:    "Reward amounts credited per settled deposit, in minor currency units.",
		Buckets: prometheus.ExponentialBuckets(100, 4, 8),
	}, []string{"category"})
	claims := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "session_claims_total",
		Help: "Session claim attempts by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(settled, rejected, degraded, rewardAmount, claims)
	return &SettlementMetrics{
		settled:      settled,
		rejected:     rejected,
		degraded:     degraded,
		rewardAmount: rewardAmount,
		claims:       claims,
	}
}

// IncSettled increments the settled counter for a category and records the reward.
func (s *SettlementMetrics) IncSettled(category string, rewardAmount int64) {
	if s == nil || s.settled == nil {
		return
	}
	s.settled.WithLabelValues(normalizeLabel(category)).Inc()
	s.rewardAmount.WithLabelValues(normalizeLabel(category)).Observe(float64(rewardAmount))
}

// IncRejected increments the rejected counter for the given reason.
func (s *SettlementMetrics) IncRejected(reason string) {
	if s == nil || s.rejected == nil {
		return
	}
	s.rejected.WithLabelValues(normalizeLabel(reason)).Inc()
}

// IncDegraded counts a classification fallback.
func (s *SettlementMetrics) IncDegraded() {
	if s == nil || s.degraded == nil {
		return
	}
	s.degraded.Inc()
}

// IncClaim counts a session claim attempt outcome.
func (s *SettlementMetrics) IncClaim(outcome string) {
	if s == nil || s.claims == nil {
		return
	}
	s.claims.WithLabelValues(normalizeLabel(outcome)).Inc()
}
