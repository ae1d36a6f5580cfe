// Package metrics provides Prometheus metrics for the verification engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all verification engine metrics.
type Metrics struct {
	EvaluationsTotal        *prometheus.CounterVec // Policy evaluations by decision
	RuleFailuresTotal       *prometheus.CounterVec // Individual rule failures by operator
	ReceiptsIssuedTotal     prometheus.Counter     // Verification receipts minted
	ResponseRejectionsTotal prometheus.Counter     // Authorization responses failing validation
	EvaluationDuration      prometheus.Histogram   // Policy evaluation latency
}

// New creates a Metrics instance with all metrics registered.
func New() *Metrics {
	return &Metrics{
		EvaluationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "veritas_verification_evaluations_total",
			Help: "Total number of policy evaluations by aggregate decision",
		}, []string{"decision"}),
		RuleFailuresTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "veritas_verification_rule_failures_total",
			Help: "Total number of failed policy rules by operator",
		}, []string{"operator"}),
		ReceiptsIssuedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "veritas_verification_receipts_issued_total",
			Help: "Total number of verification receipts issued",
		}),
		ResponseRejectionsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "veritas_verification_response_rejections_total",
			Help: "Total number of authorization responses rejected by validation",
		}),
		EvaluationDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "veritas_verification_evaluation_duration_seconds",
			Help:    "Duration of policy evaluations",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		}),
	}
}
