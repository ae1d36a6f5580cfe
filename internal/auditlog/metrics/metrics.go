// Package metrics provides Prometheus metrics for the audit log.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all audit log metrics.
type Metrics struct {
	AppendsTotal         *prometheus.CounterVec // Entries appended, by entry type
	IntegrityScansTotal  prometheus.Counter     // Integrity scans run
	ViolationsTotal      *prometheus.CounterVec // Violations found, by kind
	ProofsGeneratedTotal prometheus.Counter     // Inclusion proofs generated
	LogSize              prometheus.Gauge       // Current entry count
}

// New creates a Metrics instance with all metrics registered.
func New() *Metrics {
	return &Metrics{
		AppendsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "veritas_auditlog_appends_total",
			Help: "Total number of audit entries appended by entry type",
		}, []string{"type"}),
		IntegrityScansTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "veritas_auditlog_integrity_scans_total",
			Help: "Total number of integrity scans run",
		}),
		ViolationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "veritas_auditlog_violations_total",
			Help: "Total number of integrity violations found by kind",
		}, []string{"kind"}),
		ProofsGeneratedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "veritas_auditlog_proofs_generated_total",
			Help: "Total number of inclusion proofs generated",
		}),
		LogSize: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "veritas_auditlog_entries",
			Help: "Current number of entries in the audit log",
		}),
	}
}
