// Package metrics provides Prometheus metrics for the issuance engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains all issuance engine metrics.
type Metrics struct {
	OffersCreatedTotal      prometheus.Counter     // Credential offers constructed
	CredentialsIssuedTotal  *prometheus.CounterVec // Credentials minted, by format
	RequestRejectionsTotal  prometheus.Counter     // Credential requests failing validation
	StatusTransitionsTotal  *prometheus.CounterVec // Status list transitions, by target status
	StatusListEntriesActive prometheus.Gauge       // Entries currently active across lists
}

// New creates a Metrics instance with all metrics registered.
func New() *Metrics {
	return &Metrics{
		OffersCreatedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "veritas_issuance_offers_created_total",
			Help: "Total number of credential offers constructed",
		}),
		CredentialsIssuedTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "veritas_issuance_credentials_issued_total",
			Help: "Total number of credentials issued by envelope format",
		}, []string{"format"}),
		RequestRejectionsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "veritas_issuance_request_rejections_total",
			Help: "Total number of credential requests rejected by validation",
		}),
		StatusTransitionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "veritas_issuance_status_transitions_total",
			Help: "Total number of status list transitions by target status",
		}, []string{"status"}),
		StatusListEntriesActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "veritas_issuance_status_entries_active",
			Help: "Current number of active status list entries",
		}),
	}
}
