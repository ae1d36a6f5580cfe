package auditlog

import (
	"context"
	"log/slog"

	"veritas/internal/auditlog/metrics"
)

// Entry types recorded by the engines.
const (
	EntryIssuance     = "issuance"
	EntryRevocation   = "revocation"
	EntrySuspension   = "suspension"
	EntryVerification = "verification"
	EntryEvidence     = "evidence"
)

// Recorder standardizes trust-event recording: every event is appended to
// the log and mirrored to structured logging and metrics. Append failures
// are logged, never propagated, so recording cannot break the calling
// engine.
type Recorder struct {
	log     *Log
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewRecorder creates a recorder over the given log. logger and m may be nil
// to skip text logging and metrics respectively.
func NewRecorder(log *Log, logger *slog.Logger, m *metrics.Metrics) *Recorder {
	return &Recorder{log: log, logger: logger, metrics: m}
}

// Record appends a trust event and returns the completed entry.
func (r *Recorder) Record(ctx context.Context, entryType, actor, action, resource string, payload map[string]any) Entry {
	entry, err := r.log.Append(entryType, actor, action, resource, payload)
	if err != nil {
		if r.logger != nil {
			r.logger.ErrorContext(ctx, "failed to append audit entry",
				"error", err,
				"type", entryType,
				"action", action,
			)
		}
		return Entry{}
	}
	if r.metrics != nil {
		r.metrics.AppendsTotal.WithLabelValues(entryType).Inc()
		r.metrics.LogSize.Set(float64(r.log.Size()))
	}
	if r.logger != nil {
		r.logger.InfoContext(ctx, action,
			"log_type", "audit",
			"type", entryType,
			"actor", actor,
			"resource", resource,
			"index", entry.Index,
		)
	}
	return entry
}

// Log exposes the underlying append-only log for proof generation.
func (r *Recorder) Log() *Log {
	return r.log
}
