package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires all public endpoints with middleware.
func NewRouter(h *Handler, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(requestLogger(logger))

	// Issuance
	r.Get("/issuer/metadata", h.handleIssuerMetadata)
	r.Post("/issuance/offers", h.handleCreateOffer)
	r.Post("/issuance/token", h.handleToken)
	r.Post("/issuance/credentials", h.handleIssueCredential)

	// Status lists
	r.Get("/status-lists/{listID}", h.handleStatusList)
	r.Post("/status-lists/{listID}/revoke", h.handleRevoke)
	r.Post("/status-lists/{listID}/suspend", h.handleSuspend)

	// Verification
	r.Post("/verification/requests", h.handleCreatePresentationRequest)
	r.Post("/verification/verify", h.handleVerify)

	// Evidence
	r.Post("/evidence/evaluate", h.handleEvaluateEvidence)

	// Audit
	r.Get("/audit/root", h.handleAuditRoot)
	r.Get("/audit/entries/{index}/proof", h.handleAuditProof)
	r.Get("/audit/integrity", h.handleAuditIntegrity)

	// Operational
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// requestLogger logs one structured line per request.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
