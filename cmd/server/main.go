package main

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"veritas/internal/auditlog"
	auditmetrics "veritas/internal/auditlog/metrics"
	"veritas/internal/evidence"
	"veritas/internal/evidence/tracer"
	"veritas/internal/identity/did"
	"veritas/internal/identity/disclosure"
	"veritas/internal/issuance"
	issuancemetrics "veritas/internal/issuance/metrics"
	"veritas/internal/issuance/statuslist"
	statusstore "veritas/internal/issuance/statuslist/store"
	"veritas/internal/platform/config"
	"veritas/internal/platform/logger"
	httptransport "veritas/internal/transport/http"
	verificationmetrics "veritas/internal/verification/metrics"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// All protocol logic lives in the internal engine packages.
func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel)

	issuerPub, issuerKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		log.Error("failed to generate issuer key", "error", err)
		os.Exit(1)
	}
	_, receiptKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		log.Error("failed to generate receipt key", "error", err)
		os.Exit(1)
	}
	issuerDID := did.CreateKey(issuerPub)

	lists := statusstore.NewMemory()
	if err := lists.Save(context.Background(), statuslist.New(
		httptransport.DefaultStatusListID, issuerDID, statuslist.PurposeRevocation,
	)); err != nil {
		log.Error("failed to seed status list", "error", err)
		os.Exit(1)
	}

	auditMetrics := auditmetrics.New()
	pipeline := evidence.New(evidence.NewTextExtractor(),
		evidence.WithTracer(tracer.NewOTel()),
		evidence.WithReviewThreshold(cfg.ReviewThreshold),
	)

	handler := httptransport.NewHandler(httptransport.Deps{
		Logger:              log,
		Meta:                issuance.NewIssuerMetadata(cfg.IssuerURL, issuance.WithFormats(issuance.FormatSDJWT)),
		Signer:              disclosure.NewSigner(issuerDID, issuerKey),
		IssuerID:            issuerDID,
		VerifierID:          cfg.VerifierID,
		ReceiptKey:          receiptKey,
		Lists:               lists,
		Recorder:            auditlog.NewRecorder(auditlog.NewLog(), log, auditMetrics),
		Pipeline:            pipeline,
		IssuanceMetrics:     issuancemetrics.New(),
		VerificationMetrics: verificationmetrics.New(),
		AuditMetrics:        auditMetrics,
	})
	router := httptransport.NewRouter(handler, log)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Info("starting trust engine surface",
		"addr", cfg.Addr,
		"issuer", issuerDID,
	)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit

	log.Info("shutting down server gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}
