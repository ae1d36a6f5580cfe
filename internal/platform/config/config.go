package config

import (
	"log/slog"
	"os"
	"strconv"
)

// Server captures the reference surface's configuration.
type Server struct {
	Addr            string
	IssuerURL       string
	VerifierID      string
	ReviewThreshold float64
	LogLevel        slog.Level
}

// Defaults applied when the environment leaves a value unset.
const (
	DefaultAddr            = ":8080"
	DefaultIssuerURL       = "https://issuer.veritas.local"
	DefaultVerifierID      = "did:web:verifier.veritas.local"
	DefaultReviewThreshold = 0.60
	DefaultLogLevel        = slog.LevelInfo
)

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	cfg := Server{
		Addr:            DefaultAddr,
		IssuerURL:       DefaultIssuerURL,
		VerifierID:      DefaultVerifierID,
		ReviewThreshold: DefaultReviewThreshold,
		LogLevel:        DefaultLogLevel,
	}
	if addr := os.Getenv("VERITAS_ADDR"); addr != "" {
		cfg.Addr = addr
	}
	if issuer := os.Getenv("VERITAS_ISSUER_URL"); issuer != "" {
		cfg.IssuerURL = issuer
	}
	if verifier := os.Getenv("VERITAS_VERIFIER_ID"); verifier != "" {
		cfg.VerifierID = verifier
	}
	if raw := os.Getenv("VERITAS_REVIEW_THRESHOLD"); raw != "" {
		if threshold, err := strconv.ParseFloat(raw, 64); err == nil {
			cfg.ReviewThreshold = threshold
		}
	}
	if raw := os.Getenv("VERITAS_LOG_LEVEL"); raw != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(raw)); err == nil {
			cfg.LogLevel = level
		}
	}
	return cfg
}
