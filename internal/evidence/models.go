// Package evidence implements the document-evidence verification pipeline:
// quality checks, field validation, tamper heuristics and a weighted risk
// score that feeds issuance and verification decisions. The pipeline's
// deterministic fingerprint ties every evidence evaluation to the audit log.
package evidence

import "context"

// Input is a raw document submitted for evidence checks.
type Input struct {
	Bytes        []byte
	DocumentType string
	Metadata     map[string]any
}

// Field is one extracted (name, value, confidence) triple.
type Field struct {
	Name       string  `json:"name"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// Extraction is the output of the pluggable extraction step.
type Extraction struct {
	Text   string  `json:"text"`
	Fields []Field `json:"fields"`
}

// Extractor turns raw document bytes into text and typed fields. OCR or any
// remote extraction service lives behind this interface; the pipeline itself
// never performs I/O beyond calling it.
type Extractor interface {
	Extract(ctx context.Context, input Input) (Extraction, error)
}

// FieldValidator checks one extracted field. Check returns an error
// describing why the value is unacceptable.
type FieldValidator struct {
	Field string
	Check func(value string) error
}

// QualityResult scores the raw input before extraction.
type QualityResult struct {
	Score float64  `json:"score"`
	Flags []string `json:"flags,omitempty"`
}

// Signal is one tamper heuristic's capped risk contribution.
type Signal struct {
	Name         string  `json:"name"`
	Contribution float64 `json:"contribution"`
	Detail       string  `json:"detail,omitempty"`
}

// Report is the pipeline's full output for one document.
type Report struct {
	Quality        QualityResult `json:"quality"`
	Extraction     Extraction    `json:"extraction"`
	FieldFailures  []string      `json:"fieldFailures,omitempty"`
	TamperSignals  []Signal      `json:"tamperSignals,omitempty"`
	RiskScore      float64       `json:"riskScore"`
	Confidence     float64       `json:"confidence"`
	ReviewRequired bool          `json:"reviewRequired"`
	Fingerprint    string        `json:"fingerprint"`
}
