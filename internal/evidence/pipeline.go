package evidence

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"veritas/internal/evidence/tracer"
	"veritas/pkg/canonical"
	dErrors "veritas/pkg/domain-errors"
)

// Risk blend weights.
const (
	weightQuality    = 0.30
	weightValidation = 0.30
	weightTamper     = 0.40
)

// defaultReviewThreshold flags reports whose confidence falls below it.
const defaultReviewThreshold = 0.60

// defaultMinSize is the smallest document, in bytes, that passes the quality
// check unflagged.
const defaultMinSize = 1024

// Pipeline runs the evidence verification stages over one document.
type Pipeline struct {
	extractor       Extractor
	validators      []FieldValidator
	tracer          tracer.Tracer
	minSize         int
	reviewThreshold float64
}

// Option customizes pipeline construction.
type Option func(*Pipeline)

// WithValidators configures per-field validators.
func WithValidators(validators ...FieldValidator) Option {
	return func(p *Pipeline) {
		p.validators = validators
	}
}

// WithTracer injects a tracer; the default is a noop.
func WithTracer(t tracer.Tracer) Option {
	return func(p *Pipeline) {
		p.tracer = t
	}
}

// WithMinSize overrides the minimum document size for the quality check.
func WithMinSize(bytes int) Option {
	return func(p *Pipeline) {
		p.minSize = bytes
	}
}

// WithReviewThreshold overrides the confidence threshold below which a
// report is flagged for human review.
func WithReviewThreshold(threshold float64) Option {
	return func(p *Pipeline) {
		p.reviewThreshold = threshold
	}
}

// New creates a pipeline around the given extractor.
func New(extractor Extractor, opts ...Option) *Pipeline {
	p := &Pipeline{
		extractor:       extractor,
		tracer:          tracer.Noop(),
		minSize:         defaultMinSize,
		reviewThreshold: defaultReviewThreshold,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes the full pipeline: quality, extraction, field validation,
// tamper heuristics, risk blending and fingerprinting.
func (p *Pipeline) Run(ctx context.Context, input Input) (Report, error) {
	ctx, span := p.tracer.Start(ctx, tracer.SpanPipelineRun,
		tracer.String(tracer.AttrDocumentType, input.DocumentType),
		tracer.Int64(tracer.AttrDocumentBytes, int64(len(input.Bytes))),
	)
	var runErr error
	defer func() { span.End(runErr) }()

	if p.extractor == nil {
		runErr = dErrors.New(dErrors.CodeInvalidInput, "pipeline requires an extractor")
		return Report{}, runErr
	}

	report := Report{Quality: p.checkQuality(input)}

	extraction, err := p.extract(ctx, input)
	if err != nil {
		runErr = err
		return Report{}, runErr
	}
	report.Extraction = extraction

	failures, err := p.validate(ctx, extraction.Fields)
	if err != nil {
		runErr = err
		return Report{}, runErr
	}
	report.FieldFailures = failures

	report.TamperSignals = tamperSignals(extraction, input.Metadata)
	span.AddEvent(tracer.EventHeuristicsDone,
		tracer.Int64(tracer.AttrTamperSignals, int64(len(report.TamperSignals))))

	p.score(&report)

	fingerprint, err := Fingerprint(input, report)
	if err != nil {
		runErr = err
		return Report{}, runErr
	}
	report.Fingerprint = fingerprint

	span.SetAttributes(
		tracer.Float64(tracer.AttrRiskScore, report.RiskScore),
		tracer.Bool(tracer.AttrReviewRequired, report.ReviewRequired),
	)
	return report, nil
}

// extract runs the extractor inside its own stage span.
func (p *Pipeline) extract(ctx context.Context, input Input) (Extraction, error) {
	ctx, span := p.tracer.Start(ctx, tracer.SpanExtraction,
		tracer.String(tracer.AttrDocumentType, input.DocumentType))
	started := time.Now()

	extraction, err := p.extractor.Extract(ctx, input)
	if err != nil {
		err = dErrors.Wrap(err, dErrors.CodeInternal, "extraction failed")
	}
	span.SetAttributes(
		tracer.Duration(tracer.AttrStageElapsed, time.Since(started)),
		tracer.Int64(tracer.AttrFieldCount, int64(len(extraction.Fields))),
	)
	span.End(err)
	return extraction, err
}

// validate runs the configured field validators inside its own stage span.
func (p *Pipeline) validate(ctx context.Context, fields []Field) ([]string, error) {
	ctx, span := p.tracer.Start(ctx, tracer.SpanValidation,
		tracer.Int64(tracer.AttrFieldCount, int64(len(fields))))
	started := time.Now()

	failures, err := p.runValidators(ctx, fields)
	span.SetAttributes(tracer.Duration(tracer.AttrStageElapsed, time.Since(started)))
	span.End(err)
	return failures, err
}

func (p *Pipeline) checkQuality(input Input) QualityResult {
	switch {
	case len(input.Bytes) == 0:
		return QualityResult{Score: 0, Flags: []string{"document is empty"}}
	case len(input.Bytes) < p.minSize:
		return QualityResult{
			Score: 40,
			Flags: []string{fmt.Sprintf("document is %d bytes, below the %d byte minimum", len(input.Bytes), p.minSize)},
		}
	default:
		return QualityResult{Score: 100}
	}
}

// runValidators checks every configured validator against its extracted
// field in parallel. Each goroutine writes to its own slot, so no locking
// is needed when assembling the failures.
func (p *Pipeline) runValidators(ctx context.Context, fields []Field) ([]string, error) {
	if len(p.validators) == 0 {
		return nil, nil
	}

	byName := make(map[string]Field, len(fields))
	for _, f := range fields {
		byName[f.Name] = f
	}

	results := make([]string, len(p.validators))
	g, ctx := errgroup.WithContext(ctx)
	for i, v := range p.validators {
		i, v := i, v
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			field, present := byName[v.Field]
			if !present {
				results[i] = fmt.Sprintf("field %q was not extracted", v.Field)
				return nil
			}
			if err := v.Check(field.Value); err != nil {
				results[i] = fmt.Sprintf("field %q: %v", v.Field, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "field validation aborted")
	}

	var failures []string
	for _, r := range results {
		if r != "" {
			failures = append(failures, r)
		}
	}
	return failures, nil
}

// score blends quality, validation failures and tamper signals into the
// overall risk, then derives confidence and the review flag.
func (p *Pipeline) score(report *Report) {
	qualityRisk := 100 - report.Quality.Score

	var validationRisk float64
	if n := len(p.validators); n > 0 {
		validationRisk = 100 * float64(len(report.FieldFailures)) / float64(n)
	}

	var tamperRisk float64
	for _, s := range report.TamperSignals {
		tamperRisk += s.Contribution
	}
	tamperRisk = math.Min(tamperRisk, 100)

	report.RiskScore = weightQuality*qualityRisk + weightValidation*validationRisk + weightTamper*tamperRisk
	report.Confidence = 1 - report.RiskScore/100
	report.ReviewRequired = report.Confidence < p.reviewThreshold
}

// Fingerprint produces the deterministic evidence hash over the sanitized
// pipeline inputs and outputs, suitable for inclusion in the audit log.
// Fields are ordered by name so extraction order cannot change the hash.
func Fingerprint(input Input, report Report) (string, error) {
	docHash := sha256.Sum256(input.Bytes)

	fields := append([]Field(nil), report.Extraction.Fields...)
	sort.Slice(fields, func(i, j int) bool { return fields[i].Name < fields[j].Name })

	return canonical.HashValue(map[string]any{
		"documentType": input.DocumentType,
		"documentHash": hex.EncodeToString(docHash[:]),
		"metadata":     sanitizeMetadata(input.Metadata),
		"fields":       fields,
		"qualityScore": report.Quality.Score,
		"riskScore":    report.RiskScore,
	})
}
