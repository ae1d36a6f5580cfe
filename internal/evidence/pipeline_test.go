package evidence

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"veritas/internal/evidence/tracer"
)

// staticExtractor returns a fixed extraction, or an error when set.
type staticExtractor struct {
	extraction Extraction
	err        error
}

func (e *staticExtractor) Extract(_ context.Context, _ Input) (Extraction, error) {
	return e.extraction, e.err
}

// recordingTracer captures every span the pipeline opens.
type recordingTracer struct {
	mu    sync.Mutex
	spans []*recordedSpan
}

type recordedSpan struct {
	name  string
	attrs []tracer.Attribute
	ended bool
	err   error
}

func (t *recordingTracer) Start(ctx context.Context, name string, attrs ...tracer.Attribute) (context.Context, tracer.Span) {
	t.mu.Lock()
	defer t.mu.Unlock()
	span := &recordedSpan{name: name, attrs: attrs}
	t.spans = append(t.spans, span)
	return ctx, span
}

func (t *recordingTracer) names() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.spans))
	for i, span := range t.spans {
		out[i] = span.name
	}
	return out
}

func (sp *recordedSpan) End(err error) {
	sp.ended = true
	sp.err = err
}

func (sp *recordedSpan) SetAttributes(attrs ...tracer.Attribute) {
	sp.attrs = append(sp.attrs, attrs...)
}

func (sp *recordedSpan) AddEvent(string, ...tracer.Attribute) {}

func (sp *recordedSpan) hasAttr(key string) bool {
	for _, a := range sp.attrs {
		if a.Key == key {
			return true
		}
	}
	return false
}

// PipelineSuite tests the evidence pipeline end to end with a deterministic
// extractor. Justification: the risk blend weights and the heuristic caps
// decide whether documents reach a human, and the fingerprint ties evidence
// to the audit log, so all three need numeric coverage.
type PipelineSuite struct {
	suite.Suite

	ctx context.Context
}

func TestPipelineSuite(t *testing.T) {
	suite.Run(t, new(PipelineSuite))
}

func (s *PipelineSuite) SetupTest() {
	s.ctx = context.Background()
}

func (s *PipelineSuite) goodInput() Input {
	return Input{
		Bytes:        bytes.Repeat([]byte("x"), 2048),
		DocumentType: "passport",
		Metadata:     map[string]any{"producer": "scanner-v2"},
	}
}

func (s *PipelineSuite) goodExtraction() Extraction {
	return Extraction{
		Text: "REPUBLIC OF EXAMPLE PASSPORT ALICE",
		Fields: []Field{
			{Name: "name", Value: "Alice", Confidence: 0.95},
			{Name: "number", Value: "P1234567", Confidence: 0.92},
		},
	}
}

func (s *PipelineSuite) TestCleanDocument() {
	p := New(&staticExtractor{extraction: s.goodExtraction()})

	report, err := p.Run(s.ctx, s.goodInput())
	s.Require().NoError(err)

	s.Equal(100.0, report.Quality.Score)
	s.Empty(report.FieldFailures)
	s.Empty(report.TamperSignals)
	s.Equal(0.0, report.RiskScore)
	s.Equal(1.0, report.Confidence)
	s.False(report.ReviewRequired)
	s.NotEmpty(report.Fingerprint)
}

func (s *PipelineSuite) TestQualityCheck() {
	p := New(&staticExtractor{extraction: s.goodExtraction()})

	s.Run("empty document", func() {
		report, err := p.Run(s.ctx, Input{DocumentType: "passport"})
		s.Require().NoError(err)
		s.Equal(0.0, report.Quality.Score)
		s.NotEmpty(report.Quality.Flags)
	})

	s.Run("undersized document", func() {
		input := s.goodInput()
		input.Bytes = input.Bytes[:100]
		report, err := p.Run(s.ctx, input)
		s.Require().NoError(err)
		s.Equal(40.0, report.Quality.Score)
	})

	s.Run("custom minimum size", func() {
		small := New(&staticExtractor{extraction: s.goodExtraction()}, WithMinSize(10))
		input := s.goodInput()
		input.Bytes = input.Bytes[:100]
		report, err := small.Run(s.ctx, input)
		s.Require().NoError(err)
		s.Equal(100.0, report.Quality.Score)
	})
}

func (s *PipelineSuite) TestTamperHeuristics() {
	s.Run("low field confidence", func() {
		extraction := s.goodExtraction()
		extraction.Fields[0].Confidence = 0.3
		p := New(&staticExtractor{extraction: extraction})

		report, err := p.Run(s.ctx, s.goodInput())
		s.Require().NoError(err)

		names := signalNames(report.TamperSignals)
		s.Contains(names, "low_field_confidence")
	})

	s.Run("sparse text", func() {
		p := New(&staticExtractor{extraction: Extraction{Text: "short"}})
		report, err := p.Run(s.ctx, s.goodInput())
		s.Require().NoError(err)
		s.Contains(signalNames(report.TamperSignals), "sparse_text")
	})

	s.Run("editing software marker", func() {
		input := s.goodInput()
		input.Metadata = map[string]any{"software": "Adobe Photoshop 2026"}
		p := New(&staticExtractor{extraction: s.goodExtraction()})

		report, err := p.Run(s.ctx, input)
		s.Require().NoError(err)
		s.Contains(signalNames(report.TamperSignals), "editing_software")
	})

	s.Run("high confidence variance", func() {
		extraction := s.goodExtraction()
		extraction.Fields = []Field{
			{Name: "a", Value: "x", Confidence: 0.99},
			{Name: "b", Value: "y", Confidence: 0.30},
		}
		p := New(&staticExtractor{extraction: extraction})
		report, err := p.Run(s.ctx, s.goodInput())
		s.Require().NoError(err)
		s.Contains(signalNames(report.TamperSignals), "confidence_variance")
	})
}

func (s *PipelineSuite) TestRiskBlend() {
	// Undersized document (quality risk 60), one of two validators failing
	// (validation risk 50), no tamper signals:
	// 0.3*60 + 0.3*50 + 0.4*0 = 33, confidence 0.67.
	p := New(
		&staticExtractor{extraction: s.goodExtraction()},
		WithValidators(
			FieldValidator{Field: "name", Check: func(string) error { return nil }},
			FieldValidator{Field: "number", Check: func(string) error { return errors.New("checksum failed") }},
		),
	)
	input := s.goodInput()
	input.Bytes = input.Bytes[:100]

	report, err := p.Run(s.ctx, input)
	s.Require().NoError(err)

	s.Require().Len(report.FieldFailures, 1)
	s.InDelta(33.0, report.RiskScore, 0.001)
	s.InDelta(0.67, report.Confidence, 0.001)
	s.False(report.ReviewRequired)

	s.Run("stricter threshold flags the same report", func() {
		strict := New(
			&staticExtractor{extraction: s.goodExtraction()},
			WithValidators(FieldValidator{Field: "number", Check: func(string) error { return errors.New("checksum failed") }}),
			WithReviewThreshold(0.9),
		)
		report, err := strict.Run(s.ctx, s.goodInput())
		s.Require().NoError(err)
		s.True(report.ReviewRequired)
	})
}

func (s *PipelineSuite) TestValidators() {
	s.Run("validator for missing field fails", func() {
		p := New(
			&staticExtractor{extraction: s.goodExtraction()},
			WithValidators(FieldValidator{Field: "expiry", Check: func(string) error { return nil }}),
		)
		report, err := p.Run(s.ctx, s.goodInput())
		s.Require().NoError(err)
		s.Require().Len(report.FieldFailures, 1)
		s.Contains(report.FieldFailures[0], "expiry")
	})

	s.Run("failure order follows validator order", func() {
		p := New(
			&staticExtractor{extraction: s.goodExtraction()},
			WithValidators(
				FieldValidator{Field: "name", Check: func(string) error { return errors.New("bad name") }},
				FieldValidator{Field: "number", Check: func(string) error { return errors.New("bad number") }},
			),
		)
		report, err := p.Run(s.ctx, s.goodInput())
		s.Require().NoError(err)
		s.Require().Len(report.FieldFailures, 2)
		s.Contains(report.FieldFailures[0], "name")
		s.Contains(report.FieldFailures[1], "number")
	})
}

func (s *PipelineSuite) TestStageSpans() {
	rt := &recordingTracer{}
	p := New(&staticExtractor{extraction: s.goodExtraction()},
		WithTracer(rt),
		WithValidators(FieldValidator{Field: "name", Check: func(string) error { return nil }}),
	)

	_, err := p.Run(s.ctx, s.goodInput())
	s.Require().NoError(err)

	s.Equal([]string{tracer.SpanPipelineRun, tracer.SpanExtraction, tracer.SpanValidation}, rt.names())
	for _, span := range rt.spans {
		s.True(span.ended, span.name)
		s.NoError(span.err, span.name)
	}
	s.True(rt.spans[1].hasAttr(tracer.AttrStageElapsed))
	s.True(rt.spans[2].hasAttr(tracer.AttrStageElapsed))

	s.Run("extraction failure ends its span with the error", func() {
		rt := &recordingTracer{}
		p := New(&staticExtractor{err: errors.New("ocr offline")}, WithTracer(rt))

		_, err := p.Run(s.ctx, s.goodInput())
		s.Require().Error(err)
		s.Require().Len(rt.spans, 2)
		s.Equal(tracer.SpanExtraction, rt.spans[1].name)
		s.True(rt.spans[1].ended)
		s.Error(rt.spans[1].err)
	})
}

func (s *PipelineSuite) TestExtractionFailure() {
	p := New(&staticExtractor{err: errors.New("ocr backend down")})
	_, err := p.Run(s.ctx, s.goodInput())
	s.Require().Error(err)
}

func (s *PipelineSuite) TestMissingExtractor() {
	p := New(nil)
	_, err := p.Run(s.ctx, s.goodInput())
	s.Require().Error(err)
}

func (s *PipelineSuite) TestFingerprint() {
	p := New(&staticExtractor{extraction: s.goodExtraction()})

	first, err := p.Run(s.ctx, s.goodInput())
	s.Require().NoError(err)
	second, err := p.Run(s.ctx, s.goodInput())
	s.Require().NoError(err)

	s.Run("deterministic for identical input", func() {
		s.Equal(first.Fingerprint, second.Fingerprint)
	})

	s.Run("sensitive to document bytes", func() {
		input := s.goodInput()
		input.Bytes = append(input.Bytes, 'y')
		changed, err := p.Run(s.ctx, input)
		s.Require().NoError(err)
		s.NotEqual(first.Fingerprint, changed.Fingerprint)
	})

	s.Run("insensitive to field extraction order", func() {
		reversed := s.goodExtraction()
		reversed.Fields = []Field{reversed.Fields[1], reversed.Fields[0]}
		q := New(&staticExtractor{extraction: reversed})
		report, err := q.Run(s.ctx, s.goodInput())
		s.Require().NoError(err)
		s.Equal(first.Fingerprint, report.Fingerprint)
	})
}

func signalNames(signals []Signal) []string {
	names := make([]string, 0, len(signals))
	for _, s := range signals {
		names = append(names, s.Name)
	}
	return names
}
