package evidence

import (
	"context"
	"strings"
	"unicode/utf8"
)

// TextExtractor is the built-in extractor for plain-text documents. It treats
// the document bytes as UTF-8 text and lifts "name: value" lines into typed
// fields. Binary formats need a real extraction backend behind the Extractor
// interface; this one exists so the pipeline is usable without one.
type TextExtractor struct{}

// NewTextExtractor creates the plain-text extractor.
func NewTextExtractor() *TextExtractor {
	return &TextExtractor{}
}

// Extract parses the document as text. Lines of the form "name: value"
// become fields with full confidence; lines that are valid UTF-8 but carry
// no separator only contribute to the extracted text. Invalid UTF-8 yields
// an empty extraction rather than an error, leaving the tamper heuristics to
// flag the document.
func (e *TextExtractor) Extract(_ context.Context, input Input) (Extraction, error) {
	if !utf8.Valid(input.Bytes) {
		return Extraction{}, nil
	}

	text := string(input.Bytes)
	extraction := Extraction{Text: text}
	for _, line := range strings.Split(text, "\n") {
		name, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)
		if name == "" || value == "" || strings.ContainsRune(name, ' ') {
			continue
		}
		extraction.Fields = append(extraction.Fields, Field{
			Name:       strings.ToLower(name),
			Value:      value,
			Confidence: 1.0,
		})
	}
	return extraction, nil
}

var _ Extractor = (*TextExtractor)(nil)
