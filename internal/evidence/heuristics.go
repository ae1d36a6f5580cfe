package evidence

import (
	"fmt"
	"math"
	"strings"
)

// Heuristic caps. Each signal contributes at most its cap so a single noisy
// heuristic cannot dominate the tamper risk.
const (
	capLowConfidence      = 30.0
	capConfidenceVariance = 25.0
	capSparseText         = 20.0
	capEditingSoftware    = 25.0
)

const (
	lowConfidenceThreshold = 0.5
	varianceThreshold      = 0.08
	sparseTextThreshold    = 20
)

// editingSoftwareMarkers are metadata substrings indicating the document
// passed through image-editing software.
var editingSoftwareMarkers = []string{"photoshop", "gimp", "affinity", "pixelmator", "lightroom"}

// tamperSignals runs every heuristic over the extraction and metadata and
// returns the triggered signals. The summed contribution never exceeds 100.
func tamperSignals(extraction Extraction, metadata map[string]any) []Signal {
	var signals []Signal

	if s, ok := lowConfidenceSignal(extraction.Fields); ok {
		signals = append(signals, s)
	}
	if s, ok := varianceSignal(extraction.Fields); ok {
		signals = append(signals, s)
	}
	if len(strings.TrimSpace(extraction.Text)) < sparseTextThreshold {
		signals = append(signals, Signal{
			Name:         "sparse_text",
			Contribution: capSparseText,
			Detail:       "unusually little text extracted",
		})
	}
	if marker, found := findEditingMarker(metadata); found {
		signals = append(signals, Signal{
			Name:         "editing_software",
			Contribution: capEditingSoftware,
			Detail:       "metadata mentions " + marker,
		})
	}

	return signals
}

func lowConfidenceSignal(fields []Field) (Signal, bool) {
	if len(fields) == 0 {
		return Signal{}, false
	}
	var low int
	for _, f := range fields {
		if f.Confidence < lowConfidenceThreshold {
			low++
		}
	}
	if low == 0 {
		return Signal{}, false
	}
	ratio := float64(low) / float64(len(fields))
	return Signal{
		Name:         "low_field_confidence",
		Contribution: math.Min(capLowConfidence, capLowConfidence*ratio),
		Detail:       fmt.Sprintf("%d of %d fields below confidence %.2f", low, len(fields), lowConfidenceThreshold),
	}, true
}

func varianceSignal(fields []Field) (Signal, bool) {
	if len(fields) < 2 {
		return Signal{}, false
	}
	var sum float64
	for _, f := range fields {
		sum += f.Confidence
	}
	mean := sum / float64(len(fields))
	var variance float64
	for _, f := range fields {
		variance += (f.Confidence - mean) * (f.Confidence - mean)
	}
	variance /= float64(len(fields))
	if variance <= varianceThreshold {
		return Signal{}, false
	}
	return Signal{
		Name:         "confidence_variance",
		Contribution: capConfidenceVariance,
		Detail:       fmt.Sprintf("cross-field confidence variance %.3f", variance),
	}, true
}

// findEditingMarker scans string values at the top level of the metadata for
// known editing-software names.
func findEditingMarker(metadata map[string]any) (string, bool) {
	for _, v := range metadata {
		s, ok := v.(string)
		if !ok {
			continue
		}
		lowered := strings.ToLower(s)
		for _, marker := range editingSoftwareMarkers {
			if strings.Contains(lowered, marker) {
				return marker, true
			}
		}
	}
	return "", false
}
