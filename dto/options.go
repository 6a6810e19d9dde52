package dto

import "time"

// ValueBounds is an inclusive plausibility band for monetary magnitudes.
type ValueBounds struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether v falls inside the band.
func (b ValueBounds) Contains(v float64) bool {
	return v >= b.Min && v <= b.Max
}

// Correction is one operator-supplied override for a recurring document
// source. Never inferred by the engine itself.
type Correction struct {
	Value  float64 `json:"value"`
	Reason string  `json:"reason"`
}

// ExtractionOptions carries every tunable of one pipeline run. Options are
// plain values, copied per invocation, so concurrent runs share nothing.
type ExtractionOptions struct {
	// Outer plausibility band for any candidate value token.
	PlausibleBounds ValueBounds
	// Narrower band of typical per-instrument market values; magnitudes
	// inside it earn a correlation bonus.
	TypicalBounds ValueBounds
	// Band used by the independent stated-total scan. Wider than the
	// per-instrument bands since portfolio totals run larger.
	TotalBounds ValueBounds

	// Correlation neighborhood: lines first, character offsets as the
	// fallback when line numbers are unreliable.
	LineWindow int
	CharWindow int
	// Minimum correlation score below which an anchor is reported as
	// "no value found" rather than matched to a weak candidate.
	MinScore float64

	// Relative tolerance under which two methods are considered to agree
	// on the same identifier.
	AgreementTolerance float64
	// Accuracy ratio below which the report is flagged for review.
	AcceptanceThreshold float64
	// Hard per-instrument cap; values above it are clipped to FallbackCap
	// and flagged, never dropped.
	InstrumentCap float64
	FallbackCap   float64

	RunnerTimeout time.Duration
	RetryCount    int

	// Dominant numeric convention of the document. Left empty, the
	// tokenizer's own detection is used.
	DominantFormat NumberFormat

	// Caller-supplied stated total. When nil the pipeline falls back to
	// scanning the document for a total line.
	ReferenceTotal *float64

	KnownCorrections map[string]Correction
}

// DefaultExtractionOptions returns the stated defaults. Callers override
// fields per invocation; different document types carry different scales.
func DefaultExtractionOptions() ExtractionOptions {
	return ExtractionOptions{
		PlausibleBounds:     ValueBounds{Min: 1_000, Max: 100_000_000},
		TypicalBounds:       ValueBounds{Min: 10_000, Max: 50_000_000},
		TotalBounds:         ValueBounds{Min: 100_000, Max: 10_000_000_000},
		LineWindow:          10,
		CharWindow:          1000,
		MinScore:            1.0,
		AgreementTolerance:  0.01,
		AcceptanceThreshold: 0.90,
		InstrumentCap:       100_000_000,
		FallbackCap:         100_000_000,
		RunnerTimeout:       30 * time.Second,
		RetryCount:          3,
	}
}
