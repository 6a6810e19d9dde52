package service

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/aviadkim/statement-reconciler/dto"
)

// Validate applies sanity bounds and operator corrections to the fused
// records, reconciles the extracted sum against the stated total when one
// is known, and assembles the final report. Never fails: low accuracy is a
// data-level signal, not a control-flow error.
func Validate(records []dto.SecurityRecord, issues []dto.Issue, opts dto.ExtractionOptions) *dto.ReconciliationReport {
	report := &dto.ReconciliationReport{
		Records:      records,
		Issues:       issues,
		QualityGrade: dto.GradeUnknown,
		ProcessedAt:  time.Now().UTC().Format(time.RFC3339),
	}
	if report.Issues == nil {
		report.Issues = []dto.Issue{}
	}

	if len(records) == 0 {
		report.Issues = append(report.Issues, dto.Issue{
			Severity: dto.SeverityLow,
			Kind:     "no_records",
			Message:  "no instrument identifiers were detected in the document",
		})
	}

	total := decimal.Zero
	for i := range report.Records {
		rec := &report.Records[i]

		// Hard sanity bound: clip rather than drop, so the identifier
		// still reaches human review.
		if rec.Value > opts.InstrumentCap {
			report.Issues = append(report.Issues, dto.Issue{
				Identifier: rec.Identifier,
				Severity:   dto.SeverityHigh,
				Kind:       "implausible_value",
				Message:    fmt.Sprintf("value %.2f exceeds per-instrument cap %.0f, clipped", rec.Value, opts.InstrumentCap),
			})
			rec.Value = opts.FallbackCap
		}

		if corr, ok := opts.KnownCorrections[rec.Identifier]; ok {
			rec.Value = corr.Value
			rec.CorrectionApplied = true
			rec.CorrectionReason = corr.Reason
		}

		total = total.Add(decimal.NewFromFloat(rec.Value))
	}
	report.ExtractedTotal, _ = total.Float64()

	if opts.ReferenceTotal == nil {
		// No stated total: the ratio stays undefined and review need is
		// driven by the per-record issues alone.
		report.RequiresReview = hasSevereIssue(report.Issues)
		return report
	}

	ref := *opts.ReferenceTotal
	report.ReferenceTotal = &ref
	ratio := accuracyRatio(total, decimal.NewFromFloat(ref))
	report.AccuracyRatio = &ratio
	report.QualityGrade = gradeFor(ratio)

	if ratio < opts.AcceptanceThreshold {
		report.RequiresReview = true
		report.Issues = append(report.Issues, dto.Issue{
			Severity: dto.SeverityCritical,
			Kind:     "reconciliation_failure",
			Message: fmt.Sprintf("extracted total %.2f vs stated total %.2f (accuracy %.4f, acceptance %.2f)",
				report.ExtractedTotal, ref, ratio, opts.AcceptanceThreshold),
		})
	}
	return report
}

// accuracyRatio is min/max of the two totals, in [0,1].
func accuracyRatio(extracted, reference decimal.Decimal) float64 {
	if extracted.IsZero() && reference.IsZero() {
		return 1
	}
	if extracted.IsZero() || reference.IsZero() || extracted.Sign() != reference.Sign() {
		return 0
	}
	lo, hi := extracted, reference
	if lo.GreaterThan(hi) {
		lo, hi = hi, lo
	}
	ratio, _ := lo.Div(hi).Float64()
	return ratio
}

func gradeFor(ratio float64) dto.QualityGrade {
	switch {
	case ratio >= 0.999:
		return dto.GradeExcellent
	case ratio >= 0.99:
		return dto.GradeGood
	case ratio >= 0.95:
		return dto.GradeAcceptable
	case ratio >= 0.90:
		return dto.GradePoor
	default:
		return dto.GradeFailing
	}
}

func hasSevereIssue(issues []dto.Issue) bool {
	for _, issue := range issues {
		if issue.Severity == dto.SeverityHigh || issue.Severity == dto.SeverityCritical {
			return true
		}
	}
	return false
}
