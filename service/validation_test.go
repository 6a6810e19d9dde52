package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aviadkim/statement-reconciler/dto"
)

func TestValidateClipsImplausibleValues(t *testing.T) {
	opts := dto.DefaultExtractionOptions()
	records := []dto.SecurityRecord{
		{Identifier: "XS2530201644", Value: 250_000_000, Confidence: 0.8},
		{Identifier: "CH0024899483", Value: 24_319, Confidence: 0.9},
	}

	report := Validate(records, nil, opts)

	// Clipped, not dropped: the identifier still reaches human review.
	assert.Equal(t, opts.FallbackCap, report.Records[0].Value)
	assert.Equal(t, 24_319.0, report.Records[1].Value)

	clips := issuesOfKind(report.Issues, "implausible_value")
	require.Len(t, clips, 1)
	assert.Equal(t, dto.SeverityHigh, clips[0].Severity)
	assert.Equal(t, "XS2530201644", clips[0].Identifier)
}

func TestValidateAppliesKnownCorrections(t *testing.T) {
	opts := dto.DefaultExtractionOptions()
	opts.KnownCorrections = map[string]dto.Correction{
		"CH0024899483": {Value: 24_500, Reason: "operator override for recurring custodian statement"},
	}
	records := []dto.SecurityRecord{{Identifier: "CH0024899483", Value: 24_319}}

	report := Validate(records, nil, opts)
	require.Len(t, report.Records, 1)
	assert.Equal(t, 24_500.0, report.Records[0].Value)
	assert.True(t, report.Records[0].CorrectionApplied)
	assert.Equal(t, "operator override for recurring custodian statement", report.Records[0].CorrectionReason)
}

func TestValidateAccuracyRatioAndGrade(t *testing.T) {
	opts := dto.DefaultExtractionOptions()
	ref := 19_464_431.0
	opts.ReferenceTotal = &ref
	records := []dto.SecurityRecord{
		{Identifier: "XS2530201644", Value: 9_290_000},
		{Identifier: "CH0024899483", Value: 10_000_000},
	}

	report := Validate(records, nil, opts)
	assert.Equal(t, 19_290_000.0, report.ExtractedTotal)
	require.NotNil(t, report.AccuracyRatio)
	assert.InDelta(t, 0.991, *report.AccuracyRatio, 0.001)
	assert.Equal(t, dto.GradeGood, report.QualityGrade)
	assert.False(t, report.RequiresReview)
	assert.Empty(t, issuesOfKind(report.Issues, "reconciliation_failure"))
}

func TestValidateLowAccuracyFlagsCritical(t *testing.T) {
	opts := dto.DefaultExtractionOptions()
	ref := 19_464_431.0
	opts.ReferenceTotal = &ref
	records := []dto.SecurityRecord{{Identifier: "XS2530201644", Value: 199_080}}

	report := Validate(records, nil, opts)
	require.NotNil(t, report.AccuracyRatio)
	assert.Less(t, *report.AccuracyRatio, 0.90)
	assert.Equal(t, dto.GradeFailing, report.QualityGrade)
	assert.True(t, report.RequiresReview)

	failures := issuesOfKind(report.Issues, "reconciliation_failure")
	require.Len(t, failures, 1)
	assert.Equal(t, dto.SeverityCritical, failures[0].Severity)
}

func TestValidateNoReferenceTotal(t *testing.T) {
	opts := dto.DefaultExtractionOptions()
	records := []dto.SecurityRecord{{Identifier: "XS2530201644", Value: 199_080}}

	report := Validate(records, nil, opts)
	assert.Nil(t, report.ReferenceTotal)
	assert.Nil(t, report.AccuracyRatio)
	assert.Equal(t, dto.GradeUnknown, report.QualityGrade)
	// Review need is driven solely by per-record issues.
	assert.False(t, report.RequiresReview)

	report = Validate([]dto.SecurityRecord{{Identifier: "XS2530201644", Value: 250_000_000}}, nil, opts)
	assert.True(t, report.RequiresReview)
}

func TestValidateIdempotent(t *testing.T) {
	opts := dto.DefaultExtractionOptions()
	ref := 19_464_431.0
	opts.ReferenceTotal = &ref
	opts.KnownCorrections = map[string]dto.Correction{
		"CH0024899483": {Value: 24_500, Reason: "override"},
	}
	records := []dto.SecurityRecord{
		{Identifier: "XS2530201644", Value: 250_000_000},
		{Identifier: "CH0024899483", Value: 24_319},
	}

	first := Validate(records, nil, opts)

	again := make([]dto.SecurityRecord, len(first.Records))
	copy(again, first.Records)
	second := Validate(again, nil, opts)

	assert.Equal(t, first.Records, second.Records)
	assert.Equal(t, first.ExtractedTotal, second.ExtractedTotal)
	assert.Equal(t, *first.AccuracyRatio, *second.AccuracyRatio)
	assert.Equal(t, first.QualityGrade, second.QualityGrade)
}

func TestValidateEmptyRecords(t *testing.T) {
	opts := dto.DefaultExtractionOptions()
	report := Validate(nil, nil, opts)
	assert.Equal(t, 0.0, report.ExtractedTotal)
	require.Len(t, issuesOfKind(report.Issues, "no_records"), 1)
}
