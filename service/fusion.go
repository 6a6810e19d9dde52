package service

import (
	"fmt"
	"math"
	"sort"

	"github.com/aviadkim/statement-reconciler/dto"
)

// Corroboration boost: each independent method agreeing on a value closes
// part of the remaining confidence gap, so agreement always yields strictly
// higher confidence than the winner alone.
const corroborationFactor = 0.3

type weightedRecord struct {
	record   dto.MethodRecord
	method   string
	combined float64
}

// Fuse merges per-method results into one record set with exactly one
// record per identifier. Combined confidence is priority x confidence; the
// best combined value is kept, agreement within tolerance boosts it, and
// disagreement beyond tolerance is surfaced as a medium issue while the
// higher-confidence value still wins.
func Fuse(results []dto.MethodResult, opts dto.ExtractionOptions) ([]dto.SecurityRecord, []dto.Issue) {
	grouped := make(map[string][]weightedRecord)
	matched := make(map[string]bool)
	for _, res := range results {
		for _, rec := range res.Records {
			id := rec.Anchor.Code
			grouped[id] = append(grouped[id], weightedRecord{
				record:   rec,
				method:   res.MethodName,
				combined: res.Priority * rec.Confidence,
			})
			matched[id] = true
		}
	}

	var issues []dto.Issue

	// Anchors no method could pair with a value: low severity, the
	// pipeline continues.
	seenUnmatched := make(map[string]bool)
	for _, res := range results {
		for _, a := range res.Unmatched {
			if matched[a.Code] || seenUnmatched[a.Code] {
				continue
			}
			seenUnmatched[a.Code] = true
			issues = append(issues, dto.Issue{
				Identifier: a.Code,
				Severity:   dto.SeverityLow,
				Kind:       "no_value_found",
				Message:    fmt.Sprintf("no plausible value found near identifier %s (page %d, line %d)", a.Code, a.Page, a.Line),
			})
		}
	}

	records := make([]dto.SecurityRecord, 0, len(grouped))
	for id, candidates := range grouped {
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].combined > candidates[j].combined
		})
		winner := candidates[0]

		confidence := winner.combined
		conflicting := false
		for _, other := range candidates[1:] {
			if other.method == winner.method {
				// Duplicate detections inside one method corroborate nothing.
				continue
			}
			if withinTolerance(winner.record.Value.Magnitude, other.record.Value.Magnitude, opts.AgreementTolerance) {
				confidence += (1 - confidence) * corroborationFactor
			} else {
				conflicting = true
			}
		}
		if conflicting {
			issues = append(issues, dto.Issue{
				Identifier: id,
				Severity:   dto.SeverityMedium,
				Kind:       "method_conflict",
				Message:    fmt.Sprintf("conflicting extraction across methods for %s; kept %.2f from %s", id, winner.record.Value.Magnitude, winner.method),
			})
		}

		records = append(records, dto.SecurityRecord{
			Identifier:   id,
			Name:         winner.record.Name,
			Value:        winner.record.Value.Magnitude,
			Currency:     winner.record.Currency,
			Confidence:   clamp01(confidence),
			SourceMethod: winner.method,
		})
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Identifier < records[j].Identifier
	})
	return records, issues
}

func withinTolerance(a, b, tolerance float64) bool {
	larger := math.Max(math.Abs(a), math.Abs(b))
	if larger == 0 {
		return true
	}
	return math.Abs(a-b)/larger <= tolerance
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
