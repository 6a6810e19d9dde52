package utils

import (
	"regexp"
	"strings"

	"github.com/aviadkim/statement-reconciler/dto"
)

var totalLabelPattern = regexp.MustCompile(`(?i)\b(?:portfolio|grand|net)\s+total\b|\btotal\s+(?:assets|value|portfolio)\b|^\s*total\b`)

// DetectStatedTotal scans for the document's own grand-total line,
// independently of anchor/value correlation. Used only for accuracy
// scoring, never to correct individual records. Returns the largest
// in-bounds value on a total-labelled line: sub-totals precede the grand
// total and run smaller.
func DetectStatedTotal(text string, bounds dto.ValueBounds) (float64, bool) {
	best := 0.0
	found := false
	for _, line := range strings.Split(text, "\n") {
		if !totalLabelPattern.MatchString(line) {
			continue
		}
		for _, raw := range valuePattern.FindAllString(line, -1) {
			magnitude, err := ParseAmount(raw, bounds)
			if err != nil {
				continue
			}
			if magnitude > best {
				best = magnitude
				found = true
			}
		}
	}
	return best, found
}
