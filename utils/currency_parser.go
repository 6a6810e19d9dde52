package utils

import (
	"regexp"

	"github.com/Rhymond/go-money"
)

var currencyCandidatePattern = regexp.MustCompile(`\b[A-Z]{3}\b`)

// DetectCurrency returns the document's dominant currency code, or "" when
// no known code appears. Three-letter candidates are checked against the
// ISO table so identifier fragments and random uppercase words don't vote.
func DetectCurrency(text string) string {
	counts := make(map[string]int)
	for _, code := range currencyCandidatePattern.FindAllString(text, -1) {
		if money.GetCurrency(code) == nil {
			continue
		}
		counts[code]++
	}

	best := ""
	for code, n := range counts {
		if n > counts[best] || (n == counts[best] && (best == "" || code < best)) {
			best = code
		}
	}
	return best
}

// CurrencyOnLine picks a known currency code from a single line, for
// per-record overrides when a statement mixes currencies.
func CurrencyOnLine(line string) string {
	for _, code := range currencyCandidatePattern.FindAllString(line, -1) {
		if money.GetCurrency(code) != nil {
			return code
		}
	}
	return ""
}
