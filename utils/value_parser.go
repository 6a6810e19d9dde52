package utils

import (
	"regexp"
	"strings"

	"github.com/aviadkim/statement-reconciler/dto"
)

// One pass over the text matches all three supported numeral shapes.
// Grouped alternatives come first: Go's regexp prefers earlier alternatives,
// and the plain shape would otherwise swallow the leading group.
var valuePattern = regexp.MustCompile(
	`\d{1,3}(?:'\d{3})+(?:\.\d{2})?` +
		`|\d{1,3}(?:,\d{3})+(?:\.\d{2})?` +
		`|\d+(?:\.\d{2})?`)

// ScanValues finds numeral-shaped substrings, normalizes them through
// ParseAmount and drops non-parseable or out-of-bound matches silently.
// Dropped tokens are simply not candidates, not errors.
func ScanValues(text string, page int, bounds dto.ValueBounds) []dto.ValueToken {
	var tokens []dto.ValueToken
	offset := 0
	for lineNo, line := range strings.Split(text, "\n") {
		for _, loc := range valuePattern.FindAllStringIndex(line, -1) {
			raw := line[loc[0]:loc[1]]
			// Digit runs glued to letters or digits are fragments of
			// identifiers or longer numerals, not standalone values.
			if !cleanBoundaries(line, loc[0], loc[1]) {
				continue
			}
			magnitude, err := ParseAmount(raw, bounds)
			if err != nil {
				continue
			}
			tokens = append(tokens, dto.ValueToken{
				Raw:        raw,
				Magnitude:  magnitude,
				Page:       page,
				Line:       lineNo + 1,
				CharOffset: offset + loc[0],
				Format:     classifyFormat(raw),
			})
		}
		offset += len(line) + 1
	}
	return tokens
}

func cleanBoundaries(line string, start, end int) bool {
	if start > 0 && isAlnum(line[start-1]) {
		return false
	}
	if end < len(line) && isAlnum(line[end]) {
		return false
	}
	return true
}

func isAlnum(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func classifyFormat(raw string) dto.NumberFormat {
	if strings.Contains(raw, "'") {
		return dto.FormatGroupedApostrophe
	}
	if strings.Contains(raw, ",") {
		return dto.FormatGroupedComma
	}
	return dto.FormatPlain
}

// DominantFormat returns the numeric convention the document leans on.
// Only grouped tokens vote: plain numerals appear in every locale and say
// nothing about the separator convention. No grouped tokens means plain.
func DominantFormat(tokens []dto.ValueToken) dto.NumberFormat {
	apostrophe, comma := 0, 0
	for _, t := range tokens {
		switch t.Format {
		case dto.FormatGroupedApostrophe:
			apostrophe++
		case dto.FormatGroupedComma:
			comma++
		}
	}
	switch {
	case apostrophe == 0 && comma == 0:
		return dto.FormatPlain
	case comma > apostrophe:
		return dto.FormatGroupedComma
	default:
		return dto.FormatGroupedApostrophe
	}
}
