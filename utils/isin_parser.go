package utils

import (
	"regexp"
	"strings"

	"github.com/aviadkim/statement-reconciler/dto"
)

// Identifier shape: exactly 12 characters, two uppercase letters, nine
// alphanumerics, one trailing digit. \b keeps partial matches inside longer
// alphanumeric runs from qualifying.
var isinPattern = regexp.MustCompile(`\b[A-Z]{2}[A-Z0-9]{9}[0-9]\b`)

// ScanISINs finds identifier occurrences in text, left to right and
// non-overlapping, recording line and character position. The caller
// supplies the page since concatenated text loses page boundaries; callers
// without page information pass 1. No deduplication: repeated codes are a
// fusion/validation concern, not a detection one.
func ScanISINs(text string, page int) []dto.Anchor {
	var anchors []dto.Anchor
	offset := 0
	for lineNo, line := range strings.Split(text, "\n") {
		for _, loc := range isinPattern.FindAllStringIndex(line, -1) {
			anchors = append(anchors, dto.Anchor{
				Code:       line[loc[0]:loc[1]],
				Page:       page,
				Line:       lineNo + 1,
				CharOffset: offset + loc[0],
			})
		}
		offset += len(line) + 1
	}
	return anchors
}

// ValidateCheckDigit verifies the trailing Luhn check digit of a 12-char
// identifier. Optional hardening only: detection accepts shape-valid codes
// regardless, matching how statements are scanned in practice.
func ValidateCheckDigit(code string) bool {
	if !isinPattern.MatchString(code) || len(code) != 12 {
		return false
	}

	// Expand letters to two-digit values (A=10 .. Z=35), then Luhn over
	// the resulting digit string including the check digit.
	var digits []int
	for i := 0; i < 11; i++ {
		c := code[i]
		if c >= '0' && c <= '9' {
			digits = append(digits, int(c-'0'))
		} else {
			v := int(c-'A') + 10
			digits = append(digits, v/10, v%10)
		}
	}

	sum := 0
	double := true // rightmost payload digit is doubled
	for i := len(digits) - 1; i >= 0; i-- {
		d := digits[i]
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}

	check := (10 - sum%10) % 10
	return check == int(code[11]-'0')
}
