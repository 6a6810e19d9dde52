package utils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/aviadkim/statement-reconciler/dto"
)

// Custom errors
var (
	ErrNotANumber = errors.New("token is not a valid numeral")
	ErrOutOfRange = errors.New("magnitude outside plausible bounds")
)

// ParseAmount normalizes a locale-formatted numeric token into a canonical
// magnitude. Apostrophes are always grouping separators. A final '.' or ','
// followed by exactly two digits is the decimal marker; every other '.' or
// ',' is grouping. The result must fall inside bounds or ErrOutOfRange is
// returned, since different call sites carry different scales (a single
// security cap vs. a portfolio-total cap).
func ParseAmount(raw string, bounds dto.ValueBounds) (float64, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, ErrNotANumber
	}
	s = strings.ReplaceAll(s, "'", "")

	// Locate the decimal marker: last '.' or ',' with exactly 2 trailing digits.
	cut := -1
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '.' || s[i] == ',' {
			cut = i
			break
		}
	}

	intPart := s
	fracPart := ""
	if cut >= 0 && len(s)-cut-1 == 2 {
		intPart = s[:cut]
		fracPart = s[cut+1:]
	}

	// Remaining separators are grouping; everything else must be a digit.
	var cleaned strings.Builder
	for i := 0; i < len(intPart); i++ {
		c := intPart[i]
		switch {
		case c >= '0' && c <= '9':
			cleaned.WriteByte(c)
		case c == '.' || c == ',':
			// grouping separator, dropped
		default:
			return 0, fmt.Errorf("%w: %q", ErrNotANumber, raw)
		}
	}
	for i := 0; i < len(fracPart); i++ {
		if fracPart[i] < '0' || fracPart[i] > '9' {
			return 0, fmt.Errorf("%w: %q", ErrNotANumber, raw)
		}
	}
	if cleaned.Len() == 0 {
		return 0, fmt.Errorf("%w: %q", ErrNotANumber, raw)
	}

	numeral := cleaned.String()
	if fracPart != "" {
		numeral += "." + fracPart
	}

	d, err := decimal.NewFromString(numeral)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrNotANumber, raw)
	}

	magnitude, _ := d.Float64()
	if !bounds.Contains(magnitude) {
		return 0, fmt.Errorf("%w: %s not in [%.0f, %.0f]", ErrOutOfRange, d.String(), bounds.Min, bounds.Max)
	}
	return magnitude, nil
}
