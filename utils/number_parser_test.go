package utils

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aviadkim/statement-reconciler/dto"
)

var testBounds = dto.ValueBounds{Min: 1_000, Max: 100_000_000}

func TestParseAmountFormats(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want float64
	}{
		{"grouped apostrophe", "199'080", 199080},
		{"grouped apostrophe with decimals", "1'234'567.89", 1234567.89},
		{"grouped comma", "24,319", 24319},
		{"grouped comma with decimals", "19,464,431.00", 19464431},
		{"plain", "482000", 482000},
		{"plain with decimals", "3950.50", 3950.50},
		{"comma as decimal marker", "12345,67", 12345.67},
		{"whitespace padded", "  482000  ", 482000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.raw, testBounds)
			assert.NoError(t, err)
			assert.InDelta(t, tt.want, got, 0.001)
		})
	}
}

func TestParseAmountRejectsInvalid(t *testing.T) {
	for _, raw := range []string{"", "abc", "12a34", "12.34.56.78x", "'"} {
		_, err := ParseAmount(raw, testBounds)
		assert.ErrorIs(t, err, ErrNotANumber, "raw=%q", raw)
	}
}

func TestParseAmountRejectsOutOfRange(t *testing.T) {
	// Below the lower bound and above the cap both fail, regardless of
	// how well-formed the numeral is.
	_, err := ParseAmount("999", testBounds)
	assert.ErrorIs(t, err, ErrOutOfRange)

	_, err = ParseAmount("250'000'000", testBounds)
	assert.ErrorIs(t, err, ErrOutOfRange)

	_, err = ParseAmount("250,000,000.00", testBounds)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestParseAmountBoundsAreConfigurable(t *testing.T) {
	// Portfolio totals run past the per-instrument cap; a wider bound at
	// that call site accepts them.
	totalBounds := dto.ValueBounds{Min: 100_000, Max: 10_000_000_000}

	got, err := ParseAmount("250'000'000", totalBounds)
	assert.NoError(t, err)
	assert.Equal(t, 250_000_000.0, got)

	_, err = ParseAmount("250'000'000", testBounds)
	assert.True(t, errors.Is(err, ErrOutOfRange))
}

func TestParseAmountGroupingBeforeDecimal(t *testing.T) {
	// All separators before the final two-digit component are grouping.
	got, err := ParseAmount("1,234,567", testBounds)
	assert.NoError(t, err)
	assert.Equal(t, 1234567.0, got)

	// A final separator with other than two trailing digits is grouping too.
	got, err = ParseAmount("199.080", dto.ValueBounds{Min: 1_000, Max: 100_000_000})
	assert.NoError(t, err)
	assert.Equal(t, 199080.0, got)
}
