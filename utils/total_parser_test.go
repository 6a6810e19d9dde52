package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aviadkim/statement-reconciler/dto"
)

var totalBounds = dto.ValueBounds{Min: 100_000, Max: 10_000_000_000}

func TestDetectStatedTotal(t *testing.T) {
	text := "Bonds subtotal 12'000'000\nPortfolio Total 19'464'431\nfooter page 12"
	total, ok := DetectStatedTotal(text, totalBounds)
	require.True(t, ok)
	assert.Equal(t, 19_464_431.0, total)
}

func TestDetectStatedTotalPrefersGrandTotal(t *testing.T) {
	// Sub-totals share the label shape; the grand total is the largest.
	text := "Total assets 5'000'000\nGrand Total 19'464'431"
	total, ok := DetectStatedTotal(text, totalBounds)
	require.True(t, ok)
	assert.Equal(t, 19_464_431.0, total)
}

func TestDetectStatedTotalAbsent(t *testing.T) {
	_, ok := DetectStatedTotal("XS2530201644 valuation 199'080", totalBounds)
	assert.False(t, ok)

	// Label without an in-bounds figure on the line detects nothing.
	_, ok = DetectStatedTotal("Portfolio Total see next page", totalBounds)
	assert.False(t, ok)
}

func TestDetectCurrency(t *testing.T) {
	text := "Valuation in USD\nXS2530201644 199'080 USD\nCH0024899483 24'319 CHF"
	assert.Equal(t, "USD", DetectCurrency(text))

	assert.Equal(t, "", DetectCurrency("no currency codes here"))
}

func TestCurrencyOnLine(t *testing.T) {
	assert.Equal(t, "CHF", CurrencyOnLine("CH0024899483 24'319 CHF"))
	assert.Equal(t, "", CurrencyOnLine("CH0024899483 24'319"))
}
