package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/text/language"
)

func TestCentsDollarsRoundTrip(t *testing.T) {
	// Conversion must be the identity for any integer cent amount,
	// including amounts like 1999 that have no exact float representation
	// in dollars.
	for _, cents := range []int64{0, 1, 99, 100, 1999, 2999, 123456789, -1999} {
		assert.Equal(t, cents, DollarsToCents(CentsToDollars(cents)), "cents %d", cents)
	}
}

func TestDollarsToCents(t *testing.T) {
	assert.Equal(t, int64(1999), DollarsToCents(19.99))
	assert.Equal(t, int64(30), DollarsToCents(0.30))
	assert.Equal(t, int64(0), DollarsToCents(0))
	assert.Equal(t, int64(-550), DollarsToCents(-5.50))
}

func TestPercentConversions(t *testing.T) {
	assert.InDelta(t, 0.029, PercentToDecimal(2.9), 1e-12)
	assert.InDelta(t, 2.9, DecimalToPercent(0.029), 1e-12)
}

func TestFormatCurrency(t *testing.T) {
	assert.Equal(t, "$1,234.50", FormatCurrencyUSD(1234.5))
	assert.Equal(t, "$0.30", FormatCurrencyUSD(0.3))
	assert.Equal(t, "$1.234,50", FormatCurrency(1234.5, language.German))
}

func TestRoundCurrency(t *testing.T) {
	assert.InDelta(t, 3.36, RoundCurrency(3.356), 1e-9)
	assert.InDelta(t, 19.99, RoundCurrency(19.99), 1e-9)
}
