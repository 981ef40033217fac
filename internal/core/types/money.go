// Package types provides money conversions and formatting.
// All persisted fees and costs in this module are int64 cent amounts;
// calculations that need fractional dollars convert at the edges.
package types

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// CentsToDollars converts an integer cent amount to dollars.
func CentsToDollars(c int64) float64 {
	return float64(c) / 100
}

// DollarsToCents converts a dollar amount to integer cents.
// Uses decimal arithmetic so that values like 19.99 round exactly;
// CentsToDollars followed by DollarsToCents is the identity for any
// integer cent amount.
func DollarsToCents(d float64) int64 {
	return decimal.NewFromFloat(d).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// PercentToDecimal converts a percentage (e.g. 2.9) to its decimal rate (0.029).
func PercentToDecimal(p float64) float64 {
	return p / 100
}

// DecimalToPercent converts a decimal rate (0.029) to a percentage (2.9).
func DecimalToPercent(d float64) float64 {
	return d * 100
}

// FormatCurrency renders a dollar amount with two decimal places using the
// locale's digit grouping and decimal separator, prefixed by the currency symbol.
func FormatCurrency(dollars float64, tag language.Tag) string {
	p := message.NewPrinter(tag)
	return p.Sprintf("$%v", number.Decimal(dollars,
		number.MinFractionDigits(2),
		number.MaxFractionDigits(2),
	))
}

// FormatCurrencyUSD renders a dollar amount for the default en-US locale.
func FormatCurrencyUSD(dollars float64) string {
	return FormatCurrency(dollars, language.AmericanEnglish)
}

// RoundCurrency rounds a dollar amount to whole cents.
func RoundCurrency(dollars float64) float64 {
	f, _ := decimal.NewFromFloat(dollars).Round(2).Float64()
	return f
}
