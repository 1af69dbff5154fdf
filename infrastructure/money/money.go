// Package money does the POS arithmetic in decimal and renders the single
// display currency.
package money

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// CurrencyPrefix is shown before every formatted amount.
const CurrencyPrefix = "Rs. "

var printer = message.NewPrinter(language.English)

// D converts a stored amount to decimal.
func D(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

// Float converts back to the stored representation.
func Float(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

// Round2 rounds half away from zero to 2 places.
func Round2(v float64) float64 {
	return Float(D(v).Round(2))
}

// Mul returns a*b.
func Mul(a float64, qty int64) decimal.Decimal {
	return D(a).Mul(decimal.NewFromInt(qty))
}

// Format renders an amount as "Rs. 1,234.50".
func Format(v float64) string {
	return CurrencyPrefix + printer.Sprint(number.Decimal(Round2(v), number.MinFractionDigits(2), number.MaxFractionDigits(2)))
}
