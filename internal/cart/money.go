package cart

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatMoney renders minor units as euros with a decimal comma: 1400 -> "14,00€".
func FormatMoney(cents int64) string {
	return strings.Replace(decimal.New(cents, -2).StringFixed(2), ".", ",", 1) + "€"
}

// minorUnits converts a major-unit threshold to minor units, rounded to the cent.
func minorUnits(major decimal.Decimal) decimal.Decimal {
	return major.Shift(2).Round(0)
}
