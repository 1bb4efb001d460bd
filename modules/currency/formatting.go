package currency

import (
	"math"
	"strconv"

	"github.com/leekchan/accounting"
	"github.com/shopspring/decimal"
)

const displayPrecision = 2

var amountAccounting = accounting.Accounting{
	Symbol:    "",
	Precision: displayPrecision,
	Thousand:  " ",
	Decimal:   ".",
}

// FormatCurrency renders value with two decimals, space thousand groups and the code,
// e.g. "-12 345 678.88 EUR".
func FormatCurrency(value float64, currencyCode string) string {
	return formatAmount(value) + " " + currencyCode
}

// formatAmount rounds half away from zero on the shortest decimal form of value.
// The sign is written in front of the grouped digits.
func formatAmount(value float64) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return strconv.FormatFloat(value, 'f', displayPrecision, 64)
	}
	ac := amountAccounting
	formatted := ac.FormatMoneyDecimal(decimal.NewFromFloat(math.Abs(value)))
	if value < 0 {
		return "-" + formatted
	}
	return formatted
}

// formatAmountForClipboard drops grouping and trailing zeros, e.g. "1234.5".
func formatAmountForClipboard(amount float64) string {
	formatted := strconv.FormatFloat(amount, 'f', displayPrecision, 64)
	if !math.IsNaN(amount) && !math.IsInf(amount, 0) {
		formatted = decimal.NewFromFloat(amount).Round(displayPrecision).String()
	}
	return formatted
}

// formatRate renders an exchange rate with precision suited to its magnitude.
func formatRate(rate float64) string {
	if !isValidFloat(rate) {
		return "N/A"
	}
	d := decimal.NewFromFloat(rate)
	switch {
	case rate < 0.0001:
		return d.Round(8).String()
	case rate < 0.01:
		return d.Round(6).String()
	case rate < 1000:
		return d.Round(4).String()
	default:
		return d.Round(2).String()
	}
}
