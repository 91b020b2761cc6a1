package types

import "github.com/shopspring/decimal"

// CentsToDollars converts a stored integer cent amount to exact dollars.
func CentsToDollars(cents int64) decimal.Decimal {
	return decimal.NewFromInt(cents).Shift(-2)
}

// DollarsToCents rounds a dollar amount to whole cents.
func DollarsToCents(d decimal.Decimal) int64 {
	return d.Round(2).Shift(2).IntPart()
}
