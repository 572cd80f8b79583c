// Package types provides money and quantity helpers shared by all domain packages.
package types

import (
	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
type Money = decimal.Decimal

// Quantity is a decimal quantity (stock units may be fractional, e.g. kg).
type Quantity = decimal.Decimal

// AmountPlaces is the number of fractional digits amounts are emitted with.
const AmountPlaces = 2

var hundred = decimal.NewFromInt(100)

// NewMoneyFromString creates a Money value from a string.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	return decimal.RequireFromString(s)
}

// RoundAmount rounds half-even ("banker's") to two fractional digits.
// All amounts are rounded with it on emission; intermediate values keep full precision.
func RoundAmount(m Money) Money {
	return m.RoundBank(AmountPlaces)
}

// PercentOf returns base × pct / 100 in full precision.
func PercentOf(base Money, pct decimal.Decimal) Money {
	return base.Mul(pct).Div(hundred)
}

// Sum adds values.
func Sum(values ...Money) Money {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

// IsValidPercent reports whether 0 <= p <= 100.
func IsValidPercent(p decimal.Decimal) bool {
	return !p.IsNegative() && p.LessThanOrEqual(hundred)
}
