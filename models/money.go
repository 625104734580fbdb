package models

import (
	"github.com/shopspring/decimal"
)

// MoneyScale is the number of decimal places every stored amount carries
const MoneyScale int32 = 2

// RoundMoney rounds an amount to MoneyScale using half-to-even rounding
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(MoneyScale)
}

// MustMoney parses a decimal literal and rounds it, panicking on malformed input.
// Intended for constants and test fixtures.
func MustMoney(s string) decimal.Decimal {
	return RoundMoney(decimal.RequireFromString(s))
}
