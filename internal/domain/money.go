package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// AmountScale is the fixed number of fractional digits for every monetary value
const AmountScale = 2

// MaxAmount is the largest value a NUMERIC(15,2) column holds
var MaxAmount = decimal.RequireFromString("9999999999999.99")

// ParseAmount parses a monetary string. Negative values and values with more than
// two fractional digits are rejected rather than rounded.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if err := ValidateAmount(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// ValidateAmount checks an already-parsed amount
func ValidateAmount(d decimal.Decimal) error {
	if d.IsNegative() {
		return ErrInvalidAmount
	}
	if !d.Equal(d.Truncate(AmountScale)) {
		return ErrInvalidAmount
	}
	if d.GreaterThan(MaxAmount) {
		return ErrInvalidAmount
	}
	return nil
}

// FormatAmount renders an amount with exactly two decimals
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(AmountScale)
}
