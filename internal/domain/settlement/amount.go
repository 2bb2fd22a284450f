package settlement

import (
	"math"
	"strings"

	"github.com/posterdash/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// tiyinPerTenge is the POS minor-unit factor. Amounts reported by the POS are
// in tiyin and must be divided by it before entering any calculation.
var tiyinPerTenge = decimal.NewFromInt(100)

var hundred = decimal.NewFromInt(100)

// AmountFromFloat converts a float to a decimal amount, rejecting NaN and ±Inf.
func AmountFromFloat(field string, f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, shared.NewValidationError("%s must be a finite number", field)
	}
	return decimal.NewFromFloat(f), nil
}

// ParseAmount parses a user-entered amount. An empty string is zero; anything
// else that is not a number is rejected.
func ParseAmount(field, s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
	if err != nil {
		return decimal.Zero, shared.NewValidationError("%s must be numeric, got %q", field, s)
	}
	return d, nil
}

// FromTiyin converts a POS minor-unit amount to tenge
func FromTiyin(tiyin int64) decimal.Decimal {
	return decimal.NewFromInt(tiyin).Div(tiyinPerTenge)
}

// ToTiyin converts tenge to the POS minor unit, rounding half away from zero
func ToTiyin(amount decimal.Decimal) int64 {
	return amount.Mul(tiyinPerTenge).Round(0).IntPart()
}

// RoundToHundred rounds to the nearest 100, half-up
func RoundToHundred(amount decimal.Decimal) decimal.Decimal {
	return amount.Div(hundred).Round(0).Mul(hundred)
}
