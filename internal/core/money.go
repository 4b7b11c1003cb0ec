// Package core holds the domain entities, money handling and failure kinds
// shared by the storage, repository and service layers.
package core

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxAmountCents bounds the magnitude of any stored amount. Sums of many
// such amounts still fit in an int64 column.
const MaxAmountCents = 100_000_000_000_000

var (
	hundred  = decimal.NewFromInt(100)
	maxCents = decimal.NewFromInt(MaxAmountCents)
)

// CheckCents rejects amounts whose cent value exceeds MaxAmountCents.
func CheckCents(field string, d decimal.Decimal) error {
	if d.Mul(hundred).Round(0).Abs().GreaterThan(maxCents) {
		return NewValidationError(field, fmt.Sprintf("%s out of range (max %s)", field, FormatAmount(FromCents(MaxAmountCents))))
	}
	return nil
}

// ParseAmount parses a signed decimal amount.
//
// Both dot (12.34) and comma (12,34) separators are accepted and the value is
// rounded half away from zero to cents. Negative values are allowed so refunds
// can be recorded; zero is rejected.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34
//	ParseAmount("-7,5")   -> -7.50
//	ParseAmount("12.345") -> 12.35
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, NewValidationError("amount", "amount cannot be empty")
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, NewValidationError("amount", "invalid amount "+s)
	}
	d = d.Round(2)
	if d.IsZero() {
		return decimal.Zero, NewValidationError("amount", "amount cannot be zero")
	}
	if err := CheckCents("amount", d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// ParseGoalBound parses a budget goal bound; zero is allowed, negatives are not.
func ParseGoalBound(field, s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return decimal.Zero, NewValidationError(field, field+" cannot be empty")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, NewValidationError(field, "invalid "+field+" "+s)
	}
	if d.IsNegative() {
		return decimal.Zero, NewValidationError(field, field+" cannot be negative")
	}
	if err := CheckCents(field, d); err != nil {
		return decimal.Zero, err
	}
	return d.Round(2), nil
}

// ToCents converts an amount to integer cents for storage. Callers validate
// the range with CheckCents first.
func ToCents(d decimal.Decimal) int64 {
	return d.Mul(hundred).Round(0).IntPart()
}

// FromCents is the inverse of ToCents.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// FormatAmount renders an amount with exactly two decimals.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
