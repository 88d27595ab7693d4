// Package core defines the ledger domain model: currencies and
// conversion, accounts, transactions, recurring templates, budgets and
// financial goals, together with their validation rules.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a user-supplied decimal string into a positive
// amount. It accepts both dot (12.34) and comma (12,34) separators.
// Returns ErrInvalidAmount for empty, signed, unparsable or non-positive
// input.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		// Only positive magnitudes; direction comes from the kind
		return decimal.Decimal{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	if d.Sign() <= 0 {
		return decimal.Decimal{}, ErrInvalidAmount
	}
	return d, nil
}
