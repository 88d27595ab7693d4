package core

import "github.com/shopspring/decimal"

// Convert translates amount from one currency into another by routing
// through the common base unit: amount * from.Rate / to.Rate. No display
// rounding is applied here; callers decide precision. Fails when either
// currency has a missing or non-positive rate.
func Convert(amount decimal.Decimal, from, to Currency) (decimal.Decimal, error) {
	if from.Rate.Sign() <= 0 || to.Rate.Sign() <= 0 {
		return decimal.Decimal{}, ErrInvalidCurrency
	}
	return amount.Mul(from.Rate).Div(to.Rate), nil
}
