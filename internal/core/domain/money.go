package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is an integer amount of currency in cents. All arithmetic in the
// engine happens on this type; decimal strings appear only at the HTTP and
// seed boundaries.
type Money int64

// DefaultCostPerClick is charged for each billable click on a sponsored ad.
const DefaultCostPerClick Money = 10 // $0.10

// ParseMoney converts a decimal string such as "10.00" into cents. Values
// with more than two fractional digits or outside the int64 range are
// rejected.
func ParseMoney(raw string) (Money, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", raw, err)
	}
	cents := d.Mul(decimal.NewFromInt(100))
	if !cents.IsInteger() {
		return 0, fmt.Errorf("invalid amount %q: more than two fractional digits", raw)
	}
	if !cents.BigInt().IsInt64() {
		return 0, fmt.Errorf("invalid amount %q: out of range", raw)
	}
	return Money(cents.IntPart()), nil
}

// Decimal returns the amount as a decimal number of currency units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.NewFromInt(int64(m)).Div(decimal.NewFromInt(100))
}

// String formats the amount with two fractional digits, e.g. "10.00".
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// MulDays multiplies a per-day amount by a day count.
func (m Money) MulDays(days int) Money {
	return m * Money(days)
}
