/*
Package generic provides the domain-agnostic primitives of the liability engine.

PURPOSE:
  This package contains the types and leaf calculations every liability
  formula builds on. Whether a country pays a 13th month salary or an
  FGTS penalty, the same primitives handle money, dates, tenure and
  currency normalization.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: An amount with a currency (e.g., 18500 BRL, 3162.39 USD)
  - Dec / Percent: Shorthands for building decimal constants
  - ClampZero: Floors an amount at zero (no formula may pay negative)

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal to avoid floating-point drift in sums
  2. Immutability: Money values are never modified in place
  3. Purity: Nothing in this package performs I/O or reads global state

USAGE:
  salary := generic.NewMoney(18500, "BRL")
  daily := salary.Div(generic.Dec(22))

SEE ALSO:
  - time.go: TimePoint and calendar helpers
  - tenure.go: Tenure calculation from a hire date
  - fx.go: Conversion to the reporting currency
  - errors.go: Sentinel and structured errors
*/
package generic

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Amount with currency
// =============================================================================

type Money struct {
	Value    decimal.Decimal
	Currency string
}

func NewMoney(value float64, currency string) Money {
	return Money{Value: decimal.NewFromFloat(value), Currency: currency}
}

func NewMoneyFromDecimal(value decimal.Decimal, currency string) Money {
	return Money{Value: value, Currency: currency}
}

func (m Money) Add(v decimal.Decimal) Money { return Money{Value: m.Value.Add(v), Currency: m.Currency} }
func (m Money) Mul(s decimal.Decimal) Money { return Money{Value: m.Value.Mul(s), Currency: m.Currency} }
func (m Money) Div(s decimal.Decimal) Money { return Money{Value: m.Value.Div(s), Currency: m.Currency} }
func (m Money) IsNegative() bool            { return m.Value.IsNegative() }
func (m Money) IsZero() bool                { return m.Value.IsZero() }
func (m Money) Float64() float64            { return m.Value.InexactFloat64() }

func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Value.StringFixed(2), m.Currency)
}

// =============================================================================
// DECIMAL HELPERS
// =============================================================================

// Dec builds a decimal from a float literal.
func Dec(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

// Percent converts a whole percentage (40 for 40%) to its fraction.
func Percent(p decimal.Decimal) decimal.Decimal { return p.Div(hundred) }

// ClampZero returns d, or zero when d is negative.
func ClampZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)
