/*
fx.go - Conversion of local-currency liabilities to the reporting currency

PURPOSE:
  Normalizes every employee's liability into one reporting currency (USD
  by default) so totals are comparable across jurisdictions, and classifies
  each currency's volatility for risk scoring.

RATES:
  Rates are quoted as local units per reporting unit (5.85 BRL per USD).
  Converting divides; the inverse multiplies.

UNKNOWN CURRENCIES:
  Two explicit policies, chosen when the converter is built:

  UnknownCurrencyDefault (engine default):
    The amount is treated as already being in the reporting currency
    (rate 1.0). Conversion.Defaulted is set so the engine can flag the
    result and the portfolio can raise an fx_default alert.

  UnknownCurrencyStrict:
    Conversion fails with *UnknownCurrencyError.

VOLATILITY:
  Missing volatility defaults to 0.10. Ratings use fixed thresholds:
    >= 0.12  High
    >= 0.06  Medium
    else     Low

SEE ALSO:
  - liability/risk.go: Consumes volatility in the risk score
  - factory/catalog.go: Builds quotes from YAML/JSON configuration
*/
package generic

import (
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// FX CONFIGURATION
// =============================================================================

// FXQuote is the static rate and volatility for one currency.
type FXQuote struct {
	Rate       decimal.Decimal // local units per reporting unit
	Volatility decimal.Decimal // 30-day volatility as a fraction (0.18 = 18%)
}

type UnknownCurrencyPolicy string

const (
	UnknownCurrencyDefault UnknownCurrencyPolicy = "default"
	UnknownCurrencyStrict  UnknownCurrencyPolicy = "strict"
)

type VolatilityRating string

const (
	VolatilityLow    VolatilityRating = "Low"
	VolatilityMedium VolatilityRating = "Medium"
	VolatilityHigh   VolatilityRating = "High"
)

const DefaultReportingCurrency = "USD"

var (
	DefaultVolatility     = decimal.NewFromFloat(0.10)
	highVolatilityFloor   = decimal.NewFromFloat(0.12)
	mediumVolatilityFloor = decimal.NewFromFloat(0.06)
)

// =============================================================================
// CONVERTER
// =============================================================================

// Converter is immutable after construction and safe for concurrent use.
type Converter struct {
	reporting string
	quotes    map[string]FXQuote
	policy    UnknownCurrencyPolicy
}

// Conversion is the outcome of converting one amount.
type Conversion struct {
	Local     Money
	Reporting Money
	Rate      decimal.Decimal
	Defaulted bool // no quote existed; identity rate applied
}

// NewConverter copies quotes so later changes to the caller's map are not observed.
func NewConverter(reporting string, quotes map[string]FXQuote, policy UnknownCurrencyPolicy) *Converter {
	if reporting == "" {
		reporting = DefaultReportingCurrency
	}
	if policy == "" {
		policy = UnknownCurrencyDefault
	}
	reporting = strings.ToUpper(reporting)

	copied := make(map[string]FXQuote, len(quotes)+1)
	for code, q := range quotes {
		copied[strings.ToUpper(code)] = q
	}
	return &Converter{reporting: reporting, quotes: copied, policy: policy}
}

func (c *Converter) ReportingCurrency() string     { return c.reporting }
func (c *Converter) Policy() UnknownCurrencyPolicy { return c.policy }

// Quotes returns a copy of the configured quotes.
func (c *Converter) Quotes() map[string]FXQuote {
	out := make(map[string]FXQuote, len(c.quotes))
	for k, v := range c.quotes {
		out[k] = v
	}
	return out
}

// Quote returns the configured quote for currency.
func (c *Converter) Quote(currency string) (FXQuote, bool) {
	q, ok := c.quotes[strings.ToUpper(currency)]
	return q, ok
}

// ToReporting converts amount (in currency) to the reporting currency.
func (c *Converter) ToReporting(amount decimal.Decimal, currency string) (Conversion, error) {
	rate, defaulted, err := c.rate(currency)
	if err != nil {
		return Conversion{}, err
	}
	reporting := amount
	if !rate.Equal(one) {
		reporting = amount.Div(rate)
	}
	return Conversion{
		Local:     NewMoneyFromDecimal(amount, currency),
		Reporting: NewMoneyFromDecimal(reporting, c.reporting),
		Rate:      rate,
		Defaulted: defaulted,
	}, nil
}

// FromReporting converts a reporting-currency amount back into currency.
func (c *Converter) FromReporting(amount decimal.Decimal, currency string) (Money, error) {
	rate, _, err := c.rate(currency)
	if err != nil {
		return Money{}, err
	}
	return NewMoneyFromDecimal(amount.Mul(rate), currency), nil
}

func (c *Converter) rate(currency string) (decimal.Decimal, bool, error) {
	code := strings.ToUpper(currency)
	if q, ok := c.quotes[code]; ok && q.Rate.IsPositive() {
		return q.Rate, false, nil
	}
	if code == c.reporting {
		return one, false, nil
	}
	if c.policy == UnknownCurrencyStrict {
		return decimal.Zero, false, &UnknownCurrencyError{Currency: currency}
	}
	return one, true, nil
}

// Volatility returns the configured volatility, or DefaultVolatility.
func (c *Converter) Volatility(currency string) decimal.Decimal {
	if q, ok := c.quotes[strings.ToUpper(currency)]; ok {
		return q.Volatility
	}
	return DefaultVolatility
}

func (c *Converter) VolatilityRating(currency string) VolatilityRating {
	return RateVolatility(c.Volatility(currency))
}

// RateVolatility classifies a volatility value.
func RateVolatility(v decimal.Decimal) VolatilityRating {
	switch {
	case v.GreaterThanOrEqual(highVolatilityFloor):
		return VolatilityHigh
	case v.GreaterThanOrEqual(mediumVolatilityFloor):
		return VolatilityMedium
	default:
		return VolatilityLow
	}
}
