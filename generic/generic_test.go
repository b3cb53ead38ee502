/*
generic_test.go - Behavior tests for the engine primitives

ORGANIZATION:
  1. Tenure - day/month/year derivation and date validation
  2. FX - conversion, round trips, unknown-currency policies, volatility
  3. Errors - classification helpers used by the HTTP layer

Each test uses fixed dates; nothing here depends on the wall clock except
the explicit "zero means today" check.
*/
package generic_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/liability-engine/generic"
)

func date(year int, month time.Month, day int) generic.TimePoint {
	return generic.NewTimePoint(year, month, day)
}

// =============================================================================
// 1. TENURE
// =============================================================================

func TestTenure_DaysMonthsYears(t *testing.T) {
	// GIVEN: hired 2021-03-15, evaluated 2025-03-15 (1461 days, one leap day)
	tenure, err := generic.CalculateTenure(date(2021, time.March, 15), date(2025, time.March, 15))
	require.NoError(t, err)

	// THEN: months truncate days/30, years are days/365.25
	assert.Equal(t, 1461, tenure.Days)
	assert.Equal(t, 48, tenure.Months)
	assert.InDelta(t, 4.0, tenure.Years.InexactFloat64(), 1e-9)
	assert.Equal(t, int64(4), tenure.CompletedYears())
}

func TestTenure_SameDayIsZero(t *testing.T) {
	tenure, err := generic.CalculateTenure(date(2025, time.May, 1), date(2025, time.May, 1))
	require.NoError(t, err)
	assert.Equal(t, 0, tenure.Days)
	assert.Equal(t, 0, tenure.Months)
	assert.True(t, tenure.Years.IsZero())
}

func TestTenure_MonthsTruncate(t *testing.T) {
	tenure, err := generic.CalculateTenure(date(2025, time.January, 1), date(2025, time.March, 1))
	require.NoError(t, err)
	assert.Equal(t, 59, tenure.Days)
	assert.Equal(t, 1, tenure.Months)
}

func TestTenure_HireAfterReference_Fails(t *testing.T) {
	_, err := generic.CalculateTenure(date(2025, time.June, 2), date(2025, time.June, 1))

	var invalid *generic.InvalidDateError
	require.True(t, errors.As(err, &invalid))
	assert.ErrorIs(t, err, generic.ErrInvalidDate)
	assert.Equal(t, "2025-06-02", invalid.HireDate.String())
}

func TestTenure_ZeroReferenceMeansToday(t *testing.T) {
	hire := generic.Today().AddDays(-10)
	tenure, err := generic.CalculateTenure(hire, generic.TimePoint{})
	require.NoError(t, err)
	assert.Equal(t, 10, tenure.Days)
}

func TestDaysIntoYear(t *testing.T) {
	assert.Equal(t, 0, generic.DaysIntoYear(date(2025, time.January, 1)))
	assert.Equal(t, 73, generic.DaysIntoYear(date(2025, time.March, 15)))
	assert.Equal(t, 365, generic.DaysIntoYear(date(2024, time.December, 31)))
}

func TestParseDate(t *testing.T) {
	tp, err := generic.ParseDate("2021-03-15")
	require.NoError(t, err)
	assert.True(t, tp.Equal(date(2021, time.March, 15)))

	_, err = generic.ParseDate("15/03/2021")
	assert.Error(t, err)
}

// =============================================================================
// 2. FX
// =============================================================================

func testQuotes() map[string]generic.FXQuote {
	return map[string]generic.FXQuote{
		"BRL": {Rate: decimal.NewFromFloat(5.85), Volatility: decimal.NewFromFloat(0.18)},
		"EUR": {Rate: decimal.NewFromFloat(0.92), Volatility: decimal.NewFromFloat(0.04)},
		"inr": {Rate: decimal.NewFromFloat(83.50), Volatility: decimal.NewFromFloat(0.08)},
	}
}

func TestConverter_ToReporting(t *testing.T) {
	c := generic.NewConverter("USD", testQuotes(), generic.UnknownCurrencyDefault)

	conv, err := c.ToReporting(decimal.NewFromInt(5850), "BRL")
	require.NoError(t, err)
	assert.InDelta(t, 1000, conv.Reporting.Float64(), 1e-9)
	assert.Equal(t, "USD", conv.Reporting.Currency)
	assert.Equal(t, "BRL", conv.Local.Currency)
	assert.False(t, conv.Defaulted)

	// Codes are case-insensitive.
	conv, err = c.ToReporting(decimal.NewFromInt(835), "INR")
	require.NoError(t, err)
	assert.InDelta(t, 10, conv.Reporting.Float64(), 1e-9)
}

func TestConverter_IdentityRateKeepsAmountExact(t *testing.T) {
	c := generic.NewConverter("USD", testQuotes(), generic.UnknownCurrencyDefault)

	// GIVEN: an amount with more digits than decimal division keeps
	amount := decimal.RequireFromString("204330.22213925704759203636363636363636")

	// WHEN/THEN: unknown and reporting currencies both convert unchanged
	for _, cur := range []string{"XYZ", "USD"} {
		conv, err := c.ToReporting(amount, cur)
		require.NoError(t, err)
		assert.True(t, conv.Reporting.Value.Equal(amount), "%s: %s", cur, conv.Reporting.Value)
	}
}

func TestConverter_RoundTrip(t *testing.T) {
	c := generic.NewConverter("USD", testQuotes(), generic.UnknownCurrencyDefault)

	for _, cur := range []string{"BRL", "EUR", "INR", "USD", "XYZ"} {
		for _, amount := range []float64{0, 1, 1234.56, 987654.321} {
			t.Run(fmt.Sprintf("%s/%v", cur, amount), func(t *testing.T) {
				conv, err := c.ToReporting(decimal.NewFromFloat(amount), cur)
				require.NoError(t, err)
				back, err := c.FromReporting(conv.Reporting.Value, cur)
				require.NoError(t, err)
				assert.InDelta(t, amount, back.Float64(), 1e-6)
			})
		}
	}
}

func TestConverter_ReportingCurrencyWithoutQuote(t *testing.T) {
	c := generic.NewConverter("usd", testQuotes(), generic.UnknownCurrencyStrict)

	conv, err := c.ToReporting(decimal.NewFromInt(42), "USD")
	require.NoError(t, err)
	assert.False(t, conv.Defaulted)
	assert.True(t, conv.Rate.Equal(decimal.NewFromInt(1)))
	assert.Equal(t, "USD", c.ReportingCurrency())
}

func TestConverter_UnknownCurrency_Default(t *testing.T) {
	// GIVEN: the default policy
	c := generic.NewConverter("", testQuotes(), "")

	// WHEN: converting a currency without a quote
	conv, err := c.ToReporting(decimal.NewFromInt(100), "XYZ")

	// THEN: identity rate, flagged as defaulted
	require.NoError(t, err)
	assert.True(t, conv.Defaulted)
	assert.True(t, conv.Reporting.Value.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, generic.UnknownCurrencyDefault, c.Policy())
	assert.Equal(t, generic.DefaultReportingCurrency, c.ReportingCurrency())
}

func TestConverter_UnknownCurrency_Strict(t *testing.T) {
	c := generic.NewConverter("USD", testQuotes(), generic.UnknownCurrencyStrict)

	_, err := c.ToReporting(decimal.NewFromInt(100), "XYZ")
	var unknown *generic.UnknownCurrencyError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "XYZ", unknown.Currency)
	assert.ErrorIs(t, err, generic.ErrUnknownCurrency)

	_, err = c.FromReporting(decimal.NewFromInt(100), "XYZ")
	assert.ErrorIs(t, err, generic.ErrUnknownCurrency)
}

func TestConverter_QuotesAreCopied(t *testing.T) {
	quotes := testQuotes()
	c := generic.NewConverter("USD", quotes, generic.UnknownCurrencyDefault)
	delete(quotes, "BRL")

	_, ok := c.Quote("brl")
	assert.True(t, ok)

	out := c.Quotes()
	delete(out, "EUR")
	_, ok = c.Quote("EUR")
	assert.True(t, ok)
}

func TestVolatilityRating(t *testing.T) {
	c := generic.NewConverter("USD", testQuotes(), generic.UnknownCurrencyDefault)

	assert.Equal(t, generic.VolatilityHigh, c.VolatilityRating("BRL"))
	assert.Equal(t, generic.VolatilityMedium, c.VolatilityRating("INR"))
	assert.Equal(t, generic.VolatilityLow, c.VolatilityRating("EUR"))

	// Missing volatility defaults to 0.10 -> Medium
	assert.True(t, c.Volatility("XYZ").Equal(generic.DefaultVolatility))
	assert.Equal(t, generic.VolatilityMedium, c.VolatilityRating("XYZ"))

	// Thresholds are inclusive
	assert.Equal(t, generic.VolatilityHigh, generic.RateVolatility(decimal.NewFromFloat(0.12)))
	assert.Equal(t, generic.VolatilityMedium, generic.RateVolatility(decimal.NewFromFloat(0.06)))
	assert.Equal(t, generic.VolatilityLow, generic.RateVolatility(decimal.NewFromFloat(0.0599)))
}

// =============================================================================
// 3. ERRORS AND MONEY
// =============================================================================

func TestErrorClassification(t *testing.T) {
	assert.True(t, generic.IsClientError(&generic.UnknownCountryError{Code: "ZZ"}))
	assert.True(t, generic.IsClientError(fmt.Errorf("wrap: %w", generic.ErrInvalidEmployee)))
	assert.True(t, generic.IsClientError(&generic.InvalidDateError{}))
	assert.False(t, generic.IsClientError(errors.New("disk full")))

	assert.True(t, generic.IsNotFound(fmt.Errorf("get: %w", generic.ErrEmployeeNotFound)))
	assert.True(t, generic.IsNotFound(generic.ErrCountryNotFound))
	assert.False(t, generic.IsNotFound(generic.ErrInvalidRule))
}

func TestMoney(t *testing.T) {
	m := generic.NewMoney(18500, "BRL")
	assert.Equal(t, "18500.00 BRL", m.String())
	assert.Equal(t, "841", m.Div(decimal.NewFromInt(22)).Value.StringFixed(0))
	assert.True(t, m.Add(decimal.NewFromInt(-18500)).IsZero())
	assert.True(t, generic.ClampZero(decimal.NewFromInt(-5)).IsZero())
	assert.True(t, generic.Percent(decimal.NewFromInt(40)).Equal(decimal.NewFromFloat(0.4)))
}
