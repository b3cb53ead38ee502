package liability_test

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/liability-engine/generic"
	"github.com/warp/liability-engine/liability"
	"github.com/warp/liability-engine/rules"
)

func newTestEngine(opts ...liability.Option) *liability.Engine {
	converter := generic.NewConverter("USD", rules.DefaultFXQuotes(), generic.UnknownCurrencyDefault)
	return liability.NewEngine(rules.DefaultCatalog(), converter, opts...)
}

// =============================================================================
// CONCRETE SCENARIOS
// =============================================================================

func TestEngine_FGTSScenario(t *testing.T) {
	// GIVEN: Maria Santos in Brazil, 18500 BRL, hired 2021-03-15
	engine := newTestEngine()
	emp := liability.Employee{
		ID: "EMP001", Name: "Maria Santos", CountryCode: "BR",
		HireDate:      date(2021, time.March, 15),
		MonthlySalary: decimal.NewFromInt(18500),
		Currency:      "BRL", JobLevel: "senior", Age: 34,
	}
	asOf := date(2025, time.March, 15)

	// WHEN: Evaluated at a fixed reference date
	res, err := engine.Evaluate(emp, asOf)
	require.NoError(t, err)

	// THEN: severance = 18500 * 0.08 * 12 * tenure_years * 0.40
	tenure, err := generic.CalculateTenure(emp.HireDate, asOf)
	require.NoError(t, err)
	years := tenure.Years.InexactFloat64()
	assertAmount(t, 18500*0.08*12*years*0.40, res.Severance)
	assertAmount(t, years, res.TenureYears)

	// AND: the breakdown adds up and converts at 5.85
	sum := res.NoticeCost.Add(res.Severance).Add(res.Bonuses).Add(res.Vacation)
	assertAmount(t, sum.InexactFloat64(), res.TotalLocal)
	assertAmount(t, res.TotalLocal.InexactFloat64()/5.85, res.TotalReporting)
	assert.Equal(t, "USD", res.ReportingCurrency)
	assert.Equal(t, generic.VolatilityHigh, res.VolatilityRating)
	assert.Equal(t, rules.LegalRiskHigh, res.LegalRisk)
	assert.Equal(t, 42, res.NoticeDays)
}

func TestEngine_NoBonusCountry_ContributesZero(t *testing.T) {
	engine := newTestEngine()
	for _, salary := range []int64{0, 5000, 1000000} {
		emp := employee("DE", 0)
		emp.MonthlySalary = decimal.NewFromInt(salary)
		emp.HireDate = date(2001, time.June, 1)

		res, err := engine.Evaluate(emp, date(2025, time.November, 30))
		require.NoError(t, err)
		assert.True(t, res.Bonuses.IsZero(), "salary %d", salary)
	}
}

func TestEngine_ComponentsNonNegativeAndScoreBounded(t *testing.T) {
	engine := newTestEngine()
	asOf := date(2025, time.October, 1)

	for _, code := range rules.DefaultCatalog().Codes() {
		for _, hire := range []generic.TimePoint{
			asOf, asOf.AddDays(-100), asOf.AddYears(-3), asOf.AddYears(-12), asOf.AddYears(-40),
		} {
			for _, salary := range []int64{0, 1500, 250000} {
				emp := employee(code, 0)
				emp.HireDate = hire
				emp.MonthlySalary = decimal.NewFromInt(salary)
				emp.Age = 60

				res, err := engine.Evaluate(emp, asOf)
				require.NoError(t, err)
				assert.GreaterOrEqual(t, res.NoticeDays, 0)
				assert.False(t, res.NoticeCost.IsNegative(), code)
				assert.False(t, res.Severance.IsNegative(), code)
				assert.False(t, res.Bonuses.IsNegative(), code)
				assert.False(t, res.Vacation.IsNegative(), code)
				assert.True(t, res.RiskScore.GreaterThanOrEqual(decimal.Zero), code)
				assert.True(t, res.RiskScore.LessThanOrEqual(decimal.NewFromInt(100)), code)
			}
		}
	}
}

// =============================================================================
// ERRORS
// =============================================================================

func TestEngine_UnknownCountry(t *testing.T) {
	_, err := newTestEngine().Evaluate(employee("ZZ", 1000), date(2025, time.March, 15))

	var unknown *generic.UnknownCountryError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "ZZ", unknown.Code)
	assert.ErrorIs(t, err, generic.ErrUnknownCountry)
}

func TestEngine_HireAfterReferenceDate(t *testing.T) {
	emp := employee("FR", 5000)
	emp.HireDate = date(2026, time.January, 1)

	_, err := newTestEngine().Evaluate(emp, date(2025, time.March, 15))
	assert.ErrorIs(t, err, generic.ErrInvalidDate)
}

func TestEngine_InvalidEmployee(t *testing.T) {
	engine := newTestEngine()

	negative := employee("FR", -1)
	_, err := engine.Evaluate(negative, date(2025, time.March, 15))
	assert.ErrorIs(t, err, generic.ErrInvalidEmployee)

	noID := employee("FR", 1000)
	noID.ID = ""
	_, err = engine.Evaluate(noID, date(2025, time.March, 15))
	assert.ErrorIs(t, err, generic.ErrInvalidEmployee)
}

// =============================================================================
// FX POLICY
// =============================================================================

func TestEngine_UnknownCurrency_DefaultsToIdentity(t *testing.T) {
	// GIVEN: a currency without a configured rate under the default policy
	emp := employee("PH", 30000)
	emp.Currency = "XYZ"

	// WHEN: evaluated
	res, err := newTestEngine().Evaluate(emp, date(2025, time.March, 15))
	require.NoError(t, err)

	// THEN: converted at 1.0 and flagged; volatility falls back to 0.10
	assert.True(t, res.FXDefaulted)
	assert.True(t, res.TotalReporting.Equal(res.TotalLocal))
	assertAmount(t, 0.10, res.Volatility)
	assert.Equal(t, generic.VolatilityMedium, res.VolatilityRating)
}

func TestEngine_UnknownCurrency_StrictPolicyFails(t *testing.T) {
	converter := generic.NewConverter("USD", rules.DefaultFXQuotes(), generic.UnknownCurrencyStrict)
	engine := liability.NewEngine(rules.DefaultCatalog(), converter)

	emp := employee("PH", 30000)
	emp.Currency = "XYZ"
	_, err := engine.Evaluate(emp, date(2025, time.March, 15))

	var unknown *generic.UnknownCurrencyError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "XYZ", unknown.Currency)
}

func TestEngine_EmptyCurrency_UsesCountryCurrency(t *testing.T) {
	emp := employee("MX", 20000)
	emp.Currency = ""

	res, err := newTestEngine().Evaluate(emp, date(2025, time.March, 15))
	require.NoError(t, err)
	assert.Equal(t, "MXN", res.Currency)
	assert.False(t, res.FXDefaulted)
	assertAmount(t, res.TotalLocal.InexactFloat64()/17.25, res.TotalReporting)
}

// =============================================================================
// REFERENCE DATE
// =============================================================================

func TestEngine_ZeroReferenceDate_UsesClock(t *testing.T) {
	fixed := date(2025, time.March, 15)
	engine := newTestEngine(liability.WithClock(func() generic.TimePoint { return fixed }))

	implicit, err := engine.Evaluate(employee("NL", 5000), generic.TimePoint{})
	require.NoError(t, err)
	explicit, err := engine.Evaluate(employee("NL", 5000), fixed)
	require.NoError(t, err)

	assert.True(t, implicit.AsOf.Equal(fixed))
	assert.True(t, implicit.TotalLocal.Equal(explicit.TotalLocal))
}

func TestEngine_EvaluateWithRules_UsesGivenRuleSet(t *testing.T) {
	// GIVEN: a custom rule set that is not in the catalog
	custom := &rules.CountryRuleSet{
		Code: "XX", Name: "Custom", Currency: "USD",
		Notice:              rules.StandardFlat{Days: 22},
		Severance:           rules.SeveranceRule{Formula: rules.OneMonthPerYear{}},
		LegalRisk:           rules.LegalRiskLow,
		VacationDaysPerYear: decimal.Zero,
	}
	require.NoError(t, custom.Validate())

	emp := employee("XX", 2200)
	emp.Currency = "USD"
	emp.HireDate = date(2022, time.March, 15)

	res, err := newTestEngine().EvaluateWithRules(emp, custom, date(2025, time.January, 1))
	require.NoError(t, err)

	// THEN: 22 days at 100/day plus 2200 * ~2.8 years
	assertAmount(t, 2200, res.NoticeCost)
	assert.Equal(t, "Custom", res.CountryName)
	assert.True(t, res.Vacation.IsZero())
	assert.True(t, res.TotalReporting.Equal(res.TotalLocal))
}

func TestEngine_WithRiskScorer(t *testing.T) {
	// GIVEN: a scorer that ignores every input except the floor
	scorer := liability.DefaultRiskScorer()
	scorer.LiabilityWeight = decimal.Zero
	scorer.FXWeight = decimal.Zero
	scorer.LegalWeight = decimal.Zero
	scorer.Floor = decimal.NewFromInt(75)
	engine := newTestEngine(liability.WithRiskScorer(scorer))

	// WHEN/THEN: every employee lands on the floor, in the high band
	res, err := engine.Evaluate(employee("NL", 5000), date(2025, time.March, 15))
	require.NoError(t, err)
	assert.True(t, res.RiskScore.Equal(decimal.NewFromInt(75)), res.RiskScore.String())
	assert.Equal(t, liability.RiskHigh, res.RiskBand)
}

func TestEngine_EvaluateWithRules_RejectsMissingOrInvalidRuleSet(t *testing.T) {
	engine := newTestEngine()
	emp := employee("IN", 100000)
	asOf := date(2025, time.March, 15)

	// Nil rule set
	_, err := engine.EvaluateWithRules(emp, nil, asOf)
	assert.ErrorIs(t, err, generic.ErrInvalidRule)

	// Gratuity that would divide by zero working days
	broken := rules.India()
	broken.Severance = rules.SeveranceRule{Formula: rules.Gratuity{
		DaysPerYear: decimal.NewFromInt(15),
		WorkingDays: decimal.Zero,
		MinYears:    decimal.NewFromInt(5),
	}}
	_, err = engine.EvaluateWithRules(emp, broken, asOf)
	assert.ErrorIs(t, err, generic.ErrInvalidRule)
}

func TestEngine_WithRiskScorer_IgnoresInvalidScorer(t *testing.T) {
	// GIVEN: scorers with a zero ceiling
	zeroLiability := liability.DefaultRiskScorer()
	zeroLiability.LiabilityCeiling = decimal.Zero
	zeroVolatility := liability.DefaultRiskScorer()
	zeroVolatility.VolatilityCeiling = decimal.Zero
	assert.ErrorIs(t, zeroLiability.Validate(), generic.ErrInvalidRule)
	assert.ErrorIs(t, zeroVolatility.Validate(), generic.ErrInvalidRule)
	require.NoError(t, liability.DefaultRiskScorer().Validate())

	asOf := date(2025, time.March, 15)
	want, err := newTestEngine().Evaluate(employee("NL", 5000), asOf)
	require.NoError(t, err)

	// WHEN/THEN: the engine keeps the default scorer instead of panicking
	for _, s := range []liability.RiskScorer{zeroLiability, zeroVolatility} {
		res, err := newTestEngine(liability.WithRiskScorer(s)).Evaluate(employee("NL", 5000), asOf)
		require.NoError(t, err)
		assert.True(t, res.RiskScore.Equal(want.RiskScore), res.RiskScore.String())
	}
}
