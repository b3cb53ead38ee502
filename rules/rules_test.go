package rules_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/liability-engine/generic"
	"github.com/warp/liability-engine/rules"
)

func validRuleSet() *rules.CountryRuleSet {
	return &rules.CountryRuleSet{
		Code: "XX", Name: "Testland", Currency: "XXX",
		Notice:              rules.StandardFlat{Days: 30},
		Severance:           rules.SeveranceRule{Formula: rules.OneMonthPerYear{}},
		LegalRisk:           rules.LegalRiskMedium,
		VacationDaysPerYear: decimal.NewFromInt(20),
	}
}

// =============================================================================
// DEFAULT CATALOG
// =============================================================================

func TestDefaultCatalog_TenCountriesAllValid(t *testing.T) {
	c := rules.DefaultCatalog()

	assert.Equal(t, []string{"AU", "BR", "DE", "FR", "GB", "IN", "MX", "NL", "PH", "SG"}, c.Codes())
	for _, code := range c.Codes() {
		rs := c[code]
		require.NoError(t, rs.Validate(), code)
		assert.NotEmpty(t, rs.Currency, code)
		assert.True(t, rs.VacationDaysPerYear.IsPositive(), code)
	}
}

func TestDefaultCatalog_FXCoversEveryCurrency(t *testing.T) {
	quotes := rules.DefaultFXQuotes()
	for _, rs := range rules.DefaultCatalog() {
		q, ok := quotes[rs.Currency]
		require.True(t, ok, rs.Currency)
		assert.True(t, q.Rate.IsPositive(), rs.Currency)
	}
	assert.Contains(t, quotes, "USD")
}

func TestCatalog_Lookup(t *testing.T) {
	c := rules.DefaultCatalog()

	rs, err := c.Lookup("br")
	require.NoError(t, err)
	assert.Equal(t, "Brazil", rs.Name)

	_, err = c.Lookup("ZZ")
	var unknown *generic.UnknownCountryError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "ZZ", unknown.Code)
}

func TestHasBonus(t *testing.T) {
	assert.True(t, rules.Brazil().HasBonus(rules.BonusThirteenthMonth))
	assert.True(t, rules.Philippines().HasBonus(rules.BonusThirteenthMonth))
	assert.False(t, rules.Mexico().HasBonus(rules.BonusThirteenthMonth))
	assert.False(t, rules.Germany().HasBonus(rules.BonusHolidayAllowance))
}

func TestVacationDaysFor(t *testing.T) {
	assert.True(t, rules.VacationDaysFor("GB").Equal(decimal.NewFromInt(28)))
	assert.True(t, rules.VacationDaysFor("PH").Equal(decimal.NewFromInt(5)))
	assert.True(t, rules.VacationDaysFor("US").Equal(decimal.NewFromInt(20)))
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestValidate_RejectsMalformedRuleSets(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(rs *rules.CountryRuleSet)
	}{
		{"missing code", func(rs *rules.CountryRuleSet) { rs.Code = "" }},
		{"missing notice", func(rs *rules.CountryRuleSet) { rs.Notice = nil }},
		{"missing severance", func(rs *rules.CountryRuleSet) { rs.Severance.Formula = nil }},
		{"unknown legal tier", func(rs *rules.CountryRuleSet) { rs.LegalRisk = "extreme" }},
		{"negative vacation", func(rs *rules.CountryRuleSet) { rs.VacationDaysPerYear = decimal.NewFromInt(-1) }},
		{"negative flat notice", func(rs *rules.CountryRuleSet) { rs.Notice = rules.StandardFlat{Days: -1} }},
		{"descending month tiers", func(rs *rules.CountryRuleSet) {
			rs.Notice = rules.TieredByMonths{Tiers: []rules.MonthTier{{MinMonths: 6, Days: 30}, {MinMonths: 0, Days: 0}}}
		}},
		{"decreasing week entitlement", func(rs *rules.CountryRuleSet) {
			rs.Notice = rules.TieredByYearsWeeks{Tiers: []rules.WeekTier{
				{MinYears: decimal.NewFromInt(0), Weeks: 4},
				{MinYears: decimal.NewFromInt(5), Weeks: 2},
			}}
		}},
		{"duplicate year thresholds", func(rs *rules.CountryRuleSet) {
			rs.Notice = rules.TieredByYearsMonths{Tiers: []rules.MonthsTier{
				{MinYears: decimal.NewFromInt(1), Months: 1},
				{MinYears: decimal.NewFromInt(1), Months: 2},
			}}
		}},
		{"unknown tenure unit", func(rs *rules.CountryRuleSet) {
			rs.Severance.MinTenure = rules.Eligibility{Unit: "weeks", Min: decimal.NewFromInt(1)}
		}},
		{"gratuity without working days", func(rs *rules.CountryRuleSet) {
			rs.Severance.Formula = rules.Gratuity{MinYears: decimal.NewFromInt(5), DaysPerYear: decimal.NewFromInt(15)}
		}},
		{"negative NSE entry", func(rs *rules.CountryRuleSet) {
			rs.Severance.Formula = rules.NSEScale{WeeksByYear: []int{4, -1}}
		}},
		{"nil bonus", func(rs *rules.CountryRuleSet) { rs.Bonuses = []rules.BonusRule{nil} }},
		{"negative bonus cap", func(rs *rules.CountryRuleSet) {
			rs.Bonuses = []rules.BonusRule{rules.StatutoryBonus{Percent: decimal.NewFromInt(8), SalaryCap: decimal.NewFromInt(-1)}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := validRuleSet()
			tt.mutate(rs)
			err := rs.Validate()
			assert.ErrorIs(t, err, generic.ErrInvalidRule)
		})
	}
}

func TestNewCatalog_PropagatesValidationError(t *testing.T) {
	bad := validRuleSet()
	bad.Notice = nil

	_, err := rules.NewCatalog(validRuleSet(), bad)
	assert.ErrorIs(t, err, generic.ErrInvalidRule)
}

func TestParseLegalRiskTier(t *testing.T) {
	tier, err := rules.ParseLegalRiskTier("HIGH")
	require.NoError(t, err)
	assert.Equal(t, rules.LegalRiskHigh, tier)
	assert.Equal(t, "High", tier.Label())

	_, err = rules.ParseLegalRiskTier("none")
	assert.ErrorIs(t, err, generic.ErrInvalidRule)
}

// =============================================================================
// ELIGIBILITY
// =============================================================================

func TestEligibility(t *testing.T) {
	months := rules.Eligibility{Unit: rules.TenureMonths, Min: decimal.NewFromInt(8)}
	assert.False(t, months.Eligible(generic.Tenure{Months: 7}))
	assert.True(t, months.Eligible(generic.Tenure{Months: 8}))

	years := rules.Eligibility{Unit: rules.TenureYears, Min: decimal.NewFromInt(5)}
	assert.False(t, years.Eligible(generic.Tenure{Years: decimal.NewFromFloat(4.99)}))
	assert.True(t, years.Eligible(generic.Tenure{Years: decimal.NewFromInt(5)}))

	assert.True(t, rules.Eligibility{}.Eligible(generic.Tenure{}))
}

func TestWeeksAt(t *testing.T) {
	tier := rules.WeeksPerYearTier{MinYears: decimal.NewFromInt(2), WeeksPerYear: 1, MaxWeeks: 12}
	assert.Equal(t, 3, tier.WeeksAt(decimal.NewFromFloat(3.9)))
	assert.Equal(t, 12, tier.WeeksAt(decimal.NewFromInt(30)))

	flat := rules.WeeksPerYearTier{Weeks: 1}
	assert.Equal(t, 1, flat.WeeksAt(decimal.NewFromInt(30)))
}
