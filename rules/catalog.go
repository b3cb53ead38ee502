/*
catalog.go - Built-in country rule sets and FX table

PURPOSE:
  Provides ready-to-use rule sets for the ten jurisdictions the engine
  ships with. These are the defaults seeded into an empty store and used
  by the CLI when no catalog file is given.

AVAILABLE COUNTRIES:
  BR Brazil          flat notice + 3 days/year, FGTS 40% penalty, 13th month
  FR France          tiered by months, 1/4 then 1/3 month per year
  DE Germany         tiered weeks, half a month per year (market practice)
  IN India           30 days (90 senior), gratuity after 5 years, 8.33% bonus
  PH Philippines     30 days, one month per year, 13th month
  MX Mexico          no notice, 3 months + 12 days/year seniority, aguinaldo
  GB United Kingdom  1 week/year capped at 12, statutory redundancy
  NL Netherlands     tiered months, capped transition payment, 8% holiday pay
  SG Singapore       tiered by months, 2 weeks per year after 2 years
  AU Australia       tiered weeks (+1 over 45), NES redundancy scale

CUSTOMIZATION:
  These are starting points. Catalogs can be replaced entirely through
  factory.ParseCatalogYAML or the /api/countries endpoints.

SEE ALSO:
  - factory/rules.go: JSON representation of the same rule sets
  - liability/: Calculators that interpret them
*/
package rules

import (
	"github.com/shopspring/decimal"
	"github.com/warp/liability-engine/generic"
)

// DefaultVacationDays is the statutory annual leave per country.
var DefaultVacationDays = map[string]int{
	"BR": 30, "FR": 25, "DE": 20, "IN": 21, "PH": 5,
	"MX": 12, "GB": 28, "NL": 20, "SG": 14, "AU": 20,
}

// FallbackVacationDays applies to countries absent from DefaultVacationDays.
const FallbackVacationDays = 20

// VacationDaysFor looks up code in DefaultVacationDays.
func VacationDaysFor(code string) decimal.Decimal {
	if days, ok := DefaultVacationDays[code]; ok {
		return decimal.NewFromInt(int64(days))
	}
	return decimal.NewFromInt(FallbackVacationDays)
}

// DefaultFXQuotes returns rates per USD and 30-day volatilities.
func DefaultFXQuotes() map[string]generic.FXQuote {
	q := func(rate, vol float64) generic.FXQuote {
		return generic.FXQuote{Rate: generic.Dec(rate), Volatility: generic.Dec(vol)}
	}
	return map[string]generic.FXQuote{
		"BRL": q(5.85, 0.18),
		"EUR": q(0.92, 0.04),
		"INR": q(83.50, 0.08),
		"PHP": q(56.80, 0.06),
		"MXN": q(17.25, 0.14),
		"GBP": q(0.79, 0.05),
		"SGD": q(1.34, 0.03),
		"AUD": q(1.55, 0.07),
		"USD": q(1.0, 0.10),
	}
}

// DefaultCatalog returns the built-in rule sets. Each call builds fresh values.
// It panics if a built-in rule set fails validation, like MustParseDate.
func DefaultCatalog() Catalog {
	c, err := NewCatalog(
		Brazil(), France(), Germany(), India(), Philippines(),
		Mexico(), UnitedKingdom(), Netherlands(), Singapore(), Australia(),
	)
	if err != nil {
		panic(err)
	}
	return c
}

// =============================================================================
// COUNTRY PRESETS
// =============================================================================

func Brazil() *CountryRuleSet {
	return &CountryRuleSet{
		Code: "BR", Name: "Brazil", Currency: "BRL",
		Notice: FlatWithAccrual{BaseDays: 30, DaysPerYear: 3, MaxDays: 90},
		Severance: SeveranceRule{
			Formula: FGTSBased{PenaltyPercent: generic.Dec(40)},
		},
		Bonuses: []BonusRule{
			ThirteenthMonth{},
			VacationBonus{Percent: generic.Dec(33.33)},
		},
		LegalRisk:           LegalRiskHigh,
		VacationDaysPerYear: VacationDaysFor("BR"),
	}
}

func France() *CountryRuleSet {
	return &CountryRuleSet{
		Code: "FR", Name: "France", Currency: "EUR",
		Notice: TieredByMonths{Tiers: []MonthTier{
			{MinMonths: 0, Days: 0},
			{MinMonths: 6, Days: 30},
			{MinMonths: 24, Days: 60},
		}},
		Severance: SeveranceRule{
			MinTenure: Eligibility{Unit: TenureMonths, Min: generic.Dec(8)},
			Formula: TieredFraction{
				BreakpointYears: generic.Dec(10),
				FirstRate:       generic.Dec(0.25),
				LaterRate:       generic.Dec(0.33),
			},
		},
		LegalRisk:           LegalRiskMedium,
		VacationDaysPerYear: VacationDaysFor("FR"),
	}
}

func Germany() *CountryRuleSet {
	return &CountryRuleSet{
		Code: "DE", Name: "Germany", Currency: "EUR",
		Notice: TieredByYearsWeeks{Tiers: []WeekTier{
			{MinYears: generic.Dec(0), Weeks: 4},
			{MinYears: generic.Dec(2), Weeks: 4},
			{MinYears: generic.Dec(5), Weeks: 8},
			{MinYears: generic.Dec(8), Weeks: 12},
			{MinYears: generic.Dec(10), Weeks: 16},
			{MinYears: generic.Dec(15), Weeks: 24},
			{MinYears: generic.Dec(20), Weeks: 28},
		}},
		Severance: SeveranceRule{
			Formula: MarketPractice{MonthsPerYear: generic.Dec(0.5)},
		},
		LegalRisk:           LegalRiskMedium,
		VacationDaysPerYear: VacationDaysFor("DE"),
	}
}

func India() *CountryRuleSet {
	return &CountryRuleSet{
		Code: "IN", Name: "India", Currency: "INR",
		Notice: TypicalWithSeniorOverride{TypicalDays: 30, SeniorDays: 90},
		Severance: SeveranceRule{
			MinTenure: Eligibility{Unit: TenureYears, Min: generic.Dec(5)},
			Formula: Gratuity{
				MinYears:    generic.Dec(5),
				DaysPerYear: generic.Dec(15),
				WorkingDays: generic.Dec(26),
			},
		},
		Bonuses: []BonusRule{
			StatutoryBonus{Percent: generic.Dec(8.33), SalaryCap: generic.Dec(21000)},
		},
		LegalRisk:           LegalRiskLow,
		VacationDaysPerYear: VacationDaysFor("IN"),
	}
}

func Philippines() *CountryRuleSet {
	return &CountryRuleSet{
		Code: "PH", Name: "Philippines", Currency: "PHP",
		Notice:              StandardFlat{Days: 30},
		Severance:           SeveranceRule{Formula: OneMonthPerYear{}},
		Bonuses:             []BonusRule{ThirteenthMonth{}},
		LegalRisk:           LegalRiskMedium,
		VacationDaysPerYear: VacationDaysFor("PH"),
	}
}

func Mexico() *CountryRuleSet {
	return &CountryRuleSet{
		Code: "MX", Name: "Mexico", Currency: "MXN",
		Notice: FixedDays{Days: 0},
		Severance: SeveranceRule{
			Formula: ConstitutionalPlusSeniority{
				ConstitutionalMonths: generic.Dec(3),
				SeniorityDaysPerYear: generic.Dec(12),
			},
		},
		Bonuses: []BonusRule{
			Aguinaldo{Days: generic.Dec(15)},
		},
		LegalRisk:           LegalRiskHigh,
		VacationDaysPerYear: VacationDaysFor("MX"),
	}
}

func UnitedKingdom() *CountryRuleSet {
	return &CountryRuleSet{
		Code: "GB", Name: "United Kingdom", Currency: "GBP",
		Notice: TieredByYearsWeeksPerYear{Tiers: []WeeksPerYearTier{
			{MinYears: generic.Dec(0), Weeks: 1},
			{MinYears: generic.Dec(2), WeeksPerYear: 1, MaxWeeks: 12},
		}},
		Severance: SeveranceRule{
			Formula: StatutoryRedundancyCapped{
				WeeklyCap: generic.Dec(700),
				MaxYears:  generic.Dec(20),
			},
		},
		LegalRisk:           LegalRiskMedium,
		VacationDaysPerYear: VacationDaysFor("GB"),
	}
}

func Netherlands() *CountryRuleSet {
	return &CountryRuleSet{
		Code: "NL", Name: "Netherlands", Currency: "EUR",
		Notice: TieredByYearsMonths{Tiers: []MonthsTier{
			{MinYears: generic.Dec(0), Months: 1},
			{MinYears: generic.Dec(5), Months: 2},
			{MinYears: generic.Dec(10), Months: 3},
			{MinYears: generic.Dec(15), Months: 4},
		}},
		Severance: SeveranceRule{
			Formula: TransitionPaymentCapped{
				MonthsPerYear: generic.Dec(0.33),
				Cap:           generic.Dec(94000),
			},
		},
		Bonuses: []BonusRule{
			HolidayAllowance{Percent: generic.Dec(8)},
		},
		LegalRisk:           LegalRiskMedium,
		VacationDaysPerYear: VacationDaysFor("NL"),
	}
}

// Singapore's notice thresholds (26 weeks, 2 years, 5 years) are expressed in
// tenure months so the sub-week first tier can be paid in days.
func Singapore() *CountryRuleSet {
	return &CountryRuleSet{
		Code: "SG", Name: "Singapore", Currency: "SGD",
		Notice: TieredByMonths{Tiers: []MonthTier{
			{MinMonths: 0, Days: 1},
			{MinMonths: 6, Days: 7},
			{MinMonths: 24, Days: 14},
			{MinMonths: 60, Days: 28},
		}},
		Severance: SeveranceRule{
			MinTenure: Eligibility{Unit: TenureYears, Min: generic.Dec(2)},
			Formula:   MarketPractice{WeeksPerYear: generic.Dec(2)},
		},
		LegalRisk:           LegalRiskLow,
		VacationDaysPerYear: VacationDaysFor("SG"),
	}
}

func Australia() *CountryRuleSet {
	return &CountryRuleSet{
		Code: "AU", Name: "Australia", Currency: "AUD",
		Notice: TieredByYearsWeeks{
			Tiers: []WeekTier{
				{MinYears: generic.Dec(1), Weeks: 1},
				{MinYears: generic.Dec(3), Weeks: 2},
				{MinYears: generic.Dec(5), Weeks: 3},
				{MinYears: generic.Dec(999), Weeks: 4},
			},
			Over45ExtraWeek: true,
		},
		Severance: SeveranceRule{
			Formula: NSEScale{WeeksByYear: []int{4, 6, 7, 8, 10, 11, 12, 13, 14, 15, 16}},
		},
		LegalRisk:           LegalRiskMedium,
		VacationDaysPerYear: VacationDaysFor("AU"),
	}
}
