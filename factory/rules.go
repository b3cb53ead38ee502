/*
Package factory converts JSON and YAML rule definitions to typed rule sets.

PURPOSE:
  Country rules change with legislation. The factory lets them be edited as
  data (through the API, a YAML catalog file, or the store) while the engine
  only ever sees validated rules.CountryRuleSet values.

JSON SCHEMA:
  {
    "code": "BR",
    "name": "Brazil",
    "currency": "BRL",
    "legal_risk": "high",
    "vacation_days_per_year": 30,
    "notice": {"type": "flat_with_accrual", "base_days": 30, "days_per_year": 3, "max_days": 90},
    "severance": {"formula": "fgts_based", "fgts_penalty_percent": 40},
    "bonuses": [
      {"type": "thirteenth_month"},
      {"type": "vacation_bonus", "percent": 33.33}
    ]
  }

DISCRIMINATORS:
  notice.type:        flat_with_accrual, tiered_months, tiered_years_weeks,
                      tiered_years_weeks_per_year, tiered_years_months,
                      typical_with_senior_override, standard_flat, fixed_days
  severance.formula:  fgts_based, tiered_fraction, market_practice, gratuity,
                      one_month_per_year, constitutional_plus_seniority,
                      statutory_redundancy, transition_payment, nse_scale
  bonuses[].type:     thirteenth_month, aguinaldo, holiday_allowance,
                      statutory_bonus, vacation_bonus

  An unknown discriminator is an error wrapping generic.ErrInvalidRule.
  Nothing falls through to a zero result.

DEFAULTS:
  Omitted parameters take the statutory values of the formula's home
  jurisdiction: tiered_fraction 10 years / 0.25 / 0.33, gratuity 15 days /
  26 working days, statutory_redundancy cap 700 / 20 years,
  transition_payment 0.33 / 94000, seniority 12 days per year, weeks per
  year tiers capped at 12 weeks. Missing vacation days use the country
  table (20 when unlisted).

USAGE:
  f := factory.NewRuleFactory()
  rs, err := f.ParseCountry(jsonString)
  cj := f.ToJSON(rs) // inverse, for storage

SEE ALSO:
  - catalog.go: Whole-catalog YAML files with FX tables
  - rules/catalog.go: The built-in country presets
*/
package factory

import (
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
	"github.com/warp/liability-engine/generic"
	"github.com/warp/liability-engine/rules"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================
// The yaml tags let catalog files reuse the same shapes.

// CountryJSON is the JSON representation of a country rule set.
type CountryJSON struct {
	Code                string        `json:"code" yaml:"code"`
	Name                string        `json:"name" yaml:"name"`
	Currency            string        `json:"currency" yaml:"currency"`
	LegalRisk           string        `json:"legal_risk" yaml:"legal_risk"`
	VacationDaysPerYear *float64      `json:"vacation_days_per_year,omitempty" yaml:"vacation_days_per_year,omitempty"`
	Notice              NoticeJSON    `json:"notice" yaml:"notice"`
	Severance           SeveranceJSON `json:"severance" yaml:"severance"`
	Bonuses             []BonusJSON   `json:"bonuses,omitempty" yaml:"bonuses,omitempty"`
}

// NoticeJSON carries the parameters of every notice variant; Type selects one.
type NoticeJSON struct {
	Type            string     `json:"type" yaml:"type"`
	BaseDays        int        `json:"base_days,omitempty" yaml:"base_days,omitempty"`
	DaysPerYear     int        `json:"days_per_year,omitempty" yaml:"days_per_year,omitempty"`
	MaxDays         int        `json:"max_days,omitempty" yaml:"max_days,omitempty"`
	Tiers           []TierJSON `json:"tiers,omitempty" yaml:"tiers,omitempty"`
	Over45ExtraWeek bool       `json:"over_45_extra_week,omitempty" yaml:"over_45_extra_week,omitempty"`
	TypicalDays     int        `json:"typical_days,omitempty" yaml:"typical_days,omitempty"`
	SeniorDays      int        `json:"senior_days,omitempty" yaml:"senior_days,omitempty"`
	SeniorLevels    []string   `json:"senior_levels,omitempty" yaml:"senior_levels,omitempty"`
	Days            int        `json:"days,omitempty" yaml:"days,omitempty"`
}

// TierJSON is one notice tier. MinMonths applies to tiered_months,
// MinYears to the year-based variants.
type TierJSON struct {
	MinMonths    int     `json:"min_months,omitempty" yaml:"min_months,omitempty"`
	MinYears     float64 `json:"min_years,omitempty" yaml:"min_years,omitempty"`
	Days         int     `json:"days,omitempty" yaml:"days,omitempty"`
	Weeks        int     `json:"weeks,omitempty" yaml:"weeks,omitempty"`
	WeeksPerYear int     `json:"weeks_per_year,omitempty" yaml:"weeks_per_year,omitempty"`
	MaxWeeks     int     `json:"max_weeks,omitempty" yaml:"max_weeks,omitempty"`
	Months       int     `json:"months,omitempty" yaml:"months,omitempty"`
}

// SeveranceJSON carries the parameters of every severance formula.
type SeveranceJSON struct {
	Formula              string  `json:"formula" yaml:"formula"`
	MinTenureMonths      float64 `json:"min_tenure_months,omitempty" yaml:"min_tenure_months,omitempty"`
	MinTenureYears       float64 `json:"min_tenure_years,omitempty" yaml:"min_tenure_years,omitempty"`
	PenaltyPercent       float64 `json:"fgts_penalty_percent,omitempty" yaml:"fgts_penalty_percent,omitempty"`
	BreakpointYears      float64 `json:"breakpoint_years,omitempty" yaml:"breakpoint_years,omitempty"`
	FirstRate            float64 `json:"first_rate,omitempty" yaml:"first_rate,omitempty"`
	LaterRate            float64 `json:"later_rate,omitempty" yaml:"later_rate,omitempty"`
	MonthsPerYear        float64 `json:"months_per_year,omitempty" yaml:"months_per_year,omitempty"`
	WeeksPerYear         float64 `json:"weeks_per_year,omitempty" yaml:"weeks_per_year,omitempty"`
	DaysPerYear          float64 `json:"days_per_year,omitempty" yaml:"days_per_year,omitempty"`
	WorkingDays          float64 `json:"working_days,omitempty" yaml:"working_days,omitempty"`
	ConstitutionalMonths float64 `json:"constitutional_months,omitempty" yaml:"constitutional_months,omitempty"`
	SeniorityDaysPerYear float64 `json:"seniority_days_per_year,omitempty" yaml:"seniority_days_per_year,omitempty"`
	WeeklyCap            float64 `json:"weekly_cap,omitempty" yaml:"weekly_cap,omitempty"`
	MaxYears             float64 `json:"max_years,omitempty" yaml:"max_years,omitempty"`
	Cap                  float64 `json:"cap,omitempty" yaml:"cap,omitempty"`
	Scale                []int   `json:"scale,omitempty" yaml:"scale,omitempty"`
}

// BonusJSON is one statutory bonus rule.
type BonusJSON struct {
	Type      string  `json:"type" yaml:"type"`
	Days      float64 `json:"days,omitempty" yaml:"days,omitempty"`
	Percent   float64 `json:"percent,omitempty" yaml:"percent,omitempty"`
	SalaryCap float64 `json:"salary_cap,omitempty" yaml:"salary_cap,omitempty"`
}

// =============================================================================
// RULE FACTORY
// =============================================================================

// RuleFactory converts between the JSON schema and typed rule sets.
type RuleFactory struct{}

func NewRuleFactory() *RuleFactory {
	return &RuleFactory{}
}

// ParseCountry parses and validates a JSON rule set.
func (f *RuleFactory) ParseCountry(jsonStr string) (*rules.CountryRuleSet, error) {
	var cj CountryJSON
	if err := json.Unmarshal([]byte(jsonStr), &cj); err != nil {
		return nil, fmt.Errorf("failed to parse country JSON: %w", err)
	}
	return f.FromJSON(cj)
}

// FromJSON converts CountryJSON to a validated rule set.
func (f *RuleFactory) FromJSON(cj CountryJSON) (*rules.CountryRuleSet, error) {
	code := strings.ToUpper(strings.TrimSpace(cj.Code))
	if code == "" {
		return nil, fmt.Errorf("%w: country code is required", generic.ErrInvalidRule)
	}

	tier, err := rules.ParseLegalRiskTier(cj.LegalRisk)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", code, err)
	}
	notice, err := parseNotice(cj.Notice)
	if err != nil {
		return nil, fmt.Errorf("%s notice: %w", code, err)
	}
	severance, err := parseSeverance(cj.Severance)
	if err != nil {
		return nil, fmt.Errorf("%s severance: %w", code, err)
	}

	rs := &rules.CountryRuleSet{
		Code:                code,
		Name:                cj.Name,
		Currency:            strings.ToUpper(cj.Currency),
		Notice:              notice,
		Severance:           severance,
		LegalRisk:           tier,
		VacationDaysPerYear: rules.VacationDaysFor(code),
	}
	if rs.Name == "" {
		rs.Name = code
	}
	if cj.VacationDaysPerYear != nil {
		rs.VacationDaysPerYear = decimal.NewFromFloat(*cj.VacationDaysPerYear)
	}
	for i, bj := range cj.Bonuses {
		b, err := parseBonus(bj)
		if err != nil {
			return nil, fmt.Errorf("%s bonus %d: %w", code, i, err)
		}
		rs.Bonuses = append(rs.Bonuses, b)
	}

	if err := rs.Validate(); err != nil {
		return nil, err
	}
	return rs, nil
}

// ToJSON converts a rule set to CountryJSON. FromJSON(ToJSON(rs)) yields an
// equivalent rule set.
func (f *RuleFactory) ToJSON(rs *rules.CountryRuleSet) CountryJSON {
	vacation := rs.VacationDaysPerYear.InexactFloat64()
	cj := CountryJSON{
		Code:                rs.Code,
		Name:                rs.Name,
		Currency:            rs.Currency,
		LegalRisk:           string(rs.LegalRisk),
		VacationDaysPerYear: &vacation,
		Notice:              noticeToJSON(rs.Notice),
		Severance:           severanceToJSON(rs.Severance),
	}
	for _, b := range rs.Bonuses {
		cj.Bonuses = append(cj.Bonuses, bonusToJSON(b))
	}
	return cj
}

// MarshalCountry returns the JSON encoding of a rule set.
func (f *RuleFactory) MarshalCountry(rs *rules.CountryRuleSet) (string, error) {
	b, err := json.Marshal(f.ToJSON(rs))
	if err != nil {
		return "", fmt.Errorf("failed to encode country %s: %w", rs.Code, err)
	}
	return string(b), nil
}

// =============================================================================
// NOTICE
// =============================================================================

const defaultMaxWeeks = 12

func parseNotice(nj NoticeJSON) (rules.NoticePolicy, error) {
	switch rules.NoticeKind(nj.Type) {
	case rules.NoticeFlatWithAccrual:
		return rules.FlatWithAccrual{BaseDays: nj.BaseDays, DaysPerYear: nj.DaysPerYear, MaxDays: nj.MaxDays}, nil

	case rules.NoticeTieredMonths:
		p := rules.TieredByMonths{}
		for _, t := range nj.Tiers {
			p.Tiers = append(p.Tiers, rules.MonthTier{MinMonths: t.MinMonths, Days: t.Days})
		}
		return p, nil

	case rules.NoticeTieredYearsWeeks:
		p := rules.TieredByYearsWeeks{Over45ExtraWeek: nj.Over45ExtraWeek}
		for _, t := range nj.Tiers {
			p.Tiers = append(p.Tiers, rules.WeekTier{MinYears: decimal.NewFromFloat(t.MinYears), Weeks: t.Weeks})
		}
		return p, nil

	case rules.NoticeTieredYearsWeeksPerYear:
		p := rules.TieredByYearsWeeksPerYear{}
		for _, t := range nj.Tiers {
			tier := rules.WeeksPerYearTier{
				MinYears:     decimal.NewFromFloat(t.MinYears),
				Weeks:        t.Weeks,
				WeeksPerYear: t.WeeksPerYear,
				MaxWeeks:     t.MaxWeeks,
			}
			if tier.WeeksPerYear > 0 && tier.MaxWeeks == 0 {
				tier.MaxWeeks = defaultMaxWeeks
			}
			p.Tiers = append(p.Tiers, tier)
		}
		return p, nil

	case rules.NoticeTieredYearsMonths:
		p := rules.TieredByYearsMonths{}
		for _, t := range nj.Tiers {
			p.Tiers = append(p.Tiers, rules.MonthsTier{MinYears: decimal.NewFromFloat(t.MinYears), Months: t.Months})
		}
		return p, nil

	case rules.NoticeTypicalWithSeniorOverride:
		return rules.TypicalWithSeniorOverride{
			TypicalDays:  nj.TypicalDays,
			SeniorDays:   nj.SeniorDays,
			SeniorLevels: nj.SeniorLevels,
		}, nil

	case rules.NoticeStandardFlat:
		return rules.StandardFlat{Days: nj.Days}, nil

	case rules.NoticeFixedDays:
		return rules.FixedDays{Days: nj.Days}, nil

	default:
		return nil, fmt.Errorf("%w: unknown notice type %q", generic.ErrInvalidRule, nj.Type)
	}
}

func noticeToJSON(policy rules.NoticePolicy) NoticeJSON {
	if policy == nil {
		return NoticeJSON{}
	}
	nj := NoticeJSON{Type: string(policy.NoticeKind())}

	switch p := policy.(type) {
	case rules.FlatWithAccrual:
		nj.BaseDays, nj.DaysPerYear, nj.MaxDays = p.BaseDays, p.DaysPerYear, p.MaxDays
	case rules.TieredByMonths:
		for _, t := range p.Tiers {
			nj.Tiers = append(nj.Tiers, TierJSON{MinMonths: t.MinMonths, Days: t.Days})
		}
	case rules.TieredByYearsWeeks:
		nj.Over45ExtraWeek = p.Over45ExtraWeek
		for _, t := range p.Tiers {
			nj.Tiers = append(nj.Tiers, TierJSON{MinYears: t.MinYears.InexactFloat64(), Weeks: t.Weeks})
		}
	case rules.TieredByYearsWeeksPerYear:
		for _, t := range p.Tiers {
			nj.Tiers = append(nj.Tiers, TierJSON{
				MinYears:     t.MinYears.InexactFloat64(),
				Weeks:        t.Weeks,
				WeeksPerYear: t.WeeksPerYear,
				MaxWeeks:     t.MaxWeeks,
			})
		}
	case rules.TieredByYearsMonths:
		for _, t := range p.Tiers {
			nj.Tiers = append(nj.Tiers, TierJSON{MinYears: t.MinYears.InexactFloat64(), Months: t.Months})
		}
	case rules.TypicalWithSeniorOverride:
		nj.TypicalDays, nj.SeniorDays, nj.SeniorLevels = p.TypicalDays, p.SeniorDays, p.SeniorLevels
	case rules.StandardFlat:
		nj.Days = p.Days
	case rules.FixedDays:
		nj.Days = p.Days
	}
	return nj
}

// =============================================================================
// SEVERANCE
// =============================================================================

func parseSeverance(sj SeveranceJSON) (rules.SeveranceRule, error) {
	rule := rules.SeveranceRule{}
	switch {
	case sj.MinTenureMonths > 0 && sj.MinTenureYears > 0:
		return rule, fmt.Errorf("%w: set min_tenure_months or min_tenure_years, not both", generic.ErrInvalidRule)
	case sj.MinTenureMonths > 0:
		rule.MinTenure = rules.Eligibility{Unit: rules.TenureMonths, Min: decimal.NewFromFloat(sj.MinTenureMonths)}
	case sj.MinTenureYears > 0:
		rule.MinTenure = rules.Eligibility{Unit: rules.TenureYears, Min: decimal.NewFromFloat(sj.MinTenureYears)}
	}

	d := decimal.NewFromFloat
	orDefault := func(v, def float64) decimal.Decimal {
		if v == 0 {
			return d(def)
		}
		return d(v)
	}

	switch rules.SeveranceKind(sj.Formula) {
	case rules.SeveranceFGTSBased:
		rule.Formula = rules.FGTSBased{PenaltyPercent: d(sj.PenaltyPercent)}
	case rules.SeveranceTieredFraction:
		rule.Formula = rules.TieredFraction{
			BreakpointYears: orDefault(sj.BreakpointYears, 10),
			FirstRate:       orDefault(sj.FirstRate, 0.25),
			LaterRate:       orDefault(sj.LaterRate, 0.33),
		}
	case rules.SeveranceMarketPractice:
		rule.Formula = rules.MarketPractice{MonthsPerYear: d(sj.MonthsPerYear), WeeksPerYear: d(sj.WeeksPerYear)}
	case rules.SeveranceGratuity:
		rule.Formula = rules.Gratuity{
			MinYears:    d(sj.MinTenureYears),
			DaysPerYear: orDefault(sj.DaysPerYear, 15),
			WorkingDays: orDefault(sj.WorkingDays, 26),
		}
	case rules.SeveranceOneMonthPerYear:
		rule.Formula = rules.OneMonthPerYear{}
	case rules.SeveranceConstitutionalPlusSeniority:
		rule.Formula = rules.ConstitutionalPlusSeniority{
			ConstitutionalMonths: d(sj.ConstitutionalMonths),
			SeniorityDaysPerYear: orDefault(sj.SeniorityDaysPerYear, 12),
		}
	case rules.SeveranceStatutoryRedundancy:
		rule.Formula = rules.StatutoryRedundancyCapped{
			WeeklyCap: orDefault(sj.WeeklyCap, 700),
			MaxYears:  orDefault(sj.MaxYears, 20),
		}
	case rules.SeveranceTransitionPayment:
		rule.Formula = rules.TransitionPaymentCapped{
			MonthsPerYear: orDefault(sj.MonthsPerYear, 0.33),
			Cap:           orDefault(sj.Cap, 94000),
		}
	case rules.SeveranceNSEScale:
		if len(sj.Scale) == 0 {
			return rule, fmt.Errorf("%w: nse_scale requires a scale", generic.ErrInvalidRule)
		}
		rule.Formula = rules.NSEScale{WeeksByYear: append([]int(nil), sj.Scale...)}
	default:
		return rule, fmt.Errorf("%w: unknown severance formula %q", generic.ErrInvalidRule, sj.Formula)
	}
	return rule, nil
}

func severanceToJSON(rule rules.SeveranceRule) SeveranceJSON {
	sj := SeveranceJSON{}
	switch rule.MinTenure.Unit {
	case rules.TenureMonths:
		sj.MinTenureMonths = rule.MinTenure.Min.InexactFloat64()
	case rules.TenureYears:
		sj.MinTenureYears = rule.MinTenure.Min.InexactFloat64()
	}
	if rule.Formula == nil {
		return sj
	}
	sj.Formula = string(rule.Formula.SeveranceKind())

	switch p := rule.Formula.(type) {
	case rules.FGTSBased:
		sj.PenaltyPercent = p.PenaltyPercent.InexactFloat64()
	case rules.TieredFraction:
		sj.BreakpointYears = p.BreakpointYears.InexactFloat64()
		sj.FirstRate = p.FirstRate.InexactFloat64()
		sj.LaterRate = p.LaterRate.InexactFloat64()
	case rules.MarketPractice:
		sj.MonthsPerYear = p.MonthsPerYear.InexactFloat64()
		sj.WeeksPerYear = p.WeeksPerYear.InexactFloat64()
	case rules.Gratuity:
		if sj.MinTenureYears == 0 {
			sj.MinTenureYears = p.MinYears.InexactFloat64()
		}
		sj.DaysPerYear = p.DaysPerYear.InexactFloat64()
		sj.WorkingDays = p.WorkingDays.InexactFloat64()
	case rules.ConstitutionalPlusSeniority:
		sj.ConstitutionalMonths = p.ConstitutionalMonths.InexactFloat64()
		sj.SeniorityDaysPerYear = p.SeniorityDaysPerYear.InexactFloat64()
	case rules.StatutoryRedundancyCapped:
		sj.WeeklyCap = p.WeeklyCap.InexactFloat64()
		sj.MaxYears = p.MaxYears.InexactFloat64()
	case rules.TransitionPaymentCapped:
		sj.MonthsPerYear = p.MonthsPerYear.InexactFloat64()
		sj.Cap = p.Cap.InexactFloat64()
	case rules.NSEScale:
		sj.Scale = append([]int(nil), p.WeeksByYear...)
	}
	return sj
}

// =============================================================================
// BONUSES
// =============================================================================

func parseBonus(bj BonusJSON) (rules.BonusRule, error) {
	switch rules.BonusKind(bj.Type) {
	case rules.BonusThirteenthMonth:
		return rules.ThirteenthMonth{}, nil
	case rules.BonusAguinaldo:
		return rules.Aguinaldo{Days: decimal.NewFromFloat(bj.Days)}, nil
	case rules.BonusHolidayAllowance:
		return rules.HolidayAllowance{Percent: decimal.NewFromFloat(bj.Percent)}, nil
	case rules.BonusStatutory:
		return rules.StatutoryBonus{
			Percent:   decimal.NewFromFloat(bj.Percent),
			SalaryCap: decimal.NewFromFloat(bj.SalaryCap),
		}, nil
	case rules.BonusVacation:
		return rules.VacationBonus{Percent: decimal.NewFromFloat(bj.Percent)}, nil
	default:
		return nil, fmt.Errorf("%w: unknown bonus type %q", generic.ErrInvalidRule, bj.Type)
	}
}

func bonusToJSON(b rules.BonusRule) BonusJSON {
	bj := BonusJSON{Type: string(b.BonusKind())}
	switch r := b.(type) {
	case rules.Aguinaldo:
		bj.Days = r.Days.InexactFloat64()
	case rules.HolidayAllowance:
		bj.Percent = r.Percent.InexactFloat64()
	case rules.StatutoryBonus:
		bj.Percent = r.Percent.InexactFloat64()
		bj.SalaryCap = r.SalaryCap.InexactFloat64()
	case rules.VacationBonus:
		bj.Percent = r.Percent.InexactFloat64()
	}
	return bj
}
