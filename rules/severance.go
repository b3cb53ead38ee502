package rules

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/liability-engine/generic"
)

// =============================================================================
// SEVERANCE RULE - Eligibility + one formula
// =============================================================================

type SeveranceRule struct {
	MinTenure Eligibility
	Formula   SeverancePolicy
}

type TenureUnit string

const (
	TenureMonths TenureUnit = "months"
	TenureYears  TenureUnit = "years"
)

// Eligibility is the minimum tenure below which no severance is owed.
// The zero value means "always eligible".
type Eligibility struct {
	Unit TenureUnit
	Min  decimal.Decimal
}

// Eligible reports whether tenure meets the minimum.
func (e Eligibility) Eligible(t generic.Tenure) bool {
	switch e.Unit {
	case TenureMonths:
		return decimal.NewFromInt(int64(t.Months)).GreaterThanOrEqual(e.Min)
	case TenureYears:
		return t.Years.GreaterThanOrEqual(e.Min)
	default:
		return true
	}
}

func (r SeveranceRule) validate() error {
	switch r.MinTenure.Unit {
	case "", TenureMonths, TenureYears:
	default:
		return fmt.Errorf("%w: unknown tenure unit %q", generic.ErrInvalidRule, r.MinTenure.Unit)
	}
	if err := nonNegative("minimum tenure", r.MinTenure.Min); err != nil {
		return err
	}
	return r.Formula.validate()
}

// =============================================================================
// SEVERANCE POLICY - Closed set of formula families
// =============================================================================

// SeverancePolicy is implemented only by the variants in this file.
type SeverancePolicy interface {
	SeveranceKind() SeveranceKind
	validate() error
}

type SeveranceKind string

const (
	SeveranceFGTSBased                   SeveranceKind = "fgts_based"
	SeveranceTieredFraction              SeveranceKind = "tiered_fraction"
	SeveranceMarketPractice              SeveranceKind = "market_practice"
	SeveranceGratuity                    SeveranceKind = "gratuity"
	SeveranceOneMonthPerYear             SeveranceKind = "one_month_per_year"
	SeveranceConstitutionalPlusSeniority SeveranceKind = "constitutional_plus_seniority"
	SeveranceStatutoryRedundancy         SeveranceKind = "statutory_redundancy"
	SeveranceTransitionPayment           SeveranceKind = "transition_payment"
	SeveranceNSEScale                    SeveranceKind = "nse_scale"
)

// FGTSBased: penalty on the simulated employer contribution balance
// (8% of salary, 12 months a year).
type FGTSBased struct {
	PenaltyPercent decimal.Decimal // 40 for 40%
}

// TieredFraction: FirstRate months per year up to BreakpointYears, LaterRate beyond.
type TieredFraction struct {
	BreakpointYears decimal.Decimal
	FirstRate       decimal.Decimal
	LaterRate       decimal.Decimal
}

// MarketPractice: WeeksPerYear weekly salaries per year when set,
// otherwise MonthsPerYear monthly salaries per year.
type MarketPractice struct {
	MonthsPerYear decimal.Decimal
	WeeksPerYear  decimal.Decimal
}

// Gratuity: DaysPerYear days of pay per year (salary / WorkingDays per day),
// only once MinYears is reached.
type Gratuity struct {
	MinYears    decimal.Decimal
	DaysPerYear decimal.Decimal
	WorkingDays decimal.Decimal
}

// OneMonthPerYear: one month of salary per year, at least one month.
type OneMonthPerYear struct{}

// ConstitutionalPlusSeniority: fixed months plus a per-year seniority premium
// of SeniorityDaysPerYear days (salary / 30 per day).
type ConstitutionalPlusSeniority struct {
	ConstitutionalMonths decimal.Decimal
	SeniorityDaysPerYear decimal.Decimal
}

// StatutoryRedundancyCapped: weekly pay capped at WeeklyCap times years capped
// at MaxYears.
type StatutoryRedundancyCapped struct {
	WeeklyCap decimal.Decimal
	MaxYears  decimal.Decimal
}

// TransitionPaymentCapped: MonthsPerYear salaries per year, capped at Cap.
type TransitionPaymentCapped struct {
	MonthsPerYear decimal.Decimal
	Cap           decimal.Decimal
}

// NSEScale: weeks of pay looked up by completed years of service.
// WeeksByYear[0] applies from one year; the last entry applies beyond.
type NSEScale struct {
	WeeksByYear []int
}

func (FGTSBased) SeveranceKind() SeveranceKind                   { return SeveranceFGTSBased }
func (TieredFraction) SeveranceKind() SeveranceKind              { return SeveranceTieredFraction }
func (MarketPractice) SeveranceKind() SeveranceKind              { return SeveranceMarketPractice }
func (Gratuity) SeveranceKind() SeveranceKind                    { return SeveranceGratuity }
func (OneMonthPerYear) SeveranceKind() SeveranceKind             { return SeveranceOneMonthPerYear }
func (ConstitutionalPlusSeniority) SeveranceKind() SeveranceKind { return SeveranceConstitutionalPlusSeniority }
func (StatutoryRedundancyCapped) SeveranceKind() SeveranceKind   { return SeveranceStatutoryRedundancy }
func (TransitionPaymentCapped) SeveranceKind() SeveranceKind     { return SeveranceTransitionPayment }
func (NSEScale) SeveranceKind() SeveranceKind                    { return SeveranceNSEScale }

func (p FGTSBased) validate() error { return nonNegative("fgts penalty percent", p.PenaltyPercent) }

func (p TieredFraction) validate() error {
	if err := nonNegative("breakpoint years", p.BreakpointYears); err != nil {
		return err
	}
	if err := nonNegative("first rate", p.FirstRate); err != nil {
		return err
	}
	return nonNegative("later rate", p.LaterRate)
}

func (p MarketPractice) validate() error {
	if err := nonNegative("months per year", p.MonthsPerYear); err != nil {
		return err
	}
	return nonNegative("weeks per year", p.WeeksPerYear)
}

func (p Gratuity) validate() error {
	if !p.WorkingDays.IsPositive() {
		return fmt.Errorf("%w: gratuity working days must be positive", generic.ErrInvalidRule)
	}
	if err := nonNegative("gratuity minimum years", p.MinYears); err != nil {
		return err
	}
	return nonNegative("gratuity days per year", p.DaysPerYear)
}

func (OneMonthPerYear) validate() error { return nil }

func (p ConstitutionalPlusSeniority) validate() error {
	if err := nonNegative("constitutional months", p.ConstitutionalMonths); err != nil {
		return err
	}
	return nonNegative("seniority days per year", p.SeniorityDaysPerYear)
}

func (p StatutoryRedundancyCapped) validate() error {
	if err := nonNegative("weekly cap", p.WeeklyCap); err != nil {
		return err
	}
	return nonNegative("max years", p.MaxYears)
}

func (p TransitionPaymentCapped) validate() error {
	if err := nonNegative("months per year", p.MonthsPerYear); err != nil {
		return err
	}
	return nonNegative("cap", p.Cap)
}

func (p NSEScale) validate() error {
	for i, w := range p.WeeksByYear {
		if w < 0 {
			return fmt.Errorf("%w: scale entry %d is negative", generic.ErrInvalidRule, i)
		}
	}
	return nil
}
