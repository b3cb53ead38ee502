package rules

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/liability-engine/generic"
)

// =============================================================================
// NOTICE POLICY - Closed set of notice-period variants
// =============================================================================

// NoticePolicy is implemented only by the variants in this file.
// liability.CalculateNotice switches over them exhaustively.
type NoticePolicy interface {
	NoticeKind() NoticeKind
	validate() error
}

type NoticeKind string

const (
	NoticeFlatWithAccrual           NoticeKind = "flat_with_accrual"
	NoticeTieredMonths              NoticeKind = "tiered_months"
	NoticeTieredYearsWeeks          NoticeKind = "tiered_years_weeks"
	NoticeTieredYearsWeeksPerYear   NoticeKind = "tiered_years_weeks_per_year"
	NoticeTieredYearsMonths         NoticeKind = "tiered_years_months"
	NoticeTypicalWithSeniorOverride NoticeKind = "typical_with_senior_override"
	NoticeStandardFlat              NoticeKind = "standard_flat"
	NoticeFixedDays                 NoticeKind = "fixed_days"
)

// DefaultSeniorLevels are the job levels that receive the senior notice period.
var DefaultSeniorLevels = []string{"director", "head", "principal", "lead"}

// FlatWithAccrual: min(BaseDays + completed years * DaysPerYear, MaxDays).
// A zero MaxDays leaves the accrual uncapped.
type FlatWithAccrual struct {
	BaseDays    int
	DaysPerYear int
	MaxDays     int
}

// MonthTier grants Days once tenure reaches MinMonths.
type MonthTier struct {
	MinMonths int
	Days      int
}

// TieredByMonths: thresholds in tenure months, entitlement in days.
type TieredByMonths struct {
	Tiers []MonthTier
}

// WeekTier grants Weeks once tenure reaches MinYears.
type WeekTier struct {
	MinYears decimal.Decimal
	Weeks    int
}

// TieredByYearsWeeks: thresholds in tenure years, entitlement in weeks.
// Over45ExtraWeek adds one week for employees older than 45 with at least
// two years of service.
type TieredByYearsWeeks struct {
	Tiers           []WeekTier
	Over45ExtraWeek bool
}

// WeeksPerYearTier either grants flat Weeks or, when WeeksPerYear is set,
// min(completed years * WeeksPerYear, MaxWeeks).
type WeeksPerYearTier struct {
	MinYears     decimal.Decimal
	Weeks        int
	WeeksPerYear int
	MaxWeeks     int
}

// TieredByYearsWeeksPerYear: thresholds in tenure years, entitlement in
// weeks that may grow per completed year up to a cap.
type TieredByYearsWeeksPerYear struct {
	Tiers []WeeksPerYearTier
}

// MonthsTier grants Months once tenure reaches MinYears.
type MonthsTier struct {
	MinYears decimal.Decimal
	Months   int
}

// TieredByYearsMonths: thresholds in tenure years, entitlement in months.
type TieredByYearsMonths struct {
	Tiers []MonthsTier
}

// TypicalWithSeniorOverride: TypicalDays, or SeniorDays for senior job levels.
type TypicalWithSeniorOverride struct {
	TypicalDays  int
	SeniorDays   int
	SeniorLevels []string // DefaultSeniorLevels when empty
}

// StandardFlat: the statutory standard notice, independent of tenure.
type StandardFlat struct {
	Days int
}

// FixedDays: a fixed notice (often zero), independent of tenure.
type FixedDays struct {
	Days int
}

func (FlatWithAccrual) NoticeKind() NoticeKind           { return NoticeFlatWithAccrual }
func (TieredByMonths) NoticeKind() NoticeKind            { return NoticeTieredMonths }
func (TieredByYearsWeeks) NoticeKind() NoticeKind        { return NoticeTieredYearsWeeks }
func (TieredByYearsWeeksPerYear) NoticeKind() NoticeKind { return NoticeTieredYearsWeeksPerYear }
func (TieredByYearsMonths) NoticeKind() NoticeKind       { return NoticeTieredYearsMonths }
func (TypicalWithSeniorOverride) NoticeKind() NoticeKind { return NoticeTypicalWithSeniorOverride }
func (StandardFlat) NoticeKind() NoticeKind              { return NoticeStandardFlat }
func (FixedDays) NoticeKind() NoticeKind                 { return NoticeFixedDays }

// =============================================================================
// VALIDATION
// =============================================================================
// Tier thresholds must be strictly ascending and entitlements non-decreasing,
// so that "last satisfied tier wins" never lowers the notice for longer tenure.

func (p FlatWithAccrual) validate() error {
	if p.BaseDays < 0 || p.DaysPerYear < 0 || p.MaxDays < 0 {
		return fmt.Errorf("%w: negative notice days", generic.ErrInvalidRule)
	}
	return nil
}

func (p TieredByMonths) validate() error {
	for i, t := range p.Tiers {
		if t.MinMonths < 0 || t.Days < 0 {
			return fmt.Errorf("%w: tier %d has negative values", generic.ErrInvalidRule, i)
		}
		if i > 0 {
			prev := p.Tiers[i-1]
			if t.MinMonths <= prev.MinMonths {
				return fmt.Errorf("%w: tier %d threshold not ascending", generic.ErrInvalidRule, i)
			}
			if t.Days < prev.Days {
				return fmt.Errorf("%w: tier %d lowers the entitlement", generic.ErrInvalidRule, i)
			}
		}
	}
	return nil
}

func (p TieredByYearsWeeks) validate() error {
	for i, t := range p.Tiers {
		if t.MinYears.IsNegative() || t.Weeks < 0 {
			return fmt.Errorf("%w: tier %d has negative values", generic.ErrInvalidRule, i)
		}
		if i > 0 {
			prev := p.Tiers[i-1]
			if t.MinYears.LessThanOrEqual(prev.MinYears) {
				return fmt.Errorf("%w: tier %d threshold not ascending", generic.ErrInvalidRule, i)
			}
			if t.Weeks < prev.Weeks {
				return fmt.Errorf("%w: tier %d lowers the entitlement", generic.ErrInvalidRule, i)
			}
		}
	}
	return nil
}

func (p TieredByYearsWeeksPerYear) validate() error {
	for i, t := range p.Tiers {
		if t.MinYears.IsNegative() || t.Weeks < 0 || t.WeeksPerYear < 0 || t.MaxWeeks < 0 {
			return fmt.Errorf("%w: tier %d has negative values", generic.ErrInvalidRule, i)
		}
		if i > 0 {
			prev := p.Tiers[i-1]
			if t.MinYears.LessThanOrEqual(prev.MinYears) {
				return fmt.Errorf("%w: tier %d threshold not ascending", generic.ErrInvalidRule, i)
			}
			if t.WeeksAt(t.MinYears) < prev.WeeksAt(t.MinYears) {
				return fmt.Errorf("%w: tier %d lowers the entitlement", generic.ErrInvalidRule, i)
			}
		}
	}
	return nil
}

// WeeksAt returns the tier's entitlement in weeks for the given tenure.
func (t WeeksPerYearTier) WeeksAt(years decimal.Decimal) int {
	if t.WeeksPerYear == 0 {
		return t.Weeks
	}
	weeks := int(years.Floor().IntPart()) * t.WeeksPerYear
	if weeks > t.MaxWeeks {
		weeks = t.MaxWeeks
	}
	return weeks
}

func (p TieredByYearsMonths) validate() error {
	for i, t := range p.Tiers {
		if t.MinYears.IsNegative() || t.Months < 0 {
			return fmt.Errorf("%w: tier %d has negative values", generic.ErrInvalidRule, i)
		}
		if i > 0 {
			prev := p.Tiers[i-1]
			if t.MinYears.LessThanOrEqual(prev.MinYears) {
				return fmt.Errorf("%w: tier %d threshold not ascending", generic.ErrInvalidRule, i)
			}
			if t.Months < prev.Months {
				return fmt.Errorf("%w: tier %d lowers the entitlement", generic.ErrInvalidRule, i)
			}
		}
	}
	return nil
}

func (p TypicalWithSeniorOverride) validate() error {
	if p.TypicalDays < 0 || p.SeniorDays < 0 {
		return fmt.Errorf("%w: negative notice days", generic.ErrInvalidRule)
	}
	return nil
}

func (p StandardFlat) validate() error {
	if p.Days < 0 {
		return fmt.Errorf("%w: negative notice days", generic.ErrInvalidRule)
	}
	return nil
}

func (p FixedDays) validate() error {
	if p.Days < 0 {
		return fmt.Errorf("%w: negative notice days", generic.ErrInvalidRule)
	}
	return nil
}
