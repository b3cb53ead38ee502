package rules

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/liability-engine/generic"
)

// =============================================================================
// STATUTORY BONUS RULES - Zero or more per country, additive
// =============================================================================

// BonusRule is implemented only by the variants in this file.
type BonusRule interface {
	BonusKind() BonusKind
	validate() error
}

type BonusKind string

const (
	BonusThirteenthMonth  BonusKind = "thirteenth_month"
	BonusAguinaldo        BonusKind = "aguinaldo"
	BonusHolidayAllowance BonusKind = "holiday_allowance"
	BonusStatutory        BonusKind = "statutory_bonus"
	BonusVacation         BonusKind = "vacation_bonus"
)

// ThirteenthMonth: one extra monthly salary per year.
type ThirteenthMonth struct{}

// Aguinaldo: Days of pay (salary / 30 per day) per year.
type Aguinaldo struct {
	Days decimal.Decimal
}

// HolidayAllowance: Percent of annual salary.
type HolidayAllowance struct {
	Percent decimal.Decimal
}

// StatutoryBonus: Percent of annual salary, salary capped at SalaryCap.
// A zero SalaryCap means uncapped.
type StatutoryBonus struct {
	Percent   decimal.Decimal
	SalaryCap decimal.Decimal
}

// VacationBonus: Percent of one monthly salary per year.
type VacationBonus struct {
	Percent decimal.Decimal
}

func (ThirteenthMonth) BonusKind() BonusKind  { return BonusThirteenthMonth }
func (Aguinaldo) BonusKind() BonusKind        { return BonusAguinaldo }
func (HolidayAllowance) BonusKind() BonusKind { return BonusHolidayAllowance }
func (StatutoryBonus) BonusKind() BonusKind   { return BonusStatutory }
func (VacationBonus) BonusKind() BonusKind    { return BonusVacation }

func (ThirteenthMonth) validate() error    { return nil }
func (b Aguinaldo) validate() error        { return nonNegative("aguinaldo days", b.Days) }
func (b HolidayAllowance) validate() error { return nonNegative("holiday allowance percent", b.Percent) }
func (b VacationBonus) validate() error    { return nonNegative("vacation bonus percent", b.Percent) }

func (b StatutoryBonus) validate() error {
	if err := nonNegative("statutory bonus percent", b.Percent); err != nil {
		return err
	}
	if b.SalaryCap.IsNegative() {
		return fmt.Errorf("%w: salary cap must not be negative", generic.ErrInvalidRule)
	}
	return nil
}
