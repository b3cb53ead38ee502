package liability

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/liability-engine/generic"
	"github.com/warp/liability-engine/rules"
)

// =============================================================================
// STATUTORY BONUSES - Prorated by progress through the year
// =============================================================================

// YearProgress is the elapsed share of asOf's calendar year: days since
// January 1 divided by 365.
func YearProgress(asOf generic.TimePoint) decimal.Decimal {
	return decimal.NewFromInt(int64(generic.DaysIntoYear(asOf))).Div(daysPerBonusYear)
}

// CalculateBonuses sums the accrued share of every applicable bonus rule.
// A country without bonus rules accrues nothing.
func CalculateBonuses(emp Employee, bonuses []rules.BonusRule, asOf generic.TimePoint) (decimal.Decimal, error) {
	progress := YearProgress(asOf)
	salary := emp.MonthlySalary
	total := decimal.Zero

	for _, b := range bonuses {
		var accrued decimal.Decimal
		switch r := b.(type) {
		case rules.ThirteenthMonth:
			accrued = salary.Mul(progress)
		case rules.Aguinaldo:
			accrued = salary.Div(calendarDaysPerMonth).Mul(r.Days).Mul(progress)
		case rules.HolidayAllowance:
			accrued = salary.Mul(monthsPerYear).Mul(generic.Percent(r.Percent)).Mul(progress)
		case rules.StatutoryBonus:
			base := salary
			if r.SalaryCap.IsPositive() {
				base = decimal.Min(salary, r.SalaryCap)
			}
			accrued = base.Mul(monthsPerYear).Mul(generic.Percent(r.Percent)).Mul(progress)
		case rules.VacationBonus:
			accrued = salary.Mul(generic.Percent(r.Percent)).Mul(progress)
		default:
			return decimal.Zero, fmt.Errorf("%w: unsupported bonus rule %T", generic.ErrInvalidRule, b)
		}
		total = total.Add(generic.ClampZero(accrued))
	}
	return total, nil
}
