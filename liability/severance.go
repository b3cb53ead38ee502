package liability

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/liability-engine/generic"
	"github.com/warp/liability-engine/rules"
)

// =============================================================================
// SEVERANCE
// =============================================================================

var fgtsContributionRate = decimal.NewFromFloat(0.08)

// CalculateSeverance returns the lump-sum termination payment in local
// currency. Tenure below the rule's minimum yields zero.
func CalculateSeverance(emp Employee, rule rules.SeveranceRule, t generic.Tenure) (decimal.Decimal, error) {
	if !rule.MinTenure.Eligible(t) {
		return decimal.Zero, nil
	}
	amount, err := severanceAmount(emp.MonthlySalary, rule.Formula, t)
	if err != nil {
		return decimal.Zero, err
	}
	return generic.ClampZero(amount), nil
}

func severanceAmount(salary decimal.Decimal, formula rules.SeverancePolicy, t generic.Tenure) (decimal.Decimal, error) {
	years := t.Years

	switch p := formula.(type) {
	case rules.FGTSBased:
		balance := salary.Mul(fgtsContributionRate).Mul(monthsPerYear).Mul(years)
		return balance.Mul(generic.Percent(p.PenaltyPercent)), nil

	case rules.TieredFraction:
		if years.LessThanOrEqual(p.BreakpointYears) {
			return p.FirstRate.Mul(salary).Mul(years), nil
		}
		first := p.FirstRate.Mul(salary).Mul(p.BreakpointYears)
		later := p.LaterRate.Mul(salary).Mul(years.Sub(p.BreakpointYears))
		return first.Add(later), nil

	case rules.MarketPractice:
		if p.WeeksPerYear.IsPositive() {
			return salary.Div(weeksPerMonth).Mul(p.WeeksPerYear).Mul(years), nil
		}
		return p.MonthsPerYear.Mul(salary).Mul(years), nil

	case rules.Gratuity:
		if years.LessThan(p.MinYears) {
			return decimal.Zero, nil
		}
		return p.DaysPerYear.Mul(salary.Div(p.WorkingDays)).Mul(years), nil

	case rules.OneMonthPerYear:
		return salary.Mul(decimal.Max(decimal.NewFromInt(1), years)), nil

	case rules.ConstitutionalPlusSeniority:
		constitutional := p.ConstitutionalMonths.Mul(salary)
		seniority := salary.Div(calendarDaysPerMonth).Mul(p.SeniorityDaysPerYear).Mul(years)
		return constitutional.Add(seniority), nil

	case rules.StatutoryRedundancyCapped:
		weekly := decimal.Min(salary.Div(weeksPerMonth), p.WeeklyCap)
		counted := decimal.Min(years, p.MaxYears)
		return weekly.Mul(counted), nil

	case rules.TransitionPaymentCapped:
		payment := p.MonthsPerYear.Mul(salary).Mul(years)
		return decimal.Min(payment, p.Cap), nil

	case rules.NSEScale:
		idx, ok := NSEScaleIndex(years, len(p.WeeksByYear))
		if !ok {
			return decimal.Zero, nil
		}
		weeks := decimal.NewFromInt(int64(p.WeeksByYear[idx]))
		return salary.Div(weeksPerMonth).Mul(weeks), nil

	default:
		return decimal.Zero, fmt.Errorf("%w: unsupported severance formula %T", generic.ErrInvalidRule, formula)
	}
}

// NSEScaleIndex returns the scale entry for the given tenure:
// min(floor(years) - 1, scaleLen - 1). It reports false below one completed
// year or for an empty scale.
func NSEScaleIndex(years decimal.Decimal, scaleLen int) (int, bool) {
	completed := int(years.Floor().IntPart())
	if completed < 1 || scaleLen == 0 {
		return 0, false
	}
	idx := completed - 1
	if idx > scaleLen-1 {
		idx = scaleLen - 1
	}
	return idx, true
}
