package liability

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/liability-engine/generic"
	"github.com/warp/liability-engine/rules"
)

// =============================================================================
// NOTICE PERIOD
// =============================================================================

var over45MinYears = decimal.NewFromInt(2)

// CalculateNotice returns the notice days owed and their cost at the
// daily rate of monthly salary / 22.
func CalculateNotice(emp Employee, policy rules.NoticePolicy, t generic.Tenure) (Notice, error) {
	days, err := noticeDays(emp, policy, t)
	if err != nil {
		return Notice{}, err
	}
	if days < 0 {
		days = 0
	}
	daily := emp.MonthlySalary.Div(workingDaysPerMonth)
	return Notice{
		Days: days,
		Cost: generic.ClampZero(daily.Mul(decimal.NewFromInt(int64(days)))),
	}, nil
}

func noticeDays(emp Employee, policy rules.NoticePolicy, t generic.Tenure) (int, error) {
	switch p := policy.(type) {
	case rules.FlatWithAccrual:
		days := p.BaseDays + int(t.CompletedYears())*p.DaysPerYear
		if p.MaxDays > 0 && days > p.MaxDays {
			days = p.MaxDays
		}
		return days, nil

	// Tiered policies: the last tier whose threshold is met wins.
	case rules.TieredByMonths:
		days := 0
		for _, tier := range p.Tiers {
			if t.Months >= tier.MinMonths {
				days = tier.Days
			}
		}
		return days, nil

	case rules.TieredByYearsWeeks:
		weeks, matched := 0, false
		for _, tier := range p.Tiers {
			if t.Years.GreaterThanOrEqual(tier.MinYears) {
				weeks, matched = tier.Weeks, true
			}
		}
		if p.Over45ExtraWeek && matched && emp.Age > 45 && t.Years.GreaterThanOrEqual(over45MinYears) {
			weeks++
		}
		return weeks * 7, nil

	case rules.TieredByYearsWeeksPerYear:
		weeks := 0
		for _, tier := range p.Tiers {
			if t.Years.GreaterThanOrEqual(tier.MinYears) {
				weeks = tier.WeeksAt(t.Years)
			}
		}
		return weeks * 7, nil

	case rules.TieredByYearsMonths:
		months := 0
		for _, tier := range p.Tiers {
			if t.Years.GreaterThanOrEqual(tier.MinYears) {
				months = tier.Months
			}
		}
		return months * generic.DaysPerTenureMonth, nil

	case rules.TypicalWithSeniorOverride:
		if isSenior(emp.JobLevel, p.SeniorLevels) {
			return p.SeniorDays, nil
		}
		return p.TypicalDays, nil

	case rules.StandardFlat:
		return p.Days, nil

	case rules.FixedDays:
		return p.Days, nil

	default:
		return 0, fmt.Errorf("%w: unsupported notice policy %T", generic.ErrInvalidRule, policy)
	}
}

func isSenior(level string, levels []string) bool {
	if len(levels) == 0 {
		levels = rules.DefaultSeniorLevels
	}
	level = strings.TrimSpace(level)
	for _, l := range levels {
		if strings.EqualFold(level, l) {
			return true
		}
	}
	return false
}
