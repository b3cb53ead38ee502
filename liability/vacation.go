package liability

import (
	"github.com/shopspring/decimal"
	"github.com/warp/liability-engine/generic"
)

// CalculateVacation returns the payout for leave accrued since January 1:
// (annual days / 365) * days elapsed * salary / 22.
func CalculateVacation(emp Employee, annualDays decimal.Decimal, asOf generic.TimePoint) decimal.Decimal {
	elapsed := decimal.NewFromInt(int64(generic.DaysIntoYear(asOf)))
	accrued := annualDays.Div(daysPerBonusYear).Mul(elapsed)
	return generic.ClampZero(accrued.Mul(emp.MonthlySalary.Div(workingDaysPerMonth)))
}
