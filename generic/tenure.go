package generic

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// TENURE - Elapsed service between hire date and reference date
// =============================================================================

// Tenure is the service length every liability formula consumes.
//
//   Days:   whole days between hire date and reference date
//   Months: Days / 30, truncated
//   Years:  Days / 365.25, fractional
type Tenure struct {
	Days   int
	Months int
	Years  decimal.Decimal
}

const (
	DaysPerTenureMonth = 30
)

var DaysPerTenureYear = decimal.NewFromFloat(365.25)

// CalculateTenure derives tenure from hire to asOf. A zero asOf means today.
func CalculateTenure(hire, asOf TimePoint) (Tenure, error) {
	asOf = asOf.OrToday()
	if hire.After(asOf) {
		return Tenure{}, &InvalidDateError{HireDate: hire, AsOf: asOf}
	}

	days := DaysBetween(hire, asOf)
	return Tenure{
		Days:   days,
		Months: days / DaysPerTenureMonth,
		Years:  decimal.NewFromInt(int64(days)).Div(DaysPerTenureYear),
	}, nil
}

// CompletedYears returns the whole years of service.
func (t Tenure) CompletedYears() int64 {
	return t.Years.Floor().IntPart()
}
