/*
Package liability computes termination liability per employee and across a portfolio.

PURPOSE:
  Given an employee and the rule set of their country, this package answers
  "what would it cost to terminate this person today?" The answer is broken
  down into notice pay, severance, accrued statutory bonuses and accrued
  vacation, converted to the reporting currency and scored for risk.

FLOW:
  Employee + CountryRuleSet
      -> generic.CalculateTenure
      -> CalculateNotice / CalculateSeverance / CalculateBonuses / CalculateVacation
      -> TotalLocal -> Converter.ToReporting -> RiskScorer.Score
      -> Result
  []Employee -> Aggregator -> PortfolioResult (rollups + alerts)

FIXED CONSTANTS:
  22    working days per month (notice and vacation daily rate)
  26    working days per month (gratuity, carried by the rule itself)
  30    calendar days per month (aguinaldo, seniority premium, months->days)
  4.33  weeks per month (weekly pay)
  365   days per bonus year (year progress is not leap-year adjusted)

PURITY:
  Every calculator is a pure function of its inputs. The only implicit
  input is the reference date, which defaults to the engine clock and can
  always be passed explicitly.

SEE ALSO:
  - rules/: The declarative rule sets interpreted here
  - generic/fx.go: Currency conversion and volatility ratings
*/
package liability

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/liability-engine/generic"
	"github.com/warp/liability-engine/rules"
)

var (
	workingDaysPerMonth  = decimal.NewFromInt(22)
	calendarDaysPerMonth = decimal.NewFromInt(30)
	weeksPerMonth        = decimal.NewFromFloat(4.33)
	daysPerBonusYear     = decimal.NewFromInt(365)
	monthsPerYear        = decimal.NewFromInt(12)
)

// =============================================================================
// EMPLOYEE
// =============================================================================

// Employee is supplied by the caller and never modified by the engine.
type Employee struct {
	ID            string
	Name          string
	CountryCode   string
	HireDate      generic.TimePoint
	MonthlySalary decimal.Decimal // local currency
	Currency      string          // defaults to the country's currency when empty
	JobLevel      string
	Age           int
	Department    string
}

// Validate rejects records no formula can be applied to.
func (e Employee) Validate() error {
	switch {
	case strings.TrimSpace(e.ID) == "":
		return fmt.Errorf("%w: employee id is required", generic.ErrInvalidEmployee)
	case strings.TrimSpace(e.CountryCode) == "":
		return fmt.Errorf("%w: %s has no country code", generic.ErrInvalidEmployee, e.ID)
	case e.HireDate.IsZero():
		return fmt.Errorf("%w: %s has no hire date", generic.ErrInvalidEmployee, e.ID)
	case e.MonthlySalary.IsNegative():
		return fmt.Errorf("%w: %s has a negative salary", generic.ErrInvalidEmployee, e.ID)
	case e.Age < 0:
		return fmt.Errorf("%w: %s has a negative age", generic.ErrInvalidEmployee, e.ID)
	}
	return nil
}

// =============================================================================
// RESULTS
// =============================================================================

// Notice is the paid notice window owed before termination takes effect.
type Notice struct {
	Days int
	Cost decimal.Decimal
}

type RiskBand string

const (
	RiskLow    RiskBand = "Low"
	RiskMedium RiskBand = "Medium"
	RiskHigh   RiskBand = "High"
)

// Result is the liability breakdown of one employee at one reference date.
// All component amounts are in the employee's local currency.
type Result struct {
	EmployeeID  string
	Name        string
	CountryCode string
	CountryName string
	Department  string
	JobLevel    string
	Currency    string
	AsOf        generic.TimePoint

	NoticeDays int
	NoticeCost decimal.Decimal
	Severance  decimal.Decimal
	Bonuses    decimal.Decimal
	Vacation   decimal.Decimal
	TotalLocal decimal.Decimal

	TotalReporting    decimal.Decimal
	ReportingCurrency string
	FXRate            decimal.Decimal
	FXDefaulted       bool

	RiskScore        decimal.Decimal
	RiskBand         RiskBand
	Volatility       decimal.Decimal
	VolatilityRating generic.VolatilityRating
	LegalRisk        rules.LegalRiskTier
	TenureYears      decimal.Decimal
}

// =============================================================================
// PORTFOLIO
// =============================================================================

// CountryRollup sums the results of one country.
type CountryRollup struct {
	Name          string
	EmployeeCount int
	Total         decimal.Decimal // reporting currency
	Percent       decimal.Decimal // share of the portfolio total, 0-100
	EmployeeIDs   []string
}

type AlertSeverity string

const (
	SeverityCritical AlertSeverity = "critical"
	SeverityWarning  AlertSeverity = "warning"
	SeverityInfo     AlertSeverity = "info"
)

type AlertKind string

const (
	AlertConcentration AlertKind = "concentration"
	AlertHighExposure  AlertKind = "high_exposure"
	AlertFXRisk        AlertKind = "fx_risk"
	AlertFXDefault     AlertKind = "fx_default"
)

// Alert is a threshold breach found during aggregation. Subject is the
// country code or employee ID the alert is about.
type Alert struct {
	Severity AlertSeverity
	Kind     AlertKind
	Subject  string
	Message  string
}

// Failure records an employee that could not be evaluated.
type Failure struct {
	EmployeeID string
	Err        error
}

func (f Failure) Error() string { return fmt.Sprintf("%s: %v", f.EmployeeID, f.Err) }
func (f Failure) Unwrap() error { return f.Err }

// PortfolioResult is derived from one Aggregate call and has no identity
// beyond it. Results and Failures keep the input order.
type PortfolioResult struct {
	RunID             string
	AsOf              generic.TimePoint
	ReportingCurrency string

	Results   []*Result
	Failures  []Failure
	ByCountry map[string]CountryRollup

	Total         decimal.Decimal
	Headcount     int
	HighRiskCount int
	AverageRisk   decimal.Decimal
	Alerts        []Alert
}
