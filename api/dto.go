/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. Amounts leave the API
  as numbers rounded to cents; dates as YYYY-MM-DD strings. Any renderer
  (dashboard, spreadsheet export, CLI) consumes the same shapes.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Employee:  EmployeeDTO (request and response)
  Results:   ResultDTO, PortfolioDTO, CountryRollupDTO, AlertDTO, FailureDTO
  Catalog:   CountryDTO (wraps factory.CountryJSON), FXRateDTO, PutFXRateRequest
  Scenarios: ScenarioDTO, LoadScenarioRequest

VALIDATION:
  Validation is done in handlers and the engine, not in DTOs.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/rules.go: CountryJSON type
*/
package api

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/warp/liability-engine/factory"
	"github.com/warp/liability-engine/generic"
	"github.com/warp/liability-engine/liability"
	"github.com/warp/liability-engine/rules"
)

// =============================================================================
// EMPLOYEES
// =============================================================================

// EmployeeDTO is an employee record in requests and responses.
type EmployeeDTO struct {
	ID            string  `json:"employee_id"`
	Name          string  `json:"name"`
	CountryCode   string  `json:"country_code"`
	HireDate      string  `json:"start_date"`
	MonthlySalary float64 `json:"monthly_salary_local"`
	Currency      string  `json:"currency,omitempty"`
	Department    string  `json:"department,omitempty"`
	JobLevel      string  `json:"job_level,omitempty"`
	Age           int     `json:"age,omitempty"`
}

// ToEmployee converts the DTO. A malformed date is an invalid employee.
func (d EmployeeDTO) ToEmployee() (liability.Employee, error) {
	hire, err := generic.ParseDate(d.HireDate)
	if err != nil {
		return liability.Employee{}, fmt.Errorf("%w: %s: start_date %q: %v", generic.ErrInvalidEmployee, d.ID, d.HireDate, err)
	}
	return liability.Employee{
		ID:            d.ID,
		Name:          d.Name,
		CountryCode:   d.CountryCode,
		HireDate:      hire,
		MonthlySalary: decimal.NewFromFloat(d.MonthlySalary),
		Currency:      d.Currency,
		JobLevel:      d.JobLevel,
		Age:           d.Age,
		Department:    d.Department,
	}, nil
}

// NewRosterEntries converts a batch of DTOs. A record that does not convert
// keeps its identifying fields and carries the conversion error, so the
// aggregator reports it as a failure and still evaluates the rest.
func NewRosterEntries(dtos []EmployeeDTO) []liability.RosterEntry {
	entries := make([]liability.RosterEntry, 0, len(dtos))
	for _, d := range dtos {
		emp, err := d.ToEmployee()
		if err != nil {
			emp = liability.Employee{ID: d.ID, Name: d.Name, CountryCode: d.CountryCode}
		}
		entries = append(entries, liability.RosterEntry{Employee: emp, Err: err})
	}
	return entries
}

func employeeDTO(e liability.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:            e.ID,
		Name:          e.Name,
		CountryCode:   e.CountryCode,
		HireDate:      e.HireDate.String(),
		MonthlySalary: e.MonthlySalary.InexactFloat64(),
		Currency:      e.Currency,
		Department:    e.Department,
		JobLevel:      e.JobLevel,
		Age:           e.Age,
	}
}

// =============================================================================
// RESULTS
// =============================================================================

// ResultDTO is one employee's liability breakdown.
type ResultDTO struct {
	EmployeeID  string  `json:"employee_id"`
	Name        string  `json:"name"`
	CountryCode string  `json:"country_code"`
	CountryName string  `json:"country_name"`
	Department  string  `json:"department,omitempty"`
	JobLevel    string  `json:"job_level,omitempty"`
	Currency    string  `json:"currency"`
	AsOf        string  `json:"as_of"`
	TenureYears float64 `json:"tenure_years"`

	NoticeDays int     `json:"notice_period_days"`
	NoticeCost float64 `json:"notice_cost_local"`
	Severance  float64 `json:"severance_local"`
	Bonuses    float64 `json:"accrued_bonuses_local"`
	Vacation   float64 `json:"accrued_vacation_local"`
	TotalLocal float64 `json:"total_liability_local"`

	TotalReporting    float64 `json:"total_liability_reporting"`
	ReportingCurrency string  `json:"reporting_currency"`
	FXRate            float64 `json:"fx_rate"`
	FXDefaulted       bool    `json:"fx_defaulted,omitempty"`

	RiskScore        float64 `json:"risk_score"`
	RiskBand         string  `json:"risk_band"`
	Volatility       float64 `json:"fx_volatility"`
	VolatilityRating string  `json:"fx_volatility_rating"`
	LegalRisk        string  `json:"legal_risk"`
}

func resultDTO(r *liability.Result) ResultDTO {
	return ResultDTO{
		EmployeeID:        r.EmployeeID,
		Name:              r.Name,
		CountryCode:       r.CountryCode,
		CountryName:       r.CountryName,
		Department:        r.Department,
		JobLevel:          r.JobLevel,
		Currency:          r.Currency,
		AsOf:              r.AsOf.String(),
		TenureYears:       rounded(r.TenureYears),
		NoticeDays:        r.NoticeDays,
		NoticeCost:        rounded(r.NoticeCost),
		Severance:         rounded(r.Severance),
		Bonuses:           rounded(r.Bonuses),
		Vacation:          rounded(r.Vacation),
		TotalLocal:        rounded(r.TotalLocal),
		TotalReporting:    rounded(r.TotalReporting),
		ReportingCurrency: r.ReportingCurrency,
		FXRate:            r.FXRate.InexactFloat64(),
		FXDefaulted:       r.FXDefaulted,
		RiskScore:         r.RiskScore.Round(1).InexactFloat64(),
		RiskBand:          string(r.RiskBand),
		Volatility:        r.Volatility.InexactFloat64(),
		VolatilityRating:  string(r.VolatilityRating),
		LegalRisk:         r.LegalRisk.Label(),
	}
}

// CountryRollupDTO is one country's share of a portfolio.
type CountryRollupDTO struct {
	Name          string   `json:"name"`
	EmployeeCount int      `json:"employee_count"`
	Total         float64  `json:"total_liability"`
	Percent       float64  `json:"percent"`
	EmployeeIDs   []string `json:"employee_ids"`
}

// AlertDTO is one threshold breach.
type AlertDTO struct {
	Severity string `json:"severity"`
	Kind     string `json:"type"`
	Subject  string `json:"subject"`
	Message  string `json:"message"`
}

// FailureDTO names an employee that could not be evaluated.
type FailureDTO struct {
	EmployeeID string `json:"employee_id"`
	Error      string `json:"error"`
}

// PortfolioDTO is the aggregated portfolio view.
type PortfolioDTO struct {
	RunID             string                      `json:"run_id"`
	AsOf              string                      `json:"as_of"`
	ReportingCurrency string                      `json:"reporting_currency"`
	Total             float64                     `json:"total_liability"`
	Headcount         int                         `json:"headcount"`
	HighRiskCount     int                         `json:"high_risk_count"`
	AverageRisk       float64                     `json:"average_risk_score"`
	CountryOrder      []string                    `json:"country_order"`
	ByCountry         map[string]CountryRollupDTO `json:"by_country"`
	Results           []ResultDTO                 `json:"employees"`
	Failures          []FailureDTO                `json:"failures"`
	Alerts            []AlertDTO                  `json:"alerts"`
}

// NewPortfolioDTO renders an aggregation run with amounts rounded to cents.
func NewPortfolioDTO(p *liability.PortfolioResult) PortfolioDTO {
	dto := PortfolioDTO{
		RunID:             p.RunID,
		AsOf:              p.AsOf.String(),
		ReportingCurrency: p.ReportingCurrency,
		Total:             rounded(p.Total),
		Headcount:         p.Headcount,
		HighRiskCount:     p.HighRiskCount,
		AverageRisk:       p.AverageRisk.Round(1).InexactFloat64(),
		CountryOrder:      p.CountryCodes(),
		ByCountry:         make(map[string]CountryRollupDTO, len(p.ByCountry)),
		Results:           make([]ResultDTO, 0, len(p.Results)),
		Failures:          make([]FailureDTO, 0, len(p.Failures)),
		Alerts:            make([]AlertDTO, 0, len(p.Alerts)),
	}
	for code, c := range p.ByCountry {
		dto.ByCountry[code] = CountryRollupDTO{
			Name:          c.Name,
			EmployeeCount: c.EmployeeCount,
			Total:         rounded(c.Total),
			Percent:       c.Percent.Round(2).InexactFloat64(),
			EmployeeIDs:   c.EmployeeIDs,
		}
	}
	for _, r := range p.Results {
		dto.Results = append(dto.Results, resultDTO(r))
	}
	for _, f := range p.Failures {
		dto.Failures = append(dto.Failures, FailureDTO{EmployeeID: f.EmployeeID, Error: f.Err.Error()})
	}
	for _, a := range p.Alerts {
		dto.Alerts = append(dto.Alerts, AlertDTO{
			Severity: string(a.Severity),
			Kind:     string(a.Kind),
			Subject:  a.Subject,
			Message:  a.Message,
		})
	}
	return dto
}

// EvaluateRequest is the ad-hoc portfolio body of POST /api/portfolio/evaluate.
type EvaluateRequest struct {
	AsOf      string        `json:"as_of,omitempty"`
	Employees []EmployeeDTO `json:"employees"`
}

// =============================================================================
// CATALOG
// =============================================================================

// CountryDTO is a stored rule set plus the reference summary shown next to it.
type CountryDTO struct {
	Code               string              `json:"code"`
	Name               string              `json:"name"`
	Currency           string              `json:"currency"`
	LegalRisk          string              `json:"legal_risk"`
	HasThirteenthMonth bool                `json:"has_thirteenth_month"`
	NoticeType         string              `json:"notice_type"`
	SeveranceFormula   string              `json:"severance_formula"`
	VacationDays       float64             `json:"vacation_days_per_year"`
	Version            int                 `json:"version,omitempty"`
	Config             factory.CountryJSON `json:"config"`
}

// NewCountryDTO renders a rule set; version is 0 for sets not read from a store.
func NewCountryDTO(f *factory.RuleFactory, rs *rules.CountryRuleSet, version int) CountryDTO {
	return CountryDTO{
		Code:               rs.Code,
		Name:               rs.Name,
		Currency:           rs.Currency,
		LegalRisk:          rs.LegalRisk.Label(),
		HasThirteenthMonth: rs.HasBonus(rules.BonusThirteenthMonth),
		NoticeType:         string(rs.Notice.NoticeKind()),
		SeveranceFormula:   string(rs.Severance.Formula.SeveranceKind()),
		VacationDays:       rs.VacationDaysPerYear.InexactFloat64(),
		Version:            version,
		Config:             f.ToJSON(rs),
	}
}

// FXRateDTO is one FX table row.
type FXRateDTO struct {
	Currency   string  `json:"currency"`
	Rate       float64 `json:"rate"`
	Volatility float64 `json:"volatility"`
	Rating     string  `json:"volatility_rating"`
}

func fxRateDTOs(quotes map[string]generic.FXQuote) []FXRateDTO {
	codes := make([]string, 0, len(quotes))
	for c := range quotes {
		codes = append(codes, c)
	}
	sort.Strings(codes)

	out := make([]FXRateDTO, 0, len(codes))
	for _, c := range codes {
		q := quotes[c]
		out = append(out, FXRateDTO{
			Currency:   c,
			Rate:       q.Rate.InexactFloat64(),
			Volatility: q.Volatility.InexactFloat64(),
			Rating:     string(generic.RateVolatility(q.Volatility)),
		})
	}
	return out
}

// PutFXRateRequest updates one quote. A nil volatility means the default.
type PutFXRateRequest struct {
	Rate       float64  `json:"rate"`
	Volatility *float64 `json:"volatility,omitempty"`
}

// =============================================================================
// SCENARIOS AND ERRORS
// =============================================================================

// ScenarioDTO describes a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Employees   int    `json:"employees"`
}

// LoadScenarioRequest selects a scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func rounded(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
