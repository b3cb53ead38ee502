package liability

import (
	"fmt"

	"github.com/warp/liability-engine/generic"
	"github.com/warp/liability-engine/rules"
)

// =============================================================================
// ENGINE - One employee, one reference date
// =============================================================================

// Engine evaluates employees against an injected catalog and converter.
// Both are read-only, so one Engine may be shared by many goroutines.
type Engine struct {
	catalog   rules.Catalog
	converter *generic.Converter
	scorer    RiskScorer
	clock     func() generic.TimePoint
}

type Option func(*Engine)

// WithClock replaces the source of the default reference date.
func WithClock(clock func() generic.TimePoint) Option {
	return func(e *Engine) { e.clock = clock }
}

// WithRiskScorer replaces the scoring constants. A scorer that fails
// Validate is ignored and the default scorer stays in place.
func WithRiskScorer(s RiskScorer) Option {
	return func(e *Engine) {
		if s.Validate() == nil {
			e.scorer = s
		}
	}
}

func NewEngine(catalog rules.Catalog, converter *generic.Converter, opts ...Option) *Engine {
	if converter == nil {
		converter = generic.NewConverter(generic.DefaultReportingCurrency, nil, generic.UnknownCurrencyDefault)
	}
	e := &Engine{
		catalog:   catalog,
		converter: converter,
		scorer:    DefaultRiskScorer(),
		clock:     generic.Today,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Catalog() rules.Catalog        { return e.catalog }
func (e *Engine) Converter() *generic.Converter { return e.converter }
func (e *Engine) Now() generic.TimePoint        { return e.clock() }

// Evaluate looks up the employee's country and computes the liability.
// A zero asOf means the engine clock's today.
func (e *Engine) Evaluate(emp Employee, asOf generic.TimePoint) (*Result, error) {
	if err := emp.Validate(); err != nil {
		return nil, err
	}
	rs, err := e.catalog.Lookup(emp.CountryCode)
	if err != nil {
		return nil, err
	}
	return e.EvaluateWithRules(emp, rs, asOf)
}

// EvaluateWithRules computes the liability under an explicit rule set.
// The rule set is validated first; a nil or invalid set wraps
// generic.ErrInvalidRule.
func (e *Engine) EvaluateWithRules(emp Employee, rs *rules.CountryRuleSet, asOf generic.TimePoint) (*Result, error) {
	if err := emp.Validate(); err != nil {
		return nil, err
	}
	if rs == nil {
		return nil, fmt.Errorf("%w: no rule set for employee %s", generic.ErrInvalidRule, emp.ID)
	}
	if err := rs.Validate(); err != nil {
		return nil, err
	}
	if asOf.IsZero() {
		asOf = e.clock()
	}

	tenure, err := generic.CalculateTenure(emp.HireDate, asOf)
	if err != nil {
		return nil, err
	}

	notice, err := CalculateNotice(emp, rs.Notice, tenure)
	if err != nil {
		return nil, err
	}
	severance, err := CalculateSeverance(emp, rs.Severance, tenure)
	if err != nil {
		return nil, err
	}
	bonuses, err := CalculateBonuses(emp, rs.Bonuses, asOf)
	if err != nil {
		return nil, err
	}
	vacation := CalculateVacation(emp, rs.VacationDaysPerYear, asOf)

	currency := emp.Currency
	if currency == "" {
		currency = rs.Currency
	}
	totalLocal := notice.Cost.Add(severance).Add(bonuses).Add(vacation)
	conv, err := e.converter.ToReporting(totalLocal, currency)
	if err != nil {
		return nil, err
	}

	volatility := e.converter.Volatility(currency)
	score := e.scorer.Score(conv.Reporting.Value, volatility, rs.LegalRisk)

	return &Result{
		EmployeeID:  emp.ID,
		Name:        emp.Name,
		CountryCode: rs.Code,
		CountryName: rs.Name,
		Department:  emp.Department,
		JobLevel:    emp.JobLevel,
		Currency:    currency,
		AsOf:        asOf,

		NoticeDays: notice.Days,
		NoticeCost: notice.Cost,
		Severance:  severance,
		Bonuses:    bonuses,
		Vacation:   vacation,
		TotalLocal: totalLocal,

		TotalReporting:    conv.Reporting.Value,
		ReportingCurrency: e.converter.ReportingCurrency(),
		FXRate:            conv.Rate,
		FXDefaulted:       conv.Defaulted,

		RiskScore:        score,
		RiskBand:         BandFor(score),
		Volatility:       volatility,
		VolatilityRating: generic.RateVolatility(volatility),
		LegalRisk:        rs.LegalRisk,
		TenureYears:      tenure.Years,
	}, nil
}
