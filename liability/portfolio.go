package liability

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/warp/liability-engine/generic"
	"golang.org/x/sync/errgroup"
)

// =============================================================================
// PORTFOLIO AGGREGATION
// =============================================================================
//
// Employees are evaluated on a bounded worker pool. Each worker writes only
// its own slot, and totals are summed afterwards in input order, so the
// result does not depend on scheduling.
//
// Alert thresholds:
//   concentration  country share > 30%            critical
//   high_exposure  employee total > 100,000       critical
//   fx_risk        currency volatility > 0.15     warning
//   fx_default     no rate configured, 1.0 used   info

var (
	ConcentrationThreshold = decimal.NewFromInt(30)
	HighExposureThreshold  = decimal.NewFromInt(100000)
	FXRiskThreshold        = decimal.NewFromFloat(0.15)
)

// Recorder receives aggregation telemetry. observability.Metrics implements it.
type Recorder interface {
	EmployeeEvaluated(country, outcome string)
	AlertRaised(kind string)
	PortfolioEvaluated(duration time.Duration, total float64)
}

type nopRecorder struct{}

func (nopRecorder) EmployeeEvaluated(string, string)          {}
func (nopRecorder) AlertRaised(string)                        {}
func (nopRecorder) PortfolioEvaluated(time.Duration, float64) {}

type Aggregator struct {
	engine   *Engine
	workers  int
	logger   zerolog.Logger
	recorder Recorder
}

type AggregatorOption func(*Aggregator)

// WithWorkers bounds the number of concurrent evaluations. Values below 1
// fall back to runtime.NumCPU().
func WithWorkers(n int) AggregatorOption {
	return func(a *Aggregator) {
		if n > 0 {
			a.workers = n
		}
	}
}

func WithLogger(l zerolog.Logger) AggregatorOption {
	return func(a *Aggregator) { a.logger = l }
}

func WithRecorder(r Recorder) AggregatorOption {
	return func(a *Aggregator) {
		if r != nil {
			a.recorder = r
		}
	}
}

func NewAggregator(engine *Engine, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		engine:   engine,
		workers:  runtime.NumCPU(),
		logger:   zerolog.Nop(),
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Aggregator) Engine() *Engine { return a.engine }

type outcome struct {
	result *Result
	err    error
}

// RosterEntry is one input record. An entry whose Err is set failed before
// evaluation (for example a malformed hire date) and is reported as a
// Failure in its input position.
type RosterEntry struct {
	Employee Employee
	Err      error
}

// Aggregate evaluates every employee at asOf (engine clock when zero) and
// rolls the results up by country. A failing employee is reported in
// Failures without affecting the others; only ctx cancellation aborts.
func (a *Aggregator) Aggregate(ctx context.Context, employees []Employee, asOf generic.TimePoint) (*PortfolioResult, error) {
	return a.AggregateRoster(ctx, Roster(employees), asOf)
}

// Roster wraps decoded employees as entries without errors.
func Roster(employees []Employee) []RosterEntry {
	entries := make([]RosterEntry, len(employees))
	for i, emp := range employees {
		entries[i] = RosterEntry{Employee: emp}
	}
	return entries
}

// AggregateRoster is Aggregate over records that may already carry a
// decoding error.
func (a *Aggregator) AggregateRoster(ctx context.Context, roster []RosterEntry, asOf generic.TimePoint) (*PortfolioResult, error) {
	start := time.Now()
	if asOf.IsZero() {
		asOf = a.engine.Now()
	}
	runID := uuid.NewString()
	log := a.logger.With().Str("run_id", runID).Str("as_of", asOf.String()).Logger()

	outcomes := make([]outcome, len(roster))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i := range roster {
		if roster[i].Err != nil {
			outcomes[i] = outcome{err: roster[i].Err}
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := a.engine.Evaluate(roster[i].Employee, asOf)
			outcomes[i] = outcome{result: res, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("aggregate portfolio: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("aggregate portfolio: %w", err)
	}

	portfolio := &PortfolioResult{
		RunID:             runID,
		AsOf:              asOf,
		ReportingCurrency: a.engine.Converter().ReportingCurrency(),
		Results:           make([]*Result, 0, len(roster)),
		ByCountry:         make(map[string]CountryRollup),
		Total:             decimal.Zero,
		AverageRisk:       decimal.Zero,
	}

	for i, o := range outcomes {
		emp := roster[i].Employee
		if o.err != nil {
			log.Warn().Err(o.err).Str("employee_id", emp.ID).Str("country", emp.CountryCode).
				Msg("employee evaluation failed")
			portfolio.Failures = append(portfolio.Failures, Failure{EmployeeID: emp.ID, Err: o.err})
			a.recorder.EmployeeEvaluated(emp.CountryCode, "error")
			continue
		}
		portfolio.Results = append(portfolio.Results, o.result)
		a.recorder.EmployeeEvaluated(o.result.CountryCode, "ok")
	}

	portfolio.rollup()
	portfolio.Alerts = buildAlerts(portfolio)
	for _, alert := range portfolio.Alerts {
		a.recorder.AlertRaised(string(alert.Kind))
		if alert.Kind == AlertFXDefault {
			log.Info().Str("employee_id", alert.Subject).Msg(alert.Message)
		}
	}

	elapsed := time.Since(start)
	a.recorder.PortfolioEvaluated(elapsed, portfolio.Total.InexactFloat64())
	log.Debug().
		Int("headcount", portfolio.Headcount).
		Int("failures", len(portfolio.Failures)).
		Str("total", portfolio.Total.StringFixed(2)).
		Dur("elapsed", elapsed).
		Msg("portfolio evaluated")

	return portfolio, nil
}

// rollup fills totals, country rollups and risk statistics from Results.
func (p *PortfolioResult) rollup() {
	p.Headcount = len(p.Results)

	totals := make(map[string]*CountryRollup)
	riskSum := decimal.Zero
	for _, r := range p.Results {
		p.Total = p.Total.Add(r.TotalReporting)
		riskSum = riskSum.Add(r.RiskScore)
		if r.RiskScore.GreaterThan(HighRiskThreshold) {
			p.HighRiskCount++
		}

		c, ok := totals[r.CountryCode]
		if !ok {
			c = &CountryRollup{Name: r.CountryName, Total: decimal.Zero}
			totals[r.CountryCode] = c
		}
		c.EmployeeCount++
		c.Total = c.Total.Add(r.TotalReporting)
		c.EmployeeIDs = append(c.EmployeeIDs, r.EmployeeID)
	}

	for code, c := range totals {
		c.Percent = decimal.Zero
		if p.Total.IsPositive() {
			c.Percent = c.Total.Div(p.Total).Mul(decimal.NewFromInt(100))
		}
		p.ByCountry[code] = *c
	}
	if p.Headcount > 0 {
		p.AverageRisk = riskSum.Div(decimal.NewFromInt(int64(p.Headcount)))
	}
}

// CountryCodes returns the rollup keys in sorted order.
func (p *PortfolioResult) CountryCodes() []string {
	codes := make([]string, 0, len(p.ByCountry))
	for code := range p.ByCountry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

func buildAlerts(p *PortfolioResult) []Alert {
	var alerts []Alert

	for _, code := range p.CountryCodes() {
		c := p.ByCountry[code]
		if c.Percent.GreaterThan(ConcentrationThreshold) {
			alerts = append(alerts, Alert{
				Severity: SeverityCritical,
				Kind:     AlertConcentration,
				Subject:  code,
				Message:  fmt.Sprintf("CONCENTRATION: %s holds %s%% of total liability", c.Name, c.Percent.StringFixed(1)),
			})
		}
	}

	for _, r := range p.Results {
		if r.TotalReporting.GreaterThan(HighExposureThreshold) {
			alerts = append(alerts, Alert{
				Severity: SeverityCritical,
				Kind:     AlertHighExposure,
				Subject:  r.EmployeeID,
				Message: fmt.Sprintf("HIGH EXPOSURE: %s liability %s %s",
					r.Name, r.TotalReporting.StringFixed(0), r.ReportingCurrency),
			})
		}
		if r.Volatility.GreaterThan(FXRiskThreshold) {
			alerts = append(alerts, Alert{
				Severity: SeverityWarning,
				Kind:     AlertFXRisk,
				Subject:  r.EmployeeID,
				Message:  fmt.Sprintf("FX RISK: %s exposed to high %s volatility", r.Name, r.Currency),
			})
		}
		if r.FXDefaulted {
			alerts = append(alerts, Alert{
				Severity: SeverityInfo,
				Kind:     AlertFXDefault,
				Subject:  r.EmployeeID,
				Message: fmt.Sprintf("FX DEFAULT: no %s rate configured for %s, converted at 1.0",
					r.Currency, r.Name),
			})
		}
	}
	return alerts
}
