package liability_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/liability-engine/generic"
	"github.com/warp/liability-engine/liability"
	"github.com/warp/liability-engine/rules"
)

var portfolioDate = date(2025, time.June, 30)

type recordingRecorder struct {
	mu        sync.Mutex
	outcomes  map[string]int
	alerts    map[string]int
	portfolio int
}

func newRecordingRecorder() *recordingRecorder {
	return &recordingRecorder{outcomes: map[string]int{}, alerts: map[string]int{}}
}

func (r *recordingRecorder) EmployeeEvaluated(country, outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes[outcome]++
}

func (r *recordingRecorder) AlertRaised(kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.alerts[kind]++
}

func (r *recordingRecorder) PortfolioEvaluated(time.Duration, float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.portfolio++
}

func mixedRoster(n int) []liability.Employee {
	codes := rules.DefaultCatalog().Codes()
	roster := make([]liability.Employee, 0, n)
	for i := 0; i < n; i++ {
		code := codes[i%len(codes)]
		roster = append(roster, liability.Employee{
			ID:            fmt.Sprintf("EMP%03d", i+1),
			Name:          fmt.Sprintf("Employee %d", i+1),
			CountryCode:   code,
			HireDate:      date(2010+i%12, time.Month(1+i%12), 1+i%28),
			MonthlySalary: decimal.NewFromInt(int64(3000 + 1000*i)),
			Currency:      rules.DefaultCatalog()[code].Currency,
			JobLevel:      "mid",
			Age:           30 + i,
		})
	}
	return roster
}

func percentSum(p *liability.PortfolioResult) float64 {
	sum := decimal.Zero
	for _, c := range p.ByCountry {
		sum = sum.Add(c.Percent)
	}
	return sum.InexactFloat64()
}

// =============================================================================
// ROLLUPS
// =============================================================================

func TestAggregate_SingleEmployee_FullConcentration(t *testing.T) {
	// GIVEN: a portfolio of one
	agg := liability.NewAggregator(newTestEngine())
	emp := employee("PH", 40000)
	emp.Currency = "PHP"

	// WHEN: aggregated
	p, err := agg.Aggregate(context.Background(), []liability.Employee{emp}, portfolioDate)
	require.NoError(t, err)

	// THEN: the country holds 100% and a critical concentration alert fires
	require.Contains(t, p.ByCountry, "PH")
	assertAmount(t, 100, p.ByCountry["PH"].Percent)
	assert.Equal(t, 1, p.ByCountry["PH"].EmployeeCount)
	assert.Equal(t, []string{"emp-1"}, p.ByCountry["PH"].EmployeeIDs)

	require.NotEmpty(t, p.Alerts)
	assert.Equal(t, liability.AlertConcentration, p.Alerts[0].Kind)
	assert.Equal(t, liability.SeverityCritical, p.Alerts[0].Severity)
	assert.Equal(t, "PH", p.Alerts[0].Subject)
}

func TestAggregate_PercentsSumToHundred(t *testing.T) {
	agg := liability.NewAggregator(newTestEngine(), liability.WithWorkers(3))

	p, err := agg.Aggregate(context.Background(), mixedRoster(25), portfolioDate)
	require.NoError(t, err)
	require.True(t, p.Total.IsPositive())

	assert.InDelta(t, 100, percentSum(p), 1e-6)
	assert.Len(t, p.ByCountry, 10)
	assert.Equal(t, 25, p.Headcount)

	total := decimal.Zero
	for _, c := range p.ByCountry {
		total = total.Add(c.Total)
	}
	assertAmount(t, p.Total.InexactFloat64(), total)
}

func TestAggregate_ZeroTotal_ZeroPercents(t *testing.T) {
	// GIVEN: an employee whose every component is zero
	emp := employee("PH", 0)
	emp.Currency = "PHP"

	p, err := liability.NewAggregator(newTestEngine()).Aggregate(context.Background(), []liability.Employee{emp}, portfolioDate)
	require.NoError(t, err)

	// THEN: no division by zero, no concentration alert
	assert.True(t, p.Total.IsZero())
	assert.InDelta(t, 0, percentSum(p), 1e-9)
	for _, a := range p.Alerts {
		assert.NotEqual(t, liability.AlertConcentration, a.Kind)
	}
}

func TestAggregate_EmptyPortfolio(t *testing.T) {
	p, err := liability.NewAggregator(newTestEngine()).Aggregate(context.Background(), nil, portfolioDate)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Headcount)
	assert.True(t, p.Total.IsZero())
	assert.True(t, p.AverageRisk.IsZero())
	assert.Empty(t, p.Alerts)
	assert.NotEmpty(t, p.RunID)
}

func TestAggregate_PreservesInputOrderAndIsDeterministic(t *testing.T) {
	roster := mixedRoster(40)
	agg := liability.NewAggregator(newTestEngine(), liability.WithWorkers(8))

	first, err := agg.Aggregate(context.Background(), roster, portfolioDate)
	require.NoError(t, err)
	second, err := agg.Aggregate(context.Background(), roster, portfolioDate)
	require.NoError(t, err)

	require.Len(t, first.Results, len(roster))
	for i, r := range first.Results {
		assert.Equal(t, roster[i].ID, r.EmployeeID)
	}
	assert.True(t, first.Total.Equal(second.Total))
	assert.Equal(t, first.Alerts, second.Alerts)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestAggregate_RiskStatistics(t *testing.T) {
	p, err := liability.NewAggregator(newTestEngine()).Aggregate(context.Background(), mixedRoster(12), portfolioDate)
	require.NoError(t, err)

	high := 0
	sum := 0.0
	for _, r := range p.Results {
		if r.RiskScore.GreaterThan(decimal.NewFromInt(70)) {
			high++
		}
		sum += r.RiskScore.InexactFloat64()
	}
	assert.Equal(t, high, p.HighRiskCount)
	assert.InDelta(t, sum/float64(len(p.Results)), p.AverageRisk.InexactFloat64(), 1e-6)
}

// =============================================================================
// FAILURE ISOLATION
// =============================================================================

func TestAggregate_IsolatesFailures(t *testing.T) {
	// GIVEN: one good employee between two bad ones
	unknown := employee("ZZ", 1000)
	unknown.ID = "bad-country"
	good := employee("FR", 6000)
	good.ID = "good"
	future := employee("DE", 5000)
	future.ID = "bad-date"
	future.HireDate = date(2030, time.January, 1)

	recorder := newRecordingRecorder()
	agg := liability.NewAggregator(newTestEngine(), liability.WithRecorder(recorder))

	// WHEN: aggregated
	p, err := agg.Aggregate(context.Background(), []liability.Employee{unknown, good, future}, portfolioDate)

	// THEN: the run succeeds with the good result and two recorded failures
	require.NoError(t, err)
	require.Len(t, p.Results, 1)
	assert.Equal(t, "good", p.Results[0].EmployeeID)

	require.Len(t, p.Failures, 2)
	assert.Equal(t, "bad-country", p.Failures[0].EmployeeID)
	assert.ErrorIs(t, p.Failures[0], generic.ErrUnknownCountry)
	assert.Equal(t, "bad-date", p.Failures[1].EmployeeID)
	assert.ErrorIs(t, p.Failures[1], generic.ErrInvalidDate)

	assert.Equal(t, 1, recorder.outcomes["ok"])
	assert.Equal(t, 2, recorder.outcomes["error"])
	assert.Equal(t, 1, recorder.portfolio)
}

func TestAggregateRoster_DecodingFailureKeepsItsPosition(t *testing.T) {
	// GIVEN: a record that failed to decode between two valid employees
	first := employee("FR", 6000)
	first.ID = "first"
	last := employee("NL", 5000)
	last.ID = "last"
	decodeErr := fmt.Errorf("%w: start_date %q", generic.ErrInvalidEmployee, "2021-13-45")
	roster := []liability.RosterEntry{
		{Employee: first},
		{Employee: liability.Employee{ID: "broken", CountryCode: "BR"}, Err: decodeErr},
		{Employee: last},
	}

	recorder := newRecordingRecorder()
	agg := liability.NewAggregator(newTestEngine(), liability.WithRecorder(recorder))

	// WHEN: aggregated
	p, err := agg.AggregateRoster(context.Background(), roster, portfolioDate)

	// THEN: both valid employees are evaluated and the broken one is a failure
	require.NoError(t, err)
	require.Len(t, p.Results, 2)
	assert.Equal(t, "first", p.Results[0].EmployeeID)
	assert.Equal(t, "last", p.Results[1].EmployeeID)
	require.Len(t, p.Failures, 1)
	assert.Equal(t, "broken", p.Failures[0].EmployeeID)
	assert.ErrorIs(t, p.Failures[0], generic.ErrInvalidEmployee)
	assert.Equal(t, 2, recorder.outcomes["ok"])
	assert.Equal(t, 1, recorder.outcomes["error"])
}

func TestAggregate_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := liability.NewAggregator(newTestEngine()).Aggregate(ctx, mixedRoster(5), portfolioDate)
	assert.ErrorIs(t, err, context.Canceled)
}

// =============================================================================
// ALERTS
// =============================================================================

func TestAggregate_AlertKindsAndOrder(t *testing.T) {
	// GIVEN: a senior UK employee with a large exposure, a Brazilian employee
	// in a volatile currency and one paid in an unconfigured currency
	uk := liability.Employee{
		ID: "uk", Name: "Big Exposure", CountryCode: "GB",
		HireDate: date(2005, time.January, 1), MonthlySalary: decimal.NewFromInt(100000),
		Currency: "GBP", Age: 50,
	}
	br := liability.Employee{
		ID: "br", Name: "Volatile Currency", CountryCode: "BR",
		HireDate: date(2021, time.March, 15), MonthlySalary: decimal.NewFromInt(18500),
		Currency: "BRL", Age: 34,
	}
	odd := liability.Employee{
		ID: "odd", Name: "Unmapped Currency", CountryCode: "SG",
		HireDate: date(2022, time.January, 1), MonthlySalary: decimal.NewFromInt(100),
		Currency: "XYZ", Age: 28,
	}

	recorder := newRecordingRecorder()
	agg := liability.NewAggregator(newTestEngine(), liability.WithRecorder(recorder))

	// WHEN: aggregated
	p, err := agg.Aggregate(context.Background(), []liability.Employee{uk, br, odd}, portfolioDate)
	require.NoError(t, err)

	// THEN: each kind fires with its severity
	find := func(kind liability.AlertKind, subject string) *liability.Alert {
		for i := range p.Alerts {
			if p.Alerts[i].Kind == kind && p.Alerts[i].Subject == subject {
				return &p.Alerts[i]
			}
		}
		return nil
	}
	require.NotNil(t, find(liability.AlertConcentration, "GB"))
	require.NotNil(t, find(liability.AlertHighExposure, "uk"))
	assert.Equal(t, liability.SeverityCritical, find(liability.AlertHighExposure, "uk").Severity)
	require.NotNil(t, find(liability.AlertFXRisk, "br"))
	assert.Equal(t, liability.SeverityWarning, find(liability.AlertFXRisk, "br").Severity)
	require.NotNil(t, find(liability.AlertFXDefault, "odd"))
	assert.Equal(t, liability.SeverityInfo, find(liability.AlertFXDefault, "odd").Severity)
	assert.Nil(t, find(liability.AlertFXRisk, "uk"))

	// AND: concentration alerts come first, in sorted country order
	var concentration []string
	seenOther := false
	for _, a := range p.Alerts {
		if a.Kind == liability.AlertConcentration {
			assert.False(t, seenOther, "concentration alert after employee alert")
			concentration = append(concentration, a.Subject)
		} else {
			seenOther = true
		}
	}
	assert.True(t, sort.StringsAreSorted(concentration))
	assert.Equal(t, len(p.Alerts), sumCounts(recorder.alerts))
}

func sumCounts(m map[string]int) int {
	n := 0
	for _, v := range m {
		n += v
	}
	return n
}
