package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/liability-engine/factory"
	"github.com/warp/liability-engine/generic"
	"github.com/warp/liability-engine/liability"
	"github.com/warp/liability-engine/rules"
	"github.com/warp/liability-engine/store/sqlite"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func maria() liability.Employee {
	return liability.Employee{
		ID:            "EMP001",
		Name:          "Maria Santos",
		CountryCode:   "br",
		HireDate:      generic.NewTimePoint(2021, time.March, 15),
		MonthlySalary: decimal.RequireFromString("18500.50"),
		Currency:      "brl",
		JobLevel:      "senior",
		Age:           34,
		Department:    "Engineering",
	}
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func TestEmployees_SaveGetListDelete(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	// GIVEN: a saved employee
	require.NoError(t, s.SaveEmployee(ctx, maria()))

	// WHEN: read back
	got, err := s.GetEmployee(ctx, "EMP001")
	require.NoError(t, err)

	// THEN: decimals and dates survive exactly, codes are upper-cased
	assert.Equal(t, "BR", got.CountryCode)
	assert.Equal(t, "BRL", got.Currency)
	assert.True(t, got.MonthlySalary.Equal(decimal.RequireFromString("18500.50")))
	assert.Equal(t, "2021-03-15", got.HireDate.String())
	assert.Equal(t, 34, got.Age)

	// Upsert replaces
	updated := maria()
	updated.MonthlySalary = decimal.NewFromInt(20000)
	require.NoError(t, s.SaveEmployee(ctx, updated))
	list, err := s.ListEmployees(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].MonthlySalary.Equal(decimal.NewFromInt(20000)))

	require.NoError(t, s.DeleteEmployee(ctx, "EMP001"))
	_, err = s.GetEmployee(ctx, "EMP001")
	assert.ErrorIs(t, err, generic.ErrEmployeeNotFound)
	assert.ErrorIs(t, s.DeleteEmployee(ctx, "EMP001"), generic.ErrEmployeeNotFound)
}

func TestEmployees_RejectsInvalidRecord(t *testing.T) {
	s := newStore(t)
	bad := maria()
	bad.ID = ""

	err := s.SaveEmployee(context.Background(), bad)
	assert.ErrorIs(t, err, generic.ErrInvalidEmployee)
}

func TestEmployees_ListOrderedByID(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	for _, id := range []string{"EMP003", "EMP001", "EMP002"} {
		emp := maria()
		emp.ID = id
		require.NoError(t, s.SaveEmployee(ctx, emp))
	}

	list, err := s.ListEmployees(ctx)
	require.NoError(t, err)
	ids := make([]string, len(list))
	for i, e := range list {
		ids[i] = e.ID
	}
	assert.Equal(t, []string{"EMP001", "EMP002", "EMP003"}, ids)
}

// =============================================================================
// COUNTRIES AND FX
// =============================================================================

func TestCountries_VersionBumpsOnSave(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	f := factory.NewRuleFactory()

	require.NoError(t, s.SaveRuleSet(ctx, f, rules.Brazil()))
	require.NoError(t, s.SaveRuleSet(ctx, f, rules.Brazil()))

	rec, err := s.GetCountry(ctx, "br")
	require.NoError(t, err)
	assert.Equal(t, 2, rec.Version)
	assert.Equal(t, "Brazil", rec.Name)

	_, err = s.GetCountry(ctx, "ZZ")
	assert.ErrorIs(t, err, generic.ErrCountryNotFound)

	require.NoError(t, s.DeleteCountry(ctx, "BR"))
	n, err := s.CountryCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestFXRates_Validation(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)

	err := s.SaveFXRate(ctx, sqlite.FXRateRecord{Currency: "BRL", Rate: decimal.Zero})
	assert.ErrorIs(t, err, generic.ErrInvalidRule)

	err = s.SaveFXRate(ctx, sqlite.FXRateRecord{Currency: "BRL", Rate: decimal.NewFromInt(5), Volatility: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, generic.ErrInvalidRule)

	require.NoError(t, s.SaveFXRate(ctx, sqlite.FXRateRecord{
		Currency: "brl", Rate: decimal.RequireFromString("5.85"), Volatility: decimal.RequireFromString("0.18"),
	}))
	quotes, err := s.FXQuotes(ctx)
	require.NoError(t, err)
	require.Contains(t, quotes, "BRL")
	assert.True(t, quotes["BRL"].Rate.Equal(decimal.RequireFromString("5.85")))
}

func TestSeedAndLoadCatalog(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	f := factory.NewRuleFactory()

	// GIVEN: the default catalog seeded into the store
	require.NoError(t, s.SeedCatalog(ctx, f, factory.DefaultCatalog()))

	// WHEN: loaded back
	cat, quotes, err := s.LoadCatalog(ctx, f)
	require.NoError(t, err)

	// THEN: same countries, same quotes, same liability for a sample employee
	assert.Equal(t, rules.DefaultCatalog().Codes(), cat.Codes())
	assert.Len(t, quotes, len(rules.DefaultFXQuotes()))

	asOf := generic.NewTimePoint(2025, time.March, 15)
	stored := liability.NewEngine(cat, generic.NewConverter("USD", quotes, generic.UnknownCurrencyDefault))
	builtin := liability.NewEngine(rules.DefaultCatalog(), generic.NewConverter("USD", rules.DefaultFXQuotes(), generic.UnknownCurrencyDefault))
	for _, code := range cat.Codes() {
		emp := maria()
		emp.CountryCode = code
		emp.Currency = ""
		a, err := stored.Evaluate(emp, asOf)
		require.NoError(t, err, code)
		b, err := builtin.Evaluate(emp, asOf)
		require.NoError(t, err, code)
		assert.InDelta(t, b.TotalReporting.InexactFloat64(), a.TotalReporting.InexactFloat64(), 0.01, code)
	}
}

func TestLoadCatalog_RejectsCorruptRow(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	require.NoError(t, s.SaveCountry(ctx, sqlite.CountryRecord{
		Code: "XX", Name: "Broken", Currency: "XXX", ConfigJSON: `{"code":"XX","legal_risk":"low","notice":{"type":"nope"}}`,
	}))

	_, _, err := s.LoadCatalog(ctx, factory.NewRuleFactory())
	assert.ErrorIs(t, err, generic.ErrInvalidRule)
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	f := factory.NewRuleFactory()
	require.NoError(t, s.SeedCatalog(ctx, f, factory.DefaultCatalog()))
	require.NoError(t, s.SaveEmployee(ctx, maria()))

	require.NoError(t, s.ResetEmployees(ctx))
	list, err := s.ListEmployees(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
	n, err := s.CountryCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	require.NoError(t, s.Reset(ctx))
	n, err = s.CountryCount(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestFileDatabasePersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "liability.db")

	s, err := sqlite.New(path)
	require.NoError(t, err)
	require.NoError(t, s.SaveEmployee(ctx, maria()))
	require.NoError(t, s.Close())

	s, err = sqlite.New(path)
	require.NoError(t, err)
	defer s.Close()
	got, err := s.GetEmployee(ctx, "EMP001")
	require.NoError(t, err)
	assert.Equal(t, "Maria Santos", got.Name)
}
