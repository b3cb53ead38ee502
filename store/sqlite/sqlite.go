/*
Package sqlite provides SQLite persistence for liability configuration.

PURPOSE:
  Stores the inputs of an evaluation, never its outputs: country rule sets,
  the FX table and the employee roster. Liability results are recomputed on
  every request from these tables so a rule edit takes effect immediately.

KEY TABLES:
  countries: Rule sets as factory JSON (versioned on every save)
  fx_rates:  Rate and volatility per currency, decimal text
  employees: The roster evaluated by GET /api/portfolio

DECIMALS:
  Salaries, rates and volatilities are stored as decimal strings so nothing
  round-trips through float64.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. ":memory:" databases are pinned to a
  single connection, otherwise every pooled connection would see its own
  empty database.

WAL MODE:
  File databases are opened with WAL so readers don't block the writer.

USAGE:
  store, err := sqlite.New("./data/liability.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  cat, err := store.LoadCatalog(ctx, factory.NewRuleFactory())

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - factory/rules.go: The JSON stored in countries.config_json
  - api/handlers.go: CRUD endpoints over this store
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/liability-engine/factory"
	"github.com/warp/liability-engine/generic"
	"github.com/warp/liability-engine/liability"
	"github.com/warp/liability-engine/rules"
)

// Store persists countries, FX rates and employees.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	dsn := dbPath + "?_foreign_keys=on&_journal_mode=WAL"
	if dbPath == ":memory:" {
		dsn = "file::memory:?_foreign_keys=on"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection; used by /healthz.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Country rule sets (factory JSON)
	CREATE TABLE IF NOT EXISTS countries (
		code TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		currency TEXT NOT NULL,
		config_json TEXT NOT NULL,
		version INTEGER DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- FX table: units of currency per reporting-currency unit
	CREATE TABLE IF NOT EXISTS fx_rates (
		currency TEXT PRIMARY KEY,
		rate TEXT NOT NULL,
		volatility TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Employee roster
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		country_code TEXT NOT NULL,
		hire_date TEXT NOT NULL,
		monthly_salary TEXT NOT NULL,
		currency TEXT NOT NULL DEFAULT '',
		job_level TEXT NOT NULL DEFAULT '',
		age INTEGER NOT NULL DEFAULT 0,
		department TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_employees_country
		ON employees(country_code);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// COUNTRY STORE
// =============================================================================

// CountryRecord is a stored rule set with its JSON config.
type CountryRecord struct {
	Code       string
	Name       string
	Currency   string
	ConfigJSON string
	Version    int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// SaveCountry inserts or replaces a rule set. Every replace bumps the version.
func (s *Store) SaveCountry(ctx context.Context, c CountryRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO countries (code, name, currency, config_json, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, 1, ?, ?)
		ON CONFLICT(code) DO UPDATE SET
			name = excluded.name,
			currency = excluded.currency,
			config_json = excluded.config_json,
			version = countries.version + 1,
			updated_at = excluded.updated_at
	`

	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx, query,
		strings.ToUpper(c.Code), c.Name, strings.ToUpper(c.Currency), c.ConfigJSON, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to save country %s: %w", c.Code, err)
	}
	return nil
}

// GetCountry retrieves a rule set by code. Missing codes return
// generic.ErrCountryNotFound.
func (s *Store) GetCountry(ctx context.Context, code string) (*CountryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var c CountryRecord
	var createdAt, updatedAt string

	err := s.db.QueryRowContext(ctx,
		"SELECT code, name, currency, config_json, version, created_at, updated_at FROM countries WHERE code = ?",
		strings.ToUpper(code),
	).Scan(&c.Code, &c.Name, &c.Currency, &c.ConfigJSON, &c.Version, &createdAt, &updatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", generic.ErrCountryNotFound, code)
	}
	if err != nil {
		return nil, err
	}

	c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	c.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &c, nil
}

// ListCountries returns all rule sets ordered by code.
func (s *Store) ListCountries(ctx context.Context) ([]CountryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT code, name, currency, config_json, version, created_at, updated_at FROM countries ORDER BY code",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var countries []CountryRecord
	for rows.Next() {
		var c CountryRecord
		var createdAt, updatedAt string
		if err := rows.Scan(&c.Code, &c.Name, &c.Currency, &c.ConfigJSON, &c.Version, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		c.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		countries = append(countries, c)
	}
	return countries, rows.Err()
}

// DeleteCountry removes a rule set.
func (s *Store) DeleteCountry(ctx context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM countries WHERE code = ?", strings.ToUpper(code))
	return err
}

// =============================================================================
// FX STORE
// =============================================================================

// FXRateRecord is one stored FX quote.
type FXRateRecord struct {
	Currency   string
	Rate       decimal.Decimal
	Volatility decimal.Decimal
	UpdatedAt  time.Time
}

// SaveFXRate inserts or replaces the quote for a currency.
func (s *Store) SaveFXRate(ctx context.Context, r FXRateRecord) error {
	if !r.Rate.IsPositive() {
		return fmt.Errorf("%w: %s rate must be positive", generic.ErrInvalidRule, r.Currency)
	}
	if r.Volatility.IsNegative() {
		return fmt.Errorf("%w: %s volatility must not be negative", generic.ErrInvalidRule, r.Currency)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO fx_rates (currency, rate, volatility, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(currency) DO UPDATE SET
			rate = excluded.rate,
			volatility = excluded.volatility,
			updated_at = excluded.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		strings.ToUpper(r.Currency), r.Rate.String(), r.Volatility.String(),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save fx rate %s: %w", r.Currency, err)
	}
	return nil
}

// ListFXRates returns all quotes ordered by currency.
func (s *Store) ListFXRates(ctx context.Context) ([]FXRateRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT currency, rate, volatility, updated_at FROM fx_rates ORDER BY currency",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []FXRateRecord
	for rows.Next() {
		var r FXRateRecord
		var rate, vol, updatedAt string
		if err := rows.Scan(&r.Currency, &rate, &vol, &updatedAt); err != nil {
			return nil, err
		}
		if r.Rate, err = decimal.NewFromString(rate); err != nil {
			return nil, fmt.Errorf("corrupt rate for %s: %w", r.Currency, err)
		}
		if r.Volatility, err = decimal.NewFromString(vol); err != nil {
			return nil, fmt.Errorf("corrupt volatility for %s: %w", r.Currency, err)
		}
		r.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		out = append(out, r)
	}
	return out, rows.Err()
}

// FXQuotes returns the stored FX table keyed by currency.
func (s *Store) FXQuotes(ctx context.Context) (map[string]generic.FXQuote, error) {
	records, err := s.ListFXRates(ctx)
	if err != nil {
		return nil, err
	}
	quotes := make(map[string]generic.FXQuote, len(records))
	for _, r := range records {
		quotes[r.Currency] = generic.FXQuote{Rate: r.Rate, Volatility: r.Volatility}
	}
	return quotes, nil
}

// =============================================================================
// EMPLOYEE STORE
// =============================================================================

// SaveEmployee inserts or replaces an employee. The record is validated first.
func (s *Store) SaveEmployee(ctx context.Context, emp liability.Employee) error {
	if err := emp.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO employees
		(id, name, country_code, hire_date, monthly_salary, currency, job_level, age, department, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			country_code = excluded.country_code,
			hire_date = excluded.hire_date,
			monthly_salary = excluded.monthly_salary,
			currency = excluded.currency,
			job_level = excluded.job_level,
			age = excluded.age,
			department = excluded.department
	`

	_, err := s.db.ExecContext(ctx, query,
		emp.ID, emp.Name, strings.ToUpper(emp.CountryCode),
		emp.HireDate.String(),
		emp.MonthlySalary.String(),
		strings.ToUpper(emp.Currency), emp.JobLevel, emp.Age, emp.Department,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save employee %s: %w", emp.ID, err)
	}
	return nil
}

// GetEmployee retrieves an employee by ID. Missing IDs return
// generic.ErrEmployeeNotFound.
func (s *Store) GetEmployee(ctx context.Context, id string) (*liability.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, "SELECT "+employeeColumns+" FROM employees WHERE id = ?", id)
	emp, err := scanEmployee(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", generic.ErrEmployeeNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &emp, nil
}

// ListEmployees returns the roster ordered by ID.
func (s *Store) ListEmployees(ctx context.Context) ([]liability.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT "+employeeColumns+" FROM employees ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var employees []liability.Employee
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}

// DeleteEmployee removes an employee. Missing IDs return
// generic.ErrEmployeeNotFound.
func (s *Store) DeleteEmployee(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM employees WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", generic.ErrEmployeeNotFound, id)
	}
	return nil
}

const employeeColumns = "id, name, country_code, hire_date, monthly_salary, currency, job_level, age, department"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmployee(row rowScanner) (liability.Employee, error) {
	var emp liability.Employee
	var hireDate, salary string
	if err := row.Scan(&emp.ID, &emp.Name, &emp.CountryCode, &hireDate, &salary,
		&emp.Currency, &emp.JobLevel, &emp.Age, &emp.Department); err != nil {
		return emp, err
	}

	var err error
	if emp.HireDate, err = generic.ParseDate(hireDate); err != nil {
		return emp, fmt.Errorf("corrupt hire date for %s: %w", emp.ID, err)
	}
	if emp.MonthlySalary, err = decimal.NewFromString(salary); err != nil {
		return emp, fmt.Errorf("corrupt salary for %s: %w", emp.ID, err)
	}
	return emp, nil
}

// =============================================================================
// CATALOG
// =============================================================================

// LoadCatalog assembles the stored rule sets and FX table. Stored JSON goes
// through the factory, so a row that no longer validates is an error rather
// than a silently skipped country.
func (s *Store) LoadCatalog(ctx context.Context, f *factory.RuleFactory) (rules.Catalog, map[string]generic.FXQuote, error) {
	records, err := s.ListCountries(ctx)
	if err != nil {
		return nil, nil, err
	}
	sets := make([]*rules.CountryRuleSet, 0, len(records))
	for _, rec := range records {
		rs, err := f.ParseCountry(rec.ConfigJSON)
		if err != nil {
			return nil, nil, fmt.Errorf("stored country %s: %w", rec.Code, err)
		}
		sets = append(sets, rs)
	}
	cat, err := rules.NewCatalog(sets...)
	if err != nil {
		return nil, nil, err
	}

	quotes, err := s.FXQuotes(ctx)
	if err != nil {
		return nil, nil, err
	}
	return cat, quotes, nil
}

// SaveRuleSet stores a typed rule set as factory JSON.
func (s *Store) SaveRuleSet(ctx context.Context, f *factory.RuleFactory, rs *rules.CountryRuleSet) error {
	config, err := f.MarshalCountry(rs)
	if err != nil {
		return err
	}
	return s.SaveCountry(ctx, CountryRecord{Code: rs.Code, Name: rs.Name, Currency: rs.Currency, ConfigJSON: config})
}

// SeedCatalog writes every rule set and quote of a catalog.
func (s *Store) SeedCatalog(ctx context.Context, f *factory.RuleFactory, cat *factory.Catalog) error {
	for _, code := range cat.Rules.Codes() {
		if err := s.SaveRuleSet(ctx, f, cat.Rules[code]); err != nil {
			return err
		}
	}
	for currency, q := range cat.Quotes {
		if err := s.SaveFXRate(ctx, FXRateRecord{Currency: currency, Rate: q.Rate, Volatility: q.Volatility}); err != nil {
			return err
		}
	}
	return nil
}

// CountryCount returns the number of stored rule sets.
func (s *Store) CountryCount(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM countries").Scan(&n)
	return n, err
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"employees", "fx_rates", "countries"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// ResetEmployees clears the roster only.
func (s *Store) ResetEmployees(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM employees")
	return err
}
