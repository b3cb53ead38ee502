/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built rosters that populate the database with realistic
	data for demos. Every scenario first restores the default 10-country
	catalog and FX table, then writes its employees.

AVAILABLE SCENARIOS:

	sample-portfolio: 25 employees across all ten countries
	single-country:   A Brazilian team (100% concentration alert)
	empty:            Catalog only, no employees

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "sample-portfolio"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Add the roster to scenarioRoster

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: Portfolio endpoints that evaluate the loaded roster
  - rules/catalog.go: The default catalog seeded here
*/
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/warp/liability-engine/factory"
	"github.com/warp/liability-engine/generic"
	"github.com/warp/liability-engine/liability"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "sample-portfolio",
		Name:        "Sample Portfolio",
		Description: "25 employees across Brazil, France, Germany, India, Philippines, Mexico, UK, Netherlands, Singapore and Australia",
		Employees:   len(SamplePortfolio()),
	},
	{
		ID:          "single-country",
		Name:        "Single Country",
		Description: "Brazilian team only; the whole liability sits in one country",
		Employees:   len(singleCountry()),
	},
	{
		ID:          "empty",
		Name:        "Empty Roster",
		Description: "Default catalog and FX table without employees",
	},
}

// ListScenarios returns available scenarios.
// GET /api/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
// GET /api/scenarios/current
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	current := h.currentScenario
	h.mu.RUnlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario resets the database and loads a scenario.
// POST /api/scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	roster, ok := scenarioRoster(req.ScenarioID)
	if !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", fmt.Errorf("scenario %q", req.ScenarioID))
		return
	}
	if err := h.LoadRoster(r.Context(), roster); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
		return
	}

	h.mu.Lock()
	h.currentScenario = req.ScenarioID
	h.mu.Unlock()

	h.log.Info().Str("scenario", req.ScenarioID).Int("employees", len(roster)).Msg("scenario loaded")
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "loaded",
		"scenario":  req.ScenarioID,
		"employees": len(roster),
	})
}

// ResetDatabase restores the default catalog and clears the roster.
// POST /api/scenarios/reset
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.LoadRoster(r.Context(), nil); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.mu.Lock()
	h.currentScenario = ""
	h.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// LoadRoster wipes the store, seeds the default catalog and saves roster.
func (h *Handler) LoadRoster(ctx context.Context, roster []liability.Employee) error {
	if err := h.Store.Reset(ctx); err != nil {
		return err
	}
	if err := h.Store.SeedCatalog(ctx, h.Factory, factory.DefaultCatalog()); err != nil {
		return err
	}
	h.invalidate()
	for _, emp := range roster {
		if err := h.Store.SaveEmployee(ctx, emp); err != nil {
			return err
		}
	}
	return nil
}

func scenarioRoster(id string) ([]liability.Employee, bool) {
	switch id {
	case "sample-portfolio":
		return SamplePortfolio(), true
	case "single-country":
		return singleCountry(), true
	case "empty":
		return nil, true
	default:
		return nil, false
	}
}

// =============================================================================
// ROSTERS
// =============================================================================

func sampleEmployee(id, name, country, start string, salary int64, currency, dept, level string, age int) liability.Employee {
	return liability.Employee{
		ID:            id,
		Name:          name,
		CountryCode:   country,
		HireDate:      generic.MustParseDate(start),
		MonthlySalary: decimal.NewFromInt(salary),
		Currency:      currency,
		Department:    dept,
		JobLevel:      level,
		Age:           age,
	}
}

// SamplePortfolio is the 25-employee demo roster.
func SamplePortfolio() []liability.Employee {
	return []liability.Employee{
		sampleEmployee("EMP001", "Maria Santos", "BR", "2021-03-15", 18500, "BRL", "Engineering", "senior", 34),
		sampleEmployee("EMP002", "Jean-Pierre Dubois", "FR", "2019-06-01", 6200, "EUR", "Product", "lead", 42),
		sampleEmployee("EMP003", "Hans Mueller", "DE", "2018-01-10", 7500, "EUR", "Engineering", "principal", 51),
		sampleEmployee("EMP004", "Priya Sharma", "IN", "2020-08-20", 185000, "INR", "Operations", "manager", 38),
		sampleEmployee("EMP005", "Miguel Rodriguez", "MX", "2022-05-01", 65000, "MXN", "Sales", "senior", 29),
		sampleEmployee("EMP006", "Anna Garcia", "PH", "2021-11-15", 95000, "PHP", "Customer Success", "specialist", 27),
		sampleEmployee("EMP007", "James Wilson", "GB", "2017-09-01", 5800, "GBP", "Finance", "director", 48),
		sampleEmployee("EMP008", "Sophie van der Berg", "NL", "2020-02-14", 5500, "EUR", "HR", "manager", 35),
		sampleEmployee("EMP009", "David Chen", "SG", "2019-04-01", 9500, "SGD", "Engineering", "staff", 31),
		sampleEmployee("EMP010", "Emma Thompson", "AU", "2016-07-22", 11500, "AUD", "Marketing", "head", 44),
		sampleEmployee("EMP011", "Lucas Oliveira", "BR", "2023-01-09", 12000, "BRL", "Engineering", "mid", 26),
		sampleEmployee("EMP012", "Marie Lefevre", "FR", "2022-11-01", 4800, "EUR", "Design", "senior", 33),
		sampleEmployee("EMP013", "Thomas Schmidt", "DE", "2020-06-15", 5200, "EUR", "Support", "specialist", 28),
		sampleEmployee("EMP014", "Amit Patel", "IN", "2018-03-01", 320000, "INR", "Engineering", "principal", 45),
		sampleEmployee("EMP015", "Carlos Hernandez", "MX", "2021-08-10", 48000, "MXN", "Operations", "coordinator", 31),
		sampleEmployee("EMP016", "Grace Reyes", "PH", "2020-01-20", 120000, "PHP", "Finance", "senior", 36),
		sampleEmployee("EMP017", "Oliver Brown", "GB", "2023-03-15", 4200, "GBP", "Engineering", "mid", 25),
		sampleEmployee("EMP018", "Daan de Vries", "NL", "2018-09-01", 6800, "EUR", "Product", "senior", 39),
		sampleEmployee("EMP019", "Rachel Tan", "SG", "2022-07-01", 7200, "SGD", "Sales", "manager", 32),
		sampleEmployee("EMP020", "Michael Roberts", "AU", "2019-11-11", 9800, "AUD", "Engineering", "senior", 37),
		sampleEmployee("EMP021", "Fernanda Costa", "BR", "2017-05-20", 25000, "BRL", "Product", "director", 41),
		sampleEmployee("EMP022", "Pierre Martin", "FR", "2016-12-01", 8500, "EUR", "Engineering", "staff", 52),
		sampleEmployee("EMP023", "Julia Becker", "DE", "2021-04-01", 4800, "EUR", "Marketing", "specialist", 30),
		sampleEmployee("EMP024", "Ravi Kumar", "IN", "2019-10-15", 210000, "INR", "Product", "lead", 40),
		sampleEmployee("EMP025", "Isabella Morales", "MX", "2020-03-01", 72000, "MXN", "Engineering", "senior", 34),
	}
}

func singleCountry() []liability.Employee {
	var team []liability.Employee
	for _, e := range SamplePortfolio() {
		if e.CountryCode == "BR" {
			team = append(team, e)
		}
	}
	return team
}
