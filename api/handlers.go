/*
handlers.go - HTTP API handlers for the liability engine

PURPOSE:
  Exposes the liability engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to the engine and aggregator. Results
  are never stored; every GET recomputes from the stored configuration.

ENDPOINTS:
  Employees:
    GET    /api/employees                   List the roster
    POST   /api/employees                   Create or replace an employee
    GET    /api/employees/{id}              Get employee details
    DELETE /api/employees/{id}              Remove an employee
    GET    /api/employees/{id}/liability    Liability breakdown (?as_of=)

  Catalog:
    GET    /api/countries                   Rule sets with reference summary
    POST   /api/countries                   Create or replace a rule set (factory JSON)
    GET    /api/countries/{code}            One rule set
    GET    /api/fx                          FX table
    PUT    /api/fx/{currency}               Set one quote

  Portfolio:
    GET    /api/portfolio                   Aggregate the stored roster (?as_of=)
    POST   /api/portfolio/evaluate          Aggregate employees from the body

ARCHITECTURE:
  Handler holds the store, the rule factory and an aggregator built from
  the stored catalog. The aggregator is cached and dropped after every
  catalog or FX write, so the next request rebuilds it.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Invalid employee, date, rule, unknown country or currency
  - 404: Employee or country not found
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/warp/liability-engine/factory"
	"github.com/warp/liability-engine/generic"
	"github.com/warp/liability-engine/liability"
	"github.com/warp/liability-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// HandlerConfig carries engine settings from the service config.
type HandlerConfig struct {
	ReportingCurrency string
	StrictFX          bool
	Workers           int
	Logger            zerolog.Logger
	Recorder          liability.Recorder
	// Clock overrides the engine clock; tests pin it.
	Clock func() generic.TimePoint
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   *sqlite.Store
	Factory *factory.RuleFactory

	cfg HandlerConfig
	log zerolog.Logger

	mu         sync.RWMutex
	aggregator *liability.Aggregator

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler creates a new handler with the given store.
func NewHandler(store *sqlite.Store, cfg HandlerConfig) *Handler {
	if cfg.ReportingCurrency == "" {
		cfg.ReportingCurrency = generic.DefaultReportingCurrency
	}
	return &Handler{
		Store:   store,
		Factory: factory.NewRuleFactory(),
		cfg:     cfg,
		log:     cfg.Logger.With().Str("component", "api").Logger(),
	}
}

// Aggregator returns the cached aggregator, building it from the store when
// the catalog changed since the last call.
func (h *Handler) Aggregator(ctx context.Context) (*liability.Aggregator, error) {
	h.mu.RLock()
	agg := h.aggregator
	h.mu.RUnlock()
	if agg != nil {
		return agg, nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.aggregator != nil {
		return h.aggregator, nil
	}

	cat, quotes, err := h.Store.LoadCatalog(ctx, h.Factory)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	policy := generic.UnknownCurrencyDefault
	if h.cfg.StrictFX {
		policy = generic.UnknownCurrencyStrict
	}
	var opts []liability.Option
	if h.cfg.Clock != nil {
		opts = append(opts, liability.WithClock(h.cfg.Clock))
	}
	engine := liability.NewEngine(cat, generic.NewConverter(h.cfg.ReportingCurrency, quotes, policy), opts...)
	h.aggregator = liability.NewAggregator(engine,
		liability.WithWorkers(h.cfg.Workers),
		liability.WithLogger(h.cfg.Logger),
		liability.WithRecorder(h.cfg.Recorder),
	)
	h.log.Debug().Int("countries", len(cat)).Int("fx_quotes", len(quotes)).Msg("engine rebuilt")
	return h.aggregator, nil
}

// invalidate drops the cached aggregator after a catalog write.
func (h *Handler) invalidate() {
	h.mu.Lock()
	h.aggregator = nil
	h.mu.Unlock()
}

// =============================================================================
// HEALTH
// =============================================================================

// Health reports whether the store answers.
// GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "Database unavailable", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns the roster.
// GET /api/employees
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = employeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateEmployee creates or replaces an employee.
// POST /api/employees
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req EmployeeDTO
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	emp, err := req.ToEmployee()
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid employee", err)
		return
	}
	if err := h.Store.SaveEmployee(r.Context(), emp); err != nil {
		writeDomainError(w, "Failed to save employee", err)
		return
	}
	writeJSON(w, http.StatusCreated, employeeDTO(emp))
}

// GetEmployee returns one employee.
// GET /api/employees/{id}
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	emp, err := h.Store.GetEmployee(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Failed to get employee", err)
		return
	}
	writeJSON(w, http.StatusOK, employeeDTO(*emp))
}

// DeleteEmployee removes an employee.
// DELETE /api/employees/{id}
func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteEmployee(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, "Failed to delete employee", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetEmployeeLiability evaluates one stored employee.
// GET /api/employees/{id}/liability?as_of=YYYY-MM-DD
func (h *Handler) GetEmployeeLiability(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	asOf, err := parseAsOf(r.URL.Query().Get("as_of"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid as_of", err)
		return
	}
	emp, err := h.Store.GetEmployee(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "Failed to get employee", err)
		return
	}
	agg, err := h.Aggregator(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build engine", err)
		return
	}

	result, err := agg.Engine().Evaluate(*emp, asOf)
	if err != nil {
		writeDomainError(w, "Failed to evaluate employee", err)
		return
	}
	writeJSON(w, http.StatusOK, resultDTO(result))
}

// =============================================================================
// CATALOG HANDLERS
// =============================================================================

// ListCountries returns every stored rule set with its reference summary.
// GET /api/countries
func (h *Handler) ListCountries(w http.ResponseWriter, r *http.Request) {
	records, err := h.Store.ListCountries(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list countries", err)
		return
	}

	dtos := make([]CountryDTO, 0, len(records))
	for _, rec := range records {
		rs, err := h.Factory.ParseCountry(rec.ConfigJSON)
		if err != nil {
			h.log.Warn().Err(err).Str("country", rec.Code).Msg("stored rule set no longer parses")
			continue
		}
		dtos = append(dtos, NewCountryDTO(h.Factory, rs, rec.Version))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetCountry returns one rule set.
// GET /api/countries/{code}
func (h *Handler) GetCountry(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Store.GetCountry(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeDomainError(w, "Failed to get country", err)
		return
	}
	rs, err := h.Factory.ParseCountry(rec.ConfigJSON)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Stored rule set is invalid", err)
		return
	}
	writeJSON(w, http.StatusOK, NewCountryDTO(h.Factory, rs, rec.Version))
}

// CreateCountry validates and stores a rule set.
// POST /api/countries
func (h *Handler) CreateCountry(w http.ResponseWriter, r *http.Request) {
	var req factory.CountryJSON
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	rs, err := h.Factory.FromJSON(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid rule set", err)
		return
	}
	if err := h.Store.SaveRuleSet(r.Context(), h.Factory, rs); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save country", err)
		return
	}
	h.invalidate()

	rec, err := h.Store.GetCountry(r.Context(), rs.Code)
	version := 0
	if err == nil {
		version = rec.Version
	}
	h.log.Info().Str("country", rs.Code).Int("version", version).Msg("rule set saved")
	writeJSON(w, http.StatusCreated, NewCountryDTO(h.Factory, rs, version))
}

// ListFXRates returns the FX table.
// GET /api/fx
func (h *Handler) ListFXRates(w http.ResponseWriter, r *http.Request) {
	quotes, err := h.Store.FXQuotes(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list FX rates", err)
		return
	}
	writeJSON(w, http.StatusOK, fxRateDTOs(quotes))
}

// PutFXRate sets the quote of one currency.
// PUT /api/fx/{currency}
func (h *Handler) PutFXRate(w http.ResponseWriter, r *http.Request) {
	currency := strings.ToUpper(chi.URLParam(r, "currency"))
	var req PutFXRateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	row := factory.FXJSON{Currency: currency, Rate: req.Rate, Volatility: req.Volatility}
	q, err := factory.ParseFXRow(row)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid FX rate", err)
		return
	}
	if err := h.Store.SaveFXRate(r.Context(), sqlite.FXRateRecord{
		Currency: currency, Rate: q.Rate, Volatility: q.Volatility,
	}); err != nil {
		writeDomainError(w, "Failed to save FX rate", err)
		return
	}
	h.invalidate()
	writeJSON(w, http.StatusOK, fxRateDTOs(map[string]generic.FXQuote{currency: q})[0])
}

// =============================================================================
// PORTFOLIO HANDLERS
// =============================================================================

// GetPortfolio aggregates the stored roster.
// GET /api/portfolio?as_of=YYYY-MM-DD
func (h *Handler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	asOf, err := parseAsOf(r.URL.Query().Get("as_of"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid as_of", err)
		return
	}
	employees, err := h.Store.ListEmployees(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}
	h.aggregate(w, r, liability.Roster(employees), asOf)
}

// EvaluatePortfolio aggregates the employees in the request body without
// storing them. A malformed record becomes a failure of that employee only.
// POST /api/portfolio/evaluate
func (h *Handler) EvaluatePortfolio(w http.ResponseWriter, r *http.Request) {
	var req EvaluateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	asOf, err := parseAsOf(req.AsOf)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid as_of", err)
		return
	}

	h.aggregate(w, r, NewRosterEntries(req.Employees), asOf)
}

func (h *Handler) aggregate(w http.ResponseWriter, r *http.Request, roster []liability.RosterEntry, asOf generic.TimePoint) {
	agg, err := h.Aggregator(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to build engine", err)
		return
	}
	portfolio, err := agg.AggregateRoster(r.Context(), roster, asOf)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to aggregate portfolio", err)
		return
	}
	writeJSON(w, http.StatusOK, NewPortfolioDTO(portfolio))
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError picks the status from the error's classification.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	writeError(w, statusFor(err), message, err)
}

func statusFor(err error) int {
	switch {
	case generic.IsNotFound(err):
		return http.StatusNotFound
	case generic.IsClientError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("empty body")
		}
		return err
	}
	return nil
}

// parseAsOf returns the zero TimePoint for an empty string; the engine then
// uses its clock.
func parseAsOf(s string) (generic.TimePoint, error) {
	if s == "" {
		return generic.TimePoint{}, nil
	}
	return generic.ParseDate(s)
}

