/*
errors.go - Centralized error types for the liability engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Calculators and the engine wrap these errors with additional context.

ERROR CATEGORIES:
  1. Input errors - Bad dates, malformed employee records
  2. Configuration errors - Unknown country, unknown currency, invalid rules
  3. Store errors - Missing catalog or roster entries

USAGE:
  Callers match on sentinels or unwrap structured errors:

    var uc *generic.UnknownCountryError
    if errors.As(err, &uc) {
        log.Warn().Str("country", uc.Code).Msg("no rule set")
    }

    if errors.Is(err, generic.ErrInvalidDate) { ... }

SEE ALSO:
  - tenure.go: Returns InvalidDateError
  - fx.go: Returns UnknownCurrencyError under the strict policy
  - liability/engine.go: Returns UnknownCountryError
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidDate is returned when a hire date falls after the reference date.
	ErrInvalidDate = errors.New("invalid date: hire date after reference date")

	// ErrUnknownCountry is returned when no rule set exists for a country code.
	ErrUnknownCountry = errors.New("unknown country")

	// ErrUnknownCurrency is returned when no FX quote exists for a currency
	// and the converter runs with the strict policy.
	ErrUnknownCurrency = errors.New("unknown currency")

	// ErrInvalidRule is returned when a rule set is malformed or carries a
	// policy variant the calculators do not know.
	ErrInvalidRule = errors.New("invalid rule")

	// ErrInvalidEmployee is returned when an employee record cannot be evaluated.
	ErrInvalidEmployee = errors.New("invalid employee record")

	// ErrEmployeeNotFound is returned when a roster lookup misses.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrCountryNotFound is returned when a catalog lookup misses.
	ErrCountryNotFound = errors.New("country not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidDateError reports a hire date after the reference date.
type InvalidDateError struct {
	HireDate TimePoint
	AsOf     TimePoint
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("invalid date: hire date %s is after reference date %s", e.HireDate, e.AsOf)
}

func (e *InvalidDateError) Unwrap() error {
	return ErrInvalidDate
}

// UnknownCountryError reports an employee country code with no rule set.
type UnknownCountryError struct {
	Code string
}

func (e *UnknownCountryError) Error() string {
	return fmt.Sprintf("unknown country: no rule set for %q", e.Code)
}

func (e *UnknownCountryError) Unwrap() error {
	return ErrUnknownCountry
}

// UnknownCurrencyError reports a currency with no configured FX quote.
type UnknownCurrencyError struct {
	Currency string
}

func (e *UnknownCurrencyError) Error() string {
	return fmt.Sprintf("unknown currency: no FX rate for %q", e.Currency)
}

func (e *UnknownCurrencyError) Unwrap() error {
	return ErrUnknownCurrency
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrInvalidEmployee) ||
		errors.Is(err, ErrInvalidRule) ||
		errors.Is(err, ErrUnknownCountry) ||
		errors.Is(err, ErrUnknownCurrency)
}

// IsNotFound returns true if the error indicates a missing catalog or roster entry.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEmployeeNotFound) ||
		errors.Is(err, ErrCountryNotFound)
}
