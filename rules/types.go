// Package rules holds the declarative termination rules of each jurisdiction.
// A CountryRuleSet is pure data: the liability package interprets it.
package rules

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/liability-engine/generic"
)

// =============================================================================
// LEGAL RISK
// =============================================================================

type LegalRiskTier string

const (
	LegalRiskLow    LegalRiskTier = "low"
	LegalRiskMedium LegalRiskTier = "medium"
	LegalRiskHigh   LegalRiskTier = "high"
)

// ParseLegalRiskTier accepts any casing.
func ParseLegalRiskTier(s string) (LegalRiskTier, error) {
	switch tier := LegalRiskTier(strings.ToLower(s)); tier {
	case LegalRiskLow, LegalRiskMedium, LegalRiskHigh:
		return tier, nil
	}
	return "", fmt.Errorf("%w: unknown legal risk tier %q", generic.ErrInvalidRule, s)
}

// Label is the display form ("High").
func (t LegalRiskTier) Label() string {
	if t == "" {
		return ""
	}
	return strings.ToUpper(string(t[:1])) + string(t[1:])
}

// =============================================================================
// COUNTRY RULE SET
// =============================================================================

// CountryRuleSet is the complete rule record for one jurisdiction.
// It is never mutated after construction.
type CountryRuleSet struct {
	Code     string
	Name     string
	Currency string

	Notice    NoticePolicy
	Severance SeveranceRule
	Bonuses   []BonusRule

	LegalRisk           LegalRiskTier
	VacationDaysPerYear decimal.Decimal
}

// HasBonus reports whether a bonus of the given kind applies.
func (rs *CountryRuleSet) HasBonus(kind BonusKind) bool {
	for _, b := range rs.Bonuses {
		if b.BonusKind() == kind {
			return true
		}
	}
	return false
}

// Validate checks the structural invariants of a rule set: exactly one
// notice policy, exactly one severance formula, known legal risk tier,
// non-negative parameters and ascending tier thresholds.
func (rs *CountryRuleSet) Validate() error {
	if rs.Code == "" {
		return fmt.Errorf("%w: country code is required", generic.ErrInvalidRule)
	}
	if rs.Notice == nil {
		return fmt.Errorf("%w: %s has no notice policy", generic.ErrInvalidRule, rs.Code)
	}
	if rs.Severance.Formula == nil {
		return fmt.Errorf("%w: %s has no severance formula", generic.ErrInvalidRule, rs.Code)
	}
	if _, err := ParseLegalRiskTier(string(rs.LegalRisk)); err != nil {
		return fmt.Errorf("%s: %w", rs.Code, err)
	}
	if rs.VacationDaysPerYear.IsNegative() {
		return fmt.Errorf("%w: %s vacation days must not be negative", generic.ErrInvalidRule, rs.Code)
	}
	if err := rs.Notice.validate(); err != nil {
		return fmt.Errorf("%s notice: %w", rs.Code, err)
	}
	if err := rs.Severance.validate(); err != nil {
		return fmt.Errorf("%s severance: %w", rs.Code, err)
	}
	for _, b := range rs.Bonuses {
		if b == nil {
			return fmt.Errorf("%w: %s has a nil bonus rule", generic.ErrInvalidRule, rs.Code)
		}
		if err := b.validate(); err != nil {
			return fmt.Errorf("%s bonus %s: %w", rs.Code, b.BonusKind(), err)
		}
	}
	return nil
}

// =============================================================================
// CATALOG
// =============================================================================

// Catalog maps country codes to rule sets. Treat it as read-only once built;
// the engine shares it across goroutines.
type Catalog map[string]*CountryRuleSet

// NewCatalog validates each rule set and indexes it by upper-cased code.
func NewCatalog(sets ...*CountryRuleSet) (Catalog, error) {
	c := make(Catalog, len(sets))
	for _, rs := range sets {
		if err := rs.Validate(); err != nil {
			return nil, err
		}
		c[strings.ToUpper(rs.Code)] = rs
	}
	return c, nil
}

// Lookup returns the rule set for code or *generic.UnknownCountryError.
func (c Catalog) Lookup(code string) (*CountryRuleSet, error) {
	rs, ok := c[strings.ToUpper(code)]
	if !ok {
		return nil, &generic.UnknownCountryError{Code: code}
	}
	return rs, nil
}

// Codes returns the catalog's country codes in sorted order.
func (c Catalog) Codes() []string {
	codes := make([]string, 0, len(c))
	for code := range c {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

func nonNegative(name string, d decimal.Decimal) error {
	if d.IsNegative() {
		return fmt.Errorf("%w: %s must not be negative", generic.ErrInvalidRule, name)
	}
	return nil
}
