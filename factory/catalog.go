package factory

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/liability-engine/generic"
	"github.com/warp/liability-engine/rules"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// CATALOG FILES
// =============================================================================
//
//   reporting_currency: USD
//   unknown_currency: default        # or strict
//   fx:
//     - {currency: BRL, rate: 5.85, volatility: 0.18}
//   countries:
//     - code: BR
//       ...                          # CountryJSON fields
//
// A file may omit fx or countries. ParseCatalogYAML leaves them empty;
// LoadCatalogFile fills them from the built-in tables.

// CatalogFile is the on-disk shape of a catalog.
type CatalogFile struct {
	ReportingCurrency string        `json:"reporting_currency,omitempty" yaml:"reporting_currency,omitempty"`
	UnknownCurrency   string        `json:"unknown_currency,omitempty" yaml:"unknown_currency,omitempty"`
	FX                []FXJSON      `json:"fx,omitempty" yaml:"fx,omitempty"`
	Countries         []CountryJSON `json:"countries" yaml:"countries"`
}

// FXJSON is one FX table row. A nil volatility means the converter default.
type FXJSON struct {
	Currency   string   `json:"currency" yaml:"currency"`
	Rate       float64  `json:"rate" yaml:"rate"`
	Volatility *float64 `json:"volatility,omitempty" yaml:"volatility,omitempty"`
}

// Catalog is a parsed catalog file: rules plus the FX configuration needed
// to build a generic.Converter.
type Catalog struct {
	Rules             rules.Catalog
	Quotes            map[string]generic.FXQuote
	ReportingCurrency string
	UnknownCurrency   generic.UnknownCurrencyPolicy
}

// Converter builds the converter described by the catalog.
func (c *Catalog) Converter() *generic.Converter {
	return generic.NewConverter(c.ReportingCurrency, c.Quotes, c.UnknownCurrency)
}

// DefaultCatalog wraps the built-in rule sets and FX table.
func DefaultCatalog() *Catalog {
	return &Catalog{
		Rules:             rules.DefaultCatalog(),
		Quotes:            rules.DefaultFXQuotes(),
		ReportingCurrency: generic.DefaultReportingCurrency,
		UnknownCurrency:   generic.UnknownCurrencyDefault,
	}
}

// ParseCatalogYAML parses and validates a YAML catalog.
func (f *RuleFactory) ParseCatalogYAML(data []byte) (*Catalog, error) {
	var file CatalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog YAML: %w", err)
	}
	return f.FromCatalogFile(file)
}

// FromCatalogFile converts a decoded catalog file.
func (f *RuleFactory) FromCatalogFile(file CatalogFile) (*Catalog, error) {
	policy, err := ParseUnknownCurrencyPolicy(file.UnknownCurrency)
	if err != nil {
		return nil, err
	}

	sets := make([]*rules.CountryRuleSet, 0, len(file.Countries))
	for _, cj := range file.Countries {
		rs, err := f.FromJSON(cj)
		if err != nil {
			return nil, err
		}
		sets = append(sets, rs)
	}
	cat, err := rules.NewCatalog(sets...)
	if err != nil {
		return nil, err
	}

	quotes, err := ParseFX(file.FX)
	if err != nil {
		return nil, err
	}

	reporting := strings.ToUpper(file.ReportingCurrency)
	if reporting == "" {
		reporting = generic.DefaultReportingCurrency
	}
	return &Catalog{Rules: cat, Quotes: quotes, ReportingCurrency: reporting, UnknownCurrency: policy}, nil
}

// LoadCatalogFile reads a YAML catalog from disk. An empty countries or fx
// section falls back to the built-in tables.
func (f *RuleFactory) LoadCatalogFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	cat, err := f.ParseCatalogYAML(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(cat.Rules) == 0 {
		cat.Rules = rules.DefaultCatalog()
	}
	if len(cat.Quotes) == 0 {
		cat.Quotes = rules.DefaultFXQuotes()
	}
	return cat, nil
}

// MarshalCatalogYAML renders a catalog in the file format, countries sorted by code.
func (f *RuleFactory) MarshalCatalogYAML(c *Catalog) ([]byte, error) {
	file := CatalogFile{
		ReportingCurrency: c.ReportingCurrency,
		UnknownCurrency:   string(c.UnknownCurrency),
		FX:                FXToJSON(c.Quotes),
	}
	for _, code := range c.Rules.Codes() {
		file.Countries = append(file.Countries, f.ToJSON(c.Rules[code]))
	}
	out, err := yaml.Marshal(file)
	if err != nil {
		return nil, fmt.Errorf("failed to encode catalog YAML: %w", err)
	}
	return out, nil
}

// =============================================================================
// FX HELPERS
// =============================================================================

// ParseFX converts FX rows to quotes. Rates must be positive.
func ParseFX(rows []FXJSON) (map[string]generic.FXQuote, error) {
	quotes := make(map[string]generic.FXQuote, len(rows))
	for _, row := range rows {
		q, err := ParseFXRow(row)
		if err != nil {
			return nil, err
		}
		quotes[strings.ToUpper(row.Currency)] = q
	}
	return quotes, nil
}

// ParseFXRow validates a single FX row.
func ParseFXRow(row FXJSON) (generic.FXQuote, error) {
	if strings.TrimSpace(row.Currency) == "" {
		return generic.FXQuote{}, fmt.Errorf("%w: fx row without currency", generic.ErrInvalidRule)
	}
	if row.Rate <= 0 {
		return generic.FXQuote{}, fmt.Errorf("%w: %s rate must be positive", generic.ErrInvalidRule, row.Currency)
	}
	q := generic.FXQuote{Rate: decimal.NewFromFloat(row.Rate), Volatility: generic.DefaultVolatility}
	if row.Volatility != nil {
		if *row.Volatility < 0 {
			return generic.FXQuote{}, fmt.Errorf("%w: %s volatility must not be negative", generic.ErrInvalidRule, row.Currency)
		}
		q.Volatility = decimal.NewFromFloat(*row.Volatility)
	}
	return q, nil
}

// FXToJSON renders quotes as rows sorted by currency.
func FXToJSON(quotes map[string]generic.FXQuote) []FXJSON {
	rows := make([]FXJSON, 0, len(quotes))
	for _, code := range sortedKeys(quotes) {
		q := quotes[code]
		vol := q.Volatility.InexactFloat64()
		rows = append(rows, FXJSON{Currency: code, Rate: q.Rate.InexactFloat64(), Volatility: &vol})
	}
	return rows
}

// ParseUnknownCurrencyPolicy accepts "", "default" or "strict".
func ParseUnknownCurrencyPolicy(s string) (generic.UnknownCurrencyPolicy, error) {
	switch generic.UnknownCurrencyPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", generic.UnknownCurrencyDefault:
		return generic.UnknownCurrencyDefault, nil
	case generic.UnknownCurrencyStrict:
		return generic.UnknownCurrencyStrict, nil
	default:
		return "", fmt.Errorf("%w: unknown currency policy %q", generic.ErrInvalidRule, s)
	}
}

func sortedKeys(m map[string]generic.FXQuote) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
