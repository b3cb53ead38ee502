/*
main.go - Command-line liability evaluation

PURPOSE:
  Runs the liability engine over a roster file without a server or
  database. Useful for finance exports and for checking a catalog file
  before it is seeded into a running service.

COMMANDS:
  evaluate   Aggregate a roster and print the portfolio
  countries  Print the rule catalog

EXAMPLES:
  liabctl evaluate -employees roster.json
  liabctl evaluate -employees roster.json -catalog catalog.yaml -as-of 2025-03-15 -format yaml
  liabctl countries -catalog catalog.yaml

ROSTER FORMAT:
  A JSON array of employees in the API shape:
  [{"employee_id": "EMP001", "country_code": "BR", "start_date": "2021-03-15",
    "monthly_salary_local": 18500, "currency": "BRL"}]

SEE ALSO:
  - api/dto.go: Roster and output shapes
  - factory/catalog.go: Catalog file format
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	json "github.com/goccy/go-json"
	"github.com/warp/liability-engine/api"
	"github.com/warp/liability-engine/factory"
	"github.com/warp/liability-engine/generic"
	"github.com/warp/liability-engine/liability"
	"github.com/warp/liability-engine/observability"
	"gopkg.in/yaml.v3"
)

const usage = `usage: liabctl <command> [flags]

commands:
  evaluate   -employees roster.json [-catalog c.yaml] [-as-of YYYY-MM-DD] [-workers n] [-format json|yaml]
  countries  [-catalog c.yaml] [-format json|yaml]
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "evaluate":
		err = evaluate(os.Args[2:], os.Stdout)
	case "countries":
		err = countries(os.Args[2:], os.Stdout)
	case "-h", "--help", "help":
		fmt.Fprint(os.Stdout, usage)
		return
	default:
		err = fmt.Errorf("unknown command %q", os.Args[1])
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "liabctl: %v\n", err)
		os.Exit(1)
	}
}

// =============================================================================
// COMMANDS
// =============================================================================

func evaluate(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("evaluate", flag.ContinueOnError)
	rosterPath := fs.String("employees", "", "roster JSON file")
	catalogPath := fs.String("catalog", "", "catalog YAML file (default: built-in)")
	asOfFlag := fs.String("as-of", "", "reference date (default: today)")
	workers := fs.Int("workers", 0, "parallel evaluations (0 = GOMAXPROCS)")
	format := fs.String("format", "json", "output format: json|yaml")
	logLevel := fs.String("log-level", "warn", "log level on stderr")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *rosterPath == "" {
		return fmt.Errorf("evaluate: -employees is required")
	}

	var asOf generic.TimePoint
	if *asOfFlag != "" {
		var err error
		if asOf, err = generic.ParseDate(*asOfFlag); err != nil {
			return fmt.Errorf("-as-of: %w", err)
		}
	}

	roster, err := readRoster(*rosterPath)
	if err != nil {
		return err
	}
	cat, err := loadCatalog(*catalogPath)
	if err != nil {
		return err
	}

	log := observability.NewLoggerTo(os.Stderr, observability.LogConfig{Level: *logLevel, Format: "console"})
	agg := liability.NewAggregator(
		liability.NewEngine(cat.Rules, cat.Converter()),
		liability.WithWorkers(*workers),
		liability.WithLogger(log),
	)
	portfolio, err := agg.AggregateRoster(context.Background(), roster, asOf)
	if err != nil {
		return err
	}
	return write(out, *format, api.NewPortfolioDTO(portfolio))
}

func countries(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("countries", flag.ContinueOnError)
	catalogPath := fs.String("catalog", "", "catalog YAML file (default: built-in)")
	format := fs.String("format", "json", "output format: json|yaml")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cat, err := loadCatalog(*catalogPath)
	if err != nil {
		return err
	}
	f := factory.NewRuleFactory()
	dtos := make([]api.CountryDTO, 0, len(cat.Rules))
	for _, code := range cat.Rules.Codes() {
		dtos = append(dtos, api.NewCountryDTO(f, cat.Rules[code], 0))
	}
	return write(out, *format, dtos)
}

// =============================================================================
// HELPERS
// =============================================================================

// readRoster decodes the roster file. A record that does not convert is
// kept as a failed entry rather than failing the whole file.
func readRoster(path string) ([]liability.RosterEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}
	var dtos []api.EmployeeDTO
	if err := json.Unmarshal(data, &dtos); err != nil {
		return nil, fmt.Errorf("parse roster %s: %w", path, err)
	}
	return api.NewRosterEntries(dtos), nil
}

func loadCatalog(path string) (*factory.Catalog, error) {
	if path == "" {
		return factory.DefaultCatalog(), nil
	}
	return factory.NewRuleFactory().LoadCatalogFile(path)
}

// write prints v as indented JSON, or as YAML with the same field names.
func write(out io.Writer, format string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	switch format {
	case "json":
		_, err = fmt.Fprintln(out, string(raw))
		return err
	case "yaml":
		var doc any
		if err := json.Unmarshal(raw, &doc); err != nil {
			return err
		}
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
