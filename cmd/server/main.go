/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the Warp Liability Engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags and load config (YAML + LIABILITY_* env)
  2. Initialize logger, metrics and SQLite store
  3. Seed the rule catalog and FX table when the store has no countries
  4. Create API handler and router
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -config  YAML config file (optional)
  -port    HTTP server port, overrides config
  -db      SQLite database path, overrides config
           Use ":memory:" for in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests (server.shutdown_timeout, 30s by default)
  3. Close database connection

EXAMPLES:
  ./server -config=./config.yaml
  ./server -db=":memory:" -port=3000
  LIABILITY_LOG_FORMAT=console ./server

SEE ALSO:
  - config/config.go: Settings and env overrides
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/warp/liability-engine/api"
	"github.com/warp/liability-engine/config"
	"github.com/warp/liability-engine/factory"
	"github.com/warp/liability-engine/observability"
	"github.com/warp/liability-engine/store/sqlite"
)

func main() {
	// Flags
	configPath := flag.String("config", "", "YAML config file")
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}

	log := observability.NewLogger(observability.LogConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func run(cfg config.Config, log zerolog.Logger) error {
	if cfg.Database.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
	}

	// Initialize store
	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer store.Close()

	f := factory.NewRuleFactory()
	if err := seedIfEmpty(context.Background(), store, f, cfg.Engine.CatalogPath, log); err != nil {
		return err
	}

	metrics := observability.NewMetrics()
	handler := api.NewHandler(store, api.HandlerConfig{
		ReportingCurrency: cfg.Engine.ReportingCurrency,
		StrictFX:          cfg.Engine.StrictFX,
		Workers:           cfg.Engine.Workers,
		Logger:            log,
		Recorder:          metrics,
	})
	router := api.NewRouter(handler, metrics.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Int("port", cfg.Server.Port).
			Str("db", cfg.Database.Path).
			Str("reporting_currency", cfg.Engine.ReportingCurrency).
			Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}

// seedIfEmpty writes the catalog into a store that has no countries yet.
// catalogPath selects a YAML file; empty means the built-in tables.
func seedIfEmpty(ctx context.Context, store *sqlite.Store, f *factory.RuleFactory, catalogPath string, log zerolog.Logger) error {
	n, err := store.CountryCount(ctx)
	if err != nil {
		return fmt.Errorf("count countries: %w", err)
	}
	if n > 0 {
		log.Info().Int("countries", n).Msg("catalog loaded from store")
		return nil
	}

	cat := factory.DefaultCatalog()
	source := "built-in"
	if catalogPath != "" {
		if cat, err = f.LoadCatalogFile(catalogPath); err != nil {
			return fmt.Errorf("load catalog %s: %w", catalogPath, err)
		}
		source = catalogPath
	}
	if err := store.SeedCatalog(ctx, f, cat); err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	log.Info().
		Str("source", source).
		Int("countries", len(cat.Rules)).
		Int("fx_rates", len(cat.Quotes)).
		Msg("catalog seeded")
	return nil
}
