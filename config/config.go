// Package config loads service settings from YAML with LIABILITY_* env overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port            int           `yaml:"port"`             // 8080
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // 30s
	} `yaml:"server"`

	Database struct {
		Path string `yaml:"path"` // "./data/liability.db", ":memory:" for demos
	} `yaml:"database"`

	Logging struct {
		Level  string `yaml:"level"`  // "info"|"debug"|"warn"|"error"
		Format string `yaml:"format"` // "json"|"console"
	} `yaml:"logging"`

	Engine struct {
		ReportingCurrency string `yaml:"reporting_currency"` // "USD"
		Workers           int    `yaml:"workers"`            // 0 = GOMAXPROCS
		StrictFX          bool   `yaml:"strict_fx"`          // reject unquoted currencies
		CatalogPath       string `yaml:"catalog_path"`       // optional YAML catalog seed
	} `yaml:"engine"`
}

func Default() Config {
	var c Config
	c.Server.Port = 8080
	c.Server.ShutdownTimeout = 30 * time.Second
	c.Database.Path = "./data/liability.db"
	c.Logging.Level = "info"
	c.Logging.Format = "json"
	c.Engine.ReportingCurrency = "USD"
	return c
}

// Load reads path (when non-empty) over the defaults, then applies env
// overrides. Unlike a missing optional file, a malformed one is an error.
func Load(path string) (Config, error) {
	c := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return c, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return c, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := c.applyEnv(); err != nil {
		return c, err
	}
	return c, c.Validate()
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("LIABILITY_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("LIABILITY_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("LIABILITY_DB_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("LIABILITY_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("LIABILITY_LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("LIABILITY_REPORTING_CURRENCY"); v != "" {
		c.Engine.ReportingCurrency = v
	}
	if v := os.Getenv("LIABILITY_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("LIABILITY_WORKERS: %w", err)
		}
		c.Engine.Workers = n
	}
	if v := os.Getenv("LIABILITY_STRICT_FX"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("LIABILITY_STRICT_FX: %w", err)
		}
		c.Engine.StrictFX = b
	}
	if v := os.Getenv("LIABILITY_CATALOG_PATH"); v != "" {
		c.Engine.CatalogPath = v
	}
	return nil
}

// Validate checks ranges the server relies on.
func (c Config) Validate() error {
	switch {
	case c.Server.Port <= 0 || c.Server.Port > 65535:
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	case c.Engine.Workers < 0:
		return fmt.Errorf("engine.workers must not be negative")
	case strings.TrimSpace(c.Engine.ReportingCurrency) == "":
		return fmt.Errorf("engine.reporting_currency is required")
	case c.Database.Path == "":
		return fmt.Errorf("database.path is required")
	}
	return nil
}
