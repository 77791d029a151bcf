// Package config loads runtime configuration from the environment.
// Every variable carries the ITBI_ prefix.
package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config represents application configuration.
type Config struct {
	// InputCSV is the consolidated, geocoded transaction table.
	InputCSV string `envconfig:"INPUT_CSV" default:"data/consolidado_geo.csv"`

	// OutputDir receives the generated JSON documents.
	OutputDir string `envconfig:"OUTPUT_DIR" default:"docs/data"`

	// PostgresDSN enables report persistence when set.
	PostgresDSN string `envconfig:"POSTGRES_DSN" required:"false"`

	// ClickhouseDSN enables the period-aggregate archive when set.
	ClickhouseDSN string `envconfig:"CLICKHOUSE_DSN" required:"false"`

	// MetricsAddr exposes Prometheus metrics when set, e.g. ":9090".
	MetricsAddr string `envconfig:"METRICS_ADDR" required:"false"`

	Logging LoggingConfig
}

// LoggingConfig represents logger configuration.
type LoggingConfig struct {
	Level string `envconfig:"LOG_LEVEL" default:"info"`
	File  string `envconfig:"LOG_FILE" required:"false"`
}

// Load reads configuration from ITBI_-prefixed environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("ITBI", &cfg); err != nil {
		return nil, fmt.Errorf("process environment config: %w", err)
	}
	return &cfg, nil
}
