// Package config loads the entrypoint's runtime configuration from the
// environment, the only configuration surface a container entrypoint has.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	entrypoint "github.com/timileyin42/ultimateco-entrypoint"
	"github.com/timileyin42/ultimateco-entrypoint/migrate"
)

// Env is the environment-variable surface of the entrypoint. The migration
// flag is carried as a raw string: only the orchestrator interprets it, and
// only the exact token "true" enables migrations.
type Env struct {
	RunMigrations string `split_words:"true"`

	DatabaseURL    string `split_words:"true"`
	DatabaseDriver string `split_words:"true" default:"postgres"`
	MigrationsDir  string `split_words:"true" default:"migrations"`
	HistoryTable   string `split_words:"true" default:"schema_migrations"`

	DBWaitBudget   time.Duration `envconfig:"DB_WAIT_BUDGET" default:"60s"`
	DBWaitInterval time.Duration `envconfig:"DB_WAIT_INTERVAL" default:"2s"`

	// MigrationMetricsAddr exposes /metrics during the migration window when
	// set. Empty disables the server.
	MigrationMetricsAddr string `split_words:"true"`
}

// Load reads and validates the environment.
func Load() (Env, error) {
	var env Env
	if err := envconfig.Process("", &env); err != nil {
		return Env{}, fmt.Errorf("reading environment: %w", err)
	}
	if err := env.Validate(); err != nil {
		return Env{}, err
	}
	return env, nil
}

// Validate checks the database settings, but only when the migration flag is
// enabled: a skip-path startup must not fail over configuration it will
// never use.
func (e Env) Validate() error {
	if !entrypoint.MigrationsEnabled(e.RunMigrations) {
		return nil
	}

	if e.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required when RUN_MIGRATIONS=%s", entrypoint.EnableToken)
	}
	if _, err := migrate.For(e.DatabaseDriver); err != nil {
		return fmt.Errorf("DATABASE_DRIVER: %w", err)
	}
	return nil
}
