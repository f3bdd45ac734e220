// Command entrypoint is the container entrypoint for the planner backend.
// It optionally applies pending schema migrations, then replaces itself with
// the server command given as its trailing arguments:
//
//	entrypoint uvicorn app.main:app --host 0.0.0.0 --port 8000
//
// Migrations run only when RUN_MIGRATIONS=true (exact match). A migration
// failure exits non-zero before the server command ever starts, so the
// supervising runtime observes a failed startup rather than a half-ready
// service.
package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	entrypoint "github.com/timileyin42/ultimateco-entrypoint"
	"github.com/timileyin42/ultimateco-entrypoint/config"
	"github.com/timileyin42/ultimateco-entrypoint/dbwait"
	"github.com/timileyin42/ultimateco-entrypoint/delegate"
	"github.com/timileyin42/ultimateco-entrypoint/metrics"
	"github.com/timileyin42/ultimateco-entrypoint/migrate"
	"github.com/timileyin42/ultimateco-entrypoint/pkg/logging"
	"github.com/timileyin42/ultimateco-entrypoint/pkg/version"
)

func main() {
	logging.Setup()

	code, err := run(os.Args[1:])
	if err != nil {
		slog.Error("startup failed", "error", err)
		if code == 0 {
			code = 1
		}
	}
	os.Exit(code)
}

func run(argv []string) (int, error) {
	env, err := config.Load()
	if err != nil {
		return 1, err
	}

	logger := slog.Default()
	logger.Info("starting entrypoint",
		"version", version.Version,
		"migrations_enabled", entrypoint.MigrationsEnabled(env.RunMigrations),
		"command", argv,
	)

	orch, err := entrypoint.New(entrypoint.Config{
		RunMigrations: env.RunMigrations,
		Command:       argv,
		Migrator:      newMigrator(env, logger),
		Delegator:     delegate.New(),
		Logger:        logger,
	})
	if err != nil {
		return 1, err
	}

	// No signal handler is installed here: before delegation the default
	// disposition applies, and after delegation the server owns signals
	// outright.
	return orch.Run(context.Background())
}

// newMigrator builds the migration step the orchestrator runs when the flag
// is enabled. The database handle and the optional metrics window live only
// as long as the step itself, so nothing leaks into the delegated process.
func newMigrator(env config.Env, logger *slog.Logger) entrypoint.MigratorFunc {
	return func(ctx context.Context) (int, error) {
		db, err := sql.Open(env.DatabaseDriver, env.DatabaseURL)
		if err != nil {
			return 0, err
		}
		defer db.Close()

		if env.MigrationMetricsAddr != "" {
			srv := metrics.NewServer(env.MigrationMetricsAddr)
			srv.Start()
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()
		}

		if err := dbwait.Wait(ctx, dbwait.Config{
			Pinger:   db,
			Interval: env.DBWaitInterval,
			Budget:   env.DBWaitBudget,
			Logger:   logger,
		}); err != nil {
			return 0, err
		}

		dialect, err := migrate.For(env.DatabaseDriver)
		if err != nil {
			return 0, err
		}

		runner, err := migrate.New(migrate.Config{
			DB:      db,
			Source:  os.DirFS(env.MigrationsDir),
			Dialect: dialect,
			Table:   env.HistoryTable,
			Logger:  logger,
		})
		if err != nil {
			return 0, err
		}

		return runner.Apply(ctx)
	}
}
