package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"log/slog"
	"regexp"
	"time"

	"github.com/google/uuid"

	entrypoint "github.com/timileyin42/ultimateco-entrypoint"
	"github.com/timileyin42/ultimateco-entrypoint/metrics"
)

// DefaultHistoryTable is the default name of the applied-revisions table.
const DefaultHistoryTable = "schema_migrations"

var identifierRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// Config holds configuration for the migration Runner.
type Config struct {
	// DB is the database to migrate (required).
	DB *sql.DB

	// Source holds the revision files (required). Usually os.DirFS over the
	// migrations directory or an embedded fs.FS.
	Source fs.FS

	// Dialect selects the database flavor (required). See For.
	Dialect Dialect

	// Table is the history table name (default: schema_migrations).
	// Validated against SQL-identifier characters because it is
	// interpolated into DDL.
	Table string

	// Logger is for observability (optional).
	Logger *slog.Logger

	// MetricsEnabled enables Prometheus metrics collection (default: true).
	// Set to false explicitly to disable metrics.
	MetricsEnabled *bool
}

// Runner applies, reverts, and reports schema revisions against a single
// database. All operations take a per-database advisory lock so concurrent
// starters serialize instead of racing.
type Runner struct {
	config  Config
	metrics bool
}

// Compile-time check that Runner satisfies the orchestrator's Migrator.
var _ entrypoint.Migrator = (*Runner)(nil)

// New creates a Runner with the given configuration.
func New(cfg Config) (*Runner, error) {
	if cfg.DB == nil {
		return nil, fmt.Errorf("database is required")
	}
	if cfg.Source == nil {
		return nil, fmt.Errorf("migration source is required")
	}
	if cfg.Dialect == nil {
		return nil, fmt.Errorf("dialect is required")
	}
	if cfg.Table == "" {
		cfg.Table = DefaultHistoryTable
	}
	if !identifierRegex.MatchString(cfg.Table) {
		return nil, fmt.Errorf("history table must start with a letter and contain only letters, numbers, and underscores (got: %s)", cfg.Table)
	}

	metricsEnabled := true
	if cfg.MetricsEnabled != nil {
		metricsEnabled = *cfg.MetricsEnabled
	}

	return &Runner{
		config:  cfg,
		metrics: metricsEnabled,
	}, nil
}

// Apply brings the schema to the latest revision in the source and returns
// the number of revisions applied. It is idempotent: an up-to-date schema
// yields zero work. Each revision applies in its own transaction; a failing
// revision rolls back, later revisions are not attempted, and the error
// surfaces to the caller.
func (r *Runner) Apply(ctx context.Context) (int, error) {
	start := time.Now()

	applied, err := r.apply(ctx)
	if r.metrics {
		driver := r.config.Dialect.Name()
		if err != nil {
			metrics.MigrationFailuresTotal.WithLabelValues(driver).Inc()
		} else {
			metrics.MigrationDuration.WithLabelValues(driver).Observe(time.Since(start).Seconds())
		}
	}
	return applied, err
}

func (r *Runner) apply(ctx context.Context) (int, error) {
	migrations, err := Load(r.config.Source)
	if err != nil {
		return 0, err
	}

	conn, release, err := r.acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer release()

	appliedRows, err := r.appliedOn(ctx, conn)
	if err != nil {
		return 0, err
	}
	recorded := make(map[string]appliedRow, len(appliedRows))
	for _, row := range appliedRows {
		recorded[row.revision] = row
	}

	runID := uuid.New().String()

	var applied int
	for _, mig := range migrations {
		if row, ok := recorded[mig.Revision]; ok {
			if row.checksum != mig.Checksum {
				return applied, fmt.Errorf("%w: %s_%s changed after it was applied", ErrChecksumMismatch, mig.Revision, mig.Name)
			}
			continue
		}

		if err := r.applyOne(ctx, conn, mig, runID); err != nil {
			return applied, fmt.Errorf("applying %s_%s: %w", mig.Revision, mig.Name, err)
		}
		applied++

		if r.metrics {
			metrics.RevisionsAppliedTotal.WithLabelValues(r.config.Dialect.Name()).Inc()
		}
		if r.config.Logger != nil {
			r.config.Logger.Info("revision applied", "revision", mig.Revision, "name", mig.Name, "run_id", runID)
		}
	}

	return applied, nil
}

func (r *Runner) applyOne(ctx context.Context, conn *sql.Conn, mig Migration, runID string) error {
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	if _, err := tx.ExecContext(ctx, mig.UpSQL); err != nil {
		_ = tx.Rollback()
		return err
	}

	appliedAt := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.ExecContext(ctx, r.config.Dialect.InsertAppliedSQL(r.config.Table),
		mig.Revision, mig.Name, mig.Checksum, runID, appliedAt); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("recording revision: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing revision: %w", err)
	}
	return nil
}

// Rollback reverts the most recently applied revision using its down file
// and returns the reverted revision. Returns ErrNothingToRollback on a fresh
// schema and ErrNoDownSQL when the revision has no down file.
func (r *Runner) Rollback(ctx context.Context) (string, error) {
	migrations, err := Load(r.config.Source)
	if err != nil {
		return "", err
	}
	byRevision := make(map[string]Migration, len(migrations))
	for _, mig := range migrations {
		byRevision[mig.Revision] = mig
	}

	conn, release, err := r.acquire(ctx)
	if err != nil {
		return "", err
	}
	defer release()

	appliedRows, err := r.appliedOn(ctx, conn)
	if err != nil {
		return "", err
	}
	if len(appliedRows) == 0 {
		return "", ErrNothingToRollback
	}

	last := appliedRows[len(appliedRows)-1]
	mig, ok := byRevision[last.revision]
	if !ok {
		return "", fmt.Errorf("applied revision %s is missing from the source", last.revision)
	}
	if mig.DownSQL == "" {
		return "", fmt.Errorf("%w: %s_%s", ErrNoDownSQL, mig.Revision, mig.Name)
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("beginning transaction: %w", err)
	}
	if _, err := tx.ExecContext(ctx, mig.DownSQL); err != nil {
		_ = tx.Rollback()
		return "", fmt.Errorf("reverting %s_%s: %w", mig.Revision, mig.Name, err)
	}
	if _, err := tx.ExecContext(ctx, r.config.Dialect.DeleteAppliedSQL(r.config.Table), mig.Revision); err != nil {
		_ = tx.Rollback()
		return "", fmt.Errorf("unrecording revision: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing rollback: %w", err)
	}

	if r.config.Logger != nil {
		r.config.Logger.Info("revision reverted", "revision", mig.Revision, "name", mig.Name)
	}
	return mig.Revision, nil
}

// Status reports every source revision and whether it has been applied.
func (r *Runner) Status(ctx context.Context) ([]Status, error) {
	migrations, err := Load(r.config.Source)
	if err != nil {
		return nil, err
	}

	conn, release, err := r.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	appliedRows, err := r.appliedOn(ctx, conn)
	if err != nil {
		return nil, err
	}
	recorded := make(map[string]appliedRow, len(appliedRows))
	for _, row := range appliedRows {
		recorded[row.revision] = row
	}

	statuses := make([]Status, 0, len(migrations))
	for _, mig := range migrations {
		st := Status{Migration: mig}
		if row, ok := recorded[mig.Revision]; ok {
			st.Applied = true
			st.AppliedAt = row.appliedAt
		}
		statuses = append(statuses, st)
	}
	return statuses, nil
}

// acquire pins a single connection, takes the migration lock on it, and
// ensures the history table exists. The returned release function undoes
// both; it must be called exactly once.
func (r *Runner) acquire(ctx context.Context) (*sql.Conn, func(), error) {
	conn, err := r.config.DB.Conn(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("acquiring connection: %w", err)
	}

	if err := r.config.Dialect.Lock(ctx, conn, r.config.Table); err != nil {
		_ = conn.Close()
		return nil, nil, err
	}

	release := func() {
		if err := r.config.Dialect.Unlock(ctx, conn, r.config.Table); err != nil && r.config.Logger != nil {
			r.config.Logger.Error("failed to release migration lock", "error", err)
		}
		_ = conn.Close()
	}

	if _, err := conn.ExecContext(ctx, r.config.Dialect.CreateHistorySQL(r.config.Table)); err != nil {
		release()
		return nil, nil, fmt.Errorf("ensuring history table: %w", err)
	}

	return conn, release, nil
}

type appliedRow struct {
	revision  string
	checksum  string
	appliedAt string
}

func (r *Runner) appliedOn(ctx context.Context, conn *sql.Conn) ([]appliedRow, error) {
	rows, err := conn.QueryContext(ctx, r.config.Dialect.SelectAppliedSQL(r.config.Table))
	if err != nil {
		return nil, fmt.Errorf("reading applied revisions: %w", err)
	}
	defer rows.Close()

	var applied []appliedRow
	for rows.Next() {
		var row appliedRow
		if err := rows.Scan(&row.revision, &row.checksum, &row.appliedAt); err != nil {
			return nil, fmt.Errorf("scanning applied revision: %w", err)
		}
		applied = append(applied, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading applied revisions: %w", err)
	}
	return applied, nil
}
