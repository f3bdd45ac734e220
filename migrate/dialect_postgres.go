package migrate

import (
	"context"
	"database/sql"
	"fmt"
)

// postgresDialect targets PostgreSQL via github.com/lib/pq.
type postgresDialect struct{}

func (postgresDialect) Name() string { return "postgres" }

func (postgresDialect) CreateHistorySQL(table string) string {
	return fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			revision   TEXT PRIMARY KEY,
			name       TEXT NOT NULL,
			checksum   TEXT NOT NULL,
			run_id     TEXT NOT NULL,
			applied_at TEXT NOT NULL
		)
	`, table)
}

func (postgresDialect) SelectAppliedSQL(table string) string {
	return fmt.Sprintf(`
		SELECT revision, checksum, applied_at
		FROM %s
		ORDER BY revision
	`, table)
}

func (postgresDialect) InsertAppliedSQL(table string) string {
	return fmt.Sprintf(`
		INSERT INTO %s (revision, name, checksum, run_id, applied_at)
		VALUES ($1, $2, $3, $4, $5)
	`, table)
}

func (postgresDialect) DeleteAppliedSQL(table string) string {
	return fmt.Sprintf(`DELETE FROM %s WHERE revision = $1`, table)
}

// Lock blocks on pg_advisory_lock until the session holds the key. The lock
// dies with the session, so a starter killed mid-migration cannot wedge the
// next attempt.
func (postgresDialect) Lock(ctx context.Context, conn *sql.Conn, table string) error {
	if _, err := conn.ExecContext(ctx, `SELECT pg_advisory_lock($1)`, lockKey(table)); err != nil {
		return fmt.Errorf("%w: %w", ErrLockNotAcquired, err)
	}
	return nil
}

func (postgresDialect) Unlock(ctx context.Context, conn *sql.Conn, table string) error {
	var released bool
	err := conn.QueryRowContext(ctx, `SELECT pg_advisory_unlock($1)`, lockKey(table)).Scan(&released)
	if err != nil {
		return fmt.Errorf("releasing advisory lock: %w", err)
	}
	if !released {
		return fmt.Errorf("advisory lock %d was not held", lockKey(table))
	}
	return nil
}
