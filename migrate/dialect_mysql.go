package migrate

import (
	"context"
	"database/sql"
	"fmt"
)

// mysqlDialect targets MySQL/MariaDB via github.com/go-sql-driver/mysql.
type mysqlDialect struct{}

func (mysqlDialect) Name() string { return "mysql" }

func (mysqlDialect) CreateHistorySQL(table string) string {
	return fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			revision   VARCHAR(14) PRIMARY KEY,
			name       VARCHAR(255) NOT NULL,
			checksum   CHAR(64) NOT NULL,
			run_id     CHAR(36) NOT NULL,
			applied_at VARCHAR(35) NOT NULL
		)
	`, table)
}

func (mysqlDialect) SelectAppliedSQL(table string) string {
	return fmt.Sprintf(`
		SELECT revision, checksum, applied_at
		FROM %s
		ORDER BY revision
	`, table)
}

func (mysqlDialect) InsertAppliedSQL(table string) string {
	return fmt.Sprintf(`
		INSERT INTO %s (revision, name, checksum, run_id, applied_at)
		VALUES (?, ?, ?, ?, ?)
	`, table)
}

func (mysqlDialect) DeleteAppliedSQL(table string) string {
	return fmt.Sprintf(`DELETE FROM %s WHERE revision = ?`, table)
}

// Lock blocks on GET_LOCK with an infinite timeout. Named locks are
// session-scoped and released by the server if the session dies.
func (mysqlDialect) Lock(ctx context.Context, conn *sql.Conn, table string) error {
	var got sql.NullInt64
	err := conn.QueryRowContext(ctx, `SELECT GET_LOCK(?, -1)`, mysqlLockName(table)).Scan(&got)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLockNotAcquired, err)
	}
	if !got.Valid || got.Int64 != 1 {
		return ErrLockNotAcquired
	}
	return nil
}

func (mysqlDialect) Unlock(ctx context.Context, conn *sql.Conn, table string) error {
	var released sql.NullInt64
	err := conn.QueryRowContext(ctx, `SELECT RELEASE_LOCK(?)`, mysqlLockName(table)).Scan(&released)
	if err != nil {
		return fmt.Errorf("releasing named lock: %w", err)
	}
	if !released.Valid || released.Int64 != 1 {
		return fmt.Errorf("named lock %q was not held", mysqlLockName(table))
	}
	return nil
}

// mysqlLockName stays under the 64-character GET_LOCK name limit for any
// history table name the identifier validation allows.
func mysqlLockName(table string) string {
	return fmt.Sprintf("ultimateco_migrate_%d", lockKey(table))
}
