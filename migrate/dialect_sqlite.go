package migrate

import (
	"context"
	"database/sql"
	"fmt"
)

// sqliteDialect targets SQLite via github.com/mattn/go-sqlite3.
type sqliteDialect struct{}

func (sqliteDialect) Name() string { return "sqlite3" }

func (sqliteDialect) CreateHistorySQL(table string) string {
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

func (sqliteDialect) SelectAppliedSQL(table string) string {
	return fmt.Sprintf(`
		SELECT revision, checksum, applied_at
		FROM %s
		ORDER BY revision
	`, table)
}

func (sqliteDialect) InsertAppliedSQL(table string) string {
	return fmt.Sprintf(`
		INSERT INTO %s (revision, name, checksum, run_id, applied_at)
		VALUES (?, ?, ?, ?, ?)
	`, table)
}

func (sqliteDialect) DeleteAppliedSQL(table string) string {
	return fmt.Sprintf(`DELETE FROM %s WHERE revision = ?`, table)
}

// Lock is a no-op: SQLite is a single file and serializes writers itself,
// and there is no server session to scope an advisory lock to.
func (sqliteDialect) Lock(ctx context.Context, conn *sql.Conn, table string) error {
	return nil
}

func (sqliteDialect) Unlock(ctx context.Context, conn *sql.Conn, table string) error {
	return nil
}
