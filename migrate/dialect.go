package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"
)

// Dialect abstracts the per-database pieces of the migration engine: history
// table DDL, placeholder style, and the advisory lock that serializes
// concurrent starters.
//
// Lock and Unlock operate on a single *sql.Conn rather than the pool because
// both PostgreSQL advisory locks and MySQL named locks are session-scoped;
// releasing on a different pooled connection would silently do nothing.
type Dialect interface {
	// Name returns the database/sql driver name this dialect pairs with.
	Name() string

	// CreateHistorySQL returns idempotent DDL for the history table.
	CreateHistorySQL(table string) string

	// SelectAppliedSQL returns a query for (revision, checksum, applied_at)
	// ordered by revision.
	SelectAppliedSQL(table string) string

	// InsertAppliedSQL returns an insert for
	// (revision, name, checksum, run_id, applied_at).
	InsertAppliedSQL(table string) string

	// DeleteAppliedSQL returns a delete by revision.
	DeleteAppliedSQL(table string) string

	// Lock takes the per-database migration lock on conn, blocking until it
	// is granted. Returns ErrLockNotAcquired if the database refuses it.
	Lock(ctx context.Context, conn *sql.Conn, table string) error

	// Unlock releases the lock taken by Lock on the same conn.
	Unlock(ctx context.Context, conn *sql.Conn, table string) error
}

// For returns the Dialect for a database/sql driver name.
// Supported drivers: postgres, mysql, sqlite3.
func For(driver string) (Dialect, error) {
	switch driver {
	case "postgres":
		return postgresDialect{}, nil
	case "mysql":
		return mysqlDialect{}, nil
	case "sqlite3":
		return sqliteDialect{}, nil
	default:
		return nil, fmt.Errorf("%w: %s (supported: postgres, mysql, sqlite3)", ErrUnknownDriver, driver)
	}
}

// lockKey derives a stable 64-bit advisory lock key from the history table
// name, so independent schemas on a shared database server don't contend.
func lockKey(table string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("ultimateco_migrate:" + table))
	return int64(h.Sum64())
}
