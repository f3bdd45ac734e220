// Package migrate provides versioned, idempotent SQL schema migrations for
// the planner backend across PostgreSQL, MySQL/MariaDB, and SQLite databases.
// Revisions are plain SQL files ordered by a timestamp prefix; applied
// revisions are recorded in a history table so re-applying an up-to-date
// schema is a no-op.
package migrate
