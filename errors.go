package entrypoint

import "errors"

var (
	// ErrMigrationFailed indicates the migration step terminated with an error.
	// Startup aborts immediately: the server command is never executed against
	// an unmigrated or partially migrated schema.
	ErrMigrationFailed = errors.New("migration failed")

	// ErrNoCommand indicates no server command was supplied to delegate to.
	ErrNoCommand = errors.New("no command to delegate to")

	// ErrDatabaseUnavailable indicates the database did not become reachable
	// within the configured readiness budget.
	ErrDatabaseUnavailable = errors.New("database unavailable")
)
