package migrate

import "errors"

var (
	// ErrChecksumMismatch indicates a recorded revision's source file changed
	// after it was applied. The schema is no longer at a known revision and
	// the mismatch must be resolved by hand.
	ErrChecksumMismatch = errors.New("revision checksum mismatch")

	// ErrDuplicateRevision indicates two source files carry the same
	// revision timestamp.
	ErrDuplicateRevision = errors.New("duplicate revision")

	// ErrOrphanDownFile indicates a .down.sql file has no matching revision.
	ErrOrphanDownFile = errors.New("down file without matching revision")

	// ErrNoDownSQL indicates a rollback was requested for a revision that
	// has no down file.
	ErrNoDownSQL = errors.New("revision has no down migration")

	// ErrNothingToRollback indicates no revision has been applied yet.
	ErrNothingToRollback = errors.New("nothing to roll back")

	// ErrLockNotAcquired indicates the per-database migration lock could not
	// be taken.
	ErrLockNotAcquired = errors.New("migration lock not acquired")

	// ErrUnknownDriver indicates no dialect exists for the given driver name.
	ErrUnknownDriver = errors.New("unknown database driver")
)
