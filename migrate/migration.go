package migrate

import (
	"crypto/sha256"
	"encoding/hex"
)

// Migration is a single schema revision loaded from a source.
type Migration struct {
	// Revision is the 14-digit timestamp prefix (YYYYMMDDHHMMSS) that
	// orders this revision against the rest of the chain.
	Revision string

	// Name is the snake_case description from the filename.
	Name string

	// UpSQL is the forward migration body.
	UpSQL string

	// DownSQL is the optional rollback body. Empty when no down file exists.
	DownSQL string

	// Checksum is the hex-encoded SHA-256 of UpSQL, recorded at apply time
	// and verified on every later run.
	Checksum string
}

// Status describes one revision's position relative to the database.
type Status struct {
	Migration

	// Applied reports whether the revision is recorded in the history table.
	Applied bool

	// AppliedAt is when the revision was applied (zero when not applied).
	AppliedAt string
}

func checksum(sql string) string {
	sum := sha256.Sum256([]byte(sql))
	return hex.EncodeToString(sum[:])
}
