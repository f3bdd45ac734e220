package entrypoint

// EnableToken is the only value of the migration flag that enables the
// migration step. Matching is exact and case-sensitive: "TRUE", "1", "yes",
// padded variants, and an unset variable all leave migrations disabled.
const EnableToken = "true"

// MigrationsEnabled reports whether the given raw flag value enables the
// migration step.
func MigrationsEnabled(flag string) bool {
	return flag == EnableToken
}

// Phase represents the current phase of a startup attempt.
//
// The startup protocol gates the main server process on an optional,
// idempotent schema-migration step and then replaces the current process
// image with the server command.
//
// Phase Invariants:
//
// start:
//   - No side effect has occurred yet
//   - The schema has not been touched and no child process exists
//   - The only phase from which a startup attempt can begin
//
// migrating:
//   - Entered iff the migration flag carries the exact enable token
//   - The migration step runs synchronously; the server command has not
//     been executed and must not execute until the step succeeds
//   - Crash-safe: each revision applies in its own transaction, so a
//     startup attempt killed in this phase leaves the schema at a known
//     revision and the next attempt resumes from there
//
// skipping:
//   - Entered iff the migration flag does not carry the enable token
//   - The schema is never read or written on this path
//
// delegated:
//   - Terminal on the success path
//   - The process image has been replaced by the server command (or, on
//     platforms without exec, a supervising wait has begun); the
//     orchestrator no longer makes decisions
//   - The server command received the exact argument vector supplied at
//     startup
//
// failed:
//   - Terminal on the error path
//   - Only reachable from migrating; a skipped migration cannot fail
//   - The server command was never executed and the process exits non-zero
type Phase string

const (
	// PhaseStart indicates no startup decision has been made yet.
	PhaseStart Phase = "start"

	// PhaseMigrating indicates the migration step is running.
	PhaseMigrating Phase = "migrating"

	// PhaseSkipping indicates the migration step was skipped by the flag.
	PhaseSkipping Phase = "skipping"

	// PhaseDelegated indicates control has been handed to the server command.
	PhaseDelegated Phase = "delegated"

	// PhaseFailed indicates the migration step failed and startup aborted.
	PhaseFailed Phase = "failed"
)
