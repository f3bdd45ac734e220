// Package entrypoint implements the startup orchestration sequence for the
// UltimateCo planner backend: optionally apply pending schema migrations,
// then hand execution off to the server process while preserving its signal
// handling, standard streams, and exit code exactly as if it had been
// launched directly.
package entrypoint

import (
	"context"
	"fmt"
	"log/slog"
)

// Migrator applies pending schema migrations.
type Migrator interface {
	// Apply brings the schema to the latest known revision and returns the
	// number of revisions applied. It is idempotent: applying an
	// already-current schema is a no-op returning zero.
	Apply(ctx context.Context) (int, error)
}

// MigratorFunc adapts a function to the Migrator interface.
type MigratorFunc func(ctx context.Context) (int, error)

// Apply calls f(ctx).
func (f MigratorFunc) Apply(ctx context.Context) (int, error) {
	return f(ctx)
}

// Delegator transfers control to the server command.
type Delegator interface {
	// Delegate runs argv as the main process. On platforms with a
	// process-image-replace primitive it does not return on success. The
	// supervising fallback returns the child's exit code once the child
	// terminates; a non-nil error means argv could not be started at all.
	Delegate(ctx context.Context, argv []string) (int, error)
}

// Config holds configuration for the startup Orchestrator.
type Config struct {
	// RunMigrations is the raw value of the migration flag. Only the exact
	// enable token runs migrations; every other value skips them.
	RunMigrations string

	// Command is the argument vector of the main process (required).
	// It is passed through to the Delegator unmodified.
	Command []string

	// Migrator applies pending migrations. Required when RunMigrations
	// carries the enable token, unused otherwise.
	Migrator Migrator

	// Delegator hands control to the main process (required).
	Delegator Delegator

	// Logger is for observability (optional).
	Logger *slog.Logger
}

// Orchestrator drives a single startup attempt through the phase machine
// documented on Phase. It owns no retry policy: a failed attempt is fatal
// and restart is the supervisor's job.
type Orchestrator struct {
	config Config
	phase  Phase
}

// New creates a startup Orchestrator with the given configuration.
// Returns an error if a required field is missing, before any side effect.
func New(cfg Config) (*Orchestrator, error) {
	if len(cfg.Command) == 0 {
		return nil, ErrNoCommand
	}
	if cfg.Delegator == nil {
		return nil, fmt.Errorf("delegator is required")
	}
	if MigrationsEnabled(cfg.RunMigrations) && cfg.Migrator == nil {
		return nil, fmt.Errorf("migrator is required when migrations are enabled")
	}

	return &Orchestrator{
		config: cfg,
		phase:  PhaseStart,
	}, nil
}

// Run executes the startup attempt: migrate (or skip) then delegate.
//
// On the success path Run either never returns (process image replaced) or
// returns the delegated command's exit code with a nil error. On migration
// failure Run returns a non-zero code and an error wrapping
// ErrMigrationFailed; the command was not executed.
func (o *Orchestrator) Run(ctx context.Context) (int, error) {
	if MigrationsEnabled(o.config.RunMigrations) {
		o.transition(PhaseMigrating)

		applied, err := o.config.Migrator.Apply(ctx)
		if err != nil {
			o.transition(PhaseFailed)
			return 1, fmt.Errorf("%w: %w", ErrMigrationFailed, err)
		}

		if o.config.Logger != nil {
			o.config.Logger.Info("migrations applied", "count", applied)
		}
	} else {
		o.transition(PhaseSkipping)
	}

	o.transition(PhaseDelegated)

	// Does not return on platforms where delegation replaces the process
	// image. Nothing below this call may hold cleanup responsibilities.
	code, err := o.config.Delegator.Delegate(ctx, o.config.Command)
	if err != nil {
		return 1, fmt.Errorf("delegating to %q: %w", o.config.Command[0], err)
	}
	return code, nil
}

// Phase returns the phase the most recent Run call reached.
func (o *Orchestrator) Phase() Phase {
	return o.phase
}

func (o *Orchestrator) transition(next Phase) {
	if o.config.Logger != nil {
		o.config.Logger.Debug("startup phase transition", "from", o.phase, "to", next)
	}
	o.phase = next
}
