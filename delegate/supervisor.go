package delegate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	entrypoint "github.com/timileyin42/ultimateco-entrypoint"
)

// Supervisor approximates process replacement on platforms without an exec
// primitive: it spawns the command with inherited standard streams and
// environment, forwards every received termination signal to the child, and
// reports the child's exact exit status.
type Supervisor struct {
	// Stdin, Stdout, Stderr override the child's standard streams.
	// They default to the supervisor's own.
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Signals lists the signals forwarded to the child.
	// Defaults to Interrupt, SIGTERM, SIGHUP, and SIGQUIT.
	Signals []os.Signal
}

// Compile-time check that Supervisor implements Delegator.
var _ entrypoint.Delegator = (*Supervisor)(nil)

// Delegate runs argv to completion and returns its exit code. A child killed
// by a signal reports 128 plus the signal number, matching shell convention.
// A non-nil error means the child could not be started or waited on at all.
//
// ctx does not kill the child: once delegation happens the supervisor sheds
// all control beyond signal forwarding, mirroring exec semantics.
func (s *Supervisor) Delegate(ctx context.Context, argv []string) (int, error) {
	if len(argv) == 0 {
		return 0, entrypoint.ErrNoCommand
	}

	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Env = os.Environ()
	cmd.Stdin = s.Stdin
	cmd.Stdout = s.Stdout
	cmd.Stderr = s.Stderr
	if cmd.Stdin == nil {
		cmd.Stdin = os.Stdin
	}
	if cmd.Stdout == nil {
		cmd.Stdout = os.Stdout
	}
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("starting %q: %w", argv[0], err)
	}

	signals := s.Signals
	if len(signals) == 0 {
		signals = []os.Signal{os.Interrupt, syscall.SIGTERM, syscall.SIGHUP, syscall.SIGQUIT}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, signals...)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case sig := <-sigCh:
				_ = cmd.Process.Signal(sig)
			case <-done:
				return
			}
		}
	}()

	err := cmd.Wait()
	close(done)
	signal.Stop(sigCh)

	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitStatus(exitErr.ProcessState), nil
	}
	return 1, fmt.Errorf("waiting for %q: %w", argv[0], err)
}
