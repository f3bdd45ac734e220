//go:build unix

package delegate

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"syscall"

	entrypoint "github.com/timileyin42/ultimateco-entrypoint"
)

// Execer delegates by replacing the current process image.
type Execer struct{}

// Compile-time check that Execer implements Delegator.
var _ entrypoint.Delegator = Execer{}

// Delegate resolves argv[0] on PATH and execs it with the current
// environment. It does not return on success; the returned values only
// describe why the replacement could not happen.
func (Execer) Delegate(ctx context.Context, argv []string) (int, error) {
	if len(argv) == 0 {
		return 0, entrypoint.ErrNoCommand
	}

	path, err := exec.LookPath(argv[0])
	if err != nil {
		return 0, fmt.Errorf("resolving %q: %w", argv[0], err)
	}

	err = syscall.Exec(path, argv, os.Environ())
	// Reached only when the kernel refused the replacement.
	return 0, fmt.Errorf("exec %s: %w", path, err)
}

// New returns the platform delegator: process-image replacement.
func New() entrypoint.Delegator {
	return Execer{}
}
