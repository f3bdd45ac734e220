//go:build unix

package delegate

import (
	"os"
	"syscall"
)

// exitStatus maps a finished child to a shell-convention exit code:
// 128 plus the signal number for a signal-killed child, its exit code
// otherwise.
func exitStatus(state *os.ProcessState) int {
	if ws, ok := state.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	return state.ExitCode()
}
