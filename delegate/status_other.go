//go:build !unix

package delegate

import "os"

func exitStatus(state *os.ProcessState) int {
	return state.ExitCode()
}
