//go:build !unix

package delegate

import (
	entrypoint "github.com/timileyin42/ultimateco-entrypoint"
)

// New returns the platform delegator: no exec primitive exists here, so the
// supervising fallback stands in for process replacement.
func New() entrypoint.Delegator {
	return &Supervisor{}
}
