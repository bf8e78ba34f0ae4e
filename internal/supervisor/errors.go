package supervisor

import (
	"errors"
	"fmt"
)

// Sentinel conditions reported by supervisor operations. Stop treats
// ErrNotRunning as informational; the CLI maps it to a notice and a
// zero exit code.
var (
	ErrNotRunning     = errors.New("not running: no pid record")
	ErrAlreadyRunning = errors.New("already running")
	ErrStaleRecord    = errors.New("stale pid record: process not alive")
)

// LaunchError wraps the OS-level failure to start the child, typically
// a missing executable or an unusable working directory.
type LaunchError struct {
	Command string
	Err     error
}

func (e *LaunchError) Error() string {
	return fmt.Sprintf("launching %q: %v", e.Command, e.Err)
}

func (e *LaunchError) Unwrap() error { return e.Err }
