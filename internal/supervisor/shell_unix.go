//go:build !windows

package supervisor

import "os/exec"

func shellCommand(script string) *exec.Cmd {
	// absolute shell path: the child's PATH may be rewritten
	// #nosec G204 -- command comes from operator config
	return exec.Command("/bin/sh", "-c", script)
}
