//go:build windows

package supervisor

import "os/exec"

func shellCommand(script string) *exec.Cmd {
	// #nosec G204 -- command comes from operator config
	return exec.Command("cmd", "/c", script)
}
