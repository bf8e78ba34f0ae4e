//go:build windows

package supervisor

import "os"

// interrupt stops the child. Windows offers no SIGINT delivery to a
// detached process, so this terminates instead of draining.
func interrupt(pid int) error {
	p, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return p.Kill()
}
