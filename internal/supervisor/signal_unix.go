//go:build !windows

package supervisor

import "syscall"

// interrupt requests a graceful stop. SIGINT, not SIGTERM: the
// supervised uploader finishes its in-flight unit of work and leaves
// its loop on interrupt.
func interrupt(pid int) error {
	return syscall.Kill(pid, syscall.SIGINT)
}
