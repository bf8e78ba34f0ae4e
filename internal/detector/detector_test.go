//go:build !windows

package detector

import (
	"os"
	"os/exec"
	"testing"
	"time"
)

func TestProbeAliveSelf(t *testing.T) {
	p := Probe{PID: os.Getpid()}
	if !p.Alive() {
		t.Fatalf("current process should be alive")
	}
	if !p.Exists() {
		t.Fatalf("current process should exist")
	}
}

func TestProbeInvalidPIDs(t *testing.T) {
	for _, pid := range []int{0, -1, -42} {
		if (Probe{PID: pid}).Alive() {
			t.Fatalf("pid %d should not be alive", pid)
		}
	}
}

func TestProbeExitedProcessNotAlive(t *testing.T) {
	cmd := exec.Command("true")
	if err := cmd.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	pid := cmd.Process.Pid
	if err := cmd.Wait(); err != nil {
		t.Fatalf("wait: %v", err)
	}
	// reaped; pid must no longer count as alive
	if (Probe{PID: pid}).Alive() {
		t.Fatalf("exited pid %d reported alive", pid)
	}
}

func TestProbeStartTimeMismatchMeansRecycled(t *testing.T) {
	pid := os.Getpid()
	cur := procStartUnix(pid)
	if cur <= 0 {
		t.Skip("proc start time unavailable on this platform")
	}
	p := Probe{PID: pid, StartUnix: cur - 3600}
	if p.Alive() {
		t.Fatalf("mismatched start time should mark pid as recycled")
	}
	// Exists ignores identity
	if !p.Exists() {
		t.Fatalf("process still exists regardless of identity")
	}
}

func TestProbeStartTimeMatch(t *testing.T) {
	pid := os.Getpid()
	cur := procStartUnix(pid)
	if cur <= 0 {
		t.Skip("proc start time unavailable on this platform")
	}
	if !(Probe{PID: pid, StartUnix: cur}).Alive() {
		t.Fatalf("matching start time should pass the identity check")
	}
}

func TestProcStartUnixOfChild(t *testing.T) {
	cmd := exec.Command("sleep", "1")
	if err := cmd.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(func() {
		_ = cmd.Process.Kill()
		_, _ = cmd.Process.Wait()
	})
	st := procStartUnix(cmd.Process.Pid)
	if st <= 0 {
		t.Skip("proc start time unavailable on this platform")
	}
	now := time.Now().Unix()
	if st > now+2 || st < now-120 {
		t.Fatalf("implausible start time %d (now %d)", st, now)
	}
}
