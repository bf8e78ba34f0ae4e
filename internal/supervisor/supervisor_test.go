//go:build !windows

package supervisor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/jhs512/uploaderctl/internal/history"
	"github.com/jhs512/uploaderctl/internal/pidrecord"
)

func testSpec(t *testing.T, command string) Spec {
	t.Helper()
	dir := t.TempDir()
	return Spec{
		Name:         "uploader",
		Command:      command,
		PIDFile:      filepath.Join(dir, "uploader.pid"),
		PollInterval: 20 * time.Millisecond,
		RestartDelay: 10 * time.Millisecond,
	}
}

func waitUntil(d, step time.Duration, f func() bool) bool {
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if f() {
			return true
		}
		time.Sleep(step)
	}
	return f()
}

func killTree(t *testing.T, pid int) {
	t.Helper()
	_ = syscall.Kill(pid, syscall.SIGKILL)
}

func TestStartCreatesRecordOfLiveProcess(t *testing.T) {
	s := New(testSpec(t, "sleep 5"))
	ctx := context.Background()
	pid, err := s.Start(ctx)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { killTree(t, pid) })
	rec, err := pidrecord.File{Path: s.Spec().PIDFile}.Read()
	if err != nil {
		t.Fatalf("record read: %v", err)
	}
	if rec.PID != pid {
		t.Fatalf("record pid %d, started pid %d", rec.PID, pid)
	}
	if err := syscall.Kill(pid, 0); err != nil {
		t.Fatalf("recorded process not alive: %v", err)
	}
	if rec.Command != "sleep 5" {
		t.Fatalf("command not recorded: %+v", rec)
	}
}

func TestStartRefusesDoubleLaunch(t *testing.T) {
	s := New(testSpec(t, "sleep 5"))
	ctx := context.Background()
	pid, err := s.Start(ctx)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { killTree(t, pid) })
	if _, err := s.Start(ctx); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("second Start: got %v, want ErrAlreadyRunning", err)
	}
}

func TestStartCleansStaleRecord(t *testing.T) {
	spec := testSpec(t, "sleep 5")
	// a record whose pid is certainly gone: launch and reap a child
	rec := pidrecord.File{Path: spec.PIDFile}
	if err := rec.Write(pidrecord.Record{PID: spawnAndReap(t), StartUnix: 1}); err != nil {
		t.Fatalf("seed record: %v", err)
	}
	s := New(spec)
	pid, err := s.Start(context.Background())
	if err != nil {
		t.Fatalf("Start over stale record: %v", err)
	}
	t.Cleanup(func() { killTree(t, pid) })
	got, err := rec.Read()
	if err != nil || got.PID != pid {
		t.Fatalf("record not replaced: %+v err=%v", got, err)
	}
}

func TestStartMissingExecutableIsLaunchError(t *testing.T) {
	s := New(testSpec(t, "definitely-not-a-real-binary-xyz"))
	_, err := s.Start(context.Background())
	var le *LaunchError
	if !errors.As(err, &le) {
		t.Fatalf("got %v, want LaunchError", err)
	}
	if (pidrecord.File{Path: s.Spec().PIDFile}).Exists() {
		t.Fatalf("no record should exist after failed launch")
	}
}

func TestStopDrainsAndRemovesRecord(t *testing.T) {
	// child ignores the interrupt and exits on its own; Stop must
	// keep polling until the process is gone
	s := New(testSpec(t, `trap '' INT; sleep 0.3`))
	ctx := context.Background()
	pid, err := s.Start(ctx)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { killTree(t, pid) })
	start := time.Now()
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 200*time.Millisecond {
		t.Fatalf("Stop returned before child exit: %v", elapsed)
	}
	if (pidrecord.File{Path: s.Spec().PIDFile}).Exists() {
		t.Fatalf("record should be removed after stop")
	}
	if syscall.Kill(pid, 0) == nil {
		t.Fatalf("process still alive after stop")
	}
}

func TestStopInterruptsPromptly(t *testing.T) {
	s := New(testSpec(t, "sleep 30"))
	ctx := context.Background()
	pid, err := s.Start(ctx)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { killTree(t, pid) })
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if !waitUntil(time.Second, 10*time.Millisecond, func() bool {
		return syscall.Kill(pid, 0) != nil
	}) {
		t.Fatalf("interrupted child still alive")
	}
}

func TestStopWithoutRecordReportsNotRunning(t *testing.T) {
	s := New(testSpec(t, "sleep 1"))
	if err := s.Stop(context.Background()); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("got %v, want ErrNotRunning", err)
	}
}

func TestStopTwiceIsSafe(t *testing.T) {
	s := New(testSpec(t, "sleep 5"))
	ctx := context.Background()
	pid, err := s.Start(ctx)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { killTree(t, pid) })
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("first Stop: %v", err)
	}
	if err := s.Stop(ctx); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("second Stop: got %v, want ErrNotRunning", err)
	}
}

func TestStopStaleRecordIsCleaned(t *testing.T) {
	spec := testSpec(t, "sleep 1")
	rec := pidrecord.File{Path: spec.PIDFile}
	if err := rec.Write(pidrecord.Record{PID: spawnAndReap(t), StartUnix: 1}); err != nil {
		t.Fatalf("seed record: %v", err)
	}
	s := New(spec)
	err := s.Stop(context.Background())
	if !errors.Is(err, ErrStaleRecord) {
		t.Fatalf("got %v, want ErrStaleRecord", err)
	}
	if rec.Exists() {
		t.Fatalf("stale record should be removed")
	}
	// and the follow-up stop sees a clean slate
	if err := s.Stop(context.Background()); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("follow-up Stop: got %v, want ErrNotRunning", err)
	}
}

func TestStopWaitBoundedByContext(t *testing.T) {
	s := New(testSpec(t, `trap '' INT; sleep 30`))
	pid, err := s.Start(context.Background())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { killTree(t, pid) })
	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	err = s.Stop(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("got %v, want deadline exceeded", err)
	}
	// record stays: the child is still draining
	if !(pidrecord.File{Path: s.Spec().PIDFile}).Exists() {
		t.Fatalf("record must survive an aborted wait")
	}
}

func TestRestartYieldsNewProcess(t *testing.T) {
	s := New(testSpec(t, "sleep 5"))
	ctx := context.Background()
	pid1, err := s.Start(ctx)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { killTree(t, pid1) })
	pid2, err := s.Restart(ctx)
	if err != nil {
		t.Fatalf("Restart: %v", err)
	}
	t.Cleanup(func() { killTree(t, pid2) })
	if pid1 == pid2 {
		t.Fatalf("restart did not produce a new process instance")
	}
	rec, err := pidrecord.File{Path: s.Spec().PIDFile}.Read()
	if err != nil || rec.PID != pid2 {
		t.Fatalf("record after restart: %+v err=%v", rec, err)
	}
}

func TestRestartWhenNothingRuns(t *testing.T) {
	s := New(testSpec(t, "sleep 5"))
	pid, err := s.Restart(context.Background())
	if err != nil {
		t.Fatalf("Restart from cold: %v", err)
	}
	t.Cleanup(func() { killTree(t, pid) })
	if pid <= 0 {
		t.Fatalf("invalid pid %d", pid)
	}
}

func TestStatusLifecycle(t *testing.T) {
	s := New(testSpec(t, "sleep 5"))
	ctx := context.Background()

	st, err := s.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.State != StateStopped || st.Stale {
		t.Fatalf("cold status: %+v", st)
	}

	pid, err := s.Start(ctx)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { killTree(t, pid) })
	st, err = s.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.State != StateRunning || st.PID != pid {
		t.Fatalf("running status: %+v", st)
	}

	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	st, err = s.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.State != StateStopped {
		t.Fatalf("stopped status: %+v", st)
	}
}

func TestStatusStaleRecord(t *testing.T) {
	spec := testSpec(t, "sleep 1")
	if err := (pidrecord.File{Path: spec.PIDFile}).Write(pidrecord.Record{PID: spawnAndReap(t), StartUnix: 1}); err != nil {
		t.Fatalf("seed record: %v", err)
	}
	st, err := New(spec).Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !st.Stale || st.State != StateStopped {
		t.Fatalf("stale status: %+v", st)
	}
}

func TestChildOutputGoesToLog(t *testing.T) {
	spec := testSpec(t, `echo hello-from-child`)
	spec.Log.Path = filepath.Join(t.TempDir(), "child.log")
	s := New(spec)
	pid, err := s.Start(context.Background())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { killTree(t, pid) })
	ok := waitUntil(2*time.Second, 20*time.Millisecond, func() bool {
		b, err := os.ReadFile(spec.Log.Path)
		return err == nil && strings.Contains(string(b), "hello-from-child")
	})
	if !ok {
		t.Fatalf("child output not captured in %s", spec.Log.Path)
	}
}

func TestJournalRecordsLifecycle(t *testing.T) {
	db, err := history.New(":memory:")
	if err != nil {
		t.Fatalf("journal open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	ctx := context.Background()
	if err := db.EnsureSchema(ctx); err != nil {
		t.Fatalf("schema: %v", err)
	}
	s := New(testSpec(t, "sleep 5"))
	s.SetJournal(db)
	pid, err := s.Start(ctx)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { killTree(t, pid) })
	if err := s.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	evs, err := db.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(evs) != 2 || evs[0].Kind != history.KindStop || evs[1].Kind != history.KindStart {
		t.Fatalf("unexpected journal contents: %+v", evs)
	}
	if evs[0].PID != pid || evs[1].PID != pid {
		t.Fatalf("journal pids: %+v", evs)
	}
}

func TestValidateRequiresCommand(t *testing.T) {
	s := New(testSpec(t, "   "))
	if _, err := s.Start(context.Background()); err == nil {
		t.Fatalf("expected validation error for empty command")
	}
}

// spawnAndReap returns the pid of a child that has already exited and
// been reaped, i.e. a pid that is certainly not alive right now.
func spawnAndReap(t *testing.T) int {
	t.Helper()
	cmd := shellCommand("exit 0")
	if err := cmd.Start(); err != nil {
		t.Fatalf("spawn: %v", err)
	}
	pid := cmd.Process.Pid
	if err := cmd.Wait(); err != nil {
		t.Fatalf("reap: %v", err)
	}
	return pid
}
