// Package supervisor implements the process lifecycle: launch a single
// child detached from the invoking session, hand its identity to later
// invocations through a PID record, and drain it gracefully on stop.
//
// Start, Stop and Restart run as separate short-lived invocations, so
// the PID record is the only shared state. Every record mutation
// happens under the record's file lock; reads (Status) are lock-free.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jhs512/uploaderctl/internal/detector"
	"github.com/jhs512/uploaderctl/internal/env"
	"github.com/jhs512/uploaderctl/internal/history"
	"github.com/jhs512/uploaderctl/internal/pidrecord"
)

type Supervisor struct {
	spec    Spec
	journal history.Journal // optional
	log     *slog.Logger
}

func New(spec Spec) *Supervisor {
	spec.Normalize()
	return &Supervisor{spec: spec, log: slog.Default()}
}

// SetJournal attaches an event journal. Journal failures never fail an
// operation; they are logged and dropped.
func (s *Supervisor) SetJournal(j history.Journal) { s.journal = j }

func (s *Supervisor) SetLogger(l *slog.Logger) {
	if l != nil {
		s.log = l
	}
}

func (s *Supervisor) Spec() Spec { return s.spec }

func (s *Supervisor) record() pidrecord.File {
	return pidrecord.File{Path: s.spec.PIDFile}
}

// Start launches the child and persists its PID record. It fails with
// ErrAlreadyRunning when the record points at a live process, and
// cleans up a stale record before launching. The returned PID is the
// child's.
func (s *Supervisor) Start(ctx context.Context) (int, error) {
	if err := s.spec.Validate(); err != nil {
		return 0, err
	}
	rec := s.record()
	release, err := rec.Lock(ctx)
	if err != nil {
		return 0, err
	}
	defer release()

	if !s.spec.SkipLiveCheck {
		switch r, err := rec.Read(); {
		case err == nil:
			if (detector.Probe{PID: r.PID, StartUnix: r.StartUnix}).Alive() {
				return 0, fmt.Errorf("%w: pid %d", ErrAlreadyRunning, r.PID)
			}
			s.log.Warn("removing stale pid record before start", "pid", r.PID, "pidfile", rec.Path)
			if err := rec.Remove(); err != nil {
				return 0, err
			}
			s.journalEvent(ctx, history.Event{Kind: history.KindStaleCleanup, PID: r.PID, Detail: "before start"})
		case os.IsNotExist(err):
		default:
			return 0, err
		}
	}

	s.transition(StateStopped, StateStarting)
	cmd := s.spec.BuildCommand()
	if s.spec.WorkDir != "" {
		cmd.Dir = s.spec.WorkDir
	}
	cmd.Env = s.environment()
	configureSysProcAttr(cmd)

	childLog, err := s.spec.Log.Open(s.spec.Name)
	if err != nil {
		return 0, err
	}
	if childLog != nil {
		// the descriptor is inherited by the child; our copy closes
		// when this invocation returns
		defer func() { _ = childLog.Close() }()
		cmd.Stdout = childLog
		cmd.Stderr = childLog
	} else {
		null, _ := os.OpenFile(os.DevNull, os.O_RDWR, 0)
		defer func() { _ = null.Close() }()
		cmd.Stdout = null
		cmd.Stderr = null
	}
	cmd.Stdin = nil

	if err := cmd.Start(); err != nil {
		s.transition(StateStarting, StateStopped)
		return 0, &LaunchError{Command: s.spec.Command, Err: err}
	}
	pid := cmd.Process.Pid
	werr := rec.Write(pidrecord.Record{
		PID:       pid,
		StartUnix: detector.StartUnix(pid),
		Command:   s.spec.Command,
	})
	// the child runs on its own; drop our handle so it is not
	// reparented through us
	_ = cmd.Process.Release()
	if werr != nil {
		return pid, fmt.Errorf("child started (pid %d) but recording it failed: %w", pid, werr)
	}
	s.transition(StateStarting, StateRunning)
	s.log.Info("started", "pid", pid, "pidfile", rec.Path, "log", s.spec.Log.ResolvedPath(s.spec.Name))
	s.journalEvent(ctx, history.Event{Kind: history.KindStart, PID: pid, Detail: s.spec.Command})
	return pid, nil
}

// Stop sends an interrupt to the recorded process and polls until it
// is gone, then removes the record. The wait is unbounded unless ctx
// carries a deadline: an in-flight unit of work is allowed to finish.
// Reports ErrNotRunning when no record exists and ErrStaleRecord when
// the record's process is already gone (the record is removed).
func (s *Supervisor) Stop(ctx context.Context) error {
	rec := s.record()
	release, err := rec.Lock(ctx)
	if err != nil {
		return err
	}
	defer release()

	r, err := rec.Read()
	if os.IsNotExist(err) {
		return ErrNotRunning
	}
	if err != nil {
		return err
	}

	probe := detector.Probe{PID: r.PID, StartUnix: r.StartUnix}
	if !probe.Alive() {
		if err := rec.Remove(); err != nil {
			return err
		}
		s.journalEvent(ctx, history.Event{Kind: history.KindStaleCleanup, PID: r.PID, Detail: "on stop"})
		return fmt.Errorf("%w: pid %d, record removed", ErrStaleRecord, r.PID)
	}

	s.transition(StateRunning, StateStopping)
	if err := interrupt(r.PID); err != nil {
		return fmt.Errorf("signaling pid %d: %w", r.PID, err)
	}
	s.log.Info("interrupt sent, waiting for exit", "pid", r.PID, "poll_interval", s.spec.PollInterval)

	ticker := time.NewTicker(s.spec.PollInterval)
	defer ticker.Stop()
	for probe.Alive() {
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for pid %d to exit: %w", r.PID, ctx.Err())
		case <-ticker.C:
		}
	}

	if err := rec.Remove(); err != nil {
		return err
	}
	s.transition(StateStopping, StateStopped)
	s.log.Info("stopped", "pid", r.PID)
	s.journalEvent(ctx, history.Event{Kind: history.KindStop, PID: r.PID, Detail: "graceful"})
	return nil
}

// Restart composes Stop, a settle delay, and Start. A Stop that finds
// nothing running (absent or stale record) does not abort the restart.
func (s *Supervisor) Restart(ctx context.Context) (int, error) {
	err := s.Stop(ctx)
	switch {
	case err == nil:
	case errors.Is(err, ErrNotRunning), errors.Is(err, ErrStaleRecord):
		s.log.Info("nothing to stop, starting fresh", "reason", err)
	default:
		return 0, err
	}
	if s.spec.RestartDelay > 0 {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(s.spec.RestartDelay):
		}
	}
	return s.Start(ctx)
}

// Status assembles a view from the record and a liveness probe. It
// takes no lock: a torn view is impossible because record writes are
// atomic renames.
func (s *Supervisor) Status() (Status, error) {
	st := Status{Name: s.spec.Name, State: StateStopped}
	r, err := s.record().Read()
	if os.IsNotExist(err) {
		return st, nil
	}
	if err != nil {
		return st, err
	}
	st.PID = r.PID
	st.Command = r.Command
	if r.StartUnix > 0 {
		st.StartedAt = time.Unix(r.StartUnix, 0)
	}
	if (detector.Probe{PID: r.PID, StartUnix: r.StartUnix}).Alive() {
		st.State = StateRunning
	} else {
		st.Stale = true
	}
	return st, nil
}

func (s *Supervisor) environment() []string {
	e := env.New()
	e.BinDirs = s.spec.BinDirs
	return e.Merge(s.spec.Env)
}

func (s *Supervisor) transition(from, to string) {
	s.log.Debug("state transition", "name", s.spec.Name, "from", from, "to", to)
}

func (s *Supervisor) journalEvent(ctx context.Context, ev history.Event) {
	if s.journal == nil {
		return
	}
	ev.At = time.Now()
	if err := s.journal.Append(ctx, ev); err != nil {
		s.log.Debug("journal append failed", "kind", ev.Kind, "err", err)
	}
}
