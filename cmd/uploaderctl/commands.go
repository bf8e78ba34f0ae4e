package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jhs512/uploaderctl/internal/config"
	"github.com/jhs512/uploaderctl/internal/history"
	"github.com/jhs512/uploaderctl/internal/supervisor"
)

type command struct {
	global *GlobalFlags
}

// setup loads the config, applies flag overrides, installs logging and
// opens the journal. The returned cleanup is always safe to call.
func (c *command) setup(override func(*config.Config)) (*supervisor.Supervisor, func(), error) {
	cfg, err := config.Load(c.global.ConfigPath)
	if err != nil {
		return nil, func() {}, err
	}
	if override != nil {
		override(cfg)
		cfg.Normalize()
	}
	cfg.SupervisorLog.Debug = cfg.SupervisorLog.Debug || c.global.Debug
	log, logCloser, err := cfg.SupervisorLog.Setup()
	if err != nil {
		return nil, func() {}, err
	}

	sup := supervisor.New(cfg.Spec)
	sup.SetLogger(log)

	cleanup := func() { _ = logCloser.Close() }
	if cfg.History.Enabled {
		db, err := history.New(cfg.History.Path)
		if err != nil {
			cleanup()
			return nil, func() {}, fmt.Errorf("opening history journal: %w", err)
		}
		if err := db.EnsureSchema(context.Background()); err != nil {
			_ = db.Close()
			cleanup()
			return nil, func() {}, fmt.Errorf("preparing history journal: %w", err)
		}
		sup.SetJournal(db)
		cleanup = func() {
			_ = db.Close()
			_ = logCloser.Close()
		}
	}
	return sup, cleanup, nil
}

func applyStartFlags(cfg *config.Config, f StartFlags) {
	if f.Name != "" {
		cfg.Name = f.Name
	}
	if f.Cmd != "" {
		cfg.Command = f.Cmd
	}
	if f.WorkDir != "" {
		cfg.WorkDir = f.WorkDir
	}
	if f.PIDFile != "" {
		cfg.PIDFile = f.PIDFile
	}
	if f.LogPath != "" {
		cfg.Log.Path = f.LogPath
	}
	if len(f.BinDirs) > 0 {
		cfg.BinDirs = append(cfg.BinDirs, f.BinDirs...)
	}
	if len(f.EnvKVs) > 0 {
		cfg.Env = append(cfg.Env, f.EnvKVs...)
	}
	cfg.SkipLiveCheck = f.NoCheck
}

func (c *command) Start(f StartFlags) error {
	sup, cleanup, err := c.setup(func(cfg *config.Config) { applyStartFlags(cfg, f) })
	if err != nil {
		return err
	}
	defer cleanup()
	pid, err := sup.Start(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("started %s (pid %d)\n", sup.Spec().Name, pid)
	return nil
}

func (c *command) Stop(f StopFlags) error {
	sup, cleanup, err := c.setup(nil)
	if err != nil {
		return err
	}
	defer cleanup()
	ctx, cancel := stopContext(f.Wait)
	defer cancel()
	return reportStop(sup.Stop(ctx), sup.Spec().Name)
}

func (c *command) Restart(f RestartFlags) error {
	sup, cleanup, err := c.setup(func(cfg *config.Config) { applyStartFlags(cfg, f.Start) })
	if err != nil {
		return err
	}
	defer cleanup()
	ctx, cancel := stopContext(f.Wait)
	defer cancel()
	pid, err := sup.Restart(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("restarted %s (pid %d)\n", sup.Spec().Name, pid)
	return nil
}

func (c *command) Status(f StatusFlags) error {
	sup, cleanup, err := c.setup(nil)
	if err != nil {
		return err
	}
	defer cleanup()
	st, err := sup.Status()
	if err != nil {
		return err
	}
	if f.JSON {
		printJSON(st)
	} else {
		printStatus(st)
	}
	if f.History > 0 {
		return c.printHistory(sup, f.History)
	}
	return nil
}

func (c *command) printHistory(sup *supervisor.Supervisor, n int) error {
	cfg, err := config.Load(c.global.ConfigPath)
	if err != nil {
		return err
	}
	if !cfg.History.Enabled {
		fmt.Println("history journal is not enabled in config")
		return nil
	}
	db, err := history.New(cfg.History.Path)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	ctx := context.Background()
	if err := db.EnsureSchema(ctx); err != nil {
		return err
	}
	evs, err := db.Recent(ctx, n)
	if err != nil {
		return err
	}
	for _, ev := range evs {
		fmt.Printf("%s  %-14s pid=%d  %s\n", ev.At.Local().Format(time.RFC3339), ev.Kind, ev.PID, ev.Detail)
	}
	return nil
}

// stopContext bounds the drain wait when the operator asked for one.
func stopContext(wait time.Duration) (context.Context, context.CancelFunc) {
	if wait > 0 {
		return context.WithTimeout(context.Background(), wait)
	}
	return context.WithCancel(context.Background())
}

// reportStop maps the non-fatal stop outcomes to console notices and a
// zero exit code.
func reportStop(err error, name string) error {
	switch {
	case err == nil:
		fmt.Printf("stopped %s\n", name)
		return nil
	case errors.Is(err, supervisor.ErrNotRunning):
		fmt.Printf("%s is not running\n", name)
		return nil
	case errors.Is(err, supervisor.ErrStaleRecord):
		fmt.Printf("%s was not running; cleaned up stale pid record\n", name)
		return nil
	default:
		return err
	}
}

func printStatus(st supervisor.Status) {
	switch {
	case st.State == supervisor.StateRunning:
		fmt.Printf("%s: running (pid %d", st.Name, st.PID)
		if !st.StartedAt.IsZero() {
			fmt.Printf(", up %s", time.Since(st.StartedAt).Round(time.Second))
		}
		fmt.Println(")")
	case st.Stale:
		fmt.Printf("%s: not running (stale pid record for pid %d)\n", st.Name, st.PID)
	default:
		fmt.Printf("%s: not running\n", st.Name)
	}
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
