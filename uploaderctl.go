// Package uploaderctl exposes the supervisor for embedding: launch the
// uploader detached, keep its PID in a durable record, stop it
// gracefully by interrupt-and-drain.
package uploaderctl

import (
	"github.com/jhs512/uploaderctl/internal/config"
	"github.com/jhs512/uploaderctl/internal/history"
	"github.com/jhs512/uploaderctl/internal/supervisor"
)

// Re-export core types for external consumers. These are aliases so
// conversions are zero-cost.

type Spec = supervisor.Spec

type Status = supervisor.Status

type Supervisor = supervisor.Supervisor

type LaunchError = supervisor.LaunchError

var (
	ErrNotRunning     = supervisor.ErrNotRunning
	ErrAlreadyRunning = supervisor.ErrAlreadyRunning
	ErrStaleRecord    = supervisor.ErrStaleRecord
)

const (
	StateStopped  = supervisor.StateStopped
	StateStarting = supervisor.StateStarting
	StateRunning  = supervisor.StateRunning
	StateStopping = supervisor.StateStopping
)

// New returns a Supervisor for spec with defaults applied.
func New(spec Spec) *Supervisor { return supervisor.New(spec) }

// LoadConfig reads a TOML config file.
func LoadConfig(path string) (*config.Config, error) { return config.Load(path) }

// Journal is the lifecycle event journal attached via
// (*Supervisor).SetJournal.
type Journal = history.Journal

// OpenJournal opens (and prepares) a sqlite-backed journal at path.
func OpenJournal(path string) (*history.DB, error) { return history.New(path) }
