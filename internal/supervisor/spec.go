package supervisor

import (
	"errors"
	"os/exec"
	"strings"
	"time"

	"github.com/jhs512/uploaderctl/internal/logger"
)

// Defaults applied by Normalize.
const (
	DefaultName         = "uploader"
	DefaultPollInterval = 5 * time.Second
	DefaultRestartDelay = 2 * time.Second
)

// Spec describes the single process this supervisor manages.
type Spec struct {
	Name         string          `mapstructure:"name"`
	Command      string          `mapstructure:"command"`
	WorkDir      string          `mapstructure:"workdir"`
	Env          []string        `mapstructure:"env"`      // extra K=V pairs
	BinDirs      []string        `mapstructure:"bin_dirs"` // prepended to PATH for the child
	PIDFile      string          `mapstructure:"pidfile"`
	PollInterval time.Duration   `mapstructure:"poll_interval"` // liveness poll while draining
	RestartDelay time.Duration   `mapstructure:"restart_delay"` // pause between stop and start
	Log          logger.ChildLog `mapstructure:"log"`

	// SkipLiveCheck launches without the double-launch guard. Escape
	// hatch for records that cannot be verified (e.g. copied from
	// another host). Set from the CLI, not from config.
	SkipLiveCheck bool `mapstructure:"-"`
}

// Normalize fills zero fields with defaults.
func (s *Spec) Normalize() {
	if s.Name == "" {
		s.Name = DefaultName
	}
	if s.PIDFile == "" {
		s.PIDFile = s.Name + ".pid"
	}
	if s.PollInterval <= 0 {
		s.PollInterval = DefaultPollInterval
	}
	if s.RestartDelay <= 0 {
		s.RestartDelay = DefaultRestartDelay
	}
}

// Validate reports configuration errors that would make Start fail in
// confusing ways later.
func (s *Spec) Validate() error {
	if strings.TrimSpace(s.Command) == "" {
		return errors.New("command is required")
	}
	return nil
}

// BuildCommand constructs the *exec.Cmd for s.Command. Commands with
// shell metacharacters run through the platform shell; plain commands
// exec directly to keep the recorded PID pointing at the program
// itself rather than a wrapping shell.
func (s *Spec) BuildCommand() *exec.Cmd {
	cmdStr := strings.TrimSpace(s.Command)
	if strings.ContainsAny(cmdStr, "|&;<>*?`$\"'(){}[]~") {
		return shellCommand(cmdStr)
	}
	parts := strings.Fields(cmdStr)
	name := parts[0]
	var args []string
	if len(parts) > 1 {
		args = parts[1:]
	}
	// #nosec G204 -- command comes from operator config
	return exec.Command(name, args...)
}
