package logger

import (
	"os"
	"path/filepath"
)

// ChildLog is the supervised child's combined stdout+stderr
// destination. The file is opened in append mode and the descriptor is
// inherited by the detached child, so it keeps receiving output after
// the supervisor invocation exits. If Path is empty and Dir is set,
// the file is Dir/<name>.log.
type ChildLog struct {
	Dir  string `mapstructure:"dir"`
	Path string `mapstructure:"path"` // explicit path overrides Dir
}

// Open returns the append-mode file for the child's output, or nil
// when no destination is configured (output is then discarded).
func (c ChildLog) Open(name string) (*os.File, error) {
	path := c.ResolvedPath(name)
	if path == "" {
		return nil, nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, err
		}
	}
	// #nosec G304 -- path comes from operator config
	return os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
}

// ResolvedPath returns the destination Open would write to.
func (c ChildLog) ResolvedPath(name string) string {
	if c.Path != "" {
		return c.Path
	}
	if c.Dir != "" {
		return filepath.Join(c.Dir, name+".log")
	}
	return ""
}
