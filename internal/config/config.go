// Package config loads the supervisor's TOML configuration.
package config

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/jhs512/uploaderctl/internal/logger"
	"github.com/jhs512/uploaderctl/internal/supervisor"
)

// HistoryConfig controls the lifecycle event journal.
type HistoryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"` // sqlite file; defaults next to the pid record
}

// Config is the top-level TOML structure.
//
//	name = "uploader"
//	command = "python run.py"
//	workdir = "/opt/uploader"
//	bin_dirs = ["/opt/uploader/.venv/bin"]
//	env = ["PYTHONUNBUFFERED=1"]
//	pidfile = "uploader.pid"
//	poll_interval = "5s"
//	restart_delay = "2s"
//
//	[log]
//	path = "uploader.log"
//
//	[supervisor_log]
//	file = "uploaderctl.log"
//
//	[history]
//	enabled = true
type Config struct {
	supervisor.Spec `mapstructure:",squash"`

	SupervisorLog logger.Config `mapstructure:"supervisor_log"`
	History       HistoryConfig `mapstructure:"history"`
}

// Load reads path (TOML) and applies defaults. An empty path yields a
// default Config, letting every setting come from flags.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		v := viper.New()
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := v.Unmarshal(&c); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}
	c.Normalize()
	if c.History.Enabled && c.History.Path == "" {
		c.History.Path = filepath.Join(filepath.Dir(c.PIDFile), c.Name+"-history.db")
	}
	return &c, nil
}
