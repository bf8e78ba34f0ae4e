package logger

import (
	"io"
	"log/slog"
	"os"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Default rotation parameters for the supervisor's own log file.
const (
	DefaultMaxSizeMB  = 10 // MB
	DefaultMaxBackups = 3  // number of backup files
	DefaultMaxAgeDays = 7  // days
)

// Config describes the supervisor's own logging. Console output always
// goes to stderr; when File is set, records are additionally written
// there with lumberjack rotation.
type Config struct {
	Debug      bool   `mapstructure:"debug"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// Setup installs the default slog logger according to c. The returned
// closer flushes the rotating file writer, if any, and is safe to call
// when no file is configured.
func (c Config) Setup() (*slog.Logger, io.Closer, error) {
	level := slog.LevelInfo
	if c.Debug {
		level = slog.LevelDebug
	}
	console := NewColorTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}, false)

	var l *slog.Logger
	var closer io.Closer = nopCloser{}
	if c.File != "" {
		fw := &lj.Logger{
			Filename:   c.File,
			MaxSize:    valOr(c.MaxSizeMB, DefaultMaxSizeMB),
			MaxBackups: valOr(c.MaxBackups, DefaultMaxBackups),
			MaxAge:     valOr(c.MaxAgeDays, DefaultMaxAgeDays),
			Compress:   c.Compress,
		}
		file := slog.NewTextHandler(fw, &slog.HandlerOptions{Level: level})
		l = slog.New(teeHandler{console, file})
		closer = fw
	} else {
		l = slog.New(console)
	}
	slog.SetDefault(l)
	return l, closer, nil
}

func valOr(v int, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
