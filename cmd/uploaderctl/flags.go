package main

import "time"

// Flag structs to decouple cobra from logic for testing.

// GlobalFlags holds persistent flags shared by every subcommand.
type GlobalFlags struct {
	ConfigPath string
	Debug      bool
}

type StartFlags struct {
	Name    string
	Cmd     string
	WorkDir string
	PIDFile string
	LogPath string
	BinDirs []string
	EnvKVs  []string
	NoCheck bool
}

type StopFlags struct {
	Wait time.Duration // 0 = wait forever for the child to drain
}

type RestartFlags struct {
	Start StartFlags
	Wait  time.Duration
}

type StatusFlags struct {
	JSON    bool
	History int // show the N most recent lifecycle events
}
