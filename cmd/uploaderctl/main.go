package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := buildRoot()
	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// buildRoot assembles the CLI. Each subcommand is an independent
// short-lived invocation; the PID record hands control between them.
func buildRoot() *cobra.Command {
	global := &GlobalFlags{}
	cmd := command{global: global}

	root := &cobra.Command{
		Use:           "uploaderctl",
		Short:         "Supervise the uploader process",
		SilenceUsage:  true,
		SilenceErrors: true,
		Long: `uploaderctl launches the uploader detached from the terminal, records
its PID, and stops it gracefully: an interrupt followed by waiting for
the in-flight unit of work to finish.

Examples:
  uploaderctl start --config uploaderctl.toml
  uploaderctl stop
  uploaderctl restart
  uploaderctl status --json`,
	}
	root.PersistentFlags().StringVar(&global.ConfigPath, "config", "", "path to TOML config file (optional)")
	root.PersistentFlags().BoolVar(&global.Debug, "debug", false, "enable debug logging")

	root.AddCommand(
		createStartCommand(cmd),
		createStopCommand(cmd),
		createRestartCommand(cmd),
		createStatusCommand(cmd),
	)
	return root
}

func addStartFlags(c *cobra.Command, f *StartFlags) {
	c.Flags().StringVar(&f.Name, "name", "", "process name (default from config)")
	c.Flags().StringVar(&f.Cmd, "cmd", "", "command to launch (overrides config)")
	c.Flags().StringVar(&f.WorkDir, "workdir", "", "working directory for the child")
	c.Flags().StringVar(&f.PIDFile, "pidfile", "", "pid record path (overrides config)")
	c.Flags().StringVar(&f.LogPath, "log", "", "child combined log file (overrides config)")
	c.Flags().StringSliceVar(&f.BinDirs, "bin-dir", nil, "directory to prepend to the child's PATH (repeatable)")
	c.Flags().StringArrayVar(&f.EnvKVs, "env", nil, "extra K=V environment entry (repeatable)")
	c.Flags().BoolVar(&f.NoCheck, "no-check", false, "skip the liveness check of an existing pid record")
}

func createStartCommand(c command) *cobra.Command {
	f := StartFlags{}
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Launch the uploader and record its PID",
		RunE: func(_ *cobra.Command, _ []string) error {
			return c.Start(f)
		},
	}
	addStartFlags(cmd, &f)
	return cmd
}

func createStopCommand(c command) *cobra.Command {
	f := StopFlags{}
	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Interrupt the uploader and wait for it to drain",
		RunE: func(_ *cobra.Command, _ []string) error {
			return c.Stop(f)
		},
	}
	cmd.Flags().DurationVar(&f.Wait, "wait", 0, "bound the drain wait (0 waits forever)")
	return cmd
}

func createRestartCommand(c command) *cobra.Command {
	f := RestartFlags{}
	cmd := &cobra.Command{
		Use:   "restart",
		Short: "Stop the uploader, pause briefly, start it again",
		RunE: func(_ *cobra.Command, _ []string) error {
			return c.Restart(f)
		},
	}
	addStartFlags(cmd, &f.Start)
	cmd.Flags().DurationVar(&f.Wait, "wait", 0, "bound the drain wait of the stop phase (0 waits forever)")
	return cmd
}

func createStatusCommand(c command) *cobra.Command {
	f := StatusFlags{}
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Report whether the recorded process is alive",
		RunE: func(_ *cobra.Command, _ []string) error {
			return c.Status(f)
		},
	}
	cmd.Flags().BoolVar(&f.JSON, "json", false, "print status as JSON")
	cmd.Flags().IntVar(&f.History, "history", 0, "also list the N most recent lifecycle events")
	return cmd
}
