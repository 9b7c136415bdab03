// Command early-service is a small daemon meant to start very early in the
// boot sequence. It keeps a single counter ticking, serves it to local
// clients over a unix domain socket, and hands its state off to a successor
// instance across restarts.
package main

import (
	"context"
	"os"
	"time"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/alexlarsson/early-service-example/internal/config"
	"github.com/alexlarsson/early-service-example/internal/daemon"
	"github.com/alexlarsson/early-service-example/internal/logger"
	"github.com/alexlarsson/early-service-example/internal/procname"
)

// Version is set via -ldflags at build time.
var Version = "dev"

var (
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "early-service",
		Short: "Early-boot counter daemon with restart hand-off",
		Long: `early-service maintains a single integer counter, increments it on a
fixed timer and exposes it to local clients over a unix domain socket
using a line-oriented text protocol.

When a new instance is configured with a predecessor's socket path it
retrieves the predecessor's counter before starting its own server and
asks the predecessor to terminate, preserving the counter across
process restarts.`,
		SilenceUsage: true,
		RunE:         runDaemon,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default searches /etc/early-service)")

	flags := rootCmd.Flags()
	defaults := config.Default()
	flags.DurationP("tick-interval", "d", defaults.TickInterval, "counter increment period")
	flags.StringP("server-socket-path", "s", "", "unix domain socket path to listen on")
	flags.StringP("handoff-socket-path", "c", "", "unix domain socket of a predecessor to read the counter from")
	flags.Duration("handoff-timeout", defaults.HandoffTimeout, "timeout for the startup hand-off")
	flags.Bool("survive-systemd-kill-signal", false, "prefix argv[0] with '@' when running in the initrd")
	flags.String("pid-file", "", "write a PID file at this path")
	flags.String("socket-permissions", "", "octal mode applied to the listen socket, e.g. 0600")
	flags.Int("max-connections", 0, "cap concurrently served connections (0 = unlimited)")
	flags.String("log-level", defaults.LogLevel, "log level: debug, info, warn or error")
	flags.String("log-file", "", "append log records to this file instead of stderr")

	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(setCmd)
}

func runDaemon(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	if err := logger.Init(cfg.LogLevel, cfg.LogFile); err != nil {
		return err
	}
	defer logger.Close()

	if cfg.SurviveSystemdKillSignal {
		// On success this re-execs and never returns.
		if err := procname.EnterSurvivalMode(); err != nil {
			logger.Warn("Failed to enter kill-signal survival mode: %v", err)
		}
	}

	logger.Info("early-service starting (version %s)", Version)
	return daemon.New(cfg).Run(cmd.Context())
}

func main() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(Version),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}

// clientTimeout bounds the one-shot round trips of the get/set
// subcommands.
const clientTimeout = 10 * time.Second
