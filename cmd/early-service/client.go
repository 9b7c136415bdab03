package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/alexlarsson/early-service-example/internal/config"
	"github.com/alexlarsson/early-service-example/internal/socketclient"
)

var getCmd = &cobra.Command{
	Use:          "get",
	Short:        "Print the counter of a running daemon",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, err := clientSocketPath(cmd)
		if err != nil {
			return err
		}
		v, err := socketclient.GetCounter(path, clientTimeout)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d\n", v)
		return nil
	},
}

var setCmd = &cobra.Command{
	Use:          "set <value>",
	Short:        "Overwrite the counter of a running daemon",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid counter value %q: %w", args[0], err)
		}

		path, err := clientSocketPath(cmd)
		if err != nil {
			return err
		}
		old, err := socketclient.SetCounter(path, value, clientTimeout)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "previous value %d\n", old)
		return nil
	},
}

func init() {
	getCmd.Flags().String("socket", "", "unix domain socket of the daemon")
	setCmd.Flags().String("socket", "", "unix domain socket of the daemon")
}

// clientSocketPath resolves the daemon socket for the client subcommands:
// the --socket flag wins, and the daemon configuration's listen path is
// the fallback.
func clientSocketPath(cmd *cobra.Command) (string, error) {
	if path, err := cmd.Flags().GetString("socket"); err == nil && path != "" {
		return path, nil
	}

	cfg, err := config.Load(cfgFile, nil)
	if err != nil {
		return "", err
	}
	if cfg.ServerSocketPath == "" {
		return "", errors.New("no daemon socket: pass --socket or configure server_socket_path")
	}
	return cfg.ServerSocketPath, nil
}
