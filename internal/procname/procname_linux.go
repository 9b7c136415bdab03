//go:build linux

// Package procname implements the process-name convention that lets a
// storage daemon started in the initrd survive systemd's final kill spree:
// a process whose argv[0] begins with '@' is spared when the system
// transitions from the initrd to the root filesystem. systemd v255+ offers
// SurviveFinalKillSignal=yes as a unit-level alternative.
package procname

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

const survivePrefix = "@"

// Active reports whether the process name already carries the survival
// prefix.
func Active() bool {
	return len(os.Args) > 0 && strings.HasPrefix(os.Args[0], survivePrefix)
}

// EnterSurvivalMode re-execs the current binary with argv[0] prefixed by
// '@'. On success it never returns; the re-executed process sees the same
// arguments and environment, finds the prefix already present, and carries
// on. A process already carrying the prefix is left alone.
func EnterSurvivalMode() error {
	if Active() {
		return nil
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to resolve executable path: %w", err)
	}

	argv := make([]string, len(os.Args))
	copy(argv, os.Args)
	argv[0] = survivePrefix + argv[0]

	if err := unix.Exec(exe, argv, os.Environ()); err != nil {
		return fmt.Errorf("failed to re-exec with survival prefix: %w", err)
	}
	return nil
}
