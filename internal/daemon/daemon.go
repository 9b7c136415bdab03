// Package daemon wires the pieces together and owns the process lifecycle:
// seed the counter from a predecessor, start the ticker, start the socket
// server, then block until a connection requests termination or the
// surrounding context is cancelled.
package daemon

import (
	"context"
	"fmt"

	"github.com/alexlarsson/early-service-example/internal/config"
	"github.com/alexlarsson/early-service-example/internal/counter"
	"github.com/alexlarsson/early-service-example/internal/logger"
	"github.com/alexlarsson/early-service-example/internal/pidfile"
	"github.com/alexlarsson/early-service-example/internal/socketclient"
	"github.com/alexlarsson/early-service-example/internal/socketserver"
	"github.com/alexlarsson/early-service-example/internal/ticker"
)

// Daemon is one instance of the counter service.
type Daemon struct {
	cfg  *config.Config
	cntr *counter.Counter
}

// New creates a daemon for the given configuration.
func New(cfg *config.Config) *Daemon {
	return &Daemon{cfg: cfg}
}

// Counter returns the daemon's counter. It is nil until Run has seeded it.
func (d *Daemon) Counter() *counter.Counter {
	return d.cntr
}

// Run executes the daemon until a connection's protocol requests
// termination or ctx is cancelled. The only error it can return before
// entering steady state is fatal: a bind failure or an unacquirable PID
// file; the caller is expected to exit non-zero on it.
//
// The hand-off happens first and strictly synchronously: nothing else is
// running yet, so the blocking connect/write/read against the predecessor
// races with nothing.
func (d *Daemon) Run(ctx context.Context) error {
	seed := socketclient.FetchInitialCounter(d.cfg.HandoffSocketPath, d.cfg.HandoffTimeout)
	d.cntr = counter.New(seed)

	var pf *pidfile.Pidfile
	if d.cfg.PidFile != "" {
		pf = pidfile.New(d.cfg.PidFile)
		if err := pf.Acquire(); err != nil {
			return fmt.Errorf("failed to acquire pid file: %w", err)
		}
		defer func() {
			if err := pf.Remove(); err != nil {
				logger.Warn("%v", err)
			}
		}()
	}

	tick := ticker.New(d.cfg.TickInterval, d.cntr)
	tick.Start()
	defer tick.Stop()

	// A nil channel blocks forever, so a daemon without a server runs
	// until the context is cancelled.
	var shutdownRequested <-chan struct{}
	if d.cfg.ServerSocketPath != "" {
		srv := socketserver.New(d.cfg, d.cntr)
		if err := srv.Start(ctx); err != nil {
			return err
		}
		defer srv.Stop()
		shutdownRequested = srv.ShutdownRequested()
	} else {
		logger.Info("Not listening on a unix socket")
	}

	select {
	case <-ctx.Done():
		logger.Info("Shutting down: context cancelled")
	case <-shutdownRequested:
		logger.Info("Shutting down: terminate requested by a client")
	}
	return nil
}
