package socketserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/alexlarsson/early-service-example/internal/config"
	"github.com/alexlarsson/early-service-example/internal/counter"
	"github.com/alexlarsson/early-service-example/internal/logger"
	"github.com/alexlarsson/early-service-example/internal/socketutil"
)

// Server exposes the counter on a unix domain socket. Each accepted
// connection is served by its own goroutine running the connection state
// machine in conn.go.
type Server struct {
	cfg  *config.Config
	cntr *counter.Counter

	listener   net.Listener
	socketPath string

	// Connection tracking
	connMu  sync.Mutex
	conns   map[string]*conn
	connSeq int

	// Control
	mu         sync.Mutex
	running    bool
	stopChan   chan struct{}
	stopOnce   sync.Once
	acceptDone chan struct{}

	// Closed when a connection finishes a get_counter_and_terminate
	// response; the daemon waits on this to exit.
	shutdownChan chan struct{}
	shutdownOnce sync.Once
}

// New creates a server for the given configuration and counter. The server
// does not bind anything until Start is called.
func New(cfg *config.Config, cntr *counter.Counter) *Server {
	return &Server{
		cfg:          cfg,
		cntr:         cntr,
		conns:        make(map[string]*conn),
		stopChan:     make(chan struct{}),
		shutdownChan: make(chan struct{}),
	}
}

// Start binds the configured socket path and begins accepting connections
// in the background. A bind failure is returned to the caller and is fatal
// at startup.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return errors.New("server is already running")
	}
	s.running = true
	s.mu.Unlock()

	if err := s.start(ctx); err != nil {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Server) start(ctx context.Context) error {
	socketPath := s.cfg.ServerSocketPath
	if socketPath == "" {
		return errors.New("server socket path is not configured")
	}

	absPath, err := socketutil.PreparePath(socketPath)
	if err != nil {
		return fmt.Errorf("failed to prepare socket path: %w", err)
	}

	// A file left behind by a crashed predecessor must not block the
	// bind; a live listener must.
	if err := socketutil.ClaimPath(absPath, socketutil.DetectionTimeout); err != nil {
		return fmt.Errorf("failed to claim socket path: %w", err)
	}

	listener, err := net.Listen("unix", absPath)
	if err != nil {
		return fmt.Errorf("failed to listen on unix socket %s: %w", absPath, err)
	}
	s.listener = listener
	s.socketPath = absPath

	if mode, ok := s.cfg.SocketFileMode(); ok {
		if err := os.Chmod(absPath, mode); err != nil {
			logger.Warn("Failed to set socket permissions: %v", err)
		}
	}

	s.acceptDone = make(chan struct{})
	go s.acceptLoop(ctx)

	logger.Info("Listening on unix socket %s", absPath)
	return nil
}

// Stop stops accepting, closes live connections and removes the socket
// path from the filesystem. Failing to unlink the path is logged, not
// fatal. Stop is safe to call more than once.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)

		if s.listener != nil {
			if err := s.listener.Close(); err != nil {
				logger.Error("Error closing socket listener: %v", err)
			}
			<-s.acceptDone
		}

		s.connMu.Lock()
		conns := make([]*conn, 0, len(s.conns))
		for _, c := range s.conns {
			conns = append(conns, c)
		}
		s.connMu.Unlock()
		for _, c := range conns {
			c.close()
		}

		if s.socketPath != "" {
			if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
				logger.Warn("Failed to remove socket file %s: %v", s.socketPath, err)
			}
		}

		s.mu.Lock()
		s.running = false
		s.mu.Unlock()

		logger.Info("Unix socket server stopped")
	})
}

// RequestShutdown asks the process to exit. It is called by a connection
// after flushing a get_counter_and_terminate response; the first call wins
// and later calls are no-ops.
func (s *Server) RequestShutdown() {
	s.shutdownOnce.Do(func() {
		close(s.shutdownChan)
	})
}

// ShutdownRequested returns a channel that is closed once a connection has
// asked the process to terminate.
func (s *Server) ShutdownRequested() <-chan struct{} {
	return s.shutdownChan
}

// IsRunning reports whether the server is currently accepting connections.
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// ConnCount returns the number of live connections.
func (s *Server) ConnCount() int {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	return len(s.conns)
}

func (s *Server) acceptLoop(ctx context.Context) {
	defer close(s.acceptDone)

	for {
		select {
		case <-ctx.Done():
			logger.Debug("Accept loop stopped via context cancellation")
			return
		case <-s.stopChan:
			logger.Debug("Accept loop stopped via stop signal")
			return
		default:
			// Bounded accepts let the loop notice stopChan.
			if ul, ok := s.listener.(*net.UnixListener); ok {
				ul.SetDeadline(time.Now().Add(1 * time.Second))
			}

			nc, err := s.listener.Accept()
			if err != nil {
				var netErr net.Error
				if errors.As(err, &netErr) && netErr.Timeout() {
					continue
				}
				if errors.Is(err, net.ErrClosed) {
					logger.Debug("Listener closed, exiting accept loop")
					return
				}
				logger.Error("Error accepting connection: %v", err)
				continue
			}

			if s.cfg.MaxConnections > 0 && s.ConnCount() >= s.cfg.MaxConnections {
				logger.Warn("Connection limit reached (%d), rejecting connection", s.cfg.MaxConnections)
				nc.Close()
				continue
			}

			c := s.newConn(nc)
			go c.serve()
			logger.Debug("New connection accepted: %s (total: %d)", c.id, s.ConnCount())
		}
	}
}

func (s *Server) newConn(nc net.Conn) *conn {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	s.connSeq++
	c := &conn{
		id:   fmt.Sprintf("conn_%d", s.connSeq),
		nc:   nc,
		cntr: s.cntr,
		srv:  s,
	}
	s.conns[c.id] = c
	return c
}

func (s *Server) untrack(id string) {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	delete(s.conns, id)
}
