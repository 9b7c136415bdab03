package socketserver

import (
	"errors"
	"io"
	"net"
	"sync"

	"github.com/alexlarsson/early-service-example/internal/counter"
	"github.com/alexlarsson/early-service-example/internal/logger"
	"github.com/alexlarsson/early-service-example/internal/protocol"
)

// connState tracks where a connection is in its read/dispatch/write cycle.
// At most one read and at most one write is ever outstanding, enforced by
// the strictly sequential serve loop.
type connState int

const (
	stateAwaitingCommand connState = iota
	stateAwaitingWriteComplete
	stateClosed
)

// conn is one accepted connection. It owns a bounded read buffer and a
// reference to the shared counter; no two conns ever share a net.Conn.
type conn struct {
	id   string
	nc   net.Conn
	cntr *counter.Counter
	srv  *Server

	// Fixed-capacity read buffer. Every valid command fits in a single
	// read; a command is never reassembled across reads and anything
	// after the first newline in a read is discarded.
	buf [protocol.MaxCommandLen]byte

	state               connState
	terminateAfterWrite bool
	closeOnce           sync.Once
}

// serve runs the connection state machine until the peer goes away, an I/O
// error occurs, or a terminate command completes. The connection's
// resources are released exactly once, whatever state it dies in.
func (c *conn) serve() {
	defer c.close()

	for {
		c.state = stateAwaitingCommand
		n, err := c.nc.Read(c.buf[:])
		if err != nil {
			if errors.Is(err, io.EOF) {
				logger.Debug("Client %s disconnected", c.id)
			} else if errors.Is(err, net.ErrClosed) {
				logger.Debug("Client %s connection closed", c.id)
			} else {
				logger.Error("Error reading from client %s: %v", c.id, err)
			}
			return
		}
		if n == 0 {
			return
		}

		line := protocol.TrimLine(c.buf[:n])
		response := c.dispatch(line)

		c.state = stateAwaitingWriteComplete
		if _, err := io.WriteString(c.nc, response); err != nil {
			logger.Error("Error writing to client %s: %v", c.id, err)
			return
		}

		if c.terminateAfterWrite {
			// Hand-off semantics: the response is flushed, this
			// connection dies, and then the whole process follows.
			c.close()
			c.srv.RequestShutdown()
			return
		}
	}
}

// dispatch matches one command line against the grammar and stages the
// response. Unrecognized commands get an error reply and the connection
// stays open so the client can try again.
func (c *conn) dispatch(line string) string {
	cmd := protocol.ParseCommand(line)
	switch cmd.Kind {
	case protocol.KindGetCounter:
		logger.Info("Returning counter to client %s", c.id)
		return protocol.CounterResponse(c.cntr.Get())

	case protocol.KindGetCounterAndTerminate:
		logger.Info("Returning counter to client %s and terminating the process", c.id)
		c.terminateAfterWrite = true
		return protocol.CounterResponse(c.cntr.Get())

	case protocol.KindSetCounter:
		logger.Info("Setting the counter to %d", cmd.Value)
		old := c.cntr.Swap(cmd.Value)
		return protocol.PreviousValueResponse(old)

	default:
		logger.Warn("Unknown message %q from client %s", line, c.id)
		return protocol.InvalidCommandResponse
	}
}

// close releases the connection exactly once: the handle is closed and the
// server's tracking entry dropped.
func (c *conn) close() {
	c.closeOnce.Do(func() {
		c.state = stateClosed
		c.nc.Close()
		c.srv.untrack(c.id)
		logger.Debug("Connection %s closed", c.id)
	})
}
