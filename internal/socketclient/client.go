// Package socketclient talks to a running counter daemon over its unix
// domain socket. Its main customer is the bootstrap hand-off: a freshly
// started instance asks its predecessor for the current counter value and,
// as a side effect of the command it sends, causes the predecessor to
// exit. This all happens synchronously before the new instance starts any
// machinery of its own, so blocking I/O is fine here.
//
// The same one-command/one-response round trip also backs the `get` and
// `set` CLI subcommands.
package socketclient

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/alexlarsson/early-service-example/internal/logger"
	"github.com/alexlarsson/early-service-example/internal/protocol"
)

// responseBufferLen bounds the single read of a response; every response
// the protocol produces fits comfortably.
const responseBufferLen = 100

// FetchInitialCounter retrieves the counter value from a predecessor
// instance listening at path and asks it to terminate. It never fails: an
// unset path, an unreachable predecessor or a garbled reply all yield zero,
// since a missing predecessor is a perfectly normal condition (first boot).
func FetchInitialCounter(path string, timeout time.Duration) int64 {
	if path == "" {
		return 0
	}

	logger.Info("Reading starting position from socket %s", path)

	reply, err := roundTrip(path, protocol.CmdGetCounterAndTerminate+"\n", timeout)
	if err != nil {
		logger.Warn("Failed to read counter from predecessor: %v", err)
		return 0
	}
	return protocol.ParseLeadingInt(reply)
}

// GetCounter queries the current counter of a daemon listening at path.
func GetCounter(path string, timeout time.Duration) (int64, error) {
	reply, err := roundTrip(path, protocol.CmdGetCounter+"\n", timeout)
	if err != nil {
		return 0, err
	}
	if strings.HasPrefix(reply, protocol.InvalidCommandResponse) {
		return 0, fmt.Errorf("server rejected command: %q", strings.TrimSpace(reply))
	}
	return protocol.ParseLeadingInt(reply), nil
}

// SetCounter overwrites the counter of a daemon listening at path and
// returns the value it replaced.
func SetCounter(path string, value int64, timeout time.Duration) (int64, error) {
	reply, err := roundTrip(path, fmt.Sprintf("%s%d\n", protocol.CmdSetCounterPrefix, value), timeout)
	if err != nil {
		return 0, err
	}
	const prefix = "previous value "
	if !strings.HasPrefix(reply, prefix) {
		return 0, fmt.Errorf("unexpected response: %q", strings.TrimSpace(reply))
	}
	return protocol.ParseLeadingInt(reply[len(prefix):]), nil
}

// roundTrip connects, writes one command and performs one bounded read of
// the response.
func roundTrip(path, command string, timeout time.Duration) (string, error) {
	conn, err := net.DialTimeout("unix", path, timeout)
	if err != nil {
		return "", fmt.Errorf("failed to connect to socket %s: %w", path, err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		return "", fmt.Errorf("failed to set deadline: %w", err)
	}

	if _, err := conn.Write([]byte(command)); err != nil {
		return "", fmt.Errorf("failed to write to socket: %w", err)
	}

	buf := make([]byte, responseBufferLen)
	n, err := conn.Read(buf)
	if err != nil {
		return "", fmt.Errorf("failed to read from socket: %w", err)
	}

	return string(buf[:n]), nil
}
