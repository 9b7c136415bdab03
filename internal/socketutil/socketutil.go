// Package socketutil prepares and inspects unix domain socket paths. Its
// main job is crash recovery: a socket file left behind by a dead process
// must not block the next instance from binding the same path, while a
// path that a live process is still serving must stay untouched.
package socketutil

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/alexlarsson/early-service-example/internal/logger"
)

// DetectionTimeout bounds the probe dial used to decide whether a leftover
// socket file has a live listener behind it.
const DetectionTimeout = 500 * time.Millisecond

// PreparePath converts path to an absolute path and ensures its parent
// directory exists.
func PreparePath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	parentDir := filepath.Dir(absPath)
	if err := os.MkdirAll(parentDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create parent directory %s: %w", parentDir, err)
	}

	return absPath, nil
}

// IsActiveSocket reports whether something is accepting connections on the
// unix socket at path.
func IsActiveSocket(path string, timeout time.Duration) bool {
	conn, err := net.DialTimeout("unix", path, timeout)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// ClaimPath makes path available for binding. A missing path is already
// available. A leftover socket file nobody answers on is treated as stale
// and unlinked. A socket with a live listener, or a path occupied by a
// non-socket file, is an error; the caller treats that as a fatal bind
// failure.
func ClaimPath(path string, timeout time.Duration) error {
	stat, err := os.Lstat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat socket path %s: %w", path, err)
	}

	if stat.Mode()&os.ModeSocket == 0 {
		return fmt.Errorf("path %s exists and is not a socket", path)
	}

	if IsActiveSocket(path, timeout) {
		return fmt.Errorf("socket %s is already in use", path)
	}

	logger.Info("Removing stale socket file %s", path)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove stale socket file %s: %w", path, err)
	}
	return nil
}
