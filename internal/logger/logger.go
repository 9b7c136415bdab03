// Package logger provides the process-wide leveled logger. It is a thin
// facade over charmbracelet/log so call sites stay printf-shaped and never
// care where the records end up (stderr by default, a file when the daemon
// is configured with one). A failing or absent sink is never fatal.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	charmlog "github.com/charmbracelet/log"
)

var (
	mu     sync.RWMutex
	global *charmlog.Logger
	file   *os.File
)

// ParseLevel parses a level name, defaulting to info on anything it does
// not recognize.
func ParseLevel(s string) charmlog.Level {
	lvl, err := charmlog.ParseLevel(s)
	if err != nil {
		return charmlog.InfoLevel
	}
	return lvl
}

// Init configures the global logger. With an empty logPath records go to
// stderr; otherwise they are appended to the file at logPath. Init may be
// called again to reconfigure; the previous log file, if any, is closed.
func Init(level string, logPath string) error {
	w := io.Writer(os.Stderr)

	var f *os.File
	if logPath != "" {
		if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		var err error
		f, err = os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		w = f
	}

	l := charmlog.NewWithOptions(w, charmlog.Options{
		ReportTimestamp: true,
		Level:           ParseLevel(level),
		Prefix:          "early-service",
	})

	mu.Lock()
	defer mu.Unlock()
	if file != nil {
		file.Close()
	}
	global = l
	file = f
	return nil
}

// Global returns the configured logger, falling back to a stderr logger at
// info level when Init has not been called.
func Global() *charmlog.Logger {
	mu.RLock()
	l := global
	mu.RUnlock()
	if l != nil {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if global == nil {
		global = charmlog.NewWithOptions(os.Stderr, charmlog.Options{
			ReportTimestamp: true,
			Level:           charmlog.InfoLevel,
			Prefix:          "early-service",
		})
	}
	return global
}

// SetLevel changes the level of the global logger.
func SetLevel(level charmlog.Level) {
	Global().SetLevel(level)
}

// Close closes the log file, if one was opened by Init.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if file != nil {
		err := file.Close()
		file = nil
		return err
	}
	return nil
}

// Debug logs a debug message using the global logger.
func Debug(format string, args ...any) {
	Global().Debugf(format, args...)
}

// Info logs an informational message using the global logger.
func Info(format string, args ...any) {
	Global().Infof(format, args...)
}

// Warn logs a warning using the global logger.
func Warn(format string, args ...any) {
	Global().Warnf(format, args...)
}

// Error logs an error using the global logger.
func Error(format string, args ...any) {
	Global().Errorf(format, args...)
}
