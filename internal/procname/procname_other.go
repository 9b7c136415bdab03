//go:build !linux

package procname

import "github.com/alexlarsson/early-service-example/internal/logger"

// Active always reports false off Linux.
func Active() bool {
	return false
}

// EnterSurvivalMode is a no-op off Linux; the '@' argv convention is a
// systemd mechanism.
func EnterSurvivalMode() error {
	logger.Warn("Kill-signal survival is only supported on Linux; ignoring")
	return nil
}
