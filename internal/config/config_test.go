package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 100*time.Millisecond, cfg.TickInterval)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.ServerSocketPath)
	assert.Empty(t, cfg.HandoffSocketPath)
}

func TestLoadWithoutAnySources(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, Default().TickInterval, cfg.TickInterval)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("EARLY_SERVICE_TICK_INTERVAL", "250ms")
	t.Setenv("EARLY_SERVICE_SERVER_SOCKET_PATH", "/run/early-service.sock")

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, cfg.TickInterval)
	assert.Equal(t, "/run/early-service.sock", cfg.ServerSocketPath)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "early-service.yaml")
	contents := "tick_interval: 1s\nlog_level: debug\nmax_connections: 4\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, time.Second, cfg.TickInterval)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 4, cfg.MaxConnections)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	assert.Error(t, err)
}

func TestFlagsWinOverEnv(t *testing.T) {
	t.Setenv("EARLY_SERVICE_TICK_INTERVAL", "250ms")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Duration("tick-interval", Default().TickInterval, "")
	require.NoError(t, flags.Parse([]string{"--tick-interval=2s"}))

	cfg, err := Load("", flags)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, cfg.TickInterval)
}

func TestUnchangedFlagDoesNotMaskEnv(t *testing.T) {
	t.Setenv("EARLY_SERVICE_LOG_LEVEL", "warn")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("log-level", Default().LogLevel, "")
	require.NoError(t, flags.Parse(nil))

	cfg, err := Load("", flags)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults ok", func(c *Config) {}, false},
		{"zero tick interval", func(c *Config) { c.TickInterval = 0 }, true},
		{"negative tick interval", func(c *Config) { c.TickInterval = -time.Second }, true},
		{"zero handoff timeout", func(c *Config) { c.HandoffTimeout = 0 }, true},
		{"negative max connections", func(c *Config) { c.MaxConnections = -1 }, true},
		{"same listen and handoff path", func(c *Config) {
			c.ServerSocketPath = "/run/a.sock"
			c.HandoffSocketPath = "/run/a.sock"
		}, true},
		{"distinct paths ok", func(c *Config) {
			c.ServerSocketPath = "/run/a.sock"
			c.HandoffSocketPath = "/run/b.sock"
		}, false},
		{"valid socket permissions", func(c *Config) { c.SocketPermissions = "0600" }, false},
		{"invalid socket permissions", func(c *Config) { c.SocketPermissions = "rw-r--r--" }, true},
		{"out of range socket permissions", func(c *Config) { c.SocketPermissions = "7777" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSocketFileMode(t *testing.T) {
	cfg := Default()
	_, ok := cfg.SocketFileMode()
	assert.False(t, ok)

	cfg.SocketPermissions = "0600"
	mode, ok := cfg.SocketFileMode()
	require.True(t, ok)
	assert.Equal(t, os.FileMode(0o600), mode)
}
