// Package config holds the daemon's startup configuration. Values are
// resolved from, in increasing order of precedence: built-in defaults, an
// optional config file, EARLY_SERVICE_* environment variables and
// command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	envPrefix      = "EARLY_SERVICE"
	configFileName = "early-service"
	configFileType = "yaml"
)

// Config represents the daemon configuration.
type Config struct {
	// TickInterval is the period of the counter increment timer.
	TickInterval time.Duration `mapstructure:"tick_interval"`
	// ServerSocketPath is the unix socket path to listen on. Empty means
	// the daemon runs without a server, only ticking its counter.
	ServerSocketPath string `mapstructure:"server_socket_path"`
	// HandoffSocketPath is the unix socket of a predecessor instance to
	// seed the counter from at startup. Empty means start from zero.
	HandoffSocketPath string `mapstructure:"handoff_socket_path"`
	// HandoffTimeout bounds the connect/write/read sequence of the
	// bootstrap hand-off.
	HandoffTimeout time.Duration `mapstructure:"handoff_timeout"`
	// SurviveSystemdKillSignal re-execs the process with argv[0] prefixed
	// by '@' so systemd spares it when killing off initrd processes.
	SurviveSystemdKillSignal bool `mapstructure:"survive_systemd_kill_signal"`
	// PidFile, when set, is written after startup and removed at shutdown.
	PidFile string `mapstructure:"pid_file"`
	// SocketPermissions is an octal mode string applied to the bound
	// socket, e.g. "0600". Empty keeps the umask default.
	SocketPermissions string `mapstructure:"socket_permissions"`
	// MaxConnections caps concurrently served connections; 0 means
	// unlimited.
	MaxConnections int `mapstructure:"max_connections"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `mapstructure:"log_level"`
	// LogFile, when set, receives log records instead of stderr.
	LogFile string `mapstructure:"log_file"`
}

// Default returns the built-in configuration defaults.
func Default() *Config {
	return &Config{
		TickInterval:   100 * time.Millisecond,
		HandoffTimeout: 10 * time.Second,
		LogLevel:       "info",
	}
}

// Load resolves the configuration. configFile, when non-empty, names an
// explicit config file that must exist; otherwise well-known locations are
// searched and a missing file is fine. flags, when non-nil, is bound so
// changed command-line flags win over everything else.
func Load(configFile string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	defaults := Default()
	v.SetDefault("tick_interval", defaults.TickInterval)
	v.SetDefault("server_socket_path", defaults.ServerSocketPath)
	v.SetDefault("handoff_socket_path", defaults.HandoffSocketPath)
	v.SetDefault("handoff_timeout", defaults.HandoffTimeout)
	v.SetDefault("survive_systemd_kill_signal", defaults.SurviveSystemdKillSignal)
	v.SetDefault("pid_file", defaults.PidFile)
	v.SetDefault("socket_permissions", defaults.SocketPermissions)
	v.SetDefault("max_connections", defaults.MaxConnections)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("log_file", defaults.LogFile)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName(configFileName)
		v.SetConfigType(configFileType)
		v.AddConfigPath("/etc/early-service")
		if cfgDir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(cfgDir + "/early-service")
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// bindFlags wires dash-named command-line flags to their underscore-named
// config keys.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	keys := []string{
		"tick_interval",
		"server_socket_path",
		"handoff_socket_path",
		"handoff_timeout",
		"survive_systemd_kill_signal",
		"pid_file",
		"socket_permissions",
		"max_connections",
		"log_level",
		"log_file",
	}
	for _, key := range keys {
		flagName := strings.ReplaceAll(key, "_", "-")
		if f := flags.Lookup(flagName); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("failed to bind flag --%s: %w", flagName, err)
			}
		}
	}
	return nil
}

// Validate rejects configurations the daemon cannot run with.
func (c *Config) Validate() error {
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick_interval must be positive, got %s", c.TickInterval)
	}
	if c.HandoffTimeout <= 0 {
		return fmt.Errorf("handoff_timeout must be positive, got %s", c.HandoffTimeout)
	}
	if c.MaxConnections < 0 {
		return fmt.Errorf("max_connections must not be negative, got %d", c.MaxConnections)
	}
	if c.ServerSocketPath != "" && c.ServerSocketPath == c.HandoffSocketPath {
		return errors.New("server_socket_path and handoff_socket_path must differ")
	}
	if c.SocketPermissions != "" {
		if _, err := parseFileMode(c.SocketPermissions); err != nil {
			return fmt.Errorf("invalid socket_permissions %q: %w", c.SocketPermissions, err)
		}
	}
	return nil
}

// SocketFileMode returns the configured socket mode and whether one is set.
func (c *Config) SocketFileMode() (os.FileMode, bool) {
	if c.SocketPermissions == "" {
		return 0, false
	}
	mode, err := parseFileMode(c.SocketPermissions)
	if err != nil {
		return 0, false
	}
	return mode, true
}

func parseFileMode(s string) (os.FileMode, error) {
	mode, err := strconv.ParseUint(strings.TrimPrefix(s, "0o"), 8, 32)
	if err != nil {
		return 0, err
	}
	if mode > 0o777 {
		return 0, fmt.Errorf("mode %s out of range", s)
	}
	return os.FileMode(mode), nil
}
