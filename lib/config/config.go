// Copyright 2026 The Forge Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for Forge components.
//
// Configuration is loaded from a single file specified by:
//   - FORGE_CONFIG environment variable, or
//   - --config flag passed to the command
//
// There are no fallbacks or automatic discovery. This ensures deterministic,
// auditable configuration with no hidden overrides.
//
// The config file may contain environment-specific sections (development,
// staging, production) that override base values when the environment matches.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local development machines.
	Development Environment = "development"
	// Staging is for pre-production testing.
	Staging Environment = "staging"
	// Production is for production deployments.
	Production Environment = "production"
)

// Config is the master configuration for Forge.
type Config struct {
	// Environment identifies the deployment type (development, staging, production).
	Environment Environment `yaml:"environment"`

	// Paths configures directory locations.
	Paths PathsConfig `yaml:"paths"`

	// Daemon configures the orchestration daemon.
	Daemon DaemonConfig `yaml:"daemon"`

	// Tmux configures the tmux server the daemon drives.
	Tmux TmuxConfig `yaml:"tmux"`

	// Logging configures structured log output.
	Logging LoggingConfig `yaml:"logging"`

	// EnvironmentOverrides contains per-environment overrides.
	// These are applied after the base config is loaded.
	Development *ConfigOverrides `yaml:"development,omitempty"`
	Staging     *ConfigOverrides `yaml:"staging,omitempty"`
	Production  *ConfigOverrides `yaml:"production,omitempty"`
}

// ConfigOverrides contains fields that can be overridden per environment.
type ConfigOverrides struct {
	Paths   *PathsConfig   `yaml:"paths,omitempty"`
	Daemon  *DaemonConfig  `yaml:"daemon,omitempty"`
	Tmux    *TmuxConfig    `yaml:"tmux,omitempty"`
	Logging *LoggingConfig `yaml:"logging,omitempty"`
}

// PathsConfig configures directory locations.
type PathsConfig struct {
	// Root is the base directory for Forge data.
	Root string `yaml:"root"`

	// Run is where runtime state (sockets, pid files) lives.
	Run string `yaml:"run"`
}

// DaemonConfig configures the orchestration daemon.
type DaemonConfig struct {
	// SocketPath is the Unix socket the daemon's RPC surface listens on.
	// Default: ${FORGE_ROOT}/run/forged.sock
	SocketPath string `yaml:"socket_path"`

	// PanePollInterval is the default pacing for pane-update streams
	// when the caller does not request a tighter interval.
	// Default: 500ms
	PanePollInterval string `yaml:"pane_poll_interval"`

	// ShutdownTimeout bounds how long a stopping daemon waits for
	// in-flight connections to drain.
	// Default: 30s
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

// TmuxConfig configures the tmux server agents run under.
type TmuxConfig struct {
	// SocketPath is the tmux server socket. A dedicated socket keeps
	// agent sessions out of the operator's interactive tmux server.
	// Default: ${FORGE_ROOT}/run/tmux.sock
	SocketPath string `yaml:"socket_path"`

	// ConfigFile is an optional tmux configuration file loaded when the
	// daemon starts the server. Empty means tmux defaults.
	ConfigFile string `yaml:"config_file"`

	// SessionPrefix is prepended to workspace IDs to form session
	// names. Default: forge-
	SessionPrefix string `yaml:"session_prefix"`
}

// LoggingConfig configures structured log output.
type LoggingConfig struct {
	// Level is the minimum level emitted: debug, info, warn, error.
	// Default: info
	Level string `yaml:"level"`
}

// Default returns the default configuration.
// These defaults are used as a base before loading the config file.
// They exist primarily to ensure all fields have sensible zero-values,
// not as a fallback - the config file is required.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	defaultRoot := filepath.Join(homeDir, ".cache", "forge")

	return &Config{
		Environment: Development,
		Paths: PathsConfig{
			Root: defaultRoot,
			Run:  filepath.Join(defaultRoot, "run"),
		},
		Daemon: DaemonConfig{
			SocketPath:       filepath.Join(defaultRoot, "run", "forged.sock"),
			PanePollInterval: "500ms",
			ShutdownTimeout:  "30s",
		},
		Tmux: TmuxConfig{
			SocketPath:    filepath.Join(defaultRoot, "run", "tmux.sock"),
			SessionPrefix: "forge-",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from the FORGE_CONFIG environment variable.
//
// This is the only way to load configuration without an explicit path.
// There are no fallbacks or defaults - if FORGE_CONFIG is not set, this fails.
// This ensures deterministic, auditable configuration with no hidden overrides.
func Load() (*Config, error) {
	configPath := os.Getenv("FORGE_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("FORGE_CONFIG environment variable not set; " +
			"set it to the path of your forge.yaml config file, or use --config flag")
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
//
// The config file is the single source of truth. Environment variables do not
// override config values - this ensures deterministic, auditable configuration.
// The only expansion performed is ${HOME} and similar path variables for portability.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}

	// Apply environment-specific overrides (development/staging/production sections in the file).
	cfg.applyEnvironmentOverrides()

	// Expand ${HOME} and similar variables in paths for portability.
	cfg.expandVariables()

	return cfg, nil
}

// loadFile loads a single configuration file, merging into the current config.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, c)
}

// applyEnvironmentOverrides applies the environment-specific overrides.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *ConfigOverrides

	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
	}

	if overrides == nil {
		return
	}

	if overrides.Paths != nil {
		if overrides.Paths.Root != "" {
			c.Paths.Root = overrides.Paths.Root
		}
		if overrides.Paths.Run != "" {
			c.Paths.Run = overrides.Paths.Run
		}
	}

	if overrides.Daemon != nil {
		if overrides.Daemon.SocketPath != "" {
			c.Daemon.SocketPath = overrides.Daemon.SocketPath
		}
		if overrides.Daemon.PanePollInterval != "" {
			c.Daemon.PanePollInterval = overrides.Daemon.PanePollInterval
		}
		if overrides.Daemon.ShutdownTimeout != "" {
			c.Daemon.ShutdownTimeout = overrides.Daemon.ShutdownTimeout
		}
	}

	if overrides.Tmux != nil {
		if overrides.Tmux.SocketPath != "" {
			c.Tmux.SocketPath = overrides.Tmux.SocketPath
		}
		if overrides.Tmux.ConfigFile != "" {
			c.Tmux.ConfigFile = overrides.Tmux.ConfigFile
		}
		if overrides.Tmux.SessionPrefix != "" {
			c.Tmux.SessionPrefix = overrides.Tmux.SessionPrefix
		}
	}

	if overrides.Logging != nil {
		if overrides.Logging.Level != "" {
			c.Logging.Level = overrides.Logging.Level
		}
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"FORGE_ROOT": c.Paths.Root,
		"HOME":       os.Getenv("HOME"),
	}

	c.Paths.Root = expandVars(c.Paths.Root, vars)
	vars["FORGE_ROOT"] = c.Paths.Root // Update for dependent paths.

	c.Paths.Run = expandVars(c.Paths.Run, vars)
	c.Daemon.SocketPath = expandVars(c.Daemon.SocketPath, vars)
	c.Tmux.SocketPath = expandVars(c.Tmux.SocketPath, vars)
	c.Tmux.ConfigFile = expandVars(c.Tmux.ConfigFile, vars)
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Staging && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %s", c.Environment))
	}

	if c.Paths.Root == "" {
		errs = append(errs, fmt.Errorf("paths.root is required"))
	}

	if c.Daemon.SocketPath == "" {
		errs = append(errs, fmt.Errorf("daemon.socket_path is required"))
	}

	if c.Tmux.SocketPath == "" {
		errs = append(errs, fmt.Errorf("tmux.socket_path is required"))
	}

	if _, err := parsePositiveDuration(c.Daemon.PanePollInterval); err != nil {
		errs = append(errs, fmt.Errorf("daemon.pane_poll_interval: %w", err))
	}
	if _, err := parsePositiveDuration(c.Daemon.ShutdownTimeout); err != nil {
		errs = append(errs, fmt.Errorf("daemon.shutdown_timeout: %w", err))
	}

	levels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(levels, c.Logging.Level) {
		errs = append(errs, fmt.Errorf("logging.level must be one of: %v", levels))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

func parsePositiveDuration(s string) (time.Duration, error) {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration %s must be positive", d)
	}
	return d, nil
}

// PanePollInterval returns the parsed pane poll interval. Call
// Validate first; an unparseable value falls back to 500ms here.
func (c *Config) PanePollInterval() time.Duration {
	d, err := parsePositiveDuration(c.Daemon.PanePollInterval)
	if err != nil {
		return 500 * time.Millisecond
	}
	return d
}

// ShutdownTimeout returns the parsed shutdown timeout. Call Validate
// first; an unparseable value falls back to 30s here.
func (c *Config) ShutdownTimeout() time.Duration {
	d, err := parsePositiveDuration(c.Daemon.ShutdownTimeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// EnsurePaths creates all configured directories if they don't exist.
func (c *Config) EnsurePaths() error {
	paths := []string{
		c.Paths.Root,
		c.Paths.Run,
		filepath.Dir(c.Daemon.SocketPath),
		filepath.Dir(c.Tmux.SocketPath),
	}

	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := os.MkdirAll(path, 0755); err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
	}

	return nil
}
