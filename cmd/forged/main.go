// Copyright 2026 The Forge Authors
// SPDX-License-Identifier: Apache-2.0

// Forged is the agent orchestration daemon. It owns a dedicated tmux
// server, runs coding agents in panes on it, and exposes a typed RPC
// surface over a Unix socket for spawning, observing, and controlling
// those agents.
//
// On startup:
//  1. Loads configuration (--config flag, or FORGE_CONFIG).
//  2. Ensures the runtime directories exist.
//  3. Wires the in-memory agent registry and the tmux driver.
//  4. Serves the control socket until SIGINT/SIGTERM, then drains
//     in-flight connections.
//
// All agent state lives in memory; a restarted daemon starts with an
// empty registry even when agent panes are still running on the tmux
// server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/forge-foundation/forge/lib/clock"
	"github.com/forge-foundation/forge/lib/config"
	"github.com/forge-foundation/forge/lib/registry"
	"github.com/forge-foundation/forge/lib/rpc"
	"github.com/forge-foundation/forge/lib/tmux"
	"github.com/forge-foundation/forge/lib/version"
	"github.com/forge-foundation/forge/orchestrator"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath  string
		socketPath  string
		tmuxSocket  string
		tmuxConfig  string
		logLevel    string
		showVersion bool
	)

	flag.StringVar(&configPath, "config", "", "path to forge.yaml (default: FORGE_CONFIG)")
	flag.StringVar(&socketPath, "socket", "", "control socket path (overrides config)")
	flag.StringVar(&tmuxSocket, "tmux-socket", "", "tmux server socket path (overrides config)")
	flag.StringVar(&tmuxConfig, "tmux-config", "", "tmux config file for the agent server (overrides config)")
	flag.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
	flag.BoolVar(&showVersion, "version", false, "print version information and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("forged %s\n", version.Info())
		return nil
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	applyFlagOverrides(cfg, socketPath, tmuxSocket, tmuxConfig, logLevel)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.EnsurePaths(); err != nil {
		return fmt.Errorf("creating runtime directories: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slogLevel(cfg.Logging.Level),
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// A dedicated tmux server keeps agent sessions out of the
	// operator's personal tmux. An unset config file would make tmux
	// load ~/.tmux.conf into agent panes, so it defaults to /dev/null.
	tmuxConfigFile := cfg.Tmux.ConfigFile
	if tmuxConfigFile == "" {
		tmuxConfigFile = "/dev/null"
	}
	driver := tmux.NewServer(cfg.Tmux.SocketPath, tmuxConfigFile)

	store := registry.NewStore(clock.Real())
	service := orchestrator.NewService(logger, clock.Real(), driver, store,
		orchestrator.WithVersion(version.Short()),
		orchestrator.WithTmuxSocketPath(cfg.Tmux.SocketPath),
		orchestrator.WithSessionPrefix(cfg.Tmux.SessionPrefix),
		orchestrator.WithPanePollInterval(cfg.PanePollInterval()),
	)

	server := rpc.NewServer(cfg.Daemon.SocketPath, logger)
	service.RegisterActions(server)

	logger.Info("forged starting",
		"version", version.Info(),
		"socket", cfg.Daemon.SocketPath,
		"tmux_socket", cfg.Tmux.SocketPath,
	)

	serveErr := make(chan error, 1)
	go func() { serveErr <- server.Serve(ctx) }()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	// Stop accepting immediately; give in-flight handlers a bounded
	// window to finish rather than hanging shutdown forever.
	logger.Info("shutting down", "drain_timeout", cfg.ShutdownTimeout())
	select {
	case err := <-serveErr:
		return err
	case <-time.After(cfg.ShutdownTimeout()):
		return fmt.Errorf("shutdown timed out after %s waiting for connections to drain",
			cfg.ShutdownTimeout())
	}
}

// loadConfig resolves the configuration source: explicit --config path
// first, then FORGE_CONFIG, then built-in defaults. Defaults alone are
// enough for a local development daemon.
func loadConfig(configPath string) (*config.Config, error) {
	switch {
	case configPath != "":
		cfg, err := config.LoadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("loading config %s: %w", configPath, err)
		}
		return cfg, nil
	case os.Getenv("FORGE_CONFIG") != "":
		cfg, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		return cfg, nil
	default:
		return config.Default(), nil
	}
}

// applyFlagOverrides applies non-empty command-line values over the
// loaded configuration. Flags beat the file for one-off runs.
func applyFlagOverrides(cfg *config.Config, socketPath, tmuxSocket, tmuxConfig, logLevel string) {
	if socketPath != "" {
		cfg.Daemon.SocketPath = socketPath
	}
	if tmuxSocket != "" {
		cfg.Tmux.SocketPath = tmuxSocket
	}
	if tmuxConfig != "" {
		cfg.Tmux.ConfigFile = tmuxConfig
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
}

func slogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
