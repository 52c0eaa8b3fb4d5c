// Copyright 2026 The Forge Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the forge CLI command tree. Every command
// is a thin client over the forged control socket: it assembles a
// request from flags and positional arguments, runs one RPC action,
// and renders the response.
package commands

import (
	"fmt"

	"github.com/forge-foundation/forge/cmd/forge/cli"
	"github.com/forge-foundation/forge/lib/version"
)

// Root builds and returns the complete forge CLI command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "forge",
		Description: `Forge: coding agent orchestration.

Run coding agents in tmux panes under a dedicated daemon, with typed
control, pane change detection, and transcript streaming.`,
		Subcommands: []*cli.Command{
			spawnCommand(),
			killCommand(),
			sendCommand(),
			listCommand(),
			getCommand(),
			captureCommand(),
			watchCommand(),
			eventsCommand(),
			transcriptCommand(),
			tailCommand(),
			statusCommand(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(args []string) error {
					fmt.Printf("forge %s\n", version.Full())
					return nil
				},
			},
		},
	}
}
