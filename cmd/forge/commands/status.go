// Copyright 2026 The Forge Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/forge-foundation/forge/cmd/forge/cli"
	"github.com/forge-foundation/forge/orchestrator"
)

func statusCommand() *cli.Command {
	conn := &connection{}

	return &cli.Command{
		Name:    "status",
		Summary: "Show daemon health",
		Usage:   "forge status",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("status", pflag.ContinueOnError)
			conn.register(flagSet)
			return flagSet
		},
		Run: func(args []string) error {
			var resp orchestrator.StatusResponse
			if err := conn.call("status", nil, &resp); err != nil {
				return err
			}

			fmt.Printf("forged %s\n", resp.Version)
			fmt.Printf("started: %s\n", resp.StartedAt.Format(time.RFC3339))
			fmt.Printf("uptime:  %s\n", time.Duration(resp.UptimeSeconds)*time.Second)
			fmt.Printf("agents:  %d\n", resp.AgentCount)
			if resp.TmuxSocket != "" {
				fmt.Printf("tmux:    %s\n", resp.TmuxSocket)
			}
			return nil
		},
	}
}
