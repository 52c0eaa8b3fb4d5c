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

func getCommand() *cli.Command {
	conn := &connection{}

	return &cli.Command{
		Name:    "get",
		Summary: "Show one agent's full record",
		Usage:   "forge get <agent-id>",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("get", pflag.ContinueOnError)
			conn.register(flagSet)
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: forge get <agent-id>")
			}

			var resp orchestrator.GetResponse
			if err := conn.call("get-agent", map[string]any{"agent_id": args[0]}, &resp); err != nil {
				return err
			}

			agent := resp.Agent
			fmt.Printf("agent:         %s\n", agent.ID)
			fmt.Printf("workspace:     %s\n", agent.WorkspaceID)
			fmt.Printf("state:         %s\n", agent.State)
			fmt.Printf("pane:          %s\n", agent.PaneID)
			fmt.Printf("pid:           %d\n", agent.PID)
			fmt.Printf("command:       %s\n", agent.Command)
			if agent.Adapter != "" {
				fmt.Printf("adapter:       %s\n", agent.Adapter)
			}
			fmt.Printf("spawned:       %s\n", agent.SpawnedAt.Format(time.RFC3339))
			fmt.Printf("last activity: %s\n", agent.LastActivityAt.Format(time.RFC3339))
			if agent.ContentHash != "" {
				fmt.Printf("content hash:  %s\n", agent.ContentHash)
			}
			return nil
		},
	}
}
