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

func killCommand() *cli.Command {
	conn := &connection{}
	var (
		force bool
		grace time.Duration
	)

	return &cli.Command{
		Name:    "kill",
		Summary: "Stop an agent and remove it",
		Usage:   "forge kill <agent-id>",
		Examples: []cli.Example{
			{
				Description: "interrupt the agent and give it 5s to exit",
				Command:     "forge kill reviewer --grace 5s",
			},
			{
				Description: "tear the pane down immediately",
				Command:     "forge kill reviewer --force",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("kill", pflag.ContinueOnError)
			conn.register(flagSet)
			flagSet.BoolVar(&force, "force", false, "skip the interrupt and kill the pane immediately")
			flagSet.DurationVar(&grace, "grace", 0, "wait this long after the interrupt before killing the pane")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: forge kill <agent-id>")
			}

			fields := map[string]any{
				"agent_id":        args[0],
				"force":           force,
				"grace_period_ms": grace.Milliseconds(),
			}

			var resp orchestrator.KillResponse
			if err := conn.call("kill-agent", fields, &resp); err != nil {
				return err
			}

			fmt.Printf("killed %s\n", args[0])
			return nil
		},
	}
}
