// Copyright 2026 The Forge Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/forge-foundation/forge/cmd/forge/cli"
	"github.com/forge-foundation/forge/orchestrator"
)

func listCommand() *cli.Command {
	conn := &connection{}
	var (
		workspace string
		states    []string
	)

	return &cli.Command{
		Name:    "ls",
		Summary: "List agents",
		Usage:   "forge ls [flags]",
		Examples: []cli.Example{
			{
				Description: "agents in one workspace that are waiting for approval",
				Command:     "forge ls --workspace myproj --state waiting_approval",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("ls", pflag.ContinueOnError)
			conn.register(flagSet)
			flagSet.StringVar(&workspace, "workspace", "", "only agents in this workspace")
			flagSet.StringArrayVar(&states, "state", nil, "only agents in this state (repeatable)")
			return flagSet
		},
		Run: func(args []string) error {
			fields := map[string]any{}
			if workspace != "" {
				fields["workspace_id"] = workspace
			}
			if len(states) > 0 {
				fields["states"] = states
			}

			var resp orchestrator.ListResponse
			if err := conn.call("list-agents", fields, &resp); err != nil {
				return err
			}

			if len(resp.Agents) == 0 {
				fmt.Println("no agents")
				return nil
			}

			tw := tabwriter.NewWriter(os.Stdout, 2, 0, 3, ' ', 0)
			fmt.Fprintln(tw, "AGENT\tWORKSPACE\tSTATE\tPANE\tPID\tLAST ACTIVITY")
			for _, agent := range resp.Agents {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
					agent.ID,
					agent.WorkspaceID,
					agent.State,
					agent.PaneID,
					agent.PID,
					agent.LastActivityAt.Format(time.RFC3339),
				)
			}
			return tw.Flush()
		},
	}
}
