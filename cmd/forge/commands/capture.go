// Copyright 2026 The Forge Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/forge-foundation/forge/cmd/forge/cli"
	"github.com/forge-foundation/forge/orchestrator"
)

func captureCommand() *cli.Command {
	conn := &connection{}
	var (
		history  bool
		hashOnly bool
	)

	return &cli.Command{
		Name:    "capture",
		Summary: "Print an agent's pane content",
		Usage:   "forge capture <agent-id>",
		Examples: []cli.Example{
			{
				Description: "full scrollback instead of just the visible area",
				Command:     "forge capture reviewer --history",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("capture", pflag.ContinueOnError)
			conn.register(flagSet)
			flagSet.BoolVar(&history, "history", false, "include the full scrollback history")
			flagSet.BoolVar(&hashOnly, "hash", false, "print only the content hash")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: forge capture <agent-id>")
			}

			fields := map[string]any{"agent_id": args[0]}
			if history {
				fields["lines"] = -1
			}

			var resp orchestrator.CaptureResponse
			if err := conn.call("capture-pane", fields, &resp); err != nil {
				return err
			}

			if hashOnly {
				fmt.Println(resp.ContentHash)
				return nil
			}
			fmt.Print(resp.Content)
			if !strings.HasSuffix(resp.Content, "\n") {
				fmt.Println()
			}
			return nil
		},
	}
}
