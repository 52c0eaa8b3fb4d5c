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

func sendCommand() *cli.Command {
	conn := &connection{}
	var (
		keys    []string
		noEnter bool
	)

	return &cli.Command{
		Name:    "send",
		Summary: "Send input to an agent's pane",
		Usage:   "forge send <agent-id> [text...]",
		Examples: []cli.Example{
			{
				Description: "type a prompt and press enter",
				Command:     "forge send reviewer \"fix the failing test\"",
			},
			{
				Description: "send escape then a literal y without enter",
				Command:     "forge send reviewer --key Escape --no-enter y",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("send", pflag.ContinueOnError)
			conn.register(flagSet)
			flagSet.StringArrayVar(&keys, "key", nil, "special key in tmux syntax, sent before the text (repeatable)")
			flagSet.BoolVar(&noEnter, "no-enter", false, "do not press enter after the text")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) < 1 {
				return fmt.Errorf("usage: forge send <agent-id> [text...]")
			}
			agentID := args[0]
			text := strings.Join(args[1:], " ")

			if text == "" && len(keys) == 0 {
				return fmt.Errorf("nothing to send: provide text or --key")
			}

			fields := map[string]any{
				"agent_id":   agentID,
				"text":       text,
				"send_enter": !noEnter,
			}
			if len(keys) > 0 {
				fields["keys"] = keys
			}

			var resp orchestrator.SendInputResponse
			return conn.call("send-input", fields, &resp)
		},
	}
}
