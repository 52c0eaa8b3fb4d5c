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

func spawnCommand() *cli.Command {
	conn := &connection{}
	var (
		workspace string
		adapter   string
		workdir   string
		session   string
		envPairs  []string
	)

	return &cli.Command{
		Name:    "spawn",
		Summary: "Start an agent in a new tmux pane",
		Usage:   "forge spawn <agent-id> -- <command> [args...]",
		Examples: []cli.Example{
			{
				Description: "start claude in workspace myproj",
				Command:     "forge spawn reviewer --workspace myproj -- claude --dangerously-skip-permissions",
			},
			{
				Description: "start a plain shell command with environment",
				Command:     "forge spawn builder --env CC=clang -- make watch",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("spawn", pflag.ContinueOnError)
			conn.register(flagSet)
			flagSet.StringVar(&workspace, "workspace", "", "workspace ID; agents in one workspace share a tmux session")
			flagSet.StringVar(&adapter, "adapter", "", "adapter name recorded on the agent")
			flagSet.StringVar(&workdir, "workdir", "", "working directory for the pane (default: daemon's cwd)")
			flagSet.StringVar(&session, "session", "", "explicit tmux session name (default: derived from workspace)")
			flagSet.StringArrayVar(&envPairs, "env", nil, "KEY=VALUE exported in the pane before the command (repeatable)")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) < 2 {
				return fmt.Errorf("usage: forge spawn <agent-id> -- <command> [args...]")
			}
			agentID := args[0]
			command := args[1]
			commandArgs := args[2:]

			env := make(map[string]string, len(envPairs))
			for _, pair := range envPairs {
				key, value, ok := strings.Cut(pair, "=")
				if !ok {
					return fmt.Errorf("invalid --env %q: want KEY=VALUE", pair)
				}
				env[key] = value
			}

			fields := map[string]any{
				"agent_id":     agentID,
				"workspace_id": workspace,
				"command":      command,
			}
			if len(commandArgs) > 0 {
				fields["args"] = commandArgs
			}
			if len(env) > 0 {
				fields["env"] = env
			}
			if workdir != "" {
				fields["working_dir"] = workdir
			}
			if session != "" {
				fields["session_name"] = session
			}
			if adapter != "" {
				fields["adapter"] = adapter
			}

			var resp orchestrator.SpawnResponse
			if err := conn.call("spawn-agent", fields, &resp); err != nil {
				return err
			}

			fmt.Printf("spawned %s in pane %s (state: %s)\n",
				resp.Agent.ID, resp.PaneID, resp.Agent.State)
			return nil
		},
	}
}
