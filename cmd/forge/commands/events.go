// Copyright 2026 The Forge Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/pflag"

	"github.com/forge-foundation/forge/cmd/forge/cli"
	"github.com/forge-foundation/forge/lib/schema"
	"github.com/forge-foundation/forge/orchestrator"
)

func eventsCommand() *cli.Command {
	conn := &connection{}
	var (
		cursor     string
		types      []string
		agents     []string
		workspaces []string
	)

	return &cli.Command{
		Name:    "events",
		Summary: "Follow the daemon's event stream until interrupted",
		Usage:   "forge events [flags]",
		Examples: []cli.Example{
			{
				Description: "only state changes for one workspace",
				Command:     "forge events --type agent_state_changed --workspace myproj",
			},
			{
				Description: "resume from a previously printed cursor",
				Command:     "forge events --cursor 42",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("events", pflag.ContinueOnError)
			conn.register(flagSet)
			flagSet.StringVar(&cursor, "cursor", "", "resume token from a previous stream")
			flagSet.StringArrayVar(&types, "type", nil, "only this event type (repeatable)")
			flagSet.StringArrayVar(&agents, "agent", nil, "only this agent (repeatable)")
			flagSet.StringArrayVar(&workspaces, "workspace", nil, "only this workspace (repeatable)")
			return flagSet
		},
		Run: func(args []string) error {
			fields := map[string]any{}
			if cursor != "" {
				fields["cursor"] = cursor
			}
			if len(types) > 0 {
				fields["types"] = types
			}
			if len(agents) > 0 {
				fields["agent_ids"] = agents
			}
			if len(workspaces) > 0 {
				fields["workspace_ids"] = workspaces
			}

			ctx, cancel := streamContext()
			defer cancel()

			stream, err := conn.client().Stream(ctx, "stream-events", fields)
			if err != nil {
				return err
			}
			defer stream.Close()

			for {
				var frame orchestrator.EventFrame
				if err := stream.Recv(&frame); err != nil {
					if err == io.EOF || streamClosed(ctx) {
						return nil
					}
					return err
				}

				event := frame.Event
				fmt.Printf("[%s] %s %s agent=%s %s\n",
					frame.Cursor,
					event.Timestamp.Format(time.TimeOnly),
					event.Type,
					event.AgentID,
					eventDetail(event),
				)
			}
		},
	}
}

// eventDetail renders the payload variant as a short suffix.
func eventDetail(event schema.Event) string {
	switch {
	case event.StateChanged != nil:
		return fmt.Sprintf("%s -> %s", event.StateChanged.Previous, event.StateChanged.New)
	case event.Error != nil:
		return event.Error.Message
	case event.Approval != nil:
		return fmt.Sprintf("approval: %s", event.Approval.Prompt)
	case event.Output != nil:
		return fmt.Sprintf("(%d bytes)", len(event.Output.Content))
	default:
		return ""
	}
}
