// Copyright 2026 The Forge Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/pflag"

	"github.com/forge-foundation/forge/cmd/forge/cli"
	"github.com/forge-foundation/forge/orchestrator"
)

func watchCommand() *cli.Command {
	conn := &connection{}
	var (
		interval    time.Duration
		showContent bool
		lastHash    string
	)

	return &cli.Command{
		Name:    "watch",
		Summary: "Follow an agent's pane changes until interrupted",
		Usage:   "forge watch <agent-id>",
		Examples: []cli.Example{
			{
				Description: "print full pane content on every change, polling at 200ms",
				Command:     "forge watch reviewer --content --interval 200ms",
			},
			{
				Description: "resume after a disconnect without re-printing known content",
				Command:     "forge watch reviewer --last-hash <hash>",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("watch", pflag.ContinueOnError)
			conn.register(flagSet)
			flagSet.DurationVar(&interval, "interval", 0, "poll interval (default: daemon's setting)")
			flagSet.BoolVar(&showContent, "content", false, "print pane content with each update")
			flagSet.StringVar(&lastHash, "last-hash", "", "content hash from a previous watch")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: forge watch <agent-id>")
			}

			fields := map[string]any{
				"agent_id":        args[0],
				"include_content": showContent,
			}
			if interval > 0 {
				fields["min_interval_ms"] = interval.Milliseconds()
			}
			if lastHash != "" {
				fields["last_known_hash"] = lastHash
			}

			ctx, cancel := streamContext()
			defer cancel()

			stream, err := conn.client().Stream(ctx, "stream-pane-updates", fields)
			if err != nil {
				return err
			}
			defer stream.Close()

			for {
				var update orchestrator.PaneUpdate
				if err := stream.Recv(&update); err != nil {
					if err == io.EOF || streamClosed(ctx) {
						return nil
					}
					return err
				}

				marker := " "
				if update.Changed {
					marker = "*"
				}
				fmt.Printf("%s %s state=%s hash=%.12s\n",
					update.Timestamp.Format(time.TimeOnly),
					marker,
					update.DetectedState,
					update.ContentHash,
				)
				if showContent && update.Content != "" {
					fmt.Println(update.Content)
				}
			}
		},
	}
}
