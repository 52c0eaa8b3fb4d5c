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

func transcriptCommand() *cli.Command {
	conn := &connection{}
	var (
		limit int
		since string
		until string
	)

	return &cli.Command{
		Name:    "transcript",
		Summary: "Print a page of an agent's transcript",
		Usage:   "forge transcript <agent-id>",
		Examples: []cli.Example{
			{
				Description: "the first 50 entries from this morning",
				Command:     "forge transcript reviewer --limit 50 --since 2026-08-23T09:00:00Z",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("transcript", pflag.ContinueOnError)
			conn.register(flagSet)
			flagSet.IntVar(&limit, "limit", 0, "maximum entries to return (default: 1000)")
			flagSet.StringVar(&since, "since", "", "only entries at or after this RFC 3339 time")
			flagSet.StringVar(&until, "until", "", "only entries at or before this RFC 3339 time")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: forge transcript <agent-id>")
			}

			fields := map[string]any{"agent_id": args[0]}
			if limit > 0 {
				fields["limit"] = limit
			}
			if since != "" {
				start, err := time.Parse(time.RFC3339, since)
				if err != nil {
					return fmt.Errorf("invalid --since %q: %w", since, err)
				}
				fields["start_time"] = start
			}
			if until != "" {
				end, err := time.Parse(time.RFC3339, until)
				if err != nil {
					return fmt.Errorf("invalid --until %q: %w", until, err)
				}
				fields["end_time"] = end
			}

			var resp orchestrator.TranscriptResponse
			if err := conn.call("get-transcript", fields, &resp); err != nil {
				return err
			}

			for _, entry := range resp.Entries {
				printEntry(entry)
			}
			if resp.HasMore {
				fmt.Printf("... more entries; resume with 'forge tail %s --cursor %s'\n",
					resp.AgentID, resp.NextCursor)
			}
			return nil
		},
	}
}

func tailCommand() *cli.Command {
	conn := &connection{}
	var cursor string

	return &cli.Command{
		Name:    "tail",
		Summary: "Follow an agent's transcript until interrupted",
		Usage:   "forge tail <agent-id>",
		Examples: []cli.Example{
			{
				Description: "replay the whole transcript, then follow",
				Command:     "forge tail reviewer",
			},
			{
				Description: "continue from entry 120",
				Command:     "forge tail reviewer --cursor 120",
			},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("tail", pflag.ContinueOnError)
			conn.register(flagSet)
			flagSet.StringVar(&cursor, "cursor", "", "transcript entry ID to resume from")
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("usage: forge tail <agent-id>")
			}

			fields := map[string]any{"agent_id": args[0]}
			if cursor != "" {
				fields["cursor"] = cursor
			}

			ctx, cancel := streamContext()
			defer cancel()

			stream, err := conn.client().Stream(ctx, "stream-transcript", fields)
			if err != nil {
				return err
			}
			defer stream.Close()

			for {
				var batch orchestrator.TranscriptBatch
				if err := stream.Recv(&batch); err != nil {
					if err == io.EOF || streamClosed(ctx) {
						return nil
					}
					return err
				}
				for _, entry := range batch.Entries {
					printEntry(entry)
				}
			}
		},
	}
}

// printEntry renders one transcript entry as a single line, with the
// entry ID usable as a tail cursor.
func printEntry(entry schema.TranscriptEntry) {
	fmt.Printf("%4d %s %-12s %s\n",
		entry.ID,
		entry.Timestamp.Format(time.TimeOnly),
		entry.Type,
		entry.Content,
	)
}
