// Copyright 2026 The Forge Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import "time"

// EntryType classifies a transcript entry.
type EntryType string

const (
	// EntryTypeCommand records the command line an agent was spawned with.
	EntryTypeCommand EntryType = "command"

	// EntryTypeUserInput records keystrokes or text sent to the agent.
	EntryTypeUserInput EntryType = "user_input"

	// EntryTypeOutput records captured pane content.
	EntryTypeOutput EntryType = "output"

	// EntryTypeStateChange records an agent state transition. Content is
	// the new state label; metadata key "previous" carries the prior
	// state label.
	EntryTypeStateChange EntryType = "state_change"

	// EntryTypeError records an error observed for the agent.
	EntryTypeError EntryType = "error"

	// EntryTypeApproval records an approval request surfaced by the agent.
	EntryTypeApproval EntryType = "approval"
)

// TranscriptEntry is one immutable, timestamped fact about an agent.
// Entries are append-only: the registry assigns ID from a per-agent
// counter starting at zero, and IDs are never reused even across
// entry type changes.
type TranscriptEntry struct {
	// ID is the per-agent monotonic entry ID assigned by the registry.
	ID int64 `cbor:"id"`

	// Type classifies the entry.
	Type EntryType `cbor:"type"`

	// Content is the entry payload: a command line, input text,
	// captured output, a state label, or an error message.
	Content string `cbor:"content"`

	// Timestamp is when the fact was recorded.
	Timestamp time.Time `cbor:"timestamp"`

	// Metadata carries entry-specific annotations (spawn adapter,
	// kill force flag, content hashes, previous states).
	Metadata map[string]string `cbor:"metadata,omitempty"`
}
