// Copyright 2026 The Forge Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import "time"

// EventType classifies an event on the cross-agent stream.
type EventType string

const (
	// EventAgentStateChanged reports an agent state transition.
	EventAgentStateChanged EventType = "agent_state_changed"

	// EventAgentOutput carries agent output or input activity.
	EventAgentOutput EventType = "agent_output"

	// EventError reports an error recorded for an agent.
	EventError EventType = "error"

	// EventApprovalRequested reports that an agent is waiting for
	// human approval.
	EventApprovalRequested EventType = "approval_requested"
)

// Event is a derived, non-persisted projection of a transcript entry
// for cross-agent streaming. Events are synthesized fresh on every
// event-stream poll from the union of all agents' transcripts.
//
// Exactly one payload field is non-nil, matching Type.
type Event struct {
	// ID is the event's dense index within a single collection pass,
	// as a decimal string. It is renumbered on every poll over the
	// filtered, globally sorted candidate set, so the same underlying
	// transcript entry can carry different IDs on different polls —
	// and two polls can assign the same ID to different entries.
	// Resume with the stream's advanced cursor, never with this field.
	ID string `cbor:"id"`

	// Type classifies the event and selects the payload variant.
	Type EventType `cbor:"type"`

	// Timestamp is the underlying transcript entry's timestamp.
	Timestamp time.Time `cbor:"timestamp"`

	// AgentID is the agent the event describes.
	AgentID string `cbor:"agent_id"`

	// WorkspaceID is the agent's workspace at synthesis time.
	WorkspaceID string `cbor:"workspace_id,omitempty"`

	StateChanged *StateChangedEvent      `cbor:"state_changed,omitempty"`
	Output       *AgentOutputEvent       `cbor:"output,omitempty"`
	Error        *ErrorEvent             `cbor:"error,omitempty"`
	Approval     *ApprovalRequestedEvent `cbor:"approval,omitempty"`
}

// StateChangedEvent is the payload of an agent_state_changed event.
type StateChangedEvent struct {
	// Previous is the state before the transition. Parsed from the
	// transcript entry's "previous" metadata; unspecified when the
	// entry carried none.
	Previous AgentState `cbor:"previous,omitempty"`

	// New is the state after the transition, parsed from the entry's
	// content label.
	New AgentState `cbor:"new"`
}

// AgentOutputEvent is the payload of an agent_output event.
type AgentOutputEvent struct {
	// Content is the transcript entry content (captured output,
	// command line, or input text).
	Content string `cbor:"content"`
}

// ErrorEvent is the payload of an error event.
type ErrorEvent struct {
	// Message is the recorded error text.
	Message string `cbor:"message"`
}

// ApprovalRequestedEvent is the payload of an approval_requested event.
type ApprovalRequestedEvent struct {
	// Prompt is the approval prompt text recorded for the agent.
	Prompt string `cbor:"prompt"`
}
