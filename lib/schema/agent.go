// Copyright 2026 The Forge Authors
// SPDX-License-Identifier: Apache-2.0

package schema

import "time"

// AgentState describes an agent's operational state. State is advisory
// telemetry, not a guarded state machine: it is set explicitly
// (Starting on spawn) or inferred from captured pane content, and any
// state may follow any other.
type AgentState string

const (
	// StateUnspecified means no state has been recorded. It is the
	// zero value and never appears on a registered agent.
	StateUnspecified AgentState = ""

	// StateStarting is set when an agent is spawned, before any pane
	// content has been observed.
	StateStarting AgentState = "starting"

	// StateRunning means the agent appears to be actively working.
	StateRunning AgentState = "running"

	// StateIdle means the pane shows a shell or agent prompt waiting
	// for input.
	StateIdle AgentState = "idle"

	// StateWaitingApproval means the pane shows a confirmation prompt
	// the agent cannot pass without human input.
	StateWaitingApproval AgentState = "waiting_approval"

	// StatePaused means the agent has been deliberately suspended.
	StatePaused AgentState = "paused"

	// StateStopping means a graceful shutdown is in progress.
	StateStopping AgentState = "stopping"

	// StateStopped means the agent's process has ended.
	StateStopped AgentState = "stopped"

	// StateFailed means the pane content indicates an error or crash.
	StateFailed AgentState = "failed"
)

// Valid reports whether s is one of the defined agent states.
func (s AgentState) Valid() bool {
	switch s {
	case StateUnspecified, StateStarting, StateRunning, StateIdle,
		StateWaitingApproval, StatePaused, StateStopping, StateStopped,
		StateFailed:
		return true
	}
	return false
}

// Agent is the identity and runtime facts of one managed agent
// process. The registry owns the single live record per agent ID;
// handlers read and mutate it only through registry operations.
type Agent struct {
	// ID is the caller-supplied unique agent identifier.
	ID string `cbor:"id"`

	// WorkspaceID groups agents that share a working context.
	WorkspaceID string `cbor:"workspace_id,omitempty"`

	// State is the most recently recorded operational state.
	State AgentState `cbor:"state,omitempty"`

	// PaneID is the opaque pane handle owned by the pane driver
	// (a tmux pane ID such as "%12").
	PaneID string `cbor:"pane_id"`

	// PID is the pane process ID, best-effort. Zero when the lookup
	// failed at spawn time.
	PID int `cbor:"pid,omitempty"`

	// Command is the executable the agent was spawned with (without
	// arguments).
	Command string `cbor:"command"`

	// Adapter labels the controlling tool or integration driving this
	// agent's process.
	Adapter string `cbor:"adapter,omitempty"`

	// SpawnedAt is when the agent was registered.
	SpawnedAt time.Time `cbor:"spawned_at"`

	// LastActivityAt is the last time input was sent to the agent.
	LastActivityAt time.Time `cbor:"last_activity_at"`

	// ContentHash is the digest of the last captured pane snapshot,
	// hex-encoded SHA-256. Empty until the first capture.
	ContentHash string `cbor:"content_hash,omitempty"`
}
