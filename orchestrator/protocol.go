// Copyright 2026 The Forge Authors
// SPDX-License-Identifier: Apache-2.0

package orchestrator

import (
	"time"

	"github.com/forge-foundation/forge/lib/schema"
)

// Request and response shapes for every control-socket action. These
// are the CBOR wire types: field names here are the protocol.

// SpawnRequest creates an agent in a fresh pane.
type SpawnRequest struct {
	AgentID     string            `cbor:"agent_id"`
	WorkspaceID string            `cbor:"workspace_id"`
	Command     string            `cbor:"command"`
	Args        []string          `cbor:"args,omitempty"`
	Env         map[string]string `cbor:"env,omitempty"`
	WorkingDir  string            `cbor:"working_dir,omitempty"`
	SessionName string            `cbor:"session_name,omitempty"`
	Adapter     string            `cbor:"adapter,omitempty"`
}

type SpawnResponse struct {
	Agent  schema.Agent `cbor:"agent"`
	PaneID string       `cbor:"pane_id"`
}

// KillRequest terminates an agent. Without Force, the pane process
// receives an interrupt first and GracePeriodMS milliseconds to exit
// on its own.
type KillRequest struct {
	AgentID       string `cbor:"agent_id"`
	Force         bool   `cbor:"force,omitempty"`
	GracePeriodMS int64  `cbor:"grace_period_ms,omitempty"`
}

type KillResponse struct {
	Success bool `cbor:"success"`
}

// SendInputRequest delivers keystrokes to an agent's pane: each entry
// of Keys as an interpreted special key (tmux key syntax), in order,
// then Text as literal input.
type SendInputRequest struct {
	AgentID   string   `cbor:"agent_id"`
	Text      string   `cbor:"text,omitempty"`
	SendEnter bool     `cbor:"send_enter,omitempty"`
	Keys      []string `cbor:"keys,omitempty"`
}

type SendInputResponse struct {
	Success bool `cbor:"success"`
}

// ListRequest filters the agent listing. Empty fields mean no
// restriction; both filters combine with AND.
type ListRequest struct {
	WorkspaceID string              `cbor:"workspace_id,omitempty"`
	States      []schema.AgentState `cbor:"states,omitempty"`
}

type ListResponse struct {
	Agents []schema.Agent `cbor:"agents"`
}

type GetRequest struct {
	AgentID string `cbor:"agent_id"`
}

type GetResponse struct {
	Agent schema.Agent `cbor:"agent"`
}

// CaptureRequest snapshots an agent's pane. Lines < 0 requests the
// full scrollback history; otherwise only the visible area.
type CaptureRequest struct {
	AgentID string `cbor:"agent_id"`
	Lines   int    `cbor:"lines,omitempty"`
}

type CaptureResponse struct {
	Content     string    `cbor:"content"`
	ContentHash string    `cbor:"content_hash"`
	CapturedAt  time.Time `cbor:"captured_at"`
}

// PaneUpdatesRequest opens a change-detection stream over one agent's
// pane. LastKnownHash seeds the changed comparison of the first item;
// it does not suppress the first emission.
type PaneUpdatesRequest struct {
	AgentID        string `cbor:"agent_id"`
	MinIntervalMS  int64  `cbor:"min_interval_ms,omitempty"`
	LastKnownHash  string `cbor:"last_known_hash,omitempty"`
	IncludeContent bool   `cbor:"include_content,omitempty"`
}

// PaneUpdate is one emission of a pane update stream.
type PaneUpdate struct {
	AgentID       string            `cbor:"agent_id"`
	ContentHash   string            `cbor:"content_hash"`
	Content       string            `cbor:"content,omitempty"`
	Changed       bool              `cbor:"changed"`
	Timestamp     time.Time         `cbor:"timestamp"`
	DetectedState schema.AgentState `cbor:"detected_state"`
}

// EventsRequest opens a cross-agent event stream. Cursor is a decimal
// offset into the dense per-poll numbering; empty means from the
// beginning. Empty filter slices mean no restriction.
type EventsRequest struct {
	Cursor       string             `cbor:"cursor,omitempty"`
	Types        []schema.EventType `cbor:"types,omitempty"`
	AgentIDs     []string           `cbor:"agent_ids,omitempty"`
	WorkspaceIDs []string           `cbor:"workspace_ids,omitempty"`
}

// EventFrame is one emission of an event stream. Cursor is the
// advanced resume token: passing it to a new stream continues just
// past this event.
type EventFrame struct {
	Event  schema.Event `cbor:"event"`
	Cursor string       `cbor:"cursor"`
}

// TranscriptRequest fetches a bounded page of an agent's transcript.
// Time bounds are inclusive on both ends; Limit <= 0 defaults to 1000.
type TranscriptRequest struct {
	AgentID   string     `cbor:"agent_id"`
	StartTime *time.Time `cbor:"start_time,omitempty"`
	EndTime   *time.Time `cbor:"end_time,omitempty"`
	Limit     int        `cbor:"limit,omitempty"`
}

type TranscriptResponse struct {
	AgentID    string                   `cbor:"agent_id"`
	Entries    []schema.TranscriptEntry `cbor:"entries"`
	HasMore    bool                     `cbor:"has_more"`
	NextCursor string                   `cbor:"next_cursor,omitempty"`
}

// StreamTranscriptRequest follows an agent's transcript from a cursor
// (a registry entry ID as a decimal string; empty means 0).
type StreamTranscriptRequest struct {
	AgentID string `cbor:"agent_id"`
	Cursor  string `cbor:"cursor,omitempty"`
}

// TranscriptBatch is one emission of a transcript stream: the new
// entries since the last batch and the advanced cursor.
type TranscriptBatch struct {
	Entries []schema.TranscriptEntry `cbor:"entries"`
	Cursor  string                   `cbor:"cursor"`
}

// StatusResponse reports daemon health.
type StatusResponse struct {
	Version       string    `cbor:"version"`
	StartedAt     time.Time `cbor:"started_at"`
	UptimeSeconds int64     `cbor:"uptime_seconds"`
	AgentCount    int       `cbor:"agent_count"`
	TmuxSocket    string    `cbor:"tmux_socket,omitempty"`
}
