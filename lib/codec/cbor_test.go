// Copyright 2026 The Forge Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"testing"
	"time"

	"github.com/forge-foundation/forge/lib/schema"
)

func TestRoundTripAgent(t *testing.T) {
	agent := schema.Agent{
		ID:          "agent-1",
		WorkspaceID: "ws",
		State:       schema.StateStarting,
		PaneID:      "%3",
		PID:         4242,
		Command:     "claude",
		Adapter:     "claude-code",
		SpawnedAt:   time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC),
		ContentHash: "abc123",
	}

	data, err := Marshal(agent)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded schema.Agent
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.ID != agent.ID || decoded.PaneID != agent.PaneID || decoded.State != agent.State {
		t.Fatalf("round trip mismatch: got %+v, want %+v", decoded, agent)
	}
	if !decoded.SpawnedAt.Equal(agent.SpawnedAt) {
		t.Fatalf("SpawnedAt: got %v, want %v", decoded.SpawnedAt, agent.SpawnedAt)
	}
}

func TestDeterministicEncoding(t *testing.T) {
	entry := schema.TranscriptEntry{
		ID:       7,
		Type:     schema.EntryTypeCommand,
		Content:  "claude --resume",
		Metadata: map[string]string{"event": "spawn", "adapter": "claude-code", "workspace": "ws"},
	}

	first, err := Marshal(entry)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	second, err := Marshal(entry)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatal("same value encoded to different bytes")
	}
}

func TestUnknownFieldsIgnored(t *testing.T) {
	data, err := Marshal(map[string]any{
		"id":           "agent-1",
		"pane_id":      "%1",
		"command":      "bash",
		"future_field": "from a newer daemon",
	})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var agent schema.Agent
	if err := Unmarshal(data, &agent); err != nil {
		t.Fatalf("Unmarshal with unknown field: %v", err)
	}
	if agent.ID != "agent-1" {
		t.Fatalf("ID = %q, want %q", agent.ID, "agent-1")
	}
}
