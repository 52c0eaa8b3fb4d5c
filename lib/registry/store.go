// Copyright 2026 The Forge Authors
// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/forge-foundation/forge/lib/clock"
	"github.com/forge-foundation/forge/lib/schema"
)

// ErrAlreadyExists is returned by Register when an agent with the
// same ID is already registered. Callers match it with errors.Is.
var ErrAlreadyExists = errors.New("agent already exists")

// Store is a mutex-guarded agent registry. The zero value is not
// usable; construct with NewStore.
type Store struct {
	clock clock.Clock

	mu     sync.RWMutex
	agents map[string]*record
}

// record is one agent plus its transcript. The transcript slice is
// append-only; snapshot reads copy it so later appends never alias
// into data a streaming handler is still reading.
type record struct {
	agent      schema.Agent
	transcript []schema.TranscriptEntry
	nextEntry  int64
}

// NewStore returns an empty Store. The clock stamps Touch times and
// transcript entries that arrive without a timestamp.
func NewStore(clk clock.Clock) *Store {
	return &Store{
		clock:  clk,
		agents: make(map[string]*record),
	}
}

// Register adds a new agent record. The check and insert are atomic:
// of N racing Register calls for the same ID, exactly one succeeds
// and the rest get ErrAlreadyExists.
func (s *Store) Register(agent schema.Agent) (schema.Agent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.agents[agent.ID]; exists {
		return schema.Agent{}, fmt.Errorf("agent %q: %w", agent.ID, ErrAlreadyExists)
	}

	s.agents[agent.ID] = &record{
		agent: agent,
		// Transcripts grow steadily once pane streaming starts.
		transcript: make([]schema.TranscriptEntry, 0, 16),
	}
	return agent, nil
}

// Get returns the current agent record.
func (s *Store) Get(agentID string) (schema.Agent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.agents[agentID]
	if !exists {
		return schema.Agent{}, false
	}
	return rec.agent, true
}

// Contains reports whether an agent with the given ID is registered.
func (s *Store) Contains(agentID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.agents[agentID]
	return exists
}

// Remove deletes the agent record and its transcript. Removing a
// missing agent is a no-op.
func (s *Store) Remove(agentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.agents, agentID)
}

// List returns a snapshot of registered agents, restricted to the
// given workspace if non-empty and to the given states if non-empty
// (AND of both filters, OR within states). Results are sorted by
// agent ID so repeated calls over unchanged state return identical
// output.
func (s *Store) List(workspaceID string, states []schema.AgentState) []schema.Agent {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var agents []schema.Agent
	for _, rec := range s.agents {
		if workspaceID != "" && rec.agent.WorkspaceID != workspaceID {
			continue
		}
		if len(states) > 0 && !slices.Contains(states, rec.agent.State) {
			continue
		}
		agents = append(agents, rec.agent)
	}

	slices.SortFunc(agents, func(a, b schema.Agent) int {
		return strings.Compare(a.ID, b.ID)
	})
	return agents
}

// Touch updates the agent's last-activity time to now. A missing
// agent is a no-op: the caller may have raced a Kill, and activity
// bookkeeping on a dead agent is not worth an error.
func (s *Store) Touch(agentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, exists := s.agents[agentID]; exists {
		rec.agent.LastActivityAt = s.clock.Now()
	}
}

// UpdateSnapshot records the result of a pane capture: the content
// hash, and the detected state if non-empty (StateUnspecified leaves
// the recorded state untouched). Returns false if the agent is gone.
func (s *Store) UpdateSnapshot(agentID, contentHash string, state schema.AgentState) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.agents[agentID]
	if !exists {
		return false
	}
	rec.agent.ContentHash = contentHash
	if state != schema.StateUnspecified {
		rec.agent.State = state
	}
	return true
}

// Append adds a transcript entry for the agent and returns the
// assigned entry ID. The ID comes from the agent's monotonic counter
// starting at 0; IDs are never reused, even across entry type
// changes. A zero entry timestamp is stamped with the store clock.
// Returns ok=false if the agent is not registered.
func (s *Store) Append(agentID string, entry schema.TranscriptEntry) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.agents[agentID]
	if !exists {
		return 0, false
	}

	entry.ID = rec.nextEntry
	rec.nextEntry++
	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.clock.Now()
	}
	rec.transcript = append(rec.transcript, entry)
	return entry.ID, true
}

// TranscriptSnapshot returns a copy of the agent's transcript in
// append order. The copy reflects every Append that completed before
// the call; later appends never mutate a returned snapshot.
func (s *Store) TranscriptSnapshot(agentID string) ([]schema.TranscriptEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.agents[agentID]
	if !exists {
		return nil, false
	}
	return slices.Clone(rec.transcript), true
}

// AgentIDs returns the IDs of all registered agents, sorted.
func (s *Store) AgentIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.agents))
	for id := range s.agents {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Count returns the number of registered agents.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.agents)
}
