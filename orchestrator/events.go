// Copyright 2026 The Forge Authors
// SPDX-License-Identifier: Apache-2.0

package orchestrator

import (
	"context"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/forge-foundation/forge/lib/rpc"
	"github.com/forge-foundation/forge/lib/schema"
)

// eventPollInterval paces the event stream's transcript re-scan. The
// first poll of a stream happens immediately; this interval applies
// between subsequent polls.
const eventPollInterval = 100 * time.Millisecond

// eventFilter is the compiled form of an EventsRequest's filter
// fields. A nil set means no restriction on that dimension.
type eventFilter struct {
	types        map[schema.EventType]bool
	agentIDs     map[string]bool
	workspaceIDs map[string]bool
}

func newEventFilter(req EventsRequest) eventFilter {
	var filter eventFilter
	if len(req.Types) > 0 {
		filter.types = make(map[schema.EventType]bool, len(req.Types))
		for _, t := range req.Types {
			filter.types[t] = true
		}
	}
	if len(req.AgentIDs) > 0 {
		filter.agentIDs = make(map[string]bool, len(req.AgentIDs))
		for _, id := range req.AgentIDs {
			filter.agentIDs[id] = true
		}
	}
	if len(req.WorkspaceIDs) > 0 {
		filter.workspaceIDs = make(map[string]bool, len(req.WorkspaceIDs))
		for _, id := range req.WorkspaceIDs {
			filter.workspaceIDs[id] = true
		}
	}
	return filter
}

func (f eventFilter) matches(event schema.Event) bool {
	if f.types != nil && !f.types[event.Type] {
		return false
	}
	if f.agentIDs != nil && !f.agentIDs[event.AgentID] {
		return false
	}
	if f.workspaceIDs != nil && !f.workspaceIDs[event.WorkspaceID] {
		return false
	}
	return true
}

// candidate pairs a synthesized event with the registry entry ID it
// came from, which is the final sort tiebreaker.
type candidate struct {
	event   schema.Event
	entryID int64
}

// collectEvents synthesizes the current event log: every transcript
// entry of every agent, projected to an event, filtered, globally
// sorted by (timestamp, agent ID, entry ID), and densely renumbered
// from 0. The numbering is only meaningful within this one result.
func (s *Service) collectEvents(filter eventFilter) []schema.Event {
	var candidates []candidate
	for _, agent := range s.registry.List("", nil) {
		entries, ok := s.registry.TranscriptSnapshot(agent.ID)
		if !ok {
			continue
		}
		for _, entry := range entries {
			event := synthesizeEvent(agent, entry)
			if !filter.matches(event) {
				continue
			}
			candidates = append(candidates, candidate{event: event, entryID: entry.ID})
		}
	}

	slices.SortFunc(candidates, func(a, b candidate) int {
		if c := a.event.Timestamp.Compare(b.event.Timestamp); c != 0 {
			return c
		}
		if c := strings.Compare(a.event.AgentID, b.event.AgentID); c != 0 {
			return c
		}
		switch {
		case a.entryID < b.entryID:
			return -1
		case a.entryID > b.entryID:
			return 1
		default:
			return 0
		}
	})

	events := make([]schema.Event, len(candidates))
	for i, c := range candidates {
		c.event.ID = strconv.Itoa(i)
		events[i] = c.event
	}
	return events
}

// synthesizeEvent projects one transcript entry to an event. The
// payload variant follows the entry type; entry types without a
// richer mapping (command, user input, output) become output events.
func synthesizeEvent(agent schema.Agent, entry schema.TranscriptEntry) schema.Event {
	event := schema.Event{
		Timestamp:   entry.Timestamp,
		AgentID:     agent.ID,
		WorkspaceID: agent.WorkspaceID,
	}
	switch entry.Type {
	case schema.EntryTypeStateChange:
		event.Type = schema.EventAgentStateChanged
		event.StateChanged = &schema.StateChangedEvent{
			Previous: schema.AgentState(entry.Metadata["previous"]),
			New:      schema.AgentState(entry.Content),
		}
	case schema.EntryTypeError:
		event.Type = schema.EventError
		event.Error = &schema.ErrorEvent{Message: entry.Content}
	case schema.EntryTypeApproval:
		event.Type = schema.EventApprovalRequested
		event.Approval = &schema.ApprovalRequestedEvent{Prompt: entry.Content}
	default:
		event.Type = schema.EventAgentOutput
		event.Output = &schema.AgentOutputEvent{Content: entry.Content}
	}
	return event
}

// StreamEvents replays and follows the synthesized event log. Each
// poll rebuilds the log from scratch and emits the events at dense
// indexes >= the cursor, advancing the cursor past the last emission.
// Every frame carries the advanced cursor; that value — not the
// event's ID — is the resume token for a new stream.
func (s *Service) StreamEvents(ctx context.Context, req EventsRequest, send func(EventFrame) error) error {
	cursor, err := parseCursor(req.Cursor)
	if err != nil {
		return rpc.InvalidArgumentf("invalid cursor: %v", err)
	}
	filter := newEventFilter(req)

	s.logger.Debug("starting event stream", "cursor", cursor)

	ticker := s.clock.NewTicker(eventPollInterval)
	defer ticker.Stop()

	// First poll is immediate so a replay-only caller doesn't wait a
	// tick for data that already exists.
	for {
		events := s.collectEvents(filter)
		for index := cursor; index < int64(len(events)); index++ {
			cursor = index + 1
			frame := EventFrame{
				Event:  events[index],
				Cursor: strconv.FormatInt(cursor, 10),
			}
			if err := send(frame); err != nil {
				return err
			}
		}

		select {
		case <-ctx.Done():
			s.logger.Debug("event stream ended", "cursor", cursor)
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
