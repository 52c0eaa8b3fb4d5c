// Copyright 2026 The Forge Authors
// SPDX-License-Identifier: Apache-2.0

package orchestrator

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/forge-foundation/forge/lib/rpc"
	"github.com/forge-foundation/forge/lib/schema"
)

// defaultTranscriptLimit bounds GetTranscript pages when the caller
// does not specify a limit.
const defaultTranscriptLimit = 1000

// transcriptPollInterval paces transcript streams.
const transcriptPollInterval = 100 * time.Millisecond

// GetTranscript returns a time-filtered, size-limited page of the
// agent's transcript. Both time bounds are inclusive. When the page
// is truncated, next_cursor resumes just past the last returned
// entry's registry ID.
func (s *Service) GetTranscript(ctx context.Context, req TranscriptRequest) (TranscriptResponse, error) {
	agentID := strings.TrimSpace(req.AgentID)
	if agentID == "" {
		return TranscriptResponse{}, rpc.InvalidArgumentf("agent_id is required")
	}

	entries, ok := s.registry.TranscriptSnapshot(agentID)
	if !ok {
		return TranscriptResponse{}, rpc.NotFoundf("agent %q not found", agentID)
	}

	var filtered []schema.TranscriptEntry
	for _, entry := range entries {
		if req.StartTime != nil && entry.Timestamp.Before(*req.StartTime) {
			continue
		}
		if req.EndTime != nil && entry.Timestamp.After(*req.EndTime) {
			continue
		}
		filtered = append(filtered, entry)
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultTranscriptLimit
	}
	hasMore := len(filtered) > limit
	if hasMore {
		filtered = filtered[:limit]
	}

	response := TranscriptResponse{
		AgentID: agentID,
		Entries: filtered,
		HasMore: hasMore,
	}
	if hasMore && len(filtered) > 0 {
		response.NextCursor = strconv.FormatInt(filtered[len(filtered)-1].ID+1, 10)
	}
	return response, nil
}

// StreamTranscript follows an agent's transcript from a cursor. Each
// poll collects the entries with registry ID >= cursor and emits them
// as one batch, but only when the batch is non-empty; quiet ticks
// send nothing. Entries arrive in registry order — already monotonic
// per agent, so no re-sort is needed.
func (s *Service) StreamTranscript(ctx context.Context, req StreamTranscriptRequest, send func(TranscriptBatch) error) error {
	agentID := strings.TrimSpace(req.AgentID)
	if agentID == "" {
		return rpc.InvalidArgumentf("agent_id is required")
	}
	cursor, err := parseCursor(req.Cursor)
	if err != nil {
		return rpc.InvalidArgumentf("invalid cursor: %v", err)
	}

	s.logger.Debug("starting transcript stream",
		"agent_id", agentID,
		"cursor", cursor,
	)

	ticker := s.clock.NewTicker(transcriptPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("transcript stream ended", "agent_id", agentID)
			return ctx.Err()
		case <-ticker.C:
		}

		entries, ok := s.registry.TranscriptSnapshot(agentID)
		if !ok {
			return rpc.NotFoundf("agent %q no longer exists", agentID)
		}

		var batch []schema.TranscriptEntry
		for _, entry := range entries {
			if entry.ID >= cursor {
				batch = append(batch, entry)
			}
		}
		if len(batch) == 0 {
			continue
		}

		cursor = batch[len(batch)-1].ID + 1
		if err := send(TranscriptBatch{
			Entries: batch,
			Cursor:  strconv.FormatInt(cursor, 10),
		}); err != nil {
			return err
		}
	}
}
