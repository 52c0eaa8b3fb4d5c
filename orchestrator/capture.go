// Copyright 2026 The Forge Authors
// SPDX-License-Identifier: Apache-2.0

package orchestrator

import (
	"context"
	"strings"
	"time"

	"github.com/forge-foundation/forge/lib/rpc"
	"github.com/forge-foundation/forge/lib/schema"
)

// defaultPollInterval paces pane update streams when the caller does
// not ask for a specific interval.
const defaultPollInterval = 500 * time.Millisecond

// outputEntryLimit caps the content of per-emission output transcript
// entries. A full-history pane capture can be huge; the transcript
// keeps only the trailing window, with the hash in metadata to
// correlate against pane update frames.
const outputEntryLimit = 4096

// CapturePane snapshots the agent's pane and records the content
// digest on the agent. The detected state is left untouched — a
// one-shot capture is not evidence the state changed.
func (s *Service) CapturePane(ctx context.Context, req CaptureRequest) (CaptureResponse, error) {
	agentID := strings.TrimSpace(req.AgentID)
	if agentID == "" {
		return CaptureResponse{}, rpc.InvalidArgumentf("agent_id is required")
	}

	agent, exists := s.registry.Get(agentID)
	if !exists {
		return CaptureResponse{}, rpc.NotFoundf("agent %q not found", agentID)
	}

	includeHistory := req.Lines < 0
	content, err := s.driver.CapturePane(agent.PaneID, includeHistory)
	if err != nil {
		return CaptureResponse{}, rpc.Internalf("capturing pane %s: %v", agent.PaneID, err)
	}

	hash := HashContent(content)
	s.registry.UpdateSnapshot(agentID, hash, schema.StateUnspecified)

	return CaptureResponse{
		Content:     content,
		ContentHash: hash,
		CapturedAt:  s.clock.Now(),
	}, nil
}

// StreamPaneUpdates polls the agent's pane and emits an item whenever
// the content digest changes. The first item is always emitted so the
// subscriber gets a baseline; the caller's last_known_hash only seeds
// that first item's changed flag. A failed capture skips the tick;
// only the agent disappearing ends the stream.
func (s *Service) StreamPaneUpdates(ctx context.Context, req PaneUpdatesRequest, send func(PaneUpdate) error) error {
	agentID := strings.TrimSpace(req.AgentID)
	if agentID == "" {
		return rpc.InvalidArgumentf("agent_id is required")
	}
	if !s.registry.Contains(agentID) {
		return rpc.NotFoundf("agent %q not found", agentID)
	}

	interval := s.pollInterval
	if req.MinIntervalMS > 0 {
		interval = time.Duration(req.MinIntervalMS) * time.Millisecond
	}

	s.logger.Debug("starting pane update stream",
		"agent_id", agentID,
		"poll_interval", interval,
	)

	lastHash := req.LastKnownHash
	emittedAny := false

	ticker := s.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("pane update stream ended", "agent_id", agentID)
			return ctx.Err()
		case <-ticker.C:
		}

		agent, exists := s.registry.Get(agentID)
		if !exists {
			return rpc.NotFoundf("agent %q no longer exists", agentID)
		}

		content, err := s.driver.CapturePane(agent.PaneID, false)
		if err != nil {
			s.logger.Warn("failed to capture pane",
				"agent_id", agentID,
				"error", err,
			)
			continue
		}

		hash := HashContent(content)
		changed := hash != lastHash
		if !changed && emittedAny {
			continue
		}

		detected := DetectAgentState(content)

		// Registry write-back is best-effort: the agent may have been
		// killed between the Get above and here.
		s.registry.UpdateSnapshot(agentID, hash, detected)
		s.registry.Touch(agentID)

		outputContent := content
		if len(outputContent) > outputEntryLimit {
			outputContent = outputContent[len(outputContent)-outputEntryLimit:]
		}
		s.registry.Append(agentID, schema.TranscriptEntry{
			Type:     schema.EntryTypeOutput,
			Content:  outputContent,
			Metadata: map[string]string{"content_hash": hash},
		})
		if detected != agent.State {
			s.registry.Append(agentID, schema.TranscriptEntry{
				Type:     schema.EntryTypeStateChange,
				Content:  string(detected),
				Metadata: map[string]string{"previous": string(agent.State)},
			})
		}

		update := PaneUpdate{
			AgentID:       agentID,
			ContentHash:   hash,
			Changed:       changed,
			Timestamp:     s.clock.Now(),
			DetectedState: detected,
		}
		if req.IncludeContent {
			update.Content = content
		}
		if err := send(update); err != nil {
			return err
		}

		lastHash = hash
		emittedAny = true
	}
}
