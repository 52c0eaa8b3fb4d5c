// Copyright 2026 The Forge Authors
// SPDX-License-Identifier: Apache-2.0

package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/forge-foundation/forge/lib/registry"
	"github.com/forge-foundation/forge/lib/rpc"
	"github.com/forge-foundation/forge/lib/schema"
)

// SpawnAgent creates a pane inside the workspace's session, starts
// the agent command in it, and registers the agent. The pane is the
// compensation boundary: once the command has been sent successfully,
// the agent exists; any failure before that tears the pane back down
// and leaves the registry untouched.
func (s *Service) SpawnAgent(ctx context.Context, req SpawnRequest) (SpawnResponse, error) {
	agentID := strings.TrimSpace(req.AgentID)
	if agentID == "" {
		return SpawnResponse{}, rpc.InvalidArgumentf("agent_id is required")
	}
	if strings.TrimSpace(req.Command) == "" {
		return SpawnResponse{}, rpc.InvalidArgumentf("command is required")
	}

	// Upfront duplicate check: fail before touching tmux so a
	// duplicate spawn has zero side effects.
	if s.registry.Contains(agentID) {
		return SpawnResponse{}, rpc.AlreadyExistsf("agent %q already exists", agentID)
	}

	sessionName := req.SessionName
	if sessionName == "" {
		sessionName = s.sessionPrefix + req.WorkspaceID
	}
	workDir := req.WorkingDir
	if workDir == "" {
		workDir, _ = os.Getwd()
	}

	hasSession, err := s.driver.HasSession(sessionName)
	if err != nil {
		return SpawnResponse{}, rpc.Internalf("checking session %q: %v", sessionName, err)
	}
	if !hasSession {
		if err := s.driver.NewSession(sessionName, workDir); err != nil {
			return SpawnResponse{}, rpc.Internalf("creating session %q: %v", sessionName, err)
		}
	}

	paneID, err := s.driver.SplitWindow(sessionName, true, workDir)
	if err != nil {
		return SpawnResponse{}, rpc.Internalf("creating pane in session %q: %v", sessionName, err)
	}

	commandLine := req.Command
	for _, arg := range req.Args {
		commandLine += " " + arg
	}

	// Environment exports are best-effort: a shell that rejects one
	// assignment should not abort the spawn.
	for _, key := range slices.Sorted(maps.Keys(req.Env)) {
		exportCmd := fmt.Sprintf("export %s=%q", key, req.Env[key])
		if err := s.driver.SendKeys(paneID, exportCmd, true, true); err != nil {
			s.logger.Warn("failed to set env var",
				"pane_id", paneID,
				"var", key,
				"error", err,
			)
		}
	}

	if err := s.driver.SendKeys(paneID, commandLine, true, true); err != nil {
		// The agent was never started; remove the half-created pane.
		if killErr := s.driver.KillPane(paneID); killErr != nil {
			s.logger.Warn("failed to clean up pane after send failure",
				"pane_id", paneID,
				"error", killErr,
			)
		}
		return SpawnResponse{}, rpc.Internalf("sending command to pane %s: %v", paneID, err)
	}

	// Best-effort PID lookup. Missing PID limits nothing essential.
	pid, err := s.driver.PanePID(paneID)
	if err != nil {
		s.logger.Warn("failed to get pane PID", "pane_id", paneID, "error", err)
		pid = 0
	}

	now := s.clock.Now()
	agent, err := s.registry.Register(schema.Agent{
		ID:             agentID,
		WorkspaceID:    req.WorkspaceID,
		State:          schema.StateStarting,
		PaneID:         paneID,
		PID:            pid,
		Command:        req.Command,
		Adapter:        req.Adapter,
		SpawnedAt:      now,
		LastActivityAt: now,
	})
	if err != nil {
		// Lost a registration race after creating the pane. The other
		// spawn owns the agent ID; our pane must not leak.
		if killErr := s.driver.KillPane(paneID); killErr != nil {
			s.logger.Warn("failed to clean up pane after lost registration race",
				"pane_id", paneID,
				"error", killErr,
			)
		}
		if errors.Is(err, registry.ErrAlreadyExists) {
			return SpawnResponse{}, rpc.AlreadyExistsf("agent %q already exists", agentID)
		}
		return SpawnResponse{}, rpc.Internalf("registering agent %q: %v", agentID, err)
	}

	s.registry.Append(agentID, schema.TranscriptEntry{
		Type:    schema.EntryTypeCommand,
		Content: commandLine,
		Metadata: map[string]string{
			"event":     "spawn",
			"adapter":   req.Adapter,
			"workspace": req.WorkspaceID,
		},
	})

	s.logger.Info("agent spawned",
		"agent_id", agentID,
		"pane_id", paneID,
		"command", commandLine,
	)

	return SpawnResponse{Agent: agent, PaneID: paneID}, nil
}

// KillAgent terminates an agent. Without force, the pane process gets
// an interrupt and the grace period to exit on its own; the pane is
// then killed regardless. Removal from the registry is unconditional:
// teardown must not be blocked by a pane that refuses to die.
func (s *Service) KillAgent(ctx context.Context, req KillRequest) (KillResponse, error) {
	agentID := strings.TrimSpace(req.AgentID)
	if agentID == "" {
		return KillResponse{}, rpc.InvalidArgumentf("agent_id is required")
	}

	agent, exists := s.registry.Get(agentID)
	if !exists {
		return KillResponse{}, rpc.NotFoundf("agent %q not found", agentID)
	}

	if !req.Force {
		if err := s.driver.SendInterrupt(agent.PaneID); err != nil {
			s.logger.Warn("failed to send interrupt",
				"agent_id", agentID,
				"error", err,
			)
		}
		if grace := time.Duration(req.GracePeriodMS) * time.Millisecond; grace > 0 {
			select {
			case <-ctx.Done():
				return KillResponse{}, ctx.Err()
			case <-s.clock.After(grace):
			}
		}
	}

	// Recorded before the pane kill so the entry exists even if the
	// kill itself fails.
	s.registry.Append(agentID, schema.TranscriptEntry{
		Type:    schema.EntryTypeStateChange,
		Content: string(schema.StateStopped),
		Metadata: map[string]string{
			"event":    "kill",
			"force":    fmt.Sprintf("%v", req.Force),
			"previous": string(agent.State),
		},
	})

	if err := s.driver.KillPane(agent.PaneID); err != nil {
		s.logger.Warn("failed to kill pane",
			"agent_id", agentID,
			"pane_id", agent.PaneID,
			"error", err,
		)
	}
	s.registry.Remove(agentID)

	s.logger.Info("agent killed", "agent_id", agentID, "force", req.Force)
	return KillResponse{Success: true}, nil
}

// SendInput delivers keystrokes to the agent's pane: special keys in
// request order, then the literal text. The first driver failure
// aborts with no partial-completion reporting — the caller must
// assume an indeterminate number of keys were sent.
func (s *Service) SendInput(ctx context.Context, req SendInputRequest) (SendInputResponse, error) {
	agentID := strings.TrimSpace(req.AgentID)
	if agentID == "" {
		return SendInputResponse{}, rpc.InvalidArgumentf("agent_id is required")
	}

	agent, exists := s.registry.Get(agentID)
	if !exists {
		return SendInputResponse{}, rpc.NotFoundf("agent %q not found", agentID)
	}

	for _, key := range req.Keys {
		if err := s.driver.SendKey(agent.PaneID, key); err != nil {
			return SendInputResponse{}, rpc.Internalf("sending key %q: %v", key, err)
		}
	}
	if req.Text != "" {
		if err := s.driver.SendKeys(agent.PaneID, req.Text, true, req.SendEnter); err != nil {
			return SendInputResponse{}, rpc.Internalf("sending text: %v", err)
		}
	}

	if len(req.Keys) > 0 || req.Text != "" {
		s.registry.Touch(agentID)

		inputContent := req.Text
		if len(req.Keys) > 0 {
			inputContent = fmt.Sprintf("[keys: %v] %s", req.Keys, req.Text)
		}
		if inputContent != "" {
			s.registry.Append(agentID, schema.TranscriptEntry{
				Type:    schema.EntryTypeUserInput,
				Content: inputContent,
			})
		}
	}

	return SendInputResponse{Success: true}, nil
}

// ListAgents returns the filtered registry snapshot. Never errors.
func (s *Service) ListAgents(ctx context.Context, req ListRequest) (ListResponse, error) {
	return ListResponse{
		Agents: s.registry.List(req.WorkspaceID, req.States),
	}, nil
}

// GetAgent returns the current record for one agent.
func (s *Service) GetAgent(ctx context.Context, req GetRequest) (GetResponse, error) {
	agentID := strings.TrimSpace(req.AgentID)
	if agentID == "" {
		return GetResponse{}, rpc.InvalidArgumentf("agent_id is required")
	}
	agent, exists := s.registry.Get(agentID)
	if !exists {
		return GetResponse{}, rpc.NotFoundf("agent %q not found", agentID)
	}
	return GetResponse{Agent: agent}, nil
}
