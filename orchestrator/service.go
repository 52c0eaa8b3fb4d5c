// Copyright 2026 The Forge Authors
// SPDX-License-Identifier: Apache-2.0

package orchestrator

import (
	"context"
	"log/slog"
	"time"

	"github.com/forge-foundation/forge/lib/clock"
	"github.com/forge-foundation/forge/lib/schema"
)

// PaneDriver is the multiplexer surface the orchestrator drives.
// lib/tmux.Server implements it; handler tests script a fake. All
// operations are synchronous and fallible.
type PaneDriver interface {
	HasSession(sessionName string) (bool, error)
	NewSession(sessionName, workingDir string) error
	SplitWindow(sessionName string, horizontal bool, workingDir string) (string, error)
	SendKeys(target, text string, literal, enter bool) error
	SendKey(target, key string) error
	CapturePane(target string, includeHistory bool) (string, error)
	PanePID(target string) (int, error)
	SendInterrupt(target string) error
	KillPane(target string) error
}

// Registry is the agent store the orchestrator mutates.
// lib/registry.Store implements it.
type Registry interface {
	Register(agent schema.Agent) (schema.Agent, error)
	Get(agentID string) (schema.Agent, bool)
	Contains(agentID string) bool
	Remove(agentID string)
	List(workspaceID string, states []schema.AgentState) []schema.Agent
	Touch(agentID string)
	UpdateSnapshot(agentID, contentHash string, state schema.AgentState) bool
	Append(agentID string, entry schema.TranscriptEntry) (int64, bool)
	TranscriptSnapshot(agentID string) ([]schema.TranscriptEntry, bool)
	AgentIDs() []string
	Count() int
}

// Service implements every control-socket action. Construct with
// NewService and wire into an rpc.Server with RegisterActions.
type Service struct {
	logger   *slog.Logger
	clock    clock.Clock
	driver   PaneDriver
	registry Registry

	version       string
	tmuxSocket    string
	sessionPrefix string
	pollInterval  time.Duration
	startedAt     time.Time
}

// Option configures optional Service fields.
type Option func(*Service)

// WithVersion sets the daemon version reported by the status action.
func WithVersion(version string) Option {
	return func(s *Service) { s.version = version }
}

// WithTmuxSocketPath sets the tmux socket path reported by the status
// action. Informational only; the driver already carries it.
func WithTmuxSocketPath(path string) Option {
	return func(s *Service) { s.tmuxSocket = path }
}

// WithSessionPrefix overrides the prefix joined with a workspace ID to
// form default session names.
func WithSessionPrefix(prefix string) Option {
	return func(s *Service) {
		if prefix != "" {
			s.sessionPrefix = prefix
		}
	}
}

// WithPanePollInterval overrides the default pacing of pane-update
// streams. Callers can still request a tighter interval per stream.
func WithPanePollInterval(interval time.Duration) Option {
	return func(s *Service) {
		if interval > 0 {
			s.pollInterval = interval
		}
	}
}

// NewService wires the orchestrator. All polling and timestamps go
// through clk so tests can drive the streams deterministically.
func NewService(logger *slog.Logger, clk clock.Clock, driver PaneDriver, registry Registry, opts ...Option) *Service {
	s := &Service{
		logger:        logger,
		clock:         clk,
		driver:        driver,
		registry:      registry,
		version:       "dev",
		sessionPrefix: "forge-",
		pollInterval:  defaultPollInterval,
		startedAt:     clk.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Status reports daemon health: uptime, agent count, and the tmux
// socket agents run under.
func (s *Service) Status(ctx context.Context) (StatusResponse, error) {
	now := s.clock.Now()
	return StatusResponse{
		Version:       s.version,
		StartedAt:     s.startedAt,
		UptimeSeconds: int64(now.Sub(s.startedAt) / time.Second),
		AgentCount:    s.registry.Count(),
		TmuxSocket:    s.tmuxSocket,
	}, nil
}
