// Copyright 2026 The Forge Authors
// SPDX-License-Identifier: Apache-2.0

// Package registry implements the daemon's agent store: one live
// record per agent ID plus an append-only, monotonically numbered
// transcript per agent.
//
// The Store is the only mutable shared state the orchestration
// handlers touch directly, so every operation is safe under
// concurrent invocation from multiple in-flight RPCs. It is an
// explicit injected dependency — constructed in main and passed into
// the service — never a process-wide singleton.
//
// Nothing here persists: the registry holds runtime state for panes
// that die with the tmux server anyway. A daemon restart starts
// empty.
package registry
