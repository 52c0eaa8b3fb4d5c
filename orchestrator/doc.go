// Copyright 2026 The Forge Authors
// SPDX-License-Identifier: Apache-2.0

// Package orchestrator is the heart of forged: the handler set behind
// the daemon's control socket. It sequences pane driver operations
// (session/pane creation, keystroke injection, content capture),
// keeps the agent registry consistent under concurrent calls, and
// runs the polling loops behind the three streaming actions.
//
// The package consumes its two collaborators through interfaces it
// defines — PaneDriver (implemented by lib/tmux.Server) and Registry
// (implemented by lib/registry.Store) — so handler tests script a
// fake driver while exercising the real store.
//
// Streaming semantics worth knowing before reading the loops:
//
//   - Pane update streams emit only when the SHA-256 digest of the
//     captured content changes, except that the first emission always
//     happens so a subscriber gets an immediate baseline.
//   - Event streams synthesize their events fresh on every poll from
//     the union of all agents' transcripts. The dense numbering that
//     produces Event.ID is per-poll; the cursor carried on each frame
//     is the only safe resume token.
//   - A failed pane capture inside a loop skips that tick. Only the
//     agent disappearing ends a stream with an error.
package orchestrator
