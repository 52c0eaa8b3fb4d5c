// Copyright 2026 The Forge Authors
// SPDX-License-Identifier: Apache-2.0

// Package schema defines the shared data model for the forged daemon:
// agents, agent states, transcript entries, and the derived event
// projection used by cross-agent streaming.
//
// Every type here is a wire type — the CBOR struct tags are the RPC
// protocol's field names, and both the daemon and the CLI client
// import this package rather than maintaining duplicates.
//
// Transcript entries are facts: appended once, never mutated, each
// carrying the per-agent monotonic ID assigned by the registry.
// Events are projections: synthesized fresh from transcripts on every
// event-stream poll, with IDs that are only meaningful within a single
// poll (see Event.ID).
package schema
