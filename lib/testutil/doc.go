// Copyright 2026 The Forge Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for forge packages.
//
// [SocketDir] creates a short-named temporary directory in /tmp
// suitable for Unix domain sockets, which have a 108-byte path limit
// (sun_path in sockaddr_un) that deeply nested t.TempDir() paths can
// exceed.
//
// [RequireReceive] and [RequireClosed] encapsulate the timeout safety
// valve pattern (select with time.After fallback) so individual tests
// do not need direct time.After calls — streaming tests otherwise
// hang forever when an expected emission never arrives.
//
// [UniqueID] generates monotonically increasing identifiers for agent
// and session names so parallel tests never collide on a shared tmux
// server.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
package testutil
