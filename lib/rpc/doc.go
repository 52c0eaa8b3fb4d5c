// Copyright 2026 The Forge Authors
// SPDX-License-Identifier: Apache-2.0

// Package rpc implements forged's control protocol: CBOR
// request-response and server-streaming over a Unix socket.
//
// Each connection carries exactly one call. The client writes a single
// CBOR request map containing an "action" field plus action-specific
// parameters. For unary actions the server replies with one Frame and
// closes. For streaming actions the server writes a Frame per item;
// the stream ends either cleanly (connection close after the last
// frame) or with a terminal error Frame (ok=false).
//
// Handler failures carry a machine-readable code (Code) alongside the
// human-readable message. Handlers return *Error to pick the code;
// any other error maps to CodeInternal at the boundary.
package rpc
