// Copyright 2026 The Forge Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides forge's standard CBOR encoding and decoding.
//
// All RPC traffic between the forge CLI and the forged daemon is CBOR.
// Encoding uses Core Deterministic Encoding (RFC 8949 §4.2) so the
// same logical value always produces identical bytes; decoding ignores
// unknown fields for forward compatibility between client and daemon
// versions.
//
// Consumers import only this package, never fxamacker/cbor directly —
// the Encoder, Decoder, and RawMessage aliases exist for that reason.
package codec
