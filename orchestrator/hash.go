// Copyright 2026 The Forge Authors
// SPDX-License-Identifier: Apache-2.0

package orchestrator

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashContent digests captured pane text for change detection:
// hex-encoded SHA-256 of the raw bytes. Deterministic, so a stream
// can compare digests across polls instead of retransmitting content.
func HashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
