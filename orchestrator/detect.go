// Copyright 2026 The Forge Authors
// SPDX-License-Identifier: Apache-2.0

package orchestrator

import (
	"strings"

	"github.com/charmbracelet/x/ansi"

	"github.com/forge-foundation/forge/lib/schema"
)

// Marker sets for state detection, in evaluation order. These are the
// patterns the common agent CLIs print; adapters with richer protocols
// can layer better detection on top, but this heuristic covers the
// plain-terminal case.
var (
	approvalMarkers = []string{
		"Do you want to",
		"Proceed?",
		"[y/n]",
		"[Y/n]",
		"approve",
		"confirm",
		"Allow?",
	}

	promptMarkers = []string{"$", "❯", "→", ">"}

	// The literal busy strings plus the standard 10-glyph Braille
	// spinner set.
	busyMarkers = []string{
		"Thinking...",
		"Working...",
		"Processing...",
		"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏",
	}

	errorMarkers = []string{
		"error:",
		"Error:",
		"ERROR",
		"fatal:",
		"Fatal:",
		"panic:",
		"Panic:",
	}
)

// DetectAgentState maps captured pane text to an agent state by
// ordered rule evaluation; the first matching rule wins. Escape
// sequences are stripped first so a color code in the middle of
// "error:" cannot hide the match.
//
// Rule order is deliberate: an approval prompt usually sits on a line
// that also looks like a shell prompt, and a busy spinner can share
// the screen with an old error message. Approval beats idle beats
// busy beats failed; anything unrecognized counts as running.
func DetectAgentState(content string) schema.AgentState {
	plain := ansi.Strip(content)

	if containsAny(plain, approvalMarkers) {
		return schema.StateWaitingApproval
	}

	// Idle means a prompt is waiting at the bottom of the pane, not
	// just that a prompt character appears somewhere in the output.
	if containsAny(plain, promptMarkers) {
		if lastLine := lastNonEmptyLine(plain); containsAny(lastLine, promptMarkers) {
			return schema.StateIdle
		}
	}

	if containsAny(plain, busyMarkers) {
		return schema.StateRunning
	}

	if containsAny(plain, errorMarkers) {
		return schema.StateFailed
	}

	return schema.StateRunning
}

func containsAny(text string, markers []string) bool {
	for _, marker := range markers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

// lastNonEmptyLine returns the final line of text that contains a
// non-whitespace character, or "" if there is none.
func lastNonEmptyLine(text string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.TrimSpace(lines[i]) != "" {
			return lines[i]
		}
	}
	return ""
}
