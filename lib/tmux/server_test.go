// Copyright 2026 The Forge Authors
// SPDX-License-Identifier: Apache-2.0

package tmux_test

import (
	"strings"
	"testing"
	"time"

	"github.com/forge-foundation/forge/lib/tmux"
)

func TestNewSession(t *testing.T) {
	server := tmux.NewTestServer(t)

	if err := server.NewSession("test-session", ""); err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	exists, err := server.HasSession("test-session")
	if err != nil {
		t.Fatalf("HasSession: %v", err)
	}
	if !exists {
		t.Fatal("HasSession returned false for a session that was just created")
	}
}

func TestHasSessionReturnsFalseForMissing(t *testing.T) {
	server := tmux.NewTestServer(t)

	exists, err := server.HasSession("nonexistent")
	if err != nil {
		t.Fatalf("HasSession: %v", err)
	}
	if exists {
		t.Fatal("HasSession returned true for a session that does not exist")
	}
}

func TestSplitWindowReturnsPaneID(t *testing.T) {
	server := tmux.NewTestServer(t)

	if err := server.NewSession("split-test", ""); err != nil {
		t.Fatalf("NewSession: %v", err)
	}

	paneID, err := server.SplitWindow("split-test", true, "")
	if err != nil {
		t.Fatalf("SplitWindow: %v", err)
	}
	if !strings.HasPrefix(paneID, "%") {
		t.Fatalf("pane ID = %q, want a tmux pane ID like %%12", paneID)
	}

	// The returned ID must address the pane for follow-up commands.
	if _, err := server.Run("display-message", "-p", "-t", paneID, "#{pane_id}"); err != nil {
		t.Fatalf("pane ID %q does not resolve: %v", paneID, err)
	}
}

func TestSendKeysLiteralAndCapture(t *testing.T) {
	server := tmux.NewTestServer(t)

	if err := server.NewSession("echo-test", ""); err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	paneID, err := server.SplitWindow("echo-test", false, "")
	if err != nil {
		t.Fatalf("SplitWindow: %v", err)
	}

	// Literal send: "Enter" inside the text must not be interpreted
	// as a keypress; the trailing enter flag runs the command.
	if err := server.SendKeys(paneID, "echo marker-Enter-text", true, true); err != nil {
		t.Fatalf("SendKeys: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		content, err := server.CapturePane(paneID, false)
		if err != nil {
			t.Fatalf("CapturePane: %v", err)
		}
		if strings.Contains(content, "marker-Enter-text") {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("captured content never showed echoed text, got: %q", content)
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func TestPanePID(t *testing.T) {
	server := tmux.NewTestServer(t)

	if err := server.NewSession("pid-test", ""); err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	paneID, err := server.SplitWindow("pid-test", true, "")
	if err != nil {
		t.Fatalf("SplitWindow: %v", err)
	}

	pid, err := server.PanePID(paneID)
	if err != nil {
		t.Fatalf("PanePID: %v", err)
	}
	if pid <= 0 {
		t.Fatalf("PanePID = %d, want a positive PID", pid)
	}
}

func TestKillPane(t *testing.T) {
	server := tmux.NewTestServer(t)

	if err := server.NewSession("kill-test", ""); err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	paneID, err := server.SplitWindow("kill-test", true, "")
	if err != nil {
		t.Fatalf("SplitWindow: %v", err)
	}

	if err := server.KillPane(paneID); err != nil {
		t.Fatalf("KillPane: %v", err)
	}

	// Killing again is benign — the pane is already gone.
	if err := server.KillPane(paneID); err != nil {
		t.Fatalf("KillPane on missing pane returned error: %v", err)
	}
}

func TestKillSessionBenignWhenMissing(t *testing.T) {
	server := tmux.NewTestServer(t)

	if err := server.KillSession("never-existed"); err != nil {
		t.Fatalf("KillSession on missing session returned error: %v", err)
	}
}

func TestKillServerBenignWhenStopped(t *testing.T) {
	server := tmux.NewTestServer(t)
	server.KillServer()

	if err := server.KillServer(); err != nil {
		t.Fatalf("KillServer on stopped server returned error: %v", err)
	}
}

func TestCapturePaneWithHistory(t *testing.T) {
	server := tmux.NewTestServer(t)

	if err := server.NewSession("history-test", ""); err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	paneID, err := server.SplitWindow("history-test", false, "")
	if err != nil {
		t.Fatalf("SplitWindow: %v", err)
	}

	if err := server.SendKeys(paneID, "seq 1 200", true, true); err != nil {
		t.Fatalf("SendKeys: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for {
		full, err := server.CapturePane(paneID, true)
		if err != nil {
			t.Fatalf("CapturePane with history: %v", err)
		}
		if strings.Contains(full, "\n1\n") && strings.Contains(full, "200") {
			visible, err := server.CapturePane(paneID, false)
			if err != nil {
				t.Fatalf("CapturePane visible: %v", err)
			}
			if len(visible) >= len(full) {
				t.Fatalf("visible capture (%d bytes) not smaller than history capture (%d bytes)",
					len(visible), len(full))
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("seq output never appeared in scrollback")
		}
		time.Sleep(50 * time.Millisecond)
	}
}

func TestSocketPath(t *testing.T) {
	server := tmux.NewServer("/tmp/forge-tmux.sock", "/dev/null")
	if got := server.SocketPath(); got != "/tmp/forge-tmux.sock" {
		t.Fatalf("SocketPath() = %q, want %q", got, "/tmp/forge-tmux.sock")
	}
}

func TestTestServerIsolation(t *testing.T) {
	serverA := tmux.NewTestServer(t)
	serverB := tmux.NewTestServer(t)

	if err := serverA.NewSession("only-on-a", ""); err != nil {
		t.Fatalf("NewSession on A: %v", err)
	}

	exists, err := serverB.HasSession("only-on-a")
	if err != nil {
		t.Fatalf("HasSession on B: %v", err)
	}
	if exists {
		t.Fatal("server B can see a session from server A — servers are not isolated")
	}
}
