// Copyright 2026 The Forge Authors
// SPDX-License-Identifier: Apache-2.0

// Package tmux provides a typed interface to tmux servers. Forge runs
// its own dedicated tmux server (distinct from the user's personal
// tmux) to host agent panes. All operations target a specific server
// socket — there is no default server, and the user's ~/.tmux.conf is
// never loaded unless explicitly requested.
//
// The central type is Server, which represents a connection to a tmux
// server identified by its Unix socket path. All tmux commands go
// through Server, which injects the -S flag automatically. This makes
// it structurally impossible to accidentally target the wrong server
// or forget to specify a socket.
//
// Panes are addressed by tmux pane IDs ("%12"), which are unique per
// server and stable for the pane's lifetime. The orchestrator stores
// these as opaque handles.
package tmux

import (
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// Server represents a tmux server identified by its Unix socket path.
// All operations target this specific server — there is no way to run
// a tmux command without specifying which server it applies to.
type Server struct {
	socketPath string
	configFile string // passed as "-f <path>" on new-session; empty = tmux default
}

// NewServer returns a Server that targets the given socket path.
//
// configFile controls which configuration file tmux loads when the
// server starts (which happens on the first new-session call). Pass
// "/dev/null" to prevent loading the user's ~/.tmux.conf — required
// for forged's production servers and all tests. If configFile is
// empty, tmux uses its default config resolution, which is almost
// never what forged wants.
func NewServer(socketPath, configFile string) *Server {
	return &Server{
		socketPath: socketPath,
		configFile: configFile,
	}
}

// SocketPath returns the Unix socket path that identifies this server.
func (s *Server) SocketPath() string {
	return s.socketPath
}

// Run executes an arbitrary tmux subcommand on this server and returns
// the combined output. This is the escape hatch for commands that do
// not have a dedicated method. The -S flag is automatically prepended;
// callers provide only the subcommand and its arguments:
//
//	output, err := server.Run("list-panes", "-t", session, "-F", "#{pane_id}")
func (s *Server) Run(args ...string) (string, error) {
	fullArgs := append([]string{"-S", s.socketPath}, args...)
	cmd := exec.Command("tmux", fullArgs...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("tmux %s: %w (%s)",
			strings.Join(args, " "), err, strings.TrimSpace(string(output)))
	}
	return string(output), nil
}

// HasSession reports whether a session with the given name exists on
// this server. A missing session (tmux exit status 1, or no server
// running at the socket) is not an error; anything else — tmux binary
// absent, socket permission failure — is.
func (s *Server) HasSession(sessionName string) (bool, error) {
	cmd := exec.Command("tmux", "-S", s.socketPath, "has-session", "-t", sessionName)
	output, err := cmd.CombinedOutput()
	if err == nil {
		return true, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		// Exit status 1 means "no such session". tmux also reports
		// "no server running" through a nonzero exit when the socket
		// has no server yet — equally "session does not exist".
		return false, nil
	}
	return false, fmt.Errorf("tmux has-session %q: %w (%s)",
		sessionName, err, strings.TrimSpace(string(output)))
}

// NewSession creates a detached session on this server with the given
// working directory. The session runs the default shell; agent
// commands are sent to individual panes afterwards.
//
// The -f flag (config file) is passed here because new-session may
// start the server if it isn't already running. Subsequent commands
// don't re-read the config file.
func (s *Server) NewSession(sessionName, workingDir string) error {
	var args []string
	if s.configFile != "" {
		args = append(args, "-f", s.configFile)
	}
	args = append(args, "-S", s.socketPath, "new-session", "-d", "-s", sessionName)
	if workingDir != "" {
		args = append(args, "-c", workingDir)
	}
	cmd := exec.Command("tmux", args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("tmux new-session %q: %w (%s)",
			sessionName, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// SplitWindow splits the named session's active window and returns the
// new pane's ID ("%12"). horizontal selects a side-by-side split;
// otherwise the split is stacked. The new pane starts the default
// shell in workingDir and is not focused (-d), so splitting never
// steals focus from an attached operator.
func (s *Server) SplitWindow(sessionName string, horizontal bool, workingDir string) (string, error) {
	args := []string{"split-window", "-t", sessionName, "-d", "-P", "-F", "#{pane_id}"}
	if horizontal {
		args = append(args, "-h")
	} else {
		args = append(args, "-v")
	}
	if workingDir != "" {
		args = append(args, "-c", workingDir)
	}

	output, err := s.Run(args...)
	if err != nil {
		return "", err
	}

	paneID := strings.TrimSpace(output)
	if paneID == "" {
		return "", fmt.Errorf("tmux split-window on %q returned no pane ID", sessionName)
	}
	return paneID, nil
}

// SendKeys sends text to a pane. With literal set, the text is passed
// with -l so tmux performs no key-name interpretation ("Enter" stays
// four letters). With enter set, a separate Enter keypress follows the
// text — sent as its own command so the literal flag cannot swallow it.
func (s *Server) SendKeys(target, text string, literal, enter bool) error {
	if text != "" {
		args := []string{"send-keys", "-t", target}
		if literal {
			args = append(args, "-l")
		}
		args = append(args, "--", text)
		if _, err := s.Run(args...); err != nil {
			return err
		}
	}
	if enter {
		if _, err := s.Run("send-keys", "-t", target, "Enter"); err != nil {
			return err
		}
	}
	return nil
}

// SendKey sends a single interpreted key to a pane. The key uses tmux
// key syntax: "Enter", "Escape", "C-c", "Up", "BTab", and so on.
func (s *Server) SendKey(target, key string) error {
	_, err := s.Run("send-keys", "-t", target, key)
	return err
}

// CapturePane captures a pane's content. With includeHistory set, the
// capture starts at the beginning of scrollback (-S -); otherwise only
// the visible area is returned. Output includes whatever escape
// sequences the pane process emitted (-e is not passed; tmux strips
// styling by default, but cursor and clear sequences survive in raw
// program output).
func (s *Server) CapturePane(target string, includeHistory bool) (string, error) {
	args := []string{"capture-pane", "-p", "-t", target}
	if includeHistory {
		args = append(args, "-S", "-")
	}
	return s.Run(args...)
}

// PanePID returns the process ID of the command running in the pane.
func (s *Server) PanePID(target string) (int, error) {
	output, err := s.Run("display-message", "-p", "-t", target, "#{pane_pid}")
	if err != nil {
		return 0, fmt.Errorf("getting pane PID: %w", err)
	}

	pid, parseErr := strconv.Atoi(strings.TrimSpace(output))
	if parseErr != nil {
		return 0, fmt.Errorf("parsing pane PID %q: %w", strings.TrimSpace(output), parseErr)
	}
	return pid, nil
}

// SendInterrupt delivers SIGINT to the pane's process. Uses
// #{pane_pid} to discover the process ID, then signals it directly —
// equivalent to the operator pressing Ctrl-C in the pane, but immune
// to the pane's input mode.
func (s *Server) SendInterrupt(target string) error {
	pid, err := s.PanePID(target)
	if err != nil {
		return err
	}
	if err := unix.Kill(pid, unix.SIGINT); err != nil {
		return fmt.Errorf("interrupting PID %d: %w", pid, err)
	}
	return nil
}

// KillPane destroys a pane and its process. Returns nil if the pane
// was already gone — a normal condition during cleanup, not an error.
func (s *Server) KillPane(target string) error {
	if _, err := s.Run("kill-pane", "-t", target); err != nil {
		// Run folds tmux's stderr into the error text.
		if strings.Contains(err.Error(), "can't find pane") ||
			strings.Contains(err.Error(), "no server running") {
			return nil
		}
		return err
	}
	return nil
}

// KillSession terminates a specific session. Returns nil if the
// session was already gone or the server was not running — normal
// conditions during cleanup.
func (s *Server) KillSession(sessionName string) error {
	cmd := exec.Command("tmux", "-S", s.socketPath, "kill-session", "-t", sessionName)
	output, err := cmd.CombinedOutput()
	if err != nil {
		outputString := strings.TrimSpace(string(output))
		if strings.Contains(outputString, "can't find session") ||
			strings.Contains(outputString, "no server running") {
			return nil
		}
		return fmt.Errorf("tmux kill-session %q: %w (%s)",
			sessionName, err, outputString)
	}
	return nil
}

// KillServer terminates the entire tmux server, stopping all sessions.
// Returns nil if the server was already stopped. The "server exited
// unexpectedly" message appears when the socket file lingers briefly
// after the server process has exited; it is equally benign.
func (s *Server) KillServer() error {
	cmd := exec.Command("tmux", "-S", s.socketPath, "kill-server")
	output, err := cmd.CombinedOutput()
	if err != nil {
		outputString := strings.TrimSpace(string(output))
		if strings.Contains(outputString, "no server running") ||
			strings.Contains(outputString, "server exited unexpectedly") {
			return nil
		}
		return fmt.Errorf("tmux kill-server: %w (%s)", err, outputString)
	}
	return nil
}

// SetOption sets a tmux option on this server. If sessionName is
// empty, the option is set globally (-g) and applies to all sessions.
func (s *Server) SetOption(sessionName, key, value string) error {
	var args []string
	if sessionName == "" {
		args = []string{"set-option", "-g", key, value}
	} else {
		args = []string{"set-option", "-t", sessionName, key, value}
	}
	if _, err := s.Run(args...); err != nil {
		return fmt.Errorf("tmux set-option %q=%q (session %q): %w",
			key, value, sessionName, err)
	}
	return nil
}
