// Copyright 2026 The Forge Authors
// SPDX-License-Identifier: Apache-2.0

package rpc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/forge-foundation/forge/lib/codec"
)

// dialTimeout is the maximum time to wait for a connection to the
// daemon socket. Separate from the server's read/write timeouts — it
// covers only the connect phase.
const dialTimeout = 5 * time.Second

// responseReadTimeout is how long a unary Call waits for the response
// after writing the request. Matched to the server's readTimeout +
// writeTimeout to account for handler execution time.
const responseReadTimeout = 45 * time.Second

// maxFrameSize is the maximum size of a single CBOR frame from the
// server. Matches the server's maxRequestSize for symmetry.
const maxFrameSize = 1024 * 1024

// CallError is returned when the server responds with ok=false. It
// carries the protocol code so callers can branch on the failure kind
// without string matching.
type CallError struct {
	Action  string
	Code    Code
	Message string
}

func (e *CallError) Error() string {
	return fmt.Sprintf("rpc %q failed (%s): %s", e.Action, e.Code, e.Message)
}

// Client sends requests to a forged control socket. Each Call or
// Stream opens a new connection, matching the server's
// one-call-per-connection model. A Client is stateless and safe for
// concurrent use.
type Client struct {
	socketPath string
}

// NewClient returns a client for the daemon socket at socketPath.
func NewClient(socketPath string) *Client {
	return &Client{socketPath: socketPath}
}

// Call sends a unary request and decodes the response.
//
// The fields map carries action-specific parameters; the client adds
// "action" itself. Pass nil for actions with no parameters. On
// success, if result is non-nil and the response carries data, the
// data is decoded into result. Server-reported failures come back as
// *CallError; connection and encoding problems as plain errors.
func (c *Client) Call(ctx context.Context, action string, fields map[string]any, result any) error {
	conn, err := c.dial(ctx, action, fields)
	if err != nil {
		return err
	}
	defer conn.Close()

	// Half-close the write side. CBOR is self-delimiting so this is
	// not strictly necessary, but it lets the server's read side see
	// EOF cleanly.
	if unixConn, ok := conn.(*net.UnixConn); ok {
		unixConn.CloseWrite()
	}

	conn.SetReadDeadline(time.Now().Add(responseReadTimeout))
	var frame Frame
	if err := codec.NewDecoder(io.LimitReader(conn, maxFrameSize)).Decode(&frame); err != nil {
		return fmt.Errorf("calling %q on %s: reading response: %w", action, c.socketPath, err)
	}

	if !frame.OK {
		return &CallError{Action: action, Code: Code(frame.Code), Message: frame.Error}
	}
	if result != nil && len(frame.Data) > 0 {
		if err := codec.Unmarshal(frame.Data, result); err != nil {
			return fmt.Errorf("decoding response data for %q: %w", action, err)
		}
	}
	return nil
}

// Stream sends a streaming request and returns the open stream. The
// caller must Close the stream when done; closing is how the server
// learns the caller has lost interest.
func (c *Client) Stream(ctx context.Context, action string, fields map[string]any) (*Stream, error) {
	conn, err := c.dial(ctx, action, fields)
	if err != nil {
		return nil, err
	}

	// No write half-close here: the server treats any read result on
	// its side — EOF included — as the client disconnecting.
	stream := &Stream{
		action:  action,
		conn:    conn,
		decoder: codec.NewDecoder(io.LimitReader(conn, maxFrameSize)),
	}

	// Tear the connection down if the caller's context ends first.
	if ctx.Done() != nil {
		done := make(chan struct{})
		stream.stopWatch = func() { close(done) }
		go func() {
			select {
			case <-ctx.Done():
				conn.Close()
			case <-done:
			}
		}()
	}

	return stream, nil
}

// dial opens a connection and writes the request envelope.
func (c *Client) dial(ctx context.Context, action string, fields map[string]any) (net.Conn, error) {
	request := make(map[string]any, len(fields)+1)
	for key, value := range fields {
		request[key] = value
	}
	request["action"] = action

	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return nil, fmt.Errorf("calling %q on %s: connecting: %w", action, c.socketPath, err)
	}

	if err := codec.NewEncoder(conn).Encode(request); err != nil {
		conn.Close()
		return nil, fmt.Errorf("calling %q on %s: writing request: %w", action, c.socketPath, err)
	}
	return conn, nil
}

// Stream is an open server stream. Recv returns items in order until
// the stream ends.
type Stream struct {
	action    string
	conn      net.Conn
	decoder   *codec.Decoder
	stopWatch func()
}

// Recv decodes the next stream item into result. It returns io.EOF
// when the server ends the stream cleanly, a *CallError when the
// server sends a terminal failure frame, and a plain error for
// connection problems.
func (s *Stream) Recv(result any) error {
	var frame Frame
	if err := s.decoder.Decode(&frame); err != nil {
		if errors.Is(err, io.EOF) {
			return io.EOF
		}
		return fmt.Errorf("stream %q: reading frame: %w", s.action, err)
	}
	if !frame.OK {
		return &CallError{Action: s.action, Code: Code(frame.Code), Message: frame.Error}
	}
	if result != nil && len(frame.Data) > 0 {
		if err := codec.Unmarshal(frame.Data, result); err != nil {
			return fmt.Errorf("stream %q: decoding frame data: %w", s.action, err)
		}
	}
	return nil
}

// Close tears down the stream's connection. Safe to call after Recv
// has returned io.EOF or an error.
func (s *Stream) Close() error {
	if s.stopWatch != nil {
		s.stopWatch()
		s.stopWatch = nil
	}
	return s.conn.Close()
}
