// Copyright 2026 The Forge Authors
// SPDX-License-Identifier: Apache-2.0

package rpc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/forge-foundation/forge/lib/codec"
)

// ActionFunc processes a unary request. The raw parameter is the full
// CBOR request (including the "action" field); the handler decodes
// action-specific fields from it.
//
// Return a value to include in the success response, or an error for
// a failure response. A nil value yields {ok: true} with no data.
type ActionFunc func(ctx context.Context, raw []byte) (any, error)

// SendFunc delivers one stream item to the client. It returns an
// error once the client has disconnected or the write fails; the
// handler should stop streaming when that happens.
type SendFunc func(item any) error

// StreamFunc processes a streaming request. The handler calls send
// for each item and returns when the stream is done: nil for a clean
// end (the server just closes the connection), or an error for a
// terminal failure frame. The context is cancelled when the client
// disconnects or the server shuts down.
type StreamFunc func(ctx context.Context, raw []byte, send SendFunc) error

// Frame is the wire envelope for every server-to-client message. A
// unary call produces exactly one Frame. A stream produces one Frame
// per item (ok=true) and, on failure, a final Frame with ok=false.
type Frame struct {
	OK    bool             `cbor:"ok"`
	Code  string           `cbor:"code,omitempty"`
	Error string           `cbor:"error,omitempty"`
	Data  codec.RawMessage `cbor:"data,omitempty"`
}

// Server serves the forged control protocol on a Unix socket. Each
// connection carries one call: the client writes a CBOR request, the
// server dispatches on its "action" field and writes one or more
// Frames back.
//
// Register actions with Handle and HandleStream before calling Serve.
type Server struct {
	socketPath string
	unary      map[string]ActionFunc
	streaming  map[string]StreamFunc
	logger     *slog.Logger

	// activeConnections tracks in-flight handlers for graceful
	// shutdown. Serve waits for all of them before returning.
	activeConnections sync.WaitGroup

	// ready is closed once Serve has the listener bound, so callers
	// can wait for the socket to be accepting before dialing.
	ready chan struct{}
}

// NewServer creates a server that will listen on socketPath.
func NewServer(socketPath string, logger *slog.Logger) *Server {
	return &Server{
		socketPath: socketPath,
		unary:      make(map[string]ActionFunc),
		streaming:  make(map[string]StreamFunc),
		logger:     logger,
		ready:      make(chan struct{}),
	}
}

// Ready returns a channel that is closed once Serve is listening on
// the socket. Dialing before that races the bind; waiting on Ready
// does not.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Handle registers a unary handler for the given action name. Panics
// on a duplicate registration — that is a programming error caught at
// startup, not a runtime condition.
func (s *Server) Handle(action string, handler ActionFunc) {
	s.checkDuplicate(action)
	s.unary[action] = handler
}

// HandleStream registers a streaming handler for the given action
// name. Panics on a duplicate registration.
func (s *Server) HandleStream(action string, handler StreamFunc) {
	s.checkDuplicate(action)
	s.streaming[action] = handler
}

func (s *Server) checkDuplicate(action string) {
	if _, exists := s.unary[action]; exists {
		panic(fmt.Sprintf("rpc.Server: duplicate handler for action %q", action))
	}
	if _, exists := s.streaming[action]; exists {
		panic(fmt.Sprintf("rpc.Server: duplicate handler for action %q", action))
	}
}

// Serve starts accepting connections and dispatching requests. Blocks
// until ctx is cancelled, then stops accepting and waits for active
// handlers to complete.
//
// Any stale socket file at the configured path is removed before
// listening, and the socket file is removed on return.
func (s *Server) Serve(ctx context.Context) error {
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing stale socket %s: %w", s.socketPath, err)
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.socketPath, err)
	}
	defer func() {
		listener.Close()
		os.Remove(s.socketPath)
	}()

	close(s.ready)

	// Unblock Accept when the context is cancelled.
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	s.logger.Info("rpc server listening", "path", s.socketPath)

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			if errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Error("accept failed", "error", err)
			continue
		}

		s.activeConnections.Add(1)
		go func() {
			defer s.activeConnections.Done()
			s.handleConnection(ctx, conn)
		}()
	}

	s.activeConnections.Wait()
	return nil
}

// readTimeout is how long we wait for the client to send its request.
// A well-behaved client sends the request immediately after connecting.
const readTimeout = 30 * time.Second

// writeTimeout bounds each individual frame write. Streams can run
// indefinitely, but a single frame that cannot be flushed within this
// window means the client is gone or wedged.
const writeTimeout = 10 * time.Second

// maxRequestSize is the maximum size of a single CBOR request. Requests
// carry identifiers, cursors, and input text; 1 MB is generous.
const maxRequestSize = 1024 * 1024

// handleConnection reads one request, dispatches it, and writes the
// response frame(s).
func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(readTimeout))

	var raw codec.RawMessage
	if err := codec.NewDecoder(io.LimitReader(conn, maxRequestSize)).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			// Client connected but sent nothing.
			return
		}
		s.writeFailure(conn, CodeInvalidArgument, fmt.Sprintf("invalid request: %v", err))
		return
	}

	var header struct {
		Action string `cbor:"action"`
	}
	if err := codec.Unmarshal(raw, &header); err != nil {
		s.writeFailure(conn, CodeInvalidArgument, fmt.Sprintf("invalid request: %v", err))
		return
	}
	if header.Action == "" {
		s.writeFailure(conn, CodeInvalidArgument, "missing required field: action")
		return
	}

	if handler, exists := s.unary[header.Action]; exists {
		s.handleUnary(ctx, conn, header.Action, handler, raw)
		return
	}
	if handler, exists := s.streaming[header.Action]; exists {
		s.handleStream(ctx, conn, header.Action, handler, raw)
		return
	}
	s.writeFailure(conn, CodeInvalidArgument, fmt.Sprintf("unknown action %q", header.Action))
}

func (s *Server) handleUnary(ctx context.Context, conn net.Conn, action string, handler ActionFunc, raw codec.RawMessage) {
	result, err := handler(ctx, []byte(raw))
	if err != nil {
		code, message := classify(err)
		s.logger.Debug("action failed",
			"action", action,
			"code", code,
			"error", message,
		)
		s.writeFailure(conn, code, message)
		return
	}
	s.writeSuccess(conn, result)
}

func (s *Server) handleStream(ctx context.Context, conn net.Conn, action string, handler StreamFunc, raw codec.RawMessage) {
	// The stream must end when the caller disconnects. The client
	// never writes again after the request, so a read returning
	// anything (EOF included) means the connection is done.
	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		var discard [1]byte
		conn.SetReadDeadline(time.Time{})
		conn.Read(discard[:])
		cancel()
	}()

	var writeMu sync.Mutex
	send := func(item any) error {
		data, err := codec.Marshal(item)
		if err != nil {
			return fmt.Errorf("marshaling stream item: %w", err)
		}
		writeMu.Lock()
		defer writeMu.Unlock()
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := codec.NewEncoder(conn).Encode(Frame{OK: true, Data: data}); err != nil {
			cancel()
			return fmt.Errorf("writing stream frame: %w", err)
		}
		return nil
	}

	err := handler(streamCtx, []byte(raw), send)
	if err != nil && streamCtx.Err() == nil {
		code, message := classify(err)
		s.logger.Debug("stream failed",
			"action", action,
			"code", code,
			"error", message,
		)
		writeMu.Lock()
		defer writeMu.Unlock()
		s.writeFailure(conn, code, message)
	}
	// A nil error (or a handler that noticed the disconnect) ends the
	// stream by closing the connection, which the client reads as EOF.
}

// classify maps a handler error to its wire code. Typed *Error values
// carry their own code; everything else is internal.
func classify(err error) (Code, string) {
	var rpcErr *Error
	if errors.As(err, &rpcErr) {
		return rpcErr.Code, rpcErr.Message
	}
	return CodeInternal, err.Error()
}

// writeFailure sends {ok: false, code, error}. Write failures are
// logged at debug level: the connection is closing regardless, and
// the caller has already received the error.
func (s *Server) writeFailure(conn net.Conn, code Code, message string) {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := codec.NewEncoder(conn).Encode(Frame{
		OK:    false,
		Code:  string(code),
		Error: message,
	}); err != nil {
		s.logger.Debug("failed to write error frame", "error", err)
	}
}

// writeSuccess sends a success frame. A nil result yields {ok: true};
// otherwise the value is marshaled into the "data" field.
func (s *Server) writeSuccess(conn net.Conn, result any) {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))

	frame := Frame{OK: true}
	if result != nil {
		data, err := codec.Marshal(result)
		if err != nil {
			s.writeFailure(conn, CodeInternal, fmt.Sprintf("marshaling response: %v", err))
			return
		}
		frame.Data = data
	}

	if err := codec.NewEncoder(conn).Encode(frame); err != nil {
		s.logger.Debug("failed to write success frame", "error", err)
	}
}
