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
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/forge-foundation/forge/lib/codec"
	"github.com/forge-foundation/forge/lib/testutil"
)

func testSocketPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "test.sock")
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// startServer runs the server in the background, waits for it to be
// listening, and registers cleanup that stops it.
func startServer(t *testing.T, server *Server, socketPath string) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	serveDone := make(chan error, 1)
	go func() {
		serveDone <- server.Serve(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		if err := testutil.RequireReceive(t, serveDone, 5*time.Second,
			"Serve did not return after cancellation"); err != nil {
			t.Errorf("Serve returned error: %v", err)
		}
	})

	select {
	case <-server.Ready():
	case err := <-serveDone:
		serveDone <- err
		t.Fatalf("Serve exited before listening: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatalf("server on %s never became ready", socketPath)
	}
}

func TestUnaryCall(t *testing.T) {
	socketPath := testSocketPath(t)
	server := NewServer(socketPath, testLogger())

	server.Handle("echo", func(ctx context.Context, raw []byte) (any, error) {
		var request struct {
			Value int `cbor:"value"`
		}
		if err := codec.Unmarshal(raw, &request); err != nil {
			return nil, err
		}
		return map[string]any{"value": request.Value}, nil
	})

	startServer(t, server, socketPath)

	client := NewClient(socketPath)
	var result struct {
		Value int `cbor:"value"`
	}
	if err := client.Call(t.Context(), "echo", map[string]any{"value": 7}, &result); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if result.Value != 7 {
		t.Fatalf("echoed value = %d, want 7", result.Value)
	}
}

func TestUnaryCallNilResult(t *testing.T) {
	socketPath := testSocketPath(t)
	server := NewServer(socketPath, testLogger())

	server.Handle("noop", func(ctx context.Context, raw []byte) (any, error) {
		return nil, nil
	})

	startServer(t, server, socketPath)

	client := NewClient(socketPath)
	if err := client.Call(t.Context(), "noop", nil, nil); err != nil {
		t.Fatalf("Call: %v", err)
	}
}

func TestUnknownAction(t *testing.T) {
	socketPath := testSocketPath(t)
	server := NewServer(socketPath, testLogger())
	startServer(t, server, socketPath)

	client := NewClient(socketPath)
	err := client.Call(t.Context(), "nonexistent", nil, nil)

	var callErr *CallError
	if !errors.As(err, &callErr) {
		t.Fatalf("error = %v, want *CallError", err)
	}
	if callErr.Code != CodeInvalidArgument {
		t.Fatalf("code = %q, want %q", callErr.Code, CodeInvalidArgument)
	}
	if !strings.Contains(callErr.Message, "nonexistent") {
		t.Fatalf("message %q does not name the unknown action", callErr.Message)
	}
}

func TestTypedErrorCodePropagates(t *testing.T) {
	socketPath := testSocketPath(t)
	server := NewServer(socketPath, testLogger())

	server.Handle("lookup", func(ctx context.Context, raw []byte) (any, error) {
		return nil, NotFoundf("agent %q not found", "ghost")
	})

	startServer(t, server, socketPath)

	client := NewClient(socketPath)
	err := client.Call(t.Context(), "lookup", nil, nil)

	var callErr *CallError
	if !errors.As(err, &callErr) {
		t.Fatalf("error = %v, want *CallError", err)
	}
	if callErr.Code != CodeNotFound {
		t.Fatalf("code = %q, want %q", callErr.Code, CodeNotFound)
	}
	if callErr.Message != `agent "ghost" not found` {
		t.Fatalf("message = %q", callErr.Message)
	}
}

func TestUntypedErrorMapsToInternal(t *testing.T) {
	socketPath := testSocketPath(t)
	server := NewServer(socketPath, testLogger())

	server.Handle("fail", func(ctx context.Context, raw []byte) (any, error) {
		return nil, fmt.Errorf("something broke")
	})

	startServer(t, server, socketPath)

	client := NewClient(socketPath)
	err := client.Call(t.Context(), "fail", nil, nil)

	var callErr *CallError
	if !errors.As(err, &callErr) {
		t.Fatalf("error = %v, want *CallError", err)
	}
	if callErr.Code != CodeInternal {
		t.Fatalf("code = %q, want %q", callErr.Code, CodeInternal)
	}
	if callErr.Message != "something broke" {
		t.Fatalf("message = %q, want the handler's message", callErr.Message)
	}
}

func TestWrappedTypedErrorStillClassified(t *testing.T) {
	socketPath := testSocketPath(t)
	server := NewServer(socketPath, testLogger())

	server.Handle("wrapped", func(ctx context.Context, raw []byte) (any, error) {
		return nil, fmt.Errorf("checking registry: %w", AlreadyExistsf("agent exists"))
	})

	startServer(t, server, socketPath)

	client := NewClient(socketPath)
	err := client.Call(t.Context(), "wrapped", nil, nil)

	var callErr *CallError
	if !errors.As(err, &callErr) {
		t.Fatalf("error = %v, want *CallError", err)
	}
	if callErr.Code != CodeAlreadyExists {
		t.Fatalf("code = %q, want %q", callErr.Code, CodeAlreadyExists)
	}
}

func TestInvalidCBORRequest(t *testing.T) {
	socketPath := testSocketPath(t)
	server := NewServer(socketPath, testLogger())
	startServer(t, server, socketPath)

	conn, err := net.DialTimeout("unix", socketPath, 5*time.Second)
	if err != nil {
		t.Fatalf("connecting: %v", err)
	}
	defer conn.Close()

	conn.Write([]byte{0xff, 0xfe, 0xfd, 0xfc, 0xfb})
	if unixConn, ok := conn.(*net.UnixConn); ok {
		unixConn.CloseWrite()
	}

	var frame Frame
	if err := codec.NewDecoder(conn).Decode(&frame); err != nil {
		t.Fatalf("decoding error frame: %v", err)
	}
	if frame.OK {
		t.Fatal("expected ok=false for invalid CBOR")
	}
	if frame.Code != string(CodeInvalidArgument) {
		t.Fatalf("code = %q, want %q", frame.Code, CodeInvalidArgument)
	}
}

func TestStreamDeliversItemsThenEOF(t *testing.T) {
	socketPath := testSocketPath(t)
	server := NewServer(socketPath, testLogger())

	server.HandleStream("count", func(ctx context.Context, raw []byte, send SendFunc) error {
		for i := range 3 {
			if err := send(map[string]any{"sequence": i}); err != nil {
				return err
			}
		}
		return nil
	})

	startServer(t, server, socketPath)

	client := NewClient(socketPath)
	stream, err := client.Stream(t.Context(), "count", nil)
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	defer stream.Close()

	for i := range 3 {
		var item struct {
			Sequence int `cbor:"sequence"`
		}
		if err := stream.Recv(&item); err != nil {
			t.Fatalf("Recv %d: %v", i, err)
		}
		if item.Sequence != i {
			t.Fatalf("item %d: sequence = %d", i, item.Sequence)
		}
	}

	if err := stream.Recv(nil); err != io.EOF {
		t.Fatalf("after last item: Recv = %v, want io.EOF", err)
	}
}

func TestStreamTerminalError(t *testing.T) {
	socketPath := testSocketPath(t)
	server := NewServer(socketPath, testLogger())

	server.HandleStream("doomed", func(ctx context.Context, raw []byte, send SendFunc) error {
		if err := send(map[string]any{"sequence": 0}); err != nil {
			return err
		}
		return NotFoundf("agent disappeared mid-stream")
	})

	startServer(t, server, socketPath)

	client := NewClient(socketPath)
	stream, err := client.Stream(t.Context(), "doomed", nil)
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	defer stream.Close()

	if err := stream.Recv(nil); err != nil {
		t.Fatalf("first Recv: %v", err)
	}

	err = stream.Recv(nil)
	var callErr *CallError
	if !errors.As(err, &callErr) {
		t.Fatalf("terminal error = %v, want *CallError", err)
	}
	if callErr.Code != CodeNotFound {
		t.Fatalf("terminal code = %q, want %q", callErr.Code, CodeNotFound)
	}
}

func TestStreamImmediateFailureBeforeFirstItem(t *testing.T) {
	socketPath := testSocketPath(t)
	server := NewServer(socketPath, testLogger())

	server.HandleStream("reject", func(ctx context.Context, raw []byte, send SendFunc) error {
		return InvalidArgumentf("missing agent_id")
	})

	startServer(t, server, socketPath)

	client := NewClient(socketPath)
	stream, err := client.Stream(t.Context(), "reject", nil)
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	defer stream.Close()

	err = stream.Recv(nil)
	var callErr *CallError
	if !errors.As(err, &callErr) || callErr.Code != CodeInvalidArgument {
		t.Fatalf("Recv = %v, want invalid_argument CallError", err)
	}
}

func TestStreamClientDisconnectCancelsHandler(t *testing.T) {
	socketPath := testSocketPath(t)
	server := NewServer(socketPath, testLogger())

	handlerDone := make(chan struct{})
	server.HandleStream("forever", func(ctx context.Context, raw []byte, send SendFunc) error {
		defer close(handlerDone)
		<-ctx.Done()
		return ctx.Err()
	})

	startServer(t, server, socketPath)

	client := NewClient(socketPath)
	stream, err := client.Stream(t.Context(), "forever", nil)
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}
	stream.Close()

	testutil.RequireClosed(t, handlerDone, 5*time.Second,
		"stream handler did not observe the client disconnect")
}

func TestGracefulShutdownDrainsInFlight(t *testing.T) {
	socketPath := testSocketPath(t)
	server := NewServer(socketPath, testLogger())

	handlerStarted := make(chan struct{})
	handlerRelease := make(chan struct{})
	server.Handle("slow", func(ctx context.Context, raw []byte) (any, error) {
		close(handlerStarted)
		<-handlerRelease
		return map[string]any{"completed": true}, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	serveDone := make(chan error, 1)
	go func() {
		serveDone <- server.Serve(ctx)
	}()
	testutil.RequireClosed(t, server.Ready(), 5*time.Second, "server never became ready")

	client := NewClient(socketPath)
	callDone := make(chan error, 1)
	var result struct {
		Completed bool `cbor:"completed"`
	}
	go func() {
		callDone <- client.Call(context.Background(), "slow", nil, &result)
	}()

	// Cancel the server mid-request; the in-flight call must still
	// complete before Serve returns.
	testutil.RequireClosed(t, handlerStarted, 5*time.Second, "handler never started")
	cancel()
	close(handlerRelease)

	if err := testutil.RequireReceive(t, callDone, 5*time.Second,
		"in-flight call never completed"); err != nil {
		t.Fatalf("Call: %v", err)
	}
	if !result.Completed {
		t.Fatal("in-flight call lost its response")
	}

	if err := testutil.RequireReceive(t, serveDone, 5*time.Second,
		"Serve did not return after cancellation"); err != nil {
		t.Errorf("Serve returned error: %v", err)
	}

	if _, err := os.Stat(socketPath); !os.IsNotExist(err) {
		t.Error("socket file not cleaned up after Serve returned")
	}
}

func TestConcurrentCalls(t *testing.T) {
	socketPath := testSocketPath(t)
	server := NewServer(socketPath, testLogger())

	server.Handle("echo", func(ctx context.Context, raw []byte) (any, error) {
		var request struct {
			Value int `cbor:"value"`
		}
		if err := codec.Unmarshal(raw, &request); err != nil {
			return nil, err
		}
		return map[string]any{"value": request.Value}, nil
	})

	startServer(t, server, socketPath)

	client := NewClient(socketPath)
	const concurrency = 20
	var wg sync.WaitGroup
	for i := range concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var result struct {
				Value int `cbor:"value"`
			}
			if err := client.Call(t.Context(), "echo", map[string]any{"value": i}, &result); err != nil {
				t.Errorf("call %d: %v", i, err)
				return
			}
			if result.Value != i {
				t.Errorf("call %d: echoed %d", i, result.Value)
			}
		}()
	}
	wg.Wait()
}

func TestDuplicateHandlerPanics(t *testing.T) {
	server := NewServer("/tmp/test.sock", testLogger())
	server.Handle("foo", func(ctx context.Context, raw []byte) (any, error) {
		return nil, nil
	})

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic on duplicate handler registration")
		}
	}()

	server.HandleStream("foo", func(ctx context.Context, raw []byte, send SendFunc) error {
		return nil
	})
}

func TestReadySignalsListening(t *testing.T) {
	socketPath := testSocketPath(t)
	server := NewServer(socketPath, testLogger())

	select {
	case <-server.Ready():
		t.Fatal("Ready closed before Serve was called")
	default:
	}

	startServer(t, server, socketPath)

	// startServer returned, so Ready has fired; an immediate dial must
	// succeed without any socket-file polling.
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		t.Fatalf("dial after ready: %v", err)
	}
	conn.Close()
}
