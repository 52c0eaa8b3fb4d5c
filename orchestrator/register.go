// Copyright 2026 The Forge Authors
// SPDX-License-Identifier: Apache-2.0

package orchestrator

import (
	"context"

	"github.com/forge-foundation/forge/lib/codec"
	"github.com/forge-foundation/forge/lib/rpc"
)

// RegisterActions wires every orchestrator action into the server.
// Action names are the wire protocol; changing one breaks clients.
func (s *Service) RegisterActions(server *rpc.Server) {
	server.Handle("spawn-agent", unary(s.SpawnAgent))
	server.Handle("kill-agent", unary(s.KillAgent))
	server.Handle("send-input", unary(s.SendInput))
	server.Handle("list-agents", unary(s.ListAgents))
	server.Handle("get-agent", unary(s.GetAgent))
	server.Handle("capture-pane", unary(s.CapturePane))
	server.Handle("get-transcript", unary(s.GetTranscript))
	server.Handle("status", func(ctx context.Context, raw []byte) (any, error) {
		return s.Status(ctx)
	})

	server.HandleStream("stream-pane-updates", streaming(s.StreamPaneUpdates))
	server.HandleStream("stream-events", streaming(s.StreamEvents))
	server.HandleStream("stream-transcript", streaming(s.StreamTranscript))
}

// unary adapts a typed handler method to the server's raw-CBOR action
// signature. A request that fails to decode is a caller error.
func unary[Req, Resp any](handler func(context.Context, Req) (Resp, error)) rpc.ActionFunc {
	return func(ctx context.Context, raw []byte) (any, error) {
		var req Req
		if err := codec.Unmarshal(raw, &req); err != nil {
			return nil, rpc.InvalidArgumentf("decoding request: %v", err)
		}
		return handler(ctx, req)
	}
}

// streaming adapts a typed stream method the same way.
func streaming[Req, Item any](handler func(context.Context, Req, func(Item) error) error) rpc.StreamFunc {
	return func(ctx context.Context, raw []byte, send rpc.SendFunc) error {
		var req Req
		if err := codec.Unmarshal(raw, &req); err != nil {
			return rpc.InvalidArgumentf("decoding request: %v", err)
		}
		return handler(ctx, req, func(item Item) error {
			return send(item)
		})
	}
}
