// Copyright 2026 The Forge Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/forge-foundation/forge/lib/config"
	"github.com/forge-foundation/forge/lib/rpc"
)

// socketEnv names the environment variable that overrides the default
// control socket path without a flag.
const socketEnv = "FORGE_SOCKET"

// callTimeout bounds unary calls from the CLI. Kill with a grace
// period can legitimately take a while; everything else is fast.
const callTimeout = 2 * time.Minute

// defaultSocket resolves the control socket path: FORGE_SOCKET if
// set, otherwise the built-in default location.
func defaultSocket() string {
	if path := os.Getenv(socketEnv); path != "" {
		return path
	}
	return config.Default().Daemon.SocketPath
}

// connection carries the --socket flag shared by every command that
// talks to the daemon.
type connection struct {
	socket string
}

func (c *connection) register(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&c.socket, "socket", defaultSocket(),
		"forged control socket path (or set "+socketEnv+")")
}

func (c *connection) client() *rpc.Client {
	return rpc.NewClient(c.socket)
}

// call runs one unary action with the standard CLI timeout.
func (c *connection) call(action string, fields map[string]any, result any) error {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()
	return c.client().Call(ctx, action, fields, result)
}

// streamContext returns a context cancelled by Ctrl-C, for commands
// that follow a stream until the user stops them.
func streamContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// streamClosed reports whether a stream Recv error just means the
// user's interrupt tore the connection down.
func streamClosed(ctx context.Context) bool {
	return ctx.Err() != nil
}
