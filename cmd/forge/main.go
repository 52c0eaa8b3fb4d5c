// Copyright 2026 The Forge Authors
// SPDX-License-Identifier: Apache-2.0

// Forge is the command-line client for the forged orchestration
// daemon. See cmd/forge/commands for the command tree.
package main

import (
	"fmt"
	"os"

	"github.com/forge-foundation/forge/cmd/forge/commands"
)

func main() {
	if err := run(); err != nil {
		// Commands that print their own output return an ExitError
		// with the desired code; don't add a redundant "error:" line.
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	return commands.Root().Execute(os.Args[1:])
}
