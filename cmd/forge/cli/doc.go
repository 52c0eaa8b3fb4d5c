// Copyright 2026 The Forge Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-line framework for the forge CLI.
//
// The central type is [Command]: a named command with an optional
// [pflag.FlagSet] factory, nested subcommands, and a Run function.
// The tree is assembled in cmd/forge/commands and dispatched through
// [Command.Execute], which handles flag parsing, subcommand routing,
// and help output with examples.
//
// Unknown subcommands and flags get a "did you mean" suggestion based
// on Levenshtein edit distance (threshold: distance <= 3), implemented
// in suggest.go.
package cli
