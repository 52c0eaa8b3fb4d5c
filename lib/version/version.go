// Copyright 2026 The Forge Authors
// SPDX-License-Identifier: Apache-2.0

// Package version carries build metadata for the forged daemon and the
// forge CLI. Release builds stamp the variables with -ldflags:
//
//	go build -ldflags "\
//	    -X github.com/forge-foundation/forge/lib/version.Version=0.2.0 \
//	    -X github.com/forge-foundation/forge/lib/version.GitCommit=$(git rev-parse --short HEAD) \
//	    -X github.com/forge-foundation/forge/lib/version.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)" \
//	    ./cmd/forged ./cmd/forge
//
// An unstamped binary reports the -dev version with commit "unknown",
// which is what `forge version` shows for a plain `go build`.
package version

import (
	"fmt"
	"runtime"
)

var (
	// Version is the release version. Stamped for releases; the -dev
	// default marks local builds.
	Version = "0.1.0-dev"

	// GitCommit is the short commit SHA the binary was built from.
	GitCommit = "unknown"

	// GitDirty is "true" when the build tree had uncommitted changes.
	GitDirty = "false"

	// BuildTime is the UTC build timestamp.
	BuildTime = "unknown"
)

// Info returns the one-line form used by `forged --version` and the
// daemon's startup log: version, commit, and build time.
func Info() string {
	dirty := ""
	if GitDirty == "true" {
		dirty = "-dirty"
	}
	return fmt.Sprintf("%s (%s%s, %s)", Version, GitCommit, dirty, BuildTime)
}

// Full returns Info plus the Go toolchain and platform, for
// `forge version` output.
func Full() string {
	return fmt.Sprintf("%s\n  Go: %s\n  Platform: %s/%s",
		Info(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// Short returns just the version number; the status action reports
// this so clients can compare daemon versions cheaply.
func Short() string {
	return Version
}

// Commit returns the git commit SHA.
func Commit() string {
	return GitCommit
}
