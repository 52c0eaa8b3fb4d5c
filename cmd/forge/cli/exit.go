// Copyright 2026 The Forge Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import "fmt"

// ExitError signals a non-zero exit code without printing an extra
// error message. A command that returns an ExitError has already
// written its own output; main exits with the code and stays quiet.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode returns the exit code. Main checks for this interface on
// returned errors to distinguish a handled non-zero exit from an
// unexpected error that needs displaying.
func (e *ExitError) ExitCode() int {
	return e.Code
}
