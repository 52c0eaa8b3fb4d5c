// Copyright 2026 The Forge Authors
// SPDX-License-Identifier: Apache-2.0

package rpc

import "fmt"

// Code classifies a call failure for programmatic handling. Codes are
// part of the wire protocol: clients branch on them, so values are
// stable strings rather than numbers.
type Code string

const (
	// CodeInvalidArgument: the request is malformed or missing a
	// required field. Retrying without changing the request is useless.
	CodeInvalidArgument Code = "invalid_argument"

	// CodeNotFound: the referenced agent (or other resource) does not
	// exist.
	CodeNotFound Code = "not_found"

	// CodeAlreadyExists: the resource being created already exists.
	CodeAlreadyExists Code = "already_exists"

	// CodeInternal: the daemon hit an unexpected failure (tmux command
	// error, encoding failure). The request itself may be fine.
	CodeInternal Code = "internal"
)

// Error is a call failure with a protocol code. Handlers return
// *Error (usually via the constructor helpers) when they want a code
// other than internal; the server maps any non-*Error to CodeInternal.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Errorf builds an *Error with the given code and formatted message.
func Errorf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// InvalidArgumentf builds a CodeInvalidArgument error.
func InvalidArgumentf(format string, args ...any) *Error {
	return Errorf(CodeInvalidArgument, format, args...)
}

// NotFoundf builds a CodeNotFound error.
func NotFoundf(format string, args ...any) *Error {
	return Errorf(CodeNotFound, format, args...)
}

// AlreadyExistsf builds a CodeAlreadyExists error.
func AlreadyExistsf(format string, args ...any) *Error {
	return Errorf(CodeAlreadyExists, format, args...)
}

// Internalf builds a CodeInternal error.
func Internalf(format string, args ...any) *Error {
	return Errorf(CodeInternal, format, args...)
}
