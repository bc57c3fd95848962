// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package spirvcross

import (
	"errors"
	"fmt"

	"github.com/gogpu/spirvcross/internal/native"
)

// ErrorCode is the closed set of failure kinds. An ErrorCode is itself an
// error, so errors.Is(err, InvalidID) tells whether err is of that kind.
type ErrorCode uint8

const (
	// InvalidModule reports a word buffer that is empty, misaligned or
	// does not start with the SPIR-V magic number. It is returned before
	// the compiler core is involved.
	InvalidModule ErrorCode = iota + 1

	// InvalidID reports an id or entry point this Ast does not declare.
	// The Ast is left unchanged.
	InvalidID

	// CompilationError reports a module the compiler core cannot parse, or
	// options and resource edits the target cannot honor.
	CompilationError

	// Unhandled reports any other failure, including use after Close.
	Unhandled
)

// String returns the error code name.
func (c ErrorCode) String() string {
	switch c {
	case InvalidModule:
		return "InvalidModule"
	case InvalidID:
		return "InvalidID"
	case CompilationError:
		return "CompilationError"
	case Unhandled:
		return "Unhandled"
	default:
		return fmt.Sprintf("ErrorCode(%d)", uint8(c))
	}
}

// Error implements the error interface.
func (c ErrorCode) Error() string {
	return "spirvcross: " + c.String()
}

// Sentinel causes carried by *Error.
var (
	// ErrEntryPointNotFound accompanies InvalidID from SetEntryPoint.
	ErrEntryPointNotFound = errors.New("entry point not found")

	// ErrTypeMismatch accompanies CompilationError from SetScalarConstant
	// when the value does not match the constant's declared type.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrClosed accompanies Unhandled from any operation on a closed Ast.
	ErrClosed = errors.New("ast is closed")
)

// Error is the error type returned by every operation in this package.
type Error struct {
	Code ErrorCode

	// Message names the failed operation and carries the compiler core's
	// diagnostic when it supplied one.
	Message string

	// Err is the underlying cause: one of the sentinels above, or the
	// compiler core's error.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := "spirvcross: " + e.Code.String() + ": " + e.Message
	if e.Err != nil && isSentinel(e.Err) {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the code and the cause, so errors.Is matches either.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Code}
	}
	return []error{e.Code, e.Err}
}

func isSentinel(err error) bool {
	return err == ErrEntryPointNotFound || err == ErrTypeMismatch || err == ErrClosed
}

func newError(code ErrorCode, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// wrap maps a compiler core failure onto the error taxonomy. op names the
// operation for the message.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	var nerr *native.Error
	if !errors.As(err, &nerr) {
		return &Error{Code: Unhandled, Message: op, Err: err}
	}

	e := &Error{Code: Unhandled, Message: op, Err: nerr}
	switch nerr.Status {
	case native.StatusCompilationError:
		e.Code = CompilationError
	case native.StatusInvalidID:
		e.Code = InvalidID
	}
	switch nerr.Reason {
	case native.ReasonEntryPointNotFound:
		e.Err = ErrEntryPointNotFound
	case native.ReasonTypeMismatch:
		e.Err = ErrTypeMismatch
	}
	if nerr.Diagnostic != "" {
		e.Message += ": " + nerr.Diagnostic
	}
	return e
}
