// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package native

import "fmt"

// Status is the failure signal returned by every native operation.
type Status uint8

const (
	// StatusCompilationError reports a semantic failure while parsing or
	// compiling: a malformed stream, an unsupported construct, or options
	// the selected target cannot honor.
	StatusCompilationError Status = iota + 1

	// StatusInvalidID reports an id or entry point the context does not
	// declare.
	StatusInvalidID

	// StatusUnhandled reports a failure with no specific classification:
	// unknown handles, back-end panics, or empty output.
	StatusUnhandled
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusCompilationError:
		return "CompilationError"
	case StatusInvalidID:
		return "InvalidID"
	case StatusUnhandled:
		return "Unhandled"
	default:
		return fmt.Sprintf("Status(%d)", uint8(s))
	}
}

// Reason refines a Status where callers need to tell failures apart.
type Reason uint8

const (
	ReasonNone Reason = iota
	ReasonEntryPointNotFound
	ReasonTypeMismatch
	ReasonUnknownHandle
	ReasonPanic
	ReasonEmptyOutput
)

// String returns a short description of the reason.
func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return ""
	case ReasonEntryPointNotFound:
		return "entry point not found"
	case ReasonTypeMismatch:
		return "type mismatch"
	case ReasonUnknownHandle:
		return "unknown context handle"
	case ReasonPanic:
		return "back-end panic"
	case ReasonEmptyOutput:
		return "empty output"
	default:
		return fmt.Sprintf("Reason(%d)", uint8(r))
	}
}

// Error is returned by every native operation on failure.
type Error struct {
	Status Status
	Reason Reason

	// Diagnostic is the human-readable message, empty when the failing
	// stage supplied none.
	Diagnostic string
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := "native " + e.Status.String()
	if e.Reason != ReasonNone {
		msg += " (" + e.Reason.String() + ")"
	}
	if e.Diagnostic != "" {
		msg += ": " + e.Diagnostic
	}
	return msg
}

func compilationError(format string, args ...any) *Error {
	return &Error{Status: StatusCompilationError, Diagnostic: fmt.Sprintf(format, args...)}
}

func invalidID(format string, args ...any) *Error {
	return &Error{Status: StatusInvalidID, Diagnostic: fmt.Sprintf(format, args...)}
}

func unhandled(reason Reason, format string, args ...any) *Error {
	return &Error{Status: StatusUnhandled, Reason: reason, Diagnostic: fmt.Sprintf(format, args...)}
}
