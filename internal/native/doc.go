// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package native is the compiler core behind spirvcross.
//
// It exposes a handle-based surface: CreateContext parses a SPIR-V module
// into a context reachable only through an opaque Handle, reflection and
// option calls read or edit that context, Compile lowers the active entry
// point to naga IR and runs the naga back-end for the requested target, and
// DestroyContext releases it. Every call returns a *Error on failure.
//
// Contexts are independent: each owns a private copy of the parsed module.
// Calls on one handle are serialized by a per-context mutex.
package native
