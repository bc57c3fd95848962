// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package spirvcross

import (
	"runtime"
	"sync"

	"github.com/gogpu/spirvcross/internal/native"
)

// Target is an output shading language.
type Target = native.Target

// Targets
const (
	TargetHLSL = native.TargetHLSL
	TargetMSL  = native.TargetMSL
	TargetGLSL = native.TargetGLSL
)

// TargetOptions is the closed set of per-target option types. The target
// an Ast compiles to is fixed by its options type.
type TargetOptions interface {
	HLSLOptions | MSLOptions | GLSLOptions

	target() Target
	toNative() native.CompilerOptions
	clone() any
}

// Ast owns one compiler context parsed from a Module, together with the
// options of target O. Edits made through an Ast are private to it: two
// Asts parsed from the same Module never observe each other.
//
// Methods are serialized by an internal mutex. Close releases the context;
// every later call fails with Unhandled wrapping ErrClosed. An Ast that
// becomes unreachable without being closed is released by the garbage
// collector.
type Ast[O TargetOptions] struct {
	mu      sync.Mutex
	handle  native.Handle
	closed  bool
	options O
	cleanup runtime.Cleanup
}

// HLSLAst compiles to HLSL.
type HLSLAst = Ast[HLSLOptions]

// MSLAst compiles to the Metal Shading Language.
type MSLAst = Ast[MSLOptions]

// GLSLAst compiles to GLSL.
type GLSLAst = Ast[GLSLOptions]

// Parse creates a compiler context for m. The Ast starts with the default
// options of O and the module's first entry point active.
//
// A module the compiler core cannot parse fails with CompilationError; no
// context is left behind.
func Parse[O TargetOptions](m *Module) (*Ast[O], error) {
	if m == nil || len(m.words) == 0 {
		return nil, newError(InvalidModule, "parse: no module")
	}
	h, err := native.CreateContext(m.words)
	if err != nil {
		return nil, wrap("parse", err)
	}

	opts := defaultOptions[O]()
	if err := native.SetOptions(h, opts.toNative()); err != nil {
		_ = native.DestroyContext(h)
		return nil, wrap("parse", err)
	}

	a := &Ast[O]{handle: h, options: opts}
	a.cleanup = runtime.AddCleanup(a, releaseUnclosed, h)
	Logger().Debug("spirvcross: parsed module", "target", opts.target().String(), "words", len(m.words))
	return a, nil
}

func releaseUnclosed(h native.Handle) {
	if err := native.DestroyContext(h); err == nil {
		Logger().Warn("spirvcross: Ast was not closed; released by the garbage collector", "handle", uint64(h))
	}
}

func defaultOptions[O TargetOptions]() O {
	var o O
	switch p := any(&o).(type) {
	case *HLSLOptions:
		*p = DefaultHLSLOptions()
	case *MSLOptions:
		*p = DefaultMSLOptions()
	case *GLSLOptions:
		*p = DefaultGLSLOptions()
	}
	return o
}

// Close releases the compiler context. It is safe to call more than once;
// only the first call releases anything.
func (a *Ast[O]) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return nil
	}
	a.closed = true
	a.cleanup.Stop()
	return wrap("close", native.DestroyContext(a.handle))
}

// do runs fn against the context unless the Ast is closed, mapping its
// failure onto the error taxonomy.
func (a *Ast[O]) do(op string, fn func(h native.Handle) error) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return &Error{Code: Unhandled, Message: op, Err: ErrClosed}
	}
	return wrap(op, fn(a.handle))
}

// Target returns the language this Ast compiles to.
func (a *Ast[O]) Target() Target {
	var o O
	return o.target()
}

// Compile translates the active entry point into source text for the
// target. It reads the Ast without changing it: compiling twice with no
// edit in between returns identical text, and reflection afterwards
// reports the same state as before.
//
// Infeasible options or resource edits fail with CompilationError.
func (a *Ast[O]) Compile() (string, error) {
	var out string
	err := a.do("compile", func(h native.Handle) error {
		var err error
		out, err = native.Compile(h, a.options.target())
		return err
	})
	return out, err
}

// SetCompilerOptions replaces the options wholesale. Values are validated
// by Compile, not here.
func (a *Ast[O]) SetCompilerOptions(opts O) error {
	return a.do("set compiler options", func(h native.Handle) error {
		if err := native.SetOptions(h, opts.toNative()); err != nil {
			return err
		}
		a.options = opts.clone().(O)
		return nil
	})
}

// CompilerOptions returns a copy of the current options.
func (a *Ast[O]) CompilerOptions() O {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.options.clone().(O)
}

// updateOptions edits a copy of the options and applies it.
func (a *Ast[O]) updateOptions(op string, edit func(o *O)) error {
	return a.do(op, func(h native.Handle) error {
		next := a.options.clone().(O)
		edit(&next)
		if err := native.SetOptions(h, next.toNative()); err != nil {
			return err
		}
		a.options = next
		return nil
	})
}
