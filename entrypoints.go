// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package spirvcross

import (
	"github.com/gogpu/spirvcross/internal/native"
	"github.com/gogpu/spirvcross/spirv"
)

// ExecutionModel is the pipeline stage of an entry point.
type ExecutionModel = spirv.ExecutionModel

// Execution models
const (
	Vertex                 = spirv.ExecutionModelVertex
	TessellationControl    = spirv.ExecutionModelTessellationControl
	TessellationEvaluation = spirv.ExecutionModelTessellationEvaluation
	Geometry               = spirv.ExecutionModelGeometry
	Fragment               = spirv.ExecutionModelFragment
	GLCompute              = spirv.ExecutionModelGLCompute
)

// EntryPoint is a named shader stage function.
type EntryPoint struct {
	Name           string
	ExecutionModel ExecutionModel

	// WorkgroupSize is the LocalSize of compute entry points.
	WorkgroupSize [3]uint32
}

func entryPoint(ep native.EntryPoint) EntryPoint {
	return EntryPoint{Name: ep.Name, ExecutionModel: ep.Model, WorkgroupSize: ep.WorkgroupSize}
}

// EntryPoints lists every entry point in declaration order, whichever is
// active.
func (a *Ast[O]) EntryPoints() ([]EntryPoint, error) {
	var out []EntryPoint
	err := a.do("entry points", func(h native.Handle) error {
		eps, err := native.EntryPoints(h)
		for _, ep := range eps {
			out = append(out, entryPoint(ep))
		}
		return err
	})
	return out, err
}

// ActiveEntryPoint returns the entry point Compile translates. ok is false
// for a module without entry points.
func (a *Ast[O]) ActiveEntryPoint() (ep EntryPoint, ok bool, err error) {
	err = a.do("active entry point", func(h native.Handle) error {
		nep, found, err := native.ActiveEntryPoint(h)
		ep, ok = entryPoint(nep), found
		return err
	})
	return ep, ok, err
}

// SetEntryPoint makes the entry point with the given name and execution
// model active. It fails with InvalidID wrapping ErrEntryPointNotFound when
// no such entry point exists, leaving the active one unchanged.
func (a *Ast[O]) SetEntryPoint(name string, model ExecutionModel) error {
	return a.do("set entry point", func(h native.Handle) error {
		return native.SetEntryPoint(h, name, model)
	})
}
