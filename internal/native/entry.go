// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package native

import (
	"fmt"

	"github.com/gogpu/spirvcross/spirv"
)

// EntryPoint is a declared entry point.
type EntryPoint struct {
	Name          string
	Model         spirv.ExecutionModel
	WorkgroupSize [3]uint32
}

func entryPoint(ep *spirv.EntryPoint) EntryPoint {
	return EntryPoint{Name: ep.Name, Model: ep.Model, WorkgroupSize: ep.LocalSize}
}

// EntryPoints lists every entry point in declaration order.
func EntryPoints(h Handle) ([]EntryPoint, error) {
	var out []EntryPoint
	err := withContext(h, func(c *compilerContext) error {
		for _, ep := range c.module.EntryPoints {
			out = append(out, entryPoint(ep))
		}
		return nil
	})
	return out, err
}

// ActiveEntryPoint returns the entry point the next Compile uses. ok is
// false when the module declares none.
func ActiveEntryPoint(h Handle) (ep EntryPoint, ok bool, err error) {
	err = withContext(h, func(c *compilerContext) error {
		if c.active != nil {
			ep, ok = entryPoint(c.active), true
		}
		return nil
	})
	return ep, ok, err
}

// SetEntryPoint selects the entry point compiled by subsequent Compile
// calls. Both the name and the execution model must match.
func SetEntryPoint(h Handle, name string, model spirv.ExecutionModel) error {
	return withContext(h, func(c *compilerContext) error {
		ep, ok := c.module.EntryPoint(name, model)
		if !ok {
			return entryPointNotFound(name, model)
		}
		c.active = ep
		return nil
	})
}

func entryPointNotFound(name string, model spirv.ExecutionModel) error {
	return &Error{
		Status:     StatusInvalidID,
		Reason:     ReasonEntryPointNotFound,
		Diagnostic: fmt.Sprintf("no %s entry point named %q", model, name),
	}
}

// SpecializationConstants lists the scalar specialization constants that
// carry a SpecId.
func SpecializationConstants(h Handle) ([]spirv.SpecializationConstant, error) {
	var out []spirv.SpecializationConstant
	err := withContext(h, func(c *compilerContext) error {
		out = c.module.SpecializationConstants()
		return nil
	})
	return out, err
}

// Scalar is a scalar constant value. Bits holds the value in the low Width
// bits; booleans are 0 or 1.
type Scalar struct {
	Kind  spirv.ScalarKind
	Width uint32
	Bits  uint64
}

// ScalarConstant returns the current value of a scalar constant, regular
// or specialization.
func ScalarConstant(h Handle, id spirv.ID) (Scalar, error) {
	var s Scalar
	err := withContext(h, func(c *compilerContext) error {
		k, ok := c.module.Constants[id]
		if !ok {
			return invalidID("id %d is not a constant", id)
		}
		kind, width, ok := c.module.Scalar(k.Type)
		if !ok {
			return invalidID("constant %d is not a scalar", id)
		}
		s = Scalar{Kind: kind, Width: width}
		if len(k.Value) > 0 {
			s.Bits = uint64(k.Value[0])
		}
		if len(k.Value) > 1 {
			s.Bits |= uint64(k.Value[1]) << 32
		}
		return nil
	})
	return s, err
}

// SetScalarConstant replaces the default value of a scalar specialization
// constant. The value's kind and width must match the declared type, and
// bits above the width must be clear.
func SetScalarConstant(h Handle, id spirv.ID, value Scalar) error {
	return withContext(h, func(c *compilerContext) error {
		k, ok := c.module.Constants[id]
		if !ok || !k.IsSpec() || k.Op == spirv.OpSpecConstantComposite {
			return invalidID("id %d is not a scalar specialization constant", id)
		}
		kind, width, _ := c.module.Scalar(k.Type)
		if kind != value.Kind || width != value.Width {
			return &Error{
				Status:     StatusCompilationError,
				Reason:     ReasonTypeMismatch,
				Diagnostic: fmt.Sprintf("constant %d is %s%d, got %s%d", id, kind, width, value.Kind, value.Width),
			}
		}

		if width < 64 && value.Bits>>width != 0 || kind == spirv.ScalarBool && value.Bits > 1 {
			return &Error{
				Status:     StatusCompilationError,
				Reason:     ReasonTypeMismatch,
				Diagnostic: fmt.Sprintf("constant %d is %s%d, value %#x does not fit", id, kind, width, value.Bits),
			}
		}

		words := []uint32{uint32(value.Bits)}
		if width > 32 {
			words = append(words, uint32(value.Bits>>32))
		}
		if err := c.module.SetSpecConstantValue(id, words); err != nil {
			return compilationError("%v", err)
		}
		return nil
	})
}
