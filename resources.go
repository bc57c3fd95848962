// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package spirvcross

import (
	"github.com/gogpu/spirvcross/internal/native"
	"github.com/gogpu/spirvcross/spirv"
)

// ID identifies a declared object of a parsed module: a variable, type,
// constant or function. IDs are only meaningful to the Ast that returned
// them.
type ID uint32

// Decoration is a SPIR-V decoration kind. The full set is defined in the
// spirv package.
type Decoration = spirv.Decoration

// Common decorations.
const (
	DecorationSpecID        = spirv.DecorationSpecID
	DecorationBlock         = spirv.DecorationBlock
	DecorationBuiltIn       = spirv.DecorationBuiltIn
	DecorationNonWritable   = spirv.DecorationNonWritable
	DecorationLocation      = spirv.DecorationLocation
	DecorationBinding       = spirv.DecorationBinding
	DecorationDescriptorSet = spirv.DecorationDescriptorSet
	DecorationOffset        = spirv.DecorationOffset
)

// Resource is a shader-visible object as seen by reflection.
type Resource struct {
	ID ID

	// TypeID is the type of the variable; for buffers and images it is
	// a pointer type. BaseTypeID is the pointee.
	TypeID     ID
	BaseTypeID ID

	Name string
}

// ShaderResources partitions the module's resources. Every slice is in
// declaration order.
type ShaderResources struct {
	UniformBuffers          []Resource
	StorageBuffers          []Resource
	StageInputs             []Resource
	StageOutputs            []Resource
	SampledImages           []Resource
	StorageImages           []Resource
	PushConstantBuffers     []Resource
	SpecializationConstants []Resource
	SeparateImages          []Resource
	SeparateSamplers        []Resource
	BuiltinInputs           []Resource
	BuiltinOutputs          []Resource
}

func resources(in []spirv.Resource) []Resource {
	if len(in) == 0 {
		return nil
	}
	out := make([]Resource, len(in))
	for i, r := range in {
		out[i] = Resource{ID: ID(r.ID), TypeID: ID(r.TypeID), BaseTypeID: ID(r.BaseTypeID), Name: r.Name}
	}
	return out
}

// ShaderResources returns the module's resources with their current names.
func (a *Ast[O]) ShaderResources() (ShaderResources, error) {
	var res ShaderResources
	err := a.do("shader resources", func(h native.Handle) error {
		r, err := native.Resources(h)
		if err != nil {
			return err
		}
		res = ShaderResources{
			UniformBuffers:          resources(r.UniformBuffers),
			StorageBuffers:          resources(r.StorageBuffers),
			StageInputs:             resources(r.StageInputs),
			StageOutputs:            resources(r.StageOutputs),
			SampledImages:           resources(r.SampledImages),
			StorageImages:           resources(r.StorageImages),
			PushConstantBuffers:     resources(r.PushConstantBuffers),
			SpecializationConstants: resources(r.SpecializationConstants),
			SeparateImages:          resources(r.SeparateImages),
			SeparateSamplers:        resources(r.SeparateSamplers),
			BuiltinInputs:           resources(r.BuiltinInputs),
			BuiltinOutputs:          resources(r.BuiltinOutputs),
		}
		return nil
	})
	return res, err
}

// Name returns the debug name of id, empty when it has none.
func (a *Ast[O]) Name(id ID) (string, error) {
	var name string
	err := a.do("name", func(h native.Handle) error {
		var err error
		name, err = native.Name(h, spirv.ID(id))
		return err
	})
	return name, err
}

// SetName renames id. The new name shows up in reflection and in the
// compiled output.
func (a *Ast[O]) SetName(id ID, name string) error {
	return a.do("set name", func(h native.Handle) error {
		return native.SetName(h, spirv.ID(id), name)
	})
}

// Decoration returns the value of decoration d on id. ok is false when id
// is not decorated with d; that is not an error. Flag decorations report 1.
func (a *Ast[O]) Decoration(id ID, d Decoration) (value uint32, ok bool, err error) {
	err = a.do("decoration", func(h native.Handle) error {
		var err error
		value, ok, err = native.Decoration(h, spirv.ID(id), d)
		return err
	})
	return value, ok, err
}

// SetDecoration sets decoration d on id, replacing any previous value.
// The value is checked by Compile, not here.
func (a *Ast[O]) SetDecoration(id ID, d Decoration, value uint32) error {
	return a.do("set decoration", func(h native.Handle) error {
		return native.SetDecoration(h, spirv.ID(id), d, value)
	})
}

// UnsetDecoration removes decoration d from id.
func (a *Ast[O]) UnsetDecoration(id ID, d Decoration) error {
	return a.do("unset decoration", func(h native.Handle) error {
		return native.UnsetDecoration(h, spirv.ID(id), d)
	})
}

// MemberName returns the name of member index of struct type id.
func (a *Ast[O]) MemberName(id ID, index uint32) (string, error) {
	var name string
	err := a.do("member name", func(h native.Handle) error {
		var err error
		name, err = native.MemberName(h, spirv.ID(id), index)
		return err
	})
	return name, err
}

// SetMemberName renames member index of struct type id.
func (a *Ast[O]) SetMemberName(id ID, index uint32, name string) error {
	return a.do("set member name", func(h native.Handle) error {
		return native.SetMemberName(h, spirv.ID(id), index, name)
	})
}

// MemberDecoration returns the value of decoration d on member index of
// struct type id.
func (a *Ast[O]) MemberDecoration(id ID, index uint32, d Decoration) (value uint32, ok bool, err error) {
	err = a.do("member decoration", func(h native.Handle) error {
		var err error
		value, ok, err = native.MemberDecoration(h, spirv.ID(id), index, d)
		return err
	})
	return value, ok, err
}

// SetMemberDecoration sets decoration d on member index of struct type id.
func (a *Ast[O]) SetMemberDecoration(id ID, index uint32, d Decoration, value uint32) error {
	return a.do("set member decoration", func(h native.Handle) error {
		return native.SetMemberDecoration(h, spirv.ID(id), index, d, value)
	})
}
