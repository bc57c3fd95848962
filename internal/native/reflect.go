// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package native

import (
	"github.com/gogpu/spirvcross/spirv"
)

// ShaderResources is the reflection table of a context.
type ShaderResources struct {
	spirv.Resources

	// SpecializationConstants lists specialization constants in
	// declaration order. TypeID and BaseTypeID are the constant's scalar
	// type.
	SpecializationConstants []spirv.Resource
}

// Resources returns the current reflection table. Names reflect SetName
// calls made so far.
func Resources(h Handle) (ShaderResources, error) {
	var res ShaderResources
	err := withContext(h, func(c *compilerContext) error {
		res.Resources = c.module.Resources()
		for _, sc := range c.module.SpecializationConstants() {
			typ := c.module.Constants[sc.ID].Type
			res.SpecializationConstants = append(res.SpecializationConstants, spirv.Resource{
				ID: sc.ID, TypeID: typ, BaseTypeID: typ, Name: c.module.Name(sc.ID),
			})
		}
		return nil
	})
	return res, err
}

// Name returns the debug name of id, empty when it has none.
func Name(h Handle, id spirv.ID) (string, error) {
	var name string
	err := withContext(h, func(c *compilerContext) error {
		if err := c.requireID(id); err != nil {
			return err
		}
		name = c.module.Name(id)
		return nil
	})
	return name, err
}

// SetName renames id.
func SetName(h Handle, id spirv.ID, name string) error {
	return withContext(h, func(c *compilerContext) error {
		if err := c.requireID(id); err != nil {
			return err
		}
		c.module.SetName(id, name)
		return nil
	})
}

// MemberName returns the name of a struct member.
func MemberName(h Handle, structID spirv.ID, member uint32) (string, error) {
	var name string
	err := withContext(h, func(c *compilerContext) error {
		if err := c.requireMember(structID, member); err != nil {
			return err
		}
		name = c.module.MemberName(structID, member)
		return nil
	})
	return name, err
}

// SetMemberName renames a struct member.
func SetMemberName(h Handle, structID spirv.ID, member uint32, name string) error {
	return withContext(h, func(c *compilerContext) error {
		if err := c.requireMember(structID, member); err != nil {
			return err
		}
		c.module.SetMemberName(structID, member, name)
		return nil
	})
}

// Decoration returns the first operand of decoration d on id. ok is false
// when id exists but is not decorated with d.
func Decoration(h Handle, id spirv.ID, d spirv.Decoration) (value uint32, ok bool, err error) {
	err = withContext(h, func(c *compilerContext) error {
		if err := c.requireID(id); err != nil {
			return err
		}
		value, ok = c.module.Decoration(id, d)
		return nil
	})
	return value, ok, err
}

// SetDecoration sets decoration d on id. Values are not checked here.
func SetDecoration(h Handle, id spirv.ID, d spirv.Decoration, value uint32) error {
	return withContext(h, func(c *compilerContext) error {
		if err := c.requireID(id); err != nil {
			return err
		}
		c.module.SetDecoration(id, d, value)
		return nil
	})
}

// UnsetDecoration removes decoration d from id. Removing an absent
// decoration is not an error.
func UnsetDecoration(h Handle, id spirv.ID, d spirv.Decoration) error {
	return withContext(h, func(c *compilerContext) error {
		if err := c.requireID(id); err != nil {
			return err
		}
		c.module.UnsetDecoration(id, d)
		return nil
	})
}

// MemberDecoration returns the first operand of decoration d on a struct
// member.
func MemberDecoration(h Handle, structID spirv.ID, member uint32, d spirv.Decoration) (value uint32, ok bool, err error) {
	err = withContext(h, func(c *compilerContext) error {
		if err := c.requireMember(structID, member); err != nil {
			return err
		}
		value, ok = c.module.MemberDecoration(structID, member, d)
		return nil
	})
	return value, ok, err
}

// SetMemberDecoration sets decoration d on a struct member.
func SetMemberDecoration(h Handle, structID spirv.ID, member uint32, d spirv.Decoration, value uint32) error {
	return withContext(h, func(c *compilerContext) error {
		if err := c.requireMember(structID, member); err != nil {
			return err
		}
		c.module.SetMemberDecoration(structID, member, d, value)
		return nil
	})
}

// BaseType is the fundamental kind of a type after pointers and arrays are
// peeled off.
type BaseType uint8

const (
	BaseUnknown BaseType = iota
	BaseVoid
	BaseBool
	BaseInt
	BaseUint
	BaseFloat
	BaseStruct
	BaseImage
	BaseSampledImage
	BaseSampler
)

// TypeInfo describes a type. Pointer and array wrappers are folded into
// the Pointer, Storage and Array fields; every other field describes the
// innermost type.
type TypeInfo struct {
	Base  BaseType
	Width uint32

	// VectorSize is the component count of vectors and matrix columns,
	// Columns the column count of matrices. Both are 1 for scalars.
	VectorSize uint32
	Columns    uint32

	// Array lists array lengths outermost first. Runtime arrays have
	// length 0.
	Array []uint32

	Members []spirv.ID
	Pointer bool
	Storage spirv.StorageClass
	Image   spirv.ImageFormat
}

// Type describes the type id. Variables are resolved to their pointer
// type first.
func Type(h Handle, id spirv.ID) (TypeInfo, error) {
	var info TypeInfo
	err := withContext(h, func(c *compilerContext) error {
		if v, ok := c.module.Variable(id); ok {
			id = v.Type
		}
		t := c.module.Types[id]
		if t == nil {
			return invalidID("id %d is not a type", id)
		}
		info = c.typeInfo(t)
		return nil
	})
	return info, err
}

func (c *compilerContext) typeInfo(t *spirv.Type) TypeInfo {
	info := TypeInfo{VectorSize: 1, Columns: 1}
peel:
	for t != nil {
		switch t.Op {
		case spirv.OpTypePointer:
			info.Pointer = true
			info.Storage = t.Storage
			t = c.module.Types[t.Pointee]
		case spirv.OpTypeArray:
			var n uint32
			if k, ok := c.module.Constants[t.Length]; ok && len(k.Value) > 0 {
				n = k.Value[0]
			}
			info.Array = append(info.Array, n)
			t = c.module.Types[t.Element]
		case spirv.OpTypeRuntimeArray:
			info.Array = append(info.Array, 0)
			t = c.module.Types[t.Element]
		default:
			break peel
		}
	}
	if t == nil {
		return info
	}

	switch t.Op {
	case spirv.OpTypeMatrix:
		info.Columns = t.Count
		if col := c.module.Types[t.Component]; col != nil {
			info.VectorSize = col.Count
			t = c.module.Types[col.Component]
		}
	case spirv.OpTypeVector:
		info.VectorSize = t.Count
		t = c.module.Types[t.Component]
	}
	if t == nil {
		return info
	}

	switch t.Op {
	case spirv.OpTypeVoid:
		info.Base = BaseVoid
	case spirv.OpTypeBool:
		info.Base, info.Width = BaseBool, 32
	case spirv.OpTypeInt:
		info.Base, info.Width = BaseUint, t.Width
		if t.Signed {
			info.Base = BaseInt
		}
	case spirv.OpTypeFloat:
		info.Base, info.Width = BaseFloat, t.Width
	case spirv.OpTypeStruct:
		info.Base = BaseStruct
		info.Members = append([]spirv.ID(nil), t.Members...)
	case spirv.OpTypeImage:
		info.Base = BaseImage
		info.Image = t.Image
	case spirv.OpTypeSampledImage:
		info.Base = BaseSampledImage
		if img := c.module.Types[t.Element]; img != nil {
			info.Image = img.Image
		}
	case spirv.OpTypeSampler:
		info.Base = BaseSampler
	}
	return info
}

// DeclaredStructSize returns the byte size of a struct type from its
// layout decorations.
func DeclaredStructSize(h Handle, id spirv.ID) (uint32, error) {
	var size uint32
	err := withContext(h, func(c *compilerContext) error {
		t := c.module.Types[id]
		if t == nil || t.Op != spirv.OpTypeStruct {
			return invalidID("id %d is not a struct type", id)
		}
		var err error
		size, err = c.module.DeclaredStructSize(id)
		if err != nil {
			return compilationError("%v", err)
		}
		return nil
	})
	return size, err
}
