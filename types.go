// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package spirvcross

import (
	"github.com/gogpu/spirvcross/internal/native"
	"github.com/gogpu/spirvcross/spirv"
)

// BaseType is the fundamental kind of a type.
type BaseType = native.BaseType

// Base types
const (
	BaseUnknown      = native.BaseUnknown
	BaseVoid         = native.BaseVoid
	BaseBool         = native.BaseBool
	BaseInt          = native.BaseInt
	BaseUint         = native.BaseUint
	BaseFloat        = native.BaseFloat
	BaseStruct       = native.BaseStruct
	BaseImage        = native.BaseImage
	BaseSampledImage = native.BaseSampledImage
	BaseSampler      = native.BaseSampler
)

// Type describes a type. Pointers and arrays are folded into Pointer,
// StorageClass and Array; the other fields describe the innermost type.
type Type struct {
	Base  BaseType
	Width uint32

	// VectorSize is the component count of a vector or matrix column and
	// Columns the column count of a matrix. Both are 1 for scalars.
	VectorSize uint32
	Columns    uint32

	// Array holds array lengths, outermost first. Runtime arrays are 0.
	Array []uint32

	// Members holds the member types of a struct.
	Members []ID

	Pointer      bool
	StorageClass spirv.StorageClass

	// Image is set for image and sampled image types.
	Image spirv.ImageFormat
}

// Type describes type id. A variable id describes the variable's type.
func (a *Ast[O]) Type(id ID) (Type, error) {
	var t Type
	err := a.do("type", func(h native.Handle) error {
		info, err := native.Type(h, spirv.ID(id))
		if err != nil {
			return err
		}
		t = Type{
			Base:         info.Base,
			Width:        info.Width,
			VectorSize:   info.VectorSize,
			Columns:      info.Columns,
			Array:        info.Array,
			Pointer:      info.Pointer,
			StorageClass: info.Storage,
			Image:        info.Image,
		}
		for _, m := range info.Members {
			t.Members = append(t.Members, ID(m))
		}
		return nil
	})
	return t, err
}

// DeclaredStructSize returns the byte size of struct type id computed
// from its Offset, ArrayStride and MatrixStride decorations. A trailing
// runtime array contributes nothing.
func (a *Ast[O]) DeclaredStructSize(id ID) (uint32, error) {
	var size uint32
	err := a.do("declared struct size", func(h native.Handle) error {
		var err error
		size, err = native.DeclaredStructSize(h, spirv.ID(id))
		return err
	})
	return size, err
}
