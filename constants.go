// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package spirvcross

import (
	"math"

	"github.com/gogpu/spirvcross/internal/native"
	"github.com/gogpu/spirvcross/spirv"
)

// ScalarKind classifies a scalar type.
type ScalarKind = spirv.ScalarKind

// Scalar kinds
const (
	ScalarBool  = spirv.ScalarBool
	ScalarInt   = spirv.ScalarInt
	ScalarUint  = spirv.ScalarUint
	ScalarFloat = spirv.ScalarFloat
)

// ScalarValue is a typed scalar. Bits holds the value in its low Width
// bits, two's complement for integers and IEEE 754 for floats. Booleans
// have width 32 and bits 0 or 1.
type ScalarValue struct {
	Kind  ScalarKind
	Width uint32
	Bits  uint64
}

// Bool returns a boolean value.
func Bool(v bool) ScalarValue {
	s := ScalarValue{Kind: ScalarBool, Width: 32}
	if v {
		s.Bits = 1
	}
	return s
}

// Int32 returns a 32-bit signed integer value.
func Int32(v int32) ScalarValue {
	return ScalarValue{Kind: ScalarInt, Width: 32, Bits: uint64(uint32(v))}
}

// Uint32 returns a 32-bit unsigned integer value.
func Uint32(v uint32) ScalarValue {
	return ScalarValue{Kind: ScalarUint, Width: 32, Bits: uint64(v)}
}

// Int64 returns a 64-bit signed integer value.
func Int64(v int64) ScalarValue {
	return ScalarValue{Kind: ScalarInt, Width: 64, Bits: uint64(v)}
}

// Uint64 returns a 64-bit unsigned integer value.
func Uint64(v uint64) ScalarValue {
	return ScalarValue{Kind: ScalarUint, Width: 64, Bits: v}
}

// Float32 returns a single precision value.
func Float32(v float32) ScalarValue {
	return ScalarValue{Kind: ScalarFloat, Width: 32, Bits: uint64(math.Float32bits(v))}
}

// Float64 returns a double precision value.
func Float64(v float64) ScalarValue {
	return ScalarValue{Kind: ScalarFloat, Width: 64, Bits: math.Float64bits(v)}
}

// Bool reports the value as a boolean.
func (s ScalarValue) Bool() bool { return s.Bits != 0 }

// Int returns the value sign-extended from its width.
func (s ScalarValue) Int() int64 {
	if s.Width == 32 {
		return int64(int32(uint32(s.Bits)))
	}
	return int64(s.Bits)
}

// Uint returns the value zero-extended from its width.
func (s ScalarValue) Uint() uint64 {
	if s.Width == 32 {
		return uint64(uint32(s.Bits))
	}
	return s.Bits
}

// Float returns the value of a float constant.
func (s ScalarValue) Float() float64 {
	if s.Width == 32 {
		return float64(math.Float32frombits(uint32(s.Bits)))
	}
	return math.Float64frombits(s.Bits)
}

// SpecializationConstant is a scalar specialization constant and its
// SpecId.
type SpecializationConstant struct {
	ID     ID
	SpecID uint32
}

// SpecializationConstants lists the scalar specialization constants that
// carry a SpecId, in declaration order.
func (a *Ast[O]) SpecializationConstants() ([]SpecializationConstant, error) {
	var out []SpecializationConstant
	err := a.do("specialization constants", func(h native.Handle) error {
		consts, err := native.SpecializationConstants(h)
		for _, c := range consts {
			out = append(out, SpecializationConstant{ID: ID(c.ID), SpecID: c.SpecID})
		}
		return err
	})
	return out, err
}

// ScalarConstant returns the current value of scalar constant id. It works
// for regular and specialization constants.
func (a *Ast[O]) ScalarConstant(id ID) (ScalarValue, error) {
	var v ScalarValue
	err := a.do("scalar constant", func(h native.Handle) error {
		s, err := native.ScalarConstant(h, spirv.ID(id))
		v = ScalarValue(s)
		return err
	})
	return v, err
}

// SetScalarConstant replaces the default value of specialization constant
// id. It fails with InvalidID when id is not a scalar specialization
// constant, and with CompilationError wrapping ErrTypeMismatch when the
// value's kind or width differs from the declared type or when Bits has
// bits set above Width.
func (a *Ast[O]) SetScalarConstant(id ID, value ScalarValue) error {
	return a.do("set scalar constant", func(h native.Handle) error {
		return native.SetScalarConstant(h, spirv.ID(id), native.Scalar(value))
	})
}
