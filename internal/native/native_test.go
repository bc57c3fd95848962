// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package native

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/spirvcross/internal/testutil"
	"github.com/gogpu/spirvcross/spirv"
)

func newContext(t *testing.T, words []uint32) Handle {
	t.Helper()
	h, err := CreateContext(words)
	require.NoError(t, err)
	t.Cleanup(func() { _ = DestroyContext(h) })
	return h
}

func requireStatus(t *testing.T, err error, status Status, reason Reason) {
	t.Helper()
	require.Error(t, err)
	var nerr *Error
	require.True(t, errors.As(err, &nerr), "want *native.Error, got %T", err)
	assert.Equal(t, status, nerr.Status)
	assert.Equal(t, reason, nerr.Reason)
}

func TestContextLifecycle(t *testing.T) {
	before := LiveContexts()
	h, err := CreateContext(testutil.NewTriangle().Words)
	require.NoError(t, err)
	assert.Equal(t, before+1, LiveContexts())

	require.NoError(t, DestroyContext(h))
	assert.Equal(t, before, LiveContexts())

	requireStatus(t, DestroyContext(h), StatusUnhandled, ReasonUnknownHandle)
	_, err = Name(h, 1)
	requireStatus(t, err, StatusUnhandled, ReasonUnknownHandle)
}

func TestHandlesAreNotReused(t *testing.T) {
	words := testutil.NewTriangle().Words
	h1, err := CreateContext(words)
	require.NoError(t, err)
	require.NoError(t, DestroyContext(h1))

	h2 := newContext(t, words)
	assert.NotEqual(t, h1, h2)
}

func TestCreateContextRejectsMalformedModules(t *testing.T) {
	before := LiveContexts()
	tests := []struct {
		name  string
		words []uint32
	}{
		{"truncated header", []uint32{spirv.MagicNumber, 0x00010000}},
		{"bad magic", []uint32{0xDEADBEEF, 0x00010000, 0, 1, 0}},
		{"instruction past the end", []uint32{spirv.MagicNumber, 0x00010000, 0, 4, 0, 4<<16 | uint32(spirv.OpTypeInt), 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CreateContext(tt.words)
			requireStatus(t, err, StatusCompilationError, ReasonNone)
		})
	}
	assert.Equal(t, before, LiveContexts(), "failed parses leave no context behind")
}

func TestNamesAndDecorations(t *testing.T) {
	fx := testutil.NewTriangle()
	h := newContext(t, fx.Words)

	name, err := Name(h, fx.Globals)
	require.NoError(t, err)
	assert.Equal(t, "globals", name)

	require.NoError(t, SetName(h, fx.Globals, "ubo"))
	name, err = Name(h, fx.Globals)
	require.NoError(t, err)
	assert.Equal(t, "ubo", name)

	require.NoError(t, SetDecoration(h, fx.Texture, spirv.DecorationBinding, 3))
	value, ok, err := Decoration(h, fx.Texture, spirv.DecorationBinding)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint32(3), value)

	require.NoError(t, UnsetDecoration(h, fx.Texture, spirv.DecorationBinding))
	_, ok, err = Decoration(h, fx.Texture, spirv.DecorationBinding)
	require.NoError(t, err, "a missing decoration is not an error")
	assert.False(t, ok)

	const missing = spirv.ID(0xFFFF)
	_, err = Name(h, missing)
	requireStatus(t, err, StatusInvalidID, ReasonNone)
	requireStatus(t, SetName(h, missing, "x"), StatusInvalidID, ReasonNone)
	requireStatus(t, SetDecoration(h, missing, spirv.DecorationBinding, 1), StatusInvalidID, ReasonNone)
	_, _, err = Decoration(h, missing, spirv.DecorationBinding)
	requireStatus(t, err, StatusInvalidID, ReasonNone)
}

func TestMembers(t *testing.T) {
	fx := testutil.NewTriangle()
	h := newContext(t, fx.Words)

	name, err := MemberName(h, fx.GlobalsBlock, 1)
	require.NoError(t, err)
	assert.Equal(t, "weight", name)

	require.NoError(t, SetMemberName(h, fx.GlobalsBlock, 1, "scale"))
	name, err = MemberName(h, fx.GlobalsBlock, 1)
	require.NoError(t, err)
	assert.Equal(t, "scale", name)

	offset, ok, err := MemberDecoration(h, fx.GlobalsBlock, 1, spirv.DecorationOffset)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, uint32(16), offset)

	require.NoError(t, SetMemberDecoration(h, fx.GlobalsBlock, 1, spirv.DecorationOffset, 32))
	size, err := DeclaredStructSize(h, fx.GlobalsBlock)
	require.NoError(t, err)
	assert.Equal(t, uint32(36), size)

	_, err = MemberName(h, fx.GlobalsBlock, 2)
	requireStatus(t, err, StatusInvalidID, ReasonNone)
	_, err = MemberName(h, fx.Vec4, 0)
	requireStatus(t, err, StatusInvalidID, ReasonNone)
	_, err = DeclaredStructSize(h, fx.Vec4)
	requireStatus(t, err, StatusInvalidID, ReasonNone)
}

func TestResources(t *testing.T) {
	fx := testutil.NewTriangle()
	h := newContext(t, fx.Words)

	res, err := Resources(h)
	require.NoError(t, err)
	require.Len(t, res.UniformBuffers, 1)
	assert.Equal(t, fx.Globals, res.UniformBuffers[0].ID)
	require.Len(t, res.SampledImages, 1)
	require.Len(t, res.PushConstantBuffers, 1)

	var names []string
	for _, r := range res.SpecializationConstants {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"SCALE", "ENABLED", "COUNT"}, names)
	assert.Equal(t, fx.Float, res.SpecializationConstants[0].TypeID)
}

func TestType(t *testing.T) {
	fx := testutil.NewTriangle()
	h := newContext(t, fx.Words)

	info, err := Type(h, fx.Vec4)
	require.NoError(t, err)
	assert.Equal(t, BaseFloat, info.Base)
	assert.Equal(t, uint32(32), info.Width)
	assert.Equal(t, uint32(4), info.VectorSize)
	assert.Equal(t, uint32(1), info.Columns)
	assert.False(t, info.Pointer)

	info, err = Type(h, fx.Globals)
	require.NoError(t, err, "variables resolve to their type")
	assert.Equal(t, BaseStruct, info.Base)
	assert.True(t, info.Pointer)
	assert.Equal(t, spirv.StorageClassUniform, info.Storage)
	assert.Equal(t, []spirv.ID{fx.Vec4, fx.Float}, info.Members)

	info, err = Type(h, fx.Texture)
	require.NoError(t, err)
	assert.Equal(t, BaseSampledImage, info.Base)
	assert.Equal(t, spirv.Dim2D, info.Image.Dim)

	cs := testutil.NewCompute()
	hc := newContext(t, cs.Words)
	info, err = Type(hc, cs.DataBlock)
	require.NoError(t, err)
	require.Len(t, info.Members, 1)
	member, err := Type(hc, info.Members[0])
	require.NoError(t, err)
	assert.Equal(t, BaseUint, member.Base)
	assert.Equal(t, []uint32{0}, member.Array, "runtime arrays report length 0")

	_, err = Type(h, fx.VertexMain)
	requireStatus(t, err, StatusInvalidID, ReasonNone)
}

func TestEntryPoints(t *testing.T) {
	fx := testutil.NewTriangle()
	h := newContext(t, fx.Words)

	eps, err := EntryPoints(h)
	require.NoError(t, err)
	assert.Equal(t, []EntryPoint{
		{Name: "main_vs", Model: spirv.ExecutionModelVertex},
		{Name: "main_fs", Model: spirv.ExecutionModelFragment},
	}, eps)

	active, ok, err := ActiveEntryPoint(h)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "main_vs", active.Name)

	require.NoError(t, SetEntryPoint(h, "main_fs", spirv.ExecutionModelFragment))
	active, _, err = ActiveEntryPoint(h)
	require.NoError(t, err)
	assert.Equal(t, "main_fs", active.Name)

	err = SetEntryPoint(h, "main_fs", spirv.ExecutionModelVertex)
	requireStatus(t, err, StatusInvalidID, ReasonEntryPointNotFound)
	active, _, _ = ActiveEntryPoint(h)
	assert.Equal(t, "main_fs", active.Name, "a failed switch keeps the active entry point")

	eps, err = EntryPoints(h)
	require.NoError(t, err)
	assert.Len(t, eps, 2)
}

func TestScalarConstants(t *testing.T) {
	fx := testutil.NewTriangle()
	h := newContext(t, fx.Words)

	scale, err := ScalarConstant(h, fx.Scale)
	require.NoError(t, err)
	assert.Equal(t, Scalar{Kind: spirv.ScalarFloat, Width: 32, Bits: uint64(math.Float32bits(1))}, scale)

	require.NoError(t, SetScalarConstant(h, fx.Scale, Scalar{Kind: spirv.ScalarFloat, Width: 32, Bits: uint64(math.Float32bits(2))}))
	scale, err = ScalarConstant(h, fx.Scale)
	require.NoError(t, err)
	assert.Equal(t, uint64(math.Float32bits(2)), scale.Bits)

	require.NoError(t, SetScalarConstant(h, fx.Enabled, Scalar{Kind: spirv.ScalarBool, Width: 32, Bits: 0}))
	enabled, err := ScalarConstant(h, fx.Enabled)
	require.NoError(t, err)
	assert.Zero(t, enabled.Bits)

	err = SetScalarConstant(h, fx.Count, Scalar{Kind: spirv.ScalarFloat, Width: 32, Bits: 1})
	requireStatus(t, err, StatusCompilationError, ReasonTypeMismatch)
	err = SetScalarConstant(h, fx.Scale, Scalar{Kind: spirv.ScalarFloat, Width: 64, Bits: math.Float64bits(1)})
	requireStatus(t, err, StatusCompilationError, ReasonTypeMismatch)

	err = SetScalarConstant(h, fx.Count, Scalar{Kind: spirv.ScalarInt, Width: 32, Bits: 0x1_0000_0004})
	requireStatus(t, err, StatusCompilationError, ReasonTypeMismatch)
	err = SetScalarConstant(h, fx.Enabled, Scalar{Kind: spirv.ScalarBool, Width: 32, Bits: 2})
	requireStatus(t, err, StatusCompilationError, ReasonTypeMismatch)
	count, err := ScalarConstant(h, fx.Count)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), count.Bits, "values with high bits set are rejected, not truncated")

	err = SetScalarConstant(h, fx.Globals, Scalar{Kind: spirv.ScalarInt, Width: 32})
	requireStatus(t, err, StatusInvalidID, ReasonNone)
	_, err = ScalarConstant(h, fx.Globals)
	requireStatus(t, err, StatusInvalidID, ReasonNone)

	specs, err := SpecializationConstants(h)
	require.NoError(t, err)
	assert.Len(t, specs, 3)
}

func TestContextsAreIndependent(t *testing.T) {
	fx := testutil.NewTriangle()
	a := newContext(t, fx.Words)
	b := newContext(t, fx.Words)

	require.NoError(t, SetName(a, fx.Globals, "renamed"))
	require.NoError(t, SetEntryPoint(a, "main_fs", spirv.ExecutionModelFragment))

	name, err := Name(b, fx.Globals)
	require.NoError(t, err)
	assert.Equal(t, "globals", name)
	active, _, err := ActiveEntryPoint(b)
	require.NoError(t, err)
	assert.Equal(t, "main_vs", active.Name)
}

func TestSetOptionsCopiesInput(t *testing.T) {
	h := newContext(t, testutil.NewTriangle().Words)

	opts := DefaultMSLOptions()
	opts.ResourceBindings = map[MSLBindingLocation]MSLBindTarget{
		{Stage: spirv.ExecutionModelVertex}: {Buffer: 4},
	}
	require.NoError(t, SetOptions(h, opts))
	opts.ResourceBindings[MSLBindingLocation{Stage: spirv.ExecutionModelVertex}] = MSLBindTarget{Buffer: 9}

	require.NoError(t, withContext(h, func(c *compilerContext) error {
		assert.Equal(t, uint32(4), c.options.msl.ResourceBindings[MSLBindingLocation{Stage: spirv.ExecutionModelVertex}].Buffer)
		return nil
	}))

	requireStatus(t, SetOptions(h, nil), StatusUnhandled, ReasonNone)
}

func TestErrorMessage(t *testing.T) {
	err := &Error{Status: StatusInvalidID, Reason: ReasonEntryPointNotFound, Diagnostic: `no Vertex entry point named "x"`}
	assert.Equal(t, `native InvalidID (entry point not found): no Vertex entry point named "x"`, err.Error())
	assert.Equal(t, "native Unhandled", (&Error{Status: StatusUnhandled}).Error())
}
