// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package spirvcross_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/spirvcross"
	"github.com/gogpu/spirvcross/internal/testutil"
)

func TestDefaultOptions(t *testing.T) {
	words := testutil.NewTriangle().Words

	h := parse[spirvcross.HLSLOptions](t, words)
	assert.Equal(t, spirvcross.DefaultHLSLOptions(), h.CompilerOptions())
	assert.Equal(t, spirvcross.ShaderModel51, h.CompilerOptions().ShaderModel)
	assert.Equal(t, "5.1", spirvcross.ShaderModel51.String())

	m := parse[spirvcross.MSLOptions](t, words)
	assert.Equal(t, spirvcross.MSLVersion21, m.CompilerOptions().Version)
	assert.Equal(t, spirvcross.MSLPlatformMacOS, m.CompilerOptions().Platform)

	g := parse[spirvcross.GLSLOptions](t, words)
	assert.Equal(t, uint32(450), g.CompilerOptions().Version)
	assert.False(t, g.CompilerOptions().ES)
}

func TestOptionsAreValidatedAtCompile(t *testing.T) {
	words := testutil.NewTriangle().Words

	t.Run("hlsl", func(t *testing.T) {
		a := parse[spirvcross.HLSLOptions](t, words)
		require.NoError(t, a.SetCompilerOptions(spirvcross.HLSLOptions{ShaderModel: spirvcross.ShaderModel30}),
			"unsupported models are accepted at set time")
		_, err := a.Compile()
		requireCode(t, err, spirvcross.CompilationError)

		require.NoError(t, a.SetCompilerOptions(spirvcross.HLSLOptions{ShaderModel: spirvcross.ShaderModel60}))
		_, err = a.Compile()
		require.NoError(t, err)
	})

	t.Run("msl", func(t *testing.T) {
		a := parse[spirvcross.MSLOptions](t, words)
		require.NoError(t, a.SetCompilerOptions(spirvcross.MSLOptions{Version: spirvcross.MSLVersion{Major: 1, Minor: 0}}))
		_, err := a.Compile()
		requireCode(t, err, spirvcross.CompilationError)

		require.NoError(t, a.SetCompilerOptions(spirvcross.MSLOptions{Version: spirvcross.MSLVersion30, Platform: spirvcross.MSLPlatformIOS}))
		_, err = a.Compile()
		require.NoError(t, err)
	})

	t.Run("glsl", func(t *testing.T) {
		a := parse[spirvcross.GLSLOptions](t, words)
		require.NoError(t, a.SetCompilerOptions(spirvcross.GLSLOptions{Version: 330, ES: true}))
		_, err := a.Compile()
		requireCode(t, err, spirvcross.CompilationError)

		require.NoError(t, a.SetCompilerOptions(spirvcross.GLSLOptions{ES: true}), "zero version means ES 310")
		_, err = a.Compile()
		require.NoError(t, err)
	})
}

func TestComputeNeedsGLSL430(t *testing.T) {
	a := parse[spirvcross.GLSLOptions](t, testutil.NewCompute().Words)
	src, err := a.Compile()
	require.NoError(t, err, "the default version accepts compute")
	assert.Contains(t, src, "#version 450")

	require.NoError(t, a.SetCompilerOptions(spirvcross.GLSLOptions{Version: 330}))
	_, err = a.Compile()
	requireCode(t, err, spirvcross.CompilationError)

	require.NoError(t, a.SetCompilerOptions(spirvcross.GLSLOptions{Version: 430}))
	src, err = a.Compile()
	require.NoError(t, err)
	assert.Contains(t, src, "local_size_x = 8")
}

func TestCompilerOptionsReturnsCopy(t *testing.T) {
	a := parse[spirvcross.MSLOptions](t, testutil.NewTriangle().Words)
	loc := spirvcross.ResourceBindingLocation{ExecutionModel: spirvcross.Fragment, DescriptorSet: 0, Binding: 1}
	require.NoError(t, spirvcross.AddMSLResourceBinding(a, loc, spirvcross.ResourceBindingOverride{Texture: 3, Sampler: 2}))

	opts := a.CompilerOptions()
	opts.ResourceBindingOverrides[loc] = spirvcross.ResourceBindingOverride{Texture: 9}
	assert.Equal(t, uint32(3), a.CompilerOptions().ResourceBindingOverrides[loc].Texture)

	in := spirvcross.DefaultMSLOptions()
	in.ResourceBindingOverrides = map[spirvcross.ResourceBindingLocation]spirvcross.ResourceBindingOverride{loc: {Texture: 4}}
	require.NoError(t, a.SetCompilerOptions(in))
	in.ResourceBindingOverrides[loc] = spirvcross.ResourceBindingOverride{Texture: 5}
	assert.Equal(t, uint32(4), a.CompilerOptions().ResourceBindingOverrides[loc].Texture)
}

func TestRootConstantLayout(t *testing.T) {
	fx := testutil.NewTriangle()
	a := parse[spirvcross.HLSLOptions](t, fx.Words)
	require.NoError(t, a.SetEntryPoint("main_fs", spirvcross.Fragment))

	_, err := a.Compile()
	require.NoError(t, err, "push constants default to b0, space15")

	require.NoError(t, spirvcross.SetRootConstantLayout(a, []spirvcross.RootConstant{{Start: 16, End: 32, Binding: 1}}))
	_, err = a.Compile()
	requireCode(t, err, spirvcross.CompilationError)

	require.NoError(t, spirvcross.SetRootConstantLayout(a, []spirvcross.RootConstant{{Start: 0, End: 16, Binding: 3, Space: 2}}))
	_, err = a.Compile()
	require.NoError(t, err)
	assert.Len(t, a.CompilerOptions().RootConstants, 1)
}

func TestHLSLResourceBinding(t *testing.T) {
	fx := testutil.NewTriangle()
	a := parse[spirvcross.HLSLOptions](t, fx.Words)
	require.NoError(t, a.SetEntryPoint("main_fs", spirvcross.Fragment))

	b := spirvcross.HLSLResourceBinding{
		Stage: spirvcross.Fragment, DescriptorSet: 0, Binding: 1,
		SRV:     spirvcross.HLSLRegister{Space: 2, Register: 5},
		Sampler: spirvcross.HLSLRegister{Space: 2, Register: 6},
	}
	require.NoError(t, spirvcross.AddHLSLResourceBinding(a, b))
	b.SRV.Register = 4
	require.NoError(t, spirvcross.AddHLSLResourceBinding(a, b), "a second binding for the same slot replaces the first")
	assert.Len(t, a.CompilerOptions().ResourceBindings, 1)

	src, err := a.Compile()
	require.NoError(t, err)
	assert.Contains(t, src, "register(t4, space2)")
	assert.Contains(t, src, "register(s6, space2)")
}

func TestScalarConstants(t *testing.T) {
	fx := testutil.NewTriangle()
	a := parse[spirvcross.GLSLOptions](t, fx.Words)

	specs, err := a.SpecializationConstants()
	require.NoError(t, err)
	assert.Equal(t, []spirvcross.SpecializationConstant{
		{ID: spirvcross.ID(fx.Scale), SpecID: 0},
		{ID: spirvcross.ID(fx.Enabled), SpecID: 1},
		{ID: spirvcross.ID(fx.Count), SpecID: 2},
	}, specs)

	scale, err := a.ScalarConstant(spirvcross.ID(fx.Scale))
	require.NoError(t, err)
	assert.InDelta(t, 1.0, scale.Float(), 0)

	require.NoError(t, a.SetScalarConstant(spirvcross.ID(fx.Scale), spirvcross.Float32(2.5)))
	scale, err = a.ScalarConstant(spirvcross.ID(fx.Scale))
	require.NoError(t, err)
	assert.InDelta(t, 2.5, scale.Float(), 0)

	require.NoError(t, a.SetScalarConstant(spirvcross.ID(fx.Enabled), spirvcross.Bool(false)))
	enabled, err := a.ScalarConstant(spirvcross.ID(fx.Enabled))
	require.NoError(t, err)
	assert.False(t, enabled.Bool())

	require.NoError(t, a.SetScalarConstant(spirvcross.ID(fx.Count), spirvcross.Int32(-3)))
	count, err := a.ScalarConstant(spirvcross.ID(fx.Count))
	require.NoError(t, err)
	assert.Equal(t, int64(-3), count.Int())

	tests := []struct {
		name  string
		id    spirvcross.ID
		value spirvcross.ScalarValue
	}{
		{"float for int", spirvcross.ID(fx.Count), spirvcross.Float32(1)},
		{"double for float", spirvcross.ID(fx.Scale), spirvcross.Float64(1)},
		{"unsigned for int", spirvcross.ID(fx.Count), spirvcross.Uint32(1)},
		{"int for bool", spirvcross.ID(fx.Enabled), spirvcross.Int32(1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := a.SetScalarConstant(tt.id, tt.value)
			requireCode(t, err, spirvcross.CompilationError)
			assert.ErrorIs(t, err, spirvcross.ErrTypeMismatch)
		})
	}
	count, err = a.ScalarConstant(spirvcross.ID(fx.Count))
	require.NoError(t, err)
	assert.Equal(t, int64(-3), count.Int(), "a rejected value leaves the constant unchanged")

	requireCode(t, a.SetScalarConstant(spirvcross.ID(fx.Globals), spirvcross.Int32(1)), spirvcross.InvalidID)
}

func TestScalarValueAccessors(t *testing.T) {
	assert.Equal(t, int64(-7), spirvcross.Int64(-7).Int())
	assert.Equal(t, uint64(math.MaxUint64), spirvcross.Uint64(math.MaxUint64).Uint())
	assert.Equal(t, uint64(math.MaxUint32), spirvcross.Uint32(math.MaxUint32).Uint())
	assert.Equal(t, math.Pi, spirvcross.Float64(math.Pi).Float())
	assert.True(t, spirvcross.Bool(true).Bool())
	assert.Equal(t, spirvcross.ScalarValue{Kind: spirvcross.ScalarInt, Width: 32, Bits: 0xFFFFFFFF}, spirvcross.Int32(-1))
}

func TestHLSLEntryPointOption(t *testing.T) {
	a := parse[spirvcross.HLSLOptions](t, testutil.NewTriangle().Words)

	opts := spirvcross.DefaultHLSLOptions()
	opts.EntryPoint = &spirvcross.HLSLEntryPoint{Name: "main_fs", ExecutionModel: spirvcross.Fragment}
	require.NoError(t, a.SetCompilerOptions(opts))
	ep, _, err := a.ActiveEntryPoint()
	require.NoError(t, err)
	assert.Equal(t, "main_fs", ep.Name)
	src, err := a.Compile()
	require.NoError(t, err)
	assert.Contains(t, src, "SV_Target0")

	opts.EntryPoint.Name = "missing"
	err = a.SetCompilerOptions(opts)
	requireCode(t, err, spirvcross.InvalidID)
	assert.ErrorIs(t, err, spirvcross.ErrEntryPointNotFound)
	assert.Equal(t, "main_fs", a.CompilerOptions().EntryPoint.Name, "a rejected entry point keeps the old options")
}

func TestHLSLVertexAttributeRemap(t *testing.T) {
	a := parse[spirvcross.HLSLOptions](t, testutil.NewTriangle().Words)

	src, err := a.Compile()
	require.NoError(t, err)
	assert.Contains(t, src, "a_position : LOC0")

	require.NoError(t, spirvcross.AddHLSLVertexAttributeRemap(a, spirvcross.HLSLVertexAttributeRemap{Location: 0, Semantic: "TEXCOORD0"}))
	require.NoError(t, spirvcross.AddHLSLVertexAttributeRemap(a, spirvcross.HLSLVertexAttributeRemap{Location: 0, Semantic: "POSITION"}),
		"a second remap of the same location replaces the first")
	assert.Equal(t, []spirvcross.HLSLVertexAttributeRemap{{Location: 0, Semantic: "POSITION"}}, a.CompilerOptions().VertexAttributeRemaps)

	src, err = a.Compile()
	require.NoError(t, err)
	assert.Contains(t, src, "a_position : POSITION")
	assert.Contains(t, src, ": LOC0", "vertex outputs keep their semantics")
}

func TestHLSLReadOnlyResourceOptions(t *testing.T) {
	a := parse[spirvcross.HLSLOptions](t, testutil.NewStorage().Words)

	src, err := a.Compile()
	require.NoError(t, err)
	assert.Contains(t, src, "RWTexture2D<float4> src : register(u1);")
	assert.Contains(t, src, "ByteAddressBuffer params : register(t2);")

	opts := spirvcross.DefaultHLSLOptions()
	opts.NonwritableUAVTextureAsSRV = true
	opts.ForceStorageBufferAsUAV = true
	require.NoError(t, a.SetCompilerOptions(opts))
	src, err = a.Compile()
	require.NoError(t, err)
	assert.Contains(t, src, "Texture2D<float4> src : register(t1);")
	assert.Contains(t, src, "RWByteAddressBuffer params : register(u2);")
	assert.Contains(t, src, "RWTexture2D<float4> dst : register(u0);", "writable images stay UAVs")
}

func TestHLSLFlattenMatrixVertexInputs(t *testing.T) {
	a := parse[spirvcross.HLSLOptions](t, testutil.NewInstanced().Words)

	opts := spirvcross.DefaultHLSLOptions()
	opts.FlattenMatrixVertexInputSemantics = true
	require.NoError(t, a.SetCompilerOptions(opts))
	src, err := a.Compile()
	require.NoError(t, err)
	assert.NotContains(t, src, "float4x4 a_transform")
	for _, loc := range []string{": LOC1", ": LOC2", ": LOC3", ": LOC4"} {
		assert.Contains(t, src, loc)
	}
}

func TestMSLPlatformIsInformational(t *testing.T) {
	a := parse[spirvcross.MSLOptions](t, testutil.NewTriangle().Words)
	mac, err := a.Compile()
	require.NoError(t, err)

	require.NoError(t, a.SetCompilerOptions(spirvcross.MSLOptions{Platform: spirvcross.MSLPlatformIOS}))
	ios, err := a.Compile()
	require.NoError(t, err)
	assert.Equal(t, mac, ios)
	assert.Equal(t, "iOS", spirvcross.MSLPlatformIOS.String())
}

func TestSetScalarConstantRejectsOversizedBits(t *testing.T) {
	fx := testutil.NewTriangle()
	a := parse[spirvcross.GLSLOptions](t, fx.Words)

	tests := []struct {
		name  string
		id    spirvcross.ID
		value spirvcross.ScalarValue
	}{
		{"int with high bits", spirvcross.ID(fx.Count), spirvcross.ScalarValue{Kind: spirvcross.ScalarInt, Width: 32, Bits: 0xFFFFFFFF_FFFFFFFD}},
		{"float with high bits", spirvcross.ID(fx.Scale), spirvcross.ScalarValue{Kind: spirvcross.ScalarFloat, Width: 32, Bits: 1 << 40}},
		{"bool other than 0 or 1", spirvcross.ID(fx.Enabled), spirvcross.ScalarValue{Kind: spirvcross.ScalarBool, Width: 32, Bits: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before, err := a.ScalarConstant(tt.id)
			require.NoError(t, err)

			err = a.SetScalarConstant(tt.id, tt.value)
			requireCode(t, err, spirvcross.CompilationError)
			assert.ErrorIs(t, err, spirvcross.ErrTypeMismatch)

			after, err := a.ScalarConstant(tt.id)
			require.NoError(t, err)
			assert.Equal(t, before, after)
		})
	}
}
