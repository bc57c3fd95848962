// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package native

import (
	"testing"

	"github.com/gogpu/naga/hlsl"
	"github.com/gogpu/naga/ir"
	"github.com/gogpu/naga/msl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/spirvcross/internal/testutil"
	"github.com/gogpu/spirvcross/spirv"
)

func lowerFragment(t *testing.T) (*ir.Module, *spirv.LowerInfo) {
	t.Helper()
	m, err := spirv.Parse(testutil.NewTriangle().Words)
	require.NoError(t, err)
	mod, info, err := spirv.Lower(m, spirv.LowerOptions{EntryPoint: "main_fs", Model: spirv.ExecutionModelFragment})
	require.NoError(t, err)
	require.Len(t, info.Resources, 3, "texture, sampler and push constant")
	return mod, info
}

func TestBindHLSL(t *testing.T) {
	tests := []struct {
		name string
		opts HLSLOptions
		want []hlsl.BindTarget // texture, sampler, push constant
	}{
		{
			name: "defaults",
			opts: DefaultHLSLOptions(),
			want: []hlsl.BindTarget{{Space: 0, Register: 1}, {Space: 0, Register: 1}, {Space: 15, Register: 0}},
		},
		{
			name: "explicit registers",
			opts: HLSLOptions{
				ShaderModel: 51,
				ResourceBindings: []HLSLResourceBinding{{
					Stage: spirv.ExecutionModelFragment, DescriptorSet: 0, Binding: 1,
					SRV:     HLSLRegister{Space: 2, Register: 3},
					Sampler: HLSLRegister{Space: 2, Register: 4},
					CBV:     HLSLRegister{Space: 9, Register: 9},
				}},
				RootConstants: []RootConstant{{Start: 0, End: 64, Binding: 2, Space: 1}},
			},
			want: []hlsl.BindTarget{{Space: 2, Register: 3}, {Space: 2, Register: 4}, {Space: 1, Register: 2}},
		},
		{
			name: "binding for another stage is ignored",
			opts: HLSLOptions{
				ShaderModel: 51,
				ResourceBindings: []HLSLResourceBinding{{
					Stage: spirv.ExecutionModelVertex, DescriptorSet: 0, Binding: 1,
					SRV: HLSLRegister{Space: 2, Register: 3},
				}},
			},
			want: []hlsl.BindTarget{{Space: 0, Register: 1}, {Space: 0, Register: 1}, {Space: 15, Register: 0}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mod, info := lowerFragment(t)
			bindings := make(map[hlsl.ResourceBinding]hlsl.BindTarget)
			samplers, err := bindHLSL(mod, info, tt.opts, bindings)
			require.NoError(t, err)
			require.Len(t, bindings, 2, "texture and push constant")

			for i, r := range info.Resources {
				b := mod.GlobalVariables[r.Global].Binding
				if r.Class == spirv.ResourceSampler {
					assert.Nil(t, b, "samplers are declared without a binding")
					require.Len(t, samplers, 1)
					assert.Equal(t, tt.want[i], hlsl.BindTarget{Space: uint8(samplers[0].Space), Register: samplers[0].Register})
					continue
				}
				require.NotNil(t, b)
				assert.Equal(t, tt.want[i], bindings[hlsl.ResourceBinding{Group: b.Group, Binding: b.Binding}], r.Name)
			}
		})
	}
}

func lowerStorage(t *testing.T, asTextures bool) (*ir.Module, *spirv.LowerInfo) {
	t.Helper()
	m, err := spirv.Parse(testutil.NewStorage().Words)
	require.NoError(t, err)
	mod, info, err := spirv.Lower(m, spirv.LowerOptions{
		EntryPoint:               "main_cs",
		Model:                    spirv.ExecutionModelGLCompute,
		ReadOnlyImagesAsTextures: asTextures,
	})
	require.NoError(t, err)
	require.Len(t, info.Resources, 3, "dst, src and params")
	return mod, info
}

func TestBindHLSLReadOnlyResources(t *testing.T) {
	registers := HLSLResourceBinding{
		Stage: spirv.ExecutionModelGLCompute,
		UAV:   HLSLRegister{Space: 1, Register: 10},
		SRV:   HLSLRegister{Space: 2, Register: 20},
	}
	with := func(binding uint32) HLSLResourceBinding {
		b := registers
		b.Binding = binding
		return b
	}
	tests := []struct {
		name       string
		asTextures bool
		forceUAV   bool
		want       []HLSLRegister // dst, src, params
		access     ir.StorageAccessMode
	}{
		{
			name:   "defaults",
			want:   []HLSLRegister{registers.UAV, registers.UAV, registers.SRV},
			access: ir.StorageRead,
		},
		{
			name:       "read-only images as textures",
			asTextures: true,
			want:       []HLSLRegister{registers.UAV, registers.SRV, registers.SRV},
			access:     ir.StorageRead,
		},
		{
			name:     "storage buffers forced to UAV",
			forceUAV: true,
			want:     []HLSLRegister{registers.UAV, registers.UAV, registers.UAV},
			access:   ir.StorageReadWrite,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mod, info := lowerStorage(t, tt.asTextures)
			opts := HLSLOptions{
				ShaderModel:                51,
				ResourceBindings:           []HLSLResourceBinding{with(0), with(1), with(2)},
				ForceStorageBufferAsUAV:    tt.forceUAV,
				NonwritableUAVTextureAsSRV: tt.asTextures,
			}
			bindings := make(map[hlsl.ResourceBinding]hlsl.BindTarget)
			_, err := bindHLSL(mod, info, opts, bindings)
			require.NoError(t, err)

			for i, r := range info.Resources {
				b := mod.GlobalVariables[r.Global].Binding
				require.NotNil(t, b)
				want := hlsl.BindTarget{Space: uint8(tt.want[i].Space), Register: tt.want[i].Register}
				assert.Equal(t, want, bindings[hlsl.ResourceBinding{Group: b.Group, Binding: b.Binding}], r.Name)
			}
			params := info.Resources[2]
			assert.True(t, params.ReadOnly)
			assert.Equal(t, tt.access, mod.GlobalVariables[params.Global].Access)
			assert.Equal(t, tt.asTextures, info.Resources[1].AsTexture)
			assert.False(t, info.Resources[0].AsTexture)
		})
	}
}

func TestBindHLSLSamplers(t *testing.T) {
	src := "Texture2D<float4> t : register(t1);\n" +
		"SamplerState s;\n" +
		"SamplerComparisonState shadow;\n" +
		"float4 f(SamplerState x) {\n"

	out, err := bindHLSLSamplers(src, []HLSLRegister{{Register: 3}, {Space: 2, Register: 4}})
	require.NoError(t, err)
	assert.Equal(t, "Texture2D<float4> t : register(t1);\n"+
		"SamplerState s : register(s3);\n"+
		"SamplerComparisonState shadow : register(s4, space2);\n"+
		"float4 f(SamplerState x) {\n", out)

	_, err = bindHLSLSamplers(src, []HLSLRegister{{Register: 3}})
	requireStatus(t, err, StatusUnhandled, ReasonNone)

	out, err = bindHLSLSamplers("float4 main() : SV_Target0\n", nil)
	require.NoError(t, err)
	assert.Equal(t, "float4 main() : SV_Target0\n", out)
}

func TestRemapHLSLVertexInputs(t *testing.T) {
	src := "struct VertexOutput_main {\n    float4 color : LOC0;\n};\n\n" +
		"VertexOutput_main main(float4 a_position : LOC0, float3 a_normal : LOC1, float2 a_uv : LOC12)\n{\n"

	out := remapHLSLVertexInputs(src, "main", []HLSLVertexAttributeRemap{
		{Location: 0, Semantic: "POSITION"},
		{Location: 1, Semantic: "NORMAL"},
	})
	assert.Contains(t, out, "main(float4 a_position : POSITION, float3 a_normal : NORMAL, float2 a_uv : LOC12)")
	assert.Contains(t, out, "float4 color : LOC0;", "outputs keep their semantics")

	assert.Equal(t, src, remapHLSLVertexInputs(src, "main", nil))
	assert.Equal(t, src, remapHLSLVertexInputs(src, "other", []HLSLVertexAttributeRemap{{Location: 0, Semantic: "POSITION"}}))
}

func TestBindHLSLRootConstantCoverage(t *testing.T) {
	mod, info := lowerFragment(t)
	opts := DefaultHLSLOptions()
	opts.RootConstants = []RootConstant{{Start: 0, End: 8, Binding: 0, Space: 0}}

	_, err := bindHLSL(mod, info, opts, make(map[hlsl.ResourceBinding]hlsl.BindTarget))
	requireStatus(t, err, StatusCompilationError, ReasonNone)
	assert.Contains(t, err.Error(), "no root constant covers")
}

func TestBindHLSLSpaceOutOfRange(t *testing.T) {
	mod, info := lowerFragment(t)
	opts := DefaultHLSLOptions()
	opts.RootConstants = []RootConstant{{Start: 0, End: 16, Binding: 0, Space: 300}}

	_, err := bindHLSL(mod, info, opts, make(map[hlsl.ResourceBinding]hlsl.BindTarget))
	requireStatus(t, err, StatusCompilationError, ReasonNone)
}

func TestBindMSL(t *testing.T) {
	slot := func(v uint8) *uint8 { return &v }

	t.Run("sequential", func(t *testing.T) {
		mod, info := lowerFragment(t)
		res, err := bindMSL(mod, info, DefaultMSLOptions())
		require.NoError(t, err)

		assert.Equal(t, map[ir.ResourceBinding]msl.BindTarget{
			{Group: 0, Binding: 0}: {Buffer: slot(0), Texture: slot(0), Sampler: &msl.BindSamplerTarget{Slot: 0}},
		}, res.Resources)
		for _, r := range info.Resources {
			assert.Equal(t, &ir.ResourceBinding{Group: 0, Binding: 0}, mod.GlobalVariables[r.Global].Binding, r.Name)
		}
	})

	t.Run("overrides", func(t *testing.T) {
		mod, info := lowerFragment(t)
		opts := DefaultMSLOptions()
		opts.PushConstantDescriptorSet = 7
		opts.ResourceBindings = map[MSLBindingLocation]MSLBindTarget{
			{Stage: spirv.ExecutionModelFragment, DescriptorSet: 0, Binding: 1}: {Texture: 2, Sampler: 3},
			{Stage: spirv.ExecutionModelFragment, DescriptorSet: 7, Binding: 0}: {Buffer: 5},
		}
		res, err := bindMSL(mod, info, opts)
		require.NoError(t, err)

		assert.Equal(t, map[ir.ResourceBinding]msl.BindTarget{
			{Group: 0, Binding: 2}: {Texture: slot(2)},
			{Group: 0, Binding: 3}: {Sampler: &msl.BindSamplerTarget{Slot: 3}},
			{Group: 0, Binding: 5}: {Buffer: slot(5)},
		}, res.Resources)
	})

	t.Run("slot out of range", func(t *testing.T) {
		mod, info := lowerFragment(t)
		opts := DefaultMSLOptions()
		opts.ResourceBindings = map[MSLBindingLocation]MSLBindTarget{
			{Stage: spirv.ExecutionModelFragment, DescriptorSet: 0, Binding: 1}: {Texture: 300},
		}
		_, err := bindMSL(mod, info, opts)
		requireStatus(t, err, StatusCompilationError, ReasonNone)
	})
}

func TestBindGLSL(t *testing.T) {
	mod, info := lowerFragment(t)
	bindGLSL(mod, info)

	push := info.Resources[2]
	require.Equal(t, spirv.ResourcePushConstant, push.Class)
	assert.Equal(t, &ir.ResourceBinding{Group: 0, Binding: 0}, mod.GlobalVariables[push.Global].Binding)

	texture := info.Resources[0]
	assert.Equal(t, &ir.ResourceBinding{Group: 0, Binding: 1}, mod.GlobalVariables[texture.Global].Binding, "other bindings are kept")
}

func TestCompileRejectsInfeasibleOptions(t *testing.T) {
	tests := []struct {
		name   string
		words  []uint32
		entry  string
		model  spirv.ExecutionModel
		opts   CompilerOptions
		target Target
		want   string
	}{
		{
			name: "shader model below 5.0", words: testutil.NewTriangle().Words,
			opts: HLSLOptions{ShaderModel: 41}, target: TargetHLSL,
			want: "shader model 4.1 is not supported",
		},
		{
			name: "unknown shader model", words: testutil.NewTriangle().Words,
			opts: HLSLOptions{ShaderModel: 68}, target: TargetHLSL,
			want: "unknown shader model 6.8",
		},
		{
			name: "uncovered push constants", words: testutil.NewTriangle().Words,
			entry: "main_fs", model: spirv.ExecutionModelFragment,
			opts:   HLSLOptions{ShaderModel: 51, RootConstants: []RootConstant{{Start: 4, End: 16}}},
			target: TargetHLSL,
			want:   "no root constant covers",
		},
		{
			name: "msl version", words: testutil.NewTriangle().Words,
			opts: MSLOptions{Major: 1, Minor: 0}, target: TargetMSL,
			want: "MSL version 1.0 is not supported",
		},
		{
			name: "glsl version", words: testutil.NewTriangle().Words,
			opts: GLSLOptions{Version: 440}, target: TargetGLSL,
			want: "GLSL 440 core is not supported",
		},
		{
			name: "glsl es version", words: testutil.NewTriangle().Words,
			opts: GLSLOptions{Version: 330, ES: true}, target: TargetGLSL,
			want: "GLSL 330 es is not supported",
		},
		{
			name: "compute on glsl 330", words: testutil.NewCompute().Words,
			opts: GLSLOptions{Version: 330}, target: TargetGLSL,
			want: "compute shaders need GLSL 430",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newContext(t, tt.words)
			if tt.entry != "" {
				require.NoError(t, SetEntryPoint(h, tt.entry, tt.model))
			}
			require.NoError(t, SetOptions(h, tt.opts), "options are not validated when set")

			_, err := Compile(h, tt.target)
			requireStatus(t, err, StatusCompilationError, ReasonNone)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestCompileUnknownTarget(t *testing.T) {
	h := newContext(t, testutil.NewTriangle().Words)
	_, err := Compile(h, Target(42))
	requireStatus(t, err, StatusUnhandled, ReasonNone)
}

func TestCompileModuleWithoutEntryPoints(t *testing.T) {
	b := spirv.NewModuleBuilder(spirv.Version1_0)
	b.AddCapability(spirv.CapabilityShader)
	b.SetMemoryModel(spirv.AddressingLogical, spirv.MemoryModelGLSL450)
	h := newContext(t, b.Build())

	_, ok, err := ActiveEntryPoint(h)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = Compile(h, TargetGLSL)
	requireStatus(t, err, StatusCompilationError, ReasonNone)
}

func TestCompileAllTargets(t *testing.T) {
	type stage struct {
		words []uint32
		entry string
		model spirv.ExecutionModel
		want  map[Target][]string
	}
	stages := map[string]stage{
		"vertex": {testutil.NewTriangle().Words, "main_vs", spirv.ExecutionModelVertex, map[Target][]string{
			TargetHLSL: {"cbuffer globals : register(b0)", ": SV_Position"},
			TargetMSL:  {"[[buffer(0)]]", "[[position]]"},
			TargetGLSL: {"#version 450", "gl_Position"},
		}},
		"fragment": {testutil.NewTriangle().Words, "main_fs", spirv.ExecutionModelFragment, map[Target][]string{
			TargetHLSL: {"Texture2D<float4> u_texture : register(t1);", "SamplerState u_texture_sampler : register(s1);", "register(b0, space15)"},
			TargetMSL:  {"texture2d<float, metal::access::sample> u_texture [[texture(0)]]", "sampler u_texture_sampler [[sampler(0)]]"},
			TargetGLSL: {"sampler2D"},
		}},
		"compute": {testutil.NewCompute().Words, "main_cs", spirv.ExecutionModelGLCompute, map[Target][]string{
			TargetHLSL: {"RWByteAddressBuffer data : register(u0);", "[numthreads(8, 8, 1)]"},
			TargetMSL:  {"data [[buffer(0)]]"},
			TargetGLSL: {"local_size_x = 8"},
		}},
		"storage": {testutil.NewStorage().Words, "main_cs", spirv.ExecutionModelGLCompute, map[Target][]string{
			TargetHLSL: {"RWTexture2D<float4> dst : register(u0);", "RWTexture2D<float4> src : register(u1);", "ByteAddressBuffer params : register(t2);"},
			TargetMSL:  {"texture2d<float, metal::access::write> dst [[texture(0)]]", "texture2d<float, metal::access::read> src [[texture(1)]]", "[[buffer(0)]]"},
			TargetGLSL: {"writeonly", "readonly", "image2D"},
		}},
		"loop": {testutil.NewLoop().Words, "main", spirv.ExecutionModelFragment, map[Target][]string{
			TargetHLSL: {"SV_Target0"},
			TargetMSL:  {"fragment"},
			TargetGLSL: {"#version 450"},
		}},
	}
	targets := map[Target]CompilerOptions{
		TargetHLSL: DefaultHLSLOptions(),
		TargetMSL:  DefaultMSLOptions(),
		TargetGLSL: DefaultGLSLOptions(),
	}

	for name, st := range stages {
		for target, opts := range targets {
			t.Run(name+"/"+target.String(), func(t *testing.T) {
				h := newContext(t, st.words)
				require.NoError(t, SetEntryPoint(h, st.entry, st.model))
				require.NoError(t, SetOptions(h, opts))

				first, err := Compile(h, target)
				require.NoError(t, err)
				for _, want := range st.want[target] {
					assert.Contains(t, first, want)
				}
				assert.NotContains(t, first, "nagaSamplerHeap")
				assert.NotContains(t, first, "Texture2D<int4>")
				assert.NotContains(t, first, "texture2d<int")
				assert.NotContains(t, first, "isampler2D")

				second, err := Compile(h, target)
				require.NoError(t, err)
				assert.Equal(t, first, second, "compile is idempotent")
			})
		}
	}
}

func TestCompileStorageOptions(t *testing.T) {
	h := newContext(t, testutil.NewStorage().Words)

	opts := DefaultHLSLOptions()
	opts.NonwritableUAVTextureAsSRV = true
	opts.ForceStorageBufferAsUAV = true
	require.NoError(t, SetOptions(h, opts))
	src, err := Compile(h, TargetHLSL)
	require.NoError(t, err)
	assert.Contains(t, src, "RWTexture2D<float4> dst : register(u0);")
	assert.Contains(t, src, "Texture2D<float4> src : register(t1);")
	assert.Contains(t, src, "RWByteAddressBuffer params : register(u2);")
}

func TestCompileFlattensMatrixInputs(t *testing.T) {
	h := newContext(t, testutil.NewInstanced().Words)

	src, err := Compile(h, TargetHLSL)
	require.NoError(t, err)
	assert.Contains(t, src, "float4x4 a_transform : LOC1")

	opts := DefaultHLSLOptions()
	opts.FlattenMatrixVertexInputSemantics = true
	opts.VertexAttributeRemaps = []HLSLVertexAttributeRemap{{Location: 0, Semantic: "POSITION"}, {Location: 4, Semantic: "TEXCOORD7"}}
	require.NoError(t, SetOptions(h, opts))
	src, err = Compile(h, TargetHLSL)
	require.NoError(t, err)
	assert.NotContains(t, src, "float4x4 a_transform : LOC1")
	for _, want := range []string{"float4 a_transform_0", "float4 a_transform_3", ": POSITION", ": LOC1", ": LOC2", ": LOC3", ": TEXCOORD7"} {
		assert.Contains(t, src, want)
	}
	assert.NotContains(t, src, ": LOC4")
}

func TestSetOptionsSelectsHLSLEntryPoint(t *testing.T) {
	h := newContext(t, testutil.NewTriangle().Words)

	opts := DefaultHLSLOptions()
	opts.EntryPoint = &EntryPointRef{Name: "main_fs", Model: spirv.ExecutionModelFragment}
	require.NoError(t, SetOptions(h, opts))
	active, _, err := ActiveEntryPoint(h)
	require.NoError(t, err)
	assert.Equal(t, "main_fs", active.Name)

	require.NoError(t, SetEntryPoint(h, "main_vs", spirv.ExecutionModelVertex))
	opts.ShaderModel = 60
	require.NoError(t, SetOptions(h, opts), "reapplying the same entry point")
	active, _, err = ActiveEntryPoint(h)
	require.NoError(t, err)
	assert.Equal(t, "main_vs", active.Name, "an unchanged entry point does not override SetEntryPoint")

	bad := DefaultHLSLOptions()
	bad.ShaderModel = 67
	bad.EntryPoint = &EntryPointRef{Name: "main_cs", Model: spirv.ExecutionModelGLCompute}
	requireStatus(t, SetOptions(h, bad), StatusInvalidID, ReasonEntryPointNotFound)
	require.NoError(t, withContext(h, func(c *compilerContext) error {
		assert.Equal(t, uint32(60), c.options.hlsl.ShaderModel, "a failed set keeps the old options")
		return nil
	}))
}

func TestCompileSwitchesStage(t *testing.T) {
	h := newContext(t, testutil.NewTriangle().Words)

	vertex, err := Compile(h, TargetGLSL)
	require.NoError(t, err)
	require.NoError(t, SetEntryPoint(h, "main_fs", spirv.ExecutionModelFragment))
	fragment, err := Compile(h, TargetGLSL)
	require.NoError(t, err)

	assert.NotEqual(t, vertex, fragment)
	assert.Contains(t, vertex, "gl_Position")
	assert.NotContains(t, fragment, "gl_Position")
}

func TestMSLPlatformDoesNotChangeOutput(t *testing.T) {
	h := newContext(t, testutil.NewTriangle().Words)

	outputs := make(map[MSLPlatform]string)
	for _, p := range []MSLPlatform{MSLPlatformMacOS, MSLPlatformIOS} {
		opts := DefaultMSLOptions()
		opts.Platform = p
		require.NoError(t, SetOptions(h, opts))
		src, err := Compile(h, TargetMSL)
		require.NoError(t, err, p.String())
		outputs[p] = src
	}
	assert.Equal(t, outputs[MSLPlatformMacOS], outputs[MSLPlatformIOS])
	assert.Equal(t, "MSLPlatform(9)", MSLPlatform(9).String())
}

func TestGLSLZeroVersion(t *testing.T) {
	h := newContext(t, testutil.NewCompute().Words)

	require.NoError(t, SetOptions(h, GLSLOptions{}))
	src, err := Compile(h, TargetGLSL)
	require.NoError(t, err)
	assert.Contains(t, src, "#version 450")

	require.NoError(t, SetOptions(h, GLSLOptions{ES: true}))
	src, err = Compile(h, TargetGLSL)
	require.NoError(t, err)
	assert.Contains(t, src, "#version 310 es")
}
