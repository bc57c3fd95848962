// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package testutil assembles the SPIR-V modules used by tests across the
// repository. Every fixture is built in memory with spirv.ModuleBuilder.
package testutil

import (
	"math"

	"github.com/gogpu/spirvcross/spirv"
)

// Triangle is a module with a vertex entry point "main_vs" and a fragment
// entry point "main_fs". The vertex stage reads a uniform block and three
// specialization constants are declared; the fragment stage samples a
// combined image-sampler and reads a push constant block.
type Triangle struct {
	Words []uint32

	VertexMain   spirv.ID
	FragmentMain spirv.ID

	// Vertex stage interface.
	Position    spirv.ID // input, location 0
	PositionOut spirv.ID // output, BuiltIn Position
	ColorOut    spirv.ID // output, location 0

	// Fragment stage interface.
	ColorIn   spirv.ID // input, location 0
	FragColor spirv.ID // output, location 0

	Globals      spirv.ID // uniform buffer variable, set 0 binding 0
	GlobalsBlock spirv.ID // its struct type: vec4 offset, float weight
	Texture      spirv.ID // combined image-sampler, set 0 binding 1
	Push         spirv.ID // push constant variable
	PushBlock    spirv.ID // its struct type: vec4 tint

	Scale   spirv.ID // float spec constant, SpecId 0, default 1.0
	Enabled spirv.ID // bool spec constant, SpecId 1, default true
	Count   spirv.ID // int spec constant, SpecId 2, default 4

	Float, Vec4 spirv.ID // type ids
}

// NewTriangle builds the Triangle fixture.
func NewTriangle() *Triangle {
	t := &Triangle{}
	b := spirv.NewModuleBuilder(spirv.Version1_0)
	b.AddCapability(spirv.CapabilityShader)
	b.SetMemoryModel(spirv.AddressingLogical, spirv.MemoryModelGLSL450)

	void := b.AddTypeVoid()
	fnVoid := b.AddTypeFunction(void)
	boolT := b.AddTypeBool()
	f32 := b.AddTypeFloat(32)
	i32 := b.AddTypeInt(32, true)
	vec2 := b.AddTypeVector(f32, 2)
	vec4 := b.AddTypeVector(f32, 4)
	t.Float, t.Vec4 = f32, vec4

	int0 := b.AddConstant(i32, 0)
	t.Scale = b.AddSpecConstant(f32, 0, math.Float32bits(1))
	t.Enabled = b.AddSpecConstantBool(boolT, 1, true)
	t.Count = b.AddSpecConstant(i32, 2, 4)
	b.AddName(t.Scale, "SCALE")
	b.AddName(t.Enabled, "ENABLED")
	b.AddName(t.Count, "COUNT")

	// Uniform block.
	t.GlobalsBlock = b.AddTypeStruct(vec4, f32)
	b.AddName(t.GlobalsBlock, "Globals")
	b.AddMemberName(t.GlobalsBlock, 0, "offset")
	b.AddMemberName(t.GlobalsBlock, 1, "weight")
	b.AddDecorate(t.GlobalsBlock, spirv.DecorationBlock)
	b.AddMemberDecorate(t.GlobalsBlock, 0, spirv.DecorationOffset, 0)
	b.AddMemberDecorate(t.GlobalsBlock, 1, spirv.DecorationOffset, 16)
	ptrGlobals := b.AddTypePointer(spirv.StorageClassUniform, t.GlobalsBlock)
	ptrUniformVec4 := b.AddTypePointer(spirv.StorageClassUniform, vec4)

	// Combined image-sampler.
	image := b.AddTypeImage(f32, spirv.Dim2D, false, false, false, 1, 0)
	sampled := b.AddTypeSampledImage(image)
	ptrSampled := b.AddTypePointer(spirv.StorageClassUniformConstant, sampled)

	// Push constants.
	t.PushBlock = b.AddTypeStruct(vec4)
	b.AddName(t.PushBlock, "PushConstants")
	b.AddMemberName(t.PushBlock, 0, "tint")
	b.AddDecorate(t.PushBlock, spirv.DecorationBlock)
	b.AddMemberDecorate(t.PushBlock, 0, spirv.DecorationOffset, 0)
	ptrPush := b.AddTypePointer(spirv.StorageClassPushConstant, t.PushBlock)
	ptrPushVec4 := b.AddTypePointer(spirv.StorageClassPushConstant, vec4)

	ptrInVec4 := b.AddTypePointer(spirv.StorageClassInput, vec4)
	ptrOutVec4 := b.AddTypePointer(spirv.StorageClassOutput, vec4)

	t.Globals = b.AddVariable(ptrGlobals, spirv.StorageClassUniform)
	b.AddName(t.Globals, "globals")
	b.AddDecorate(t.Globals, spirv.DecorationDescriptorSet, 0)
	b.AddDecorate(t.Globals, spirv.DecorationBinding, 0)

	t.Texture = b.AddVariable(ptrSampled, spirv.StorageClassUniformConstant)
	b.AddName(t.Texture, "u_texture")
	b.AddDecorate(t.Texture, spirv.DecorationDescriptorSet, 0)
	b.AddDecorate(t.Texture, spirv.DecorationBinding, 1)

	t.Push = b.AddVariable(ptrPush, spirv.StorageClassPushConstant)
	b.AddName(t.Push, "push")

	t.Position = b.AddVariable(ptrInVec4, spirv.StorageClassInput)
	b.AddName(t.Position, "a_position")
	b.AddDecorate(t.Position, spirv.DecorationLocation, 0)

	t.PositionOut = b.AddVariable(ptrOutVec4, spirv.StorageClassOutput)
	b.AddName(t.PositionOut, "gl_Position")
	b.AddDecorate(t.PositionOut, spirv.DecorationBuiltIn, uint32(spirv.BuiltInPosition))

	t.ColorOut = b.AddVariable(ptrOutVec4, spirv.StorageClassOutput)
	b.AddName(t.ColorOut, "v_color")
	b.AddDecorate(t.ColorOut, spirv.DecorationLocation, 0)

	t.ColorIn = b.AddVariable(ptrInVec4, spirv.StorageClassInput)
	b.AddName(t.ColorIn, "f_color")
	b.AddDecorate(t.ColorIn, spirv.DecorationLocation, 0)

	t.FragColor = b.AddVariable(ptrOutVec4, spirv.StorageClassOutput)
	b.AddName(t.FragColor, "o_color")
	b.AddDecorate(t.FragColor, spirv.DecorationLocation, 0)

	// main_vs: gl_Position = (a_position + globals.offset) * SCALE
	t.VertexMain = b.AddFunction(fnVoid, void, spirv.FunctionControlNone)
	b.AddName(t.VertexMain, "main_vs")
	b.AddLabel()
	pos := b.AddLoad(vec4, t.Position)
	offset := b.AddLoad(vec4, b.AddAccessChain(ptrUniformVec4, t.Globals, int0))
	sum := b.AddBinaryOp(spirv.OpFAdd, vec4, pos, offset)
	b.AddStore(t.PositionOut, b.AddBinaryOp(spirv.OpVectorTimesScalar, vec4, sum, t.Scale))
	b.AddStore(t.ColorOut, pos)
	b.AddReturn()
	b.AddFunctionEnd()

	// main_fs: o_color = texture(u_texture, f_color.xy) * f_color * push.tint
	t.FragmentMain = b.AddFunction(fnVoid, void, spirv.FunctionControlNone)
	b.AddName(t.FragmentMain, "main_fs")
	b.AddLabel()
	color := b.AddLoad(vec4, t.ColorIn)
	si := b.AddLoad(sampled, t.Texture)
	uv := b.AddVectorShuffle(vec2, color, color, 0, 1)
	texel := b.AddImageSampleImplicitLod(vec4, si, uv)
	tint := b.AddLoad(vec4, b.AddAccessChain(ptrPushVec4, t.Push, int0))
	lit := b.AddBinaryOp(spirv.OpFMul, vec4, texel, color)
	b.AddStore(t.FragColor, b.AddBinaryOp(spirv.OpFMul, vec4, lit, tint))
	b.AddReturn()
	b.AddFunctionEnd()

	b.AddEntryPoint(spirv.ExecutionModelVertex, t.VertexMain, "main_vs", t.Position, t.PositionOut, t.ColorOut)
	b.AddEntryPoint(spirv.ExecutionModelFragment, t.FragmentMain, "main_fs", t.ColorIn, t.FragColor)
	b.AddExecutionMode(t.FragmentMain, spirv.ExecutionModeOriginUpperLeft)

	t.Words = b.Build()
	return t
}

// Compute is a compute module with entry point "main_cs" that increments
// every element of a storage buffer it is dispatched over.
type Compute struct {
	Words []uint32

	Main         spirv.ID
	Data         spirv.ID // storage buffer variable, set 0 binding 0
	DataBlock    spirv.ID
	InvocationID spirv.ID // BuiltIn GlobalInvocationId input
}

// NewCompute builds the Compute fixture with a local size of 8x8x1.
func NewCompute() *Compute {
	c := &Compute{}
	b := spirv.NewModuleBuilder(spirv.Version1_0)
	b.AddCapability(spirv.CapabilityShader)
	b.SetMemoryModel(spirv.AddressingLogical, spirv.MemoryModelGLSL450)

	void := b.AddTypeVoid()
	fnVoid := b.AddTypeFunction(void)
	i32 := b.AddTypeInt(32, true)
	u32 := b.AddTypeInt(32, false)
	uvec3 := b.AddTypeVector(u32, 3)

	int0 := b.AddConstant(i32, 0)
	one := b.AddConstant(u32, 1)
	workgroup := b.AddConstant(u32, 2)
	semantics := b.AddConstant(u32, spirv.MemorySemanticsUniformMemory|0x8)

	values := b.AddTypeRuntimeArray(u32)
	b.AddDecorate(values, spirv.DecorationArrayStride, 4)
	c.DataBlock = b.AddTypeStruct(values)
	b.AddName(c.DataBlock, "Data")
	b.AddMemberName(c.DataBlock, 0, "values")
	b.AddDecorate(c.DataBlock, spirv.DecorationBufferBlock)
	b.AddMemberDecorate(c.DataBlock, 0, spirv.DecorationOffset, 0)
	ptrData := b.AddTypePointer(spirv.StorageClassUniform, c.DataBlock)
	ptrUint := b.AddTypePointer(spirv.StorageClassUniform, u32)
	ptrInUvec3 := b.AddTypePointer(spirv.StorageClassInput, uvec3)

	c.Data = b.AddVariable(ptrData, spirv.StorageClassUniform)
	b.AddName(c.Data, "data")
	b.AddDecorate(c.Data, spirv.DecorationDescriptorSet, 0)
	b.AddDecorate(c.Data, spirv.DecorationBinding, 0)

	c.InvocationID = b.AddVariable(ptrInUvec3, spirv.StorageClassInput)
	b.AddName(c.InvocationID, "gl_GlobalInvocationID")
	b.AddDecorate(c.InvocationID, spirv.DecorationBuiltIn, uint32(spirv.BuiltInGlobalInvocationID))

	c.Main = b.AddFunction(fnVoid, void, spirv.FunctionControlNone)
	b.AddName(c.Main, "main_cs")
	b.AddLabel()
	gid := b.AddLoad(uvec3, c.InvocationID)
	x := b.AddCompositeExtract(u32, gid, 0)
	elem := b.AddAccessChain(ptrUint, c.Data, int0, x)
	v := b.AddLoad(u32, elem)
	b.AddStore(elem, b.AddBinaryOp(spirv.OpIAdd, u32, v, one))
	b.AddStatement(spirv.OpControlBarrier, workgroup, workgroup, semantics)
	b.AddReturn()
	b.AddFunctionEnd()

	b.AddEntryPoint(spirv.ExecutionModelGLCompute, c.Main, "main_cs", c.InvocationID)
	b.AddExecutionMode(c.Main, spirv.ExecutionModeLocalSize, 8, 8, 1)

	c.Words = b.Build()
	return c
}

// Loop is a fragment module with entry point "main" whose body counts a
// function-local variable up to a constant in a structured loop before
// writing a constant color.
type Loop struct {
	Words []uint32

	Main      spirv.ID
	FragColor spirv.ID
}

// NewLoop builds the Loop fixture.
func NewLoop() *Loop {
	l := &Loop{}
	b := spirv.NewModuleBuilder(spirv.Version1_0)
	b.AddCapability(spirv.CapabilityShader)
	b.SetMemoryModel(spirv.AddressingLogical, spirv.MemoryModelGLSL450)

	void := b.AddTypeVoid()
	fnVoid := b.AddTypeFunction(void)
	boolT := b.AddTypeBool()
	f32 := b.AddTypeFloat(32)
	i32 := b.AddTypeInt(32, true)
	vec4 := b.AddTypeVector(f32, 4)

	int0 := b.AddConstant(i32, 0)
	int1 := b.AddConstant(i32, 1)
	limit := b.AddConstant(i32, 4)
	half := b.AddConstantFloat32(f32, 0.5)
	gray := b.AddConstantComposite(vec4, half, half, half, half)

	ptrFuncInt := b.AddTypePointer(spirv.StorageClassFunction, i32)
	ptrOutVec4 := b.AddTypePointer(spirv.StorageClassOutput, vec4)

	l.FragColor = b.AddVariable(ptrOutVec4, spirv.StorageClassOutput)
	b.AddName(l.FragColor, "o_color")
	b.AddDecorate(l.FragColor, spirv.DecorationLocation, 0)

	header := b.AllocID()
	cond := b.AllocID()
	body := b.AllocID()
	cont := b.AllocID()
	merge := b.AllocID()

	l.Main = b.AddFunction(fnVoid, void, spirv.FunctionControlNone)
	b.AddName(l.Main, "main")
	b.AddLabel()
	i := b.AddLocalVariable(ptrFuncInt)
	b.AddName(i, "i")
	b.AddStore(i, int0)
	b.AddBranch(header)

	b.AddLabelID(header)
	b.AddLoopMerge(merge, cont, spirv.LoopControlNone)
	b.AddBranch(cond)

	b.AddLabelID(cond)
	less := b.AddBinaryOp(spirv.OpSLessThan, boolT, b.AddLoad(i32, i), limit)
	b.AddBranchConditional(less, body, merge)

	b.AddLabelID(body)
	b.AddBranch(cont)

	b.AddLabelID(cont)
	b.AddStore(i, b.AddBinaryOp(spirv.OpIAdd, i32, b.AddLoad(i32, i), int1))
	b.AddBranch(header)

	b.AddLabelID(merge)
	b.AddStore(l.FragColor, gray)
	b.AddReturn()
	b.AddFunctionEnd()

	b.AddEntryPoint(spirv.ExecutionModelFragment, l.Main, "main", l.FragColor)
	b.AddExecutionMode(l.Main, spirv.ExecutionModeOriginUpperLeft)

	l.Words = b.Build()
	return l
}

// Storage is a compute module with entry point "main_cs" that reads a
// read-only rgba32f storage image, adds a bias from a read-only storage
// buffer and writes the result to a write-only storage image.
type Storage struct {
	Words []uint32

	Main   spirv.ID
	Dst    spirv.ID // NonReadable storage image, set 0 binding 0
	Src    spirv.ID // NonWritable storage image, set 0 binding 1
	Params spirv.ID // NonWritable storage buffer, set 0 binding 2
}

// NewStorage builds the Storage fixture with a local size of 8x8x1.
func NewStorage() *Storage {
	s := &Storage{}
	b := spirv.NewModuleBuilder(spirv.Version1_0)
	b.AddCapability(spirv.CapabilityShader)
	b.SetMemoryModel(spirv.AddressingLogical, spirv.MemoryModelGLSL450)

	void := b.AddTypeVoid()
	fnVoid := b.AddTypeFunction(void)
	f32 := b.AddTypeFloat(32)
	i32 := b.AddTypeInt(32, true)
	u32 := b.AddTypeInt(32, false)
	vec4 := b.AddTypeVector(f32, 4)
	ivec2 := b.AddTypeVector(i32, 2)
	uvec2 := b.AddTypeVector(u32, 2)
	uvec3 := b.AddTypeVector(u32, 3)

	int0 := b.AddConstant(i32, 0)

	// Format 1 is Rgba32f.
	image := b.AddTypeImage(f32, spirv.Dim2D, false, false, false, 2, 1)
	ptrImage := b.AddTypePointer(spirv.StorageClassUniformConstant, image)

	params := b.AddTypeStruct(vec4)
	b.AddName(params, "Params")
	b.AddMemberName(params, 0, "bias")
	b.AddDecorate(params, spirv.DecorationBufferBlock)
	b.AddMemberDecorate(params, 0, spirv.DecorationOffset, 0)
	b.AddMemberDecorate(params, 0, spirv.DecorationNonWritable)
	ptrParams := b.AddTypePointer(spirv.StorageClassUniform, params)
	ptrUniformVec4 := b.AddTypePointer(spirv.StorageClassUniform, vec4)
	ptrInUvec3 := b.AddTypePointer(spirv.StorageClassInput, uvec3)

	s.Dst = b.AddVariable(ptrImage, spirv.StorageClassUniformConstant)
	b.AddName(s.Dst, "dst")
	b.AddDecorate(s.Dst, spirv.DecorationDescriptorSet, 0)
	b.AddDecorate(s.Dst, spirv.DecorationBinding, 0)
	b.AddDecorate(s.Dst, spirv.DecorationNonReadable)

	s.Src = b.AddVariable(ptrImage, spirv.StorageClassUniformConstant)
	b.AddName(s.Src, "src")
	b.AddDecorate(s.Src, spirv.DecorationDescriptorSet, 0)
	b.AddDecorate(s.Src, spirv.DecorationBinding, 1)
	b.AddDecorate(s.Src, spirv.DecorationNonWritable)

	s.Params = b.AddVariable(ptrParams, spirv.StorageClassUniform)
	b.AddName(s.Params, "params")
	b.AddDecorate(s.Params, spirv.DecorationDescriptorSet, 0)
	b.AddDecorate(s.Params, spirv.DecorationBinding, 2)

	gid := b.AddVariable(ptrInUvec3, spirv.StorageClassInput)
	b.AddName(gid, "gl_GlobalInvocationID")
	b.AddDecorate(gid, spirv.DecorationBuiltIn, uint32(spirv.BuiltInGlobalInvocationID))

	// main_cs: imageStore(dst, coord, imageLoad(src, coord) + params.bias)
	s.Main = b.AddFunction(fnVoid, void, spirv.FunctionControlNone)
	b.AddName(s.Main, "main_cs")
	b.AddLabel()
	g := b.AddLoad(uvec3, gid)
	coord := b.AddOp(spirv.OpBitcast, ivec2, b.AddVectorShuffle(uvec2, g, g, 0, 1))
	texel := b.AddOp(spirv.OpImageRead, vec4, b.AddLoad(image, s.Src), coord)
	bias := b.AddLoad(vec4, b.AddAccessChain(ptrUniformVec4, s.Params, int0))
	b.AddStatement(spirv.OpImageWrite, b.AddLoad(image, s.Dst), coord, b.AddBinaryOp(spirv.OpFAdd, vec4, texel, bias))
	b.AddReturn()
	b.AddFunctionEnd()

	b.AddEntryPoint(spirv.ExecutionModelGLCompute, s.Main, "main_cs", gid)
	b.AddExecutionMode(s.Main, spirv.ExecutionModeLocalSize, 8, 8, 1)

	s.Words = b.Build()
	return s
}

// Instanced is a vertex module with entry point "main" that transforms
// a_position (location 0) by the per-instance matrix a_transform
// (locations 1 to 4).
type Instanced struct {
	Words []uint32

	Main      spirv.ID
	Position  spirv.ID
	Transform spirv.ID
}

// NewInstanced builds the Instanced fixture.
func NewInstanced() *Instanced {
	in := &Instanced{}
	b := spirv.NewModuleBuilder(spirv.Version1_0)
	b.AddCapability(spirv.CapabilityShader)
	b.SetMemoryModel(spirv.AddressingLogical, spirv.MemoryModelGLSL450)

	void := b.AddTypeVoid()
	fnVoid := b.AddTypeFunction(void)
	f32 := b.AddTypeFloat(32)
	vec4 := b.AddTypeVector(f32, 4)
	mat4 := b.AddTypeMatrix(vec4, 4)

	ptrInVec4 := b.AddTypePointer(spirv.StorageClassInput, vec4)
	ptrInMat4 := b.AddTypePointer(spirv.StorageClassInput, mat4)
	ptrOutVec4 := b.AddTypePointer(spirv.StorageClassOutput, vec4)

	in.Position = b.AddVariable(ptrInVec4, spirv.StorageClassInput)
	b.AddName(in.Position, "a_position")
	b.AddDecorate(in.Position, spirv.DecorationLocation, 0)

	in.Transform = b.AddVariable(ptrInMat4, spirv.StorageClassInput)
	b.AddName(in.Transform, "a_transform")
	b.AddDecorate(in.Transform, spirv.DecorationLocation, 1)

	position := b.AddVariable(ptrOutVec4, spirv.StorageClassOutput)
	b.AddName(position, "gl_Position")
	b.AddDecorate(position, spirv.DecorationBuiltIn, uint32(spirv.BuiltInPosition))

	in.Main = b.AddFunction(fnVoid, void, spirv.FunctionControlNone)
	b.AddName(in.Main, "main")
	b.AddLabel()
	m := b.AddLoad(mat4, in.Transform)
	p := b.AddLoad(vec4, in.Position)
	b.AddStore(position, b.AddBinaryOp(spirv.OpMatrixTimesVector, vec4, m, p))
	b.AddReturn()
	b.AddFunctionEnd()

	b.AddEntryPoint(spirv.ExecutionModelVertex, in.Main, "main", in.Position, in.Transform, position)

	in.Words = b.Build()
	return in
}
