package spirv_test

import (
	"testing"

	"github.com/gogpu/naga/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/spirvcross/internal/testutil"
	"github.com/gogpu/spirvcross/spirv"
)

func parse(t *testing.T, words []uint32) *spirv.Module {
	t.Helper()
	m, err := spirv.Parse(words)
	require.NoError(t, err)
	return m
}

// statements collects every statement of a block, nested ones included.
func statements(block ir.Block) []ir.StatementKind {
	var out []ir.StatementKind
	for _, s := range block {
		out = append(out, s.Kind)
		switch k := s.Kind.(type) {
		case ir.StmtIf:
			out = append(out, statements(k.Accept)...)
			out = append(out, statements(k.Reject)...)
		case ir.StmtLoop:
			out = append(out, statements(k.Body)...)
			out = append(out, statements(k.Continuing)...)
		case ir.StmtBlock:
			out = append(out, statements(k.Block)...)
		}
	}
	return out
}

func entryFunction(t *testing.T, mod *ir.Module) *ir.Function {
	t.Helper()
	require.Len(t, mod.EntryPoints, 1)
	return &mod.EntryPoints[0].Function
}

func TestLowerVertex(t *testing.T) {
	fx := testutil.NewTriangle()
	mod, info, err := spirv.Lower(parse(t, fx.Words), spirv.LowerOptions{
		EntryPoint: "main_vs",
		Model:      spirv.ExecutionModelVertex,
	})
	require.NoError(t, err)

	assert.Equal(t, ir.StageVertex, info.Stage)
	assert.Equal(t, "main_vs", mod.EntryPoints[0].Name)
	assert.Equal(t, []spirv.LoweredResource{{
		Global: info.Resources[0].Global, Variable: fx.Globals, Name: "globals",
		Set: 0, Binding: 0, Class: spirv.ResourceUniformBuffer, Order: 0,
	}}, info.Resources, "only the globals the entry point touches are lowered")

	fn := entryFunction(t, mod)
	require.Len(t, fn.Arguments, 1)
	assert.Equal(t, "a_position", fn.Arguments[0].Name)
	require.NotNil(t, fn.Arguments[0].Binding)
	assert.Equal(t, ir.LocationBinding{Location: 0}, *fn.Arguments[0].Binding)

	require.NotNil(t, fn.Result)
	assert.Nil(t, fn.Result.Binding, "two outputs are gathered in a struct")
	result := mod.Types[fn.Result.Type]
	assert.Equal(t, "main_vs_output", result.Name)
	st, ok := result.Inner.(ir.StructType)
	require.True(t, ok)
	require.Len(t, st.Members, 2)
	assert.Equal(t, "gl_Position", st.Members[0].Name)
	assert.Equal(t, ir.BuiltinBinding{Builtin: ir.BuiltinPosition}, *st.Members[0].Binding)
	assert.Equal(t, "v_color", st.Members[1].Name)
	assert.Equal(t, uint32(16), st.Members[1].Offset)

	var names []string
	for _, c := range mod.Constants {
		names = append(names, c.Name)
	}
	assert.Contains(t, names, "SCALE")
}

func TestLowerFragmentResources(t *testing.T) {
	fx := testutil.NewTriangle()
	mod, info, err := spirv.Lower(parse(t, fx.Words), spirv.LowerOptions{
		EntryPoint: "main_fs",
		Model:      spirv.ExecutionModelFragment,
	})
	require.NoError(t, err)
	assert.Equal(t, ir.StageFragment, info.Stage)

	require.Len(t, info.Resources, 3)
	texture, sampler, push := info.Resources[0], info.Resources[1], info.Resources[2]

	assert.Equal(t, "u_texture", texture.Name)
	assert.Equal(t, spirv.ResourceTexture, texture.Class)
	assert.Equal(t, "u_texture_sampler", sampler.Name)
	assert.Equal(t, spirv.ResourceSampler, sampler.Class)
	assert.Equal(t, texture.Binding, sampler.Binding)
	assert.Equal(t, uint32(1), sampler.Binding)
	assert.Equal(t, fx.Texture, sampler.Variable)

	assert.Equal(t, spirv.ResourcePushConstant, push.Class)
	assert.Equal(t, spirv.PushConstantBinding.Group, push.Set)
	assert.Equal(t, [2]uint32{0, 16}, push.Range)
	assert.Equal(t, ir.SpaceUniform, mod.GlobalVariables[push.Global].Space)

	_, isSampler := mod.Types[mod.GlobalVariables[sampler.Global].Type].Inner.(ir.SamplerType)
	assert.True(t, isSampler)

	fn := entryFunction(t, mod)
	require.Len(t, fn.Arguments, 1)
	assert.Equal(t, "f_color", fn.Arguments[0].Name)
	require.NotNil(t, fn.Result)
	assert.Equal(t, ir.LocationBinding{Location: 0}, *fn.Result.Binding)

	var sampled bool
	for _, e := range fn.Expressions {
		if s, ok := e.Kind.(ir.ExprImageSample); ok {
			sampled = true
			assert.Equal(t, ir.SampleLevelAuto{}, s.Level)
		}
	}
	assert.True(t, sampled)
	assert.Len(t, fn.ExpressionTypes, len(fn.Expressions))
}

func TestLowerCompute(t *testing.T) {
	fx := testutil.NewCompute()
	mod, info, err := spirv.Lower(parse(t, fx.Words), spirv.LowerOptions{})
	require.NoError(t, err)

	assert.Equal(t, ir.StageCompute, info.Stage)
	assert.Equal(t, [3]uint32{8, 8, 1}, mod.EntryPoints[0].Workgroup)

	require.Len(t, info.Resources, 1)
	assert.Equal(t, spirv.ResourceStorageBuffer, info.Resources[0].Class)
	assert.Equal(t, ir.SpaceStorage, mod.GlobalVariables[info.Resources[0].Global].Space)

	fn := entryFunction(t, mod)
	require.Len(t, fn.Arguments, 1)
	assert.Equal(t, ir.BuiltinBinding{Builtin: ir.BuiltinGlobalInvocationID}, *fn.Arguments[0].Binding)
	assert.Nil(t, fn.Result)

	assert.Contains(t, statements(fn.Body), ir.StmtBarrier{Flags: ir.BarrierStorage})
}

func TestLowerLoop(t *testing.T) {
	fx := testutil.NewLoop()
	mod, _, err := spirv.Lower(parse(t, fx.Words), spirv.LowerOptions{EntryPoint: "main", Model: spirv.ExecutionModelFragment})
	require.NoError(t, err)

	fn := entryFunction(t, mod)
	require.Len(t, fn.LocalVars, 2, "the loop counter and the output")

	var loop *ir.StmtLoop
	for _, s := range fn.Body {
		if l, ok := s.Kind.(ir.StmtLoop); ok {
			loop = &l
		}
	}
	require.NotNil(t, loop)
	assert.NotEmpty(t, loop.Continuing)
	assert.Nil(t, loop.BreakIf)

	var exit *ir.StmtIf
	for _, s := range loop.Body {
		if st, ok := s.Kind.(ir.StmtIf); ok {
			exit = &st
		}
	}
	require.NotNil(t, exit, "the loop condition becomes an if that breaks")
	assert.Empty(t, exit.Accept)
	assert.Equal(t, ir.Block{{Kind: ir.StmtBreak{}}}, exit.Reject)

	last := fn.Body[len(fn.Body)-1].Kind
	ret, ok := last.(ir.StmtReturn)
	require.True(t, ok)
	assert.NotNil(t, ret.Value)
}

func TestLowerVertexRewrites(t *testing.T) {
	fx := testutil.NewTriangle()
	m := parse(t, fx.Words)

	count := func(opts spirv.LowerOptions) (negates, composes int) {
		opts.EntryPoint, opts.Model = "main_vs", spirv.ExecutionModelVertex
		mod, _, err := spirv.Lower(m, opts)
		require.NoError(t, err)
		for _, e := range entryFunction(t, mod).Expressions {
			switch k := e.Kind.(type) {
			case ir.ExprUnary:
				if k.Op == ir.UnaryNegate {
					negates++
				}
			case ir.ExprCompose:
				composes++
			}
		}
		return negates, composes
	}

	negates, composes := count(spirv.LowerOptions{})
	assert.Zero(t, negates)

	flipped, flippedComposes := count(spirv.LowerOptions{FlipVertexY: true, FixupClipSpace: true})
	assert.Equal(t, 1, flipped)
	assert.Equal(t, composes+1, flippedComposes, "the position is rebuilt once per return")
}

func TestLowerZeroInitialize(t *testing.T) {
	fx := testutil.NewTriangle()
	mod, _, err := spirv.Lower(parse(t, fx.Words), spirv.LowerOptions{
		EntryPoint:     "main_fs",
		Model:          spirv.ExecutionModelFragment,
		ZeroInitialize: true,
	})
	require.NoError(t, err)
	for _, lv := range entryFunction(t, mod).LocalVars {
		assert.NotNil(t, lv.Init, lv.Name)
	}
}

func TestLowerDefaultEntryPoint(t *testing.T) {
	mod, info, err := spirv.Lower(parse(t, testutil.NewTriangle().Words), spirv.LowerOptions{})
	require.NoError(t, err)
	assert.Equal(t, "main_vs", mod.EntryPoints[0].Name)
	assert.Equal(t, spirv.ExecutionModelVertex, info.EntryPoint.Model)
}

func TestLowerDropsPointSize(t *testing.T) {
	b := spirv.NewModuleBuilder(spirv.Version1_0)
	b.AddCapability(spirv.CapabilityShader)
	b.SetMemoryModel(spirv.AddressingLogical, spirv.MemoryModelGLSL450)
	void := b.AddTypeVoid()
	f32 := b.AddTypeFloat(32)
	vec4 := b.AddTypeVector(f32, 4)
	one := b.AddConstantFloat32(f32, 1)
	origin := b.AddConstantComposite(vec4, one, one, one, one)
	position := b.AddVariable(b.AddTypePointer(spirv.StorageClassOutput, vec4), spirv.StorageClassOutput)
	b.AddDecorate(position, spirv.DecorationBuiltIn, uint32(spirv.BuiltInPosition))
	pointSize := b.AddVariable(b.AddTypePointer(spirv.StorageClassOutput, f32), spirv.StorageClassOutput)
	b.AddDecorate(pointSize, spirv.DecorationBuiltIn, uint32(spirv.BuiltInPointSize))

	fn := b.AddFunction(b.AddTypeFunction(void), void, spirv.FunctionControlNone)
	b.AddLabel()
	b.AddStore(position, origin)
	b.AddStore(pointSize, one)
	b.AddReturn()
	b.AddFunctionEnd()
	b.AddEntryPoint(spirv.ExecutionModelVertex, fn, "main", position, pointSize)

	mod, info, err := spirv.Lower(parse(t, b.Build()), spirv.LowerOptions{})
	require.NoError(t, err)
	assert.Equal(t, []spirv.BuiltIn{spirv.BuiltInPointSize}, info.DroppedBuiltins)

	result := entryFunction(t, mod).Result
	require.NotNil(t, result)
	assert.Equal(t, ir.BuiltinBinding{Builtin: ir.BuiltinPosition}, *result.Binding)
}

func TestLowerErrors(t *testing.T) {
	fx := testutil.NewTriangle()
	m := parse(t, fx.Words)

	_, _, err := spirv.Lower(m, spirv.LowerOptions{EntryPoint: "missing", Model: spirv.ExecutionModelVertex})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `entry point "missing" (Vertex) not found`)

	_, _, err = spirv.Lower(m, spirv.LowerOptions{EntryPoint: "main_vs", Model: spirv.ExecutionModelFragment})
	assert.Error(t, err, "name and model must both match")

	b := spirv.NewModuleBuilder(spirv.Version1_0)
	b.AddCapability(spirv.CapabilityShader)
	b.SetMemoryModel(spirv.AddressingLogical, spirv.MemoryModelGLSL450)
	void := b.AddTypeVoid()
	fn := b.AddFunction(b.AddTypeFunction(void), void, spirv.FunctionControlNone)
	b.AddLabel()
	b.AddReturn()
	b.AddFunctionEnd()
	b.AddEntryPoint(spirv.ExecutionModelGeometry, fn, "main")

	_, _, err = spirv.Lower(parse(t, b.Build()), spirv.LowerOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Geometry entry points cannot be compiled")
}

func TestResourceClassString(t *testing.T) {
	assert.Equal(t, "uniform buffer", spirv.ResourceUniformBuffer.String())
	assert.Equal(t, "push constant", spirv.ResourcePushConstant.String())
	assert.Equal(t, "ResourceClass(42)", spirv.ResourceClass(42).String())
}

func resourceFor(t *testing.T, info *spirv.LowerInfo, variable spirv.ID) spirv.LoweredResource {
	t.Helper()
	for _, r := range info.Resources {
		if r.Variable == variable {
			return r
		}
	}
	require.Failf(t, "resource not lowered", "%%%d", variable)
	return spirv.LoweredResource{}
}

func TestLowerImageTypes(t *testing.T) {
	mod, info, err := spirv.Lower(parse(t, testutil.NewTriangle().Words), spirv.LowerOptions{
		EntryPoint: "main_fs",
		Model:      spirv.ExecutionModelFragment,
	})
	require.NoError(t, err)
	texture := mod.GlobalVariables[info.Resources[0].Global]
	assert.Equal(t, ir.ImageType{
		Dim:         ir.Dim2D,
		Class:       ir.ImageClassSampled,
		SampledKind: ir.ScalarFloat,
	}, mod.Types[texture.Type].Inner)

	fx := testutil.NewStorage()
	m := parse(t, fx.Words)
	image := func(mod *ir.Module, r spirv.LoweredResource) ir.ImageType {
		img, ok := mod.Types[mod.GlobalVariables[r.Global].Type].Inner.(ir.ImageType)
		require.True(t, ok)
		return img
	}

	mod, info, err = spirv.Lower(m, spirv.LowerOptions{})
	require.NoError(t, err)
	dst, src := resourceFor(t, info, fx.Dst), resourceFor(t, info, fx.Src)
	assert.Equal(t, ir.ImageType{
		Dim:           ir.Dim2D,
		Class:         ir.ImageClassStorage,
		StorageFormat: ir.StorageFormatRgba32Float,
		StorageAccess: ir.StorageAccessWrite,
	}, image(mod, dst))
	assert.Equal(t, ir.StorageAccessRead, image(mod, src).StorageAccess)
	assert.True(t, src.ReadOnly)
	assert.False(t, src.AsTexture)

	mod, info, err = spirv.Lower(m, spirv.LowerOptions{ReadOnlyImagesAsTextures: true})
	require.NoError(t, err)
	src = resourceFor(t, info, fx.Src)
	assert.True(t, src.AsTexture)
	assert.Equal(t, ir.ImageType{
		Dim:         ir.Dim2D,
		Class:       ir.ImageClassSampled,
		SampledKind: ir.ScalarFloat,
	}, image(mod, src))
	assert.Equal(t, ir.ImageClassStorage, image(mod, resourceFor(t, info, fx.Dst)).Class)
}

func TestLowerReadOnlyStorageBuffer(t *testing.T) {
	fx := testutil.NewStorage()
	mod, info, err := spirv.Lower(parse(t, fx.Words), spirv.LowerOptions{})
	require.NoError(t, err)

	params := resourceFor(t, info, fx.Params)
	assert.Equal(t, spirv.ResourceStorageBuffer, params.Class)
	assert.True(t, params.ReadOnly, "every member is NonWritable")
	gv := mod.GlobalVariables[params.Global]
	assert.Equal(t, ir.SpaceStorage, gv.Space)
	assert.Equal(t, ir.StorageRead, gv.Access)

	mod, info, err = spirv.Lower(parse(t, testutil.NewCompute().Words), spirv.LowerOptions{})
	require.NoError(t, err)
	assert.False(t, info.Resources[0].ReadOnly)
	assert.NotEqual(t, ir.StorageRead, mod.GlobalVariables[info.Resources[0].Global].Access)
}

func TestLowerEntryPointIsInline(t *testing.T) {
	mod, _, err := spirv.Lower(parse(t, testutil.NewTriangle().Words), spirv.LowerOptions{})
	require.NoError(t, err)

	fn := entryFunction(t, mod)
	assert.NotEmpty(t, fn.Body)
	for _, f := range mod.Functions {
		assert.NotEqual(t, fn.Name, f.Name, "the entry point body is not also a callable function")
	}
}

func TestLowerConstantInit(t *testing.T) {
	mod, _, err := spirv.Lower(parse(t, testutil.NewTriangle().Words), spirv.LowerOptions{})
	require.NoError(t, err)
	require.NotEmpty(t, mod.Constants)
	for _, c := range mod.Constants {
		require.Less(t, int(c.Init), len(mod.GlobalExpressions), c.Name)
	}
}

func TestLowerFlattenMatrixInputs(t *testing.T) {
	fx := testutil.NewInstanced()
	m := parse(t, fx.Words)

	mod, _, err := spirv.Lower(m, spirv.LowerOptions{})
	require.NoError(t, err)
	assert.Len(t, entryFunction(t, mod).Arguments, 2)

	mod, _, err = spirv.Lower(m, spirv.LowerOptions{FlattenMatrixInputs: true})
	require.NoError(t, err)
	fn := entryFunction(t, mod)
	require.Len(t, fn.Arguments, 5, "the position and four columns")
	for i, arg := range fn.Arguments {
		require.NotNil(t, arg.Binding)
		assert.Equal(t, ir.LocationBinding{Location: uint32(i)}, *arg.Binding, arg.Name)
		_, isVector := mod.Types[arg.Type].Inner.(ir.VectorType)
		assert.True(t, isVector, arg.Name)
	}
	assert.Equal(t, "a_transform_0", fn.Arguments[1].Name)
	assert.Equal(t, "a_transform_3", fn.Arguments[4].Name)
}
