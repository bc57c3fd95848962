package spirv_test

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/spirvcross/internal/testutil"
	"github.com/gogpu/spirvcross/spirv"
)

func TestDisassemble(t *testing.T) {
	fx := testutil.NewTriangle()
	var buf bytes.Buffer
	require.NoError(t, spirv.Disassemble(&buf, fx.Words))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "; SPIR-V\n; Version: 1.0\n"))
	assert.Contains(t, out, fmt.Sprintf("; Bound: %d\n", fx.Words[3]))

	for _, want := range []string{
		"OpCapability Shader",
		"OpMemoryModel Logical GLSL450",
		fmt.Sprintf(`OpEntryPoint Vertex %%%d "main_vs" %%%d %%%d %%%d`, fx.VertexMain, fx.Position, fx.PositionOut, fx.ColorOut),
		fmt.Sprintf("OpExecutionMode %%%d OriginUpperLeft", fx.FragmentMain),
		fmt.Sprintf(`OpName %%%d "globals"`, fx.Globals),
		fmt.Sprintf(`OpMemberName %%%d 1 "weight"`, fx.GlobalsBlock),
		fmt.Sprintf("OpDecorate %%%d BuiltIn Position", fx.PositionOut),
		fmt.Sprintf("OpDecorate %%%d Binding 1", fx.Texture),
		fmt.Sprintf("OpMemberDecorate %%%d 1 Offset 16", fx.GlobalsBlock),
		fmt.Sprintf("%%%d = OpTypeFloat 32", fx.Float),
		fmt.Sprintf("%%%d = OpTypeVector %%%d 4", fx.Vec4, fx.Float),
		fmt.Sprintf("%%%d = OpSpecConstant %%%d 1065353216", fx.Scale, fx.Float),
		fmt.Sprintf("%%%d = OpVariable", fx.Globals),
		"Uniform",
		"OpTypeImage",
		"OpImageSampleImplicitLod",
		"OpReturn",
		"OpFunctionEnd",
	} {
		assert.Contains(t, out, want)
	}
}

func TestDisassembleLayout(t *testing.T) {
	b := spirv.NewModuleBuilder(spirv.Version1_3)
	b.AddCapability(spirv.CapabilityShader)
	void := b.AddTypeVoid()

	var buf bytes.Buffer
	require.NoError(t, spirv.Disassemble(&buf, b.Build()))
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")

	assert.Equal(t, []string{
		"; SPIR-V",
		"; Version: 1.3",
		"; Generator: 0x00000000",
		"; Bound: 2",
		"; Schema: 0",
		"",
		"               OpCapability Shader",
		fmt.Sprintf("%12s = OpTypeVoid", fmt.Sprintf("%%%d", void)),
	}, lines)
}

func TestDisassembleInvalid(t *testing.T) {
	var buf bytes.Buffer
	err := spirv.Disassemble(&buf, []uint32{1, 2, 3})
	require.Error(t, err)
	assert.Empty(t, buf.String())
}
