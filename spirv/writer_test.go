package spirv

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModuleBuilder_MinimalModule(t *testing.T) {
	builder := NewModuleBuilder(Version1_3)
	builder.AddCapability(CapabilityShader)
	builder.SetMemoryModel(AddressingLogical, MemoryModelGLSL450)

	words := builder.Build()
	require.GreaterOrEqual(t, len(words), HeaderWords)

	assert.Equal(t, uint32(MagicNumber), words[0])
	assert.Equal(t, uint32(1<<16|3<<8), words[1], "version 1.3")
	assert.Equal(t, uint32(GeneratorID), words[2])
	assert.Equal(t, uint32(1), words[3], "no ids allocated, bound is 1")
	assert.Zero(t, words[4], "schema is reserved")

	assert.Equal(t, []uint32{
		2<<16 | uint32(OpCapability), uint32(CapabilityShader),
		3<<16 | uint32(OpMemoryModel), uint32(AddressingLogical), uint32(MemoryModelGLSL450),
	}, words[HeaderWords:])
}

func TestModuleBuilder_IDAllocation(t *testing.T) {
	builder := NewModuleBuilder(Version1_3)

	id1 := builder.AllocID()
	id2 := builder.AllocID()
	id3 := builder.AllocID()

	assert.NotZero(t, id1)
	assert.Less(t, id1, id2)
	assert.Less(t, id2, id3)
	assert.Equal(t, id3+1, builder.Build()[3], "bound is one past the last id")
}

func TestModuleBuilder_SectionOrder(t *testing.T) {
	builder := NewModuleBuilder(Version1_0)

	// Added out of order on purpose; Build lays sections out as required.
	voidType := builder.AddTypeVoid()
	funcType := builder.AddTypeFunction(voidType)
	fn := builder.AddFunction(funcType, voidType, FunctionControlNone)
	builder.AddLabel()
	builder.AddReturn()
	builder.AddFunctionEnd()
	builder.AddName(fn, "main")
	builder.AddEntryPoint(ExecutionModelFragment, fn, "main")
	builder.AddExecutionMode(fn, ExecutionModeOriginUpperLeft)
	builder.SetMemoryModel(AddressingLogical, MemoryModelGLSL450)
	builder.AddCapability(CapabilityShader)

	_, insts, err := Decode(builder.Build())
	require.NoError(t, err)

	var ops []OpCode
	for _, inst := range insts {
		ops = append(ops, inst.Opcode)
	}
	assert.Equal(t, []OpCode{
		OpCapability, OpMemoryModel, OpEntryPoint, OpExecutionMode, OpName,
		OpTypeVoid, OpTypeFunction, OpFunction, OpLabel, OpReturn, OpFunctionEnd,
	}, ops)
}

func TestModuleBuilder_Constants(t *testing.T) {
	builder := NewModuleBuilder(Version1_3)
	f32 := builder.AddTypeFloat(32)
	f64 := builder.AddTypeFloat(64)
	boolType := builder.AddTypeBool()

	pi := builder.AddConstantFloat32(f32, 3.14159)
	e := builder.AddConstantFloat64(f64, math.E)
	yes := builder.AddConstantBool(boolType, true)
	spec := builder.AddSpecConstant(f32, 7, math.Float32bits(2))

	m, err := Parse(builder.Build())
	require.NoError(t, err)

	assert.Equal(t, []uint32{math.Float32bits(3.14159)}, m.Constants[pi].Value)
	bits := math.Float64bits(math.E)
	assert.Equal(t, []uint32{uint32(bits), uint32(bits >> 32)}, m.Constants[e].Value)
	assert.Equal(t, OpConstantTrue, m.Constants[yes].Op)

	assert.True(t, m.Constants[spec].IsSpec())
	specID, ok := m.Decoration(spec, DecorationSpecID)
	require.True(t, ok)
	assert.Equal(t, uint32(7), specID)
}

func TestInstruction_Encode(t *testing.T) {
	inst := newInstructionBuilder().addWord(3).addString("hello").build(OpName)
	encoded := inst.Encode()

	wordCount := encoded[0] >> 16
	assert.Equal(t, OpName, OpCode(encoded[0]&0xFFFF))
	assert.Equal(t, uint32(len(encoded)), wordCount)
	// id + "hello\0" padded to two words
	assert.Equal(t, uint32(4), wordCount)

	name, _ := inst.String(1)
	assert.Equal(t, "hello", name)
}

func TestWordsToBytes(t *testing.T) {
	builder := NewModuleBuilder(Version1_0)
	builder.AddCapability(CapabilityShader)

	words := builder.Build()
	data := builder.BuildBytes()
	require.Len(t, data, len(words)*4)
	for i, w := range words {
		assert.Equal(t, w, binary.LittleEndian.Uint32(data[i*4:]))
	}
	assert.Equal(t, []byte{0x03, 0x02, 0x23, 0x07}, data[:4])
}
