package spirv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeHeader(t *testing.T) {
	h, err := DecodeHeader([]uint32{MagicNumber, 0x00010300, 0x00080001, 42, 0})
	require.NoError(t, err)
	assert.Equal(t, Version1_3, h.Version)
	assert.Equal(t, uint32(0x00080001), h.Generator)
	assert.Equal(t, uint32(42), h.Bound)
}

func TestDecodeHeaderErrors(t *testing.T) {
	tests := []struct {
		name  string
		words []uint32
		want  string
	}{
		{"empty", nil, "module too small"},
		{"short", []uint32{MagicNumber, 0x00010000}, "module too small"},
		{"bad magic", []uint32{0x03022307, 0x00010000, 0, 1, 0}, "invalid magic number"},
		{"zero bound", []uint32{MagicNumber, 0x00010000, 0, 0, 0}, "id bound must be non-zero"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeHeader(tt.words)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)

			var spvErr *Error
			assert.ErrorAs(t, err, &spvErr)
		})
	}
}

func TestDecodeInstructions(t *testing.T) {
	words := []uint32{
		MagicNumber, 0x00010000, 0, 4, 0,
		2<<16 | uint32(OpCapability), uint32(CapabilityShader),
		4<<16 | uint32(OpTypeInt), 1, 32, 1,
	}

	_, insts, err := Decode(words)
	require.NoError(t, err)
	require.Len(t, insts, 2)

	assert.Equal(t, OpCapability, insts[0].Opcode)
	assert.Equal(t, HeaderWords, insts[0].Offset)
	assert.Equal(t, []uint32{uint32(CapabilityShader)}, insts[0].Operands)

	assert.Equal(t, OpTypeInt, insts[1].Opcode)
	assert.Equal(t, HeaderWords+2, insts[1].Offset)
	assert.Equal(t, []uint32{1, 32, 1}, insts[1].Operands)
}

func TestDecodeMalformedStream(t *testing.T) {
	header := []uint32{MagicNumber, 0x00010000, 0, 4, 0}

	t.Run("zero word count", func(t *testing.T) {
		_, _, err := Decode(append(header[:5:5], uint32(OpNop)))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "word count of zero")
		assert.Contains(t, err.Error(), "word 5")
	})

	t.Run("past the end", func(t *testing.T) {
		_, _, err := Decode(append(header[:5:5], 4<<16|uint32(OpTypeInt), 1))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "runs past the end")
	})
}

func TestStrings(t *testing.T) {
	tests := []string{"", "a", "abc", "abcd", "main_vs", "GLSL.std.450"}
	for _, s := range tests {
		words := encodeString(s)
		assert.Len(t, words, len(s)/4+1, "%q", s)

		got, n := decodeString(words)
		assert.Equal(t, s, got)
		assert.Equal(t, len(words), n)
	}
}

func TestInstructionString(t *testing.T) {
	operands := append([]uint32{5, 7}, encodeString("main")...)
	operands = append(operands, 9, 10)
	inst := Instruction{Opcode: OpEntryPoint, Operands: operands}

	name, n := inst.String(2)
	assert.Equal(t, "main", name)
	assert.Equal(t, 2, n)
	assert.Equal(t, []uint32{9, 10}, inst.Operands[2+n:])

	empty, n := inst.String(100)
	assert.Empty(t, empty)
	assert.Zero(t, n)
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "spirv: bad thing", errorf(-1, "bad %s", "thing").Error())
	assert.Equal(t, "spirv: word 12: bad", errorf(12, "bad").Error())
}
