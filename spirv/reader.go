package spirv

import (
	"fmt"
	"strings"
)

// Error reports a malformed or unsupported module. Offset is the word offset
// of the offending instruction, or -1 when the error is not tied to one.
type Error struct {
	Offset  int
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Offset < 0 {
		return "spirv: " + e.Message
	}
	return fmt.Sprintf("spirv: word %d: %s", e.Offset, e.Message)
}

func errorf(offset int, format string, args ...any) *Error {
	return &Error{Offset: offset, Message: fmt.Sprintf(format, args...)}
}

// Header is the fixed five-word module header.
type Header struct {
	Magic     uint32
	Version   Version
	Generator uint32
	Bound     uint32
	Schema    uint32
}

// Instruction is one decoded instruction. Operands excludes the leading
// opcode word; Offset is the word offset of that leading word.
type Instruction struct {
	Opcode   OpCode
	Operands []uint32
	Offset   int
}

// operand returns operand i, or 0 when the instruction is too short.
func (inst Instruction) operand(i int) uint32 {
	if i < len(inst.Operands) {
		return inst.Operands[i]
	}
	return 0
}

// String decodes a literal string starting at operand i and returns it with
// the number of words it occupies.
func (inst Instruction) String(i int) (string, int) {
	if i >= len(inst.Operands) {
		return "", 0
	}
	return decodeString(inst.Operands[i:])
}

// decodeString reads a NUL-terminated little-endian packed string.
func decodeString(words []uint32) (string, int) {
	var sb strings.Builder
	for n, w := range words {
		for shift := 0; shift < 32; shift += 8 {
			b := byte(w >> shift)
			if b == 0 {
				return sb.String(), n + 1
			}
			sb.WriteByte(b)
		}
	}
	return sb.String(), len(words)
}

// encodeString packs s into NUL-terminated words.
func encodeString(s string) []uint32 {
	bytes := []byte(s)
	bytes = append(bytes, 0)
	for len(bytes)%4 != 0 {
		bytes = append(bytes, 0)
	}
	words := make([]uint32, 0, len(bytes)/4)
	for i := 0; i < len(bytes); i += 4 {
		words = append(words, uint32(bytes[i])|
			uint32(bytes[i+1])<<8|
			uint32(bytes[i+2])<<16|
			uint32(bytes[i+3])<<24)
	}
	return words
}

// DecodeHeader validates and decodes the module header.
func DecodeHeader(words []uint32) (Header, error) {
	if len(words) < HeaderWords {
		return Header{}, errorf(-1, "module too small: %d words, need at least %d", len(words), HeaderWords)
	}
	if words[0] != MagicNumber {
		return Header{}, errorf(0, "invalid magic number 0x%08X", words[0])
	}
	h := Header{
		Magic:     words[0],
		Version:   versionFromWord(words[1]),
		Generator: words[2],
		Bound:     words[3],
		Schema:    words[4],
	}
	if h.Bound == 0 {
		return Header{}, errorf(3, "id bound must be non-zero")
	}
	return h, nil
}

// Decode splits a module into its header and instruction stream.
// The returned instructions alias words.
func Decode(words []uint32) (Header, []Instruction, error) {
	h, err := DecodeHeader(words)
	if err != nil {
		return Header{}, nil, err
	}

	insts := make([]Instruction, 0, len(words)/4)
	offset := HeaderWords
	for offset < len(words) {
		word := words[offset]
		wordCount := int(word >> 16)
		opcode := OpCode(word & 0xFFFF)
		if wordCount == 0 {
			return Header{}, nil, errorf(offset, "%s has a word count of zero", opcode)
		}
		if offset+wordCount > len(words) {
			return Header{}, nil, errorf(offset, "%s runs past the end of the module (%d words, %d left)",
				opcode, wordCount, len(words)-offset)
		}
		insts = append(insts, Instruction{
			Opcode:   opcode,
			Operands: words[offset+1 : offset+wordCount],
			Offset:   offset,
		})
		offset += wordCount
	}
	return h, insts, nil
}
