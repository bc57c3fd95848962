// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package spirvcross

import (
	"encoding/binary"
	"slices"

	"github.com/gogpu/spirvcross/spirv"
)

// MagicNumber is the first word of every SPIR-V module.
const MagicNumber = spirv.MagicNumber

// Module is an immutable SPIR-V binary. It may be shared freely and parsed
// into any number of Asts concurrently.
type Module struct {
	words []uint32
}

// NewModule validates words and returns a Module holding a copy of them.
// It fails with InvalidModule when words is empty or does not begin with
// the magic number.
func NewModule(words []uint32) (*Module, error) {
	if len(words) == 0 {
		return nil, newError(InvalidModule, "module is empty")
	}
	if words[0] != MagicNumber {
		return nil, newError(InvalidModule, "bad magic number 0x%08x", words[0])
	}
	return &Module{words: slices.Clone(words)}, nil
}

// NewModuleFromBytes decodes a .spv file's contents and validates it like
// NewModule.
func NewModuleFromBytes(data []byte) (*Module, error) {
	words, err := WordsFromBytes(data)
	if err != nil {
		return nil, err
	}
	return NewModule(words)
}

// WordsFromBytes converts a SPIR-V byte stream into words. The stream is
// little-endian unless its first word is the byte-swapped magic number, in
// which case it is read as big-endian. The length must be a multiple of 4.
func WordsFromBytes(data []byte) ([]uint32, error) {
	if len(data)%4 != 0 {
		return nil, newError(InvalidModule, "byte length %d is not a multiple of 4", len(data))
	}
	var order binary.ByteOrder = binary.LittleEndian
	if len(data) >= 4 && binary.BigEndian.Uint32(data) == MagicNumber {
		order = binary.BigEndian
	}
	words := make([]uint32, len(data)/4)
	for i := range words {
		words[i] = order.Uint32(data[i*4:])
	}
	return words, nil
}

// Words returns a copy of the module's words.
func (m *Module) Words() []uint32 {
	return slices.Clone(m.words)
}

// Len returns the number of words.
func (m *Module) Len() int {
	return len(m.words)
}
