package spirv

import (
	"encoding/binary"
	"fmt"
	"math"

	"fortio.org/safecast"
)

// FunctionControl is the control mask operand of OpFunction.
type FunctionControl uint32

// Function control bits
const (
	FunctionControlNone       FunctionControl = 0x0
	FunctionControlInline     FunctionControl = 0x1
	FunctionControlDontInline FunctionControl = 0x2
)

// SelectionControl is the control mask operand of OpSelectionMerge.
type SelectionControl uint32

// Selection control bits
const (
	SelectionControlNone SelectionControl = 0x0
)

// LoopControl is the control mask operand of OpLoopMerge.
type LoopControl uint32

// Loop control bits
const (
	LoopControlNone LoopControl = 0x0
)

// instructionBuilder accumulates the operand words of one instruction.
type instructionBuilder struct {
	words []uint32
}

func newInstructionBuilder() *instructionBuilder {
	return &instructionBuilder{words: make([]uint32, 0, 8)}
}

func (b *instructionBuilder) addWord(words ...uint32) *instructionBuilder {
	b.words = append(b.words, words...)
	return b
}

func (b *instructionBuilder) addString(s string) *instructionBuilder {
	b.words = append(b.words, encodeString(s)...)
	return b
}

func (b *instructionBuilder) build(opcode OpCode) Instruction {
	return Instruction{Opcode: opcode, Operands: b.words}
}

// Encode returns the instruction as words, leading opcode word included.
func (inst Instruction) Encode() []uint32 {
	wordCount, err := safecast.Conv[uint16](len(inst.Operands) + 1)
	if err != nil {
		panic(fmt.Sprintf("spirv: %s has too many operands (%d)", inst.Opcode, len(inst.Operands)))
	}
	result := make([]uint32, 0, wordCount)
	result = append(result, uint32(wordCount)<<16|uint32(inst.Opcode))
	return append(result, inst.Operands...)
}

// ModuleBuilder assembles a module section by section. Instructions may be
// added in any order; Build emits them in the layout the format requires.
type ModuleBuilder struct {
	version   Version
	generator uint32

	capabilities   []Instruction
	extensions     []Instruction
	extInstImports []Instruction
	memoryModel    *Instruction
	entryPoints    []Instruction
	executionModes []Instruction
	debugNames     []Instruction // OpName, OpMemberName
	annotations    []Instruction // OpDecorate, OpMemberDecorate
	types          []Instruction // OpType*, OpConstant*, OpSpecConstant*
	globalVars     []Instruction
	functions      []Instruction

	nextID uint32
}

// NewModuleBuilder creates a builder for a module of the given version.
func NewModuleBuilder(version Version) *ModuleBuilder {
	return &ModuleBuilder{
		version:   version,
		generator: GeneratorID,
		nextID:    1,
	}
}

// AllocID allocates a fresh result id.
func (b *ModuleBuilder) AllocID() ID {
	id := b.nextID
	b.nextID++
	return id
}

// AddCapability adds OpCapability.
func (b *ModuleBuilder) AddCapability(capability Capability) {
	b.capabilities = append(b.capabilities, newInstructionBuilder().addWord(uint32(capability)).build(OpCapability))
}

// AddExtension adds OpExtension.
func (b *ModuleBuilder) AddExtension(name string) {
	b.extensions = append(b.extensions, newInstructionBuilder().addString(name).build(OpExtension))
}

// AddExtInstImport imports an extended instruction set and returns its id.
func (b *ModuleBuilder) AddExtInstImport(name string) ID {
	id := b.AllocID()
	b.extInstImports = append(b.extInstImports, newInstructionBuilder().addWord(id).addString(name).build(OpExtInstImport))
	return id
}

// SetMemoryModel sets OpMemoryModel.
func (b *ModuleBuilder) SetMemoryModel(addressing AddressingModel, memory MemoryModel) {
	inst := newInstructionBuilder().addWord(uint32(addressing), uint32(memory)).build(OpMemoryModel)
	b.memoryModel = &inst
}

// AddEntryPoint adds OpEntryPoint.
func (b *ModuleBuilder) AddEntryPoint(model ExecutionModel, funcID ID, name string, interfaces ...ID) {
	ib := newInstructionBuilder().addWord(uint32(model), funcID).addString(name).addWord(interfaces...)
	b.entryPoints = append(b.entryPoints, ib.build(OpEntryPoint))
}

// AddExecutionMode adds OpExecutionMode.
func (b *ModuleBuilder) AddExecutionMode(entryPoint ID, mode ExecutionMode, params ...uint32) {
	ib := newInstructionBuilder().addWord(entryPoint, uint32(mode)).addWord(params...)
	b.executionModes = append(b.executionModes, ib.build(OpExecutionMode))
}

// AddName adds OpName.
func (b *ModuleBuilder) AddName(id ID, name string) {
	b.debugNames = append(b.debugNames, newInstructionBuilder().addWord(id).addString(name).build(OpName))
}

// AddMemberName adds OpMemberName.
func (b *ModuleBuilder) AddMemberName(structID ID, member uint32, name string) {
	b.debugNames = append(b.debugNames, newInstructionBuilder().addWord(structID, member).addString(name).build(OpMemberName))
}

// AddDecorate adds OpDecorate.
func (b *ModuleBuilder) AddDecorate(id ID, decoration Decoration, params ...uint32) {
	ib := newInstructionBuilder().addWord(id, uint32(decoration)).addWord(params...)
	b.annotations = append(b.annotations, ib.build(OpDecorate))
}

// AddMemberDecorate adds OpMemberDecorate.
func (b *ModuleBuilder) AddMemberDecorate(structID ID, member uint32, decoration Decoration, params ...uint32) {
	ib := newInstructionBuilder().addWord(structID, member, uint32(decoration)).addWord(params...)
	b.annotations = append(b.annotations, ib.build(OpMemberDecorate))
}

// addType appends a type-section instruction whose first operand is its result id.
func (b *ModuleBuilder) addType(op OpCode, operands ...uint32) ID {
	id := b.AllocID()
	b.types = append(b.types, newInstructionBuilder().addWord(id).addWord(operands...).build(op))
	return id
}

// addTypedConstant appends a type-section instruction of the form
// <result type> <result id> operands...
func (b *ModuleBuilder) addTypedConstant(op OpCode, typeID ID, operands ...uint32) ID {
	id := b.AllocID()
	b.types = append(b.types, newInstructionBuilder().addWord(typeID, id).addWord(operands...).build(op))
	return id
}

// AddTypeVoid adds OpTypeVoid.
func (b *ModuleBuilder) AddTypeVoid() ID { return b.addType(OpTypeVoid) }

// AddTypeBool adds OpTypeBool.
func (b *ModuleBuilder) AddTypeBool() ID { return b.addType(OpTypeBool) }

// AddTypeFloat adds OpTypeFloat.
func (b *ModuleBuilder) AddTypeFloat(width uint32) ID { return b.addType(OpTypeFloat, width) }

// AddTypeInt adds OpTypeInt.
func (b *ModuleBuilder) AddTypeInt(width uint32, signed bool) ID {
	var signedness uint32
	if signed {
		signedness = 1
	}
	return b.addType(OpTypeInt, width, signedness)
}

// AddTypeVector adds OpTypeVector.
func (b *ModuleBuilder) AddTypeVector(componentType ID, count uint32) ID {
	return b.addType(OpTypeVector, componentType, count)
}

// AddTypeMatrix adds OpTypeMatrix.
func (b *ModuleBuilder) AddTypeMatrix(columnType ID, columnCount uint32) ID {
	return b.addType(OpTypeMatrix, columnType, columnCount)
}

// AddTypeArray adds OpTypeArray. lengthID must name an integer constant.
func (b *ModuleBuilder) AddTypeArray(elementType, lengthID ID) ID {
	return b.addType(OpTypeArray, elementType, lengthID)
}

// AddTypeRuntimeArray adds OpTypeRuntimeArray.
func (b *ModuleBuilder) AddTypeRuntimeArray(elementType ID) ID {
	return b.addType(OpTypeRuntimeArray, elementType)
}

// AddTypeImage adds OpTypeImage. sampled is 1 for sampled images and 2 for
// storage images.
func (b *ModuleBuilder) AddTypeImage(sampledType ID, dim Dim, depth, arrayed, multisampled bool, sampled, format uint32) ID {
	return b.addType(OpTypeImage, sampledType, uint32(dim),
		boolWord(depth), boolWord(arrayed), boolWord(multisampled), sampled, format)
}

// AddTypeSampler adds OpTypeSampler.
func (b *ModuleBuilder) AddTypeSampler() ID { return b.addType(OpTypeSampler) }

// AddTypeSampledImage adds OpTypeSampledImage.
func (b *ModuleBuilder) AddTypeSampledImage(imageType ID) ID {
	return b.addType(OpTypeSampledImage, imageType)
}

// AddTypePointer adds OpTypePointer.
func (b *ModuleBuilder) AddTypePointer(storageClass StorageClass, baseType ID) ID {
	return b.addType(OpTypePointer, uint32(storageClass), baseType)
}

// AddTypeFunction adds OpTypeFunction.
func (b *ModuleBuilder) AddTypeFunction(returnType ID, paramTypes ...ID) ID {
	return b.addType(OpTypeFunction, append([]uint32{returnType}, paramTypes...)...)
}

// AddTypeStruct adds OpTypeStruct.
func (b *ModuleBuilder) AddTypeStruct(memberTypes ...ID) ID {
	return b.addType(OpTypeStruct, memberTypes...)
}

// AddConstant adds OpConstant with raw literal words.
func (b *ModuleBuilder) AddConstant(typeID ID, values ...uint32) ID {
	return b.addTypedConstant(OpConstant, typeID, values...)
}

// AddConstantFloat32 adds a 32-bit float constant.
func (b *ModuleBuilder) AddConstantFloat32(typeID ID, value float32) ID {
	return b.AddConstant(typeID, math.Float32bits(value))
}

// AddConstantFloat64 adds a 64-bit float constant.
func (b *ModuleBuilder) AddConstantFloat64(typeID ID, value float64) ID {
	bits := math.Float64bits(value)
	return b.AddConstant(typeID, uint32(bits), uint32(bits>>32))
}

// AddConstantBool adds OpConstantTrue or OpConstantFalse.
func (b *ModuleBuilder) AddConstantBool(typeID ID, value bool) ID {
	if value {
		return b.addTypedConstant(OpConstantTrue, typeID)
	}
	return b.addTypedConstant(OpConstantFalse, typeID)
}

// AddConstantNull adds OpConstantNull.
func (b *ModuleBuilder) AddConstantNull(typeID ID) ID {
	return b.addTypedConstant(OpConstantNull, typeID)
}

// AddConstantComposite adds OpConstantComposite.
func (b *ModuleBuilder) AddConstantComposite(typeID ID, constituents ...ID) ID {
	return b.addTypedConstant(OpConstantComposite, typeID, constituents...)
}

// AddSpecConstant adds OpSpecConstant and decorates it with SpecId.
func (b *ModuleBuilder) AddSpecConstant(typeID ID, specID uint32, values ...uint32) ID {
	id := b.addTypedConstant(OpSpecConstant, typeID, values...)
	b.AddDecorate(id, DecorationSpecID, specID)
	return id
}

// AddSpecConstantBool adds OpSpecConstantTrue or OpSpecConstantFalse and
// decorates it with SpecId.
func (b *ModuleBuilder) AddSpecConstantBool(typeID ID, specID uint32, value bool) ID {
	op := OpSpecConstantFalse
	if value {
		op = OpSpecConstantTrue
	}
	id := b.addTypedConstant(op, typeID)
	b.AddDecorate(id, DecorationSpecID, specID)
	return id
}

// AddVariable adds a module-scope OpVariable.
func (b *ModuleBuilder) AddVariable(pointerType ID, storageClass StorageClass) ID {
	id := b.AllocID()
	b.globalVars = append(b.globalVars,
		newInstructionBuilder().addWord(pointerType, id, uint32(storageClass)).build(OpVariable))
	return id
}

// AddVariableWithInit adds a module-scope OpVariable with an initializer.
func (b *ModuleBuilder) AddVariableWithInit(pointerType ID, storageClass StorageClass, initID ID) ID {
	id := b.AllocID()
	b.globalVars = append(b.globalVars,
		newInstructionBuilder().addWord(pointerType, id, uint32(storageClass), initID).build(OpVariable))
	return id
}

// AddLocalVariable adds a Function storage class OpVariable to the current
// function. It must directly follow the first label of the function.
func (b *ModuleBuilder) AddLocalVariable(pointerType ID) ID {
	id := b.AllocID()
	b.functions = append(b.functions,
		newInstructionBuilder().addWord(pointerType, id, uint32(StorageClassFunction)).build(OpVariable))
	return id
}

// AddFunction opens a function definition.
func (b *ModuleBuilder) AddFunction(funcType, returnType ID, control FunctionControl) ID {
	id := b.AllocID()
	b.functions = append(b.functions,
		newInstructionBuilder().addWord(returnType, id, uint32(control), funcType).build(OpFunction))
	return id
}

// AddFunctionParameter adds OpFunctionParameter.
func (b *ModuleBuilder) AddFunctionParameter(typeID ID) ID {
	id := b.AllocID()
	b.functions = append(b.functions, newInstructionBuilder().addWord(typeID, id).build(OpFunctionParameter))
	return id
}

// AddLabel starts a new block with a fresh label.
func (b *ModuleBuilder) AddLabel() ID {
	id := b.AllocID()
	b.AddLabelID(id)
	return id
}

// AddLabelID starts a new block with a label allocated earlier, which is
// how forward branch targets are built.
func (b *ModuleBuilder) AddLabelID(id ID) {
	b.functions = append(b.functions, newInstructionBuilder().addWord(id).build(OpLabel))
}

// AddReturn adds OpReturn.
func (b *ModuleBuilder) AddReturn() { b.AddStatement(OpReturn) }

// AddReturnValue adds OpReturnValue.
func (b *ModuleBuilder) AddReturnValue(valueID ID) { b.AddStatement(OpReturnValue, valueID) }

// AddFunctionEnd adds OpFunctionEnd.
func (b *ModuleBuilder) AddFunctionEnd() { b.AddStatement(OpFunctionEnd) }

// AddKill adds OpKill.
func (b *ModuleBuilder) AddKill() { b.AddStatement(OpKill) }

// AddStatement appends an instruction without a result to the current function.
func (b *ModuleBuilder) AddStatement(op OpCode, operands ...uint32) {
	b.functions = append(b.functions, newInstructionBuilder().addWord(operands...).build(op))
}

// AddOp appends an instruction of the form <result type> <result id>
// operands... to the current function and returns the result id.
func (b *ModuleBuilder) AddOp(op OpCode, resultType ID, operands ...uint32) ID {
	resultID := b.AllocID()
	b.functions = append(b.functions,
		newInstructionBuilder().addWord(resultType, resultID).addWord(operands...).build(op))
	return resultID
}

// AddBinaryOp adds a two-operand instruction.
func (b *ModuleBuilder) AddBinaryOp(opcode OpCode, resultType, left, right ID) ID {
	return b.AddOp(opcode, resultType, left, right)
}

// AddUnaryOp adds a one-operand instruction.
func (b *ModuleBuilder) AddUnaryOp(opcode OpCode, resultType, operand ID) ID {
	return b.AddOp(opcode, resultType, operand)
}

// AddLoad adds OpLoad.
func (b *ModuleBuilder) AddLoad(resultType, pointer ID) ID {
	return b.AddOp(OpLoad, resultType, pointer)
}

// AddStore adds OpStore.
func (b *ModuleBuilder) AddStore(pointer, value ID) { b.AddStatement(OpStore, pointer, value) }

// AddAccessChain adds OpAccessChain.
func (b *ModuleBuilder) AddAccessChain(resultType, base ID, indices ...ID) ID {
	return b.AddOp(OpAccessChain, resultType, append([]uint32{base}, indices...)...)
}

// AddCompositeConstruct adds OpCompositeConstruct.
func (b *ModuleBuilder) AddCompositeConstruct(resultType ID, constituents ...ID) ID {
	return b.AddOp(OpCompositeConstruct, resultType, constituents...)
}

// AddCompositeExtract adds OpCompositeExtract.
func (b *ModuleBuilder) AddCompositeExtract(resultType, composite ID, indices ...uint32) ID {
	return b.AddOp(OpCompositeExtract, resultType, append([]uint32{composite}, indices...)...)
}

// AddVectorShuffle adds OpVectorShuffle.
func (b *ModuleBuilder) AddVectorShuffle(resultType, vec1, vec2 ID, components ...uint32) ID {
	return b.AddOp(OpVectorShuffle, resultType, append([]uint32{vec1, vec2}, components...)...)
}

// AddSelect adds OpSelect.
func (b *ModuleBuilder) AddSelect(resultType, condition, accept, reject ID) ID {
	return b.AddOp(OpSelect, resultType, condition, accept, reject)
}

// AddFunctionCall adds OpFunctionCall.
func (b *ModuleBuilder) AddFunctionCall(resultType, function ID, args ...ID) ID {
	return b.AddOp(OpFunctionCall, resultType, append([]uint32{function}, args...)...)
}

// AddSampledImage adds OpSampledImage.
func (b *ModuleBuilder) AddSampledImage(resultType, image, sampler ID) ID {
	return b.AddOp(OpSampledImage, resultType, image, sampler)
}

// AddImageSampleImplicitLod adds OpImageSampleImplicitLod without image operands.
func (b *ModuleBuilder) AddImageSampleImplicitLod(resultType, sampledImage, coordinate ID) ID {
	return b.AddOp(OpImageSampleImplicitLod, resultType, sampledImage, coordinate)
}

// AddExtInst adds OpExtInst.
func (b *ModuleBuilder) AddExtInst(resultType, extSet ID, instruction uint32, operands ...ID) ID {
	return b.AddOp(OpExtInst, resultType, append([]uint32{extSet, instruction}, operands...)...)
}

// AddSelectionMerge adds OpSelectionMerge.
func (b *ModuleBuilder) AddSelectionMerge(mergeLabel ID, control SelectionControl) {
	b.AddStatement(OpSelectionMerge, mergeLabel, uint32(control))
}

// AddLoopMerge adds OpLoopMerge.
func (b *ModuleBuilder) AddLoopMerge(mergeLabel, continueLabel ID, control LoopControl) {
	b.AddStatement(OpLoopMerge, mergeLabel, continueLabel, uint32(control))
}

// AddBranch adds OpBranch.
func (b *ModuleBuilder) AddBranch(target ID) { b.AddStatement(OpBranch, target) }

// AddBranchConditional adds OpBranchConditional.
func (b *ModuleBuilder) AddBranchConditional(condition, trueLabel, falseLabel ID) {
	b.AddStatement(OpBranchConditional, condition, trueLabel, falseLabel)
}

// Build returns the module as words. The id bound is one past the last
// allocated id.
func (b *ModuleBuilder) Build() []uint32 {
	sections := [][]Instruction{
		b.capabilities,
		b.extensions,
		b.extInstImports,
		nil, // memory model
		b.entryPoints,
		b.executionModes,
		b.debugNames,
		b.annotations,
		b.types,
		b.globalVars,
		b.functions,
	}
	if b.memoryModel != nil {
		sections[3] = []Instruction{*b.memoryModel}
	}

	words := []uint32{MagicNumber, b.version.word(), b.generator, b.nextID, 0}
	for _, section := range sections {
		for _, inst := range section {
			words = append(words, inst.Encode()...)
		}
	}
	return words
}

// BuildBytes returns the module as little-endian bytes.
func (b *ModuleBuilder) BuildBytes() []byte {
	return WordsToBytes(b.Build())
}

// WordsToBytes serializes words in little-endian order.
func WordsToBytes(words []uint32) []byte {
	buf := make([]byte, len(words)*4)
	for i, w := range words {
		binary.LittleEndian.PutUint32(buf[i*4:], w)
	}
	return buf
}

func boolWord(v bool) uint32 {
	if v {
		return 1
	}
	return 0
}
