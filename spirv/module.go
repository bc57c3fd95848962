package spirv

import (
	"slices"
	"strings"
)

// Type is a decoded OpType* declaration. Only the fields relevant to Op are set.
type Type struct {
	ID ID
	Op OpCode

	// OpTypeInt, OpTypeFloat
	Width  uint32
	Signed bool

	// OpTypeVector, OpTypeMatrix: component (vector) or column (matrix) type.
	Component ID
	Count     uint32

	// OpTypeArray, OpTypeRuntimeArray, OpTypeSampledImage (image type).
	Element ID
	Length  ID // OpTypeArray length constant

	// OpTypeStruct
	Members []ID

	// OpTypePointer
	Storage StorageClass
	Pointee ID

	// OpTypeFunction
	Return ID
	Params []ID

	// OpTypeImage
	Image ImageFormat
}

// ImageFormat holds the operands of OpTypeImage.
type ImageFormat struct {
	SampledType  ID
	Dim          Dim
	Depth        uint32 // 0 no, 1 yes, 2 unknown
	Arrayed      bool
	Multisampled bool
	Sampled      uint32 // 1 sampled, 2 storage
	Format       uint32
}

// Constant is a regular, null or specialization constant.
type Constant struct {
	ID   ID
	Type ID
	Op   OpCode

	// Value holds the literal words of scalar constants. Booleans use one
	// word, 0 or 1.
	Value []uint32

	// Constituents holds the components of composite constants.
	Constituents []ID
}

// IsSpec reports whether the constant is a specialization constant.
func (c *Constant) IsSpec() bool {
	switch c.Op {
	case OpSpecConstant, OpSpecConstantTrue, OpSpecConstantFalse, OpSpecConstantComposite:
		return true
	}
	return false
}

// Variable is an OpVariable.
type Variable struct {
	ID      ID
	Type    ID // pointer type
	Storage StorageClass
	Init    ID // 0 when absent
}

// Param is an OpFunctionParameter.
type Param struct {
	ID   ID
	Type ID
}

// Block is a basic block. Body excludes the merge and terminator instructions.
type Block struct {
	Label      ID
	Body       []Instruction
	Merge      *Instruction
	Terminator Instruction
}

// Function is an OpFunction with its blocks in declaration order.
type Function struct {
	ID         ID
	ResultType ID
	Type       ID
	Params     []Param
	Blocks     []*Block
}

// EntryPoint is an OpEntryPoint together with its execution modes.
type EntryPoint struct {
	Model     ExecutionModel
	Function  ID
	Name      string
	Interface []ID
	Modes     map[ExecutionMode][]uint32
	LocalSize [3]uint32
}

// Module is the symbol table of a parsed module.
type Module struct {
	Header          Header
	Capabilities    []Capability
	Extensions      []string
	ExtInstImports  map[ID]string
	AddressingModel AddressingModel
	MemoryModel     MemoryModel
	EntryPoints     []*EntryPoint

	Names             map[ID]string
	MemberNames       map[ID]map[uint32]string
	Decorations       map[ID]map[Decoration][]uint32
	MemberDecorations map[ID]map[uint32]map[Decoration][]uint32

	Types     map[ID]*Type
	Constants map[ID]*Constant
	Variables []*Variable // module scope, declaration order
	Functions []*Function

	variables   map[ID]*Variable
	functions   map[ID]*Function
	resultTypes map[ID]ID
	defined     map[ID]OpCode
	constOrder  []ID
}

func newModule(h Header) *Module {
	return &Module{
		Header:            h,
		ExtInstImports:    make(map[ID]string),
		Names:             make(map[ID]string),
		MemberNames:       make(map[ID]map[uint32]string),
		Decorations:       make(map[ID]map[Decoration][]uint32),
		MemberDecorations: make(map[ID]map[uint32]map[Decoration][]uint32),
		Types:             make(map[ID]*Type),
		Constants:         make(map[ID]*Constant),
		variables:         make(map[ID]*Variable),
		functions:         make(map[ID]*Function),
		resultTypes:       make(map[ID]ID),
		defined:           make(map[ID]OpCode),
	}
}

// HasID reports whether id is declared by the module.
func (m *Module) HasID(id ID) bool {
	_, ok := m.defined[id]
	return ok
}

// DefiningOp returns the opcode of the instruction that declared id.
func (m *Module) DefiningOp(id ID) (OpCode, bool) {
	op, ok := m.defined[id]
	return op, ok
}

// Variable returns the module-scope variable with the given id.
func (m *Module) Variable(id ID) (*Variable, bool) {
	v, ok := m.variables[id]
	return v, ok
}

// Function returns the function with the given id.
func (m *Module) Function(id ID) (*Function, bool) {
	f, ok := m.functions[id]
	return f, ok
}

// ResultType returns the result type of a function-body instruction,
// constant, variable or parameter.
func (m *Module) ResultType(id ID) (ID, bool) {
	t, ok := m.resultTypes[id]
	return t, ok
}

// ConstantIDs returns constant ids in declaration order.
func (m *Module) ConstantIDs() []ID {
	return slices.Clone(m.constOrder)
}

// Name returns the debug name of id, or "" when it has none.
func (m *Module) Name(id ID) string {
	return m.Names[id]
}

// SetName replaces the debug name of id.
func (m *Module) SetName(id ID, name string) {
	m.Names[id] = name
}

// MemberName returns the debug name of a struct member.
func (m *Module) MemberName(structID ID, member uint32) string {
	return m.MemberNames[structID][member]
}

// SetMemberName replaces the debug name of a struct member.
func (m *Module) SetMemberName(structID ID, member uint32, name string) {
	names, ok := m.MemberNames[structID]
	if !ok {
		names = make(map[uint32]string)
		m.MemberNames[structID] = names
	}
	names[member] = name
}

// Decoration returns the first literal of a decoration. Flag decorations
// report 1 when present.
func (m *Module) Decoration(id ID, d Decoration) (uint32, bool) {
	return decorationValue(m.Decorations[id], d)
}

// HasDecoration reports whether id carries d.
func (m *Module) HasDecoration(id ID, d Decoration) bool {
	_, ok := m.Decorations[id][d]
	return ok
}

// SetDecoration sets or replaces a decoration. Flag decorations ignore value.
func (m *Module) SetDecoration(id ID, d Decoration, value uint32) {
	decs, ok := m.Decorations[id]
	if !ok {
		decs = make(map[Decoration][]uint32)
		m.Decorations[id] = decs
	}
	decs[d] = decorationOperands(d, value)
}

// UnsetDecoration removes a decoration.
func (m *Module) UnsetDecoration(id ID, d Decoration) {
	delete(m.Decorations[id], d)
}

// MemberDecoration returns the first literal of a member decoration.
func (m *Module) MemberDecoration(structID ID, member uint32, d Decoration) (uint32, bool) {
	return decorationValue(m.MemberDecorations[structID][member], d)
}

// SetMemberDecoration sets or replaces a member decoration.
func (m *Module) SetMemberDecoration(structID ID, member uint32, d Decoration, value uint32) {
	members, ok := m.MemberDecorations[structID]
	if !ok {
		members = make(map[uint32]map[Decoration][]uint32)
		m.MemberDecorations[structID] = members
	}
	decs, ok := members[member]
	if !ok {
		decs = make(map[Decoration][]uint32)
		members[member] = decs
	}
	decs[d] = decorationOperands(d, value)
}

func decorationValue(decs map[Decoration][]uint32, d Decoration) (uint32, bool) {
	operands, ok := decs[d]
	if !ok {
		return 0, false
	}
	if len(operands) == 0 {
		return 1, true
	}
	return operands[0], true
}

func decorationOperands(d Decoration, value uint32) []uint32 {
	if d.isFlag() {
		return nil
	}
	return []uint32{value}
}

// EntryPoint finds an entry point by name and execution model.
func (m *Module) EntryPoint(name string, model ExecutionModel) (*EntryPoint, bool) {
	for _, ep := range m.EntryPoints {
		if ep.Name == name && ep.Model == model {
			return ep, true
		}
	}
	return nil, false
}

// Parse decodes words and builds the module's symbol table. Instructions
// outside the supported set are rejected.
func Parse(words []uint32) (*Module, error) {
	h, insts, err := Decode(words)
	if err != nil {
		return nil, err
	}
	p := &parser{m: newModule(h), groups: make(map[ID]map[Decoration][]uint32)}
	for _, inst := range insts {
		if err := p.instruction(inst); err != nil {
			return nil, err
		}
	}
	if p.fn != nil {
		return nil, errorf(-1, "function %%%d is missing OpFunctionEnd", p.fn.ID)
	}
	for _, ep := range p.m.EntryPoints {
		if _, ok := p.m.functions[ep.Function]; !ok {
			return nil, errorf(-1, "entry point %q names undefined function %%%d", ep.Name, ep.Function)
		}
	}
	return p.m, nil
}

type parser struct {
	m      *Module
	fn     *Function
	block  *Block
	groups map[ID]map[Decoration][]uint32
}

func (p *parser) define(inst Instruction, id ID) error {
	if id == 0 || id >= p.m.Header.Bound {
		return errorf(inst.Offset, "%s: result id %d outside bound %d", inst.Opcode, id, p.m.Header.Bound)
	}
	if _, dup := p.m.defined[id]; dup {
		return errorf(inst.Offset, "%s: result id %%%d redefined", inst.Opcode, id)
	}
	p.m.defined[id] = inst.Opcode
	return nil
}

func (p *parser) need(inst Instruction, n int) error {
	if len(inst.Operands) < n {
		return errorf(inst.Offset, "%s needs at least %d operands, got %d", inst.Opcode, n, len(inst.Operands))
	}
	return nil
}

func (p *parser) instruction(inst Instruction) error {
	if p.fn != nil {
		return p.functionInstruction(inst)
	}

	switch inst.Opcode {
	case OpNop, OpSource, OpSourceContinued, OpSourceExtension, OpString,
		OpLine, OpNoLine, OpModuleProcessed:
		if inst.Opcode == OpString {
			return p.define(inst, inst.operand(0))
		}
		return nil

	case OpCapability:
		if err := p.need(inst, 1); err != nil {
			return err
		}
		capability := Capability(inst.Operands[0])
		if capability == 6 { // Kernel
			return errorf(inst.Offset, "capability %s is not supported", capability)
		}
		p.m.Capabilities = append(p.m.Capabilities, capability)
		return nil

	case OpExtension:
		name, _ := inst.String(0)
		p.m.Extensions = append(p.m.Extensions, name)
		return nil

	case OpExtInstImport:
		if err := p.need(inst, 2); err != nil {
			return err
		}
		name, _ := inst.String(1)
		if name != GLSLStd450 {
			return errorf(inst.Offset, "extended instruction set %q is not supported", name)
		}
		p.m.ExtInstImports[inst.Operands[0]] = name
		return p.define(inst, inst.Operands[0])

	case OpMemoryModel:
		if err := p.need(inst, 2); err != nil {
			return err
		}
		p.m.AddressingModel = AddressingModel(inst.Operands[0])
		p.m.MemoryModel = MemoryModel(inst.Operands[1])
		if p.m.AddressingModel != AddressingLogical {
			return errorf(inst.Offset, "addressing model %d is not supported", inst.Operands[0])
		}
		return nil

	case OpEntryPoint:
		if err := p.need(inst, 3); err != nil {
			return err
		}
		name, n := inst.String(2)
		ep := &EntryPoint{
			Model:     ExecutionModel(inst.Operands[0]),
			Function:  inst.Operands[1],
			Name:      name,
			Interface: slices.Clone(inst.Operands[2+n:]),
			Modes:     make(map[ExecutionMode][]uint32),
		}
		p.m.EntryPoints = append(p.m.EntryPoints, ep)
		return nil

	case OpExecutionMode:
		if err := p.need(inst, 2); err != nil {
			return err
		}
		mode := ExecutionMode(inst.Operands[1])
		params := slices.Clone(inst.Operands[2:])
		found := false
		for _, ep := range p.m.EntryPoints {
			if ep.Function != inst.Operands[0] {
				continue
			}
			found = true
			ep.Modes[mode] = params
			if mode == ExecutionModeLocalSize && len(params) >= 3 {
				ep.LocalSize = [3]uint32{params[0], params[1], params[2]}
			}
		}
		if !found {
			return errorf(inst.Offset, "execution mode for %%%d, which is not an entry point", inst.Operands[0])
		}
		return nil

	case OpName:
		if err := p.need(inst, 1); err != nil {
			return err
		}
		name, _ := inst.String(1)
		p.m.Names[inst.Operands[0]] = name
		return nil

	case OpMemberName:
		if err := p.need(inst, 2); err != nil {
			return err
		}
		name, _ := inst.String(2)
		p.m.SetMemberName(inst.Operands[0], inst.Operands[1], name)
		return nil

	case OpDecorate:
		if err := p.need(inst, 2); err != nil {
			return err
		}
		p.decorate(inst.Operands[0], Decoration(inst.Operands[1]), inst.Operands[2:])
		return nil

	case OpMemberDecorate:
		if err := p.need(inst, 3); err != nil {
			return err
		}
		p.memberDecorate(inst.Operands[0], inst.Operands[1], Decoration(inst.Operands[2]), inst.Operands[3:])
		return nil

	case OpDecorationGroup:
		if err := p.need(inst, 1); err != nil {
			return err
		}
		group := inst.Operands[0]
		p.groups[group] = p.m.Decorations[group]
		delete(p.m.Decorations, group)
		return p.define(inst, group)

	case OpGroupDecorate:
		if err := p.need(inst, 1); err != nil {
			return err
		}
		decs, ok := p.groups[inst.Operands[0]]
		if !ok {
			return errorf(inst.Offset, "OpGroupDecorate names unknown group %%%d", inst.Operands[0])
		}
		for _, target := range inst.Operands[1:] {
			for d, operands := range decs {
				p.decorate(target, d, operands)
			}
		}
		return nil

	case OpGroupMemberDecorate:
		if err := p.need(inst, 1); err != nil {
			return err
		}
		decs, ok := p.groups[inst.Operands[0]]
		if !ok {
			return errorf(inst.Offset, "OpGroupMemberDecorate names unknown group %%%d", inst.Operands[0])
		}
		pairs := inst.Operands[1:]
		for i := 0; i+1 < len(pairs); i += 2 {
			for d, operands := range decs {
				p.memberDecorate(pairs[i], pairs[i+1], d, operands)
			}
		}
		return nil

	case OpTypeVoid, OpTypeBool, OpTypeInt, OpTypeFloat, OpTypeVector, OpTypeMatrix,
		OpTypeImage, OpTypeSampler, OpTypeSampledImage, OpTypeArray, OpTypeRuntimeArray,
		OpTypeStruct, OpTypePointer, OpTypeFunction:
		return p.typeDecl(inst)

	case OpConstantTrue, OpConstantFalse, OpConstant, OpConstantComposite, OpConstantNull,
		OpSpecConstantTrue, OpSpecConstantFalse, OpSpecConstant, OpSpecConstantComposite, OpUndef:
		return p.constant(inst)

	case OpVariable:
		if err := p.need(inst, 3); err != nil {
			return err
		}
		v := &Variable{ID: inst.Operands[1], Type: inst.Operands[0], Storage: StorageClass(inst.Operands[2])}
		if len(inst.Operands) > 3 {
			v.Init = inst.Operands[3]
		}
		if v.Storage == StorageClassFunction {
			return errorf(inst.Offset, "Function storage class variable %%%d at module scope", v.ID)
		}
		if err := p.define(inst, v.ID); err != nil {
			return err
		}
		p.m.Variables = append(p.m.Variables, v)
		p.m.variables[v.ID] = v
		p.m.resultTypes[v.ID] = v.Type
		return nil

	case OpFunction:
		if err := p.need(inst, 4); err != nil {
			return err
		}
		fn := &Function{ResultType: inst.Operands[0], ID: inst.Operands[1], Type: inst.Operands[3]}
		if err := p.define(inst, fn.ID); err != nil {
			return err
		}
		p.fn = fn
		return nil
	}

	return errorf(inst.Offset, "unsupported instruction %s at module scope", inst.Opcode)
}

func (p *parser) decorate(id ID, d Decoration, operands []uint32) {
	decs, ok := p.m.Decorations[id]
	if !ok {
		decs = make(map[Decoration][]uint32)
		p.m.Decorations[id] = decs
	}
	decs[d] = slices.Clone(operands)
}

func (p *parser) memberDecorate(structID ID, member uint32, d Decoration, operands []uint32) {
	var value uint32
	if len(operands) > 0 {
		value = operands[0]
	}
	p.m.SetMemberDecoration(structID, member, d, value)
	if len(operands) > 1 {
		p.m.MemberDecorations[structID][member][d] = slices.Clone(operands)
	}
}

func (p *parser) typeDecl(inst Instruction) error {
	if err := p.need(inst, 1); err != nil {
		return err
	}
	t := &Type{ID: inst.Operands[0], Op: inst.Opcode}
	ops := inst.Operands[1:]
	want := map[OpCode]int{
		OpTypeInt: 2, OpTypeFloat: 1, OpTypeVector: 2, OpTypeMatrix: 2, OpTypeImage: 7,
		OpTypeSampledImage: 1, OpTypeArray: 2, OpTypeRuntimeArray: 1, OpTypePointer: 2, OpTypeFunction: 1,
	}[inst.Opcode]
	if len(ops) < want {
		return errorf(inst.Offset, "%s needs %d operands after the result id, got %d", inst.Opcode, want, len(ops))
	}

	switch inst.Opcode {
	case OpTypeInt:
		t.Width, t.Signed = ops[0], ops[1] != 0
	case OpTypeFloat:
		t.Width = ops[0]
	case OpTypeVector, OpTypeMatrix:
		t.Component, t.Count = ops[0], ops[1]
	case OpTypeImage:
		t.Image = ImageFormat{
			SampledType:  ops[0],
			Dim:          Dim(ops[1]),
			Depth:        ops[2],
			Arrayed:      ops[3] != 0,
			Multisampled: ops[4] != 0,
			Sampled:      ops[5],
			Format:       ops[6],
		}
	case OpTypeSampledImage, OpTypeRuntimeArray:
		t.Element = ops[0]
	case OpTypeArray:
		t.Element, t.Length = ops[0], ops[1]
	case OpTypeStruct:
		t.Members = slices.Clone(ops)
	case OpTypePointer:
		t.Storage, t.Pointee = StorageClass(ops[0]), ops[1]
	case OpTypeFunction:
		t.Return, t.Params = ops[0], slices.Clone(ops[1:])
	}

	if err := p.define(inst, t.ID); err != nil {
		return err
	}
	p.m.Types[t.ID] = t
	return nil
}

func (p *parser) constant(inst Instruction) error {
	if err := p.need(inst, 2); err != nil {
		return err
	}
	c := &Constant{Type: inst.Operands[0], ID: inst.Operands[1], Op: inst.Opcode}
	rest := inst.Operands[2:]
	switch inst.Opcode {
	case OpConstantTrue, OpSpecConstantTrue:
		c.Value = []uint32{1}
	case OpConstantFalse, OpSpecConstantFalse:
		c.Value = []uint32{0}
	case OpConstant, OpSpecConstant:
		if len(rest) == 0 {
			return errorf(inst.Offset, "%s without a value", inst.Opcode)
		}
		c.Value = slices.Clone(rest)
	case OpConstantComposite, OpSpecConstantComposite:
		c.Constituents = slices.Clone(rest)
	}
	if err := p.define(inst, c.ID); err != nil {
		return err
	}
	p.m.Constants[c.ID] = c
	p.m.constOrder = append(p.m.constOrder, c.ID)
	p.m.resultTypes[c.ID] = c.Type
	return nil
}

// functionOps lists the function-body instructions the front-end lowers.
var functionOps = map[OpCode]bool{
	OpUndef: true, OpLine: true, OpNoLine: true, OpNop: true,
	OpVariable: true, OpLoad: true, OpStore: true, OpAccessChain: true, OpInBoundsAccessChain: true,
	OpCopyObject: true, OpArrayLength: true,
	OpCompositeConstruct: true, OpCompositeExtract: true, OpVectorShuffle: true,
	OpVectorExtractDynamic: true, OpTranspose: true,
	OpSNegate: true, OpFNegate: true, OpIAdd: true, OpFAdd: true, OpISub: true, OpFSub: true,
	OpIMul: true, OpFMul: true, OpUDiv: true, OpSDiv: true, OpFDiv: true, OpUMod: true,
	OpSRem: true, OpSMod: true, OpFRem: true, OpFMod: true,
	OpVectorTimesScalar: true, OpMatrixTimesScalar: true, OpVectorTimesMatrix: true,
	OpMatrixTimesVector: true, OpMatrixTimesMatrix: true, OpOuterProduct: true, OpDot: true,
	OpAny: true, OpAll: true, OpIsNan: true, OpIsInf: true,
	OpLogicalEqual: true, OpLogicalNotEqual: true, OpLogicalOr: true, OpLogicalAnd: true,
	OpLogicalNot: true, OpSelect: true,
	OpIEqual: true, OpINotEqual: true, OpUGreaterThan: true, OpSGreaterThan: true,
	OpUGreaterThanEqual: true, OpSGreaterThanEqual: true, OpULessThan: true, OpSLessThan: true,
	OpULessThanEqual: true, OpSLessThanEqual: true,
	OpFOrdEqual: true, OpFUnordEqual: true, OpFOrdNotEqual: true, OpFUnordNotEqual: true,
	OpFOrdLessThan: true, OpFUnordLessThan: true, OpFOrdGreaterThan: true, OpFUnordGreaterThan: true,
	OpFOrdLessThanEqual: true, OpFUnordLessThanEqual: true, OpFOrdGreaterThanEqual: true,
	OpFUnordGreaterThanEqual: true,
	OpShiftRightLogical:      true, OpShiftRightArithmetic: true, OpShiftLeftLogical: true,
	OpBitwiseOr: true, OpBitwiseXor: true, OpBitwiseAnd: true, OpNot: true,
	OpBitReverse: true, OpBitCount: true,
	OpConvertFToU: true, OpConvertFToS: true, OpConvertSToF: true, OpConvertUToF: true,
	OpUConvert: true, OpSConvert: true, OpFConvert: true, OpBitcast: true,
	OpDPdx: true, OpDPdy: true, OpFwidth: true, OpDPdxFine: true, OpDPdyFine: true,
	OpFwidthFine: true, OpDPdxCoarse: true, OpDPdyCoarse: true, OpFwidthCoarse: true,
	OpExtInst:      true,
	OpSampledImage: true, OpImage: true, OpImageSampleImplicitLod: true, OpImageSampleExplicitLod: true,
	OpImageSampleDrefImplicitLod: true, OpImageSampleDrefExplicitLod: true,
	OpImageFetch: true, OpImageGather: true, OpImageRead: true, OpImageWrite: true,
	OpImageQuerySizeLod: true, OpImageQuerySize: true, OpImageQueryLevels: true, OpImageQuerySamples: true,
	OpFunctionCall: true, OpControlBarrier: true, OpMemoryBarrier: true,
}

// noResultOps lists supported body instructions that produce no result id.
var noResultOps = map[OpCode]bool{
	OpStore: true, OpImageWrite: true, OpControlBarrier: true, OpMemoryBarrier: true,
	OpLine: true, OpNoLine: true, OpNop: true,
}

func (p *parser) functionInstruction(inst Instruction) error {
	switch inst.Opcode {
	case OpFunctionParameter:
		if err := p.need(inst, 2); err != nil {
			return err
		}
		if p.block != nil || len(p.fn.Blocks) > 0 {
			return errorf(inst.Offset, "OpFunctionParameter after the first block")
		}
		if err := p.define(inst, inst.Operands[1]); err != nil {
			return err
		}
		p.fn.Params = append(p.fn.Params, Param{ID: inst.Operands[1], Type: inst.Operands[0]})
		p.m.resultTypes[inst.Operands[1]] = inst.Operands[0]
		return nil

	case OpFunctionEnd:
		if p.block != nil {
			return errorf(inst.Offset, "block %%%d of function %%%d has no terminator", p.block.Label, p.fn.ID)
		}
		p.m.Functions = append(p.m.Functions, p.fn)
		p.m.functions[p.fn.ID] = p.fn
		p.fn = nil
		return nil

	case OpLabel:
		if err := p.need(inst, 1); err != nil {
			return err
		}
		if p.block != nil {
			return errorf(inst.Offset, "block %%%d has no terminator", p.block.Label)
		}
		if err := p.define(inst, inst.Operands[0]); err != nil {
			return err
		}
		p.block = &Block{Label: inst.Operands[0]}
		return nil
	}

	if p.block == nil {
		return errorf(inst.Offset, "%s outside a block", inst.Opcode)
	}

	switch inst.Opcode {
	case OpSelectionMerge, OpLoopMerge:
		if p.block.Merge != nil {
			return errorf(inst.Offset, "block %%%d has two merge instructions", p.block.Label)
		}
		merge := inst
		p.block.Merge = &merge
		return nil

	case OpBranch, OpBranchConditional, OpReturn, OpReturnValue, OpKill,
		OpUnreachable, OpTerminateInvocation:
		p.block.Terminator = inst
		p.fn.Blocks = append(p.fn.Blocks, p.block)
		p.block = nil
		return nil
	}

	if !functionOps[inst.Opcode] {
		return errorf(inst.Offset, "unsupported instruction %s", inst.Opcode)
	}
	if inst.Opcode == OpExtInst {
		if set := inst.operand(2); p.m.ExtInstImports[set] == "" {
			return errorf(inst.Offset, "OpExtInst uses unknown instruction set %%%d", set)
		}
	}
	if !noResultOps[inst.Opcode] {
		if err := p.need(inst, 2); err != nil {
			return err
		}
		if err := p.define(inst, inst.Operands[1]); err != nil {
			return err
		}
		p.m.resultTypes[inst.Operands[1]] = inst.Operands[0]
	}
	p.block.Body = append(p.block.Body, inst)
	return nil
}

// cleanName strips the mangled signature some compilers append to function
// names, as in "shade(vf4;".
func cleanName(name string) string {
	if i := strings.IndexByte(name, '('); i >= 0 {
		return name[:i]
	}
	return name
}
