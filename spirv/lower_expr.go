package spirv

import (
	"github.com/gogpu/naga/ir"
)

var binaryOps = map[OpCode]ir.BinaryOperator{
	OpIAdd: ir.BinaryAdd, OpFAdd: ir.BinaryAdd,
	OpISub: ir.BinarySubtract, OpFSub: ir.BinarySubtract,
	OpIMul: ir.BinaryMultiply, OpFMul: ir.BinaryMultiply,
	OpVectorTimesScalar: ir.BinaryMultiply, OpMatrixTimesScalar: ir.BinaryMultiply,
	OpVectorTimesMatrix: ir.BinaryMultiply, OpMatrixTimesVector: ir.BinaryMultiply,
	OpMatrixTimesMatrix: ir.BinaryMultiply,
	OpUDiv:              ir.BinaryDivide, OpSDiv: ir.BinaryDivide, OpFDiv: ir.BinaryDivide,
	OpUMod: ir.BinaryModulo, OpSRem: ir.BinaryModulo, OpSMod: ir.BinaryModulo,
	OpFRem: ir.BinaryModulo, OpFMod: ir.BinaryModulo,

	OpLogicalEqual: ir.BinaryEqual, OpLogicalNotEqual: ir.BinaryNotEqual,
	OpLogicalOr: ir.BinaryLogicalOr, OpLogicalAnd: ir.BinaryLogicalAnd,

	OpIEqual: ir.BinaryEqual, OpINotEqual: ir.BinaryNotEqual,
	OpUGreaterThan: ir.BinaryGreater, OpSGreaterThan: ir.BinaryGreater,
	OpUGreaterThanEqual: ir.BinaryGreaterEqual, OpSGreaterThanEqual: ir.BinaryGreaterEqual,
	OpULessThan: ir.BinaryLess, OpSLessThan: ir.BinaryLess,
	OpULessThanEqual: ir.BinaryLessEqual, OpSLessThanEqual: ir.BinaryLessEqual,
	OpFOrdEqual: ir.BinaryEqual, OpFUnordEqual: ir.BinaryEqual,
	OpFOrdNotEqual: ir.BinaryNotEqual, OpFUnordNotEqual: ir.BinaryNotEqual,
	OpFOrdLessThan: ir.BinaryLess, OpFUnordLessThan: ir.BinaryLess,
	OpFOrdGreaterThan: ir.BinaryGreater, OpFUnordGreaterThan: ir.BinaryGreater,
	OpFOrdLessThanEqual: ir.BinaryLessEqual, OpFUnordLessThanEqual: ir.BinaryLessEqual,
	OpFOrdGreaterThanEqual: ir.BinaryGreaterEqual, OpFUnordGreaterThanEqual: ir.BinaryGreaterEqual,

	OpShiftLeftLogical: ir.BinaryShiftLeft,
	OpBitwiseOr:        ir.BinaryInclusiveOr, OpBitwiseXor: ir.BinaryExclusiveOr, OpBitwiseAnd: ir.BinaryAnd,
}

var unaryOps = map[OpCode]ir.UnaryOperator{
	OpSNegate: ir.UnaryNegate, OpFNegate: ir.UnaryNegate,
	OpNot: ir.UnaryBitwiseNot, OpLogicalNot: ir.UnaryLogicalNot,
}

var relationalOps = map[OpCode]ir.RelationalFunction{
	OpAny: ir.RelationalAny, OpAll: ir.RelationalAll,
	OpIsNan: ir.RelationalIsNan, OpIsInf: ir.RelationalIsInf,
}

type derivative struct {
	axis    ir.DerivativeAxis
	control ir.DerivativeControl
}

var derivativeOps = map[OpCode]derivative{
	OpDPdx:         {ir.DerivativeX, ir.DerivativeNone},
	OpDPdy:         {ir.DerivativeY, ir.DerivativeNone},
	OpFwidth:       {ir.DerivativeWidth, ir.DerivativeNone},
	OpDPdxFine:     {ir.DerivativeX, ir.DerivativeFine},
	OpDPdyFine:     {ir.DerivativeY, ir.DerivativeFine},
	OpFwidthFine:   {ir.DerivativeWidth, ir.DerivativeFine},
	OpDPdxCoarse:   {ir.DerivativeX, ir.DerivativeCoarse},
	OpDPdyCoarse:   {ir.DerivativeY, ir.DerivativeCoarse},
	OpFwidthCoarse: {ir.DerivativeWidth, ir.DerivativeCoarse},
}

// conversions maps conversion opcodes to the scalar kind they produce.
var conversions = map[OpCode]ir.ScalarKind{
	OpConvertFToU: ir.ScalarUint, OpConvertFToS: ir.ScalarSint,
	OpConvertSToF: ir.ScalarFloat, OpConvertUToF: ir.ScalarFloat,
	OpUConvert: ir.ScalarUint, OpSConvert: ir.ScalarSint, OpFConvert: ir.ScalarFloat,
}

// glslStd450 maps GLSL.std.450 instruction numbers to math functions.
var glslStd450 = map[uint32]ir.MathFunction{
	1: ir.MathRound, 2: ir.MathRound, 3: ir.MathTrunc,
	4: ir.MathAbs, 5: ir.MathAbs, 6: ir.MathSign, 7: ir.MathSign,
	8: ir.MathFloor, 9: ir.MathCeil, 10: ir.MathFract,
	11: ir.MathRadians, 12: ir.MathDegrees,
	13: ir.MathSin, 14: ir.MathCos, 15: ir.MathTan,
	16: ir.MathAsin, 17: ir.MathAcos, 18: ir.MathAtan,
	19: ir.MathSinh, 20: ir.MathCosh, 21: ir.MathTanh,
	22: ir.MathAsinh, 23: ir.MathAcosh, 24: ir.MathAtanh, 25: ir.MathAtan2,
	26: ir.MathPow, 27: ir.MathExp, 28: ir.MathLog, 29: ir.MathExp2, 30: ir.MathLog2,
	31: ir.MathSqrt, 32: ir.MathInverseSqrt,
	33: ir.MathDeterminant, 34: ir.MathInverse,
	37: ir.MathMin, 38: ir.MathMin, 39: ir.MathMin,
	40: ir.MathMax, 41: ir.MathMax, 42: ir.MathMax,
	43: ir.MathClamp, 44: ir.MathClamp, 45: ir.MathClamp,
	46: ir.MathMix, 48: ir.MathStep, 49: ir.MathSmoothStep, 50: ir.MathFma,
	53: ir.MathLdexp,
	66: ir.MathLength, 67: ir.MathDistance, 68: ir.MathCross, 69: ir.MathNormalize,
	70: ir.MathFaceForward, 71: ir.MathReflect, 72: ir.MathRefract,
	73: ir.MathFirstTrailingBit, 74: ir.MathFirstLeadingBit, 75: ir.MathFirstLeadingBit,
	79: ir.MathMin, 80: ir.MathMax, 81: ir.MathClamp,
}

// componentScalar returns the scalar type of a scalar or vector type.
func (l *lowerer) componentScalar(id ID) (ir.ScalarType, error) {
	if t := l.m.Types[id]; t != nil && t.Op == OpTypeVector {
		id = t.Component
	}
	return l.scalarType(id)
}

// elementType returns the type reached by indexing a composite type.
func (l *lowerer) elementType(id ID, index uint32) (ID, error) {
	t := l.m.Types[id]
	if t == nil {
		return 0, errorf(-1, "%%%d is not a type", id)
	}
	switch t.Op {
	case OpTypeStruct:
		if int(index) >= len(t.Members) {
			return 0, errorf(-1, "member %d is out of range for struct %%%d", index, id)
		}
		return t.Members[index], nil
	case OpTypeArray, OpTypeRuntimeArray:
		return t.Element, nil
	case OpTypeVector, OpTypeMatrix:
		return t.Component, nil
	}
	return 0, errorf(-1, "%s %%%d cannot be indexed", t.Op, id)
}

func (f *funcLowerer) instructions(body []Instruction) error {
	for _, inst := range body {
		if err := f.instruction(inst); err != nil {
			if _, ok := err.(*Error); ok {
				return err
			}
			return errorf(inst.Offset, "%s: %v", inst.Opcode, err)
		}
	}
	f.flush()
	return nil
}

// define lowers the result type of inst, appends an emitted expression and
// binds it to the result id.
func (f *funcLowerer) define(inst Instruction, kind ir.ExpressionKind) error {
	ty, err := f.l.lowerType(inst.operand(0))
	if err != nil {
		return err
	}
	f.values[inst.operand(1)] = value{expr: f.expr(kind, ty), typ: inst.operand(0)}
	return nil
}

func (f *funcLowerer) exprs(ids []uint32) ([]ir.ExpressionHandle, error) {
	out := make([]ir.ExpressionHandle, len(ids))
	for i, id := range ids {
		e, err := f.exprOf(id)
		if err != nil {
			return nil, err
		}
		out[i] = e
	}
	return out, nil
}

// minOperands lists operand counts the lowering indexes without checking.
var minOperands = map[OpCode]int{
	OpStore: 2, OpMemoryBarrier: 2, OpControlBarrier: 3, OpImageWrite: 3,
	OpLoad: 3, OpCopyObject: 3, OpTranspose: 3, OpBitReverse: 3, OpBitCount: 3,
	OpBitcast: 3, OpImage: 3, OpImageQuerySize: 3, OpImageQueryLevels: 3, OpImageQuerySamples: 3,
	OpAccessChain: 3, OpInBoundsAccessChain: 3, OpFunctionCall: 3, OpVariable: 3,
	OpVectorExtractDynamic: 4, OpDot: 4, OpOuterProduct: 4, OpExtInst: 4, OpVectorShuffle: 4,
	OpShiftRightLogical: 4, OpShiftRightArithmetic: 4, OpArrayLength: 4, OpSampledImage: 4,
	OpImageSampleImplicitLod: 4, OpImageSampleExplicitLod: 4, OpImageFetch: 4, OpImageRead: 4,
	OpImageQuerySizeLod: 4, OpImageSampleDrefImplicitLod: 5, OpImageSampleDrefExplicitLod: 5,
	OpImageGather: 5, OpSelect: 5,
}

func operandCount(op OpCode) int {
	if n, ok := minOperands[op]; ok {
		return n
	}
	if _, ok := binaryOps[op]; ok {
		return 4
	}
	_, unary := unaryOps[op]
	_, relational := relationalOps[op]
	_, deriv := derivativeOps[op]
	_, conv := conversions[op]
	if unary || relational || deriv || conv {
		return 3
	}
	return 0
}

func (f *funcLowerer) instruction(inst Instruction) error {
	ops := inst.Operands
	if len(ops) < operandCount(inst.Opcode) {
		return errorf(inst.Offset, "%s needs %d operands, got %d", inst.Opcode, operandCount(inst.Opcode), len(ops))
	}
	if op, ok := binaryOps[inst.Opcode]; ok {
		args, err := f.exprs(ops[2:4])
		if err != nil {
			return err
		}
		return f.define(inst, ir.ExprBinary{Op: op, Left: args[0], Right: args[1]})
	}
	if op, ok := unaryOps[inst.Opcode]; ok {
		e, err := f.exprOf(inst.operand(2))
		if err != nil {
			return err
		}
		return f.define(inst, ir.ExprUnary{Op: op, Expr: e})
	}
	if fun, ok := relationalOps[inst.Opcode]; ok {
		e, err := f.exprOf(inst.operand(2))
		if err != nil {
			return err
		}
		return f.define(inst, ir.ExprRelational{Fun: fun, Argument: e})
	}
	if d, ok := derivativeOps[inst.Opcode]; ok {
		e, err := f.exprOf(inst.operand(2))
		if err != nil {
			return err
		}
		return f.define(inst, ir.ExprDerivative{Axis: d.axis, Control: d.control, Expr: e})
	}
	if kind, ok := conversions[inst.Opcode]; ok {
		return f.convert(inst, kind)
	}

	switch inst.Opcode {
	case OpNop, OpLine, OpNoLine:
		return nil

	case OpUndef:
		ty, err := f.l.lowerType(inst.operand(0))
		if err != nil {
			return err
		}
		f.values[inst.operand(1)] = value{expr: f.inline(ir.ExprZeroValue{Type: ty}, ty), typ: inst.operand(0)}
		return nil

	case OpVariable:
		ptr := f.l.m.Types[inst.operand(0)]
		if ptr == nil || ptr.Op != OpTypePointer {
			return errorf(inst.Offset, "variable %%%d does not have a pointer type", inst.operand(1))
		}
		ty, err := f.l.lowerType(ptr.Pointee)
		if err != nil {
			return err
		}
		local, err := f.localVariable(f.l.m.Names[inst.operand(1)], ty, inst.operand(3))
		if err != nil {
			return err
		}
		f.values[inst.operand(1)] = value{kind: kindPointer, expr: local, typ: ptr.Pointee}
		return nil

	case OpLoad:
		return f.load(inst)

	case OpStore:
		ptr, err := f.operand(inst.operand(0))
		if err != nil {
			return err
		}
		if ptr.kind != kindPointer {
			return errorf(inst.Offset, "store through %%%d, which is not a writable pointer", inst.operand(0))
		}
		v, err := f.exprOf(inst.operand(1))
		if err != nil {
			return err
		}
		f.stmt(ir.StmtStore{Pointer: ptr.expr, Value: v})
		return nil

	case OpAccessChain, OpInBoundsAccessChain:
		return f.accessChain(inst)

	case OpCopyObject:
		v, err := f.operand(inst.operand(2))
		if err != nil {
			return err
		}
		f.values[inst.operand(1)] = v
		return nil

	case OpArrayLength:
		base, err := f.operand(inst.operand(2))
		if err != nil {
			return err
		}
		if base.kind != kindPointer {
			return errorf(inst.Offset, "array length of %%%d, which is not a buffer", inst.operand(2))
		}
		member := inst.operand(3)
		memberType, err := f.l.elementType(base.typ, member)
		if err != nil {
			return err
		}
		memberTy, err := f.l.lowerType(memberType)
		if err != nil {
			return err
		}
		array := f.inline(ir.ExprAccessIndex{Base: base.expr, Index: member}, memberTy)
		return f.define(inst, ir.ExprArrayLength{Array: array})

	case OpCompositeConstruct:
		comps, err := f.exprs(ops[2:])
		if err != nil {
			return err
		}
		ty, err := f.l.lowerType(inst.operand(0))
		if err != nil {
			return err
		}
		return f.define(inst, ir.ExprCompose{Type: ty, Components: comps})

	case OpCompositeExtract:
		v, err := f.operand(inst.operand(2))
		if err != nil {
			return err
		}
		if v.kind != kindValue {
			return errorf(inst.Offset, "%%%d is not a composite value", inst.operand(2))
		}
		for _, index := range ops[3:] {
			if v.typ, err = f.l.elementType(v.typ, index); err != nil {
				return err
			}
			ty, err := f.l.lowerType(v.typ)
			if err != nil {
				return err
			}
			v.expr = f.expr(ir.ExprAccessIndex{Base: v.expr, Index: index}, ty)
		}
		f.values[inst.operand(1)] = v
		return nil

	case OpVectorShuffle:
		return f.vectorShuffle(inst)

	case OpVectorExtractDynamic:
		args, err := f.exprs(ops[2:4])
		if err != nil {
			return err
		}
		return f.define(inst, ir.ExprAccess{Base: args[0], Index: args[1]})

	case OpTranspose:
		return f.math(inst, ir.MathTranspose, ops[2:3])
	case OpDot:
		return f.math(inst, ir.MathDot, ops[2:4])
	case OpOuterProduct:
		return f.math(inst, ir.MathOuter, ops[2:4])
	case OpBitReverse:
		return f.math(inst, ir.MathReverseBits, ops[2:3])
	case OpBitCount:
		return f.math(inst, ir.MathCountOneBits, ops[2:3])

	case OpExtInst:
		fun, ok := glslStd450[inst.operand(3)]
		if !ok {
			return errorf(inst.Offset, "GLSL.std.450 instruction %d is not supported", inst.operand(3))
		}
		return f.math(inst, fun, ops[4:])

	case OpSelect:
		args, err := f.exprs(ops[2:5])
		if err != nil {
			return err
		}
		return f.define(inst, ir.ExprSelect{Condition: args[0], Accept: args[1], Reject: args[2]})

	case OpShiftRightLogical, OpShiftRightArithmetic:
		return f.shiftRight(inst)

	case OpBitcast:
		e, err := f.exprOf(inst.operand(2))
		if err != nil {
			return err
		}
		s, err := f.l.componentScalar(inst.operand(0))
		if err != nil {
			return err
		}
		return f.define(inst, ir.ExprAs{Expr: e, Kind: s.Kind})

	case OpFunctionCall:
		return f.call(inst)

	case OpControlBarrier:
		f.stmt(ir.StmtBarrier{Flags: f.barrierFlags(inst.operand(2))})
		return nil
	case OpMemoryBarrier:
		f.stmt(ir.StmtBarrier{Flags: f.barrierFlags(inst.operand(1))})
		return nil

	case OpSampledImage:
		img, err := f.operand(inst.operand(2))
		if err != nil {
			return err
		}
		smp, err := f.operand(inst.operand(3))
		if err != nil {
			return err
		}
		if img.kind != kindImage || smp.kind != kindSampler {
			return errorf(inst.Offset, "OpSampledImage needs an image and a sampler")
		}
		f.values[inst.operand(1)] = value{kind: kindSampledImage, expr: img.expr, sampler: smp.expr, typ: img.typ}
		return nil

	case OpImage:
		si, err := f.operand(inst.operand(2))
		if err != nil {
			return err
		}
		if si.kind != kindSampledImage {
			return errorf(inst.Offset, "%%%d is not a sampled image", inst.operand(2))
		}
		f.values[inst.operand(1)] = value{kind: kindImage, expr: si.expr, typ: si.typ}
		return nil

	case OpImageSampleImplicitLod, OpImageSampleExplicitLod,
		OpImageSampleDrefImplicitLod, OpImageSampleDrefExplicitLod, OpImageGather:
		return f.imageSample(inst)
	case OpImageFetch, OpImageRead:
		return f.imageLoad(inst)
	case OpImageWrite:
		return f.imageWrite(inst)
	case OpImageQuerySize, OpImageQuerySizeLod:
		return f.imageSize(inst)
	case OpImageQueryLevels:
		return f.imageQuery(inst, ir.ImageQueryNumLevels{})
	case OpImageQuerySamples:
		return f.imageQuery(inst, ir.ImageQueryNumSamples{})
	}
	return errorf(inst.Offset, "unsupported instruction %s", inst.Opcode)
}

func (f *funcLowerer) math(inst Instruction, fun ir.MathFunction, argIDs []uint32) error {
	if len(argIDs) == 0 || len(argIDs) > 4 {
		return errorf(inst.Offset, "math function with %d arguments", len(argIDs))
	}
	args, err := f.exprs(argIDs)
	if err != nil {
		return err
	}
	m := ir.ExprMath{Fun: fun, Arg: args[0]}
	for i, slot := range []**ir.ExpressionHandle{&m.Arg1, &m.Arg2, &m.Arg3} {
		if i+1 < len(args) {
			*slot = &args[i+1]
		}
	}
	return f.define(inst, m)
}

func (f *funcLowerer) convert(inst Instruction, kind ir.ScalarKind) error {
	e, err := f.exprOf(inst.operand(2))
	if err != nil {
		return err
	}
	s, err := f.l.componentScalar(inst.operand(0))
	if err != nil {
		return err
	}
	width := s.Width
	return f.define(inst, ir.ExprAs{Expr: e, Kind: kind, Convert: &width})
}

// shiftRight picks the shift flavor from the operand's signedness, so
// logical and arithmetic shifts reinterpret the operand when they differ.
func (f *funcLowerer) shiftRight(inst Instruction) error {
	args, err := f.exprs(inst.Operands[2:4])
	if err != nil {
		return err
	}
	rt := inst.operand(0)
	s, err := f.l.componentScalar(rt)
	if err != nil {
		return err
	}
	want := ir.ScalarUint
	if inst.Opcode == OpShiftRightArithmetic {
		want = ir.ScalarSint
	}
	if s.Kind == want {
		return f.define(inst, ir.ExprBinary{Op: ir.BinaryShiftRight, Left: args[0], Right: args[1]})
	}

	ty, err := f.l.lowerType(rt)
	if err != nil {
		return err
	}
	castTy := f.sameShape(rt, ir.ScalarType{Kind: want, Width: s.Width})
	left := f.expr(ir.ExprAs{Expr: args[0], Kind: want}, castTy)
	shifted := f.expr(ir.ExprBinary{Op: ir.BinaryShiftRight, Left: left, Right: args[1]}, castTy)
	f.values[inst.operand(1)] = value{expr: f.expr(ir.ExprAs{Expr: shifted, Kind: s.Kind}, ty), typ: rt}
	return nil
}

// sameShape returns the scalar or vector type shaped like typ with scalar s.
func (f *funcLowerer) sameShape(typ ID, s ir.ScalarType) ir.TypeHandle {
	if t := f.l.m.Types[typ]; t != nil && t.Op == OpTypeVector {
		return f.l.vectorHandle(ir.VectorSize(t.Count), s)
	}
	return f.l.scalarHandle(s)
}

func (f *funcLowerer) load(inst Instruction) error {
	v, err := f.operand(inst.operand(2))
	if err != nil {
		return err
	}
	switch v.kind {
	case kindPointer:
		return f.define(inst, ir.ExprLoad{Pointer: v.expr})
	case kindInput:
		v.kind = kindValue
	case kindValue:
		return errorf(inst.Offset, "load from %%%d, which is not a pointer", inst.operand(2))
	}
	f.values[inst.operand(1)] = v
	return nil
}

func (f *funcLowerer) accessChain(inst Instruction) error {
	base, err := f.operand(inst.operand(2))
	if err != nil {
		return err
	}
	if base.kind != kindPointer && base.kind != kindInput {
		return errorf(inst.Offset, "access chain into %%%d, which is not a pointer to a composite", inst.operand(2))
	}
	v := base
	for _, indexID := range inst.Operands[3:] {
		index, constant := f.l.m.IntConstant(indexID)
		if t := f.l.m.Types[v.typ]; !constant && t != nil && t.Op == OpTypeStruct {
			return errorf(inst.Offset, "struct member index %%%d is not a constant", indexID)
		}
		if v.typ, err = f.l.elementType(v.typ, index); err != nil {
			return err
		}
		ty, err := f.l.lowerType(v.typ)
		if err != nil {
			return err
		}

		var kind ir.ExpressionKind = ir.ExprAccessIndex{Base: v.expr, Index: index}
		if !constant {
			e, err := f.exprOf(indexID)
			if err != nil {
				return err
			}
			kind = ir.ExprAccess{Base: v.expr, Index: e}
		}
		if v.kind == kindPointer {
			v.expr = f.inline(kind, ty)
		} else {
			v.expr = f.expr(kind, ty)
		}
	}
	f.values[inst.operand(1)] = v
	return nil
}

func (f *funcLowerer) vectorShuffle(inst Instruction) error {
	ops := inst.Operands
	a, err := f.operand(ops[2])
	if err != nil {
		return err
	}
	b, err := f.operand(ops[3])
	if err != nil {
		return err
	}
	comps := ops[4:]
	size, err := vectorSize(uint32(len(comps)))
	if err != nil {
		return err
	}
	at := f.l.m.Types[a.typ]
	if at == nil || at.Op != OpTypeVector {
		return errorf(inst.Offset, "shuffle of %%%d, which is not a vector", ops[2])
	}
	n := at.Count

	fromA, fromB := true, true
	for _, c := range comps {
		if c == 0xFFFFFFFF {
			continue
		}
		fromA = fromA && c < n
		fromB = fromB && c >= n
	}

	var pattern [4]ir.SwizzleComponent
	switch {
	case fromA || fromB:
		src := a
		offset := uint32(0)
		if !fromA {
			src, offset = b, n
		}
		for i, c := range comps {
			if c != 0xFFFFFFFF {
				pattern[i] = ir.SwizzleComponent(c - offset)
			}
		}
		return f.define(inst, ir.ExprSwizzle{Size: size, Vector: src.expr, Pattern: pattern})
	}

	s, err := f.l.componentScalar(a.typ)
	if err != nil {
		return err
	}
	elem := f.l.scalarHandle(s)
	parts := make([]ir.ExpressionHandle, len(comps))
	for i, c := range comps {
		src := a.expr
		if c >= n && c != 0xFFFFFFFF {
			src, c = b.expr, c-n
		}
		if c == 0xFFFFFFFF {
			c = 0
		}
		parts[i] = f.expr(ir.ExprAccessIndex{Base: src, Index: c}, elem)
	}
	ty, err := f.l.lowerType(inst.operand(0))
	if err != nil {
		return err
	}
	return f.define(inst, ir.ExprCompose{Type: ty, Components: parts})
}

func (f *funcLowerer) call(inst Instruction) error {
	callee, ok := f.l.funcs[inst.operand(2)]
	if !ok {
		return errorf(inst.Offset, "call to unknown function %%%d", inst.operand(2))
	}
	var args []ir.ExpressionHandle
	for _, id := range inst.Operands[3:] {
		v, err := f.operand(id)
		if err != nil {
			return err
		}
		switch v.kind {
		case kindInput:
			return errorf(inst.Offset, "stage input %%%d passed by pointer", id)
		case kindSampledImage:
			args = append(args, v.expr, v.sampler)
		default:
			args = append(args, v.expr)
		}
	}

	call := ir.StmtCall{Function: callee, Arguments: args}
	if rt := f.l.m.Types[inst.operand(0)]; rt != nil && rt.Op != OpTypeVoid {
		ty, err := f.l.lowerType(inst.operand(0))
		if err != nil {
			return err
		}
		res := f.inline(ir.ExprCallResult{Function: callee}, ty)
		call.Result = &res
		f.values[inst.operand(1)] = value{expr: res, typ: inst.operand(0)}
	}
	f.stmt(call)
	return nil
}

func (f *funcLowerer) barrierFlags(semanticsID ID) ir.BarrierFlags {
	sem, _ := f.l.m.IntConstant(semanticsID)
	var flags ir.BarrierFlags
	if sem&MemorySemanticsWorkgroupMemory != 0 {
		flags |= ir.BarrierWorkGroup
	}
	if sem&MemorySemanticsUniformMemory != 0 {
		flags |= ir.BarrierStorage
	}
	if sem&MemorySemanticsImageMemory != 0 {
		flags |= ir.BarrierTexture
	}
	if flags == 0 {
		flags = ir.BarrierWorkGroup
	}
	return flags
}
