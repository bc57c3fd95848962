package spirv

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// resultOps lists opcodes whose operands start with a result type and a
// result id.
var resultOps = map[OpCode]bool{
	OpUndef: true, OpExtInst: true, OpConstantTrue: true, OpConstantFalse: true,
	OpConstant: true, OpConstantComposite: true, OpConstantNull: true,
	OpSpecConstantTrue: true, OpSpecConstantFalse: true, OpSpecConstant: true,
	OpSpecConstantComposite: true, OpSpecConstantOp: true, OpFunction: true,
	OpFunctionParameter: true, OpVariable: true, OpPhi: true,
}

// Disassemble writes a textual listing of a module to w, one instruction
// per line, in the assembly syntax used by SPIR-V tools.
func Disassemble(w io.Writer, words []uint32) error {
	h, insts, err := Decode(words)
	if err != nil {
		return err
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "; SPIR-V\n; Version: %s\n; Generator: 0x%08X\n; Bound: %d\n; Schema: %d\n\n",
		h.Version, h.Generator, h.Bound, h.Schema)

	for _, inst := range insts {
		result, text := disassembleInstruction(inst)
		if result == "" {
			fmt.Fprintf(bw, "%15s%s\n", "", text)
			continue
		}
		fmt.Fprintf(bw, "%12s = %s\n", result, text)
	}
	return bw.Flush()
}

func id(n uint32) string {
	return fmt.Sprintf("%%%d", n)
}

func ids(ops []uint32) string {
	parts := make([]string, len(ops))
	for i, op := range ops {
		parts[i] = id(op)
	}
	return strings.Join(parts, " ")
}

func literals(ops []uint32) string {
	parts := make([]string, len(ops))
	for i, op := range ops {
		parts[i] = fmt.Sprint(op)
	}
	return strings.Join(parts, " ")
}

func join(parts ...string) string {
	var out []string
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}

// disassembleInstruction returns the result id (or "") and the rest of the
// line for one instruction.
func disassembleInstruction(inst Instruction) (string, string) {
	ops := inst.Operands
	name := inst.Opcode.String()
	str := func(i int) string {
		s, _ := inst.String(i)
		return fmt.Sprintf("%q", s)
	}

	switch inst.Opcode {
	case OpCapability:
		return "", join(name, Capability(inst.operand(0)).String())
	case OpExtension:
		return "", join(name, str(0))
	case OpExtInstImport:
		return id(inst.operand(0)), join(name, str(1))
	case OpMemoryModel:
		addressing := "Logical"
		if AddressingModel(inst.operand(0)) != AddressingLogical {
			addressing = fmt.Sprint(inst.operand(0))
		}
		memory := map[MemoryModel]string{MemoryModelSimple: "Simple", MemoryModelGLSL450: "GLSL450", MemoryModelVulkan: "Vulkan"}
		return "", join(name, addressing, lookupName(memory, MemoryModel(inst.operand(1))))
	case OpEntryPoint:
		s, n := inst.String(2)
		iface := ""
		if 2+n < len(ops) {
			iface = ids(ops[2+n:])
		}
		return "", join(name, ExecutionModel(inst.operand(0)).String(), id(inst.operand(1)), fmt.Sprintf("%q", s), iface)
	case OpExecutionMode:
		return "", join(name, id(inst.operand(0)), ExecutionMode(inst.operand(1)).String(), literals(tail(ops, 2)))
	case OpName:
		return "", join(name, id(inst.operand(0)), str(1))
	case OpMemberName:
		return "", join(name, id(inst.operand(0)), fmt.Sprint(inst.operand(1)), str(2))
	case OpString:
		return id(inst.operand(0)), join(name, str(1))
	case OpSource:
		return "", join(name, literals(ops))

	case OpDecorate:
		return "", join(name, id(inst.operand(0)), decorationText(Decoration(inst.operand(1)), tail(ops, 2)))
	case OpMemberDecorate:
		return "", join(name, id(inst.operand(0)), fmt.Sprint(inst.operand(1)),
			decorationText(Decoration(inst.operand(2)), tail(ops, 3)))

	case OpTypeInt:
		return id(inst.operand(0)), join(name, literals(tail(ops, 1)))
	case OpTypeFloat:
		return id(inst.operand(0)), join(name, literals(tail(ops, 1)))
	case OpTypeVector, OpTypeMatrix:
		return id(inst.operand(0)), join(name, id(inst.operand(1)), fmt.Sprint(inst.operand(2)))
	case OpTypeImage:
		if len(ops) < 8 {
			break
		}
		return id(ops[0]), join(name, id(ops[1]), Dim(ops[2]).String(), literals(ops[3:7]), imageFormat(ops[7]), literals(ops[8:]))
	case OpTypePointer:
		return id(inst.operand(0)), join(name, StorageClass(inst.operand(1)).String(), id(inst.operand(2)))
	case OpTypeVoid, OpTypeBool, OpTypeSampler, OpTypeSampledImage, OpTypeArray,
		OpTypeRuntimeArray, OpTypeStruct, OpTypeFunction, OpLabel, OpDecorationGroup:
		return id(inst.operand(0)), join(name, ids(tail(ops, 1)))

	case OpConstant, OpSpecConstant:
		return id(inst.operand(1)), join(name, id(inst.operand(0)), literals(tail(ops, 2)))
	case OpFunction:
		control := map[uint32]string{0: "None", 1: "Inline", 2: "DontInline"}[inst.operand(2)]
		if control == "" {
			control = fmt.Sprint(inst.operand(2))
		}
		return id(inst.operand(1)), join(name, id(inst.operand(0)), control, id(inst.operand(3)))
	case OpVariable:
		return id(inst.operand(1)), join(name, id(inst.operand(0)), StorageClass(inst.operand(2)).String(), ids(tail(ops, 3)))
	case OpExtInst:
		return id(inst.operand(1)), join(name, id(inst.operand(0)), id(inst.operand(2)), fmt.Sprint(inst.operand(3)), ids(tail(ops, 4)))
	case OpCompositeExtract:
		return id(inst.operand(1)), join(name, id(inst.operand(0)), id(inst.operand(2)), literals(tail(ops, 3)))
	case OpVectorShuffle:
		return id(inst.operand(1)), join(name, id(inst.operand(0)), id(inst.operand(2)), id(inst.operand(3)), literals(tail(ops, 4)))
	case OpSelectionMerge:
		return "", join(name, id(inst.operand(0)), "None")
	case OpLoopMerge:
		return "", join(name, id(inst.operand(0)), id(inst.operand(1)), "None")
	case OpFunctionEnd, OpReturn, OpKill, OpUnreachable, OpNop, OpNoLine, OpTerminateInvocation:
		return "", name
	case OpStore, OpBranch, OpBranchConditional, OpReturnValue, OpImageWrite,
		OpGroupDecorate, OpLine:
		return "", join(name, ids(ops))
	case OpControlBarrier, OpMemoryBarrier:
		return "", join(name, ids(ops))
	}

	if len(ops) >= 2 && (resultOps[inst.Opcode] || functionOps[inst.Opcode] && !noResultOps[inst.Opcode]) {
		return id(ops[1]), join(name, id(ops[0]), ids(ops[2:]))
	}
	return "", join(name, ids(ops))
}

func tail(ops []uint32, i int) []uint32 {
	if i >= len(ops) {
		return nil
	}
	return ops[i:]
}

func decorationText(d Decoration, ops []uint32) string {
	if d == DecorationBuiltIn && len(ops) > 0 {
		return join(d.String(), BuiltIn(ops[0]).String())
	}
	return join(d.String(), literals(ops))
}

func imageFormat(f uint32) string {
	if f == 0 {
		return "Unknown"
	}
	return fmt.Sprint(f)
}
