package spirv

import (
	"fmt"
	"slices"

	"github.com/gogpu/naga/ir"
)

// outputSlot is one value the entry point returns. Stage outputs are kept
// in locals while the body runs and gathered into the result on return.
type outputSlot struct {
	local   ir.ExpressionHandle // pointer to the backing local
	localTy ir.TypeHandle
	member  int // struct member of the local, or -1
	typ     ID
	ty      ir.TypeHandle
	name    string
	binding ir.Binding

	position   bool
	sampleMask bool
}

func (f *funcLowerer) entryInterface() error {
	m := f.l.m
	for _, id := range f.l.ep.Interface {
		v, ok := m.Variable(id)
		if !ok {
			return errorf(-1, "entry point %q lists %%%d, which is not a variable", f.l.ep.Name, id)
		}
		var err error
		switch v.Storage {
		case StorageClassInput:
			err = f.input(v)
		case StorageClassOutput:
			err = f.output(v)
		}
		if err != nil {
			return err
		}
	}
	return f.entryResult()
}

func (f *funcLowerer) input(v *Variable) error {
	m := f.l.m
	pointee := m.Types[v.Type].Pointee
	name := m.Names[v.ID]

	if b, ok := m.Decoration(v.ID, DecorationBuiltIn); ok {
		e, err := f.builtinInput(BuiltIn(b), pointee, name)
		if err != nil {
			return err
		}
		f.values[v.ID] = value{kind: kindInput, expr: e, typ: pointee}
		return nil
	}

	t := m.Types[pointee]
	switch t.Op {
	case OpTypeStruct:
		comps := make([]ir.ExpressionHandle, len(t.Members))
		for i, mt := range t.Members {
			member := uint32(i)
			memberName := m.MemberName(pointee, member)
			if b, ok := m.MemberDecoration(pointee, member, DecorationBuiltIn); ok {
				e, err := f.builtinInput(BuiltIn(b), mt, memberName)
				if err != nil {
					return err
				}
				comps[i] = e
				continue
			}
			loc, ok := m.MemberDecoration(pointee, member, DecorationLocation)
			if !ok {
				return errorf(-1, "input block %%%d member %d has no Location", pointee, i)
			}
			ty, err := f.l.lowerType(mt)
			if err != nil {
				return err
			}
			interp := f.interpolation(mt, false, func(d Decoration) bool {
				_, ok := m.MemberDecoration(pointee, member, d)
				return ok
			})
			comps[i] = f.arg(memberName, ty, ty, ir.LocationBinding{Location: loc, Interpolation: interp})
		}
		ty, err := f.l.lowerType(pointee)
		if err != nil {
			return err
		}
		e := f.expr(ir.ExprCompose{Type: ty, Components: comps}, ty)
		f.values[v.ID] = value{kind: kindInput, expr: e, typ: pointee}
		return nil

	case OpTypeArray, OpTypeRuntimeArray:
		return errorf(-1, "input %q: arrayed stage inputs are not supported", name)
	}

	loc, ok := m.Decoration(v.ID, DecorationLocation)
	if !ok {
		return errorf(-1, "input %q has no Location", name)
	}
	ty, err := f.l.lowerType(pointee)
	if err != nil {
		return err
	}
	if t.Op == OpTypeMatrix && f.l.opts.FlattenMatrixInputs && f.l.ep.Model == ExecutionModelVertex {
		e, err := f.matrixInput(name, t, ty, loc)
		if err != nil {
			return err
		}
		f.values[v.ID] = value{kind: kindInput, expr: e, typ: pointee}
		return nil
	}
	interp := f.interpolation(pointee, false, func(d Decoration) bool { return m.HasDecoration(v.ID, d) })
	e := f.arg(name, ty, ty, ir.LocationBinding{Location: loc, Interpolation: interp})
	f.values[v.ID] = value{kind: kindInput, expr: e, typ: pointee}
	return nil
}

// matrixInput declares one vector argument per column of a matrix vertex
// input, at locations loc, loc+1, ..., and composes them back.
func (f *funcLowerer) matrixInput(name string, t *Type, ty ir.TypeHandle, loc uint32) (ir.ExpressionHandle, error) {
	col, err := f.l.lowerType(t.Component)
	if err != nil {
		return 0, err
	}
	cols := make([]ir.ExpressionHandle, t.Count)
	for i := range cols {
		colName := fmt.Sprintf("%s_%d", name, i)
		if name == "" {
			colName = ""
		}
		cols[i] = f.arg(colName, col, col, ir.LocationBinding{Location: loc + uint32(i)})
	}
	return f.expr(ir.ExprCompose{Type: ty, Components: cols}, ty), nil
}

// interpolation derives the interpolation of a location binding from its
// decorations. Only fragment inputs and vertex outputs interpolate, and
// integer values are always flat.
func (f *funcLowerer) interpolation(typ ID, output bool, has func(Decoration) bool) *ir.Interpolation {
	stage := f.l.info.Stage
	if (stage != ir.StageFragment || output) && (stage != ir.StageVertex || !output) {
		return nil
	}
	s, err := f.l.componentScalar(typ)
	integer := err == nil && s.Kind != ir.ScalarFloat

	in := &ir.Interpolation{Kind: ir.InterpolationPerspective, Sampling: ir.SamplingCenter}
	switch {
	case has(DecorationFlat) || integer:
		in.Kind = ir.InterpolationFlat
	case has(DecorationNoPerspective):
		in.Kind = ir.InterpolationLinear
	}
	switch {
	case has(DecorationCentroid):
		in.Sampling = ir.SamplingCentroid
	case has(DecorationSample):
		in.Sampling = ir.SamplingSample
	}
	if in.Kind == ir.InterpolationPerspective && in.Sampling == ir.SamplingCenter {
		return nil
	}
	return in
}

func (f *funcLowerer) builtinInput(b BuiltIn, typ ID, name string) (ir.ExpressionHandle, error) {
	ty, err := f.l.lowerType(typ)
	if err != nil {
		return 0, err
	}
	builtin := func(v ir.BuiltinValue) ir.Binding { return ir.BuiltinBinding{Builtin: v} }

	switch b {
	case BuiltInFragCoord:
		return f.arg(name, ty, ty, builtin(ir.BuiltinPosition)), nil
	case BuiltInFrontFacing:
		return f.arg(name, ty, ty, builtin(ir.BuiltinFrontFacing)), nil
	case BuiltInVertexIndex, BuiltInVertexID:
		return f.indexInput(name, typ, ty, ir.BuiltinVertexIndex)
	case BuiltInInstanceIndex, BuiltInInstanceID:
		return f.indexInput(name, typ, ty, ir.BuiltinInstanceIndex)
	case BuiltInSampleID:
		return f.indexInput(name, typ, ty, ir.BuiltinSampleIndex)
	case BuiltInLocalInvocationID:
		return f.arg(name, ty, ty, builtin(ir.BuiltinLocalInvocationID)), nil
	case BuiltInLocalInvocationIndex:
		return f.arg(name, ty, ty, builtin(ir.BuiltinLocalInvocationIndex)), nil
	case BuiltInGlobalInvocationID:
		return f.arg(name, ty, ty, builtin(ir.BuiltinGlobalInvocationID)), nil
	case BuiltInWorkgroupID:
		return f.arg(name, ty, ty, builtin(ir.BuiltinWorkGroupID)), nil
	case BuiltInNumWorkgroups:
		return f.arg(name, ty, ty, builtin(ir.BuiltinNumWorkGroups)), nil

	case BuiltInSampleMask:
		t := f.l.m.Types[typ]
		if t.Op != OpTypeArray {
			return f.indexInput(name, typ, ty, ir.BuiltinSampleMask)
		}
		elemTy, err := f.l.lowerType(t.Element)
		if err != nil {
			return 0, err
		}
		mask, err := f.indexInput(name, t.Element, elemTy, ir.BuiltinSampleMask)
		if err != nil {
			return 0, err
		}
		return f.expr(ir.ExprCompose{Type: ty, Components: []ir.ExpressionHandle{mask}}, ty), nil

	case BuiltInPointCoord:
		if !f.l.opts.PointCoordCompat {
			return 0, errorf(-1, "gl_PointCoord is not available on this target")
		}
		f32 := f.l.scalarHandle(ir.ScalarType{Kind: ir.ScalarFloat, Width: 4})
		half := f.inline(ir.Literal{Value: ir.LiteralF32(0.5)}, f32)
		return f.expr(ir.ExprSplat{Size: ir.Vec2, Value: half}, ty), nil
	}
	return 0, errorf(-1, "input builtin %s is not supported", b)
}

// indexInput reads an unsigned builtin and reinterprets it when the shader
// declares it signed.
func (f *funcLowerer) indexInput(name string, typ ID, ty ir.TypeHandle, b ir.BuiltinValue) (ir.ExpressionHandle, error) {
	u32 := f.l.scalarHandle(ir.ScalarType{Kind: ir.ScalarUint, Width: 4})
	e := f.arg(name, u32, u32, ir.BuiltinBinding{Builtin: b})
	s, err := f.l.scalarType(typ)
	if err != nil {
		return 0, err
	}
	if s.Kind == ir.ScalarSint {
		return f.expr(ir.ExprAs{Expr: e, Kind: ir.ScalarSint}, ty), nil
	}
	return e, nil
}

func (f *funcLowerer) output(v *Variable) error {
	m := f.l.m
	pointee := m.Types[v.Type].Pointee
	name := m.Names[v.ID]
	if name == "" {
		name = fmt.Sprintf("_%d", v.ID)
	}
	ty, err := f.l.lowerType(pointee)
	if err != nil {
		return err
	}
	local, err := f.localVariable(name, ty, v.Init)
	if err != nil {
		return err
	}
	f.values[v.ID] = value{kind: kindPointer, expr: local, typ: pointee}

	base := outputSlot{local: local, localTy: ty, member: -1, typ: pointee, ty: ty, name: name}
	if b, ok := m.Decoration(v.ID, DecorationBuiltIn); ok {
		return f.builtinOutput(base, BuiltIn(b))
	}

	t := m.Types[pointee]
	switch t.Op {
	case OpTypeStruct:
		for i, mt := range t.Members {
			member := uint32(i)
			slot := base
			slot.member = i
			slot.typ = mt
			slot.name = m.MemberName(pointee, member)
			if slot.name == "" {
				slot.name = fmt.Sprintf("%s_%d", name, i)
			}
			if slot.ty, err = f.l.lowerType(mt); err != nil {
				return err
			}
			if b, ok := m.MemberDecoration(pointee, member, DecorationBuiltIn); ok {
				if err := f.builtinOutput(slot, BuiltIn(b)); err != nil {
					return err
				}
				continue
			}
			loc, ok := m.MemberDecoration(pointee, member, DecorationLocation)
			if !ok {
				return errorf(-1, "output block %%%d member %d has no Location", pointee, i)
			}
			slot.binding = f.outputLocation(loc, mt, func(d Decoration) bool {
				_, ok := m.MemberDecoration(pointee, member, d)
				return ok
			})
			f.outputs = append(f.outputs, slot)
		}
		return nil

	case OpTypeArray, OpTypeRuntimeArray:
		return errorf(-1, "output %q: arrayed stage outputs are not supported", name)
	}

	loc, ok := m.Decoration(v.ID, DecorationLocation)
	if !ok {
		return errorf(-1, "output %q has no Location", name)
	}
	base.binding = f.outputLocation(loc, pointee, func(d Decoration) bool { return m.HasDecoration(v.ID, d) })
	f.outputs = append(f.outputs, base)
	return nil
}

func (f *funcLowerer) outputLocation(loc uint32, typ ID, has func(Decoration) bool) ir.Binding {
	interp := f.interpolation(typ, true, has)
	return ir.LocationBinding{Location: loc, Interpolation: interp}
}

func (f *funcLowerer) builtinOutput(slot outputSlot, b BuiltIn) error {
	switch b {
	case BuiltInPosition:
		slot.binding = ir.BuiltinBinding{Builtin: ir.BuiltinPosition}
		slot.position = true
	case BuiltInFragDepth:
		slot.binding = ir.BuiltinBinding{Builtin: ir.BuiltinFragDepth}
	case BuiltInSampleMask:
		slot.binding = ir.BuiltinBinding{Builtin: ir.BuiltinSampleMask}
		slot.sampleMask = true
		slot.ty = f.l.scalarHandle(ir.ScalarType{Kind: ir.ScalarUint, Width: 4})
	case BuiltInPointSize, BuiltInClipDistance, BuiltInCullDistance:
		if !slices.Contains(f.l.info.DroppedBuiltins, b) {
			f.l.info.DroppedBuiltins = append(f.l.info.DroppedBuiltins, b)
		}
		return nil
	default:
		return errorf(-1, "output builtin %s is not supported", b)
	}
	f.outputs = append(f.outputs, slot)
	return nil
}

// entryResult declares the entry point's result: the single output with
// its binding, or a struct gathering every output.
func (f *funcLowerer) entryResult() error {
	switch len(f.outputs) {
	case 0:
		return nil
	case 1:
		s := f.outputs[0]
		binding := s.binding
		f.resultType = s.ty
		f.fn.Result = &ir.FunctionResult{Type: s.ty, Binding: &binding}
		return nil
	}

	st := ir.StructType{Members: make([]ir.StructMember, len(f.outputs))}
	var offset uint32
	for i, s := range f.outputs {
		binding := s.binding
		st.Members[i] = ir.StructMember{Name: s.name, Type: s.ty, Binding: &binding, Offset: offset}
		size, err := f.l.m.TypeSize(s.typ)
		if err != nil || s.sampleMask {
			size = 4
		}
		offset += (size + 3) &^ 3
	}
	st.Span = offset
	f.resultType = f.l.addType(f.l.ep.Name+"_output", st)
	f.fn.Result = &ir.FunctionResult{Type: f.resultType}
	return nil
}

// entryReturn gathers the output locals into the entry point's result.
func (f *funcLowerer) entryReturn() error {
	if len(f.outputs) == 0 {
		f.stmt(ir.StmtReturn{})
		return nil
	}
	loaded := make(map[ir.ExpressionHandle]ir.ExpressionHandle)
	comps := make([]ir.ExpressionHandle, len(f.outputs))
	for i, s := range f.outputs {
		whole, ok := loaded[s.local]
		if !ok {
			whole = f.expr(ir.ExprLoad{Pointer: s.local}, s.localTy)
			loaded[s.local] = whole
		}
		e := whole
		if s.member >= 0 {
			memberTy, err := f.l.lowerType(s.typ)
			if err != nil {
				return err
			}
			e = f.expr(ir.ExprAccessIndex{Base: whole, Index: uint32(s.member)}, memberTy)
		}
		if s.sampleMask {
			var err error
			if e, err = f.sampleMaskOutput(e, s.typ); err != nil {
				return err
			}
		}
		if s.position {
			e = f.fixPosition(e, s.ty)
		}
		comps[i] = e
	}

	if len(comps) == 1 {
		f.stmt(ir.StmtReturn{Value: &comps[0]})
		return nil
	}
	r := f.expr(ir.ExprCompose{Type: f.resultType, Components: comps}, f.resultType)
	f.stmt(ir.StmtReturn{Value: &r})
	return nil
}

func (f *funcLowerer) sampleMaskOutput(e ir.ExpressionHandle, typ ID) (ir.ExpressionHandle, error) {
	if t := f.l.m.Types[typ]; t.Op == OpTypeArray {
		elemTy, err := f.l.lowerType(t.Element)
		if err != nil {
			return 0, err
		}
		e = f.expr(ir.ExprAccessIndex{Base: e, Index: 0}, elemTy)
		typ = t.Element
	}
	s, err := f.l.scalarType(typ)
	if err != nil {
		return 0, err
	}
	if s.Kind == ir.ScalarUint {
		return e, nil
	}
	u32 := f.l.scalarHandle(ir.ScalarType{Kind: ir.ScalarUint, Width: 4})
	return f.expr(ir.ExprAs{Expr: e, Kind: ir.ScalarUint}, u32), nil
}

// fixPosition applies the vertex position rewrites: y is negated when
// flipping, and z is remapped from [-w, w] to [0, w].
func (f *funcLowerer) fixPosition(pos ir.ExpressionHandle, ty ir.TypeHandle) ir.ExpressionHandle {
	opts := f.l.opts
	if f.l.info.Stage != ir.StageVertex || (!opts.FlipVertexY && !opts.FixupClipSpace) {
		return pos
	}
	f32 := f.l.scalarHandle(ir.ScalarType{Kind: ir.ScalarFloat, Width: 4})
	var c [4]ir.ExpressionHandle
	for i := range c {
		c[i] = f.expr(ir.ExprAccessIndex{Base: pos, Index: uint32(i)}, f32)
	}
	if opts.FlipVertexY {
		c[1] = f.expr(ir.ExprUnary{Op: ir.UnaryNegate, Expr: c[1]}, f32)
	}
	if opts.FixupClipSpace {
		half := f.inline(ir.Literal{Value: ir.LiteralF32(0.5)}, f32)
		sum := f.expr(ir.ExprBinary{Op: ir.BinaryAdd, Left: c[2], Right: c[3]}, f32)
		c[2] = f.expr(ir.ExprBinary{Op: ir.BinaryMultiply, Left: sum, Right: half}, f32)
	}
	return f.expr(ir.ExprCompose{Type: ty, Components: c[:]}, ty)
}
