package spirv

import (
	"fmt"
	"math"
	"slices"

	"github.com/gogpu/naga/ir"
)

type valueKind uint8

const (
	kindValue valueKind = iota
	kindPointer
	kindInput // pointer into a stage input, backed by the argument value
	kindImage
	kindSampler
	kindSampledImage
)

// value is what a SPIR-V result id lowered to. typ is the SPIR-V type of
// the value, or of the pointee for pointers and inputs.
type value struct {
	kind    valueKind
	expr    ir.ExpressionHandle
	sampler ir.ExpressionHandle // kindSampledImage only
	typ     ID
}

type loopScope struct {
	header, merge, cont ID
}

// funcLowerer lowers one function body.
type funcLowerer struct {
	l     *lowerer
	src   *Function
	fn    *ir.Function
	entry bool

	values  map[ID]value
	blocks  map[ID]*Block
	visited map[ID]bool

	cur       *ir.Block
	emitting  bool
	emitStart ir.ExpressionHandle

	// continuing is set while the continuing construct of a loop is lowered.
	continuing *loopScope
	breakIf    *ir.ExpressionHandle

	outputs    []outputSlot
	resultType ir.TypeHandle
}

func (l *lowerer) lowerFunction(id ID, entry bool) (*ir.Function, error) {
	src, _ := l.m.Function(id)
	if len(src.Blocks) == 0 {
		return nil, errorf(-1, "function %%%d has no body", id)
	}
	f := &funcLowerer{
		l:       l,
		src:     src,
		fn:      &ir.Function{},
		entry:   entry,
		values:  make(map[ID]value),
		blocks:  make(map[ID]*Block, len(src.Blocks)),
		visited: make(map[ID]bool, len(src.Blocks)),
	}
	for _, b := range src.Blocks {
		f.blocks[b.Label] = b
	}

	var prologue ir.Block
	f.cur = &prologue
	if entry {
		f.fn.Name = l.ep.Name
		if err := f.entryInterface(); err != nil {
			return nil, err
		}
	} else {
		f.fn.Name = cleanName(l.m.Names[id])
		if f.fn.Name == "" {
			f.fn.Name = fmt.Sprintf("function_%d", id)
		}
		if err := f.parameters(); err != nil {
			return nil, err
		}
		if rt := l.m.Types[src.ResultType]; rt != nil && rt.Op != OpTypeVoid {
			ty, err := l.lowerType(src.ResultType)
			if err != nil {
				return nil, err
			}
			f.fn.Result = &ir.FunctionResult{Type: ty}
		}
	}
	f.flush()

	body, err := f.region(src.Blocks[0].Label, 0, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.fn.Name, err)
	}
	f.fn.Body = append(prologue, body...)
	return f.fn, nil
}

func (f *funcLowerer) parameters() error {
	m := f.l.m
	for _, p := range f.src.Params {
		t := m.Types[p.Type]
		if t == nil {
			return errorf(-1, "parameter %%%d has unknown type %%%d", p.ID, p.Type)
		}
		name := m.Names[p.ID]

		opaque := t
		if t.Op == OpTypePointer {
			opaque = m.Types[t.Pointee]
		}
		if opaque != nil && isOpaque(opaque.Op) {
			v, err := f.opaqueParameter(name, opaque)
			if err != nil {
				return err
			}
			f.values[p.ID] = v
			continue
		}

		if t.Op == OpTypePointer {
			argTy, err := f.l.pointerArgType(p.Type)
			if err != nil {
				return err
			}
			base, err := f.l.lowerType(t.Pointee)
			if err != nil {
				return err
			}
			e := f.arg(name, argTy, base, nil)
			f.values[p.ID] = value{kind: kindPointer, expr: e, typ: t.Pointee}
			continue
		}

		ty, err := f.l.lowerType(p.Type)
		if err != nil {
			return err
		}
		f.values[p.ID] = value{kind: kindValue, expr: f.arg(name, ty, ty, nil), typ: p.Type}
	}
	return nil
}

// opaqueParameter passes images and samplers by value. A sampled image
// becomes an image argument followed by a sampler argument.
func (f *funcLowerer) opaqueParameter(name string, t *Type) (value, error) {
	switch t.Op {
	case OpTypeImage:
		ty, err := f.l.lowerType(t.ID)
		if err != nil {
			return value{}, err
		}
		return value{kind: kindImage, expr: f.arg(name, ty, ty, nil), typ: t.ID}, nil
	case OpTypeSampler:
		ty, err := f.l.lowerType(t.ID)
		if err != nil {
			return value{}, err
		}
		return value{kind: kindSampler, expr: f.arg(name, ty, ty, nil), typ: t.ID}, nil
	}
	img := f.l.m.Types[t.Element]
	ty, err := f.l.lowerType(t.Element)
	if err != nil {
		return value{}, err
	}
	smpTy := f.l.addType("", ir.SamplerType{Comparison: img.Image.Depth == 1})
	e := f.arg(name, ty, ty, nil)
	s := f.arg(name+"_sampler", smpTy, smpTy, nil)
	return value{kind: kindSampledImage, expr: e, sampler: s, typ: t.Element}, nil
}

// arg appends a function argument and returns the expression reading it.
// res is the type the expression resolves to.
func (f *funcLowerer) arg(name string, ty, res ir.TypeHandle, binding ir.Binding) ir.ExpressionHandle {
	a := ir.FunctionArgument{Name: name, Type: ty}
	if binding != nil {
		a.Binding = &binding
	}
	index := uint32(len(f.fn.Arguments))
	f.fn.Arguments = append(f.fn.Arguments, a)
	return f.inline(ir.ExprFunctionArgument{Index: index}, res)
}

func (f *funcLowerer) push(kind ir.ExpressionKind, ty ir.TypeHandle) ir.ExpressionHandle {
	h := ir.ExpressionHandle(len(f.fn.Expressions))
	f.fn.Expressions = append(f.fn.Expressions, ir.Expression{Kind: kind})
	f.fn.ExpressionTypes = append(f.fn.ExpressionTypes, ir.TypeResolution{Handle: &ty})
	return h
}

// expr appends an expression evaluated at this point of the block.
func (f *funcLowerer) expr(kind ir.ExpressionKind, ty ir.TypeHandle) ir.ExpressionHandle {
	if !f.emitting {
		f.emitting = true
		f.emitStart = ir.ExpressionHandle(len(f.fn.Expressions))
	}
	return f.push(kind, ty)
}

// inline appends an expression that is never emitted: constants, handles
// and pointers, which back-ends write at their point of use.
func (f *funcLowerer) inline(kind ir.ExpressionKind, ty ir.TypeHandle) ir.ExpressionHandle {
	f.flush()
	return f.push(kind, ty)
}

func (f *funcLowerer) flush() {
	if !f.emitting {
		return
	}
	f.emitting = false
	r := ir.Range{Start: f.emitStart, End: ir.ExpressionHandle(len(f.fn.Expressions))}
	*f.cur = append(*f.cur, ir.Statement{Kind: ir.StmtEmit{Range: r}})
}

func (f *funcLowerer) stmt(kind ir.StatementKind) {
	f.flush()
	*f.cur = append(*f.cur, ir.Statement{Kind: kind})
}

// localVariable declares a function-local variable and returns a pointer
// expression to it.
func (f *funcLowerer) localVariable(name string, ty ir.TypeHandle, init ID) (ir.ExpressionHandle, error) {
	lv := ir.LocalVariable{Name: name, Type: ty}
	switch {
	case init != 0:
		e, err := f.exprOf(init)
		if err != nil {
			return 0, err
		}
		lv.Init = &e
	case f.l.opts.ZeroInitialize:
		z := f.inline(ir.ExprZeroValue{Type: ty}, ty)
		lv.Init = &z
	}
	index := uint32(len(f.fn.LocalVars))
	f.fn.LocalVars = append(f.fn.LocalVars, lv)
	return f.inline(ir.ExprLocalVariable{Variable: index}, ty), nil
}

// operand returns the lowered value of id, lowering constants and globals
// on first use.
func (f *funcLowerer) operand(id ID) (value, error) {
	if v, ok := f.values[id]; ok {
		return v, nil
	}
	if c, ok := f.l.m.Constants[id]; ok {
		v, err := f.constant(c)
		if err != nil {
			return value{}, err
		}
		f.values[id] = v
		return v, nil
	}
	if gv, ok := f.l.m.Variable(id); ok {
		v, err := f.globalValue(gv)
		if err != nil {
			return value{}, err
		}
		f.values[id] = v
		return v, nil
	}
	return value{}, errorf(-1, "%%%d is used before it is defined", id)
}

// exprOf returns the expression of a plain value operand.
func (f *funcLowerer) exprOf(id ID) (ir.ExpressionHandle, error) {
	v, err := f.operand(id)
	if err != nil {
		return 0, err
	}
	if v.kind != kindValue {
		return 0, errorf(-1, "%%%d is not a value", id)
	}
	return v.expr, nil
}

func (f *funcLowerer) constant(c *Constant) (value, error) {
	ty, err := f.l.lowerType(c.Type)
	if err != nil {
		return value{}, err
	}
	if c.IsSpec() {
		h, err := f.l.moduleConstant(c.ID)
		if err != nil {
			return value{}, err
		}
		return value{expr: f.inline(ir.ExprConstant{Constant: h}, ty), typ: c.Type}, nil
	}

	switch c.Op {
	case OpConstantNull, OpUndef:
		return value{expr: f.inline(ir.ExprZeroValue{Type: ty}, ty), typ: c.Type}, nil
	case OpConstantComposite:
		comps := make([]ir.ExpressionHandle, len(c.Constituents))
		for i, id := range c.Constituents {
			e, err := f.exprOf(id)
			if err != nil {
				return value{}, err
			}
			comps[i] = e
		}
		return value{expr: f.inline(ir.ExprCompose{Type: ty, Components: comps}, ty), typ: c.Type}, nil
	}

	s, err := f.l.scalarType(c.Type)
	if err != nil {
		return value{}, err
	}
	lit, err := literal(s, c.Value)
	if err != nil {
		return value{}, errorf(-1, "constant %%%d: %v", c.ID, err)
	}
	return value{expr: f.inline(ir.Literal{Value: lit}, ty), typ: c.Type}, nil
}

func literal(s ir.ScalarType, words []uint32) (ir.LiteralValue, error) {
	var bits uint64
	for i, w := range words {
		if i > 1 {
			break
		}
		bits |= uint64(w) << (32 * i)
	}
	switch {
	case s.Kind == ir.ScalarBool:
		return ir.LiteralBool(bits != 0), nil
	case s.Kind == ir.ScalarFloat && s.Width == 4:
		return ir.LiteralF32(math.Float32frombits(uint32(bits))), nil
	case s.Kind == ir.ScalarFloat && s.Width == 8:
		return ir.LiteralF64(math.Float64frombits(bits)), nil
	case s.Kind == ir.ScalarSint && s.Width == 4:
		return ir.LiteralI32(int32(uint32(bits))), nil
	case s.Kind == ir.ScalarSint && s.Width == 8:
		return ir.LiteralI64(int64(bits)), nil
	case s.Kind == ir.ScalarUint && s.Width == 4:
		return ir.LiteralU32(uint32(bits)), nil
	case s.Kind == ir.ScalarUint && s.Width == 8:
		return ir.LiteralU64(bits), nil
	}
	return nil, fmt.Errorf("%d-byte scalar literals are not supported", s.Width)
}

func (f *funcLowerer) globalValue(v *Variable) (value, error) {
	switch v.Storage {
	case StorageClassInput, StorageClassOutput:
		if !f.entry {
			return value{}, errorf(-1, "%s variable %%%d is used outside the entry point function", v.Storage, v.ID)
		}
		return value{}, errorf(-1, "%s variable %%%d is not in the entry point interface", v.Storage, v.ID)
	}
	h, err := f.l.global(v)
	if err != nil {
		return value{}, err
	}
	gv := f.l.out.GlobalVariables[h]
	e := f.inline(ir.ExprGlobalVariable{Variable: h}, gv.Type)
	pointee := f.l.m.Types[v.Type].Pointee

	switch t := f.l.m.Types[pointee]; t.Op {
	case OpTypeSampledImage:
		sh := f.l.samplers[v.ID]
		s := f.inline(ir.ExprGlobalVariable{Variable: sh}, f.l.out.GlobalVariables[sh].Type)
		return value{kind: kindSampledImage, expr: e, sampler: s, typ: t.Element}, nil
	case OpTypeImage:
		return value{kind: kindImage, expr: e, typ: pointee}, nil
	case OpTypeSampler:
		return value{kind: kindSampler, expr: e, typ: pointee}, nil
	}
	return value{kind: kindPointer, expr: e, typ: pointee}, nil
}

// region lowers the structured region starting at label and ending where
// control reaches stop, returning its statements.
func (f *funcLowerer) region(label, stop ID, loops []loopScope) (ir.Block, error) {
	f.flush()
	var out ir.Block
	prev := f.cur
	f.cur = &out
	defer func() { f.cur = prev }()

	err := f.walk(label, stop, loops)
	f.flush()
	return out, err
}

func (f *funcLowerer) walk(label, stop ID, loops []loopScope) error {
	for label != stop {
		b, ok := f.blocks[label]
		if !ok {
			return errorf(-1, "branch to unknown block %%%d", label)
		}
		if f.visited[label] {
			return errorf(b.Terminator.Offset, "block %%%d is entered twice; control flow is not structured", label)
		}
		f.visited[label] = true

		if b.Merge != nil && b.Merge.Opcode == OpLoopMerge {
			merge, err := f.loop(b, loops)
			if err != nil {
				return err
			}
			next, done := f.follow(merge, stop, loops)
			if done {
				return nil
			}
			label = next
			continue
		}

		if err := f.instructions(b.Body); err != nil {
			return err
		}
		next, done, err := f.terminator(b, stop, loops)
		if err != nil || done {
			return err
		}
		label = next
	}
	return nil
}

// loop lowers a loop construct headed by b and returns its merge block.
func (f *funcLowerer) loop(b *Block, loops []loopScope) (ID, error) {
	scope := loopScope{header: b.Label, merge: b.Merge.operand(0), cont: b.Merge.operand(1)}
	inner := append(slices.Clone(loops), scope)

	f.flush()
	var body ir.Block
	prev := f.cur
	f.cur = &body
	err := f.instructions(b.Body)
	if err == nil {
		var next ID
		var done bool
		next, done, err = f.terminator(b, scope.cont, inner)
		if err == nil && !done {
			err = f.walk(next, scope.cont, inner)
		}
	}
	f.flush()
	f.cur = prev
	if err != nil {
		return 0, err
	}

	var continuing ir.Block
	var breakIf *ir.ExpressionHandle
	if scope.cont != scope.header {
		outer, outerBreak := f.continuing, f.breakIf
		f.continuing, f.breakIf = &scope, nil
		continuing, err = f.region(scope.cont, scope.header, inner)
		breakIf = f.breakIf
		f.continuing, f.breakIf = outer, outerBreak
		if err != nil {
			return 0, err
		}
	}

	f.stmt(ir.StmtLoop{Body: body, Continuing: continuing, BreakIf: breakIf})
	return scope.merge, nil
}

// follow handles an unconditional transfer to target. It reports done when
// the transfer leaves the current region, after emitting any break or
// continue it needs.
func (f *funcLowerer) follow(target, stop ID, loops []loopScope) (ID, bool) {
	if target == stop {
		return 0, true
	}
	if len(loops) > 0 {
		lp := loops[len(loops)-1]
		switch target {
		case lp.merge:
			f.stmt(ir.StmtBreak{})
			return 0, true
		case lp.cont, lp.header:
			f.stmt(ir.StmtContinue{})
			return 0, true
		}
	}
	return target, false
}

func isExit(target, stop ID, loops []loopScope) bool {
	if target == stop {
		return true
	}
	if len(loops) == 0 {
		return false
	}
	lp := loops[len(loops)-1]
	return target == lp.merge || target == lp.cont || target == lp.header
}

// exitBlock returns the statements that transfer control to an exit target.
func (f *funcLowerer) exitBlock(target, stop ID, loops []loopScope) ir.Block {
	if target == stop {
		return nil
	}
	if target == loops[len(loops)-1].merge {
		return ir.Block{{Kind: ir.StmtBreak{}}}
	}
	return ir.Block{{Kind: ir.StmtContinue{}}}
}

func (f *funcLowerer) branchRegion(target, merge, stop ID, loops []loopScope) (ir.Block, error) {
	if target == merge {
		return nil, nil
	}
	if isExit(target, stop, loops) {
		return f.exitBlock(target, stop, loops), nil
	}
	return f.region(target, merge, loops)
}

func (f *funcLowerer) terminator(b *Block, stop ID, loops []loopScope) (ID, bool, error) {
	t := b.Terminator
	switch t.Opcode {
	case OpBranch:
		next, done := f.follow(t.operand(0), stop, loops)
		return next, done, nil

	case OpBranchConditional:
		cond, err := f.exprOf(t.operand(0))
		if err != nil {
			return 0, false, err
		}
		tl, fl := t.operand(1), t.operand(2)

		if b.Merge != nil && b.Merge.Opcode == OpSelectionMerge {
			merge := b.Merge.operand(0)
			f.flush()
			accept, err := f.branchRegion(tl, merge, stop, loops)
			if err != nil {
				return 0, false, err
			}
			reject, err := f.branchRegion(fl, merge, stop, loops)
			if err != nil {
				return 0, false, err
			}
			f.stmt(ir.StmtIf{Condition: cond, Accept: accept, Reject: reject})
			next, done := f.follow(merge, stop, loops)
			return next, done, nil
		}

		if lp := f.continuing; lp != nil && stop == lp.header {
			switch {
			case tl == lp.merge && fl == lp.header:
				f.breakIf = &cond
				return 0, true, nil
			case tl == lp.header && fl == lp.merge:
				boolTy := f.l.scalarHandle(ir.ScalarType{Kind: ir.ScalarBool, Width: 1})
				not := f.expr(ir.ExprUnary{Op: ir.UnaryLogicalNot, Expr: cond}, boolTy)
				f.flush()
				f.breakIf = &not
				return 0, true, nil
			}
		}

		tExit, fExit := isExit(tl, stop, loops), isExit(fl, stop, loops)
		switch {
		case tExit && fExit:
			f.stmt(ir.StmtIf{Condition: cond, Accept: f.exitBlock(tl, stop, loops), Reject: f.exitBlock(fl, stop, loops)})
			return 0, true, nil
		case tExit:
			f.stmt(ir.StmtIf{Condition: cond, Accept: f.exitBlock(tl, stop, loops)})
			return fl, false, nil
		case fExit:
			f.stmt(ir.StmtIf{Condition: cond, Reject: f.exitBlock(fl, stop, loops)})
			return tl, false, nil
		}
		return 0, false, errorf(t.Offset, "conditional branch in block %%%d has no merge; control flow is not structured", b.Label)

	case OpReturn:
		if f.entry {
			return 0, true, f.entryReturn()
		}
		f.stmt(ir.StmtReturn{})
		return 0, true, nil

	case OpReturnValue:
		e, err := f.exprOf(t.operand(0))
		if err != nil {
			return 0, false, err
		}
		f.stmt(ir.StmtReturn{Value: &e})
		return 0, true, nil

	case OpKill, OpTerminateInvocation:
		f.stmt(ir.StmtKill{})
		return 0, true, nil

	case OpUnreachable:
		return 0, true, nil
	}
	return 0, false, errorf(t.Offset, "unsupported terminator %s", t.Opcode)
}
