package spirv

import (
	"github.com/gogpu/naga/ir"
)

// imageOperands holds the optional operands following an image operand mask.
type imageOperands struct {
	mask                  uint32
	bias, lod, gradX      ID
	gradY, offset, sample ID
}

func parseImageOperands(inst Instruction, ops []uint32) (imageOperands, error) {
	var io imageOperands
	if len(ops) == 0 {
		return io, nil
	}
	io.mask, ops = ops[0], ops[1:]
	next := func() (ID, error) {
		if len(ops) == 0 {
			return 0, errorf(inst.Offset, "image operand mask 0x%x has too few operands", io.mask)
		}
		id := ops[0]
		ops = ops[1:]
		return id, nil
	}
	var err error
	if io.mask&ImageOperandsBias != 0 {
		if io.bias, err = next(); err != nil {
			return io, err
		}
	}
	if io.mask&ImageOperandsLod != 0 {
		if io.lod, err = next(); err != nil {
			return io, err
		}
	}
	if io.mask&ImageOperandsGrad != 0 {
		if io.gradX, err = next(); err != nil {
			return io, err
		}
		if io.gradY, err = next(); err != nil {
			return io, err
		}
	}
	if io.mask&ImageOperandsOffset != 0 {
		return io, errorf(inst.Offset, "non-constant texel offsets are not supported")
	}
	if io.mask&ImageOperandsConstOffset != 0 {
		if io.offset, err = next(); err != nil {
			return io, err
		}
	}
	if rest := io.mask &^ (ImageOperandsBias | ImageOperandsLod | ImageOperandsGrad |
		ImageOperandsConstOffset | ImageOperandsSample); rest != 0 {
		return io, errorf(inst.Offset, "image operands 0x%x are not supported", rest)
	}
	if io.mask&ImageOperandsSample != 0 {
		if io.sample, err = next(); err != nil {
			return io, err
		}
	}
	return io, nil
}

func (f *funcLowerer) imageType(v value) *Type {
	return f.l.m.Types[v.typ]
}

// irImage returns the lowered type of an image expression. It can differ
// from the declared one when a read-only storage image became a texture.
func (f *funcLowerer) irImage(e ir.ExpressionHandle) (ir.ImageType, bool) {
	res := f.fn.ExpressionTypes[e]
	if res.Handle == nil {
		return ir.ImageType{}, false
	}
	img, ok := f.l.out.Types[*res.Handle].Inner.(ir.ImageType)
	return img, ok
}

// coordinate splits the layer off the coordinate of an arrayed image.
func (f *funcLowerer) coordinate(id ID, img *Type) (ir.ExpressionHandle, *ir.ExpressionHandle, error) {
	v, err := f.operand(id)
	if err != nil {
		return 0, nil, err
	}
	if v.kind != kindValue {
		return 0, nil, errorf(-1, "image coordinate %%%d is not a value", id)
	}
	if !img.Image.Arrayed {
		return v.expr, nil, nil
	}
	ct := f.l.m.Types[v.typ]
	if ct == nil || ct.Op != OpTypeVector {
		return 0, nil, errorf(-1, "arrayed image coordinate %%%d is not a vector", id)
	}
	s, err := f.l.componentScalar(v.typ)
	if err != nil {
		return 0, nil, err
	}
	elem := f.l.scalarHandle(s)
	n := ct.Count - 1

	var coord ir.ExpressionHandle
	if n == 1 {
		coord = f.expr(ir.ExprAccessIndex{Base: v.expr, Index: 0}, elem)
	} else {
		pattern := [4]ir.SwizzleComponent{ir.SwizzleX, ir.SwizzleY, ir.SwizzleZ, ir.SwizzleW}
		coord = f.expr(ir.ExprSwizzle{Size: ir.VectorSize(n), Vector: v.expr, Pattern: pattern}, f.l.vectorHandle(ir.VectorSize(n), s))
	}
	layer := f.expr(ir.ExprAccessIndex{Base: v.expr, Index: n}, elem)
	if s.Kind != ir.ScalarSint {
		i32 := ir.ScalarType{Kind: ir.ScalarSint, Width: 4}
		var convert *uint8
		if s.Kind == ir.ScalarFloat {
			width := uint8(4)
			convert = &width
		}
		layer = f.expr(ir.ExprAs{Expr: layer, Kind: ir.ScalarSint, Convert: convert}, f.l.scalarHandle(i32))
	}
	return coord, &layer, nil
}

// texel defines the result of a sampling or load. Depth images produce a
// scalar, which is widened back to the vector the module expects.
func (f *funcLowerer) texel(inst Instruction, kind ir.ExpressionKind, img *Type, scalar bool) error {
	if img.Image.Depth != 1 || img.Image.Sampled == 2 || scalar {
		return f.define(inst, kind)
	}
	rt := f.l.m.Types[inst.operand(0)]
	if rt == nil || rt.Op != OpTypeVector {
		return f.define(inst, kind)
	}
	s, err := f.l.componentScalar(inst.operand(0))
	if err != nil {
		return err
	}
	e := f.expr(kind, f.l.scalarHandle(s))
	ty, err := f.l.lowerType(inst.operand(0))
	if err != nil {
		return err
	}
	f.values[inst.operand(1)] = value{expr: f.expr(ir.ExprSplat{Size: ir.VectorSize(rt.Count), Value: e}, ty), typ: inst.operand(0)}
	return nil
}

func (f *funcLowerer) imageSample(inst Instruction) error {
	ops := inst.Operands
	si, err := f.operand(ops[2])
	if err != nil {
		return err
	}
	if si.kind != kindSampledImage {
		return errorf(inst.Offset, "%%%d is not a sampled image", ops[2])
	}
	img := f.imageType(si)
	coord, layer, err := f.coordinate(ops[3], img)
	if err != nil {
		return err
	}
	sample := ir.ExprImageSample{
		Image:      si.expr,
		Sampler:    si.sampler,
		Coordinate: coord,
		ArrayIndex: layer,
		Level:      ir.SampleLevelAuto{},
	}

	rest := ops[4:]
	dref := inst.Opcode == OpImageSampleDrefImplicitLod || inst.Opcode == OpImageSampleDrefExplicitLod
	switch {
	case dref:
		d, err := f.exprOf(rest[0])
		if err != nil {
			return err
		}
		sample.DepthRef = &d
		rest = rest[1:]
	case inst.Opcode == OpImageGather:
		component, ok := f.l.m.IntConstant(rest[0])
		if !ok || component > 3 {
			return errorf(inst.Offset, "gather component must be a constant from 0 to 3")
		}
		c := ir.SwizzleComponent(component)
		sample.Gather = &c
		sample.Level = ir.SampleLevelZero{}
		rest = rest[1:]
	}

	io, err := parseImageOperands(inst, rest)
	if err != nil {
		return err
	}
	switch {
	case io.bias != 0:
		b, err := f.exprOf(io.bias)
		if err != nil {
			return err
		}
		sample.Level = ir.SampleLevelBias{Bias: b}
	case io.lod != 0:
		if lod, ok := f.l.m.Constants[io.lod]; ok && dref && !lod.IsSpec() && isZero(lod) {
			sample.Level = ir.SampleLevelZero{}
			break
		}
		lod, err := f.exprOf(io.lod)
		if err != nil {
			return err
		}
		sample.Level = ir.SampleLevelExact{Level: lod}
	case io.gradX != 0:
		args, err := f.exprs([]uint32{io.gradX, io.gradY})
		if err != nil {
			return err
		}
		sample.Level = ir.SampleLevelGradient{X: args[0], Y: args[1]}
	}
	if io.offset != 0 {
		off, err := f.exprOf(io.offset)
		if err != nil {
			return err
		}
		sample.Offset = &off
	}
	return f.texel(inst, sample, img, dref || sample.Gather != nil)
}

func isZero(c *Constant) bool {
	for _, w := range c.Value {
		if w != 0 {
			return false
		}
	}
	return c.Op != OpConstantComposite
}

func (f *funcLowerer) imageLoad(inst Instruction) error {
	ops := inst.Operands
	im, err := f.operand(ops[2])
	if err != nil {
		return err
	}
	if im.kind != kindImage {
		return errorf(inst.Offset, "%%%d is not an image", ops[2])
	}
	img := f.imageType(im)
	coord, layer, err := f.coordinate(ops[3], img)
	if err != nil {
		return err
	}
	load := ir.ExprImageLoad{Image: im.expr, Coordinate: coord, ArrayIndex: layer}

	io, err := parseImageOperands(inst, ops[4:])
	if err != nil {
		return err
	}
	if io.lod != 0 {
		lod, err := f.exprOf(io.lod)
		if err != nil {
			return err
		}
		load.Level = &lod
	}
	if io.sample != 0 {
		s, err := f.exprOf(io.sample)
		if err != nil {
			return err
		}
		load.Sample = &s
	}
	if it, ok := f.irImage(im.expr); ok && load.Level == nil && it.Class != ir.ImageClassStorage && !it.Multisampled {
		i32 := f.l.scalarHandle(ir.ScalarType{Kind: ir.ScalarSint, Width: 4})
		zero := f.inline(ir.Literal{Value: ir.LiteralI32(0)}, i32)
		load.Level = &zero
	}
	return f.texel(inst, load, img, false)
}

func (f *funcLowerer) imageWrite(inst Instruction) error {
	ops := inst.Operands
	im, err := f.operand(ops[0])
	if err != nil {
		return err
	}
	if im.kind != kindImage {
		return errorf(inst.Offset, "%%%d is not an image", ops[0])
	}
	coord, layer, err := f.coordinate(ops[1], f.imageType(im))
	if err != nil {
		return err
	}
	texel, err := f.exprOf(ops[2])
	if err != nil {
		return err
	}
	f.stmt(ir.StmtImageStore{Image: im.expr, Coordinate: coord, ArrayIndex: layer, Value: texel})
	return nil
}

func (f *funcLowerer) queryImage(inst Instruction) (value, *Type, error) {
	im, err := f.operand(inst.operand(2))
	if err != nil {
		return value{}, nil, err
	}
	switch im.kind {
	case kindImage:
	case kindSampledImage:
		im.kind = kindImage
	default:
		return value{}, nil, errorf(inst.Offset, "%%%d is not an image", inst.operand(2))
	}
	return im, f.imageType(im), nil
}

// signed reinterprets an unsigned query result when the module expects a
// signed one.
func (f *funcLowerer) signed(inst Instruction, e ir.ExpressionHandle) error {
	s, err := f.l.componentScalar(inst.operand(0))
	if err != nil {
		return err
	}
	ty, err := f.l.lowerType(inst.operand(0))
	if err != nil {
		return err
	}
	if s.Kind != ir.ScalarUint {
		e = f.expr(ir.ExprAs{Expr: e, Kind: s.Kind}, ty)
	}
	f.values[inst.operand(1)] = value{expr: e, typ: inst.operand(0)}
	return nil
}

func (f *funcLowerer) imageSize(inst Instruction) error {
	im, img, err := f.queryImage(inst)
	if err != nil {
		return err
	}
	var query ir.ImageQuerySize
	if inst.Opcode == OpImageQuerySizeLod {
		lod, err := f.exprOf(inst.operand(3))
		if err != nil {
			return err
		}
		query.Level = &lod
	}

	u32 := ir.ScalarType{Kind: ir.ScalarUint, Width: 4}
	dims := uint32(2)
	switch img.Image.Dim {
	case Dim1D:
		dims = 1
	case Dim3D:
		dims = 3
	}
	sizeTy := f.l.scalarHandle(u32)
	if dims > 1 {
		sizeTy = f.l.vectorHandle(ir.VectorSize(dims), u32)
	}
	e := f.expr(ir.ExprImageQuery{Image: im.expr, Query: query}, sizeTy)
	if img.Image.Arrayed {
		layers := f.expr(ir.ExprImageQuery{Image: im.expr, Query: ir.ImageQueryNumLayers{}}, f.l.scalarHandle(u32))
		withLayers := f.l.vectorHandle(ir.VectorSize(dims+1), u32)
		e = f.expr(ir.ExprCompose{Type: withLayers, Components: []ir.ExpressionHandle{e, layers}}, withLayers)
	}
	return f.signed(inst, e)
}

func (f *funcLowerer) imageQuery(inst Instruction, query ir.ImageQuery) error {
	im, _, err := f.queryImage(inst)
	if err != nil {
		return err
	}
	u32 := f.l.scalarHandle(ir.ScalarType{Kind: ir.ScalarUint, Width: 4})
	return f.signed(inst, f.expr(ir.ExprImageQuery{Image: im.expr, Query: query}, u32))
}
