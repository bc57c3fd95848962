package spirv

import (
	"fmt"
	"slices"

	"github.com/gogpu/naga/ir"
)

// LowerOptions selects the entry point to lower and the rewrites applied
// while lowering it.
type LowerOptions struct {
	// EntryPoint and Model select the entry point. An empty name selects
	// the first entry point of the module.
	EntryPoint string
	Model      ExecutionModel

	// FlipVertexY negates gl_Position.y before every vertex return.
	FlipVertexY bool

	// FixupClipSpace rewrites gl_Position.z from [-w, w] to [0, w].
	FixupClipSpace bool

	// ZeroInitialize gives every local and output variable without an
	// initializer a zero initializer.
	ZeroInitialize bool

	// PointCoordCompat replaces gl_PointCoord with vec2(0.5) on targets
	// that have no point-coordinate input.
	PointCoordCompat bool

	// ReadOnlyImagesAsTextures lowers NonWritable storage images to sampled
	// textures, so targets bind them as shader resource views.
	ReadOnlyImagesAsTextures bool

	// FlattenMatrixInputs splits every matrix vertex input into one vector
	// input per column, at consecutive locations.
	FlattenMatrixInputs bool
}

// ResourceClass tells the back-ends which kind of binding slot a resource
// occupies.
type ResourceClass uint8

// Resource classes
const (
	ResourceUniformBuffer ResourceClass = iota
	ResourceStorageBuffer
	ResourceTexture
	ResourceStorageImage
	ResourceSampler
	ResourcePushConstant
)

func (c ResourceClass) String() string {
	switch c {
	case ResourceUniformBuffer:
		return "uniform buffer"
	case ResourceStorageBuffer:
		return "storage buffer"
	case ResourceTexture:
		return "texture"
	case ResourceStorageImage:
		return "storage image"
	case ResourceSampler:
		return "sampler"
	case ResourcePushConstant:
		return "push constant"
	}
	return fmt.Sprintf("ResourceClass(%d)", uint8(c))
}

// LoweredResource describes a resource global of the lowered module.
type LoweredResource struct {
	Global   ir.GlobalVariableHandle
	Variable ID
	Name     string
	Set      uint32
	Binding  uint32
	Class    ResourceClass

	// ReadOnly is set for NonWritable storage buffers and images.
	ReadOnly bool

	// AsTexture is set for read-only storage images lowered to textures.
	AsTexture bool

	// Order is the declaration index of Variable among module-scope variables.
	Order int

	// Range is the byte range [Range[0], Range[1]) a push constant block covers.
	Range [2]uint32
}

// LowerInfo reports what lowering did beyond producing the module.
type LowerInfo struct {
	Stage      ir.ShaderStage
	EntryPoint *EntryPoint

	// Resources lists resource globals sorted by declaration order. A
	// combined image-sampler contributes a texture and a sampler entry.
	Resources []LoweredResource

	// DroppedBuiltins lists output builtins with no target equivalent.
	DroppedBuiltins []BuiltIn
}

// PushConstantBinding is the placeholder binding given to push constant
// blocks; back-ends resolve it per target.
var PushConstantBinding = ir.ResourceBinding{Group: 0xFFFFFFFF, Binding: 0}

// Lower converts one entry point of m, its call graph and the globals they
// reference into a naga IR module. m is only read.
func Lower(m *Module, opts LowerOptions) (*ir.Module, *LowerInfo, error) {
	ep, err := selectEntryPoint(m, opts)
	if err != nil {
		return nil, nil, err
	}
	stage, err := shaderStage(ep.Model)
	if err != nil {
		return nil, nil, err
	}

	l := &lowerer{
		m:         m,
		opts:      opts,
		ep:        ep,
		out:       &ir.Module{},
		info:      &LowerInfo{Stage: stage, EntryPoint: ep},
		typeKeys:  make(map[string]ir.TypeHandle),
		typeIDs:   make(map[ID]ir.TypeHandle),
		globals:   make(map[ID]ir.GlobalVariableHandle),
		samplers:  make(map[ID]ir.GlobalVariableHandle),
		consts:    make(map[ID]ir.ConstantHandle),
		funcs:     make(map[ID]ir.FunctionHandle),
		declOrder: make(map[ID]int, len(m.Variables)),
	}
	for i, v := range m.Variables {
		l.declOrder[v.ID] = i
	}

	order, err := l.callOrder(ep.Function)
	if err != nil {
		return nil, nil, err
	}
	// The entry point body is inline in the IR entry point; only its
	// callees live in Functions. callOrder puts the root last.
	callees := order[:len(order)-1]
	for i, id := range callees {
		l.funcs[id] = ir.FunctionHandle(i)
	}
	for _, id := range callees {
		fn, err := l.lowerFunction(id, false)
		if err != nil {
			return nil, nil, err
		}
		l.out.Functions = append(l.out.Functions, *fn)
	}
	entry, err := l.lowerFunction(ep.Function, true)
	if err != nil {
		return nil, nil, err
	}

	l.out.EntryPoints = []ir.EntryPoint{{
		Name:      ep.Name,
		Stage:     stage,
		Function:  *entry,
		Workgroup: ep.LocalSize,
	}}
	slices.SortStableFunc(l.info.Resources, func(a, b LoweredResource) int {
		return a.Order - b.Order
	})
	return l.out, l.info, nil
}

func selectEntryPoint(m *Module, opts LowerOptions) (*EntryPoint, error) {
	if len(m.EntryPoints) == 0 {
		return nil, errorf(-1, "module has no entry points")
	}
	if opts.EntryPoint == "" {
		return m.EntryPoints[0], nil
	}
	ep, ok := m.EntryPoint(opts.EntryPoint, opts.Model)
	if !ok {
		return nil, errorf(-1, "entry point %q (%s) not found", opts.EntryPoint, opts.Model)
	}
	return ep, nil
}

func shaderStage(model ExecutionModel) (ir.ShaderStage, error) {
	switch model {
	case ExecutionModelVertex:
		return ir.StageVertex, nil
	case ExecutionModelFragment:
		return ir.StageFragment, nil
	case ExecutionModelGLCompute:
		return ir.StageCompute, nil
	}
	return 0, errorf(-1, "%s entry points cannot be compiled", model)
}

type lowerer struct {
	m    *Module
	opts LowerOptions
	ep   *EntryPoint
	out  *ir.Module
	info *LowerInfo

	typeKeys  map[string]ir.TypeHandle
	typeIDs   map[ID]ir.TypeHandle
	globals   map[ID]ir.GlobalVariableHandle
	samplers  map[ID]ir.GlobalVariableHandle // combined image-sampler variable -> sampler global
	consts    map[ID]ir.ConstantHandle
	funcs     map[ID]ir.FunctionHandle
	declOrder map[ID]int
}

// callOrder returns the functions reachable from root, callees first.
func (l *lowerer) callOrder(root ID) ([]ID, error) {
	const (
		visiting = 1
		done     = 2
	)
	state := make(map[ID]int)
	var order []ID
	var visit func(id ID) error
	visit = func(id ID) error {
		switch state[id] {
		case visiting:
			return errorf(-1, "recursive call to function %%%d", id)
		case done:
			return nil
		}
		fn, ok := l.m.Function(id)
		if !ok {
			return errorf(-1, "call to undefined function %%%d", id)
		}
		state[id] = visiting
		for _, b := range fn.Blocks {
			for _, inst := range b.Body {
				if inst.Opcode != OpFunctionCall {
					continue
				}
				if err := visit(inst.operand(2)); err != nil {
					return err
				}
			}
		}
		state[id] = done
		order = append(order, id)
		return nil
	}
	if err := visit(root); err != nil {
		return nil, err
	}
	return order, nil
}

// addType appends a type, reusing a structurally equal one. Structs are
// never shared since their names and member bindings matter to back-ends.
func (l *lowerer) addType(name string, inner ir.TypeInner) ir.TypeHandle {
	_, isStruct := inner.(ir.StructType)
	key := typeKey(inner)
	if !isStruct {
		if h, ok := l.typeKeys[key]; ok {
			return h
		}
	}
	h := ir.TypeHandle(len(l.out.Types))
	l.out.Types = append(l.out.Types, ir.Type{Name: name, Inner: inner})
	if !isStruct {
		l.typeKeys[key] = h
	}
	return h
}

func typeKey(inner ir.TypeInner) string {
	if a, ok := inner.(ir.ArrayType); ok {
		size := "runtime"
		if a.Size.Constant != nil {
			size = fmt.Sprint(*a.Size.Constant)
		}
		return fmt.Sprintf("array:%d:%s:%d", a.Base, size, a.Stride)
	}
	return fmt.Sprintf("%T:%+v", inner, inner)
}

func (l *lowerer) scalarType(id ID) (ir.ScalarType, error) {
	t := l.m.Types[id]
	if t == nil {
		return ir.ScalarType{}, errorf(-1, "%%%d is not a type", id)
	}
	switch t.Op {
	case OpTypeBool:
		return ir.ScalarType{Kind: ir.ScalarBool, Width: 1}, nil
	case OpTypeInt:
		kind := ir.ScalarUint
		if t.Signed {
			kind = ir.ScalarSint
		}
		return ir.ScalarType{Kind: kind, Width: uint8(t.Width / 8)}, nil
	case OpTypeFloat:
		return ir.ScalarType{Kind: ir.ScalarFloat, Width: uint8(t.Width / 8)}, nil
	}
	return ir.ScalarType{}, errorf(-1, "%s %%%d is not a scalar type", t.Op, id)
}

func vectorSize(n uint32) (ir.VectorSize, error) {
	if n < 2 || n > 4 {
		return 0, errorf(-1, "vector size %d is not supported", n)
	}
	return ir.VectorSize(n), nil
}

// scalarHandle returns the handle of a scalar type, creating it if needed.
func (l *lowerer) scalarHandle(s ir.ScalarType) ir.TypeHandle {
	return l.addType("", s)
}

func (l *lowerer) vectorHandle(size ir.VectorSize, s ir.ScalarType) ir.TypeHandle {
	return l.addType("", ir.VectorType{Size: size, Scalar: s})
}

// lowerType converts a value type. Pointer types lower to their pointee.
func (l *lowerer) lowerType(id ID) (ir.TypeHandle, error) {
	if h, ok := l.typeIDs[id]; ok {
		return h, nil
	}
	t := l.m.Types[id]
	if t == nil {
		return 0, errorf(-1, "%%%d is not a type", id)
	}

	var h ir.TypeHandle
	switch t.Op {
	case OpTypeBool, OpTypeInt, OpTypeFloat:
		s, err := l.scalarType(id)
		if err != nil {
			return 0, err
		}
		h = l.scalarHandle(s)

	case OpTypeVector:
		s, err := l.scalarType(t.Component)
		if err != nil {
			return 0, err
		}
		size, err := vectorSize(t.Count)
		if err != nil {
			return 0, err
		}
		h = l.vectorHandle(size, s)

	case OpTypeMatrix:
		col := l.m.Types[t.Component]
		if col == nil || col.Op != OpTypeVector {
			return 0, errorf(-1, "matrix %%%d has a non-vector column type", id)
		}
		s, err := l.scalarType(col.Component)
		if err != nil {
			return 0, err
		}
		rows, err := vectorSize(col.Count)
		if err != nil {
			return 0, err
		}
		cols, err := vectorSize(t.Count)
		if err != nil {
			return 0, err
		}
		h = l.addType("", ir.MatrixType{Columns: cols, Rows: rows, Scalar: s})

	case OpTypeArray, OpTypeRuntimeArray:
		base, err := l.lowerType(t.Element)
		if err != nil {
			return 0, err
		}
		var size ir.ArraySize
		if t.Op == OpTypeArray {
			n, ok := l.m.IntConstant(t.Length)
			if !ok {
				return 0, errorf(-1, "array %%%d length must be a constant integer", id)
			}
			size.Constant = &n
		}
		stride, ok := l.m.Decoration(id, DecorationArrayStride)
		if !ok {
			stride, _ = l.m.TypeSize(t.Element)
		}
		h = l.addType("", ir.ArrayType{Base: base, Size: size, Stride: stride})

	case OpTypeStruct:
		st := ir.StructType{Members: make([]ir.StructMember, len(t.Members))}
		for i, member := range t.Members {
			mh, err := l.lowerType(member)
			if err != nil {
				return 0, err
			}
			offset, _ := l.m.MemberDecoration(id, uint32(i), DecorationOffset)
			name := l.m.MemberName(id, uint32(i))
			if name == "" {
				name = fmt.Sprintf("_m%d", i)
			}
			st.Members[i] = ir.StructMember{Name: name, Type: mh, Offset: offset}
		}
		st.Span, _ = l.m.DeclaredStructSize(id)
		h = l.addType(l.structName(id), st)

	case OpTypeImage:
		img, err := l.imageType(t)
		if err != nil {
			return 0, err
		}
		h = l.addType("", img)

	case OpTypeSampler:
		h = l.addType("", ir.SamplerType{})

	case OpTypePointer:
		return l.lowerType(t.Pointee)

	default:
		return 0, errorf(-1, "%s %%%d cannot be lowered", t.Op, id)
	}
	l.typeIDs[id] = h
	return h, nil
}

func (l *lowerer) structName(id ID) string {
	if name := l.m.Names[id]; name != "" {
		return name
	}
	return fmt.Sprintf("_%d", id)
}

func (l *lowerer) imageType(t *Type) (ir.ImageType, error) {
	img := ir.ImageType{Arrayed: t.Image.Arrayed, Multisampled: t.Image.Multisampled}
	switch t.Image.Dim {
	case Dim1D:
		img.Dim = ir.Dim1D
	case Dim2D:
		img.Dim = ir.Dim2D
	case Dim3D:
		img.Dim = ir.Dim3D
	case DimCube:
		img.Dim = ir.DimCube
	default:
		return img, errorf(-1, "image dimension %s is not supported", t.Image.Dim)
	}
	sampled, err := l.scalarType(t.Image.SampledType)
	if err != nil {
		return img, errorf(-1, "image %%%d: %v", t.ID, err)
	}
	switch {
	case t.Image.Sampled == 2:
		img.Class = ir.ImageClassStorage
		img.StorageAccess = ir.StorageAccessReadWrite
		img.StorageFormat, err = storageFormat(t.Image.Format, sampled.Kind)
		if err != nil {
			return img, err
		}
	case t.Image.Depth == 1:
		img.Class = ir.ImageClassDepth
		img.SampledKind = ir.ScalarFloat
	default:
		img.Class = ir.ImageClassSampled
		img.SampledKind = sampled.Kind
	}
	return img, nil
}

// storageFormats maps SPIR-V image formats onto storage texture formats.
var storageFormats = map[uint32]ir.StorageFormat{
	1:  ir.StorageFormatRgba32Float,
	2:  ir.StorageFormatRgba16Float,
	3:  ir.StorageFormatR32Float,
	4:  ir.StorageFormatRgba8Unorm,
	5:  ir.StorageFormatRgba8Snorm,
	6:  ir.StorageFormatRg32Float,
	7:  ir.StorageFormatRg16Float,
	8:  ir.StorageFormatRg11b10Ufloat,
	9:  ir.StorageFormatR16Float,
	10: ir.StorageFormatRgba16Unorm,
	11: ir.StorageFormatRgb10a2Unorm,
	12: ir.StorageFormatRg16Unorm,
	13: ir.StorageFormatRg8Unorm,
	14: ir.StorageFormatR16Unorm,
	15: ir.StorageFormatR8Unorm,
	16: ir.StorageFormatRgba16Snorm,
	17: ir.StorageFormatRg16Snorm,
	18: ir.StorageFormatRg8Snorm,
	19: ir.StorageFormatR16Snorm,
	20: ir.StorageFormatR8Snorm,
	21: ir.StorageFormatRgba32Sint,
	22: ir.StorageFormatRgba16Sint,
	23: ir.StorageFormatRgba8Sint,
	24: ir.StorageFormatR32Sint,
	25: ir.StorageFormatRg32Sint,
	26: ir.StorageFormatRg16Sint,
	27: ir.StorageFormatRg8Sint,
	28: ir.StorageFormatR16Sint,
	29: ir.StorageFormatR8Sint,
	30: ir.StorageFormatRgba32Uint,
	31: ir.StorageFormatRgba16Uint,
	32: ir.StorageFormatRgba8Uint,
	33: ir.StorageFormatR32Uint,
	34: ir.StorageFormatRgb10a2Uint,
	35: ir.StorageFormatRg32Uint,
	36: ir.StorageFormatRg16Uint,
	37: ir.StorageFormatRg8Uint,
	38: ir.StorageFormatR16Uint,
	39: ir.StorageFormatR8Uint,
	40: ir.StorageFormatR64Uint,
	41: ir.StorageFormatR64Sint,
}

// storageFormat resolves the format of a storage image. An Unknown format
// takes the widest four-component format of the sampled type.
func storageFormat(format uint32, kind ir.ScalarKind) (ir.StorageFormat, error) {
	if format == 0 {
		switch kind {
		case ir.ScalarSint:
			return ir.StorageFormatRgba32Sint, nil
		case ir.ScalarUint:
			return ir.StorageFormatRgba32Uint, nil
		default:
			return ir.StorageFormatRgba32Float, nil
		}
	}
	f, ok := storageFormats[format]
	if !ok {
		return 0, errorf(-1, "image format %d is not supported", format)
	}
	return f, nil
}

// pointerArgType lowers the type of a pointer function parameter.
func (l *lowerer) pointerArgType(id ID) (ir.TypeHandle, error) {
	t := l.m.Types[id]
	base, err := l.lowerType(t.Pointee)
	if err != nil {
		return 0, err
	}
	space, err := addressSpace(t.Storage)
	if err != nil {
		return 0, err
	}
	return l.addType("", ir.PointerType{Base: base, Space: space}), nil
}

func addressSpace(sc StorageClass) (ir.AddressSpace, error) {
	switch sc {
	case StorageClassFunction:
		return ir.SpaceFunction, nil
	case StorageClassPrivate:
		return ir.SpacePrivate, nil
	case StorageClassWorkgroup:
		return ir.SpaceWorkGroup, nil
	case StorageClassUniform, StorageClassPushConstant:
		return ir.SpaceUniform, nil
	case StorageClassStorageBuffer:
		return ir.SpaceStorage, nil
	case StorageClassUniformConstant:
		return ir.SpaceHandle, nil
	}
	return 0, errorf(-1, "storage class %s is not supported", sc)
}

// constantValue converts a constant into a module constant value, creating
// module constants for the constituents of composites.
func (l *lowerer) constantValue(c *Constant) (ir.ConstantValue, error) {
	if len(c.Constituents) > 0 {
		comps := make([]ir.ConstantHandle, len(c.Constituents))
		for i, id := range c.Constituents {
			h, err := l.moduleConstant(id)
			if err != nil {
				return nil, err
			}
			comps[i] = h
		}
		return ir.CompositeValue{Components: comps}, nil
	}
	s, err := l.scalarType(c.Type)
	if err != nil {
		return nil, errorf(-1, "constant %%%d: %v", c.ID, err)
	}
	var bits uint64
	if len(c.Value) > 0 {
		bits = uint64(c.Value[0])
	}
	if len(c.Value) > 1 {
		bits |= uint64(c.Value[1]) << 32
	}
	return ir.ScalarValue{Bits: bits, Kind: s.Kind}, nil
}

// moduleConstant returns the module constant for id, creating it on first use.
func (l *lowerer) moduleConstant(id ID) (ir.ConstantHandle, error) {
	if h, ok := l.consts[id]; ok {
		return h, nil
	}
	c, ok := l.m.Constants[id]
	if !ok {
		return 0, errorf(-1, "%%%d is not a constant", id)
	}
	if c.Op == OpConstantNull || c.Op == OpUndef {
		return 0, errorf(-1, "null constant %%%d cannot initialize a global", id)
	}
	ty, err := l.lowerType(c.Type)
	if err != nil {
		return 0, err
	}
	value, err := l.constantValue(c)
	if err != nil {
		return 0, err
	}
	init, err := l.constantInit(c, ty, value)
	if err != nil {
		return 0, err
	}
	name := l.m.Names[id]
	if name == "" && c.IsSpec() {
		// Back-ends only declare named constants, and function bodies
		// reference spec constants by name.
		name = fmt.Sprintf("_%d", id)
		if specID, ok := l.m.Decoration(id, DecorationSpecID); ok {
			name = fmt.Sprintf("SPIRV_CROSS_CONSTANT_ID_%d", specID)
		}
	}
	h := ir.ConstantHandle(len(l.out.Constants))
	l.out.Constants = append(l.out.Constants, ir.Constant{Name: name, Type: ty, Value: value, Init: init})
	l.consts[id] = h
	return h, nil
}

// constantInit appends the module-scope expression that initializes a
// constant. Composites reference the init expressions of their
// constituents, which moduleConstant has already created.
func (l *lowerer) constantInit(c *Constant, ty ir.TypeHandle, value ir.ConstantValue) (ir.ExpressionHandle, error) {
	var kind ir.ExpressionKind
	switch v := value.(type) {
	case ir.CompositeValue:
		comps := make([]ir.ExpressionHandle, len(v.Components))
		for i, ch := range v.Components {
			comps[i] = l.out.Constants[ch].Init
		}
		kind = ir.ExprCompose{Type: ty, Components: comps}
	default:
		s, err := l.scalarType(c.Type)
		if err != nil {
			return 0, errorf(-1, "constant %%%d: %v", c.ID, err)
		}
		lit, err := literal(s, c.Value)
		if err != nil {
			return 0, errorf(-1, "constant %%%d: %v", c.ID, err)
		}
		kind = ir.Literal{Value: lit}
	}
	h := ir.ExpressionHandle(len(l.out.GlobalExpressions))
	l.out.GlobalExpressions = append(l.out.GlobalExpressions, ir.Expression{Kind: kind})
	return h, nil
}

// global returns the IR global for a module-scope variable that is not part
// of the entry point interface, creating it on first use.
func (l *lowerer) global(v *Variable) (ir.GlobalVariableHandle, error) {
	if h, ok := l.globals[v.ID]; ok {
		return h, nil
	}
	ptr := l.m.Types[v.Type]
	if ptr == nil || ptr.Op != OpTypePointer {
		return 0, errorf(-1, "variable %%%d does not have a pointer type", v.ID)
	}
	if t := l.m.Types[ptr.Pointee]; t != nil && (t.Op == OpTypeArray || t.Op == OpTypeRuntimeArray) {
		if inner := l.m.Types[l.m.stripArrays(ptr.Pointee)]; inner != nil && isOpaque(inner.Op) {
			return 0, errorf(-1, "variable %%%d: arrays of opaque resources are not supported", v.ID)
		}
	}
	if t := l.m.Types[ptr.Pointee]; t != nil && t.Op == OpTypeSampledImage {
		return l.combinedImageSampler(v, t)
	}

	space, err := addressSpace(v.Storage)
	if err != nil {
		return 0, errorf(-1, "variable %%%d: %v", v.ID, err)
	}
	if v.Storage == StorageClassUniform && l.m.HasDecoration(ptr.Pointee, DecorationBufferBlock) {
		space = ir.SpaceStorage
	}
	ty, err := l.lowerType(ptr.Pointee)
	if err != nil {
		return 0, err
	}
	readOnly := l.readOnly(v, ptr.Pointee)

	gv := ir.GlobalVariable{Name: l.m.resourceName(v.ID, ptr.Pointee), Space: space, Type: ty}
	if gv.Name == "" {
		gv.Name = fmt.Sprintf("_%d", v.ID)
	}
	if space == ir.SpaceStorage && readOnly {
		gv.Access = ir.StorageRead
	}
	if v.Init != 0 {
		init, err := l.moduleConstant(v.Init)
		if err != nil {
			return 0, err
		}
		expr := l.out.Constants[init].Init
		gv.Init, gv.InitExpr = &init, &expr
	}

	h := ir.GlobalVariableHandle(len(l.out.GlobalVariables))
	if class, ok := l.resourceClass(v, ptr.Pointee); ok {
		res := LoweredResource{Global: h, Variable: v.ID, Name: gv.Name, Class: class, ReadOnly: readOnly, Order: l.declOrder[v.ID]}
		if class == ResourceStorageImage {
			gv.Type, res.AsTexture = l.storageImage(gv.Type, v.ID, readOnly)
		}
		if class == ResourcePushConstant {
			gv.Binding = &ir.ResourceBinding{Group: PushConstantBinding.Group, Binding: PushConstantBinding.Binding}
			res.Set, res.Binding = PushConstantBinding.Group, PushConstantBinding.Binding
			res.Range = l.pushConstantRange(ptr.Pointee)
		} else {
			res.Set, _ = l.m.Decoration(v.ID, DecorationDescriptorSet)
			res.Binding, _ = l.m.Decoration(v.ID, DecorationBinding)
			gv.Binding = &ir.ResourceBinding{Group: res.Set, Binding: res.Binding}
		}
		l.info.Resources = append(l.info.Resources, res)
	}
	l.out.GlobalVariables = append(l.out.GlobalVariables, gv)
	l.globals[v.ID] = h
	return h, nil
}

// readOnly reports whether a variable is NonWritable, either directly or,
// for blocks, on every member.
func (l *lowerer) readOnly(v *Variable, pointee ID) bool {
	if l.m.HasDecoration(v.ID, DecorationNonWritable) {
		return true
	}
	t := l.m.Types[pointee]
	if t == nil || t.Op != OpTypeStruct || len(t.Members) == 0 {
		return false
	}
	for i := range t.Members {
		if _, ok := l.m.MemberDecoration(pointee, uint32(i), DecorationNonWritable); !ok {
			return false
		}
	}
	return true
}

// storageImage narrows the access of a storage image global to what its
// decorations allow. A read-only image becomes a sampled texture when
// ReadOnlyImagesAsTextures is set.
func (l *lowerer) storageImage(ty ir.TypeHandle, id ID, readOnly bool) (ir.TypeHandle, bool) {
	img, ok := l.out.Types[ty].Inner.(ir.ImageType)
	if !ok {
		return ty, false
	}
	switch {
	case readOnly && l.opts.ReadOnlyImagesAsTextures:
		img.Class = ir.ImageClassSampled
		img.SampledKind = img.StorageFormat.ScalarKind()
		img.StorageFormat, img.StorageAccess = 0, 0
		return l.addType("", img), true
	case readOnly:
		img.StorageAccess = ir.StorageAccessRead
	case l.m.HasDecoration(id, DecorationNonReadable):
		img.StorageAccess = ir.StorageAccessWrite
	}
	return l.addType("", img), false
}

func isOpaque(op OpCode) bool {
	return op == OpTypeImage || op == OpTypeSampler || op == OpTypeSampledImage
}

func (l *lowerer) resourceClass(v *Variable, pointee ID) (ResourceClass, bool) {
	switch v.Storage {
	case StorageClassUniform:
		if l.m.HasDecoration(pointee, DecorationBufferBlock) {
			return ResourceStorageBuffer, true
		}
		return ResourceUniformBuffer, true
	case StorageClassStorageBuffer:
		return ResourceStorageBuffer, true
	case StorageClassPushConstant:
		return ResourcePushConstant, true
	case StorageClassUniformConstant:
		t := l.m.Types[pointee]
		switch {
		case t.Op == OpTypeSampler:
			return ResourceSampler, true
		case t.Op == OpTypeImage && t.Image.Sampled == 2:
			return ResourceStorageImage, true
		case t.Op == OpTypeImage:
			return ResourceTexture, true
		}
	}
	return 0, false
}

// pushConstantRange returns the byte range a push constant block's members
// occupy.
func (l *lowerer) pushConstantRange(structID ID) [2]uint32 {
	t := l.m.Types[structID]
	if t == nil || t.Op != OpTypeStruct || len(t.Members) == 0 {
		return [2]uint32{}
	}
	lo := ^uint32(0)
	var hi uint32
	for i := range t.Members {
		offset, _ := l.m.MemberDecoration(structID, uint32(i), DecorationOffset)
		size, _ := l.m.memberSize(structID, uint32(i))
		lo = min(lo, offset)
		hi = max(hi, offset+size)
	}
	return [2]uint32{lo, hi}
}

// combinedImageSampler splits a sampled-image variable into an image global
// and a "<name>_sampler" sampler global with the same binding.
func (l *lowerer) combinedImageSampler(v *Variable, sampled *Type) (ir.GlobalVariableHandle, error) {
	imgType := l.m.Types[sampled.Element]
	if imgType == nil || imgType.Op != OpTypeImage {
		return 0, errorf(-1, "sampled image %%%d does not wrap an image type", sampled.ID)
	}
	ty, err := l.lowerType(sampled.Element)
	if err != nil {
		return 0, err
	}
	name := l.m.resourceName(v.ID, sampled.ID)
	if name == "" {
		name = fmt.Sprintf("_%d", v.ID)
	}
	set, _ := l.m.Decoration(v.ID, DecorationDescriptorSet)
	binding, _ := l.m.Decoration(v.ID, DecorationBinding)
	order := l.declOrder[v.ID]

	img := ir.GlobalVariableHandle(len(l.out.GlobalVariables))
	l.out.GlobalVariables = append(l.out.GlobalVariables, ir.GlobalVariable{
		Name: name, Space: ir.SpaceHandle, Type: ty,
		Binding: &ir.ResourceBinding{Group: set, Binding: binding},
	})
	smp := ir.GlobalVariableHandle(len(l.out.GlobalVariables))
	l.out.GlobalVariables = append(l.out.GlobalVariables, ir.GlobalVariable{
		Name: name + "_sampler", Space: ir.SpaceHandle,
		Type:    l.addType("", ir.SamplerType{Comparison: imgType.Image.Depth == 1}),
		Binding: &ir.ResourceBinding{Group: set, Binding: binding},
	})
	l.info.Resources = append(l.info.Resources,
		LoweredResource{Global: img, Variable: v.ID, Name: name, Set: set, Binding: binding, Class: ResourceTexture, Order: order},
		LoweredResource{Global: smp, Variable: v.ID, Name: name + "_sampler", Set: set, Binding: binding, Class: ResourceSampler, Order: order},
	)
	l.globals[v.ID] = img
	l.samplers[v.ID] = smp
	return img, nil
}
