package spirv

import "fmt"

// Resource is a module-scope variable as seen by reflection.
type Resource struct {
	ID         ID
	TypeID     ID // pointer type of the variable
	BaseTypeID ID // pointee type
	Name       string
}

// Resources partitions module-scope variables by how shaders use them.
// Every slice is in declaration order.
type Resources struct {
	UniformBuffers      []Resource
	StorageBuffers      []Resource
	StageInputs         []Resource
	StageOutputs        []Resource
	SampledImages       []Resource
	StorageImages       []Resource
	PushConstantBuffers []Resource
	SeparateImages      []Resource
	SeparateSamplers    []Resource
	BuiltinInputs       []Resource
	BuiltinOutputs      []Resource
}

// SpecializationConstant pairs a specialization constant with its SpecId.
type SpecializationConstant struct {
	ID     ID
	SpecID uint32
}

// Resources classifies the module's global variables.
func (m *Module) Resources() Resources {
	var res Resources
	for _, v := range m.Variables {
		ptr, ok := m.Types[v.Type]
		if !ok || ptr.Op != OpTypePointer {
			continue
		}
		base := ptr.Pointee
		r := Resource{ID: v.ID, TypeID: v.Type, BaseTypeID: base, Name: m.resourceName(v.ID, base)}
		inner := m.stripArrays(base)

		switch v.Storage {
		case StorageClassUniform:
			if m.HasDecoration(inner, DecorationBufferBlock) {
				res.StorageBuffers = append(res.StorageBuffers, r)
			} else {
				res.UniformBuffers = append(res.UniformBuffers, r)
			}
		case StorageClassStorageBuffer:
			res.StorageBuffers = append(res.StorageBuffers, r)
		case StorageClassPushConstant:
			res.PushConstantBuffers = append(res.PushConstantBuffers, r)
		case StorageClassUniformConstant:
			t := m.Types[inner]
			if t == nil {
				continue
			}
			switch t.Op {
			case OpTypeSampledImage:
				res.SampledImages = append(res.SampledImages, r)
			case OpTypeImage:
				if t.Image.Sampled == 2 {
					res.StorageImages = append(res.StorageImages, r)
				} else {
					res.SeparateImages = append(res.SeparateImages, r)
				}
			case OpTypeSampler:
				res.SeparateSamplers = append(res.SeparateSamplers, r)
			}
		case StorageClassInput:
			if m.isBuiltinVariable(v.ID, inner) {
				res.BuiltinInputs = append(res.BuiltinInputs, r)
			} else {
				res.StageInputs = append(res.StageInputs, r)
			}
		case StorageClassOutput:
			if m.isBuiltinVariable(v.ID, inner) {
				res.BuiltinOutputs = append(res.BuiltinOutputs, r)
			} else {
				res.StageOutputs = append(res.StageOutputs, r)
			}
		}
	}
	return res
}

// resourceName prefers the variable's name and falls back to the name of
// its block type, which is how anonymous interface blocks are named.
func (m *Module) resourceName(id, base ID) string {
	if name := m.Names[id]; name != "" {
		return name
	}
	return m.Names[m.stripArrays(base)]
}

func (m *Module) isBuiltinVariable(id, base ID) bool {
	if m.HasDecoration(id, DecorationBuiltIn) {
		return true
	}
	t := m.Types[base]
	if t == nil || t.Op != OpTypeStruct {
		return false
	}
	for i := range t.Members {
		if _, ok := m.MemberDecoration(base, uint32(i), DecorationBuiltIn); ok {
			return true
		}
	}
	return false
}

func (m *Module) stripArrays(id ID) ID {
	for {
		t := m.Types[id]
		if t == nil || (t.Op != OpTypeArray && t.Op != OpTypeRuntimeArray) {
			return id
		}
		id = t.Element
	}
}

// SpecializationConstants lists scalar specialization constants carrying a
// SpecId, in declaration order.
func (m *Module) SpecializationConstants() []SpecializationConstant {
	var out []SpecializationConstant
	for _, id := range m.constOrder {
		c := m.Constants[id]
		if !c.IsSpec() || c.Op == OpSpecConstantComposite {
			continue
		}
		specID, ok := m.Decoration(id, DecorationSpecID)
		if !ok {
			continue
		}
		out = append(out, SpecializationConstant{ID: id, SpecID: specID})
	}
	return out
}

// ScalarKind classifies a scalar type for constant checking.
type ScalarKind uint8

// Scalar kinds
const (
	ScalarBool ScalarKind = iota
	ScalarInt
	ScalarUint
	ScalarFloat
)

func (k ScalarKind) String() string {
	switch k {
	case ScalarBool:
		return "bool"
	case ScalarInt:
		return "int"
	case ScalarUint:
		return "uint"
	case ScalarFloat:
		return "float"
	}
	return fmt.Sprintf("ScalarKind(%d)", uint8(k))
}

// Scalar returns the kind and bit width of a scalar type.
func (m *Module) Scalar(typeID ID) (ScalarKind, uint32, bool) {
	t := m.Types[typeID]
	if t == nil {
		return 0, 0, false
	}
	switch t.Op {
	case OpTypeBool:
		return ScalarBool, 32, true
	case OpTypeInt:
		if t.Signed {
			return ScalarInt, t.Width, true
		}
		return ScalarUint, t.Width, true
	case OpTypeFloat:
		return ScalarFloat, t.Width, true
	}
	return 0, 0, false
}

// SetSpecConstantValue replaces the default value of a scalar specialization
// constant. value holds one word per 32 bits of width; booleans use 0 or 1.
func (m *Module) SetSpecConstantValue(id ID, value []uint32) error {
	c, ok := m.Constants[id]
	if !ok || !c.IsSpec() || c.Op == OpSpecConstantComposite {
		return errorf(-1, "%%%d is not a scalar specialization constant", id)
	}
	kind, width, _ := m.Scalar(c.Type)
	words := 1
	if kind != ScalarBool && width > 32 {
		words = 2
	}
	if len(value) != words {
		return errorf(-1, "%%%d needs %d value words, got %d", id, words, len(value))
	}
	if kind == ScalarBool {
		if value[0] != 0 {
			c.Op = OpSpecConstantTrue
			c.Value = []uint32{1}
		} else {
			c.Op = OpSpecConstantFalse
			c.Value = []uint32{0}
		}
		return nil
	}
	c.Value = append([]uint32(nil), value...)
	return nil
}

// IntConstant returns the value of a non-specialization integer constant.
func (m *Module) IntConstant(id ID) (uint32, bool) {
	c, ok := m.Constants[id]
	if !ok || c.IsSpec() || len(c.Value) == 0 {
		return 0, false
	}
	if t := m.Types[c.Type]; t == nil || t.Op != OpTypeInt {
		return 0, false
	}
	return c.Value[0], true
}

// DeclaredStructSize returns the byte size of a struct from its Offset,
// ArrayStride and MatrixStride decorations. A trailing runtime array
// contributes nothing.
func (m *Module) DeclaredStructSize(id ID) (uint32, error) {
	t := m.Types[id]
	if t == nil || t.Op != OpTypeStruct {
		return 0, errorf(-1, "%%%d is not a struct type", id)
	}
	if len(t.Members) == 0 {
		return 0, nil
	}
	last := uint32(len(t.Members) - 1)
	offset, ok := m.MemberDecoration(id, last, DecorationOffset)
	if !ok {
		return 0, errorf(-1, "struct %%%d member %d has no Offset decoration", id, last)
	}
	size, err := m.memberSize(id, last)
	if err != nil {
		return 0, err
	}
	return offset + size, nil
}

// memberSize returns the size of one struct member, honoring its
// MatrixStride decoration.
func (m *Module) memberSize(structID ID, member uint32) (uint32, error) {
	memberType := m.Types[structID].Members[member]
	if stride, ok := m.MemberDecoration(structID, member, DecorationMatrixStride); ok {
		if mt := m.Types[m.stripArrays(memberType)]; mt != nil && mt.Op == OpTypeMatrix {
			cols := mt.Count
			if _, rowMajor := m.MemberDecoration(structID, member, DecorationRowMajor); rowMajor {
				if ct := m.Types[mt.Component]; ct != nil {
					cols = ct.Count
				}
			}
			if memberType == mt.ID {
				return stride * cols, nil
			}
		}
	}
	return m.TypeSize(memberType)
}

// TypeSize returns the byte size of a type with explicit layout.
func (m *Module) TypeSize(id ID) (uint32, error) {
	t := m.Types[id]
	if t == nil {
		return 0, errorf(-1, "%%%d is not a type", id)
	}
	switch t.Op {
	case OpTypeBool:
		return 4, nil
	case OpTypeInt, OpTypeFloat:
		return t.Width / 8, nil
	case OpTypeVector:
		elem, err := m.TypeSize(t.Component)
		return elem * t.Count, err
	case OpTypeMatrix:
		col, err := m.TypeSize(t.Component)
		return col * t.Count, err
	case OpTypeArray:
		n, ok := m.IntConstant(t.Length)
		if !ok {
			return 0, errorf(-1, "array %%%d has a non-constant length", id)
		}
		if stride, ok := m.Decoration(id, DecorationArrayStride); ok {
			return stride * n, nil
		}
		elem, err := m.TypeSize(t.Element)
		return elem * n, err
	case OpTypeRuntimeArray:
		return 0, nil
	case OpTypeStruct:
		return m.DeclaredStructSize(id)
	}
	return 0, errorf(-1, "%s %%%d has no size", t.Op, id)
}
