// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package spirvcross

import (
	"fmt"
	"slices"

	"github.com/gogpu/spirvcross/internal/native"
)

// ShaderModel is an HLSL shader model, encoded as major*10+minor.
type ShaderModel uint32

// Shader models
const (
	ShaderModel30 ShaderModel = 30
	ShaderModel40 ShaderModel = 40
	ShaderModel41 ShaderModel = 41
	ShaderModel50 ShaderModel = 50
	ShaderModel51 ShaderModel = 51
	ShaderModel60 ShaderModel = 60
	ShaderModel61 ShaderModel = 61
	ShaderModel62 ShaderModel = 62
	ShaderModel63 ShaderModel = 63
	ShaderModel64 ShaderModel = 64
	ShaderModel65 ShaderModel = 65
	ShaderModel66 ShaderModel = 66
	ShaderModel67 ShaderModel = 67
)

// String returns the model as "major.minor".
func (m ShaderModel) String() string {
	return fmt.Sprintf("%d.%d", m/10, m%10)
}

// VertexOptions rewrites the vertex position output. It is shared by all
// targets.
type VertexOptions struct {
	// FlipY negates position.y.
	FlipY bool

	// FixupClipSpace remaps depth from [-1, 1] to [0, 1].
	FixupClipSpace bool
}

func (v VertexOptions) toNative() native.VertexOptions {
	return native.VertexOptions{FlipY: v.FlipY, FixupClipSpace: v.FixupClipSpace}
}

// HLSLRegister is a register index within a register space.
type HLSLRegister struct {
	Space    uint32
	Register uint32
}

// HLSLResourceBinding places the resource declared at (Stage,
// DescriptorSet, Binding) in explicit registers. The register matching the
// resource's class is used: CBV for uniform buffers, UAV for storage
// buffers and storage images, SRV for textures, Sampler for samplers.
type HLSLResourceBinding struct {
	Stage         ExecutionModel
	DescriptorSet uint32
	Binding       uint32

	CBV     HLSLRegister
	UAV     HLSLRegister
	SRV     HLSLRegister
	Sampler HLSLRegister
}

// RootConstant maps the push constant byte range [Start, End) onto the
// constant buffer register b<Binding> in Space.
type RootConstant struct {
	Start   uint32
	End     uint32
	Binding uint32
	Space   uint32
}

// HLSLVertexAttributeRemap gives the vertex input at Location the HLSL
// semantic Semantic, such as "POSITION" or "TEXCOORD3", in place of the
// default LOC<Location>.
type HLSLVertexAttributeRemap struct {
	Location uint32
	Semantic string
}

// HLSLEntryPoint names the entry point HLSLOptions selects.
type HLSLEntryPoint struct {
	Name           string
	ExecutionModel ExecutionModel
}

// HLSLOptions configures HLSL output.
type HLSLOptions struct {
	// ShaderModel selects the output profile. Zero means ShaderModel51.
	// Models below 5.0 are accepted here and rejected by Compile.
	ShaderModel ShaderModel

	// PointSizeCompat silently drops gl_PointSize writes, which HLSL
	// cannot express. Without it a vertex shader writing PointSize fails
	// to compile.
	PointSizeCompat bool

	// PointCoordCompat replaces gl_PointCoord reads with (0.5, 0.5).
	PointCoordCompat bool

	Vertex                        VertexOptions
	ForceZeroInitializedVariables bool

	// ResourceBindings overrides the default register assignment of
	// register = binding, space = descriptor set.
	ResourceBindings []HLSLResourceBinding

	// RootConstants places push constants. When empty the push constant
	// block lives in b0, space15.
	RootConstants []RootConstant

	// ForceStorageBufferAsUAV declares NonWritable storage buffers as
	// RWByteAddressBuffer in a u register. By default they are
	// ByteAddressBuffer in a t register, taking the SRV register of an
	// HLSLResourceBinding.
	ForceStorageBufferAsUAV bool

	// NonwritableUAVTextureAsSRV declares NonWritable storage images as
	// read-only textures in a t register, taking the SRV register of an
	// HLSLResourceBinding.
	NonwritableUAVTextureAsSRV bool

	// FlattenMatrixVertexInputSemantics splits each matrix vertex input
	// into one vector input per column, at consecutive locations.
	FlattenMatrixVertexInputSemantics bool

	// VertexAttributeRemaps renames vertex input semantics by location.
	VertexAttributeRemaps []HLSLVertexAttributeRemap

	// EntryPoint, when set, is made the active entry point as the options
	// are applied. An unknown entry point fails with ErrEntryPointNotFound
	// and leaves the options unchanged.
	EntryPoint *HLSLEntryPoint
}

// DefaultHLSLOptions returns Shader Model 5.1 with default registers.
func DefaultHLSLOptions() HLSLOptions {
	return HLSLOptions{ShaderModel: ShaderModel51}
}

func (HLSLOptions) target() Target { return TargetHLSL }

func (o HLSLOptions) toNative() native.CompilerOptions {
	n := native.HLSLOptions{
		ShaderModel:                   uint32(o.ShaderModel),
		PointSizeCompat:               o.PointSizeCompat,
		PointCoordCompat:              o.PointCoordCompat,
		Vertex:                        o.Vertex.toNative(),
		ForceZeroInitializedVariables: o.ForceZeroInitializedVariables,

		ForceStorageBufferAsUAV:           o.ForceStorageBufferAsUAV,
		NonwritableUAVTextureAsSRV:        o.NonwritableUAVTextureAsSRV,
		FlattenMatrixVertexInputSemantics: o.FlattenMatrixVertexInputSemantics,
	}
	if o.EntryPoint != nil {
		n.EntryPoint = &native.EntryPointRef{Name: o.EntryPoint.Name, Model: o.EntryPoint.ExecutionModel}
	}
	for _, r := range o.VertexAttributeRemaps {
		n.VertexAttributeRemaps = append(n.VertexAttributeRemaps, native.HLSLVertexAttributeRemap(r))
	}
	if n.ShaderModel == 0 {
		n.ShaderModel = uint32(ShaderModel51)
	}
	for _, b := range o.ResourceBindings {
		n.ResourceBindings = append(n.ResourceBindings, native.HLSLResourceBinding{
			Stage:         b.Stage,
			DescriptorSet: b.DescriptorSet,
			Binding:       b.Binding,
			CBV:           native.HLSLRegister(b.CBV),
			UAV:           native.HLSLRegister(b.UAV),
			SRV:           native.HLSLRegister(b.SRV),
			Sampler:       native.HLSLRegister(b.Sampler),
		})
	}
	for _, rc := range o.RootConstants {
		n.RootConstants = append(n.RootConstants, native.RootConstant(rc))
	}
	return n
}

func (o HLSLOptions) clone() any {
	o.ResourceBindings = slices.Clone(o.ResourceBindings)
	o.RootConstants = slices.Clone(o.RootConstants)
	o.VertexAttributeRemaps = slices.Clone(o.VertexAttributeRemaps)
	if o.EntryPoint != nil {
		ep := *o.EntryPoint
		o.EntryPoint = &ep
	}
	return o
}

// SetRootConstantLayout replaces the root constant layout of a. Every push
// constant block must fall inside one of the ranges, or Compile fails.
func SetRootConstantLayout(a *HLSLAst, layout []RootConstant) error {
	return a.updateOptions("set root constant layout", func(o *HLSLOptions) {
		o.RootConstants = slices.Clone(layout)
	})
}

// AddHLSLResourceBinding adds a register override, replacing an earlier one
// for the same stage, descriptor set and binding.
func AddHLSLResourceBinding(a *HLSLAst, b HLSLResourceBinding) error {
	return a.updateOptions("add hlsl resource binding", func(o *HLSLOptions) {
		o.ResourceBindings = slices.DeleteFunc(o.ResourceBindings, func(x HLSLResourceBinding) bool {
			return x.Stage == b.Stage && x.DescriptorSet == b.DescriptorSet && x.Binding == b.Binding
		})
		o.ResourceBindings = append(o.ResourceBindings, b)
	})
}

// AddHLSLVertexAttributeRemap sets the semantic of the vertex input at
// r.Location, replacing an earlier remap of the same location.
func AddHLSLVertexAttributeRemap(a *HLSLAst, r HLSLVertexAttributeRemap) error {
	return a.updateOptions("add hlsl vertex attribute remap", func(o *HLSLOptions) {
		o.VertexAttributeRemaps = slices.DeleteFunc(o.VertexAttributeRemaps, func(x HLSLVertexAttributeRemap) bool {
			return x.Location == r.Location
		})
		o.VertexAttributeRemaps = append(o.VertexAttributeRemaps, r)
	})
}
