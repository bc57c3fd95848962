// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package native

import (
	"fmt"
	"maps"
	"slices"

	"github.com/gogpu/spirvcross/spirv"
)

// Target is an output shading language.
type Target uint8

const (
	TargetHLSL Target = iota
	TargetMSL
	TargetGLSL
)

// String returns the lower-case language name.
func (t Target) String() string {
	switch t {
	case TargetHLSL:
		return "hlsl"
	case TargetMSL:
		return "msl"
	case TargetGLSL:
		return "glsl"
	default:
		return fmt.Sprintf("Target(%d)", uint8(t))
	}
}

// CompilerOptions is implemented by HLSLOptions, MSLOptions and GLSLOptions.
type CompilerOptions interface {
	Target() Target
}

// VertexOptions rewrites the vertex position output.
type VertexOptions struct {
	FlipY          bool
	FixupClipSpace bool
}

// HLSLRegister is a register index within a register space.
type HLSLRegister struct {
	Space    uint32
	Register uint32
}

// HLSLResourceBinding remaps the resource at (Stage, DescriptorSet, Binding)
// onto explicit registers. The register matching the resource's class is
// used.
type HLSLResourceBinding struct {
	Stage         spirv.ExecutionModel
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

// HLSLVertexAttributeRemap names the semantic of the vertex input at
// Location, replacing the default LOC<Location>.
type HLSLVertexAttributeRemap struct {
	Location uint32
	Semantic string
}

// EntryPointRef names an entry point by name and execution model.
type EntryPointRef struct {
	Name  string
	Model spirv.ExecutionModel
}

func (r *EntryPointRef) equal(o *EntryPointRef) bool {
	if r == nil || o == nil {
		return r == o
	}
	return *r == *o
}

// HLSLOptions configures HLSL output. ShaderModel is encoded as
// major*10+minor, so 51 is Shader Model 5.1.
type HLSLOptions struct {
	ShaderModel                   uint32
	PointSizeCompat               bool
	PointCoordCompat              bool
	Vertex                        VertexOptions
	ForceZeroInitializedVariables bool
	ResourceBindings              []HLSLResourceBinding
	RootConstants                 []RootConstant

	// ForceStorageBufferAsUAV declares read-only storage buffers as
	// RWByteAddressBuffer on a u register instead of ByteAddressBuffer on
	// a t register.
	ForceStorageBufferAsUAV bool
	// NonwritableUAVTextureAsSRV declares NonWritable storage images as
	// Texture* on a t register.
	NonwritableUAVTextureAsSRV bool
	// FlattenMatrixVertexInputSemantics splits matrix vertex inputs into
	// one vector input per column at consecutive locations.
	FlattenMatrixVertexInputSemantics bool
	VertexAttributeRemaps             []HLSLVertexAttributeRemap

	// EntryPoint, when set, becomes the active entry point as the options
	// are applied.
	EntryPoint *EntryPointRef
}

// Target implements CompilerOptions.
func (HLSLOptions) Target() Target { return TargetHLSL }

// DefaultHLSLOptions returns Shader Model 5.1 with no remapping.
func DefaultHLSLOptions() HLSLOptions {
	return HLSLOptions{ShaderModel: 51}
}

// MSLPlatform is the Apple platform the output targets.
type MSLPlatform uint8

const (
	MSLPlatformMacOS MSLPlatform = iota
	MSLPlatformIOS
)

func (p MSLPlatform) String() string {
	switch p {
	case MSLPlatformMacOS:
		return "macOS"
	case MSLPlatformIOS:
		return "iOS"
	default:
		return fmt.Sprintf("MSLPlatform(%d)", uint8(p))
	}
}

// MSLBindingLocation identifies a resource by stage and descriptor binding.
type MSLBindingLocation struct {
	Stage         spirv.ExecutionModel
	DescriptorSet uint32
	Binding       uint32
}

// MSLBindTarget holds the Metal argument slots for a resource. Only the
// slot matching the resource's class is used.
type MSLBindTarget struct {
	Buffer  uint32
	Texture uint32
	Sampler uint32
}

// MSLOptions configures MSL output.
type MSLOptions struct {
	// Platform is informational. The generated source is the same for
	// macOS and iOS; the language version selects the feature set.
	Platform                      MSLPlatform
	Major, Minor                  uint32
	Vertex                        VertexOptions
	ForceZeroInitializedVariables bool
	BoundsCheck                   bool
	ResourceBindings              map[MSLBindingLocation]MSLBindTarget

	// Push constant blocks are addressed in ResourceBindings with this
	// descriptor set and binding.
	PushConstantDescriptorSet uint32
	PushConstantBinding       uint32
}

// Target implements CompilerOptions.
func (MSLOptions) Target() Target { return TargetMSL }

// DefaultMSLOptions returns MSL 2.1 for macOS.
func DefaultMSLOptions() MSLOptions {
	return MSLOptions{Major: 2, Minor: 1}
}

// GLSLOptions configures GLSL output. Version is the #version number, 450
// for GLSL 4.50. Zero selects 450 core or 310 es.
type GLSLOptions struct {
	Version                       uint32
	ES                            bool
	Vertex                        VertexOptions
	ForceZeroInitializedVariables bool
	SamplerBindingBase            uint32
	TextureBindingBase            uint32
	UniformBindingBase            uint32
	StorageBindingBase            uint32
}

// Target implements CompilerOptions.
func (GLSLOptions) Target() Target { return TargetGLSL }

// DefaultGLSLOptions returns GLSL 450 core, which accepts every stage.
func DefaultGLSLOptions() GLSLOptions {
	return GLSLOptions{Version: 450}
}

// targetOptions holds a context's options for every target. Values are
// copied on the way in so callers cannot alias them.
type targetOptions struct {
	hlsl HLSLOptions
	msl  MSLOptions
	glsl GLSLOptions
}

func defaultTargetOptions() targetOptions {
	return targetOptions{
		hlsl: DefaultHLSLOptions(),
		msl:  DefaultMSLOptions(),
		glsl: DefaultGLSLOptions(),
	}
}

func (o *targetOptions) set(opts CompilerOptions) error {
	switch v := opts.(type) {
	case HLSLOptions:
		v.ResourceBindings = slices.Clone(v.ResourceBindings)
		v.RootConstants = slices.Clone(v.RootConstants)
		v.VertexAttributeRemaps = slices.Clone(v.VertexAttributeRemaps)
		if v.EntryPoint != nil {
			ep := *v.EntryPoint
			v.EntryPoint = &ep
		}
		o.hlsl = v
	case MSLOptions:
		v.ResourceBindings = maps.Clone(v.ResourceBindings)
		o.msl = v
	case GLSLOptions:
		o.glsl = v
	default:
		return unhandled(ReasonNone, "unsupported options type %T", opts)
	}
	return nil
}

// SetOptions replaces the options of the target opts belongs to. Values
// are not validated until Compile, except for an HLSL entry point, which
// must exist. A changed HLSL entry point is selected immediately; applying
// the same one again leaves the active entry point alone.
func SetOptions(h Handle, opts CompilerOptions) error {
	if opts == nil {
		return unhandled(ReasonNone, "nil compiler options")
	}
	return withContext(h, func(c *compilerContext) error {
		var active *spirv.EntryPoint
		if o, ok := opts.(HLSLOptions); ok && o.EntryPoint != nil && !o.EntryPoint.equal(c.options.hlsl.EntryPoint) {
			ep, found := c.module.EntryPoint(o.EntryPoint.Name, o.EntryPoint.Model)
			if !found {
				return entryPointNotFound(o.EntryPoint.Name, o.EntryPoint.Model)
			}
			active = ep
		}
		if err := c.options.set(opts); err != nil {
			return err
		}
		if active != nil {
			c.active = active
		}
		return nil
	})
}
