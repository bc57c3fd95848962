// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package native

import (
	"log/slog"
	"slices"

	"fortio.org/safecast"
	"github.com/gogpu/naga/glsl"
	"github.com/gogpu/naga/hlsl"
	"github.com/gogpu/naga/ir"
	"github.com/gogpu/naga/msl"

	"github.com/gogpu/spirvcross/spirv"
)

// Compile translates the active entry point of h into target source text
// using the options last set for target. Compile reads the context but
// never modifies it, so repeated calls return identical output.
func Compile(h Handle, target Target) (string, error) {
	var out string
	err := withContext(h, func(c *compilerContext) error {
		var err error
		out, err = c.compile(target)
		return err
	})
	return out, err
}

func (c *compilerContext) compile(target Target) (out string, err error) {
	if c.active == nil {
		return "", compilationError("module has no entry points")
	}
	log := slogger().With("target", target.String(), "entryPoint", c.active.Name, "model", c.active.Model.String())
	log.Debug("native: compile started")

	defer func() {
		if r := recover(); r != nil {
			log.Debug("native: back-end panicked", "panic", r)
			out, err = "", unhandled(ReasonPanic, "%s back-end: %v", target, r)
		}
	}()

	switch target {
	case TargetHLSL:
		out, err = c.compileHLSL(log)
	case TargetMSL:
		out, err = c.compileMSL(log)
	case TargetGLSL:
		out, err = c.compileGLSL(log)
	default:
		return "", unhandled(ReasonNone, "unknown target %s", target)
	}
	if err != nil {
		log.Debug("native: compile failed", "error", err)
		return "", err
	}
	if out == "" {
		return "", unhandled(ReasonEmptyOutput, "%s back-end returned no source", target)
	}
	log.Debug("native: compile finished", "bytes", len(out))
	return out, nil
}

// lowerOptions returns the lowering options shared by every target.
func (c *compilerContext) lowerOptions(vertex VertexOptions, zeroInit bool) spirv.LowerOptions {
	return spirv.LowerOptions{
		EntryPoint:     c.active.Name,
		Model:          c.active.Model,
		FlipVertexY:    vertex.FlipY,
		FixupClipSpace: vertex.FixupClipSpace,
		ZeroInitialize: zeroInit,
	}
}

// lower converts the active entry point to IR.
func (c *compilerContext) lower(log *slog.Logger, opts spirv.LowerOptions) (*ir.Module, *spirv.LowerInfo, error) {
	mod, info, err := spirv.Lower(c.module, opts)
	if err != nil {
		return nil, nil, compilationError("%v", err)
	}
	for _, b := range info.DroppedBuiltins {
		log.Debug("native: output builtin dropped", "builtin", b.String())
	}
	return mod, info, nil
}

func (c *compilerContext) compileHLSL(log *slog.Logger) (string, error) {
	o := c.options.hlsl
	sm, err := hlslShaderModel(o.ShaderModel)
	if err != nil {
		return "", err
	}
	lo := c.lowerOptions(o.Vertex, o.ForceZeroInitializedVariables)
	lo.PointCoordCompat = o.PointCoordCompat
	lo.ReadOnlyImagesAsTextures = o.NonwritableUAVTextureAsSRV
	lo.FlattenMatrixInputs = o.FlattenMatrixVertexInputSemantics
	mod, info, err := c.lower(log, lo)
	if err != nil {
		return "", err
	}
	if !o.PointSizeCompat && slices.Contains(info.DroppedBuiltins, spirv.BuiltInPointSize) {
		return "", compilationError("HLSL has no PointSize output; enable point size compatibility to drop it")
	}

	opts := hlsl.DefaultOptions()
	opts.ShaderModel = sm
	opts.EntryPoint = info.EntryPoint.Name
	opts.FakeMissingBindings = false
	opts.ZeroInitializeWorkgroupMemory = o.ForceZeroInitializedVariables
	samplers, err := bindHLSL(mod, info, o, opts.BindingMap)
	if err != nil {
		return "", err
	}

	out, tinfo, err := hlsl.Compile(mod, opts)
	if err != nil {
		return "", compilationError("%v", err)
	}
	if out, err = bindHLSLSamplers(out, samplers); err != nil {
		return "", err
	}
	if info.Stage == ir.StageVertex {
		name := info.EntryPoint.Name
		if tinfo != nil && tinfo.EntryPointNames[name] != "" {
			name = tinfo.EntryPointNames[name]
		}
		out = remapHLSLVertexInputs(out, name, o.VertexAttributeRemaps)
	}
	return out, nil
}

// hlslShaderModel maps major*10+minor onto the back-end's shader models.
func hlslShaderModel(sm uint32) (hlsl.ShaderModel, error) {
	switch {
	case sm == 50:
		return hlsl.ShaderModel5_0, nil
	case sm == 51:
		return hlsl.ShaderModel5_1, nil
	case sm >= 60 && sm <= 67:
		return hlsl.ShaderModel6_0 + hlsl.ShaderModel(sm-60), nil
	case sm == 30 || sm == 40 || sm == 41:
		return 0, compilationError("shader model %d.%d is not supported, the minimum is 5.0", sm/10, sm%10)
	}
	return 0, compilationError("unknown shader model %d.%d", sm/10, sm%10)
}

func (c *compilerContext) compileMSL(log *slog.Logger) (string, error) {
	o := c.options.msl
	version, err := mslVersion(o.Major, o.Minor)
	if err != nil {
		return "", err
	}
	mod, info, err := c.lower(log, c.lowerOptions(o.Vertex, o.ForceZeroInitializedVariables))
	if err != nil {
		return "", err
	}
	resources, err := bindMSL(mod, info, o)
	if err != nil {
		return "", err
	}

	opts := msl.DefaultOptions()
	opts.LangVersion = version
	opts.FakeMissingBindings = false
	opts.ZeroInitializeWorkgroupMemory = o.ForceZeroInitializedVariables
	opts.PerEntryPointMap = map[string]msl.EntryPointResources{info.EntryPoint.Name: resources}
	opts.BoundsCheckPolicies = msl.BoundsCheckPolicies{}
	if o.BoundsCheck {
		opts.BoundsCheckPolicies = msl.BoundsCheckPolicies{
			Index:        msl.BoundsCheckReadZeroSkipWrite,
			Buffer:       msl.BoundsCheckReadZeroSkipWrite,
			Image:        msl.BoundsCheckReadZeroSkipWrite,
			BindingArray: msl.BoundsCheckReadZeroSkipWrite,
		}
	}
	log.Debug("native: msl target", "platform", o.Platform.String(), "version", version.String())

	out, _, err := msl.CompileWithPipeline(mod, opts, msl.PipelineOptions{
		EntryPoint: &msl.EntryPointSelector{Stage: info.Stage, Name: info.EntryPoint.Name},
	})
	if err != nil {
		return "", compilationError("%v", err)
	}
	return out, nil
}

// mslVersion accepts Metal Shading Language 1.2 through 3.0.
func mslVersion(major, minor uint32) (msl.Version, error) {
	v := major*10 + minor
	if minor > 9 || v < 12 || v > 30 {
		return msl.Version{}, compilationError("MSL version %d.%d is not supported, want 1.2 to 3.0", major, minor)
	}
	maj, err := safecast.Conv[uint8](major)
	if err != nil {
		return msl.Version{}, compilationError("MSL version %d.%d: %v", major, minor, err)
	}
	mnr, err := safecast.Conv[uint8](minor)
	if err != nil {
		return msl.Version{}, compilationError("MSL version %d.%d: %v", major, minor, err)
	}
	return msl.Version{Major: maj, Minor: mnr}, nil
}

func (c *compilerContext) compileGLSL(log *slog.Logger) (string, error) {
	o := c.options.glsl
	version, err := glslVersion(o.Version, o.ES)
	if err != nil {
		return "", err
	}
	mod, info, err := c.lower(log, c.lowerOptions(o.Vertex, o.ForceZeroInitializedVariables))
	if err != nil {
		return "", err
	}
	if info.Stage == ir.StageCompute && !version.SupportsCompute() {
		return "", compilationError("compute shaders need GLSL 430 or GLSL ES 310, have %s", version)
	}
	bindGLSL(mod, info)

	opts := glsl.DefaultOptions()
	opts.LangVersion = version
	opts.EntryPoint = info.EntryPoint.Name
	opts.SamplerBindingBase = o.SamplerBindingBase
	opts.TextureBindingBase = o.TextureBindingBase
	opts.UniformBindingBase = o.UniformBindingBase
	opts.StorageBindingBase = o.StorageBindingBase

	out, _, err := glsl.Compile(mod, opts)
	if err != nil {
		return "", compilationError("%v", err)
	}
	return out, nil
}

var (
	glslCoreVersions = map[uint32]glsl.Version{
		330: glsl.Version330,
		400: glsl.Version400,
		410: glsl.Version410,
		420: glsl.Version420,
		430: glsl.Version430,
		450: glsl.Version450,
		460: glsl.Version460,
	}
	glslESVersions = map[uint32]glsl.Version{
		300: glsl.VersionES300,
		310: glsl.VersionES310,
		320: glsl.VersionES320,
	}
)

// glslVersion resolves a #version number. Zero picks 450 core or 310 es.
func glslVersion(v uint32, es bool) (glsl.Version, error) {
	versions, profile := glslCoreVersions, "core"
	if es {
		versions, profile = glslESVersions, "es"
	}
	if v == 0 {
		if es {
			return glsl.VersionES310, nil
		}
		return glsl.Version450, nil
	}
	if version, ok := versions[v]; ok {
		return version, nil
	}
	return glsl.Version{}, compilationError("GLSL %d %s is not supported", v, profile)
}
