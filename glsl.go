// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package spirvcross

import "github.com/gogpu/spirvcross/internal/native"

// GLSLOptions configures GLSL output.
type GLSLOptions struct {
	// Version is the #version number: 330, 400, 410, 420, 430, 450 or 460 for
	// desktop GLSL, 300, 310 or 320 with ES. Zero means 450, or 310 with
	// ES. Both accept compute shaders.
	Version uint32
	ES      bool

	Vertex                        VertexOptions
	ForceZeroInitializedVariables bool

	// Binding bases are added to the binding of each resource class.
	SamplerBindingBase uint32
	TextureBindingBase uint32
	UniformBindingBase uint32
	StorageBindingBase uint32
}

// DefaultGLSLOptions returns GLSL 450 core.
func DefaultGLSLOptions() GLSLOptions {
	return GLSLOptions{Version: 450}
}

func (GLSLOptions) target() Target { return TargetGLSL }

func (o GLSLOptions) toNative() native.CompilerOptions {
	n := native.GLSLOptions{
		Version:                       o.Version,
		ES:                            o.ES,
		Vertex:                        o.Vertex.toNative(),
		ForceZeroInitializedVariables: o.ForceZeroInitializedVariables,
		SamplerBindingBase:            o.SamplerBindingBase,
		TextureBindingBase:            o.TextureBindingBase,
		UniformBindingBase:            o.UniformBindingBase,
		StorageBindingBase:            o.StorageBindingBase,
	}
	if n.Version == 0 {
		n.Version = 450
		if o.ES {
			n.Version = 310
		}
	}
	return n
}

func (o GLSLOptions) clone() any { return o }
