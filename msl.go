// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package spirvcross

import (
	"fmt"
	"maps"

	"github.com/gogpu/spirvcross/internal/native"
)

// MSLPlatform is the Apple platform the output targets.
type MSLPlatform uint8

// Platforms
const (
	MSLPlatformMacOS MSLPlatform = iota
	MSLPlatformIOS
)

// String returns the platform name.
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

// MSLVersion is a Metal Shading Language version.
type MSLVersion struct {
	Major, Minor uint32
}

// Common versions
var (
	MSLVersion12 = MSLVersion{1, 2}
	MSLVersion20 = MSLVersion{2, 0}
	MSLVersion21 = MSLVersion{2, 1}
	MSLVersion23 = MSLVersion{2, 3}
	MSLVersion30 = MSLVersion{3, 0}
)

// String returns the version as "major.minor".
func (v MSLVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// ResourceBindingLocation identifies a resource by stage and descriptor
// binding.
type ResourceBindingLocation struct {
	ExecutionModel ExecutionModel
	DescriptorSet  uint32
	Binding        uint32
}

// ResourceBindingOverride holds the Metal argument slots of a resource.
// Only the slot matching the resource's class is used; a combined image
// sampler uses both Texture and Sampler.
type ResourceBindingOverride struct {
	Buffer  uint32
	Texture uint32
	Sampler uint32
}

// MSLOptions configures MSL output.
type MSLOptions struct {
	// Platform is informational and recorded in debug logs. Output is
	// identical for macOS and iOS; Version alone selects the available
	// language features.
	Platform MSLPlatform

	// Version selects the language version. The zero value means 2.1.
	Version MSLVersion

	Vertex                        VertexOptions
	ForceZeroInitializedVariables bool

	// BoundsCheck clamps out-of-range buffer and texture accesses: reads
	// return zero and writes are skipped.
	BoundsCheck bool

	// ResourceBindingOverrides places resources in explicit slots. The
	// rest take the lowest free slot of their class in declaration order.
	ResourceBindingOverrides map[ResourceBindingLocation]ResourceBindingOverride

	// Push constant blocks are addressed in ResourceBindingOverrides with
	// this descriptor set and binding.
	PushConstantDescriptorSet uint32
	PushConstantBinding       uint32
}

// DefaultMSLOptions returns MSL 2.1 for macOS.
func DefaultMSLOptions() MSLOptions {
	return MSLOptions{Version: MSLVersion21}
}

func (MSLOptions) target() Target { return TargetMSL }

func (o MSLOptions) toNative() native.CompilerOptions {
	n := native.MSLOptions{
		Platform:                      native.MSLPlatform(o.Platform),
		Major:                         o.Version.Major,
		Minor:                         o.Version.Minor,
		Vertex:                        o.Vertex.toNative(),
		ForceZeroInitializedVariables: o.ForceZeroInitializedVariables,
		BoundsCheck:                   o.BoundsCheck,
		PushConstantDescriptorSet:     o.PushConstantDescriptorSet,
		PushConstantBinding:           o.PushConstantBinding,
	}
	if o.Version == (MSLVersion{}) {
		n.Major, n.Minor = MSLVersion21.Major, MSLVersion21.Minor
	}
	if len(o.ResourceBindingOverrides) > 0 {
		n.ResourceBindings = make(map[native.MSLBindingLocation]native.MSLBindTarget, len(o.ResourceBindingOverrides))
		for loc, t := range o.ResourceBindingOverrides {
			key := native.MSLBindingLocation{Stage: loc.ExecutionModel, DescriptorSet: loc.DescriptorSet, Binding: loc.Binding}
			n.ResourceBindings[key] = native.MSLBindTarget(t)
		}
	}
	return n
}

func (o MSLOptions) clone() any {
	o.ResourceBindingOverrides = maps.Clone(o.ResourceBindingOverrides)
	return o
}

// AddMSLResourceBinding places the resource at loc in the slots of
// override, replacing an earlier override for the same location.
func AddMSLResourceBinding(a *MSLAst, loc ResourceBindingLocation, override ResourceBindingOverride) error {
	return a.updateOptions("add msl resource binding", func(o *MSLOptions) {
		if o.ResourceBindingOverrides == nil {
			o.ResourceBindingOverrides = make(map[ResourceBindingLocation]ResourceBindingOverride)
		}
		o.ResourceBindingOverrides[loc] = override
	})
}
