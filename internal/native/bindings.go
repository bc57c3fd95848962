// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package native

import (
	"maps"
	"slices"

	"fortio.org/safecast"
	"github.com/gogpu/naga/hlsl"
	"github.com/gogpu/naga/ir"
	"github.com/gogpu/naga/msl"

	"github.com/gogpu/spirvcross/spirv"
)

// hlslKeyGroup is the descriptor group of the per-global keys given to the
// HLSL back-end. A combined image-sampler lowers to two globals sharing one
// descriptor binding, so the original (set, binding) pair cannot key the
// register map.
const hlslKeyGroup = 0x7FFFFFFF

// Default register for push constants when no root constant layout is set.
var defaultPushConstantRegister = HLSLRegister{Space: 15, Register: 0}

// bindHLSL assigns a register to every resource global of mod and records
// it in bindings. Samplers are left unbound so the back-end declares them
// plainly; their registers are returned in declaration order for
// bindHLSLSamplers.
func bindHLSL(mod *ir.Module, info *spirv.LowerInfo, o HLSLOptions, bindings map[hlsl.ResourceBinding]hlsl.BindTarget) ([]HLSLRegister, error) {
	samplers := make(map[ir.GlobalVariableHandle]HLSLRegister)
	for i, r := range info.Resources {
		reg, err := hlslRegister(r, info.EntryPoint.Model, o)
		if err != nil {
			return nil, err
		}
		gv := &mod.GlobalVariables[r.Global]
		if r.Class == spirv.ResourceSampler {
			samplers[r.Global] = reg
			gv.Binding = nil
			continue
		}
		if r.Class == spirv.ResourceStorageBuffer && o.ForceStorageBufferAsUAV {
			gv.Access = ir.StorageReadWrite
		}
		space, err := safecast.Conv[uint8](reg.Space)
		if err != nil {
			return nil, compilationError("%s: register space %d is out of range", r.Name, reg.Space)
		}
		key, err := safecast.Conv[uint32](i)
		if err != nil {
			return nil, compilationError("too many resources: %v", err)
		}
		gv.Binding = &ir.ResourceBinding{Group: hlslKeyGroup, Binding: key}
		bindings[hlsl.ResourceBinding{Group: hlslKeyGroup, Binding: key}] = hlsl.BindTarget{Space: space, Register: reg.Register}
	}

	handles := slices.Sorted(maps.Keys(samplers))
	regs := make([]HLSLRegister, len(handles))
	for i, h := range handles {
		regs[i] = samplers[h]
	}
	return regs, nil
}

// hlslRegister resolves the register of one resource. Without an explicit
// binding the descriptor set becomes the space and the binding the
// register.
func hlslRegister(r spirv.LoweredResource, stage spirv.ExecutionModel, o HLSLOptions) (HLSLRegister, error) {
	if r.Class == spirv.ResourcePushConstant {
		if len(o.RootConstants) == 0 {
			return defaultPushConstantRegister, nil
		}
		for _, rc := range o.RootConstants {
			if rc.Start <= r.Range[0] && r.Range[1] <= rc.End {
				return HLSLRegister{Space: rc.Space, Register: rc.Binding}, nil
			}
		}
		return HLSLRegister{}, compilationError("push constant block %q spans bytes [%d, %d), which no root constant covers",
			r.Name, r.Range[0], r.Range[1])
	}

	reg := HLSLRegister{Space: r.Set, Register: r.Binding}
	for _, b := range o.ResourceBindings {
		if b.Stage != stage || b.DescriptorSet != r.Set || b.Binding != r.Binding {
			continue
		}
		switch r.Class {
		case spirv.ResourceUniformBuffer:
			reg = b.CBV
		case spirv.ResourceStorageBuffer:
			reg = b.UAV
			if r.ReadOnly && !o.ForceStorageBufferAsUAV {
				reg = b.SRV
			}
		case spirv.ResourceStorageImage:
			reg = b.UAV
			if r.AsTexture {
				reg = b.SRV
			}
		case spirv.ResourceTexture:
			reg = b.SRV
		case spirv.ResourceSampler:
			reg = b.Sampler
		}
	}
	return reg, nil
}

// mslSlotClass is the Metal argument table a resource lives in.
type mslSlotClass uint8

const (
	mslBuffer mslSlotClass = iota
	mslTexture
	mslSampler
)

func (c mslSlotClass) String() string {
	switch c {
	case mslBuffer:
		return "buffer"
	case mslTexture:
		return "texture"
	default:
		return "sampler"
	}
}

func mslClass(class spirv.ResourceClass) mslSlotClass {
	switch class {
	case spirv.ResourceTexture, spirv.ResourceStorageImage:
		return mslTexture
	case spirv.ResourceSampler:
		return mslSampler
	default:
		return mslBuffer
	}
}

func (t MSLBindTarget) slot(class mslSlotClass) uint32 {
	switch class {
	case mslTexture:
		return t.Texture
	case mslSampler:
		return t.Sampler
	default:
		return t.Buffer
	}
}

// bindMSL assigns Metal argument slots. Overridden resources take their
// slots first; the rest get the lowest free slot of their class in
// declaration order. Every global is rebound to its slot so the back-end
// and the entry point map agree.
func bindMSL(mod *ir.Module, info *spirv.LowerInfo, o MSLOptions) (msl.EntryPointResources, error) {
	stage := info.EntryPoint.Model
	slots := make([]uint32, len(info.Resources))
	explicit := make([]bool, len(info.Resources))
	used := [3]map[uint32]bool{{}, {}, {}}

	for i, r := range info.Resources {
		loc := MSLBindingLocation{Stage: stage, DescriptorSet: r.Set, Binding: r.Binding}
		if r.Class == spirv.ResourcePushConstant {
			loc.DescriptorSet, loc.Binding = o.PushConstantDescriptorSet, o.PushConstantBinding
		}
		if t, ok := o.ResourceBindings[loc]; ok {
			class := mslClass(r.Class)
			slots[i], explicit[i] = t.slot(class), true
			used[class][slots[i]] = true
		}
	}

	res := msl.EntryPointResources{Resources: make(map[ir.ResourceBinding]msl.BindTarget)}
	var next [3]uint32
	for i, r := range info.Resources {
		class := mslClass(r.Class)
		if !explicit[i] {
			for used[class][next[class]] {
				next[class]++
			}
			slots[i] = next[class]
			used[class][slots[i]] = true
		}
		slot, err := safecast.Conv[uint8](slots[i])
		if err != nil {
			return msl.EntryPointResources{}, compilationError("%s: %s slot %d is out of range", r.Name, class, slots[i])
		}

		key := ir.ResourceBinding{Group: 0, Binding: slots[i]}
		target := res.Resources[key]
		switch class {
		case mslBuffer:
			target.Buffer = &slot
		case mslTexture:
			target.Texture = &slot
		case mslSampler:
			target.Sampler = &msl.BindSamplerTarget{Slot: slot}
		}
		if r.Class == spirv.ResourceStorageBuffer || r.Class == spirv.ResourceStorageImage {
			target.Mutable = !r.ReadOnly
		}
		res.Resources[key] = target
		mod.GlobalVariables[r.Global].Binding = &key
	}
	return res, nil
}

// bindGLSL gives push constant blocks, which GLSL declares as ordinary
// uniform blocks, the lowest binding no uniform buffer uses.
func bindGLSL(mod *ir.Module, info *spirv.LowerInfo) {
	used := make(map[uint32]bool)
	for _, r := range info.Resources {
		if r.Class == spirv.ResourceUniformBuffer {
			used[r.Binding] = true
		}
	}
	var next uint32
	for _, r := range info.Resources {
		if r.Class != spirv.ResourcePushConstant {
			continue
		}
		for used[next] {
			next++
		}
		used[next] = true
		mod.GlobalVariables[r.Global].Binding = &ir.ResourceBinding{Group: 0, Binding: next}
	}
}
