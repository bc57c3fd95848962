// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/term"

	"github.com/gogpu/spirvcross"
)

// Report is the reflection summary printed by spvcross reflect.
type Report struct {
	EntryPoints             []EntryPointInfo   `json:"entry_points" msgpack:"entry_points" toml:"entry_points"`
	Resources               []ResourceInfo     `json:"resources,omitempty" msgpack:"resources,omitempty" toml:"resources,omitempty"`
	SpecializationConstants []SpecConstantInfo `json:"specialization_constants,omitempty" msgpack:"specialization_constants,omitempty" toml:"specialization_constants,omitempty"`
}

// EntryPointInfo describes one entry point.
type EntryPointInfo struct {
	Name          string    `json:"name" msgpack:"name" toml:"name"`
	Stage         string    `json:"stage" msgpack:"stage" toml:"stage"`
	WorkgroupSize [3]uint32 `json:"workgroup_size" msgpack:"workgroup_size" toml:"workgroup_size"`
}

// ResourceInfo describes one resource and its binding decorations.
type ResourceInfo struct {
	Kind     string  `json:"kind" msgpack:"kind" toml:"kind"`
	ID       uint32  `json:"id" msgpack:"id" toml:"id"`
	Name     string  `json:"name" msgpack:"name" toml:"name"`
	Set      *uint32 `json:"set,omitempty" msgpack:"set,omitempty" toml:"set,omitempty"`
	Binding  *uint32 `json:"binding,omitempty" msgpack:"binding,omitempty" toml:"binding,omitempty"`
	Location *uint32 `json:"location,omitempty" msgpack:"location,omitempty" toml:"location,omitempty"`
	Size     uint32  `json:"size,omitempty" msgpack:"size,omitempty" toml:"size,omitempty"`
}

// SpecConstantInfo describes one specialization constant.
type SpecConstantInfo struct {
	ID     uint32 `json:"id" msgpack:"id" toml:"id"`
	SpecID uint32 `json:"spec_id" msgpack:"spec_id" toml:"spec_id"`
	Name   string `json:"name" msgpack:"name" toml:"name"`
	Type   string `json:"type" msgpack:"type" toml:"type"`
	Value  string `json:"value" msgpack:"value" toml:"value"`
}

func newReflectCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "reflect [--format json|msgpack|toml] shader.spv",
		Short: "Print entry points, resources and specialization constants",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := readModule(args[0])
			if err != nil {
				return err
			}
			report, err := buildReport(m)
			if err != nil {
				return err
			}
			return writeReport(cmd.OutOrStdout(), report, strings.ToLower(format))
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format (json|msgpack|toml)")
	return cmd
}

func buildReport(m *spirvcross.Module) (*Report, error) {
	// Reflection does not depend on the target; GLSL is the cheapest Ast.
	a, err := spirvcross.Parse[spirvcross.GLSLOptions](m)
	if err != nil {
		return nil, err
	}
	defer a.Close()

	report := &Report{}
	eps, err := a.EntryPoints()
	if err != nil {
		return nil, err
	}
	for _, ep := range eps {
		report.EntryPoints = append(report.EntryPoints, EntryPointInfo{
			Name:          ep.Name,
			Stage:         ep.ExecutionModel.String(),
			WorkgroupSize: ep.WorkgroupSize,
		})
	}

	res, err := a.ShaderResources()
	if err != nil {
		return nil, err
	}
	groups := []struct {
		kind      string
		resources []spirvcross.Resource
		block     bool
	}{
		{"uniform_buffer", res.UniformBuffers, true},
		{"storage_buffer", res.StorageBuffers, true},
		{"push_constant", res.PushConstantBuffers, true},
		{"sampled_image", res.SampledImages, false},
		{"separate_image", res.SeparateImages, false},
		{"separate_sampler", res.SeparateSamplers, false},
		{"storage_image", res.StorageImages, false},
		{"stage_input", res.StageInputs, false},
		{"stage_output", res.StageOutputs, false},
	}
	for _, g := range groups {
		for _, r := range g.resources {
			info, err := resourceInfo(a, g.kind, r, g.block)
			if err != nil {
				return nil, err
			}
			report.Resources = append(report.Resources, info)
		}
	}

	specs, err := a.SpecializationConstants()
	if err != nil {
		return nil, err
	}
	for _, sc := range specs {
		name, err := a.Name(sc.ID)
		if err != nil {
			return nil, err
		}
		value, err := a.ScalarConstant(sc.ID)
		if err != nil {
			return nil, err
		}
		report.SpecializationConstants = append(report.SpecializationConstants, SpecConstantInfo{
			ID:     uint32(sc.ID),
			SpecID: sc.SpecID,
			Name:   name,
			Type:   fmt.Sprintf("%s%d", value.Kind, value.Width),
			Value:  formatScalar(value),
		})
	}
	return report, nil
}

func resourceInfo(a *spirvcross.GLSLAst, kind string, r spirvcross.Resource, block bool) (ResourceInfo, error) {
	info := ResourceInfo{Kind: kind, ID: uint32(r.ID), Name: r.Name}
	for _, d := range []struct {
		decoration spirvcross.Decoration
		dst        **uint32
	}{
		{spirvcross.DecorationDescriptorSet, &info.Set},
		{spirvcross.DecorationBinding, &info.Binding},
		{spirvcross.DecorationLocation, &info.Location},
	} {
		v, ok, err := a.Decoration(r.ID, d.decoration)
		if err != nil {
			return info, err
		}
		if ok {
			*d.dst = &v
		}
	}
	if block {
		t, err := a.Type(r.BaseTypeID)
		if err != nil {
			return info, err
		}
		if t.Base != spirvcross.BaseStruct || len(t.Array) > 0 {
			return info, nil
		}
		size, err := a.DeclaredStructSize(r.BaseTypeID)
		if err != nil {
			return info, err
		}
		info.Size = size
	}
	return info, nil
}

func formatScalar(v spirvcross.ScalarValue) string {
	switch v.Kind {
	case spirvcross.ScalarBool:
		return strconv.FormatBool(v.Bool())
	case spirvcross.ScalarInt:
		return strconv.FormatInt(v.Int(), 10)
	case spirvcross.ScalarUint:
		return strconv.FormatUint(v.Uint(), 10)
	default:
		bits := 64
		if v.Width == 32 {
			bits = 32
		}
		return strconv.FormatFloat(v.Float(), 'g', -1, bits)
	}
}

func writeReport(w io.Writer, report *Report, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "toml":
		return toml.NewEncoder(w).Encode(report)
	case "msgpack":
		if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			return errors.New("refusing to write msgpack to a terminal, redirect the output")
		}
		return msgpack.NewEncoder(w).Encode(report)
	default:
		return fmt.Errorf("unsupported format %q (must be json, msgpack or toml)", format)
	}
}
