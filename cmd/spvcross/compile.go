// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/gogpu/spirvcross"
)

var targetExtensions = map[string]string{
	"hlsl": ".hlsl",
	"msl":  ".metal",
	"glsl": ".glsl",
}

var stageNames = map[string]spirvcross.ExecutionModel{
	"vertex":    spirvcross.Vertex,
	"fragment":  spirvcross.Fragment,
	"compute":   spirvcross.GLCompute,
	"geometry":  spirvcross.Geometry,
	"tess-ctrl": spirvcross.TessellationControl,
	"tess-eval": spirvcross.TessellationEvaluation,
}

func newCompileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compile [flags] shader.spv",
		Short: "Translate a SPIR-V module into shading language source",
		Long: `Translate a SPIR-V module into HLSL, MSL and GLSL.

Every requested target is compiled concurrently from a single parse of the
module. Output goes to <name>.hlsl, <name>.metal and <name>.glsl in the
output directory, or to stdout when no directory is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runCompile(cmd.Context(), cmd.OutOrStdout(), args[0], cfg)
		},
	}

	f := cmd.Flags()
	f.String("config", "", "configuration file (default ./spvcross.toml)")
	f.StringSliceP("target", "t", nil, "targets to emit: hlsl, msl, glsl")
	f.StringP("entry", "e", "", "entry point name (default: the first one)")
	f.String("stage", "", "entry point stage: vertex, fragment, compute, geometry, tess-ctrl, tess-eval")
	f.StringP("output", "o", "", "output directory")
	f.Bool("flip-y", false, "negate the vertex position's y")
	f.String("shader-model", "", "HLSL shader model, e.g. 6.0")
	f.Bool("point-size-compat", false, "drop PointSize writes in HLSL instead of failing")
	f.String("msl-version", "", "MSL version, e.g. 2.1")
	f.String("msl-platform", "", "MSL platform: macos or ios")
	f.Bool("bounds-check", false, "clamp out-of-range accesses in MSL")
	f.Uint32("glsl-version", 0, "GLSL #version, e.g. 450")
	f.Bool("es", false, "emit GLSL ES")
	return cmd
}

// output is one compiled target.
type output struct {
	target string
	source string
}

func runCompile(ctx context.Context, w io.Writer, path string, cfg *Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(cfg.Targets) == 0 {
		return fmt.Errorf("no targets requested")
	}
	for _, t := range cfg.Targets {
		if _, ok := targetExtensions[t]; !ok {
			return fmt.Errorf("unknown target %q (must be hlsl, msl or glsl)", t)
		}
	}

	m, err := readModule(path)
	if err != nil {
		return err
	}

	outputs := make([]output, len(cfg.Targets))
	g, gctx := errgroup.WithContext(ctx)
	for i, target := range cfg.Targets {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			src, err := compileTarget(m, target, cfg)
			if err != nil {
				return fmt.Errorf("%s: %w", target, err)
			}
			outputs[i] = output{target: target, source: src}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if cfg.Output == "" {
		for _, o := range outputs {
			if len(outputs) > 1 {
				color.New(color.FgCyan).Fprintf(w, "// ---- %s ----\n", o.target)
			}
			fmt.Fprint(w, o.source)
		}
		return nil
	}

	if err := os.MkdirAll(cfg.Output, 0o755); err != nil {
		return err
	}
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	green := color.New(color.FgGreen)
	for _, o := range outputs {
		dst := filepath.Join(cfg.Output, base+targetExtensions[o.target])
		if err := os.WriteFile(dst, []byte(o.source), 0o644); err != nil {
			return err
		}
		green.Fprintf(w, "wrote %s\n", dst)
	}
	return nil
}

func compileTarget(m *spirvcross.Module, target string, cfg *Config) (string, error) {
	vertex := spirvcross.VertexOptions{FlipY: cfg.FlipY}

	switch target {
	case "hlsl":
		sm, err := parseShaderModel(cfg.HLSL.ShaderModel)
		if err != nil {
			return "", err
		}
		opts := spirvcross.DefaultHLSLOptions()
		opts.ShaderModel = sm
		opts.PointSizeCompat = cfg.HLSL.PointSizeCompat
		opts.Vertex = vertex
		return compileWith(m, opts, cfg)
	case "msl":
		version, err := parseMSLVersion(cfg.MSL.Version)
		if err != nil {
			return "", err
		}
		opts := spirvcross.DefaultMSLOptions()
		opts.Version = version
		opts.BoundsCheck = cfg.MSL.BoundsCheck
		opts.Vertex = vertex
		switch strings.ToLower(cfg.MSL.Platform) {
		case "", "macos":
		case "ios":
			opts.Platform = spirvcross.MSLPlatformIOS
		default:
			return "", fmt.Errorf("unknown MSL platform %q", cfg.MSL.Platform)
		}
		return compileWith(m, opts, cfg)
	default:
		opts := spirvcross.DefaultGLSLOptions()
		opts.Version = cfg.GLSL.Version
		opts.ES = cfg.GLSL.ES
		opts.Vertex = vertex
		return compileWith(m, opts, cfg)
	}
}

// compileWith parses m into a fresh Ast so targets never share state.
func compileWith[O spirvcross.TargetOptions](m *spirvcross.Module, opts O, cfg *Config) (string, error) {
	a, err := spirvcross.Parse[O](m)
	if err != nil {
		return "", err
	}
	defer a.Close()

	if err := a.SetCompilerOptions(opts); err != nil {
		return "", err
	}
	if err := selectEntryPoint(a, cfg.Entry, cfg.Stage); err != nil {
		return "", err
	}
	return a.Compile()
}

// selectEntryPoint activates the named entry point. The stage may be
// omitted when the name is unambiguous.
func selectEntryPoint[O spirvcross.TargetOptions](a *spirvcross.Ast[O], name, stage string) error {
	if name == "" && stage == "" {
		return nil
	}
	var model spirvcross.ExecutionModel
	if stage != "" {
		m, ok := stageNames[strings.ToLower(stage)]
		if !ok {
			return fmt.Errorf("unknown stage %q", stage)
		}
		model = m
	}

	eps, err := a.EntryPoints()
	if err != nil {
		return err
	}
	var matches []spirvcross.EntryPoint
	for _, ep := range eps {
		if (name == "" || ep.Name == name) && (stage == "" || ep.ExecutionModel == model) {
			matches = append(matches, ep)
		}
	}
	switch len(matches) {
	case 0:
		if stage != "" && name != "" {
			// Let the Ast report the failure with its error code.
			return a.SetEntryPoint(name, model)
		}
		return fmt.Errorf("no entry point matches name %q stage %q", name, stage)
	case 1:
		return a.SetEntryPoint(matches[0].Name, matches[0].ExecutionModel)
	default:
		return fmt.Errorf("%d entry points match name %q stage %q, narrow with --entry and --stage", len(matches), name, stage)
	}
}

func parseShaderModel(s string) (spirvcross.ShaderModel, error) {
	if s == "" {
		return spirvcross.ShaderModel51, nil
	}
	major, minor, err := parseVersion(s)
	if err != nil {
		return 0, fmt.Errorf("shader model: %w", err)
	}
	return spirvcross.ShaderModel(major*10 + minor), nil
}

func parseMSLVersion(s string) (spirvcross.MSLVersion, error) {
	if s == "" {
		return spirvcross.MSLVersion21, nil
	}
	major, minor, err := parseVersion(s)
	if err != nil {
		return spirvcross.MSLVersion{}, fmt.Errorf("msl version: %w", err)
	}
	return spirvcross.MSLVersion{Major: major, Minor: minor}, nil
}

// parseVersion splits "major.minor".
func parseVersion(s string) (major, minor uint32, err error) {
	a, b, ok := strings.Cut(s, ".")
	if !ok {
		return 0, 0, fmt.Errorf("%q is not major.minor", s)
	}
	ma, err := strconv.ParseUint(a, 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("%q is not major.minor", s)
	}
	mi, err := strconv.ParseUint(b, 10, 8)
	if err != nil || mi > 9 {
		return 0, 0, fmt.Errorf("%q is not major.minor", s)
	}
	return uint32(ma), uint32(mi), nil
}
