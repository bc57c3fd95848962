// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/gogpu/spirvcross"
	"github.com/gogpu/spirvcross/internal/testutil"
)

func writeModule(t *testing.T, words []uint32) string {
	t.Helper()
	data := make([]byte, len(words)*4)
	for i, w := range words {
		binary.LittleEndian.PutUint32(data[i*4:], w)
	}
	path := filepath.Join(t.TempDir(), "shader.spv")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = false })

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCompileToDirectory(t *testing.T) {
	path := writeModule(t, testutil.NewTriangle().Words)
	dir := t.TempDir()

	out, err := run(t, "compile", "-t", "hlsl,msl,glsl", "-o", dir, "--glsl-version", "450", path)
	require.NoError(t, err)
	for _, name := range []string{"shader.hlsl", "shader.metal", "shader.glsl"} {
		assert.Contains(t, out, name)
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		assert.NotEmpty(t, data)
	}
}

func TestCompileToStdout(t *testing.T) {
	path := writeModule(t, testutil.NewTriangle().Words)

	out, err := run(t, "compile", "-t", "glsl", "-e", "main_fs", path)
	require.NoError(t, err)
	assert.Contains(t, out, "#version 450")
	assert.NotContains(t, out, "gl_Position")

	out, err = run(t, "compile", "-t", "glsl", "--stage", "vertex", path)
	require.NoError(t, err)
	assert.Contains(t, out, "gl_Position")
}

func TestCompileErrors(t *testing.T) {
	path := writeModule(t, testutil.NewTriangle().Words)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"unknown target", []string{"-t", "wgsl"}, `unknown target "wgsl"`},
		{"unknown entry point", []string{"-t", "hlsl", "-e", "main_cs", "--stage", "compute"}, "entry point not found"},
		{"unknown stage", []string{"-t", "hlsl", "--stage", "mesh"}, `unknown stage "mesh"`},
		{"bad shader model", []string{"-t", "hlsl", "--shader-model", "six"}, "shader model"},
		{"unsupported shader model", []string{"-t", "hlsl", "--shader-model", "4.0"}, "CompilationError"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"compile"}, tt.args...)
			_, err := run(t, append(args, path)...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	_, err := run(t, "compile", filepath.Join(t.TempDir(), "missing.spv"))
	require.Error(t, err)
}

func TestCompileReadsConfigFile(t *testing.T) {
	path := writeModule(t, testutil.NewCompute().Words)
	cfgPath := filepath.Join(t.TempDir(), "spvcross.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`
targets = ["glsl"]

[glsl]
version = 430
`), 0o644))

	out, err := run(t, "compile", "--config", cfgPath, path)
	require.NoError(t, err)
	assert.Contains(t, out, "#version 430")

	out, err = run(t, "compile", "--config", cfgPath, "--glsl-version", "450", path)
	require.NoError(t, err)
	assert.Contains(t, out, "#version 450", "flags override the file")

	_, err = run(t, "compile", "--config", filepath.Join(t.TempDir(), "none.toml"), path)
	require.Error(t, err)
}

func TestReflectFormats(t *testing.T) {
	fx := testutil.NewTriangle()
	path := writeModule(t, fx.Words)

	out, err := run(t, "reflect", path)
	require.NoError(t, err)
	var report Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))

	require.Len(t, report.EntryPoints, 2)
	assert.Equal(t, "main_vs", report.EntryPoints[0].Name)
	assert.Equal(t, spirvcross.Vertex.String(), report.EntryPoints[0].Stage)

	var ubo *ResourceInfo
	for i := range report.Resources {
		if report.Resources[i].Kind == "uniform_buffer" {
			ubo = &report.Resources[i]
		}
	}
	require.NotNil(t, ubo)
	assert.Equal(t, "globals", ubo.Name)
	require.NotNil(t, ubo.Binding)
	assert.Equal(t, uint32(0), *ubo.Binding)
	assert.Equal(t, uint32(20), ubo.Size)

	require.Len(t, report.SpecializationConstants, 3)
	assert.Equal(t, "SCALE", report.SpecializationConstants[0].Name)
	assert.Equal(t, "1", report.SpecializationConstants[0].Value)
	assert.Equal(t, "true", report.SpecializationConstants[1].Value)
	assert.Equal(t, "4", report.SpecializationConstants[2].Value)

	out, err = run(t, "reflect", "--format", "toml", path)
	require.NoError(t, err)
	var fromTOML Report
	_, err = toml.Decode(out, &fromTOML)
	require.NoError(t, err)
	assert.Equal(t, report, fromTOML)

	out, err = run(t, "reflect", "--format", "msgpack", path)
	require.NoError(t, err)
	var fromMsgpack Report
	require.NoError(t, msgpack.Unmarshal([]byte(out), &fromMsgpack))
	assert.Equal(t, report, fromMsgpack)

	_, err = run(t, "reflect", "--format", "yaml", path)
	require.Error(t, err)
}

func TestDisasm(t *testing.T) {
	path := writeModule(t, testutil.NewTriangle().Words)
	out, err := run(t, "disasm", path)
	require.NoError(t, err)
	assert.Contains(t, out, "; SPIR-V")
	assert.Contains(t, out, `"main_fs"`)
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "spvcross "+spirvcross.Version)
}

func TestParseVersion(t *testing.T) {
	major, minor, err := parseVersion("6.7")
	require.NoError(t, err)
	assert.Equal(t, uint32(6), major)
	assert.Equal(t, uint32(7), minor)

	for _, bad := range []string{"6", "6.x", "x.1", "6.10"} {
		_, _, err := parseVersion(bad)
		assert.Error(t, err, bad)
	}
}
