// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Command spvcross cross-compiles SPIR-V modules to HLSL, MSL and GLSL.
//
// Usage:
//
//	spvcross compile [flags] shader.spv
//	spvcross reflect [--format json|msgpack|toml] shader.spv
//	spvcross disasm shader.spv
//	spvcross version
//
// Compile options can also come from spvcross.toml in the working
// directory (or --config) and from SPVCROSS_* environment variables.
// Flags take precedence over both.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/gogpu/spirvcross"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		color.New(color.FgRed, color.Bold).Fprint(os.Stderr, "error: ")
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "spvcross",
		Short:         "Cross-compile SPIR-V to HLSL, MSL and GLSL",
		Version:       spirvcross.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
				color.NoColor = true
			}
			if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
				spirvcross.SetLogger(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
					Level: slog.LevelDebug,
				})))
			}
		},
	}

	root.PersistentFlags().BoolP("verbose", "v", false, "log compiler activity to stderr")
	root.PersistentFlags().Bool("no-color", false, "disable colored output")

	root.AddCommand(newCompileCmd())
	root.AddCommand(newReflectCmd())
	root.AddCommand(newDisasmCmd())
	root.AddCommand(newVersionCmd())
	return root
}

// readModule loads and validates a .spv file.
func readModule(path string) (*spirvcross.Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m, err := spirvcross.NewModuleFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}
