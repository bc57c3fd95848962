// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package main

import (
	"github.com/spf13/cobra"

	"github.com/gogpu/spirvcross/spirv"
)

func newDisasmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disasm shader.spv",
		Short: "Print a SPIR-V module as assembly text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := readModule(args[0])
			if err != nil {
				return err
			}
			return spirv.Disassemble(cmd.OutOrStdout(), m.Words())
		},
	}
}
