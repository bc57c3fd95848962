// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

// Package spirvcross translates SPIR-V modules into HLSL, MSL and GLSL.
//
// A Module is a validated, immutable word buffer. Parsing it produces an
// Ast bound to one target language through its options type:
//
//	m, err := spirvcross.NewModuleFromBytes(data)
//	if err != nil {
//	    return err
//	}
//	ast, err := spirvcross.Parse[spirvcross.HLSLOptions](m)
//	if err != nil {
//	    return err
//	}
//	defer ast.Close()
//
//	res, _ := ast.ShaderResources()
//	for _, ub := range res.UniformBuffers {
//	    _ = ast.SetDecoration(ub.ID, spirvcross.DecorationBinding, 4)
//	}
//	src, err := ast.Compile()
//
// Each Ast owns a private copy of the module. Reflection edits such as
// renames, decorations, entry point selection and specialization constant
// values change only that copy and show up in its next Compile.
//
// Setters validate what they can immediately: unknown ids fail with
// InvalidID and mistyped constants with CompilationError. Decoration values
// and compiler options are checked when Compile runs.
//
// Errors are *Error values carrying an ErrorCode. Use errors.Is with the
// codes or the sentinels ErrEntryPointNotFound, ErrTypeMismatch and
// ErrClosed.
package spirvcross
