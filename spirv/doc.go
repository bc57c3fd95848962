// Package spirv decodes SPIR-V binaries, reflects their shader resources and
// lowers a selected entry point to naga IR.
//
// SPIR-V is the standard intermediate language for GPU shaders,
// used by Vulkan, OpenCL, and other APIs.
//
// # Parsing
//
// [Parse] validates the header and instruction stream and builds a [Module],
// a symbol table of types, constants, variables, functions, names and
// decorations:
//
//	m, err := spirv.Parse(words)
//	if err != nil {
//		log.Fatal(err)
//	}
//	for _, ep := range m.EntryPoints {
//		fmt.Println(ep.Name, ep.Model)
//	}
//
// Names, decorations and specialization constant values of a [Module] are
// mutable; everything else is fixed after parsing.
//
// # Reflection
//
// [Module.Resources] partitions the global variables into uniform buffers,
// storage buffers, stage inputs and outputs, sampled and storage images,
// separate images and samplers, push constant blocks and builtins.
//
// # Lowering
//
// [Lower] converts one entry point, its call graph and the globals it touches
// into an [ir.Module] accepted by the naga back-ends. Input variables become
// entry-point arguments, output variables become the entry-point result, and
// structured control flow (selection and loop merges) becomes if and loop
// statements.
//
// # Binary Writer
//
// [ModuleBuilder] assembles modules programmatically:
//
//	b := spirv.NewModuleBuilder(spirv.Version1_3)
//	b.AddCapability(spirv.CapabilityShader)
//	b.SetMemoryModel(spirv.AddressingLogical, spirv.MemoryModelGLSL450)
//	f32 := b.AddTypeFloat(32)
//	vec4 := b.AddTypeVector(f32, 4)
//	words := b.Build()
//
// # SPIR-V Structure
//
// SPIR-V modules consist of:
//   - Header (magic, version, generator, bound, schema)
//   - Capabilities (required features)
//   - Extensions (optional extensions)
//   - Extended instruction imports (GLSL.std.450, etc.)
//   - Memory model (addressing and memory model)
//   - Entry points (shader entry functions)
//   - Execution modes (shader configuration)
//   - Debug information (names, source info)
//   - Annotations (decorations)
//   - Types and constants
//   - Global variables
//   - Functions (code)
package spirv
