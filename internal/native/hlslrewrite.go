// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package native

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// The HLSL back-end routes every bound sampler through a descriptor heap
// and always names location semantics LOC<n>. Neither matches a D3D root
// signature built from explicit registers, so the output is adjusted in two
// passes after generation.

// hlslSamplerDecl matches the declaration the back-end writes for a sampler
// global without a binding.
var hlslSamplerDecl = regexp.MustCompile(`(?m)^(SamplerState|SamplerComparisonState) (\w+);$`)

// hlslLocationSemantic matches a location semantic in a parameter list.
var hlslLocationSemantic = regexp.MustCompile(`: LOC(\d+)\b`)

// formatHLSLRegister writes a register the way the back-end does, leaving
// out space0.
func formatHLSLRegister(class string, reg HLSLRegister) string {
	if reg.Space != 0 {
		return fmt.Sprintf("register(%s%d, space%d)", class, reg.Register, reg.Space)
	}
	return fmt.Sprintf("register(%s%d)", class, reg.Register)
}

// bindHLSLSamplers gives the sampler declarations of src their registers.
// regs lists the registers in global declaration order, which is the order
// the back-end writes them in.
func bindHLSLSamplers(src string, regs []HLSLRegister) (string, error) {
	matches := hlslSamplerDecl.FindAllStringIndex(src, -1)
	if len(matches) != len(regs) {
		return "", unhandled(ReasonNone, "hlsl back-end declared %d samplers, want %d", len(matches), len(regs))
	}
	var b strings.Builder
	written := 0
	for i, m := range matches {
		semi := m[1] - 1
		b.WriteString(src[written:semi])
		b.WriteString(" : ")
		b.WriteString(formatHLSLRegister("s", regs[i]))
		written = semi
	}
	b.WriteString(src[written:])
	return b.String(), nil
}

// remapHLSLVertexInputs replaces the LOC<n> semantics in the signature of
// entry point name with the semantics remaps assigns to location n.
func remapHLSLVertexInputs(src, name string, remaps []HLSLVertexAttributeRemap) string {
	if len(remaps) == 0 {
		return src
	}
	semantics := make(map[string]string, len(remaps))
	for _, r := range remaps {
		semantics[strconv.FormatUint(uint64(r.Location), 10)] = r.Semantic
	}

	lines := strings.Split(src, "\n")
	for i, line := range lines {
		open := strings.Index(line, " "+name+"(")
		if open < 0 || strings.HasSuffix(line, ";") || line != strings.TrimLeft(line, " \t") {
			continue
		}
		end := strings.LastIndexByte(line, ')')
		if end < open {
			continue
		}
		params := hlslLocationSemantic.ReplaceAllStringFunc(line[open:end], func(s string) string {
			loc := hlslLocationSemantic.FindStringSubmatch(s)[1]
			if semantic, ok := semantics[loc]; ok {
				return ": " + semantic
			}
			return s
		})
		lines[i] = line[:open] + params + line[end:]
		break
	}
	return strings.Join(lines, "\n")
}
