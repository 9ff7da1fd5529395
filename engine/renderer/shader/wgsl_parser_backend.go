package shader

import (
	"strconv"
	"strings"
)

// canonicalTypes maps WGSL and GLSL type spellings to the normalized names used in
// UniformField.Type.
var canonicalTypes = map[string]string{
	"f32": "float", "float": "float",
	"i32": "int", "int": "int",
	"u32": "uint", "uint": "uint",
	"bool": "bool",

	"vec2<f32>": "vec2", "vec2f": "vec2", "vec2": "vec2",
	"vec3<f32>": "vec3", "vec3f": "vec3", "vec3": "vec3",
	"vec4<f32>": "vec4", "vec4f": "vec4", "vec4": "vec4",
	"vec4<u32>": "uvec4", "vec4u": "uvec4", "uvec4": "uvec4",
	"vec4<i32>": "ivec4", "vec4i": "ivec4", "ivec4": "ivec4",

	"mat3x3<f32>": "mat3", "mat3x3f": "mat3", "mat3": "mat3",
	"mat4x4<f32>": "mat4", "mat4x4f": "mat4", "mat4": "mat4",
}

// uniformLayouts gives size and alignment of normalized types in uniform address space.
// WGSL uniform layout and GLSL std140 agree for every type listed here.
var uniformLayouts = map[string]typeLayout{
	"float": {4, 4},
	"int":   {4, 4},
	"uint":  {4, 4},
	"bool":  {4, 4},
	"vec2":  {8, 8},
	"vec3":  {12, 16},
	"vec4":  {16, 16},
	"uvec4": {16, 16},
	"ivec4": {16, 16},
	"mat3":  {48, 16},
	"mat4":  {64, 16},
}

// normalizeType maps a source type to its canonical name. Unknown names (nested structs,
// arrays) are returned trimmed but otherwise unchanged.
func normalizeType(typeName string) string {
	t := strings.Join(strings.Fields(typeName), "")
	if c, ok := canonicalTypes[t]; ok {
		return c
	}
	return strings.TrimSpace(typeName)
}

// roundUpAlign rounds value up to the next multiple of alignment.
// Alignment must be a power of two.
//
// Parameters:
//   - alignment: the required alignment (must be a power of two)
//   - value: the value to align
//
// Returns:
//   - uint64: value rounded up to the next multiple of alignment
func roundUpAlign(alignment, value uint64) uint64 {
	if alignment == 0 {
		return value
	}
	return (value + alignment - 1) &^ (alignment - 1)
}

// resolveTypeLayout resolves a normalized type name to its size and alignment using the
// primitive table and previously computed struct layouts. Fixed-size arrays use a 16-byte
// element stride as uniform buffers require.
//
// Parameters:
//   - typeName: the normalized type name, e.g. "mat4", "Hyper", "array<vec4, 6>"
//   - knownTypes: a map of already-resolved struct names to their layouts
//
// Returns:
//   - typeLayout: the resolved layout
//   - bool: false for runtime-sized arrays or unknown types
func resolveTypeLayout(typeName string, knownTypes map[string]typeLayout) (typeLayout, bool) {
	if layout, ok := uniformLayouts[typeName]; ok {
		return layout, true
	}
	if layout, ok := knownTypes[typeName]; ok {
		return layout, true
	}

	if strings.HasPrefix(typeName, "array<") && strings.HasSuffix(typeName, ">") {
		inner := typeName[6 : len(typeName)-1]
		parts := strings.SplitN(inner, ",", 2)
		if len(parts) != 2 {
			return typeLayout{}, false
		}
		elem, ok := resolveTypeLayout(normalizeType(parts[0]), knownTypes)
		if !ok {
			return typeLayout{}, false
		}
		count, err := strconv.ParseUint(strings.TrimSpace(parts[1]), 10, 64)
		if err != nil {
			return typeLayout{}, false
		}
		align := max(elem.align, 16)
		stride := roundUpAlign(align, elem.size)
		return typeLayout{count * stride, align}, true
	}

	return typeLayout{}, false
}

// computeStructLayout places each field at the next aligned offset and rounds the total size
// up to the struct's alignment (max alignment of all fields). Builtin fields are skipped.
//
// Parameters:
//   - ps: the parsed struct whose layout to compute
//   - knownTypes: a map of already-resolved struct names to their layouts
//
// Returns:
//   - []UniformField: the fields with offsets
//   - typeLayout: the computed layout
//   - bool: true if all fields could be resolved
func computeStructLayout(ps parsedStruct, knownTypes map[string]typeLayout) ([]UniformField, typeLayout, bool) {
	offset := uint64(0)
	maxAlign := uint64(1)
	fields := make([]UniformField, 0, len(ps.fields))

	for _, field := range ps.fields {
		if field.isBuiltin {
			continue
		}
		typ := normalizeType(field.typeName)
		fieldLayout, ok := resolveTypeLayout(typ, knownTypes)
		if !ok {
			return nil, typeLayout{}, false
		}

		offset = roundUpAlign(fieldLayout.align, offset)
		fields = append(fields, UniformField{Name: field.name, Type: typ, Offset: offset, Size: fieldLayout.size})
		offset += fieldLayout.size
		maxAlign = max(maxAlign, fieldLayout.align)
	}

	// Uniform buffers round struct alignment up to 16.
	maxAlign = max(maxAlign, 16)
	return fields, typeLayout{roundUpAlign(maxAlign, offset), maxAlign}, true
}

// computeStructSizes computes the layout of all parsed structs. It resolves dependencies
// between structs iteratively, handling structs that nest other structs.
//
// Parameters:
//   - structs: all parsed struct blocks from the source
//
// Returns:
//   - map[string]typeLayout: struct name to layout
//   - map[string][]UniformField: struct name to laid out fields
func computeStructSizes(structs []parsedStruct) (map[string]typeLayout, map[string][]UniformField) {
	resolved := make(map[string]typeLayout, len(structs))
	fields := make(map[string][]UniformField, len(structs))
	remaining := make([]parsedStruct, len(structs))
	copy(remaining, structs)

	for {
		progress := false
		next := remaining[:0]

		for _, ps := range remaining {
			if f, layout, ok := computeStructLayout(ps, resolved); ok {
				resolved[ps.name] = layout
				fields[ps.name] = f
				progress = true
			} else {
				next = append(next, ps)
			}
		}

		remaining = next
		if !progress || len(remaining) == 0 {
			break
		}
	}

	return resolved, fields
}

// stripComments removes both single-line (//) and block (/* */) comments.
// Block comments may be nested per the WGSL specification.
//
// Parameters:
//   - source: raw shader source string
//
// Returns:
//   - string: source with all comments removed
func stripComments(source string) string {
	return stripLineComments(stripBlockComments(source))
}

// stripLineComments removes single-line // comments so they do not interfere with struct
// and field parsing
func stripLineComments(source string) string {
	var sb strings.Builder
	for line := range strings.SplitSeq(source, "\n") {
		if idx := strings.Index(line, "//"); idx >= 0 {
			line = line[:idx]
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// stripBlockComments removes block comments (/* ... */), handling nesting
func stripBlockComments(source string) string {
	var sb strings.Builder
	sb.Grow(len(source))
	depth := 0
	i := 0
	for i < len(source) {
		if i+1 < len(source) {
			if source[i] == '/' && source[i+1] == '*' {
				depth++
				i += 2
				continue
			}
			if source[i] == '*' && source[i+1] == '/' {
				if depth > 0 {
					depth--
				}
				i += 2
				continue
			}
		}
		if depth == 0 {
			sb.WriteByte(source[i])
		}
		i++
	}
	return sb.String()
}

// isVertexInputStruct returns true if the struct is a pure vertex input, meaning
// it has at least one @location field and zero @builtin fields. This distinguishes
// vertex input structs from vertex output structs which mix @location with @builtin(position).
func isVertexInputStruct(ps parsedStruct) bool {
	hasLocation := false
	for _, f := range ps.fields {
		if f.isBuiltin {
			return false
		}
		if f.location >= 0 {
			hasLocation = true
		}
	}
	return hasLocation
}

// splitAtTopLevelCommas splits a string at commas that are not nested inside angle brackets.
// This correctly handles WGSL types like array<vec4<f32>, 6> where the comma is part of
// the type syntax rather than a field separator.
//
// Parameters:
//   - s: the string to split (typically the body of a WGSL struct)
//
// Returns:
//   - []string: substrings between top-level commas
func splitAtTopLevelCommas(s string) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<':
			depth++
		case '>':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}
