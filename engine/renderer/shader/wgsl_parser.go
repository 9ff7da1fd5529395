package shader

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// structBlockRegex matches struct declarations and captures the name and body
	structBlockRegex = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)

	// locationRegex matches @location(N) attributes
	locationRegex = regexp.MustCompile(`@location\((\d+)\)`)

	// builtinRegex matches @builtin(...) attributes
	builtinRegex = regexp.MustCompile(`@builtin\(\w+\)`)

	// fieldRegex matches a struct field line: optional attributes, name, colon, type.
	// The type capture (.+) is greedy to handle parameterized types like array<T, N>.
	fieldRegex = regexp.MustCompile(`(?:(?:@\w+\([^)]*\)\s*)*)*\s*(\w+)\s*:\s*(.+)`)

	// vertexEntryRegex matches @vertex functions and captures the entry point name
	vertexEntryRegex = regexp.MustCompile(`(?s)@vertex\b.*?\bfn\s+(\w+)`)

	// fragmentEntryRegex matches @fragment functions and captures the entry point name
	fragmentEntryRegex = regexp.MustCompile(`(?s)@fragment\b.*?\bfn\s+(\w+)`)

	// computeEntryRegex matches @compute functions and captures the entry point name
	computeEntryRegex = regexp.MustCompile(`(?s)@compute\b.*?\bfn\s+(\w+)`)

	// bindGroupDeclRegex captures group, binding, optional address space, variable name, and type
	// from declarations like: @group(0) @binding(0) var<uniform> hyper: Hyper;
	bindGroupDeclRegex = regexp.MustCompile(`@group\((\d+)\)\s*@binding\((\d+)\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;]+?)\s*;`)
)

// parseWGSL reflects uniform blocks, vertex inputs and entry points from WGSL source.
//
// Parameters:
//   - source: the raw WGSL source code string
//
// Returns:
//   - *Reflection: the extracted interface
//   - error: ErrParse if a uniform binding names a struct whose layout cannot be resolved
func parseWGSL(source string) (*Reflection, error) {
	cleaned := stripComments(source)
	structs := parseStructBlocks(cleaned)
	layouts, fields := computeStructSizes(structs)

	r := &Reflection{
		Language:    LanguageWGSL,
		EntryPoints: make(map[Stage]string),
	}

	for _, match := range bindGroupDeclRegex.FindAllStringSubmatch(cleaned, -1) {
		addressSpace := strings.TrimSpace(match[3])
		if addressSpace != "uniform" {
			continue
		}
		group, _ := strconv.Atoi(match[1])
		binding, _ := strconv.Atoi(match[2])
		varName := strings.TrimSpace(match[4])
		typeName := strings.TrimSpace(match[5])

		layout, ok := layouts[typeName]
		if !ok {
			return nil, fmt.Errorf("%w: uniform %s has unresolved type %q", ErrParse, varName, typeName)
		}
		r.Uniforms = append(r.Uniforms, UniformBlock{
			Name:     typeName,
			Instance: varName,
			Group:    group,
			Binding:  binding,
			Fields:   fields[typeName],
			Size:     layout.size,
		})
	}

	for _, ps := range structs {
		if !isVertexInputStruct(ps) {
			continue
		}
		for _, f := range ps.fields {
			r.Inputs = append(r.Inputs, VertexInput{Name: f.name, Type: normalizeType(f.typeName), Location: f.location})
		}
	}

	for stage, re := range map[Stage]*regexp.Regexp{
		StageVertex:   vertexEntryRegex,
		StageFragment: fragmentEntryRegex,
		StageCompute:  computeEntryRegex,
	} {
		if m := re.FindStringSubmatch(cleaned); m != nil {
			r.EntryPoints[stage] = m[1]
			r.Stages |= stage
		}
	}
	return r, nil
}

// parseStructBlocks finds all struct { ... } blocks in the cleaned WGSL source
// and parses their fields including @location and @builtin attributes
//
// Parameters:
//   - source: WGSL source with comments already stripped
//
// Returns:
//   - []parsedStruct: all struct blocks found in the source
func parseStructBlocks(source string) []parsedStruct {
	matches := structBlockRegex.FindAllStringSubmatch(source, -1)
	structs := make([]parsedStruct, 0, len(matches))

	for _, match := range matches {
		structs = append(structs, parsedStruct{
			name:   match[1],
			fields: parseStructFields(match[2]),
		})
	}

	return structs
}

// parseStructFields parses the body of a struct block into individual fields,
// extracting @location and @builtin attributes along with the field name and type
func parseStructFields(body string) []parsedField {
	lines := splitAtTopLevelCommas(body)
	fields := make([]parsedField, 0, len(lines))

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		field := parsedField{location: -1}
		if builtinRegex.MatchString(line) {
			field.isBuiltin = true
		}
		if locMatch := locationRegex.FindStringSubmatch(line); locMatch != nil {
			if loc, err := strconv.Atoi(locMatch[1]); err == nil {
				field.location = loc
			}
		}

		fm := fieldRegex.FindStringSubmatch(line)
		if fm == nil {
			continue
		}
		field.name = fm[1]
		field.typeName = strings.TrimSpace(fm[2])
		fields = append(fields, field)
	}

	return fields
}
