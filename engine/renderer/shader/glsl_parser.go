package shader

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// glslBlockRegex matches uniform blocks: optional layout qualifier, block name, body and
	// optional instance name.
	glslBlockRegex = regexp.MustCompile(`(?:layout\s*\(([^)]*)\)\s*)?uniform\s+(\w+)\s*\{([^}]*)\}\s*(\w*)\s*;`)

	// glslInputRegex matches vertex attributes such as: layout(location = 0) in vec4 a_position;
	glslInputRegex = regexp.MustCompile(`(?:layout\s*\(\s*location\s*=\s*(\d+)\s*\)\s*)?\bin\s+(\w+)\s+(\w+)\s*;`)

	// glslBindingRegex captures binding = N inside a layout qualifier
	glslBindingRegex = regexp.MustCompile(`binding\s*=\s*(\d+)`)

	// glslMainRegex matches the entry point
	glslMainRegex = regexp.MustCompile(`\bvoid\s+main\s*\(`)

	// glslPrecisions are qualifiers that may prefix a block member's type
	glslPrecisions = map[string]bool{"highp": true, "mediump": true, "lowp": true}
)

// parseGLSL reflects uniform blocks and vertex inputs from GLSL ES source. GLSL sources hold a
// single stage, which the caller supplies.
//
// Parameters:
//   - source: the raw GLSL source
//   - stage: the stage the source implements
//
// Returns:
//   - *Reflection: the extracted interface
//   - error: ErrParse if a block member has an unknown type or malformed declaration
func parseGLSL(source string, stage Stage) (*Reflection, error) {
	cleaned := stripComments(source)
	r := &Reflection{
		Language:    LanguageGLSL,
		Stages:      stage,
		EntryPoints: make(map[Stage]string),
	}
	if glslMainRegex.MatchString(cleaned) {
		r.EntryPoints[stage] = "main"
	}

	for _, m := range glslBlockRegex.FindAllStringSubmatch(cleaned, -1) {
		ps, err := parseGLSLBlockBody(m[2], m[3])
		if err != nil {
			return nil, err
		}
		fields, layout, ok := computeStructLayout(ps, nil)
		if !ok {
			return nil, fmt.Errorf("%w: uniform block %s has an unresolved member type", ErrParse, ps.name)
		}
		binding := -1
		if b := glslBindingRegex.FindStringSubmatch(m[1]); b != nil {
			binding, _ = strconv.Atoi(b[1])
		}
		r.Uniforms = append(r.Uniforms, UniformBlock{
			Name:     ps.name,
			Instance: m[4],
			Group:    -1,
			Binding:  binding,
			Fields:   fields,
			Size:     layout.size,
		})
	}

	if stage == StageVertex {
		for _, m := range glslInputRegex.FindAllStringSubmatch(cleaned, -1) {
			loc := -1
			if m[1] != "" {
				loc, _ = strconv.Atoi(m[1])
			}
			r.Inputs = append(r.Inputs, VertexInput{Name: m[3], Type: normalizeType(m[2]), Location: loc})
		}
	}
	return r, nil
}

// parseGLSLBlockBody splits "mat4 rotation; float epsilon;" into fields. Array members
// (name[N]) are rewritten to array<type, N>.
func parseGLSLBlockBody(name, body string) (parsedStruct, error) {
	ps := parsedStruct{name: name}
	for decl := range strings.SplitSeq(body, ";") {
		tokens := strings.Fields(decl)
		if len(tokens) == 0 {
			continue
		}
		for len(tokens) > 2 && glslPrecisions[tokens[0]] {
			tokens = tokens[1:]
		}
		if len(tokens) != 2 {
			return parsedStruct{}, fmt.Errorf("%w: block %s: cannot parse member %q", ErrParse, name, strings.TrimSpace(decl))
		}
		typ, member := tokens[0], tokens[1]
		if open := strings.Index(member, "["); open >= 0 && strings.HasSuffix(member, "]") {
			typ = fmt.Sprintf("array<%s, %s>", typ, member[open+1:len(member)-1])
			member = member[:open]
		}
		ps.fields = append(ps.fields, parsedField{name: member, typeName: typ, location: -1})
	}
	return ps, nil
}
