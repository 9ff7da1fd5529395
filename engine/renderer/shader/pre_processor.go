// pre_processor.go implements the shader pre-processor. It scans shader source for @oxy:
// annotations and replaces them with the engine's canonical uniform declarations, so a
// hand-written shader cannot drift from the block layout the engine uploads.
package shader

import (
	"fmt"
	"strings"
)

// registryEntry pairs the per-language source of a uniform declaration with its type name.
type registryEntry struct {
	// Sources maps a language to the declaration text injected by @oxy:include.
	Sources map[Language]string

	// Type is the type name emitted in @oxy:group declarations (e.g. "Hyper").
	Type string
}

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	// structRegistry maps struct type argument keys to their embedded source and type name.
	structRegistry map[AnnotationArg]registryEntry

	// addressSpaceRegistry maps address space argument keys to WGSL var<> syntax strings.
	addressSpaceRegistry map[AnnotationArg]string

	// declarations accumulates group annotations during a Process call.
	declarations []Annotation
}

// PreProcessor processes shader source containing @oxy: annotations, replacing them with
// generated declarations while collecting a declarations list.
type PreProcessor interface {
	// Process pre-processes source written in lang. @oxy:include annotations are replaced
	// with the registered declaration text; @oxy:group annotations (WGSL only) are replaced
	// with generated @group/@binding declarations.
	//
	// The declarations list is reset at the start of each call and can be retrieved
	// via Declarations() after Process returns.
	//
	// Parameters:
	//   - source: the raw shader source code
	//   - lang: the source language
	//
	// Returns:
	//   - string: the processed source
	//   - error: an error if an annotation is malformed or unsupported for lang
	Process(source string, lang Language) (string, error)

	// Declarations returns the group annotations collected during the last Process call.
	//
	// Returns:
	//   - []Annotation: the collected declarations
	Declarations() []Annotation
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a PreProcessor with the engine's uniform declarations registered.
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor instance
func NewPreProcessor() PreProcessor {
	return &preProcessor{
		structRegistry: map[AnnotationArg]registryEntry{
			AnnotationArgHyper: {
				Sources: map[Language]string{
					LanguageWGSL: HyperUniformWGSL,
					LanguageGLSL: HyperUniformGLSL,
				},
				Type: HyperContract.Name,
			},
		},
		addressSpaceRegistry: map[AnnotationArg]string{
			annotationArgAddressUniform: "var<uniform>",
		},
	}
}

func (p *preProcessor) Process(source string, lang Language) (string, error) {
	p.declarations = p.declarations[:0]

	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))

	for i, line := range lines {
		a, err := parseAnnotation(line, i+1)
		if err != nil {
			return "", err
		}
		if a == nil {
			out = append(out, line)
			continue
		}

		switch a.Type {
		case annotationTypeInclude:
			entry, ok := p.structRegistry[a.Args[0]]
			if !ok {
				return "", fmt.Errorf("line %d: unknown @oxy:include argument %q", i+1, a.Args[0])
			}
			src, ok := entry.Sources[lang]
			if !ok {
				return "", fmt.Errorf("line %d: @oxy:include %s has no %s source", i+1, a.Args[0], lang)
			}
			out = append(out, strings.TrimRight(src, "\n"))
		case AnnotationTypeBindingGroup:
			if lang != LanguageWGSL {
				return "", fmt.Errorf("line %d: @oxy:group is only supported in WGSL", i+1)
			}
			addrSpace := p.addressSpaceRegistry[a.Args[0]]
			entry := p.structRegistry[a.Args[2]]
			out = append(out, fmt.Sprintf("@group(%d) @binding(%d) %s %s: %s;", *a.Group, *a.Binding, addrSpace, a.Args[1], entry.Type))
			p.declarations = append(p.declarations, *a)
		default:
			return "", fmt.Errorf("line %d: unknown annotation type %q", i+1, a.Type)
		}
	}
	return strings.Join(out, "\n"), nil
}

func (p *preProcessor) Declarations() []Annotation {
	return p.declarations
}
