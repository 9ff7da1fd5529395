package shader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Language identifies the shading language a source is written in.
type Language string

const (
	// LanguageWGSL is WebGPU Shading Language, consumed by the pipeline backend.
	LanguageWGSL Language = "wgsl"

	// LanguageGLSL is GLSL ES 3.00, consumed by the immediate raster backend.
	LanguageGLSL Language = "glsl"
)

// Stage is a bitmask of shader stages.
type Stage uint8

const (
	StageVertex Stage = 1 << iota
	StageFragment
	StageCompute
)

func (s Stage) String() string {
	var parts []string
	if s&StageVertex != 0 {
		parts = append(parts, "vertex")
	}
	if s&StageFragment != 0 {
		parts = append(parts, "fragment")
	}
	if s&StageCompute != 0 {
		parts = append(parts, "compute")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// shader is the implementation of the Shader interface.
// It holds the pre-processed source and its reflection.
type shader struct {
	key        string
	language   Language
	source     string
	reflection *Reflection

	pp PreProcessor
}

// Shader is a pre-processed and reflected shader source. It exposes the shader's unique key,
// the processed source code, its entry points and the uniform blocks and vertex inputs it
// declares, which backends check against the engine's uniform contract before use.
type Shader interface {
	// Key retrieves the unique identifier for this shader, used for caching and lookups.
	//
	// Returns:
	//   - string: the shader's unique key
	Key() string

	// Language returns the language the source is written in.
	//
	// Returns:
	//   - Language: LanguageWGSL or LanguageGLSL
	Language() Language

	// Stages returns every stage the source provides an entry point for.
	//
	// Returns:
	//   - Stage: a bitmask of StageVertex, StageFragment and StageCompute
	Stages() Stage

	// Source retrieves the pre-processed shader source code, ready for compilation.
	//
	// Returns:
	//   - string: the processed source code of the shader
	Source() string

	// EntryPoint returns the entry point name for a stage.
	//
	// Parameters:
	//   - stage: a single stage
	//
	// Returns:
	//   - string: the entry point name (e.g. "vs_main"), or an empty string if the stage is absent
	EntryPoint(stage Stage) string

	// Reflection returns the uniform blocks, vertex inputs and entry points parsed from the source.
	//
	// Returns:
	//   - *Reflection: the shader's reflection
	Reflection() *Reflection

	// Declarations returns the binding annotations expanded by the pre-processor.
	//
	// Returns:
	//   - []Annotation: the group annotations found in the source
	Declarations() []Annotation

	// Verify checks the shader's declaration of a uniform block against contract.
	//
	// Parameters:
	//   - contract: the expected block layout
	//
	// Returns:
	//   - error: ErrContractMissing if the block is absent, ErrContractMismatch if it differs
	Verify(contract UniformBlock) error
}

var _ Shader = &shader{}

// NewShader pre-processes and reflects source. WGSL sources may hold several stages and derive
// them from their entry points; stage then names the stages the caller requires. GLSL sources
// hold exactly the one stage given.
//
// Parameters:
//   - key: a unique identifier for the shader, used for caching and lookups
//   - lang: the source language
//   - stage: the required stage(s)
//   - source: the raw shader source
//
// Returns:
//   - Shader: the processed shader
//   - error: ErrParse, ErrStage or ErrUnknownLanguage wrapped with the shader key
func NewShader(key string, lang Language, stage Stage, source string) (Shader, error) {
	s := &shader{
		key:      key,
		language: lang,
		pp:       NewPreProcessor(),
	}

	processed, err := s.pp.Process(source, lang)
	if err != nil {
		return nil, fmt.Errorf("shader %s: %w: %v", key, ErrParse, err)
	}
	s.source = processed

	switch lang {
	case LanguageWGSL:
		s.reflection, err = parseWGSL(processed)
		if err == nil && s.reflection.Stages&stage != stage {
			err = fmt.Errorf("%w: requires %s, source provides %s", ErrStage, stage, s.reflection.Stages)
		}
	case LanguageGLSL:
		if stage != StageVertex && stage != StageFragment {
			return nil, fmt.Errorf("shader %s: %w: glsl source must be a single vertex or fragment stage, got %s", key, ErrStage, stage)
		}
		s.reflection, err = parseGLSL(processed, stage)
		if err == nil && s.reflection.EntryPoints[stage] == "" {
			err = fmt.Errorf("%w: %s source has no main function", ErrStage, stage)
		}
	default:
		return nil, fmt.Errorf("shader %s: %w: %q", key, ErrUnknownLanguage, lang)
	}
	if err != nil {
		return nil, fmt.Errorf("shader %s: %w", key, err)
	}
	return s, nil
}

// LoadShader reads a shader file and picks its language and stage from the extension:
// ".wgsl" (vertex and fragment), ".vert" and ".frag" (GLSL).
//
// Parameters:
//   - key: a unique identifier for the shader
//   - path: the file path to read source from
//
// Returns:
//   - Shader: the processed shader
//   - error: an error if the file cannot be read, has an unknown extension or fails to parse
func LoadShader(key, path string) (Shader, error) {
	lang, stage, err := languageForPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("shader %s: failed to read source file %q: %w", key, path, err)
	}
	return NewShader(key, lang, stage, string(data))
}

func languageForPath(path string) (Language, Stage, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wgsl":
		return LanguageWGSL, StageVertex | StageFragment, nil
	case ".vert":
		return LanguageGLSL, StageVertex, nil
	case ".frag":
		return LanguageGLSL, StageFragment, nil
	default:
		return "", 0, fmt.Errorf("%w: %q", ErrUnknownLanguage, path)
	}
}

func (s *shader) Key() string {
	return s.key
}

func (s *shader) Language() Language {
	return s.language
}

func (s *shader) Stages() Stage {
	return s.reflection.Stages
}

func (s *shader) Source() string {
	return s.source
}

func (s *shader) EntryPoint(stage Stage) string {
	return s.reflection.EntryPoints[stage]
}

func (s *shader) Reflection() *Reflection {
	return s.reflection
}

func (s *shader) Declarations() []Annotation {
	return s.pp.Declarations()
}

func (s *shader) Verify(contract UniformBlock) error {
	block, ok := s.reflection.Uniform(contract.Name)
	if !ok {
		return fmt.Errorf("shader %s: %w: %s", s.key, ErrContractMissing, contract.Name)
	}
	if err := compareBlock(contract, block); err != nil {
		return fmt.Errorf("shader %s: %w", s.key, err)
	}
	return nil
}
