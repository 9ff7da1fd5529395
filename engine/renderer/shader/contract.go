package shader

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
)

var (
	// HyperWGSL is the pipeline backend's wireframe shader, before pre-processing.
	//
	//go:embed assets/hyper.wgsl
	HyperWGSL string

	// HyperVert is the raster backend's GLSL vertex stage, before pre-processing.
	//
	//go:embed assets/hyper.vert
	HyperVert string

	// HyperFrag is the raster backend's GLSL fragment stage.
	//
	//go:embed assets/hyper.frag
	HyperFrag string

	// HyperUniformWGSL is the WGSL declaration injected by //@oxy:include hyper.
	//
	//go:embed assets/hyper_uniform.wgsl
	HyperUniformWGSL string

	// HyperUniformGLSL is the std140 block injected by //@oxy:include hyper in GLSL sources.
	//
	//go:embed assets/hyper_uniform.glsl
	HyperUniformGLSL string
)

// HyperContract is the layout every backend uploads per draw: 160 bytes at group 0, binding 0.
// Padding members (names starting with "_") are not part of the contract.
var HyperContract = UniformBlock{
	Name:     "Hyper",
	Instance: "hyper",
	Group:    0,
	Binding:  0,
	Size:     160,
	Fields: []UniformField{
		{Name: "rotation", Type: "mat4", Offset: 0, Size: 64},
		{Name: "view_proj", Type: "mat4", Offset: 64, Size: 64},
		{Name: "translation", Type: "vec4", Offset: 128, Size: 16},
		{Name: "projection_mode", Type: "uint", Offset: 144, Size: 4},
		{Name: "epsilon", Type: "float", Offset: 148, Size: 4},
		{Name: "distance", Type: "float", Offset: 152, Size: 4},
	},
}

// HyperPositionLocation is the attribute location of the raw 4D vertex position.
const HyperPositionLocation = 0

// InlineWGSL is a self-contained orthographic wireframe shader used when no asset is configured.
const InlineWGSL = `struct Hyper {
    rotation: mat4x4<f32>,
    view_proj: mat4x4<f32>,
    translation: vec4<f32>,
    projection_mode: u32,
    epsilon: f32,
    distance: f32,
    _pad: f32,
}

@group(0) @binding(0) var<uniform> hyper: Hyper;

struct VertexInput {
    @location(0) position: vec4<f32>,
}

@vertex
fn vs_main(input: VertexInput) -> @builtin(position) vec4<f32> {
    let world = hyper.rotation * input.position + hyper.translation;
    return hyper.view_proj * vec4<f32>(world.xyz, 1.0);
}

@fragment
fn fs_main() -> @location(0) vec4<f32> {
    return vec4<f32>(1.0, 1.0, 1.0, 1.0);
}
`

// InlineGLSL is the vertex stage counterpart of InlineWGSL.
const InlineGLSL = `#version 300 es
precision highp float;

layout(std140) uniform Hyper {
    mat4 rotation;
    mat4 view_proj;
    vec4 translation;
    uint projection_mode;
    float epsilon;
    float distance;
    float _pad;
} hyper;

layout(location = 0) in vec4 a_position;

void main() {
    vec4 world = hyper.rotation * a_position + hyper.translation;
    gl_Position = hyper.view_proj * vec4(world.xyz, 1.0);
}
`

// Verify checks a program, the set of shaders linked together, against contract. At least one
// shader must declare the block, every declaration must match it, and the vertex stage must
// read a vec4 position at HyperPositionLocation.
//
// Parameters:
//   - contract: the expected block layout
//   - shaders: the shaders of one program
//
// Returns:
//   - error: ErrContractMissing or ErrContractMismatch describing every violation found
func Verify(contract UniformBlock, shaders ...Shader) error {
	declared := false
	var errs []error
	for _, s := range shaders {
		r := s.Reflection()
		if block, ok := r.Uniform(contract.Name); ok {
			declared = true
			if err := compareBlock(contract, block); err != nil {
				errs = append(errs, fmt.Errorf("shader %s: %w", s.Key(), err))
			}
		}
		if r.Stages&StageVertex != 0 {
			if err := checkPositionInput(r); err != nil {
				errs = append(errs, fmt.Errorf("shader %s: %w", s.Key(), err))
			}
		}
	}
	if !declared {
		errs = append(errs, fmt.Errorf("%w: %s", ErrContractMissing, contract.Name))
	}
	return errors.Join(errs...)
}

// VerifyWGSL processes a WGSL source holding both render stages and verifies it against
// HyperContract.
//
// Parameters:
//   - key: the shader key
//   - source: the raw WGSL source
//
// Returns:
//   - Shader: the processed shader
//   - error: a parse or contract error
func VerifyWGSL(key, source string) (Shader, error) {
	s, err := NewShader(key, LanguageWGSL, StageVertex|StageFragment, source)
	if err != nil {
		return nil, err
	}
	if err := Verify(HyperContract, s); err != nil {
		return nil, err
	}
	return s, nil
}

// VerifyGLSL processes a GLSL vertex source and, when fragment is non-empty, a fragment
// source, and verifies the pair against HyperContract. An empty fragment source means the
// caller rasterizes without a fragment stage.
//
// Parameters:
//   - key: the program key; stages are keyed "<key>.vert" and "<key>.frag"
//   - vertex: the raw vertex source
//   - fragment: the raw fragment source, or ""
//
// Returns:
//   - []Shader: the processed stages, vertex first
//   - error: a parse or contract error
func VerifyGLSL(key, vertex, fragment string) ([]Shader, error) {
	vs, err := NewShader(key+".vert", LanguageGLSL, StageVertex, vertex)
	if err != nil {
		return nil, err
	}
	program := []Shader{vs}
	if fragment != "" {
		fs, err := NewShader(key+".frag", LanguageGLSL, StageFragment, fragment)
		if err != nil {
			return nil, err
		}
		program = append(program, fs)
	}
	if err := Verify(HyperContract, program...); err != nil {
		return nil, err
	}
	return program, nil
}

// compareBlock reports every way block departs from contract.
func compareBlock(contract, block UniformBlock) error {
	var problems []string
	if contract.Group >= 0 && block.Group >= 0 && block.Group != contract.Group {
		problems = append(problems, fmt.Sprintf("group %d, want %d", block.Group, contract.Group))
	}
	if contract.Binding >= 0 && block.Binding >= 0 && block.Binding != contract.Binding {
		problems = append(problems, fmt.Sprintf("binding %d, want %d", block.Binding, contract.Binding))
	}
	if block.Size != contract.Size {
		problems = append(problems, fmt.Sprintf("size %d, want %d", block.Size, contract.Size))
	}

	got := make(map[string]UniformField, len(block.Fields))
	for _, f := range block.Fields {
		got[f.Name] = f
	}
	for _, want := range contract.Fields {
		if strings.HasPrefix(want.Name, "_") {
			continue
		}
		f, ok := got[want.Name]
		switch {
		case !ok:
			problems = append(problems, fmt.Sprintf("missing field %s", want.Name))
		case f.Type != want.Type:
			problems = append(problems, fmt.Sprintf("field %s is %s, want %s", want.Name, f.Type, want.Type))
		case f.Offset != want.Offset:
			problems = append(problems, fmt.Sprintf("field %s at offset %d, want %d", want.Name, f.Offset, want.Offset))
		}
		delete(got, want.Name)
	}
	for _, f := range block.Fields {
		if _, extra := got[f.Name]; extra && !strings.HasPrefix(f.Name, "_") {
			problems = append(problems, fmt.Sprintf("unexpected field %s", f.Name))
		}
	}

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s: %s", ErrContractMismatch, contract.Name, strings.Join(problems, "; "))
}

func checkPositionInput(r *Reflection) error {
	for _, in := range r.Inputs {
		if in.Location == HyperPositionLocation {
			if in.Type != "vec4" {
				return fmt.Errorf("%w: position at location %d is %s, want vec4", ErrContractMismatch, in.Location, in.Type)
			}
			return nil
		}
	}
	return fmt.Errorf("%w: no vertex input at location %d", ErrContractMismatch, HyperPositionLocation)
}
