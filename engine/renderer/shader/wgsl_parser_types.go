package shader

// typeLayout holds the byte size and alignment of a uniform type.
type typeLayout struct {
	size  uint64
	align uint64
}

// parsedField represents a single field extracted from a struct or uniform block during parsing
type parsedField struct {
	name      string
	typeName  string
	location  int
	isBuiltin bool
}

// parsedStruct represents a struct or uniform block extracted during parsing
type parsedStruct struct {
	name   string
	fields []parsedField
}

// UniformField is one member of a uniform block with its resolved layout. Types are
// normalized across languages: "mat4", "vec4", "vec3", "vec2", "float", "int", "uint", "bool",
// or the name of a nested struct.
type UniformField struct {
	Name   string
	Type   string
	Offset uint64
	Size   uint64
}

// UniformBlock is a uniform buffer declaration: a WGSL var<uniform> or a GLSL uniform block.
type UniformBlock struct {
	// Name is the struct or block type name, e.g. "Hyper".
	Name string

	// Instance is the variable or instance name, e.g. "hyper". Empty for anonymous GLSL blocks.
	Instance string

	// Group and Binding locate the block. -1 when the source does not say.
	Group   int
	Binding int

	Fields []UniformField
	Size   uint64
}

// VertexInput is one vertex attribute consumed by a vertex stage.
type VertexInput struct {
	Name     string
	Type     string
	Location int
}

// Reflection is what the parsers extract from shader source.
type Reflection struct {
	Language    Language
	Stages      Stage
	EntryPoints map[Stage]string
	Uniforms    []UniformBlock
	Inputs      []VertexInput
}

// Uniform returns the uniform block with the given type name.
//
// Parameters:
//   - name: the block type name
//
// Returns:
//   - UniformBlock: the block
//   - bool: false if no block has that name
func (r *Reflection) Uniform(name string) (UniformBlock, bool) {
	for _, u := range r.Uniforms {
		if u.Name == name {
			return u, true
		}
	}
	return UniformBlock{}, false
}
