package resource

import "fmt"

// Type classifies a GPU-resident resource.
type Type int

const (
	TypeBuffer Type = iota
	TypeTexture
	TypeTextureView
	TypeSampler
	TypeShaderModule
	TypeProgram
	TypePipeline
	TypePipelineLayout
	TypeBindGroup
	TypeBindGroupLayout
	TypeFramebuffer
	TypeSurface
	TypeDevice
)

var typeNames = [...]string{
	TypeBuffer:          "buffer",
	TypeTexture:         "texture",
	TypeTextureView:     "texture_view",
	TypeSampler:         "sampler",
	TypeShaderModule:    "shader_module",
	TypeProgram:         "program",
	TypePipeline:        "pipeline",
	TypePipelineLayout:  "pipeline_layout",
	TypeBindGroup:       "bind_group",
	TypeBindGroupLayout: "bind_group_layout",
	TypeFramebuffer:     "framebuffer",
	TypeSurface:         "surface",
	TypeDevice:          "device",
}

func (t Type) String() string {
	if t >= 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// ID identifies a registered resource. IDs are never reused within a Registry.
type ID uint64

// Scope groups resources that are released together, typically one per scene or renderer.
type Scope string

// Handle is a backend object that can be destroyed. wgpu objects satisfy it directly.
type Handle interface {
	Release()
}

// Func adapts a plain function to Handle. Func handles are not comparable, so duplicate
// registration of the same Func is not detected.
type Func func()

// Release calls f.
func (f Func) Release() {
	if f != nil {
		f()
	}
}

// Entry is a snapshot of a registered resource.
type Entry struct {
	ID     ID
	Type   Type
	Scope  Scope
	Label  string
	Bytes  uint64
	Refs   int
	Handle Handle
}
